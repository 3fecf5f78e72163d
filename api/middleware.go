package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/warp/asset-vault/auth"
	"github.com/warp/asset-vault/generic"
)

// maxBodyBytes bounds request bodies read for signature verification.
const maxBodyBytes = 1 << 20

// verifySignature checks the X-Vault-* headers of every request that
// carries them and records the signer in the request context. Each proof
// is accepted once. Unsigned requests pass through without a signer; the
// vault rejects them if the operation needs an authorization proof.
func verifySignature(maxSkew time.Duration, now func() time.Time, replay *auth.ReplayGuard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			proof := auth.Proof{
				PublicKey: r.Header.Get(auth.HeaderPublicKey),
				Timestamp: r.Header.Get(auth.HeaderTimestamp),
				Signature: r.Header.Get(auth.HeaderSignature),
			}
			if proof.IsZero() {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
			if err != nil {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large", 0, err)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			signer, err := auth.VerifyRequest(proof, r.Method, r.URL.Path, body, now(), maxSkew)
			if err != nil {
				if errors.Is(err, auth.ErrStaleRequest) {
					w.Header().Set("X-Vault-Server-Time", now().UTC().Format(time.RFC3339))
				}
				writeError(w, http.StatusUnauthorized, "invalid signature", generic.CodeUnauthorized, err)
				return
			}
			if err := replay.Check(proof); err != nil {
				writeError(w, http.StatusUnauthorized, "replayed request", generic.CodeUnauthorized, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithSigner(r.Context(), signer)))
		})
	}
}
