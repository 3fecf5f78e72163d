package auth

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mr-tron/base58/base58"

	"github.com/warp/asset-vault/generic"
)

// Header names carrying the request proof.
const (
	HeaderPublicKey = "X-Vault-Public-Key"
	HeaderTimestamp = "X-Vault-Timestamp"
	HeaderSignature = "X-Vault-Signature"
)

// DefaultMaxSkew bounds how far a request timestamp may drift from the
// server clock.
const DefaultMaxSkew = 5 * time.Minute

var (
	ErrMissingProof     = errors.New("missing request signature")
	ErrInvalidSignature = errors.New("invalid request signature")
	ErrStaleRequest     = errors.New("request timestamp outside allowed window")
)

// Proof is the signature material attached to one request.
type Proof struct {
	PublicKey string
	Timestamp string
	Signature string
}

// IsZero reports whether no proof headers were sent at all.
func (p Proof) IsZero() bool {
	return p.PublicKey == "" && p.Timestamp == "" && p.Signature == ""
}

// SigningBytes is the message a client signs for one request.
func SigningBytes(method, path string, timestamp int64, body []byte) []byte {
	head := method + "\n" + path + "\n" + strconv.FormatInt(timestamp, 10) + "\n"
	b := make([]byte, 0, len(head)+len(body))
	b = append(b, head...)
	return append(b, body...)
}

// SignRequest produces the Proof a client attaches to a request.
func SignRequest(priv ed25519.PrivateKey, method, path string, at time.Time, body []byte) Proof {
	ts := at.Unix()
	sig := ed25519.Sign(priv, SigningBytes(method, path, ts, body))
	return Proof{
		PublicKey: EncodePublicKey(priv.Public().(ed25519.PublicKey)),
		Timestamp: strconv.FormatInt(ts, 10),
		Signature: base58.Encode(sig),
	}
}

// VerifyRequest checks p against the request and returns the signer's
// address. maxSkew <= 0 uses DefaultMaxSkew.
func VerifyRequest(p Proof, method, path string, body []byte, now time.Time, maxSkew time.Duration) (generic.Address, error) {
	if p.PublicKey == "" || p.Timestamp == "" || p.Signature == "" {
		return "", ErrMissingProof
	}
	if maxSkew <= 0 {
		maxSkew = DefaultMaxSkew
	}

	pub, err := ParsePublicKey(p.PublicKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	ts, err := strconv.ParseInt(p.Timestamp, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: bad timestamp %q", ErrInvalidSignature, p.Timestamp)
	}
	if drift := now.Sub(time.Unix(ts, 0)); drift > maxSkew || drift < -maxSkew {
		return "", ErrStaleRequest
	}
	sig, err := base58.Decode(p.Signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return "", ErrInvalidSignature
	}
	if !ed25519.Verify(pub, SigningBytes(method, path, ts, body), sig) {
		return "", ErrInvalidSignature
	}
	return AddressFromPublicKey(pub)
}
