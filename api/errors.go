package api

import (
	"encoding/json"
	"net/http"

	"github.com/warp/asset-vault/generic"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// statusFor maps a vault error code to an HTTP status. Errors without a
// code are storage or programming failures.
func statusFor(code generic.ErrorCode) int {
	switch code {
	case generic.CodeUnauthorized:
		return http.StatusForbidden
	case generic.CodeShipmentNotFound, generic.CodeEscrowNotFound:
		return http.StatusNotFound
	case generic.CodeInsufficientFunds,
		generic.CodeAssetLocked,
		generic.CodeInsuranceAlreadyClaimed,
		generic.CodeInvalidShipmentStatus,
		generic.CodeEscrowAlreadyExists,
		generic.CodeInvalidEscrowState,
		generic.CodeInvalidStatusTransition:
		return http.StatusConflict
	case generic.CodeInvalidAmount, generic.CodeBatchTooLarge, generic.CodeInvalidShipment:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, code generic.ErrorCode, err error) {
	resp := ErrorResponse{Error: message, Code: int(code)}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeVaultError reports an error returned by a vault operation. Internal
// failures are logged and their details withheld from the client.
func (h *Handler) writeVaultError(w http.ResponseWriter, r *http.Request, err error) {
	code := generic.CodeOf(err)
	status := statusFor(code)
	if status == http.StatusInternalServerError {
		h.Logger.ErrorContext(r.Context(), "vault operation failed", "path", r.URL.Path, "error", err)
		writeError(w, status, "internal error", 0, nil)
		return
	}
	writeError(w, status, code.String(), code, err)
}
