/*
errors.go - Centralized error taxonomy for the vault

PURPOSE:
  All caller-visible failures in one place. Every business-rule violation
  is a *VaultError carrying a stable numeric code; off-chain tooling maps the
  code back to a human-readable reason, so codes are never renumbered.

CODES:
  1  InsufficientFunds        withdrawal/escrow larger than the balance
  2  Unauthorized             missing auth proof, non-admin, wrong party
  3  InvalidAmount            non-positive, fractional or overflowing amount
  4  AssetLocked              would dip into time-locked funds
  5  ShipmentNotFound         unknown shipment or insurance record
  6  InsuranceAlreadyClaimed  second claim on the same shipment
  7  InvalidShipmentStatus    claim/dispute from the wrong state
  8  EscrowNotFound           unknown delivery escrow
  9  EscrowAlreadyExists      delivery escrow id reused
  10 InvalidEscrowState       delivery escrow no longer pending
  11 BatchTooLarge            shipment batch above the limit
  12 InvalidShipment          malformed batch entry
  13 InvalidStatusTransition  tracking status moved backwards

  Storage and encoding failures are NOT VaultErrors; they are wrapped with
  fmt.Errorf("...: %w") and carry no code.

USAGE:
  if errors.Is(err, generic.ErrAssetLocked) {
      ...
  }
  code := generic.CodeOf(err) // 0 when err is not a VaultError

SEE ALSO:
  - api/errors.go: HTTP status mapping
*/
package generic

import (
	"errors"
	"fmt"
)

// ErrorCode is the stable numeric identifier of a VaultError.
type ErrorCode int

const (
	CodeInsufficientFunds       ErrorCode = 1
	CodeUnauthorized            ErrorCode = 2
	CodeInvalidAmount           ErrorCode = 3
	CodeAssetLocked             ErrorCode = 4
	CodeShipmentNotFound        ErrorCode = 5
	CodeInsuranceAlreadyClaimed ErrorCode = 6
	CodeInvalidShipmentStatus   ErrorCode = 7
	CodeEscrowNotFound          ErrorCode = 8
	CodeEscrowAlreadyExists     ErrorCode = 9
	CodeInvalidEscrowState      ErrorCode = 10
	CodeBatchTooLarge           ErrorCode = 11
	CodeInvalidShipment         ErrorCode = 12
	CodeInvalidStatusTransition ErrorCode = 13
)

var codeNames = map[ErrorCode]string{
	CodeInsufficientFunds:       "insufficient funds",
	CodeUnauthorized:            "unauthorized",
	CodeInvalidAmount:           "invalid amount",
	CodeAssetLocked:             "asset locked",
	CodeShipmentNotFound:        "shipment not found",
	CodeInsuranceAlreadyClaimed: "insurance already claimed",
	CodeInvalidShipmentStatus:   "invalid shipment status",
	CodeEscrowNotFound:          "escrow not found",
	CodeEscrowAlreadyExists:     "escrow already exists",
	CodeInvalidEscrowState:      "invalid escrow state",
	CodeBatchTooLarge:           "batch too large",
	CodeInvalidShipment:         "invalid shipment",
	CodeInvalidStatusTransition: "invalid status transition",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("error code %d", int(c))
}

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrInsufficientFunds       = &VaultError{Code: CodeInsufficientFunds}
	ErrUnauthorized            = &VaultError{Code: CodeUnauthorized}
	ErrInvalidAmount           = &VaultError{Code: CodeInvalidAmount}
	ErrAssetLocked             = &VaultError{Code: CodeAssetLocked}
	ErrShipmentNotFound        = &VaultError{Code: CodeShipmentNotFound}
	ErrInsuranceAlreadyClaimed = &VaultError{Code: CodeInsuranceAlreadyClaimed}
	ErrInvalidShipmentStatus   = &VaultError{Code: CodeInvalidShipmentStatus}
	ErrEscrowNotFound          = &VaultError{Code: CodeEscrowNotFound}
	ErrEscrowAlreadyExists     = &VaultError{Code: CodeEscrowAlreadyExists}
	ErrInvalidEscrowState      = &VaultError{Code: CodeInvalidEscrowState}
	ErrBatchTooLarge           = &VaultError{Code: CodeBatchTooLarge}
	ErrInvalidShipment         = &VaultError{Code: CodeInvalidShipment}
	ErrInvalidStatusTransition = &VaultError{Code: CodeInvalidStatusTransition}
)

// =============================================================================
// STRUCTURED ERROR
// =============================================================================

// VaultError is a caller-visible failure. Two VaultErrors match under
// errors.Is when their codes are equal, so the sentinels above match any
// VaultError built with NewError.
type VaultError struct {
	Code   ErrorCode
	Op     string // operation that failed, e.g. "withdraw"
	Detail string
}

func NewError(code ErrorCode, op, detail string) *VaultError {
	return &VaultError{Code: code, Op: op, Detail: detail}
}

func (e *VaultError) Error() string {
	msg := e.Code.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return fmt.Sprintf("%s (code %d)", msg, int(e.Code))
}

func (e *VaultError) Is(target error) bool {
	t, ok := target.(*VaultError)
	return ok && t.Code == e.Code
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// CodeOf returns the VaultError code in err's chain, or 0.
func CodeOf(err error) ErrorCode {
	var ve *VaultError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return 0
}

// IsClientError returns true if the error is due to the caller's input or
// the current state, i.e. resubmitting a corrected invocation may succeed.
func IsClientError(err error) bool {
	return CodeOf(err) != 0
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrShipmentNotFound) || errors.Is(err, ErrEscrowNotFound)
}
