/*
Package generic provides the host-independent primitives of the asset vault.

PURPOSE:
  The vault package implements the business rules (ledger, locks, admins,
  shipments, insurance claims). This package holds everything those rules
  are built from but that knows nothing about them: amounts, addresses,
  chain time, storage keys, the storage contract, the transaction journal,
  caller authentication and the error taxonomy.

KEY CONCEPTS IN THIS FILE (types.go):
  - Address: An account identifier (opaque string)
  - Amount: A signed integer quantity bounded to 128 bits
  - Timestamp: Chain time in seconds

DESIGN PRINCIPLES:
  1. Precision: Amounts use decimal.Decimal restricted to integers, so there
     is no float rounding and no silent wraparound
  2. Bounded: Every Amount stays inside the signed 128-bit range; arithmetic
     that leaves it is reported, never truncated
  3. Type Safety: Addresses and timestamps are distinct named types

USAGE:
  amount, err := generic.ParseAmount("1000")
  total, err := balance.Add(amount)

SEE ALSO:
  - store.go: Storage keys and the Store contract
  - journal.go: Transaction log entries and events
  - errors.go: Error taxonomy with stable numeric codes
*/
package generic

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ADDRESS
// =============================================================================

// Address identifies an account. The vault treats it as opaque; the auth
// package derives addresses from ed25519 public keys.
type Address string

func (a Address) String() string { return string(a) }
func (a Address) IsZero() bool   { return a == "" }

// =============================================================================
// AMOUNT - Signed integer bounded to 128 bits
// =============================================================================

var (
	// MaxAmount is the largest representable amount (2^127 - 1).
	MaxAmount = Amount{Value: decimal.RequireFromString("170141183460469231731687303715884105727")}
	// MinAmount is the smallest representable amount (-2^127).
	MinAmount = Amount{Value: decimal.RequireFromString("-170141183460469231731687303715884105728")}
)

type Amount struct {
	Value decimal.Decimal
}

func NewAmount(v int64) Amount { return Amount{Value: decimal.NewFromInt(v)} }

// ParseAmount parses a base-10 integer. Fractions and values outside the
// 128-bit range are rejected.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	a := Amount{Value: d}
	if err := a.validate(); err != nil {
		return Amount{}, err
	}
	return a, nil
}

// MustParseAmount is ParseAmount for constants and tests.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) validate() error {
	if !a.Value.IsInteger() {
		return fmt.Errorf("amount %s is not an integer", a.Value)
	}
	if !a.InRange() {
		return fmt.Errorf("amount %s overflows 128 bits", a.Value)
	}
	return nil
}

// InRange reports whether a fits in a signed 128-bit integer.
func (a Amount) InRange() bool {
	return a.Value.Cmp(MinAmount.Value) >= 0 && a.Value.Cmp(MaxAmount.Value) <= 0
}

// Add returns a+b, or an InvalidAmount error when the sum overflows.
func (a Amount) Add(b Amount) (Amount, error) {
	sum := Amount{Value: a.Value.Add(b.Value)}
	if !sum.InRange() {
		return Amount{}, NewError(CodeInvalidAmount, "add", fmt.Sprintf("%s + %s overflows", a, b))
	}
	return sum, nil
}

// Sub returns a-b, or an InvalidAmount error when the difference overflows.
func (a Amount) Sub(b Amount) (Amount, error) {
	diff := Amount{Value: a.Value.Sub(b.Value)}
	if !diff.InRange() {
		return Amount{}, NewError(CodeInvalidAmount, "sub", fmt.Sprintf("%s - %s overflows", a, b))
	}
	return diff, nil
}

func (a Amount) IsZero() bool              { return a.Value.IsZero() }
func (a Amount) IsPositive() bool          { return a.Value.IsPositive() }
func (a Amount) IsNegative() bool          { return a.Value.IsNegative() }
func (a Amount) Equal(b Amount) bool       { return a.Value.Equal(b.Value) }
func (a Amount) GreaterThan(b Amount) bool { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool    { return a.Value.LessThan(b.Value) }
func (a Amount) Cmp(b Amount) int          { return a.Value.Cmp(b.Value) }
func (a Amount) String() string            { return a.Value.String() }

// Max returns the larger of a and b.
func (a Amount) Max(b Amount) Amount {
	if a.LessThan(b) {
		return b
	}
	return a
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return a.Value.MarshalJSON()
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	parsed := Amount{Value: d}
	if err := parsed.validate(); err != nil {
		return err
	}
	*a = parsed
	return nil
}

// =============================================================================
// TIMESTAMP - Chain time
// =============================================================================

// Timestamp is chain time in whole seconds since the Unix epoch.
type Timestamp uint64

func TimestampOf(t time.Time) Timestamp {
	if t.Unix() < 0 {
		return 0
	}
	return Timestamp(t.Unix())
}

func (ts Timestamp) Time() time.Time               { return time.Unix(int64(ts), 0).UTC() }
func (ts Timestamp) Add(d time.Duration) Timestamp { return ts + Timestamp(d/time.Second) }
func (ts Timestamp) String() string                { return ts.Time().Format(time.RFC3339) }

// =============================================================================
// HASH - 32-byte identifiers (escrow ids, shipment data hashes)
// =============================================================================

type Hash [32]byte

// ParseHash decodes 64 hex characters.
func ParseHash(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("parse hash: %w", err)
	}
	if len(b) != len(h) {
		return h, fmt.Errorf("parse hash: want %d bytes, got %d", len(h), len(b))
	}
	copy(h[:], b)
	return h, nil
}

func (h Hash) String() string { return hex.EncodeToString(h[:]) }
func (h Hash) IsZero() bool   { return h == Hash{} }

func (h Hash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
