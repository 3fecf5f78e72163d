/*
store.go - Storage keys and the persistence contract

PURPOSE:
  Defines the interface between the vault rules and whatever holds state.
  The vault never keeps references across invocations: every operation
  re-reads what it needs through a Store and writes back before returning.
  Different implementations can use SQLite or in-memory maps.

KEYS:
  Key is a tagged union with one variant per entity class. Each variant
  carries its own identifying parameters:

    AdminsKey()                 the admin set
    CarriersKey()               the carrier registry
    BalanceKey(addr)            balance of one account
    LocksKey(addr)              ordered locks of one account
    ShipmentKey(id)             one shipment
    InsuranceKey(id)            insurance record of one shipment
    NextShipmentIDKey()         shipment id counter
    EscrowKey(hash)             one delivery escrow
    BatchShipmentKey(id)        one batch-created shipment

  Keys render to stable strings ("balance/<addr>") so every backend can
  use them as primary keys, and ParseKey reverses the encoding.

ATOMIC INVOCATIONS:
  TxStore.WithTx runs one invocation. If fn returns an error, every write
  made through the Store handed to fn (state, log entries, events) is
  discarded. This reproduces the host ledger's rollback-on-error guarantee.

IMPLEMENTATIONS:
  - generic/store/memory.go: In-memory with snapshot + restore
  - store/sqlite/sqlite.go: SQLite with database transactions

SEE ALSO:
  - journal.go: TransactionLog and Event records written through Store
*/
package generic

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// KEY - One variant per entity class
// =============================================================================

type KeyKind string

const (
	KindAdmins         KeyKind = "admins"
	KindCarriers       KeyKind = "carriers"
	KindBalance        KeyKind = "balance"
	KindLocks          KeyKind = "locks"
	KindShipment       KeyKind = "shipment"
	KindInsurance      KeyKind = "insurance"
	KindNextShipmentID KeyKind = "next_shipment_id"
	KindEscrow         KeyKind = "escrow"
	KindBatchShipment  KeyKind = "batch_shipment"
)

// Key addresses one stored value. Only the field relevant to Kind is set.
type Key struct {
	Kind       KeyKind
	Account    Address
	ShipmentID uint64
	EscrowID   string
}

func AdminsKey() Key                 { return Key{Kind: KindAdmins} }
func CarriersKey() Key               { return Key{Kind: KindCarriers} }
func BalanceKey(a Address) Key       { return Key{Kind: KindBalance, Account: a} }
func LocksKey(a Address) Key         { return Key{Kind: KindLocks, Account: a} }
func ShipmentKey(id uint64) Key      { return Key{Kind: KindShipment, ShipmentID: id} }
func InsuranceKey(id uint64) Key     { return Key{Kind: KindInsurance, ShipmentID: id} }
func NextShipmentIDKey() Key         { return Key{Kind: KindNextShipmentID} }
func EscrowKey(id Hash) Key          { return Key{Kind: KindEscrow, EscrowID: id.String()} }
func BatchShipmentKey(id uint64) Key { return Key{Kind: KindBatchShipment, ShipmentID: id} }

func (k Key) String() string {
	switch k.Kind {
	case KindBalance, KindLocks:
		return string(k.Kind) + "/" + string(k.Account)
	case KindShipment, KindInsurance, KindBatchShipment:
		return string(k.Kind) + "/" + strconv.FormatUint(k.ShipmentID, 10)
	case KindEscrow:
		return string(k.Kind) + "/" + k.EscrowID
	default:
		return string(k.Kind)
	}
}

// ParseKey is the inverse of Key.String.
func ParseKey(s string) (Key, error) {
	kind, param, _ := strings.Cut(s, "/")
	switch KeyKind(kind) {
	case KindAdmins, KindCarriers, KindNextShipmentID:
		if param != "" {
			return Key{}, fmt.Errorf("key %q: unexpected parameter", s)
		}
		return Key{Kind: KeyKind(kind)}, nil
	case KindBalance, KindLocks:
		if param == "" {
			return Key{}, fmt.Errorf("key %q: missing account", s)
		}
		return Key{Kind: KeyKind(kind), Account: Address(param)}, nil
	case KindShipment, KindInsurance, KindBatchShipment:
		id, err := strconv.ParseUint(param, 10, 64)
		if err != nil {
			return Key{}, fmt.Errorf("key %q: %w", s, err)
		}
		return Key{Kind: KeyKind(kind), ShipmentID: id}, nil
	case KindEscrow:
		if param == "" {
			return Key{}, fmt.Errorf("key %q: missing escrow id", s)
		}
		return Key{Kind: KindEscrow, EscrowID: param}, nil
	default:
		return Key{}, fmt.Errorf("key %q: unknown kind", s)
	}
}

// =============================================================================
// STORE - Key/value state plus the write side of the journal
// =============================================================================

// Store is the view one invocation has of persistent state.
type Store interface {
	// Get returns the raw value and whether it exists.
	Get(ctx context.Context, key Key) ([]byte, bool, error)

	Set(ctx context.Context, key Key, value []byte) error

	Has(ctx context.Context, key Key) (bool, error)

	Remove(ctx context.Context, key Key) error

	// Keys lists stored keys of one kind, in key-string order.
	Keys(ctx context.Context, kind KeyKind) ([]Key, error)

	// AppendLog records an audit entry. Write-only from the vault's side.
	AppendLog(ctx context.Context, entry TransactionLog) error

	// Emit publishes an event for off-chain observers.
	Emit(ctx context.Context, event Event) error
}

// TxStore wraps Store with all-or-nothing invocations.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	// If fn returns nil, transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// TYPED ACCESS
// =============================================================================

// GetValue decodes the JSON value at key into T.
func GetValue[T any](ctx context.Context, s Store, key Key) (T, bool, error) {
	var v T
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return v, false, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return v, true, nil
}

// SetValue stores v as JSON at key.
func SetValue[T any](ctx context.Context, s Store, key Key, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}
