/*
Package vault implements the secure asset vault.

PURPOSE:
  Holds per-account balances, time-locked holds on those balances, and a
  shipment escrow / insurance claim workflow on top. Delivery escrows move
  real funds from a sender to a carrier with an auto-release deadline.

COMPONENTS:
  ledger.go    Account Ledger        deposit, withdraw, balance
  locks.go     Lock Manager          lock_assets, encumbrance
  admin.go     Admin Registry        initialize, add_admin, is_admin
  shipment.go  Shipment Escrow       create_shipment, deposit_insurance, batches
  claim.go     Insurance Claims      mark_disputed, claim_insurance
  tracking.go  Shipment Tracking     add_carrier, update_tracking
  delivery.go  Delivery Escrow       create/confirm/dispute, auto-release

INVOCATION MODEL:
  Every public method is one invocation:
    1. Authenticate the caller (before any state is touched)
    2. Read the state it needs through the Store
    3. Validate everything
    4. Write state, append log entries, emit events
  The whole invocation runs inside TxStore.WithTx, so a failure at any
  step leaves no partial state, log entry or event behind.

  There is no background work. Lock expiry and escrow deadlines are
  evaluated against the Clock when an invocation needs them.

USAGE:
  v := vault.New(store, authenticator, vault.WithClock(clock))
  if err := v.Initialize(ctx, admin); err != nil { ... }
  if err := v.Deposit(ctx, alice, generic.NewAmount(1000)); err != nil { ... }

SEE ALSO:
  - generic/errors.go: Error codes returned by every operation
  - generic/store.go: Storage contract
*/
package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/warp/asset-vault/generic"
)

// =============================================================================
// VAULT
// =============================================================================

type Vault struct {
	store   generic.TxStore
	auth    generic.Authenticator
	clock   generic.Clock
	logger  *slog.Logger
	metrics *Metrics
}

type Option func(*Vault)

func WithClock(c generic.Clock) Option { return func(v *Vault) { v.clock = c } }
func WithLogger(l *slog.Logger) Option { return func(v *Vault) { v.logger = l } }
func WithMetrics(m *Metrics) Option    { return func(v *Vault) { v.metrics = m } }

// New creates a vault over store. auth is consulted before every mutation.
func New(store generic.TxStore, auth generic.Authenticator, opts ...Option) *Vault {
	v := &Vault{
		store:  store,
		auth:   auth,
		clock:  generic.SystemClock{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Now returns the vault's view of chain time.
func (v *Vault) Now() generic.Timestamp { return v.clock.Now() }

// invoke runs fn as one all-or-nothing invocation.
func (v *Vault) invoke(ctx context.Context, op string, fn func(inv *invocation) error) error {
	start := time.Now()
	err := v.store.WithTx(ctx, func(s generic.Store) error {
		return fn(&invocation{
			ctx:   ctx,
			op:    op,
			store: s,
			auth:  v.auth,
			now:   v.clock.Now(),
		})
	})
	v.metrics.observe(op, err, time.Since(start))

	switch {
	case err == nil:
		v.logger.DebugContext(ctx, "invocation committed", "op", op, "duration", time.Since(start))
	case generic.IsClientError(err):
		v.logger.DebugContext(ctx, "invocation rejected", "op", op, "code", int(generic.CodeOf(err)), "error", err)
	default:
		v.logger.WarnContext(ctx, "invocation failed", "op", op, "error", err)
	}
	return err
}

// =============================================================================
// INVOCATION - State and helpers for one operation
// =============================================================================

type invocation struct {
	ctx   context.Context
	op    string
	store generic.Store
	auth  generic.Authenticator
	now   generic.Timestamp
}

func (inv *invocation) fail(code generic.ErrorCode, format string, args ...any) error {
	return generic.NewError(code, inv.op, fmt.Sprintf(format, args...))
}

// requireAuth demands an authorization proof from account. Any
// authenticator failure surfaces as Unauthorized.
func (inv *invocation) requireAuth(account generic.Address) error {
	if account.IsZero() {
		return inv.fail(generic.CodeUnauthorized, "empty address")
	}
	err := inv.auth.RequireAuth(inv.ctx, account)
	if err == nil {
		return nil
	}
	if errors.Is(err, generic.ErrUnauthorized) {
		return err
	}
	return inv.fail(generic.CodeUnauthorized, "%s: %v", account, err)
}

// requireAdmin demands an authorization proof from account and membership
// in the admin set.
func (inv *invocation) requireAdmin(account generic.Address) error {
	if err := inv.requireAuth(account); err != nil {
		return err
	}
	ok, err := inv.isAdmin(account)
	if err != nil {
		return err
	}
	if !ok {
		return inv.fail(generic.CodeUnauthorized, "%s is not an admin", account)
	}
	return nil
}

func (inv *invocation) requirePositive(amount generic.Amount) error {
	if !amount.IsPositive() || !amount.Value.IsInteger() || !amount.InRange() {
		return inv.fail(generic.CodeInvalidAmount, "amount must be a positive integer, got %s", amount)
	}
	return nil
}

func (inv *invocation) add(a, b generic.Amount) (generic.Amount, error) {
	sum, err := a.Add(b)
	if err != nil {
		return generic.Amount{}, inv.fail(generic.CodeInvalidAmount, "%s + %s overflows", a, b)
	}
	return sum, nil
}

func (inv *invocation) sub(a, b generic.Amount) (generic.Amount, error) {
	diff, err := a.Sub(b)
	if err != nil {
		return generic.Amount{}, inv.fail(generic.CodeInvalidAmount, "%s - %s overflows", a, b)
	}
	return diff, nil
}

func (inv *invocation) record(from, to generic.Address, amount generic.Amount, typ generic.TransactionType) error {
	return inv.store.AppendLog(inv.ctx, generic.NewTransactionLog(from, to, amount, inv.now, typ))
}

func (inv *invocation) emit(topic generic.EventTopic, subject string, data map[string]string) error {
	return inv.store.Emit(inv.ctx, generic.NewEvent(topic, subject, inv.now, data))
}
