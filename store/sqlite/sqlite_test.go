package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/asset-vault/generic"
	"github.com/warp/asset-vault/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// =============================================================================
// STATE
// =============================================================================

func TestStore_SetGetRemove(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	key := generic.BalanceKey("alice")

	_, ok, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, key, []byte(`"100"`)))
	require.NoError(t, s.Set(ctx, key, []byte(`"250"`)), "set upserts")

	raw, ok, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"250"`, string(raw))

	require.NoError(t, s.Remove(ctx, key))
	has, err := s.Has(ctx, key)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestStore_KeysByKind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, generic.ShipmentKey(2), []byte(`{}`)))
	require.NoError(t, s.Set(ctx, generic.ShipmentKey(1), []byte(`{}`)))
	require.NoError(t, s.Set(ctx, generic.InsuranceKey(1), []byte(`{}`)))

	keys, err := s.Keys(ctx, generic.KindShipment)
	require.NoError(t, err)
	assert.Equal(t, []generic.Key{generic.ShipmentKey(1), generic.ShipmentKey(2)}, keys)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestStore_WithTx_RollsBackEverything(t *testing.T) {
	// GIVEN: A transaction that writes state, a log entry and an event
	// WHEN: It returns an error
	// THEN: None of the three is visible afterwards

	s := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx generic.Store) error {
		require.NoError(t, tx.Set(ctx, generic.AdminsKey(), []byte(`["admin"]`)))
		require.NoError(t, tx.AppendLog(ctx, generic.NewTransactionLog("a", "a", generic.NewAmount(1), 10, generic.TxDeposit)))
		require.NoError(t, tx.Emit(ctx, generic.NewEvent(generic.EventInsuranceDeposited, "1", 10, nil)))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	has, err := s.Has(ctx, generic.AdminsKey())
	require.NoError(t, err)
	assert.False(t, has)

	logs, err := s.Logs(ctx, generic.JournalFilter{})
	require.NoError(t, err)
	assert.Empty(t, logs)

	events, err := s.Events(ctx, generic.JournalFilter{})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestStore_WithTx_Commits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WithTx(ctx, func(tx generic.Store) error {
		return tx.Set(ctx, generic.NextShipmentIDKey(), []byte(`7`))
	}))

	raw, ok, err := s.Get(ctx, generic.NextShipmentIDKey())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "7", string(raw))
}

// =============================================================================
// JOURNAL
// =============================================================================

func TestStore_LogsFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	big := generic.MustParseAmount("170141183460469231731687303715884105727")
	entries := []generic.TransactionLog{
		generic.NewTransactionLog("alice", "alice", generic.NewAmount(100), 1, generic.TxDeposit),
		generic.NewTransactionLog("bob", "bob", big, 2, generic.TxDeposit),
		generic.NewTransactionLog("alice", "carol", generic.NewAmount(40), 3, generic.TxWithdrawal),
	}
	for _, e := range entries {
		require.NoError(t, s.AppendLog(ctx, e))
	}

	all, err := s.Logs(ctx, generic.JournalFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, big.String(), all[1].Amount.String(), "amounts keep full precision")

	alice, err := s.Logs(ctx, generic.JournalFilter{Account: "alice"})
	require.NoError(t, err)
	assert.Len(t, alice, 2)

	carol, err := s.Logs(ctx, generic.JournalFilter{Account: "carol", Types: []generic.TransactionType{generic.TxWithdrawal}})
	require.NoError(t, err)
	require.Len(t, carol, 1)
	assert.Equal(t, entries[2].ID, carol[0].ID)

	limited, err := s.Logs(ctx, generic.JournalFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStore_EventsFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Emit(ctx, generic.NewEvent(generic.EventInsuranceDeposited, "1", 5, map[string]string{"amount": "10"})))
	require.NoError(t, s.Emit(ctx, generic.NewEvent(generic.EventInsuranceClaimed, "1", 6, map[string]string{"claimant": "bob"})))
	require.NoError(t, s.Emit(ctx, generic.NewEvent(generic.EventInsuranceDeposited, "2", 7, nil)))

	deposited, err := s.Events(ctx, generic.JournalFilter{Topic: generic.EventInsuranceDeposited})
	require.NoError(t, err)
	require.Len(t, deposited, 2)
	assert.Equal(t, "10", deposited[0].Data["amount"])
	assert.Equal(t, generic.Timestamp(7), deposited[1].Timestamp)

	first, err := s.Events(ctx, generic.JournalFilter{Subject: "1"})
	require.NoError(t, err)
	assert.Len(t, first, 2)

	require.NoError(t, s.Reset(ctx))
	all, err := s.Events(ctx, generic.JournalFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}
