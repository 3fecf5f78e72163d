package vault_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/asset-vault/generic"
	"github.com/warp/asset-vault/vault"
)

func escrowID(n byte) generic.Hash {
	var h generic.Hash
	h[31] = n
	return h
}

// fundedDelivery deposits 1000 for alice and escrows 400 of it for bob's
// delivery by carrier, auto-releasing after one day.
func fundedDelivery(t *testing.T, f *fixture, id generic.Hash) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.vault.Deposit(ctx, alice, amt(1000)))
	require.NoError(t, f.vault.CreateDelivery(ctx, id, alice, carrier, bob, amt(400), start.Add(24*time.Hour)))
}

func TestDelivery_CreateDebitsSender(t *testing.T) {
	forEachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		fundedDelivery(t, f, escrowID(1))

		requireBalance(t, f, alice, "600")
		requireBalance(t, f, carrier, "0")

		d, err := f.vault.Delivery(ctx, escrowID(1))
		require.NoError(t, err)
		assert.Equal(t, vault.DeliveryPending, d.Status)
		assert.Equal(t, "400", d.Amount.String())

		logs := logsOf(t, f, carrier)
		require.Len(t, logs, 1)
		assert.Equal(t, generic.TxTransfer, logs[0].Type)
		assert.Equal(t, alice, logs[0].From)
	})
}

func TestDelivery_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fundedDelivery(t, f, escrowID(1))
	require.NoError(t, f.vault.LockAssets(ctx, alice, amt(500), start+3600, ""))
	deadline := start + 60

	tests := []struct {
		name     string
		id       generic.Hash
		amount   int64
		deadline generic.Timestamp
		want     error
	}{
		{"zero amount", escrowID(2), 0, deadline, generic.ErrInvalidAmount},
		{"deadline not in future", escrowID(2), 10, start, generic.ErrInvalidAmount},
		{"duplicate id", escrowID(1), 10, deadline, generic.ErrEscrowAlreadyExists},
		{"exceeds balance", escrowID(2), 601, deadline, generic.ErrInsufficientFunds},
		{"would dip into locked funds", escrowID(2), 101, deadline, generic.ErrAssetLocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.vault.CreateDelivery(ctx, tt.id, alice, carrier, bob, amt(tt.amount), tt.deadline)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	requireBalance(t, f, alice, "600")
	assert.NoError(t, f.vault.CreateDelivery(ctx, escrowID(2), alice, carrier, bob, amt(100), deadline))
}

func TestDelivery_ConfirmPaysCarrier(t *testing.T) {
	forEachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		fundedDelivery(t, f, escrowID(1))

		require.NoError(t, f.vault.ConfirmDelivery(ctx, escrowID(1), bob))

		requireBalance(t, f, carrier, "400")
		d, err := f.vault.Delivery(ctx, escrowID(1))
		require.NoError(t, err)
		assert.Equal(t, vault.DeliveryConfirmed, d.Status)

		assert.ErrorIs(t, f.vault.ConfirmDelivery(ctx, escrowID(1), bob), generic.ErrInvalidEscrowState)
		requireBalance(t, f, carrier, "400")
	})
}

func TestDelivery_OnlyReceiverActs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fundedDelivery(t, f, escrowID(1))

	assert.ErrorIs(t, f.vault.ConfirmDelivery(ctx, escrowID(1), mallory), generic.ErrUnauthorized)
	assert.ErrorIs(t, f.vault.DisputeDelivery(ctx, escrowID(1), alice), generic.ErrUnauthorized)
	assert.ErrorIs(t, f.vault.ConfirmDelivery(ctx, escrowID(9), bob), generic.ErrEscrowNotFound)

	f.denied[bob] = true
	assert.ErrorIs(t, f.vault.ConfirmDelivery(ctx, escrowID(1), bob), generic.ErrUnauthorized)
	requireBalance(t, f, carrier, "0")
}

func TestDelivery_AutoRelease(t *testing.T) {
	// GIVEN: A pending delivery due in one day
	// WHEN: Auto-release is checked before, at and after the deadline
	// THEN: Funds move exactly once, at the deadline

	forEachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		fundedDelivery(t, f, escrowID(1))

		f.clock.Advance(24*time.Hour - time.Second)
		released, err := f.vault.CheckAutoRelease(ctx, escrowID(1))
		require.NoError(t, err)
		assert.False(t, released, "not before the deadline")

		f.clock.Advance(time.Second)
		released, err = f.vault.CheckAutoRelease(ctx, escrowID(1))
		require.NoError(t, err)
		assert.True(t, released)
		requireBalance(t, f, carrier, "400")

		released, err = f.vault.CheckAutoRelease(ctx, escrowID(1))
		require.NoError(t, err)
		assert.False(t, released, "idempotent")
		requireBalance(t, f, carrier, "400")

		events := eventsOf(t, f, generic.EventEscrowAutoReleased)
		require.Len(t, events, 1)
		assert.Equal(t, escrowID(1).String(), events[0].Subject)
		assert.Equal(t, "400", events[0].Data["amount"])
		assert.Equal(t, "fast-freight", events[0].Data["carrier"])

		pending, err := f.vault.PendingDeliveries(ctx)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
}

func TestDelivery_DisputedNeverAutoReleases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fundedDelivery(t, f, escrowID(1))
	require.NoError(t, f.vault.DisputeDelivery(ctx, escrowID(1), bob))

	f.clock.Advance(48 * time.Hour)
	released, err := f.vault.CheckAutoRelease(ctx, escrowID(1))
	require.NoError(t, err)
	assert.False(t, released)

	requireBalance(t, f, alice, "600")
	requireBalance(t, f, carrier, "0")
	assert.ErrorIs(t, f.vault.ConfirmDelivery(ctx, escrowID(1), bob), generic.ErrInvalidEscrowState)

	_, err = f.vault.CheckAutoRelease(ctx, escrowID(7))
	assert.ErrorIs(t, err, generic.ErrEscrowNotFound)
}

func TestDelivery_PendingDeliveries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fundedDelivery(t, f, escrowID(2))
	require.NoError(t, f.vault.CreateDelivery(ctx, escrowID(1), alice, carrier, bob, amt(100), start+10))
	require.NoError(t, f.vault.CreateDelivery(ctx, escrowID(3), alice, carrier, bob, amt(100), start+10))
	require.NoError(t, f.vault.ConfirmDelivery(ctx, escrowID(3), bob))

	pending, err := f.vault.PendingDeliveries(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, escrowID(1), pending[0].ID)
	assert.Equal(t, escrowID(2), pending[1].ID)
}
