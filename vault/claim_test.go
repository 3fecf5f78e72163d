package vault_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/asset-vault/generic"
	"github.com/warp/asset-vault/vault"
)

// insuredShipment creates a shipment from company to alice with 2000 of
// insurance and returns its id.
func insuredShipment(t *testing.T, f *fixture) uint64 {
	t.Helper()
	ctx := context.Background()
	id, err := f.vault.CreateShipment(ctx, company, alice, amt(10000))
	require.NoError(t, err)
	require.NoError(t, f.vault.DepositInsurance(ctx, company, id, amt(2000)))
	return id
}

func TestClaim_HappyPathThenAlreadyClaimed(t *testing.T) {
	// GIVEN: An insured shipment marked disputed
	// WHEN: The admin claims insurance for alice, then claims again
	// THEN: The first claim succeeds; the second is InsuranceAlreadyClaimed

	forEachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		id := insuredShipment(t, f)
		require.NoError(t, f.vault.MarkDisputed(ctx, admin, id))

		require.NoError(t, f.vault.ClaimInsurance(ctx, admin, id, alice))

		s, err := f.vault.Shipment(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, vault.StatusInsuranceClaimed, s.Status)

		ins, err := f.vault.Insurance(ctx, id)
		require.NoError(t, err)
		assert.True(t, ins.Claimed)

		claims := logsOf(t, f, alice)
		require.Len(t, claims, 1)
		assert.Equal(t, generic.TxInsuranceClaim, claims[0].Type)
		assert.Equal(t, company, claims[0].From)
		assert.Equal(t, "2000", claims[0].Amount.String())

		events := eventsOf(t, f, generic.EventInsuranceClaimed)
		require.Len(t, events, 1)
		assert.Equal(t, map[string]string{"shipment_id": "1", "claimant": "alice", "amount": "2000"}, events[0].Data)

		err = f.vault.ClaimInsurance(ctx, admin, id, alice)
		assert.ErrorIs(t, err, generic.ErrInsuranceAlreadyClaimed)
		err = f.vault.ClaimInsurance(ctx, admin, id, bob)
		assert.ErrorIs(t, err, generic.ErrInsuranceAlreadyClaimed, "repeat claims always fail the same way")
	})
}

func TestClaim_BeforeDisputeIsInvalidStatus(t *testing.T) {
	f := newFixture(t)
	id := insuredShipment(t, f)

	err := f.vault.ClaimInsurance(context.Background(), admin, id, alice)

	assert.ErrorIs(t, err, generic.ErrInvalidShipmentStatus)
	assert.Empty(t, eventsOf(t, f, generic.EventInsuranceClaimed))
}

func TestClaim_NonAdminIsUnauthorized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := insuredShipment(t, f)
	require.NoError(t, f.vault.MarkDisputed(ctx, admin, id))

	assert.ErrorIs(t, f.vault.ClaimInsurance(ctx, mallory, id, mallory), generic.ErrUnauthorized)
	assert.ErrorIs(t, f.vault.MarkDisputed(ctx, mallory, id), generic.ErrUnauthorized)

	ins, err := f.vault.Insurance(ctx, id)
	require.NoError(t, err)
	assert.False(t, ins.Claimed)
}

func TestClaim_WithoutInsuranceIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.vault.CreateShipment(ctx, company, alice, amt(100))
	require.NoError(t, err)
	require.NoError(t, f.vault.MarkDisputed(ctx, admin, id))

	assert.ErrorIs(t, f.vault.ClaimInsurance(ctx, admin, id, alice), generic.ErrShipmentNotFound)
	assert.ErrorIs(t, f.vault.ClaimInsurance(ctx, admin, 42, alice), generic.ErrShipmentNotFound)
	assert.ErrorIs(t, f.vault.MarkDisputed(ctx, admin, 42), generic.ErrShipmentNotFound)
}

func TestClaim_DisputeOnlyFromActive(t *testing.T) {
	// GIVEN: A disputed shipment
	// WHEN: It is disputed again, and again after the claim
	// THEN: Both transitions are rejected and the status is unchanged

	f := newFixture(t)
	ctx := context.Background()
	id := insuredShipment(t, f)
	require.NoError(t, f.vault.MarkDisputed(ctx, admin, id))

	assert.ErrorIs(t, f.vault.MarkDisputed(ctx, admin, id), generic.ErrInvalidShipmentStatus)

	require.NoError(t, f.vault.ClaimInsurance(ctx, admin, id, alice))
	assert.ErrorIs(t, f.vault.MarkDisputed(ctx, admin, id), generic.ErrInvalidShipmentStatus)

	s, err := f.vault.Shipment(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, vault.StatusInsuranceClaimed, s.Status)
}
