package vault_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/asset-vault/generic"
	"github.com/warp/asset-vault/generic/store"
	"github.com/warp/asset-vault/vault"
)

func TestAdmin_InitializeOnce(t *testing.T) {
	f := newFixture(t)

	err := f.vault.Initialize(context.Background(), mallory)

	assert.ErrorIs(t, err, generic.ErrUnauthorized)
	admins, err := f.vault.Admins(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []generic.Address{admin}, admins)
}

func TestAdmin_InitializeRejectsEmptyAddress(t *testing.T) {
	v := vault.New(store.NewTxMemory(), generic.AuthenticatorFunc(func(context.Context, generic.Address) error { return nil }))

	assert.ErrorIs(t, v.Initialize(context.Background(), ""), generic.ErrUnauthorized)
	assert.NoError(t, v.Initialize(context.Background(), admin), "a failed initialize leaves the vault uninitialized")
}

func TestAdmin_AddAdmin(t *testing.T) {
	// GIVEN: An initialized vault
	// WHEN: The admin adds alice, then alice adds bob
	// THEN: All three are admins, in insertion order

	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.vault.AddAdmin(ctx, admin, alice))
	require.NoError(t, f.vault.AddAdmin(ctx, alice, bob))
	require.NoError(t, f.vault.AddAdmin(ctx, admin, bob), "re-adding is a no-op")

	admins, err := f.vault.Admins(ctx)
	require.NoError(t, err)
	assert.Equal(t, []generic.Address{admin, alice, bob}, admins)

	ok, err := f.vault.IsAdmin(ctx, bob)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAdmin_NonAdminCannotSelfPromote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.vault.AddAdmin(ctx, mallory, mallory)

	assert.ErrorIs(t, err, generic.ErrUnauthorized)
	ok, err := f.vault.IsAdmin(ctx, mallory)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdmin_AddAdminRequiresProof(t *testing.T) {
	// An admin whose signature is missing cannot act.
	f := newFixture(t)
	f.denied[admin] = true

	err := f.vault.AddAdmin(context.Background(), admin, alice)

	assert.ErrorIs(t, err, generic.ErrUnauthorized)
}
