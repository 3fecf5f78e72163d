package vault

import (
	"context"
	"slices"

	"github.com/warp/asset-vault/generic"
)

// =============================================================================
// ADMIN REGISTRY
// =============================================================================

// Initialize creates the admin set with initialAdmin as its only member.
// It fails with Unauthorized once any admin exists, so a vault can be
// initialized exactly once. No authorization proof is required: the first
// caller after deployment defines the admin.
func (v *Vault) Initialize(ctx context.Context, initialAdmin generic.Address) error {
	return v.invoke(ctx, "initialize", func(inv *invocation) error {
		exists, err := inv.store.Has(inv.ctx, generic.AdminsKey())
		if err != nil {
			return err
		}
		if exists {
			return inv.fail(generic.CodeUnauthorized, "vault already initialized")
		}
		if initialAdmin.IsZero() {
			return inv.fail(generic.CodeUnauthorized, "empty admin address")
		}
		return generic.SetValue(inv.ctx, inv.store, generic.AdminsKey(), []generic.Address{initialAdmin})
	})
}

// AddAdmin grants admin rights to newAdmin. caller must prove authorization
// and already be an admin. Adding an existing admin is a no-op.
func (v *Vault) AddAdmin(ctx context.Context, caller, newAdmin generic.Address) error {
	return v.invoke(ctx, "add_admin", func(inv *invocation) error {
		if err := inv.requireAdmin(caller); err != nil {
			return err
		}
		if newAdmin.IsZero() {
			return inv.fail(generic.CodeUnauthorized, "empty admin address")
		}

		admins, err := inv.admins()
		if err != nil {
			return err
		}
		if slices.Contains(admins, newAdmin) {
			return nil
		}
		admins = append(admins, newAdmin)
		return generic.SetValue(inv.ctx, inv.store, generic.AdminsKey(), admins)
	})
}

// IsAdmin reports whether account is in the admin set.
func (v *Vault) IsAdmin(ctx context.Context, account generic.Address) (bool, error) {
	var out bool
	err := v.invoke(ctx, "is_admin", func(inv *invocation) error {
		var err error
		out, err = inv.isAdmin(account)
		return err
	})
	return out, err
}

// Admins returns the admin set in insertion order.
func (v *Vault) Admins(ctx context.Context) ([]generic.Address, error) {
	var out []generic.Address
	err := v.invoke(ctx, "get_admins", func(inv *invocation) error {
		var err error
		out, err = inv.admins()
		return err
	})
	return out, err
}

func (inv *invocation) admins() ([]generic.Address, error) {
	admins, _, err := generic.GetValue[[]generic.Address](inv.ctx, inv.store, generic.AdminsKey())
	if err != nil {
		return nil, err
	}
	if admins == nil {
		admins = []generic.Address{}
	}
	return admins, nil
}

func (inv *invocation) isAdmin(account generic.Address) (bool, error) {
	admins, err := inv.admins()
	if err != nil {
		return false, err
	}
	return slices.Contains(admins, account), nil
}
