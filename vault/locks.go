package vault

import (
	"context"

	"github.com/warp/asset-vault/generic"
)

// =============================================================================
// LOCK MANAGER
// =============================================================================
//
// Locks are advisory holds: they never debit the balance. A withdrawal (or
// escrow funding) is allowed only if balance - amount >= encumbered, where
// encumbered is the sum of locks whose ReleaseTime is strictly after now.
// Expired locks stay stored and simply stop counting.

// LockAssets places a hold of amount on from's balance until releaseTime.
// amount may not exceed the current balance; it is not checked against
// locks already in place.
func (v *Vault) LockAssets(ctx context.Context, from generic.Address, amount generic.Amount, releaseTime generic.Timestamp, description string) error {
	return v.invoke(ctx, "lock_assets", func(inv *invocation) error {
		if err := inv.requireAuth(from); err != nil {
			return err
		}

		balance, err := inv.balance(from)
		if err != nil {
			return err
		}
		if err := inv.requirePositive(amount); err != nil {
			return err
		}
		if amount.GreaterThan(balance) {
			return inv.fail(generic.CodeInvalidAmount, "lock of %s against balance %s", amount, balance)
		}

		locks, err := inv.locks(from)
		if err != nil {
			return err
		}
		locks = append(locks, AssetLock{
			Amount:      amount,
			ReleaseTime: releaseTime,
			Description: description,
		})
		if err := generic.SetValue(inv.ctx, inv.store, generic.LocksKey(from), locks); err != nil {
			return err
		}
		return inv.record(from, from, amount, generic.TxLock)
	})
}

// Locks returns every lock ever placed on account, oldest first,
// including expired ones.
func (v *Vault) Locks(ctx context.Context, account generic.Address) ([]AssetLock, error) {
	var out []AssetLock
	err := v.invoke(ctx, "get_locks", func(inv *invocation) error {
		var err error
		out, err = inv.locks(account)
		return err
	})
	return out, err
}

// Encumbered returns the sum of account's active locks.
func (v *Vault) Encumbered(ctx context.Context, account generic.Address) (generic.Amount, error) {
	var out generic.Amount
	err := v.invoke(ctx, "get_encumbered", func(inv *invocation) error {
		var err error
		out, err = inv.encumbered(account)
		return err
	})
	return out, err
}

// Available returns how much of account's balance can leave the vault now.
func (v *Vault) Available(ctx context.Context, account generic.Address) (generic.Amount, error) {
	summary, err := v.Account(ctx, account)
	return summary.Available, err
}

// AccountSummary is the balance, active locks and spendable remainder of
// one account, read at the same instant.
type AccountSummary struct {
	Balance    generic.Amount
	Encumbered generic.Amount
	Available  generic.Amount
}

// Account reads balance, encumbrance and availability in one invocation.
func (v *Vault) Account(ctx context.Context, account generic.Address) (AccountSummary, error) {
	var out AccountSummary
	err := v.invoke(ctx, "get_account", func(inv *invocation) error {
		balance, err := inv.balance(account)
		if err != nil {
			return err
		}
		locked, err := inv.encumbered(account)
		if err != nil {
			return err
		}
		free, err := inv.sub(balance, locked)
		if err != nil {
			return err
		}
		out = AccountSummary{
			Balance:    balance,
			Encumbered: locked,
			Available:  free.Max(generic.NewAmount(0)),
		}
		return nil
	})
	return out, err
}

func (inv *invocation) locks(account generic.Address) ([]AssetLock, error) {
	locks, _, err := generic.GetValue[[]AssetLock](inv.ctx, inv.store, generic.LocksKey(account))
	if err != nil {
		return nil, err
	}
	if locks == nil {
		locks = []AssetLock{}
	}
	return locks, nil
}

// encumbered sums account's active locks. The sum saturates at
// MaxAmount: no balance can exceed it, so a saturated total still locks
// everything.
func (inv *invocation) encumbered(account generic.Address) (generic.Amount, error) {
	locks, err := inv.locks(account)
	if err != nil {
		return generic.Amount{}, err
	}
	total := generic.NewAmount(0)
	for _, l := range locks {
		if !l.ActiveAt(inv.now) {
			continue
		}
		sum, err := total.Add(l.Amount)
		if err != nil {
			return generic.MaxAmount, nil
		}
		total = sum
	}
	return total, nil
}

// requireUnencumbered fails with AssetLocked if debiting amount from
// balance would leave less than account's active locks.
func (inv *invocation) requireUnencumbered(account generic.Address, balance, amount generic.Amount) error {
	locked, err := inv.encumbered(account)
	if err != nil {
		return err
	}
	remaining, err := inv.sub(balance, amount)
	if err != nil {
		return err
	}
	if remaining.LessThan(locked) {
		return inv.fail(generic.CodeAssetLocked, "%s would remain, %s is locked", remaining, locked)
	}
	return nil
}
