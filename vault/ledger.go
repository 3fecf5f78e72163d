package vault

import (
	"context"

	"github.com/warp/asset-vault/generic"
)

// =============================================================================
// ACCOUNT LEDGER
// =============================================================================

// Deposit credits amount to from's balance.
func (v *Vault) Deposit(ctx context.Context, from generic.Address, amount generic.Amount) error {
	return v.invoke(ctx, "deposit", func(inv *invocation) error {
		if err := inv.requireAuth(from); err != nil {
			return err
		}
		if err := inv.requirePositive(amount); err != nil {
			return err
		}

		balance, err := inv.balance(from)
		if err != nil {
			return err
		}
		updated, err := inv.add(balance, amount)
		if err != nil {
			return err
		}

		if err := inv.setBalance(from, updated); err != nil {
			return err
		}
		return inv.record(from, from, amount, generic.TxDeposit)
	})
}

// Withdraw debits amount from from's balance and logs to as the recipient.
// The vault does not credit to; withdrawal leaves the vault.
//
// The remaining balance must still cover every active lock on from.
func (v *Vault) Withdraw(ctx context.Context, from, to generic.Address, amount generic.Amount) error {
	return v.invoke(ctx, "withdraw", func(inv *invocation) error {
		if err := inv.requireAuth(from); err != nil {
			return err
		}
		if err := inv.requirePositive(amount); err != nil {
			return err
		}

		balance, err := inv.balance(from)
		if err != nil {
			return err
		}
		if amount.GreaterThan(balance) {
			return inv.fail(generic.CodeInsufficientFunds, "balance %s, requested %s", balance, amount)
		}
		if err := inv.requireUnencumbered(from, balance, amount); err != nil {
			return err
		}

		remaining, err := inv.sub(balance, amount)
		if err != nil {
			return err
		}
		if err := inv.setBalance(from, remaining); err != nil {
			return err
		}
		return inv.record(from, to, amount, generic.TxWithdrawal)
	})
}

// Balance returns account's balance; zero for accounts never seen.
func (v *Vault) Balance(ctx context.Context, account generic.Address) (generic.Amount, error) {
	var out generic.Amount
	err := v.invoke(ctx, "get_balance", func(inv *invocation) error {
		var err error
		out, err = inv.balance(account)
		return err
	})
	return out, err
}

func (inv *invocation) balance(account generic.Address) (generic.Amount, error) {
	b, ok, err := generic.GetValue[generic.Amount](inv.ctx, inv.store, generic.BalanceKey(account))
	if err != nil {
		return generic.Amount{}, err
	}
	if !ok {
		return generic.NewAmount(0), nil
	}
	return b, nil
}

func (inv *invocation) setBalance(account generic.Address, amount generic.Amount) error {
	if amount.IsNegative() {
		// Unreachable while every debit is checked against the balance.
		return inv.fail(generic.CodeInsufficientFunds, "balance of %s would become %s", account, amount)
	}
	return generic.SetValue(inv.ctx, inv.store, generic.BalanceKey(account), amount)
}

// credit adds amount to account's balance without authentication; callers
// have already authorized the movement.
func (inv *invocation) credit(account generic.Address, amount generic.Amount) error {
	balance, err := inv.balance(account)
	if err != nil {
		return err
	}
	updated, err := inv.add(balance, amount)
	if err != nil {
		return err
	}
	return inv.setBalance(account, updated)
}
