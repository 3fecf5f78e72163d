package vault

import (
	"context"
	"strconv"

	"github.com/warp/asset-vault/generic"
)

// =============================================================================
// DELIVERY ESCROW
// =============================================================================
//
//               ┌──confirm_delivery──► Confirmed
//   Pending ────┼──dispute_delivery──► Disputed
//               └──check_auto_release (now >= deadline)──► AutoReleased
//
// Creating an escrow debits the sender. Confirmed and AutoReleased credit
// the carrier. Disputed keeps the funds held; resolving a dispute is left
// to an operator outside the vault.

// CreateDelivery moves amount from sender's balance into a new escrow
// identified by id. The carrier is paid when receiver confirms or once
// autoReleaseAfter has passed.
func (v *Vault) CreateDelivery(ctx context.Context, id generic.Hash, sender, carrier, receiver generic.Address, amount generic.Amount, autoReleaseAfter generic.Timestamp) error {
	return v.invoke(ctx, "create_delivery", func(inv *invocation) error {
		if err := inv.requireAuth(sender); err != nil {
			return err
		}
		if err := inv.requirePositive(amount); err != nil {
			return err
		}
		if autoReleaseAfter <= inv.now {
			return inv.fail(generic.CodeInvalidAmount, "auto release time %s is not in the future", autoReleaseAfter)
		}
		if carrier.IsZero() || receiver.IsZero() {
			return inv.fail(generic.CodeUnauthorized, "carrier and receiver are required")
		}

		exists, err := inv.store.Has(inv.ctx, generic.EscrowKey(id))
		if err != nil {
			return err
		}
		if exists {
			return inv.fail(generic.CodeEscrowAlreadyExists, "escrow %s", id)
		}

		balance, err := inv.balance(sender)
		if err != nil {
			return err
		}
		if amount.GreaterThan(balance) {
			return inv.fail(generic.CodeInsufficientFunds, "balance %s, escrow %s", balance, amount)
		}
		if err := inv.requireUnencumbered(sender, balance, amount); err != nil {
			return err
		}

		remaining, err := inv.sub(balance, amount)
		if err != nil {
			return err
		}
		if err := inv.setBalance(sender, remaining); err != nil {
			return err
		}
		escrow := DeliveryEscrow{
			ID:               id,
			Sender:           sender,
			Carrier:          carrier,
			Receiver:         receiver,
			Amount:           amount,
			AutoReleaseAfter: autoReleaseAfter,
			Status:           DeliveryPending,
		}
		if err := inv.saveEscrow(escrow); err != nil {
			return err
		}
		return inv.record(sender, carrier, amount, generic.TxTransfer)
	})
}

// ConfirmDelivery releases the escrow to the carrier. Only the escrow's
// receiver may confirm.
func (v *Vault) ConfirmDelivery(ctx context.Context, id generic.Hash, receiver generic.Address) error {
	return v.invoke(ctx, "confirm_delivery", func(inv *invocation) error {
		escrow, err := inv.pendingForReceiver(id, receiver)
		if err != nil {
			return err
		}
		if err := inv.credit(escrow.Carrier, escrow.Amount); err != nil {
			return err
		}
		escrow.Status = DeliveryConfirmed
		return inv.saveEscrow(escrow)
	})
}

// DisputeDelivery freezes the escrow. The funds stay held and the escrow
// no longer auto-releases.
func (v *Vault) DisputeDelivery(ctx context.Context, id generic.Hash, receiver generic.Address) error {
	return v.invoke(ctx, "dispute_delivery", func(inv *invocation) error {
		escrow, err := inv.pendingForReceiver(id, receiver)
		if err != nil {
			return err
		}
		escrow.Status = DeliveryDisputed
		return inv.saveEscrow(escrow)
	})
}

// CheckAutoRelease pays the carrier if the escrow is still Pending and its
// deadline has been reached. It reports whether funds were released by
// this call. Anyone may call it; repeated calls are harmless.
func (v *Vault) CheckAutoRelease(ctx context.Context, id generic.Hash) (bool, error) {
	var released bool
	err := v.invoke(ctx, "check_auto_release", func(inv *invocation) error {
		escrow, err := inv.escrow(id)
		if err != nil {
			return err
		}
		if escrow.Status != DeliveryPending || inv.now < escrow.AutoReleaseAfter {
			return nil
		}

		if err := inv.credit(escrow.Carrier, escrow.Amount); err != nil {
			return err
		}
		escrow.Status = DeliveryAutoReleased
		if err := inv.saveEscrow(escrow); err != nil {
			return err
		}
		if err := inv.emit(generic.EventEscrowAutoReleased, id.String(), map[string]string{
			"carrier":     escrow.Carrier.String(),
			"amount":      escrow.Amount.String(),
			"released_at": strconv.FormatUint(uint64(inv.now), 10),
		}); err != nil {
			return err
		}
		released = true
		return nil
	})
	return released, err
}

// Delivery returns the escrow with id.
func (v *Vault) Delivery(ctx context.Context, id generic.Hash) (DeliveryEscrow, error) {
	var out DeliveryEscrow
	err := v.invoke(ctx, "get_delivery", func(inv *invocation) error {
		var err error
		out, err = inv.escrow(id)
		return err
	})
	return out, err
}

// PendingDeliveries lists escrows that are still Pending, in id order.
func (v *Vault) PendingDeliveries(ctx context.Context) ([]DeliveryEscrow, error) {
	out := []DeliveryEscrow{}
	err := v.invoke(ctx, "list_pending_deliveries", func(inv *invocation) error {
		keys, err := inv.store.Keys(inv.ctx, generic.KindEscrow)
		if err != nil {
			return err
		}
		for _, key := range keys {
			escrow, ok, err := generic.GetValue[DeliveryEscrow](inv.ctx, inv.store, key)
			if err != nil {
				return err
			}
			if ok && escrow.Status == DeliveryPending {
				out = append(out, escrow)
			}
		}
		return nil
	})
	return out, err
}

func (inv *invocation) escrow(id generic.Hash) (DeliveryEscrow, error) {
	e, ok, err := generic.GetValue[DeliveryEscrow](inv.ctx, inv.store, generic.EscrowKey(id))
	if err != nil {
		return DeliveryEscrow{}, err
	}
	if !ok {
		return DeliveryEscrow{}, inv.fail(generic.CodeEscrowNotFound, "escrow %s", id)
	}
	return e, nil
}

func (inv *invocation) saveEscrow(e DeliveryEscrow) error {
	return generic.SetValue(inv.ctx, inv.store, generic.EscrowKey(e.ID), e)
}

// pendingForReceiver loads a Pending escrow on behalf of its receiver.
func (inv *invocation) pendingForReceiver(id generic.Hash, receiver generic.Address) (DeliveryEscrow, error) {
	if err := inv.requireAuth(receiver); err != nil {
		return DeliveryEscrow{}, err
	}
	escrow, err := inv.escrow(id)
	if err != nil {
		return DeliveryEscrow{}, err
	}
	if escrow.Receiver != receiver {
		return DeliveryEscrow{}, inv.fail(generic.CodeUnauthorized, "%s is not the receiver of escrow %s", receiver, id)
	}
	if escrow.Status != DeliveryPending {
		return DeliveryEscrow{}, inv.fail(generic.CodeInvalidEscrowState, "escrow %s is %s", id, escrow.Status)
	}
	return escrow, nil
}
