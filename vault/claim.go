package vault

import (
	"context"
	"strconv"

	"github.com/warp/asset-vault/generic"
)

// =============================================================================
// INSURANCE CLAIM STATE MACHINE
// =============================================================================
//
//   Active ──mark_disputed──► Disputed ──claim_insurance──► InsuranceClaimed
//
// The machine is linear. Active cannot jump to InsuranceClaimed, a disputed
// shipment cannot be disputed again, and InsuranceClaimed is terminal.

// MarkDisputed moves an Active shipment to Disputed. admin must be in the
// admin set.
func (v *Vault) MarkDisputed(ctx context.Context, admin generic.Address, shipmentID uint64) error {
	return v.invoke(ctx, "mark_disputed", func(inv *invocation) error {
		if err := inv.requireAdmin(admin); err != nil {
			return err
		}
		shipment, err := inv.shipment(shipmentID)
		if err != nil {
			return err
		}
		if shipment.Status != StatusActive {
			return inv.fail(generic.CodeInvalidShipmentStatus, "shipment %d is %s", shipmentID, shipment.Status)
		}
		shipment.Status = StatusDisputed
		return inv.saveShipment(shipment)
	})
}

// ClaimInsurance pays the shipment's whole insurance pool out to claimant.
// It succeeds at most once per shipment and only while the shipment is
// Disputed. The payout is recorded in the transaction log from the
// shipment's company to claimant; balances are not touched.
func (v *Vault) ClaimInsurance(ctx context.Context, admin generic.Address, shipmentID uint64, claimant generic.Address) error {
	return v.invoke(ctx, "claim_insurance", func(inv *invocation) error {
		if err := inv.requireAdmin(admin); err != nil {
			return err
		}
		deposit, err := inv.insurance(shipmentID)
		if err != nil {
			return err
		}
		shipment, err := inv.shipment(shipmentID)
		if err != nil {
			return err
		}
		if deposit.Claimed {
			return inv.fail(generic.CodeInsuranceAlreadyClaimed, "shipment %d", shipmentID)
		}
		if shipment.Status != StatusDisputed {
			return inv.fail(generic.CodeInvalidShipmentStatus, "shipment %d is %s", shipmentID, shipment.Status)
		}

		deposit.Claimed = true
		shipment.Status = StatusInsuranceClaimed

		if err := generic.SetValue(inv.ctx, inv.store, generic.InsuranceKey(shipmentID), deposit); err != nil {
			return err
		}
		if err := inv.saveShipment(shipment); err != nil {
			return err
		}
		if err := inv.record(shipment.Company, claimant, shipment.InsuranceAmount, generic.TxInsuranceClaim); err != nil {
			return err
		}
		return inv.emit(generic.EventInsuranceClaimed, strconv.FormatUint(shipmentID, 10), map[string]string{
			"shipment_id": strconv.FormatUint(shipmentID, 10),
			"claimant":    claimant.String(),
			"amount":      shipment.InsuranceAmount.String(),
		})
	})
}
