package vault

import (
	"context"
	"strconv"

	"github.com/warp/asset-vault/generic"
)

// =============================================================================
// SHIPMENT ESCROW ENGINE
// =============================================================================

// CreateShipment registers a shipment between company and receiver and
// returns its id. Ids start at 1 and are shared with batch shipments.
// escrowAmount is recorded, not transferred.
func (v *Vault) CreateShipment(ctx context.Context, company, receiver generic.Address, escrowAmount generic.Amount) (uint64, error) {
	var id uint64
	err := v.invoke(ctx, "create_shipment", func(inv *invocation) error {
		if err := inv.requireAuth(company); err != nil {
			return err
		}
		if err := inv.requirePositive(escrowAmount); err != nil {
			return err
		}

		next, err := inv.nextShipmentID()
		if err != nil {
			return err
		}
		shipment := Shipment{
			ID:              next,
			Company:         company,
			Receiver:        receiver,
			EscrowAmount:    escrowAmount,
			InsuranceAmount: generic.NewAmount(0),
			Status:          StatusActive,
			Tracking:        TrackingCreated,
			UpdatedAt:       inv.now,
		}
		if err := inv.saveShipment(shipment); err != nil {
			return err
		}
		if err := inv.setNextShipmentID(next + 1); err != nil {
			return err
		}
		id = next
		return nil
	})
	return id, err
}

// DepositInsurance adds amount to the shipment's insurance pool. Only the
// shipment's company may deposit.
func (v *Vault) DepositInsurance(ctx context.Context, company generic.Address, shipmentID uint64, amount generic.Amount) error {
	return v.invoke(ctx, "deposit_insurance", func(inv *invocation) error {
		if err := inv.requireAuth(company); err != nil {
			return err
		}
		shipment, err := inv.shipment(shipmentID)
		if err != nil {
			return err
		}
		if shipment.Company != company {
			return inv.fail(generic.CodeUnauthorized, "%s is not the company of shipment %d", company, shipmentID)
		}
		if err := inv.requirePositive(amount); err != nil {
			return err
		}

		if shipment.InsuranceAmount, err = inv.add(shipment.InsuranceAmount, amount); err != nil {
			return err
		}

		deposit, ok, err := generic.GetValue[InsuranceDeposit](inv.ctx, inv.store, generic.InsuranceKey(shipmentID))
		if err != nil {
			return err
		}
		if !ok {
			deposit = InsuranceDeposit{
				ShipmentID: shipmentID,
				Depositor:  company,
				Amount:     generic.NewAmount(0),
			}
		}
		if deposit.Amount, err = inv.add(deposit.Amount, amount); err != nil {
			return err
		}

		if err := inv.saveShipment(shipment); err != nil {
			return err
		}
		if err := generic.SetValue(inv.ctx, inv.store, generic.InsuranceKey(shipmentID), deposit); err != nil {
			return err
		}
		if err := inv.record(company, company, amount, generic.TxInsuranceDeposit); err != nil {
			return err
		}
		return inv.emit(generic.EventInsuranceDeposited, strconv.FormatUint(shipmentID, 10), map[string]string{
			"shipment_id": strconv.FormatUint(shipmentID, 10),
			"amount":      amount.String(),
		})
	})
}

// Shipment returns the shipment with id.
func (v *Vault) Shipment(ctx context.Context, id uint64) (Shipment, error) {
	var out Shipment
	err := v.invoke(ctx, "get_shipment", func(inv *invocation) error {
		var err error
		out, err = inv.shipment(id)
		return err
	})
	return out, err
}

// Insurance returns the insurance record of shipment id.
func (v *Vault) Insurance(ctx context.Context, id uint64) (InsuranceDeposit, error) {
	var out InsuranceDeposit
	err := v.invoke(ctx, "get_insurance", func(inv *invocation) error {
		var err error
		out, err = inv.insurance(id)
		return err
	})
	return out, err
}

// =============================================================================
// BATCH CREATION
// =============================================================================

// CreateShipmentsBatch registers up to MaxBatchSize shipments for company in
// one invocation. Every input is validated before any id is assigned.
func (v *Vault) CreateShipmentsBatch(ctx context.Context, company generic.Address, inputs []ShipmentInput) ([]uint64, error) {
	var ids []uint64
	err := v.invoke(ctx, "create_shipments_batch", func(inv *invocation) error {
		if err := inv.requireAuth(company); err != nil {
			return err
		}
		if len(inputs) > MaxBatchSize {
			return inv.fail(generic.CodeBatchTooLarge, "%d shipments, limit %d", len(inputs), MaxBatchSize)
		}
		for i, in := range inputs {
			if in.Receiver.IsZero() || in.Carrier.IsZero() {
				return inv.fail(generic.CodeInvalidShipment, "entry %d: receiver and carrier are required", i)
			}
			if in.Receiver == in.Carrier {
				return inv.fail(generic.CodeInvalidShipment, "entry %d: receiver and carrier must differ", i)
			}
		}

		next, err := inv.nextShipmentID()
		if err != nil {
			return err
		}
		ids = make([]uint64, 0, len(inputs))
		for _, in := range inputs {
			record := BatchShipment{
				ID:        next,
				Company:   company,
				Receiver:  in.Receiver,
				Carrier:   in.Carrier,
				DataHash:  in.DataHash,
				Timestamp: inv.now,
			}
			if err := generic.SetValue(inv.ctx, inv.store, generic.BatchShipmentKey(next), record); err != nil {
				return err
			}
			ids = append(ids, next)
			next++
		}
		return inv.setNextShipmentID(next)
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// BatchShipment returns a shipment created by CreateShipmentsBatch.
func (v *Vault) BatchShipment(ctx context.Context, id uint64) (BatchShipment, error) {
	var out BatchShipment
	err := v.invoke(ctx, "get_batch_shipment", func(inv *invocation) error {
		record, ok, err := generic.GetValue[BatchShipment](inv.ctx, inv.store, generic.BatchShipmentKey(id))
		if err != nil {
			return err
		}
		if !ok {
			return inv.fail(generic.CodeShipmentNotFound, "batch shipment %d", id)
		}
		out = record
		return nil
	})
	return out, err
}

// =============================================================================
// STORAGE HELPERS
// =============================================================================

func (inv *invocation) nextShipmentID() (uint64, error) {
	next, ok, err := generic.GetValue[uint64](inv.ctx, inv.store, generic.NextShipmentIDKey())
	if err != nil {
		return 0, err
	}
	if !ok {
		return 1, nil
	}
	return next, nil
}

func (inv *invocation) setNextShipmentID(next uint64) error {
	return generic.SetValue(inv.ctx, inv.store, generic.NextShipmentIDKey(), next)
}

func (inv *invocation) shipment(id uint64) (Shipment, error) {
	s, ok, err := generic.GetValue[Shipment](inv.ctx, inv.store, generic.ShipmentKey(id))
	if err != nil {
		return Shipment{}, err
	}
	if !ok {
		return Shipment{}, inv.fail(generic.CodeShipmentNotFound, "shipment %d", id)
	}
	return s, nil
}

func (inv *invocation) saveShipment(s Shipment) error {
	return generic.SetValue(inv.ctx, inv.store, generic.ShipmentKey(s.ID), s)
}

func (inv *invocation) insurance(id uint64) (InsuranceDeposit, error) {
	d, ok, err := generic.GetValue[InsuranceDeposit](inv.ctx, inv.store, generic.InsuranceKey(id))
	if err != nil {
		return InsuranceDeposit{}, err
	}
	if !ok {
		return InsuranceDeposit{}, inv.fail(generic.CodeShipmentNotFound, "no insurance for shipment %d", id)
	}
	return d, nil
}
