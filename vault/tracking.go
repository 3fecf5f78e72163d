package vault

import (
	"context"
	"slices"
	"strconv"

	"github.com/warp/asset-vault/generic"
)

// =============================================================================
// CARRIER REGISTRY & SHIPMENT TRACKING
// =============================================================================
//
//   created ──► in_transit ──► delivered
//
// Carriers and admins report progress. Each update replaces DataHash (a
// location or document reference) and stamps UpdatedAt. Tracking never
// feeds into the insurance status.

// AddCarrier registers carrier. Only admins may register carriers; adding
// a registered carrier again is a no-op.
func (v *Vault) AddCarrier(ctx context.Context, admin, carrier generic.Address) error {
	return v.invoke(ctx, "add_carrier", func(inv *invocation) error {
		if err := inv.requireAdmin(admin); err != nil {
			return err
		}
		if carrier.IsZero() {
			return inv.fail(generic.CodeUnauthorized, "empty carrier address")
		}
		carriers, err := inv.carriers()
		if err != nil {
			return err
		}
		if slices.Contains(carriers, carrier) {
			return nil
		}
		return generic.SetValue(inv.ctx, inv.store, generic.CarriersKey(), append(carriers, carrier))
	})
}

// Carriers returns the registered carriers in registration order.
func (v *Vault) Carriers(ctx context.Context) ([]generic.Address, error) {
	var out []generic.Address
	err := v.invoke(ctx, "get_carriers", func(inv *invocation) error {
		var err error
		out, err = inv.carriers()
		return err
	})
	return out, err
}

// UpdateTracking moves shipment id to status. caller must be a registered
// carrier or an admin. Moving backwards, or to the current status, fails
// with InvalidStatusTransition.
func (v *Vault) UpdateTracking(ctx context.Context, caller generic.Address, id uint64, status TrackingStatus, dataHash string) error {
	return v.invoke(ctx, "update_tracking", func(inv *invocation) error {
		if err := inv.requireAuth(caller); err != nil {
			return err
		}
		allowed, err := inv.isAdmin(caller)
		if err != nil {
			return err
		}
		if !allowed {
			carriers, err := inv.carriers()
			if err != nil {
				return err
			}
			allowed = slices.Contains(carriers, caller)
		}
		if !allowed {
			return inv.fail(generic.CodeUnauthorized, "%s is neither a carrier nor an admin", caller)
		}

		shipment, err := inv.shipment(id)
		if err != nil {
			return err
		}
		if !status.Valid() {
			return inv.fail(generic.CodeInvalidStatusTransition, "unknown status %q", status)
		}
		current := shipment.Tracking
		if current == "" {
			current = TrackingCreated
		}
		if trackingOrder[status] <= trackingOrder[current] {
			return inv.fail(generic.CodeInvalidStatusTransition, "shipment %d: %s -> %s", id, current, status)
		}

		shipment.Tracking = status
		shipment.DataHash = dataHash
		shipment.UpdatedAt = inv.now
		if err := inv.saveShipment(shipment); err != nil {
			return err
		}
		return inv.emit(generic.EventTrackingUpdated, strconv.FormatUint(id, 10), map[string]string{
			"shipment_id": strconv.FormatUint(id, 10),
			"status":      string(status),
			"data_hash":   dataHash,
			"updated_by":  caller.String(),
		})
	})
}

func (inv *invocation) carriers() ([]generic.Address, error) {
	carriers, _, err := generic.GetValue[[]generic.Address](inv.ctx, inv.store, generic.CarriersKey())
	if err != nil {
		return nil, err
	}
	if carriers == nil {
		carriers = []generic.Address{}
	}
	return carriers, nil
}
