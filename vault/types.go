package vault

import "github.com/warp/asset-vault/generic"

// MaxBatchSize caps CreateShipmentsBatch.
const MaxBatchSize = 10

// =============================================================================
// LOCKS
// =============================================================================

// AssetLock is a time-locked hold on part of an account's balance. It never
// changes after creation and stops counting once ReleaseTime has passed.
type AssetLock struct {
	Amount      generic.Amount    `json:"amount"`
	ReleaseTime generic.Timestamp `json:"release_time"`
	Description string            `json:"description"`
}

// ActiveAt reports whether the lock still encumbers funds at now.
func (l AssetLock) ActiveAt(now generic.Timestamp) bool {
	return l.ReleaseTime > now
}

// =============================================================================
// SHIPMENTS & INSURANCE
// =============================================================================

type ShipmentStatus string

const (
	StatusActive           ShipmentStatus = "active"
	StatusDisputed         ShipmentStatus = "disputed"
	StatusInsuranceClaimed ShipmentStatus = "insurance_claimed"
)

// TrackingStatus is the physical progress of a shipment. It is independent
// of ShipmentStatus and only moves forward.
type TrackingStatus string

const (
	TrackingCreated   TrackingStatus = "created"
	TrackingInTransit TrackingStatus = "in_transit"
	TrackingDelivered TrackingStatus = "delivered"
)

var trackingOrder = map[TrackingStatus]int{
	TrackingCreated:   1,
	TrackingInTransit: 2,
	TrackingDelivered: 3,
}

// Valid reports whether s is a known tracking status.
func (s TrackingStatus) Valid() bool {
	_, ok := trackingOrder[s]
	return ok
}

// Shipment is an escrow relationship between a company and a receiver with
// an accumulating insurance pool. InsuranceAmount and Status change through
// the insurance workflow; Tracking, DataHash and UpdatedAt through carrier
// updates. EscrowAmount is declarative; no funds move for it.
type Shipment struct {
	ID              uint64            `json:"id"`
	Company         generic.Address   `json:"company"`
	Receiver        generic.Address   `json:"receiver"`
	EscrowAmount    generic.Amount    `json:"escrow_amount"`
	InsuranceAmount generic.Amount    `json:"insurance_amount"`
	Status          ShipmentStatus    `json:"status"`
	Tracking        TrackingStatus    `json:"tracking"`
	DataHash        string            `json:"data_hash"`
	UpdatedAt       generic.Timestamp `json:"updated_at"`
}

// InsuranceDeposit is the single insurance record of a shipment. Later
// deposits accumulate into Amount.
type InsuranceDeposit struct {
	ShipmentID uint64          `json:"shipment_id"`
	Depositor  generic.Address `json:"depositor"`
	Amount     generic.Amount  `json:"amount"`
	Claimed    bool            `json:"claimed"`
}

// ShipmentInput describes one entry of a batch creation.
type ShipmentInput struct {
	Receiver generic.Address `json:"receiver"`
	Carrier  generic.Address `json:"carrier"`
	DataHash generic.Hash    `json:"data_hash"`
}

// BatchShipment is a shipment registered through CreateShipmentsBatch.
type BatchShipment struct {
	ID        uint64            `json:"id"`
	Company   generic.Address   `json:"company"`
	Receiver  generic.Address   `json:"receiver"`
	Carrier   generic.Address   `json:"carrier"`
	DataHash  generic.Hash      `json:"data_hash"`
	Timestamp generic.Timestamp `json:"timestamp"`
}

// =============================================================================
// DELIVERY ESCROW
// =============================================================================

type DeliveryStatus string

const (
	DeliveryPending      DeliveryStatus = "pending"
	DeliveryConfirmed    DeliveryStatus = "confirmed"
	DeliveryDisputed     DeliveryStatus = "disputed"
	DeliveryAutoReleased DeliveryStatus = "auto_released"
)

// DeliveryEscrow holds a sender's funds until the receiver confirms delivery
// or the auto-release deadline passes. The funds are debited from the sender
// on creation and credited to the carrier on release.
type DeliveryEscrow struct {
	ID               generic.Hash      `json:"id"`
	Sender           generic.Address   `json:"sender"`
	Carrier          generic.Address   `json:"carrier"`
	Receiver         generic.Address   `json:"receiver"`
	Amount           generic.Amount    `json:"amount"`
	AutoReleaseAfter generic.Timestamp `json:"auto_release_after"`
	Status           DeliveryStatus    `json:"status"`
}
