/*
dto.go - Request and response bodies of the HTTP API

PURPOSE:
  Keeps the wire contract separate from the vault types. Amounts travel
  as base-10 strings so 128-bit values survive JavaScript clients;
  timestamps are unix seconds; hashes are 64 hex characters.

NAMING CONVENTION:
  - *Request: Request bodies from clients
  - *DTO: Response types returned to clients

VALIDATION:
  Requests are parsed in handlers. A malformed amount is reported with the
  InvalidAmount code, the same as a vault-side amount rejection.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/warp/asset-vault/generic"
	"github.com/warp/asset-vault/vault"
)

// =============================================================================
// REQUESTS
// =============================================================================

type InitializeRequest struct {
	Admin generic.Address `json:"admin"`
}

type AddAdminRequest struct {
	Caller   generic.Address `json:"caller"`
	NewAdmin generic.Address `json:"new_admin"`
}

type AddCarrierRequest struct {
	Admin   generic.Address `json:"admin"`
	Carrier generic.Address `json:"carrier"`
}

type TrackingRequest struct {
	Caller   generic.Address `json:"caller"`
	Status   string          `json:"status"`
	DataHash string          `json:"data_hash"`
}

type DepositRequest struct {
	Amount string `json:"amount"`
}

type WithdrawRequest struct {
	To     generic.Address `json:"to"`
	Amount string          `json:"amount"`
}

type LockRequest struct {
	Amount      string            `json:"amount"`
	ReleaseTime generic.Timestamp `json:"release_time"`
	Description string            `json:"description"`
}

type CreateShipmentRequest struct {
	Company      generic.Address `json:"company"`
	Receiver     generic.Address `json:"receiver"`
	EscrowAmount string          `json:"escrow_amount"`
}

type BatchShipmentEntry struct {
	Receiver generic.Address `json:"receiver"`
	Carrier  generic.Address `json:"carrier"`
	DataHash string          `json:"data_hash"`
}

type CreateBatchRequest struct {
	Company   generic.Address      `json:"company"`
	Shipments []BatchShipmentEntry `json:"shipments"`
}

type DepositInsuranceRequest struct {
	Company generic.Address `json:"company"`
	Amount  string          `json:"amount"`
}

type DisputeRequest struct {
	Admin generic.Address `json:"admin"`
}

type ClaimRequest struct {
	Admin    generic.Address `json:"admin"`
	Claimant generic.Address `json:"claimant"`
}

type CreateDeliveryRequest struct {
	ID               string            `json:"id"`
	Sender           generic.Address   `json:"sender"`
	Carrier          generic.Address   `json:"carrier"`
	Receiver         generic.Address   `json:"receiver"`
	Amount           string            `json:"amount"`
	AutoReleaseAfter generic.Timestamp `json:"auto_release_after"`
}

type ReceiverRequest struct {
	Receiver generic.Address `json:"receiver"`
}

// =============================================================================
// RESPONSES
// =============================================================================

type BalanceDTO struct {
	Address    generic.Address `json:"address"`
	Balance    string          `json:"balance"`
	Encumbered string          `json:"encumbered"`
	Available  string          `json:"available"`
}

type LockDTO struct {
	Amount      string            `json:"amount"`
	ReleaseTime generic.Timestamp `json:"release_time"`
	Description string            `json:"description"`
	Active      bool              `json:"active"`
}

type TransactionDTO struct {
	ID        string          `json:"id"`
	From      generic.Address `json:"from"`
	To        generic.Address `json:"to"`
	Amount    string          `json:"amount"`
	Timestamp string          `json:"timestamp"`
	Type      string          `json:"transaction_type"`
}

type EventDTO struct {
	ID        string            `json:"id"`
	Topic     string            `json:"topic"`
	Subject   string            `json:"subject"`
	Data      map[string]string `json:"data"`
	Timestamp string            `json:"timestamp"`
}

type ShipmentDTO struct {
	ID              uint64            `json:"id"`
	Company         generic.Address   `json:"company"`
	Receiver        generic.Address   `json:"receiver"`
	EscrowAmount    string            `json:"escrow_amount"`
	InsuranceAmount string            `json:"insurance_amount"`
	Status          string            `json:"status"`
	Tracking        string            `json:"tracking"`
	DataHash        string            `json:"data_hash"`
	UpdatedAt       generic.Timestamp `json:"updated_at"`
}

type DeliveryDTO struct {
	ID               string            `json:"id"`
	Sender           generic.Address   `json:"sender"`
	Carrier          generic.Address   `json:"carrier"`
	Receiver         generic.Address   `json:"receiver"`
	Amount           string            `json:"amount"`
	AutoReleaseAfter generic.Timestamp `json:"auto_release_after"`
	Status           string            `json:"status"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toLockDTO(l vault.AssetLock, now generic.Timestamp) LockDTO {
	return LockDTO{
		Amount:      l.Amount.String(),
		ReleaseTime: l.ReleaseTime,
		Description: l.Description,
		Active:      l.ActiveAt(now),
	}
}

func toTransactionDTO(e generic.TransactionLog) TransactionDTO {
	return TransactionDTO{
		ID:        e.ID,
		From:      e.From,
		To:        e.To,
		Amount:    e.Amount.String(),
		Timestamp: e.Timestamp.String(),
		Type:      string(e.Type),
	}
}

func toEventDTO(e generic.Event) EventDTO {
	data := e.Data
	if data == nil {
		data = map[string]string{}
	}
	return EventDTO{
		ID:        e.ID,
		Topic:     string(e.Topic),
		Subject:   e.Subject,
		Data:      data,
		Timestamp: e.Timestamp.String(),
	}
}

func toShipmentDTO(s vault.Shipment) ShipmentDTO {
	return ShipmentDTO{
		ID:              s.ID,
		Company:         s.Company,
		Receiver:        s.Receiver,
		EscrowAmount:    s.EscrowAmount.String(),
		InsuranceAmount: s.InsuranceAmount.String(),
		Status:          string(s.Status),
		Tracking:        string(s.Tracking),
		DataHash:        s.DataHash,
		UpdatedAt:       s.UpdatedAt,
	}
}

func toDeliveryDTO(d vault.DeliveryEscrow) DeliveryDTO {
	return DeliveryDTO{
		ID:               d.ID.String(),
		Sender:           d.Sender,
		Carrier:          d.Carrier,
		Receiver:         d.Receiver,
		Amount:           d.Amount.String(),
		AutoReleaseAfter: d.AutoReleaseAfter,
		Status:           string(d.Status),
	}
}
