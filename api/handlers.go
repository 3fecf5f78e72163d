/*
handlers.go - HTTP API handlers for the asset vault

PURPOSE:
  Exposes every vault operation over REST. Handlers parse the request,
  call exactly one vault method and serialize the result. All business
  rules, authorization included, live in the vault.

ENDPOINTS:
  Vault:
    POST   /api/vault/initialize              Create the admin set
    GET    /api/vault/admins                  List admins
    POST   /api/vault/admins                  Add an admin

  Accounts:
    GET    /api/accounts/{address}/balance       Balance, encumbered, available
    POST   /api/accounts/{address}/deposit       Deposit
    POST   /api/accounts/{address}/withdraw      Withdraw
    GET    /api/accounts/{address}/locks         Lock history
    POST   /api/accounts/{address}/locks         Lock assets
    GET    /api/accounts/{address}/transactions  Audit log

  Shipments:
    POST   /api/shipments                     Create shipment
    POST   /api/shipments/batch               Create up to 10 shipments
    GET    /api/shipments/{id}                Shipment details
    GET    /api/shipments/{id}/insurance      Insurance record
    POST   /api/shipments/{id}/insurance      Deposit insurance
    POST   /api/shipments/{id}/dispute        Mark disputed (admin)
    POST   /api/shipments/{id}/claim          Claim insurance (admin)
    GET    /api/batch-shipments/{id}          Batch-created shipment

  Deliveries:
    POST   /api/deliveries                    Fund a delivery escrow
    GET    /api/deliveries/{id}               Escrow details
    POST   /api/deliveries/{id}/confirm       Receiver confirms
    POST   /api/deliveries/{id}/dispute       Receiver disputes
    POST   /api/deliveries/{id}/release       Auto-release if due

  Events:
    GET    /api/events                        Published events

AUTHENTICATION:
  Mutations must be signed by the account they act for (see middleware.go).
  The handler never checks identity itself; the vault's authenticator reads
  the signer from the request context.

ERROR HANDLING:
  Vault errors map to HTTP status via errors.go:
  - 400: InvalidAmount, BatchTooLarge, InvalidShipment, malformed input
  - 401: Bad signature
  - 403: Unauthorized
  - 404: ShipmentNotFound, EscrowNotFound
  - 409: State conflicts (funds, locks, claim and escrow state)
  - 429: Rate limited
  - 500: Storage failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/warp/asset-vault/auth"
	"github.com/warp/asset-vault/generic"
	"github.com/warp/asset-vault/vault"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Vault   *vault.Vault
	Journal generic.JournalReader
	Logger  *slog.Logger
}

// NewHandler creates a handler. logger may be nil.
func NewHandler(v *vault.Vault, journal generic.JournalReader, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{Vault: v, Journal: journal, Logger: logger}
}

// =============================================================================
// VAULT ADMINISTRATION
// =============================================================================

func (h *Handler) Initialize(w http.ResponseWriter, r *http.Request) {
	var req InitializeRequest
	if !decode(w, r, &req) {
		return
	}
	if !requireDerived(w, req.Admin) {
		return
	}
	if err := h.Vault.Initialize(r.Context(), req.Admin); err != nil {
		h.writeVaultError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"admins": []generic.Address{req.Admin}})
}

func (h *Handler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.Vault.Admins(r.Context())
	if err != nil {
		h.writeVaultError(w, r, err)
		return
	}
	if admins == nil {
		admins = []generic.Address{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"admins": admins})
}

func (h *Handler) AddAdmin(w http.ResponseWriter, r *http.Request) {
	var req AddAdminRequest
	if !decode(w, r, &req) {
		return
	}
	if !requireDerived(w, req.NewAdmin) {
		return
	}
	if err := h.Vault.AddAdmin(r.Context(), req.Caller, req.NewAdmin); err != nil {
		h.writeVaultError(w, r, err)
		return
	}
	h.ListAdmins(w, r)
}

func (h *Handler) ListCarriers(w http.ResponseWriter, r *http.Request) {
	carriers, err := h.Vault.Carriers(r.Context())
	if err != nil {
		h.writeVaultError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"carriers": carriers})
}

func (h *Handler) AddCarrier(w http.ResponseWriter, r *http.Request) {
	var req AddCarrierRequest
	if !decode(w, r, &req) {
		return
	}
	if !requireDerived(w, req.Carrier) {
		return
	}
	if err := h.Vault.AddCarrier(r.Context(), req.Admin, req.Carrier); err != nil {
		h.writeVaultError(w, r, err)
		return
	}
	h.ListCarriers(w, r)
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	h.writeBalance(w, r, http.StatusOK)
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if !decode(w, r, &req) {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}
	if err := h.Vault.Deposit(r.Context(), accountParam(r), amount); err != nil {
		h.writeVaultError(w, r, err)
		return
	}
	h.writeBalance(w, r, http.StatusOK)
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req WithdrawRequest
	if !decode(w, r, &req) {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}
	account := accountParam(r)
	to := req.To
	if to.IsZero() {
		to = account
	}
	if err := h.Vault.Withdraw(r.Context(), account, to, amount); err != nil {
		h.writeVaultError(w, r, err)
		return
	}
	h.writeBalance(w, r, http.StatusOK)
}

func (h *Handler) ListLocks(w http.ResponseWriter, r *http.Request) {
	locks, err := h.Vault.Locks(r.Context(), accountParam(r))
	if err != nil {
		h.writeVaultError(w, r, err)
		return
	}
	now := h.Vault.Now()
	dtos := make([]LockDTO, len(locks))
	for i, l := range locks {
		dtos[i] = toLockDTO(l, now)
	}
	writeJSON(w, http.StatusOK, map[string]any{"locks": dtos})
}

func (h *Handler) CreateLock(w http.ResponseWriter, r *http.Request) {
	var req LockRequest
	if !decode(w, r, &req) {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}
	if err := h.Vault.LockAssets(r.Context(), accountParam(r), amount, req.ReleaseTime, req.Description); err != nil {
		h.writeVaultError(w, r, err)
		return
	}
	h.writeBalance(w, r, http.StatusCreated)
}

func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	filter := generic.JournalFilter{
		Account: accountParam(r),
		Limit:   limitParam(r),
	}
	for _, t := range r.URL.Query()["type"] {
		filter.Types = append(filter.Types, generic.TransactionType(t))
	}
	logs, err := h.Journal.Logs(r.Context(), filter)
	if err != nil {
		h.writeVaultError(w, r, err)
		return
	}
	dtos := make([]TransactionDTO, len(logs))
	for i, e := range logs {
		dtos[i] = toTransactionDTO(e)
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": dtos})
}

func (h *Handler) writeBalance(w http.ResponseWriter, r *http.Request, status int) {
	account := accountParam(r)
	summary, err := h.Vault.Account(r.Context(), account)
	if err != nil {
		h.writeVaultError(w, r, err)
		return
	}
	writeJSON(w, status, BalanceDTO{
		Address:    account,
		Balance:    summary.Balance.String(),
		Encumbered: summary.Encumbered.String(),
		Available:  summary.Available.String(),
	})
}

// =============================================================================
// SHIPMENTS
// =============================================================================

func (h *Handler) CreateShipment(w http.ResponseWriter, r *http.Request) {
	var req CreateShipmentRequest
	if !decode(w, r, &req) {
		return
	}
	amount, ok := parseAmount(w, req.EscrowAmount)
	if !ok {
		return
	}
	id, err := h.Vault.CreateShipment(r.Context(), req.Company, req.Receiver, amount)
	if err != nil {
		h.writeVaultError(w, r, err)
		return
	}
	h.writeShipment(w, r, id, http.StatusCreated)
}

func (h *Handler) CreateShipmentsBatch(w http.ResponseWriter, r *http.Request) {
	var req CreateBatchRequest
	if !decode(w, r, &req) {
		return
	}
	inputs := make([]vault.ShipmentInput, len(req.Shipments))
	for i, s := range req.Shipments {
		var hash generic.Hash
		if s.DataHash != "" {
			parsed, err := generic.ParseHash(s.DataHash)
			if err != nil {
				writeError(w, http.StatusBadRequest, generic.CodeInvalidShipment.String(), generic.CodeInvalidShipment, err)
				return
			}
			hash = parsed
		}
		inputs[i] = vault.ShipmentInput{Receiver: s.Receiver, Carrier: s.Carrier, DataHash: hash}
	}
	ids, err := h.Vault.CreateShipmentsBatch(r.Context(), req.Company, inputs)
	if err != nil {
		h.writeVaultError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ids": ids})
}

func (h *Handler) GetShipment(w http.ResponseWriter, r *http.Request) {
	id, ok := shipmentParam(w, r)
	if !ok {
		return
	}
	h.writeShipment(w, r, id, http.StatusOK)
}

func (h *Handler) GetInsurance(w http.ResponseWriter, r *http.Request) {
	id, ok := shipmentParam(w, r)
	if !ok {
		return
	}
	ins, err := h.Vault.Insurance(r.Context(), id)
	if err != nil {
		h.writeVaultError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"shipment_id": ins.ShipmentID,
		"depositor":   ins.Depositor,
		"amount":      ins.Amount.String(),
		"claimed":     ins.Claimed,
	})
}

func (h *Handler) DepositInsurance(w http.ResponseWriter, r *http.Request) {
	id, ok := shipmentParam(w, r)
	if !ok {
		return
	}
	var req DepositInsuranceRequest
	if !decode(w, r, &req) {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}
	if err := h.Vault.DepositInsurance(r.Context(), req.Company, id, amount); err != nil {
		h.writeVaultError(w, r, err)
		return
	}
	h.writeShipment(w, r, id, http.StatusOK)
}

func (h *Handler) DisputeShipment(w http.ResponseWriter, r *http.Request) {
	id, ok := shipmentParam(w, r)
	if !ok {
		return
	}
	var req DisputeRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Vault.MarkDisputed(r.Context(), req.Admin, id); err != nil {
		h.writeVaultError(w, r, err)
		return
	}
	h.writeShipment(w, r, id, http.StatusOK)
}

func (h *Handler) ClaimInsurance(w http.ResponseWriter, r *http.Request) {
	id, ok := shipmentParam(w, r)
	if !ok {
		return
	}
	var req ClaimRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Vault.ClaimInsurance(r.Context(), req.Admin, id, req.Claimant); err != nil {
		h.writeVaultError(w, r, err)
		return
	}
	h.writeShipment(w, r, id, http.StatusOK)
}

func (h *Handler) UpdateTracking(w http.ResponseWriter, r *http.Request) {
	id, ok := shipmentParam(w, r)
	if !ok {
		return
	}
	var req TrackingRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Vault.UpdateTracking(r.Context(), req.Caller, id, vault.TrackingStatus(req.Status), req.DataHash); err != nil {
		h.writeVaultError(w, r, err)
		return
	}
	h.writeShipment(w, r, id, http.StatusOK)
}

func (h *Handler) GetBatchShipment(w http.ResponseWriter, r *http.Request) {
	id, ok := shipmentParam(w, r)
	if !ok {
		return
	}
	b, err := h.Vault.BatchShipment(r.Context(), id)
	if err != nil {
		h.writeVaultError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) writeShipment(w http.ResponseWriter, r *http.Request, id uint64, status int) {
	s, err := h.Vault.Shipment(r.Context(), id)
	if err != nil {
		h.writeVaultError(w, r, err)
		return
	}
	writeJSON(w, status, toShipmentDTO(s))
}

// =============================================================================
// DELIVERIES
// =============================================================================

func (h *Handler) CreateDelivery(w http.ResponseWriter, r *http.Request) {
	var req CreateDeliveryRequest
	if !decode(w, r, &req) {
		return
	}
	id, err := generic.ParseHash(req.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid escrow id", 0, err)
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}
	if err := h.Vault.CreateDelivery(r.Context(), id, req.Sender, req.Carrier, req.Receiver, amount, req.AutoReleaseAfter); err != nil {
		h.writeVaultError(w, r, err)
		return
	}
	h.writeDelivery(w, r, id, http.StatusCreated)
}

func (h *Handler) GetDelivery(w http.ResponseWriter, r *http.Request) {
	id, ok := escrowParam(w, r)
	if !ok {
		return
	}
	h.writeDelivery(w, r, id, http.StatusOK)
}

func (h *Handler) ConfirmDelivery(w http.ResponseWriter, r *http.Request) {
	id, ok := escrowParam(w, r)
	if !ok {
		return
	}
	var req ReceiverRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Vault.ConfirmDelivery(r.Context(), id, req.Receiver); err != nil {
		h.writeVaultError(w, r, err)
		return
	}
	h.writeDelivery(w, r, id, http.StatusOK)
}

func (h *Handler) DisputeDelivery(w http.ResponseWriter, r *http.Request) {
	id, ok := escrowParam(w, r)
	if !ok {
		return
	}
	var req ReceiverRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Vault.DisputeDelivery(r.Context(), id, req.Receiver); err != nil {
		h.writeVaultError(w, r, err)
		return
	}
	h.writeDelivery(w, r, id, http.StatusOK)
}

// ReleaseDelivery runs the auto-release check on demand. Anyone may call it.
func (h *Handler) ReleaseDelivery(w http.ResponseWriter, r *http.Request) {
	id, ok := escrowParam(w, r)
	if !ok {
		return
	}
	released, err := h.Vault.CheckAutoRelease(r.Context(), id)
	if err != nil {
		h.writeVaultError(w, r, err)
		return
	}
	d, err := h.Vault.Delivery(r.Context(), id)
	if err != nil {
		h.writeVaultError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"released": released,
		"delivery": toDeliveryDTO(d),
	})
}

func (h *Handler) writeDelivery(w http.ResponseWriter, r *http.Request, id generic.Hash, status int) {
	d, err := h.Vault.Delivery(r.Context(), id)
	if err != nil {
		h.writeVaultError(w, r, err)
		return
	}
	writeJSON(w, status, toDeliveryDTO(d))
}

// =============================================================================
// EVENTS
// =============================================================================

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	events, err := h.Journal.Events(r.Context(), generic.JournalFilter{
		Topic:   generic.EventTopic(q.Get("topic")),
		Subject: q.Get("subject"),
		Limit:   limitParam(r),
	})
	if err != nil {
		h.writeVaultError(w, r, err)
		return
	}
	dtos := make([]EventDTO, len(events))
	for i, e := range events {
		dtos[i] = toEventDTO(e)
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": dtos})
}

// =============================================================================
// HELPERS
// =============================================================================

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", 0, err)
		return false
	}
	return true
}

// requireDerived rejects addresses that are not derived from a public key.
func requireDerived(w http.ResponseWriter, addr generic.Address) bool {
	if !auth.IsDerived(addr) {
		writeError(w, http.StatusBadRequest, "invalid address", generic.CodeUnauthorized, fmt.Errorf("%q is not a vault address", addr))
		return false
	}
	return true
}

func parseAmount(w http.ResponseWriter, s string) (generic.Amount, bool) {
	amount, err := generic.ParseAmount(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, generic.CodeInvalidAmount.String(), generic.CodeInvalidAmount, err)
		return generic.Amount{}, false
	}
	return amount, true
}

func accountParam(r *http.Request) generic.Address {
	return generic.Address(chi.URLParam(r, "address"))
}

func shipmentParam(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid shipment id", 0, err)
		return 0, false
	}
	return id, true
}

func escrowParam(w http.ResponseWriter, r *http.Request) (generic.Hash, bool) {
	id, err := generic.ParseHash(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid escrow id", 0, err)
		return generic.Hash{}, false
	}
	return id, true
}

func limitParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
