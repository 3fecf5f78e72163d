/*
journal.go - Append-only transaction log and event records

PURPOSE:
  The vault appends one TransactionLog entry per balance-affecting action
  and emits Events for off-chain observers. The vault itself never reads
  either back; they exist for auditors, indexers and the HTTP surface.

INVARIANTS:
  1. APPEND-ONLY: Entries and events are never updated or deleted
  2. TRANSACTIONAL: They are written through the same Store as state, so a
     failed invocation leaves no log entry and no event behind

READ SIDE:
  JournalReader is implemented by every backend but is deliberately not
  part of Store: vault operations cannot depend on past log entries.

SEE ALSO:
  - store.go: Store.AppendLog and Store.Emit
*/
package generic

import (
	"context"

	"github.com/google/uuid"
)

// =============================================================================
// TRANSACTION LOG
// =============================================================================

type TransactionType string

const (
	TxDeposit          TransactionType = "deposit"
	TxWithdrawal       TransactionType = "withdrawal"
	TxLock             TransactionType = "lock"
	TxUnlock           TransactionType = "unlock"
	TxTransfer         TransactionType = "transfer"
	TxInsuranceDeposit TransactionType = "insurance_deposit"
	TxInsuranceClaim   TransactionType = "insurance_claim"
)

// TransactionLog is a write-once audit record.
type TransactionLog struct {
	ID        string          `json:"id"`
	From      Address         `json:"from"`
	To        Address         `json:"to"`
	Amount    Amount          `json:"amount"`
	Timestamp Timestamp       `json:"timestamp"`
	Type      TransactionType `json:"transaction_type"`
}

func NewTransactionLog(from, to Address, amount Amount, at Timestamp, typ TransactionType) TransactionLog {
	return TransactionLog{
		ID:        uuid.NewString(),
		From:      from,
		To:        to,
		Amount:    amount,
		Timestamp: at,
		Type:      typ,
	}
}

// =============================================================================
// EVENTS
// =============================================================================

type EventTopic string

const (
	EventInsuranceDeposited EventTopic = "insurance_deposited"
	EventInsuranceClaimed   EventTopic = "insurance_claimed"
	EventEscrowAutoReleased EventTopic = "escrow_auto_released"
	EventTrackingUpdated    EventTopic = "tracking_updated"
)

// Event is published for off-chain observers. Subject is the shipment id or
// escrow id the event is about; Data carries the topic-specific payload.
type Event struct {
	ID        string            `json:"id"`
	Topic     EventTopic        `json:"topic"`
	Subject   string            `json:"subject"`
	Data      map[string]string `json:"data"`
	Timestamp Timestamp         `json:"timestamp"`
}

func NewEvent(topic EventTopic, subject string, at Timestamp, data map[string]string) Event {
	return Event{
		ID:        uuid.NewString(),
		Topic:     topic,
		Subject:   subject,
		Data:      data,
		Timestamp: at,
	}
}

// =============================================================================
// READ SIDE
// =============================================================================

// JournalFilter narrows a journal query. Zero values match everything.
type JournalFilter struct {
	Account Address // matches From or To
	Types   []TransactionType
	Topic   EventTopic
	Subject string
	Limit   int
}

func (f JournalFilter) matchesLog(e TransactionLog) bool {
	if f.Account != "" && e.From != f.Account && e.To != f.Account {
		return false
	}
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if t == e.Type {
			return true
		}
	}
	return false
}

func (f JournalFilter) matchesEvent(e Event) bool {
	if f.Topic != "" && e.Topic != f.Topic {
		return false
	}
	return f.Subject == "" || e.Subject == f.Subject
}

// FilterLogs applies f to entries in order, honoring Limit.
func FilterLogs(entries []TransactionLog, f JournalFilter) []TransactionLog {
	out := []TransactionLog{}
	for _, e := range entries {
		if !f.matchesLog(e) {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

// FilterEvents applies f to events in order, honoring Limit.
func FilterEvents(events []Event, f JournalFilter) []Event {
	out := []Event{}
	for _, e := range events {
		if !f.matchesEvent(e) {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

// JournalReader reads back what invocations appended, oldest first.
type JournalReader interface {
	Logs(ctx context.Context, filter JournalFilter) ([]TransactionLog, error)
	Events(ctx context.Context, filter JournalFilter) ([]Event, error)
}
