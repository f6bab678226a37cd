package store

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"hms/backoffice/internal/models"
)

// EntryEvent is one link in a queue entry's tamper-evident audit chain.
// Each event hashes its predecessor, so any rewrite of visit history is
// detectable.
type EntryEvent struct {
	EntryID   string          `json:"entry_id"`
	EntrySeq  int             `json:"entry_seq"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	PrevHash  string          `json:"prev_hash"`
	Hash      string          `json:"hash"`
}

type entryEventPayload struct {
	EntryID        string     `json:"entry_id"`
	TicketNumber   string     `json:"ticket_number"`
	PatientID      string     `json:"patient_id"`
	PaymentID      string     `json:"payment_id"`
	Status         string     `json:"status"`
	Department     string     `json:"department"`
	PriorityTier   string     `json:"priority_tier"`
	ProviderID     *string    `json:"provider_id"`
	IntakeBy       *string    `json:"intake_by"`
	CreatedAt      *time.Time `json:"created_at"`
	IntakeAt       *time.Time `json:"intake_at"`
	SessionStartAt *time.Time `json:"session_start_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	CancelledAt    *time.Time `json:"cancelled_at"`
}

func ComputeEntryEventHash(prevHash, entryID, eventType string, payload json.RawMessage, createdAt time.Time, seq int) string {
	raw := fmt.Sprintf("%s|%s|%s|%s|%d|%s", prevHash, entryID, eventType, createdAt.UTC().Format(time.RFC3339Nano), seq, payload)
	sum := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", sum)
}

// VerifyEntryEvents walks an event chain in sequence order and reports the
// first broken link, if any.
func VerifyEntryEvents(events []EntryEvent) error {
	prev := ""
	for i, event := range events {
		if event.PrevHash != prev {
			return fmt.Errorf("entry event %d: prev hash mismatch", i)
		}
		expected := ComputeEntryEventHash(event.PrevHash, event.EntryID, event.Type, event.Payload, event.CreatedAt, event.EntrySeq)
		if event.Hash != expected {
			return fmt.Errorf("entry event %d: hash mismatch", i)
		}
		prev = event.Hash
	}
	return nil
}

// RehydrateEntry replays an event chain into the latest queue entry view.
func RehydrateEntry(events []EntryEvent) (models.QueueEntry, error) {
	var entry models.QueueEntry
	for _, event := range events {
		if len(event.Payload) == 0 {
			continue
		}
		var payload entryEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return models.QueueEntry{}, err
		}
		if payload.EntryID != "" {
			entry.EntryID = payload.EntryID
		}
		if payload.TicketNumber != "" {
			entry.TicketNumber = payload.TicketNumber
		}
		if payload.PatientID != "" {
			entry.PatientID = payload.PatientID
		}
		if payload.PaymentID != "" {
			entry.PaymentID = payload.PaymentID
		}
		if payload.Status != "" {
			entry.Status = payload.Status
		}
		if payload.Department != "" {
			entry.Department = payload.Department
		}
		if payload.PriorityTier != "" {
			entry.PriorityTier = payload.PriorityTier
		}
		if payload.ProviderID != nil {
			entry.ProviderID = payload.ProviderID
		}
		if payload.IntakeBy != nil {
			entry.IntakeBy = payload.IntakeBy
		}
		if payload.CreatedAt != nil {
			entry.CreatedAt = *payload.CreatedAt
		}
		if payload.IntakeAt != nil {
			entry.IntakeAt = payload.IntakeAt
		}
		if payload.SessionStartAt != nil {
			entry.SessionStartAt = payload.SessionStartAt
		}
		if payload.CompletedAt != nil {
			entry.CompletedAt = payload.CompletedAt
		}
		if payload.CancelledAt != nil {
			entry.CancelledAt = payload.CancelledAt
		}
	}
	return entry, nil
}
