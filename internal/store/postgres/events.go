package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"hms/backoffice/internal/models"
	"hms/backoffice/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func entryEventPayload(entry models.QueueEntry) map[string]interface{} {
	return map[string]interface{}{
		"entry_id":         entry.EntryID,
		"ticket_number":    entry.TicketNumber,
		"patient_id":       entry.PatientID,
		"payment_id":       entry.PaymentID,
		"provider_id":      entry.ProviderID,
		"intake_by":        entry.IntakeBy,
		"department":       entry.Department,
		"priority_tier":    entry.PriorityTier,
		"status":           entry.Status,
		"created_at":       entry.CreatedAt,
		"intake_at":        entry.IntakeAt,
		"session_start_at": entry.SessionStartAt,
		"completed_at":     entry.CompletedAt,
		"cancelled_at":     entry.CancelledAt,
	}
}

func insertVisitEvent(ctx context.Context, tx pgx.Tx, eventType string, entry models.QueueEntry) error {
	payloadJSON, err := json.Marshal(entryEventPayload(entry))
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO outbox_events (event_id, type, payload_json, created_at)
		VALUES ($1, $2, $3, $4)
	`, uuid.NewString(), eventType, payloadJSON, time.Now().UTC())
	if err != nil {
		return err
	}
	return insertEntryEvent(ctx, tx, entry.EntryID, eventType, payloadJSON)
}

func insertEntryEvent(ctx context.Context, tx pgx.Tx, entryID, eventType string, payload []byte) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, entryID); err != nil {
		return err
	}

	var lastSeq int
	var prevHash sql.NullString
	row := tx.QueryRow(ctx, `
		SELECT entry_seq, hash
		FROM entry_events
		WHERE entry_id = $1
		ORDER BY entry_seq DESC
		LIMIT 1
		FOR UPDATE
	`, entryID)
	if err := row.Scan(&lastSeq, &prevHash); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	nextSeq := lastSeq + 1
	prev := ""
	if prevHash.Valid {
		prev = prevHash.String
	}
	createdAt := time.Now().UTC()
	hash := store.ComputeEntryEventHash(prev, entryID, eventType, payload, createdAt, nextSeq)

	_, err := tx.Exec(ctx, `
		INSERT INTO entry_events (entry_id, entry_seq, type, payload, created_at, prev_hash, hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entryID, nextSeq, eventType, payload, createdAt, prev, hash)
	return err
}

func (s *Store) ListOutboxEvents(ctx context.Context, after time.Time, limit int) ([]store.OutboxEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT event_id, type, payload_json, created_at
		FROM outbox_events
		WHERE created_at > $1
		ORDER BY created_at ASC
		LIMIT $2
	`, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []store.OutboxEvent
	for rows.Next() {
		var event store.OutboxEvent
		if err := rows.Scan(&event.EventID, &event.Type, &event.Payload, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *Store) ListEntryEvents(ctx context.Context, entryID string) ([]store.EntryEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT entry_id, entry_seq, type, payload, created_at, prev_hash, hash
		FROM entry_events
		WHERE entry_id = $1
		ORDER BY entry_seq ASC
	`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []store.EntryEvent
	for rows.Next() {
		var event store.EntryEvent
		if err := rows.Scan(&event.EntryID, &event.EntrySeq, &event.Type, &event.Payload, &event.CreatedAt, &event.PrevHash, &event.Hash); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
