package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hms/backoffice/internal/models"
	"hms/backoffice/internal/sequence"
	"hms/backoffice/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const entryColumns = `entry_id, ticket_number, patient_id, payment_id, provider_id, department,
	priority_tier, status, created_at, intake_at, intake_by, session_start_at, completed_at, cancelled_at`

type NumberSpec struct {
	Prefix string
	Pad    int
}

type Options struct {
	Timezone      *time.Location
	PatientNumber NumberSpec
	StaffNumber   NumberSpec
	QueueTicket   NumberSpec
	TxnReference  NumberSpec
}

type Store struct {
	pool        *pgxpool.Pool
	issuer      *sequence.Issuer
	loc         *time.Location
	patientSpec NumberSpec
	staffSpec   NumberSpec
	queueSpec   NumberSpec
	txnSpec     NumberSpec
}

func NewStore(pool *pgxpool.Pool, issuer *sequence.Issuer, options Options) *Store {
	loc := options.Timezone
	if loc == nil {
		loc = time.UTC
	}
	return &Store{
		pool:        pool,
		issuer:      issuer,
		loc:         loc,
		patientSpec: specOrDefault(options.PatientNumber, NumberSpec{Prefix: "PAT", Pad: 4}),
		staffSpec:   specOrDefault(options.StaffNumber, NumberSpec{Prefix: "STF", Pad: 4}),
		queueSpec:   specOrDefault(options.QueueTicket, NumberSpec{Prefix: "Q", Pad: 4}),
		txnSpec:     specOrDefault(options.TxnReference, NumberSpec{Prefix: "TXN", Pad: 4}),
	}
}

func specOrDefault(spec, fallback NumberSpec) NumberSpec {
	if spec.Prefix == "" {
		spec.Prefix = fallback.Prefix
	}
	if spec.Pad <= 0 {
		spec.Pad = fallback.Pad
	}
	return spec
}

func (s *Store) CreateQueueEntry(ctx context.Context, input store.CreateEntryInput) (models.QueueEntry, bool, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.QueueEntry{}, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	existing, found, err := findEntryByRequestID(ctx, tx, input.RequestID)
	if err != nil {
		return models.QueueEntry{}, false, err
	}
	if found {
		if err = tx.Commit(ctx); err != nil {
			return models.QueueEntry{}, false, err
		}
		return existing, false, nil
	}

	var paymentPatient string
	row := tx.QueryRow(ctx, `
		SELECT patient_id
		FROM payments
		WHERE payment_id = $1 AND patient_id = $2
	`, input.PaymentID, input.PatientID)
	if err = row.Scan(&paymentPatient); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.QueueEntry{}, false, store.ErrPaymentNotFound
		}
		return models.QueueEntry{}, false, err
	}

	// One active visit per payment: serialize creators on the payment id,
	// then check committed state.
	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, input.PaymentID); err != nil {
		return models.QueueEntry{}, false, err
	}
	var activeExists bool
	row = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM queue_entries
			WHERE payment_id = $1 AND status NOT IN ($2, $3)
		)
	`, input.PaymentID, models.StatusCompleted, models.StatusCancelled)
	if err = row.Scan(&activeExists); err != nil {
		return models.QueueEntry{}, false, err
	}
	if activeExists {
		err = store.ErrDuplicateActiveEntry
		return models.QueueEntry{}, false, err
	}

	if input.ProviderID != "" {
		if err = s.ensureStaffExists(ctx, input.ProviderID); err != nil {
			return models.QueueEntry{}, false, err
		}
	}

	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	tier := input.PriorityTier
	if tier == "" {
		tier = models.TierNormal
	}

	ticket, err := s.issuer.Issue(ctx, sequence.DayKey("queue", createdAt, s.loc), sequence.FormatConfig{
		Prefix: s.queueSpec.Prefix,
		Pad:    s.queueSpec.Pad,
		Date:   createdAt.In(s.loc),
	}, s.ticketNumberTaken)
	if err != nil {
		return models.QueueEntry{}, false, err
	}

	var entry models.QueueEntry
	row = tx.QueryRow(ctx, `
		INSERT INTO queue_entries (
			entry_id, request_id, ticket_number, patient_id, payment_id, provider_id,
			department, priority_tier, tier_rank, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+entryColumns+`
	`, uuid.NewString(), input.RequestID, ticket, input.PatientID, input.PaymentID,
		nullIfEmpty(input.ProviderID), nullIfEmpty(input.Department), tier,
		models.TierRank(tier), models.StatusAwaitingIntake, createdAt)
	if entry, err = scanEntry(row); err != nil {
		return models.QueueEntry{}, false, err
	}
	entry.RequestID = input.RequestID

	if err = insertVisitEvent(ctx, tx, "visit.created", entry); err != nil {
		return models.QueueEntry{}, false, err
	}
	if err = tx.Commit(ctx); err != nil {
		return models.QueueEntry{}, false, err
	}
	return entry, true, nil
}

func (s *Store) GetQueueEntry(ctx context.Context, entryID string) (models.QueueEntry, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM queue_entries WHERE entry_id = $1`, entryID)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.QueueEntry{}, store.ErrEntryNotFound
		}
		return models.QueueEntry{}, err
	}
	return entry, nil
}

func (s *Store) ListQueue(ctx context.Context, input store.ListQueueInput) ([]models.QueueEntry, error) {
	statuses := input.Statuses
	if len(statuses) == 0 {
		statuses = []string{models.StatusAwaitingIntake, models.StatusIntakeComplete, models.StatusInSession, models.StatusSessionPaused}
	}

	query := `SELECT ` + entryColumns + ` FROM queue_entries WHERE status = ANY($1)`
	args := []interface{}{statuses}
	if input.Department != "" {
		query += " AND department = $2"
		args = append(args, input.Department)
	}
	query += " ORDER BY tier_rank DESC, created_at ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.QueueEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) NextQueueEntry(ctx context.Context, input store.NextEntryInput) (models.QueueEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM queue_entries WHERE status = $1`
	args := []interface{}{input.Status}
	pos := 2
	if input.Department != "" {
		query += fmt.Sprintf(" AND department = $%d", pos)
		args = append(args, input.Department)
		pos++
	}
	if input.ProviderID != "" {
		query += fmt.Sprintf(" AND (provider_id IS NULL OR provider_id = $%d)", pos)
		args = append(args, input.ProviderID)
		pos++
	}
	query += " ORDER BY tier_rank DESC, created_at ASC LIMIT 1"

	row := s.pool.QueryRow(ctx, query, args...)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.QueueEntry{}, store.ErrNoEntry
		}
		return models.QueueEntry{}, err
	}
	return entry, nil
}

func (s *Store) CompleteIntake(ctx context.Context, input store.EntryActionInput) (models.QueueEntry, bool, error) {
	if input.StaffID != "" {
		if err := s.ensureStaffExists(ctx, input.StaffID); err != nil {
			return models.QueueEntry{}, false, err
		}
	}
	return s.runEntryAction(ctx, input, entryAction{
		name:            "intake_complete",
		toStatus:        models.StatusIntakeComplete,
		timestampColumn: "intake_at",
		staffColumn:     "intake_by",
		eventType:       "visit.intake_completed",
	})
}

func (s *Store) CancelEntry(ctx context.Context, input store.EntryActionInput) (models.QueueEntry, bool, error) {
	return s.runEntryAction(ctx, input, entryAction{
		name:            "cancel",
		toStatus:        models.StatusCancelled,
		timestampColumn: "cancelled_at",
		eventType:       "visit.cancelled",
	})
}

func (s *Store) PauseSession(ctx context.Context, input store.EntryActionInput) (models.QueueEntry, bool, error) {
	return s.toggleSessionState(ctx, input, entryAction{
		name:      "pause_session",
		toStatus:  models.StatusSessionPaused,
		eventType: "visit.session_paused",
	}, models.SessionPaused)
}

func (s *Store) ResumeSession(ctx context.Context, input store.EntryActionInput) (models.QueueEntry, bool, error) {
	return s.toggleSessionState(ctx, input, entryAction{
		name:      "resume_session",
		toStatus:  models.StatusInSession,
		eventType: "visit.session_resumed",
	}, models.SessionInProgress)
}

func (s *Store) AssignProvider(ctx context.Context, input store.AssignProviderInput) (models.QueueEntry, error) {
	if err := s.ensureStaffExists(ctx, input.ProviderID); err != nil {
		return models.QueueEntry{}, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.QueueEntry{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Administrative reassignment: changes the provider, never the status.
	row := tx.QueryRow(ctx, `
		UPDATE queue_entries
		SET provider_id = $1
		WHERE entry_id = $2 AND status NOT IN ($3, $4)
		RETURNING `+entryColumns+`
	`, input.ProviderID, input.EntryID, models.StatusCompleted, models.StatusCancelled)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = s.diagnoseEntryFailure(ctx, tx, input.EntryID)
			return models.QueueEntry{}, err
		}
		return models.QueueEntry{}, err
	}

	if err = insertVisitEvent(ctx, tx, "visit.provider_assigned", entry); err != nil {
		return models.QueueEntry{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return models.QueueEntry{}, err
	}
	return entry, nil
}

func (s *Store) StartSession(ctx context.Context, input store.StartSessionInput) (models.VisitSession, models.QueueEntry, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.VisitSession{}, models.QueueEntry{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var lockedStatus string
	var providerNull sql.NullString
	row := tx.QueryRow(ctx, `
		SELECT status, provider_id
		FROM queue_entries
		WHERE entry_id = $1
		FOR UPDATE
	`, input.EntryID)
	if err = row.Scan(&lockedStatus, &providerNull); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrEntryNotFound
		}
		return models.VisitSession{}, models.QueueEntry{}, err
	}

	var sessionExists bool
	row = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM visit_sessions WHERE entry_id = $1)`, input.EntryID)
	if err = row.Scan(&sessionExists); err != nil {
		return models.VisitSession{}, models.QueueEntry{}, err
	}
	if sessionExists {
		err = store.ErrInvalidTransition
		return models.VisitSession{}, models.QueueEntry{}, err
	}

	providerID := input.ProviderID
	if providerID == "" && providerNull.Valid {
		providerID = providerNull.String
	}
	if providerID == "" {
		err = store.ErrProviderRequired
		return models.VisitSession{}, models.QueueEntry{}, err
	}
	if input.ProviderID != "" {
		if err = s.ensureStaffExists(ctx, input.ProviderID); err != nil {
			return models.VisitSession{}, models.QueueEntry{}, err
		}
	}

	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	row = tx.QueryRow(ctx, `
		UPDATE queue_entries
		SET status = $1, session_start_at = $2, provider_id = $3
		WHERE entry_id = $4 AND status = ANY($5)
		RETURNING `+entryColumns+`
	`, models.StatusInSession, occurredAt, providerID, input.EntryID, store.AllowedStatuses("start_session"))
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrInvalidTransition
		}
		return models.VisitSession{}, models.QueueEntry{}, err
	}

	var session models.VisitSession
	row = tx.QueryRow(ctx, `
		INSERT INTO visit_sessions (session_id, entry_id, provider_id, status, started_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING session_id, entry_id, provider_id, COALESCE(complaint, ''), COALESCE(diagnosis, ''), COALESCE(notes, ''), status, started_at, completed_at
	`, uuid.NewString(), input.EntryID, providerID, models.SessionInProgress, occurredAt)
	if session, err = scanSession(row); err != nil {
		return models.VisitSession{}, models.QueueEntry{}, err
	}

	if err = insertVisitEvent(ctx, tx, "visit.session_started", entry); err != nil {
		return models.VisitSession{}, models.QueueEntry{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return models.VisitSession{}, models.QueueEntry{}, err
	}
	return session, entry, nil
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (models.VisitSession, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT session_id, entry_id, provider_id, COALESCE(complaint, ''), COALESCE(diagnosis, ''), COALESCE(notes, ''), status, started_at, completed_at
		FROM visit_sessions
		WHERE session_id = $1
	`, sessionID)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.VisitSession{}, store.ErrSessionNotFound
		}
		return models.VisitSession{}, err
	}
	return session, nil
}

func (s *Store) CompleteSession(ctx context.Context, input store.CompleteSessionInput) (models.VisitSession, models.QueueEntry, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.VisitSession{}, models.QueueEntry{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	row := tx.QueryRow(ctx, `
		SELECT session_id, entry_id, provider_id, COALESCE(complaint, ''), COALESCE(diagnosis, ''), COALESCE(notes, ''), status, started_at, completed_at
		FROM visit_sessions
		WHERE session_id = $1
		FOR UPDATE
	`, input.SessionID)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrSessionNotFound
		}
		return models.VisitSession{}, models.QueueEntry{}, err
	}

	if session.Status == models.SessionCompleted {
		// Completing twice is a no-op returning current state.
		var entry models.QueueEntry
		entry, err = s.getEntryTx(ctx, tx, session.EntryID)
		if err != nil {
			return models.VisitSession{}, models.QueueEntry{}, err
		}
		if err = tx.Commit(ctx); err != nil {
			return models.VisitSession{}, models.QueueEntry{}, err
		}
		return session, entry, nil
	}

	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	row = tx.QueryRow(ctx, `
		UPDATE visit_sessions
		SET status = $1,
			completed_at = $2,
			complaint = COALESCE(NULLIF($3, ''), complaint),
			diagnosis = COALESCE(NULLIF($4, ''), diagnosis),
			notes = COALESCE(NULLIF($5, ''), notes)
		WHERE session_id = $6
		RETURNING session_id, entry_id, provider_id, COALESCE(complaint, ''), COALESCE(diagnosis, ''), COALESCE(notes, ''), status, started_at, completed_at
	`, models.SessionCompleted, occurredAt, input.Complaint, input.Diagnosis, input.Notes, input.SessionID)
	if session, err = scanSession(row); err != nil {
		return models.VisitSession{}, models.QueueEntry{}, err
	}

	// Session completion is the only path that moves an entry to completed.
	row = tx.QueryRow(ctx, `
		UPDATE queue_entries
		SET status = $1, completed_at = $2
		WHERE entry_id = $3 AND status = ANY($4)
		RETURNING `+entryColumns+`
	`, models.StatusCompleted, occurredAt, session.EntryID, store.AllowedStatuses("complete_session"))
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrInvalidTransition
		}
		return models.VisitSession{}, models.QueueEntry{}, err
	}

	if err = insertVisitEvent(ctx, tx, "visit.completed", entry); err != nil {
		return models.VisitSession{}, models.QueueEntry{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return models.VisitSession{}, models.QueueEntry{}, err
	}
	return session, entry, nil
}

type entryAction struct {
	name            string
	toStatus        string
	timestampColumn string
	staffColumn     string
	eventType       string
}

func (s *Store) runEntryAction(ctx context.Context, input store.EntryActionInput, action entryAction) (models.QueueEntry, bool, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.QueueEntry{}, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	existing, found, err := findActionRequest(ctx, tx, action.name, input.RequestID)
	if err != nil {
		return models.QueueEntry{}, false, err
	}
	if found {
		if err = tx.Commit(ctx); err != nil {
			return models.QueueEntry{}, false, err
		}
		return existing, false, nil
	}

	entry, err := s.applyEntryTransition(ctx, tx, input, action)
	if err != nil {
		return models.QueueEntry{}, false, err
	}

	if err = insertActionRequest(ctx, tx, action.name, input.RequestID, entry.EntryID); err != nil {
		return models.QueueEntry{}, false, err
	}
	if err = insertVisitEvent(ctx, tx, action.eventType, entry); err != nil {
		return models.QueueEntry{}, false, err
	}
	if err = tx.Commit(ctx); err != nil {
		return models.QueueEntry{}, false, err
	}
	return entry, true, nil
}

func (s *Store) toggleSessionState(ctx context.Context, input store.EntryActionInput, action entryAction, sessionStatus string) (models.QueueEntry, bool, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.QueueEntry{}, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	existing, found, err := findActionRequest(ctx, tx, action.name, input.RequestID)
	if err != nil {
		return models.QueueEntry{}, false, err
	}
	if found {
		if err = tx.Commit(ctx); err != nil {
			return models.QueueEntry{}, false, err
		}
		return existing, false, nil
	}

	// Pause and resume only make sense while the bound session is open.
	var sessionID string
	row := tx.QueryRow(ctx, `
		UPDATE visit_sessions
		SET status = $1
		WHERE entry_id = $2 AND status <> $3
		RETURNING session_id
	`, sessionStatus, input.EntryID, models.SessionCompleted)
	if err = row.Scan(&sessionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrInvalidTransition
		}
		return models.QueueEntry{}, false, err
	}

	entry, err := s.applyEntryTransition(ctx, tx, input, action)
	if err != nil {
		return models.QueueEntry{}, false, err
	}

	if err = insertActionRequest(ctx, tx, action.name, input.RequestID, entry.EntryID); err != nil {
		return models.QueueEntry{}, false, err
	}
	if err = insertVisitEvent(ctx, tx, action.eventType, entry); err != nil {
		return models.QueueEntry{}, false, err
	}
	if err = tx.Commit(ctx); err != nil {
		return models.QueueEntry{}, false, err
	}
	return entry, true, nil
}

func (s *Store) applyEntryTransition(ctx context.Context, tx pgx.Tx, input store.EntryActionInput, action entryAction) (models.QueueEntry, error) {
	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	query := `UPDATE queue_entries SET status = $1`
	args := []interface{}{action.toStatus}
	pos := 2

	if action.timestampColumn != "" {
		query += fmt.Sprintf(", %s = $%d", action.timestampColumn, pos)
		args = append(args, occurredAt)
		pos++
	}
	if action.staffColumn != "" {
		query += fmt.Sprintf(", %s = $%d", action.staffColumn, pos)
		args = append(args, nullIfEmpty(input.StaffID))
		pos++
	}

	query += fmt.Sprintf(" WHERE entry_id = $%d AND status = ANY($%d) RETURNING %s", pos, pos+1, entryColumns)
	args = append(args, input.EntryID, store.AllowedStatuses(action.name))

	row := tx.QueryRow(ctx, query, args...)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.QueueEntry{}, s.diagnoseEntryFailure(ctx, tx, input.EntryID)
		}
		return models.QueueEntry{}, err
	}
	entry.RequestID = input.RequestID
	return entry, nil
}

// diagnoseEntryFailure distinguishes a missing entry from a guard loss after
// a zero-row guarded update.
func (s *Store) diagnoseEntryFailure(ctx context.Context, tx pgx.Tx, entryID string) error {
	var status string
	row := tx.QueryRow(ctx, `SELECT status FROM queue_entries WHERE entry_id = $1`, entryID)
	if err := row.Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrEntryNotFound
		}
		return err
	}
	return store.ErrInvalidTransition
}

func (s *Store) getEntryTx(ctx context.Context, tx pgx.Tx, entryID string) (models.QueueEntry, error) {
	row := tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM queue_entries WHERE entry_id = $1`, entryID)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.QueueEntry{}, store.ErrEntryNotFound
		}
		return models.QueueEntry{}, err
	}
	return entry, nil
}

func findEntryByRequestID(ctx context.Context, tx pgx.Tx, requestID string) (models.QueueEntry, bool, error) {
	row := tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM queue_entries WHERE request_id = $1`, requestID)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.QueueEntry{}, false, nil
		}
		return models.QueueEntry{}, false, err
	}
	entry.RequestID = requestID
	return entry, true, nil
}

func findActionRequest(ctx context.Context, tx pgx.Tx, action, requestID string) (models.QueueEntry, bool, error) {
	var entryID string
	row := tx.QueryRow(ctx, `
		SELECT entry_id
		FROM action_requests
		WHERE request_id = $1 AND action = $2
	`, requestID, action)
	if err := row.Scan(&entryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.QueueEntry{}, false, nil
		}
		return models.QueueEntry{}, false, err
	}

	row = tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM queue_entries WHERE entry_id = $1`, entryID)
	entry, err := scanEntry(row)
	if err != nil {
		return models.QueueEntry{}, false, err
	}
	entry.RequestID = requestID
	return entry, true, nil
}

func insertActionRequest(ctx context.Context, tx pgx.Tx, action, requestID, entryID string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO action_requests (request_id, action, entry_id, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (request_id) DO NOTHING
	`, requestID, action, entryID)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (models.QueueEntry, error) {
	var entry models.QueueEntry
	var providerNull sql.NullString
	var departmentNull sql.NullString
	var intakeAtNull sql.NullTime
	var intakeByNull sql.NullString
	var sessionStartNull sql.NullTime
	var completedNull sql.NullTime
	var cancelledNull sql.NullTime
	if err := row.Scan(&entry.EntryID, &entry.TicketNumber, &entry.PatientID, &entry.PaymentID,
		&providerNull, &departmentNull, &entry.PriorityTier, &entry.Status, &entry.CreatedAt,
		&intakeAtNull, &intakeByNull, &sessionStartNull, &completedNull, &cancelledNull); err != nil {
		return models.QueueEntry{}, err
	}
	entry.ProviderID = nullStringPtr(providerNull)
	if departmentNull.Valid {
		entry.Department = departmentNull.String
	}
	entry.IntakeAt = nullTimePtr(intakeAtNull)
	entry.IntakeBy = nullStringPtr(intakeByNull)
	entry.SessionStartAt = nullTimePtr(sessionStartNull)
	entry.CompletedAt = nullTimePtr(completedNull)
	entry.CancelledAt = nullTimePtr(cancelledNull)
	return entry, nil
}

func scanSession(row rowScanner) (models.VisitSession, error) {
	var session models.VisitSession
	var completedNull sql.NullTime
	if err := row.Scan(&session.SessionID, &session.EntryID, &session.ProviderID,
		&session.Complaint, &session.Diagnosis, &session.Notes,
		&session.Status, &session.StartedAt, &completedNull); err != nil {
		return models.VisitSession{}, err
	}
	session.CompletedAt = nullTimePtr(completedNull)
	return session, nil
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

func nullTimePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	return &value.Time
}

func nullStringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	return &value.String
}
