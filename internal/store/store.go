package store

import (
	"context"
	"encoding/json"
	"time"

	"hms/backoffice/internal/models"
)

type CreatePatientInput struct {
	FullName  string
	BirthDate string
	CreatedAt time.Time
}

type CreateStaffInput struct {
	FullName  string
	Role      string
	Password  string
	CreatedAt time.Time
}

type CreatePaymentInput struct {
	PatientID   string
	AmountCents int64
	CreatedAt   time.Time
}

type CreateEntryInput struct {
	RequestID    string
	PatientID    string
	PaymentID    string
	ProviderID   string
	Department   string
	PriorityTier string
	CreatedAt    time.Time
}

type EntryActionInput struct {
	RequestID  string
	EntryID    string
	StaffID    string
	Reason     string
	OccurredAt time.Time
}

type AssignProviderInput struct {
	EntryID    string
	ProviderID string
}

type NextEntryInput struct {
	Status     string
	Department string
	ProviderID string
}

type ListQueueInput struct {
	Statuses   []string
	Department string
}

type StartSessionInput struct {
	RequestID  string
	EntryID    string
	ProviderID string
	OccurredAt time.Time
}

type CompleteSessionInput struct {
	RequestID  string
	SessionID  string
	Complaint  string
	Diagnosis  string
	Notes      string
	OccurredAt time.Time
}

type OutboxEvent struct {
	EventID   string          `json:"event_id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store is the persistence boundary for the back-office core: registration,
// payment references, the visit queue state machine, and session binding.
type Store interface {
	CreatePatient(ctx context.Context, input CreatePatientInput) (models.Patient, error)
	GetPatient(ctx context.Context, patientID string) (models.Patient, error)
	ListPatients(ctx context.Context, limit int) ([]models.Patient, error)

	CreateStaff(ctx context.Context, input CreateStaffInput) (models.Staff, error)
	ListStaff(ctx context.Context) ([]models.Staff, error)

	CreatePayment(ctx context.Context, input CreatePaymentInput) (models.Payment, error)

	CreateQueueEntry(ctx context.Context, input CreateEntryInput) (models.QueueEntry, bool, error)
	GetQueueEntry(ctx context.Context, entryID string) (models.QueueEntry, error)
	ListQueue(ctx context.Context, input ListQueueInput) ([]models.QueueEntry, error)
	NextQueueEntry(ctx context.Context, input NextEntryInput) (models.QueueEntry, error)

	CompleteIntake(ctx context.Context, input EntryActionInput) (models.QueueEntry, bool, error)
	AssignProvider(ctx context.Context, input AssignProviderInput) (models.QueueEntry, error)
	CancelEntry(ctx context.Context, input EntryActionInput) (models.QueueEntry, bool, error)

	StartSession(ctx context.Context, input StartSessionInput) (models.VisitSession, models.QueueEntry, error)
	GetSession(ctx context.Context, sessionID string) (models.VisitSession, error)
	PauseSession(ctx context.Context, input EntryActionInput) (models.QueueEntry, bool, error)
	ResumeSession(ctx context.Context, input EntryActionInput) (models.QueueEntry, bool, error)
	CompleteSession(ctx context.Context, input CompleteSessionInput) (models.VisitSession, models.QueueEntry, error)

	ListOutboxEvents(ctx context.Context, after time.Time, limit int) ([]OutboxEvent, error)
	ListEntryEvents(ctx context.Context, entryID string) ([]EntryEvent, error)
}
