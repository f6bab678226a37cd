package models

import "time"

type Patient struct {
	PatientID     string    `json:"patient_id"`
	PatientNumber string    `json:"patient_number"`
	FullName      string    `json:"full_name"`
	BirthDate     string    `json:"birth_date,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type Staff struct {
	StaffID     string    `json:"staff_id"`
	StaffNumber string    `json:"staff_number"`
	FullName    string    `json:"full_name"`
	Role        string    `json:"role"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

type Payment struct {
	PaymentID   string    `json:"payment_id"`
	Reference   string    `json:"reference"`
	PatientID   string    `json:"patient_id"`
	AmountCents int64     `json:"amount_cents"`
	CreatedAt   time.Time `json:"created_at"`
}

type QueueEntry struct {
	EntryID        string     `json:"entry_id"`
	TicketNumber   string     `json:"ticket_number"`
	PatientID      string     `json:"patient_id"`
	PaymentID      string     `json:"payment_id"`
	ProviderID     *string    `json:"provider_id,omitempty"`
	Department     string     `json:"department,omitempty"`
	PriorityTier   string     `json:"priority_tier"`
	Status         string     `json:"status"`
	RequestID      string     `json:"request_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	IntakeAt       *time.Time `json:"intake_at,omitempty"`
	IntakeBy       *string    `json:"intake_by,omitempty"`
	SessionStartAt *time.Time `json:"session_start_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
}

type VisitSession struct {
	SessionID   string     `json:"session_id"`
	EntryID     string     `json:"entry_id"`
	ProviderID  string     `json:"provider_id"`
	Complaint   string     `json:"complaint,omitempty"`
	Diagnosis   string     `json:"diagnosis,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

const (
	StatusAwaitingIntake = "awaiting_intake"
	StatusIntakeComplete = "intake_complete"
	StatusInSession      = "in_session"
	StatusSessionPaused  = "session_paused"
	StatusCompleted      = "completed"
	StatusCancelled      = "cancelled"
)

const (
	SessionInProgress = "in_progress"
	SessionPaused     = "paused"
	SessionCompleted  = "completed"
)

const (
	TierNormal    = "normal"
	TierUrgent    = "urgent"
	TierEmergency = "emergency"
)

// TierRank orders dequeue: higher ranks are called ahead of arrival order.
func TierRank(tier string) int {
	switch tier {
	case TierEmergency:
		return 2
	case TierUrgent:
		return 1
	default:
		return 0
	}
}

func IsTerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusCancelled
}
