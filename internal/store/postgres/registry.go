package postgres

import (
	"context"
	"errors"
	"time"

	"hms/backoffice/internal/models"
	"hms/backoffice/internal/sequence"
	"hms/backoffice/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

func (s *Store) CreatePatient(ctx context.Context, input store.CreatePatientInput) (models.Patient, error) {
	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	number, err := s.issuer.Issue(ctx, "patient", sequence.FormatConfig{
		Prefix: s.patientSpec.Prefix,
		Pad:    s.patientSpec.Pad,
	}, s.patientNumberTaken)
	if err != nil {
		return models.Patient{}, err
	}

	var patient models.Patient
	row := s.pool.QueryRow(ctx, `
		INSERT INTO patients (patient_id, patient_number, full_name, birth_date, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING patient_id, patient_number, full_name, COALESCE(birth_date, ''), created_at
	`, uuid.NewString(), number, input.FullName, nullIfEmpty(input.BirthDate), createdAt)
	if err := row.Scan(&patient.PatientID, &patient.PatientNumber, &patient.FullName, &patient.BirthDate, &patient.CreatedAt); err != nil {
		return models.Patient{}, err
	}
	return patient, nil
}

func (s *Store) GetPatient(ctx context.Context, patientID string) (models.Patient, error) {
	var patient models.Patient
	row := s.pool.QueryRow(ctx, `
		SELECT patient_id, patient_number, full_name, COALESCE(birth_date, ''), created_at
		FROM patients
		WHERE patient_id = $1
	`, patientID)
	if err := row.Scan(&patient.PatientID, &patient.PatientNumber, &patient.FullName, &patient.BirthDate, &patient.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Patient{}, store.ErrPatientNotFound
		}
		return models.Patient{}, err
	}
	return patient, nil
}

func (s *Store) ListPatients(ctx context.Context, limit int) ([]models.Patient, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT patient_id, patient_number, full_name, COALESCE(birth_date, ''), created_at
		FROM patients
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patients []models.Patient
	for rows.Next() {
		var patient models.Patient
		if err := rows.Scan(&patient.PatientID, &patient.PatientNumber, &patient.FullName, &patient.BirthDate, &patient.CreatedAt); err != nil {
			return nil, err
		}
		patients = append(patients, patient)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return patients, nil
}

func (s *Store) CreateStaff(ctx context.Context, input store.CreateStaffInput) (models.Staff, error) {
	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.Staff{}, err
	}

	number, err := s.issuer.Issue(ctx, "staff", sequence.FormatConfig{
		Prefix: s.staffSpec.Prefix,
		Pad:    s.staffSpec.Pad,
	}, s.staffNumberTaken)
	if err != nil {
		return models.Staff{}, err
	}

	var member models.Staff
	row := s.pool.QueryRow(ctx, `
		INSERT INTO staff (staff_id, staff_number, full_name, role, password_hash, active, created_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6)
		RETURNING staff_id, staff_number, full_name, role, active, created_at
	`, uuid.NewString(), number, input.FullName, input.Role, string(passwordHash), createdAt)
	if err := row.Scan(&member.StaffID, &member.StaffNumber, &member.FullName, &member.Role, &member.Active, &member.CreatedAt); err != nil {
		return models.Staff{}, err
	}
	return member, nil
}

func (s *Store) ListStaff(ctx context.Context) ([]models.Staff, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT staff_id, staff_number, full_name, role, active, created_at
		FROM staff
		ORDER BY staff_number ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.Staff
	for rows.Next() {
		var member models.Staff
		if err := rows.Scan(&member.StaffID, &member.StaffNumber, &member.FullName, &member.Role, &member.Active, &member.CreatedAt); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

func (s *Store) CreatePayment(ctx context.Context, input store.CreatePaymentInput) (models.Payment, error) {
	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	if err := s.ensurePatientExists(ctx, input.PatientID); err != nil {
		return models.Payment{}, err
	}

	localDay := createdAt.In(s.loc)
	reference, err := s.issuer.Issue(ctx, sequence.DayKey("txn", createdAt, s.loc), sequence.FormatConfig{
		Prefix: s.txnSpec.Prefix,
		Pad:    s.txnSpec.Pad,
		Date:   localDay,
	}, s.paymentReferenceTaken)
	if err != nil {
		return models.Payment{}, err
	}

	var payment models.Payment
	row := s.pool.QueryRow(ctx, `
		INSERT INTO payments (payment_id, reference, patient_id, amount_cents, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING payment_id, reference, patient_id, amount_cents, created_at
	`, uuid.NewString(), reference, input.PatientID, input.AmountCents, createdAt)
	if err := row.Scan(&payment.PaymentID, &payment.Reference, &payment.PatientID, &payment.AmountCents, &payment.CreatedAt); err != nil {
		return models.Payment{}, err
	}
	return payment, nil
}

func (s *Store) ensurePatientExists(ctx context.Context, patientID string) error {
	var exists bool
	row := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM patients WHERE patient_id = $1)`, patientID)
	if err := row.Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return store.ErrPatientNotFound
	}
	return nil
}

func (s *Store) ensureStaffExists(ctx context.Context, staffID string) error {
	var exists bool
	row := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM staff WHERE staff_id = $1 AND active = TRUE)`, staffID)
	if err := row.Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return store.ErrStaffNotFound
	}
	return nil
}

func (s *Store) patientNumberTaken(ctx context.Context, identifier string) (bool, error) {
	return s.identifierTaken(ctx, `SELECT EXISTS (SELECT 1 FROM patients WHERE patient_number = $1)`, identifier)
}

func (s *Store) staffNumberTaken(ctx context.Context, identifier string) (bool, error) {
	return s.identifierTaken(ctx, `SELECT EXISTS (SELECT 1 FROM staff WHERE staff_number = $1)`, identifier)
}

func (s *Store) paymentReferenceTaken(ctx context.Context, identifier string) (bool, error) {
	return s.identifierTaken(ctx, `SELECT EXISTS (SELECT 1 FROM payments WHERE reference = $1)`, identifier)
}

func (s *Store) ticketNumberTaken(ctx context.Context, identifier string) (bool, error) {
	return s.identifierTaken(ctx, `SELECT EXISTS (SELECT 1 FROM queue_entries WHERE ticket_number = $1)`, identifier)
}

func (s *Store) identifierTaken(ctx context.Context, query, identifier string) (bool, error) {
	var exists bool
	row := s.pool.QueryRow(ctx, query, identifier)
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
