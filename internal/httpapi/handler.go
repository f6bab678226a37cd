package httpapi

import (
	"encoding/json"
	"errors"
	"expvar"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hms/backoffice/internal/models"
	"hms/backoffice/internal/sequence"
	"hms/backoffice/internal/store"

	"github.com/google/uuid"
)

type Handler struct {
	store store.Store
}

type createPatientRequest struct {
	FullName  string `json:"full_name"`
	BirthDate string `json:"birth_date"`
}

type createStaffRequest struct {
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

type createPaymentRequest struct {
	PatientID   string `json:"patient_id"`
	AmountCents int64  `json:"amount_cents"`
}

type createEntryRequest struct {
	RequestID    string `json:"request_id"`
	PatientID    string `json:"patient_id"`
	PaymentID    string `json:"payment_id"`
	ProviderID   string `json:"provider_id"`
	Department   string `json:"department"`
	PriorityTier string `json:"priority_tier"`
}

type entryActionRequest struct {
	RequestID string `json:"request_id"`
	StaffID   string `json:"staff_id"`
	Reason    string `json:"reason"`
}

type assignProviderRequest struct {
	RequestID  string `json:"request_id"`
	ProviderID string `json:"provider_id"`
}

type startSessionRequest struct {
	RequestID  string `json:"request_id"`
	EntryID    string `json:"entry_id"`
	ProviderID string `json:"provider_id"`
}

type completeSessionRequest struct {
	RequestID string `json:"request_id"`
	Complaint string `json:"complaint"`
	Diagnosis string `json:"diagnosis"`
	Notes     string `json:"notes"`
}

type sessionResponse struct {
	Session models.VisitSession `json:"session"`
	Entry   models.QueueEntry   `json:"entry"`
}

type errorResponse struct {
	RequestID string        `json:"request_id"`
	Error     responseError `json:"error"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewHandler(store store.Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.Handle("/metrics", expvar.Handler())
	mux.HandleFunc("/api/patients", h.handlePatients)
	mux.HandleFunc("/api/patients/", h.handlePatientByID)
	mux.HandleFunc("/api/staff", h.handleStaff)
	mux.HandleFunc("/api/payments", h.handlePayments)
	mux.HandleFunc("/api/queue", h.handleQueue)
	mux.HandleFunc("/api/queue/next", h.handleQueueNext)
	mux.HandleFunc("/api/queue/", h.handleEntrySubtree)
	mux.HandleFunc("/api/sessions", h.handleSessions)
	mux.HandleFunc("/api/sessions/", h.handleSessionSubtree)
	mux.HandleFunc("/api/events", h.handleEvents)
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handlePatients(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req createPatientRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		req.FullName = strings.TrimSpace(req.FullName)
		req.BirthDate = strings.TrimSpace(req.BirthDate)
		if req.FullName == "" {
			writeError(w, "", http.StatusBadRequest, "invalid_request", "full_name is required")
			return
		}
		patient, err := h.store.CreatePatient(r.Context(), store.CreatePatientInput{
			FullName:  req.FullName,
			BirthDate: req.BirthDate,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			status, code, msg := mapError(err)
			writeError(w, "", status, code, msg)
			return
		}
		writeJSON(w, http.StatusOK, patient)
	case http.MethodGet:
		limit := 100
		if limitRaw := strings.TrimSpace(r.URL.Query().Get("limit")); limitRaw != "" {
			parsed, err := strconv.Atoi(limitRaw)
			if err != nil || parsed <= 0 {
				writeError(w, "", http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
				return
			}
			limit = parsed
		}
		patients, err := h.store.ListPatients(r.Context(), limit)
		if err != nil {
			status, code, msg := mapError(err)
			writeError(w, "", status, code, msg)
			return
		}
		writeJSON(w, http.StatusOK, patients)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handlePatientByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	patientID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/patients/"), "/")
	if !isValidUUID(patientID) {
		writeError(w, "", http.StatusBadRequest, "invalid_request", "patient_id must be a UUID")
		return
	}
	patient, err := h.store.GetPatient(r.Context(), patientID)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, "", status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

func (h *Handler) handleStaff(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req createStaffRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		req.FullName = strings.TrimSpace(req.FullName)
		req.Role = strings.TrimSpace(req.Role)
		if req.FullName == "" || req.Role == "" || req.Password == "" {
			writeError(w, "", http.StatusBadRequest, "invalid_request", "full_name, role, and password are required")
			return
		}
		member, err := h.store.CreateStaff(r.Context(), store.CreateStaffInput{
			FullName:  req.FullName,
			Role:      req.Role,
			Password:  req.Password,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			status, code, msg := mapError(err)
			writeError(w, "", status, code, msg)
			return
		}
		writeJSON(w, http.StatusOK, member)
	case http.MethodGet:
		members, err := h.store.ListStaff(r.Context())
		if err != nil {
			status, code, msg := mapError(err)
			writeError(w, "", status, code, msg)
			return
		}
		writeJSON(w, http.StatusOK, members)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handlePayments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req createPaymentRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	req.PatientID = strings.TrimSpace(req.PatientID)
	if req.PatientID == "" {
		writeError(w, "", http.StatusBadRequest, "invalid_request", "patient_id is required")
		return
	}
	if !isValidUUID(req.PatientID) {
		writeError(w, "", http.StatusBadRequest, "invalid_request", "patient_id must be a UUID")
		return
	}
	if req.AmountCents < 0 {
		writeError(w, "", http.StatusBadRequest, "invalid_request", "amount_cents must not be negative")
		return
	}
	payment, err := h.store.CreatePayment(r.Context(), store.CreatePaymentInput{
		PatientID:   req.PatientID,
		AmountCents: req.AmountCents,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, "", status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (h *Handler) handleQueue(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleCreateEntry(w, r)
	case http.MethodGet:
		h.handleListQueue(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	req.RequestID = strings.TrimSpace(req.RequestID)
	req.PatientID = strings.TrimSpace(req.PatientID)
	req.PaymentID = strings.TrimSpace(req.PaymentID)
	req.ProviderID = strings.TrimSpace(req.ProviderID)
	req.Department = strings.TrimSpace(req.Department)
	req.PriorityTier = strings.TrimSpace(req.PriorityTier)

	if req.RequestID == "" || req.PatientID == "" || req.PaymentID == "" {
		writeError(w, req.RequestID, http.StatusBadRequest, "invalid_request", "request_id, patient_id, and payment_id are required")
		return
	}
	if !isValidUUID(req.RequestID) || !isValidUUID(req.PatientID) || !isValidUUID(req.PaymentID) {
		writeError(w, req.RequestID, http.StatusBadRequest, "invalid_request", "request_id, patient_id, and payment_id must be UUIDs")
		return
	}
	if req.ProviderID != "" && !isValidUUID(req.ProviderID) {
		writeError(w, req.RequestID, http.StatusBadRequest, "invalid_request", "provider_id must be a UUID when provided")
		return
	}
	if req.PriorityTier == "" {
		req.PriorityTier = models.TierNormal
	}
	if !isValidTier(req.PriorityTier) {
		writeError(w, req.RequestID, http.StatusBadRequest, "invalid_request", "priority_tier must be normal, urgent, or emergency")
		return
	}

	entry, _, err := h.store.CreateQueueEntry(r.Context(), store.CreateEntryInput{
		RequestID:    req.RequestID,
		PatientID:    req.PatientID,
		PaymentID:    req.PaymentID,
		ProviderID:   req.ProviderID,
		Department:   req.Department,
		PriorityTier: req.PriorityTier,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, req.RequestID, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) handleListQueue(w http.ResponseWriter, r *http.Request) {
	var statuses []string
	if raw := strings.TrimSpace(r.URL.Query().Get("statuses")); raw != "" {
		for _, status := range strings.Split(raw, ",") {
			status = strings.TrimSpace(status)
			if status == "" {
				continue
			}
			if !isValidStatus(status) {
				writeError(w, "", http.StatusBadRequest, "invalid_request", "unknown status "+status)
				return
			}
			statuses = append(statuses, status)
		}
	}
	entries, err := h.store.ListQueue(r.Context(), store.ListQueueInput{
		Statuses:   statuses,
		Department: strings.TrimSpace(r.URL.Query().Get("department")),
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, "", status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleQueueNext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if status == "" {
		status = models.StatusAwaitingIntake
	}
	if !isValidStatus(status) {
		writeError(w, "", http.StatusBadRequest, "invalid_request", "unknown status "+status)
		return
	}

	entry, err := h.store.NextQueueEntry(r.Context(), store.NextEntryInput{
		Status:     status,
		Department: strings.TrimSpace(r.URL.Query().Get("department")),
		ProviderID: strings.TrimSpace(r.URL.Query().Get("provider_id")),
	})
	if err != nil {
		if errors.Is(err, store.ErrNoEntry) {
			writeError(w, "", http.StatusConflict, "queue_empty", "no entries waiting")
			return
		}
		status, code, msg := mapError(err)
		writeError(w, "", status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) handleEntrySubtree(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/queue/")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	switch {
	case len(parts) == 1:
		h.handleGetEntry(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "events":
		h.handleEntryEvents(w, r, parts[0])
	case len(parts) == 3 && parts[1] == "actions":
		h.handleEntryAction(w, r, parts[0], parts[2])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleGetEntry(w http.ResponseWriter, r *http.Request, entryID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !isValidUUID(entryID) {
		writeError(w, "", http.StatusBadRequest, "invalid_request", "entry_id must be a UUID")
		return
	}
	entry, err := h.store.GetQueueEntry(r.Context(), entryID)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, "", status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) handleEntryEvents(w http.ResponseWriter, r *http.Request, entryID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !isValidUUID(entryID) {
		writeError(w, "", http.StatusBadRequest, "invalid_request", "entry_id must be a UUID")
		return
	}
	events, err := h.store.ListEntryEvents(r.Context(), entryID)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, "", status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *Handler) handleEntryAction(w http.ResponseWriter, r *http.Request, entryID, action string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !isValidUUID(entryID) {
		writeError(w, "", http.StatusBadRequest, "invalid_request", "entry_id must be a UUID")
		return
	}

	switch action {
	case "intake-complete":
		h.handleCompleteIntake(w, r, entryID)
	case "assign":
		h.handleAssignProvider(w, r, entryID)
	case "cancel":
		h.handleCancelEntry(w, r, entryID)
	case "pause":
		h.handlePauseSession(w, r, entryID)
	case "resume":
		h.handleResumeSession(w, r, entryID)
	case "complete":
		// Completion goes through the session endpoint only.
		writeError(w, "", http.StatusConflict, "invalid_transition", "entries complete through their session")
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleCompleteIntake(w http.ResponseWriter, r *http.Request, entryID string) {
	var req entryActionRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if !validateActionRequest(w, &req) {
		return
	}
	if req.StaffID == "" {
		writeError(w, req.RequestID, http.StatusBadRequest, "invalid_request", "staff_id is required")
		return
	}

	entry, _, err := h.store.CompleteIntake(r.Context(), store.EntryActionInput{
		RequestID:  req.RequestID,
		EntryID:    entryID,
		StaffID:    req.StaffID,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, req.RequestID, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) handleAssignProvider(w http.ResponseWriter, r *http.Request, entryID string) {
	var req assignProviderRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	req.RequestID = strings.TrimSpace(req.RequestID)
	req.ProviderID = strings.TrimSpace(req.ProviderID)
	if req.ProviderID == "" {
		writeError(w, req.RequestID, http.StatusBadRequest, "invalid_request", "provider_id is required")
		return
	}
	if !isValidUUID(req.ProviderID) {
		writeError(w, req.RequestID, http.StatusBadRequest, "invalid_request", "provider_id must be a UUID")
		return
	}

	entry, err := h.store.AssignProvider(r.Context(), store.AssignProviderInput{
		EntryID:    entryID,
		ProviderID: req.ProviderID,
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, req.RequestID, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) handleCancelEntry(w http.ResponseWriter, r *http.Request, entryID string) {
	var req entryActionRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if !validateActionRequest(w, &req) {
		return
	}

	entry, _, err := h.store.CancelEntry(r.Context(), store.EntryActionInput{
		RequestID:  req.RequestID,
		EntryID:    entryID,
		StaffID:    req.StaffID,
		Reason:     req.Reason,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, req.RequestID, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) handlePauseSession(w http.ResponseWriter, r *http.Request, entryID string) {
	var req entryActionRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if !validateActionRequest(w, &req) {
		return
	}

	entry, _, err := h.store.PauseSession(r.Context(), store.EntryActionInput{
		RequestID:  req.RequestID,
		EntryID:    entryID,
		StaffID:    req.StaffID,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, req.RequestID, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) handleResumeSession(w http.ResponseWriter, r *http.Request, entryID string) {
	var req entryActionRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if !validateActionRequest(w, &req) {
		return
	}

	entry, _, err := h.store.ResumeSession(r.Context(), store.EntryActionInput{
		RequestID:  req.RequestID,
		EntryID:    entryID,
		StaffID:    req.StaffID,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, req.RequestID, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req startSessionRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	req.RequestID = strings.TrimSpace(req.RequestID)
	req.EntryID = strings.TrimSpace(req.EntryID)
	req.ProviderID = strings.TrimSpace(req.ProviderID)
	if req.RequestID == "" || req.EntryID == "" {
		writeError(w, req.RequestID, http.StatusBadRequest, "invalid_request", "request_id and entry_id are required")
		return
	}
	if !isValidUUID(req.RequestID) || !isValidUUID(req.EntryID) {
		writeError(w, req.RequestID, http.StatusBadRequest, "invalid_request", "request_id and entry_id must be UUIDs")
		return
	}
	if req.ProviderID != "" && !isValidUUID(req.ProviderID) {
		writeError(w, req.RequestID, http.StatusBadRequest, "invalid_request", "provider_id must be a UUID when provided")
		return
	}

	session, entry, err := h.store.StartSession(r.Context(), store.StartSessionInput{
		RequestID:  req.RequestID,
		EntryID:    req.EntryID,
		ProviderID: req.ProviderID,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, req.RequestID, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: session, Entry: entry})
}

func (h *Handler) handleSessionSubtree(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	switch {
	case len(parts) == 1:
		h.handleGetSession(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "complete":
		h.handleCompleteSession(w, r, parts[0])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !isValidUUID(sessionID) {
		writeError(w, "", http.StatusBadRequest, "invalid_request", "session_id must be a UUID")
		return
	}
	session, err := h.store.GetSession(r.Context(), sessionID)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, "", status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) handleCompleteSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !isValidUUID(sessionID) {
		writeError(w, "", http.StatusBadRequest, "invalid_request", "session_id must be a UUID")
		return
	}

	var req completeSessionRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	req.RequestID = strings.TrimSpace(req.RequestID)
	if req.RequestID == "" {
		writeError(w, req.RequestID, http.StatusBadRequest, "invalid_request", "request_id is required")
		return
	}
	if !isValidUUID(req.RequestID) {
		writeError(w, req.RequestID, http.StatusBadRequest, "invalid_request", "request_id must be a UUID")
		return
	}

	session, entry, err := h.store.CompleteSession(r.Context(), store.CompleteSessionInput{
		RequestID:  req.RequestID,
		SessionID:  sessionID,
		Complaint:  strings.TrimSpace(req.Complaint),
		Diagnosis:  strings.TrimSpace(req.Diagnosis),
		Notes:      strings.TrimSpace(req.Notes),
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, req.RequestID, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: session, Entry: entry})
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	afterRaw := strings.TrimSpace(r.URL.Query().Get("after"))
	var after time.Time
	if afterRaw != "" {
		parsed, err := time.Parse(time.RFC3339, afterRaw)
		if err != nil {
			writeError(w, "", http.StatusBadRequest, "invalid_request", "after must be RFC3339 timestamp")
			return
		}
		after = parsed
	}

	limit := 100
	if limitRaw := strings.TrimSpace(r.URL.Query().Get("limit")); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil || parsed <= 0 {
			writeError(w, "", http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	events, err := h.store.ListOutboxEvents(r.Context(), after, limit)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, "", status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func validateActionRequest(w http.ResponseWriter, req *entryActionRequest) bool {
	req.RequestID = strings.TrimSpace(req.RequestID)
	req.StaffID = strings.TrimSpace(req.StaffID)
	req.Reason = strings.TrimSpace(req.Reason)
	if req.RequestID == "" {
		writeError(w, req.RequestID, http.StatusBadRequest, "invalid_request", "request_id is required")
		return false
	}
	if !isValidUUID(req.RequestID) {
		writeError(w, req.RequestID, http.StatusBadRequest, "invalid_request", "request_id must be a UUID")
		return false
	}
	if req.StaffID != "" && !isValidUUID(req.StaffID) {
		writeError(w, req.RequestID, http.StatusBadRequest, "invalid_request", "staff_id must be a UUID when provided")
		return false
	}
	return true
}

func isValidUUID(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
}

func isValidTier(tier string) bool {
	switch tier {
	case models.TierNormal, models.TierUrgent, models.TierEmergency:
		return true
	}
	return false
}

func isValidStatus(status string) bool {
	switch status {
	case models.StatusAwaitingIntake, models.StatusIntakeComplete, models.StatusInSession,
		models.StatusSessionPaused, models.StatusCompleted, models.StatusCancelled:
		return true
	}
	return false
}

func decodeRequest(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		writeError(w, "", http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return false
	}
	return true
}

func mapError(err error) (int, string, string) {
	switch {
	case errors.Is(err, store.ErrPatientNotFound):
		return http.StatusNotFound, "patient_not_found", "patient not found"
	case errors.Is(err, store.ErrStaffNotFound):
		return http.StatusNotFound, "staff_not_found", "staff member not found"
	case errors.Is(err, store.ErrPaymentNotFound):
		return http.StatusNotFound, "payment_not_found", "payment not found"
	case errors.Is(err, store.ErrEntryNotFound):
		return http.StatusNotFound, "entry_not_found", "queue entry not found"
	case errors.Is(err, store.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found", "visit session not found"
	case errors.Is(err, store.ErrNoEntry):
		return http.StatusConflict, "queue_empty", "no entries waiting"
	case errors.Is(err, store.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition", "entry state does not allow this action"
	case errors.Is(err, store.ErrDuplicateActiveEntry):
		return http.StatusConflict, "duplicate_active_entry", "payment already has an active queue entry"
	case errors.Is(err, store.ErrProviderRequired):
		return http.StatusBadRequest, "provider_required", "a provider must be assigned before starting a session"
	case errors.Is(err, sequence.ErrIdentifierSpaceExhausted):
		return http.StatusServiceUnavailable, "identifier_space_exhausted", "identifier space exhausted"
	case errors.Is(err, sequence.ErrCounterUnavailable):
		return http.StatusServiceUnavailable, "counter_unavailable", "sequence counter unavailable"
	default:
		return http.StatusInternalServerError, "internal_error", "internal server error"
	}
}

func writeError(w http.ResponseWriter, requestID string, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		RequestID: requestID,
		Error: responseError{
			Code:    code,
			Message: message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
