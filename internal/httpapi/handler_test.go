package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hms/backoffice/internal/models"
	"hms/backoffice/internal/store"
)

type fakeStore struct {
	createPatientFn   func(ctx context.Context, input store.CreatePatientInput) (models.Patient, error)
	getPatientFn      func(ctx context.Context, patientID string) (models.Patient, error)
	listPatientsFn    func(ctx context.Context, limit int) ([]models.Patient, error)
	createStaffFn     func(ctx context.Context, input store.CreateStaffInput) (models.Staff, error)
	listStaffFn       func(ctx context.Context) ([]models.Staff, error)
	createPaymentFn   func(ctx context.Context, input store.CreatePaymentInput) (models.Payment, error)
	createEntryFn     func(ctx context.Context, input store.CreateEntryInput) (models.QueueEntry, bool, error)
	getEntryFn        func(ctx context.Context, entryID string) (models.QueueEntry, error)
	listQueueFn       func(ctx context.Context, input store.ListQueueInput) ([]models.QueueEntry, error)
	nextEntryFn       func(ctx context.Context, input store.NextEntryInput) (models.QueueEntry, error)
	completeIntakeFn  func(ctx context.Context, input store.EntryActionInput) (models.QueueEntry, bool, error)
	assignProviderFn  func(ctx context.Context, input store.AssignProviderInput) (models.QueueEntry, error)
	cancelEntryFn     func(ctx context.Context, input store.EntryActionInput) (models.QueueEntry, bool, error)
	startSessionFn    func(ctx context.Context, input store.StartSessionInput) (models.VisitSession, models.QueueEntry, error)
	getSessionFn      func(ctx context.Context, sessionID string) (models.VisitSession, error)
	pauseSessionFn    func(ctx context.Context, input store.EntryActionInput) (models.QueueEntry, bool, error)
	resumeSessionFn   func(ctx context.Context, input store.EntryActionInput) (models.QueueEntry, bool, error)
	completeSessionFn func(ctx context.Context, input store.CompleteSessionInput) (models.VisitSession, models.QueueEntry, error)
	outboxFn          func(ctx context.Context, after time.Time, limit int) ([]store.OutboxEvent, error)
	entryEventsFn     func(ctx context.Context, entryID string) ([]store.EntryEvent, error)
}

func (f fakeStore) CreatePatient(ctx context.Context, input store.CreatePatientInput) (models.Patient, error) {
	if f.createPatientFn == nil {
		return models.Patient{}, nil
	}
	return f.createPatientFn(ctx, input)
}

func (f fakeStore) GetPatient(ctx context.Context, patientID string) (models.Patient, error) {
	if f.getPatientFn == nil {
		return models.Patient{}, nil
	}
	return f.getPatientFn(ctx, patientID)
}

func (f fakeStore) ListPatients(ctx context.Context, limit int) ([]models.Patient, error) {
	if f.listPatientsFn == nil {
		return nil, nil
	}
	return f.listPatientsFn(ctx, limit)
}

func (f fakeStore) CreateStaff(ctx context.Context, input store.CreateStaffInput) (models.Staff, error) {
	if f.createStaffFn == nil {
		return models.Staff{}, nil
	}
	return f.createStaffFn(ctx, input)
}

func (f fakeStore) ListStaff(ctx context.Context) ([]models.Staff, error) {
	if f.listStaffFn == nil {
		return nil, nil
	}
	return f.listStaffFn(ctx)
}

func (f fakeStore) CreatePayment(ctx context.Context, input store.CreatePaymentInput) (models.Payment, error) {
	if f.createPaymentFn == nil {
		return models.Payment{}, nil
	}
	return f.createPaymentFn(ctx, input)
}

func (f fakeStore) CreateQueueEntry(ctx context.Context, input store.CreateEntryInput) (models.QueueEntry, bool, error) {
	if f.createEntryFn == nil {
		return models.QueueEntry{}, false, nil
	}
	return f.createEntryFn(ctx, input)
}

func (f fakeStore) GetQueueEntry(ctx context.Context, entryID string) (models.QueueEntry, error) {
	if f.getEntryFn == nil {
		return models.QueueEntry{}, nil
	}
	return f.getEntryFn(ctx, entryID)
}

func (f fakeStore) ListQueue(ctx context.Context, input store.ListQueueInput) ([]models.QueueEntry, error) {
	if f.listQueueFn == nil {
		return nil, nil
	}
	return f.listQueueFn(ctx, input)
}

func (f fakeStore) NextQueueEntry(ctx context.Context, input store.NextEntryInput) (models.QueueEntry, error) {
	if f.nextEntryFn == nil {
		return models.QueueEntry{}, nil
	}
	return f.nextEntryFn(ctx, input)
}

func (f fakeStore) CompleteIntake(ctx context.Context, input store.EntryActionInput) (models.QueueEntry, bool, error) {
	if f.completeIntakeFn == nil {
		return models.QueueEntry{}, false, nil
	}
	return f.completeIntakeFn(ctx, input)
}

func (f fakeStore) AssignProvider(ctx context.Context, input store.AssignProviderInput) (models.QueueEntry, error) {
	if f.assignProviderFn == nil {
		return models.QueueEntry{}, nil
	}
	return f.assignProviderFn(ctx, input)
}

func (f fakeStore) CancelEntry(ctx context.Context, input store.EntryActionInput) (models.QueueEntry, bool, error) {
	if f.cancelEntryFn == nil {
		return models.QueueEntry{}, false, nil
	}
	return f.cancelEntryFn(ctx, input)
}

func (f fakeStore) StartSession(ctx context.Context, input store.StartSessionInput) (models.VisitSession, models.QueueEntry, error) {
	if f.startSessionFn == nil {
		return models.VisitSession{}, models.QueueEntry{}, nil
	}
	return f.startSessionFn(ctx, input)
}

func (f fakeStore) GetSession(ctx context.Context, sessionID string) (models.VisitSession, error) {
	if f.getSessionFn == nil {
		return models.VisitSession{}, nil
	}
	return f.getSessionFn(ctx, sessionID)
}

func (f fakeStore) PauseSession(ctx context.Context, input store.EntryActionInput) (models.QueueEntry, bool, error) {
	if f.pauseSessionFn == nil {
		return models.QueueEntry{}, false, nil
	}
	return f.pauseSessionFn(ctx, input)
}

func (f fakeStore) ResumeSession(ctx context.Context, input store.EntryActionInput) (models.QueueEntry, bool, error) {
	if f.resumeSessionFn == nil {
		return models.QueueEntry{}, false, nil
	}
	return f.resumeSessionFn(ctx, input)
}

func (f fakeStore) CompleteSession(ctx context.Context, input store.CompleteSessionInput) (models.VisitSession, models.QueueEntry, error) {
	if f.completeSessionFn == nil {
		return models.VisitSession{}, models.QueueEntry{}, nil
	}
	return f.completeSessionFn(ctx, input)
}

func (f fakeStore) ListOutboxEvents(ctx context.Context, after time.Time, limit int) ([]store.OutboxEvent, error) {
	if f.outboxFn == nil {
		return nil, nil
	}
	return f.outboxFn(ctx, after, limit)
}

func (f fakeStore) ListEntryEvents(ctx context.Context, entryID string) ([]store.EntryEvent, error) {
	if f.entryEventsFn == nil {
		return nil, nil
	}
	return f.entryEventsFn(ctx, entryID)
}

const (
	testRequestID = "11111111-1111-1111-1111-111111111111"
	testPatientID = "22222222-2222-2222-2222-222222222222"
	testPaymentID = "33333333-3333-3333-3333-333333333333"
	testEntryID   = "44444444-4444-4444-4444-444444444444"
	testStaffID   = "55555555-5555-5555-5555-555555555555"
	testSessionID = "66666666-6666-6666-6666-666666666666"
)

func postJSON(t *testing.T, h *Handler, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	resp := httptest.NewRecorder()
	h.Routes().ServeHTTP(resp, req)
	return resp
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error.Code
}

func TestCreateEntrySuccess(t *testing.T) {
	st := fakeStore{
		createEntryFn: func(ctx context.Context, input store.CreateEntryInput) (models.QueueEntry, bool, error) {
			if input.PriorityTier != models.TierNormal {
				t.Fatalf("expected default tier, got %q", input.PriorityTier)
			}
			return models.QueueEntry{
				EntryID:      testEntryID,
				TicketNumber: "Q0001",
				Status:       models.StatusAwaitingIntake,
				RequestID:    input.RequestID,
			}, true, nil
		},
	}
	h := NewHandler(st)

	resp := postJSON(t, h, "/api/queue", map[string]string{
		"request_id": testRequestID,
		"patient_id": testPatientID,
		"payment_id": testPaymentID,
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var entry models.QueueEntry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if entry.TicketNumber != "Q0001" || entry.Status != models.StatusAwaitingIntake {
		t.Fatalf("unexpected entry response: %+v", entry)
	}
}

func TestCreateEntryMissingFields(t *testing.T) {
	h := NewHandler(fakeStore{})

	resp := postJSON(t, h, "/api/queue", map[string]string{
		"request_id": testRequestID,
		"patient_id": testPatientID,
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestCreateEntryBadTier(t *testing.T) {
	h := NewHandler(fakeStore{})

	resp := postJSON(t, h, "/api/queue", map[string]string{
		"request_id":    testRequestID,
		"patient_id":    testPatientID,
		"payment_id":    testPaymentID,
		"priority_tier": "vip",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestCreateEntryDuplicateActivePayment(t *testing.T) {
	st := fakeStore{
		createEntryFn: func(ctx context.Context, input store.CreateEntryInput) (models.QueueEntry, bool, error) {
			return models.QueueEntry{}, false, store.ErrDuplicateActiveEntry
		},
	}
	h := NewHandler(st)

	resp := postJSON(t, h, "/api/queue", map[string]string{
		"request_id": testRequestID,
		"patient_id": testPatientID,
		"payment_id": testPaymentID,
	})
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
	if code := errorCode(t, resp); code != "duplicate_active_entry" {
		t.Fatalf("expected duplicate_active_entry, got %q", code)
	}
}

func TestQueueNextEmpty(t *testing.T) {
	st := fakeStore{
		nextEntryFn: func(ctx context.Context, input store.NextEntryInput) (models.QueueEntry, error) {
			return models.QueueEntry{}, store.ErrNoEntry
		},
	}
	h := NewHandler(st)

	req := httptest.NewRequest(http.MethodGet, "/api/queue/next", nil)
	resp := httptest.NewRecorder()
	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
	if code := errorCode(t, resp); code != "queue_empty" {
		t.Fatalf("expected queue_empty, got %q", code)
	}
}

func TestQueueNextOrdersByInput(t *testing.T) {
	st := fakeStore{
		nextEntryFn: func(ctx context.Context, input store.NextEntryInput) (models.QueueEntry, error) {
			if input.Status != models.StatusIntakeComplete {
				t.Fatalf("status=%q, want intake_complete", input.Status)
			}
			if input.Department != "cardiology" {
				t.Fatalf("department=%q", input.Department)
			}
			return models.QueueEntry{EntryID: testEntryID, Status: input.Status}, nil
		},
	}
	h := NewHandler(st)

	req := httptest.NewRequest(http.MethodGet, "/api/queue/next?status=intake_complete&department=cardiology", nil)
	resp := httptest.NewRecorder()
	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
}

func TestIntakeOnCancelledEntry(t *testing.T) {
	st := fakeStore{
		completeIntakeFn: func(ctx context.Context, input store.EntryActionInput) (models.QueueEntry, bool, error) {
			return models.QueueEntry{}, false, store.ErrInvalidTransition
		},
	}
	h := NewHandler(st)

	resp := postJSON(t, h, "/api/queue/"+testEntryID+"/actions/intake-complete", map[string]string{
		"request_id": testRequestID,
		"staff_id":   testStaffID,
	})
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
	if code := errorCode(t, resp); code != "invalid_transition" {
		t.Fatalf("expected invalid_transition, got %q", code)
	}
}

func TestQueueCompleteActionRejected(t *testing.T) {
	st := fakeStore{
		completeSessionFn: func(ctx context.Context, input store.CompleteSessionInput) (models.VisitSession, models.QueueEntry, error) {
			t.Fatalf("queue action must not reach CompleteSession")
			return models.VisitSession{}, models.QueueEntry{}, nil
		},
	}
	h := NewHandler(st)

	resp := postJSON(t, h, "/api/queue/"+testEntryID+"/actions/complete", map[string]string{
		"request_id": testRequestID,
	})
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
	if code := errorCode(t, resp); code != "invalid_transition" {
		t.Fatalf("expected invalid_transition, got %q", code)
	}
}

func TestStartSessionSuccess(t *testing.T) {
	st := fakeStore{
		startSessionFn: func(ctx context.Context, input store.StartSessionInput) (models.VisitSession, models.QueueEntry, error) {
			return models.VisitSession{
					SessionID: testSessionID,
					EntryID:   input.EntryID,
					Status:    models.SessionInProgress,
				}, models.QueueEntry{
					EntryID: input.EntryID,
					Status:  models.StatusInSession,
				}, nil
		},
	}
	h := NewHandler(st)

	resp := postJSON(t, h, "/api/sessions", map[string]string{
		"request_id":  testRequestID,
		"entry_id":    testEntryID,
		"provider_id": testStaffID,
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var body sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Session.Status != models.SessionInProgress || body.Entry.Status != models.StatusInSession {
		t.Fatalf("unexpected session response: %+v", body)
	}
}

func TestStartSessionTwice(t *testing.T) {
	st := fakeStore{
		startSessionFn: func(ctx context.Context, input store.StartSessionInput) (models.VisitSession, models.QueueEntry, error) {
			return models.VisitSession{}, models.QueueEntry{}, store.ErrInvalidTransition
		},
	}
	h := NewHandler(st)

	resp := postJSON(t, h, "/api/sessions", map[string]string{
		"request_id": testRequestID,
		"entry_id":   testEntryID,
	})
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
	if code := errorCode(t, resp); code != "invalid_transition" {
		t.Fatalf("expected invalid_transition, got %q", code)
	}
}

func TestStartSessionProviderRequired(t *testing.T) {
	st := fakeStore{
		startSessionFn: func(ctx context.Context, input store.StartSessionInput) (models.VisitSession, models.QueueEntry, error) {
			return models.VisitSession{}, models.QueueEntry{}, store.ErrProviderRequired
		},
	}
	h := NewHandler(st)

	resp := postJSON(t, h, "/api/sessions", map[string]string{
		"request_id": testRequestID,
		"entry_id":   testEntryID,
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if code := errorCode(t, resp); code != "provider_required" {
		t.Fatalf("expected provider_required, got %q", code)
	}
}

func TestCompleteSessionSuccess(t *testing.T) {
	st := fakeStore{
		completeSessionFn: func(ctx context.Context, input store.CompleteSessionInput) (models.VisitSession, models.QueueEntry, error) {
			if input.Diagnosis != "seasonal flu" {
				t.Fatalf("diagnosis=%q", input.Diagnosis)
			}
			return models.VisitSession{
					SessionID: input.SessionID,
					Status:    models.SessionCompleted,
				}, models.QueueEntry{
					EntryID: testEntryID,
					Status:  models.StatusCompleted,
				}, nil
		},
	}
	h := NewHandler(st)

	resp := postJSON(t, h, "/api/sessions/"+testSessionID+"/complete", map[string]string{
		"request_id": testRequestID,
		"diagnosis":  "seasonal flu",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var body sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Entry.Status != models.StatusCompleted {
		t.Fatalf("entry not completed: %+v", body)
	}
}

func TestAssignProviderRequiresProvider(t *testing.T) {
	h := NewHandler(fakeStore{})

	resp := postJSON(t, h, "/api/queue/"+testEntryID+"/actions/assign", map[string]string{
		"request_id": testRequestID,
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestEntryEvents(t *testing.T) {
	st := fakeStore{
		entryEventsFn: func(ctx context.Context, entryID string) ([]store.EntryEvent, error) {
			return []store.EntryEvent{{EntryID: entryID, EntrySeq: 1, Type: "visit.created"}}, nil
		},
	}
	h := NewHandler(st)

	req := httptest.NewRequest(http.MethodGet, "/api/queue/"+testEntryID+"/events", nil)
	resp := httptest.NewRecorder()
	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var events []store.EntryEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(events) != 1 || events[0].Type != "visit.created" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestEntryActionUnknown(t *testing.T) {
	h := NewHandler(fakeStore{})

	resp := postJSON(t, h, "/api/queue/"+testEntryID+"/actions/escalate", map[string]string{
		"request_id": testRequestID,
	})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}
