package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/reboucasericka/sistema-api/internal/model"
)

func testAppointment() model.Appointment {
	start := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	return model.Appointment{
		ID:             "appt-1",
		CustomerID:     "cust-1",
		ProfessionalID: "prof-1",
		ServiceID:      "svc-1",
		StartTime:      start,
		EndTime:        start.Add(30 * time.Minute),
		Status:         model.StatusPending,
	}
}

func TestWebhookClient_CreateOrUpdateEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected auth header %q", got)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if payload["appointment_id"] != "appt-1" {
			t.Errorf("unexpected appointment_id %v", payload["appointment_id"])
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"event_id": "evt-42"})
	}))
	defer srv.Close()

	c := NewWebhookClient(srv.URL, "tok")
	ref, err := c.CreateOrUpdateEvent(context.Background(), testAppointment())
	if err != nil {
		t.Fatalf("CreateOrUpdateEvent failed: %v", err)
	}
	if ref != "evt-42" {
		t.Fatalf("expected evt-42, got %s", ref)
	}
}

func TestWebhookClient_CreateOrUpdateEvent_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewWebhookClient(srv.URL, "")
	if _, err := c.CreateOrUpdateEvent(context.Background(), testAppointment()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestWebhookClient_DeleteEvent(t *testing.T) {
	var gotRef string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events/delete" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		gotRef = payload["event_id"]
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewWebhookClient(srv.URL, "")
	if err := c.DeleteEvent(context.Background(), "evt-42"); err != nil {
		t.Fatalf("DeleteEvent failed: %v", err)
	}
	if gotRef != "evt-42" {
		t.Fatalf("expected evt-42, got %s", gotRef)
	}

	if err := c.DeleteEvent(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty ref")
	}
}
