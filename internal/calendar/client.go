package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/reboucasericka/sistema-api/internal/model"
)

// Client mirrors appointment state into an external calendar system. Both
// calls are fallible and best-effort; the lifecycle manager absorbs their
// failures and reports them through a sync outcome, never as the primary
// operation result.
type Client interface {
	// CreateOrUpdateEvent creates the external event, or updates it in place
	// when the appointment already carries a reference. Returns the external
	// event reference.
	CreateOrUpdateEvent(ctx context.Context, appt model.Appointment) (string, error)
	DeleteEvent(ctx context.Context, ref string) error
}

// WebhookClient talks JSON-over-HTTP to a calendar bridge.
type WebhookClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewWebhookClient(baseURL, token string) *WebhookClient {
	return &WebhookClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		http: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type eventPayload struct {
	EventID        string `json:"event_id,omitempty"`
	AppointmentID  string `json:"appointment_id"`
	ProfessionalID string `json:"professional_id"`
	CustomerID     string `json:"customer_id"`
	ServiceID      string `json:"service_id"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	Notes          string `json:"notes,omitempty"`
}

type eventResponse struct {
	EventID string `json:"event_id"`
}

func (c *WebhookClient) CreateOrUpdateEvent(ctx context.Context, appt model.Appointment) (string, error) {
	if c.baseURL == "" {
		return "", errors.New("calendar webhook url not configured")
	}
	payload := eventPayload{
		EventID:        appt.ExternalEventRef,
		AppointmentID:  appt.ID,
		ProfessionalID: appt.ProfessionalID,
		CustomerID:     appt.CustomerID,
		ServiceID:      appt.ServiceID,
		StartTime:      appt.StartTime.UTC().Format(time.RFC3339),
		EndTime:        appt.EndTime.UTC().Format(time.RFC3339),
		Notes:          appt.Notes,
	}
	var resp eventResponse
	if err := c.post(ctx, "/events", payload, &resp); err != nil {
		return "", err
	}
	if resp.EventID == "" {
		return "", errors.New("calendar bridge returned empty event_id")
	}
	return resp.EventID, nil
}

func (c *WebhookClient) DeleteEvent(ctx context.Context, ref string) error {
	if c.baseURL == "" {
		return errors.New("calendar webhook url not configured")
	}
	if strings.TrimSpace(ref) == "" {
		return errors.New("empty event reference")
	}
	return c.post(ctx, "/events/delete", map[string]string{"event_id": ref}, nil)
}

func (c *WebhookClient) post(ctx context.Context, path string, body any, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("calendar bridge returned status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
