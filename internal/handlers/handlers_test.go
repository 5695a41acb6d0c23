package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reboucasericka/sistema-api/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Request validation happens before any storage access, so these handlers can
// be constructed without backing repositories.

func TestAppointmentHandlerRejectsWrongMethod(t *testing.T) {
	h := NewAppointmentHandler(nil, nil, nil, nil, nil, discardLogger(), time.UTC)

	cases := []struct {
		name    string
		method  string
		handler http.HandlerFunc
	}{
		{"book", http.MethodGet, h.Book},
		{"update", http.MethodGet, h.Update},
		{"cancel", http.MethodGet, h.Cancel},
		{"get", http.MethodPost, h.Get},
		{"list", http.MethodPost, h.List},
		{"availability", http.MethodPost, h.Availability},
		{"slots", http.MethodPost, h.Slots},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tc.handler(rec, httptest.NewRequest(tc.method, "/", nil))
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		})
	}
}

func TestAppointmentBookRejectsBadBody(t *testing.T) {
	h := NewAppointmentHandler(nil, nil, nil, nil, nil, discardLogger(), time.UTC)

	rec := httptest.NewRecorder()
	h.Book(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json")))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid json body")
}

func TestAppointmentBookRejectsBadTimes(t *testing.T) {
	h := NewAppointmentHandler(nil, nil, nil, nil, nil, discardLogger(), time.UTC)

	body := `{"customer_id":"c","professional_id":"p","service_id":"s","start_time":"tomorrow","end_time":"2026-09-07T11:00:00Z"}`
	rec := httptest.NewRecorder()
	h.Book(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid start_time")
}

func TestAppointmentCancelRequiresID(t *testing.T) {
	h := NewAppointmentHandler(nil, nil, nil, nil, nil, discardLogger(), time.UTC)

	rec := httptest.NewRecorder()
	h.Cancel(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"appointment_id":"  "}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "appointment_id required")
}

func TestAppointmentAvailabilityValidatesParams(t *testing.T) {
	h := NewAppointmentHandler(nil, nil, nil, nil, nil, discardLogger(), time.UTC)

	rec := httptest.NewRecorder()
	h.Availability(rec, httptest.NewRequest(http.MethodGet, "/?start_time=2026-09-07T10:00:00Z", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "professional_id required")

	rec = httptest.NewRecorder()
	h.Availability(rec, httptest.NewRequest(http.MethodGet, "/?professional_id=p&start_time=bogus", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAppointmentSlotsValidatesParams(t *testing.T) {
	h := NewAppointmentHandler(nil, nil, nil, nil, nil, discardLogger(), time.UTC)

	rec := httptest.NewRecorder()
	h.Slots(rec, httptest.NewRequest(http.MethodGet, "/?professional_id=p", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Slots(rec, httptest.NewRequest(http.MethodGet, "/?professional_id=p&service_id=s&date=07-09-2026", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid date")
}

func TestCustomerCreateValidation(t *testing.T) {
	h := NewCustomerHandler(nil, discardLogger())

	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"   "}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "name is required")

	rec = httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Ana","birth_date":"31/12/1990"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid birth_date")
}

func TestProfessionalCreateValidation(t *testing.T) {
	h := NewProfessionalHandler(nil, nil, discardLogger())

	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Bia","commission_percent":150}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "commission_percent")
}

func TestPutScheduleValidatesWindows(t *testing.T) {
	h := NewProfessionalHandler(nil, nil, discardLogger())

	body := `{"professional_id":"p","windows":[{"weekday":9,"is_working":true,"start_minute":540,"end_minute":1080}]}`
	rec := httptest.NewRecorder()
	h.PutSchedule(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "weekday must be 0-6")

	body = `{"professional_id":"p","windows":[{"weekday":1,"is_working":true,"start_minute":600,"end_minute":600}]}`
	rec = httptest.NewRecorder()
	h.PutSchedule(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid schedule window")
}

func TestServiceCreateValidation(t *testing.T) {
	h := NewServiceHandler(nil, discardLogger())

	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Massage","price_cents":5000,"duration_minutes":0}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "duration_minutes")
}

func TestProductStockValidation(t *testing.T) {
	h := NewProductHandler(nil, discardLogger())

	rec := httptest.NewRecorder()
	h.Stock(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":"p","type":"donate","quantity":1}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid movement type")

	rec = httptest.NewRecorder()
	h.Stock(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":"p","type":"out","quantity":0}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "quantity must not be zero")
}

func TestFinancePayableValidation(t *testing.T) {
	h := NewFinanceHandler(nil, discardLogger())

	rec := httptest.NewRecorder()
	h.CreatePayable(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"description":"rent","amount_cents":0,"due_date":"2026-10-01"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "amount_cents must be positive")

	rec = httptest.NewRecorder()
	h.CreatePayable(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"description":"rent","amount_cents":100,"due_date":"01/10/2026"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid due_date")
}

func TestCashRegisterValidation(t *testing.T) {
	h := NewCashRegisterHandler(nil, discardLogger())

	rec := httptest.NewRecorder()
	h.Open(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"opening_cents":-5}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "opening_cents")

	rec = httptest.NewRecorder()
	h.AddEntry(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"type":"refund","amount_cents":100}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "type must be income or expense")
}

func TestBusyIntervalsSkipCanceled(t *testing.T) {
	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	appts := []model.Appointment{
		{StartTime: start, EndTime: start.Add(time.Hour), Status: model.StatusConfirmed},
		{StartTime: start.Add(time.Hour), EndTime: start.Add(2 * time.Hour), Status: model.StatusCanceled},
		{StartTime: start.Add(2 * time.Hour), EndTime: start.Add(3 * time.Hour), Status: model.StatusPending},
	}

	busy := busyIntervals(appts)
	require.Len(t, busy, 2)
	assert.Equal(t, start, busy[0].Start)
	assert.Equal(t, start.Add(2*time.Hour), busy[1].Start)
}

func TestParseRangeDefaultsAndErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	from, to, ok := parseRange(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, ok)
	assert.True(t, to.After(from))

	rec = httptest.NewRecorder()
	_, _, ok = parseRange(rec, httptest.NewRequest(http.MethodGet, "/?from=2026-09-07T10:00:00Z&to=2026-09-07T09:00:00Z", nil))
	require.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
