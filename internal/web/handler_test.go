package web

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fna/tracker/internal/config"
	"github.com/fna/tracker/internal/models"
	"github.com/fna/tracker/internal/stats"
)

type fakeEvents struct{}

func (fakeEvents) EventsBetween(context.Context, time.Time, time.Time, []string) ([]models.Metric, error) {
	return nil, nil
}

func (fakeEvents) LastReaderEventBefore(context.Context, time.Time) (*models.Metric, error) {
	return nil, nil
}

type fakeHistory struct{}

func (fakeHistory) DailyRange(context.Context, string, string) ([]models.DailySummary, error) {
	return nil, nil
}

func (fakeHistory) WeeklyRange(context.Context, string, string) ([]models.WeeklySummary, error) {
	return nil, nil
}

type fakeStore struct {
	inserted  []*models.Metric
	insertErr error
	latest    *models.Metric
}

func (f *fakeStore) Insert(_ context.Context, event *models.Metric) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, event)
	return nil
}

func (f *fakeStore) Latest(context.Context) (*models.Metric, error) {
	return f.latest, nil
}

type fakeJob struct {
	err  error
	runs int
}

func (f *fakeJob) Run(context.Context) error {
	f.runs++
	return f.err
}

func newTestHandler(t *testing.T, cfg *config.Config, store *fakeStore, job *fakeJob) *Handler {
	t.Helper()
	loc, err := cfg.TimeLocation()
	require.NoError(t, err)
	builder := stats.NewBuilder(cfg, loc, fakeEvents{}, nil, zerolog.Nop())
	return NewHandler(cfg, builder, fakeHistory{}, store, job, zerolog.Nop())
}

func TestHandleDailyStats(t *testing.T) {
	h := newTestHandler(t, config.Default(), &fakeStore{}, &fakeJob{})

	rec := httptest.NewRecorder()
	h.handleDailyStats(rec, httptest.NewRequest(http.MethodGet, "/api/stats/daily", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var snap models.DailyStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.NotEmpty(t, snap.Date)
	assert.Zero(t, snap.ScreenTimeMinutes)
}

func TestHandleDailyStats_BadDate(t *testing.T) {
	h := newTestHandler(t, config.Default(), &fakeStore{}, &fakeJob{})

	rec := httptest.NewRecorder()
	h.handleDailyStats(rec, httptest.NewRequest(http.MethodGet, "/api/stats/daily?date=nope", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleWeeklyStats(t *testing.T) {
	h := newTestHandler(t, config.Default(), &fakeStore{}, &fakeJob{})

	rec := httptest.NewRecorder()
	h.handleWeeklyStats(rec, httptest.NewRequest(http.MethodGet, "/api/stats/weekly", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var days []models.WeekDay
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &days))
	assert.Len(t, days, 7)
}

func TestHandleHistory_DefaultsToWeekly(t *testing.T) {
	h := newTestHandler(t, config.Default(), &fakeStore{}, &fakeJob{})

	rec := httptest.NewRecorder()
	h.handleHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var payload models.HistoryPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, stats.PeriodWeekly, payload.Period)
}

func TestHandleHistory_InvalidPeriod(t *testing.T) {
	h := newTestHandler(t, config.Default(), &fakeStore{}, &fakeJob{})

	rec := httptest.NewRecorder()
	h.handleHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history?period=decade", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleStatus(t *testing.T) {
	store := &fakeStore{latest: &models.Metric{
		DeviceID: "oppo-5-lite", MetricType: "mobile_usage",
	}}
	h := newTestHandler(t, config.Default(), store, &fakeJob{})

	rec := httptest.NewRecorder()
	h.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, true, status["running"])
	assert.Contains(t, status, "latest_event")
}

func ingestRequest(t *testing.T, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	return httptest.NewRequest(http.MethodPost, "/api/track/wearable", bytes.NewReader(data))
}

func TestHandleWearableIngest(t *testing.T) {
	cfg := config.Default()
	cfg.Summarizer.IngestSecret = "shh"
	store := &fakeStore{}
	h := newTestHandler(t, cfg, store, &fakeJob{})

	value := 72.0
	rec := httptest.NewRecorder()
	h.handleWearableIngest(rec, ingestRequest(t, wearableUpload{
		Type:   "heart_rate",
		Value:  &value,
		Secret: "shh",
		Data:   models.JSONMap{"source": "band"},
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, store.inserted, 1)
	inserted := store.inserted[0]
	assert.Equal(t, cfg.Devices.WearableID, inserted.DeviceID)
	assert.Equal(t, "heart_rate", inserted.MetricType)
	assert.Equal(t, 72.0, inserted.Value)
}

func TestHandleWearableIngest_Rejections(t *testing.T) {
	cfg := config.Default()
	cfg.Summarizer.IngestSecret = "shh"
	value := 1.0

	tests := []struct {
		name   string
		upload wearableUpload
		code   int
	}{
		{"wrong secret", wearableUpload{Type: "steps", Value: &value, Secret: "nope"}, http.StatusUnauthorized},
		{"missing type", wearableUpload{Value: &value, Secret: "shh"}, http.StatusBadRequest},
		{"missing value", wearableUpload{Type: "steps", Secret: "shh"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			h := newTestHandler(t, cfg, store, &fakeJob{})

			rec := httptest.NewRecorder()
			h.handleWearableIngest(rec, ingestRequest(t, tt.upload))

			assert.Equal(t, tt.code, rec.Code)
			assert.Empty(t, store.inserted)
		})
	}
}

func TestHandleWearableIngest_DisabledWithoutSecret(t *testing.T) {
	// No configured secret means no accepted upload, whatever is sent.
	store := &fakeStore{}
	h := newTestHandler(t, config.Default(), store, &fakeJob{})

	value := 1.0
	rec := httptest.NewRecorder()
	h.handleWearableIngest(rec, ingestRequest(t, wearableUpload{
		Type: "steps", Value: &value, Secret: "",
	}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, store.inserted)
}

func TestHandleSummarize(t *testing.T) {
	job := &fakeJob{}
	h := newTestHandler(t, config.Default(), &fakeStore{}, job)

	rec := httptest.NewRecorder()
	h.handleSummarize(rec, httptest.NewRequest(http.MethodPost, "/api/summarize", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, job.runs)
}

func TestHandleSummarize_JobFailure(t *testing.T) {
	job := &fakeJob{err: errors.New("fetch failed")}
	h := newTestHandler(t, config.Default(), &fakeStore{}, job)

	rec := httptest.NewRecorder()
	h.handleSummarize(rec, httptest.NewRequest(http.MethodPost, "/api/summarize", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestBearerAuth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	protected := bearerAuth("s3cret")(next)

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"valid token", "Bearer s3cret", http.StatusOK},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "s3cret", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/summarize", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestBearerAuth_EmptySecretDisablesEndpoint(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	protected := bearerAuth("")(next)

	req := httptest.NewRequest(http.MethodPost, "/api/summarize", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServerRouting(t *testing.T) {
	cfg := config.Default()
	cfg.Summarizer.Secret = "s3cret"
	job := &fakeJob{}
	h := newTestHandler(t, cfg, &fakeStore{}, job)
	srv := NewServer(cfg, h, zerolog.Nop())

	ts := httptest.NewServer(srv.server.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The summarize trigger sits behind bearer auth.
	resp, err = http.Post(ts.URL+"/api/summarize", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/summarize", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer s3cret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, job.runs)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
