package web

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/fna/tracker/internal/config"
	"github.com/fna/tracker/internal/models"
	"github.com/fna/tracker/internal/stats"
)

// JobRunner runs the daily summarization once.
type JobRunner interface {
	Run(ctx context.Context) error
}

// MetricStore is the raw event access the handlers need.
type MetricStore interface {
	Insert(ctx context.Context, event *models.Metric) error
	Latest(ctx context.Context) (*models.Metric, error)
}

// Handler exposes the statistics core over HTTP. All endpoints are thin
// adapters: fetch, call the builder or job, respond.
type Handler struct {
	cfg     *config.Config
	builder *stats.Builder
	history stats.HistorySource
	metrics MetricStore
	job     JobRunner
	log     zerolog.Logger
}

func NewHandler(cfg *config.Config, builder *stats.Builder, history stats.HistorySource, metrics MetricStore, job JobRunner, log zerolog.Logger) *Handler {
	return &Handler{
		cfg:     cfg,
		builder: builder,
		history: history,
		metrics: metrics,
		job:     job,
		log:     log.With().Str("component", "api").Logger(),
	}
}

// handleDailyStats serves the snapshot for ?date=YYYY-MM-DD (today when
// absent). Today is always recomputed; compacted days come from their
// persisted summary.
func (h *Handler) handleDailyStats(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")

	snapshot, err := h.builder.Daily(r.Context(), dateStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, snapshot)
}

func (h *Handler) handleWeeklyStats(w http.ResponseWriter, r *http.Request) {
	days, err := h.builder.Weekly(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("weekly stats failed")
		respondError(w, http.StatusInternalServerError, "failed to build weekly stats")
		return
	}
	respondJSON(w, days)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = stats.PeriodWeekly
	}
	dateStr := r.URL.Query().Get("date")

	payload, err := h.builder.History(r.Context(), h.history, period, dateStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, payload)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"running":  true,
		"timezone": h.cfg.Stats.Timezone,
	}
	if latest, err := h.metrics.Latest(r.Context()); err == nil && latest != nil {
		status["latest_event"] = map[string]any{
			"device_id":   latest.DeviceID,
			"metric_type": latest.MetricType,
			"created_at":  latest.CreatedAt,
		}
	}
	respondJSON(w, status)
}

// wearableUpload is the ingest contract of the wearable companion app.
type wearableUpload struct {
	Type   string         `json:"type"`
	Value  *float64       `json:"value"`
	Secret string         `json:"secret"`
	Data   models.JSONMap `json:"data"`
}

// handleWearableIngest is the validate-and-insert shim for wearable
// metrics. Wearable rows live outside the statistics core; they are
// stored for future use and excluded from all reduction fetches.
func (h *Handler) handleWearableIngest(w http.ResponseWriter, r *http.Request) {
	var upload wearableUpload
	if err := json.NewDecoder(r.Body).Decode(&upload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if h.cfg.Summarizer.IngestSecret == "" || upload.Secret != h.cfg.Summarizer.IngestSecret {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if upload.Type == "" || upload.Value == nil {
		respondError(w, http.StatusBadRequest, "missing type or value")
		return
	}

	metadata := upload.Data
	if metadata == nil {
		metadata = models.JSONMap{}
	}
	event := &models.Metric{
		CreatedAt:  time.Now().UTC(),
		DeviceID:   h.cfg.Devices.WearableID,
		MetricType: upload.Type,
		Value:      *upload.Value,
		Metadata:   metadata,
	}
	if err := h.metrics.Insert(r.Context(), event); err != nil {
		h.log.Error().Err(err).Msg("wearable insert failed")
		respondError(w, http.StatusInternalServerError, "failed to store metric")
		return
	}

	respondJSON(w, map[string]any{"success": true})
}

// handleSummarize triggers the daily compaction job. Always targets
// yesterday; a fatal step failure returns 500 so the external scheduler
// retries on its next run.
func (h *Handler) handleSummarize(w http.ResponseWriter, r *http.Request) {
	if err := h.job.Run(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("summarization run failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, map[string]any{"message": "summarization completed"})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]any{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func respondError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
