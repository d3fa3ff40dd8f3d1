package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/policyhub-api/internal/api/shared"
	"github.com/phrazzld/policyhub-api/internal/ingest"
	"github.com/phrazzld/policyhub-api/internal/platform/logger"
	"github.com/phrazzld/policyhub-api/internal/redact"
	"github.com/phrazzld/policyhub-api/internal/task"
)

// Pinger checks a backing service, such as *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// StatsProvider reports scheduler statistics.
type StatsProvider interface {
	Stats(ctx context.Context) (task.SchedulerStats, error)
}

// UploadStatusProvider reports import worker capacity.
type UploadStatusProvider interface {
	Status() ingest.UploadStatus
}

const healthCheckTimeout = 2 * time.Second

// HealthHandler serves GET /health.
type HealthHandler struct {
	db        Pinger
	scheduler StatsProvider
	uploads   UploadStatusProvider
	now       func() time.Time
	logger    *slog.Logger
}

// NewHealthHandler creates a HealthHandler. db may be nil when no database is
// configured.
func NewHealthHandler(
	db Pinger,
	scheduler StatsProvider,
	uploads UploadStatusProvider,
	logger *slog.Logger,
) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		db:        db,
		scheduler: scheduler,
		uploads:   uploads,
		now:       time.Now,
		logger:    logger.With("component", "health_handler"),
	}
}

// Health reports "ok" with scheduler and upload state, or "degraded" with
// status 503 when the database or the scheduler store is unreachable.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	log := logger.FromContextOrDefault(r.Context(), h.logger)
	resp := HealthResponse{
		Status:    "ok",
		Timestamp: h.now().UTC(),
		Upload:    h.uploads.Status(),
	}

	if h.db != nil {
		resp.Database = "ok"
		if err := h.db.PingContext(ctx); err != nil {
			log.Warn("health check database ping failed", "error", redact.Error(err))
			resp.Status = "degraded"
			resp.Database = "unreachable"
		}
	}

	stats, err := h.scheduler.Stats(ctx)
	if err != nil {
		log.Warn("health check scheduler stats failed", "error", redact.Error(err))
		resp.Status = "degraded"
	} else {
		resp.Scheduler = &stats
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	shared.RespondWithJSON(w, r, status, resp)
}
