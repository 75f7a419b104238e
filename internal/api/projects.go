package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/showcase-sync/internal/metrics"
	"github.com/JakeFAU/showcase-sync/internal/showcase"
	"github.com/JakeFAU/showcase-sync/internal/worker"
)

const projectTimeout = 45 * time.Second

// Builder produces a record for a job without persisting it.
type Builder interface {
	Build(ctx context.Context, job showcase.ProjectJob) (*showcase.ProjectRecord, error)
}

// Syncer plans and runs single-project syncs.
type Syncer interface {
	Job(projectID int) (showcase.ProjectJob, bool)
	SyncOne(ctx context.Context, projectID int) (worker.Result, error)
}

// ProjectHandler exposes per-project preview and sync endpoints.
type ProjectHandler struct {
	builder Builder
	syncer  Syncer
	timeout time.Duration
	logger  *zap.Logger
}

// NewProjectHandler wires the pipeline and runner.
func NewProjectHandler(builder Builder, syncer Syncer, logger *zap.Logger) *ProjectHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectHandler{
		builder: builder,
		syncer:  syncer,
		timeout: projectTimeout,
		logger:  logger,
	}
}

// Preview handles GET /v1/projects/{project_id}/preview. It returns
// {"record": {...}} on success, 400 for malformed ids, 404 when the project has
// no timestamp or no usable config, and 502 when the source host fails.
func (h *ProjectHandler) Preview(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseProjectID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	job, ok := h.syncer.Job(projectID)
	if !ok {
		writeError(w, http.StatusNotFound, "no timestamp configured for project")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	record, err := h.builder.Build(ctx, job)
	if err != nil {
		h.logger.Error("preview failed", zap.Int("project_id", projectID), zap.Error(err))
		writeError(w, statusFor(err), "failed to build project record")
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "no usable project config found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"record": record})
}

// Sync handles POST /v1/projects/{project_id}/sync. It returns the
// worker.Result with 200 when synced or skipped and 502 when it failed.
func (h *ProjectHandler) Sync(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseProjectID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.syncer.SyncOne(ctx, projectID)
	if err != nil {
		h.logger.Error("sync failed", zap.Int("project_id", projectID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to start sync")
		return
	}
	status := http.StatusOK
	if res.Outcome == metrics.OutcomeFailed {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, res)
}

func parseProjectID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "project_id")
	if raw == "" {
		return 0, errors.New("project_id is required")
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid project_id")
	}
	return id, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, showcase.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
