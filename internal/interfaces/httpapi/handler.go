package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/betledger-sync/internal/platform/logging"
	"github.com/riskibarqy/betledger-sync/internal/usecase"
)

const defaultRunTimeout = 10 * time.Minute

type Handler struct {
	runService      *usecase.RunService
	snapshotService *usecase.SnapshotService
	runTimeout      time.Duration
	startedAt       time.Time
	logger          *logging.Logger
	validator       *validator.Validate
}

func NewHandler(
	runService *usecase.RunService,
	snapshotService *usecase.SnapshotService,
	runTimeout time.Duration,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if runTimeout <= 0 {
		runTimeout = defaultRunTimeout
	}

	return &Handler{
		runService:      runService,
		snapshotService: snapshotService,
		runTimeout:      runTimeout,
		startedAt:       time.Now().UTC(),
		logger:          logger,
		validator:       validator.New(),
	}
}

type healthDTO struct {
	Status       string `json:"status"`
	UptimeSecs   int64  `json:"uptime_secs"`
	RunActive    bool   `json:"run_active"`
	LastRunState string `json:"last_run_state,omitempty"`
	LastRunAt    string `json:"last_run_at,omitempty"`
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	dto := healthDTO{
		Status:     "ok",
		UptimeSecs: int64(time.Since(h.startedAt).Seconds()),
	}
	if h.runService != nil {
		dto.RunActive = h.runService.Running()
		if last, ok := h.runService.LastReport(); ok {
			dto.LastRunState = string(last.State)
			dto.LastRunAt = last.FinishedAt.Format(time.RFC3339)
		}
	}

	writeSuccess(ctx, w, http.StatusOK, dto)
}

type triggerRunRequest struct {
	Async          bool `json:"async"`
	TimeoutSeconds int  `json:"timeout_seconds" validate:"omitempty,min=1,max=3600"`
}

type triggerRunStartedDTO struct {
	Status string `json:"status"`
}

// TriggerRun starts a sync run outside the cron schedule. With
// async=true the run is detached from the request and the response
// returns immediately.
func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TriggerRun")
	defer span.End()

	if h.runService == nil {
		writeError(ctx, w, fmt.Errorf("%w: run service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	req, err := h.decodeTriggerRunRequest(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	timeout := h.runTimeout
	if req.TimeoutSeconds > 0 {
		timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}

	if req.Async {
		if h.runService.Running() {
			writeError(ctx, w, usecase.ErrRunInProgress)
			return
		}
		go func() {
			runCtx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if _, err := h.runService.Run(runCtx); err != nil && !errors.Is(err, usecase.ErrRunInProgress) {
				h.logger.ErrorContext(runCtx, "detached sync run failed", "error", err)
			}
		}()
		writeSuccess(ctx, w, http.StatusAccepted, triggerRunStartedDTO{Status: "started"})
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	report, err := h.runService.Run(runCtx)
	if err != nil {
		h.logger.WarnContext(ctx, "triggered sync run failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, report)
}

type lastRunDTO struct {
	Available bool               `json:"available"`
	Report    *usecase.RunReport `json:"report,omitempty"`
}

// LastRun reports the most recent run, falling back to the published
// snapshot when this process has not completed a run yet.
func (h *Handler) LastRun(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LastRun")
	defer span.End()

	if h.runService != nil {
		if report, ok := h.runService.LastReport(); ok {
			writeSuccess(ctx, w, http.StatusOK, lastRunDTO{Available: true, Report: &report})
			return
		}
	}

	if h.snapshotService != nil {
		report, ok, err := h.snapshotService.Latest(ctx)
		if err != nil {
			h.logger.WarnContext(ctx, "read run snapshot failed", "error", err)
		} else if ok {
			writeSuccess(ctx, w, http.StatusOK, lastRunDTO{Available: true, Report: &report})
			return
		}
	}

	writeSuccess(ctx, w, http.StatusOK, lastRunDTO{Available: false})
}

func (h *Handler) decodeTriggerRunRequest(ctx context.Context, r *http.Request) (triggerRunRequest, error) {
	var req triggerRunRequest

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		return req, fmt.Errorf("%w: read request body: %v", usecase.ErrInvalidInput, err)
	}
	if len(body) == 0 {
		return req, nil
	}
	if err := sonic.Unmarshal(body, &req); err != nil {
		return req, fmt.Errorf("%w: decode request body: %v", usecase.ErrInvalidInput, err)
	}
	if err := h.validator.StructCtx(ctx, req); err != nil {
		return req, fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return req, nil
}
