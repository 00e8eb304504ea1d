package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"commerce_sync/internal/domain"
	"commerce_sync/internal/gaps"
	"commerce_sync/internal/queue"
)

type ConnectionReader interface {
	Get(ctx context.Context, id string) (*domain.Connection, error)
}

type LedgerReader interface {
	Get(ctx context.Context, id string) (*domain.ETLJob, error)
	ListLatestByConnection(ctx context.Context, connectionID string) ([]domain.ETLJob, error)
}

type SyncTrigger interface {
	RecentSync(ctx context.Context, conn *domain.Connection) (*queue.Job, error)
}

type Backfiller interface {
	Run(ctx context.Context, connectionID string, opts gaps.RunOptions) (*gaps.Report, error)
}

type Handler struct {
	conns      ConnectionReader
	ledger     LedgerReader
	trigger    SyncTrigger
	backfiller Backfiller
	logger     *slog.Logger
}

func NewHandler(conns ConnectionReader, ledger LedgerReader, trigger SyncTrigger, backfiller Backfiller, logger *slog.Logger) *Handler {
	return &Handler{
		conns:      conns,
		ledger:     ledger,
		trigger:    trigger,
		backfiller: backfiller,
		logger:     logger.With("component", "api"),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/connections/{connectionID}", func(r chi.Router) {
		r.Get("/sync-status", h.getSyncStatus)
		r.Post("/sync", h.triggerSync)
		r.Post("/backfill", h.triggerBackfill)
	})
	r.Get("/etl-jobs/{jobID}", h.getETLJob)
}

func (h *Handler) getSyncStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	conn, err := h.conns.Get(ctx, chi.URLParam(r, "connectionID"))
	if err != nil {
		h.fail(w, err)
		return
	}

	jobs, err := h.ledger.ListLatestByConnection(ctx, conn.ID)
	if err != nil {
		h.fail(w, err)
		return
	}

	respondJSON(w, http.StatusOK, domain.ComputeSyncStatus(conn.ID, conn.SyncStatus, jobs))
}

func (h *Handler) getETLJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.ledger.Get(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, job)
}

type triggerResponse struct {
	ConnectionID string `json:"connection_id"`
	QueueJobID   string `json:"queue_job_id"`
}

func (h *Handler) triggerSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	conn, err := h.conns.Get(ctx, chi.URLParam(r, "connectionID"))
	if err != nil {
		h.fail(w, err)
		return
	}

	job, err := h.trigger.RecentSync(ctx, conn)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.logger.Info("manual sync triggered", "connection_id", conn.ID, "queue_job_id", job.ID)
	respondJSON(w, http.StatusAccepted, triggerResponse{ConnectionID: conn.ID, QueueJobID: job.ID})
}

func (h *Handler) triggerBackfill(w http.ResponseWriter, r *http.Request) {
	opts := gaps.RunOptions{}
	for name, dst := range map[string]*bool{"deep": &opts.Deep, "dry_run": &opts.DryRun} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid "+name+" parameter")
			return
		}
		*dst = v
	}

	report, err := h.backfiller.Run(r.Context(), chi.URLParam(r, "connectionID"), opts)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, report)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	code := statusFromError(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
	}
	respondError(w, code, err.Error())
}
