package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"commerce_sync/internal/domain"
	"commerce_sync/internal/gaps"
	"commerce_sync/internal/queue"
)

type stubConns map[string]*domain.Connection

func (s stubConns) Get(_ context.Context, id string) (*domain.Connection, error) {
	c, ok := s[id]
	if !ok {
		return nil, domain.ErrConnectionNotFound
	}
	return c, nil
}

type stubLedger struct {
	jobs map[string]*domain.ETLJob
	err  error
}

func (s *stubLedger) Get(_ context.Context, id string) (*domain.ETLJob, error) {
	j, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return j, nil
}

func (s *stubLedger) ListLatestByConnection(_ context.Context, connectionID string) ([]domain.ETLJob, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.ETLJob
	for _, j := range s.jobs {
		if j.ConnectionID == connectionID {
			out = append(out, *j)
		}
	}
	return out, nil
}

type stubTrigger struct {
	triggered []string
}

func (s *stubTrigger) RecentSync(_ context.Context, conn *domain.Connection) (*queue.Job, error) {
	s.triggered = append(s.triggered, conn.ID)
	return &queue.Job{ID: "queue-job-1"}, nil
}

type stubBackfiller struct {
	opts gaps.RunOptions
}

func (s *stubBackfiller) Run(_ context.Context, connectionID string, opts gaps.RunOptions) (*gaps.Report, error) {
	s.opts = opts
	if connectionID != "conn-1" {
		return nil, domain.ErrConnectionNotFound
	}
	return &gaps.Report{ConnectionID: connectionID, DryRun: opts.DryRun, ETLJobs: []string{}}, nil
}

type HandlerTestSuite struct {
	suite.Suite
	ledger     *stubLedger
	trigger    *stubTrigger
	backfiller *stubBackfiller
	server     *httptest.Server
}

func (s *HandlerTestSuite) SetupTest() {
	conns := stubConns{"conn-1": {ID: "conn-1", BrandID: "brand-1", SyncStatus: domain.SyncInProgress}}
	s.ledger = &stubLedger{jobs: map[string]*domain.ETLJob{
		"etl-1": {ID: "etl-1", ConnectionID: "conn-1", Entity: domain.EntityOrders, JobType: domain.JobTypeBulkSync, Status: domain.JobCompleted, RowsWritten: 120},
		"etl-2": {ID: "etl-2", ConnectionID: "conn-1", Entity: domain.EntityCustomers, JobType: domain.JobTypeBulkSync, Status: domain.JobRunning},
	}}
	s.trigger = &stubTrigger{}
	s.backfiller = &stubBackfiller{}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(conns, s.ledger, s.trigger, s.backfiller, logger)
	s.server = httptest.NewServer(NewRouter(h, logger))
}

func (s *HandlerTestSuite) TearDownTest() {
	s.server.Close()
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func (s *HandlerTestSuite) do(method, path string) (*http.Response, []byte) {
	req, err := http.NewRequest(method, s.server.URL+path, nil)
	s.Require().NoError(err)
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp, body
}

func (s *HandlerTestSuite) TestHealthz() {
	resp, body := s.do(http.MethodGet, "/healthz")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.JSONEq(`{"status":"ok"}`, string(body))
}

func (s *HandlerTestSuite) TestSyncStatus() {
	resp, body := s.do(http.MethodGet, "/connections/conn-1/sync-status")
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var status domain.SyncStatus
	s.Require().NoError(json.Unmarshal(body, &status))
	s.Equal(domain.SyncInProgress, status.OverallStatus)
	s.Equal(33, status.ProgressPct)
	s.Require().Len(status.Milestones, 3)
	s.Equal(domain.JobCompleted, status.Milestones[0].Status)
	s.Equal(domain.JobRunning, status.Milestones[1].Status)
	s.Equal(domain.JobPending, status.Milestones[2].Status)
}

func (s *HandlerTestSuite) TestSyncStatus_UnknownConnection() {
	resp, body := s.do(http.MethodGet, "/connections/nope/sync-status")
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Contains(string(body), "connection not found")
}

func (s *HandlerTestSuite) TestSyncStatus_StoreError() {
	s.ledger.err = errors.New("db down")
	resp, _ := s.do(http.MethodGet, "/connections/conn-1/sync-status")
	s.Equal(http.StatusInternalServerError, resp.StatusCode)
}

func (s *HandlerTestSuite) TestGetETLJob() {
	resp, body := s.do(http.MethodGet, "/etl-jobs/etl-1")
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var job domain.ETLJob
	s.Require().NoError(json.Unmarshal(body, &job))
	s.Equal("etl-1", job.ID)
	s.Equal(int64(120), job.RowsWritten)

	resp, _ = s.do(http.MethodGet, "/etl-jobs/missing")
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *HandlerTestSuite) TestTriggerSync() {
	resp, body := s.do(http.MethodPost, "/connections/conn-1/sync")
	s.Equal(http.StatusAccepted, resp.StatusCode)
	s.JSONEq(`{"connection_id":"conn-1","queue_job_id":"queue-job-1"}`, string(body))
	s.Equal([]string{"conn-1"}, s.trigger.triggered)
}

func (s *HandlerTestSuite) TestTriggerBackfill() {
	resp, body := s.do(http.MethodPost, "/connections/conn-1/backfill?deep=true&dry_run=1")
	s.Require().Equal(http.StatusAccepted, resp.StatusCode)
	s.True(s.backfiller.opts.Deep)
	s.True(s.backfiller.opts.DryRun)

	var report gaps.Report
	s.Require().NoError(json.Unmarshal(body, &report))
	s.Equal("conn-1", report.ConnectionID)
}

func (s *HandlerTestSuite) TestTriggerBackfill_BadFlag() {
	resp, _ := s.do(http.MethodPost, "/connections/conn-1/backfill?deep=maybe")
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}
