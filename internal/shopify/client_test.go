package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"commerce_sync/internal/domain"
)

type ClientTestSuite struct {
	suite.Suite
	server  *httptest.Server
	handler http.HandlerFunc
	calls   atomic.Int32
	client  *Client
	creds   domain.Credentials
}

func (s *ClientTestSuite) SetupTest() {
	s.calls.Store(0)
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		s.handler(w, r)
	}))

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s.client = New(Config{
		APIVersion:     "2024-10",
		Timeout:        5 * time.Second,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		BaseURL:        s.server.URL,
	}, logger)
	s.creds = domain.Credentials{ShopDomain: "test.myshopify.com", AccessToken: "shpat_test"}
}

func (s *ClientTestSuite) TearDownTest() {
	s.server.Close()
}

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (s *ClientTestSuite) respond(w http.ResponseWriter, data string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"data":` + data + `}`))
}

func (s *ClientTestSuite) TestStartBulkExport_SendsQueryWithFilter() {
	var got graphQLRequest
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/admin/api/2024-10/graphql.json", r.URL.Path)
		s.Equal("shpat_test", r.Header.Get("X-Shopify-Access-Token"))
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&got))
		s.respond(w, `{"bulkOperationRunQuery":{"bulkOperation":{"id":"gid://shopify/BulkOperation/1","status":"CREATED","createdAt":"2024-05-01T10:00:00Z"},"userErrors":[]}}`)
	}

	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	op, err := s.client.StartBulkExport(context.Background(), s.creds, domain.EntityOrders, ExportFilter{UpdatedSince: since})

	s.Require().NoError(err)
	s.Equal("gid://shopify/BulkOperation/1", op.ID)
	s.Equal(domain.BulkCreated, op.Status)
	s.Contains(got.Variables["query"], "updated_at:>='2024-01-01T00:00:00Z'")
	s.Contains(got.Variables["query"], "lineItems")
}

func (s *ClientTestSuite) TestStartBulkExport_InProgressIsConflict() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, `{"bulkOperationRunQuery":{"bulkOperation":null,"userErrors":[{"field":null,"message":"A bulk query operation for this app and shop is already in progress: gid://shopify/BulkOperation/9.","code":"OPERATION_IN_PROGRESS"}]}}`)
	}

	_, err := s.client.StartBulkExport(context.Background(), s.creds, domain.EntityCustomers, ExportFilter{})

	s.Require().Error(err)
	s.True(errors.Is(err, ErrConflict))
	s.Equal(int32(1), s.calls.Load())
}

func (s *ClientTestSuite) TestQuery_RetriesThrottled() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		if s.calls.Load() < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		s.respond(w, `{"currentBulkOperation":null}`)
	}

	op, err := s.client.CheckExisting(context.Background(), s.creds)

	s.NoError(err)
	s.Nil(op)
	s.Equal(int32(3), s.calls.Load())
}

func (s *ClientTestSuite) TestQuery_GraphQLThrottleCodeRetried() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		if s.calls.Load() == 1 {
			_, _ = w.Write([]byte(`{"errors":[{"message":"Throttled","extensions":{"code":"THROTTLED"}}]}`))
			return
		}
		s.respond(w, `{"currentBulkOperation":{"id":"gid://shopify/BulkOperation/2","status":"RUNNING","objectCount":"42","createdAt":"2024-05-01T10:00:00Z"}}`)
	}

	op, err := s.client.CheckExisting(context.Background(), s.creds)

	s.Require().NoError(err)
	s.Equal(domain.BulkRunning, op.Status)
	s.Equal(int64(42), op.ObjectCount)
}

func (s *ClientTestSuite) TestQuery_ServerErrorsExhaustAttempts() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}

	_, err := s.client.CheckExisting(context.Background(), s.creds)

	s.Require().Error(err)
	s.Contains(err.Error(), "after 3 attempts")
	s.Equal(int32(3), s.calls.Load())
}

func (s *ClientTestSuite) TestQuery_UnauthorizedNotRetried() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":"Invalid API key or access token"}`))
	}

	_, err := s.client.CheckExisting(context.Background(), s.creds)

	s.Require().Error(err)
	s.Contains(err.Error(), "401")
	s.Equal(int32(1), s.calls.Load())
}

func (s *ClientTestSuite) TestPollStatus_Completed() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, `{"node":{"id":"gid://shopify/BulkOperation/1","status":"COMPLETED","objectCount":"1500","createdAt":"2024-05-01T10:00:00Z","completedAt":"2024-05-01T10:05:00Z","url":"https://storage.example.com/result.jsonl","partialDataUrl":null}}`)
	}

	op, err := s.client.PollStatus(context.Background(), s.creds, "gid://shopify/BulkOperation/1")

	s.Require().NoError(err)
	s.Equal(domain.BulkCompleted, op.Status)
	s.True(op.Status.Terminal())
	s.Equal(int64(1500), op.ObjectCount)
	s.Equal("https://storage.example.com/result.jsonl", op.ResultURL)
	s.Require().NotNil(op.CompletedAt)
	s.Equal(time.Date(2024, 5, 1, 10, 5, 0, 0, time.UTC), *op.CompletedAt)
}

func (s *ClientTestSuite) TestPollStatus_MissingNode() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, `{"node":null}`)
	}

	_, err := s.client.PollStatus(context.Background(), s.creds, "gid://shopify/BulkOperation/404")

	s.True(errors.Is(err, ErrNotFound))
}

func (s *ClientTestSuite) TestCancelBulkOperation_UserErrors() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, `{"bulkOperationCancel":{"bulkOperation":null,"userErrors":[{"field":["id"],"message":"Bulk operation is not running"}]}}`)
	}

	err := s.client.CancelBulkOperation(context.Background(), s.creds, "gid://shopify/BulkOperation/1")

	s.Require().Error(err)
	s.Contains(err.Error(), "not running")
}

func TestBulkQuery_UnknownEntity(t *testing.T) {
	_, err := BulkQuery(domain.EntityRecent, ExportFilter{})
	if err == nil {
		t.Fatal("expected error for entity without a bulk query")
	}
}

func TestExportFilter_CreatedRange(t *testing.T) {
	f := ExportFilter{
		CreatedFrom: time.Date(2024, 3, 1, 5, 0, 0, 0, time.UTC),
		CreatedTo:   time.Date(2024, 3, 3, 5, 0, 0, 0, time.UTC),
	}
	want := "created_at:>='2024-03-01T05:00:00Z' created_at:<'2024-03-03T05:00:00Z'"
	if got := f.search(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
