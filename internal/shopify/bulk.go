package shopify

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"commerce_sync/internal/domain"
)

const bulkOperationFields = `
	id
	status
	errorCode
	createdAt
	completedAt
	objectCount
	url
	partialDataUrl`

var currentBulkOperationQuery = `query {
	currentBulkOperation {` + bulkOperationFields + `
	}
}`

var bulkOperationNodeQuery = `query($id: ID!) {
	node(id: $id) {
		... on BulkOperation {` + bulkOperationFields + `
		}
	}
}`

const bulkOperationRunMutation = `mutation($query: String!) {
	bulkOperationRunQuery(query: $query) {
		bulkOperation { id status createdAt }
		userErrors { field message code }
	}
}`

const bulkOperationCancelMutation = `mutation($id: ID!) {
	bulkOperationCancel(id: $id) {
		bulkOperation { id status }
		userErrors { field message }
	}
}`

// objectCount is an UnsignedInt64 and arrives as a JSON string.
type flexCount int64

func (c *flexCount) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*c = 0
		return nil
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return err
	}
	*c = flexCount(n)
	return nil
}

type bulkOperationNode struct {
	ID             string    `json:"id"`
	Status         string    `json:"status"`
	ErrorCode      *string   `json:"errorCode"`
	CreatedAt      string    `json:"createdAt"`
	CompletedAt    *string   `json:"completedAt"`
	ObjectCount    flexCount `json:"objectCount"`
	URL            *string   `json:"url"`
	PartialDataURL *string   `json:"partialDataUrl"`
}

type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
	Code    string   `json:"code"`
}

func (n *bulkOperationNode) toDomain() *domain.BulkOperation {
	op := &domain.BulkOperation{
		ID:          n.ID,
		Status:      domain.BulkStatus(strings.ToLower(n.Status)),
		ObjectCount: int64(n.ObjectCount),
	}
	if n.ErrorCode != nil {
		op.ErrorCode = *n.ErrorCode
	}
	if n.URL != nil {
		op.ResultURL = *n.URL
	}
	if n.PartialDataURL != nil {
		op.PartialResultURL = *n.PartialDataURL
	}
	if t, err := time.Parse(time.RFC3339, n.CreatedAt); err == nil {
		op.CreatedAt = t.UTC()
	}
	if n.CompletedAt != nil {
		if t, err := time.Parse(time.RFC3339, *n.CompletedAt); err == nil {
			t = t.UTC()
			op.CompletedAt = &t
		}
	}
	return op
}

// CheckExisting returns the shop's current bulk query operation, or nil when
// it has never run one.
func (c *Client) CheckExisting(ctx context.Context, creds domain.Credentials) (*domain.BulkOperation, error) {
	var data struct {
		CurrentBulkOperation *bulkOperationNode `json:"currentBulkOperation"`
	}
	if err := c.query(ctx, creds, currentBulkOperationQuery, nil, &data); err != nil {
		return nil, fmt.Errorf("current bulk operation: %w", err)
	}
	if data.CurrentBulkOperation == nil {
		return nil, nil
	}
	return data.CurrentBulkOperation.toDomain(), nil
}

// StartBulkExport submits an export of entity. It returns ErrConflict when the
// shop already runs a bulk operation.
func (c *Client) StartBulkExport(ctx context.Context, creds domain.Credentials, entity domain.Entity, filter ExportFilter) (*domain.BulkOperation, error) {
	bulkQuery, err := BulkQuery(entity, filter)
	if err != nil {
		return nil, err
	}

	var data struct {
		BulkOperationRunQuery struct {
			BulkOperation *bulkOperationNode `json:"bulkOperation"`
			UserErrors    []userError        `json:"userErrors"`
		} `json:"bulkOperationRunQuery"`
	}
	if err := c.query(ctx, creds, bulkOperationRunMutation, map[string]any{"query": bulkQuery}, &data); err != nil {
		return nil, fmt.Errorf("run bulk query: %w", err)
	}

	result := data.BulkOperationRunQuery
	if len(result.UserErrors) > 0 {
		for _, ue := range result.UserErrors {
			if ue.Code == "OPERATION_IN_PROGRESS" || strings.Contains(strings.ToLower(ue.Message), "already in progress") {
				return nil, fmt.Errorf("%w: %s", ErrConflict, ue.Message)
			}
		}
		return nil, fmt.Errorf("run bulk query: %s", joinUserErrors(result.UserErrors))
	}
	if result.BulkOperation == nil {
		return nil, fmt.Errorf("run bulk query: empty response")
	}

	op := result.BulkOperation.toDomain()
	c.logger.Info("bulk export started",
		"shop", creds.ShopDomain,
		"entity", entity,
		"bulk_operation_id", op.ID,
	)
	return op, nil
}

// PollStatus fetches the current state of a bulk operation by id.
func (c *Client) PollStatus(ctx context.Context, creds domain.Credentials, id string) (*domain.BulkOperation, error) {
	var data struct {
		Node *bulkOperationNode `json:"node"`
	}
	if err := c.query(ctx, creds, bulkOperationNodeQuery, map[string]any{"id": id}, &data); err != nil {
		return nil, fmt.Errorf("poll bulk operation: %w", err)
	}
	if data.Node == nil || data.Node.ID == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return data.Node.toDomain(), nil
}

func (c *Client) CancelBulkOperation(ctx context.Context, creds domain.Credentials, id string) error {
	var data struct {
		BulkOperationCancel struct {
			UserErrors []userError `json:"userErrors"`
		} `json:"bulkOperationCancel"`
	}
	if err := c.query(ctx, creds, bulkOperationCancelMutation, map[string]any{"id": id}, &data); err != nil {
		return fmt.Errorf("cancel bulk operation: %w", err)
	}
	if errs := data.BulkOperationCancel.UserErrors; len(errs) > 0 {
		return fmt.Errorf("cancel bulk operation: %s", joinUserErrors(errs))
	}

	c.logger.Info("bulk operation cancelled", "shop", creds.ShopDomain, "bulk_operation_id", id)
	return nil
}

func joinUserErrors(errs []userError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}
