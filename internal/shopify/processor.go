package shopify

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"commerce_sync/internal/domain"
)

const (
	maxLineSize    = 16 * 1024 * 1024
	maxOrdersPage  = 250
	defaultBatchSz = 100
)

// FactWriter persists transformed records. Upserts are keyed by natural key
// so replays do not duplicate rows.
type FactWriter interface {
	UpsertOrders(ctx context.Context, orders []domain.Order) (int64, error)
	UpsertLineItems(ctx context.Context, items []domain.LineItem) (int64, error)
	UpsertCustomers(ctx context.Context, customers []domain.Customer) (int64, error)
	UpsertAddresses(ctx context.Context, addrs []domain.CustomerAddress) (int64, error)
	UpsertProducts(ctx context.Context, products []domain.Product) (int64, error)
	UpsertVariants(ctx context.Context, variants []domain.ProductVariant) (int64, error)
}

type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Result counts rows written per record type.
type Result struct {
	Rows    map[string]int64
	Skipped int
}

func (r *Result) Total() int64 {
	var n int64
	for _, v := range r.Rows {
		n += v
	}
	return n
}

type Processor struct {
	client    *Client
	writer    FactWriter
	tx        Transactor
	batchSize int
	logger    *slog.Logger
}

func NewProcessor(client *Client, writer FactWriter, tx Transactor, batchSize int, logger *slog.Logger) *Processor {
	if batchSize <= 0 {
		batchSize = defaultBatchSz
	}
	return &Processor{
		client:    client,
		writer:    writer,
		tx:        tx,
		batchSize: batchSize,
		logger:    logger.With("component", "shopify_processor"),
	}
}

// DownloadAndProcess streams a bulk result file and upserts its records.
func (p *Processor) DownloadAndProcess(ctx context.Context, target domain.FactTarget, url string, entity domain.Entity) (*Result, error) {
	body, err := p.client.Download(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return p.Process(ctx, target, body, entity)
}

var entityTypes = map[domain.Entity]map[string]bool{
	domain.EntityOrders:    {TypeOrder: true, TypeLineItem: true},
	domain.EntityCustomers: {TypeCustomer: true, TypeMailingAddress: true},
	domain.EntityProducts:  {TypeProduct: true, TypeProductVariant: true},
}

// Process reads JSONL from r. Lines that fail to parse or transform are
// logged and skipped; write failures abort.
func (p *Processor) Process(ctx context.Context, target domain.FactTarget, r io.Reader, entity domain.Entity) (*Result, error) {
	allowed, ok := entityTypes[entity]
	if !ok {
		return nil, fmt.Errorf("no record types for entity %q", entity)
	}

	logger := p.logger.With("brand_id", target.BrandID, "entity", entity)
	b := newBatcher(p.writer, p.batchSize)
	result := &Result{Rows: b.rows}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var env struct {
			ID       string `json:"id"`
			Typename string `json:"__typename"`
		}
		if err := json.Unmarshal(line, &env); err != nil {
			logger.Warn("skipping malformed line", "line", lineNo, "error", err)
			result.Skipped++
			continue
		}

		typ := env.Typename
		if typ == "" {
			typ = gidType(env.ID)
		}
		if !allowed[typ] {
			logger.Warn("skipping unexpected record type", "line", lineNo, "type", typ)
			result.Skipped++
			continue
		}

		record, err := decodeRecord(typ, line, target)
		if err != nil {
			logger.Warn("skipping invalid record", "line", lineNo, "type", typ, "error", err)
			result.Skipped++
			continue
		}

		if err := b.add(ctx, record); err != nil {
			return result, fmt.Errorf("write %s batch: %w", typ, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("read results: %w", err)
	}

	if err := b.flush(ctx); err != nil {
		return result, fmt.Errorf("write final batch: %w", err)
	}

	logger.Info("bulk results processed",
		"lines", lineNo,
		"rows", result.Total(),
		"skipped", result.Skipped,
	)
	return result, nil
}

func decodeRecord(typ string, line []byte, t domain.FactTarget) (any, error) {
	switch typ {
	case TypeOrder:
		var n orderNode
		if err := json.Unmarshal(line, &n); err != nil {
			return nil, err
		}
		return n.toDomain(t)
	case TypeLineItem:
		var n lineItemNode
		if err := json.Unmarshal(line, &n); err != nil {
			return nil, err
		}
		return n.toDomain(t, n.ParentID)
	case TypeCustomer:
		var n customerNode
		if err := json.Unmarshal(line, &n); err != nil {
			return nil, err
		}
		return n.toDomain(t)
	case TypeMailingAddress:
		var n addressNode
		if err := json.Unmarshal(line, &n); err != nil {
			return nil, err
		}
		return n.toDomain(t)
	case TypeProduct:
		var n productNode
		if err := json.Unmarshal(line, &n); err != nil {
			return nil, err
		}
		return n.toDomain(t)
	case TypeProductVariant:
		var n variantNode
		if err := json.Unmarshal(line, &n); err != nil {
			return nil, err
		}
		return n.toDomain(t)
	}
	return nil, fmt.Errorf("unknown record type %q", typ)
}

// batcher buffers records per type and writes a type once it reaches size.
type batcher struct {
	writer    FactWriter
	size      int
	rows      map[string]int64
	orders    []domain.Order
	lineItems []domain.LineItem
	customers []domain.Customer
	addresses []domain.CustomerAddress
	products  []domain.Product
	variants  []domain.ProductVariant
}

func newBatcher(w FactWriter, size int) *batcher {
	return &batcher{writer: w, size: size, rows: make(map[string]int64)}
}

func (b *batcher) add(ctx context.Context, record any) error {
	switch r := record.(type) {
	case domain.Order:
		b.orders = append(b.orders, r)
		if len(b.orders) >= b.size {
			return b.flushOrders(ctx)
		}
	case domain.LineItem:
		b.lineItems = append(b.lineItems, r)
		if len(b.lineItems) >= b.size {
			return b.flushLineItems(ctx)
		}
	case domain.Customer:
		b.customers = append(b.customers, r)
		if len(b.customers) >= b.size {
			return b.flushCustomers(ctx)
		}
	case domain.CustomerAddress:
		b.addresses = append(b.addresses, r)
		if len(b.addresses) >= b.size {
			return b.flushAddresses(ctx)
		}
	case domain.Product:
		b.products = append(b.products, r)
		if len(b.products) >= b.size {
			return b.flushProducts(ctx)
		}
	case domain.ProductVariant:
		b.variants = append(b.variants, r)
		if len(b.variants) >= b.size {
			return b.flushVariants(ctx)
		}
	default:
		return fmt.Errorf("unsupported record %T", record)
	}
	return nil
}

func (b *batcher) flush(ctx context.Context) error {
	for _, fn := range []func(context.Context) error{
		b.flushOrders, b.flushLineItems,
		b.flushCustomers, b.flushAddresses,
		b.flushProducts, b.flushVariants,
	} {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (b *batcher) flushOrders(ctx context.Context) error {
	if len(b.orders) == 0 {
		return nil
	}
	n, err := b.writer.UpsertOrders(ctx, b.orders)
	if err != nil {
		return err
	}
	b.rows[TypeOrder] += n
	b.orders = b.orders[:0]
	return nil
}

func (b *batcher) flushLineItems(ctx context.Context) error {
	if len(b.lineItems) == 0 {
		return nil
	}
	n, err := b.writer.UpsertLineItems(ctx, b.lineItems)
	if err != nil {
		return err
	}
	b.rows[TypeLineItem] += n
	b.lineItems = b.lineItems[:0]
	return nil
}

func (b *batcher) flushCustomers(ctx context.Context) error {
	if len(b.customers) == 0 {
		return nil
	}
	n, err := b.writer.UpsertCustomers(ctx, b.customers)
	if err != nil {
		return err
	}
	b.rows[TypeCustomer] += n
	b.customers = b.customers[:0]
	return nil
}

func (b *batcher) flushAddresses(ctx context.Context) error {
	if len(b.addresses) == 0 {
		return nil
	}
	n, err := b.writer.UpsertAddresses(ctx, b.addresses)
	if err != nil {
		return err
	}
	b.rows[TypeMailingAddress] += n
	b.addresses = b.addresses[:0]
	return nil
}

func (b *batcher) flushProducts(ctx context.Context) error {
	if len(b.products) == 0 {
		return nil
	}
	n, err := b.writer.UpsertProducts(ctx, b.products)
	if err != nil {
		return err
	}
	b.rows[TypeProduct] += n
	b.products = b.products[:0]
	return nil
}

func (b *batcher) flushVariants(ctx context.Context) error {
	if len(b.variants) == 0 {
		return nil
	}
	n, err := b.writer.UpsertVariants(ctx, b.variants)
	if err != nil {
		return err
	}
	b.rows[TypeProductVariant] += n
	b.variants = b.variants[:0]
	return nil
}

// RefreshOrders re-fetches orders created in [from, to) page by page and
// upserts each page in its own transaction. It returns rows written.
func (p *Processor) RefreshOrders(ctx context.Context, target domain.FactTarget, creds domain.Credentials, from, to time.Time) (int64, error) {
	search := ExportFilter{CreatedFrom: from, CreatedTo: to}.search()
	pageSize := min(p.batchSize, maxOrdersPage)

	logger := p.logger.With("brand_id", target.BrandID, "from", from, "to", to)

	var (
		after *string
		total int64
		pages int
	)
	for {
		var data struct {
			Orders struct {
				PageInfo struct {
					HasNextPage bool    `json:"hasNextPage"`
					EndCursor   *string `json:"endCursor"`
				} `json:"pageInfo"`
				Edges []struct {
					Node orderNode `json:"node"`
				} `json:"edges"`
			} `json:"orders"`
		}
		vars := map[string]any{"query": search, "first": pageSize, "after": after}
		if err := p.client.query(ctx, creds, ordersPageQuery, vars, &data); err != nil {
			return total, fmt.Errorf("fetch orders page %d: %w", pages, err)
		}

		orders := make([]domain.Order, 0, len(data.Orders.Edges))
		var items []domain.LineItem
		for _, e := range data.Orders.Edges {
			o, err := e.Node.toDomain(target)
			if err != nil {
				logger.Warn("skipping invalid order", "error", err)
				continue
			}
			orders = append(orders, o)
			if e.Node.LineItems == nil {
				continue
			}
			for _, li := range e.Node.LineItems.Edges {
				item, err := li.Node.toDomain(target, e.Node.ID)
				if err != nil {
					logger.Warn("skipping invalid line item", "error", err)
					continue
				}
				items = append(items, item)
			}
		}

		var written int64
		err := p.tx.WithTransaction(ctx, func(ctx context.Context) error {
			n, err := p.writer.UpsertOrders(ctx, orders)
			if err != nil {
				return err
			}
			m, err := p.writer.UpsertLineItems(ctx, items)
			if err != nil {
				return err
			}
			written = n + m
			return nil
		})
		if err != nil {
			return total, fmt.Errorf("write orders page %d: %w", pages, err)
		}
		total += written

		pages++
		if !data.Orders.PageInfo.HasNextPage || data.Orders.PageInfo.EndCursor == nil {
			break
		}
		after = data.Orders.PageInfo.EndCursor
	}

	logger.Info("orders refreshed", "pages", pages, "rows", total)
	return total, nil
}
