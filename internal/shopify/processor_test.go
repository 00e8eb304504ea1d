package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"commerce_sync/internal/domain"
)

type memWriter struct {
	orders    []domain.Order
	lineItems []domain.LineItem
	customers []domain.Customer
	addresses []domain.CustomerAddress
	products  []domain.Product
	variants  []domain.ProductVariant
	calls     int
	failOn    string
}

func (m *memWriter) UpsertOrders(_ context.Context, rows []domain.Order) (int64, error) {
	m.calls++
	if m.failOn == TypeOrder {
		return 0, errors.New("db down")
	}
	m.orders = append(m.orders, rows...)
	return int64(len(rows)), nil
}

func (m *memWriter) UpsertLineItems(_ context.Context, rows []domain.LineItem) (int64, error) {
	m.calls++
	m.lineItems = append(m.lineItems, rows...)
	return int64(len(rows)), nil
}

func (m *memWriter) UpsertCustomers(_ context.Context, rows []domain.Customer) (int64, error) {
	m.calls++
	m.customers = append(m.customers, rows...)
	return int64(len(rows)), nil
}

func (m *memWriter) UpsertAddresses(_ context.Context, rows []domain.CustomerAddress) (int64, error) {
	m.calls++
	m.addresses = append(m.addresses, rows...)
	return int64(len(rows)), nil
}

func (m *memWriter) UpsertProducts(_ context.Context, rows []domain.Product) (int64, error) {
	m.calls++
	m.products = append(m.products, rows...)
	return int64(len(rows)), nil
}

func (m *memWriter) UpsertVariants(_ context.Context, rows []domain.ProductVariant) (int64, error) {
	m.calls++
	m.variants = append(m.variants, rows...)
	return int64(len(rows)), nil
}

type passthroughTx struct{ calls int }

func (p *passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	p.calls++
	return fn(ctx)
}

type ProcessorTestSuite struct {
	suite.Suite
	writer    *memWriter
	tx        *passthroughTx
	logger    *slog.Logger
	target    domain.FactTarget
	processor *Processor
}

func (s *ProcessorTestSuite) SetupTest() {
	s.writer = &memWriter{}
	s.tx = &passthroughTx{}
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s.target = domain.FactTarget{BrandID: "brand-1", ConnectionID: "conn-1", Platform: "shopify"}
	s.processor = NewProcessor(New(Config{MaxAttempts: 1}, s.logger), s.writer, s.tx, 2, s.logger)
}

func TestProcessorTestSuite(t *testing.T) {
	suite.Run(t, new(ProcessorTestSuite))
}

const ordersJSONL = `{"id":"gid://shopify/Order/1001","name":"#1001","email":"a@example.com","createdAt":"2024-05-01T09:30:00-04:00","updatedAt":"2024-05-02T10:00:00Z","displayFinancialStatus":"PAID","currencyCode":"USD","customer":{"id":"gid://shopify/Customer/7"},"totalPriceSet":{"shopMoney":{"amount":"120.50"}},"subtotalPriceSet":{"shopMoney":{"amount":"110.00"}},"totalTaxSet":{"shopMoney":{"amount":"10.50"}}}
{"id":"gid://shopify/LineItem/5001","title":"Mug","sku":"MUG-1","quantity":2,"product":{"id":"gid://shopify/Product/300"},"variant":{"id":"gid://shopify/ProductVariant/301"},"originalUnitPriceSet":{"shopMoney":{"amount":"55.00"}},"originalTotalSet":{"shopMoney":{"amount":"110.00"}},"__parentId":"gid://shopify/Order/1001"}
{not json
{"id":"gid://shopify/Order/1002","name":"#1002","createdAt":"2024-05-01T23:59:59Z","currencyCode":"USD","totalPriceSet":{"shopMoney":{"amount":""}}}
{"id":"gid://shopify/Order/1003","name":"#1003","createdAt":"yesterday"}
{"id":"gid://shopify/Order/1004","name":"#1004","createdAt":"2024-05-02T00:00:00Z","currencyCode":"EUR"}
`

func (s *ProcessorTestSuite) TestProcess_Orders() {
	result, err := s.processor.Process(context.Background(), s.target, strings.NewReader(ordersJSONL), domain.EntityOrders)

	s.Require().NoError(err)
	s.Equal(int64(3), result.Rows[TypeOrder])
	s.Equal(int64(1), result.Rows[TypeLineItem])
	s.Equal(int64(4), result.Total())
	s.Equal(2, result.Skipped)

	s.Require().Len(s.writer.orders, 3)
	first := s.writer.orders[0]
	s.Equal("1001", first.PlatformID)
	s.Equal("brand-1", first.BrandID)
	s.Equal("shopify", first.Platform)
	s.Equal(time.Date(2024, 5, 1, 13, 30, 0, 0, time.UTC), first.CreatedAt)
	s.Equal(time.UTC, first.CreatedAt.Location())
	s.True(decimal.RequireFromString("120.50").Equal(first.TotalPrice))
	s.True(first.TotalShipping.IsZero())
	s.Require().NotNil(first.CustomerID)
	s.Equal("7", *first.CustomerID)

	s.True(s.writer.orders[1].TotalPrice.IsZero())

	s.Require().Len(s.writer.lineItems, 1)
	li := s.writer.lineItems[0]
	s.Equal("1001", li.OrderID)
	s.Equal("5001", li.LineItemID)
	s.Equal("301", *li.VariantID)
	s.Equal(2, li.Quantity)
}

func (s *ProcessorTestSuite) TestProcess_FlushesInBatches() {
	var sb strings.Builder
	for i := 0; i < 5; i++ {
		sb.WriteString(`{"id":"gid://shopify/Product/` + string(rune('1'+i)) + `","title":"P","createdAt":"2024-05-01T00:00:00Z","totalInventory":3}` + "\n")
	}

	result, err := s.processor.Process(context.Background(), s.target, strings.NewReader(sb.String()), domain.EntityProducts)

	s.Require().NoError(err)
	s.Equal(int64(5), result.Rows[TypeProduct])
	s.Equal(3, s.writer.calls)
}

func (s *ProcessorTestSuite) TestProcess_CustomerAddressGIDSuffix() {
	jsonl := `{"id":"gid://shopify/Customer/7","email":"a@example.com","numberOfOrders":"3","amountSpent":{"amount":"99.90"},"tags":["vip","wholesale"],"createdAt":"2023-01-01T00:00:00Z"}
{"id":"gid://shopify/MailingAddress/88?model_name=CustomerAddress","city":"Austin","country":"United States","__parentId":"gid://shopify/Customer/7"}
`
	result, err := s.processor.Process(context.Background(), s.target, strings.NewReader(jsonl), domain.EntityCustomers)

	s.Require().NoError(err)
	s.Equal(int64(2), result.Total())

	s.Require().Len(s.writer.customers, 1)
	c := s.writer.customers[0]
	s.Equal(3, c.OrdersCount)
	s.True(decimal.RequireFromString("99.90").Equal(c.TotalSpent))
	s.Equal("vip,wholesale", *c.Tags)

	s.Require().Len(s.writer.addresses, 1)
	s.Equal("88", s.writer.addresses[0].AddressID)
	s.Equal("7", s.writer.addresses[0].CustomerID)
}

func (s *ProcessorTestSuite) TestProcess_TypenameDiscriminator() {
	jsonl := `{"__typename":"ProductVariant","id":"gid://shopify/ProductVariant/301","title":"Blue","price":"19.99","inventoryQuantity":4,"__parentId":"gid://shopify/Product/300"}
`
	_, err := s.processor.Process(context.Background(), s.target, strings.NewReader(jsonl), domain.EntityProducts)

	s.Require().NoError(err)
	s.Require().Len(s.writer.variants, 1)
	s.Equal("300", s.writer.variants[0].ProductID)
	s.True(decimal.RequireFromString("19.99").Equal(s.writer.variants[0].Price))
}

func (s *ProcessorTestSuite) TestProcess_UnexpectedTypesSkipped() {
	jsonl := `{"id":"gid://shopify/Product/1","title":"P","createdAt":"2024-05-01T00:00:00Z"}
`
	result, err := s.processor.Process(context.Background(), s.target, strings.NewReader(jsonl), domain.EntityOrders)

	s.Require().NoError(err)
	s.Equal(1, result.Skipped)
	s.Empty(s.writer.products)
}

func (s *ProcessorTestSuite) TestProcess_WriteErrorAborts() {
	s.writer.failOn = TypeOrder

	_, err := s.processor.Process(context.Background(), s.target, strings.NewReader(ordersJSONL), domain.EntityOrders)

	s.Require().Error(err)
	s.Contains(err.Error(), "db down")
}

func (s *ProcessorTestSuite) TestDownloadAndProcess() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(ordersJSONL))
	}))
	defer server.Close()

	result, err := s.processor.DownloadAndProcess(context.Background(), s.target, server.URL+"/result.jsonl", domain.EntityOrders)

	s.Require().NoError(err)
	s.Equal(int64(4), result.Total())
}

func (s *ProcessorTestSuite) TestRefreshOrders_Paginates() {
	var queries []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphQLRequest
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&req))
		queries = append(queries, req.Variables["query"].(string))

		if req.Variables["after"] == nil {
			_, _ = w.Write([]byte(`{"data":{"orders":{"pageInfo":{"hasNextPage":true,"endCursor":"c1"},"edges":[
				{"node":{"id":"gid://shopify/Order/1","name":"#1","createdAt":"2024-05-01T10:00:00Z","lineItems":{"edges":[{"node":{"id":"gid://shopify/LineItem/11","title":"A","quantity":1}}]}}}
			]}}}`))
			return
		}
		s.Equal("c1", req.Variables["after"])
		_, _ = w.Write([]byte(`{"data":{"orders":{"pageInfo":{"hasNextPage":false,"endCursor":null},"edges":[
			{"node":{"id":"gid://shopify/Order/2","name":"#2","createdAt":"2024-05-01T11:00:00Z"}}
		]}}}`))
	}))
	defer server.Close()

	client := New(Config{APIVersion: "2024-10", MaxAttempts: 1, BaseURL: server.URL}, s.logger)
	processor := NewProcessor(client, s.writer, s.tx, 100, s.logger)

	from := time.Date(2024, 5, 1, 4, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	rows, err := processor.RefreshOrders(context.Background(), s.target, domain.Credentials{ShopDomain: "x", AccessToken: "y"}, from, to)

	s.Require().NoError(err)
	s.Equal(int64(3), rows)
	s.Equal(2, s.tx.calls)
	s.Len(s.writer.orders, 2)
	s.Require().Len(s.writer.lineItems, 1)
	s.Equal("1", s.writer.lineItems[0].OrderID)
	s.Require().Len(queries, 2)
	s.Equal("created_at:>='2024-05-01T04:00:00Z' created_at:<'2024-05-02T04:00:00Z'", queries[0])
}

func TestStripGID(t *testing.T) {
	tests := map[string]string{
		"gid://shopify/Order/1001":                                  "1001",
		"gid://shopify/MailingAddress/88?model_name=CustomerAddress": "88",
		"12345": "12345",
	}
	for in, want := range tests {
		if got := stripGID(in); got != want {
			t.Errorf("stripGID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGIDType(t *testing.T) {
	if got := gidType("gid://shopify/ProductVariant/1"); got != TypeProductVariant {
		t.Errorf("expected %s, got %s", TypeProductVariant, got)
	}
	if got := gidType("not-a-gid"); got != "" {
		t.Errorf("expected empty type, got %s", got)
	}
}
