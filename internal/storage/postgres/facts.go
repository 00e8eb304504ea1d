package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"commerce_sync/internal/domain"
)

const maxParams = 65535

// FactStore upserts synced commerce records. Every write refreshes
// updated_at, which the staleness detector reads as the sync time.
type FactStore struct {
	db *sqlx.DB
}

func NewFactStore(db *sqlx.DB) *FactStore {
	return &FactStore{db: db}
}

type upsertSpec struct {
	table    string
	columns  []string
	conflict []string
}

func (u upsertSpec) query(rows int) string {
	n := len(u.columns)

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(u.table)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(u.columns, ", "))
	sb.WriteString(") VALUES ")

	for i := 0; i < rows; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j := 0; j < n; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("$")
			sb.WriteString(strconv.Itoa(i*n + j + 1))
		}
		sb.WriteString(")")
	}

	sb.WriteString(" ON CONFLICT (")
	sb.WriteString(strings.Join(u.conflict, ", "))
	sb.WriteString(") DO UPDATE SET ")

	key := make(map[string]bool, len(u.conflict))
	for _, c := range u.conflict {
		key[c] = true
	}
	for _, c := range u.columns {
		if key[c] {
			continue
		}
		sb.WriteString(c)
		sb.WriteString(" = EXCLUDED.")
		sb.WriteString(c)
		sb.WriteString(", ")
	}
	sb.WriteString("updated_at = now()")

	return sb.String()
}

// exec writes rows in chunks that stay under the bind parameter limit.
func (u upsertSpec) exec(ctx context.Context, db *sqlx.DB, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	chunk := maxParams / len(u.columns)

	exec := GetExecutor(ctx, db)
	for start := 0; start < len(rows); start += chunk {
		end := min(start+chunk, len(rows))
		args := make([]interface{}, 0, (end-start)*len(u.columns))
		for _, r := range rows[start:end] {
			args = append(args, r...)
		}
		if _, err := exec.ExecContext(ctx, u.query(end-start), args...); err != nil {
			return err
		}
	}
	return nil
}

// dedupe keeps the last occurrence of each key, in first-seen order. A single
// INSERT ... ON CONFLICT cannot touch the same row twice.
func dedupe[T any](rows []T, key func(T) string) []T {
	idx := make(map[string]int, len(rows))
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		k := key(r)
		if i, ok := idx[k]; ok {
			out[i] = r
			continue
		}
		idx[k] = len(out)
		out = append(out, r)
	}
	return out
}

var orderUpsert = upsertSpec{
	table: "orders",
	columns: []string{
		"brand_id", "connection_id", "platform", "platform_id", "name", "email",
		"customer_id", "financial_status", "fulfillment_status", "currency",
		"total_price", "subtotal_price", "total_tax", "total_discounts",
		"total_shipping", "created_at", "processed_at", "cancelled_at",
		"platform_updated_at",
	},
	conflict: []string{"brand_id", "platform_id"},
}

func (s *FactStore) UpsertOrders(ctx context.Context, orders []domain.Order) (int64, error) {
	orders = dedupe(orders, func(o domain.Order) string { return o.BrandID + "|" + o.PlatformID })
	rows := make([][]interface{}, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []interface{}{
			o.BrandID, o.ConnectionID, o.Platform, o.PlatformID, o.Name, o.Email,
			o.CustomerID, o.FinancialStatus, o.FulfillmentStatus, o.Currency,
			o.TotalPrice, o.SubtotalPrice, o.TotalTax, o.TotalDiscounts,
			o.TotalShipping, o.CreatedAt, o.ProcessedAt, o.CancelledAt,
			o.PlatformUpdatedAt,
		})
	}
	if err := orderUpsert.exec(ctx, s.db, rows); err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

var lineItemUpsert = upsertSpec{
	table: "order_line_items",
	columns: []string{
		"brand_id", "connection_id", "order_id", "line_item_id", "product_id",
		"variant_id", "title", "sku", "quantity", "unit_price", "total_price",
	},
	conflict: []string{"brand_id", "order_id", "line_item_id"},
}

func (s *FactStore) UpsertLineItems(ctx context.Context, items []domain.LineItem) (int64, error) {
	items = dedupe(items, func(li domain.LineItem) string {
		return li.BrandID + "|" + li.OrderID + "|" + li.LineItemID
	})
	rows := make([][]interface{}, 0, len(items))
	for _, li := range items {
		rows = append(rows, []interface{}{
			li.BrandID, li.ConnectionID, li.OrderID, li.LineItemID, li.ProductID,
			li.VariantID, li.Title, li.SKU, li.Quantity, li.UnitPrice, li.TotalPrice,
		})
	}
	if err := lineItemUpsert.exec(ctx, s.db, rows); err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

var customerUpsert = upsertSpec{
	table: "customers",
	columns: []string{
		"brand_id", "connection_id", "platform_id", "email", "first_name",
		"last_name", "phone", "state", "orders_count", "total_spent", "tags",
		"created_at", "platform_updated_at",
	},
	conflict: []string{"brand_id", "platform_id"},
}

func (s *FactStore) UpsertCustomers(ctx context.Context, customers []domain.Customer) (int64, error) {
	customers = dedupe(customers, func(c domain.Customer) string { return c.BrandID + "|" + c.PlatformID })
	rows := make([][]interface{}, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, []interface{}{
			c.BrandID, c.ConnectionID, c.PlatformID, c.Email, c.FirstName,
			c.LastName, c.Phone, c.State, c.OrdersCount, c.TotalSpent, c.Tags,
			c.CreatedAt, c.PlatformUpdatedAt,
		})
	}
	if err := customerUpsert.exec(ctx, s.db, rows); err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

var addressUpsert = upsertSpec{
	table: "customer_addresses",
	columns: []string{
		"brand_id", "connection_id", "customer_id", "address_id", "address1",
		"city", "province", "country", "zip",
	},
	conflict: []string{"brand_id", "customer_id", "address_id"},
}

func (s *FactStore) UpsertAddresses(ctx context.Context, addrs []domain.CustomerAddress) (int64, error) {
	addrs = dedupe(addrs, func(a domain.CustomerAddress) string {
		return a.BrandID + "|" + a.CustomerID + "|" + a.AddressID
	})
	rows := make([][]interface{}, 0, len(addrs))
	for _, a := range addrs {
		rows = append(rows, []interface{}{
			a.BrandID, a.ConnectionID, a.CustomerID, a.AddressID, a.Address1,
			a.City, a.Province, a.Country, a.Zip,
		})
	}
	if err := addressUpsert.exec(ctx, s.db, rows); err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

var productUpsert = upsertSpec{
	table: "products",
	columns: []string{
		"brand_id", "connection_id", "platform_id", "title", "handle", "vendor",
		"product_type", "status", "total_inventory", "created_at",
		"platform_updated_at",
	},
	conflict: []string{"brand_id", "platform_id"},
}

func (s *FactStore) UpsertProducts(ctx context.Context, products []domain.Product) (int64, error) {
	products = dedupe(products, func(p domain.Product) string { return p.BrandID + "|" + p.PlatformID })
	rows := make([][]interface{}, 0, len(products))
	for _, p := range products {
		rows = append(rows, []interface{}{
			p.BrandID, p.ConnectionID, p.PlatformID, p.Title, p.Handle, p.Vendor,
			p.ProductType, p.Status, p.TotalInventory, p.CreatedAt,
			p.PlatformUpdatedAt,
		})
	}
	if err := productUpsert.exec(ctx, s.db, rows); err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

var variantUpsert = upsertSpec{
	table: "product_variants",
	columns: []string{
		"brand_id", "connection_id", "product_id", "variant_id", "title", "sku",
		"price", "inventory_quantity",
	},
	conflict: []string{"brand_id", "product_id", "variant_id"},
}

func (s *FactStore) UpsertVariants(ctx context.Context, variants []domain.ProductVariant) (int64, error) {
	variants = dedupe(variants, func(v domain.ProductVariant) string {
		return v.BrandID + "|" + v.ProductID + "|" + v.VariantID
	})
	rows := make([][]interface{}, 0, len(variants))
	for _, v := range variants {
		rows = append(rows, []interface{}{
			v.BrandID, v.ConnectionID, v.ProductID, v.VariantID, v.Title, v.SKU,
			v.Price, v.InventoryQuantity,
		})
	}
	if err := variantUpsert.exec(ctx, s.db, rows); err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}
