package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fact rows are keyed by (brand_id, platform id[, child id]). Storage upserts
// on that key so the same export can be replayed without duplicates.

type Order struct {
	BrandID           string          `db:"brand_id"`
	ConnectionID      string          `db:"connection_id"`
	Platform          string          `db:"platform"`
	PlatformID        string          `db:"platform_id"`
	Name              string          `db:"name"`
	Email             *string         `db:"email"`
	CustomerID        *string         `db:"customer_id"`
	FinancialStatus   *string         `db:"financial_status"`
	FulfillmentStatus *string         `db:"fulfillment_status"`
	Currency          string          `db:"currency"`
	TotalPrice        decimal.Decimal `db:"total_price"`
	SubtotalPrice     decimal.Decimal `db:"subtotal_price"`
	TotalTax          decimal.Decimal `db:"total_tax"`
	TotalDiscounts    decimal.Decimal `db:"total_discounts"`
	TotalShipping     decimal.Decimal `db:"total_shipping"`
	CreatedAt         time.Time       `db:"created_at"`
	ProcessedAt       *time.Time      `db:"processed_at"`
	CancelledAt       *time.Time      `db:"cancelled_at"`
	PlatformUpdatedAt *time.Time      `db:"platform_updated_at"`
}

type LineItem struct {
	BrandID      string          `db:"brand_id"`
	ConnectionID string          `db:"connection_id"`
	OrderID      string          `db:"order_id"`
	LineItemID   string          `db:"line_item_id"`
	ProductID    *string         `db:"product_id"`
	VariantID    *string         `db:"variant_id"`
	Title        string          `db:"title"`
	SKU          *string         `db:"sku"`
	Quantity     int             `db:"quantity"`
	UnitPrice    decimal.Decimal `db:"unit_price"`
	TotalPrice   decimal.Decimal `db:"total_price"`
}

type Customer struct {
	BrandID           string          `db:"brand_id"`
	ConnectionID      string          `db:"connection_id"`
	PlatformID        string          `db:"platform_id"`
	Email             *string         `db:"email"`
	FirstName         *string         `db:"first_name"`
	LastName          *string         `db:"last_name"`
	Phone             *string         `db:"phone"`
	State             *string         `db:"state"`
	OrdersCount       int             `db:"orders_count"`
	TotalSpent        decimal.Decimal `db:"total_spent"`
	Tags              *string         `db:"tags"`
	CreatedAt         time.Time       `db:"created_at"`
	PlatformUpdatedAt *time.Time      `db:"platform_updated_at"`
}

type CustomerAddress struct {
	BrandID      string  `db:"brand_id"`
	ConnectionID string  `db:"connection_id"`
	CustomerID   string  `db:"customer_id"`
	AddressID    string  `db:"address_id"`
	Address1     *string `db:"address1"`
	City         *string `db:"city"`
	Province     *string `db:"province"`
	Country      *string `db:"country"`
	Zip          *string `db:"zip"`
}

type Product struct {
	BrandID           string     `db:"brand_id"`
	ConnectionID      string     `db:"connection_id"`
	PlatformID        string     `db:"platform_id"`
	Title             string     `db:"title"`
	Handle            *string    `db:"handle"`
	Vendor            *string    `db:"vendor"`
	ProductType       *string    `db:"product_type"`
	Status            *string    `db:"status"`
	TotalInventory    int        `db:"total_inventory"`
	CreatedAt         time.Time  `db:"created_at"`
	PlatformUpdatedAt *time.Time `db:"platform_updated_at"`
}

type ProductVariant struct {
	BrandID           string          `db:"brand_id"`
	ConnectionID      string          `db:"connection_id"`
	ProductID         string          `db:"product_id"`
	VariantID         string          `db:"variant_id"`
	Title             string          `db:"title"`
	SKU               *string         `db:"sku"`
	Price             decimal.Decimal `db:"price"`
	InventoryQuantity int             `db:"inventory_quantity"`
}

// FactTarget names who owns the rows being written.
type FactTarget struct {
	BrandID      string
	ConnectionID string
	Platform     string
}
