package shopify

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"commerce_sync/internal/domain"
)

// Record types as they appear in gid://shopify/<Type>/<id>.
const (
	TypeOrder          = "Order"
	TypeLineItem       = "LineItem"
	TypeCustomer       = "Customer"
	TypeMailingAddress = "MailingAddress"
	TypeProduct        = "Product"
	TypeProductVariant = "ProductVariant"
)

// gidType extracts <Type> from gid://shopify/<Type>/<id>.
func gidType(gid string) string {
	rest, ok := strings.CutPrefix(gid, "gid://shopify/")
	if !ok {
		return ""
	}
	typ, _, _ := strings.Cut(rest, "/")
	return typ
}

// stripGID returns the numeric id of a gid, dropping any query suffix such as
// ?model_name=CustomerAddress.
func stripGID(gid string) string {
	if i := strings.IndexByte(gid, '?'); i >= 0 {
		gid = gid[:i]
	}
	if i := strings.LastIndexByte(gid, '/'); i >= 0 {
		return gid[i+1:]
	}
	return gid
}

func stripGIDPtr(gid *string) *string {
	if gid == nil || *gid == "" {
		return nil
	}
	id := stripGID(*gid)
	return &id
}

type money struct {
	ShopMoney struct {
		Amount string `json:"amount"`
	} `json:"shopMoney"`
}

type ref struct {
	ID string `json:"id"`
}

func (r *ref) id() *string {
	if r == nil {
		return nil
	}
	return stripGIDPtr(&r.ID)
}

// amount parses a decimal string, zero when missing or invalid.
func amount(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func moneyAmount(m *money) decimal.Decimal {
	if m == nil {
		return decimal.Zero
	}
	return amount(m.ShopMoney.Amount)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func parseTimePtr(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := parseTime(*s)
	if err != nil {
		return nil
	}
	return &t
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

type orderNode struct {
	ID                       string  `json:"id"`
	Name                     string  `json:"name"`
	Email                    *string `json:"email"`
	CreatedAt                string  `json:"createdAt"`
	UpdatedAt                *string `json:"updatedAt"`
	ProcessedAt              *string `json:"processedAt"`
	CancelledAt              *string `json:"cancelledAt"`
	DisplayFinancialStatus   *string `json:"displayFinancialStatus"`
	DisplayFulfillmentStatus *string `json:"displayFulfillmentStatus"`
	CurrencyCode             string  `json:"currencyCode"`
	Customer                 *ref    `json:"customer"`
	TotalPriceSet            *money  `json:"totalPriceSet"`
	SubtotalPriceSet         *money  `json:"subtotalPriceSet"`
	TotalTaxSet              *money  `json:"totalTaxSet"`
	TotalDiscountsSet        *money  `json:"totalDiscountsSet"`
	TotalShippingPriceSet    *money  `json:"totalShippingPriceSet"`
	LineItems                *struct {
		Edges []struct {
			Node lineItemNode `json:"node"`
		} `json:"edges"`
	} `json:"lineItems"`
}

func (n *orderNode) toDomain(t domain.FactTarget) (domain.Order, error) {
	createdAt, err := parseTime(n.CreatedAt)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order %s: created_at: %w", n.ID, err)
	}
	return domain.Order{
		BrandID:           t.BrandID,
		ConnectionID:      t.ConnectionID,
		Platform:          t.Platform,
		PlatformID:        stripGID(n.ID),
		Name:              n.Name,
		Email:             nonEmpty(n.Email),
		CustomerID:        n.Customer.id(),
		FinancialStatus:   n.DisplayFinancialStatus,
		FulfillmentStatus: n.DisplayFulfillmentStatus,
		Currency:          n.CurrencyCode,
		TotalPrice:        moneyAmount(n.TotalPriceSet),
		SubtotalPrice:     moneyAmount(n.SubtotalPriceSet),
		TotalTax:          moneyAmount(n.TotalTaxSet),
		TotalDiscounts:    moneyAmount(n.TotalDiscountsSet),
		TotalShipping:     moneyAmount(n.TotalShippingPriceSet),
		CreatedAt:         createdAt,
		ProcessedAt:       parseTimePtr(n.ProcessedAt),
		CancelledAt:       parseTimePtr(n.CancelledAt),
		PlatformUpdatedAt: parseTimePtr(n.UpdatedAt),
	}, nil
}

type lineItemNode struct {
	ID                   string  `json:"id"`
	ParentID             string  `json:"__parentId"`
	Title                string  `json:"title"`
	SKU                  *string `json:"sku"`
	Quantity             int     `json:"quantity"`
	Product              *ref    `json:"product"`
	Variant              *ref    `json:"variant"`
	OriginalUnitPriceSet *money  `json:"originalUnitPriceSet"`
	OriginalTotalSet     *money  `json:"originalTotalSet"`
}

func (n *lineItemNode) toDomain(t domain.FactTarget, orderGID string) (domain.LineItem, error) {
	if orderGID == "" {
		return domain.LineItem{}, fmt.Errorf("line item %s: missing parent order", n.ID)
	}
	return domain.LineItem{
		BrandID:      t.BrandID,
		ConnectionID: t.ConnectionID,
		OrderID:      stripGID(orderGID),
		LineItemID:   stripGID(n.ID),
		ProductID:    n.Product.id(),
		VariantID:    n.Variant.id(),
		Title:        n.Title,
		SKU:          nonEmpty(n.SKU),
		Quantity:     n.Quantity,
		UnitPrice:    moneyAmount(n.OriginalUnitPriceSet),
		TotalPrice:   moneyAmount(n.OriginalTotalSet),
	}, nil
}

type customerNode struct {
	ID             string    `json:"id"`
	Email          *string   `json:"email"`
	FirstName      *string   `json:"firstName"`
	LastName       *string   `json:"lastName"`
	Phone          *string   `json:"phone"`
	State          *string   `json:"state"`
	NumberOfOrders flexCount `json:"numberOfOrders"`
	AmountSpent    *struct {
		Amount string `json:"amount"`
	} `json:"amountSpent"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt *string  `json:"updatedAt"`
}

func (n *customerNode) toDomain(t domain.FactTarget) (domain.Customer, error) {
	createdAt, err := parseTime(n.CreatedAt)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("customer %s: created_at: %w", n.ID, err)
	}
	c := domain.Customer{
		BrandID:           t.BrandID,
		ConnectionID:      t.ConnectionID,
		PlatformID:        stripGID(n.ID),
		Email:             nonEmpty(n.Email),
		FirstName:         nonEmpty(n.FirstName),
		LastName:          nonEmpty(n.LastName),
		Phone:             nonEmpty(n.Phone),
		State:             n.State,
		OrdersCount:       int(n.NumberOfOrders),
		TotalSpent:        decimal.Zero,
		CreatedAt:         createdAt,
		PlatformUpdatedAt: parseTimePtr(n.UpdatedAt),
	}
	if n.AmountSpent != nil {
		c.TotalSpent = amount(n.AmountSpent.Amount)
	}
	if len(n.Tags) > 0 {
		tags := strings.Join(n.Tags, ",")
		c.Tags = &tags
	}
	return c, nil
}

type addressNode struct {
	ID       string  `json:"id"`
	ParentID string  `json:"__parentId"`
	Address1 *string `json:"address1"`
	City     *string `json:"city"`
	Province *string `json:"province"`
	Country  *string `json:"country"`
	Zip      *string `json:"zip"`
}

func (n *addressNode) toDomain(t domain.FactTarget) (domain.CustomerAddress, error) {
	if n.ParentID == "" {
		return domain.CustomerAddress{}, fmt.Errorf("address %s: missing parent customer", n.ID)
	}
	return domain.CustomerAddress{
		BrandID:      t.BrandID,
		ConnectionID: t.ConnectionID,
		CustomerID:   stripGID(n.ParentID),
		AddressID:    stripGID(n.ID),
		Address1:     nonEmpty(n.Address1),
		City:         nonEmpty(n.City),
		Province:     nonEmpty(n.Province),
		Country:      nonEmpty(n.Country),
		Zip:          nonEmpty(n.Zip),
	}, nil
}

type productNode struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Handle         *string `json:"handle"`
	Vendor         *string `json:"vendor"`
	ProductType    *string `json:"productType"`
	Status         *string `json:"status"`
	TotalInventory int     `json:"totalInventory"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      *string `json:"updatedAt"`
}

func (n *productNode) toDomain(t domain.FactTarget) (domain.Product, error) {
	createdAt, err := parseTime(n.CreatedAt)
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %s: created_at: %w", n.ID, err)
	}
	return domain.Product{
		BrandID:           t.BrandID,
		ConnectionID:      t.ConnectionID,
		PlatformID:        stripGID(n.ID),
		Title:             n.Title,
		Handle:            nonEmpty(n.Handle),
		Vendor:            nonEmpty(n.Vendor),
		ProductType:       nonEmpty(n.ProductType),
		Status:            n.Status,
		TotalInventory:    n.TotalInventory,
		CreatedAt:         createdAt,
		PlatformUpdatedAt: parseTimePtr(n.UpdatedAt),
	}, nil
}

type variantNode struct {
	ID                string  `json:"id"`
	ParentID          string  `json:"__parentId"`
	Title             string  `json:"title"`
	SKU               *string `json:"sku"`
	Price             string  `json:"price"`
	InventoryQuantity int     `json:"inventoryQuantity"`
}

func (n *variantNode) toDomain(t domain.FactTarget) (domain.ProductVariant, error) {
	if n.ParentID == "" {
		return domain.ProductVariant{}, fmt.Errorf("variant %s: missing parent product", n.ID)
	}
	return domain.ProductVariant{
		BrandID:           t.BrandID,
		ConnectionID:      t.ConnectionID,
		ProductID:         stripGID(n.ParentID),
		VariantID:         stripGID(n.ID),
		Title:             n.Title,
		SKU:               nonEmpty(n.SKU),
		Price:             amount(n.Price),
		InventoryQuantity: n.InventoryQuantity,
	}, nil
}
