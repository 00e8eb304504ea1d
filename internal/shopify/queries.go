package shopify

import (
	"fmt"
	"strings"
	"time"

	"commerce_sync/internal/domain"
)

// ExportFilter narrows a bulk export. Zero times are not applied.
type ExportFilter struct {
	UpdatedSince time.Time
	CreatedFrom  time.Time
	CreatedTo    time.Time
}

func (f ExportFilter) search() string {
	var parts []string
	if !f.UpdatedSince.IsZero() {
		parts = append(parts, fmt.Sprintf("updated_at:>='%s'", f.UpdatedSince.UTC().Format(time.RFC3339)))
	}
	if !f.CreatedFrom.IsZero() {
		parts = append(parts, fmt.Sprintf("created_at:>='%s'", f.CreatedFrom.UTC().Format(time.RFC3339)))
	}
	if !f.CreatedTo.IsZero() {
		parts = append(parts, fmt.Sprintf("created_at:<'%s'", f.CreatedTo.UTC().Format(time.RFC3339)))
	}
	return strings.Join(parts, " ")
}

const moneyFields = `shopMoney { amount }`

const orderFields = `
			id
			name
			email
			createdAt
			updatedAt
			processedAt
			cancelledAt
			displayFinancialStatus
			displayFulfillmentStatus
			currencyCode
			customer { id }
			totalPriceSet { ` + moneyFields + ` }
			subtotalPriceSet { ` + moneyFields + ` }
			totalTaxSet { ` + moneyFields + ` }
			totalDiscountsSet { ` + moneyFields + ` }
			totalShippingPriceSet { ` + moneyFields + ` }`

const lineItemFields = `
					id
					title
					sku
					quantity
					product { id }
					variant { id }
					originalUnitPriceSet { ` + moneyFields + ` }
					originalTotalSet { ` + moneyFields + ` }`

const customerFields = `
			id
			email
			firstName
			lastName
			phone
			state
			numberOfOrders
			amountSpent { amount }
			tags
			createdAt
			updatedAt`

const addressFields = `
					id
					address1
					city
					province
					country
					zip`

const productFields = `
			id
			title
			handle
			vendor
			productType
			status
			totalInventory
			createdAt
			updatedAt`

const variantFields = `
					id
					title
					sku
					price
					inventoryQuantity`

// BulkQuery builds the bulk export document for entity. Nested connections
// become child JSONL lines carrying __parentId.
func BulkQuery(entity domain.Entity, filter ExportFilter) (string, error) {
	search := filter.search()

	switch entity {
	case domain.EntityOrders:
		return fmt.Sprintf(`{
	orders(query: %q) {
		edges { node {%s
			lineItems { edges { node {%s
			} } }
		} }
	}
}`, search, orderFields, lineItemFields), nil
	case domain.EntityCustomers:
		return fmt.Sprintf(`{
	customers(query: %q) {
		edges { node {%s
			addressesV2 { edges { node {%s
			} } }
		} }
	}
}`, search, customerFields, addressFields), nil
	case domain.EntityProducts:
		return fmt.Sprintf(`{
	products(query: %q) {
		edges { node {%s
			variants { edges { node {%s
			} } }
		} }
	}
}`, search, productFields, variantFields), nil
	}
	return "", fmt.Errorf("no bulk query for entity %q", entity)
}

// ordersPageQuery is the paginated, non-bulk order fetch used for narrow
// date-range refreshes.
const ordersPageQuery = `query($query: String!, $first: Int!, $after: String) {
	orders(first: $first, after: $after, query: $query, sortKey: CREATED_AT) {
		pageInfo { hasNextPage endCursor }
		edges { node {` + orderFields + `
			lineItems(first: 250) { edges { node {` + lineItemFields + `
			} } }
		} }
	}
}`
