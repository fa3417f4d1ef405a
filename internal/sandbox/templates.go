package sandbox

import (
	"github.com/Sternrassler/merchant-api-samples/pkg/content"
	"github.com/shopspring/decimal"
)

type templateItem struct {
	offerID   string
	title     string
	brand     string
	unitPrice decimal.Decimal
	quantity  int
	carrier   string
	method    string
	minDays   int
	maxDays   int
}

type orderTemplate struct {
	items        []templateItem
	shippingCost decimal.Decimal
	taxRate      decimal.Decimal
}

var (
	usdShipping = decimal.RequireFromString("5.99")
	usTaxRate   = decimal.RequireFromString("0.0875")
)

// templates mirrors the sandbox test-order templates.
var templates = map[string]orderTemplate{
	"template1": {
		items: []templateItem{
			{
				offerID: "tshirt-blue-m", title: "Blue T-Shirt (M)", brand: "Google",
				unitPrice: decimal.RequireFromString("19.99"), quantity: 3,
				carrier: "FedEx", method: "Standard", minDays: 3, maxDays: 7,
			},
			{
				offerID: "mug-white", title: "White Coffee Mug", brand: "Google",
				unitPrice: decimal.RequireFromString("9.50"), quantity: 3,
				carrier: "UPS", method: "Ground", minDays: 2, maxDays: 5,
			},
		},
		shippingCost: usdShipping,
		taxRate:      usTaxRate,
	},
	"template2": {
		items: []templateItem{
			{
				offerID: "headphones-black", title: "Black Headphones", brand: "Google",
				unitPrice: decimal.RequireFromString("89.00"), quantity: 1,
				carrier: "USPS", method: "Priority", minDays: 1, maxDays: 3,
			},
		},
		shippingCost: decimal.Zero,
		taxRate:      usTaxRate,
	},
}

func (it templateItem) lineItem(id string) content.LineItem {
	return content.LineItem{
		ID: id,
		Product: &content.Product{
			ID:              "online:en:US:" + it.offerID,
			OfferID:         it.offerID,
			Title:           it.title,
			Brand:           it.brand,
			Condition:       "new",
			ContentLanguage: "en",
			TargetCountry:   "US",
			Price:           content.NewPrice(it.unitPrice, "USD"),
		},
		ShippingDetails: &content.ShippingDetails{
			Method: &content.ShippingMethod{
				Carrier:          it.carrier,
				MethodName:       it.method,
				MinDaysInTransit: it.minDays,
				MaxDaysInTransit: it.maxDays,
			},
		},
		ReturnInfo:      &content.ReturnInfo{IsReturnable: true, DaysToReturn: 30, PolicyURL: "https://example.com/returns"},
		QuantityOrdered: it.quantity,
		QuantityPending: it.quantity,
	}
}
