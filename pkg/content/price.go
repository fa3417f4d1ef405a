package content

import (
	"github.com/shopspring/decimal"
)

// Price is a monetary amount as the API encodes it: a decimal string and an ISO 4217 code.
type Price struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// NewPrice formats amount with two decimal places.
func NewPrice(amount decimal.Decimal, currency string) *Price {
	return &Price{Value: amount.StringFixed(2), Currency: currency}
}

// Amount parses Value. Nil or malformed prices are zero.
func (p *Price) Amount() decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(p.Value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// IsZero reports whether p is nil or carries a zero amount.
func (p *Price) IsZero() bool {
	return p == nil || p.Amount().IsZero()
}

// String renders "value currency".
func (p *Price) String() string {
	if p == nil {
		return ""
	}
	return p.Value + " " + p.Currency
}
