package content

import (
	"context"

	"github.com/Sternrassler/merchant-api-samples/pkg/pagination"
)

type AccountTax struct {
	AccountID uint64           `json:"accountId,string"`
	Rules     []AccountTaxRule `json:"rules,omitempty"`
}

type AccountTaxRule struct {
	Country       string `json:"country"`
	LocationID    string `json:"locationId"`
	RatePercent   string `json:"ratePercent,omitempty"`
	ShippingTaxed bool   `json:"shippingTaxed"`
	UseGlobalRate bool   `json:"useGlobalRate"`
}

type AccountTaxService struct{ resource }

func (s *AccountTaxService) Get(ctx context.Context, accountID uint64) (*AccountTax, error) {
	return getOne[AccountTax](ctx, s.resource, "accounttax", accountID)
}

// Pages lists the tax settings of every sub-account. Multi-client accounts only.
func (s *AccountTaxService) Pages() pagination.FetchFunc[AccountTax] {
	return func(ctx context.Context, pageToken string, pageSize int) (*pagination.Page[AccountTax], error) {
		return listPage[AccountTax](ctx, s.resource, "accounttax", pageToken, pageSize)
	}
}
