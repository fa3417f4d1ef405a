// Package content holds the merchant API resource models and one service per
// resource. Services only build paths and request bodies; transport concerns
// live in the client package.
package content

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Requester is the part of *client.Client the services need.
type Requester interface {
	GetJSON(ctx context.Context, path string, query url.Values, out any) error
	SendJSON(ctx context.Context, method, path string, in, out any) error
}

// Service groups the resource services for one merchant.
type Service struct {
	MerchantID uint64

	Orders           *OrdersService
	Accounts         *AccountsService
	AccountStatuses  *AccountStatusesService
	AccountTax       *AccountTaxService
	ShippingSettings *ShippingSettingsService
	Products         *ProductsService
}

// NewService binds every resource service to r and merchantID.
func NewService(r Requester, merchantID uint64) *Service {
	base := resource{r: r, merchantID: merchantID}
	return &Service{
		MerchantID:       merchantID,
		Orders:           &OrdersService{base},
		Accounts:         &AccountsService{base},
		AccountStatuses:  &AccountStatusesService{base},
		AccountTax:       &AccountTaxService{base},
		ShippingSettings: &ShippingSettingsService{base},
		Products:         &ProductsService{base},
	}
}

type resource struct {
	r          Requester
	merchantID uint64
}

// path joins the merchant ID and the given segments, escaping each segment.
func (b resource) path(segments ...string) string {
	p := strconv.FormatUint(b.merchantID, 10)
	for _, s := range segments {
		p += "/" + url.PathEscape(s)
	}
	return p
}

// listQuery builds the maxResults/pageToken query shared by every listing.
func listQuery(pageToken string, pageSize int) url.Values {
	q := url.Values{}
	if pageSize > 0 {
		q.Set("maxResults", strconv.Itoa(pageSize))
	}
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}
	return q
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// ParseID parses a decimal account or merchant ID.
func ParseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid ID %q", s)
	}
	return id, nil
}
