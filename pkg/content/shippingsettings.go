package content

import (
	"context"

	"github.com/Sternrassler/merchant-api-samples/pkg/pagination"
)

type ShippingSettings struct {
	AccountID        uint64            `json:"accountId,string"`
	Services         []ShippingService `json:"services,omitempty"`
	PostalCodeGroups []PostalCodeGroup `json:"postalCodeGroups,omitempty"`
}

type ShippingService struct {
	Name            string        `json:"name"`
	Active          bool          `json:"active"`
	Currency        string        `json:"currency"`
	DeliveryCountry string        `json:"deliveryCountry"`
	DeliveryTime    *DeliveryTime `json:"deliveryTime,omitempty"`
	RateGroups      []RateGroup   `json:"rateGroups,omitempty"`
}

type DeliveryTime struct {
	MinTransitTimeInDays int `json:"minTransitTimeInDays"`
	MaxTransitTimeInDays int `json:"maxTransitTimeInDays"`
}

type RateGroup struct {
	Name                     string     `json:"name,omitempty"`
	ApplicableShippingLabels []string   `json:"applicableShippingLabels,omitempty"`
	SingleValue              *RateValue `json:"singleValue,omitempty"`
}

// RateValue is one of a flat rate, a percentage of the price, a carrier rate or no shipping.
type RateValue struct {
	FlatRate        *Price `json:"flatRate,omitempty"`
	PricePercentage string `json:"pricePercentage,omitempty"`
	CarrierRateName string `json:"carrierRateName,omitempty"`
	NoShipping      bool   `json:"noShipping,omitempty"`
}

type PostalCodeGroup struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

type ShippingSettingsService struct{ resource }

func (s *ShippingSettingsService) Get(ctx context.Context, accountID uint64) (*ShippingSettings, error) {
	return getOne[ShippingSettings](ctx, s.resource, "shippingsettings", accountID)
}

// Pages lists the shipping settings of every sub-account. Multi-client accounts only.
func (s *ShippingSettingsService) Pages() pagination.FetchFunc[ShippingSettings] {
	return func(ctx context.Context, pageToken string, pageSize int) (*pagination.Page[ShippingSettings], error) {
		return listPage[ShippingSettings](ctx, s.resource, "shippingsettings", pageToken, pageSize)
	}
}
