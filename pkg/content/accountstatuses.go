package content

import (
	"context"

	"github.com/Sternrassler/merchant-api-samples/pkg/pagination"
)

type AccountStatus struct {
	AccountID          string                  `json:"accountId"`
	WebsiteClaimed     bool                    `json:"websiteClaimed"`
	AccountLevelIssues []AccountLevelIssue     `json:"accountLevelIssues,omitempty"`
	Products           []AccountStatusProducts `json:"products,omitempty"`
}

type AccountLevelIssue struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Country          string `json:"country,omitempty"`
	Severity         string `json:"severity"`
	Destination      string `json:"destination,omitempty"`
	Detail           string `json:"detail,omitempty"`
	DocumentationURL string `json:"documentation,omitempty"`
}

type AccountStatusProducts struct {
	Channel     string                   `json:"channel"`
	Destination string                   `json:"destination"`
	Country     string                   `json:"country"`
	Statistics  *AccountStatusStatistics `json:"statistics,omitempty"`
}

type AccountStatusStatistics struct {
	Active      int64 `json:"active,string"`
	Pending     int64 `json:"pending,string"`
	Disapproved int64 `json:"disapproved,string"`
	Expiring    int64 `json:"expiring,string"`
}

type AccountStatusesService struct{ resource }

func (s *AccountStatusesService) Get(ctx context.Context, accountID uint64) (*AccountStatus, error) {
	return getOne[AccountStatus](ctx, s.resource, "accountstatuses", accountID)
}

// Pages lists the statuses of every sub-account. Multi-client accounts only.
func (s *AccountStatusesService) Pages() pagination.FetchFunc[AccountStatus] {
	return func(ctx context.Context, pageToken string, pageSize int) (*pagination.Page[AccountStatus], error) {
		return listPage[AccountStatus](ctx, s.resource, "accountstatuses", pageToken, pageSize)
	}
}
