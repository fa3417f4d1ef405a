package content

import (
	"context"
	"fmt"
	"net/http"
)

// Batch methods understood by accounts custombatch.
const (
	BatchMethodGet    = "get"
	BatchMethodDelete = "delete"
)

type Account struct {
	ID           uint64        `json:"id,string"`
	Name         string        `json:"name"`
	WebsiteURL   string        `json:"websiteUrl,omitempty"`
	AdultContent bool          `json:"adultContent,omitempty"`
	Users        []AccountUser `json:"users,omitempty"`
}

type AccountUser struct {
	EmailAddress string `json:"emailAddress"`
	Admin        bool   `json:"admin"`
}

// HasUser reports whether email is already a user of the account.
func (a *Account) HasUser(email string) bool {
	for _, u := range a.Users {
		if u.EmailAddress == email {
			return true
		}
	}
	return false
}

type AccountsCustomBatchRequest struct {
	Entries []AccountsBatchRequestEntry `json:"entries"`
}

// AccountsBatchRequestEntry is one sub-request. BatchID correlates it with its response entry.
type AccountsBatchRequestEntry struct {
	BatchID    int    `json:"batchId"`
	MerchantID uint64 `json:"merchantId,string"`
	AccountID  uint64 `json:"accountId,string"`
	Method     string `json:"method"`
}

type AccountsCustomBatchResponse struct {
	Entries []AccountsBatchResponseEntry `json:"entries"`
}

type AccountsBatchResponseEntry struct {
	BatchID int      `json:"batchId"`
	Account *Account `json:"account,omitempty"`
	Errors  *Errors  `json:"errors,omitempty"`
}

// Errors is the per-entry error list of a custombatch response.
type Errors struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Errors  []ErrorDetail `json:"errors,omitempty"`
}

type ErrorDetail struct {
	Domain  string `json:"domain,omitempty"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type AccountsService struct{ resource }

// Get reads accountID as seen from the configured merchant.
func (s *AccountsService) Get(ctx context.Context, accountID uint64) (*Account, error) {
	return getOne[Account](ctx, s.resource, "accounts", accountID)
}

// Update replaces the account resource.
func (s *AccountsService) Update(ctx context.Context, account *Account) (*Account, error) {
	var out Account
	if err := s.r.SendJSON(ctx, http.MethodPut, s.path("accounts", formatID(account.ID)), account, &out); err != nil {
		return nil, fmt.Errorf("update account %d: %w", account.ID, err)
	}
	return &out, nil
}

// CustomBatch sends several account sub-requests in one call.
func (s *AccountsService) CustomBatch(ctx context.Context, req AccountsCustomBatchRequest) (*AccountsCustomBatchResponse, error) {
	var out AccountsCustomBatchResponse
	if err := s.r.SendJSON(ctx, http.MethodPost, "accounts/batch", req, &out); err != nil {
		return nil, fmt.Errorf("accounts custombatch: %w", err)
	}
	return &out, nil
}

// DeleteBatch builds the custombatch request deleting accountIDs, numbering
// entries 1..n in argument order.
func (s *AccountsService) DeleteBatch(accountIDs ...uint64) AccountsCustomBatchRequest {
	req := AccountsCustomBatchRequest{Entries: make([]AccountsBatchRequestEntry, 0, len(accountIDs))}
	for i, id := range accountIDs {
		req.Entries = append(req.Entries, AccountsBatchRequestEntry{
			BatchID:    i + 1,
			MerchantID: s.merchantID,
			AccountID:  id,
			Method:     BatchMethodDelete,
		})
	}
	return req
}
