package sandbox

import (
	"errors"
	"net/http"

	"github.com/Sternrassler/merchant-api-samples/pkg/content"
)

func (s *Store) GetAccount(merchantID, accountID uint64) (*content.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.lookup(merchantID, accountID)
	if err != nil {
		return nil, err
	}
	return cloneAccount(&m.account), nil
}

// UpdateAccount replaces the mutable account fields and returns the stored result.
func (s *Store) UpdateAccount(merchantID, accountID uint64, in *content.Account) (*content.Account, error) {
	if in.ID != 0 && in.ID != accountID {
		return nil, invalid("Account ID %d does not match the request path.", in.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.lookup(merchantID, accountID)
	if err != nil {
		return nil, err
	}
	if in.Name == "" {
		return nil, invalid("Account name is required.")
	}
	m.account.Name = in.Name
	m.account.WebsiteURL = in.WebsiteURL
	m.account.AdultContent = in.AdultContent
	m.account.Users = append([]content.AccountUser(nil), in.Users...)
	return cloneAccount(&m.account), nil
}

// CustomBatch runs each entry independently; failures are reported per entry.
func (s *Store) CustomBatch(req *content.AccountsCustomBatchRequest) *content.AccountsCustomBatchResponse {
	resp := &content.AccountsCustomBatchResponse{
		Entries: make([]content.AccountsBatchResponseEntry, 0, len(req.Entries)),
	}
	for _, e := range req.Entries {
		out := content.AccountsBatchResponseEntry{BatchID: e.BatchID}
		var err error
		switch e.Method {
		case content.BatchMethodGet:
			out.Account, err = s.GetAccount(e.MerchantID, e.AccountID)
		case content.BatchMethodDelete:
			err = s.deleteAccount(e.MerchantID, e.AccountID)
		default:
			err = invalid("Unknown batch method %q.", e.Method)
		}
		if err != nil {
			out.Errors = batchErrors(err)
		}
		resp.Entries = append(resp.Entries, out)
	}
	return resp
}

func (s *Store) deleteAccount(merchantID, accountID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if accountID == merchantID {
		return invalid("Account %d cannot delete itself.", merchantID)
	}
	if _, err := s.lookup(merchantID, accountID); err != nil {
		return err
	}
	parent := s.merchants[merchantID]
	for i, id := range parent.children {
		if id == accountID {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			break
		}
	}
	delete(s.merchants, accountID)
	return nil
}

func batchErrors(err error) *content.Errors {
	var e *Error
	if !errors.As(err, &e) {
		e = &Error{Status: http.StatusInternalServerError, Reason: "backendError", Message: err.Error()}
	}
	return &content.Errors{
		Code:    e.Status,
		Message: e.Message,
		Errors:  []content.ErrorDetail{{Domain: "global", Reason: e.Reason, Message: e.Message}},
	}
}

func (s *Store) GetAccountStatus(merchantID, accountID uint64) (*content.AccountStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.lookup(merchantID, accountID)
	if err != nil {
		return nil, err
	}
	st := m.status
	return &st, nil
}

// ListAccountStatuses lists the statuses of every sub-account of an MCA.
func (s *Store) ListAccountStatuses(merchantID uint64, pageToken string, maxResults int) ([]content.AccountStatus, string, error) {
	return listSub(s, merchantID, pageToken, maxResults, func(m *merchant) content.AccountStatus { return m.status })
}

func (s *Store) GetAccountTax(merchantID, accountID uint64) (*content.AccountTax, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.lookup(merchantID, accountID)
	if err != nil {
		return nil, err
	}
	t := m.tax
	return &t, nil
}

func (s *Store) ListAccountTax(merchantID uint64, pageToken string, maxResults int) ([]content.AccountTax, string, error) {
	return listSub(s, merchantID, pageToken, maxResults, func(m *merchant) content.AccountTax { return m.tax })
}

func (s *Store) GetShippingSettings(merchantID, accountID uint64) (*content.ShippingSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.lookup(merchantID, accountID)
	if err != nil {
		return nil, err
	}
	ss := m.shipping
	return &ss, nil
}

func (s *Store) ListShippingSettings(merchantID uint64, pageToken string, maxResults int) ([]content.ShippingSettings, string, error) {
	return listSub(s, merchantID, pageToken, maxResults, func(m *merchant) content.ShippingSettings { return m.shipping })
}

func listSub[T any](s *Store, merchantID uint64, pageToken string, maxResults int, pick func(*merchant) T) ([]T, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := s.subAccounts(merchantID)
	if err != nil {
		return nil, "", err
	}
	all := make([]T, 0, len(subs))
	for _, m := range subs {
		all = append(all, pick(m))
	}
	return paginate(all, pageToken, maxResults)
}

// DeleteProduct removes a product registered with AddProduct.
func (s *Store) DeleteProduct(merchantID uint64, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.merchants[merchantID]
	if !ok {
		return notFound("Merchant %d not found.", merchantID)
	}
	if _, ok := m.products[productID]; !ok {
		return notFound("Product %s not found.", productID)
	}
	delete(m.products, productID)
	return nil
}

func cloneAccount(a *content.Account) *content.Account {
	c := *a
	c.Users = append([]content.AccountUser(nil), a.Users...)
	return &c
}
