// Package sandbox is an in-memory merchant API backend. It serves the
// endpoints the sample commands call, with the sandbox order semantics:
// template orders, operation ID deduplication and the shipping, delivery
// and return bookkeeping the real service performs.
package sandbox

import (
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/Sternrassler/merchant-api-samples/pkg/content"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type merchant struct {
	account  content.Account
	mca      bool
	parent   uint64
	children []uint64

	status   content.AccountStatus
	tax      content.AccountTax
	shipping content.ShippingSettings
	products map[string]struct{}
	orders   []string
}

// Store holds every merchant, account and order. It is safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	now       func() time.Time
	newID     func() string
	merchants map[uint64]*merchant
	orders    map[string]*orderRecord
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithOrderIDs replaces the uuid-based order ID generator.
func WithOrderIDs(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		now:       time.Now,
		newID:     func() string { return "TEST-" + uuid.NewString() },
		merchants: make(map[uint64]*merchant),
		orders:    make(map[string]*orderRecord),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddMerchant registers a top-level merchant with default account data.
func (s *Store) AddMerchant(id uint64, name string, mca bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merchants[id] = newMerchant(id, name, mca)
}

// AddSubAccount registers a sub-account under an existing multi-client account.
func (s *Store) AddSubAccount(parentID, id uint64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, ok := s.merchants[parentID]
	if !ok {
		return notFound("Merchant %d not found.", parentID)
	}
	if !parent.mca {
		return notMCA(parentID)
	}
	m := newMerchant(id, name, false)
	m.parent = parentID
	s.merchants[id] = m
	parent.children = append(parent.children, id)
	return nil
}

// AddProduct registers a product that can later be deleted.
func (s *Store) AddProduct(merchantID uint64, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.merchants[merchantID]
	if !ok {
		return notFound("Merchant %d not found.", merchantID)
	}
	m.products[productID] = struct{}{}
	return nil
}

// SeedDemo creates a merchant with two sub-accounts when mca is set, and a few products.
func (s *Store) SeedDemo(merchantID uint64, mca bool) error {
	s.AddMerchant(merchantID, "Sandbox Merchant", mca)
	if mca {
		for i, name := range []string{"Sandbox Outlet", "Sandbox Imports"} {
			if err := s.AddSubAccount(merchantID, merchantID+uint64(i)+1, name); err != nil {
				return err
			}
		}
	}
	for _, offer := range []string{"tshirt-blue-m", "mug-white", "headphones-black"} {
		if err := s.AddProduct(merchantID, "online:en:US:"+offer); err != nil {
			return err
		}
	}
	return nil
}

func newMerchant(id uint64, name string, mca bool) *merchant {
	idStr := strconv.FormatUint(id, 10)
	return &merchant{
		account: content.Account{
			ID:         id,
			Name:       name,
			WebsiteURL: "https://merchant-" + idStr + ".example.com",
			Users:      []content.AccountUser{{EmailAddress: "owner-" + idStr + "@example.com", Admin: true}},
		},
		mca: mca,
		status: content.AccountStatus{
			AccountID:      idStr,
			WebsiteClaimed: true,
			AccountLevelIssues: []content.AccountLevelIssue{{
				ID:       "missing_return_policy",
				Title:    "Return policy not configured",
				Country:  "US",
				Severity: "suggestion",
			}},
			Products: []content.AccountStatusProducts{{
				Channel:     "online",
				Destination: "Shopping",
				Country:     "US",
				Statistics:  &content.AccountStatusStatistics{Active: 3, Pending: 1},
			}},
		},
		tax: content.AccountTax{
			AccountID: id,
			Rules: []content.AccountTaxRule{{
				Country:       "US",
				LocationID:    "21137",
				RatePercent:   "7.25",
				ShippingTaxed: true,
			}},
		},
		shipping: content.ShippingSettings{
			AccountID: id,
			Services: []content.ShippingService{{
				Name:            "Standard shipping",
				Active:          true,
				Currency:        "USD",
				DeliveryCountry: "US",
				DeliveryTime:    &content.DeliveryTime{MinTransitTimeInDays: 3, MaxTransitTimeInDays: 7},
				RateGroups: []content.RateGroup{{
					SingleValue: &content.RateValue{FlatRate: content.NewPrice(decimal.RequireFromString("5.99"), "USD")},
				}},
			}},
		},
		products: make(map[string]struct{}),
	}
}

// lookup resolves accountID as seen by merchantID. Must be called with s.mu held.
func (s *Store) lookup(merchantID, accountID uint64) (*merchant, error) {
	m, ok := s.merchants[merchantID]
	if !ok {
		return nil, notFound("Merchant %d not found.", merchantID)
	}
	if accountID == merchantID {
		return m, nil
	}
	if !m.mca {
		return nil, notMCA(merchantID)
	}
	if !slices.Contains(m.children, accountID) {
		return nil, notFound("Account %d not found.", accountID)
	}
	return s.merchants[accountID], nil
}

// subAccounts returns the children of an MCA in creation order. Must be called with s.mu held.
func (s *Store) subAccounts(merchantID uint64) ([]*merchant, error) {
	m, ok := s.merchants[merchantID]
	if !ok {
		return nil, notFound("Merchant %d not found.", merchantID)
	}
	if !m.mca {
		return nil, notMCA(merchantID)
	}
	subs := make([]*merchant, 0, len(m.children))
	for _, id := range m.children {
		subs = append(subs, s.merchants[id])
	}
	return subs, nil
}
