// Package samples implements the sample workflows behind the content-samples
// commands. Each method reads or mutates one resource family and reports the
// outcome through the Printer.
package samples

import (
	"errors"

	"github.com/Sternrassler/merchant-api-samples/pkg/content"
	"github.com/Sternrassler/merchant-api-samples/pkg/lifecycle"
	"github.com/Sternrassler/merchant-api-samples/pkg/logging"
	"github.com/Sternrassler/merchant-api-samples/pkg/pagination"
	"github.com/Sternrassler/merchant-api-samples/pkg/present"
	"github.com/rs/zerolog"
)

// Local precondition failures. No request is sent when one of these is returned.
var (
	ErrNotMCA         = errors.New("configured merchant center account must be a multi-client account")
	ErrOwnAccountOnly = errors.New("non-MCA accounts can only get their own information")
	ErrNoSampleUser   = errors.New("no account sample user address in the configuration")
	ErrNoAccountIDs   = errors.New("at least one account ID is required")
)

// Options describe the configured merchant.
type Options struct {
	IsMCA             bool
	AccountSampleUser string
	PageSize          int

	// Lifecycle options are passed to the order driver.
	Lifecycle []lifecycle.Option
}

// Runner runs samples for the merchant bound to its service.
type Runner struct {
	svc    *content.Service
	out    *present.Printer
	opts   Options
	logger zerolog.Logger
}

func New(svc *content.Service, out *present.Printer, opts Options) *Runner {
	if opts.PageSize <= 0 {
		opts.PageSize = pagination.DefaultPageSize
	}
	return &Runner{
		svc:    svc,
		out:    out,
		opts:   opts,
		logger: logging.NewLogger("samples"),
	}
}

// MerchantID is the configured merchant.
func (r *Runner) MerchantID() uint64 {
	return r.svc.MerchantID
}

// checkAccount rejects reads of other accounts from a standalone merchant.
func (r *Runner) checkAccount(accountID uint64) error {
	if accountID != r.svc.MerchantID && !r.opts.IsMCA {
		return ErrOwnAccountOnly
	}
	return nil
}

func (r *Runner) requireMCA() error {
	if !r.opts.IsMCA {
		return ErrNotMCA
	}
	return nil
}

func (r *Runner) walkConfig() pagination.Config {
	return pagination.Config{PageSize: r.opts.PageSize}
}
