package samples

import (
	"context"

	"github.com/Sternrassler/merchant-api-samples/pkg/content"
	"github.com/Sternrassler/merchant-api-samples/pkg/pagination"
)

// subResource describes a per-account settings resource that can be read for
// one account or listed across the sub-accounts of a multi-client account.
type subResource[T any] struct {
	service string // workflow name, e.g. "Accountstatuses"
	one     string
	many    string
	get     func(context.Context, uint64) (*T, error)
	pages   pagination.FetchFunc[T]
	print   func(*T)
}

func (r *Runner) accountStatuses() subResource[content.AccountStatus] {
	return subResource[content.AccountStatus]{
		service: "Accountstatuses",
		one:     "account status",
		many:    "account statuses",
		get:     r.svc.AccountStatuses.Get,
		pages:   r.svc.AccountStatuses.Pages(),
		print:   r.out.AccountStatus,
	}
}

func (r *Runner) accountTax() subResource[content.AccountTax] {
	return subResource[content.AccountTax]{
		service: "Accounttax",
		one:     "tax settings",
		many:    "tax settings",
		get:     r.svc.AccountTax.Get,
		pages:   r.svc.AccountTax.Pages(),
		print:   r.out.AccountTax,
	}
}

func (r *Runner) shippingSettings() subResource[content.ShippingSettings] {
	return subResource[content.ShippingSettings]{
		service: "Shippingsettings",
		one:     "shipping settings",
		many:    "shipping settings",
		get:     r.svc.ShippingSettings.Get,
		pages:   r.svc.ShippingSettings.Pages(),
		print:   r.out.ShippingSettings,
	}
}

func getResource[T any](ctx context.Context, r *Runner, res subResource[T], accountID uint64) error {
	if err := r.checkAccount(accountID); err != nil {
		return err
	}
	v, err := res.get(ctx, accountID)
	if err != nil {
		return err
	}
	res.print(v)
	return nil
}

func listResource[T any](ctx context.Context, r *Runner, res subResource[T]) (int, error) {
	if err := r.requireMCA(); err != nil {
		return 0, err
	}
	n, err := pagination.NewWalker(res.pages, r.walkConfig()).Walk(ctx, func(v T) error {
		res.print(&v)
		return nil
	})
	if err != nil {
		return n, err
	}
	r.logger.Debug().Str("resource", res.service).Int("items", n).Msg("Listing complete")
	return n, nil
}

// runWorkflow reads the merchant's own resource and, for a multi-client
// account, lists every sub-account's.
func runWorkflow[T any](ctx context.Context, r *Runner, res subResource[T]) error {
	id := r.svc.MerchantID
	r.out.Printf("Performing workflow for the %s service.\n\n", res.service)

	r.out.Printf("Getting %s for MC %d:\n", res.one, id)
	if err := getResource(ctx, r, res, id); err != nil {
		return err
	}
	r.out.Println()

	if r.opts.IsMCA {
		r.out.Printf("Listing %s for sub-accounts of MC %d:\n", res.many, id)
		if _, err := listResource(ctx, r, res); err != nil {
			return err
		}
		r.out.Println()
	}

	r.out.Printf("Done with the %s workflow.\n", res.service)
	return nil
}

func (r *Runner) AccountStatus(ctx context.Context, accountID uint64) error {
	return getResource(ctx, r, r.accountStatuses(), accountID)
}

// ListAccountStatuses prints the status of every sub-account and returns how
// many were printed.
func (r *Runner) ListAccountStatuses(ctx context.Context) (int, error) {
	return listResource(ctx, r, r.accountStatuses())
}

func (r *Runner) AccountStatusWorkflow(ctx context.Context) error {
	return runWorkflow(ctx, r, r.accountStatuses())
}

func (r *Runner) AccountTax(ctx context.Context, accountID uint64) error {
	return getResource(ctx, r, r.accountTax(), accountID)
}

func (r *Runner) ListAccountTax(ctx context.Context) (int, error) {
	return listResource(ctx, r, r.accountTax())
}

func (r *Runner) AccountTaxWorkflow(ctx context.Context) error {
	return runWorkflow(ctx, r, r.accountTax())
}

func (r *Runner) ShippingSettings(ctx context.Context, accountID uint64) error {
	return getResource(ctx, r, r.shippingSettings(), accountID)
}

func (r *Runner) ListShippingSettings(ctx context.Context) (int, error) {
	return listResource(ctx, r, r.shippingSettings())
}

func (r *Runner) ShippingSettingsWorkflow(ctx context.Context) error {
	return runWorkflow(ctx, r, r.shippingSettings())
}
