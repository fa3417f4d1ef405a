package samples

import (
	"context"

	"github.com/Sternrassler/merchant-api-samples/pkg/lifecycle"
)

func (r *Runner) driver() *lifecycle.Driver {
	cfg := lifecycle.DefaultConfig(r.svc.MerchantID)
	cfg.PageSize = r.opts.PageSize
	return lifecycle.NewDriver(r.svc.Orders, r.out, cfg, r.opts.Lifecycle...)
}

// OrdersWorkflow drives one sandbox test order from creation to return.
func (r *Runner) OrdersWorkflow(ctx context.Context) (*lifecycle.Result, error) {
	return r.driver().Run(ctx)
}

// ListUnacknowledgedOrders prints every order not yet acknowledged.
func (r *Runner) ListUnacknowledgedOrders(ctx context.Context) (int, error) {
	return r.driver().ListUnacknowledged(ctx)
}
