// Package lifecycle drives a sandbox order through its whole life: create,
// acknowledge, set the merchant order ID, cancel part of a line item,
// advance, ship, deliver and return, re-reading and printing the order
// after every mutation.
//
// Every mutation carries an operation ID from one OperationSequence so the
// backend can recognise repeated requests. Any transport error or execution
// status other than "executed" stops the run; earlier steps are not undone.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/merchant-api-samples/pkg/content"
	"github.com/Sternrassler/merchant-api-samples/pkg/logging"
	"github.com/Sternrassler/merchant-api-samples/pkg/pagination"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var stepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "merchant_lifecycle_steps_total",
	Help: "Order lifecycle steps by step name and outcome",
}, []string{"step", "outcome"})

// ErrStepFailed is matched by every StepError.
var ErrStepFailed = errors.New("lifecycle step failed")

// StepError reports the step that stopped a run.
type StepError struct {
	Step        string
	OrderID     string
	OperationID string
	// Status is the execution status when the call itself succeeded.
	Status string
	Err    error
}

func (e *StepError) Error() string {
	msg := "step " + e.Step
	if e.OrderID != "" {
		msg += " on order " + e.OrderID
	}
	if e.OperationID != "" {
		msg += " (operation " + e.OperationID + ")"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg + ": execution status " + e.Status
}

func (e *StepError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrStepFailed}
	}
	return []error{ErrStepFailed, e.Err}
}

// OrdersAPI is the order surface the driver calls. *content.OrdersService implements it.
type OrdersAPI interface {
	Pages(opts content.ListOrdersOptions) pagination.FetchFunc[content.Order]
	Get(ctx context.Context, orderID string) (*content.Order, error)
	GetByMerchantOrderID(ctx context.Context, merchantOrderID string) (*content.Order, error)
	CreateTestOrder(ctx context.Context, req content.CreateTestOrderRequest) (*content.CreateTestOrderResponse, error)
	AdvanceTestOrder(ctx context.Context, orderID string) error
	Acknowledge(ctx context.Context, orderID string, req content.AcknowledgeRequest) (*content.MutationResponse, error)
	UpdateMerchantOrderID(ctx context.Context, orderID string, req content.UpdateMerchantOrderIDRequest) (*content.MutationResponse, error)
	CancelLineItem(ctx context.Context, orderID string, req content.CancelLineItemRequest) (*content.MutationResponse, error)
	ShipLineItems(ctx context.Context, orderID string, req content.ShipLineItemsRequest) (*content.MutationResponse, error)
	UpdateShipment(ctx context.Context, orderID string, req content.UpdateShipmentRequest) (*content.MutationResponse, error)
	ReturnRefundLineItem(ctx context.Context, orderID string, req content.ReturnRefundLineItemRequest) (*content.MutationResponse, error)
}

// Presenter receives progress text and order snapshots.
type Presenter interface {
	Printf(format string, args ...any)
	Order(o *content.Order)
}

// IDGenerator produces merchant order, shipment and tracking IDs.
type IDGenerator func() string

// Config holds the values the run sends.
type Config struct {
	MerchantID   uint64
	TemplateName string

	CancelQuantity   int
	CancelReason     string
	CancelReasonText string

	ReturnQuantity   int
	ReturnReason     string
	ReturnReasonText string

	// PageSize is used when listing unacknowledged orders.
	PageSize int
}

// DefaultConfig returns the canonical demonstration values.
func DefaultConfig(merchantID uint64) Config {
	return Config{
		MerchantID:       merchantID,
		TemplateName:     "template1",
		CancelQuantity:   1,
		CancelReason:     "noInventory",
		CancelReasonText: "Ran out of inventory while fulfilling request.",
		ReturnQuantity:   1,
		ReturnReason:     "productArrivedDamaged",
		ReturnReasonText: "Item was non-functional on receipt.",
		PageSize:         pagination.DefaultPageSize,
	}
}

// Option configures a Driver.
type Option func(*Driver)

// WithIDGenerator replaces the uuid-based ID generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(d *Driver) { d.newID = gen }
}

// WithSequence supplies the operation ID sequence, e.g. to start above 0.
func WithSequence(seq *OperationSequence) Option {
	return func(d *Driver) { d.seq = seq }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(d *Driver) { d.tracer = tracer }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(d *Driver) { d.logger = logger }
}

// Driver runs the lifecycle for one order at a time.
type Driver struct {
	orders OrdersAPI
	out    Presenter
	cfg    Config
	seq    *OperationSequence
	newID  IDGenerator
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewDriver creates a driver. Without WithSequence, operation IDs start at 0.
func NewDriver(orders OrdersAPI, out Presenter, cfg Config, opts ...Option) *Driver {
	d := &Driver{
		orders: orders,
		out:    out,
		cfg:    cfg,
		seq:    NewOperationSequence(0),
		newID:  uuid.NewString,
		tracer: otel.Tracer("github.com/Sternrassler/merchant-api-samples/pkg/lifecycle"),
		logger: logging.NewLogger("order-lifecycle"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Result summarises a completed run.
type Result struct {
	OrderID         string
	MerchantOrderID string
	Shipments       []content.ShipmentInfo
	// OperationIDs lists every operation ID in issuance order.
	OperationIDs []string
	Final        *content.Order
}

// Run executes the full lifecycle on a new test order.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	ctx, span := d.tracer.Start(ctx, "lifecycle.run", trace.WithAttributes(
		attribute.String("order.template", d.cfg.TemplateName),
	))
	defer span.End()

	start := time.Now()
	res := &Result{}

	err := d.run(ctx, res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.logger.Error().Err(err).Str("order_id", res.OrderID).Msg("Order lifecycle stopped")
		return res, err
	}

	d.logger.Info().
		Str("order_id", res.OrderID).
		Int("operations", len(res.OperationIDs)).
		Dur("duration", time.Since(start)).
		Msg("Order lifecycle complete")
	return res, nil
}

func (d *Driver) run(ctx context.Context, res *Result) error {
	// 1. create
	err := d.step(ctx, "createTestOrder", "", func(ctx context.Context) error {
		d.out.Printf("Creating new test order... ")
		resp, err := d.orders.CreateTestOrder(ctx, content.CreateTestOrderRequest{TemplateName: d.cfg.TemplateName})
		if err != nil {
			return &StepError{Step: "createTestOrder", Err: err}
		}
		res.OrderID = resp.OrderID
		d.out.Printf("done (%s).\n\n", resp.OrderID)
		return nil
	})
	if err != nil {
		return err
	}
	orderID := res.OrderID

	if _, err := d.ListUnacknowledged(ctx); err != nil {
		return &StepError{Step: "listUnacknowledged", OrderID: orderID, Err: err}
	}

	// 2. acknowledge
	d.out.Printf("Acknowledging order %s... ", orderID)
	err = d.mutate(ctx, res, "acknowledge", func(ctx context.Context, opID string) (*content.MutationResponse, error) {
		return d.orders.Acknowledge(ctx, orderID, content.AcknowledgeRequest{OperationID: opID})
	})
	if err != nil {
		return err
	}

	// 3. merchant order ID
	res.MerchantOrderID = d.newID()
	d.out.Printf("Updating merchant order ID to %s... ", res.MerchantOrderID)
	err = d.mutate(ctx, res, "updateMerchantOrderId", func(ctx context.Context, opID string) (*content.MutationResponse, error) {
		return d.orders.UpdateMerchantOrderID(ctx, orderID, content.UpdateMerchantOrderIDRequest{
			OperationID:     opID,
			MerchantOrderID: res.MerchantOrderID,
		})
	})
	if err != nil {
		return err
	}

	var order *content.Order
	err = d.step(ctx, "getByMerchantOrderId", orderID, func(ctx context.Context) error {
		d.out.Printf("Retrieving merchant order %s... ", res.MerchantOrderID)
		o, err := d.orders.GetByMerchantOrderID(ctx, res.MerchantOrderID)
		if err != nil {
			return &StepError{Step: "getByMerchantOrderId", OrderID: orderID, Err: err}
		}
		d.out.Printf("done.\n\n")
		d.show(o)
		order = o
		return nil
	})
	if err != nil {
		return err
	}

	// 4. cancel part of the first line item
	if len(order.LineItems) == 0 {
		return &StepError{Step: "cancelLineItem", OrderID: orderID, Err: errors.New("order has no line items")}
	}
	cancelItem := order.LineItems[0].ID
	d.out.Printf("Cancelling %d of item %s... ", d.cfg.CancelQuantity, cancelItem)
	err = d.mutate(ctx, res, "cancelLineItem", func(ctx context.Context, opID string) (*content.MutationResponse, error) {
		return d.orders.CancelLineItem(ctx, orderID, content.CancelLineItemRequest{
			OperationID: opID,
			LineItemID:  cancelItem,
			Quantity:    d.cfg.CancelQuantity,
			Reason:      d.cfg.CancelReason,
			ReasonText:  d.cfg.CancelReasonText,
		})
	})
	if err != nil {
		return err
	}
	if order, err = d.refresh(ctx, orderID); err != nil {
		return err
	}

	// 5. advance
	err = d.step(ctx, "advanceTestOrder", orderID, func(ctx context.Context) error {
		d.out.Printf("Advancing test order %s... ", orderID)
		if err := d.orders.AdvanceTestOrder(ctx, orderID); err != nil {
			return &StepError{Step: "advanceTestOrder", OrderID: orderID, Err: err}
		}
		d.out.Printf("done.\n\n")
		return nil
	})
	if err != nil {
		return err
	}
	if order, err = d.refresh(ctx, orderID); err != nil {
		return err
	}

	// 6. ship every line item that still has pending units, one shipment each
	for _, li := range order.LineItems {
		if li.QuantityPending == 0 {
			continue
		}
		info, err := d.ship(ctx, res, orderID, li)
		if err != nil {
			return err
		}
		res.Shipments = append(res.Shipments, info)
		if order, err = d.refresh(ctx, orderID); err != nil {
			return err
		}
	}

	// 7. deliver every shipment created above
	for _, info := range res.Shipments {
		d.out.Printf("Marking shipment %s as delivered... ", info.ShipmentID)
		err := d.mutate(ctx, res, "updateShipment", func(ctx context.Context, opID string) (*content.MutationResponse, error) {
			return d.orders.UpdateShipment(ctx, orderID, content.UpdateShipmentRequest{
				OperationID: opID,
				ShipmentID:  info.ShipmentID,
				Carrier:     info.Carrier,
				TrackingID:  info.TrackingID,
				Status:      content.ShipmentDelivered,
			})
		})
		if err != nil {
			return err
		}
		if order, err = d.refresh(ctx, orderID); err != nil {
			return err
		}
	}

	// 8. return part of a delivered line item
	returnItem := returnCandidate(order, d.cfg.ReturnQuantity)
	d.out.Printf("Marking %d of item %s as returned... ", d.cfg.ReturnQuantity, returnItem)
	err = d.mutate(ctx, res, "returnRefundLineItem", func(ctx context.Context, opID string) (*content.MutationResponse, error) {
		return d.orders.ReturnRefundLineItem(ctx, orderID, content.ReturnRefundLineItemRequest{
			OperationID: opID,
			LineItemID:  returnItem,
			Quantity:    d.cfg.ReturnQuantity,
			Reason:      d.cfg.ReturnReason,
			ReasonText:  d.cfg.ReturnReasonText,
		})
	})
	if err != nil {
		return err
	}
	if res.Final, err = d.refresh(ctx, orderID); err != nil {
		return err
	}
	return nil
}

func (d *Driver) ship(ctx context.Context, res *Result, orderID string, li content.LineItem) (content.ShipmentInfo, error) {
	if li.ShippingDetails == nil || li.ShippingDetails.Method == nil {
		return content.ShipmentInfo{}, &StepError{
			Step:    "shipLineItems",
			OrderID: orderID,
			Err:     fmt.Errorf("line item %s has no shipping method", li.ID),
		}
	}

	info := content.ShipmentInfo{
		ShipmentID: d.newID(),
		Carrier:    li.ShippingDetails.Method.Carrier,
		TrackingID: d.newID(),
	}
	quantity := li.QuantityPending

	d.out.Printf("Shipping %d of item %s... ", quantity, li.ID)
	err := d.mutate(ctx, res, "shipLineItems", func(ctx context.Context, opID string) (*content.MutationResponse, error) {
		return d.orders.ShipLineItems(ctx, orderID, content.ShipLineItemsRequest{
			OperationID:   opID,
			LineItems:     []content.ShipmentLineItem{{LineItemID: li.ID, Quantity: quantity}},
			ShipmentInfos: []content.ShipmentInfo{info},
		})
	})
	return info, err
}

// returnCandidate picks the first line item with enough delivered, unreturned
// units, falling back to the first line item. It returns "" for an order
// without line items.
func returnCandidate(o *content.Order, quantity int) string {
	if len(o.LineItems) == 0 {
		return ""
	}
	for _, li := range o.LineItems {
		if li.QuantityDelivered-li.QuantityReturned >= quantity {
			return li.ID
		}
	}
	return o.LineItems[0].ID
}

// ListUnacknowledged prints every order not yet acknowledged and returns how many there were.
func (d *Driver) ListUnacknowledged(ctx context.Context) (int, error) {
	d.out.Printf("Printing unacknowledged orders for %d.\n", d.cfg.MerchantID)

	walker := pagination.NewWalker(d.orders.Pages(content.Unacknowledged()), pagination.Config{PageSize: d.cfg.PageSize})
	n, err := walker.Walk(ctx, func(o content.Order) error {
		d.out.Order(&o)
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("list unacknowledged orders: %w", err)
	}
	if n == 0 {
		d.out.Printf("No orders.\n")
	}
	d.out.Printf("\n")
	return n, nil
}

// mutate assigns the next operation ID, issues call and checks the execution status.
func (d *Driver) mutate(ctx context.Context, res *Result, step string, call func(context.Context, string) (*content.MutationResponse, error)) error {
	opID := d.seq.Next()
	res.OperationIDs = append(res.OperationIDs, opID)

	return d.step(ctx, step, res.OrderID, func(ctx context.Context) error {
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("order.operation_id", opID))
		d.logger.Debug().Str("step", step).Str("operation_id", opID).Msg("Assigned operation ID")

		resp, err := call(ctx, opID)
		if err != nil {
			return &StepError{Step: step, OrderID: res.OrderID, OperationID: opID, Err: err}
		}
		if resp.ExecutionStatus != content.ExecutionExecuted {
			return &StepError{Step: step, OrderID: res.OrderID, OperationID: opID, Status: resp.ExecutionStatus}
		}
		d.out.Printf("done (%s).\n\n", resp.ExecutionStatus)
		return nil
	})
}

// step wraps fn in a span, a log line and the step counter.
func (d *Driver) step(ctx context.Context, name, orderID string, fn func(context.Context) error) error {
	ctx, span := d.tracer.Start(ctx, "lifecycle."+name, trace.WithAttributes(
		attribute.String("order.id", orderID),
	))
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		stepsTotal.WithLabelValues(name, "failed").Inc()
		return err
	}

	stepsTotal.WithLabelValues(name, "ok").Inc()
	d.logger.Info().Str("step", name).Str("order_id", orderID).Msg("Lifecycle step done")
	return nil
}

// refresh re-reads the order and prints it.
func (d *Driver) refresh(ctx context.Context, orderID string) (*content.Order, error) {
	d.out.Printf("Retrieving order %s... ", orderID)
	order, err := d.orders.Get(ctx, orderID)
	if err != nil {
		return nil, &StepError{Step: "getOrder", OrderID: orderID, Err: err}
	}
	d.out.Printf("done.\n\n")
	d.show(order)
	return order, nil
}

func (d *Driver) show(o *content.Order) {
	d.out.Order(o)
	d.out.Printf("\n")
}
