package lifecycle

import (
	"context"
	"fmt"

	"github.com/Sternrassler/merchant-api-samples/pkg/content"
	"github.com/Sternrassler/merchant-api-samples/pkg/pagination"
)

// fakeOrders models one sandbox order with the server-side quantity bookkeeping.
type fakeOrders struct {
	order  *content.Order
	calls  []string
	opIDs  []string
	status map[string]string
	fail   map[string]error
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{
		status: map[string]string{},
		fail:   map[string]error{},
	}
}

func templateLineItem(id, title string) content.LineItem {
	return content.LineItem{
		ID:      id,
		Product: &content.Product{ID: "online:en:US:" + id, Title: title},
		ShippingDetails: &content.ShippingDetails{
			Method: &content.ShippingMethod{Carrier: "FedEx", MethodName: "Standard", MaxDaysInTransit: 5},
		},
		QuantityOrdered: 3,
		QuantityPending: 3,
	}
}

func (f *fakeOrders) Pages(opts content.ListOrdersOptions) pagination.FetchFunc[content.Order] {
	return func(ctx context.Context, pageToken string, pageSize int) (*pagination.Page[content.Order], error) {
		f.calls = append(f.calls, "list")
		page := &pagination.Page[content.Order]{}
		if f.order != nil && !f.order.Acknowledged {
			page.Items = append(page.Items, *f.order)
		}
		return page, nil
	}
}

func (f *fakeOrders) Get(ctx context.Context, orderID string) (*content.Order, error) {
	if f.order == nil || f.order.ID != orderID {
		return nil, fmt.Errorf("order %s not found", orderID)
	}
	return f.snapshot(), nil
}

func (f *fakeOrders) GetByMerchantOrderID(ctx context.Context, merchantOrderID string) (*content.Order, error) {
	f.calls = append(f.calls, "getByMerchantOrderId")
	if f.order == nil || f.order.MerchantOrderID != merchantOrderID {
		return nil, fmt.Errorf("merchant order %s not found", merchantOrderID)
	}
	return f.snapshot(), nil
}

func (f *fakeOrders) snapshot() *content.Order {
	o := *f.order
	o.LineItems = append([]content.LineItem(nil), f.order.LineItems...)
	o.Shipments = append([]content.Shipment(nil), f.order.Shipments...)
	return &o
}

func (f *fakeOrders) CreateTestOrder(ctx context.Context, req content.CreateTestOrderRequest) (*content.CreateTestOrderResponse, error) {
	f.calls = append(f.calls, "createTestOrder")
	if err := f.fail["createTestOrder"]; err != nil {
		return nil, err
	}
	f.order = &content.Order{
		ID:         "TEST-1",
		MerchantID: 123,
		Status:     content.StatusInProgress,
		LineItems: []content.LineItem{
			templateLineItem("LI-1", "Shiny Widget"),
			templateLineItem("LI-2", "Dull Widget"),
		},
	}
	return &content.CreateTestOrderResponse{OrderID: f.order.ID}, nil
}

func (f *fakeOrders) AdvanceTestOrder(ctx context.Context, orderID string) error {
	f.calls = append(f.calls, "advanceTestOrder")
	if err := f.fail["advanceTestOrder"]; err != nil {
		return err
	}
	f.order.Status = content.StatusPendingShipment
	return nil
}

// record logs a mutation and reports whether its effect should be applied.
func (f *fakeOrders) record(action, opID string) (*content.MutationResponse, bool, error) {
	f.calls = append(f.calls, action)
	f.opIDs = append(f.opIDs, opID)
	if err := f.fail[action]; err != nil {
		return nil, false, err
	}
	status := content.ExecutionExecuted
	if s, ok := f.status[action]; ok {
		status = s
	}
	return &content.MutationResponse{ExecutionStatus: status}, status == content.ExecutionExecuted, nil
}

func (f *fakeOrders) Acknowledge(ctx context.Context, orderID string, req content.AcknowledgeRequest) (*content.MutationResponse, error) {
	resp, apply, err := f.record("acknowledge", req.OperationID)
	if apply {
		f.order.Acknowledged = true
	}
	return resp, err
}

func (f *fakeOrders) UpdateMerchantOrderID(ctx context.Context, orderID string, req content.UpdateMerchantOrderIDRequest) (*content.MutationResponse, error) {
	resp, apply, err := f.record("updateMerchantOrderId", req.OperationID)
	if apply {
		f.order.MerchantOrderID = req.MerchantOrderID
	}
	return resp, err
}

func (f *fakeOrders) CancelLineItem(ctx context.Context, orderID string, req content.CancelLineItemRequest) (*content.MutationResponse, error) {
	resp, apply, err := f.record("cancelLineItem", req.OperationID)
	if apply {
		li, _ := f.order.LineItem(req.LineItemID)
		li.QuantityPending -= req.Quantity
		li.QuantityCanceled += req.Quantity
		li.Cancellations = append(li.Cancellations, content.Cancellation{
			Actor: "merchant", Quantity: req.Quantity, Reason: req.Reason, ReasonText: req.ReasonText,
		})
	}
	return resp, err
}

func (f *fakeOrders) ShipLineItems(ctx context.Context, orderID string, req content.ShipLineItemsRequest) (*content.MutationResponse, error) {
	resp, apply, err := f.record("shipLineItems", req.OperationID)
	if apply {
		for _, sli := range req.LineItems {
			li, _ := f.order.LineItem(sli.LineItemID)
			li.QuantityPending -= sli.Quantity
			li.QuantityShipped += sli.Quantity
		}
		info := req.ShipmentInfos[0]
		f.order.Shipments = append(f.order.Shipments, content.Shipment{
			ID:         info.ShipmentID,
			Carrier:    info.Carrier,
			TrackingID: info.TrackingID,
			Status:     "shipped",
			LineItems:  req.LineItems,
		})
	}
	return resp, err
}

func (f *fakeOrders) UpdateShipment(ctx context.Context, orderID string, req content.UpdateShipmentRequest) (*content.MutationResponse, error) {
	resp, apply, err := f.record("updateShipment", req.OperationID)
	if apply {
		for i := range f.order.Shipments {
			s := &f.order.Shipments[i]
			if s.ID != req.ShipmentID {
				continue
			}
			s.Status = req.Status
			for _, sli := range s.LineItems {
				li, _ := f.order.LineItem(sli.LineItemID)
				li.QuantityDelivered += sli.Quantity
			}
		}
	}
	return resp, err
}

func (f *fakeOrders) ReturnRefundLineItem(ctx context.Context, orderID string, req content.ReturnRefundLineItemRequest) (*content.MutationResponse, error) {
	resp, apply, err := f.record("returnRefundLineItem", req.OperationID)
	if apply {
		li, _ := f.order.LineItem(req.LineItemID)
		li.QuantityReturned += req.Quantity
		li.Returns = append(li.Returns, content.Return{
			Actor: "merchant", Quantity: req.Quantity, Reason: req.Reason, ReasonText: req.ReasonText,
		})
	}
	return resp, err
}

var _ OrdersAPI = (*fakeOrders)(nil)
