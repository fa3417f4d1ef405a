package content

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Sternrassler/merchant-api-samples/pkg/pagination"
)

// Execution statuses reported by order mutations.
const (
	ExecutionExecuted  = "executed"
	ExecutionDuplicate = "duplicate"
)

// Order statuses.
const (
	StatusInProgress         = "inProgress"
	StatusPendingShipment    = "pendingShipment"
	StatusPartiallyShipped   = "partiallyShipped"
	StatusShipped            = "shipped"
	StatusPartiallyDelivered = "partiallyDelivered"
	StatusDelivered          = "delivered"
	StatusPartiallyReturned  = "partiallyReturned"
	StatusReturned           = "returned"
	StatusCanceled           = "canceled"
)

// ShipmentDelivered is the UpdateShipment status marking a shipment delivered.
const ShipmentDelivered = "delivered"

type Order struct {
	ID              string     `json:"id"`
	MerchantID      uint64     `json:"merchantId,string"`
	MerchantOrderID string     `json:"merchantOrderId,omitempty"`
	Status          string     `json:"status"`
	PlacedDate      string     `json:"placedDate,omitempty"`
	PaymentStatus   string     `json:"paymentStatus,omitempty"`
	Acknowledged    bool       `json:"acknowledged"`
	NetPriceAmount  *Price     `json:"netPriceAmount,omitempty"`
	NetTaxAmount    *Price     `json:"netTaxAmount,omitempty"`
	ShippingCost    *Price     `json:"shippingCost,omitempty"`
	ShippingCostTax *Price     `json:"shippingCostTax,omitempty"`
	LineItems       []LineItem `json:"lineItems,omitempty"`
	Shipments       []Shipment `json:"shipments,omitempty"`
}

// LineItem returns the line item with the given ID.
func (o *Order) LineItem(id string) (*LineItem, bool) {
	for i := range o.LineItems {
		if o.LineItems[i].ID == id {
			return &o.LineItems[i], true
		}
	}
	return nil, false
}

type LineItem struct {
	ID                string           `json:"id"`
	Product           *Product         `json:"product,omitempty"`
	Price             *Price           `json:"price,omitempty"`
	Tax               *Price           `json:"tax,omitempty"`
	ShippingDetails   *ShippingDetails `json:"shippingDetails,omitempty"`
	ReturnInfo        *ReturnInfo      `json:"returnInfo,omitempty"`
	QuantityOrdered   int              `json:"quantityOrdered"`
	QuantityPending   int              `json:"quantityPending"`
	QuantityCanceled  int              `json:"quantityCanceled"`
	QuantityShipped   int              `json:"quantityShipped"`
	QuantityDelivered int              `json:"quantityDelivered"`
	QuantityReturned  int              `json:"quantityReturned"`
	Cancellations     []Cancellation   `json:"cancellations,omitempty"`
	Returns           []Return         `json:"returns,omitempty"`
}

// Product is the product snapshot embedded in a line item.
type Product struct {
	ID              string `json:"id"`
	OfferID         string `json:"offerId,omitempty"`
	Title           string `json:"title"`
	Brand           string `json:"brand,omitempty"`
	Condition       string `json:"condition,omitempty"`
	ContentLanguage string `json:"contentLanguage,omitempty"`
	TargetCountry   string `json:"targetCountry,omitempty"`
	Price           *Price `json:"price,omitempty"`
}

type ShippingDetails struct {
	ShipByDate    string          `json:"shipByDate,omitempty"`
	DeliverByDate string          `json:"deliverByDate,omitempty"`
	Method        *ShippingMethod `json:"method,omitempty"`
}

type ShippingMethod struct {
	Carrier          string `json:"carrier"`
	MethodName       string `json:"methodName"`
	MinDaysInTransit int    `json:"minDaysInTransit"`
	MaxDaysInTransit int    `json:"maxDaysInTransit"`
}

type ReturnInfo struct {
	IsReturnable bool   `json:"isReturnable"`
	DaysToReturn int    `json:"daysToReturn,omitempty"`
	PolicyURL    string `json:"policyUrl,omitempty"`
}

type Cancellation struct {
	Actor        string `json:"actor,omitempty"`
	CreationDate string `json:"creationDate"`
	Quantity     int    `json:"quantity"`
	Reason       string `json:"reason"`
	ReasonText   string `json:"reasonText"`
}

type Return struct {
	Actor        string `json:"actor,omitempty"`
	CreationDate string `json:"creationDate"`
	Quantity     int    `json:"quantity"`
	Reason       string `json:"reason"`
	ReasonText   string `json:"reasonText"`
}

type Shipment struct {
	ID           string             `json:"id"`
	CreationDate string             `json:"creationDate"`
	DeliveryDate string             `json:"deliveryDate,omitempty"`
	Carrier      string             `json:"carrier"`
	TrackingID   string             `json:"trackingId"`
	Status       string             `json:"status"`
	LineItems    []ShipmentLineItem `json:"lineItems,omitempty"`
}

type ShipmentLineItem struct {
	LineItemID string `json:"lineItemId"`
	Quantity   int    `json:"quantity"`
}

// ShipmentInfo names a shipment created by ShipLineItems. The same triple
// identifies it again in UpdateShipment.
type ShipmentInfo struct {
	ShipmentID string `json:"shipmentId"`
	Carrier    string `json:"carrier"`
	TrackingID string `json:"trackingId"`
}

type CreateTestOrderRequest struct {
	TemplateName string `json:"templateName"`
	Country      string `json:"country,omitempty"`
}

type CreateTestOrderResponse struct {
	OrderID string `json:"orderId"`
}

type AcknowledgeRequest struct {
	OperationID string `json:"operationId"`
}

type UpdateMerchantOrderIDRequest struct {
	OperationID     string `json:"operationId"`
	MerchantOrderID string `json:"merchantOrderId"`
}

type CancelLineItemRequest struct {
	OperationID string `json:"operationId"`
	LineItemID  string `json:"lineItemId"`
	Quantity    int    `json:"quantity"`
	Reason      string `json:"reason"`
	ReasonText  string `json:"reasonText"`
}

type ShipLineItemsRequest struct {
	OperationID   string             `json:"operationId"`
	LineItems     []ShipmentLineItem `json:"lineItems"`
	ShipmentInfos []ShipmentInfo     `json:"shipmentInfos"`
}

type UpdateShipmentRequest struct {
	OperationID  string `json:"operationId"`
	ShipmentID   string `json:"shipmentId"`
	Carrier      string `json:"carrier,omitempty"`
	TrackingID   string `json:"trackingId,omitempty"`
	Status       string `json:"status"`
	DeliveryDate string `json:"deliveryDate,omitempty"`
}

type ReturnRefundLineItemRequest struct {
	OperationID string `json:"operationId"`
	LineItemID  string `json:"lineItemId"`
	Quantity    int    `json:"quantity"`
	Reason      string `json:"reason"`
	ReasonText  string `json:"reasonText"`
}

// MutationResponse is returned by every operation-keyed order mutation.
type MutationResponse struct {
	ExecutionStatus string `json:"executionStatus"`
}

type OrdersListResponse struct {
	Resources     []Order `json:"resources"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}

type GetByMerchantOrderIDResponse struct {
	Order *Order `json:"order"`
}

// ListOrdersOptions filters orders.list.
type ListOrdersOptions struct {
	// Acknowledged filters on the acknowledged flag when set.
	Acknowledged *bool
	Statuses     []string
}

// OrdersService covers orders and the sandbox test-order endpoints.
type OrdersService struct{ resource }

// List fetches one page of orders.
func (s *OrdersService) List(ctx context.Context, opts ListOrdersOptions, pageToken string, pageSize int) (*OrdersListResponse, error) {
	q := listQuery(pageToken, pageSize)
	if opts.Acknowledged != nil {
		q.Set("acknowledged", strconv.FormatBool(*opts.Acknowledged))
	}
	for _, st := range opts.Statuses {
		q.Add("statuses", st)
	}

	var resp OrdersListResponse
	if err := s.r.GetJSON(ctx, s.path("orders"), q, &resp); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return &resp, nil
}

// Pages adapts List for the pagination walker.
func (s *OrdersService) Pages(opts ListOrdersOptions) pagination.FetchFunc[Order] {
	return func(ctx context.Context, pageToken string, pageSize int) (*pagination.Page[Order], error) {
		resp, err := s.List(ctx, opts, pageToken, pageSize)
		if err != nil {
			return nil, err
		}
		return &pagination.Page[Order]{Items: resp.Resources, NextPageToken: resp.NextPageToken}, nil
	}
}

func (s *OrdersService) Get(ctx context.Context, orderID string) (*Order, error) {
	var order Order
	if err := s.r.GetJSON(ctx, s.path("orders", orderID), nil, &order); err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	return &order, nil
}

// GetByMerchantOrderID reads an order by the ID the merchant assigned.
func (s *OrdersService) GetByMerchantOrderID(ctx context.Context, merchantOrderID string) (*Order, error) {
	var resp GetByMerchantOrderIDResponse
	if err := s.r.GetJSON(ctx, s.path("ordersbymerchantid", merchantOrderID), nil, &resp); err != nil {
		return nil, fmt.Errorf("get order by merchant order ID %s: %w", merchantOrderID, err)
	}
	if resp.Order == nil {
		return nil, fmt.Errorf("get order by merchant order ID %s: empty response", merchantOrderID)
	}
	return resp.Order, nil
}

// CreateTestOrder creates a sandbox order from a template.
func (s *OrdersService) CreateTestOrder(ctx context.Context, req CreateTestOrderRequest) (*CreateTestOrderResponse, error) {
	var resp CreateTestOrderResponse
	if err := s.r.SendJSON(ctx, http.MethodPost, s.path("testorders"), req, &resp); err != nil {
		return nil, fmt.Errorf("create test order: %w", err)
	}
	return &resp, nil
}

// AdvanceTestOrder moves a sandbox order from inProgress to pendingShipment.
func (s *OrdersService) AdvanceTestOrder(ctx context.Context, orderID string) error {
	if err := s.r.SendJSON(ctx, http.MethodPost, s.path("testorders", orderID, "advance"), nil, nil); err != nil {
		return fmt.Errorf("advance test order %s: %w", orderID, err)
	}
	return nil
}

func (s *OrdersService) Acknowledge(ctx context.Context, orderID string, req AcknowledgeRequest) (*MutationResponse, error) {
	return s.mutate(ctx, orderID, "acknowledge", req)
}

func (s *OrdersService) UpdateMerchantOrderID(ctx context.Context, orderID string, req UpdateMerchantOrderIDRequest) (*MutationResponse, error) {
	return s.mutate(ctx, orderID, "updateMerchantOrderId", req)
}

func (s *OrdersService) CancelLineItem(ctx context.Context, orderID string, req CancelLineItemRequest) (*MutationResponse, error) {
	return s.mutate(ctx, orderID, "cancelLineItem", req)
}

func (s *OrdersService) ShipLineItems(ctx context.Context, orderID string, req ShipLineItemsRequest) (*MutationResponse, error) {
	return s.mutate(ctx, orderID, "shipLineItems", req)
}

func (s *OrdersService) UpdateShipment(ctx context.Context, orderID string, req UpdateShipmentRequest) (*MutationResponse, error) {
	return s.mutate(ctx, orderID, "updateShipment", req)
}

func (s *OrdersService) ReturnRefundLineItem(ctx context.Context, orderID string, req ReturnRefundLineItemRequest) (*MutationResponse, error) {
	return s.mutate(ctx, orderID, "returnRefundLineItem", req)
}

func (s *OrdersService) mutate(ctx context.Context, orderID, action string, req any) (*MutationResponse, error) {
	var resp MutationResponse
	if err := s.r.SendJSON(ctx, http.MethodPost, s.path("orders", orderID, action), req, &resp); err != nil {
		return nil, fmt.Errorf("%s order %s: %w", action, orderID, err)
	}
	return &resp, nil
}

// Unacknowledged is the filter used when looking for new orders.
func Unacknowledged() ListOrdersOptions {
	f := false
	return ListOrdersOptions{Acknowledged: &f}
}
