package sandbox

import (
	"fmt"
	"slices"
	"time"

	"github.com/Sternrassler/merchant-api-samples/pkg/content"
	"github.com/shopspring/decimal"
)

type orderRecord struct {
	order    content.Order
	advanced bool
	ops      map[string]struct{}

	shippingCost decimal.Decimal
	taxRate      decimal.Decimal
}

// CreateTestOrder creates an unacknowledged, in-progress order from a named template.
func (s *Store) CreateTestOrder(merchantID uint64, templateName string) (string, error) {
	tmpl, ok := templates[templateName]
	if !ok {
		return "", invalid("Unknown test order template %q.", templateName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.merchants[merchantID]
	if !ok {
		return "", notFound("Merchant %d not found.", merchantID)
	}

	now := s.now().UTC()
	id := s.newID()
	rec := &orderRecord{
		order: content.Order{
			ID:            id,
			MerchantID:    merchantID,
			PlacedDate:    now.Format(time.RFC3339),
			PaymentStatus: "paymentSecured",
		},
		ops:          make(map[string]struct{}),
		shippingCost: tmpl.shippingCost,
		taxRate:      tmpl.taxRate,
	}
	for i, it := range tmpl.items {
		li := it.lineItem(fmt.Sprintf("%s-%d", id, i+1))
		li.ShippingDetails.ShipByDate = now.AddDate(0, 0, 2).Format(time.DateOnly)
		li.ShippingDetails.DeliverByDate = now.AddDate(0, 0, 2+it.maxDays).Format(time.DateOnly)
		rec.order.LineItems = append(rec.order.LineItems, li)
	}
	rec.reprice()
	rec.updateStatus()

	s.orders[id] = rec
	m.orders = append(m.orders, id)
	return id, nil
}

// AdvanceTestOrder moves an in-progress order to pendingShipment.
func (s *Store) AdvanceTestOrder(merchantID uint64, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.order(merchantID, orderID)
	if err != nil {
		return err
	}
	if rec.advanced {
		return invalid("Order %s was already advanced.", orderID)
	}
	rec.advanced = true
	rec.updateStatus()
	return nil
}

// GetOrder returns a snapshot of the order.
func (s *Store) GetOrder(merchantID uint64, orderID string) (*content.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.order(merchantID, orderID)
	if err != nil {
		return nil, err
	}
	return rec.snapshot(), nil
}

func (s *Store) GetOrderByMerchantOrderID(merchantID uint64, merchantOrderID string) (*content.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.merchants[merchantID]
	if !ok {
		return nil, notFound("Merchant %d not found.", merchantID)
	}
	for _, id := range m.orders {
		if rec := s.orders[id]; rec.order.MerchantOrderID == merchantOrderID {
			return rec.snapshot(), nil
		}
	}
	return nil, notFound("Order with merchant order ID %s not found.", merchantOrderID)
}

// OrderFilter narrows ListOrders.
type OrderFilter struct {
	Acknowledged *bool
	Statuses     []string
}

// ListOrders returns the merchant's orders in creation order, one page at a
// time. The page token names the last order returned, so orders that stop
// matching the filter between two pages do not shift later pages.
func (s *Store) ListOrders(merchantID uint64, filter OrderFilter, pageToken string, maxResults int) ([]content.Order, string, error) {
	size, err := pageSize(maxResults)
	if err != nil {
		return nil, "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.merchants[merchantID]
	if !ok {
		return nil, "", notFound("Merchant %d not found.", merchantID)
	}

	start := 0
	if pageToken != "" {
		last, err := decodeCursor(pageToken)
		idx := slices.Index(m.orders, last)
		if err != nil || idx < 0 {
			return nil, "", invalid("invalid page token %q", pageToken)
		}
		start = idx + 1
	}

	page := make([]content.Order, 0, min(size, len(m.orders)-start))
	for _, id := range m.orders[start:] {
		o := &s.orders[id].order
		if filter.Acknowledged != nil && o.Acknowledged != *filter.Acknowledged {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, o.Status) {
			continue
		}
		if len(page) == size {
			return page, encodeCursor(page[size-1].ID), nil
		}
		page = append(page, *s.orders[id].snapshot())
	}
	return page, "", nil
}

func (s *Store) Acknowledge(merchantID uint64, orderID string, req *content.AcknowledgeRequest) (string, error) {
	return s.mutate(merchantID, orderID, req.OperationID, func(rec *orderRecord) error {
		rec.order.Acknowledged = true
		return nil
	})
}

func (s *Store) UpdateMerchantOrderID(merchantID uint64, orderID string, req *content.UpdateMerchantOrderIDRequest) (string, error) {
	if req.MerchantOrderID == "" {
		return "", invalid("merchantOrderId is required.")
	}
	return s.mutate(merchantID, orderID, req.OperationID, func(rec *orderRecord) error {
		for _, id := range s.merchants[merchantID].orders {
			if id != orderID && s.orders[id].order.MerchantOrderID == req.MerchantOrderID {
				return invalid("Merchant order ID %s is already used by order %s.", req.MerchantOrderID, id)
			}
		}
		rec.order.MerchantOrderID = req.MerchantOrderID
		return nil
	})
}

// CancelLineItem cancels pending units of a line item.
func (s *Store) CancelLineItem(merchantID uint64, orderID string, req *content.CancelLineItemRequest) (string, error) {
	return s.mutate(merchantID, orderID, req.OperationID, func(rec *orderRecord) error {
		li, err := rec.lineItem(req.LineItemID, req.Quantity)
		if err != nil {
			return err
		}
		if li.QuantityPending < req.Quantity {
			return invalid("Cannot cancel %d of line item %s: only %d pending.", req.Quantity, li.ID, li.QuantityPending)
		}
		li.QuantityPending -= req.Quantity
		li.QuantityCanceled += req.Quantity
		li.Cancellations = append(li.Cancellations, content.Cancellation{
			Actor:        "merchant",
			CreationDate: s.timestamp(),
			Quantity:     req.Quantity,
			Reason:       req.Reason,
			ReasonText:   req.ReasonText,
		})
		rec.reprice()
		return nil
	})
}

// ShipLineItems creates one shipment covering the given line item quantities.
func (s *Store) ShipLineItems(merchantID uint64, orderID string, req *content.ShipLineItemsRequest) (string, error) {
	if len(req.LineItems) == 0 {
		return "", invalid("lineItems is required.")
	}
	if len(req.ShipmentInfos) != 1 {
		return "", invalid("Exactly one shipment info is required.")
	}
	info := req.ShipmentInfos[0]
	if info.ShipmentID == "" || info.Carrier == "" {
		return "", invalid("Shipment ID and carrier are required.")
	}

	return s.mutate(merchantID, orderID, req.OperationID, func(rec *orderRecord) error {
		if !rec.advanced {
			return invalid("Order %s is not ready to ship.", orderID)
		}
		if _, ok := rec.shipment(info.ShipmentID); ok {
			return invalid("Shipment %s already exists.", info.ShipmentID)
		}
		// Validate everything before applying anything. A line item may appear
		// more than once, so pending is checked against the summed quantity.
		requested := make(map[string]int, len(req.LineItems))
		for _, sli := range req.LineItems {
			if _, err := rec.lineItem(sli.LineItemID, sli.Quantity); err != nil {
				return err
			}
			requested[sli.LineItemID] += sli.Quantity
		}
		for _, sli := range req.LineItems {
			li, _ := rec.order.LineItem(sli.LineItemID)
			if qty := requested[li.ID]; li.QuantityPending < qty {
				return invalid("Cannot ship %d of line item %s: only %d pending.", qty, li.ID, li.QuantityPending)
			}
		}
		for _, sli := range req.LineItems {
			li, _ := rec.order.LineItem(sli.LineItemID)
			li.QuantityPending -= sli.Quantity
			li.QuantityShipped += sli.Quantity
		}
		rec.order.Shipments = append(rec.order.Shipments, content.Shipment{
			ID:           info.ShipmentID,
			CreationDate: s.timestamp(),
			Carrier:      info.Carrier,
			TrackingID:   info.TrackingID,
			Status:       "shipped",
			LineItems:    append([]content.ShipmentLineItem(nil), req.LineItems...),
		})
		return nil
	})
}

// UpdateShipment marks a shipment delivered.
func (s *Store) UpdateShipment(merchantID uint64, orderID string, req *content.UpdateShipmentRequest) (string, error) {
	return s.mutate(merchantID, orderID, req.OperationID, func(rec *orderRecord) error {
		if req.Status != content.ShipmentDelivered {
			return invalid("Unsupported shipment status %q.", req.Status)
		}
		sh, ok := rec.shipment(req.ShipmentID)
		if !ok {
			return notFound("Shipment %s not found.", req.ShipmentID)
		}
		if sh.Status == content.ShipmentDelivered {
			return invalid("Shipment %s was already delivered.", sh.ID)
		}
		if req.Carrier != "" {
			sh.Carrier = req.Carrier
		}
		if req.TrackingID != "" {
			sh.TrackingID = req.TrackingID
		}
		sh.Status = content.ShipmentDelivered
		sh.DeliveryDate = req.DeliveryDate
		if sh.DeliveryDate == "" {
			sh.DeliveryDate = s.now().UTC().Format(time.DateOnly)
		}
		for _, sli := range sh.LineItems {
			li, _ := rec.order.LineItem(sli.LineItemID)
			li.QuantityDelivered += sli.Quantity
		}
		return nil
	})
}

// ReturnRefundLineItem returns and refunds delivered units of a line item.
func (s *Store) ReturnRefundLineItem(merchantID uint64, orderID string, req *content.ReturnRefundLineItemRequest) (string, error) {
	return s.mutate(merchantID, orderID, req.OperationID, func(rec *orderRecord) error {
		li, err := rec.lineItem(req.LineItemID, req.Quantity)
		if err != nil {
			return err
		}
		if returnable := li.QuantityDelivered - li.QuantityReturned; returnable < req.Quantity {
			return invalid("Cannot return %d of line item %s: only %d delivered and not returned.", req.Quantity, li.ID, returnable)
		}
		li.QuantityReturned += req.Quantity
		li.Returns = append(li.Returns, content.Return{
			Actor:        "merchant",
			CreationDate: s.timestamp(),
			Quantity:     req.Quantity,
			Reason:       req.Reason,
			ReasonText:   req.ReasonText,
		})
		rec.reprice()
		return nil
	})
}

// mutate applies fn once per operation ID. A repeated ID reports
// ExecutionDuplicate and leaves the order untouched; a rejected mutation
// does not consume its ID.
func (s *Store) mutate(merchantID uint64, orderID, operationID string, fn func(*orderRecord) error) (string, error) {
	if operationID == "" {
		return "", invalid("operationId is required.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.order(merchantID, orderID)
	if err != nil {
		return "", err
	}
	if _, seen := rec.ops[operationID]; seen {
		return content.ExecutionDuplicate, nil
	}
	if err := fn(rec); err != nil {
		return "", err
	}
	rec.ops[operationID] = struct{}{}
	rec.updateStatus()
	return content.ExecutionExecuted, nil
}

// order must be called with s.mu held.
func (s *Store) order(merchantID uint64, orderID string) (*orderRecord, error) {
	rec, ok := s.orders[orderID]
	if !ok || rec.order.MerchantID != merchantID {
		return nil, notFound("Order %s not found.", orderID)
	}
	return rec, nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func (r *orderRecord) lineItem(id string, quantity int) (*content.LineItem, error) {
	if quantity <= 0 {
		return nil, invalid("Quantity must be positive.")
	}
	li, ok := r.order.LineItem(id)
	if !ok {
		return nil, notFound("Line item %s not found.", id)
	}
	return li, nil
}

func (r *orderRecord) shipment(id string) (*content.Shipment, bool) {
	for i := range r.order.Shipments {
		if r.order.Shipments[i].ID == id {
			return &r.order.Shipments[i], true
		}
	}
	return nil, false
}

// reprice recomputes line item and order totals from the units still billed:
// ordered minus canceled minus returned.
func (r *orderRecord) reprice() {
	net, tax := r.shippingCost, decimal.Zero
	for i := range r.order.LineItems {
		li := &r.order.LineItems[i]
		billed := decimal.NewFromInt(int64(li.QuantityOrdered - li.QuantityCanceled - li.QuantityReturned))
		price := li.Product.Price.Amount().Mul(billed)
		itemTax := price.Mul(r.taxRate).Round(2)
		li.Price = content.NewPrice(price, "USD")
		li.Tax = content.NewPrice(itemTax, "USD")
		net = net.Add(price)
		tax = tax.Add(itemTax)
	}
	shippingTax := r.shippingCost.Mul(r.taxRate).Round(2)
	r.order.ShippingCost = content.NewPrice(r.shippingCost, "USD")
	r.order.ShippingCostTax = content.NewPrice(shippingTax, "USD")
	r.order.NetPriceAmount = content.NewPrice(net, "USD")
	r.order.NetTaxAmount = content.NewPrice(tax.Add(shippingTax), "USD")
}

// updateStatus derives the order status from the line item counters.
func (r *orderRecord) updateStatus() {
	var active, shipped, delivered, returned int
	for _, li := range r.order.LineItems {
		active += li.QuantityOrdered - li.QuantityCanceled
		shipped += li.QuantityShipped
		delivered += li.QuantityDelivered
		returned += li.QuantityReturned
	}

	switch {
	case active == 0:
		r.order.Status = content.StatusCanceled
	case returned > 0:
		r.order.Status = partial(returned, active, content.StatusPartiallyReturned, content.StatusReturned)
	case delivered > 0:
		r.order.Status = partial(delivered, active, content.StatusPartiallyDelivered, content.StatusDelivered)
	case shipped > 0:
		r.order.Status = partial(shipped, active, content.StatusPartiallyShipped, content.StatusShipped)
	case r.advanced:
		r.order.Status = content.StatusPendingShipment
	default:
		r.order.Status = content.StatusInProgress
	}
}

func partial(n, total int, partially, fully string) string {
	if n < total {
		return partially
	}
	return fully
}

func (r *orderRecord) snapshot() *content.Order {
	o := r.order
	o.LineItems = make([]content.LineItem, len(r.order.LineItems))
	for i, li := range r.order.LineItems {
		li.Cancellations = slices.Clone(li.Cancellations)
		li.Returns = slices.Clone(li.Returns)
		o.LineItems[i] = li
	}
	o.Shipments = make([]content.Shipment, len(r.order.Shipments))
	for i, sh := range r.order.Shipments {
		sh.LineItems = slices.Clone(sh.LineItems)
		o.Shipments[i] = sh
	}
	return &o
}
