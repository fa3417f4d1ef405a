package present

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Sternrassler/merchant-api-samples/pkg/client"
	"github.com/Sternrassler/merchant-api-samples/pkg/content"
)

// Printer writes reports to one writer, normally stdout.
type Printer struct {
	w io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Printf writes progress text verbatim.
func (p *Printer) Printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) Println(args ...any) {
	fmt.Fprintln(p.w, args...)
}

func (p *Printer) Order(o *content.Order) {
	fmt.Fprintf(p.w, "Order %s:\n", o.ID)
	Render(p.w, "", []Field{
		{Label: "Status", Format: text(o.Status)},
		{Label: "Merchant", Format: text(fmt.Sprint(o.MerchantID))},
		{Label: "Merchant order ID", Present: nonEmpty(o.MerchantOrderID), Format: text(o.MerchantOrderID)},
		{Label: "Placed on date", Format: text(o.PlacedDate)},
		{Label: "Net amount", Present: when(o.NetPriceAmount != nil), Format: o.NetPriceAmount.String},
		{Label: "Net tax", Present: when(o.NetTaxAmount != nil), Format: o.NetTaxAmount.String},
	})
	Render(p.w, "  ", []Field{
		{Label: "Payment status", Present: nonEmpty(o.PaymentStatus), Format: text(o.PaymentStatus)},
	})
	Render(p.w, "", []Field{
		{Label: "Acknowledged", Format: yesNo(o.Acknowledged)},
		{Present: when(len(o.LineItems) > 0), Format: text(fmt.Sprintf("%d line item(s):", len(o.LineItems)))},
	})
	for i := range o.LineItems {
		p.lineItem(&o.LineItems[i])
	}
	Render(p.w, "", []Field{
		{Label: "Shipping cost", Present: when(o.ShippingCost != nil), Format: o.ShippingCost.String},
		{Label: "Shipping cost tax", Present: when(o.ShippingCostTax != nil), Format: o.ShippingCostTax.String},
		{Present: when(len(o.Shipments) > 0), Format: text(fmt.Sprintf("%d shipment(s):", len(o.Shipments)))},
	})
	for i := range o.Shipments {
		p.shipment(&o.Shipments[i])
	}
}

func (p *Printer) lineItem(li *content.LineItem) {
	fmt.Fprintf(p.w, "  Line item: %s\n", li.ID)

	product := li.Product
	if product == nil {
		product = &content.Product{}
	}
	details := li.ShippingDetails
	method := &content.ShippingMethod{}
	if details != nil && details.Method != nil {
		method = details.Method
	}
	returnable := li.ReturnInfo != nil && li.ReturnInfo.IsReturnable

	Render(p.w, "  ", []Field{
		{Label: "Product", Format: text(fmt.Sprintf("%s (%s)", product.ID, product.Title))},
		{Label: "Price", Present: when(li.Price != nil), Format: li.Price.String},
		{Label: "Tax", Present: when(li.Tax != nil), Format: li.Tax.String},
		{Label: "Ship by date", Present: when(details != nil), Format: func() string { return details.ShipByDate }},
		{Label: "Deliver by date", Present: when(details != nil), Format: func() string { return details.DeliverByDate }},
		{
			Present: when(details != nil && details.Method != nil),
			Format:  text(fmt.Sprintf("Deliver via %s %s (%d - %d days)",
				method.Carrier, method.MethodName, method.MinDaysInTransit, method.MaxDaysInTransit)),
		},
		{Present: when(returnable), Format: text("Item is returnable.")},
	})
	if returnable {
		Render(p.w, "    ", []Field{
			{Label: "Days to return", Format: number(li.ReturnInfo.DaysToReturn)},
			{Present: nonEmpty(li.ReturnInfo.PolicyURL), Format: text(fmt.Sprintf("Return policy is at %s.", li.ReturnInfo.PolicyURL))},
		})
	}
	Render(p.w, "  ", []Field{
		{Present: when(!returnable), Format: text("Item is not returnable.")},
		{Label: "Quantity ordered", Present: nonZero(li.QuantityOrdered), Format: number(li.QuantityOrdered)},
		{Label: "Quantity pending", Present: nonZero(li.QuantityPending), Format: number(li.QuantityPending)},
		{Label: "Quantity canceled", Present: nonZero(li.QuantityCanceled), Format: number(li.QuantityCanceled)},
		{Label: "Quantity shipped", Present: nonZero(li.QuantityShipped), Format: number(li.QuantityShipped)},
		{Label: "Quantity delivered", Present: nonZero(li.QuantityDelivered), Format: number(li.QuantityDelivered)},
		{Label: "Quantity returned", Present: nonZero(li.QuantityReturned), Format: number(li.QuantityReturned)},
		{Present: when(len(li.Cancellations) > 0), Format: text(fmt.Sprintf("%d cancellation(s):", len(li.Cancellations)))},
	})
	for _, c := range li.Cancellations {
		fmt.Fprintln(p.w, "    Cancellation:")
		p.adjustment(c.Actor, c.CreationDate, c.Quantity, c.Reason, c.ReasonText)
	}
	Render(p.w, "  ", []Field{
		{Present: when(len(li.Returns) > 0), Format: text(fmt.Sprintf("%d return(s):", len(li.Returns)))},
	})
	for _, r := range li.Returns {
		fmt.Fprintln(p.w, "    Return:")
		p.adjustment(r.Actor, r.CreationDate, r.Quantity, r.Reason, r.ReasonText)
	}
}

// adjustment renders the shared body of a cancellation or return record.
func (p *Printer) adjustment(actor, created string, quantity int, reason, reasonText string) {
	Render(p.w, "    ", []Field{
		{Label: "Actor", Present: nonEmpty(actor), Format: text(actor)},
		{Label: "Creation date", Format: text(created)},
		{Label: "Quantity", Format: number(quantity)},
		{Label: "Reason", Format: text(reason)},
		{Label: "Reason text", Format: text(reasonText)},
	})
}

func (p *Printer) shipment(s *content.Shipment) {
	fmt.Fprintf(p.w, "  Shipment %s:\n", s.ID)
	Render(p.w, "  ", []Field{
		{Label: "Creation date", Format: text(s.CreationDate)},
		{Label: "Carrier", Format: text(s.Carrier)},
		{Label: "Tracking ID", Format: text(s.TrackingID)},
		{Label: "Status", Present: nonEmpty(s.Status), Format: text(s.Status)},
		{Present: when(len(s.LineItems) > 0), Format: text(fmt.Sprintf("%d line item(s):", len(s.LineItems)))},
	})
	for _, item := range s.LineItems {
		fmt.Fprintf(p.w, "    %d of item %s\n", item.Quantity, item.LineItemID)
	}
	Render(p.w, "  ", []Field{
		{Label: "Delivery date", Present: nonEmpty(s.DeliveryDate), Format: text(s.DeliveryDate)},
	})
}

func (p *Printer) Account(a *content.Account) {
	fmt.Fprintf(p.w, "Account %d:\n", a.ID)
	Render(p.w, "", []Field{
		{Label: "Name", Format: text(a.Name)},
		{Label: "Website URL", Present: nonEmpty(a.WebsiteURL), Format: text(a.WebsiteURL)},
		{Label: "Adult content", Present: when(a.AdultContent), Format: yesNo(a.AdultContent)},
		{Present: when(len(a.Users) > 0), Format: text(fmt.Sprintf("%d user(s):", len(a.Users)))},
	})
	for _, u := range a.Users {
		role := "standard"
		if u.Admin {
			role = "admin"
		}
		fmt.Fprintf(p.w, "  - %s (%s)\n", u.EmailAddress, role)
	}
}

func (p *Printer) AccountStatus(s *content.AccountStatus) {
	fmt.Fprintf(p.w, "Information for account %s:\n", s.AccountID)
	Render(p.w, "", []Field{
		{Label: "Website claimed", Format: yesNo(s.WebsiteClaimed)},
		{Present: when(len(s.AccountLevelIssues) == 0), Format: text("No account-level issues.")},
		{
			Present: when(len(s.AccountLevelIssues) > 0),
			Format:  text(fmt.Sprintf("There are %d account-level issues:", len(s.AccountLevelIssues))),
		},
	})
	for _, issue := range s.AccountLevelIssues {
		fmt.Fprintf(p.w, "  - [%s] %s\n", issue.Severity, issue.Title)
		Render(p.w, "    ", []Field{
			{Label: "Country", Present: nonEmpty(issue.Country), Format: text(issue.Country)},
			{Label: "Destination", Present: nonEmpty(issue.Destination), Format: text(issue.Destination)},
			{Label: "Detail", Present: nonEmpty(issue.Detail), Format: text(issue.Detail)},
			{Label: "Documentation", Present: nonEmpty(issue.DocumentationURL), Format: text(issue.DocumentationURL)},
		})
	}
	for _, prod := range s.Products {
		fmt.Fprintf(p.w, "- Products for %s/%s in %s:\n", prod.Channel, prod.Destination, prod.Country)
		stats := prod.Statistics
		if stats == nil {
			stats = &content.AccountStatusStatistics{}
		}
		Render(p.w, "  ", []Field{
			{Label: "Active", Format: text(fmt.Sprint(stats.Active))},
			{Label: "Pending", Format: text(fmt.Sprint(stats.Pending))},
			{Label: "Disapproved", Format: text(fmt.Sprint(stats.Disapproved))},
			{Label: "Expiring", Format: text(fmt.Sprint(stats.Expiring))},
		})
	}
}

func (p *Printer) AccountTax(t *content.AccountTax) {
	fmt.Fprintf(p.w, "Tax information for account %d:\n", t.AccountID)
	Render(p.w, "", []Field{
		{Present: when(len(t.Rules) == 0), Format: text("No tax information.")},
		{Present: when(len(t.Rules) > 0), Format: text(fmt.Sprintf("%d tax rule(s):", len(t.Rules)))},
	})
	for _, r := range t.Rules {
		fmt.Fprintf(p.w, "  Rule for %s (location %s):\n", r.Country, r.LocationID)
		Render(p.w, "  ", []Field{
			{Label: "Rate", Present: when(!r.UseGlobalRate), Format: text(r.RatePercent + "%")},
			{Present: when(r.UseGlobalRate), Format: text("Uses the global rate.")},
			{Label: "Shipping taxed", Format: yesNo(r.ShippingTaxed)},
		})
	}
}

func (p *Printer) ShippingSettings(s *content.ShippingSettings) {
	fmt.Fprintf(p.w, "Shipping information for account %d:\n", s.AccountID)
	Render(p.w, "", []Field{
		{Present: when(len(s.PostalCodeGroups) == 0), Format: text("No postal code groups.")},
		{Present: when(len(s.PostalCodeGroups) > 0), Format: text(fmt.Sprintf("%d postal code group(s).", len(s.PostalCodeGroups)))},
		{Present: when(len(s.Services) == 0), Format: text("No services.")},
		{Present: when(len(s.Services) > 0), Format: text(fmt.Sprintf("%d service(s):", len(s.Services)))},
	})
	for _, svc := range s.Services {
		fmt.Fprintf(p.w, "  Service %q:\n", svc.Name)
		dt := svc.DeliveryTime
		Render(p.w, "  ", []Field{
			{Label: "Active", Format: yesNo(svc.Active)},
			{Label: "Country", Format: text(svc.DeliveryCountry)},
			{Label: "Currency", Format: text(svc.Currency)},
			{
				Label:   "Delivery time",
				Present: when(dt != nil),
				Format:  func() string { return fmt.Sprintf("%d - %d days", dt.MinTransitTimeInDays, dt.MaxTransitTimeInDays) },
			},
			{Present: when(len(svc.RateGroups) > 0), Format: text(fmt.Sprintf("%d rate group(s):", len(svc.RateGroups)))},
		})
		for _, g := range svc.RateGroups {
			fmt.Fprintf(p.w, "    - %s\n", describeRate(g))
		}
	}
}

func describeRate(g content.RateGroup) string {
	var b strings.Builder
	if g.Name != "" {
		fmt.Fprintf(&b, "%s: ", g.Name)
	}
	v := g.SingleValue
	switch {
	case v == nil:
		b.WriteString("rate table")
	case v.NoShipping:
		b.WriteString("no shipping")
	case v.FlatRate != nil:
		fmt.Fprintf(&b, "flat rate %s", v.FlatRate)
	case v.PricePercentage != "":
		fmt.Fprintf(&b, "%s%% of price", v.PricePercentage)
	case v.CarrierRateName != "":
		fmt.Fprintf(&b, "carrier rate %s", v.CarrierRateName)
	default:
		b.WriteString("unspecified")
	}
	if len(g.ApplicableShippingLabels) > 0 {
		fmt.Fprintf(&b, " (labels: %s)", strings.Join(g.ApplicableShippingLabels, ", "))
	}
	return b.String()
}

// BatchEntry reports one custombatch response entry.
func (p *Printer) BatchEntry(e *content.AccountsBatchResponseEntry) {
	if e.Errors == nil {
		fmt.Fprintf(p.w, "Batch item %d successful.\n", e.BatchID)
		return
	}
	fmt.Fprintf(p.w, "Batch item %d resulted in an error.\n", e.BatchID)
	fmt.Fprintf(p.w, "Received error code %d with message: %s\n", e.Errors.Code, e.Errors.Message)
	for _, d := range e.Errors.Errors {
		fmt.Fprintf(p.w, "- %s: %s\n", d.Reason, d.Message)
	}
}

// Error reports a failed call.
func (p *Printer) Error(err error) {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode != 0 {
		fmt.Fprintf(p.w, "Received error code %d with message: %s\n", apiErr.StatusCode, apiErr.Message)
		Render(p.w, "", []Field{
			{Label: "Reason", Present: nonEmpty(apiErr.Reason), Format: text(apiErr.Reason)},
		})
		return
	}
	fmt.Fprintf(p.w, "Error: %v\n", err)
}
