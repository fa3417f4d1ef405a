// Package pagination walks cursor-paginated listing endpoints.
//
// A listing returns one page of items plus an opaque continuation token. The
// walker asks for the first page without a token, hands every item to the
// caller in server order and follows the token until a page arrives without
// one. Pages are fetched strictly one after another: the next token is only
// known once the previous page has been read.
//
//	walker := pagination.NewWalker(svc.Orders.Pages(opts), pagination.DefaultConfig())
//	n, err := walker.Walk(ctx, func(o content.Order) error {
//		printer.Order(&o)
//		return nil
//	})
//
// or, with range-over-func:
//
//	for order, err := range walker.All(ctx) {
//		if err != nil {
//			return err
//		}
//		...
//	}
//
// A fetch failure ends the walk at once. Items from earlier pages have
// already been delivered; nothing from the failing page or later ones is.
package pagination
