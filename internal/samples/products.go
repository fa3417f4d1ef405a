package samples

import "context"

// DeleteProduct deletes a product by its REST ID.
func (r *Runner) DeleteProduct(ctx context.Context, productID string) error {
	if err := r.svc.Products.Delete(ctx, productID); err != nil {
		return err
	}
	r.out.Printf("Product %s successfully deleted.\n", productID)
	return nil
}
