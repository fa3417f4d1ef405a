package content

import (
	"context"
	"fmt"
	"net/http"
)

type ProductsService struct{ resource }

// Delete removes a product by its REST ID (channel:contentLanguage:targetCountry:offerId).
func (s *ProductsService) Delete(ctx context.Context, productID string) error {
	if err := s.r.SendJSON(ctx, http.MethodDelete, s.path("products", productID), nil, nil); err != nil {
		return fmt.Errorf("delete product %s: %w", productID, err)
	}
	return nil
}
