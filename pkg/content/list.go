package content

import (
	"context"
	"fmt"

	"github.com/Sternrassler/merchant-api-samples/pkg/pagination"
)

// ListResponse is the envelope every listing endpoint returns.
type ListResponse[T any] struct {
	Resources     []T    `json:"resources"`
	NextPageToken string `json:"nextPageToken,omitempty"`
}

func listPage[T any](ctx context.Context, b resource, collection, pageToken string, pageSize int) (*pagination.Page[T], error) {
	var resp ListResponse[T]
	if err := b.r.GetJSON(ctx, b.path(collection), listQuery(pageToken, pageSize), &resp); err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return &pagination.Page[T]{Items: resp.Resources, NextPageToken: resp.NextPageToken}, nil
}

func getOne[T any](ctx context.Context, b resource, collection string, id uint64) (*T, error) {
	var out T
	if err := b.r.GetJSON(ctx, b.path(collection, formatID(id)), nil, &out); err != nil {
		return nil, fmt.Errorf("get %s %d: %w", collection, id, err)
	}
	return &out, nil
}
