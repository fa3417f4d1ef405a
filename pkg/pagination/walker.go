package pagination

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "merchant_pages_fetched_total",
		Help: "Total listing pages fetched",
	})

	itemsEmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "merchant_page_items_total",
		Help: "Total listing items handed to callers",
	})

	walkErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "merchant_page_walk_errors_total",
		Help: "Total listing walks that stopped on an error",
	})
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 250
)

// ErrRepeatedPageToken is returned when the server hands back a token it
// already issued, which would otherwise loop forever.
var ErrRepeatedPageToken = errors.New("server repeated a page token")

// errStop ends a walk early from inside All without reporting an error.
var errStop = errors.New("stop")

// Page is one listing response.
type Page[T any] struct {
	Items         []T
	NextPageToken string
}

// FetchFunc fetches the page for pageToken ("" for the first page).
type FetchFunc[T any] func(ctx context.Context, pageToken string, pageSize int) (*Page[T], error)

// Config holds walker configuration.
type Config struct {
	// PageSize is sent as maxResults, clamped to 1..MaxPageSize.
	PageSize int

	// Timeout bounds each page fetch. Zero means no per-page limit.
	Timeout time.Duration
}

// DefaultConfig returns the page size used by every sample listing.
func DefaultConfig() Config {
	return Config{PageSize: DefaultPageSize}
}

// Walker follows page tokens for one listing.
type Walker[T any] struct {
	fetch  FetchFunc[T]
	config Config
	tracer trace.Tracer
}

// NewWalker creates a walker. Out-of-range page sizes are clamped.
func NewWalker[T any](fetch FetchFunc[T], config Config) *Walker[T] {
	switch {
	case config.PageSize <= 0:
		config.PageSize = DefaultPageSize
	case config.PageSize > MaxPageSize:
		config.PageSize = MaxPageSize
	}
	return &Walker[T]{
		fetch:  fetch,
		config: config,
		tracer: otel.Tracer("github.com/Sternrassler/merchant-api-samples/pkg/pagination"),
	}
}

// Walk calls emit for every item of every page in server order and returns
// how many items were emitted. An error from fetch or emit stops the walk.
func (w *Walker[T]) Walk(ctx context.Context, emit func(T) error) (int, error) {
	start := time.Now()
	seen := make(map[string]struct{})
	token := ""
	emitted := 0

	for pageNum := 1; ; pageNum++ {
		if err := ctx.Err(); err != nil {
			walkErrorsTotal.Inc()
			return emitted, err
		}

		page, err := w.fetchPage(ctx, pageNum, token)
		if err != nil {
			walkErrorsTotal.Inc()
			log.Error().Err(err).Int("page", pageNum).Int("emitted", emitted).Msg("Listing walk aborted")
			return emitted, fmt.Errorf("fetch page %d: %w", pageNum, err)
		}

		for _, item := range page.Items {
			if err := emit(item); err != nil {
				return emitted, err
			}
			emitted++
			itemsEmittedTotal.Inc()
		}

		if page.NextPageToken == "" {
			log.Debug().
				Int("pages", pageNum).
				Int("items", emitted).
				Dur("duration", time.Since(start)).
				Msg("Listing walk complete")
			return emitted, nil
		}

		if _, dup := seen[page.NextPageToken]; dup || page.NextPageToken == token {
			walkErrorsTotal.Inc()
			return emitted, fmt.Errorf("page %d: %w: %q", pageNum, ErrRepeatedPageToken, page.NextPageToken)
		}
		seen[page.NextPageToken] = struct{}{}
		token = page.NextPageToken
	}
}

func (w *Walker[T]) fetchPage(ctx context.Context, pageNum int, token string) (*Page[T], error) {
	ctx, span := w.tracer.Start(ctx, "pagination.fetch_page", trace.WithAttributes(
		attribute.Int("page.number", pageNum),
		attribute.Int("page.size", w.config.PageSize),
		attribute.Bool("page.continued", token != ""),
	))
	defer span.End()

	if w.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.config.Timeout)
		defer cancel()
	}

	page, err := w.fetch(ctx, token, w.config.PageSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if page == nil {
		page = &Page[T]{}
	}

	pagesFetchedTotal.Inc()
	span.SetAttributes(attribute.Int("page.items", len(page.Items)))
	log.Debug().
		Int("page", pageNum).
		Int("items", len(page.Items)).
		Bool("has_next", page.NextPageToken != "").
		Msg("Fetched page")
	return page, nil
}

// All returns the walk as a sequence. Breaking out of the loop stops
// fetching; a failure is yielded once as the final pair.
func (w *Walker[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		_, err := w.Walk(ctx, func(item T) error {
			if !yield(item, nil) {
				return errStop
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStop) {
			var zero T
			yield(zero, err)
		}
	}
}

// Collect walks the whole listing into a slice. On error the items gathered
// so far are returned alongside it.
func Collect[T any](ctx context.Context, fetch FetchFunc[T], config Config) ([]T, error) {
	var items []T
	_, err := NewWalker(fetch, config).Walk(ctx, func(item T) error {
		items = append(items, item)
		return nil
	})
	return items, err
}
