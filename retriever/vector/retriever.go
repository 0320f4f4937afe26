package vector

import (
	"context"
	"log/slog"

	"github.com/w-h-a/medichat/retriever"
	"github.com/w-h-a/medichat/store"
)

type vectorRetriever struct {
	options retriever.Options
	logger  *slog.Logger
}

func (r *vectorRetriever) Retrieve(ctx context.Context, query string, ownerId string) []store.Record {
	vec, err := r.options.Embedder.Embed(ctx, query)
	if err != nil {
		r.logger.Warn("query embedding failed", "error", err)
		return []store.Record{}
	}

	candidates, err := r.options.Store.Search(ctx, ownerId, vec, r.options.Limit)
	if err != nil {
		r.logger.Warn("store search failed", "error", err)
		return []store.Record{}
	}

	records := make([]store.Record, 0, len(candidates))
	for _, rec := range candidates {
		if float64(rec.Score) < r.options.Threshold {
			continue
		}
		records = append(records, rec)
	}

	return records
}

func NewRetriever(opts ...retriever.Option) retriever.Retriever {
	options := retriever.NewOptions(opts...)

	if options.Embedder == nil {
		panic("embedder is required")
	}

	if options.Store == nil {
		panic("store is required")
	}

	return &vectorRetriever{
		options: options,
		logger:  slog.Default().With("component", "vector-retriever"),
	}
}
