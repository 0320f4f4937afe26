package retriever

import (
	"context"

	"github.com/w-h-a/medichat/embedder"
	"github.com/w-h-a/medichat/store"
)

type Option func(*Options)

type Options struct {
	Embedder  embedder.Embedder
	Store     store.Store
	Threshold float64
	Limit     int
	Context   context.Context
}

func WithEmbedder(embedder embedder.Embedder) Option {
	return func(o *Options) {
		o.Embedder = embedder
	}
}

func WithStore(store store.Store) Option {
	return func(o *Options) {
		o.Store = store
	}
}

func WithThreshold(threshold float64) Option {
	return func(o *Options) {
		o.Threshold = threshold
	}
}

func WithLimit(limit int) Option {
	return func(o *Options) {
		o.Limit = limit
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Threshold: 0.95,
		Limit:     5,
		Context:   context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
