package indexer

import (
	"context"
	"time"

	"github.com/w-h-a/medichat/embedder"
	"github.com/w-h-a/medichat/store"
)

type Option func(*Options)

type Options struct {
	Embedder    embedder.Embedder
	Store       store.Store
	MaxAttempts int
	BaseDelay   time.Duration
	Context     context.Context
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

func WithMaxAttempts(attempts int) Option {
	return func(o *Options) {
		o.MaxAttempts = attempts
	}
}

func WithBaseDelay(delay time.Duration) Option {
	return func(o *Options) {
		o.BaseDelay = delay
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		Context:     context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
