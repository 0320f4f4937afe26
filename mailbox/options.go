package mailbox

import "context"

// DefaultQuery matches the subject keywords blood-test reports arrive under.
const DefaultQuery = "subject:(blood test OR blood analysis OR lab OR blood OR hemoglobin)"

type Option func(*Options)

type Options struct {
	Token   string
	Query   string
	Context context.Context
}

func WithToken(token string) Option {
	return func(o *Options) {
		o.Token = token
	}
}

func WithQuery(query string) Option {
	return func(o *Options) {
		o.Query = query
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Query:   DefaultQuery,
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
