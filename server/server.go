package server

import "context"

// Server is a long-running request listener with graceful shutdown.
type Server interface {
	Start() error
	Stop(ctx context.Context) error
	Address() string
}
