package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/w-h-a/medichat/server"
)

type httpServer struct {
	options server.Options
	srv     *http.Server
	logger  *slog.Logger
}

func (s *httpServer) Start() error {
	s.logger.Info("listening", "address", s.options.Address)

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *httpServer) Stop(ctx context.Context) error {
	s.logger.Info("shutting down")

	return s.srv.Shutdown(ctx)
}

func (s *httpServer) Address() string {
	return s.options.Address
}

func NewServer(handler http.Handler, opts ...server.Option) server.Server {
	options := server.NewOptions(opts...)

	if ms, ok := MiddlewareFrom(options.Context); ok {
		for i := len(ms) - 1; i >= 0; i-- {
			handler = ms[i](handler)
		}
	}

	return &httpServer{
		options: options,
		srv: &http.Server{
			Addr:         options.Address,
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		logger: slog.Default().With("component", "http-server"),
	}
}
