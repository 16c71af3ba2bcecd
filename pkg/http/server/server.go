package http_server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"
)

type Config struct {
	Port    int
	Timeout time.Duration
}

// New http.Server dengan timeout dari config. BaseContext memakai ctx aplikasi supaya request ikut batal saat shutdown.
func New(ctx context.Context, h http.Handler, config Config) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		Handler:           http.TimeoutHandler(h, config.Timeout, `{"error":{"code":"timeout","message":"request timed out"}}`),
		BaseContext:       func(net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: config.Timeout,
		ReadTimeout:       config.Timeout,
		WriteTimeout:      config.Timeout + time.Second,
		IdleTimeout:       30 * time.Second,
	}
}
