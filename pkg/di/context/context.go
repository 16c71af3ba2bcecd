package shortcontext

import (
	"context"
	"os/signal"
	"syscall"
)

// New context aplikasi, batal saat SIGINT atau SIGTERM.
func New() (context.Context, func(), error) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	return ctx, cancel, nil
}
