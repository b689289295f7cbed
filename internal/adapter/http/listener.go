package httpadapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"qutebrowser-agent/internal/application/port/output"

	"golang.org/x/net/netutil"
)

const shutdownTimeout = 10 * time.Second

// Listen opens a TCP listener that accepts at most maxConns simultaneous
// connections. maxConns <= 0 means unlimited.
func Listen(addr string, maxConns int) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	if maxConns > 0 {
		ln = netutil.LimitListener(ln, maxConns)
	}
	return ln, nil
}

// Serve runs handler on ln until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler, logger output.LoggerPort) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	if logger != nil {
		logger.Info("HTTP server listening", "addr", ln.Addr().String())
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}

	if logger != nil {
		logger.Info("HTTP server stopped")
	}
	return nil
}
