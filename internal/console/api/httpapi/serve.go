package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"
)

const shutdownTimeout = 10 * time.Second

// Listener couples an HTTP server with its network listener.
type Listener struct {
	listener   net.Listener
	httpServer *http.Server
}

// NewListener opens the port and prepares the API server for serving.
func NewListener(port int, service *Server) (*Listener, error) {
	if service == nil {
		return nil, errors.New("api server is required")
	}
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("listen on port %d: %w", port, err)
	}
	return &Listener{
		listener:   listener,
		httpServer: &http.Server{Handler: service.Handler()},
	}, nil
}

// Addr returns the bound listener address.
func (l *Listener) Addr() string {
	if l == nil || l.listener == nil {
		return ""
	}
	return l.listener.Addr().String()
}

// Serve blocks until the server stops or the context ends.
func (l *Listener) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	log.Printf("console API listening at %v", l.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- l.httpServer.Serve(l.listener)
	}()

	select {
	case err := <-serveErr:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve HTTP: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := l.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP: %w", err)
		}
		<-serveErr
		return nil
	}
}
