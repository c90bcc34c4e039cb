// Package http implements the proxy with a chi router.
package http

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.dedis.ch/bazaar"
	"golang.org/x/xerrors"
)

// DefaultTimeout is the maximum duration of a request when none is provided.
const DefaultTimeout = 15 * time.Second

// Option is the type of options to create the proxy.
type Option func(*HTTP)

// WithTimeout sets the maximum duration of a request.
func WithTimeout(d time.Duration) Option {
	return func(h *HTTP) {
		h.timeout = d
	}
}

// HTTP defines a proxy http.
//
// - implements proxy.Proxy
type HTTP struct {
	sync.Mutex

	router     chi.Router
	server     *http.Server
	logger     zerolog.Logger
	listenAddr string
	timeout    time.Duration
	ln         net.Listener
	quit       chan struct{}
}

// NewHTTP creates a new proxy http. An empty address makes the server listen
// on a random free port.
func NewHTTP(listenAddr string, opts ...Option) *HTTP {
	h := &HTTP{
		logger:     bazaar.Logger.With().Str("role", "http proxy").Logger(),
		listenAddr: listenAddr,
		timeout:    DefaultTimeout,
		quit:       make(chan struct{}),
	}

	for _, opt := range opts {
		opt(h)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID, middleware.RealIP, logging(h.logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(h.timeout))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	h.router = router
	h.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: h.timeout,
	}

	return h
}

// Listen implements proxy.Proxy. It panics if the address cannot be bound.
func (h *HTTP) Listen() {
	h.logger.Info().Msg("Client server is starting...")

	ln, err := net.Listen("tcp", h.listenAddr)
	if err != nil {
		h.logger.Error().Msgf("failed to create conn '%s': %v", h.listenAddr, err)
		panic(xerrors.Errorf("failed to create conn '%s': %v", h.listenAddr, err))
	}

	h.Lock()
	h.ln = ln
	h.Unlock()

	done := make(chan struct{})

	go func() {
		<-h.quit
		h.logger.Info().Msg("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		h.server.SetKeepAlivesEnabled(false)
		err := h.server.Shutdown(ctx)
		if err != nil {
			h.logger.Err(err).Msg("could not gracefully shutdown the server")
		}

		close(done)
	}()

	h.logger.Info().Msgf("Server is ready to handle requests at %s", h.url(ln.Addr()))

	err = h.server.Serve(ln)
	if err != nil && err != http.ErrServerClosed {
		h.logger.Error().Msgf("failed to serve on %s: %v", ln.Addr(), err)
	}

	<-done
	h.logger.Info().Msg("Server stopped")
}

// Stop implements proxy.Proxy. It must be called once for each call to
// Listen.
func (h *HTTP) Stop() {
	h.quit <- struct{}{}
}

// Mount implements proxy.Proxy.
func (h *HTTP) Mount(pattern string, handler http.Handler) {
	h.router.Mount(pattern, handler)
}

// GetAddr implements proxy.Proxy.
func (h *HTTP) GetAddr() net.Addr {
	h.Lock()
	defer h.Unlock()

	if h.ln == nil {
		return nil
	}

	return h.ln.Addr()
}

func (h *HTTP) url(addr net.Addr) *url.URL {
	lu := &url.URL{Scheme: "http", Host: addr.String()}
	if strings.HasPrefix(h.listenAddr, ":") {
		lu.Host = "localhost" + h.listenAddr
	}

	return lu
}

// logging is a middleware that logs every request once it is served.
func logging(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				observe(r.Method, ww.Status())

				logger.Info().
					Str("requestID", middleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("url", r.URL.Path).
					Str("remoteAddr", r.RemoteAddr).
					Int("status", ww.Status()).
					Dur("duration", time.Since(start)).
					Msg("")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
