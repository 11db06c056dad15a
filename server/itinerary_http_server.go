package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"trip-viewer/logging"
)

type ItineraryHttpServer struct {
	router      *Router
	muxRouter   *mux.Router
	rateLimiter *RateLimiter
	address     string
	logger      *zap.Logger
}

func NewItineraryHttpServer(router *Router, muxRouter *mux.Router, rateLimiter *RateLimiter, address string, logger *zap.Logger) *ItineraryHttpServer {
	return &ItineraryHttpServer{
		router:      router,
		muxRouter:   muxRouter,
		rateLimiter: rateLimiter,
		address:     address,
		logger:      logging.OrNop(logger).Named("ItineraryHttpServer"),
	}
}

// Handler registers the routes and returns them wrapped in the middleware
// chain: logging, CORS, rate limit, router.
func (s *ItineraryHttpServer) Handler() http.Handler {
	s.router.RegisterRoutes()
	var handler http.Handler = s.muxRouter
	if s.rateLimiter != nil {
		handler = s.rateLimiter.Limit(handler)
	}
	return LoggingMiddleware(s.logger)(CORS(handler))
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *ItineraryHttpServer) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", zap.String("address", s.address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down the server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server exiting")
	return nil
}
