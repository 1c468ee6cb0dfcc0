// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package server exposes the mapping service over HTTP with gin.
//
// Routes:
//
//	POST  /v1/mappings              map a concept and store the result
//	POST  /v1/mappings/batch        map many concepts
//	POST  /v1/map                   map a concept, wire form only, nothing stored
//	GET   /v1/mappings/:id          fetch a stored mapping
//	PATCH /v1/mappings/:id/status   validate or reject a mapping
//	GET   /v1/users/:user/mappings  list a user's mappings
//	GET   /v1/users/:user/analytics summarize a user's mappings
//	POST  /v1/concepts              add concepts to the knowledge base
//	GET   /v1/concepts/search       search the knowledge base
//	GET   /healthz                  liveness
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/poiesic/tradmap"
)

// ErrServiceRequired is returned when no service is provided.
var ErrServiceRequired = errors.New("mapping service required")

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

// Server serves the HTTP API.
type Server struct {
	svc            *tradmap.Service
	router         *gin.Engine
	allowedOrigins []string
	serviceName    string
	tracing        bool
	health         func(context.Context) error
	logger         *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithAllowedOrigins sets the CORS origins. Default is any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) error {
		s.allowedOrigins = origins
		return nil
	}
}

// WithTracing wraps every request in an OpenTelemetry server span.
func WithTracing(serviceName string) Option {
	return func(s *Server) error {
		s.tracing = true
		s.serviceName = serviceName
		return nil
	}
}

// WithHealthCheck adds a dependency check to /healthz.
func WithHealthCheck(check func(context.Context) error) Option {
	return func(s *Server) error {
		s.health = check
		return nil
	}
}

// New creates a Server around svc.
func New(svc *tradmap.Service, opts ...Option) (*Server, error) {
	if svc == nil {
		return nil, ErrServiceRequired
	}
	s := &Server{
		svc:            svc,
		allowedOrigins: []string{"*"},
		serviceName:    "tradmap",
		logger:         slog.Default().With("component", "server"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if len(s.allowedOrigins) == 0 {
		s.allowedOrigins = []string{"*"}
	}
	s.router = s.setupRouter()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
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

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if s.tracing {
		router.Use(otelgin.Middleware(s.serviceName))
	}
	router.Use(
		traceContext(),
		requestLogger(s.logger),
		limitBodySize(maxBodyBytes),
		cors.New(cors.Config{
			AllowOrigins: s.allowedOrigins,
			AllowMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization", headerRequestID},
			MaxAge:       12 * time.Hour,
		}),
	)

	router.GET("/healthz", s.handleHealth)

	v1 := router.Group("/v1")
	v1.POST("/map", s.handleMap)
	v1.POST("/mappings", s.handleCreateMapping)
	v1.POST("/mappings/batch", s.handleBatch)
	v1.GET("/mappings/:id", s.handleGetMapping)
	v1.PATCH("/mappings/:id/status", s.handleUpdateStatus)
	v1.GET("/users/:user/mappings", s.handleUserMappings)
	v1.GET("/users/:user/analytics", s.handleUserAnalytics)
	v1.POST("/concepts", s.handleSaveConcepts)
	v1.GET("/concepts/search", s.handleSearchConcepts)

	return router
}
