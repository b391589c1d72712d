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


// Package server provides the HTTP API for minirag.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/poiesic/minirag/core"
	"github.com/poiesic/minirag/session"
)

// maxUploadBytes bounds file uploads.
const maxUploadBytes = 32 << 20

// Session is the stateful pipeline the API drives.
// *session.Session satisfies it.
type Session interface {
	Ingest(ctx context.Context, text, source string) (*session.IngestResult, error)
	Ask(ctx context.Context, question string) (*core.QueryResult, error)
	Clear(ctx context.Context) error
	CurrentSource() string
}

// Counter reports how many chunks are indexed.
// *minirag.Engine satisfies it.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Server is the HTTP server for the minirag API.
type Server struct {
	session Session
	counter Counter
	addr    string
	timeout time.Duration
	logger  *slog.Logger
	server  *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "server")
	}
}

// WithRequestTimeout bounds each request. Default is 120 seconds.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.timeout = timeout
	}
}

// NewServer creates a server listening on addr.
func NewServer(sess Session, counter Counter, addr string, opts ...Option) *Server {
	s := &Server{
		session: sess,
		counter: counter,
		addr:    addr,
		timeout: 120 * time.Second,
		logger:  slog.Default().With("component", "server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Post("/api/v1/ingest", s.handleIngest)
	r.Post("/api/v1/ingest/file", s.handleIngestFile)
	r.Post("/api/v1/query", s.handleQuery)
	r.Delete("/api/v1/index", s.handleClear)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
