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


package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/poiesic/minirag/core"
	"github.com/poiesic/minirag/ingestion"
)

// Ingester indexes text under a source label.
// *ingestion.Pipeline satisfies it.
type Ingester interface {
	Ingest(ctx context.Context, text, source string) (*ingestion.Report, error)
	Namespace() string
}

// Answerer answers questions against the index.
// *answer.Pipeline satisfies it.
type Answerer interface {
	Ask(ctx context.Context, question string) (*core.QueryResult, error)
}

// Clearer removes everything stored in a namespace.
// storage.ChunkIndex satisfies it.
type Clearer interface {
	DeleteNamespace(ctx context.Context, namespace string) error
}

// IngestResult describes the outcome of Session.Ingest.
type IngestResult struct {
	// Source is the label the text was ingested under.
	Source string

	// Chunks is the number of chunks written; zero when skipped.
	Chunks int

	// Skipped is true when Source was already the current source.
	Skipped bool
}

// Session holds the ingestion state for one user.
type Session struct {
	mu       sync.Mutex
	ingester Ingester
	answerer Answerer
	clearer  Clearer
	current  string
	indexed  bool
	logger   *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "session")
	}
}

// WithClearer enables Clear. Without one, Clear only resets the state.
func WithClearer(clearer Clearer) Option {
	return func(s *Session) {
		s.clearer = clearer
	}
}

// New creates an Empty session.
func New(ingester Ingester, answerer Answerer, opts ...Option) (*Session, error) {
	if ingester == nil {
		return nil, ErrIngesterRequired
	}
	if answerer == nil {
		return nil, ErrAnswererRequired
	}

	s := &Session{
		ingester: ingester,
		answerer: answerer,
		logger:   slog.Default().With("component", "session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CurrentSource returns the label of the last source ingested, or
// core.StateEmpty. A source may itself be labelled "Empty"; use Indexed
// to tell the two apart.
func (s *Session) CurrentSource() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.indexed {
		return core.StateEmpty
	}
	return s.current
}

// Indexed reports whether anything has been ingested.
func (s *Session) Indexed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexed
}

// Ingest indexes text under source unless source is already current.
// An empty source is labelled ingestion.PastedTextLabel. The state only
// changes when ingestion succeeds.
func (s *Session) Ingest(ctx context.Context, text, source string) (*IngestResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ingestion.ErrEmptyInput
	}
	if source == "" {
		source = ingestion.PastedTextLabel
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexed && source == s.current {
		s.logger.Debug("source already indexed, skipping", "source", source)
		return &IngestResult{Source: source, Skipped: true}, nil
	}

	report, err := s.ingester.Ingest(ctx, text, source)
	if err != nil {
		return nil, err
	}

	previous := core.StateEmpty
	if s.indexed {
		previous = s.current
	}
	s.current = report.Source
	s.indexed = true
	s.logger.Info("indexed source", "source", report.Source, "previous", previous, "chunks", report.Chunks)
	return &IngestResult{Source: report.Source, Chunks: report.Chunks}, nil
}

// Ask answers question from the indexed content.
func (s *Session) Ask(ctx context.Context, question string) (*core.QueryResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.indexed {
		return nil, ErrNothingIndexed
	}
	return s.answerer.Ask(ctx, question)
}

// Clear deletes every chunk in the session's namespace and returns the
// session to Empty. On failure the state is unchanged.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.clearer != nil {
		namespace := s.ingester.Namespace()
		if err := s.clearer.DeleteNamespace(ctx, namespace); err != nil {
			s.logger.Error("error clearing namespace", "namespace", namespace, "err", err)
			return err
		}
	}
	s.current = ""
	s.indexed = false
	return nil
}
