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


package chunking

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/minirag/core"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultChunkSize is the maximum chunk length in runes.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the number of runes shared by consecutive chunks.
	DefaultChunkOverlap = 100
)

// Chunker splits text into core.Chunk values. It holds no mutable state and
// is safe for concurrent use.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	splitter     textsplitter.TextSplitter
	logger       *slog.Logger
}

// Option configures a Chunker.
type Option func(*Chunker) error

// WithChunkSize sets the maximum chunk length in runes.
func WithChunkSize(size int) Option {
	return func(c *Chunker) error {
		if size <= 0 {
			return ErrInvalidChunkSize
		}
		c.chunkSize = size
		return nil
	}
}

// WithChunkOverlap sets the overlap between consecutive chunks in runes.
func WithChunkOverlap(overlap int) Option {
	return func(c *Chunker) error {
		if overlap < 0 {
			return ErrInvalidOverlap
		}
		c.chunkOverlap = overlap
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chunker) error {
		c.logger = logger.With("component", "chunker")
		return nil
	}
}

// New creates a Chunker. Without options it uses 1000 rune chunks that
// overlap by 100 runes.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		logger:       slog.Default().With("component", "chunker"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.chunkOverlap >= c.chunkSize {
		return nil, ErrInvalidOverlap
	}

	c.splitter = textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(c.chunkSize),
		textsplitter.WithChunkOverlap(c.chunkOverlap),
	)
	return c, nil
}

// ChunkSize returns the configured maximum chunk length.
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

// ChunkOverlap returns the configured overlap.
func (c *Chunker) ChunkOverlap() int {
	return c.chunkOverlap
}

// Chunk splits text into chunks labelled with source. Empty or whitespace-only
// text yields no chunks and no error.
func (c *Chunker) Chunk(text, source string) ([]core.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return []core.Chunk{}, nil
	}

	segments, err := c.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split text: %w", err)
	}

	chunks := make([]core.Chunk, 0, len(segments))
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		chunks = append(chunks, core.Chunk{
			Content: segment,
			Source:  source,
			ChunkID: len(chunks),
			Preview: core.MakePreview(segment),
		})
	}

	c.logger.Debug("chunked text", "source", source, "length", len(text), "chunks", len(chunks))
	return chunks, nil
}
