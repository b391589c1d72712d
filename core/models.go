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

package core

import (
	"fmt"
	"strconv"
	"unicode/utf8"
)

// StateEmpty is the source label reported before anything has been indexed.
const StateEmpty = "Empty"

// previewLength is the number of characters kept in Chunk.Preview.
const previewLength = 50

// Chunk is a bounded slice of source text, the unit stored in a vector index.
// ChunkID is sequential within one ingestion call only; Source and ChunkID
// together identify a chunk.
type Chunk struct {
	Content string
	Source  string
	ChunkID int
	Preview string
}

// Key returns the "source#chunk_id" identity of the chunk.
func (c Chunk) Key() string {
	return fmt.Sprintf("%s#%d", c.Source, c.ChunkID)
}

// MakePreview returns the first 50 characters of content followed by "...".
func MakePreview(content string) string {
	if utf8.RuneCountInString(content) <= previewLength {
		return content + "..."
	}
	runes := []rune(content)
	return string(runes[:previewLength]) + "..."
}

// Candidate is a chunk returned by similarity search together with its vector.
// The vector is kept so diversity-aware selection can compare candidates.
type Candidate struct {
	Chunk
	Vector []float32
	Score  float32
}

// RetrievedDocument is a reranked chunk. Its position in QueryResult.Sources
// plus one is the citation number used in the answer.
type RetrievedDocument struct {
	Chunk
	RelevanceScore float64
}

// Metrics describes the cost of answering one query.
//
// CostEstimate is an order-of-magnitude approximation derived from a
// characters-per-token heuristic and a fixed unit price. It is not a billing
// figure.
type Metrics struct {
	LatencySeconds  float64
	EstimatedTokens int
	CostEstimate    float64
}

// CitationReport lists the citation numbers found in a generated answer.
type CitationReport struct {
	// Cited holds the distinct in-range citation numbers, in order of first use.
	Cited []int
	// OutOfRange holds citation numbers that do not reference any source.
	OutOfRange []int
	// Oversized holds citation numbers too large for an int, as written.
	// Nil when there are none.
	Oversized []string
}

// Invalid reports whether any citation fails to reference a source.
func (r CitationReport) Invalid() bool {
	return len(r.OutOfRange) > 0 || len(r.Oversized) > 0
}

// Unmatched lists every invalid citation number as written in the answer.
func (r CitationReport) Unmatched() []string {
	nums := make([]string, 0, len(r.OutOfRange)+len(r.Oversized))
	for _, n := range r.OutOfRange {
		nums = append(nums, strconv.Itoa(n))
	}
	return append(nums, r.Oversized...)
}

// QueryResult is the outcome of one question.
// NoAnswer is set when retrieval or reranking produced no documents; in that
// case Answer is empty and Sources is nil.
type QueryResult struct {
	Answer    string
	Sources   []RetrievedDocument
	Metrics   Metrics
	Citations CitationReport
	NoAnswer  bool
}
