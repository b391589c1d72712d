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

package ingestion

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// embedProgress rewrites one status line per completed embedding batch.
// Batches finish in any order, so only counts are kept. A nil
// *embedProgress is valid and reports nothing.
type embedProgress struct {
	mu          sync.Mutex
	w           io.Writer
	source      string
	chunks      int
	batches     int
	doneChunks  int
	doneBatches int
	start       time.Time
}

// newEmbedProgress returns nil when w is nil.
func newEmbedProgress(w io.Writer, source string, chunks, batchSize int) *embedProgress {
	if w == nil {
		return nil
	}
	return &embedProgress{
		w:       w,
		source:  source,
		chunks:  chunks,
		batches: (chunks + batchSize - 1) / batchSize,
		start:   time.Now(),
	}
}

// batchDone records a finished batch of size chunks.
func (p *embedProgress) batchDone(size int) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.doneBatches++
	p.doneChunks = min(p.doneChunks+size, p.chunks)
	p.printLine()
}

// finish ends the status line. A failed run keeps the counts reached so far.
func (p *embedProgress) finish(err error) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.printLine()
	if err != nil {
		fmt.Fprintln(p.w, " - failed")
		return
	}
	fmt.Fprintf(p.w, " - done in %s\n", time.Since(p.start).Round(time.Millisecond))
}

// printLine must be called with mu held.
func (p *embedProgress) printLine() {
	percent := 100.0
	if p.chunks > 0 {
		percent = float64(p.doneChunks) / float64(p.chunks) * 100
	}
	fmt.Fprintf(p.w, "\rEmbedding %s: %d/%d chunks, batch %d/%d (%.1f%%)",
		p.source, p.doneChunks, p.chunks, p.doneBatches, p.batches, percent)
}
