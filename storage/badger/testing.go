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


package badger

import (
	"context"

	"github.com/poiesic/minirag/storage"
)

// NewMemoryIndex creates an in-memory index provisioned with dimension.
// Caller must close the index when done.
func NewMemoryIndex(dimension int) (storage.ChunkIndex, error) {
	idx, err := newIndex()
	if err != nil {
		return nil, err
	}
	if err := idx.EnsureIndex(context.Background(), dimension); err != nil {
		idx.Close()
		return nil, err
	}
	return idx, nil
}
