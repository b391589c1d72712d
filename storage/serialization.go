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


package storage

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/go-crypt/x/blake2b"
	"github.com/poiesic/minirag/core"
)

// PointID returns the deterministic point id of a chunk within a namespace.
// Ids are 64-bit BLAKE2b digests, which Qdrant accepts as unsigned integer ids.
func PointID(namespace, source string, chunkID int) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(namespace))
	h.Write([]byte{0})
	h.Write([]byte(source))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(chunkID)))
	return binary.LittleEndian.Uint64(h.Sum(nil))
}

// Payload is the metadata stored next to every vector.
type Payload struct {
	Namespace string `json:"namespace"`
	Source    string `json:"source"`
	ChunkID   int    `json:"chunk_id"`
	Text      string `json:"text"`
	Preview   string `json:"text_preview"`
}

// NewPayload builds the payload of chunk in namespace.
func NewPayload(namespace string, chunk core.Chunk) Payload {
	return Payload{
		Namespace: namespace,
		Source:    chunk.Source,
		ChunkID:   chunk.ChunkID,
		Text:      chunk.Content,
		Preview:   chunk.Preview,
	}
}

// Chunk converts the payload back into a chunk.
func (p Payload) Chunk() core.Chunk {
	return core.Chunk{
		Content: p.Text,
		Source:  p.Source,
		ChunkID: p.ChunkID,
		Preview: p.Preview,
	}
}

// Record is a stored point: payload plus vector.
type Record struct {
	Payload
	Vector []float32
}

// MarshalRecord serializes a Record to bytes using MUS format.
func MarshalRecord(record *Record) []byte {
	buf := make([]byte, RecordMUS.Size(*record))
	RecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalRecord deserializes a Record from MUS format bytes.
func UnmarshalRecord(data []byte) (*Record, error) {
	record, _, err := RecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &record, nil
}

// ValidateBatch checks an upsert batch: equal lengths, valid chunks and
// vectors of the expected dimension (zero skips the dimension check).
func ValidateBatch(chunks []core.Chunk, vectors [][]float32, dimension int) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks, %d vectors", ErrLengthMismatch, len(chunks), len(vectors))
	}
	for i := range chunks {
		if err := core.ValidateChunk(&chunks[i]); err != nil {
			return err
		}
	}
	return core.ValidateVectors(vectors, dimension)
}
