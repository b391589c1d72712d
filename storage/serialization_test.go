package storage

import (
	"encoding/json"
	"testing"

	"github.com/poiesic/minirag/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointID_Deterministic(t *testing.T) {
	a := PointID("demo-namespace", "geo.txt", 0)
	b := PointID("demo-namespace", "geo.txt", 0)
	assert.Equal(t, a, b)

	assert.NotZero(t, a)
	assert.NotEqual(t, a, PointID("demo-namespace", "geo.txt", 1))
	assert.NotEqual(t, a, PointID("other", "geo.txt", 0))
	assert.NotEqual(t, a, PointID("demo-namespace", "geo.md", 0))
}

func TestRecord_RoundTrip(t *testing.T) {
	chunk := core.Chunk{Content: "Paris is the capital of France.", Source: "geo.txt", ChunkID: 3, Preview: "Paris..."}
	record := &Record{Payload: NewPayload("ns", chunk), Vector: []float32{0.5, -0.25}}

	data := MarshalRecord(record)
	assert.Len(t, data, RecordMUS.Size(*record))

	decoded, err := UnmarshalRecord(data)
	require.NoError(t, err)
	assert.Equal(t, "ns", decoded.Namespace)
	assert.Equal(t, chunk, decoded.Chunk())
	assert.Equal(t, []float32{0.5, -0.25}, decoded.Vector)
}

func TestPointID_SeparatorsMatter(t *testing.T) {
	assert.NotEqual(t, PointID("ab", "c", 0), PointID("a", "bc", 0))
}

func TestMarshalRecord_CompactBinary(t *testing.T) {
	chunk := core.Chunk{Content: "Paris is the capital of France.", Source: "geo.txt", ChunkID: 3, Preview: "Paris..."}
	record := &Record{Payload: NewPayload("ns", chunk), Vector: []float32{0.5, -0.25, 0.125, 1}}

	data := MarshalRecord(record)
	asJSON, err := json.Marshal(record)
	require.NoError(t, err)

	assert.False(t, json.Valid(data), "badger values are not JSON")
	assert.Less(t, len(data), len(asJSON))
}

func TestMarshalRecord_EmptyVectorAndNegativeID(t *testing.T) {
	record := &Record{Payload: Payload{Namespace: "ns", Source: "s", ChunkID: -1}}

	decoded, err := UnmarshalRecord(MarshalRecord(record))
	require.NoError(t, err)
	assert.Equal(t, -1, decoded.ChunkID)
	assert.Empty(t, decoded.Vector)
}

func TestRecordMUS_Skip(t *testing.T) {
	record := Record{Payload: Payload{Namespace: "ns", Source: "s", Text: "t"}, Vector: []float32{1, 2}}
	data := MarshalRecord(&record)

	n, err := RecordMUS.Skip(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
}

func TestUnmarshalRecord_Invalid(t *testing.T) {
	record := &Record{Payload: Payload{Namespace: "ns", Source: "geo.txt", Text: "Paris"}, Vector: []float32{1, 0}}
	data := MarshalRecord(record)

	_, err := UnmarshalRecord(data[:len(data)-3])
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalRecord(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestValidateBatch(t *testing.T) {
	good := []core.Chunk{{Content: "a", Source: "s", ChunkID: 0}}

	assert.NoError(t, ValidateBatch(good, [][]float32{{1, 0}}, 2))
	assert.NoError(t, ValidateBatch(good, [][]float32{{1, 0, 0}}, 0))
	assert.ErrorIs(t, ValidateBatch(good, nil, 2), ErrLengthMismatch)
	assert.ErrorIs(t, ValidateBatch(good, [][]float32{{1}}, 2), core.ErrDimensionMismatch)
	assert.ErrorIs(t, ValidateBatch([]core.Chunk{{Source: "s"}}, [][]float32{{1}}, 1), core.ErrInvalidChunk)
}
