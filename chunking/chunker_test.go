package chunking

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numberedWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%04d", i)
	}
	return strings.Join(words, " ")
}

// overlap returns the length of the longest suffix of a that is a prefix of b.
func overlap(a, b string) int {
	for n := min(len(a), len(b)); n > 0; n-- {
		if strings.HasSuffix(a, b[:n]) {
			return n
		}
	}
	return 0
}

func TestChunk_Empty(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	for _, text := range []string{"", "   ", "\n\n\t"} {
		chunks, err := c.Chunk(text, "empty.txt")
		require.NoError(t, err)
		assert.Empty(t, chunks)
	}
}

func TestChunk_ShortTextSingleChunk(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	text := "Paris is the capital of France. It is known for the Eiffel Tower."
	chunks, err := c.Chunk(text, "geo.txt")
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, text, chunks[0].Content)
	assert.Equal(t, "geo.txt", chunks[0].Source)
	assert.Equal(t, 0, chunks[0].ChunkID)
	assert.Equal(t, "Paris is the capital of France. It is known for th...", chunks[0].Preview)
}

func TestChunk_WordBoundaries(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	text := numberedWords(500)
	chunks, err := c.Chunk(text, "words.txt")
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.ChunkID, "ids are sequential from zero")
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk.Content), DefaultChunkSize)
		for _, word := range strings.Fields(chunk.Content) {
			assert.Len(t, word, 5, "chunks break on word boundaries")
		}
	}

	// Dropping the shared prefix of each chunk rebuilds the text.
	rebuilt := chunks[0].Content
	for i := 1; i < len(chunks); i++ {
		n := overlap(chunks[i-1].Content, chunks[i].Content)
		assert.Greater(t, n, 0, "chunk %d overlaps its predecessor", i)
		assert.LessOrEqual(t, n, DefaultChunkOverlap)
		rebuilt += chunks[i].Content[n:]
	}
	assert.Equal(t, text, rebuilt)
}

// paragraphs joins runs of numbered words: each entry of sizes is a paragraph
// of that many words, separated by blank lines.
func paragraphs(sizes ...int) string {
	paras := make([]string, len(sizes))
	next := 0
	for i, n := range sizes {
		words := make([]string, n)
		for j := range words {
			words[j] = fmt.Sprintf("w%04d", next)
			next++
		}
		paras[i] = strings.Join(words, " ")
	}
	return strings.Join(paras, "\n\n")
}

func withoutSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func TestChunk_ReassemblesModuloSeparators(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	// The 250-word paragraph is longer than a chunk and falls back to words.
	text := paragraphs(30, 250, 40, 180, 5)
	chunks, err := c.Chunk(text, "mixed.md")
	require.NoError(t, err)
	require.Greater(t, len(chunks), 2)

	rebuilt := chunks[0].Content
	for i := 1; i < len(chunks); i++ {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunks[i].Content), DefaultChunkSize)
		n := overlap(chunks[i-1].Content, chunks[i].Content)
		assert.LessOrEqual(t, n, DefaultChunkOverlap, "chunk %d", i)
		rebuilt += chunks[i].Content[n:]
	}
	assert.Equal(t, withoutSpace(text), withoutSpace(rebuilt))
}

func TestChunk_ParagraphSplitsCarryNoOverlap(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	text := paragraphs(97, 97, 97, 97, 97, 97, 18)
	chunks, err := c.Chunk(text, "paras.md")
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	contents := make([]string, len(chunks))
	for i, chunk := range chunks {
		contents[i] = chunk.Content
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk.Content), DefaultChunkSize)
		if i > 0 {
			// Paragraphs are longer than the overlap, so none is repeated.
			assert.Zero(t, overlap(contents[i-1], chunk.Content), "chunk %d", i)
		}
	}
	assert.Equal(t, text, strings.Join(contents, "\n\n"))
}

func TestChunk_HardCutOverlapsExactly(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	var sb strings.Builder
	for i := 0; i < 2500; i++ {
		sb.WriteByte(byte('a' + i%26))
	}
	text := sb.String()

	chunks, err := c.Chunk(text, "blob.txt")
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Len(t, chunks[0].Content, 1000)
	assert.Len(t, chunks[1].Content, 1000)
	assert.Len(t, chunks[2].Content, 700)
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].Content
		assert.Equal(t, prev[len(prev)-DefaultChunkOverlap:], chunks[i].Content[:DefaultChunkOverlap])
	}
	assert.Equal(t, text, chunks[0].Content+chunks[1].Content[100:]+chunks[2].Content[100:])
}

func TestChunk_PrefersParagraphs(t *testing.T) {
	c, err := New(WithChunkSize(40), WithChunkOverlap(0))
	require.NoError(t, err)

	text := "First paragraph is here.\n\nSecond paragraph is here."
	chunks, err := c.Chunk(text, "paras.md")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "First paragraph is here.", chunks[0].Content)
	assert.Equal(t, "Second paragraph is here.", chunks[1].Content)
}

func TestNew_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		err  error
	}{
		{"zero size", []Option{WithChunkSize(0)}, ErrInvalidChunkSize},
		{"negative overlap", []Option{WithChunkOverlap(-1)}, ErrInvalidOverlap},
		{"overlap not below size", []Option{WithChunkSize(100), WithChunkOverlap(100)}, ErrInvalidOverlap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	assert.Equal(t, 1000, c.ChunkSize())
	assert.Equal(t, 100, c.ChunkOverlap())
}
