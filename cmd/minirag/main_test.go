package main

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/poiesic/minirag/core"
	"github.com/poiesic/minirag/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func findCommand(t *testing.T, app *cli.App, name string) *cli.Command {
	t.Helper()
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not found", name)
	return nil
}

func clearKeys(t *testing.T) {
	t.Helper()
	for _, name := range []string{"GOOGLE_API_KEY", "COHERE_API_KEY", "QDRANT_URL", "QDRANT_API_KEY"} {
		t.Setenv(name, "")
	}
}

func TestAppCommands(t *testing.T) {
	app := newApp()
	for _, name := range []string{"ingest", "ask", "serve", "clear", "status"} {
		assert.NotNil(t, findCommand(t, app, name))
	}

	t.Run("source defaults to the pasted text label", func(t *testing.T) {
		cmd := findCommand(t, app, "ask")
		var sourceFlag *cli.StringFlag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "source" {
				sourceFlag = f
			}
		}
		require.NotNil(t, sourceFlag)
		assert.Equal(t, "User Input Text", sourceFlag.Value)
	})
}

func TestAsk_RequiresQuestion(t *testing.T) {
	err := newApp().Run([]string{"minirag", "--env-file", "", "ask"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "question is required")
}

func TestIngest_RequiresInput(t *testing.T) {
	err := newApp().Run([]string{"minirag", "--env-file", "", "ingest"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to ingest")
}

func TestStatus_MissingKeys(t *testing.T) {
	clearKeys(t)

	err := newApp().Run([]string{"minirag", "--env-file", "", "--index-path", t.TempDir(), "status"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_API_KEY, COHERE_API_KEY")
}

func TestStatus_EmbeddedIndex(t *testing.T) {
	clearKeys(t)
	t.Setenv("GOOGLE_API_KEY", "test-key")
	t.Setenv("COHERE_API_KEY", "test-key")

	err := newApp().Run([]string{"minirag", "--env-file", "", "--index-path", t.TempDir(), "status"})
	assert.NoError(t, err)
}

func TestSetupLogger(t *testing.T) {
	defaultLogger := slog.Default()
	t.Cleanup(func() { slog.SetDefault(defaultLogger) })

	for _, level := range []string{"debug", "INFO", "warn", "error"} {
		err := newApp().Run([]string{"minirag", "--env-file", "", "--log-level", level, "ask"})
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "invalid log level")
	}

	err := newApp().Run([]string{"minirag", "--log-level", "verbose", "ask", "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestRenderAnswer(t *testing.T) {
	result := &core.QueryResult{
		Answer: "Paris is the capital of France [1].",
		Sources: []core.RetrievedDocument{
			{Chunk: core.Chunk{Content: "Paris is the capital of France.", Source: "geo.txt", ChunkID: 0, Preview: "Paris is the capital of France...."}, RelevanceScore: 0.98},
		},
		Metrics:   core.Metrics{LatencySeconds: 1.23, EstimatedTokens: 25, CostEstimate: 0.0000004625},
		Citations: core.CitationReport{Cited: []int{1}, OutOfRange: []int{4}},
	}

	var buf bytes.Buffer
	renderAnswer(&buf, result, false)
	out := buf.String()
	assert.Contains(t, out, "Paris is the capital of France [1].")
	assert.Contains(t, out, "geo.txt #0 (0.980)")
	assert.Contains(t, out, "Unmatched citations: [4]")
	assert.Contains(t, out, "1.23s, ~25 tokens")

	buf.Reset()
	renderAnswer(&buf, result, true)
	assert.Contains(t, buf.String(), "    Paris is the capital of France.")

	buf.Reset()
	renderAnswer(&buf, &core.QueryResult{NoAnswer: true}, false)
	assert.Contains(t, buf.String(), "No relevant information")
}

func TestRenderIngest(t *testing.T) {
	var buf bytes.Buffer
	renderIngest(&buf, &session.IngestResult{Source: "a.txt", Chunks: 3})
	assert.Equal(t, "Indexed a.txt (3 chunks)\n", buf.String())

	buf.Reset()
	renderIngest(&buf, &session.IngestResult{Source: "a.txt", Skipped: true})
	assert.Contains(t, buf.String(), "already indexed")
}
