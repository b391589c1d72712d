package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/minirag/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator implements ai.Generator using an OpenAI-compatible chat model.
type Generator struct {
	client llms.Model
	logger *slog.Logger
}

// newGenerator is an internal constructor that returns the concrete type.
func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken(config.ChatAPIKey),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return newGeneratorWithModel(client), nil
}

func newGeneratorWithModel(client llms.Model) *Generator {
	return &Generator{
		client: client,
		logger: slog.Default().With("component", "openai-generator"),
	}
}

// NewGenerator creates a new answer generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// Generate asks the chat model to answer question from context at
// temperature 0 and returns the raw text of the first choice.
func (g *Generator) Generate(ctx context.Context, question, context string) (string, error) {
	prompt, err := buildAnswerPrompt(question, context)
	if err != nil {
		return "", fmt.Errorf("build prompt: %w", err)
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	g.logger.Debug("generating answer", "question_length", len(question), "context_length", len(context))

	response, err := g.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		g.logger.Error("failed to generate content", "err", err)
		return "", err
	}

	if len(response.Choices) < 1 {
		g.logger.Debug("no choices returned from model")
		return "", ErrNoChoices
	}

	return response.Choices[0].Content, nil
}
