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


package ai

import (
	"fmt"
	"strings"
)

// Default service endpoints and models.
const (
	// DefaultChatHost is Gemini's OpenAI-compatible endpoint.
	DefaultChatHost = "https://generativelanguage.googleapis.com/v1beta/openai"

	DefaultChatModel          = "gemini-2.5-flash"
	DefaultEmbeddingModel     = "text-embedding-004"
	DefaultEmbeddingDimension = 768

	DefaultRerankHost  = "https://api.cohere.com"
	DefaultRerankModel = "rerank-english-v3.0"
)

// Config holds configuration for AI service providers.
type Config struct {
	// ChatHost is the base URL of the OpenAI-compatible chat completion API.
	ChatHost string

	// ChatModel is the model identifier used to generate answers.
	// Example: "gemini-2.5-flash", "gpt-4o-mini"
	ChatModel string

	// ChatAPIKey authenticates against ChatHost.
	ChatAPIKey string

	// EmbeddingHost is the base URL of the OpenAI-compatible embedding API.
	EmbeddingHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "text-embedding-004", "text-embedding-3-small"
	EmbeddingModel string

	// EmbeddingAPIKey authenticates against EmbeddingHost.
	EmbeddingAPIKey string

	// EmbeddingDimension is the length of vectors produced by EmbeddingModel.
	// The vector index is provisioned with this dimension.
	EmbeddingDimension int

	// RerankHost is the base URL of the rerank API.
	RerankHost string

	// RerankModel is the reranking model identifier.
	RerankModel string

	// RerankAPIKey authenticates against RerankHost.
	RerankAPIKey string
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithChatHost sets the chat service host URL.
func WithChatHost(host string) ConfigOption {
	return func(c *Config) {
		c.ChatHost = host
	}
}

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithHost sets both chat and embedding hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.ChatHost = host
		c.EmbeddingHost = host
	}
}

// WithChatModel sets the chat model identifier.
func WithChatModel(model string) ConfigOption {
	return func(c *Config) {
		c.ChatModel = model
	}
}

// WithEmbeddingModel sets the embedding model identifier and its vector dimension.
func WithEmbeddingModel(model string, dimension int) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
		c.EmbeddingDimension = dimension
	}
}

// WithAPIKey sets the key used for both chat and embedding requests.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.ChatAPIKey = key
		c.EmbeddingAPIKey = key
	}
}

// WithRerankHost sets the rerank service host URL.
func WithRerankHost(host string) ConfigOption {
	return func(c *Config) {
		c.RerankHost = host
	}
}

// WithRerankModel sets the reranking model identifier.
func WithRerankModel(model string) ConfigOption {
	return func(c *Config) {
		c.RerankModel = model
	}
}

// WithRerankAPIKey sets the rerank service key.
func WithRerankAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.RerankAPIKey = key
	}
}

// DefaultConfig returns a Config pointing at the hosted Gemini and Cohere
// services. API keys are left empty; they must be supplied.
func DefaultConfig() *Config {
	return &Config{
		ChatHost:           DefaultChatHost,
		ChatModel:          DefaultChatModel,
		EmbeddingHost:      DefaultChatHost,
		EmbeddingModel:     DefaultEmbeddingModel,
		EmbeddingDimension: DefaultEmbeddingDimension,
		RerankHost:         DefaultRerankHost,
		RerankModel:        DefaultRerankModel,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithAPIKey(os.Getenv("GOOGLE_API_KEY")),
//	    WithRerankAPIKey(os.Getenv("COHERE_API_KEY")),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize strips trailing slashes from the host URLs.
func (c *Config) Normalize() {
	c.ChatHost = strings.TrimRight(c.ChatHost, "/")
	c.EmbeddingHost = strings.TrimRight(c.EmbeddingHost, "/")
	c.RerankHost = strings.TrimRight(c.RerankHost, "/")
}

// Missing returns the names of every required field that is empty.
func (c *Config) Missing() []string {
	var missing []string
	check := func(name, value string) {
		if value == "" {
			missing = append(missing, name)
		}
	}
	check("ChatHost", c.ChatHost)
	check("ChatModel", c.ChatModel)
	check("ChatAPIKey", c.ChatAPIKey)
	check("EmbeddingHost", c.EmbeddingHost)
	check("EmbeddingModel", c.EmbeddingModel)
	check("EmbeddingAPIKey", c.EmbeddingAPIKey)
	check("RerankHost", c.RerankHost)
	check("RerankModel", c.RerankModel)
	check("RerankAPIKey", c.RerankAPIKey)
	return missing
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
// The error names every missing setting.
func (c *Config) Validate() error {
	c.Normalize()

	if missing := c.Missing(); len(missing) > 0 {
		return fmt.Errorf("ai config: %w: %s", ErrMissingSetting, strings.Join(missing, ", "))
	}
	if c.EmbeddingDimension <= 0 {
		return fmt.Errorf("ai config: %w", ErrInvalidDimension)
	}
	return nil
}
