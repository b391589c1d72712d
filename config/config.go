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


package config

import (
	"fmt"
	"os"
	"time"

	"github.com/poiesic/minirag/ai"
	"github.com/poiesic/minirag/answer"
	"github.com/poiesic/minirag/storage"
	"gopkg.in/yaml.v3"
)

// Index types.
const (
	IndexBadger = "badger"
	IndexQdrant = "qdrant"
)

// ServiceConfig describes one hosted model endpoint.
type ServiceConfig struct {
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`

	// APIKey is read from APIKeyEnv.
	APIKey string `yaml:"-"`
}

// EmbeddingConfig describes the embedding endpoint.
type EmbeddingConfig struct {
	ServiceConfig `yaml:",inline"`
	Dimension     int `yaml:"dimension"`
}

// QdrantConfig holds connection details for a Qdrant server.
type QdrantConfig struct {
	URLEnv          string `yaml:"url_env"`
	APIKeyEnv       string `yaml:"api_key_env"`
	ReadyAttempts   int    `yaml:"ready_attempts"`
	ReadyIntervalMs int    `yaml:"ready_interval_ms"`

	// URL and APIKey are read from URLEnv and APIKeyEnv.
	URL    string `yaml:"-"`
	APIKey string `yaml:"-"`
}

// IndexConfig selects the vector index.
type IndexConfig struct {
	// Type is "badger" (embedded) or "qdrant" (hosted).
	Type      string `yaml:"type"`
	Name      string `yaml:"name"`
	Namespace string `yaml:"namespace"`

	// Path is the badger data directory; empty keeps the index in memory.
	Path   string       `yaml:"path"`
	Qdrant QdrantConfig `yaml:"qdrant"`
}

// ChunkingConfig configures the text splitter.
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// RetrievalConfig configures MMR retrieval.
type RetrievalConfig struct {
	K      int     `yaml:"k"`
	FetchK int     `yaml:"fetch_k"`
	Lambda float64 `yaml:"lambda"`
}

// AnswerConfig configures reranking and generation.
type AnswerConfig struct {
	TopN           int     `yaml:"top_n"`
	CitationPolicy string  `yaml:"citation_policy"`
	UnitPrice      float64 `yaml:"unit_price"`
}

// IngestionConfig configures the embedding worker pool.
type IngestionConfig struct {
	PoolSize  int `yaml:"pool_size"`
	BatchSize int `yaml:"batch_size"`
}

// CallsConfig bounds every call to an external service.
type CallsConfig struct {
	TimeoutSecs int `yaml:"timeout_secs"`
	MaxAttempts int `yaml:"max_attempts"`
	BaseDelayMs int `yaml:"base_delay_ms"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Config is the root configuration.
type Config struct {
	Chat      ServiceConfig   `yaml:"chat"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Rerank    ServiceConfig   `yaml:"rerank"`
	Index     IndexConfig     `yaml:"index"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Answer    AnswerConfig    `yaml:"answer"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	Calls     CallsConfig     `yaml:"calls"`
	Server    ServerConfig    `yaml:"server"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the YAML file at path, fills unset values with defaults and
// reads secrets from the environment. An empty path loads the defaults.
// Load does not validate; call Validate before use.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyDefaults(cfg)
	cfg.overlayEnv()
	return cfg, nil
}

// Save writes cfg to path as YAML. Secrets are not written.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func applyDefaults(cfg *Config) {
	setString(&cfg.Chat.BaseURL, ai.DefaultChatHost)
	setString(&cfg.Chat.Model, ai.DefaultChatModel)
	setString(&cfg.Chat.APIKeyEnv, "GOOGLE_API_KEY")

	setString(&cfg.Embedding.BaseURL, ai.DefaultChatHost)
	setString(&cfg.Embedding.Model, ai.DefaultEmbeddingModel)
	setString(&cfg.Embedding.APIKeyEnv, "GOOGLE_API_KEY")
	setInt(&cfg.Embedding.Dimension, ai.DefaultEmbeddingDimension)

	setString(&cfg.Rerank.BaseURL, ai.DefaultRerankHost)
	setString(&cfg.Rerank.Model, ai.DefaultRerankModel)
	setString(&cfg.Rerank.APIKeyEnv, "COHERE_API_KEY")

	setString(&cfg.Index.Type, IndexBadger)
	setString(&cfg.Index.Name, storage.DefaultIndexName)
	setString(&cfg.Index.Namespace, storage.DefaultNamespace)
	setString(&cfg.Index.Qdrant.URLEnv, "QDRANT_URL")
	setString(&cfg.Index.Qdrant.APIKeyEnv, "QDRANT_API_KEY")
	setInt(&cfg.Index.Qdrant.ReadyAttempts, 10)
	setInt(&cfg.Index.Qdrant.ReadyIntervalMs, 1000)

	if cfg.Chunking.Size == 0 {
		cfg.Chunking.Size = 1000
		if cfg.Chunking.Overlap == 0 {
			cfg.Chunking.Overlap = 100
		}
	}

	setInt(&cfg.Retrieval.K, 10)
	setInt(&cfg.Retrieval.FetchK, 20)
	if cfg.Retrieval.Lambda == 0 {
		cfg.Retrieval.Lambda = 0.5
	}

	setInt(&cfg.Answer.TopN, answer.DefaultTopN)
	setString(&cfg.Answer.CitationPolicy, string(answer.CitationStrip))
	if cfg.Answer.UnitPrice == 0 {
		cfg.Answer.UnitPrice = answer.DefaultUnitPrice
	}

	setInt(&cfg.Ingestion.BatchSize, 32)

	setInt(&cfg.Calls.TimeoutSecs, 30)
	setInt(&cfg.Calls.MaxAttempts, 1)
	setInt(&cfg.Calls.BaseDelayMs, 1000)

	setString(&cfg.Server.Addr, ":8080")
}

func setString(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func setInt(field *int, value int) {
	if *field == 0 {
		*field = value
	}
}

func (c *Config) overlayEnv() {
	c.Chat.APIKey = os.Getenv(c.Chat.APIKeyEnv)
	c.Embedding.APIKey = os.Getenv(c.Embedding.APIKeyEnv)
	c.Rerank.APIKey = os.Getenv(c.Rerank.APIKeyEnv)
	c.Index.Qdrant.URL = os.Getenv(c.Index.Qdrant.URLEnv)
	c.Index.Qdrant.APIKey = os.Getenv(c.Index.Qdrant.APIKeyEnv)
}

// Validate checks the configuration. Missing settings are reported
// together in one *MissingSettingsError; the Qdrant key is optional.
func (c *Config) Validate() error {
	var missing []string
	seen := map[string]bool{}
	require := func(name, value string) {
		if value == "" && !seen[name] {
			seen[name] = true
			missing = append(missing, name)
		}
	}

	require(c.Chat.APIKeyEnv, c.Chat.APIKey)
	require(c.Embedding.APIKeyEnv, c.Embedding.APIKey)
	require(c.Rerank.APIKeyEnv, c.Rerank.APIKey)

	switch c.Index.Type {
	case IndexBadger:
	case IndexQdrant:
		require(c.Index.Qdrant.URLEnv, c.Index.Qdrant.URL)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownIndexType, c.Index.Type)
	}

	if len(missing) > 0 {
		return &MissingSettingsError{Settings: missing}
	}

	if _, err := answer.ParseCitationPolicy(c.Answer.CitationPolicy); err != nil {
		return err
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("%w: chunking.overlap must be in [0, size)", ErrInvalidValue)
	}
	if c.Retrieval.K <= 0 || c.Retrieval.FetchK < c.Retrieval.K {
		return fmt.Errorf("%w: retrieval requires 0 < k <= fetch_k", ErrInvalidValue)
	}
	if c.Retrieval.Lambda < 0 || c.Retrieval.Lambda > 1 {
		return fmt.Errorf("%w: retrieval.lambda must be in [0, 1]", ErrInvalidValue)
	}
	if c.Calls.MaxAttempts <= 0 {
		return fmt.Errorf("%w: calls.max_attempts must be positive", ErrInvalidValue)
	}
	return nil
}

// AIConfig returns the provider configuration.
func (c *Config) AIConfig() *ai.Config {
	return &ai.Config{
		ChatHost:           c.Chat.BaseURL,
		ChatModel:          c.Chat.Model,
		ChatAPIKey:         c.Chat.APIKey,
		EmbeddingHost:      c.Embedding.BaseURL,
		EmbeddingModel:     c.Embedding.Model,
		EmbeddingAPIKey:    c.Embedding.APIKey,
		EmbeddingDimension: c.Embedding.Dimension,
		RerankHost:         c.Rerank.BaseURL,
		RerankModel:        c.Rerank.Model,
		RerankAPIKey:       c.Rerank.APIKey,
	}
}

// CallPolicy returns the policy applied to external calls.
func (c *Config) CallPolicy() ai.CallPolicy {
	return ai.CallPolicy{
		Timeout:     time.Duration(c.Calls.TimeoutSecs) * time.Second,
		MaxAttempts: c.Calls.MaxAttempts,
		BaseDelay:   time.Duration(c.Calls.BaseDelayMs) * time.Millisecond,
	}
}

// CitationPolicy returns the parsed citation policy.
func (c *Config) CitationPolicy() (answer.CitationPolicy, error) {
	return answer.ParseCitationPolicy(c.Answer.CitationPolicy)
}

// ReadyInterval returns the Qdrant readiness polling interval.
func (c *Config) ReadyInterval() time.Duration {
	return time.Duration(c.Index.Qdrant.ReadyIntervalMs) * time.Millisecond
}
