package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Logging     LoggingConfig   `toml:"logging"`
	Corpus      CorpusConfig    `toml:"corpus"`
	Pipeline    PipelineConfig  `toml:"pipeline"`
	LLM         LLMConfig       `toml:"llm"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	Pinecone    PineconeConfig  `toml:"pinecone"`
	Retrieval   RetrievalConfig `toml:"retrieval"`
	Audit       AuditConfig     `toml:"audit"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// CorpusConfig locates the corpus input file and the embedded-corpus artifact
// that hands off between the embed and upload stages.
type CorpusConfig struct {
	Path         string `toml:"path"`          // One verse per line: "<book><chapter>:<verse>: <text>"
	ArtifactPath string `toml:"artifact_path"` // Embedded-corpus JSON artifact (stable, replayable)
}

// PipelineConfig tunes the batch embedding pipeline.
type PipelineConfig struct {
	BatchSize       int           `toml:"batch_size" validate:"min=1"`  // Verses embedded concurrently per chunk
	InterBatchDelay time.Duration `toml:"inter_batch_delay"`            // Pause between chunks (rate-limit avoidance)
	MaxRetries      int           `toml:"max_retries" validate:"min=1"` // Per-call retry attempts in the embedding client
	InitialDelay    time.Duration `toml:"initial_delay"`                // Base backoff delay for the first retry
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains provider selection and shared LLM settings.
// Embeddings are always Gemini; the default provider applies to generation.
type LLMConfig struct {
	DefaultProvider LLMProvider   `toml:"default_provider" validate:"oneof=gemini claude"`
	Timeout         time.Duration `toml:"timeout"` // Per-call timeout for embed/generate
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey         string  `toml:"api_key"`                          // Google Gemini API key (or SCRIPTURA_GEMINI_API_KEY)
	EmbedModel     string  `toml:"embed_model"`                      // Embedding model (default: "gemini-embedding-001")
	EmbedDimension int     `toml:"embed_dimension" validate:"min=1"` // Embedding output dimensionality; must match the index
	Model          string  `toml:"model"`                            // Generation model (default: "gemini-2.5-flash")
	Temperature    float32 `toml:"temperature"`                      // Generation temperature (default: 0.7)
}

// ClaudeConfig contains Anthropic Claude API configuration (generation only)
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`    // Anthropic API key (or SCRIPTURA_ANTHROPIC_API_KEY)
	Model       string  `toml:"model"`      // Generation model (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"` // Maximum tokens in response (default: 8192)
	Temperature float32 `toml:"temperature"`
}

// PineconeConfig contains vector index configuration and upload tuning.
type PineconeConfig struct {
	APIKey            string        `toml:"api_key"`    // Pinecone API key (or SCRIPTURA_PINECONE_API_KEY)
	IndexHost         string        `toml:"index_host"` // Index data-plane host URL
	IndexName         string        `toml:"index_name"`
	RequestTimeout    time.Duration `toml:"request_timeout"`
	RateLimit         int           `toml:"rate_limit"` // Client-side requests per second
	UploadBatchSize   int           `toml:"upload_batch_size" validate:"min=1"`
	InterChunkDelay   time.Duration `toml:"inter_chunk_delay"`  // Pause between successful chunk uploads
	RateLimitCooldown time.Duration `toml:"rate_limit_cooldown"` // Wait before retrying a rate-limited chunk
	MaxChunkAttempts  int           `toml:"max_chunk_attempts" validate:"min=1"` // Cap on attempts per chunk
}

// RetrievalConfig tunes the request-time retrieval path.
type RetrievalConfig struct {
	TopK int `toml:"top_k" validate:"min=1"`
}

// AuditConfig controls the local LLM audit log.
type AuditConfig struct {
	Enabled    bool   `toml:"enabled"`
	Path       string `toml:"path"`        // Badger database directory
	LogQueries bool   `toml:"log_queries"` // Persist query text alongside operations
}

// NewDefaultConfig creates a configuration with default values.
// Defaults mirror the tuning the index was originally populated with, so a
// re-run against the same corpus reproduces the same index content.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Corpus: CorpusConfig{
			Path:         "./data/bible_verses.txt",
			ArtifactPath: "./data/embedded_bible_verses.json",
		},
		Pipeline: PipelineConfig{
			BatchSize:       100,
			InterBatchDelay: 500 * time.Millisecond,
			MaxRetries:      5,
			InitialDelay:    1 * time.Second,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
			Timeout:         30 * time.Second,
		},
		Gemini: GeminiConfig{
			APIKey:         "",
			EmbedModel:     "gemini-embedding-001",
			EmbedDimension: 768, // Must match the Pinecone index dimension
			Model:          "gemini-2.5-flash",
			Temperature:    0.7,
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   8192,
			Temperature: 0.7,
		},
		Pinecone: PineconeConfig{
			APIKey:            "",
			IndexHost:         "",
			IndexName:         "bible-verses",
			RequestTimeout:    30 * time.Second,
			RateLimit:         5,
			UploadBatchSize:   100,
			InterChunkDelay:   500 * time.Millisecond,
			RateLimitCooldown: 5 * time.Second,
			MaxChunkAttempts:  5,
		},
		Retrieval: RetrievalConfig{
			TopK: 5,
		},
		Audit: AuditConfig{
			Enabled:    true,
			Path:       "./data/audit",
			LogQueries: false,
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2
// -> ... -> env. Later files override earlier files; environment variables
// override everything.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration for structurally invalid values.
// Credential presence is checked separately per command, since the embed
// stage does not need Pinecone and the upload stage does not need Gemini.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// RequireGemini fails when the Gemini API key is missing. Called at startup
// by commands that embed or generate, before any work begins.
func (c *Config) RequireGemini() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("Gemini API key is required (set gemini.api_key or SCRIPTURA_GEMINI_API_KEY)")
	}
	return nil
}

// RequireClaude fails when the Anthropic API key is missing and Claude is the
// selected generation provider.
func (c *Config) RequireClaude() error {
	if c.Claude.APIKey == "" {
		return fmt.Errorf("Anthropic API key is required (set claude.api_key or SCRIPTURA_ANTHROPIC_API_KEY)")
	}
	return nil
}

// RequirePinecone fails when Pinecone credentials or the index host are
// missing. Called at startup by the upload and ask commands.
func (c *Config) RequirePinecone() error {
	if c.Pinecone.APIKey == "" {
		return fmt.Errorf("Pinecone API key is required (set pinecone.api_key or SCRIPTURA_PINECONE_API_KEY)")
	}
	if c.Pinecone.IndexHost == "" {
		return fmt.Errorf("Pinecone index host is required (set pinecone.index_host or SCRIPTURA_PINECONE_INDEX_HOST)")
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SCRIPTURA_ENV"); env != "" {
		config.Environment = env
	}

	if level := os.Getenv("SCRIPTURA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if key := os.Getenv("SCRIPTURA_GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if key := os.Getenv("SCRIPTURA_ANTHROPIC_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if key := os.Getenv("SCRIPTURA_PINECONE_API_KEY"); key != "" {
		config.Pinecone.APIKey = key
	}
	if host := os.Getenv("SCRIPTURA_PINECONE_INDEX_HOST"); host != "" {
		config.Pinecone.IndexHost = host
	}
	if name := os.Getenv("SCRIPTURA_PINECONE_INDEX_NAME"); name != "" {
		config.Pinecone.IndexName = name
	}

	if dim := os.Getenv("SCRIPTURA_EMBED_DIMENSION"); dim != "" {
		if d, err := strconv.Atoi(dim); err == nil {
			config.Gemini.EmbedDimension = d
		}
	}

	if path := os.Getenv("SCRIPTURA_CORPUS_PATH"); path != "" {
		config.Corpus.Path = path
	}
	if path := os.Getenv("SCRIPTURA_ARTIFACT_PATH"); path != "" {
		config.Corpus.ArtifactPath = path
	}
}
