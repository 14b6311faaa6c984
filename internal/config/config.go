package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppInfo holds basic application metadata.
type AppInfo struct {
	Name        string `yaml:"name"`        // application name
	Environment string `yaml:"environment"` // e.g. "development", "production"
}

// LoggerConfig configures the logger.
type LoggerConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Address        string   `yaml:"address"`        // listen address, e.g. ":8000"
	CORSOrigins    []string `yaml:"corsOrigins"`    // allowed origins; empty means "*"
	RequestTimeout int      `yaml:"requestTimeout"` // per-request budget in seconds
	RankingsFile   string   `yaml:"rankingsFile"`   // pre-computed rankings JSON served by GET /rankings
}

// MilvusConfig holds the vector index connection and collection settings.
type MilvusConfig struct {
	Address    string `yaml:"address"`    // Milvus endpoint, e.g. "localhost:19530"
	Collection string `yaml:"collection"` // collection name, one per deployment
	Dim        int    `yaml:"dim"`        // embedding dimension; must match the embedding model
}

// RedisConfig holds the Redis connection used for the ingestion lock.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DatabaseConfigs groups all backing stores.
type DatabaseConfigs struct {
	Milvus MilvusConfig `yaml:"milvus"`
	Redis  RedisConfig  `yaml:"redis"`
}

// EmbeddingConfig selects and configures the embedding provider.
// The same provider and model must be used at ingestion and query time,
// otherwise similarity scores are meaningless.
type EmbeddingConfig struct {
	Provider  string  `yaml:"provider"`  // "openai" or "ollama"
	Model     string  `yaml:"model"`     // e.g. "text-embedding-3-small"
	APIKeyEnv string  `yaml:"apiKeyEnv"` // env var holding the API key
	BaseURL   string  `yaml:"baseURL"`   // optional OpenAI-compatible endpoint override
	Timeout   int     `yaml:"timeout"`   // request timeout in seconds
	RPS       float64 `yaml:"rps"`       // embedding calls per second, 0 disables limiting
	Burst     int     `yaml:"burst"`     // rate limiter burst
	BatchSize int     `yaml:"batchSize"` // texts per embedding request during ingestion
}

// LLMConfig selects and configures the chat-completion provider.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`    // "openai" or "ollama"
	Model       string  `yaml:"model"`       // e.g. "gpt-4o"
	APIKeyEnv   string  `yaml:"apiKeyEnv"`   // env var holding the API key
	BaseURL     string  `yaml:"baseURL"`     // optional OpenAI-compatible endpoint override
	Timeout     int     `yaml:"timeout"`     // request timeout in seconds
	MaxTokens   int     `yaml:"maxTokens"`   // completion cap
	Temperature float32 `yaml:"temperature"` // sampling temperature
}

// ChatConfig tunes the retrieval and synthesis behaviour.
type ChatConfig struct {
	TopK         int `yaml:"topK"`         // chunks retrieved per query
	HistoryLimit int `yaml:"historyLimit"` // most recent conversation turns kept
}

// IngestConfig tunes the offline ingestion run.
type IngestConfig struct {
	DataDir      string `yaml:"dataDir"`      // root of the source document tree
	ChunkSize    int    `yaml:"chunkSize"`    // chunk size in tokens
	ChunkOverlap int    `yaml:"chunkOverlap"` // overlap between consecutive chunks in tokens
	LockTTL      int    `yaml:"lockTTL"`      // ingestion lock expiry in seconds
}

// AppConfig is the root of the YAML configuration file.
type AppConfig struct {
	App       AppInfo         `yaml:"app"`
	Logger    LoggerConfig    `yaml:"logger"`
	Server    ServerConfig    `yaml:"server"`
	Databases DatabaseConfigs `yaml:"databases"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Chat      ChatConfig      `yaml:"chat"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

// LoadConfig reads and parses the YAML configuration at path.
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file '%s': %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file '%s': %w", path, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8000"
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60
	}
	if cfg.Databases.Milvus.Collection == "" {
		cfg.Databases.Milvus.Collection = "faculty_data"
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 30
	}
	if cfg.Embedding.Burst == 0 {
		cfg.Embedding.Burst = 1
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 32
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 500
	}
	if cfg.Chat.TopK == 0 {
		cfg.Chat.TopK = 12
	}
	if cfg.Chat.HistoryLimit == 0 {
		cfg.Chat.HistoryLimit = 5
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 500
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 50
	}
	if cfg.Ingest.LockTTL == 0 {
		cfg.Ingest.LockTTL = 1800
	}
}

// Validate fails fast on configuration that would only surface as a broken
// request later: missing endpoints, missing credentials, nonsense chunking.
func (cfg *AppConfig) Validate() error {
	if cfg.Databases.Milvus.Address == "" {
		return fmt.Errorf("databases.milvus.address is required")
	}
	if cfg.Databases.Milvus.Dim <= 0 {
		return fmt.Errorf("databases.milvus.dim must be positive")
	}
	if cfg.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if cfg.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if cfg.Embedding.Provider == "openai" && cfg.Embedding.APIKey() == "" {
		return fmt.Errorf("embedding API key not set (env %s)", cfg.Embedding.APIKeyEnv)
	}
	if cfg.LLM.Provider == "openai" && cfg.LLM.APIKey() == "" {
		return fmt.Errorf("llm API key not set (env %s)", cfg.LLM.APIKeyEnv)
	}
	if cfg.Ingest.ChunkOverlap >= cfg.Ingest.ChunkSize {
		return fmt.Errorf("ingest.chunkOverlap (%d) must be smaller than ingest.chunkSize (%d)",
			cfg.Ingest.ChunkOverlap, cfg.Ingest.ChunkSize)
	}
	return nil
}

// APIKey resolves the embedding provider credential from the environment.
func (c EmbeddingConfig) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}

// APIKey resolves the completion provider credential from the environment.
func (c LLMConfig) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}
