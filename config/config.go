package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Database struct {
		ConnectionString string `yaml:"connection_string"`
	} `yaml:"database"`
	LLM struct {
		BaseURL   string  `yaml:"base_url"`
		APIKey    string  `yaml:"api_key"`
		Model     string  `yaml:"model"`
		MaxTokens int     `yaml:"max_tokens"`
		Temp      float64 `yaml:"temperature"`
	} `yaml:"llm"`
	Embeddings struct {
		BaseURL      string `yaml:"base_url"`
		APIKey       string `yaml:"api_key"`
		TextModel    string `yaml:"text_model"`
		CaptionModel string `yaml:"caption_model"`
	} `yaml:"embeddings"`
	ObjectStore struct {
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Bucket    string `yaml:"bucket"`
		UseSSL    bool   `yaml:"use_ssl"`
	} `yaml:"object_store"`
	OCR struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"ocr"`
	ASR struct {
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
	} `yaml:"asr"`
	Retrieval struct {
		TopK int `yaml:"top_k"`
	} `yaml:"retrieval"`
}

// Load loads configuration from file (if present) and applies
// environment overrides for endpoints and credentials.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{}

	cfg.Server.Addr = ":8080"
	cfg.Database.ConnectionString = "postgres://postgres@localhost/postgres?sslmode=disable"
	cfg.LLM.BaseURL = "http://localhost:1234/v1"
	cfg.LLM.Model = "local-model"
	cfg.LLM.MaxTokens = 512
	cfg.LLM.Temp = 0.2
	cfg.Embeddings.BaseURL = "http://localhost:1234/v1"
	cfg.Embeddings.TextModel = "bge-m3"
	cfg.Embeddings.CaptionModel = "clip-vit-large-patch14"
	cfg.ObjectStore.Endpoint = "localhost:9000"
	cfg.ObjectStore.AccessKey = "minioadmin"
	cfg.ObjectStore.SecretKey = "minioadmin"
	cfg.ObjectStore.Bucket = "jarvisdocs"
	cfg.ASR.Model = "whisper-1"
	cfg.Retrieval.TopK = 6

	return cfg
}

func applyEnvOverrides(cfg *Config) {
	setEnv(&cfg.Server.Addr, "SERVER_ADDR")
	setEnv(&cfg.Database.ConnectionString, "DATABASE_URL")
	setEnv(&cfg.LLM.BaseURL, "OPENAI_BASE_URL")
	setEnv(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	setEnv(&cfg.LLM.Model, "OPENAI_CHAT_MODEL")
	setEnv(&cfg.Embeddings.BaseURL, "EMBEDDINGS_BASE_URL")
	setEnv(&cfg.Embeddings.APIKey, "EMBEDDINGS_API_KEY")
	setEnv(&cfg.Embeddings.TextModel, "EMBEDDING_MODEL")
	setEnv(&cfg.Embeddings.CaptionModel, "IMAGE_EMBEDDING_MODEL")
	setEnv(&cfg.ObjectStore.Endpoint, "MINIO_ENDPOINT")
	setEnv(&cfg.ObjectStore.AccessKey, "MINIO_ACCESS_KEY")
	setEnv(&cfg.ObjectStore.SecretKey, "MINIO_SECRET_KEY")
	setEnv(&cfg.ObjectStore.Bucket, "MINIO_BUCKET")
	setEnv(&cfg.OCR.BaseURL, "OCR_BASE_URL")
	setEnv(&cfg.ASR.BaseURL, "ASR_BASE_URL")
	setEnv(&cfg.ASR.Model, "ASR_MODEL")
}

func setEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
