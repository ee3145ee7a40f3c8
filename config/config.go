package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the legal QA assistant.
type Config struct {
	Corpus    CorpusConfig    `yaml:"corpus"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	LawAPI    LawAPIConfig    `yaml:"law_api"`
	Pack      PackConfig      `yaml:"pack"`
	Session   SessionConfig   `yaml:"session"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// CorpusConfig describes where judgment sources live and how they are cleaned.
type CorpusConfig struct {
	JudgementsDir      string      `yaml:"judgements_dir"`
	RawDir             string      `yaml:"raw_dir"`
	PrepDir            string      `yaml:"prep_dir"`
	LawTypes           []LawType   `yaml:"law_types"`
	Patches            []LinePatch `yaml:"patches"`
	ExtraNoisePatterns []string    `yaml:"extra_noise_patterns"`
	NormalizeUnicode   bool        `yaml:"normalize_unicode"`
}

// LawType is one area of law with its own source PDF.
// ExpectedCases 0 disables the chunk count check; EndPage 0 means the last page.
type LawType struct {
	Name          string `yaml:"name"`
	ExpectedCases int    `yaml:"expected_cases"`
	StartPage     int    `yaml:"start_page"`
	EndPage       int    `yaml:"end_page"`
}

// LinePatch fixes a typesetting defect on a single 1-based line of a raw file.
type LinePatch struct {
	LawType string `yaml:"law_type"`
	Line    int    `yaml:"line"`
	Append  string `yaml:"append"`
}

// IndexConfig holds vector index configuration.
type IndexConfig struct {
	Backend     string  `yaml:"backend"` // "bolt" or "pgvector"
	Path        string  `yaml:"path"`
	Collection  string  `yaml:"collection"`
	PostgresEnv string  `yaml:"postgres_env"`
	PublicRatio float64 `yaml:"public_ratio"` // 0 disables public/private partitions
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`    // "openai", "jina", "ollama", "gemini", "mock"
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"` // Environment variable for API key
	BaseURL   string `yaml:"base_url"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

// LLMConfig holds generation model configuration.
type LLMConfig struct {
	Provider         string        `yaml:"provider"` // "openai", "gemini", "mock"
	Model            string        `yaml:"model"`
	APIKeyEnv        string        `yaml:"api_key_env"`
	BaseURL          string        `yaml:"base_url"`
	Timeout          time.Duration `yaml:"timeout"`
	SystemPromptFile string        `yaml:"system_prompt_file"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopN        int  `yaml:"top_n"`
	Clarify     bool `yaml:"clarify"`
	UseVector   bool `yaml:"use_vector"`
	UseExternal bool `yaml:"use_external"`
}

// LawAPIConfig configures the law.go.kr open API client.
type LawAPIConfig struct {
	BaseURL       string        `yaml:"base_url"`
	OCEnv         string        `yaml:"oc_env"`
	OC            string        `yaml:"oc"`
	Display       int           `yaml:"display"`
	SearchMode    int           `yaml:"search_mode"` // 1: case name, 2: full text
	MaxContentLen int           `yaml:"max_content_len"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	Concurrency   int           `yaml:"concurrency"`
	MaxRetries    int           `yaml:"max_retries"`
	CacheSize     int           `yaml:"cache_size"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
	Timeout       time.Duration `yaml:"timeout"`
}

// PackConfig holds context assembly configuration.
type PackConfig struct {
	MaxContextLen    int    `yaml:"max_context_len"`
	TruncationMarker string `yaml:"truncation_marker"`
	DebugDumpDir     string `yaml:"debug_dump_dir"` // empty disables dumps
}

// SessionConfig selects the session store.
type SessionConfig struct {
	Backend   string        `yaml:"backend"` // "memory" or "redis"
	RedisAddr string        `yaml:"redis_addr"`
	RedisDB   int           `yaml:"redis_db"`
	TTL       time.Duration `yaml:"ttl"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			JudgementsDir: "./data/source_data/judgements",
			RawDir:        "./data/raw_texts",
			PrepDir:       "./data/preprocessed_texts",
			LawTypes: []LawType{
				{Name: "민법", StartPage: 1},
				{Name: "상법", StartPage: 1},
				{Name: "형법", StartPage: 1},
				{Name: "민사소송법", StartPage: 1},
				{Name: "형사소송법", StartPage: 1},
				{Name: "헌법", StartPage: 1},
				{Name: "행정법", StartPage: 1},
			},
			Patches: []LinePatch{
				{LawType: "상법", Line: 3611, Append: "."},
				{LawType: "형사소송법", Line: 6676, Append: "."},
			},
			NormalizeUnicode: true,
		},
		Index: IndexConfig{
			Backend:     "bolt",
			Path:        "./data/index.db",
			Collection:  "judgement_collection",
			PostgresEnv: "DATABASE_URL",
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
			BatchSize: 100,
		},
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "gpt-5-mini",
			APIKeyEnv: "OPENAI_API_KEY",
			BaseURL:   "https://api.openai.com/v1",
			Timeout:   120 * time.Second,
		},
		Retrieve: RetrieveConfig{
			TopN:        5,
			Clarify:     true,
			UseVector:   true,
			UseExternal: true,
		},
		LawAPI: LawAPIConfig{
			BaseURL:       "https://www.law.go.kr",
			OCEnv:         "LAW_API_OC",
			Display:       40,
			SearchMode:    2,
			MaxContentLen: 8000,
			RatePerSecond: 5,
			Concurrency:   4,
			MaxRetries:    3,
			CacheSize:     256,
			CacheTTL:      time.Hour,
			Timeout:       30 * time.Second,
		},
		Pack: PackConfig{
			MaxContextLen:    8000,
			TruncationMarker: "...",
		},
		Session: SessionConfig{
			Backend:   "memory",
			RedisAddr: "localhost:6379",
			TTL:       24 * time.Hour,
		},
		Server: ServerConfig{
			Addr: ":8000",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks enum fields and numeric bounds.
func (c *Config) Validate() error {
	switch c.Index.Backend {
	case "bolt", "pgvector":
	default:
		return fmt.Errorf("unknown index backend: %q", c.Index.Backend)
	}
	switch c.Session.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown session backend: %q", c.Session.Backend)
	}
	if c.Index.PublicRatio < 0 || c.Index.PublicRatio >= 1 {
		return fmt.Errorf("index.public_ratio must be in [0, 1), got %v", c.Index.PublicRatio)
	}
	if c.Retrieve.TopN <= 0 {
		return fmt.Errorf("retrieve.top_n must be positive, got %d", c.Retrieve.TopN)
	}
	if c.Pack.MaxContextLen <= 0 {
		return fmt.Errorf("pack.max_context_len must be positive, got %d", c.Pack.MaxContextLen)
	}
	if c.LawAPI.MaxContentLen <= 0 {
		return fmt.Errorf("law_api.max_content_len must be positive, got %d", c.LawAPI.MaxContentLen)
	}
	return nil
}

// LawType returns the named law type and whether it is configured.
func (c *CorpusConfig) LawType(name string) (LawType, bool) {
	for _, lt := range c.LawTypes {
		if lt.Name == name {
			return lt, true
		}
	}
	return LawType{}, false
}

// LawNames returns the configured law type names in order.
func (c *CorpusConfig) LawNames() []string {
	names := make([]string, 0, len(c.LawTypes))
	for _, lt := range c.LawTypes {
		names = append(names, lt.Name)
	}
	return names
}

// PatchesFor returns the line patches registered for a law type.
func (c *CorpusConfig) PatchesFor(lawType string) []LinePatch {
	var out []LinePatch
	for _, p := range c.Patches {
		if p.LawType == lawType {
			out = append(out, p)
		}
	}
	return out
}

// PDFPath returns the source PDF path for a law type.
func (c *CorpusConfig) PDFPath(lawType string) string {
	return filepath.Join(c.JudgementsDir, lawType+"_판례.pdf")
}

// RawPath returns the page-extracted raw text path for a law type.
func (c *CorpusConfig) RawPath(lawType string) string {
	return filepath.Join(c.RawDir, lawType+"_판례_raw.txt")
}

// PrepPath returns the chunk file path for a law type.
func (c *CorpusConfig) PrepPath(lawType string) string {
	return filepath.Join(c.PrepDir, lawType+"_판례_prep.txt")
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for lexrag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "lexrag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".lexrag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ResolvePath makes a relative config path absolute against dir.
func ResolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// EnsureDir ensures the parent directory of path exists.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0755)
}
