package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Fetch         Fetch         `yaml:"fetch"`
	Extraction    Extraction    `yaml:"extraction"`
	Summarization Summarization `yaml:"summarization"`
	Market        Market        `yaml:"market"`
	Gazetteer     Gazetteer     `yaml:"gazetteer"`
	Server        Server        `yaml:"server"`
	Logging       Logging       `yaml:"logging"`
}

type Fetch struct {
	UserAgent      string        `yaml:"user_agent"`
	AcceptLanguage string        `yaml:"accept_language"`
	Timeout        time.Duration `yaml:"timeout"`
}

type Extraction struct {
	ContentClasses []string `yaml:"content_classes"`
	Placeholders   []string `yaml:"placeholders"`
}

type Summarization struct {
	Provider       string        `yaml:"provider"`
	Endpoint       string        `yaml:"endpoint"`
	APIKeyEnv      string        `yaml:"api_key_env"`
	MaxLength      int           `yaml:"max_length"`
	MinLength      int           `yaml:"min_length"`
	ChunkWords     int           `yaml:"chunk_words"`
	Timeout        time.Duration `yaml:"timeout"`
	Model          string        `yaml:"model"`
	OllamaURL      string        `yaml:"ollama_url"`
	OpenAIModel    string        `yaml:"openai_model"`
	GeminiModel    string        `yaml:"gemini_model"`
	AnthropicModel string        `yaml:"anthropic_model"`
}

type Market struct {
	Provider     string `yaml:"provider"`
	APIKeyEnv    string `yaml:"api_key_env"`
	APISecretEnv string `yaml:"api_secret_env"`
	BaseURL      string `yaml:"base_url"`
}

type Gazetteer struct {
	Path string `yaml:"path"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for marketbrief.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "marketbrief")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/marketbrief/config.yaml > ./config.yaml.
// An empty path with a nil error means no file exists and the embedded
// defaults apply.
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", nil
}

// Load reads and parses a config YAML file. An empty path yields the
// embedded defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return parse(DefaultConfigYAML)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded default config is invalid: %v", err))
	}
	return cfg
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Fetch: Fetch{
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
			AcceptLanguage: "en-US,en;q=0.9",
			Timeout:        30 * time.Second,
		},
		Extraction: Extraction{
			ContentClasses: DefaultContentClasses(),
			Placeholders:   []string{"Oops, something went wrong "},
		},
		Summarization: Summarization{
			Provider:       "huggingface",
			Endpoint:       "https://api-inference.huggingface.co/models/facebook/bart-large-cnn",
			APIKeyEnv:      "HF_API_KEY",
			MaxLength:      500,
			MinLength:      50,
			ChunkWords:     500,
			Timeout:        60 * time.Second,
			Model:          "qwen2.5:7b",
			OllamaURL:      "http://localhost:11434",
			OpenAIModel:    "gpt-4o-mini",
			GeminiModel:    "gemini-2.5-flash",
			AnthropicModel: "claude-haiku-4-5",
		},
		Market: Market{
			Provider: "yahoo",
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// DefaultContentClasses lists the CSS classes known to wrap an article
// body, most specific first.
func DefaultContentClasses() []string {
	return []string{
		"article__content", "article-content", "main-content",
		"post-content", "entry-content", "story-body", "content__article-body",
		"article-body__content__17Yit", "atoms-wrapper", "ArticleBody-articleBody",
	}
}

// Debug reports whether detail logging is enabled.
func (c *Config) Debug() bool {
	return c.Logging.Level == "DEBUG"
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
