package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	LLM        LLM        `yaml:"llm"`
	Generation Generation `yaml:"generation"`
	Drafts     Drafts     `yaml:"drafts"`
	Triggers   Triggers   `yaml:"triggers"`
	Output     Output     `yaml:"output"`
	Server     Server     `yaml:"server"`
	Logging    Logging    `yaml:"logging"`
}

type LLM struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	OllamaURL   string `yaml:"ollama_url"`
	OpenAIModel string `yaml:"openai_model"`
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
}

// GenerationOptions are the per content kind limits sent with every request.
// Zero means unset for both fields, so a temperature of exactly 0 cannot be
// requested; use a small value such as 0.01 for near-deterministic output.
type GenerationOptions struct {
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// Generation maps content kinds (ideas, linkedin, email, ...) to options.
type Generation struct {
	Default GenerationOptions            `yaml:"default"`
	Kinds   map[string]GenerationOptions `yaml:"kinds"`
}

type Drafts struct {
	AutosaveDelay time.Duration `yaml:"autosave_delay"`
}

type Triggers struct {
	Feeds    []Feed `yaml:"feeds"`
	DaysBack int    `yaml:"days_back"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port     int  `yaml:"port"`
	AllowAll bool `yaml:"allow_all_origins"`
}

type Logging struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

// ConfigDir returns the XDG config directory for gtmcraft.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "gtmcraft")
}

// DataDir returns the XDG data directory for gtmcraft.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "gtmcraft")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/gtmcraft/config.yaml > ./config.yaml
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

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'gtmcraft init' to create a default config",
		xdgConfig,
	)
}

// LoadEnv reads API keys from .env files next to the working directory and
// the config directory. Missing files are not an error; variables already set
// in the environment win.
func LoadEnv() error {
	for _, path := range []string{".env", filepath.Join(ConfigDir(), ".env")} {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}
	return nil
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg, err := parse(nil)
	if err != nil {
		panic(err)
	}
	return cfg
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		LLM: LLM{
			Provider:    "openai",
			Model:       "qwen2.5:7b",
			OllamaURL:   "http://localhost:11434",
			OpenAIModel: "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
		},
		Generation: Generation{
			Default: GenerationOptions{MaxTokens: 1500, Temperature: 0.7},
			Kinds: map[string]GenerationOptions{
				"ideas":         {MaxTokens: 2000, Temperature: 0.8},
				"linkedin":      {MaxTokens: 1200, Temperature: 0.7},
				"email":         {MaxTokens: 2000, Temperature: 0.7},
				"story_section": {MaxTokens: 1500, Temperature: 0.6},
				"article":       {MaxTokens: 4000, Temperature: 0.7},
				"custom":        {MaxTokens: 2500, Temperature: 0.7},
				"story_extract": {MaxTokens: 1500, Temperature: 0.2},
				"triage":        {MaxTokens: 512, Temperature: 0.2},
			},
		},
		Drafts:   Drafts{AutosaveDelay: 2 * time.Second},
		Triggers: Triggers{DaysBack: 7},
		Server:   Server{Port: 8000},
		Logging:  Logging{Level: "info", Encoding: "console"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// OptionsFor returns the generation options for a content kind, filling
// unset values from the default entry.
func (c *Config) OptionsFor(kind string) GenerationOptions {
	opts, ok := c.Generation.Kinds[kind]
	if !ok {
		return c.Generation.Default
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = c.Generation.Default.MaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = c.Generation.Default.Temperature
	}
	return opts
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
