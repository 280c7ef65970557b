package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// PlaceholderImageURL is shown in place of a generated banner.
const PlaceholderImageURL = "https://i.imgur.com/ilo8Prn.jpeg"

// DefaultMaxBodyBytes is the request body limit when none is configured.
const DefaultMaxBodyBytes int64 = 1 << 20

// Config holds the application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	LLM         LLMConfig         `yaml:"llm"`
	Input       InputConfig       `yaml:"input"`
	Defaults    Defaults          `yaml:"defaults"`
	Display     DisplayConfig     `yaml:"display"`
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	// Mode is the gin mode: debug, release or test.
	Mode string `yaml:"mode"`
	// MaxBodyBytes bounds request bodies, uploads included.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// LLMConfig selects and configures the generation backend.
type LLMConfig struct {
	Provider    string        `yaml:"provider"` // mistral, openai, gemini or stub
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
	// UseReal is the initial state of the "use real backend" toggle.
	UseReal bool `yaml:"use_real"`
}

type InputConfig struct {
	DefaultPath string `yaml:"default_path"`
}

// Defaults are the values substituted when an input record does not carry them.
type Defaults struct {
	Audience  AudienceDefaults `yaml:"audience"`
	Channel   string           `yaml:"channel"`
	Trends    []string         `yaml:"trends"`
	NVariants int              `yaml:"n_variants"`

	// MaxVariants caps the variant count a record may request.
	MaxVariants int    `yaml:"max_variants"`
	ImageURL    string `yaml:"image_url"`
}

type AudienceDefaults struct {
	AgeRange  string   `yaml:"age_range"`
	Interests []string `yaml:"interests"`
	Behavior  []string `yaml:"behavior"`
}

type DisplayConfig struct {
	Title          string `yaml:"title"`
	CurrencySymbol string `yaml:"currency_symbol"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig bounds the rate of generation requests.
// RPM <= 0 disables the limit.
type ConcurrencyConfig struct {
	RPM   int `yaml:"rpm"`
	Burst int `yaml:"burst"`
}

// DefaultDefaults returns the built-in record defaults.
func DefaultDefaults() Defaults {
	return Defaults{
		Audience: AudienceDefaults{
			AgeRange:  "20-35",
			Interests: []string{"gadgets", "technology"},
			Behavior:  []string{"responds to discounts"},
		},
		Channel:     "telegram",
		Trends:      []string{"minimalism", "FOMO"},
		NVariants:   3,
		MaxVariants: 10,
		ImageURL:    PlaceholderImageURL,
	}
}

// Default returns the configuration used when nothing else is supplied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", Mode: "release", MaxBodyBytes: DefaultMaxBodyBytes},
		LLM: LLMConfig{
			Provider:    "mistral",
			Temperature: 0.7,
			MaxTokens:   2048,
			Timeout:     90 * time.Second,
			UseReal:     true,
		},
		Input:    InputConfig{DefaultPath: "test.json"},
		Defaults: DefaultDefaults(),
		Display: DisplayConfig{
			Title:          "Ad Creative Agent",
			CurrencySymbol: "₽",
		},
		Log:         LogConfig{Level: "info"},
		Concurrency: ConcurrencyConfig{RPM: 30, Burst: 3},
	}
}

// LoadConfig builds the configuration from the defaults, the optional YAML
// file at path, a .env file in the working directory and the environment,
// in increasing order of precedence.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return cfg, nil
}

// providerKeyEnv maps a provider to the environment variable holding its key.
var providerKeyEnv = map[string]string{
	"mistral": "MISTRAL_API_KEY",
	"openai":  "OPENAI_API_KEY",
	"gemini":  "GEMINI_API_KEY",
}

// APIKeyEnv returns the environment variable that holds the key for provider.
func APIKeyEnv(provider string) string {
	if name, ok := providerKeyEnv[strings.ToLower(provider)]; ok {
		return name
	}
	return "LLM_API_KEY"
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.Mode, "GIN_MODE")
	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.BaseURL, "LLM_BASE_URL")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.LLM.APIKey, "LLM_API_KEY")
	if c.LLM.APIKey == "" {
		setString(&c.LLM.APIKey, APIKeyEnv(c.LLM.Provider))
	}
	setString(&c.Input.DefaultPath, "DEFAULT_INPUT_PATH")
	setString(&c.Defaults.ImageURL, "PLACEHOLDER_IMAGE_URL")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.File, "LOG_FILE")

	if v := os.Getenv("LLM_USE_REAL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LLM_USE_REAL: %w", err)
		}
		c.LLM.UseReal = b
	}
	if v := os.Getenv("LLM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("LLM_TIMEOUT: %w", err)
		}
		c.LLM.Timeout = d
	}
	if v := os.Getenv("RATE_LIMIT_RPM"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_RPM: %w", err)
		}
		c.Concurrency.RPM = n
	}
	return nil
}

// fillDefaults restores built-in values that a YAML file blanked out.
func (c *Config) fillDefaults() {
	d := DefaultDefaults()
	if c.Defaults.Channel == "" {
		c.Defaults.Channel = d.Channel
	}
	if c.Defaults.NVariants <= 0 {
		c.Defaults.NVariants = d.NVariants
	}
	if c.Defaults.MaxVariants <= 0 {
		c.Defaults.MaxVariants = d.MaxVariants
	}
	if c.Defaults.NVariants > c.Defaults.MaxVariants {
		c.Defaults.NVariants = c.Defaults.MaxVariants
	}
	if c.Defaults.ImageURL == "" {
		c.Defaults.ImageURL = d.ImageURL
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Concurrency.Burst <= 0 {
		c.Concurrency.Burst = 1
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}
