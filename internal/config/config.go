package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LLM providers
const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// Config holds all configuration for the relay
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	LLM    LLMConfig    `mapstructure:"llm"`
	WS     WSConfig     `mapstructure:"ws"`
	Upload UploadConfig `mapstructure:"upload"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// LLMConfig holds the upstream model API configuration
type LLMConfig struct {
	Provider            string        `mapstructure:"provider"`
	BaseURL             string        `mapstructure:"base_url"`
	APIKey              string        `mapstructure:"api_key"`
	Model               string        `mapstructure:"model"`
	MaxCompletionTokens int64         `mapstructure:"max_completion_tokens"`
	ReasoningEffort     string        `mapstructure:"reasoning_effort"`
	SystemPrompt        string        `mapstructure:"system_prompt"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
}

// WSConfig holds WebSocket connection settings
type WSConfig struct {
	ReadLimit    int64         `mapstructure:"read_limit"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PingInterval time.Duration `mapstructure:"ping_interval"`
	ChunkYield   time.Duration `mapstructure:"chunk_yield"`
}

// UploadConfig holds image upload limits
type UploadConfig struct {
	MaxFileSize int64 `mapstructure:"max_file_size"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// CHATRELAY_LLM_API_KEY -> llm.api_key
	v.SetEnvPrefix("CHATRELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8081)
	v.SetDefault("server.allow_origins", []string{"*"})

	v.SetDefault("llm.provider", ProviderOpenAI)
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-5-nano")
	v.SetDefault("llm.max_completion_tokens", 2000)
	v.SetDefault("llm.reasoning_effort", "minimal")
	v.SetDefault("llm.system_prompt", "You are a helpful assistant that provides concise and clear answers")
	v.SetDefault("llm.request_timeout", time.Duration(0))

	v.SetDefault("ws.read_limit", 64*1024)
	v.SetDefault("ws.write_timeout", 10*time.Second)
	v.SetDefault("ws.ping_interval", 30*time.Second)
	v.SetDefault("ws.chunk_yield", time.Millisecond)

	v.SetDefault("upload.max_file_size", 20<<20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.LLM.Provider {
	case ProviderOpenAI:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("llm.api_key is required for provider %q", ProviderOpenAI)
		}
	case ProviderMock:
	default:
		return fmt.Errorf("unknown llm provider: %q", c.LLM.Provider)
	}

	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model cannot be empty")
	}
	if c.LLM.MaxCompletionTokens < 0 {
		return fmt.Errorf("llm.max_completion_tokens cannot be negative")
	}
	if c.WS.ChunkYield < 0 {
		return fmt.Errorf("ws.chunk_yield cannot be negative")
	}
	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("upload.max_file_size must be positive")
	}

	return nil
}

// Address returns the server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
