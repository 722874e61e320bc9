package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/CIDgravity/snakelet"
	"github.com/joho/godotenv"
)

// config structure
type Config struct {
	API       APIConfig       `mapstructure:"API"`
	Github    GithubConfig    `mapstructure:"GITHUB"`
	OAuth     OAuthConfig     `mapstructure:"OAUTH"`
	Generator GeneratorConfig `mapstructure:"GENERATOR"`
	HTTP      HTTPConfig      `mapstructure:"HTTP"`
	Tasks     TasksConfig     `mapstructure:"TASKS"`
	Logs      LogsConfig      `mapstructure:"LOGS"`
}

type APIConfig struct {
	ListenPort   string   `mapstructure:"ListenPort"`
	ServiceName  string   `mapstructure:"ServiceName"`
	AllowOrigins []string `mapstructure:"AllowOrigins"`
}

type GithubConfig struct {
	Token string `mapstructure:"Token"` // optional, unauthenticated calls are allowed for public repositories
}

type OAuthConfig struct {
	ClientID     string `mapstructure:"ClientID"`
	ClientSecret string `mapstructure:"ClientSecret"`
	RedirectURI  string `mapstructure:"RedirectURI"`
}

type GeneratorConfig struct {
	Provider string `mapstructure:"Provider"` // gemini | openai
	APIKey   string `mapstructure:"APIKey"`
	Model    string `mapstructure:"Model"`
	BaseURL  string `mapstructure:"BaseURL"` // optional endpoint override
}

type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"TimeoutSeconds"`
}

type TasksConfig struct {
	MaxParallelTasksAllowed int `mapstructure:"MaxParallelTasksAllowed"`
}

type LogsConfig struct {
	Level            string `mapstructure:"Level"` // error | warn | info | debug - case insensitive
	OutputLogsAsJSON bool   `mapstructure:"OutputLogsAsJson"`
	FilePath         string `mapstructure:"FilePath"` // empty disables the diagnostic log file
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Timeout returns the timeout applied to every outbound HTTP call
func (c HTTPConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}

	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Load builds the configuration from defaults, an optional toml file, a .env file
// and finally the process environment (highest priority).
// When configFilePath is empty, config/config.toml is searched next to the binary
// and then in the working directory. A missing file is not an error.
func Load(configFilePath string) (*Config, error) {
	cfg := GetDefault()

	if configFilePath == "" {
		path, err := findConfigFile()
		if err != nil {
			return nil, err
		}

		configFilePath = path
	} else if _, err := os.Stat(configFilePath); err != nil {
		return nil, err
	}

	if configFilePath != "" {
		if _, err := snakelet.InitAndLoad(cfg, configFilePath); err != nil {
			return nil, err
		}
	}

	// .env is optional, real environment variables always win over it
	_ = godotenv.Load()

	ApplyEnv(cfg, os.Getenv)

	return cfg, nil
}

// findConfigFile returns an empty path when no config file exists
func findConfigFile() (string, error) {
	dir, err := filepath.Abs(filepath.Dir(os.Args[0]))

	if err != nil {
		return "", err
	}

	candidates := []string{
		filepath.Join(dir, "config", "config.toml"),
		filepath.Join("config", "config.toml"),
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}

	return "", nil
}

// ApplyEnv overrides configuration values with the environment variables
// understood by the gateway. getenv is injected to keep tests away from the real environment.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	setString := func(target *string, keys ...string) {
		for _, key := range keys {
			if v := getenv(key); v != "" {
				*target = v
				return
			}
		}
	}

	setString(&cfg.API.ListenPort, "PORT")
	setString(&cfg.Github.Token, "GITHUB_TOKEN")
	setString(&cfg.OAuth.ClientID, "GITHUB_CLIENT_ID")
	setString(&cfg.OAuth.ClientSecret, "GITHUB_CLIENT_SECRET")
	setString(&cfg.OAuth.RedirectURI, "GITHUB_REDIRECT_URI")
	setString(&cfg.Generator.Provider, "LLM_PROVIDER")
	setString(&cfg.Generator.Model, "LLM_MODEL")
	setString(&cfg.Generator.BaseURL, "LLM_BASE_URL")
	setString(&cfg.Logs.Level, "LOG_LEVEL")
	setString(&cfg.Logs.FilePath, "LOG_FILE")

	if cfg.Generator.Provider == ProviderOpenAI {
		setString(&cfg.Generator.APIKey, "LLM_API_KEY", "OPENAI_API_KEY")
	} else {
		setString(&cfg.Generator.APIKey, "GEMINI_API_KEY", "LLM_API_KEY")
	}

	if v := getenv("HTTP_TIMEOUT_SECONDS"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.TimeoutSeconds = seconds
		}
	}
}

// GetDefault
func GetDefault() *Config {
	return &Config{
		API: APIConfig{
			ListenPort:   "5001",
			ServiceName:  "RMGen Backend",
			AllowOrigins: []string{"*"},
		},
		OAuth: OAuthConfig{
			RedirectURI: "http://localhost:3000/auth/callback",
		},
		Generator: GeneratorConfig{
			Provider: ProviderGemini,
			Model:    "gemini-2.5-flash",
		},
		HTTP: HTTPConfig{
			TimeoutSeconds: 30,
		},
		Tasks: TasksConfig{
			MaxParallelTasksAllowed: 8,
		},
		Logs: LogsConfig{
			Level:            "info",
			OutputLogsAsJSON: false,
			FilePath:         "backend_debug.log",
		},
	}
}
