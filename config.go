package main

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type ExportConfig struct {
	BaseURL      string        `yaml:"base_url"`
	TokenURL     string        `yaml:"token_url"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	PollInterval time.Duration `yaml:"poll_interval"`
	PollTimeout  time.Duration `yaml:"poll_timeout"`
}

func (e ExportConfig) Configured() bool {
	return e.BaseURL != "" && e.TokenURL != "" && e.ClientID != "" && e.ClientSecret != ""
}

type Config struct {
	SlackBotToken string `yaml:"slack_bot_token"`
	SlackAppToken string `yaml:"slack_app_token"`

	DataFile            string        `yaml:"data_file"`
	IngestMarker        string        `yaml:"ingest_marker"`
	IngestEncoding      string        `yaml:"ingest_encoding"`
	DatasetTTL          time.Duration `yaml:"dataset_ttl"`
	RemoteDatasetTTL    time.Duration `yaml:"remote_dataset_ttl"`
	ReloadCron          string        `yaml:"reload_cron"`
	ReloadNotifyChannel string        `yaml:"reload_notify_channel"`

	Export ExportConfig `yaml:"export"`

	LLMProvider     string `yaml:"llm_provider"`
	LLMModel        string `yaml:"llm_model"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	ComposeWithLLM  bool   `yaml:"compose_with_llm"`
	EvidenceEnabled bool   `yaml:"evidence_enabled"`

	DBPath   string `yaml:"db_path"`
	Timezone string `yaml:"timezone"`
}

func LoadConfig() Config {
	var cfg Config

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackAppToken, "SLACK_APP_TOKEN")
	envOverride(&cfg.DataFile, "DATA_FILE")
	envOverride(&cfg.IngestMarker, "INGEST_MARKER")
	envOverride(&cfg.IngestEncoding, "INGEST_ENCODING")
	envOverrideDuration(&cfg.DatasetTTL, "DATASET_TTL")
	envOverrideDuration(&cfg.RemoteDatasetTTL, "REMOTE_DATASET_TTL")
	envOverride(&cfg.ReloadCron, "RELOAD_CRON")
	envOverride(&cfg.ReloadNotifyChannel, "RELOAD_NOTIFY_CHANNEL")
	envOverride(&cfg.Export.BaseURL, "EXPORT_BASE_URL")
	envOverride(&cfg.Export.TokenURL, "EXPORT_TOKEN_URL")
	envOverride(&cfg.Export.ClientID, "EXPORT_CLIENT_ID")
	envOverride(&cfg.Export.ClientSecret, "EXPORT_CLIENT_SECRET")
	envOverrideDuration(&cfg.Export.PollInterval, "EXPORT_POLL_INTERVAL")
	envOverrideDuration(&cfg.Export.PollTimeout, "EXPORT_POLL_TIMEOUT")
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverrideBool(&cfg.ComposeWithLLM, "COMPOSE_WITH_LLM")
	envOverrideBool(&cfg.EvidenceEnabled, "EVIDENCE_ENABLED")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.Timezone, "TIMEZONE")

	// Defaults
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "anthropic"
	}
	if cfg.IngestMarker == "" {
		cfg.IngestMarker = "MATERIAL1"
	}
	if cfg.DatasetTTL == 0 {
		cfg.DatasetTTL = 24 * time.Hour
	}
	if cfg.RemoteDatasetTTL == 0 {
		cfg.RemoteDatasetTTL = 10 * time.Minute
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./movbot.db"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	// Validate required fields
	if cfg.DataFile == "" && !cfg.Export.Configured() {
		log.Fatalf("No data source configured: set data_file or the export credentials (base_url, token_url, client_id, client_secret)")
	}

	switch cfg.LLMProvider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Fatalf("anthropic_api_key is required when llm_provider=anthropic")
		}
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Fatalf("openai_api_key is required when llm_provider=openai")
		}
	default:
		log.Fatalf("llm_provider must be 'anthropic' or 'openai', got '%s'", cfg.LLMProvider)
	}

	if enc := strings.ToLower(cfg.IngestEncoding); enc != "" && enc != "utf-8" && enc != "utf8" && enc != "win1252" && enc != "windows-1252" && enc != "latin1" {
		log.Fatalf("invalid ingest_encoding '%s': must be utf-8 or windows-1252", cfg.IngestEncoding)
	}

	if strings.EqualFold(cfg.Timezone, "Local") {
		cfg.Timezone = time.Local.String()
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatalf("invalid timezone '%s': %v", cfg.Timezone, err)
		}
		time.Local = loc
	}

	return cfg
}

// SlackConfigured reports whether both Slack tokens are present; when
// false the bot falls back to the stdin prompt.
func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != "" && c.SlackAppToken != ""
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideBool(field *bool, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideDuration(field *time.Duration, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := time.ParseDuration(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}
