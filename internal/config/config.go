package config

import (
	"os"
	"strconv"
	"strings"

	"quote-desk/internal/domain"
	"quote-desk/internal/llm"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port      int
	APIKey    string
	LogLevel  string
	LogFormat string

	DeepSeek llm.ProviderConfig
	Zhipu    llm.ProviderConfig

	RedisURL    string
	DatabaseURL string
	SQLitePath  string

	TelegramBotToken string

	ProviderTimeoutSecs int
	NewsPerTopic        int

	IntelligenceCron    string
	IntelligenceQueries []string

	TracingEnabled bool
	OTELEndpoint   string

	// From CONFIG_FILE. Nil maps keep the built-in suffixes.
	NewsSuffixesCN      map[domain.NewsTopic]string
	NewsSuffixesForeign map[domain.NewsTopic]string
}

// fileConfig is the optional YAML overlay read from CONFIG_FILE.
type fileConfig struct {
	News struct {
		Suffixes struct {
			CN      map[domain.NewsTopic]string `yaml:"cn"`
			Foreign map[domain.NewsTopic]string `yaml:"foreign"`
		} `yaml:"suffixes"`
		PerTopic int `yaml:"per_topic"`
	} `yaml:"news"`
	Intelligence struct {
		Cron    string   `yaml:"cron"`
		Queries []string `yaml:"queries"`
	} `yaml:"intelligence"`
}

func Load() *Config {
	cfg := &Config{
		APIKey:           strings.TrimSpace(os.Getenv("API_KEY")),
		RedisURL:         strings.TrimSpace(os.Getenv("REDIS_URL")),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:       strings.TrimSpace(os.Getenv("SQLITE_PATH")),
		TelegramBotToken: strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		OTELEndpoint:     strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
	}

	cfg.Port = positiveInt("PORT", 8080)
	cfg.ProviderTimeoutSecs = positiveInt("PROVIDER_TIMEOUT_SECS", 8)
	cfg.NewsPerTopic = positiveInt("NEWS_PER_TOPIC", 8)

	cfg.LogLevel = strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT")))
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
	}

	cfg.DeepSeek = llm.ProviderConfig{
		Name:    "deepseek",
		APIKey:  strings.TrimSpace(os.Getenv("DEEPSEEK_API_KEY")),
		BaseURL: envOr("DEEPSEEK_BASE_URL", llm.DeepSeekBaseURL),
		Model:   envOr("DEEPSEEK_MODEL", llm.DeepSeekModel),
	}
	cfg.Zhipu = llm.ProviderConfig{
		Name:    "zhipu",
		APIKey:  strings.TrimSpace(os.Getenv("ZHIPU_API_KEY")),
		BaseURL: envOr("ZHIPU_BASE_URL", llm.ZhipuBaseURL),
		Model:   envOr("ZHIPU_MODEL", llm.ZhipuModel),
	}
	if cfg.DeepSeek.APIKey == "" && cfg.Zhipu.APIKey == "" {
		log.Warn().Msg("DEEPSEEK_API_KEY and ZHIPU_API_KEY not set, chat disabled and analysis uses the template")
	}

	if cfg.TelegramBotToken == "" {
		log.Warn().Msg("TELEGRAM_BOT_TOKEN not set, telegram bot disabled")
	}
	if cfg.DatabaseURL == "" && cfg.SQLitePath == "" {
		log.Warn().Msg("DATABASE_URL and SQLITE_PATH not set, backtest runs will not be persisted")
	}

	cfg.IntelligenceCron = envOr("INTELLIGENCE_CRON", "@every 30m")
	cfg.IntelligenceQueries = splitList(os.Getenv("INTELLIGENCE_QUERIES"))

	cfg.TracingEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("TRACING_ENABLED")), "true")

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.applyFile(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("ignoring CONFIG_FILE")
		}
	}

	return cfg
}

// applyFile overlays the YAML file at path. Environment values set explicitly win over
// the file for the cron expression and queries.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return err
	}

	if len(fc.News.Suffixes.CN) > 0 {
		c.NewsSuffixesCN = fc.News.Suffixes.CN
	}
	if len(fc.News.Suffixes.Foreign) > 0 {
		c.NewsSuffixesForeign = fc.News.Suffixes.Foreign
	}
	if fc.News.PerTopic > 0 && os.Getenv("NEWS_PER_TOPIC") == "" {
		c.NewsPerTopic = fc.News.PerTopic
	}
	if fc.Intelligence.Cron != "" && os.Getenv("INTELLIGENCE_CRON") == "" {
		c.IntelligenceCron = fc.Intelligence.Cron
	}
	if len(fc.Intelligence.Queries) > 0 && len(c.IntelligenceQueries) == 0 {
		c.IntelligenceQueries = fc.Intelligence.Queries
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func positiveInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Warn().Str("key", key).Str("value", v).Int("default", fallback).Msg("invalid integer, using default")
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
