package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// VIDSCRIBE_SERVER_PORT for server.port.
const EnvPrefix = "VIDSCRIBE"

// ConfigPathEnv names an explicit config file to read instead of
// ./config.yaml.
const ConfigPathEnv = "VIDSCRIBE_CONFIG"

var defaults = map[string]any{
	"server.port":             5003,
	"server.log_level":        "info",
	"server.shutdown_timeout": 10 * time.Second,

	"database.driver": DriverSQLite,
	"database.url":    "vidscribe.db",

	"llm.gemini_api_keys": []string{},
	"llm.model_name":      "gemini-2.0-flash",
	"llm.prompts_path":    "prompts.json",
	"llm.switch_interval": 500 * time.Millisecond,
	"llm.request_timeout": 2 * time.Minute,

	"media.ytdlp_path":     "yt-dlp",
	"media.whisper_path":   "whisper",
	"media.whisper_model":  "base",
	"media.language":       "",
	"media.work_dir":       "downloads",
	"media.subtitle_langs": []string{"zh-Hans", "zh-CN", "zh", "en"},
	"media.cookies_file":   "",

	"tags.defaults": []string{"Tech", "Education", "Entertainment", "News", "Life"},
}

// Load configuration from defaults, an optional config file and the
// environment. Environment variables take precedence over values from the
// config file. Returns a populated Config or an error if loading or
// validation fails.
func Load() (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path := os.Getenv(ConfigPathEnv); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The bare Gemini variables are accepted as well.
	if err := v.BindEnv("llm.gemini_api_keys",
		EnvPrefix+"_LLM_GEMINI_API_KEYS", "GEMINI_API_KEYS", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("error binding environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.LLM.GeminiAPIKeys = cleanList(cfg.LLM.GeminiAPIKeys)
	cfg.Media.SubtitleLangs = cleanList(cfg.Media.SubtitleLangs)
	cfg.Tags.Defaults = cleanList(cfg.Tags.Defaults)
	cfg.Server.LogLevel = strings.ToLower(cfg.Server.LogLevel)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// cleanList trims entries and drops empty ones, so "a, b," from the
// environment becomes [a b].
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
