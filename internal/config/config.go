package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	Media    MediaConfig    `mapstructure:"media" validate:"required"`
	Tags     TagsConfig     `mapstructure:"tags"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DatabaseConfig selects the project store. For sqlite URL is a file path,
// for postgres a connection string.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=sqlite postgres"`
	URL    string `mapstructure:"url" validate:"required"`
}

// LLMConfig contains Gemini settings. Keys are tried in order; an empty list
// is allowed and makes every summary and chat call fail.
type LLMConfig struct {
	GeminiAPIKeys  []string      `mapstructure:"gemini_api_keys" validate:"dive,required"`
	ModelName      string        `mapstructure:"model_name" validate:"required"`
	PromptsPath    string        `mapstructure:"prompts_path"`
	SwitchInterval time.Duration `mapstructure:"switch_interval" validate:"gte=0"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gte=0"`
}

// MediaConfig points at the external tools used to fetch and transcribe
// videos.
type MediaConfig struct {
	YtDlpPath     string   `mapstructure:"ytdlp_path" validate:"required"`
	WhisperPath   string   `mapstructure:"whisper_path" validate:"required"`
	WhisperModel  string   `mapstructure:"whisper_model" validate:"required"`
	Language      string   `mapstructure:"language"`
	WorkDir       string   `mapstructure:"work_dir" validate:"required"`
	SubtitleLangs []string `mapstructure:"subtitle_langs" validate:"min=1,dive,required"`
	CookiesFile   string   `mapstructure:"cookies_file"`
}

// TagsConfig lists the tags seeded into an empty tag store.
type TagsConfig struct {
	Defaults []string `mapstructure:"defaults" validate:"dive,required"`
}
