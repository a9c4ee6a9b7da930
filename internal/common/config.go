package common

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/joseph-ayodele/ticket-record/constants"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	OCR      OCRConfig      `mapstructure:"ocr"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Fields   FieldsConfig   `mapstructure:"fields"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Watch    WatchConfig    `mapstructure:"watch"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string        `mapstructure:"driver"` // postgres | sqlite
	DSN              string        `mapstructure:"dsn"`
	MaxConns         int32         `mapstructure:"max_conns"`
	MinConns         int32         `mapstructure:"min_conns"`
	MaxConnLifetime  time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `mapstructure:"max_conn_idle_time"`
	DialTimeout      time.Duration `mapstructure:"dial_timeout"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr     string `mapstructure:"grpc_addr"`
	MaxRecvBytes int    `mapstructure:"max_recv_bytes"`
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract           string `mapstructure:"tesseract"`
	Lang                string `mapstructure:"lang"`
	TessdataDir         string `mapstructure:"tessdata_dir"`
	PSM                 int    `mapstructure:"psm"`
	EnableTSVConfidence bool   `mapstructure:"tsv_confidence"`
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	Model           string        `mapstructure:"model"`
	TranscribeModel string        `mapstructure:"transcribe_model"`
	Language        string        `mapstructure:"language"`
	Temperature     float64       `mapstructure:"temperature"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxAttempts     uint          `mapstructure:"max_attempts"`
}

// FieldsConfig holds the field allow-list.
type FieldsConfig struct {
	Allowed []string `mapstructure:"allowed"`
}

// QueueConfig sizes the background processing queue.
type QueueConfig struct {
	Workers        int           `mapstructure:"workers"`
	Size           int           `mapstructure:"size"`
	ProcessTimeout time.Duration `mapstructure:"process_timeout"`
}

// WatchConfig enables the daemon's inbox directory. An empty Dir disables it.
type WatchConfig struct {
	Dir      string        `mapstructure:"dir"`
	UserID   string        `mapstructure:"user_id"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// env bindings keep the plain variable names used in deployment manifests.
var envBindings = map[string]string{
	"database.driver":             "DB_DRIVER",
	"database.dsn":                "DB_URL",
	"database.max_conns":          "DB_MAX_CONNS",
	"database.min_conns":          "DB_MIN_CONNS",
	"database.max_conn_lifetime":  "DB_MAX_CONN_LIFETIME",
	"database.max_conn_idle_time": "DB_MAX_CONN_IDLE_TIME",
	"database.dial_timeout":       "DB_DIAL_TIMEOUT",
	"database.statement_timeout":  "DB_STATEMENT_TIMEOUT",
	"server.grpc_addr":            "GRPC_ADDR",
	"server.max_recv_bytes":       "GRPC_MAX_RECV_BYTES",
	"ocr.tesseract":               "TESSERACT_BIN",
	"ocr.lang":                    "TESSERACT_LANG",
	"ocr.tessdata_dir":            "TESSDATA_PREFIX",
	"ocr.psm":                     "TESSERACT_PSM",
	"ocr.tsv_confidence":          "OCR_TSV_CONFIDENCE",
	"llm.api_key":                 "OPENAI_API_KEY",
	"llm.base_url":                "OPENAI_BASE_URL",
	"llm.model":                   "OPENAI_MODEL",
	"llm.transcribe_model":        "OPENAI_TRANSCRIBE_MODEL",
	"llm.language":                "OPENAI_LANGUAGE",
	"llm.temperature":             "OPENAI_TEMPERATURE",
	"llm.timeout":                 "OPENAI_TIMEOUT",
	"llm.max_attempts":            "OPENAI_MAX_ATTEMPTS",
	"fields.allowed":              "TICKET_FIELDS",
	"queue.workers":               "QUEUE_WORKERS",
	"queue.size":                  "QUEUE_SIZE",
	"queue.process_timeout":       "QUEUE_PROCESS_TIMEOUT",
	"watch.dir":                   "WATCH_DIR",
	"watch.user_id":               "WATCH_USER_ID",
	"watch.debounce":              "WATCH_DEBOUNCE",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.max_conn_lifetime", 30*time.Minute)
	v.SetDefault("database.max_conn_idle_time", 5*time.Minute)
	v.SetDefault("database.dial_timeout", 3*time.Second)
	v.SetDefault("database.statement_timeout", time.Duration(0))

	v.SetDefault("server.grpc_addr", ":8080")
	v.SetDefault("server.max_recv_bytes", 16<<20)

	v.SetDefault("ocr.tesseract", "tesseract")
	v.SetDefault("ocr.lang", "kor+eng")
	v.SetDefault("ocr.tessdata_dir", "")
	v.SetDefault("ocr.psm", 0)
	v.SetDefault("ocr.tsv_confidence", false)

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.transcribe_model", "whisper-1")
	v.SetDefault("llm.language", "ko")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.timeout", 30*time.Second)
	v.SetDefault("llm.max_attempts", 3)

	v.SetDefault("fields.allowed", constants.DefaultFields())

	v.SetDefault("queue.workers", 4)
	v.SetDefault("queue.size", 100)
	v.SetDefault("queue.process_timeout", 2*time.Minute)

	v.SetDefault("watch.dir", "")
	v.SetDefault("watch.user_id", "inbox")
	v.SetDefault("watch.debounce", 500*time.Millisecond)
}

// LoadConfig loads configuration from defaults, an optional YAML file and
// environment variables, in increasing precedence. An empty path looks for
// ./config.yaml and silently skips it when absent.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, NewAppError("CONFIG_ERROR", "bind env "+env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, NewAppError("CONFIG_ERROR", "read config", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, NewAppError("CONFIG_ERROR", "decode config", err)
	}
	cfg.Fields.Allowed = constants.ParseFieldList(strings.Join(cfg.Fields.Allowed, ","))
	return &cfg, nil
}

// Validate checks the loaded configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.DSN == "" {
			return NewAppError("CONFIG_ERROR", "DB_URL is required for postgres", ErrInvalidInput)
		}
	case "sqlite":
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unsupported DB_DRIVER %q", c.Database.Driver), ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return NewAppError("CONFIG_ERROR", "OPENAI_TEMPERATURE must be within 0..2", ErrInvalidInput)
	}
	if len(c.Fields.Allowed) == 0 {
		return NewAppError("CONFIG_ERROR", "TICKET_FIELDS must name at least one field", ErrInvalidInput)
	}
	if c.Queue.Workers <= 0 || c.Queue.Size <= 0 {
		return NewAppError("CONFIG_ERROR", "QUEUE_WORKERS and QUEUE_SIZE must be positive", ErrInvalidInput)
	}
	return nil
}

// LLMEnabled reports whether an API key is configured. Without one the
// pipeline runs on regex fallback alone.
func (c *Config) LLMEnabled() bool {
	return strings.TrimSpace(c.LLM.APIKey) != ""
}
