package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Provider   string        `yaml:"provider" validate:"oneof=yahoo alpaca rest parquet mock"`
		BaseURL    string        `yaml:"base_url" validate:"required_if=Provider rest"`
		APIKey     string        `yaml:"api_key" validate:"required_if=Provider alpaca"`
		APISecret  string        `yaml:"api_secret" validate:"required_if=Provider alpaca"`
		Feed       string        `yaml:"feed" validate:"omitempty,oneof=iex sip otc"`
		ArchiveDir string        `yaml:"archive_dir" validate:"required_if=Provider parquet"`
		RatePerMin int           `yaml:"rate_per_min" validate:"gte=0"`
		Timeout    time.Duration `yaml:"timeout" validate:"gt=0"`
	} `yaml:"data_source"`
	Forecast struct {
		LookbackDays    int     `yaml:"lookback_days" validate:"gte=1,lte=3650"`
		HoldoutFraction float64 `yaml:"holdout_fraction" validate:"gte=0,lt=1"`
		Model           string  `yaml:"model" validate:"oneof=svr ols"`
		C               float64 `yaml:"c" validate:"gt=0"`
		Epsilon         float64 `yaml:"epsilon" validate:"gte=0"`
		MaxHorizon      int     `yaml:"max_horizon" validate:"gte=1"`
	} `yaml:"forecast"`
	Server struct {
		Addr           string   `yaml:"addr" validate:"required"`
		Mode           string   `yaml:"mode" validate:"oneof=debug release test"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id" validate:"required_with=BotToken"`
	} `yaml:"telegram"`
	Schedule struct {
		WatchlistCron string   `yaml:"watchlist_cron"`
		Watchlist     []string `yaml:"watchlist" validate:"dive,required"`
		Horizon       int      `yaml:"horizon" validate:"gte=1"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Logging struct {
		Level  string `yaml:"level" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" validate:"oneof=json text"`
	} `yaml:"logging"`
	Proxy string `yaml:"proxy"`
}

// Load starts from the defaults, overlays the YAML file and then the
// environment. Keys present in the file keep their value even when it is
// zero. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	for i, sym := range cfg.Schedule.Watchlist {
		cfg.Schedule.Watchlist[i] = strings.ToUpper(strings.TrimSpace(sym))
	}
	return cfg, nil
}

// Environment variable overrides
func applyEnv(cfg *Config) {
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.DataSource.APISecret = v
	}
	if v := os.Getenv("ARCHIVE_DIR"); v != "" {
		cfg.DataSource.ArchiveDir = v
	}
	if v := os.Getenv("FORECAST_LOOKBACK_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Forecast.LookbackDays = n
		}
	}
	if v := os.Getenv("FORECAST_MODEL"); v != "" {
		cfg.Forecast.Model = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("CRON_WATCHLIST"); v != "" {
		cfg.Schedule.WatchlistCron = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		cfg.Schedule.Watchlist = strings.Split(v, ",")
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
}

func defaults() *Config {
	cfg := &Config{}
	cfg.DataSource.Provider = "yahoo"
	cfg.DataSource.Timeout = 10 * time.Second
	cfg.DataSource.RatePerMin = 60
	cfg.Forecast.LookbackDays = 15
	cfg.Forecast.HoldoutFraction = 0.1
	cfg.Forecast.Model = "svr"
	cfg.Forecast.C = 1.0
	cfg.Forecast.Epsilon = 0.1
	cfg.Forecast.MaxHorizon = 365
	cfg.Server.Addr = ":8080"
	cfg.Server.Mode = "release"
	cfg.Schedule.WatchlistCron = "0 0 22 * * 1-5"
	cfg.Schedule.Horizon = 5
	cfg.Database.SQLitePath = "data/stockdash.db"
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"
	return cfg
}

var validate = validator.New()

// Validate checks field constraints and returns the first violation in
// yaml-ish terms.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("config %s: failed %q (value %v)", fieldPath(fe.Namespace()), fe.Tag(), fe.Value())
	}
	return fmt.Errorf("validate config: %w", err)
}

// fieldPath turns "Config.DataSource.RatePerMin" into "datasource.ratepermin".
func fieldPath(ns string) string {
	return strings.ToLower(strings.TrimPrefix(ns, "Config."))
}

// TelegramEnabled reports whether the bot has credentials.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
