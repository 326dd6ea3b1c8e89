package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"presyotect-monitor/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Logging    logging.Config   `mapstructure:"logging"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Recording  RecordingConfig  `mapstructure:"recording"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// MonitoringConfig governs schedule generation.
type MonitoringConfig struct {
	// Cron is the recurring-trigger spec. Minutely by default; anything
	// sub-hourly keeps the ensure job ahead of every supported interval.
	Cron string `mapstructure:"cron"`
	// WeekStart names the first day of the monitoring week. Explicit
	// configuration, never ambient locale.
	WeekStart       string `mapstructure:"week_start"`
	Timezone        string `mapstructure:"timezone"`
	AdvisoryLockKey int64  `mapstructure:"advisory_lock_key"`
}

// RecordingConfig tunes the price recording path.
type RecordingConfig struct {
	DefaultStatus string `mapstructure:"default_status"`
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// WeekStartDay resolves the configured first day of week.
func (m MonitoringConfig) WeekStartDay() (time.Weekday, error) {
	day, ok := weekdays[strings.ToLower(strings.TrimSpace(m.WeekStart))]
	if !ok {
		return 0, fmt.Errorf("monitoring.week_start %q is not a weekday name", m.WeekStart)
	}
	return day, nil
}

// Location resolves the configured timezone for wall-clock reads.
func (m MonitoringConfig) Location() (*time.Location, error) {
	if m.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(m.Timezone)
	if err != nil {
		return nil, fmt.Errorf("monitoring.timezone: %w", err)
	}
	return loc, nil
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PRESYOTECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "presyotect-monitor")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("monitoring.cron", "* * * * *")
	v.SetDefault("monitoring.week_start", "sunday")
	v.SetDefault("monitoring.timezone", "")
	v.SetDefault("monitoring.advisory_lock_key", int64(0x7072657379))

	v.SetDefault("recording.default_status", "pending")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrations_path", "migrations")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Monitoring.Cron) == "" {
		return fmt.Errorf("monitoring.cron must not be empty")
	}
	if _, err := c.Monitoring.WeekStartDay(); err != nil {
		return err
	}
	if _, err := c.Monitoring.Location(); err != nil {
		return err
	}
	if c.Recording.DefaultStatus == "" {
		return fmt.Errorf("recording.default_status must not be empty")
	}
	return nil
}
