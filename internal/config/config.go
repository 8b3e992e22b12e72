package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/aliskhannn/examprep/pkg/validator"
)

var ErrMissingEnvironmentVariables = errors.New("missing required environment variables")

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env           string        `mapstructure:"env" validate:"required"`          // current application environment (local, dev, production etc)
	QuestionsPath string        `mapstructure:"questions_path"`                   // path to the JSON question bank
	Migrate       bool          `mapstructure:"migrate"`                          // apply the schema at startup
	HTTP          HTTP          `mapstructure:"http"`                             // HTTP server section
	Storage       Storage       `mapstructure:"storage"`                          // storage driver selection
	DB            DB            `mapstructure:"database"`                         // database configuration section
	Redis         Redis         `mapstructure:"redis"`                            // distributed card lock
	Telegram      Telegram      `mapstructure:"telegram"`                         // optional Telegram surface
	Auth          Auth          `mapstructure:"auth"`                             // owner resolution
	SRS           SRS           `mapstructure:"srs"`                              // review processing tuning
	Schedule      Schedule      `mapstructure:"schedule"`                         // projection tuning
	Seeding       Seeding       `mapstructure:"seeding"`                          // weak-area seeding tuning
	Otel          Otel          `mapstructure:"otel"`                             // tracing
	Shutdown      time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"` // graceful shutdown budget
}

type HTTP struct {
	Addr           string        `mapstructure:"addr" validate:"required"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

type Storage struct {
	Driver string `mapstructure:"driver" validate:"oneof=postgres memory"`
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

type Redis struct {
	Addr     string        `mapstructure:"-"` // empty disables the distributed lock
	Password string        `mapstructure:"-"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
	LockWait time.Duration `mapstructure:"lock_wait"`
}

type Telegram struct {
	Token   string `mapstructure:"-"` // empty disables the bot
	Debug   bool   `mapstructure:"debug"`
	Timeout int    `mapstructure:"timeout"` // long-poll timeout, seconds
}

type Auth struct {
	JWTSecret   string `mapstructure:"-"` // empty trusts the X-Owner-ID header
	OwnerHeader string `mapstructure:"owner_header"`
}

type SRS struct {
	FastSeconds       float64       `mapstructure:"fast_seconds" validate:"gt=0"`
	SlowSeconds       float64       `mapstructure:"slow_seconds" validate:"gtfield=FastSeconds"`
	AnalyticsWindow   int           `mapstructure:"analytics_window" validate:"gte=1,lte=100"`
	BatchMax          int           `mapstructure:"batch_max" validate:"gte=1,lte=1000"`
	CASRetries        int           `mapstructure:"cas_retries" validate:"gte=0,lte=10"`
	SideEffectWorkers int           `mapstructure:"side_effect_workers" validate:"gte=1"`
	SideEffectTimeout time.Duration `mapstructure:"side_effect_timeout" validate:"gt=0"`
}

type Schedule struct {
	MaxRangeDays         int     `mapstructure:"max_range_days" validate:"gte=1,lte=3660"`
	HeavyDayThreshold    int     `mapstructure:"heavy_day_threshold" validate:"gte=1"`
	ConsistencyThreshold float64 `mapstructure:"consistency_threshold" validate:"gt=0"`
}

type Seeding struct {
	AccuracyThreshold float64 `mapstructure:"accuracy_threshold" validate:"gt=0,lte=1"`
	MinAttempts       int     `mapstructure:"min_attempts" validate:"gte=1"`
	MaxCards          int     `mapstructure:"max_cards" validate:"gte=1,lte=500"`
}

type Otel struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
}

// Options control where Load looks.
type Options struct {
	ConfigDir string         // directory holding config.yaml
	EnvFile   string         // dotenv file, ".env" when empty
	Flags     *pflag.FlagSet // flags bound over file and environment values
}

// Flags returns the command line flags Load understands.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("examprep", pflag.ContinueOnError)
	fs.String("config-dir", "./config", "directory containing config.yaml")
	fs.String("addr", "", "HTTP listen address, overrides http.addr")
	fs.Bool("migrate", false, "apply the database schema at startup")
	fs.String("storage", "", "storage driver (postgres or memory), overrides storage.driver")
	return fs
}

// Load reads configuration from a dotenv file, config files, environment
// variables and flags, in increasing priority.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading env file: %w", err)
	}

	// Initialize Viper instance and base config options.
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if opts.ConfigDir != "" {
		v.AddConfigPath(opts.ConfigDir)
	} else {
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("redis_addr", "REDIS_ADDR")
	_ = v.BindEnv("redis_password", "REDIS_PASSWORD")
	_ = v.BindEnv("jwt_secret", "JWT_SECRET")
	_ = v.BindEnv("env", "APP_ENV")

	if opts.Flags != nil {
		bindFlag(v, opts.Flags, "http.addr", "addr")
		bindFlag(v, opts.Flags, "migrate", "migrate")
		bindFlag(v, opts.Flags, "storage.driver", "storage")
	}

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	// Unmarshal configuration into strongly typed struct.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Load sensitive values from environment variables.
	cfg.Telegram.Token = v.GetString("telegram_api_token")
	cfg.DB.URL = v.GetString("database_url")
	cfg.Redis.Addr = v.GetString("redis_addr")
	cfg.Redis.Password = v.GetString("redis_password")
	cfg.Auth.JWTSecret = v.GetString("jwt_secret")

	if err := validator.ValidateStruct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Storage.Driver == DriverPostgres && cfg.DB.URL == "" {
		return nil, fmt.Errorf("%w: DATABASE_URL", ErrMissingEnvironmentVariables)
	}

	return &cfg, nil
}

// bindFlag binds a flag only when it was set, so unset flags do not mask
// file and environment values.
func bindFlag(v *viper.Viper, flags *pflag.FlagSet, key, name string) {
	if f := flags.Lookup(name); f != nil && f.Changed {
		_ = v.BindPFlag(key, f)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("questions_path", "data/questions.json")
	v.SetDefault("migrate", false)
	v.SetDefault("shutdown_timeout", "10s")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", "10s")
	v.SetDefault("http.write_timeout", "15s")
	v.SetDefault("http.allowed_origins", []string{"*"})

	v.SetDefault("storage.driver", DriverPostgres)

	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30m")

	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lock_ttl", "10s")
	v.SetDefault("redis.lock_wait", "3s")

	v.SetDefault("telegram.debug", false)
	v.SetDefault("telegram.timeout", 60)

	v.SetDefault("auth.owner_header", "X-Owner-ID")

	v.SetDefault("srs.fast_seconds", 30)
	v.SetDefault("srs.slow_seconds", 90)
	v.SetDefault("srs.analytics_window", 10)
	v.SetDefault("srs.batch_max", 100)
	v.SetDefault("srs.cas_retries", 3)
	v.SetDefault("srs.side_effect_workers", 8)
	v.SetDefault("srs.side_effect_timeout", "5s")

	v.SetDefault("schedule.max_range_days", 366)
	v.SetDefault("schedule.heavy_day_threshold", 50)
	v.SetDefault("schedule.consistency_threshold", 20)

	v.SetDefault("seeding.accuracy_threshold", 0.6)
	v.SetDefault("seeding.min_attempts", 3)
	v.SetDefault("seeding.max_cards", 50)

	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.service_name", "examprep")
	v.SetDefault("otel.sample_ratio", 1.0)
}
