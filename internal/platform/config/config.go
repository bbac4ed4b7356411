// Package config loads process configuration: defaults, then an optional
// YAML file, then MERENDA_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"merenda/pkg/mailaddr"
	strutil "merenda/pkg/platform/strings"
)

type Config struct {
	Server   Server   `yaml:"server"`
	Database Database `yaml:"database"`
	Redis    Redis    `yaml:"redis"`
	Kafka    Kafka    `yaml:"kafka"`
	Calendar Calendar `yaml:"calendar"`
	Notifier Notifier `yaml:"notifier"`
	Outbox   Outbox   `yaml:"outbox"`
	Log      Log      `yaml:"log"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	JWTSigningKey   string        `yaml:"jwt_signing_key"`
	JWTIssuer       string        `yaml:"jwt_issuer"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Database configures the postgres pool. An empty DSN selects the
// in-memory stores.
type Database struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	TxTimeout       time.Duration `yaml:"tx_timeout"`
	Migrate         bool          `yaml:"migrate"`
}

type Redis struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Kafka configures the audit stream. No brokers disables the relay.
type Kafka struct {
	Brokers           []string `yaml:"brokers"`
	ClientID          string   `yaml:"client_id"`
	AuditTopic        string   `yaml:"audit_topic"`
	Partitions        int32    `yaml:"partitions"`
	ReplicationFactor int16    `yaml:"replication_factor"`
}

type Calendar struct {
	TimeZone             string   `yaml:"time_zone"`
	CancellationLeadDays int      `yaml:"cancellation_lead_days"`
	ExemptMotives        []string `yaml:"exempt_motives"`
}

// Notifier configures outbound email. Queue is "memory" or "redis".
type Notifier struct {
	BaseURL       string `yaml:"base_url"`
	From          string `yaml:"from"`
	SubjectPrefix string `yaml:"subject_prefix"`
	SMTPAddr      string `yaml:"smtp_addr"`
	SMTPUsername  string `yaml:"smtp_username"`
	SMTPPassword  string `yaml:"smtp_password"`
	Workers       int    `yaml:"workers"`
	Queue         string `yaml:"queue"`
	QueueKey      string `yaml:"queue_key"`
	QueueSize     int    `yaml:"queue_size"`
}

type Outbox struct {
	Interval  time.Duration `yaml:"interval"`
	BatchSize int           `yaml:"batch_size"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used for local development.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			JWTSigningKey:   "dev-secret-key-change-in-production",
			JWTIssuer:       "merenda",
			ShutdownTimeout: 15 * time.Second,
		},
		Database: Database{
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			TxTimeout:       5 * time.Second,
			Migrate:         true,
		},
		Redis: Redis{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: Kafka{
			ClientID:          "merenda",
			AuditTopic:        "workflow.audit",
			Partitions:        3,
			ReplicationFactor: 1,
		},
		Calendar: Calendar{
			TimeZone:             "America/Sao_Paulo",
			CancellationLeadDays: 2,
			ExemptMotives:        []string{"emergency_snack"},
		},
		Notifier: Notifier{
			From:      "no-reply@merenda.local",
			Workers:   4,
			Queue:     "memory",
			QueueKey:  "merenda:emails",
			QueueSize: 1024,
		},
		Outbox: Outbox{
			Interval:  time.Second,
			BatchSize: 100,
		},
		Log: Log{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration. path may be empty.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.JWTSigningKey == "" {
		return fmt.Errorf("server.jwt_signing_key is required")
	}
	if _, err := time.LoadLocation(c.Calendar.TimeZone); err != nil {
		return fmt.Errorf("calendar.time_zone: %w", err)
	}
	if !mailaddr.Valid(c.Notifier.From) {
		return fmt.Errorf("notifier.from must be a bare email address, got %q", c.Notifier.From)
	}
	if c.Calendar.CancellationLeadDays < 0 {
		return fmt.Errorf("calendar.cancellation_lead_days must not be negative")
	}
	switch c.Notifier.Queue {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			return fmt.Errorf("notifier.queue=redis requires redis.url")
		}
	default:
		return fmt.Errorf("notifier.queue must be memory or redis, got %q", c.Notifier.Queue)
	}
	return nil
}

// Location resolves the calendar time zone. Validate has already checked it.
func (c Calendar) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type lookupFunc func(key string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	var errs []string
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, key)
				return
			}
			*dst = n
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, key)
				return
			}
			*dst = d
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok {
			*dst = splitList(v)
		}
	}

	str("MERENDA_ADDR", &cfg.Server.Addr)
	str("MERENDA_JWT_SIGNING_KEY", &cfg.Server.JWTSigningKey)
	str("MERENDA_JWT_ISSUER", &cfg.Server.JWTIssuer)
	duration("MERENDA_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	str("MERENDA_DATABASE_DSN", &cfg.Database.DSN)
	integer("MERENDA_DATABASE_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns)
	duration("MERENDA_DATABASE_TX_TIMEOUT", &cfg.Database.TxTimeout)
	if v, ok := lookup("MERENDA_DATABASE_MIGRATE"); ok {
		cfg.Database.Migrate = v == "true"
	}

	str("MERENDA_REDIS_URL", &cfg.Redis.URL)
	integer("MERENDA_REDIS_POOL_SIZE", &cfg.Redis.PoolSize)

	list("MERENDA_KAFKA_BROKERS", &cfg.Kafka.Brokers)
	str("MERENDA_KAFKA_AUDIT_TOPIC", &cfg.Kafka.AuditTopic)

	str("MERENDA_TIME_ZONE", &cfg.Calendar.TimeZone)
	integer("MERENDA_CANCELLATION_LEAD_DAYS", &cfg.Calendar.CancellationLeadDays)
	list("MERENDA_EXEMPT_MOTIVES", &cfg.Calendar.ExemptMotives)

	str("MERENDA_BASE_URL", &cfg.Notifier.BaseURL)
	str("MERENDA_MAIL_FROM", &cfg.Notifier.From)
	str("MERENDA_SMTP_ADDR", &cfg.Notifier.SMTPAddr)
	str("MERENDA_SMTP_USERNAME", &cfg.Notifier.SMTPUsername)
	str("MERENDA_SMTP_PASSWORD", &cfg.Notifier.SMTPPassword)
	integer("MERENDA_MAIL_WORKERS", &cfg.Notifier.Workers)
	str("MERENDA_MAIL_QUEUE", &cfg.Notifier.Queue)

	duration("MERENDA_OUTBOX_INTERVAL", &cfg.Outbox.Interval)
	integer("MERENDA_OUTBOX_BATCH_SIZE", &cfg.Outbox.BatchSize)

	str("MERENDA_LOG_LEVEL", &cfg.Log.Level)
	str("MERENDA_LOG_FORMAT", &cfg.Log.Format)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment overrides: %s", strings.Join(errs, ", "))
	}
	return nil
}

func splitList(v string) []string {
	return strutil.DedupeAndTrim(strings.Split(v, ","))
}
