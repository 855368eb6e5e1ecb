// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	validLogLevels    = []string{"debug", "info", "warn", "error", "fatal"}
	validStorageTypes = []string{"mongo", "sqlite", "postgres"}
)

type Config struct {
	LogLevel string

	Host      HostConfig
	Security  SecurityConfig
	Storage   StorageConfig
	Mail      MailConfig
	Model     ModelConfig
	Turnstile TurnstileConfig
}

type HostConfig struct {
	Port       int
	BaseURL    string
	SSLEnabled bool
	CORS       []string
}

type SecurityConfig struct {
	SecretKey     string
	SessionMaxAge time.Duration
	RateLimit     int
}

type StorageConfig struct {
	Type          string
	MongoURI      string
	MongoDatabase string
	DSN           string
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
	// UseTLS is kept for MAIL_USE_TLS compatibility only. STARTTLS is always
	// used when the server offers it and can't be turned off.
	UseTLS    bool
	UseSSL    bool
	Async     bool
	Workers   int
	QueueSize int
}

type ModelConfig struct {
	Path string
	S3   S3Config
}

type S3Config struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

type TurnstileConfig struct {
	Enabled     bool
	SiteKey     string
	SecretToken string
	VerifyURL   string
}

func genSecret() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Flags returns the command line flags understood by Setup
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("diapredict", pflag.ContinueOnError)
	fs.String("config", "", "Path to a config.toml file")
	fs.Int("port", 0, "Port to listen on")
	fs.String("log-level", "", "Log level (debug, info, warn, error, fatal)")

	return fs
}

// Setup prepares everything config-related so that the app can
// start working. Values come from (in order of precedence) flags,
// the environment, an optional .env file, an optional config.toml
// and the defaults below. Function will return an error if something
// is critically wrong and the application can't run because of that.
func Setup(flags *pflag.FlagSet) (*Config, error) {
	// A missing .env file is fine, the environment may be set up already
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	if flags != nil {
		if f := flags.Lookup("config"); f != nil && f.Changed {
			v.SetConfigFile(f.Value.String())
		}
		if f := flags.Lookup("port"); f != nil {
			v.BindPFlag("host.port", f)
		}
		if f := flags.Lookup("log-level"); f != nil {
			v.BindPFlag("app.log_level", f)
		}
	}

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "APP_LOG_LEVEL")

	v.BindEnv("host.port", "PORT", "HOST_PORT")
	v.BindEnv("host.base_url", "HOST_BASE_URL")
	v.BindEnv("host.ssl_enabled", "HOST_SSL_ENABLED")
	v.BindEnv("host.cors", "HOST_CORS")

	v.BindEnv("security.secret_key", "SECRET_KEY")
	v.BindEnv("security.session_max_age", "SECURITY_SESSION_MAX_AGE")
	v.BindEnv("security.rate_limit", "SECURITY_RATE_LIMIT")

	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.mongo_uri", "MONGO_URI")
	v.BindEnv("storage.mongo_database", "MONGO_DATABASE")
	v.BindEnv("storage.dsn", "STORAGE_DSN")

	v.BindEnv("mail.host", "MAIL_SERVER")
	v.BindEnv("mail.port", "MAIL_PORT")
	v.BindEnv("mail.username", "MAIL_USERNAME")
	v.BindEnv("mail.password", "MAIL_PASSWORD")
	v.BindEnv("mail.sender", "MAIL_DEFAULT_SENDER")
	v.BindEnv("mail.use_tls", "MAIL_USE_TLS")
	v.BindEnv("mail.use_ssl", "MAIL_USE_SSL")
	v.BindEnv("mail.async", "MAIL_ASYNC")
	v.BindEnv("mail.workers", "MAIL_WORKERS")
	v.BindEnv("mail.queue_size", "MAIL_QUEUE_SIZE")

	v.BindEnv("model.path", "MODEL_PATH")
	v.BindEnv("model.s3.region", "MODEL_S3_REGION", "AWS_REGION")
	v.BindEnv("model.s3.endpoint", "MODEL_S3_ENDPOINT")
	v.BindEnv("model.s3.access_key_id", "MODEL_S3_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID")
	v.BindEnv("model.s3.secret_access_key", "MODEL_S3_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY")

	v.BindEnv("turnstile.enabled", "TURNSTILE_ENABLED")
	v.BindEnv("turnstile.site_key", "TURNSTILE_SITE_KEY")
	v.BindEnv("turnstile.secret_token", "TURNSTILE_SECRET_TOKEN")
	v.BindEnv("turnstile.verify_url", "TURNSTILE_VERIFY_URL")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.ssl_enabled", false)

	v.SetDefault("security.session_max_age", "720h")
	v.SetDefault("security.rate_limit", 5)

	v.SetDefault("storage.type", "mongo")
	v.SetDefault("storage.dsn", "database.db")

	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.use_tls", true)
	v.SetDefault("mail.use_ssl", false)
	v.SetDefault("mail.async", false)
	v.SetDefault("mail.workers", 2)
	v.SetDefault("mail.queue_size", 64)

	v.SetDefault("model.path", "Model/diabetes.json")

	v.SetDefault("turnstile.enabled", false)
	v.SetDefault("turnstile.verify_url", "https://challenges.cloudflare.com/turnstile/v0/siteverify")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file, %w", err)
		}
	}

	cfg := &Config{
		LogLevel: strings.ToLower(v.GetString("app.log_level")),
		Host: HostConfig{
			Port:       v.GetInt("host.port"),
			BaseURL:    strings.TrimSuffix(v.GetString("host.base_url"), "/"),
			SSLEnabled: v.GetBool("host.ssl_enabled"),
			CORS:       splitList(v.GetString("host.cors")),
		},
		Security: SecurityConfig{
			SecretKey:     v.GetString("security.secret_key"),
			SessionMaxAge: v.GetDuration("security.session_max_age"),
			RateLimit:     v.GetInt("security.rate_limit"),
		},
		Storage: StorageConfig{
			Type:          strings.ToLower(v.GetString("storage.type")),
			MongoURI:      v.GetString("storage.mongo_uri"),
			MongoDatabase: v.GetString("storage.mongo_database"),
			DSN:           v.GetString("storage.dsn"),
		},
		Mail: MailConfig{
			Host:      v.GetString("mail.host"),
			Port:      v.GetInt("mail.port"),
			Username:  v.GetString("mail.username"),
			Password:  v.GetString("mail.password"),
			Sender:    v.GetString("mail.sender"),
			UseTLS:    v.GetBool("mail.use_tls"),
			UseSSL:    v.GetBool("mail.use_ssl"),
			Async:     v.GetBool("mail.async"),
			Workers:   v.GetInt("mail.workers"),
			QueueSize: v.GetInt("mail.queue_size"),
		},
		Model: ModelConfig{
			Path: v.GetString("model.path"),
			S3: S3Config{
				Region:          v.GetString("model.s3.region"),
				Endpoint:        v.GetString("model.s3.endpoint"),
				AccessKeyID:     v.GetString("model.s3.access_key_id"),
				SecretAccessKey: v.GetString("model.s3.secret_access_key"),
			},
		},
		Turnstile: TurnstileConfig{
			Enabled:     v.GetBool("turnstile.enabled"),
			SiteKey:     v.GetString("turnstile.site_key"),
			SecretToken: v.GetString("turnstile.secret_token"),
			VerifyURL:   v.GetString("turnstile.verify_url"),
		},
	}

	if cfg.Mail.Sender == "" {
		cfg.Mail.Sender = cfg.Mail.Username
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return errors.New("invalid log level provided")
	}

	if c.Host.Port <= 0 || c.Host.Port > 65535 {
		return errors.New("invalid port provided")
	}

	if c.Security.SecretKey == "" {
		return fmt.Errorf("no secret key set. Set SECRET_KEY in the environment or security.secret_key in config.toml, for example:\n\n%s", genSecret())
	}

	if c.Security.SessionMaxAge <= 0 {
		return errors.New("security.session_max_age must be bigger than 0")
	}

	if c.Security.RateLimit < 0 {
		return errors.New("security.rate_limit can't be negative")
	}

	if !slices.Contains(validStorageTypes, c.Storage.Type) {
		return errors.New("invalid storage type provided")
	}

	switch c.Storage.Type {
	case "mongo":
		if c.Storage.MongoURI == "" {
			return errors.New("mongo uri can't be empty")
		}
	case "sqlite", "postgres":
		if c.Storage.DSN == "" {
			return errors.New("storage dsn can't be empty")
		}
	}

	if c.Mail.Host == "" {
		return errors.New("mail server can't be empty")
	}

	if c.Mail.Port <= 0 {
		return errors.New("invalid mail port provided")
	}

	if c.Mail.Sender == "" {
		return errors.New("no mail sender address provided")
	}

	if c.Mail.Async {
		if c.Mail.Workers <= 0 {
			return errors.New("mail.workers must be bigger than 0")
		}
		if c.Mail.QueueSize < 0 {
			return errors.New("mail.queue_size can't be negative")
		}
	}

	if c.Model.Path == "" {
		return errors.New("no model path provided")
	}

	if c.Turnstile.Enabled && c.Turnstile.SecretToken == "" {
		return errors.New("turnstile secret token is missing")
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
