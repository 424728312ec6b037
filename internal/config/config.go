package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const DefaultAutoReplyText = "Olá! Recebemos sua mensagem e em breve retornaremos. Se precisar de algo urgente, responda com 'URGENTE'."

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	ZAPI      ZAPIConfig
	Phone     PhoneConfig
	AutoReply AutoReplyConfig
	Poller    PollerConfig
	AMQP      AMQPConfig
	Log       LogConfig
}

type ServerConfig struct {
	Address string
}

type DatabaseConfig struct {
	PostgresURL string
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

// ZAPIConfig holds the provider credentials. Empty tokens are allowed at
// load time; the webhook then rejects everything and sends fail with a
// configuration error.
type ZAPIConfig struct {
	BaseURL      string
	Token        string
	WebhookToken string
	Timeout      time.Duration
}

type PhoneConfig struct {
	CountryCode string
}

type AutoReplyConfig struct {
	Enabled bool
	Window  time.Duration
	Text    string
}

// PollerConfig.Interval of zero keeps the status poller stopped until
// started through the API.
type PollerConfig struct {
	Interval time.Duration
}

type AMQPConfig struct {
	URL      string
	Exchange string
}

type LogConfig struct {
	Level  string
	Format string
}

func LoadAll() (*Config, error) {
	var errs []error

	pgURL, err := requireEnv("POSTGRES_URL")
	if err != nil {
		errs = append(errs, err)
	}

	zapiTimeout, err := getEnvInt("ZAPI_TIMEOUT_SECONDS", 15)
	if err != nil {
		errs = append(errs, err)
	}

	replyEnabled, err := getEnvBool("AUTO_REPLY_ENABLED", true)
	if err != nil {
		errs = append(errs, err)
	}

	replyWindow, err := getEnvInt("AUTO_REPLY_WINDOW_MINUTES", 10)
	if err != nil {
		errs = append(errs, err)
	}

	pollInterval, err := getEnvInt("STATUS_POLL_INTERVAL_SECONDS", 300)
	if err != nil {
		errs = append(errs, err)
	}

	redisCfg, err := loadRedisConfig()
	if err != nil {
		errs = append(errs, err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Address: getEnv("SERVER_ADDRESS", ":8080"),
		},
		Database: DatabaseConfig{
			PostgresURL: pgURL,
		},
		Redis: redisCfg,
		ZAPI: ZAPIConfig{
			BaseURL:      getEnv("ZAPI_BASE_URL", "https://api.z-api.io"),
			Token:        os.Getenv("ZAPI_TOKEN"),
			WebhookToken: os.Getenv("ZAPI_WEBHOOK_TOKEN"),
			Timeout:      time.Duration(zapiTimeout) * time.Second,
		},
		Phone: PhoneConfig{
			CountryCode: getEnv("PHONE_COUNTRY_CODE", "55"),
		},
		AutoReply: AutoReplyConfig{
			Enabled: replyEnabled,
			Window:  time.Duration(replyWindow) * time.Minute,
			Text:    getEnv("AUTO_REPLY_TEXT", DefaultAutoReplyText),
		},
		Poller: PollerConfig{
			Interval: time.Duration(pollInterval) * time.Second,
		},
		AMQP: AMQPConfig{
			URL:      os.Getenv("AMQP_URL"),
			Exchange: getEnv("AMQP_EXCHANGE", "condo.messaging"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if len(errs) == 0 {
		errs = append(errs, validate(cfg)...)
	}

	if err := joinErrors(errs); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadRedisConfig() (RedisConfig, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return RedisConfig{Enabled: false, TTL: time.Hour}, nil
	}

	var errs []error

	db, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		errs = append(errs, err)
	}

	ttlSeconds, err := getEnvInt("REDIS_TTL_SECONDS", 3600)
	if err != nil {
		errs = append(errs, err)
	}

	return RedisConfig{
		Enabled:  true,
		Address:  addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
		TTL:      time.Duration(ttlSeconds) * time.Second,
	}, joinErrors(errs)
}

func validate(cfg *Config) []error {
	var errs []error
	if cfg.ZAPI.Timeout <= 0 {
		errs = append(errs, errors.New("ZAPI_TIMEOUT_SECONDS must be > 0"))
	}
	if cfg.AutoReply.Window <= 0 {
		errs = append(errs, errors.New("AUTO_REPLY_WINDOW_MINUTES must be > 0"))
	}
	if strings.TrimSpace(cfg.AutoReply.Text) == "" {
		errs = append(errs, errors.New("AUTO_REPLY_TEXT must not be blank"))
	}
	if cfg.Poller.Interval < 0 {
		errs = append(errs, errors.New("STATUS_POLL_INTERVAL_SECONDS must be >= 0"))
	}
	if cfg.Redis.Enabled && cfg.Redis.TTL <= 0 {
		errs = append(errs, errors.New("REDIS_TTL_SECONDS must be > 0"))
	}
	if !isDigits(cfg.Phone.CountryCode) {
		errs = append(errs, fmt.Errorf("PHONE_COUNTRY_CODE must be digits only: %q", cfg.Phone.CountryCode))
	}
	return errs
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func requireEnv(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("missing required env var: %s", key)
	}
	return val, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for env %s: %q", key, v)
	}
	return i, nil
}

func getEnvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid bool for env %s: %q", key, v)
	}
	return b, nil
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
