package config

import (
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

var envMu sync.Mutex

const testPostgresURL = "postgres://u:p@localhost:5432/db?sslmode=disable"

func TestLoadAll_HappyPath_Defaults(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)

	t.Setenv("POSTGRES_URL", testPostgresURL)

	cfg, err := LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error: %v", err)
	}

	if cfg.Database.PostgresURL != testPostgresURL {
		t.Fatalf("unexpected PostgresURL: %q", cfg.Database.PostgresURL)
	}
	if cfg.Server.Address != ":8080" {
		t.Fatalf("unexpected Server.Address default: %q", cfg.Server.Address)
	}
	if cfg.ZAPI.BaseURL != "https://api.z-api.io" {
		t.Fatalf("unexpected ZAPI.BaseURL default: %q", cfg.ZAPI.BaseURL)
	}
	if cfg.ZAPI.Token != "" || cfg.ZAPI.WebhookToken != "" {
		t.Fatalf("expected empty provider tokens by default")
	}
	if cfg.ZAPI.Timeout != 15*time.Second {
		t.Fatalf("unexpected ZAPI.Timeout default: %v", cfg.ZAPI.Timeout)
	}
	if cfg.Phone.CountryCode != "55" {
		t.Fatalf("unexpected Phone.CountryCode default: %q", cfg.Phone.CountryCode)
	}
	if !cfg.AutoReply.Enabled {
		t.Fatalf("expected auto-reply enabled by default")
	}
	if cfg.AutoReply.Window != 10*time.Minute {
		t.Fatalf("unexpected AutoReply.Window default: %v", cfg.AutoReply.Window)
	}
	if cfg.AutoReply.Text != DefaultAutoReplyText {
		t.Fatalf("unexpected AutoReply.Text default: %q", cfg.AutoReply.Text)
	}
	if cfg.Poller.Interval != 300*time.Second {
		t.Fatalf("unexpected Poller.Interval default: %v", cfg.Poller.Interval)
	}
	if cfg.AMQP.URL != "" || cfg.AMQP.Exchange != "condo.messaging" {
		t.Fatalf("unexpected AMQP defaults: %+v", cfg.AMQP)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Fatalf("unexpected Log defaults: %+v", cfg.Log)
	}

	if cfg.Redis.Enabled {
		t.Fatalf("expected Redis disabled when REDIS_ADDR not set")
	}
}

func TestLoadAll_HappyPath_WithRedis(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)

	t.Setenv("POSTGRES_URL", testPostgresURL)

	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_PASSWORD", "secret")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_TTL_SECONDS", "42")

	cfg, err := LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error: %v", err)
	}

	if !cfg.Redis.Enabled {
		t.Fatalf("expected Redis enabled")
	}
	if cfg.Redis.Address != "localhost:6379" {
		t.Fatalf("unexpected Redis.Address: %q", cfg.Redis.Address)
	}
	if cfg.Redis.Password != "secret" {
		t.Fatalf("unexpected Redis.Password: %q", cfg.Redis.Password)
	}
	if cfg.Redis.DB != 3 {
		t.Fatalf("unexpected Redis.DB: %d", cfg.Redis.DB)
	}
	if cfg.Redis.TTL != 42*time.Second {
		t.Fatalf("unexpected Redis.TTL: %v", cfg.Redis.TTL)
	}
}

func TestLoadAll_Overrides(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)

	t.Setenv("POSTGRES_URL", testPostgresURL)
	t.Setenv("ZAPI_TOKEN", "tok")
	t.Setenv("ZAPI_WEBHOOK_TOKEN", "hook")
	t.Setenv("PHONE_COUNTRY_CODE", "351")
	t.Setenv("AUTO_REPLY_ENABLED", "false")
	t.Setenv("AUTO_REPLY_WINDOW_MINUTES", "5")
	t.Setenv("STATUS_POLL_INTERVAL_SECONDS", "0")

	cfg, err := LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error: %v", err)
	}

	if cfg.ZAPI.Token != "tok" || cfg.ZAPI.WebhookToken != "hook" {
		t.Fatalf("unexpected tokens: %+v", cfg.ZAPI)
	}
	if cfg.Phone.CountryCode != "351" {
		t.Fatalf("unexpected country code: %q", cfg.Phone.CountryCode)
	}
	if cfg.AutoReply.Enabled {
		t.Fatalf("expected auto-reply disabled")
	}
	if cfg.AutoReply.Window != 5*time.Minute {
		t.Fatalf("unexpected window: %v", cfg.AutoReply.Window)
	}
	if cfg.Poller.Interval != 0 {
		t.Fatalf("expected poller interval 0, got %v", cfg.Poller.Interval)
	}
}

func TestLoadAll_RequiredEnvMissing(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)

	_, err := LoadAll()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "POSTGRES_URL") {
		t.Fatalf("expected error mentioning POSTGRES_URL, got: %v", err)
	}
}

func TestLoadAll_InvalidValues(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"invalid ZAPI_TIMEOUT_SECONDS", "ZAPI_TIMEOUT_SECONDS", "abc"},
		{"invalid AUTO_REPLY_WINDOW_MINUTES", "AUTO_REPLY_WINDOW_MINUTES", "nope"},
		{"invalid AUTO_REPLY_ENABLED", "AUTO_REPLY_ENABLED", "maybe"},
		{"invalid STATUS_POLL_INTERVAL_SECONDS", "STATUS_POLL_INTERVAL_SECONDS", "x"},
		{"invalid REDIS_DB", "REDIS_DB", "bad"},
		{"invalid REDIS_TTL_SECONDS", "REDIS_TTL_SECONDS", "bad"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			clearTestEnv(t)

			t.Setenv("POSTGRES_URL", testPostgresURL)

			// Enable redis only for redis-related invalid ints.
			if strings.HasPrefix(tc.key, "REDIS_") {
				t.Setenv("REDIS_ADDR", "localhost:6379")
			}

			t.Setenv(tc.key, tc.val)

			_, err := LoadAll()
			if err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.key) {
				t.Fatalf("expected error mentioning %s, got: %v", tc.key, err)
			}
		})
	}
}

func TestLoadAll_ValidationFailures(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"window <= 0", "AUTO_REPLY_WINDOW_MINUTES", "0"},
		{"timeout <= 0", "ZAPI_TIMEOUT_SECONDS", "0"},
		{"negative poll interval", "STATUS_POLL_INTERVAL_SECONDS", "-1"},
		{"blank reply text", "AUTO_REPLY_TEXT", "   "},
		{"non-digit country code", "PHONE_COUNTRY_CODE", "+55"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			clearTestEnv(t)

			t.Setenv("POSTGRES_URL", testPostgresURL)
			t.Setenv(tc.key, tc.val)

			_, err := LoadAll()
			if err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.key) {
				t.Fatalf("expected error mentioning %s, got: %v", tc.key, err)
			}
		})
	}
}

func TestLoadAll_CollectsAllErrors(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)

	t.Setenv("ZAPI_TIMEOUT_SECONDS", "abc")

	_, err := LoadAll()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	for _, key := range []string{"POSTGRES_URL", "ZAPI_TIMEOUT_SECONDS"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected error mentioning %s, got: %v", key, err)
		}
	}
}

func TestRequireEnv(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)

	_, err := requireEnv("MISSING_KEY")
	if err == nil {
		t.Fatalf("expected error, got nil")
	}

	t.Setenv("FOO", "bar")
	v, err := requireEnv("FOO")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "bar" {
		t.Fatalf("expected %q, got %q", "bar", v)
	}
}

func TestGetEnv(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)

	if got := getEnv("NOPE", "default"); got != "default" {
		t.Fatalf("expected default, got %q", got)
	}

	t.Setenv("A", "x")
	if got := getEnv("A", "default"); got != "x" {
		t.Fatalf("expected x, got %q", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)

	got, err := getEnvInt("MISSING", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 7 {
		t.Fatalf("expected default 7, got %d", got)
	}

	t.Setenv("N", "123")
	got, err = getEnvInt("N", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 123 {
		t.Fatalf("expected 123, got %d", got)
	}

	t.Setenv("BAD", "abc")
	_, err = getEnvInt("BAD", 7)
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "BAD") {
		t.Fatalf("expected error mentioning BAD, got: %v", err)
	}
}

func TestGetEnvBool(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)

	got, err := getEnvBool("MISSING", true)
	if err != nil || !got {
		t.Fatalf("expected default true, got %v (err=%v)", got, err)
	}

	t.Setenv("A", "0")
	got, err = getEnvBool("A", true)
	if err != nil || got {
		t.Fatalf("expected false, got %v (err=%v)", got, err)
	}

	t.Setenv("BAD", "yes please")
	if _, err := getEnvBool("BAD", true); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestJoinErrors(t *testing.T) {
	if err := joinErrors(nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}

	e1 := errors.New("one")
	e2 := errors.New("two")
	err := joinErrors([]error{e1, e2})
	if err == nil {
		t.Fatalf("expected error, got nil")
	}

	if !errors.Is(err, e1) {
		t.Fatalf("expected errors.Is(err, e1) to be true")
	}
	if !errors.Is(err, e2) {
		t.Fatalf("expected errors.Is(err, e2) to be true")
	}
}

func clearTestEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"POSTGRES_URL",
		"SERVER_ADDRESS",
		"ZAPI_BASE_URL",
		"ZAPI_TOKEN",
		"ZAPI_WEBHOOK_TOKEN",
		"ZAPI_TIMEOUT_SECONDS",
		"PHONE_COUNTRY_CODE",
		"AUTO_REPLY_ENABLED",
		"AUTO_REPLY_WINDOW_MINUTES",
		"AUTO_REPLY_TEXT",
		"STATUS_POLL_INTERVAL_SECONDS",
		"AMQP_URL",
		"AMQP_EXCHANGE",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"REDIS_TTL_SECONDS",
		"FOO",
		"A",
		"N",
		"BAD",
	}
	for _, k := range keys {
		_ = os.Unsetenv(k)
	}
}
