package main

import (
	"context"
	"testing"
	"time"

	"github.com/LeventeLantos/condo-messaging/internal/cache"
	"github.com/LeventeLantos/condo-messaging/internal/config"
	"github.com/LeventeLantos/condo-messaging/internal/events"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"serve", "migrate"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == nil || cmd.Name() != name {
			t.Fatalf("expected %q subcommand, got %v (err=%v)", name, cmd, err)
		}
	}

	serve, _, _ := root.Find([]string{"serve"})
	if serve.Flags().Lookup("migrate") == nil {
		t.Fatalf("expected serve --migrate flag")
	}
	migrate, _, _ := root.Find([]string{"migrate"})
	if migrate.Flags().Lookup("down") == nil {
		t.Fatalf("expected migrate --down flag")
	}
}

func TestPollSchedule(t *testing.T) {
	cases := []struct {
		name      string
		interval  time.Duration
		want      time.Duration
		autoStart bool
	}{
		{"configured", 30 * time.Second, 30 * time.Second, true},
		{"disabled", 0, defaultPollInterval, false},
	}

	for _, tc := range cases {
		cfg := &config.Config{Poller: config.PollerConfig{Interval: tc.interval}}
		got, start := pollSchedule(cfg)
		if got != tc.want || start != tc.autoStart {
			t.Fatalf("%s: got (%s, %v), want (%s, %v)", tc.name, got, start, tc.want, tc.autoStart)
		}
	}
}

func TestNewOutboundCache_FallsBackToMemory(t *testing.T) {
	c, closeFn, err := newOutboundCache(context.Background(), config.RedisConfig{Enabled: false, TTL: time.Minute})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeFn()

	if _, ok := c.(*cache.MemoryCache); !ok {
		t.Fatalf("expected memory cache, got %T", c)
	}
}

func TestNewOutboundCache_RedisUnreachable(t *testing.T) {
	_, _, err := newOutboundCache(context.Background(), config.RedisConfig{
		Enabled: true,
		Address: "127.0.0.1:1",
		TTL:     time.Minute,
	})
	if err == nil {
		t.Fatalf("expected ping error for unreachable redis")
	}
}

func TestNewPublisher_NoURLIsNoop(t *testing.T) {
	if _, ok := newPublisher(config.AMQPConfig{}).(events.Noop); !ok {
		t.Fatalf("expected no-op publisher without AMQP_URL")
	}
}
