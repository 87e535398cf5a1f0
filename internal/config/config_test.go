package config

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			}
		})
	}
}

var allEnvKeys = []string{
	"FIGHTCLUB_TICK_HZ", "FIGHTCLUB_SUB_TICKS", "FIGHTCLUB_SLOT_MS", "FIGHTCLUB_SLOTS_STORED",
	"FIGHTCLUB_GRID_CELL_CAPACITY", "FIGHTCLUB_BIND_ADDR", "FIGHTCLUB_ADMIN_ADDR",
	"MY_LOG_LEVEL", "MY_LOG_STYLE", "FIGHTCLUB_MAP_NAME", "FIGHTCLUB_MAX_PLAYERS",
	"FIGHTCLUB_SEND_QUEUE_CAPACITY",
}

func TestFromEnvDefaultsMatchDefault(t *testing.T) {
	clearEnv(t, allEnvKeys...)

	got, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv with no overrides: %v", err)
	}
	if got != Default() {
		t.Fatalf("expected FromEnv() with no env vars to equal Default(), got %+v", got)
	}
}

func TestFromEnvAppliesOverrides(t *testing.T) {
	clearEnv(t, allEnvKeys...)
	os.Setenv("FIGHTCLUB_TICK_HZ", "30")
	os.Setenv("FIGHTCLUB_SLOT_MS", "20")
	os.Setenv("FIGHTCLUB_BIND_ADDR", ":9999")
	os.Setenv("FIGHTCLUB_MAP_NAME", "arena2")

	got, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv with overrides: %v", err)
	}
	if got.TickHz != 30 {
		t.Fatalf("expected TickHz=30, got %d", got.TickHz)
	}
	if got.SlotDuration != 20*time.Millisecond {
		t.Fatalf("expected SlotDuration=20ms, got %s", got.SlotDuration)
	}
	if got.BindAddr != ":9999" {
		t.Fatalf("expected BindAddr=:9999, got %s", got.BindAddr)
	}
	if got.MapName != "arena2" {
		t.Fatalf("expected MapName=arena2, got %s", got.MapName)
	}
}

func TestFromEnvIgnoresMalformedInt(t *testing.T) {
	clearEnv(t, allEnvKeys...)
	os.Setenv("FIGHTCLUB_TICK_HZ", "not-a-number")

	got, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv with malformed FIGHTCLUB_TICK_HZ: %v", err)
	}
	if got.TickHz != Default().TickHz {
		t.Fatalf("expected malformed FIGHTCLUB_TICK_HZ to fall back to default %d, got %d", Default().TickHz, got.TickHz)
	}
}

func TestValidateRejectsNonPositiveFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"TickHz", func(c *Config) { c.TickHz = 0 }},
		{"SubTicks", func(c *Config) { c.SubTicks = -1 }},
		{"SlotDuration", func(c *Config) { c.SlotDuration = 0 }},
		{"SlotsStored", func(c *Config) { c.SlotsStored = 0 }},
		{"GridCellCapacity", func(c *Config) { c.GridCellCapacity = 0 }},
		{"BindAddr", func(c *Config) { c.BindAddr = "" }},
		{"MaxPlayers", func(c *Config) { c.MaxPlayers = 0 }},
		{"SendQueueCapacity", func(c *Config) { c.SendQueueCapacity = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected Validate() to reject invalid %s", tc.name)
			}
		})
	}
}

func TestValidateAcceptsDefault(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() should validate cleanly, got %v", err)
	}
}
