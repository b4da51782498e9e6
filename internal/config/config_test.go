package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[server]
http_port = 9090

[database]
host = "db"
user = "booking"
password = "secret"
dbname = "therapy"

[profile_service]
url = "http://profiles:8080"

[booking]
strategy = "reservation"
hold_minutes = 10
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, 15, cfg.Server.ShutdownTimeout, "default kept")
	assert.Equal(t, "host=db port=5432 user=booking password=secret dbname=therapy sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, 10*time.Minute, cfg.Booking.HoldDuration())
	assert.Equal(t, time.Minute, cfg.Booking.SweepInterval())
	assert.True(t, cfg.Booking.UsesReservations())
	assert.False(t, cfg.Booking.UsesIntents())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown strategy", content: "[profile_service]\nurl = \"http://p\"\n[booking]\nstrategy = \"mongo\"\n"},
		{name: "hold too short", content: "[profile_service]\nurl = \"http://p\"\n[booking]\nhold_minutes = 0\n"},
		{name: "hold too long", content: "[profile_service]\nurl = \"http://p\"\n[booking]\nhold_minutes = 600\n"},
		{name: "missing profile service", content: "[booking]\nstrategy = \"auto\"\n"},
		{name: "negative gap", content: "[profile_service]\nurl = \"http://p\"\n[booking]\ngap_minutes = -5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoad_Malformed(t *testing.T) {
	_, err := Load(writeConfig(t, "[server\nhttp_port = "))
	assert.ErrorIs(t, err, ErrLoad)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, ErrLoad)
}

func TestBookingConfig_Strategies(t *testing.T) {
	tests := []struct {
		strategy         string
		wantReservations bool
		wantIntents      bool
	}{
		{strategy: StrategyReservation, wantReservations: true},
		{strategy: StrategyIntent, wantIntents: true},
		{strategy: StrategyAuto, wantReservations: true, wantIntents: true},
		{strategy: StrategyMemory, wantReservations: true},
	}

	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			cfg := Default()
			cfg.ProfileService.URL = "http://profiles"
			cfg.Booking.Strategy = tt.strategy

			require.NoError(t, cfg.Validate())
			assert.Equal(t, tt.wantReservations, cfg.Booking.UsesReservations())
			assert.Equal(t, tt.wantIntents, cfg.Booking.UsesIntents())
		})
	}
}
