package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestMustLoadPathAppliesDefaults(t *testing.T) {
	cfg := MustLoadPath(writeConfig(t, "env: dev\n"))

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, []string{"stun:stun.l.google.com:19302"}, cfg.WebRTC.STUNServers)
	assert.InDelta(t, 0.1, cfg.Ledger.PlatformFeeRate, 1e-9)
	assert.Equal(t, 5*time.Minute, cfg.Sessions.JoinLeadTime)
	assert.Equal(t, 30*time.Minute, cfg.Sessions.NoShowGrace)
	assert.Equal(t, time.Minute, cfg.Sweeper.Interval)
	assert.Equal(t, 32, cfg.Relay.SendBuffer)
	assert.NotEmpty(t, cfg.Ledger.EscrowAccount)
	assert.NotEqual(t, cfg.Ledger.EscrowAccount, cfg.Ledger.PlatformAccount)
}

func TestMustLoadPathReadsValues(t *testing.T) {
	cfg := MustLoadPath(writeConfig(t, `
env: prod
location: Europe/Berlin
http:
  address: ":9000"
ledger:
  platform_fee_rate: 0.2
sessions:
  no_show_grace: 10m
kafka:
  brokers: ["kafka:9092"]
`))

	assert.Equal(t, ":9000", cfg.HTTP.Address)
	assert.InDelta(t, 0.2, cfg.Ledger.PlatformFeeRate, 1e-9)
	assert.Equal(t, 10*time.Minute, cfg.Sessions.NoShowGrace)
	assert.Equal(t, []string{"kafka:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "Europe/Berlin", cfg.TimeLocation().String())
}

func TestOutOfRangeFeeRateFallsBack(t *testing.T) {
	cfg := MustLoadPath(writeConfig(t, "ledger:\n  platform_fee_rate: 1.5\n"))
	assert.InDelta(t, 0.1, cfg.Ledger.PlatformFeeRate, 1e-9)
}

func TestMustLoadPathPanicsOnMissingFile(t *testing.T) {
	assert.Panics(t, func() { MustLoadPath(filepath.Join(t.TempDir(), "missing.yaml")) })
}
