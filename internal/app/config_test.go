package app

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":3001", cfg.AppAddr)
	assert.Equal(t, 5*time.Minute, cfg.PrincipalTTL)
	assert.Equal(t, int64(10<<20), cfg.UploadMaxBytes)
	assert.Equal(t, "0 9 * * *", cfg.NotifyCron)
	assert.False(t, cfg.IsProduction())
}

func TestConfigValidate(t *testing.T) {
	base := func() Config {
		return Config{JWTSecret: "s", UploadMaxBytes: 1, NotifyTimezone: "UTC"}
	}

	cfg := base()
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.JWTSecret = ""
	assert.Error(t, cfg.Validate(), "a signing key is required")

	cfg = base()
	cfg.AppEnv = "production"
	assert.Error(t, cfg.Validate(), "production requires an audience")

	cfg = base()
	cfg.UploadMaxBytes = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.NotifyTimezone = "Mars/Olympus"
	assert.Error(t, cfg.Validate())
}

func TestNotifyLocation(t *testing.T) {
	cfg := Config{NotifyTimezone: "Asia/Jakarta"}
	loc, err := cfg.NotifyLocation()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", loc.String())

	cfg.NotifyTimezone = ""
	loc, err = cfg.NotifyLocation()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}
