package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0", cfg.Server.Address)
	require.Equal(t, "3700", cfg.Server.HTTPPort)
	require.Equal(t, "", cfg.Database.Driver)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, 10, cfg.Devices.MaxPerGateway)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("IOTGW_DEVICES_MAX_PER_GATEWAY", "3")
	t.Setenv("IOTGW_SERVER_HTTP_PORT", "8080")
	t.Setenv("IOTGW_DATABASE_DRIVER", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 3, cfg.Devices.MaxPerGateway)
	require.Equal(t, "8080", cfg.Server.HTTPPort)
	require.Equal(t, "sqlite", cfg.Database.Driver)
}
