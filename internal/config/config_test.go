package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.DatabaseDriver)
	require.Equal(t, "/uploads", cfg.UploadsPrefix)
	require.Equal(t, 5, cfg.UploadsMaxFiles)
	require.Equal(t, 30*24*time.Hour, cfg.NotificationTTL)
	require.Equal(t, "@every 1h", cfg.PurgeSpec)
	require.Error(t, cfg.RequireSecret())
}

func TestLoad_Validation(t *testing.T) {
	cases := map[string]func(v *viper.Viper){
		"driver":      func(v *viper.Viper) { v.Set(DatabaseDriverKey, "mysql") },
		"dsn":         func(v *viper.Viper) { v.Set(DatabaseDSNKey, "") },
		"max files":   func(v *viper.Viper) { v.Set(UploadsMaxFilesKey, 0) },
		"send buffer": func(v *viper.Viper) { v.Set(SendBufferKey, -1) },
		"events":      func(v *viper.Viper) { v.Set(EventsPerSecondKey, -5) },
		"ttl":         func(v *viper.Viper) { v.Set(NotificationTTLKey, "0s") },
		"list limit":  func(v *viper.Viper) { v.Set(NotificationsMaxKey, 0) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			mutate(v)
			_, err := Load(v)
			require.Error(t, err)
		})
	}
}

func TestBind_EnvironmentAndEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SKILLBRIDGE_UPLOADS_PUBLIC_PREFIX=files\nSKILLBRIDGE_AUTH_JWT_SECRET=from-file\n"), 0o600))
	t.Setenv("SKILLBRIDGE_DATABASE_DRIVER", "Postgres")
	t.Setenv("SKILLBRIDGE_DATABASE_DSN", "postgres://localhost/skillbridge")
	t.Setenv("SKILLBRIDGE_NOTIFICATIONS_TTL", "72h")
	t.Cleanup(func() {
		os.Unsetenv("SKILLBRIDGE_UPLOADS_PUBLIC_PREFIX")
		os.Unsetenv("SKILLBRIDGE_AUTH_JWT_SECRET")
	})

	v := viper.New()
	Bind(v, envFile)
	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, "postgres", cfg.DatabaseDriver)
	require.Equal(t, "postgres://localhost/skillbridge", cfg.DatabaseDSN)
	require.Equal(t, 72*time.Hour, cfg.NotificationTTL)
	require.Equal(t, "/files", cfg.UploadsPrefix)
	require.NoError(t, cfg.RequireSecret())
}
