// Package config loads settings from flags, environment and an optional .env
// file through viper.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
)

const EnvPrefix = "SKILLBRIDGE"

// Keys shared between flags and viper lookups.
const (
	ServerAddrKey        = "server.addr"
	AllowedOriginsKey    = "server.allowed_origins"
	DatabaseDriverKey    = "database.driver"
	DatabaseDSNKey       = "database.dsn"
	JWTSecretKey         = "auth.jwt_secret"
	RedisURLKey          = "redis.url"
	UserCacheTTLKey      = "cache.user_ttl"
	UploadsDirKey        = "uploads.dir"
	UploadsPrefixKey     = "uploads.public_prefix"
	UploadsMaxFilesKey   = "uploads.max_files"
	SendBufferKey        = "chat.send_buffer"
	EventsPerSecondKey   = "chat.events_per_second"
	NotificationTTLKey   = "notifications.ttl"
	NotificationsMaxKey  = "notifications.list_limit"
	PurgeSpecKey         = "worker.purge_interval"
	WorkerConcurrencyKey = "worker.concurrency"
)

type Config struct {
	ServerAddr     string
	AllowedOrigins string

	DatabaseDriver string
	DatabaseDSN    string

	JWTSecret string

	RedisURL     string
	UserCacheTTL time.Duration

	UploadsDir      string
	UploadsPrefix   string
	UploadsMaxFiles int

	SendBuffer      int
	EventsPerSecond int

	NotificationTTL    time.Duration
	NotificationsLimit int

	PurgeSpec         string
	WorkerConcurrency int
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(ServerAddrKey, "127.0.0.1:3000")
	v.SetDefault(AllowedOriginsKey, "*")
	v.SetDefault(DatabaseDriverKey, "sqlite")
	v.SetDefault(DatabaseDSNKey, "skillbridge.db")
	v.SetDefault(RedisURLKey, "")
	v.SetDefault(UserCacheTTLKey, 10*time.Minute)
	v.SetDefault(UploadsDirKey, "./uploads")
	v.SetDefault(UploadsPrefixKey, "/uploads")
	v.SetDefault(UploadsMaxFilesKey, 5)
	v.SetDefault(SendBufferKey, 16)
	v.SetDefault(EventsPerSecondKey, 20)
	v.SetDefault(NotificationTTLKey, 30*24*time.Hour)
	v.SetDefault(NotificationsMaxKey, 50)
	v.SetDefault(PurgeSpecKey, "@every 1h")
	v.SetDefault(WorkerConcurrencyKey, 2)
}

// Bind prepares v to read SKILLBRIDGE_* environment variables, loading envFile
// first when it exists.
func Bind(v *viper.Viper, envFile string) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			jww.DEBUG.Printf("no env file loaded from %s: %v", envFile, err)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
}

// Load reads and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		ServerAddr:         v.GetString(ServerAddrKey),
		AllowedOrigins:     v.GetString(AllowedOriginsKey),
		DatabaseDriver:     strings.ToLower(v.GetString(DatabaseDriverKey)),
		DatabaseDSN:        v.GetString(DatabaseDSNKey),
		JWTSecret:          v.GetString(JWTSecretKey),
		RedisURL:           v.GetString(RedisURLKey),
		UserCacheTTL:       v.GetDuration(UserCacheTTLKey),
		UploadsDir:         v.GetString(UploadsDirKey),
		UploadsPrefix:      v.GetString(UploadsPrefixKey),
		UploadsMaxFiles:    v.GetInt(UploadsMaxFilesKey),
		SendBuffer:         v.GetInt(SendBufferKey),
		EventsPerSecond:    v.GetInt(EventsPerSecondKey),
		NotificationTTL:    v.GetDuration(NotificationTTLKey),
		NotificationsLimit: v.GetInt(NotificationsMaxKey),
		PurgeSpec:          v.GetString(PurgeSpecKey),
		WorkerConcurrency:  v.GetInt(WorkerConcurrencyKey),
	}

	switch cfg.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return nil, errors.Errorf("%s must be sqlite or postgres, got %q", DatabaseDriverKey, cfg.DatabaseDriver)
	}
	if cfg.DatabaseDSN == "" {
		return nil, errors.Errorf("%s is required", DatabaseDSNKey)
	}
	if cfg.UploadsMaxFiles <= 0 {
		return nil, errors.Errorf("%s must be positive", UploadsMaxFilesKey)
	}
	if cfg.SendBuffer <= 0 {
		return nil, errors.Errorf("%s must be positive", SendBufferKey)
	}
	if cfg.EventsPerSecond < 0 {
		return nil, errors.Errorf("%s must not be negative", EventsPerSecondKey)
	}
	if cfg.NotificationTTL <= 0 {
		return nil, errors.Errorf("%s must be positive", NotificationTTLKey)
	}
	if cfg.NotificationsLimit <= 0 {
		return nil, errors.Errorf("%s must be positive", NotificationsMaxKey)
	}
	if !strings.HasPrefix(cfg.UploadsPrefix, "/") {
		cfg.UploadsPrefix = "/" + cfg.UploadsPrefix
	}
	return cfg, nil
}

// RequireSecret fails when no signing secret is configured; the HTTP server
// cannot authenticate anyone without one.
func (c *Config) RequireSecret() error {
	if c.JWTSecret == "" {
		return errors.Errorf("%s is required", JWTSecretKey)
	}
	return nil
}
