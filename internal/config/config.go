package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Local   LocalConfig   `mapstructure:"local"`
	Remote  RemoteConfig  `mapstructure:"remote"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Session SessionConfig `mapstructure:"session"`
	Assist  AssistConfig  `mapstructure:"assist"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	S3      S3Config      `mapstructure:"s3"`
	JWT     JWTConfig     `mapstructure:"jwt"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LocalConfig locates the on-device SQLite database, the source of truth
// for all reads and writes.
type LocalConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// RemoteConfig points at the MongoDB replica. When Enabled is false the
// server runs fully offline and sync becomes a no-op.
type RemoteConfig struct {
	URI     string `mapstructure:"uri"`
	Name    string `mapstructure:"name"`
	Enabled bool   `mapstructure:"enabled"`
}

type SyncConfig struct {
	LogPullLimit int `mapstructure:"log_pull_limit"`
}

// SessionConfig tunes the live session engine. A zero or negative tick
// interval disables the wall clock, which leaves Tick as the only way to
// advance session time.
type SessionConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

// AssistConfig configures the AI companion service. Quota caps routine
// generations per process; zero means unlimited.
type AssistConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Quota   int    `mapstructure:"quota"`
}

type CatalogConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	// Set the path to look for the config file in
	viper.AddConfigPath(path)
	// Set the name of the config file (without extension)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// --- Environment Variable Handling ---
	viper.AutomaticEnv()
	// Use replacer for nested keys e.g., server.address -> SERVER_ADDRESS
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	// --- Set default values ---
	viper.SetDefault("server.address", ":8080")
	// Empty means "use the per-user default path".
	viper.SetDefault("local.db_path", "")
	viper.SetDefault("remote.uri", "mongodb://localhost:27017")
	viper.SetDefault("remote.name", "planr")
	viper.SetDefault("remote.enabled", false)
	viper.SetDefault("sync.log_pull_limit", 200)
	viper.SetDefault("session.tick_interval", "1s")
	viper.SetDefault("assist.base_url", "http://localhost:9090")
	viper.SetDefault("assist.quota", 0)
	viper.SetDefault("catalog.base_url", "https://exercisedb.dev/api/v1")
	viper.SetDefault("catalog.cache_ttl", "10m")
	viper.SetDefault("s3.region", "us-east-1")
	viper.SetDefault("s3.bucket_name", "planr-badges")

	// --- Read Config File ---
	err = viper.ReadInConfig()
	// If config file not found, continue (might rely solely on env vars).
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	// --- Unmarshal Config ---
	// Viper parses duration strings ("1s", "10m") directly into the
	// time.Duration fields.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	return config, nil
}
