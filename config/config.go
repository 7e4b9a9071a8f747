package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration, read from the environment (and .env).
type Config struct {
	Port           string        `mapstructure:"port"`
	DatabaseURL    string        `mapstructure:"database_url"`
	ServiceToken   string        `mapstructure:"service_token"`
	AllowedOrigins string        `mapstructure:"allowed_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	NotificationTTL             time.Duration `mapstructure:"notification_ttl"`
	NotificationCleanupInterval time.Duration `mapstructure:"notification_cleanup_interval"`
	ProjectionBatchSize         int           `mapstructure:"projection_batch_size"`

	SyncServiceURL string        `mapstructure:"sync_service_url"`
	SyncEndpoint   string        `mapstructure:"sync_endpoint"`
	SyncInterval   time.Duration `mapstructure:"sync_interval"`

	R2Config `mapstructure:",squash"`

	UploadDir string `mapstructure:"upload_dir"`
}

// R2Config holds Cloudflare R2 credentials. Media goes to local disk when the bucket is unset.
type R2Config struct {
	AccountID       string `mapstructure:"cloudflare_account_id"`
	AccessKeyID     string `mapstructure:"r2_access_key_id"`
	AccessKeySecret string `mapstructure:"r2_access_key_secret"`
	Bucket          string `mapstructure:"r2_bucket_name"`
	CDNBaseURL      string `mapstructure:"cdn_base_url"`
}

// Enabled reports whether enough settings are present to talk to R2.
func (r R2Config) Enabled() bool {
	return r.Bucket != "" && r.AccountID != "" && r.AccessKeyID != ""
}

var defaults = map[string]interface{}{
	"port":                          "5200",
	"database_url":                  "",
	"service_token":                 "",
	"allowed_origins":               "http://localhost:3000",
	"request_timeout":               "5s",
	"log_level":                     "info",
	"log_format":                    "json",
	"redis_addr":                    "",
	"redis_password":                "",
	"redis_db":                      0,
	"notification_ttl":              "24h",
	"notification_cleanup_interval": "1h",
	"projection_batch_size":         200,
	"sync_service_url":              "",
	"sync_endpoint":                 "/api/v1/public/profiles",
	"sync_interval":                 "1m",
	"cloudflare_account_id":         "",
	"r2_access_key_id":              "",
	"r2_access_key_secret":          "",
	"r2_bucket_name":                "",
	"cdn_base_url":                  "",
	"upload_dir":                    "uploads",
}

// Load reads .env (if any) and the process environment into a validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}
	return FromViper(viper.New())
}

// FromViper applies defaults and environment binding on v and unmarshals it.
func FromViper(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.ServiceToken == "" {
		return fmt.Errorf("SERVICE_TOKEN is required")
	}
	if c.ProjectionBatchSize < 1 {
		c.ProjectionBatchSize = 200
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 5 * time.Second
	}
	if c.NotificationTTL <= 0 {
		c.NotificationTTL = 24 * time.Hour
	}
	return nil
}

// Origins splits ALLOWED_ORIGINS into trimmed, non-empty entries joined for fiber's CORS config.
func (c *Config) Origins() string {
	var out []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			out = append(out, origin)
		}
	}
	return strings.Join(out, ",")
}
