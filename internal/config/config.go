package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Push     PushConfig
	Email    EmailConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Path string
}

type LogConfig struct {
	Level  string
	Format string
}

type AuthConfig struct {
	JWTSecret  string
	TokenHours int
	CronSecret string
}

// StorageConfig holds S3-compatible object storage settings for snapshots.
type StorageConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

type PushConfig struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string
}

type EmailConfig struct {
	ServerToken string
	FromAddress string
}

// Load reads configuration from config.yaml (working directory or ./config)
// with PPSADMIN_-prefixed environment variables taking precedence.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)

	viper.SetDefault("database.path", "./ppsadmin.db")

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	viper.SetDefault("auth.token_hours", 12)

	viper.SetDefault("storage.region", "auto")

	viper.SetDefault("push.subscriber", "mailto:pps@psicopps.edu.ar")

	viper.SetEnvPrefix("PPSADMIN")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(envKeyReplacer)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("server.host"),
			Port: viper.GetInt("server.port"),
		},
		Database: DatabaseConfig{
			Path: viper.GetString("database.path"),
		},
		Log: LogConfig{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
		},
		Auth: AuthConfig{
			JWTSecret:  viper.GetString("auth.jwt_secret"),
			TokenHours: viper.GetInt("auth.token_hours"),
			CronSecret: viper.GetString("auth.cron_secret"),
		},
		Storage: StorageConfig{
			Endpoint:  viper.GetString("storage.endpoint"),
			Region:    viper.GetString("storage.region"),
			AccessKey: viper.GetString("storage.access_key"),
			SecretKey: viper.GetString("storage.secret_key"),
		},
		Push: PushConfig{
			VAPIDPublicKey:  viper.GetString("push.vapid_public_key"),
			VAPIDPrivateKey: viper.GetString("push.vapid_private_key"),
			Subscriber:      viper.GetString("push.subscriber"),
		},
		Email: EmailConfig{
			ServerToken: viper.GetString("email.server_token"),
			FromAddress: viper.GetString("email.from_address"),
		},
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret is required")
	}

	return cfg, nil
}
