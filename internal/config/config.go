// Package config loads service settings from configs/config.yml, an optional
// .env file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"

	UploadLocal = "local"
	UploadS3    = "s3"
)

// Placeholder secrets shipped in defaults; rejected in production.
const (
	defaultAccessSecret  = "change-me-access-secret"
	defaultRefreshSecret = "change-me-refresh-secret"
)

type Config struct {
	Env    string       `mapstructure:"env"`
	Port   string       `mapstructure:"port"`
	Log    LogConfig    `mapstructure:"log"`
	HTTP   HTTPConfig   `mapstructure:"http"`
	DB     DBConfig     `mapstructure:"db"`
	Mongo  MongoConfig  `mapstructure:"mongo"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Upload UploadConfig `mapstructure:"upload"`
	S3     S3Config     `mapstructure:"s3"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type HTTPConfig struct {
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes    int64         `mapstructure:"max_upload_bytes"`
}

type DBConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type AuthConfig struct {
	AccessTokenSecret  string        `mapstructure:"access_token_secret"`
	AccessTokenTTL     time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenSecret string        `mapstructure:"refresh_token_secret"`
	RefreshTokenTTL    time.Duration `mapstructure:"refresh_token_ttl"`
	SecureCookies      bool          `mapstructure:"secure_cookies"`
}

type UploadConfig struct {
	Driver        string `mapstructure:"driver"`
	TmpDir        string `mapstructure:"tmp_dir"`
	LocalDir      string `mapstructure:"local_dir"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	Prefix        string `mapstructure:"prefix"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("port", "8000")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")

	v.SetDefault("http.read_header_timeout", "10s")
	v.SetDefault("http.write_timeout", "30s")
	v.SetDefault("http.idle_timeout", "60s")
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("http.max_upload_bytes", 8<<20)

	v.SetDefault("db.driver", DriverSQLite)
	v.SetDefault("db.path", "videotube.db")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "videotube")

	v.SetDefault("auth.access_token_secret", defaultAccessSecret)
	v.SetDefault("auth.access_token_ttl", "24h")
	v.SetDefault("auth.refresh_token_secret", defaultRefreshSecret)
	v.SetDefault("auth.refresh_token_ttl", "240h")
	v.SetDefault("auth.secure_cookies", true)

	v.SetDefault("upload.driver", UploadLocal)
	v.SetDefault("upload.tmp_dir", "public/temp")
	v.SetDefault("upload.local_dir", "public/media")
	v.SetDefault("upload.public_base_url", "http://localhost:8000/media")

	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.public_base_url", "")
	v.SetDefault("s3.prefix", "")
}

// Load reads config.yml from the first of configPaths that has one (a
// missing file is not an error), then applies .env and environment
// overrides. Env keys are upper-cased config keys with "." replaced by "_",
// e.g. AUTH_REFRESH_TOKEN_SECRET.
func Load(configPaths ...string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks required values and rejects development defaults in production.
func (c *Config) Validate() error {
	if c.Auth.AccessTokenSecret == "" || c.Auth.RefreshTokenSecret == "" {
		return errors.New("auth.access_token_secret and auth.refresh_token_secret are required")
	}
	if c.Auth.AccessTokenSecret == c.Auth.RefreshTokenSecret {
		return errors.New("access and refresh token secrets must differ")
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return errors.New("token ttls must be positive")
	}

	switch c.DB.Driver {
	case DriverSQLite:
		if c.DB.Path == "" {
			return errors.New("db.path is required for sqlite")
		}
	case DriverMongo:
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			return errors.New("mongo.uri and mongo.database are required for mongo")
		}
	default:
		return fmt.Errorf("unknown db.driver %q", c.DB.Driver)
	}

	switch c.Upload.Driver {
	case UploadLocal:
		if c.Upload.LocalDir == "" {
			return errors.New("upload.local_dir is required for local uploads")
		}
	case UploadS3:
		if c.S3.Bucket == "" {
			return errors.New("s3.bucket is required for s3 uploads")
		}
	default:
		return fmt.Errorf("unknown upload.driver %q", c.Upload.Driver)
	}

	if c.IsProduction() {
		if c.Auth.AccessTokenSecret == defaultAccessSecret || c.Auth.RefreshTokenSecret == defaultRefreshSecret {
			return errors.New("token secrets must be changed from the default value in production")
		}
		if !c.Auth.SecureCookies {
			return errors.New("auth.secure_cookies must be enabled in production")
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}
