package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port     string
	LogLevel string

	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	PasswordHasher     string

	DatabaseDriver string
	DatabaseDSN    string
	MongoURI       string
	MongoDatabase  string

	MediaDriver        string
	AWSRegion          string
	S3Bucket           string
	S3Endpoint         string
	MinioEndpoint      string
	MinioAccessKey     string
	MinioSecretKey     string
	MediaPublicBaseURL string
	UploadDir          string

	RedisAddr     string
	CORSOrigins   []string
	AuthRateLimit float64
	AuthRateBurst int
}

// DriverMongo selects the document store instead of gorm.
const DriverMongo = "mongodb"

// env maps config keys onto their environment variables.
var env = map[string]string{
	"port":                  "PORT",
	"log_level":             "LOG_LEVEL",
	"auth.access_secret":    "ACCESS_TOKEN_SECRET",
	"auth.refresh_secret":   "REFRESH_TOKEN_SECRET",
	"auth.access_expiry":    "ACCESS_TOKEN_EXPIRY",
	"auth.refresh_expiry":   "REFRESH_TOKEN_EXPIRY",
	"auth.password_hasher":  "PASSWORD_HASHER",
	"auth.rate_limit":       "AUTH_RATE_LIMIT",
	"auth.rate_burst":       "AUTH_RATE_BURST",
	"database.driver":       "DATABASE_DRIVER",
	"database.dsn":          "DATABASE_DSN",
	"mongodb.uri":           "MONGODB_URI",
	"mongodb.database":      "MONGODB_DATABASE",
	"media.driver":          "MEDIA_DRIVER",
	"media.public_base_url": "MEDIA_PUBLIC_BASE_URL",
	"media.upload_dir":      "UPLOAD_DIR",
	"aws.region":            "AWS_REGION",
	"aws.s3_bucket":         "S3_BUCKET",
	"aws.s3_endpoint":       "S3_ENDPOINT",
	"minio.endpoint":        "MINIO_ENDPOINT",
	"minio.access_key":      "MINIO_ACCESS_KEY",
	"minio.secret_key":      "MINIO_SECRET_KEY",
	"redis.addr":            "REDIS_ADDR",
	"cors.origins":          "CORS_ORIGINS",
}

// Load reads the yaml file at path (or cmd/config/config.yaml when path is
// empty and the file exists) and applies environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("cmd/config/")
		v.AddConfigPath(".")
	}
	for key, name := range env {
		if err := v.BindEnv(key, name); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	accessExpiry, err := ParseExpiry(v.GetString("auth.access_expiry"))
	if err != nil {
		return nil, fmt.Errorf("ACCESS_TOKEN_EXPIRY: %w", err)
	}
	refreshExpiry, err := ParseExpiry(v.GetString("auth.refresh_expiry"))
	if err != nil {
		return nil, fmt.Errorf("REFRESH_TOKEN_EXPIRY: %w", err)
	}

	cfg := &Config{
		Port:               v.GetString("port"),
		LogLevel:           v.GetString("log_level"),
		AccessTokenSecret:  v.GetString("auth.access_secret"),
		RefreshTokenSecret: v.GetString("auth.refresh_secret"),
		AccessTokenExpiry:  accessExpiry,
		RefreshTokenExpiry: refreshExpiry,
		PasswordHasher:     v.GetString("auth.password_hasher"),
		DatabaseDriver:     v.GetString("database.driver"),
		DatabaseDSN:        v.GetString("database.dsn"),
		MongoURI:           v.GetString("mongodb.uri"),
		MongoDatabase:      v.GetString("mongodb.database"),
		MediaDriver:        v.GetString("media.driver"),
		AWSRegion:          v.GetString("aws.region"),
		S3Bucket:           v.GetString("aws.s3_bucket"),
		S3Endpoint:         v.GetString("aws.s3_endpoint"),
		MinioEndpoint:      v.GetString("minio.endpoint"),
		MinioAccessKey:     v.GetString("minio.access_key"),
		MinioSecretKey:     v.GetString("minio.secret_key"),
		MediaPublicBaseURL: v.GetString("media.public_base_url"),
		UploadDir:          v.GetString("media.upload_dir"),
		RedisAddr:          v.GetString("redis.addr"),
		CORSOrigins:        splitList(v.Get("cors.origins")),
		AuthRateLimit:      v.GetFloat64("auth.rate_limit"),
		AuthRateBurst:      v.GetInt("auth.rate_burst"),
	}

	if cfg.AccessTokenSecret == "" || cfg.RefreshTokenSecret == "" {
		return nil, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must be set")
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8000")
	v.SetDefault("log_level", "info")
	v.SetDefault("auth.access_expiry", "1d")
	v.SetDefault("auth.refresh_expiry", "10d")
	v.SetDefault("auth.password_hasher", "bcrypt")
	v.SetDefault("auth.rate_limit", 5)
	v.SetDefault("auth.rate_burst", 10)
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "videotube.db")
	v.SetDefault("mongodb.database", "videotube")
	v.SetDefault("media.driver", "s3")
	v.SetDefault("aws.region", "us-east-1")
}

// ParseExpiry accepts Go durations ("15m", "2h") and whole days ("10d").
func ParseExpiry(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid expiry %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid expiry %q", s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("expiry must be positive, got %q", s)
	}
	return d, nil
}

// splitList reads a yaml list or a comma separated env value.
func splitList(raw interface{}) []string {
	var parts []string
	switch val := raw.(type) {
	case []interface{}:
		for _, p := range val {
			parts = append(parts, fmt.Sprint(p))
		}
	case []string:
		parts = val
	case string:
		parts = strings.Split(val, ",")
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
