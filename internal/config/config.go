package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server     ServerConfig
	Redis      RedisConfig
	JWT        JWTConfig
	RateLimit  RateLimitConfig
	Storage    StorageConfig
	Processing ProcessingConfig
	FFmpeg     FFmpegConfig
	S3         S3Config
	OIDC       OIDCConfig
}

type ServerConfig struct {
	Port      string
	Env       string
	LogLevel  string
	ApiDomain string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration int // hours
}

type RateLimitConfig struct {
	ProcessPerHour int
	UploadPerHour  int
	BatchPerHour   int
}

type StorageConfig struct {
	UploadPath  string
	OutputPath  string
	TempPath    string
	MaxUploadMB int
}

type ProcessingConfig struct {
	Workers            int
	TempRetentionHours int
}

type FFmpegConfig struct {
	Binary      string
	ProbeBinary string
}

type S3Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

type OIDCConfig struct {
	Domain   string
	ClientID string
	Issuer   string
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("JWT_SECRET")
	readSecret("S3_ACCOUNT_ID")
	readSecret("S3_ACCESS_KEY_ID")
	readSecret("S3_SECRET_ACCESS_KEY")
	readSecret("OIDC_CLIENT_ID")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("server.api_domain", "API_DOMAIN")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("jwt.secret", "JWT_SECRET")
	_ = viper.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	_ = viper.BindEnv("storage.upload_path", "UPLOAD_PATH")
	_ = viper.BindEnv("storage.output_path", "OUTPUT_PATH")
	_ = viper.BindEnv("storage.temp_path", "TEMP_PATH")
	_ = viper.BindEnv("storage.max_upload_mb", "MAX_UPLOAD_MB")
	_ = viper.BindEnv("processing.workers", "PROCESSING_WORKERS")
	_ = viper.BindEnv("processing.temp_retention_hours", "TEMP_RETENTION_HOURS")
	_ = viper.BindEnv("ffmpeg.binary", "FFMPEG_BINARY")
	_ = viper.BindEnv("ffmpeg.probe_binary", "FFPROBE_BINARY")
	_ = viper.BindEnv("s3.account_id", "S3_ACCOUNT_ID")
	_ = viper.BindEnv("s3.access_key_id", "S3_ACCESS_KEY_ID")
	_ = viper.BindEnv("s3.secret_access_key", "S3_SECRET_ACCESS_KEY")
	_ = viper.BindEnv("s3.bucket_name", "S3_BUCKET_NAME")
	_ = viper.BindEnv("s3.public_url", "S3_PUBLIC_URL")
	_ = viper.BindEnv("oidc.domain", "OIDC_DOMAIN")
	_ = viper.BindEnv("oidc.client_id", "OIDC_CLIENT_ID")
	_ = viper.BindEnv("oidc.issuer", "OIDC_ISSUER")

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.expiration", 24)
	viper.SetDefault("ratelimit.process_per_hour", 20)
	viper.SetDefault("ratelimit.upload_per_hour", 50)
	viper.SetDefault("ratelimit.batch_per_hour", 5)

	// Storage defaults
	viper.SetDefault("storage.upload_path", "uploads")
	viper.SetDefault("storage.output_path", "output")
	viper.SetDefault("storage.temp_path", "temp")
	viper.SetDefault("storage.max_upload_mb", 500)

	// Processing defaults
	viper.SetDefault("processing.workers", 2)
	viper.SetDefault("processing.temp_retention_hours", 24)

	// FFmpeg defaults
	viper.SetDefault("ffmpeg.binary", "ffmpeg")
	viper.SetDefault("ffmpeg.probe_binary", "ffprobe")

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:      viper.GetString("server.port"),
			Env:       viper.GetString("server.env"),
			LogLevel:  viper.GetString("server.log_level"),
			ApiDomain: viper.GetString("server.api_domain"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     viper.GetString("jwt.secret"),
			Expiration: viper.GetInt("jwt.expiration"),
		},
		RateLimit: RateLimitConfig{
			ProcessPerHour: viper.GetInt("ratelimit.process_per_hour"),
			UploadPerHour:  viper.GetInt("ratelimit.upload_per_hour"),
			BatchPerHour:   viper.GetInt("ratelimit.batch_per_hour"),
		},
		Storage: StorageConfig{
			UploadPath:  viper.GetString("storage.upload_path"),
			OutputPath:  viper.GetString("storage.output_path"),
			TempPath:    viper.GetString("storage.temp_path"),
			MaxUploadMB: viper.GetInt("storage.max_upload_mb"),
		},
		Processing: ProcessingConfig{
			Workers:            viper.GetInt("processing.workers"),
			TempRetentionHours: viper.GetInt("processing.temp_retention_hours"),
		},
		FFmpeg: FFmpegConfig{
			Binary:      viper.GetString("ffmpeg.binary"),
			ProbeBinary: viper.GetString("ffmpeg.probe_binary"),
		},
		S3: S3Config{
			AccountID:       viper.GetString("s3.account_id"),
			AccessKeyID:     viper.GetString("s3.access_key_id"),
			SecretAccessKey: viper.GetString("s3.secret_access_key"),
			BucketName:      viper.GetString("s3.bucket_name"),
			PublicURL:       viper.GetString("s3.public_url"),
		},
		OIDC: OIDCConfig{
			Domain:   viper.GetString("oidc.domain"),
			ClientID: viper.GetString("oidc.client_id"),
			Issuer:   viper.GetString("oidc.issuer"),
		},
	}

	return cfg, nil
}
