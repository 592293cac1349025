package config

import (
	"fmt"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all environment-provided settings.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Mail      MailConfig
	ContentDB ContentDBConfig
	Storage   StorageConfig
	Digest    DigestConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host    string
	Port    int
	BaseURL string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
}

// MailConfig carries the transactional mail service credentials and the
// sender address used for all outgoing mail.
type MailConfig struct {
	PublicKey  string
	PrivateKey string
	Sender     string
	SenderName string
}

// ContentDBConfig points at the external content database that mirrors a
// subset of event fields (legacy/alternate entry path).
type ContentDBConfig struct {
	Token            string
	EventsDatabaseID string
}

type StorageConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PublicURL string
}

// DigestConfig gates the scheduled-digest endpoint and, when Schedule is
// non-empty, enables the in-process cron dispatcher.
type DigestConfig struct {
	Token    string
	Schedule string
}

type LogConfig struct {
	Level  string
	Format string
}

var (
	instance *Config
	mu       sync.RWMutex
)

// Load reads .env (if present) and the environment into the process config.
func Load() (*Config, error) {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 7070)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "tango_agenda")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	cfg := &Config{
		Server: ServerConfig{
			Host:    v.GetString("SERVER_HOST"),
			Port:    v.GetInt("SERVER_PORT"),
			BaseURL: v.GetString("SERVER_BASE_URL"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
		},
		Mail: MailConfig{
			PublicKey:  v.GetString("MAIL_PUBLIC_KEY"),
			PrivateKey: v.GetString("MAIL_PRIVATE_KEY"),
			Sender:     v.GetString("MAIL_SENDER"),
			SenderName: v.GetString("MAIL_SENDER_NAME"),
		},
		ContentDB: ContentDBConfig{
			Token:            v.GetString("CONTENTDB_TOKEN"),
			EventsDatabaseID: v.GetString("CONTENTDB_EVENTS_DATABASE_ID"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			Region:    v.GetString("STORAGE_REGION"),
			Bucket:    v.GetString("STORAGE_BUCKET"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			PublicURL: v.GetString("STORAGE_PUBLIC_URL"),
		},
		Digest: DigestConfig{
			Token:    v.GetString("DIGEST_TOKEN"),
			Schedule: v.GetString("DIGEST_SCHEDULE"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	mu.Lock()
	instance = cfg
	mu.Unlock()
	return cfg, nil
}

// Get returns the loaded config. It panics if Load has not been called;
// prefer GetSafe in code paths that may run before startup completes.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if instance == nil {
		panic("config: not loaded")
	}
	return instance
}

// GetSafe returns the loaded config and whether loading has happened.
func GetSafe() (*Config, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return instance, instance != nil
}
