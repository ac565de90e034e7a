// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ストアの種別
const (
	BackendMongo    = "mongo"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port     string // HTTPサーバーのポート番号
	GinMode  string // Ginの実行モード (debug, release, test)
	LogLevel string // slog のレベル (debug, info, warn, error)

	// セッション設定
	SessionSecret  string        // セッションIDクッキー署名用の秘密鍵
	SessionBackend string        // mongo / redis / memory
	SessionTTL     time.Duration // ログインから失効までの固定時間

	// ユーザーストア設定
	UserStore string // mongo / postgres / memory

	// MongoDB
	MongoURI                string
	MongoDatabase           string
	MongoUsersCollection    string
	MongoSessionsCollection string

	// PostgreSQL
	DatabaseURL string

	// Redis
	RedisURL string

	// パスワードハッシュ
	BcryptCost int

	// 静的ファイル（ギャラリー画像）
	StaticDir string

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	loadEnvFile()

	config := &Config{
		Port:     getEnv("PORT", "3000"),
		GinMode:  getEnv("GIN_MODE", "debug"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		SessionSecret:  getEnv("SESSION_SECRET", ""),
		SessionBackend: strings.ToLower(getEnv("SESSION_BACKEND", BackendMongo)),
		SessionTTL:     time.Duration(getEnvAsInt64("SESSION_TTL_MS", 3600000)) * time.Millisecond,

		UserStore: strings.ToLower(getEnv("USER_STORE", BackendMongo)),

		MongoURI:                getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:           getEnv("MONGODB_DATABASE", "dog_gallery"),
		MongoUsersCollection:    getEnv("MONGODB_USERS_COLLECTION", "users"),
		MongoSessionsCollection: getEnv("MONGODB_SESSIONS_COLLECTION", "sessions"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", "redis://127.0.0.1:6379/0"),

		BcryptCost: getEnvAsInt("BCRYPT_COST", 12),
		StaticDir:  getEnv("STATIC_DIR", "public"),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	switch c.SessionBackend {
	case BackendMongo, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unsupported SESSION_BACKEND: %q", c.SessionBackend)
	}

	switch c.UserStore {
	case BackendMongo, BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("unsupported USER_STORE: %q", c.UserStore)
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL_MS must be positive")
	}
	if c.UserStore == BackendPostgres && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when USER_STORE=postgres")
	}

	// 本番環境では厳格にチェックする
	if c.GinMode == "release" {
		if c.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET is required in release mode")
		}
		if c.SessionBackend == BackendMemory || c.UserStore == BackendMemory {
			return fmt.Errorf("memory stores are not allowed in release mode")
		}
	}

	return nil
}

// AllowedOrigins は CORS 許可オリジンを配列で返します。
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsInt64 は環境変数を64ビット整数として取得します。
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
