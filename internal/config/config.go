package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config アプリケーション全体の設定
type Config struct {
	Server ServerConfig `yaml:"server"`
	Gemini GeminiConfig `yaml:"gemini"`
	Redis  RedisConfig  `yaml:"redis"`
	MySQL  MySQLConfig  `yaml:"mysql"`
	Blob   BlobConfig   `yaml:"blob"`
	Upload UploadConfig `yaml:"upload"`
	Limits LimitsConfig `yaml:"limits"`
}

// ServerConfig HTTPサーバーの設定
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// GeminiConfig Gemini APIの設定
type GeminiConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// RedisConfig Redisの設定
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MySQLConfig MySQLの設定
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// BlobConfig レシート画像ストアの設定
type BlobConfig struct {
	Path string `yaml:"path"`
}

// UploadConfig アップロードトークンの設定
type UploadConfig struct {
	HashKey  string        `yaml:"hash_key"`
	BlockKey string        `yaml:"block_key"`
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// LimitsConfig レート制限の設定
type LimitsConfig struct {
	Window         time.Duration `yaml:"window"`
	MaxRequests    int           `yaml:"max_requests"`
	MaxAIRequests  int           `yaml:"max_ai_requests"`
	CacheRetention time.Duration `yaml:"cache_retention"`
}

// Load 設定ファイルを読み込む
func Load(configPath string) (*Config, error) {
	// 設定ファイルが存在しない場合はデフォルト設定を返す
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// 環境変数の展開
	dataStr := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(dataStr), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// DefaultConfig デフォルト設定を返す
func DefaultConfig() *Config {
	// Redis/MySQLのホストはテスト環境では localhost を使用
	redisHost := "redis"
	mysqlHost := "mysql"
	if os.Getenv("GO_ENV") == "test" {
		redisHost = "localhost"
		mysqlHost = "localhost"
	}

	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Gemini: GeminiConfig{
			APIKey:  os.Getenv("GEMINI_API_KEY"),
			Model:   "gemini-2.0-flash",
			Timeout: 30 * time.Second,
		},
		Redis: RedisConfig{
			Host:     redisHost,
			Port:     6379,
			Password: "",
			DB:       0,
		},
		MySQL: MySQLConfig{
			Host:     mysqlHost,
			Port:     3306,
			User:     "root",
			Password: os.Getenv("MYSQL_ROOT_PASSWORD"),
			Database: "receiptify",
		},
		Blob: BlobConfig{
			Path: "data/receipts.db",
		},
		Upload: UploadConfig{
			HashKey:  os.Getenv("UPLOAD_HASH_KEY"),
			BlockKey: os.Getenv("UPLOAD_BLOCK_KEY"),
			TokenTTL: time.Hour,
		},
		Limits: LimitsConfig{
			Window:         15 * time.Minute,
			MaxRequests:    100,
			MaxAIRequests:  20,
			CacheRetention: 24 * time.Hour,
		},
	}
}

// Save 設定をファイルに保存する
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
