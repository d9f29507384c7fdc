// Package config は在庫サービスの実行時設定を読み込む。
//
// 既定値、YAMLファイル、環境変数の順に上書きする。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

const (
	// DriverSQLite は組み込みSQLiteをストアとして使用する。
	DriverSQLite = "sqlite"
	// DriverMongo はMongoDBをストアとして使用する。
	DriverMongo = "mongo"
)

// Config はサービス全体の設定。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string `yaml:"port"`
	// JWTSecret はアクセストークン署名用の秘密鍵。
	JWTSecret string `yaml:"jwt_secret"`
	// AllowedOrigins はCORSで許可するオリジン。"*" で全て許可する。
	AllowedOrigins []string `yaml:"allowed_origins"`
	// Store はドキュメントストアの接続設定。
	Store StoreConfig `yaml:"store"`
}

// StoreConfig はリポジトリのバックエンド設定。
type StoreConfig struct {
	// Driver は "sqlite" または "mongo"。
	Driver string `yaml:"driver"`
	// SQLitePath はSQLiteデータベースファイルのパス。
	SQLitePath string `yaml:"sqlite_path"`
	// MongoURI はMongoDBの接続URI。
	MongoURI string `yaml:"mongo_uri"`
	// MongoDatabase はMongoDBのデータベース名。
	MongoDatabase string `yaml:"mongo_database"`
	// Collection はMongoDBで在庫を格納するコレクション名。SQLiteでは cars テーブル固定。
	Collection string `yaml:"collection"`
}

// Default は既定値で埋めた設定を返す。
func Default() *Config {
	return &Config{
		Port:           "5000",
		JWTSecret:      "dev-secret-key",
		AllowedOrigins: []string{"*"},
		Store: StoreConfig{
			Driver:        DriverSQLite,
			SQLitePath:    "inventory.db",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "inventory",
			Collection:    "cars",
		},
	}
}

// Load は設定を読み込む。path が空でなければYAMLファイルを適用し、
// その後に環境変数で上書きする。
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("設定ファイルの解析に失敗: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv は設定されている環境変数で値を上書きする。
func (c *Config) applyEnv() {
	c.Port = getEnvOr("PORT", c.Port)
	c.JWTSecret = getEnvOr("ACCESS_TOKEN_SECRET", c.JWTSecret)
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		c.AllowedOrigins = splitList(origins)
	}
	c.Store.Driver = getEnvOr("STORE_DRIVER", c.Store.Driver)
	c.Store.SQLitePath = getEnvOr("SQLITE_PATH", c.Store.SQLitePath)
	c.Store.MongoURI = getEnvOr("MONGODB_URI", c.Store.MongoURI)
	c.Store.MongoDatabase = getEnvOr("MONGODB_DATABASE", c.Store.MongoDatabase)
}

// Validate は設定値の整合性を確認する。
func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("portが空です"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt_secretが空です"))
	}
	if c.Store.Collection == "" {
		errs = append(errs, errors.New("store.collectionが空です"))
	}
	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("store.sqlite_pathが空です"))
		}
	case DriverMongo:
		if c.Store.MongoURI == "" || c.Store.MongoDatabase == "" {
			errs = append(errs, errors.New("store.mongo_uri と store.mongo_database が必要です"))
		}
	default:
		errs = append(errs, fmt.Errorf("未知のstore.driverです: %q", c.Store.Driver))
	}
	if len(errs) > 0 {
		return fmt.Errorf("設定が不正です: %w", errors.Join(errs...))
	}
	return nil
}

// getEnvOr は環境変数の値を返す。未設定の場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// splitList はカンマ区切りの文字列を空要素を除いて分割する。
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
