package repository

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss キャッシュにキーが存在しない
var ErrCacheMiss = errors.New("cache miss")

// CacheRepository キャッシュリポジトリのインターフェース
type CacheRepository interface {
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)

	// IncrementWindow キーのカウンタを加算し、現在値を返す
	// 初回加算時にwindowの有効期限を設定する。レート制限の窓カウンタに使う。
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}
