package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

// WindowCounter 一定時間窓内のリクエスト数を数えるカウンタ
type WindowCounter interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimiter Redisの窓カウンタによるレート制限ミドルウェア
// クライアントはIPアドレスで識別する。カウンタ障害時はリクエストを通す。
type RateLimiter struct {
	counter WindowCounter
	window  time.Duration
	max     int64
	prefix  string
}

// NewRateLimiter 新しいRateLimiterを作成
func NewRateLimiter(counter WindowCounter, window time.Duration, max int, prefix string) *RateLimiter {
	if window <= 0 {
		window = 15 * time.Minute
	}
	if max <= 0 {
		max = 100
	}
	return &RateLimiter{
		counter: counter,
		window:  window,
		max:     int64(max),
		prefix:  prefix,
	}
}

// Limit レート制限を適用する
func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.counter == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := fmt.Sprintf("ratelimit:%s:%s", l.prefix, clientIP(r))
		count, err := l.counter.IncrementWindow(r.Context(), key, l.window)
		if err != nil {
			slog.Warn("Rate limit counter unavailable", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		if count > l.max {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(l.window.Seconds())))
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"error":   "Too many requests",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP 接続元IPアドレスを取得
// プロキシ経由の場合はX-Forwarded-Forの先頭を使う。
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if ip, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(ip)
		}
		return strings.TrimSpace(fwd)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
