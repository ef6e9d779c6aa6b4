package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// statusWriter ステータスコードと書き込みバイト数を記録するラッパー
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

// Logger アクセスログを出力するミドルウェア
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		slog.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"ip", clientIP(r),
			"status", sw.status,
			"bytes", sw.bytes,
			"duration", time.Since(start),
		)
	})
}

// LoggerWithHealthCheck 正常なヘルスチェックのログを抑制するロギングミドルウェア
// 監視の定期アクセスでログが埋まるのを避ける。
func LoggerWithHealthCheck(next http.Handler) http.Handler {
	logged := Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			logged.ServeHTTP(w, r)
			return
		}

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		// 異常時のみログ出力
		if sw.status != http.StatusOK {
			slog.Error("Health check failed", "status", sw.status)
		}
	})
}
