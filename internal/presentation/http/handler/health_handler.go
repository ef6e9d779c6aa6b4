package handler

import (
	"context"
	"encoding/json"
	"net/http"
)

// Pinger 依存先の疎通確認
type Pinger interface {
	Exists(ctx context.Context, key string) (bool, error)
}

// HealthHandler ヘルスチェックのハンドラー
type HealthHandler struct {
	cache Pinger
}

// NewHealthHandler 新しいHealthHandlerを作成
// cacheがnilの場合、疎通確認は行わない。
func NewHealthHandler(cache Pinger) *HealthHandler {
	return &HealthHandler{cache: cache}
}

// HealthResponse ヘルスチェックのレスポンス
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ServeHTTP ヘルスチェックを処理
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := http.StatusOK
	response := HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
	}

	if h.cache != nil {
		if _, err := h.cache.Exists(r.Context(), "health:probe"); err != nil {
			status = http.StatusServiceUnavailable
			response.Status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}
