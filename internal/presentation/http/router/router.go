package router

import (
	"net/http"

	"github.com/xiaotiantakumi/receiptify/internal/presentation/http/handler"
	"github.com/xiaotiantakumi/receiptify/internal/presentation/http/middleware"
)

// Container ルーティングに必要なハンドラーとミドルウェアを提供する
type Container interface {
	ReceiptHandler() *handler.ReceiptHandler
	UploadHandler() *handler.UploadHandler
	HealthHandler() *handler.HealthHandler
	RateLimiter() *middleware.RateLimiter
	AIRateLimiter() *middleware.RateLimiter
}

// NewRouter 新しいルーターを作成
func NewRouter(container Container) http.Handler {
	mux := http.NewServeMux()

	// レシートAPI。解析はAIモデル呼び出しを伴うため個別の厳しい制限をかける
	receiptHandler := container.ReceiptHandler()
	aiLimiter := container.AIRateLimiter()
	mux.Handle("POST /api/v1/receipts/process", aiLimiter.Limit(http.HandlerFunc(receiptHandler.HandleProcess)))
	mux.HandleFunc("GET /api/v1/receipts", receiptHandler.HandleList)
	mux.HandleFunc("GET /api/v1/receipts/{id}", receiptHandler.HandleGet)

	// アップロードAPI
	uploadHandler := container.UploadHandler()
	mux.HandleFunc("POST /api/v1/uploads/token", uploadHandler.HandleIssueToken)
	mux.HandleFunc("PUT /api/v1/uploads", uploadHandler.HandleUpload)

	// Health check
	mux.Handle("/health", container.HealthHandler())

	// ミドルウェアの適用
	var h http.Handler = mux
	h = container.RateLimiter().Limit(h)
	h = middleware.Recovery(h)
	h = middleware.LoggerWithHealthCheck(h)
	h = middleware.SecurityHeaders(h)
	h = middleware.CORS(h)

	return h
}
