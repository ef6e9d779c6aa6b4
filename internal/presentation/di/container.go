package di

import (
	"context"
	"fmt"

	"github.com/xiaotiantakumi/receiptify/internal/config"
	"github.com/xiaotiantakumi/receiptify/internal/infrastructure/ai"
	"github.com/xiaotiantakumi/receiptify/internal/infrastructure/blob"
	"github.com/xiaotiantakumi/receiptify/internal/infrastructure/cache"
	"github.com/xiaotiantakumi/receiptify/internal/infrastructure/database"
	"github.com/xiaotiantakumi/receiptify/internal/infrastructure/uploadtoken"
	"github.com/xiaotiantakumi/receiptify/internal/presentation/http/handler"
	"github.com/xiaotiantakumi/receiptify/internal/presentation/http/middleware"
	"github.com/xiaotiantakumi/receiptify/internal/usecase"
)

// Container DIコンテナ
type Container struct {
	// Infrastructure
	visionRepo  *ai.GeminiRepository
	cacheRepo   *cache.RedisRepository
	receiptRepo *database.BunReceiptRepository
	imageRepo   *blob.BoltImageRepository
	tokenIssuer *uploadtoken.Issuer

	// UseCase
	receiptUseCase *usecase.ReceiptUseCase

	// Handler
	receiptHandler *handler.ReceiptHandler
	uploadHandler  *handler.UploadHandler
	healthHandler  *handler.HealthHandler

	// Middleware
	rateLimiter   *middleware.RateLimiter
	aiRateLimiter *middleware.RateLimiter
}

// NewContainer 新しいContainerを作成
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{}

	visionRepo, err := ai.NewGeminiRepository(ctx, &cfg.Gemini)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vision repository: %w", err)
	}
	container.visionRepo = visionRepo

	cacheRepo, err := cache.NewRedisRepository(&cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache repository: %w", err)
	}
	container.cacheRepo = cacheRepo

	receiptRepo, err := database.NewBunReceiptRepository(&cfg.MySQL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize receipt repository: %w", err)
	}
	container.receiptRepo = receiptRepo

	imageRepo, err := blob.NewBoltImageRepository(&cfg.Blob)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize image repository: %w", err)
	}
	container.imageRepo = imageRepo

	container.tokenIssuer = uploadtoken.NewIssuer(&cfg.Upload)

	container.receiptUseCase = usecase.NewReceiptUseCase(
		visionRepo,
		receiptRepo,
		cacheRepo,
		imageRepo,
		container.tokenIssuer,
		cfg.Limits.CacheRetention,
	)

	container.receiptHandler = handler.NewReceiptHandler(container.receiptUseCase)
	container.uploadHandler = handler.NewUploadHandler(container.receiptUseCase)
	container.healthHandler = handler.NewHealthHandler(cacheRepo)

	container.rateLimiter = middleware.NewRateLimiter(
		cacheRepo, cfg.Limits.Window, cfg.Limits.MaxRequests, "global")
	container.aiRateLimiter = middleware.NewRateLimiter(
		cacheRepo, cfg.Limits.Window, cfg.Limits.MaxAIRequests, "process")

	return container, nil
}

// ReceiptUseCase レシート処理ユースケースを取得
func (c *Container) ReceiptUseCase() *usecase.ReceiptUseCase {
	return c.receiptUseCase
}

// ReceiptHandler レシートAPIハンドラーを取得
func (c *Container) ReceiptHandler() *handler.ReceiptHandler {
	return c.receiptHandler
}

// UploadHandler アップロードAPIハンドラーを取得
func (c *Container) UploadHandler() *handler.UploadHandler {
	return c.uploadHandler
}

// HealthHandler ヘルスチェックハンドラーを取得
func (c *Container) HealthHandler() *handler.HealthHandler {
	return c.healthHandler
}

// RateLimiter 全体に適用するレート制限を取得
func (c *Container) RateLimiter() *middleware.RateLimiter {
	return c.rateLimiter
}

// AIRateLimiter 解析エンドポイント用のレート制限を取得
func (c *Container) AIRateLimiter() *middleware.RateLimiter {
	return c.aiRateLimiter
}

// Close リソースをクローズ
func (c *Container) Close() error {
	if c.visionRepo != nil {
		if err := c.visionRepo.Close(); err != nil {
			return fmt.Errorf("failed to close vision repository: %w", err)
		}
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Close(); err != nil {
			return fmt.Errorf("failed to close cache repository: %w", err)
		}
	}

	if c.receiptRepo != nil {
		if err := c.receiptRepo.Close(); err != nil {
			return fmt.Errorf("failed to close receipt repository: %w", err)
		}
	}

	if c.imageRepo != nil {
		if err := c.imageRepo.Close(); err != nil {
			return fmt.Errorf("failed to close image repository: %w", err)
		}
	}

	return nil
}
