package repository

import (
	"context"

	"github.com/xiaotiantakumi/receiptify/internal/schema"
)

// VisionRepository レシート画像解析のリポジトリインターフェース
type VisionRepository interface {
	// ExtractReceipt レシート画像から構造化データを抽出
	// 返り値はスキーマ検証済みの応答。ドメインへの変換は呼び出し側が行う。
	ExtractReceipt(ctx context.Context, imageData []byte, mimeType string) (*schema.VisionResponse, error)

	// ProviderName プロバイダー名を返す
	ProviderName() string
}
