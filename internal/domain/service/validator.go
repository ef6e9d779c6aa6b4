package service

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG形式のサポート
	_ "image/png"  // PNG形式のサポート
	"net/http"
	"strings"
)

// MaxImageSize アップロード可能な画像の上限サイズ
const MaxImageSize = 10 * 1024 * 1024

var pdfMagic = []byte("%PDF-")

// ValidateReceiptImage レシート画像データを検証し、MIMEタイプを返す
// 対応形式はJPEG・PNG・WebP・PDF。
func ValidateReceiptImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("image data is empty")
	}

	if len(data) > MaxImageSize {
		return "", errors.New("image size exceeds 10MB")
	}

	if bytes.HasPrefix(data, pdfMagic) {
		return "application/pdf", nil
	}

	mimeType := http.DetectContentType(data)
	switch mimeType {
	case "image/jpeg", "image/png", "image/webp":
	default:
		return "", fmt.Errorf("unsupported format: %s", mimeType)
	}

	// ヘッダだけでなく画像として解釈できることを確認（WebPはデコーダ未登録のため対象外）
	if strings.HasPrefix(mimeType, "image/") && mimeType != "image/webp" {
		if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
			return "", fmt.Errorf("invalid image format: %w", err)
		}
	}

	return mimeType, nil
}

// MimeTypeForBlobName Blob名の拡張子からMIMEタイプを推定
func MimeTypeForBlobName(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	case strings.HasSuffix(lower, ".pdf"):
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
