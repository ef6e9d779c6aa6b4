package repository

import (
	"context"
	"errors"
)

// ErrImageNotFound 指定名の画像が存在しない
var ErrImageNotFound = errors.New("image not found")

// StoredImage 保存済み画像とそのメタデータ
type StoredImage struct {
	Data        []byte
	ContentType string
}

// ImageRepository レシート画像ストアのインターフェース
type ImageRepository interface {
	// Save 画像を保存（同名が存在すれば上書き）
	Save(ctx context.Context, name string, img *StoredImage) error

	// Load 画像を取得
	// 見つからない場合はErrImageNotFoundを返す。
	Load(ctx context.Context, name string) (*StoredImage, error)

	// Exists 画像が存在するか確認
	Exists(ctx context.Context, name string) (bool, error)

	// Delete 画像を削除
	Delete(ctx context.Context, name string) error
}
