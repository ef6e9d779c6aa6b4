// Package blob レシート画像の永続化
// 画像バイナリとメタデータをbboltの単一ファイルに保存する。
package blob

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/xiaotiantakumi/receiptify/internal/config"
	"github.com/xiaotiantakumi/receiptify/internal/domain/repository"
)

const (
	imageBucket = "images"
	metaBucket  = "image_meta"
)

// imageMeta 画像に付随するメタデータ
type imageMeta struct {
	ContentType string    `json:"contentType"`
	Size        int       `json:"size"`
	StoredAt    time.Time `json:"storedAt"`
}

// BoltImageRepository bbolt実装
type BoltImageRepository struct {
	db *bbolt.DB
}

// NewBoltImageRepository 新しいBoltImageRepositoryを作成
func NewBoltImageRepository(cfg *config.BlobConfig) (*BoltImageRepository, error) {
	db, err := bbolt.Open(cfg.Path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open blob store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(imageBucket)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(metaBucket)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &BoltImageRepository{db: db}, nil
}

// Save 画像を保存（同名が存在すれば上書き）
func (r *BoltImageRepository) Save(ctx context.Context, name string, img *repository.StoredImage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	meta, err := json.Marshal(imageMeta{
		ContentType: img.ContentType,
		Size:        len(img.Data),
		StoredAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal image meta: %w", err)
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket([]byte(imageBucket)).Put([]byte(name), img.Data); err != nil {
			return fmt.Errorf("failed to save image: %w", err)
		}
		if err := tx.Bucket([]byte(metaBucket)).Put([]byte(name), meta); err != nil {
			return fmt.Errorf("failed to save image meta: %w", err)
		}
		return nil
	})
}

// Load 画像を取得
func (r *BoltImageRepository) Load(ctx context.Context, name string) (*repository.StoredImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var img *repository.StoredImage
	err := r.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(imageBucket)).Get([]byte(name))
		if data == nil {
			return fmt.Errorf("%w: %s", repository.ErrImageNotFound, name)
		}

		// bboltのバイト列はトランザクション外では無効になるため複製する
		img = &repository.StoredImage{Data: append([]byte(nil), data...)}

		if metaData := tx.Bucket([]byte(metaBucket)).Get([]byte(name)); metaData != nil {
			var meta imageMeta
			if err := json.Unmarshal(metaData, &meta); err != nil {
				return fmt.Errorf("failed to unmarshal image meta: %w", err)
			}
			img.ContentType = meta.ContentType
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return img, nil
}

// Exists 画像が存在するか確認
func (r *BoltImageRepository) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var found bool
	err := r.db.View(func(tx *bbolt.Tx) error {
		found = tx.Bucket([]byte(imageBucket)).Get([]byte(name)) != nil
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to check image existence: %w", err)
	}
	return found, nil
}

// Delete 画像を削除
func (r *BoltImageRepository) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket([]byte(imageBucket)).Delete([]byte(name)); err != nil {
			return fmt.Errorf("failed to delete image: %w", err)
		}
		if err := tx.Bucket([]byte(metaBucket)).Delete([]byte(name)); err != nil {
			return fmt.Errorf("failed to delete image meta: %w", err)
		}
		return nil
	})
}

// Close ストアを閉じる
func (r *BoltImageRepository) Close() error {
	return r.db.Close()
}
