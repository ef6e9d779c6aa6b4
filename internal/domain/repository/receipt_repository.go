package repository

import (
	"context"
	"errors"

	"github.com/xiaotiantakumi/receiptify/internal/domain/entity"
)

// ErrReceiptNotFound 指定キーのレシートが存在しない
var ErrReceiptNotFound = errors.New("receipt not found")

// ReceiptRepository レシートリポジトリのインターフェース
// レシートは(ユーザーID, レシートID)の複合キーで一意に特定される。
type ReceiptRepository interface {
	// Upsert レシートを保存（同一キーが存在すれば上書き）
	Upsert(ctx context.Context, receipt *entity.Receipt) error

	// FindByKey ユーザーIDとレシートIDでレシートを検索
	// 見つからない場合はErrReceiptNotFoundを返す。
	FindByKey(ctx context.Context, userID, receiptID string) (*entity.Receipt, error)

	// FindByUser ユーザーのレシートを作成日時の降順で取得
	FindByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Receipt, error)

	// Delete レシートを削除
	Delete(ctx context.Context, userID, receiptID string) error
}
