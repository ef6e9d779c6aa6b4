package handler

import (
	"context"

	"github.com/xiaotiantakumi/receiptify/internal/domain/entity"
	"github.com/xiaotiantakumi/receiptify/internal/infrastructure/uploadtoken"
	"github.com/xiaotiantakumi/receiptify/internal/schema"
)

// ReceiptUseCaseInterface はレシート処理ユースケースのインターフェース
type ReceiptUseCaseInterface interface {
	ProcessReceipt(ctx context.Context, blobName, userID string) (*entity.Receipt, error)
	GetReceipt(ctx context.Context, userID, receiptID string) (*entity.Receipt, error)
	ListReceipts(ctx context.Context, userID string, q schema.ListReceiptsQuery) ([]*entity.Receipt, error)
	IssueUploadToken(fileName string) (*uploadtoken.Credential, error)
	UploadImage(ctx context.Context, token, blobName string, data []byte) error
}
