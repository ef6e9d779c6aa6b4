package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xiaotiantakumi/receiptify/internal/domain/entity"
	"github.com/xiaotiantakumi/receiptify/internal/domain/repository"
	"github.com/xiaotiantakumi/receiptify/internal/domain/service"
	"github.com/xiaotiantakumi/receiptify/internal/domain/valueobject"
	"github.com/xiaotiantakumi/receiptify/internal/infrastructure/uploadtoken"
	"github.com/xiaotiantakumi/receiptify/internal/schema"
)

// defaultCacheTTL 解析結果キャッシュの既定の有効期限
const defaultCacheTTL = 24 * time.Hour

// ReceiptUseCase レシート処理のユースケース
type ReceiptUseCase struct {
	visionRepo  repository.VisionRepository
	receiptRepo repository.ReceiptRepository
	cacheRepo   repository.CacheRepository
	imageRepo   repository.ImageRepository
	tokenIssuer *uploadtoken.Issuer
	cacheTTL    time.Duration
}

// NewReceiptUseCase 新しいReceiptUseCaseを作成
// cacheTTLが0以下の場合は既定値（24時間）を使用する。
func NewReceiptUseCase(
	visionRepo repository.VisionRepository,
	receiptRepo repository.ReceiptRepository,
	cacheRepo repository.CacheRepository,
	imageRepo repository.ImageRepository,
	tokenIssuer *uploadtoken.Issuer,
	cacheTTL time.Duration,
) *ReceiptUseCase {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return &ReceiptUseCase{
		visionRepo:  visionRepo,
		receiptRepo: receiptRepo,
		cacheRepo:   cacheRepo,
		imageRepo:   imageRepo,
		tokenIssuer: tokenIssuer,
		cacheTTL:    cacheTTL,
	}
}

// ProcessReceipt アップロード済みのレシート画像を解析して保存
// 解析や抽出結果の検証に失敗した場合も、失敗ステータスのレシートとして
// 永続化した上でそのレシートを返す。エラーを返すのはインフラ障害のみ。
func (uc *ReceiptUseCase) ProcessReceipt(ctx context.Context, blobName, rawUserID string) (*entity.Receipt, error) {
	userID, err := valueobject.NewUserID(rawUserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	img, err := uc.imageRepo.Load(ctx, blobName)
	if err != nil {
		return nil, fmt.Errorf("failed to load receipt image: %w", err)
	}
	if img.ContentType == "" {
		img.ContentType = service.MimeTypeForBlobName(blobName)
	}

	receipt, err := entity.NewReceipt(uuid.NewString(), userID, "blob://"+blobName)
	if err != nil {
		return nil, fmt.Errorf("failed to create receipt: %w", err)
	}

	vision, visionErr := uc.extractWithCache(ctx, img)
	if visionErr != nil {
		return uc.persistFailure(ctx, receipt, fmt.Sprintf("解析に失敗しました: %v", visionErr))
	}

	date, lines, suggestions, notes, convErr := toDomainResult(vision)
	if convErr != nil {
		return uc.persistFailure(ctx, receipt, fmt.Sprintf("抽出結果の検証に失敗しました: %v", convErr))
	}

	completed, err := receipt.MarkAsCompleted(date, lines, suggestions, notes)
	if err != nil {
		return uc.persistFailure(ctx, receipt, fmt.Sprintf("抽出結果の検証に失敗しました: %v", err))
	}

	if err := uc.receiptRepo.Upsert(ctx, completed); err != nil {
		return nil, fmt.Errorf("failed to save receipt: %w", err)
	}
	return completed, nil
}

// GetReceipt レシートを取得
func (uc *ReceiptUseCase) GetReceipt(ctx context.Context, userID, receiptID string) (*entity.Receipt, error) {
	return uc.receiptRepo.FindByKey(ctx, userID, receiptID)
}

// ListReceipts ユーザーのレシート一覧を作成日時の降順で取得
func (uc *ReceiptUseCase) ListReceipts(ctx context.Context, userID string, q schema.ListReceiptsQuery) ([]*entity.Receipt, error) {
	if _, err := valueobject.NewUserID(userID); err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}
	return uc.receiptRepo.FindByUser(ctx, userID, q.Limit, q.Offset)
}

// IssueUploadToken アップロード用の署名付き資格情報を発行
func (uc *ReceiptUseCase) IssueUploadToken(fileName string) (*uploadtoken.Credential, error) {
	return uc.tokenIssuer.Issue(fileName)
}

// UploadImage トークンを検証してレシート画像を保存
func (uc *ReceiptUseCase) UploadImage(ctx context.Context, token, blobName string, data []byte) error {
	if err := uc.tokenIssuer.Verify(token, blobName); err != nil {
		return err
	}

	mimeType, err := service.ValidateReceiptImage(data)
	if err != nil {
		return fmt.Errorf("invalid receipt image: %w", err)
	}

	if err := uc.imageRepo.Save(ctx, blobName, &repository.StoredImage{
		Data:        data,
		ContentType: mimeType,
	}); err != nil {
		return fmt.Errorf("failed to save receipt image: %w", err)
	}
	return nil
}

// extractWithCache 画像ハッシュをキーに解析結果をキャッシュする
// 同一画像の再処理ではAIモデルを呼ばない。
func (uc *ReceiptUseCase) extractWithCache(ctx context.Context, img *repository.StoredImage) (*schema.VisionResponse, error) {
	// MIMEタイプが判定できていない場合は内容から推定する
	mimeType := img.ContentType
	if mimeType == "" || mimeType == "application/octet-stream" {
		m, err := service.ValidateReceiptImage(img.Data)
		if err != nil {
			return nil, err
		}
		mimeType = m
	}

	cacheKey := visionCacheKey(img.Data)

	if uc.cacheRepo != nil {
		if cached, err := uc.cacheRepo.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			var resp schema.VisionResponse
			if err := json.Unmarshal(cached, &resp); err == nil {
				if err := schema.ValidateVisionResponse(&resp); err == nil {
					return &resp, nil
				}
			}
			// 壊れたキャッシュは無視して解析し直す
			_ = uc.cacheRepo.Delete(ctx, cacheKey)
		}
	}

	resp, err := uc.visionRepo.ExtractReceipt(ctx, img.Data, mimeType)
	if err != nil {
		return nil, err
	}

	if uc.cacheRepo != nil {
		if data, err := json.Marshal(resp); err == nil {
			_ = uc.cacheRepo.Set(ctx, cacheKey, data, uc.cacheTTL)
		}
	}
	return resp, nil
}

// persistFailure 失敗ステータスのレシートを保存して返す
func (uc *ReceiptUseCase) persistFailure(ctx context.Context, receipt *entity.Receipt, message string) (*entity.Receipt, error) {
	failed, err := receipt.MarkAsFailed(message)
	if err != nil {
		return nil, fmt.Errorf("failed to mark receipt as failed: %w", err)
	}
	if err := uc.receiptRepo.Upsert(ctx, failed); err != nil {
		return nil, fmt.Errorf("failed to save failed receipt: %w", err)
	}
	return failed, nil
}

// toDomainResult スキーマ検証済みの解析応答をドメインの値に変換
func toDomainResult(resp *schema.VisionResponse) (
	valueobject.ReceiptDate,
	[]entity.ReceiptLine,
	[]string,
	[]string,
	error,
) {
	var zero valueobject.ReceiptDate

	date, err := valueobject.NewReceiptDate(resp.ReceiptDate)
	if err != nil {
		return zero, nil, nil, nil, err
	}

	lines := make([]entity.ReceiptLine, 0, len(resp.Items))
	suggestions := make([]string, 0, len(resp.Items))
	notes := make([]string, 0, len(resp.Items))

	for _, item := range resp.Items {
		name, err := valueobject.NewItemName(item.Name)
		if err != nil {
			return zero, nil, nil, nil, fmt.Errorf("item %q: %w", item.Name, err)
		}

		price, err := valueobject.NewMoneyFromYen(item.Price)
		if err != nil {
			return zero, nil, nil, nil, fmt.Errorf("item %q: %w", item.Name, err)
		}

		// 勘定科目の候補はモデルの自由記述を許容するため、
		// スキーマ検証済みの文字列をそのまま保持する
		suggestion := item.AccountSuggestion
		if suggestion != "" {
			suggestions = append(suggestions, suggestion)
		}

		note := item.TaxNote
		if note != "" {
			tn, err := valueobject.NewTaxNote(note)
			if err != nil {
				return zero, nil, nil, nil, fmt.Errorf("item %q: %w", item.Name, err)
			}
			note = tn.String()
			notes = append(notes, note)
		}

		lines = append(lines, entity.ReceiptLine{
			Name:              name.String(),
			Price:             price,
			Category:          item.Category,
			AccountSuggestion: suggestion,
			TaxNote:           note,
		})
	}

	// モデル申告のtotalAmountは採用しない。合計は常に明細の合計から計算する
	return date, lines, suggestions, notes, nil
}

func visionCacheKey(imageData []byte) string {
	hash := sha256.Sum256(imageData)
	return "receipt:vision:" + hex.EncodeToString(hash[:])
}
