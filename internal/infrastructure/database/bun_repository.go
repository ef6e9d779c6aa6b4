package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"

	_ "github.com/go-sql-driver/mysql"

	"github.com/xiaotiantakumi/receiptify/internal/config"
	"github.com/xiaotiantakumi/receiptify/internal/domain/entity"
	"github.com/xiaotiantakumi/receiptify/internal/domain/repository"
	"github.com/xiaotiantakumi/receiptify/internal/domain/valueobject"
)

// ReceiptRow BUNモデル
// レシートは(user_id, receipt_id)の複合キーで一意。明細はJSONカラムに保持する。
type ReceiptRow struct {
	bun.BaseModel `bun:"table:receipts"`

	UserID             string    `bun:"user_id,pk,type:varchar(100)"`
	ReceiptID          string    `bun:"receipt_id,pk,type:varchar(36)"`
	ImageURL           string    `bun:"image_url,notnull,type:varchar(2048)"`
	Status             string    `bun:"status,notnull,type:varchar(16)"`
	ReceiptDate        *string   `bun:"receipt_date,type:varchar(10)"`
	TotalAmountSen     *int64    `bun:"total_amount_sen"`
	Items              []byte    `bun:"items,type:json"`
	AccountSuggestions []string  `bun:"account_suggestions,type:json"`
	TaxNotes           []string  `bun:"tax_notes,type:json"`
	ErrorMessage       string    `bun:"error_message,type:text"`
	CreatedAt          time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt          time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// receiptLineRow 明細JSONの1要素
type receiptLineRow struct {
	Name              string `json:"name"`
	PriceSen          int64  `json:"priceSen"`
	Category          string `json:"category,omitempty"`
	AccountSuggestion string `json:"accountSuggestion,omitempty"`
	TaxNote           string `json:"taxNote,omitempty"`
}

// BunReceiptRepository BUN実装
type BunReceiptRepository struct {
	db *bun.DB
}

// NewBunReceiptRepository 新しいBunReceiptRepositoryを作成
func NewBunReceiptRepository(cfg *config.MySQLConfig) (*BunReceiptRepository, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=Local",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	sqldb, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := bun.NewDB(sqldb, mysqldialect.New())

	// 接続確認
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &BunReceiptRepository{db: db}, nil
}

// NewBunReceiptRepositoryWithDB DBインスタンスから作成（テスト用）
func NewBunReceiptRepositoryWithDB(db *bun.DB) *BunReceiptRepository {
	return &BunReceiptRepository{db: db}
}

// Upsert レシートを保存（同一キーが存在すれば上書き）
func (r *BunReceiptRepository) Upsert(ctx context.Context, receipt *entity.Receipt) error {
	row, err := toRow(receipt)
	if err != nil {
		return err
	}

	_, err = r.db.NewInsert().
		Model(row).
		On("DUPLICATE KEY UPDATE").
		Set("image_url = VALUES(image_url)").
		Set("status = VALUES(status)").
		Set("receipt_date = VALUES(receipt_date)").
		Set("total_amount_sen = VALUES(total_amount_sen)").
		Set("items = VALUES(items)").
		Set("account_suggestions = VALUES(account_suggestions)").
		Set("tax_notes = VALUES(tax_notes)").
		Set("error_message = VALUES(error_message)").
		Set("updated_at = VALUES(updated_at)").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert receipt: %w", err)
	}
	return nil
}

// FindByKey ユーザーIDとレシートIDでレシートを検索
func (r *BunReceiptRepository) FindByKey(ctx context.Context, userID, receiptID string) (*entity.Receipt, error) {
	row := &ReceiptRow{}
	err := r.db.NewSelect().
		Model(row).
		Where("user_id = ?", userID).
		Where("receipt_id = ?", receiptID).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", repository.ErrReceiptNotFound, userID, receiptID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find receipt: %w", err)
	}

	return toEntity(row)
}

// FindByUser ユーザーのレシートを作成日時の降順で取得
func (r *BunReceiptRepository) FindByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Receipt, error) {
	var rows []ReceiptRow
	query := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Order("created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to find receipts: %w", err)
	}

	receipts := make([]*entity.Receipt, len(rows))
	for i := range rows {
		receipt, err := toEntity(&rows[i])
		if err != nil {
			return nil, err
		}
		receipts[i] = receipt
	}
	return receipts, nil
}

// Delete レシートを削除
func (r *BunReceiptRepository) Delete(ctx context.Context, userID, receiptID string) error {
	_, err := r.db.NewDelete().
		Model((*ReceiptRow)(nil)).
		Where("user_id = ?", userID).
		Where("receipt_id = ?", receiptID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}
	return nil
}

// Close データベース接続を閉じる
func (r *BunReceiptRepository) Close() error {
	return r.db.Close()
}

// toRow エンティティをモデルに変換
func toRow(receipt *entity.Receipt) (*ReceiptRow, error) {
	s := receipt.Snapshot()

	row := &ReceiptRow{
		UserID:             s.UserID.String(),
		ReceiptID:          s.ID,
		ImageURL:           s.ImageURL,
		Status:             string(s.Status),
		AccountSuggestions: s.AccountSuggestions,
		TaxNotes:           s.TaxNotes,
		ErrorMessage:       s.ErrorMessage,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}

	if !s.ReceiptDate.IsZero() {
		d := s.ReceiptDate.String()
		row.ReceiptDate = &d
	}

	if s.TotalAmount != nil {
		sen := s.TotalAmount.AmountInSen()
		row.TotalAmountSen = &sen
	}

	if len(s.Items) > 0 {
		lines := make([]receiptLineRow, len(s.Items))
		for i, item := range s.Items {
			lines[i] = receiptLineRow{
				Name:              item.Name,
				PriceSen:          item.Price.AmountInSen(),
				Category:          item.Category,
				AccountSuggestion: item.AccountSuggestion,
				TaxNote:           item.TaxNote,
			}
		}
		data, err := json.Marshal(lines)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal receipt items: %w", err)
		}
		row.Items = data
	}

	if row.AccountSuggestions == nil {
		row.AccountSuggestions = []string{}
	}
	if row.TaxNotes == nil {
		row.TaxNotes = []string{}
	}

	return row, nil
}

// toEntity モデルをエンティティに変換
// 復元時もドメインの不変条件検証をすべて通す。
func toEntity(row *ReceiptRow) (*entity.Receipt, error) {
	userID, err := valueobject.NewUserID(row.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to restore user id: %w", err)
	}

	snapshot := entity.ReceiptSnapshot{
		ID:                 row.ReceiptID,
		UserID:             userID,
		ImageURL:           row.ImageURL,
		Status:             entity.ReceiptStatus(row.Status),
		AccountSuggestions: row.AccountSuggestions,
		TaxNotes:           row.TaxNotes,
		ErrorMessage:       row.ErrorMessage,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}

	if row.ReceiptDate != nil {
		date, err := valueobject.NewReceiptDate(*row.ReceiptDate)
		if err != nil {
			return nil, fmt.Errorf("failed to restore receipt date: %w", err)
		}
		snapshot.ReceiptDate = date
	}

	if row.TotalAmountSen != nil {
		total, err := valueobject.NewMoneyFromSen(*row.TotalAmountSen)
		if err != nil {
			return nil, fmt.Errorf("failed to restore total amount: %w", err)
		}
		snapshot.TotalAmount = &total
	}

	if len(row.Items) > 0 {
		var lines []receiptLineRow
		if err := json.Unmarshal(row.Items, &lines); err != nil {
			return nil, fmt.Errorf("failed to unmarshal receipt items: %w", err)
		}
		snapshot.Items = make([]entity.ReceiptLine, len(lines))
		for i, line := range lines {
			price, err := valueobject.NewMoneyFromSen(line.PriceSen)
			if err != nil {
				return nil, fmt.Errorf("failed to restore item price: %w", err)
			}
			snapshot.Items[i] = entity.ReceiptLine{
				Name:              line.Name,
				Price:             price,
				Category:          line.Category,
				AccountSuggestion: line.AccountSuggestion,
				TaxNote:           line.TaxNote,
			}
		}
	}

	receipt, err := entity.ReconstituteReceipt(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstitute receipt: %w", err)
	}
	return receipt, nil
}
