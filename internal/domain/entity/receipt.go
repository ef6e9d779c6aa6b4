package entity

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/xiaotiantakumi/receiptify/internal/domain/valueobject"
)

// ReceiptStatus レシート処理のステータス
type ReceiptStatus string

const (
	// StatusProcessing 解析処理中（初期状態）
	StatusProcessing ReceiptStatus = "processing"
	// StatusCompleted 解析完了（終端状態）
	StatusCompleted ReceiptStatus = "completed"
	// StatusFailed 解析失敗（終端状態）
	StatusFailed ReceiptStatus = "failed"
)

var (
	ErrInvalidReceiptID     = errors.New("receipt id must be a valid UUID")
	ErrInvalidImageURL      = errors.New("receipt image url must be a valid URL")
	ErrInvalidStatus        = errors.New("invalid receipt status")
	ErrReceiptDateRequired  = errors.New("receipt date is required when status is completed")
	ErrErrorMessageRequired = errors.New("error message is required when status is failed")
	ErrTotalMismatch        = errors.New("total amount does not match the sum of item prices")
	ErrAlreadyCompleted     = errors.New("receipt is already completed")
	ErrEmptyItemList        = errors.New("at least one item is required to complete the receipt")
	ErrEmptyErrorMessage    = errors.New("error message is required when marking receipt as failed")
	ErrImmutableStatus      = errors.New("cannot update items of a terminal-status receipt")
)

// バージョンは問わないUUID形式（8-4-4-4-12）
var receiptIDPattern = regexp.MustCompile(`^(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ReceiptLine レシート集約が保持する明細の軽量表現
// ReceiptItemエンティティとは別物で、解析結果の1行をそのまま表す。
type ReceiptLine struct {
	Name              string
	Price             valueobject.Money
	Category          string
	AccountSuggestion string
	TaxNote           string
}

// Receipt レシート集約ルート
// ステータス状態機械と合計金額の整合性を含む全ビジネスルールを、
// 生成・復元・遷移のすべての経路で強制する。構築後は不変。
type Receipt struct {
	id                 string
	userID             valueobject.UserID
	imageURL           string
	status             ReceiptStatus
	receiptDate        valueobject.ReceiptDate
	items              []ReceiptLine
	totalAmount        *valueobject.Money
	accountSuggestions []string
	taxNotes           []string
	errorMessage       string
	createdAt          time.Time
	updatedAt          time.Time
}

// ReceiptSnapshot 集約の完全な外部表現
// ReconstituteReceiptの入力およびSnapshotの出力。
type ReceiptSnapshot struct {
	ID                 string
	UserID             valueobject.UserID
	ImageURL           string
	Status             ReceiptStatus
	ReceiptDate        valueobject.ReceiptDate
	Items              []ReceiptLine
	TotalAmount        *valueobject.Money
	AccountSuggestions []string
	TaxNotes           []string
	ErrorMessage       string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewReceipt 処理開始時の新しいReceiptを作成（statusはprocessing）
func NewReceipt(id string, userID valueobject.UserID, imageURL string) (*Receipt, error) {
	return NewReceiptAt(id, userID, imageURL, time.Now())
}

// NewReceiptAt 作成日時を指定して新しいReceiptを作成
func NewReceiptAt(id string, userID valueobject.UserID, imageURL string, createdAt time.Time) (*Receipt, error) {
	if err := validateReceiptID(id); err != nil {
		return nil, err
	}
	if err := validateImageURL(imageURL); err != nil {
		return nil, err
	}

	return newReceipt(ReceiptSnapshot{
		ID:        strings.TrimSpace(id),
		UserID:    userID,
		ImageURL:  imageURL,
		Status:    StatusProcessing,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	})
}

// ReconstituteReceipt 永続化済みデータからReceiptを復元
// 新規作成と同じ不変条件検証をすべて再実行する。
func ReconstituteReceipt(snapshot ReceiptSnapshot) (*Receipt, error) {
	if err := validateReceiptID(snapshot.ID); err != nil {
		return nil, err
	}
	if err := validateImageURL(snapshot.ImageURL); err != nil {
		return nil, err
	}
	return newReceipt(snapshot)
}

func newReceipt(s ReceiptSnapshot) (*Receipt, error) {
	switch s.Status {
	case StatusProcessing, StatusCompleted, StatusFailed:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, s.Status)
	}

	r := &Receipt{
		id:                 s.ID,
		userID:             s.UserID,
		imageURL:           s.ImageURL,
		status:             s.Status,
		receiptDate:        s.ReceiptDate,
		items:              copyLines(s.Items),
		totalAmount:        copyMoney(s.TotalAmount),
		accountSuggestions: copyStrings(s.AccountSuggestions),
		taxNotes:           copyStrings(s.TaxNotes),
		errorMessage:       s.ErrorMessage,
		createdAt:          s.CreatedAt,
		updatedAt:          s.UpdatedAt,
	}

	if err := r.validateBusinessRules(); err != nil {
		return nil, err
	}
	return r, nil
}

func validateReceiptID(id string) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" || !receiptIDPattern.MatchString(trimmed) {
		return fmt.Errorf("%w: %q", ErrInvalidReceiptID, id)
	}
	return nil
}

func validateImageURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return ErrInvalidImageURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		return fmt.Errorf("%w: %q", ErrInvalidImageURL, rawURL)
	}
	return nil
}

// validateBusinessRules 生成経路によらず毎回実行される不変条件の検証
func (r *Receipt) validateBusinessRules() error {
	// completedにはレシート日付が必要
	if r.status == StatusCompleted && r.receiptDate.IsZero() {
		return ErrReceiptDateRequired
	}

	// failedにはエラーメッセージが必要
	if r.status == StatusFailed && strings.TrimSpace(r.errorMessage) == "" {
		return ErrErrorMessageRequired
	}

	if len(r.items) > 0 {
		computed, err := sumLinePrices(r.items)
		if err != nil {
			return err
		}
		if r.totalAmount == nil {
			// 合計金額が未指定なら明細の合計を自動計算する
			r.totalAmount = &computed
		} else if !r.totalAmount.Equals(computed) {
			// 指定された合計と明細の合計の不一致は黙って補正せずエラーにする
			return fmt.Errorf("%w: total=%s computed=%s",
				ErrTotalMismatch, r.totalAmount.Format(), computed.Format())
		}
	}

	return nil
}

func sumLinePrices(lines []ReceiptLine) (valueobject.Money, error) {
	total, err := valueobject.NewMoneyFromYen(0)
	if err != nil {
		return valueobject.Money{}, err
	}
	for _, line := range lines {
		total, err = total.Add(line.Price)
		if err != nil {
			return valueobject.Money{}, err
		}
	}
	return total, nil
}

// MarkAsCompleted 処理を完了状態に遷移した新しいReceiptを返す
// 明細は1件以上必須。完了済みのレシートを再完了することはできない。
// 合計金額は明細の合計として再計算する。
func (r *Receipt) MarkAsCompleted(
	receiptDate valueobject.ReceiptDate,
	items []ReceiptLine,
	accountSuggestions []string,
	taxNotes []string,
) (*Receipt, error) {
	if r.status == StatusCompleted {
		return nil, ErrAlreadyCompleted
	}
	if len(items) == 0 {
		return nil, ErrEmptyItemList
	}

	total, err := sumLinePrices(items)
	if err != nil {
		return nil, err
	}

	return newReceipt(ReceiptSnapshot{
		ID:                 r.id,
		UserID:             r.userID,
		ImageURL:           r.imageURL,
		Status:             StatusCompleted,
		ReceiptDate:        receiptDate,
		Items:              items,
		TotalAmount:        &total,
		AccountSuggestions: accountSuggestions,
		TaxNotes:           taxNotes,
		CreatedAt:          r.createdAt,
		UpdatedAt:          time.Now(),
	})
}

// MarkAsFailed 処理を失敗状態に遷移した新しいReceiptを返す
// 完了済みのレシートを失敗で上書きすることはできない。
// 失敗済みのレシートへの再適用は許可する（メッセージと更新日時が入れ替わる）。
func (r *Receipt) MarkAsFailed(errorMessage string) (*Receipt, error) {
	if r.status == StatusCompleted {
		return nil, fmt.Errorf("%w: cannot mark completed receipt as failed", ErrAlreadyCompleted)
	}
	trimmed := strings.TrimSpace(errorMessage)
	if trimmed == "" {
		return nil, ErrEmptyErrorMessage
	}

	return newReceipt(ReceiptSnapshot{
		ID:                 r.id,
		UserID:             r.userID,
		ImageURL:           r.imageURL,
		Status:             StatusFailed,
		ReceiptDate:        r.receiptDate,
		Items:              r.items,
		TotalAmount:        r.totalAmount,
		AccountSuggestions: r.accountSuggestions,
		TaxNotes:           r.taxNotes,
		ErrorMessage:       trimmed,
		CreatedAt:          r.createdAt,
		UpdatedAt:          time.Now(),
	})
}

// UpdateItems 明細を差し替えた新しいReceiptを返す（processing中のみ）
// 明細が空の場合、合計金額はゼロではなく未設定になる。
func (r *Receipt) UpdateItems(items []ReceiptLine) (*Receipt, error) {
	if r.status != StatusProcessing {
		return nil, fmt.Errorf("%w: status=%s", ErrImmutableStatus, r.status)
	}

	var total *valueobject.Money
	if len(items) > 0 {
		t, err := sumLinePrices(items)
		if err != nil {
			return nil, err
		}
		total = &t
	}

	return newReceipt(ReceiptSnapshot{
		ID:                 r.id,
		UserID:             r.userID,
		ImageURL:           r.imageURL,
		Status:             r.status,
		ReceiptDate:        r.receiptDate,
		Items:              items,
		TotalAmount:        total,
		AccountSuggestions: r.accountSuggestions,
		TaxNotes:           r.taxNotes,
		ErrorMessage:       r.errorMessage,
		CreatedAt:          r.createdAt,
		UpdatedAt:          time.Now(),
	})
}

// ID レシートIDを返す
func (r *Receipt) ID() string { return r.id }

// UserID 所有ユーザーのIDを返す
func (r *Receipt) UserID() valueobject.UserID { return r.userID }

// ImageURL レシート画像のURLを返す
func (r *Receipt) ImageURL() string { return r.imageURL }

// Status 現在のステータスを返す
func (r *Receipt) Status() ReceiptStatus { return r.status }

// ReceiptDate レシート日付を返す（未設定ならゼロ値）
func (r *Receipt) ReceiptDate() valueobject.ReceiptDate { return r.receiptDate }

// Items 明細の複製を返す
func (r *Receipt) Items() []ReceiptLine { return copyLines(r.items) }

// TotalAmount 合計金額を返す（未設定ならnil）
func (r *Receipt) TotalAmount() *valueobject.Money { return copyMoney(r.totalAmount) }

// AccountSuggestions 勘定科目の提案一覧の複製を返す
func (r *Receipt) AccountSuggestions() []string { return copyStrings(r.accountSuggestions) }

// TaxNotes 税務メモ一覧の複製を返す
func (r *Receipt) TaxNotes() []string { return copyStrings(r.taxNotes) }

// ErrorMessage エラーメッセージを返す（失敗時以外は空）
func (r *Receipt) ErrorMessage() string { return r.errorMessage }

// CreatedAt 作成日時を返す
func (r *Receipt) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt 更新日時を返す
func (r *Receipt) UpdatedAt() time.Time { return r.updatedAt }

// IsProcessing 処理中かどうか
func (r *Receipt) IsProcessing() bool { return r.status == StatusProcessing }

// IsCompleted 完了済みかどうか
func (r *Receipt) IsCompleted() bool { return r.status == StatusCompleted }

// IsFailed 失敗済みかどうか
func (r *Receipt) IsFailed() bool { return r.status == StatusFailed }

// Equals IDと所有ユーザーによる等価比較（内容は比較しない）
func (r *Receipt) Equals(other *Receipt) bool {
	if other == nil {
		return false
	}
	return r.id == other.id && r.userID.Equals(other.userID)
}

// FormattedTotalAmount 合計金額の表示用文字列を返す（未設定なら空文字）
func (r *Receipt) FormattedTotalAmount() string {
	if r.totalAmount == nil {
		return ""
	}
	return r.totalAmount.Format()
}

// FormattedReceiptDate レシート日付の表示用文字列を返す（未設定なら空文字）
func (r *Receipt) FormattedReceiptDate() string {
	if r.receiptDate.IsZero() {
		return ""
	}
	return r.receiptDate.FormatForDisplay()
}

// Snapshot 全フィールドの独立した複製を返す
// 呼び出し側がスナップショット経由で集約の内部状態を変更することはできない。
func (r *Receipt) Snapshot() ReceiptSnapshot {
	return ReceiptSnapshot{
		ID:                 r.id,
		UserID:             r.userID,
		ImageURL:           r.imageURL,
		Status:             r.status,
		ReceiptDate:        r.receiptDate,
		Items:              copyLines(r.items),
		TotalAmount:        copyMoney(r.totalAmount),
		AccountSuggestions: copyStrings(r.accountSuggestions),
		TaxNotes:           copyStrings(r.taxNotes),
		ErrorMessage:       r.errorMessage,
		CreatedAt:          r.createdAt,
		UpdatedAt:          r.updatedAt,
	}
}

func copyLines(lines []ReceiptLine) []ReceiptLine {
	if len(lines) == 0 {
		return nil
	}
	out := make([]ReceiptLine, len(lines))
	copy(out, lines)
	return out
}

func copyStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func copyMoney(m *valueobject.Money) *valueobject.Money {
	if m == nil {
		return nil
	}
	clone := *m
	return &clone
}
