package entity

import (
	"time"

	"github.com/xiaotiantakumi/receiptify/internal/domain/valueobject"
)

// highValueThresholdYen 高額商品の閾値（10万円）
const highValueThresholdYen = 100000

// ReceiptItem レシート明細エンティティ
// 1つのレシート項目を表す。等価性はIDのみで判定し、
// 更新系メソッドは同一IDを持つ新しいインスタンスを返す。
type ReceiptItem struct {
	id              valueobject.ReceiptItemID
	name            valueobject.ItemName
	price           valueobject.Money
	accountCategory *valueobject.AccountCategory
	taxNote         *valueobject.TaxNote
	purchaseDate    valueobject.ReceiptDate
	createdAt       time.Time
	updatedAt       time.Time
}

// NewReceiptItemParams 新規作成時の入力
type NewReceiptItemParams struct {
	Name            string
	PriceYen        float64
	AccountCategory string // 省略可
	TaxNote         string // 省略可
	PurchaseDate    string
}

// NewReceiptItem 生のプリミティブ値から新しいReceiptItemを作成
// 各値オブジェクトのバリデーションを通し、IDは新規生成する。
func NewReceiptItem(params NewReceiptItemParams) (*ReceiptItem, error) {
	name, err := valueobject.NewItemName(params.Name)
	if err != nil {
		return nil, err
	}
	price, err := valueobject.NewMoneyFromYen(params.PriceYen)
	if err != nil {
		return nil, err
	}
	var category *valueobject.AccountCategory
	if params.AccountCategory != "" {
		c, err := valueobject.NewAccountCategory(params.AccountCategory)
		if err != nil {
			return nil, err
		}
		category = &c
	}
	taxNote, err := valueobject.NewOptionalTaxNote(params.TaxNote)
	if err != nil {
		return nil, err
	}
	purchaseDate, err := valueobject.NewReceiptDate(params.PurchaseDate)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &ReceiptItem{
		id:              valueobject.GenerateReceiptItemID(),
		name:            name,
		price:           price,
		accountCategory: category,
		taxNote:         taxNote,
		purchaseDate:    purchaseDate,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// RestoreReceiptItemParams 永続化層からの復元時の入力
type RestoreReceiptItemParams struct {
	ID              string
	Name            string
	PriceYen        float64
	AccountCategory string
	TaxNote         string
	PurchaseDate    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RestoreReceiptItem 永続化済みデータからReceiptItemを復元
// 保存済みのデータであっても読み出しのたびに全バリデーションを再適用する。
func RestoreReceiptItem(params RestoreReceiptItemParams) (*ReceiptItem, error) {
	id, err := valueobject.NewReceiptItemID(params.ID)
	if err != nil {
		return nil, err
	}
	name, err := valueobject.NewItemName(params.Name)
	if err != nil {
		return nil, err
	}
	price, err := valueobject.NewMoneyFromYen(params.PriceYen)
	if err != nil {
		return nil, err
	}
	var category *valueobject.AccountCategory
	if params.AccountCategory != "" {
		c, err := valueobject.NewAccountCategory(params.AccountCategory)
		if err != nil {
			return nil, err
		}
		category = &c
	}
	taxNote, err := valueobject.NewOptionalTaxNote(params.TaxNote)
	if err != nil {
		return nil, err
	}
	purchaseDate, err := valueobject.NewReceiptDate(params.PurchaseDate)
	if err != nil {
		return nil, err
	}

	return &ReceiptItem{
		id:              id,
		name:            name,
		price:           price,
		accountCategory: category,
		taxNote:         taxNote,
		purchaseDate:    purchaseDate,
		createdAt:       params.CreatedAt,
		updatedAt:       params.UpdatedAt,
	}, nil
}

// ID 明細IDを返す
func (i *ReceiptItem) ID() valueobject.ReceiptItemID { return i.id }

// Name 商品名を返す
func (i *ReceiptItem) Name() valueobject.ItemName { return i.name }

// Price 金額を返す
func (i *ReceiptItem) Price() valueobject.Money { return i.price }

// AccountCategory 勘定科目を返す（未設定ならnil）
func (i *ReceiptItem) AccountCategory() *valueobject.AccountCategory { return i.accountCategory }

// TaxNote 税務メモを返す（未設定ならnil）
func (i *ReceiptItem) TaxNote() *valueobject.TaxNote { return i.taxNote }

// PurchaseDate 購入日を返す
func (i *ReceiptItem) PurchaseDate() valueobject.ReceiptDate { return i.purchaseDate }

// CreatedAt 作成日時を返す
func (i *ReceiptItem) CreatedAt() time.Time { return i.createdAt }

// UpdatedAt 更新日時を返す
func (i *ReceiptItem) UpdatedAt() time.Time { return i.updatedAt }

// UpdateAccountCategory 勘定科目を更新した新しいインスタンスを返す
// IDと作成日時は据え置き、更新日時のみ進める。
func (i *ReceiptItem) UpdateAccountCategory(category string) (*ReceiptItem, error) {
	c, err := valueobject.NewAccountCategory(category)
	if err != nil {
		return nil, err
	}
	clone := *i
	clone.accountCategory = &c
	clone.updatedAt = time.Now()
	return &clone, nil
}

// UpdateTaxNote 税務メモを更新した新しいインスタンスを返す
func (i *ReceiptItem) UpdateTaxNote(note string) (*ReceiptItem, error) {
	tn, err := valueobject.NewTaxNote(note)
	if err != nil {
		return nil, err
	}
	clone := *i
	clone.taxNote = &tn
	clone.updatedAt = time.Now()
	return &clone, nil
}

// Equals IDのみによる等価比較（属性値は比較しない）
func (i *ReceiptItem) Equals(other *ReceiptItem) bool {
	if other == nil {
		return false
	}
	return i.id.Equals(other.id)
}

// IsDeductibleExpense 経費として計上可能かどうか（金額が正）
func (i *ReceiptItem) IsDeductibleExpense() bool {
	return i.price.AmountInSen() > 0
}

// IsHighValueItem 高額商品かどうか（10万円以上）
func (i *ReceiptItem) IsHighValueItem() bool {
	return i.price.Yen() >= highValueThresholdYen
}

// String 表示用の文字列表現
func (i *ReceiptItem) String() string {
	s := i.name.String() + ": " + i.price.Format()
	if i.accountCategory != nil {
		s += " [" + i.accountCategory.String() + "]"
	}
	return s + " (" + i.purchaseDate.FormatForDisplay() + ")"
}

// ReceiptItemRecord 永続化用のプレーン表現
type ReceiptItemRecord struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	PriceYen        float64   `json:"price"`
	AccountCategory string    `json:"accountCategory,omitempty"`
	TaxNote         string    `json:"taxNote,omitempty"`
	PurchaseDate    string    `json:"purchaseDate"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ToRecord 永続化用のプレーン表現に変換
func (i *ReceiptItem) ToRecord() ReceiptItemRecord {
	rec := ReceiptItemRecord{
		ID:           i.id.String(),
		Name:         i.name.String(),
		PriceYen:     i.price.Yen(),
		PurchaseDate: i.purchaseDate.String(),
		CreatedAt:    i.createdAt,
		UpdatedAt:    i.updatedAt,
	}
	if i.accountCategory != nil {
		rec.AccountCategory = i.accountCategory.String()
	}
	if i.taxNote != nil {
		rec.TaxNote = i.taxNote.String()
	}
	return rec
}

// CSVヘッダーとフィールドの並びは外部契約として固定
var receiptItemCSVHeader = []string{"購入日", "商品名", "金額", "勘定科目", "税務メモ"}

// ReceiptItemCSVHeader CSV出力用のヘッダー行を返す
func ReceiptItemCSVHeader() []string {
	out := make([]string, len(receiptItemCSVHeader))
	copy(out, receiptItemCSVHeader)
	return out
}

// ToCSVRecord CSV出力用のレコードに変換
// 列順はReceiptItemCSVHeaderと対応し、未設定の項目は空文字にする。
func (i *ReceiptItem) ToCSVRecord() []string {
	category := ""
	if i.accountCategory != nil {
		category = i.accountCategory.String()
	}
	note := ""
	if i.taxNote != nil {
		note = i.taxNote.String()
	}
	return []string{
		i.purchaseDate.FormatForDisplay(),
		i.name.String(),
		i.price.Format(),
		category,
		note,
	}
}
