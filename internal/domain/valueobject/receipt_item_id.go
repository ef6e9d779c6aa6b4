package valueobject

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidReceiptItemID = errors.New("receipt item id must be a valid UUIDv4")

// バージョンとバリアントのニブルまで検証するUUIDv4の厳密パターン
var uuidV4Pattern = regexp.MustCompile(`^(?i)[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// ReceiptItemID レシート明細の一意識別子（UUIDv4）
type ReceiptItemID struct {
	value string
}

// NewReceiptItemID 既存のID文字列からReceiptItemIDを作成
func NewReceiptItemID(id string) (ReceiptItemID, error) {
	trimmed := strings.TrimSpace(id)
	if !uuidV4Pattern.MatchString(trimmed) {
		return ReceiptItemID{}, fmt.Errorf("%w: %q", ErrInvalidReceiptItemID, id)
	}
	return ReceiptItemID{value: trimmed}, nil
}

// GenerateReceiptItemID 新しいランダムなReceiptItemIDを生成
func GenerateReceiptItemID() ReceiptItemID {
	return ReceiptItemID{value: uuid.NewString()}
}

// String 文字列表現を返す
func (id ReceiptItemID) String() string {
	return id.value
}

// Equals 値による等価比較
func (id ReceiptItemID) Equals(other ReceiptItemID) bool {
	return id.value == other.value
}
