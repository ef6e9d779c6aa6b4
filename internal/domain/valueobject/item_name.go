package valueobject

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const maxItemNameLength = 200

var (
	ErrEmptyItemName   = errors.New("item name cannot be empty")
	ErrItemNameTooLong = fmt.Errorf("item name is too long (max %d characters)", maxItemNameLength)
	ErrUnsafeContent   = errors.New("value contains unsafe content")
)

// unsafeContentPattern スクリプトタグ・イベントハンドラーの検出（格納型XSS対策）
var unsafeContentPattern = regexp.MustCompile(`(?i)<script|javascript:|on\w+=`)

// ItemName レシート上の商品・サービス名
type ItemName struct {
	value string
}

// NewItemName 商品名文字列からItemNameを作成
func NewItemName(name string) (ItemName, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ItemName{}, ErrEmptyItemName
	}
	if len([]rune(trimmed)) > maxItemNameLength {
		return ItemName{}, ErrItemNameTooLong
	}
	if unsafeContentPattern.MatchString(trimmed) {
		return ItemName{}, fmt.Errorf("%w: item name", ErrUnsafeContent)
	}
	return ItemName{value: trimmed}, nil
}

// String 文字列表現を返す
func (n ItemName) String() string {
	return n.value
}

// Equals 値による等価比較
func (n ItemName) Equals(other ItemName) bool {
	return n.value == other.value
}
