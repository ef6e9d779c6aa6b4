package valueobject

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const maxAccountCategoryLength = 50

var (
	ErrEmptyAccountCategory        = errors.New("account category cannot be empty")
	ErrAccountCategoryTooLong      = fmt.Errorf("account category is too long (max %d characters)", maxAccountCategoryLength)
	ErrAccountCategoryInvalidChars = errors.New("account category contains invalid characters")
)

// 日本語文字（ひらがな・カタカナ・漢字）、英数字、一部記号のみ許可
var accountCategoryPattern = regexp.MustCompile(`^[\x{3040}-\x{309F}\x{30A0}-\x{30FF}\x{4E00}-\x{9FAF}a-zA-Z0-9\s・ー（）()]+$`)

// commonCategories 一般的な経費勘定科目
var commonCategories = []string{
	"消耗品費", "事務用品費", "交通費", "会議費", "接待交際費",
	"通信費", "水道光熱費", "賃借料", "保険料", "修繕費",
	"広告宣伝費", "研修費", "図書費", "旅費交通費", "雑費",
}

// AccountCategory 勘定科目値オブジェクト
// 日本の会計基準に基づく勘定科目を表す。
type AccountCategory struct {
	value string
}

// NewAccountCategory 勘定科目文字列からAccountCategoryを作成
func NewAccountCategory(category string) (AccountCategory, error) {
	trimmed := strings.TrimSpace(category)
	if trimmed == "" {
		return AccountCategory{}, ErrEmptyAccountCategory
	}
	if len([]rune(trimmed)) > maxAccountCategoryLength {
		return AccountCategory{}, ErrAccountCategoryTooLong
	}
	if !accountCategoryPattern.MatchString(trimmed) {
		return AccountCategory{}, fmt.Errorf("%w: %q", ErrAccountCategoryInvalidChars, trimmed)
	}
	return AccountCategory{value: trimmed}, nil
}

// CommonAccountCategories 一般的な勘定科目の一覧を返す
func CommonAccountCategories() []string {
	out := make([]string, len(commonCategories))
	copy(out, commonCategories)
	return out
}

// IsCommonCategory 一般的な勘定科目に含まれるかどうか
func (c AccountCategory) IsCommonCategory() bool {
	for _, common := range commonCategories {
		if c.value == common {
			return true
		}
	}
	return false
}

// String 文字列表現を返す
func (c AccountCategory) String() string {
	return c.value
}

// Equals 値による等価比較
func (c AccountCategory) Equals(other AccountCategory) bool {
	return c.value == other.value
}
