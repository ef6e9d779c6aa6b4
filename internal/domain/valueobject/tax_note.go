package valueobject

import (
	"errors"
	"fmt"
	"strings"
)

const maxTaxNoteLength = 500

var (
	ErrEmptyTaxNote   = errors.New("tax note cannot be empty")
	ErrTaxNoteTooLong = fmt.Errorf("tax note is too long (max %d characters)", maxTaxNoteLength)
)

// TaxNote 税務申告時の注意事項・メモ
type TaxNote struct {
	value string
}

// NewTaxNote メモ文字列からTaxNoteを作成
func NewTaxNote(note string) (TaxNote, error) {
	trimmed := strings.TrimSpace(note)
	if trimmed == "" {
		return TaxNote{}, ErrEmptyTaxNote
	}
	if len([]rune(trimmed)) > maxTaxNoteLength {
		return TaxNote{}, ErrTaxNoteTooLong
	}
	if unsafeContentPattern.MatchString(trimmed) {
		return TaxNote{}, fmt.Errorf("%w: tax note", ErrUnsafeContent)
	}
	return TaxNote{value: trimmed}, nil
}

// NewOptionalTaxNote 空文字・空白のみの入力をnilとして扱う
// 値オブジェクト群の中で唯一の省略可能ファクトリ。
func NewOptionalTaxNote(note string) (*TaxNote, error) {
	if strings.TrimSpace(note) == "" {
		return nil, nil
	}
	tn, err := NewTaxNote(note)
	if err != nil {
		return nil, err
	}
	return &tn, nil
}

// String 文字列表現を返す
func (n TaxNote) String() string {
	return n.value
}

// Equals 値による等価比較
func (n TaxNote) Equals(other TaxNote) bool {
	return n.value == other.value
}
