package valueobject

import (
	"errors"
	"strings"
	"testing"
)

func TestNewAccountCategory(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name:  "正常系: 代表的な勘定科目",
			input: "消耗品費",
		},
		{
			name:  "正常系: 中黒と長音",
			input: "交通費・タクシー",
		},
		{
			name:  "正常系: 括弧と英数字",
			input: "会議費（4名）",
		},
		{
			name:  "正常系: 50文字ちょうど",
			input: strings.Repeat("費", 50),
		},
		{
			name:    "異常系: 空文字",
			input:   "",
			wantErr: ErrEmptyAccountCategory,
		},
		{
			name:    "異常系: 51文字",
			input:   strings.Repeat("費", 51),
			wantErr: ErrAccountCategoryTooLong,
		},
		{
			name:    "異常系: 記号を含む",
			input:   "消耗品費<script>",
			wantErr: ErrAccountCategoryInvalidChars,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewAccountCategory(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewAccountCategory(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewAccountCategory(%q) error = %v", tt.input, err)
			}
			if c.String() == "" {
				t.Error("String() is empty")
			}
		})
	}
}

func TestCommonAccountCategories(t *testing.T) {
	categories := CommonAccountCategories()
	if len(categories) != 15 {
		t.Fatalf("CommonAccountCategories() returned %d categories, want 15", len(categories))
	}

	// 全項目がドメインルールを満たすこと
	for _, c := range categories {
		if _, err := NewAccountCategory(c); err != nil {
			t.Errorf("NewAccountCategory(%q) error = %v", c, err)
		}
	}
}

func TestIsCommonCategory(t *testing.T) {
	common, err := NewAccountCategory("消耗品費")
	if err != nil {
		t.Fatalf("NewAccountCategory() error = %v", err)
	}
	if !common.IsCommonCategory() {
		t.Error("IsCommonCategory() = false for 消耗品費")
	}

	custom, err := NewAccountCategory("特別な費用")
	if err != nil {
		t.Fatalf("NewAccountCategory() error = %v", err)
	}
	if custom.IsCommonCategory() {
		t.Error("IsCommonCategory() = true for custom category")
	}
}
