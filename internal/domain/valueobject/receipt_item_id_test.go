package valueobject

import (
	"errors"
	"testing"
)

func TestNewReceiptItemID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:  "正常系: UUIDv4",
			input: "550e8400-e29b-41d4-a716-446655440000",
		},
		{
			name:  "正常系: 大文字も許可",
			input: "550E8400-E29B-41D4-A716-446655440000",
		},
		{
			name:    "異常系: バージョン1のUUID",
			input:   "550e8400-e29b-11d4-a716-446655440000",
			wantErr: true,
		},
		{
			name:    "異常系: バリアントが不正",
			input:   "550e8400-e29b-41d4-c716-446655440000",
			wantErr: true,
		},
		{
			name:    "異常系: 空文字",
			input:   "",
			wantErr: true,
		},
		{
			name:    "異常系: ハイフンなし",
			input:   "550e8400e29b41d4a716446655440000",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewReceiptItemID(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidReceiptItemID) {
					t.Fatalf("NewReceiptItemID(%q) error = %v, want ErrInvalidReceiptItemID", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewReceiptItemID(%q) error = %v", tt.input, err)
			}
			if id.String() == "" {
				t.Error("String() is empty")
			}
		})
	}
}

func TestGenerateReceiptItemID(t *testing.T) {
	a := GenerateReceiptItemID()
	b := GenerateReceiptItemID()

	if a.Equals(b) {
		t.Error("GenerateReceiptItemID() returned duplicate ids")
	}

	// 生成されたIDは自身の検証を通る
	if _, err := NewReceiptItemID(a.String()); err != nil {
		t.Errorf("NewReceiptItemID(%q) error = %v", a.String(), err)
	}
}
