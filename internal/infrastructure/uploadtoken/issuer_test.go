package uploadtoken

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xiaotiantakumi/receiptify/internal/config"
)

func newTestIssuer(ttl time.Duration) *Issuer {
	return NewIssuer(&config.UploadConfig{
		HashKey:  strings.Repeat("h", 64),
		BlockKey: strings.Repeat("b", 32),
		TokenTTL: ttl,
	})
}

func TestIssuer_IssueAndVerify(t *testing.T) {
	issuer := newTestIssuer(time.Hour)

	cred, err := issuer.Issue("receipt.png")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if !strings.HasSuffix(cred.BlobName, ".png") {
		t.Errorf("BlobName = %q, want .png suffix", cred.BlobName)
	}
	if cred.ExpiresAt.Before(time.Now()) {
		t.Errorf("ExpiresAt = %v is in the past", cred.ExpiresAt)
	}

	if err := issuer.Verify(cred.Token, cred.BlobName); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestIssuer_BlobNameGeneration(t *testing.T) {
	issuer := newTestIssuer(time.Hour)

	tests := []struct {
		name     string
		fileName string
		wantExt  string
	}{
		{name: "jpg", fileName: "photo.jpg", wantExt: ".jpg"},
		{name: "pdf", fileName: "scan.pdf", wantExt: ".pdf"},
		{name: "大文字拡張子", fileName: "photo.JPEG", wantExt: ".jpeg"},
		{name: "未対応拡張子はjpgに", fileName: "file.exe", wantExt: ".jpg"},
		{name: "ファイル名省略", fileName: "", wantExt: ".jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cred, err := issuer.Issue(tt.fileName)
			if err != nil {
				t.Fatalf("Issue() error = %v", err)
			}
			if !strings.HasSuffix(cred.BlobName, tt.wantExt) {
				t.Errorf("BlobName = %q, want suffix %q", cred.BlobName, tt.wantExt)
			}
		})
	}

	// 同じファイル名でもBlob名は毎回変わる
	a, _ := issuer.Issue("photo.jpg")
	b, _ := issuer.Issue("photo.jpg")
	if a.BlobName == b.BlobName {
		t.Error("Issue() returned duplicate blob names")
	}
}

func TestIssuer_VerifyFailures(t *testing.T) {
	issuer := newTestIssuer(time.Hour)

	cred, err := issuer.Issue("receipt.jpg")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// 別のBlob名には使えない
	if err := issuer.Verify(cred.Token, "other.jpg"); !errors.Is(err, ErrBlobNameMismatch) {
		t.Errorf("Verify() error = %v, want ErrBlobNameMismatch", err)
	}

	// 改竄されたトークン
	if err := issuer.Verify(cred.Token+"x", cred.BlobName); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
	}

	// 別の鍵で発行されたトークン
	other := NewIssuer(&config.UploadConfig{
		HashKey:  strings.Repeat("x", 64),
		BlockKey: strings.Repeat("y", 32),
		TokenTTL: time.Hour,
	})
	if err := other.Verify(cred.Token, cred.BlobName); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
	}
}

func TestIssuer_Expiry(t *testing.T) {
	// 負のTTLは既定値に丸められるため、ごく短いTTLで期限切れを作る
	issuer := newTestIssuer(time.Nanosecond)

	cred, err := issuer.Issue("receipt.jpg")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	if err := issuer.Verify(cred.Token, cred.BlobName); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Verify() error = %v, want ErrTokenExpired", err)
	}
}
