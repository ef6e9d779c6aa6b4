package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/xiaotiantakumi/receiptify/internal/domain/service"
	"github.com/xiaotiantakumi/receiptify/internal/infrastructure/uploadtoken"
)

func TestUploadHandler_HandleIssueToken(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		wantStatusCode int
	}{
		{
			name:           "正常系: ファイル名あり",
			body:           `{"fileName": "receipt.jpg"}`,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "正常系: ボディ省略",
			body:           "",
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "異常系: 不正なJSON",
			body:           `{invalid`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "異常系: パス区切りを含むファイル名",
			body:           `{"fileName": "../../etc/passwd"}`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewUploadHandler(&MockReceiptUseCase{})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/token", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.HandleIssueToken(rec, req)

			if rec.Code != tt.wantStatusCode {
				t.Fatalf("status code = %d, want %d (body: %s)", rec.Code, tt.wantStatusCode, rec.Body.String())
			}

			if tt.wantStatusCode == http.StatusOK {
				var resp TokenResponse
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}
				if resp.Token == "" || resp.BlobName == "" {
					t.Errorf("token = %q, blobName = %q, want both non-empty", resp.Token, resp.BlobName)
				}
				if _, err := time.Parse(time.RFC3339, resp.ExpiresAt); err != nil {
					t.Errorf("expiresAt = %q is not RFC3339: %v", resp.ExpiresAt, err)
				}
			}
		})
	}
}

func TestUploadHandler_HandleUpload(t *testing.T) {
	tests := []struct {
		name           string
		token          string
		blobName       string
		body           []byte
		usecase        *MockReceiptUseCase
		wantStatusCode int
	}{
		{
			name:           "正常系: アップロード成功",
			token:          "signed-token",
			blobName:       "generated.jpg",
			body:           []byte("image bytes"),
			usecase:        &MockReceiptUseCase{},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "異常系: トークンヘッダなし",
			token:          "",
			blobName:       "generated.jpg",
			body:           []byte("image bytes"),
			usecase:        &MockReceiptUseCase{},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "異常系: blobNameクエリなし",
			token:          "signed-token",
			blobName:       "",
			body:           []byte("image bytes"),
			usecase:        &MockReceiptUseCase{},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:     "異常系: 期限切れトークン",
			token:    "signed-token",
			blobName: "generated.jpg",
			body:     []byte("image bytes"),
			usecase: &MockReceiptUseCase{
				UploadImageFunc: func(ctx context.Context, token, blobName string, data []byte) error {
					return uploadtoken.ErrTokenExpired
				},
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:     "異常系: Blob名の不一致",
			token:    "signed-token",
			blobName: "other.jpg",
			body:     []byte("image bytes"),
			usecase: &MockReceiptUseCase{
				UploadImageFunc: func(ctx context.Context, token, blobName string, data []byte) error {
					return uploadtoken.ErrBlobNameMismatch
				},
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:     "異常系: 画像として不正",
			token:    "signed-token",
			blobName: "generated.jpg",
			body:     []byte("not an image"),
			usecase: &MockReceiptUseCase{
				UploadImageFunc: func(ctx context.Context, token, blobName string, data []byte) error {
					return errors.New("invalid receipt image")
				},
			},
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewUploadHandler(tt.usecase)
			target := "/api/v1/uploads"
			if tt.blobName != "" {
				target += "?blobName=" + tt.blobName
			}
			req := httptest.NewRequest(http.MethodPut, target, bytes.NewReader(tt.body))
			if tt.token != "" {
				req.Header.Set("X-Upload-Token", tt.token)
			}
			rec := httptest.NewRecorder()

			h.HandleUpload(rec, req)

			if rec.Code != tt.wantStatusCode {
				t.Fatalf("status code = %d, want %d (body: %s)", rec.Code, tt.wantStatusCode, rec.Body.String())
			}

			if tt.wantStatusCode == http.StatusCreated {
				var resp UploadResponse
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}
				if resp.BlobName != tt.blobName {
					t.Errorf("blobName = %q, want %q", resp.BlobName, tt.blobName)
				}
			}
		})
	}
}

func TestUploadHandler_HandleUpload_SizeLimit(t *testing.T) {
	var called bool
	h := NewUploadHandler(&MockReceiptUseCase{
		UploadImageFunc: func(ctx context.Context, token, blobName string, data []byte) error {
			called = true
			return nil
		},
	})

	oversized := bytes.Repeat([]byte{0xFF}, service.MaxImageSize+1)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/uploads?blobName=big.jpg", bytes.NewReader(oversized))
	req.Header.Set("X-Upload-Token", "signed-token")
	rec := httptest.NewRecorder()

	h.HandleUpload(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status code = %d, want %d", rec.Code, http.StatusRequestEntityTooLarge)
	}
	if called {
		t.Error("UploadImage should not be called for oversized payloads")
	}
}
