package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/xiaotiantakumi/receiptify/internal/domain/service"
	"github.com/xiaotiantakumi/receiptify/internal/infrastructure/uploadtoken"
	"github.com/xiaotiantakumi/receiptify/internal/schema"
)

// UploadHandler レシート画像アップロードのハンドラー
type UploadHandler struct {
	receiptUseCase ReceiptUseCaseInterface
}

// NewUploadHandler 新しいUploadHandlerを作成
func NewUploadHandler(receiptUseCase ReceiptUseCaseInterface) *UploadHandler {
	return &UploadHandler{receiptUseCase: receiptUseCase}
}

// TokenResponse アップロードトークン発行のレスポンス
type TokenResponse struct {
	Success   bool   `json:"success"`
	Token     string `json:"token"`
	BlobName  string `json:"blobName"`
	ExpiresAt string `json:"expiresAt"`
}

// UploadResponse アップロード完了のレスポンス
type UploadResponse struct {
	Success  bool   `json:"success"`
	BlobName string `json:"blobName"`
}

// HandleIssueToken アップロードトークン発行ハンドラー
func (h *UploadHandler) HandleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req schema.IssueUploadTokenRequest
	// ボディ省略を許可する
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, "Invalid request body", http.StatusBadRequest, err)
			return
		}
	}

	if err := schema.ValidateIssueUploadTokenRequest(&req); err != nil {
		writeError(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	cred, err := h.receiptUseCase.IssueUploadToken(req.FileName)
	if err != nil {
		writeError(w, "Failed to issue upload token", http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{
		Success:   true,
		Token:     cred.Token,
		BlobName:  cred.BlobName,
		ExpiresAt: cred.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// HandleUpload 画像アップロードハンドラー
// トークンはX-Upload-Tokenヘッダ、Blob名はblobNameクエリで受け取る。
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Upload-Token")
	if token == "" {
		writeError(w, "X-Upload-Token header is required", http.StatusUnauthorized, nil)
		return
	}

	blobName := r.URL.Query().Get("blobName")
	if blobName == "" {
		writeError(w, "blobName query parameter is required", http.StatusBadRequest, nil)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, service.MaxImageSize+1))
	if err != nil {
		writeError(w, "Failed to read request body", http.StatusBadRequest, err)
		return
	}
	if len(data) > service.MaxImageSize {
		writeError(w, "Image size exceeds 10MB", http.StatusRequestEntityTooLarge, nil)
		return
	}

	if err := h.receiptUseCase.UploadImage(r.Context(), token, blobName, data); err != nil {
		switch {
		case errors.Is(err, uploadtoken.ErrInvalidToken),
			errors.Is(err, uploadtoken.ErrTokenExpired),
			errors.Is(err, uploadtoken.ErrBlobNameMismatch):
			writeError(w, "Upload not authorized", http.StatusUnauthorized, err)
		default:
			writeError(w, "Failed to store image", http.StatusBadRequest, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, UploadResponse{
		Success:  true,
		BlobName: blobName,
	})
}
