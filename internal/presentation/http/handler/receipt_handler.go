package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/xiaotiantakumi/receiptify/internal/domain/repository"
	"github.com/xiaotiantakumi/receiptify/internal/schema"
)

// ReceiptHandler レシート処理のハンドラー
type ReceiptHandler struct {
	receiptUseCase ReceiptUseCaseInterface
}

// NewReceiptHandler 新しいReceiptHandlerを作成
func NewReceiptHandler(receiptUseCase ReceiptUseCaseInterface) *ReceiptHandler {
	return &ReceiptHandler{receiptUseCase: receiptUseCase}
}

// ProcessResponse レシート解析のレスポンス
type ProcessResponse struct {
	Success bool            `json:"success"`
	Receipt ReceiptResponse `json:"receipt"`
}

// ListResponse レシート一覧のレスポンス
type ListResponse struct {
	Success  bool              `json:"success"`
	Receipts []ReceiptResponse `json:"receipts"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// HandleProcess アップロード済み画像の解析ハンドラー
func (h *ReceiptHandler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	var req schema.ProcessReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest, err)
		return
	}

	if err := schema.ValidateProcessReceiptRequest(&req); err != nil {
		writeError(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	receipt, err := h.receiptUseCase.ProcessReceipt(r.Context(), req.BlobName, req.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			writeError(w, "Receipt image not found", http.StatusNotFound, err)
			return
		}
		writeError(w, "Receipt processing failed", http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, ProcessResponse{
		Success: true,
		Receipt: toReceiptResponse(receipt),
	})
}

// HandleList レシート一覧の取得ハンドラー
func (h *ReceiptHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, "userId query parameter is required", http.StatusBadRequest, nil)
		return
	}

	query, err := parseListQuery(r)
	if err != nil {
		writeError(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	receipts, err := h.receiptUseCase.ListReceipts(r.Context(), userID, query)
	if err != nil {
		writeError(w, "Failed to list receipts", http.StatusInternalServerError, err)
		return
	}

	responses := make([]ReceiptResponse, len(receipts))
	for i, receipt := range receipts {
		responses[i] = toReceiptResponse(receipt)
	}

	writeJSON(w, http.StatusOK, ListResponse{
		Success:  true,
		Receipts: responses,
		Limit:    query.Limit,
		Offset:   query.Offset,
	})
}

// HandleGet 単一レシートの取得ハンドラー
func (h *ReceiptHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	receiptID := r.PathValue("id")
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, "userId query parameter is required", http.StatusBadRequest, nil)
		return
	}

	receipt, err := h.receiptUseCase.GetReceipt(r.Context(), userID, receiptID)
	if err != nil {
		if errors.Is(err, repository.ErrReceiptNotFound) {
			writeError(w, "Receipt not found", http.StatusNotFound, err)
			return
		}
		writeError(w, "Failed to get receipt", http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, ProcessResponse{
		Success: true,
		Receipt: toReceiptResponse(receipt),
	})
}

// parseListQuery クエリパラメータから一覧取得条件を組み立てる
func parseListQuery(r *http.Request) (schema.ListReceiptsQuery, error) {
	query := schema.DefaultListReceiptsQuery()

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return query, fmt.Errorf("limit must be an integer: %w", err)
		}
		query.Limit = limit
	}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return query, fmt.Errorf("offset must be an integer: %w", err)
		}
		query.Offset = offset
	}

	if err := schema.ValidateListReceiptsQuery(&query); err != nil {
		return query, err
	}
	return query, nil
}
