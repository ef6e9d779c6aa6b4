package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/xiaotiantakumi/receiptify/internal/domain/entity"
	"github.com/xiaotiantakumi/receiptify/internal/schema"
)

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Success bool                `json:"success"`
	Error   string              `json:"error"`
	Issues  []schema.FieldIssue `json:"issues,omitempty"`
}

// ReceiptLineResponse 明細1行のレスポンス表現
type ReceiptLineResponse struct {
	Name              string  `json:"name"`
	Price             float64 `json:"price"`
	Category          string  `json:"category,omitempty"`
	AccountSuggestion string  `json:"accountSuggestion,omitempty"`
	TaxNote           string  `json:"taxNote,omitempty"`
}

// ReceiptResponse レシートのレスポンス表現
type ReceiptResponse struct {
	ID                   string                `json:"id"`
	UserID               string                `json:"userId"`
	ImageURL             string                `json:"imageUrl"`
	Status               string                `json:"status"`
	ReceiptDate          string                `json:"receiptDate,omitempty"`
	TotalAmount          *float64              `json:"totalAmount,omitempty"`
	FormattedTotalAmount string                `json:"formattedTotalAmount,omitempty"`
	Items                []ReceiptLineResponse `json:"items"`
	AccountSuggestions   []string              `json:"accountSuggestions,omitempty"`
	TaxNotes             []string              `json:"taxNotes,omitempty"`
	ErrorMessage         string                `json:"errorMessage,omitempty"`
	CreatedAt            string                `json:"createdAt"`
	UpdatedAt            string                `json:"updatedAt"`
}

// toReceiptResponse エンティティをレスポンス表現に変換
func toReceiptResponse(receipt *entity.Receipt) ReceiptResponse {
	s := receipt.Snapshot()

	resp := ReceiptResponse{
		ID:                 s.ID,
		UserID:             s.UserID.String(),
		ImageURL:           s.ImageURL,
		Status:             string(s.Status),
		AccountSuggestions: s.AccountSuggestions,
		TaxNotes:           s.TaxNotes,
		ErrorMessage:       s.ErrorMessage,
		CreatedAt:          s.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
		UpdatedAt:          s.UpdatedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
	}

	if !s.ReceiptDate.IsZero() {
		resp.ReceiptDate = s.ReceiptDate.String()
	}

	if s.TotalAmount != nil {
		yen := s.TotalAmount.Yen()
		resp.TotalAmount = &yen
		resp.FormattedTotalAmount = s.TotalAmount.Format()
	}

	resp.Items = make([]ReceiptLineResponse, len(s.Items))
	for i, line := range s.Items {
		resp.Items[i] = ReceiptLineResponse{
			Name:              line.Name,
			Price:             line.Price.Yen(),
			Category:          line.Category,
			AccountSuggestion: line.AccountSuggestion,
			TaxNote:           line.TaxNote,
		}
	}

	return resp
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError エラーレスポンスを出力
// バリデーションエラーの場合はフィールドごとの問題点も含める。
// サーバー側エラーの詳細はログにのみ出力し、レスポンスには含めない。
func writeError(w http.ResponseWriter, message string, status int, err error) {
	resp := ErrorResponse{Success: false, Error: message}

	var ve *schema.ValidationError
	if errors.As(err, &ve) {
		resp.Issues = ve.Issues
	}

	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "status", status, "error", err)
	}

	writeJSON(w, status, resp)
}
