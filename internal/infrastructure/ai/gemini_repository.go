package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/xiaotiantakumi/receiptify/internal/config"
	"github.com/xiaotiantakumi/receiptify/internal/schema"
)

// receiptExtractionPrompt レシート読み取り専用プロンプト
const receiptExtractionPrompt = `あなたは日本の税務に詳しい会計士です。
このレシート画像から経費精算用の情報を抽出し、JSON形式で正確に返してください。

【レシートの典型的な構造】：
1. 店舗名
2. 商品リスト（商品名と価格）
3. 小計または合計
4. 消費税額
5. お買上金額（これが実際の支払額）
6. お預かり（顧客が渡した金額）← これは支払額ではない！
7. お釣り

【最重要】totalAmountの決定ルール：
✅ 正しい：「お買上金額」「合計金額」「小計」
❌ 間違い：「お預かり」「お釣り」「現金」

【商品リストの作成】：
実際に購入した商品のみを items に含める。
「お預かり」「お釣り」「(内)消費税額」「点数」「現金」「合計」「小計」は商品ではないので除外する。

各商品には日本の勘定科目を提案してください。よく使う勘定科目：
消耗品費、事務用品費、交通費、会議費、接待交際費、通信費、
水道光熱費、賃借料、保険料、修繕費、広告宣伝費、研修費、図書費、旅費交通費、雑費

税務上の注意点がある商品（接待交際費の人数記録、按分が必要な費用など）には
taxNote に簡潔なメモを付けてください。

出力形式：
{
  "totalAmount": 1500,
  "receiptDate": "2025-11-22",
  "items": [
    {
      "name": "商品名",
      "price": 500,
      "category": "文房具",
      "accountSuggestion": "事務用品費",
      "taxNote": ""
    }
  ]
}

注意：
- 金額は数値型（カンマや円記号を除く）
- receiptDate はYYYY-MM-DD形式
- totalAmount は必ず items の price の合計と一致させる
- JSONのみを返す（説明不要）`

// GeminiRepository Gemini APIのリポジトリ実装
type GeminiRepository struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	name    string
	timeout time.Duration
}

// NewGeminiRepository 新しいGeminiRepositoryを作成
func NewGeminiRepository(ctx context.Context, cfg *config.GeminiConfig) (*GeminiRepository, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &GeminiRepository{
		client:  client,
		model:   model,
		name:    modelName,
		timeout: timeout,
	}, nil
}

// ExtractReceipt レシート画像から構造化データを抽出
func (r *GeminiRepository) ExtractReceipt(ctx context.Context, imageData []byte, mimeType string) (*schema.VisionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	parts := []genai.Part{
		genai.Blob{MIMEType: mimeType, Data: imageData},
		genai.Text(receiptExtractionPrompt),
	}

	resp, err := r.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	return ParseVisionResponse(sb.String())
}

// ProviderName プロバイダー名を返す
func (r *GeminiRepository) ProviderName() string {
	return "gemini/" + r.name
}

// Close Geminiクライアントを閉じる
func (r *GeminiRepository) Close() error {
	return r.client.Close()
}

// ParseVisionResponse モデル応答テキストからJSONを取り出して検証する
// Markdownコードブロックや前置きの説明文が混ざっていても、
// 最初の「{」から最後の「}」までをJSONとして扱う。
func ParseVisionResponse(text string) (*schema.VisionResponse, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no json object in model response")
	}

	var resp schema.VisionResponse
	if err := json.Unmarshal([]byte(text[start:end+1]), &resp); err != nil {
		return nil, fmt.Errorf("failed to decode model response: %w", err)
	}

	if err := schema.ValidateVisionResponse(&resp); err != nil {
		return nil, fmt.Errorf("model response failed validation: %w", err)
	}

	return &resp, nil
}
