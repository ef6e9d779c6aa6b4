package schema

// ProcessReceiptRequest レシート解析リクエスト
type ProcessReceiptRequest struct {
	BlobName string `json:"blobName" validate:"required,max=1024,blobname"`
	UserID   string `json:"userId" validate:"required,max=100,userident"`
}

// ValidateProcessReceiptRequest リクエストボディを検証
func ValidateProcessReceiptRequest(req *ProcessReceiptRequest) error {
	return Validate(req)
}

// ListReceiptsQuery レシート一覧取得のクエリパラメータ
type ListReceiptsQuery struct {
	Limit  int `json:"limit" validate:"gte=1,lte=100"`
	Offset int `json:"offset" validate:"gte=0"`
}

// DefaultListReceiptsQuery 既定値入りのクエリを返す
func DefaultListReceiptsQuery() ListReceiptsQuery {
	return ListReceiptsQuery{Limit: 50, Offset: 0}
}

// ValidateListReceiptsQuery クエリパラメータを検証
func ValidateListReceiptsQuery(q *ListReceiptsQuery) error {
	return Validate(q)
}

// IssueUploadTokenRequest アップロードトークン発行リクエスト
// FileNameは省略可。指定された場合のみ形式を検証する。
type IssueUploadTokenRequest struct {
	FileName string `json:"fileName" validate:"omitempty,max=255,safefilename"`
}

// ValidateIssueUploadTokenRequest リクエストボディを検証
func ValidateIssueUploadTokenRequest(req *IssueUploadTokenRequest) error {
	return Validate(req)
}

// VisionItem AIモデルが抽出した明細1行
type VisionItem struct {
	Name              string  `json:"name" validate:"required,max=200,safetext"`
	Price             float64 `json:"price" validate:"gte=0"`
	Category          string  `json:"category" validate:"omitempty,max=100,safetext"`
	AccountSuggestion string  `json:"accountSuggestion" validate:"omitempty,max=100,safetext"`
	TaxNote           string  `json:"taxNote" validate:"omitempty,max=500,safetext"`
}

// VisionResponse AIモデルのレシート解析応答
type VisionResponse struct {
	TotalAmount float64      `json:"totalAmount" validate:"gt=0"`
	ReceiptDate string       `json:"receiptDate" validate:"required,isodate"`
	Items       []VisionItem `json:"items" validate:"required,min=1,max=100,dive"`
}

// ValidateVisionResponse AIモデル応答の形を検証
// ドメイン層の値オブジェクト検証の前段として、構造の欠落を早期に弾く。
func ValidateVisionResponse(resp *VisionResponse) error {
	return Validate(resp)
}
