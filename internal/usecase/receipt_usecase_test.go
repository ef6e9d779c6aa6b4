package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xiaotiantakumi/receiptify/internal/config"
	"github.com/xiaotiantakumi/receiptify/internal/domain/entity"
	"github.com/xiaotiantakumi/receiptify/internal/domain/repository"
	"github.com/xiaotiantakumi/receiptify/internal/infrastructure/uploadtoken"
	"github.com/xiaotiantakumi/receiptify/internal/schema"
)

// MockVisionRepository モックVisionリポジトリ
type MockVisionRepository struct {
	ExtractReceiptFunc func(ctx context.Context, imageData []byte, mimeType string) (*schema.VisionResponse, error)
	calls              int
}

func (m *MockVisionRepository) ExtractReceipt(ctx context.Context, imageData []byte, mimeType string) (*schema.VisionResponse, error) {
	m.calls++
	if m.ExtractReceiptFunc != nil {
		return m.ExtractReceiptFunc(ctx, imageData, mimeType)
	}
	return &schema.VisionResponse{
		TotalAmount: 1000,
		ReceiptDate: recentDate(1),
		Items: []schema.VisionItem{
			{Name: "ボールペン", Price: 150, AccountSuggestion: "事務用品費"},
			{Name: "コピー用紙", Price: 850, AccountSuggestion: "消耗品費"},
		},
	}, nil
}

func (m *MockVisionRepository) ProviderName() string {
	return "mock"
}

// MockReceiptRepository モックレシートリポジトリ
type MockReceiptRepository struct {
	UpsertFunc     func(ctx context.Context, receipt *entity.Receipt) error
	FindByKeyFunc  func(ctx context.Context, userID, receiptID string) (*entity.Receipt, error)
	FindByUserFunc func(ctx context.Context, userID string, limit, offset int) ([]*entity.Receipt, error)

	mu    sync.Mutex
	saved []*entity.Receipt
}

func (m *MockReceiptRepository) Upsert(ctx context.Context, receipt *entity.Receipt) error {
	m.mu.Lock()
	m.saved = append(m.saved, receipt)
	m.mu.Unlock()
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, receipt)
	}
	return nil
}

func (m *MockReceiptRepository) FindByKey(ctx context.Context, userID, receiptID string) (*entity.Receipt, error) {
	if m.FindByKeyFunc != nil {
		return m.FindByKeyFunc(ctx, userID, receiptID)
	}
	return nil, repository.ErrReceiptNotFound
}

func (m *MockReceiptRepository) FindByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Receipt, error) {
	if m.FindByUserFunc != nil {
		return m.FindByUserFunc(ctx, userID, limit, offset)
	}
	return []*entity.Receipt{}, nil
}

func (m *MockReceiptRepository) Delete(ctx context.Context, userID, receiptID string) error {
	return errors.New("not implemented")
}

func (m *MockReceiptRepository) lastSaved() *entity.Receipt {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saved) == 0 {
		return nil
	}
	return m.saved[len(m.saved)-1]
}

// MockCacheRepository メモリ上のキャッシュ実装
type MockCacheRepository struct {
	mu    sync.Mutex
	store map[string][]byte
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{store: map[string][]byte{}}
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[key] = value
	return nil
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.store[key]; ok {
		return v, nil
	}
	return nil, repository.ErrCacheMiss
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.store[key]
	return ok, nil
}

func (m *MockCacheRepository) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	return 1, nil
}

// MockImageRepository モック画像リポジトリ
type MockImageRepository struct {
	LoadFunc func(ctx context.Context, name string) (*repository.StoredImage, error)
	SaveFunc func(ctx context.Context, name string, img *repository.StoredImage) error
}

func (m *MockImageRepository) Save(ctx context.Context, name string, img *repository.StoredImage) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, name, img)
	}
	return nil
}

func (m *MockImageRepository) Load(ctx context.Context, name string) (*repository.StoredImage, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, name)
	}
	return &repository.StoredImage{
		Data:        []byte("fake image"),
		ContentType: "image/jpeg",
	}, nil
}

func (m *MockImageRepository) Exists(ctx context.Context, name string) (bool, error) {
	return true, nil
}

func (m *MockImageRepository) Delete(ctx context.Context, name string) error {
	return nil
}

// makeTestPNG 検証を通過する最小のPNG画像を生成する
func makeTestPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

// recentDate n日前の日付（日本時間基準）
func recentDate(daysAgo int) string {
	return time.Now().UTC().Add(9 * time.Hour).AddDate(0, 0, -daysAgo).Format("2006-01-02")
}

func testIssuer() *uploadtoken.Issuer {
	return uploadtoken.NewIssuer(&config.UploadConfig{
		HashKey:  strings.Repeat("h", 64),
		BlockKey: strings.Repeat("b", 32),
		TokenTTL: time.Hour,
	})
}

func newTestUseCase(
	vision *MockVisionRepository,
	receipts *MockReceiptRepository,
	cache *MockCacheRepository,
	images *MockImageRepository,
) *ReceiptUseCase {
	if vision == nil {
		vision = &MockVisionRepository{}
	}
	if receipts == nil {
		receipts = &MockReceiptRepository{}
	}
	if images == nil {
		images = &MockImageRepository{}
	}
	var cacheRepo repository.CacheRepository
	if cache != nil {
		cacheRepo = cache
	}
	return NewReceiptUseCase(vision, receipts, cacheRepo, images, testIssuer(), time.Hour)
}

func TestProcessReceipt_Success(t *testing.T) {
	receipts := &MockReceiptRepository{}
	uc := newTestUseCase(nil, receipts, nil, nil)

	receipt, err := uc.ProcessReceipt(t.Context(), "receipt.jpg", "user-1")
	if err != nil {
		t.Fatalf("ProcessReceipt() error = %v", err)
	}

	if !receipt.IsCompleted() {
		t.Errorf("Status() = %v, want completed", receipt.Status())
	}
	if receipt.FormattedTotalAmount() != "1,000 JPY" {
		t.Errorf("FormattedTotalAmount() = %q", receipt.FormattedTotalAmount())
	}
	if len(receipt.Items()) != 2 {
		t.Errorf("Items() = %d entries, want 2", len(receipt.Items()))
	}

	saved := receipts.lastSaved()
	if saved == nil || !saved.Equals(receipt) {
		t.Error("completed receipt was not persisted")
	}
}

func TestProcessReceipt_LongAccountSuggestion(t *testing.T) {
	// 勘定科目候補はモデルの自由記述のため、定型科目の50文字制限より
	// 長い候補（100文字まで）も完了レシートとして受け入れる
	longSuggestion := strings.Repeat("交", 30) + strings.Repeat("a", 30)
	vision := &MockVisionRepository{
		ExtractReceiptFunc: func(ctx context.Context, imageData []byte, mimeType string) (*schema.VisionResponse, error) {
			return &schema.VisionResponse{
				TotalAmount: 500,
				ReceiptDate: recentDate(1),
				Items: []schema.VisionItem{
					{Name: "会議費領収書", Price: 500, AccountSuggestion: longSuggestion},
				},
			}, nil
		},
	}
	uc := newTestUseCase(vision, nil, nil, nil)

	receipt, err := uc.ProcessReceipt(t.Context(), "receipt.jpg", "user-1")
	if err != nil {
		t.Fatalf("ProcessReceipt() error = %v", err)
	}
	if !receipt.IsCompleted() {
		t.Fatalf("Status() = %v, want completed", receipt.Status())
	}

	suggestions := receipt.AccountSuggestions()
	if len(suggestions) != 1 || suggestions[0] != longSuggestion {
		t.Errorf("AccountSuggestions() = %v, want the model text preserved", suggestions)
	}
}

func TestProcessReceipt_DeclaredTotalIsDiscarded(t *testing.T) {
	// モデル申告のtotalAmountは採用せず、合計は常に明細の合計から計算する
	vision := &MockVisionRepository{
		ExtractReceiptFunc: func(ctx context.Context, imageData []byte, mimeType string) (*schema.VisionResponse, error) {
			return &schema.VisionResponse{
				TotalAmount: 9999,
				ReceiptDate: recentDate(1),
				Items: []schema.VisionItem{
					{Name: "ボールペン", Price: 150},
					{Name: "コピー用紙", Price: 850},
				},
			}, nil
		},
	}
	uc := newTestUseCase(vision, nil, nil, nil)

	receipt, err := uc.ProcessReceipt(t.Context(), "receipt.jpg", "user-1")
	if err != nil {
		t.Fatalf("ProcessReceipt() error = %v", err)
	}
	if !receipt.IsCompleted() {
		t.Fatalf("Status() = %v, want completed", receipt.Status())
	}
	if receipt.FormattedTotalAmount() != "1,000 JPY" {
		t.Errorf("FormattedTotalAmount() = %q, want computed from items", receipt.FormattedTotalAmount())
	}
}

func TestProcessReceipt_VisionFailureIsPersisted(t *testing.T) {
	vision := &MockVisionRepository{
		ExtractReceiptFunc: func(ctx context.Context, imageData []byte, mimeType string) (*schema.VisionResponse, error) {
			return nil, errors.New("model unavailable")
		},
	}
	receipts := &MockReceiptRepository{}
	uc := newTestUseCase(vision, receipts, nil, nil)

	receipt, err := uc.ProcessReceipt(t.Context(), "receipt.jpg", "user-1")
	if err != nil {
		t.Fatalf("ProcessReceipt() error = %v", err)
	}

	if !receipt.IsFailed() {
		t.Errorf("Status() = %v, want failed", receipt.Status())
	}
	if !strings.Contains(receipt.ErrorMessage(), "解析に失敗しました") {
		t.Errorf("ErrorMessage() = %q", receipt.ErrorMessage())
	}
	if receipts.lastSaved() == nil {
		t.Error("failed receipt was not persisted")
	}
}

func TestProcessReceipt_InvalidExtractionIsPersisted(t *testing.T) {
	vision := &MockVisionRepository{
		ExtractReceiptFunc: func(ctx context.Context, imageData []byte, mimeType string) (*schema.VisionResponse, error) {
			// 未来日付はドメイン検証で弾かれる
			return &schema.VisionResponse{
				TotalAmount: 100,
				ReceiptDate: recentDate(-5),
				Items:       []schema.VisionItem{{Name: "品目", Price: 100}},
			}, nil
		},
	}
	receipts := &MockReceiptRepository{}
	uc := newTestUseCase(vision, receipts, nil, nil)

	receipt, err := uc.ProcessReceipt(t.Context(), "receipt.jpg", "user-1")
	if err != nil {
		t.Fatalf("ProcessReceipt() error = %v", err)
	}
	if !receipt.IsFailed() {
		t.Errorf("Status() = %v, want failed", receipt.Status())
	}
}

func TestProcessReceipt_MissingImage(t *testing.T) {
	images := &MockImageRepository{
		LoadFunc: func(ctx context.Context, name string) (*repository.StoredImage, error) {
			return nil, fmt.Errorf("%w: %s", repository.ErrImageNotFound, name)
		},
	}
	uc := newTestUseCase(nil, nil, nil, images)

	_, err := uc.ProcessReceipt(t.Context(), "missing.jpg", "user-1")
	if !errors.Is(err, repository.ErrImageNotFound) {
		t.Errorf("ProcessReceipt() error = %v, want ErrImageNotFound", err)
	}
}

func TestProcessReceipt_InvalidUserID(t *testing.T) {
	uc := newTestUseCase(nil, nil, nil, nil)

	if _, err := uc.ProcessReceipt(t.Context(), "receipt.jpg", "user/1"); err == nil {
		t.Error("ProcessReceipt() expected error for invalid user id")
	}
}

func TestProcessReceipt_UsesCache(t *testing.T) {
	vision := &MockVisionRepository{}
	cache := NewMockCacheRepository()
	uc := newTestUseCase(vision, nil, cache, nil)

	if _, err := uc.ProcessReceipt(t.Context(), "receipt.jpg", "user-1"); err != nil {
		t.Fatalf("ProcessReceipt() error = %v", err)
	}
	if _, err := uc.ProcessReceipt(t.Context(), "receipt.jpg", "user-1"); err != nil {
		t.Fatalf("ProcessReceipt() error = %v", err)
	}

	// 2回目は同一画像のためキャッシュが使われる
	if vision.calls != 1 {
		t.Errorf("ExtractReceipt called %d times, want 1", vision.calls)
	}
}

func TestProcessReceipt_IgnoresCorruptedCache(t *testing.T) {
	vision := &MockVisionRepository{}
	cache := NewMockCacheRepository()
	uc := newTestUseCase(vision, nil, cache, nil)

	// 事前に壊れたキャッシュを仕込む
	img, _ := (&MockImageRepository{}).Load(t.Context(), "receipt.jpg")
	_ = cache.Set(t.Context(), visionCacheKey(img.Data), []byte("{broken"), time.Hour)

	receipt, err := uc.ProcessReceipt(t.Context(), "receipt.jpg", "user-1")
	if err != nil {
		t.Fatalf("ProcessReceipt() error = %v", err)
	}
	if !receipt.IsCompleted() {
		t.Errorf("Status() = %v, want completed", receipt.Status())
	}
	if vision.calls != 1 {
		t.Errorf("ExtractReceipt called %d times, want 1", vision.calls)
	}
}

func TestListReceipts(t *testing.T) {
	receipts := &MockReceiptRepository{
		FindByUserFunc: func(ctx context.Context, userID string, limit, offset int) ([]*entity.Receipt, error) {
			if limit != 50 || offset != 0 {
				t.Errorf("FindByUser(limit=%d, offset=%d)", limit, offset)
			}
			return []*entity.Receipt{}, nil
		},
	}
	uc := newTestUseCase(nil, receipts, nil, nil)

	if _, err := uc.ListReceipts(t.Context(), "user-1", schema.DefaultListReceiptsQuery()); err != nil {
		t.Fatalf("ListReceipts() error = %v", err)
	}

	if _, err := uc.ListReceipts(t.Context(), "user/1", schema.DefaultListReceiptsQuery()); err == nil {
		t.Error("ListReceipts() expected error for invalid user id")
	}
}

func TestUploadImage(t *testing.T) {
	var savedName string
	images := &MockImageRepository{
		SaveFunc: func(ctx context.Context, name string, img *repository.StoredImage) error {
			savedName = name
			return nil
		},
	}
	uc := newTestUseCase(nil, nil, nil, images)

	cred, err := uc.IssueUploadToken("receipt.png")
	if err != nil {
		t.Fatalf("IssueUploadToken() error = %v", err)
	}

	pngData := makeTestPNG(t)
	if err := uc.UploadImage(t.Context(), cred.Token, cred.BlobName, pngData); err != nil {
		t.Fatalf("UploadImage() error = %v", err)
	}
	if savedName != cred.BlobName {
		t.Errorf("saved name = %q, want %q", savedName, cred.BlobName)
	}

	// トークンと異なるBlob名は拒否
	if err := uc.UploadImage(t.Context(), cred.Token, "other.png", pngData); !errors.Is(err, uploadtoken.ErrBlobNameMismatch) {
		t.Errorf("UploadImage() error = %v, want ErrBlobNameMismatch", err)
	}

	// 画像でないデータは拒否
	if err := uc.UploadImage(t.Context(), cred.Token, cred.BlobName, []byte("not an image")); err == nil {
		t.Error("UploadImage() expected error for non-image data")
	}
}
