// Package uploadtoken 署名付きアップロードトークンの発行と検証
// クライアントはトークンに紐づくBlob名に対してのみ、期限内のアップロードができる。
package uploadtoken

import (
	"crypto/rand"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"

	"github.com/xiaotiantakumi/receiptify/internal/config"
)

const tokenName = "upload_token"

var (
	// ErrInvalidToken トークンの署名が不正、または形式が壊れている
	ErrInvalidToken = errors.New("invalid upload token")
	// ErrTokenExpired トークンの有効期限が切れている
	ErrTokenExpired = errors.New("upload token expired")
	// ErrBlobNameMismatch トークンに紐づくBlob名と要求されたBlob名が一致しない
	ErrBlobNameMismatch = errors.New("upload token does not cover this blob name")
)

// Credential 発行済みのアップロード資格情報
type Credential struct {
	Token     string    `json:"token"`
	BlobName  string    `json:"blobName"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// tokenPayload 署名対象のトークン内容
type tokenPayload struct {
	BlobName  string `json:"blobName"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Issuer HMAC署名付きトークンの発行者
type Issuer struct {
	codec    *securecookie.SecureCookie
	tokenTTL time.Duration
}

// NewIssuer 新しいIssuerを作成
// 鍵が未設定の場合はプロセス起動ごとにランダム鍵を生成する
// （再起動で既発行トークンは無効になる）。
func NewIssuer(cfg *config.UploadConfig) *Issuer {
	hashKey := []byte(cfg.HashKey)
	if len(hashKey) == 0 {
		hashKey = randomKey(64)
	}
	blockKey := []byte(cfg.BlockKey)
	if len(blockKey) == 0 {
		blockKey = randomKey(32)
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(0) // 期限はペイロード内のExpiresAtで検証する

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &Issuer{codec: codec, tokenTTL: ttl}
}

// Issue 新しいアップロード資格情報を発行
// fileNameが空の場合はjpg拡張子のBlob名を生成する。
func (i *Issuer) Issue(fileName string) (*Credential, error) {
	blobName := buildBlobName(fileName)
	expiresAt := time.Now().UTC().Add(i.tokenTTL)

	token, err := i.codec.Encode(tokenName, tokenPayload{
		BlobName:  blobName,
		ExpiresAt: expiresAt.UnixNano(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode upload token: %w", err)
	}

	return &Credential{
		Token:     token,
		BlobName:  blobName,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify トークンを検証し、blobNameへのアップロードを許可するか判定
func (i *Issuer) Verify(token, blobName string) error {
	var payload tokenPayload
	if err := i.codec.Decode(tokenName, token, &payload); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if time.Now().UnixNano() > payload.ExpiresAt {
		return ErrTokenExpired
	}

	if payload.BlobName != blobName {
		return ErrBlobNameMismatch
	}

	return nil
}

// buildBlobName 衝突しないBlob名を生成
// 元のファイル名からは拡張子のみを引き継ぐ。
func buildBlobName(fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".pdf":
	default:
		ext = ".jpg"
	}
	return uuid.NewString() + ext
}

func randomKey(n int) []byte {
	key := make([]byte, n)
	if _, err := rand.Read(key); err != nil {
		panic(fmt.Sprintf("failed to generate random key: %v", err))
	}
	return key
}
