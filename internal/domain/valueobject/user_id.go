package valueobject

import (
	"errors"
	"fmt"
	"strings"
)

const maxUserIDLength = 100

var (
	ErrEmptyUserID        = errors.New("user id cannot be empty")
	ErrUserIDTooLong      = fmt.Errorf("user id is too long (max %d characters)", maxUserIDLength)
	ErrUserIDInvalidChars = errors.New("user id contains characters not allowed in a storage partition key")
	ErrUserIDControlChars = errors.New("user id contains control characters")
)

// UserID 認証プロバイダーから供給されるユーザー識別子
// 永続化層のパーティションキーとして使うため、キーに使えない文字を拒否する。
type UserID struct {
	value string
}

// NewUserID 生のID文字列からUserIDを作成
func NewUserID(id string) (UserID, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return UserID{}, ErrEmptyUserID
	}
	if len([]rune(trimmed)) > maxUserIDLength {
		return UserID{}, ErrUserIDTooLong
	}

	// パーティションキー禁止文字: / \ # ?
	if strings.ContainsAny(trimmed, `/\#?`) {
		return UserID{}, fmt.Errorf("%w: %q", ErrUserIDInvalidChars, trimmed)
	}

	// 制御文字チェック（U+0000-U+001F, U+007F-U+009F）
	for _, r := range trimmed {
		if r <= 0x1F || (r >= 0x7F && r <= 0x9F) {
			return UserID{}, ErrUserIDControlChars
		}
	}

	return UserID{value: trimmed}, nil
}

// String 文字列表現を返す
func (u UserID) String() string {
	return u.value
}

// Equals 値による等価比較
func (u UserID) Equals(other UserID) bool {
	return u.value == other.value
}

// ToPartitionKey 永続化層のパーティションキー値を返す
func (u UserID) ToPartitionKey() string {
	return u.value
}
