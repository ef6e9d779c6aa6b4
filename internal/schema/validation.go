// Package schema 入力境界の契約
// リクエストボディ・クエリパラメータ・AIモデル応答の形を宣言的に検証し、
// ドメイン層には形の正しいプリミティブだけを渡す。
package schema

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	maxFilenameLength = 255
	maxBlobNameLength = 1024
	maxItemCount      = 100
)

var (
	safeFilenamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	blobNamePattern     = regexp.MustCompile(`^(?i)[a-zA-Z0-9._-]+\.(jpg|jpeg|png|webp|pdf)$`)
	userIdentPattern    = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	isoDatePattern      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(T\d{2}:\d{2}:\d{2}(\.\d{3})?Z?)?$`)
	unsafeTextPattern   = regexp.MustCompile(`(?i)<script|javascript:|on\w+=`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// エラーのフィールドパスにはjsonタグ名を使う
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// スクリプトタグ・イベントハンドラーを含まない文字列（XSS対策）
	mustRegister(v, "safetext", func(fl validator.FieldLevel) bool {
		return !unsafeTextPattern.MatchString(fl.Field().String())
	})

	// パストラバーサルを許さないファイル名
	mustRegister(v, "safefilename", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if !safeFilenamePattern.MatchString(s) {
			return false
		}
		return !strings.Contains(s, "..")
	})

	// 画像・PDF拡張子を持つBlob名
	mustRegister(v, "blobname", func(fl validator.FieldLevel) bool {
		return blobNamePattern.MatchString(fl.Field().String())
	})

	// ユーザー識別子として使える文字のみ
	mustRegister(v, "userident", func(fl validator.FieldLevel) bool {
		return userIdentPattern.MatchString(fl.Field().String())
	})

	// YYYY-MM-DD または ISO日時文字列
	mustRegister(v, "isodate", func(fl validator.FieldLevel) bool {
		return isoDatePattern.MatchString(fl.Field().String())
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// Validate 構造体タグに基づくバリデーションを実行
// 失敗時は全フィールドの問題点を集めたValidationErrorを返す。
func Validate(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	if ve, ok := err.(validator.ValidationErrors); ok {
		return newValidationError(ve)
	}
	return err
}
