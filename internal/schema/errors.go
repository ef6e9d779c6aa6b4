package schema

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldIssue バリデーション違反のあった1フィールド分の情報
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError 構造体バリデーションの全違反を集めたエラー
type ValidationError struct {
	Issues []FieldIssue `json:"issues"`
}

func newValidationError(errs validator.ValidationErrors) *ValidationError {
	issues := make([]FieldIssue, 0, len(errs))
	for _, fe := range errs {
		issues = append(issues, FieldIssue{
			Field:   fieldPath(fe),
			Message: issueMessage(fe),
		})
	}
	return &ValidationError{Issues: issues}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// fieldPath 先頭の構造体名を除いたフィールドパスを返す
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "必須項目です"
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s文字以上で入力してください", fe.Param())
		}
		return fmt.Sprintf("%s以上を指定してください", fe.Param())
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s文字以内で入力してください", fe.Param())
		}
		return fmt.Sprintf("%s以下を指定してください", fe.Param())
	case "gt":
		return fmt.Sprintf("%sより大きい値を指定してください", fe.Param())
	case "gte":
		return fmt.Sprintf("%s以上の値を指定してください", fe.Param())
	case "lte":
		return fmt.Sprintf("%s以下の値を指定してください", fe.Param())
	case "safetext":
		return "使用できない文字列が含まれています"
	case "safefilename":
		return "ファイル名に使用できない文字が含まれています"
	case "blobname":
		return "対応していないファイル形式です"
	case "userident":
		return "ユーザーIDに使用できない文字が含まれています"
	case "isodate":
		return "日付はYYYY-MM-DD形式で指定してください"
	case "dive":
		return "要素の形式が不正です"
	default:
		return fmt.Sprintf("%s制約を満たしていません", fe.Tag())
	}
}
