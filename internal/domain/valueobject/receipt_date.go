package valueobject

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// 日本の税法では会計記録（領収書含む）は7年間の保存が義務。
// 会社法の10年要件を採る企業もあるため保存年数は指定可能にする。
const DefaultMaxReceiptAgeYears = 7

const receiptDateLayout = "2006-01-02"

// jstOffset 日本標準時は固定のUTC+9（夏時間なし）
const jstOffset = 9 * time.Hour

var (
	ErrInvalidDateFormat   = errors.New("date string must be in YYYY-MM-DD format")
	ErrInvalidCalendarDate = errors.New("invalid calendar date")
	ErrFutureDate          = errors.New("receipt date cannot be in the future")
	ErrDateTooOld          = errors.New("receipt date exceeds the retention window")
)

var receiptDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ReceiptDate レシート日付値オブジェクト
// タイムゾーンの曖昧性を排除するため YYYY-MM-DD 形式の文字列で保持する。
type ReceiptDate struct {
	value string
}

// NewReceiptDate 文字列からReceiptDateを作成
// ISO形式の日時文字列は日付部分のみを抽出する。保存年数はデフォルト（7年）。
func NewReceiptDate(input string) (ReceiptDate, error) {
	return NewReceiptDateWithMaxAge(input, DefaultMaxReceiptAgeYears)
}

// NewReceiptDateWithMaxAge 保存年数を指定してReceiptDateを作成
func NewReceiptDateWithMaxAge(input string, maxAgeYears int) (ReceiptDate, error) {
	// ISO日時の場合は日付部分のみを使う
	dateOnly, _, _ := strings.Cut(input, "T")

	if !receiptDatePattern.MatchString(dateOnly) {
		return ReceiptDate{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, input)
	}

	// 厳密パース。2024-02-30 のような存在しない日付はここで弾く
	parsed, err := time.Parse(receiptDateLayout, dateOnly)
	if err != nil || parsed.Format(receiptDateLayout) != dateOnly {
		return ReceiptDate{}, fmt.Errorf("%w: %q", ErrInvalidCalendarDate, dateOnly)
	}

	if err := validateDateBusinessRules(dateOnly, maxAgeYears); err != nil {
		return ReceiptDate{}, err
	}

	return ReceiptDate{value: dateOnly}, nil
}

// NewReceiptDateFromTime time.TimeからReceiptDateを作成（UTCの日付を使用）
func NewReceiptDateFromTime(t time.Time) (ReceiptDate, error) {
	return NewReceiptDate(t.UTC().Format(receiptDateLayout))
}

func validateDateBusinessRules(date string, maxAgeYears int) error {
	// 日本における「今日」。時差は固定+9時間
	nowJST := time.Now().UTC().Add(jstOffset)
	today := nowJST.Format(receiptDateLayout)

	// 未来の日付は許可しない
	if date > today {
		return fmt.Errorf("%w: %s is after %s", ErrFutureDate, date, today)
	}

	// 保存期間を超えた古い日付は許可しない
	oldest := nowJST.AddDate(-maxAgeYears, 0, 0).Format(receiptDateLayout)
	if date < oldest {
		return fmt.Errorf("%w: older than %d years", ErrDateTooOld, maxAgeYears)
	}

	return nil
}

// String YYYY-MM-DD形式の文字列を返す
func (d ReceiptDate) String() string {
	return d.value
}

// IsZero 未設定かどうか
func (d ReceiptDate) IsZero() bool {
	return d.value == ""
}

// Equals 同じ日付かどうか
func (d ReceiptDate) Equals(other ReceiptDate) bool {
	return d.value == other.value
}

// IsBefore 他の日付より前かどうか（日単位の比較）
func (d ReceiptDate) IsBefore(other ReceiptDate) bool {
	return d.value < other.value
}

// IsAfter 他の日付より後かどうか（日単位の比較）
func (d ReceiptDate) IsAfter(other ReceiptDate) bool {
	return d.value > other.value
}

// ToPersistenceString 永続化用のISO形式文字列を返す
func (d ReceiptDate) ToPersistenceString() string {
	return d.value + "T00:00:00.000Z"
}

// FormatForDisplay 日本のユーザー向け表示（例: 2024年1月5日、ゼロ埋めなし）
func (d ReceiptDate) FormatForDisplay() string {
	t := d.AsTime()
	return fmt.Sprintf("%d年%d月%d日", t.Year(), int(t.Month()), t.Day())
}

// Format 任意のレイアウトで整形した文字列を返す
func (d ReceiptDate) Format(layout string) string {
	return d.AsTime().Format(layout)
}

// AsTime UTC真夜中のtime.Timeとして返す
func (d ReceiptDate) AsTime() time.Time {
	t, _ := time.Parse(receiptDateLayout, d.value)
	return t
}
