package valueobject

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Currency 通貨コード
type Currency string

// CurrencyJPY 日本円
const CurrencyJPY Currency = "JPY"

var (
	ErrInvalidAmount    = errors.New("amount must be a finite number")
	ErrNegativeAmount   = errors.New("amount cannot be negative")
	ErrCurrencyMismatch = errors.New("cannot operate on money of different currencies")
	ErrNegativeResult   = errors.New("operation resulted in a negative amount")
	ErrInvalidFactor    = errors.New("multiplication factor must be a finite number")
)

// Money 金額値オブジェクト
// 銭単位（1円=100銭）の整数で保持する固定小数点表現。
// すべての演算は新しいインスタンスを返し、負の金額は存在しない。
type Money struct {
	amount   int64
	currency Currency
}

// NewMoneyFromYen 円単位の金額からMoneyを作成
// 銭未満の端数は切り捨てる（日本の消費税計算に準拠、切り上げは行わない）。
func NewMoneyFromYen(yen float64) (Money, error) {
	if math.IsNaN(yen) || math.IsInf(yen, 0) {
		return Money{}, ErrInvalidAmount
	}
	sen := int64(math.Floor(yen * 100))
	return newMoney(sen)
}

// NewMoneyFromSen 銭単位の整数からMoneyを作成
func NewMoneyFromSen(sen int64) (Money, error) {
	return newMoney(sen)
}

func newMoney(sen int64) (Money, error) {
	if sen < 0 {
		return Money{}, fmt.Errorf("%w: %d sen", ErrNegativeAmount, sen)
	}
	return Money{amount: sen, currency: CurrencyJPY}, nil
}

// AmountInSen 銭単位の金額を返す
func (m Money) AmountInSen() int64 {
	return m.amount
}

// Yen 円単位の金額を返す
func (m Money) Yen() float64 {
	return float64(m.amount) / 100
}

// Currency 通貨コードを返す
func (m Money) Currency() Currency {
	return m.currency
}

// Equals 通貨と銭単位の金額が一致するかどうか
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount == other.amount
}

// Add 同一通貨の金額を加算した新しいMoneyを返す
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return newMoney(m.amount + other.amount)
}

// Subtract 同一通貨の金額を減算した新しいMoneyを返す
// 結果が負になる場合はエラー。
func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	result := m.amount - other.amount
	if result < 0 {
		return Money{}, fmt.Errorf("%w: subtraction", ErrNegativeResult)
	}
	return newMoney(result)
}

// Multiply 係数を掛けた新しいMoneyを返す
// 銭単位の積は最近接整数に丸める（四捨五入、.5は0から遠い方向）。
func (m Money) Multiply(factor float64) (Money, error) {
	if math.IsNaN(factor) || math.IsInf(factor, 0) {
		return Money{}, ErrInvalidFactor
	}
	product := math.Round(float64(m.amount) * factor)
	if product < 0 {
		return Money{}, fmt.Errorf("%w: multiplication", ErrNegativeResult)
	}
	return newMoney(int64(product))
}

// Format 表示用フォーマット（例: "1,234 JPY"）
// 円単位の金額を3桁区切りで整形し、通貨コードを後置する。
func (m Money) Format() string {
	return groupDigits(m.Yen()) + " " + string(m.currency)
}

// groupDigits 3桁区切りの文字列表現を返す
func groupDigits(yen float64) string {
	s := strconv.FormatFloat(yen, 'f', -1, 64)
	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}
	if len(intPart) <= 3 {
		return intPart + fracPart
	}
	var out []byte
	lead := len(intPart) % 3
	if lead > 0 {
		out = append(out, intPart[:lead]...)
	}
	for i := lead; i < len(intPart); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, intPart[i:i+3]...)
	}
	return string(out) + fracPart
}
