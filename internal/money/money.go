// Package money хранит суммы в минимальных единицах валюты (центах).
package money

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Cents - сумма в центах
type Cents int64

// FromFloat переводит десятичную сумму в центы с округлением до ближайшего
func FromFloat(amount float64) Cents {
	return Cents(math.Round(amount * 100))
}

func (c Cents) Float64() float64 {
	return float64(c) / 100
}

func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON выводит сумму числом с двумя знаками: 765.00
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalJSON принимает число в десятичной записи
func (c *Cents) UnmarshalJSON(b []byte) error {
	var f json.Number
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("money: %w", err)
	}
	v, err := strconv.ParseFloat(f.String(), 64)
	if err != nil {
		return fmt.Errorf("money: %w", err)
	}
	*c = FromFloat(v)
	return nil
}

// GormDataType - колонка BIGINT
func (Cents) GormDataType() string {
	return "bigint"
}

func (c Cents) Value() (driver.Value, error) {
	return int64(c), nil
}

func (c *Cents) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c = 0
	case int64:
		*c = Cents(v)
	case int32:
		*c = Cents(v)
	case float64:
		*c = Cents(math.Round(v))
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("money: scan %q: %w", v, err)
		}
		*c = Cents(n)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("money: scan %q: %w", v, err)
		}
		*c = Cents(n)
	default:
		return fmt.Errorf("money: unsupported scan type %T", src)
	}
	return nil
}

// BasisPoints - ставка в сотых долях процента (1500 = 15%)
type BasisPoints int64

// RateToBasisPoints переводит 0.15 в 1500
func RateToBasisPoints(rate float64) BasisPoints {
	return BasisPoints(math.Round(rate * 10000))
}

// Split делит сумму на комиссию и долю пилота.
// commission + pilot == total всегда.
func Split(total Cents, rate BasisPoints) (commission, pilot Cents) {
	commission = Percent(total, rate)
	return commission, total - commission
}

// Percent - доля суммы с округлением половины вверх
func Percent(total Cents, rate BasisPoints) Cents {
	return Cents((int64(total)*int64(rate) + 5000) / 10000)
}

// Fraction возвращает amount*part/whole, для частичных возвратов
func Fraction(amount, part, whole Cents) Cents {
	if whole == 0 {
		return 0
	}
	return Cents((int64(amount)*int64(part) + int64(whole)/2) / int64(whole))
}
