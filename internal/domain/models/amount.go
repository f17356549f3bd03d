package models

import (
	"encoding/json"
	"reflect"

	"github.com/shopspring/decimal"
)

// Amount is a money value sent by a client. Unlike decimal.Decimal it only
// decodes from a JSON number, never from a quoted string.
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return &json.UnmarshalTypeError{Value: "string", Type: reflect.TypeOf(Amount{})}
	}
	return a.Decimal.UnmarshalJSON(data)
}

// HasCents reports whether a uses at most two decimal places.
func (a Amount) HasCents() bool {
	return a.Decimal.Equal(a.Decimal.Round(2))
}
