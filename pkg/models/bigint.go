package models

import (
	"database/sql/driver"
	"fmt"
	"math/big"
)

// BigInt wraps math/big.Int with SQL and JSON codecs so canonical
// fixed-point prices survive the round trip through NUMERIC columns.
type BigInt struct {
	big.Int
}

// NewBigInt creates BigInt from *big.Int (nil becomes zero)
func NewBigInt(v *big.Int) *BigInt {
	b := &BigInt{}
	if v != nil {
		b.Set(v)
	}
	return b
}

// NewBigIntFromUint64 creates BigInt from uint64
func NewBigIntFromUint64(v uint64) *BigInt {
	b := &BigInt{}
	b.SetUint64(v)
	return b
}

// Copy returns an independent copy
func (b *BigInt) Copy() *BigInt {
	if b == nil {
		return nil
	}
	return NewBigInt(&b.Int)
}

// Value implements driver.Valuer, rendering the integer in base 10
func (b *BigInt) Value() (driver.Value, error) {
	if b == nil {
		return nil, nil
	}
	return b.String(), nil
}

// Scan implements sql.Scanner for NUMERIC, text and integer columns
func (b *BigInt) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		b.SetInt64(0)
		return nil
	case int64:
		b.SetInt64(v)
		return nil
	case []byte:
		return b.setString(string(v))
	case string:
		return b.setString(v)
	default:
		return fmt.Errorf("cannot scan %T into BigInt", src)
	}
}

func (b *BigInt) setString(s string) error {
	if _, ok := b.SetString(s, 10); !ok {
		return fmt.Errorf("invalid integer literal %q", s)
	}
	return nil
}

// MarshalJSON renders the integer as a decimal string to avoid
// float precision loss in JSON consumers
func (b *BigInt) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	return []byte(`"` + b.String() + `"`), nil
}

// UnmarshalJSON accepts both quoted and bare decimal integers
func (b *BigInt) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		b.SetInt64(0)
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return b.setString(s)
}
