package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math/big"
)

// TradeAmount is the amount an agent trades when its trigger fires.
// It is a tagged value: either an exact token amount, or "use whatever
// balance is available", resolved by the swap venue at execution time.
// The two cases are kept distinct so that "trade nothing" can never be
// confused with "trade everything".
type TradeAmount struct {
	exact *BigInt
	all   bool
}

// ExactAmount builds a TradeAmount for a fixed token amount
func ExactAmount(v *big.Int) TradeAmount {
	return TradeAmount{exact: NewBigInt(v)}
}

// UseAvailableBalance builds a TradeAmount resolved against the owner's
// balance by the swap venue
func UseAvailableBalance() TradeAmount {
	return TradeAmount{all: true}
}

// IsUseAvailableBalance reports whether the venue should spend the full balance
func (a TradeAmount) IsUseAvailableBalance() bool {
	return a.all
}

// Exact returns the fixed amount, or nil for the use-available-balance case
func (a TradeAmount) Exact() *big.Int {
	if a.exact == nil {
		return nil
	}
	return new(big.Int).Set(&a.exact.Int)
}

// Validate rejects amounts that are neither a positive exact value nor
// the use-available-balance marker
func (a TradeAmount) Validate() error {
	if a.all {
		return nil
	}
	if a.exact == nil || a.exact.Sign() <= 0 {
		return fmt.Errorf("exact amount must be positive")
	}
	return nil
}

// Copy returns an independent copy
func (a TradeAmount) Copy() TradeAmount {
	return TradeAmount{exact: a.exact.Copy(), all: a.all}
}

// Value stores the exact amount as NUMERIC; use-available-balance maps to NULL
func (a TradeAmount) Value() (driver.Value, error) {
	if a.all {
		return nil, nil
	}
	if a.exact == nil {
		return nil, fmt.Errorf("trade amount is unset")
	}
	return a.exact.String(), nil
}

// Scan restores a TradeAmount from its column form
func (a *TradeAmount) Scan(src interface{}) error {
	if src == nil {
		*a = UseAvailableBalance()
		return nil
	}
	b := &BigInt{}
	if err := b.Scan(src); err != nil {
		return fmt.Errorf("failed to scan trade amount: %w", err)
	}
	*a = TradeAmount{exact: b}
	return nil
}

// MarshalJSON renders {"exact":"<n>"} or {"use_available_balance":true}
func (a TradeAmount) MarshalJSON() ([]byte, error) {
	if a.all {
		return []byte(`{"use_available_balance":true}`), nil
	}
	if a.exact == nil {
		return []byte(`{"exact":"0"}`), nil
	}
	return []byte(`{"exact":"` + a.exact.String() + `"}`), nil
}

// UnmarshalJSON accepts the MarshalJSON forms
func (a *TradeAmount) UnmarshalJSON(data []byte) error {
	var raw struct {
		Exact               *BigInt `json:"exact"`
		UseAvailableBalance bool    `json:"use_available_balance"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.UseAvailableBalance {
		*a = UseAvailableBalance()
		return nil
	}
	*a = TradeAmount{exact: raw.Exact}
	return nil
}
