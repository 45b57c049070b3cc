package models

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

func validStrategy() Strategy {
	return Strategy{
		PriceFeedID:    common.HexToHash("0xe62df6c8b4a85fe1a67db44dc12de5db330f7ac66b72dc658afedf0f4a415b43"),
		TriggerPrice:   NewBigInt(big.NewInt(300000000000)),
		TriggerAbove:   true,
		TokenIn:        common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
		TokenOut:       common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"),
		AmountIn:       ExactAmount(big.NewInt(100000000)),
		CooldownPeriod: time.Hour,
	}
}

func TestStrategy_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		s := validStrategy()
		if err := s.Validate(); err != nil {
			t.Errorf("valid strategy rejected: %v", err)
		}
	})

	t.Run("same token in and out is permitted", func(t *testing.T) {
		s := validStrategy()
		s.TokenOut = s.TokenIn
		if err := s.Validate(); err != nil {
			t.Errorf("identical token pair should be permitted: %v", err)
		}
	})

	t.Run("zero cooldown is permitted", func(t *testing.T) {
		s := validStrategy()
		s.CooldownPeriod = 0
		if err := s.Validate(); err != nil {
			t.Errorf("zero cooldown should be permitted: %v", err)
		}
	})

	t.Run("use available balance is permitted", func(t *testing.T) {
		s := validStrategy()
		s.AmountIn = UseAvailableBalance()
		if err := s.Validate(); err != nil {
			t.Errorf("use-available-balance should be permitted: %v", err)
		}
	})

	invalid := []struct {
		name   string
		mutate func(*Strategy)
	}{
		{"zero feed id", func(s *Strategy) { s.PriceFeedID = common.Hash{} }},
		{"nil trigger price", func(s *Strategy) { s.TriggerPrice = nil }},
		{"zero trigger price", func(s *Strategy) { s.TriggerPrice = NewBigInt(big.NewInt(0)) }},
		{"negative trigger price", func(s *Strategy) { s.TriggerPrice = NewBigInt(big.NewInt(-1)) }},
		{"zero token in", func(s *Strategy) { s.TokenIn = common.Address{} }},
		{"zero token out", func(s *Strategy) { s.TokenOut = common.Address{} }},
		{"zero exact amount", func(s *Strategy) { s.AmountIn = ExactAmount(big.NewInt(0)) }},
		{"negative cooldown", func(s *Strategy) { s.CooldownPeriod = -time.Second }},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			s := validStrategy()
			tt.mutate(&s)
			if err := s.Validate(); err == nil {
				t.Error("invalid strategy accepted")
			}
		})
	}
}

func TestStrategy_Copy_Independent(t *testing.T) {
	s := validStrategy()
	cp := s.Copy()

	cp.TriggerPrice.SetInt64(1)
	if s.TriggerPrice.Cmp(big.NewInt(300000000000)) != 0 {
		t.Error("copy shares trigger price storage with the original")
	}
}

func TestTradeAmount(t *testing.T) {
	t.Run("exact amount round trip", func(t *testing.T) {
		a := ExactAmount(big.NewInt(42))
		if a.IsUseAvailableBalance() {
			t.Error("exact amount reported as use-available-balance")
		}
		if a.Exact().Cmp(big.NewInt(42)) != 0 {
			t.Errorf("exact value: got %s", a.Exact())
		}
	})

	t.Run("use available balance has no exact value", func(t *testing.T) {
		a := UseAvailableBalance()
		if !a.IsUseAvailableBalance() {
			t.Error("marker lost")
		}
		if a.Exact() != nil {
			t.Errorf("expected nil exact value, got %s", a.Exact())
		}
	})

	t.Run("null column means use available balance", func(t *testing.T) {
		var a TradeAmount
		if err := a.Scan(nil); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		if !a.IsUseAvailableBalance() {
			t.Error("NULL should restore the use-available-balance case")
		}
	})

	t.Run("numeric column restores exact amount", func(t *testing.T) {
		var a TradeAmount
		if err := a.Scan([]byte("100000000")); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		if a.IsUseAvailableBalance() {
			t.Error("numeric value restored as use-available-balance")
		}
		if a.Exact().Cmp(big.NewInt(100000000)) != 0 {
			t.Errorf("exact value: got %s", a.Exact())
		}
	})
}
