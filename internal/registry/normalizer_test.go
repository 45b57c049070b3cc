package registry

import (
	"math"
	"math/big"
	"testing"

	"github.com/selivandex/agent-registry/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init("error", ""); err != nil {
		panic(err)
	}
	m.Run()
}

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		name     string
		mantissa int64
		expo     int32
		want     string
	}{
		{"canonical exponent passes through", 12345678, -8, "12345678"},
		{"btc style price", 6000000000000, -8, "6000000000000"},
		{"finer exponent truncates", 1234567890123, -10, "12345678901"},
		{"coarser exponent scales up", 3000, -2, "3000000000"},
		{"zero exponent divides away the scale", 5, 0, "5"},
		{"positive exponent truncates to zero", 5, 2, "0"},
		{"zero mantissa", 0, -8, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePrice(tt.mantissa, tt.expo)
			if got.String() != tt.want {
				t.Errorf("NormalizePrice(%d, %d) = %s, want %s", tt.mantissa, tt.expo, got, tt.want)
			}
		})
	}
}

func TestNormalizePrice_NegativeMantissaCoercion(t *testing.T) {
	// A negative mantissa is reinterpreted as unsigned, so -1 becomes
	// the maximum uint64 and the result is a huge positive price
	got := NormalizePrice(-1, -8)

	want := new(big.Int).SetUint64(^uint64(0))
	if got.Cmp(want) != 0 {
		t.Errorf("NormalizePrice(-1, -8) = %s, want %s", got, want)
	}
	if got.Sign() <= 0 {
		t.Error("coerced price must be positive")
	}
}

func TestNormalizePrice_ExtremeExponents(t *testing.T) {
	tests := []struct {
		name     string
		mantissa int64
		expo     int32
	}{
		{"min int32 exponent", 12345678, math.MinInt32},
		{"max int32 exponent", 12345678, math.MaxInt32},
		{"just past the useful range down", math.MaxInt64, -39},
		{"just past the useful range up", math.MaxInt64, 39},
		{"largest exponent that still computes", math.MaxInt64, -38},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePrice(tt.mantissa, tt.expo)
			if got.Sign() != 0 {
				t.Errorf("NormalizePrice(%d, %d) = %s, want 0", tt.mantissa, tt.expo, got)
			}
		})
	}
}

func TestConditionMet(t *testing.T) {
	trigger := big.NewInt(300000000000) // $3000 at 1e8

	tests := []struct {
		name         string
		price        int64
		triggerAbove bool
		want         bool
	}{
		{"above trigger fires over threshold", 300000000001, true, true},
		{"above trigger fires at exact threshold", 300000000000, true, true},
		{"above trigger holds below threshold", 299999999999, true, false},
		{"below trigger fires under threshold", 299999999999, false, true},
		{"below trigger fires at exact threshold", 300000000000, false, true},
		{"below trigger holds above threshold", 300000000001, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConditionMet(big.NewInt(tt.price), trigger, tt.triggerAbove)
			if got != tt.want {
				t.Errorf("ConditionMet(%d, %s, %v) = %v, want %v",
					tt.price, trigger, tt.triggerAbove, got, tt.want)
			}
		})
	}
}
