package registry

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestAuthorizeMutation(t *testing.T) {
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	other := common.HexToAddress("0x2222222222222222222222222222222222222222")

	t.Run("owner is authorized", func(t *testing.T) {
		if err := AuthorizeMutation(owner, owner); err != nil {
			t.Errorf("owner should be authorized, got %v", err)
		}
	})

	t.Run("non-owner is rejected", func(t *testing.T) {
		err := AuthorizeMutation(owner, other)
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("zero address caller is rejected", func(t *testing.T) {
		err := AuthorizeMutation(owner, common.Address{})
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})
}
