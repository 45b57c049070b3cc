package owners

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/selivandex/agent-registry/test/testdb"
)

func TestRepository_LinkAndResolve(t *testing.T) {
	db := testdb.Setup(t)
	repo := NewRepository(db)
	ctx := context.Background()

	alice := common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob := common.HexToAddress("0x2222222222222222222222222222222222222222")

	if err := repo.Link(ctx, 100, alice); err != nil {
		t.Fatalf("failed to link: %v", err)
	}

	addr, err := repo.GetAddressByTelegramID(ctx, 100)
	if err != nil {
		t.Fatalf("failed to resolve address: %v", err)
	}
	if addr != alice {
		t.Errorf("address: got %s, want %s", addr.Hex(), alice.Hex())
	}

	id, err := repo.GetTelegramIDByOwner(ctx, alice)
	if err != nil {
		t.Fatalf("failed to resolve telegram id: %v", err)
	}
	if id != 100 {
		t.Errorf("telegram id: got %d, want 100", id)
	}

	t.Run("relink replaces the address", func(t *testing.T) {
		if err := repo.Link(ctx, 100, bob); err != nil {
			t.Fatalf("failed to relink: %v", err)
		}
		addr, err := repo.GetAddressByTelegramID(ctx, 100)
		if err != nil {
			t.Fatalf("failed to resolve address: %v", err)
		}
		if addr != bob {
			t.Errorf("address after relink: got %s, want %s", addr.Hex(), bob.Hex())
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := repo.GetAddressByTelegramID(ctx, 999)
		if !errors.Is(err, ErrNotLinked) {
			t.Errorf("expected ErrNotLinked, got %v", err)
		}
	})

	t.Run("unknown owner", func(t *testing.T) {
		_, err := repo.GetTelegramIDByOwner(ctx, common.HexToAddress("0x9999999999999999999999999999999999999999"))
		if !errors.Is(err, ErrNotLinked) {
			t.Errorf("expected ErrNotLinked, got %v", err)
		}
	})
}
