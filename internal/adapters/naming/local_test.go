package naming

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestLocalRegistrar_RegisterSubname(t *testing.T) {
	ctx := context.Background()
	alice := common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob := common.HexToAddress("0x2222222222222222222222222222222222222222")

	r := NewLocalRegistrar("agents.eth")

	node, err := r.RegisterSubname(ctx, "alice", alice)
	if err != nil {
		t.Fatalf("registration failed: %v", err)
	}
	if want := Namehash("alice.agents.eth"); node != want {
		t.Errorf("node = %s, want %s", node.Hex(), want.Hex())
	}

	t.Run("same owner can re-register", func(t *testing.T) {
		again, err := r.RegisterSubname(ctx, "alice", alice)
		if err != nil {
			t.Fatalf("re-registration by owner failed: %v", err)
		}
		if again != node {
			t.Error("re-registration changed the node")
		}
	})

	t.Run("different owner rejected", func(t *testing.T) {
		if _, err := r.RegisterSubname(ctx, "alice", bob); err == nil {
			t.Error("taken label should be rejected")
		}
	})

	t.Run("empty label rejected", func(t *testing.T) {
		if _, err := r.RegisterSubname(ctx, "", alice); err == nil {
			t.Error("empty label should be rejected")
		}
	})

	t.Run("dotted label rejected", func(t *testing.T) {
		if _, err := r.RegisterSubname(ctx, "a.b", alice); err == nil {
			t.Error("dotted label should be rejected")
		}
	})
}
