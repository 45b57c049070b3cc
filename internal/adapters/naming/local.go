package naming

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// LocalRegistrar computes name bindings without touching a chain.
// Used when on-chain naming is disabled and in tests; bindings are
// deterministic (same node hashes the on-chain registrar would
// produce) but uniqueness is only enforced within this process.
type LocalRegistrar struct {
	parentNode common.Hash

	mu    sync.Mutex
	taken map[common.Hash]common.Address
}

var _ Registrar = (*LocalRegistrar)(nil)

// NewLocalRegistrar creates a registrar rooted at the given parent name
func NewLocalRegistrar(parentName string) *LocalRegistrar {
	return &LocalRegistrar{
		parentNode: Namehash(parentName),
		taken:      make(map[common.Hash]common.Address),
	}
}

// RegisterSubname binds the label locally, rejecting duplicates
func (r *LocalRegistrar) RegisterSubname(ctx context.Context, label string, owner common.Address) (common.Hash, error) {
	if err := validateLabel(label); err != nil {
		return common.Hash{}, err
	}

	node := SubnodeHash(r.parentNode, label)

	r.mu.Lock()
	defer r.mu.Unlock()

	if holder, ok := r.taken[node]; ok && holder != owner {
		return common.Hash{}, fmt.Errorf("label %q is already registered", label)
	}
	r.taken[node] = owner

	return node, nil
}
