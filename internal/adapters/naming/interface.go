package naming

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Registrar binds human-readable labels under a parent name to owner
// addresses. Registration happens once per agent, at creation time;
// the returned node hash is stored opaquely by the registry.
type Registrar interface {
	RegisterSubname(ctx context.Context, label string, owner common.Address) (common.Hash, error)
}
