package registry

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// AuthorizeMutation rejects any caller other than the agent's owner.
// Plain equality, no delegation: reads are public, mutations are
// exclusively the owner's.
func AuthorizeMutation(owner, caller common.Address) error {
	if owner != caller {
		return fmt.Errorf("%w: caller %s, owner %s", ErrUnauthorized, caller.Hex(), owner.Hex())
	}
	return nil
}
