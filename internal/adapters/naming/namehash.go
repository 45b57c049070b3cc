package naming

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Namehash computes the ENS namehash of a dot-separated name:
// namehash("") is the zero hash, and for each label from right to left
// node = keccak256(node || keccak256(label)).
func Namehash(name string) common.Hash {
	node := common.Hash{}
	if name == "" {
		return node
	}

	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		labelHash := crypto.Keccak256([]byte(labels[i]))
		node = crypto.Keccak256Hash(node.Bytes(), labelHash)
	}
	return node
}

// SubnodeHash computes the node of a label directly under a parent node
func SubnodeHash(parent common.Hash, label string) common.Hash {
	labelHash := crypto.Keccak256([]byte(label))
	return crypto.Keccak256Hash(parent.Bytes(), labelHash)
}
