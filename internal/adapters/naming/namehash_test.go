package naming

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

// Reference vectors from EIP-137
func TestNamehash(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", "0x0000000000000000000000000000000000000000000000000000000000000000"},
		{"eth", "0x93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae"},
		{"foo.eth", "0xde9b09fd7c5f901e23a3f19fecc54828e9c848539801e86591bd9801b019f84f"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Namehash(tt.name)
			if got != common.HexToHash(tt.want) {
				t.Errorf("Namehash(%q) = %s, want %s", tt.name, got.Hex(), tt.want)
			}
		})
	}
}

func TestSubnodeHash_MatchesNamehash(t *testing.T) {
	parent := Namehash("eth")
	if got, want := SubnodeHash(parent, "foo"), Namehash("foo.eth"); got != want {
		t.Errorf("SubnodeHash = %s, want %s", got.Hex(), want.Hex())
	}
}
