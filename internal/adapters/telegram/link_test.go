package telegram

import (
	"crypto/ecdsa"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

func signLinkChallenge(t *testing.T, telegramID int64, key *ecdsa.PrivateKey) []byte {
	t.Helper()

	sig, err := crypto.Sign(accounts.TextHash([]byte(LinkChallenge(telegramID))), key)
	if err != nil {
		t.Fatalf("failed to sign challenge: %v", err)
	}
	return sig
}

func TestVerifyLinkSignature(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	owner := crypto.PubkeyToAddress(key.PublicKey)

	const telegramID = int64(424242)
	sig := signLinkChallenge(t, telegramID, key)

	// Raw recovery id (0/1) as crypto.Sign produces it
	if err := verifyLinkSignature(telegramID, owner, hexutil.Encode(sig)); err != nil {
		t.Errorf("valid signature rejected: %v", err)
	}

	// Wallet-style recovery id (27/28)
	walletSig := make([]byte, len(sig))
	copy(walletSig, sig)
	walletSig[crypto.RecoveryIDOffset] += 27
	if err := verifyLinkSignature(telegramID, owner, hexutil.Encode(walletSig)); err != nil {
		t.Errorf("wallet-form signature rejected: %v", err)
	}
}

func TestVerifyLinkSignature_RejectsForgedClaims(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	owner := crypto.PubkeyToAddress(key.PublicKey)

	const telegramID = int64(424242)
	sig := hexutil.Encode(signLinkChallenge(t, telegramID, key))

	t.Run("claiming someone else's address", func(t *testing.T) {
		other := common.HexToAddress("0x2222222222222222222222222222222222222222")
		if err := verifyLinkSignature(telegramID, other, sig); err == nil {
			t.Error("signature must not link an address its signer does not control")
		}
	})

	t.Run("replaying for another telegram account", func(t *testing.T) {
		if err := verifyLinkSignature(telegramID+1, owner, sig); err == nil {
			t.Error("challenge signature must be bound to the telegram id it was issued for")
		}
	})

	t.Run("malformed signatures", func(t *testing.T) {
		for _, bad := range []string{"", "not-hex", "0x", "0x1234"} {
			if err := verifyLinkSignature(telegramID, owner, bad); err == nil {
				t.Errorf("malformed signature %q accepted", bad)
			}
		}
	})
}
