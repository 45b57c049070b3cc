package telegram

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// LinkChallenge is the message an owner signs to prove control of the
// address being linked. The Telegram id is part of the message, so a
// signature only links the account it was issued for.
func LinkChallenge(telegramID int64) string {
	return fmt.Sprintf("agent-registry: link telegram account %d", telegramID)
}

// verifyLinkSignature checks that sigHex is a personal_sign signature
// over LinkChallenge(telegramID) made by the claimed address.
func verifyLinkSignature(telegramID int64, claimed common.Address, sigHex string) error {
	sig, err := hexutil.Decode(sigHex)
	if err != nil {
		return fmt.Errorf("invalid signature encoding: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return fmt.Errorf("invalid signature length %d, want %d", len(sig), crypto.SignatureLength)
	}

	// Wallets report the recovery id as 27/28
	recSig := make([]byte, crypto.SignatureLength)
	copy(recSig, sig)
	if recSig[crypto.RecoveryIDOffset] >= 27 {
		recSig[crypto.RecoveryIDOffset] -= 27
	}

	hash := accounts.TextHash([]byte(LinkChallenge(telegramID)))
	pub, err := crypto.SigToPub(hash, recSig)
	if err != nil {
		return fmt.Errorf("failed to recover signer: %w", err)
	}

	if recovered := crypto.PubkeyToAddress(*pub); recovered != claimed {
		return fmt.Errorf("signature made by %s, not %s", recovered.Hex(), claimed.Hex())
	}
	return nil
}
