package lifecycle

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Wallet is the wallet-adapter collaborator. Signing may block on user
// interaction in an external surface and may fail with a rejection.
type Wallet interface {
	PublicKey() *solana.PublicKey
	Connected() bool
	SignTransaction(ctx context.Context, tx *solana.Transaction) error
}

// KeypairWallet signs with a local private key. Used by the CLI shells and
// tests; browser sessions use an adapter-backed implementation instead.
type KeypairWallet struct {
	key solana.PrivateKey
}

func NewKeypairWallet(key solana.PrivateKey) *KeypairWallet {
	return &KeypairWallet{key: key}
}

// LoadKeypairWallet reads a solana-keygen JSON keypair file.
func LoadKeypairWallet(path string) (*KeypairWallet, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load keypair: %w", err)
	}
	return &KeypairWallet{key: key}, nil
}

func (w *KeypairWallet) PublicKey() *solana.PublicKey {
	pub := w.key.PublicKey()
	return &pub
}

func (w *KeypairWallet) Connected() bool {
	return len(w.key) > 0
}

func (w *KeypairWallet) SignTransaction(_ context.Context, tx *solana.Transaction) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if w.key.PublicKey().Equals(key) {
			return &w.key
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	return nil
}
