package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// ErrRejected is returned when the signing provider declines a signature
// request, including the user closing the wallet prompt.
var ErrRejected = errors.New("signature request rejected by wallet")

// Signer is the wallet-provider boundary: something that can add the
// connected account's signature to an assembled transaction. The browser
// flow satisfies it remotely (unsigned tx out, signed tx back); the CLI and
// tests satisfy it with a local keypair.
type Signer interface {
	PublicKey() solana.PublicKey
	SignTransaction(ctx context.Context, tx *solana.Transaction) error
}

// LocalSigner signs with an in-process private key.
type LocalSigner struct {
	key solana.PrivateKey
}

func NewLocalSigner(key solana.PrivateKey) *LocalSigner {
	return &LocalSigner{key: key}
}

// LocalSignerFromFile loads a solana-keygen style JSON keypair file.
func LocalSignerFromFile(path string) (*LocalSigner, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("load keypair: %w", err)
	}
	return &LocalSigner{key: key}, nil
}

func (s *LocalSigner) PublicKey() solana.PublicKey {
	return s.key.PublicKey()
}

func (s *LocalSigner) SignTransaction(_ context.Context, tx *solana.Transaction) error {
	_, err := tx.PartialSign(func(key solana.PublicKey) *solana.PrivateKey {
		if s.key.PublicKey().Equals(key) {
			return &s.key
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}
	return nil
}
