package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// ChallengeVerifier issues single-use challenges and verifies detached
// ed25519 signatures over them. Admin access is granted to wallets on the
// allowlist that prove key ownership; no plaintext address comparison is
// trusted on its own.
type ChallengeVerifier struct {
	mu         sync.Mutex
	challenges map[string]challenge // wallet address -> pending challenge
	ttl        time.Duration
}

type challenge struct {
	nonce   string
	expires time.Time
}

func NewChallengeVerifier(ttl time.Duration) *ChallengeVerifier {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ChallengeVerifier{
		challenges: make(map[string]challenge),
		ttl:        ttl,
	}
}

// Issue creates a fresh challenge for the wallet. Signing the returned string
// with the wallet's key and presenting it to Verify completes the handshake.
func (v *ChallengeVerifier) Issue(walletAddress string) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate challenge: %w", err)
	}
	nonce := fmt.Sprintf("solanamint-admin:%s:%s", walletAddress, base58.Encode(raw))

	v.mu.Lock()
	v.challenges[walletAddress] = challenge{nonce: nonce, expires: time.Now().Add(v.ttl)}
	v.mu.Unlock()

	return nonce, nil
}

// Verify checks a base58 signature over the wallet's pending challenge.
// The challenge is consumed whether or not verification succeeds.
func (v *ChallengeVerifier) Verify(walletAddress, signatureB58 string) (bool, error) {
	v.mu.Lock()
	ch, ok := v.challenges[walletAddress]
	delete(v.challenges, walletAddress)
	v.mu.Unlock()

	if !ok {
		return false, fmt.Errorf("no pending challenge for %s", walletAddress)
	}
	if time.Now().After(ch.expires) {
		return false, fmt.Errorf("challenge expired")
	}

	pubkey, err := solana.PublicKeyFromBase58(walletAddress)
	if err != nil {
		return false, fmt.Errorf("invalid wallet address: %w", err)
	}
	sig, err := base58.Decode(signatureB58)
	if err != nil {
		return false, fmt.Errorf("invalid signature encoding: %w", err)
	}
	if len(sig) != ed25519.SignatureSize {
		return false, fmt.Errorf("invalid signature length: %d", len(sig))
	}

	return ed25519.Verify(ed25519.PublicKey(pubkey.Bytes()), []byte(ch.nonce), sig), nil
}

// SignChallenge produces the detached signature Verify expects. Used by the
// CLI and tests; browsers sign through their wallet extension.
func SignChallenge(key solana.PrivateKey, nonce string) string {
	sig := ed25519.Sign(ed25519.PrivateKey(key), []byte(nonce))
	return base58.Encode(sig)
}
