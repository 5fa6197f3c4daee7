package credential

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Registry owns the one-active-credential-per-wallet invariant. Register
// is the only entry point for a fresh key; Replace is reserved for the
// recovery flow.
type Registry struct {
	repo       Repository
	challenges *ChallengeStore
}

func NewRegistry(repo Repository, challenges *ChallengeStore) *Registry {
	return &Registry{repo: repo, challenges: challenges}
}

func (g *Registry) Register(ctx context.Context, walletID string, publicKey string) (*Credential, error) {
	if _, err := ParsePublicKey(publicKey); err != nil {
		return nil, err
	}

	existing, err := g.repo.GetByWalletID(walletID)
	if err != nil && err != ErrNotFound {
		return nil, err
	}
	if existing != nil {
		return nil, ErrConflict
	}

	wid, err := parseWalletID(walletID)
	if err != nil {
		return nil, err
	}

	cred := &Credential{WalletID: wid, PublicKey: publicKey}
	if err := g.repo.Create(cred); err != nil {
		// a concurrent registration that slipped past the existence check
		// lands on the wallet_id unique index
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return cred, nil
}

// Verify validates a signed challenge against the wallet's stored public
// key. It consumes the challenge and never mutates credential state.
func (g *Registry) Verify(ctx context.Context, walletID string, proof Proof) error {
	cred, err := g.repo.GetByWalletID(walletID)
	if err != nil {
		if err == ErrNotFound {
			return ErrInvalidProof
		}
		return err
	}

	challenge, err := g.challenges.Consume(ctx, proof.ChallengeID)
	if err != nil {
		return err
	}

	return VerifySignature(cred.PublicKey, challenge, proof.Signature)
}

// Replace supersedes the wallet's credential. The old key stops verifying
// the instant the new one starts.
func (g *Registry) Replace(ctx context.Context, walletID string, newPublicKey string) (*Credential, error) {
	if _, err := ParsePublicKey(newPublicKey); err != nil {
		return nil, err
	}
	return g.repo.Replace(walletID, newPublicKey)
}

func (g *Registry) IssueChallenge(ctx context.Context) (string, []byte, error) {
	return g.challenges.Issue(ctx)
}

func parseWalletID(walletID string) (uuid.UUID, error) {
	wid, err := uuid.Parse(walletID)
	if err != nil {
		return uuid.Nil, ErrNotFound
	}
	return wid, nil
}
