package recovery

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/veltapay/velta-wallet/internal/credential"
	"github.com/veltapay/velta-wallet/internal/wallet"
	"github.com/veltapay/velta-wallet/pkg/logger"
)

// Replacer is the slice of the credential registry the flow needs. There
// is no credential-replace entry point anywhere outside this flow.
type Replacer interface {
	Replace(ctx context.Context, walletID string, newPublicKey string) (*credential.Credential, error)
}

type Service struct {
	wallets     wallet.Repository
	repo        Repository
	credentials Replacer
	window      time.Duration
	now         func() time.Time
}

func WindowFromHours(hours int) time.Duration {
	return time.Duration(hours) * time.Hour
}

func NewService(wallets wallet.Repository, repo Repository, credentials Replacer, window time.Duration) *Service {
	return &Service{
		wallets:     wallets,
		repo:        repo,
		credentials: credentials,
		window:      window,
		now:         time.Now,
	}
}

// Initiate opens (or overwrites) the wallet's pending recovery request.
// The secondary proof is the out-of-band identity check: the recovery code
// chosen at wallet creation, bcrypt-checked against the stored hash.
func (s *Service) Initiate(ctx context.Context, ownerID, walletID, newPublicKey, secondaryProof string) (time.Time, error) {
	wlt, err := s.wallets.GetByID(walletID)
	if err != nil {
		return time.Time{}, err
	}
	if wlt.OwnerID.String() != ownerID {
		return time.Time{}, wallet.ErrNotOwner
	}

	if err := bcrypt.CompareHashAndPassword([]byte(wlt.RecoveryCodeHash), []byte(secondaryProof)); err != nil {
		return time.Time{}, ErrInvalidProof
	}

	if _, err := credential.ParsePublicKey(newPublicKey); err != nil {
		return time.Time{}, err
	}

	expiresAt := s.now().UTC().Add(s.window)
	req := &Request{
		WalletID:     wlt.ID,
		NewPublicKey: newPublicKey,
		RequestedAt:  s.now().UTC(),
		ExpiresAt:    expiresAt,
	}
	if err := s.repo.Upsert(req); err != nil {
		return time.Time{}, err
	}

	logger.Info("Recovery initiated", logger.Fields{"wallet_id": walletID, "expires_at": expiresAt})
	return expiresAt, nil
}

// Complete replaces the wallet's credential from the pending request. The
// old passkey stops verifying the moment the new one takes over.
func (s *Service) Complete(ctx context.Context, ownerID, walletID string) (*credential.Credential, error) {
	wlt, err := s.wallets.GetByID(walletID)
	if err != nil {
		return nil, err
	}
	if wlt.OwnerID.String() != ownerID {
		return nil, wallet.ErrNotOwner
	}

	req, err := s.repo.GetByWalletID(walletID)
	if err != nil {
		return nil, err
	}
	if req.Expired(s.now()) {
		return nil, ErrExpired
	}

	cred, err := s.credentials.Replace(ctx, walletID, req.NewPublicKey)
	if err != nil {
		return nil, err
	}

	if err := s.repo.DeleteByWalletID(walletID); err != nil {
		// the credential is already replaced; a leftover request can only
		// re-install the same key
		logger.Error("Failed to clear completed recovery request", logger.Fields{"wallet_id": walletID, "error": err.Error()})
	}

	logger.Info("Recovery completed", logger.Fields{"wallet_id": walletID, "credential_id": cred.ID.String()})
	return cred, nil
}
