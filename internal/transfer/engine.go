package transfer

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/veltapay/velta-wallet/internal/asset"
	"github.com/veltapay/velta-wallet/internal/credential"
	"github.com/veltapay/velta-wallet/internal/ledger"
	"github.com/veltapay/velta-wallet/internal/owner"
	"github.com/veltapay/velta-wallet/internal/settlement"
	"github.com/veltapay/velta-wallet/internal/wallet"
	"github.com/veltapay/velta-wallet/pkg/logger"
)

// Verifier is the slice of the credential registry the engine needs.
type Verifier interface {
	Verify(ctx context.Context, walletID string, proof credential.Proof) error
}

// Engine orchestrates a transfer through
// Requested -> Validated -> Submitted -> Confirmed | Failed. The spend
// ledger debit is provisional until settlement confirms; any failure after
// the debit reverses it.
type Engine struct {
	wallets  wallet.Repository
	owners   owner.Repository
	verifier Verifier
	spend    ledger.Repository
	repo     Repository
	client   settlement.Client
}

func NewEngine(wallets wallet.Repository, owners owner.Repository, verifier Verifier, spend ledger.Repository, repo Repository, client settlement.Client) *Engine {
	return &Engine{
		wallets:  wallets,
		owners:   owners,
		verifier: verifier,
		spend:    spend,
		repo:     repo,
		client:   client,
	}
}

var (
	addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	phonePattern   = regexp.MustCompile(`^\+[0-9]{8,15}$`)
)

type destination struct {
	walletID *uuid.UUID
	address  string
}

func (e *Engine) Transfer(ctx context.Context, ownerID, fromWalletID, dest, assetSymbol string, amount int64, proof credential.Proof) (*Transaction, error) {
	// Requested: shape checks, nothing has touched the ledger yet
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	}
	if assetSymbol == "" || !asset.IsRecognized(assetSymbol) {
		return nil, fmt.Errorf("%w: unrecognized asset %q", ErrInvalidRequest, assetSymbol)
	}
	if dest == "" {
		return nil, fmt.Errorf("%w: destination required", ErrInvalidRequest)
	}

	src, err := e.wallets.GetByID(fromWalletID)
	if err != nil {
		return nil, err
	}
	if src.OwnerID.String() != ownerID {
		return nil, wallet.ErrNotOwner
	}

	to, err := e.resolveDestination(dest)
	if err != nil {
		return nil, err
	}
	if to.address == src.Address {
		return nil, ErrSelfTransfer
	}

	// Validated
	if err := e.verifier.Verify(ctx, fromWalletID, proof); err != nil {
		return nil, err
	}
	if !wallet.IsAssetAllowed(src, assetSymbol) {
		return nil, ErrAssetNotAllowed
	}

	_, debitDay, err := e.spend.TryDebit(fromWalletID, assetSymbol, amount, src.DailyLimit)
	if err != nil {
		return nil, err
	}

	// Submitted: the debit is provisional from here on
	pendingRef := fmt.Sprintf("trf-%s-%d", fromWalletID, time.Now().UnixNano())
	tx := &Transaction{
		FromWalletID: &src.ID,
		ToWalletID:   to.walletID,
		ToAddress:    to.address,
		Asset:        assetSymbol,
		Amount:       amount,
		Status:       StatusPending,
		PendingRef:   pendingRef,
		DebitDay:     debitDay,
	}
	if err := e.repo.CreateTransaction(tx); err != nil {
		e.reverseDebit(fromWalletID, assetSymbol, amount, debitDay)
		return nil, err
	}

	if _, err := e.client.Submit(ctx, settlement.SubmitParams{
		PendingRef:  pendingRef,
		FromAddress: src.Address,
		ToAddress:   to.address,
		Asset:       assetSymbol,
		Amount:      amount,
	}); err != nil {
		e.reverseDebit(fromWalletID, assetSymbol, amount, debitDay)
		if _, _, markErr := e.repo.MarkFailed(pendingRef, err.Error()); markErr != nil {
			logger.Error("Failed to mark rejected transfer", logger.Fields{
				"pending_ref": pendingRef,
				"error":       markErr.Error(),
			})
		}
		return nil, fmt.Errorf("%w: %v", ErrSettlementFailure, err)
	}

	return tx, nil
}

// resolveDestination accepts a wallet id, a phone number bound to an
// owner's primary wallet, or a raw settlement-layer address.
func (e *Engine) resolveDestination(dest string) (destination, error) {
	if wid, err := uuid.Parse(dest); err == nil {
		w, err := e.wallets.GetByID(wid.String())
		if err != nil {
			return destination{}, err
		}
		return destination{walletID: &w.ID, address: w.Address}, nil
	}

	if phonePattern.MatchString(dest) {
		o, err := e.owners.FindByPhone(dest)
		if err != nil {
			return destination{}, wallet.ErrNotFound
		}
		w, err := e.wallets.GetPrimaryByOwnerID(o.ID.String())
		if err != nil {
			return destination{}, err
		}
		return destination{walletID: &w.ID, address: w.Address}, nil
	}

	if addressPattern.MatchString(dest) {
		return destination{address: dest}, nil
	}

	return destination{}, fmt.Errorf("%w: malformed destination %q", ErrInvalidRequest, dest)
}

// HandleSettlementEvent applies a terminal settlement outcome. Transitions
// are idempotent: a duplicate delivery finds no PENDING row and does
// nothing, in particular it never double-reverses the ledger.
func (e *Engine) HandleSettlementEvent(ctx context.Context, pendingRef, status, externalReference, failureReason string) error {
	switch settlement.Status(status) {
	case settlement.StatusConfirmed:
		applied, _, err := e.repo.MarkConfirmed(pendingRef, externalReference)
		if err != nil {
			return err
		}
		if applied {
			logger.Info("Transfer confirmed", logger.Fields{"pending_ref": pendingRef, "external_reference": externalReference})
		}
		return nil

	case settlement.StatusFailed:
		applied, tx, err := e.repo.MarkFailed(pendingRef, failureReason)
		if err != nil {
			return err
		}
		if applied && tx.FromWalletID != nil {
			e.reverseDebit(tx.FromWalletID.String(), tx.Asset, tx.Amount, tx.DebitDay)
			logger.Info("Transfer failed, debit reversed", logger.Fields{"pending_ref": pendingRef, "reason": failureReason})
		}
		return nil

	default:
		return fmt.Errorf("unknown settlement status %q for %s", status, pendingRef)
	}
}

// ReconcilePending sweeps transfers stuck in PENDING past the window and
// forces them terminal from the network's own view of the transfer, so a
// lost webhook cannot pin spend-limit headroom forever.
func (e *Engine) ReconcilePending(ctx context.Context, olderThan time.Duration) error {
	cutoff := time.Now().UTC().Add(-olderThan)
	stale, err := e.repo.ListPendingBefore(cutoff)
	if err != nil {
		return err
	}

	for _, tx := range stale {
		result, err := e.client.Status(ctx, tx.PendingRef)
		if err != nil {
			logger.Warn("Reconciliation status query failed", logger.Fields{
				"pending_ref": tx.PendingRef,
				"error":       err.Error(),
			})
			continue
		}

		switch result.Status {
		case settlement.StatusConfirmed:
			if err := e.HandleSettlementEvent(ctx, tx.PendingRef, string(settlement.StatusConfirmed), result.ExternalReference, ""); err != nil {
				return err
			}
		case settlement.StatusFailed:
			if err := e.HandleSettlementEvent(ctx, tx.PendingRef, string(settlement.StatusFailed), "", result.FailureReason); err != nil {
				return err
			}
		case settlement.StatusUnknown:
			// the network has no record of the transfer
			if err := e.HandleSettlementEvent(ctx, tx.PendingRef, string(settlement.StatusFailed), "", "not found on settlement network"); err != nil {
				return err
			}
		case settlement.StatusPending:
			// still in flight, leave it for the next sweep
		}
	}
	return nil
}

func (e *Engine) GetTransaction(pendingRef string) (*Transaction, error) {
	return e.repo.GetByPendingRef(pendingRef)
}

func (e *Engine) History(walletID string, limit, offset int) ([]Transaction, int64, error) {
	txs, err := e.repo.GetTransactions(walletID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	count, err := e.repo.CountTransactions(walletID)
	if err != nil {
		return nil, 0, err
	}
	return txs, count, nil
}

func (e *Engine) reverseDebit(walletID, assetSymbol string, amount int64, day string) {
	if err := e.spend.Reverse(walletID, assetSymbol, amount, day); err != nil {
		logger.Error("CRITICAL: Failed to reverse spend-ledger debit", logger.Fields{
			"wallet_id": walletID,
			"asset":     assetSymbol,
			"amount":    amount,
			"day":       day,
			"error":     err.Error(),
		})
	}
}
