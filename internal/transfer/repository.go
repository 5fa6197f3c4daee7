package transfer

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	CreateTransaction(tx *Transaction) error
	GetByPendingRef(pendingRef string) (*Transaction, error)
	GetTransactions(walletID string, limit, offset int) ([]Transaction, error)
	CountTransactions(walletID string) (int64, error)
	// MarkConfirmed transitions a PENDING transaction to CONFIRMED. The
	// returned bool reports whether this call applied the transition;
	// a duplicate delivery finds no PENDING row and applies nothing.
	MarkConfirmed(pendingRef, externalReference string) (bool, *Transaction, error)
	// MarkFailed is the FAILED counterpart with the same idempotency
	// contract. The caller reverses the ledger debit only when applied.
	MarkFailed(pendingRef, reason string) (bool, *Transaction, error)
	ListPendingBefore(cutoff time.Time) ([]Transaction, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateTransaction(tx *Transaction) error {
	return r.db.Create(tx).Error
}

func (r *repository) GetByPendingRef(pendingRef string) (*Transaction, error) {
	var tx Transaction
	if err := r.db.Where("pending_ref = ?", pendingRef).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

func (r *repository) GetTransactions(walletID string, limit, offset int) ([]Transaction, error) {
	var txs []Transaction
	err := r.db.Where("from_wallet_id = ? OR to_wallet_id = ?", walletID, walletID).
		Order("requested_at desc").
		Limit(limit).
		Offset(offset).
		Find(&txs).Error
	return txs, err
}

func (r *repository) CountTransactions(walletID string) (int64, error) {
	var count int64
	err := r.db.Model(&Transaction{}).
		Where("from_wallet_id = ? OR to_wallet_id = ?", walletID, walletID).
		Count(&count).Error
	return count, err
}

func (r *repository) MarkConfirmed(pendingRef, externalReference string) (bool, *Transaction, error) {
	return r.transition(pendingRef, map[string]interface{}{
		"status":             StatusConfirmed,
		"external_reference": externalReference,
		"confirmed_at":       time.Now().UTC(),
	})
}

func (r *repository) MarkFailed(pendingRef, reason string) (bool, *Transaction, error) {
	return r.transition(pendingRef, map[string]interface{}{
		"status":         StatusFailed,
		"failure_reason": reason,
		"failed_at":      time.Now().UTC(),
	})
}

func (r *repository) transition(pendingRef string, updates map[string]interface{}) (bool, *Transaction, error) {
	var applied bool
	var tx Transaction

	err := r.db.Transaction(func(dbtx *gorm.DB) error {
		res := dbtx.Model(&Transaction{}).
			Where("pending_ref = ? AND status = ?", pendingRef, StatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		applied = res.RowsAffected > 0

		if err := dbtx.Where("pending_ref = ?", pendingRef).First(&tx).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return applied, &tx, nil
}

func (r *repository) ListPendingBefore(cutoff time.Time) ([]Transaction, error) {
	var txs []Transaction
	err := r.db.Where("status = ? AND requested_at < ?", StatusPending, cutoff).
		Order("requested_at asc").
		Find(&txs).Error
	return txs, err
}
