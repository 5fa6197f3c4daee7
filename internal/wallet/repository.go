package wallet

import (
	"errors"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/veltapay/velta-wallet/internal/credential"
	"github.com/veltapay/velta-wallet/internal/ledger"
	"github.com/veltapay/velta-wallet/internal/owner"
)

type Repository interface {
	CreateWallet(w *Wallet) error
	GetByID(id string) (*Wallet, error)
	GetByAddress(address string) (*Wallet, error)
	GetByOwnerID(ownerID string) ([]Wallet, error)
	GetPrimaryByOwnerID(ownerID string) (*Wallet, error)
	// SetPrimary clears any other primary wallet of the owner and marks the
	// target in one transaction, so two primaries are never observable.
	SetPrimary(ownerID, walletID string) error
	// UpdatePolicy leaves nil fields unchanged; clearDailyLimit explicitly
	// removes the cap.
	UpdatePolicy(walletID string, dailyLimit *int64, clearDailyLimit bool, allowedAssets []string) error
	// DeleteWallet cascades the wallet's credential and spend-ledger rows.
	// Historical transactions reference wallets weakly and survive.
	DeleteWallet(walletID string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateWallet(w *Wallet) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// lock the owner row so concurrent creates for the same owner
		// serialize and only one first wallet can claim primary
		var o owner.Owner
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", w.OwnerID).First(&o).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&Wallet{}).Where("owner_id = ?", w.OwnerID).Count(&count).Error; err != nil {
			return err
		}
		// first wallet becomes primary
		w.IsPrimary = count == 0
		return tx.Create(w).Error
	})
}

func (r *repository) GetByID(id string) (*Wallet, error) {
	var w Wallet
	if err := r.db.Where("id = ?", id).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (r *repository) GetByAddress(address string) (*Wallet, error) {
	var w Wallet
	if err := r.db.Where("address = ?", address).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (r *repository) GetByOwnerID(ownerID string) ([]Wallet, error) {
	var wallets []Wallet
	err := r.db.Where("owner_id = ?", ownerID).Order("created_at asc").Find(&wallets).Error
	return wallets, err
}

func (r *repository) GetPrimaryByOwnerID(ownerID string) (*Wallet, error) {
	var w Wallet
	if err := r.db.Where("owner_id = ? AND is_primary = ?", ownerID, true).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (r *repository) SetPrimary(ownerID, walletID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var w Wallet
		if err := tx.Where("id = ? AND owner_id = ?", walletID, ownerID).First(&w).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := tx.Model(&Wallet{}).
			Where("owner_id = ? AND is_primary = ?", ownerID, true).
			UpdateColumn("is_primary", false).Error; err != nil {
			return err
		}

		return tx.Model(&Wallet{}).Where("id = ?", walletID).UpdateColumn("is_primary", true).Error
	})
}

// policyUpdates builds the column map for UpdatePolicy. An absent limit is
// not a clear: daily_limit only changes when a value is given or the clear
// flag is set.
func policyUpdates(dailyLimit *int64, clearDailyLimit bool, allowedAssets []string) map[string]interface{} {
	updates := map[string]interface{}{}
	if clearDailyLimit {
		updates["daily_limit"] = nil
	} else if dailyLimit != nil {
		updates["daily_limit"] = *dailyLimit
	}
	if allowedAssets != nil {
		updates["allowed_assets"] = pq.StringArray(allowedAssets)
	}
	return updates
}

func (r *repository) UpdatePolicy(walletID string, dailyLimit *int64, clearDailyLimit bool, allowedAssets []string) error {
	updates := policyUpdates(dailyLimit, clearDailyLimit, allowedAssets)
	if len(updates) == 0 {
		return nil
	}

	res := r.db.Model(&Wallet{}).Where("id = ?", walletID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) DeleteWallet(walletID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("wallet_id = ?", walletID).Delete(&credential.Credential{}).Error; err != nil {
			return err
		}
		if err := tx.Where("wallet_id = ?", walletID).Delete(&ledger.Entry{}).Error; err != nil {
			return err
		}

		res := tx.Where("id = ?", walletID).Delete(&Wallet{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
