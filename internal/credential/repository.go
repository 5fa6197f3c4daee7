package credential

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(cred *Credential) error
	GetByWalletID(walletID string) (*Credential, error)
	// Replace deletes the wallet's current credential and inserts the new
	// one in a single transaction, so verification never observes a state
	// where both keys (or neither) are valid.
	Replace(walletID string, newPublicKey string) (*Credential, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(cred *Credential) error {
	return r.db.Create(cred).Error
}

func (r *repository) GetByWalletID(walletID string) (*Credential, error) {
	var cred Credential
	if err := r.db.Where("wallet_id = ?", walletID).First(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cred, nil
}

func (r *repository) Replace(walletID string, newPublicKey string) (*Credential, error) {
	wid, err := uuid.Parse(walletID)
	if err != nil {
		return nil, ErrNotFound
	}

	newCred := &Credential{WalletID: wid, PublicKey: newPublicKey}
	err = r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("wallet_id = ?", walletID).Delete(&Credential{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Create(newCred).Error
	})
	if err != nil {
		return nil, err
	}
	return newCred, nil
}
