package recovery

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	// Upsert installs the wallet's pending request, overwriting any prior
	// one regardless of its expiry.
	Upsert(req *Request) error
	GetByWalletID(walletID string) (*Request, error)
	DeleteByWalletID(walletID string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Upsert(req *Request) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"new_public_key", "requested_at", "expires_at"}),
	}).Create(req).Error
}

func (r *repository) GetByWalletID(walletID string) (*Request, error) {
	var req Request
	if err := r.db.Where("wallet_id = ?", walletID).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoPendingRequest
		}
		return nil, err
	}
	return &req, nil
}

func (r *repository) DeleteByWalletID(walletID string) error {
	return r.db.Where("wallet_id = ?", walletID).Delete(&Request{}).Error
}
