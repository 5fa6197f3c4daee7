package ledger

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	GetUsage(walletID, asset, day string) (int64, error)
	// TryDebit atomically checks usage+amount against the limit and
	// increments in the same step. A nil limit means unlimited. Returns
	// the new usage and the UTC day that took the debit, so a reversal
	// after midnight credits the right row. Returns ErrDailyLimitExceeded
	// when the debit would breach the limit; usage is left untouched in
	// that case.
	TryDebit(walletID, asset string, amount int64, limit *int64) (int64, string, error)
	// Reverse credits back a provisional debit after a failed transfer,
	// floored at zero.
	Reverse(walletID, asset string, amount int64, day string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetUsage(walletID, asset, day string) (int64, error) {
	var entry Entry
	err := r.db.Where("wallet_id = ? AND asset = ? AND day = ?", walletID, asset, day).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return entry.AmountSpent, nil
}

func (r *repository) TryDebit(walletID, asset string, amount int64, limit *int64) (int64, string, error) {
	wid, err := uuid.Parse(walletID)
	if err != nil {
		return 0, "", err
	}
	day := Today()

	var usage int64
	err = r.db.Transaction(func(tx *gorm.DB) error {
		// lazy row for a fresh day
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&Entry{WalletID: wid, Asset: asset, Day: day}).Error; err != nil {
			return err
		}

		update := tx.Model(&Entry{}).
			Where("wallet_id = ? AND asset = ? AND day = ?", walletID, asset, day)
		if limit != nil {
			// the limit check and the increment ride the same statement,
			// so two concurrent debits cannot both slip under the cap
			update = update.Where("amount_spent + ? <= ?", amount, *limit)
		}

		res := update.UpdateColumn("amount_spent", gorm.Expr("amount_spent + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrDailyLimitExceeded
		}

		var entry Entry
		if err := tx.Where("wallet_id = ? AND asset = ? AND day = ?", walletID, asset, day).First(&entry).Error; err != nil {
			return err
		}
		usage = entry.AmountSpent
		return nil
	})
	if err != nil {
		return 0, "", err
	}
	return usage, day, nil
}

func (r *repository) Reverse(walletID, asset string, amount int64, day string) error {
	return r.db.Model(&Entry{}).
		Where("wallet_id = ? AND asset = ? AND day = ?", walletID, asset, day).
		UpdateColumn("amount_spent", gorm.Expr("GREATEST(amount_spent - ?, 0)", amount)).Error
}
