package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrDailyLimitExceeded = errors.New("daily spending limit exceeded")

// DayFormat keys entries by UTC calendar day. Usage resets implicitly at
// UTC midnight because a new day is a new row.
const DayFormat = "2006-01-02"

// Entry accumulates outbound debits for one (wallet, asset, UTC day).
// Limits are denominated in the asset's smallest unit and accounted
// per asset.
type Entry struct {
	WalletID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"wallet_id"`
	Asset       string    `gorm:"primaryKey" json:"asset"`
	Day         string    `gorm:"primaryKey" json:"day"`
	AmountSpent int64     `gorm:"not null;default:0" json:"amount_spent"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func DayKey(t time.Time) string {
	return t.UTC().Format(DayFormat)
}

func Today() string {
	return DayKey(time.Now())
}
