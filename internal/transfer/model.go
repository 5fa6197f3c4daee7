package transfer

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidRequest    = errors.New("invalid transfer request")
	ErrSelfTransfer      = errors.New("cannot transfer to the source wallet")
	ErrAssetNotAllowed   = errors.New("asset not allowed for this wallet")
	ErrNotFound          = errors.New("transaction not found")
	ErrSettlementFailure = errors.New("settlement network rejected or timed out")
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusFailed    Status = "FAILED"
)

// Transaction is the bookkeeping row for one transfer. It is created
// PENDING at submission and transitions exactly once to CONFIRMED or
// FAILED; terminal rows never change again except for the external
// reference recorded on confirmation. Wallet references are weak: deleting
// a wallet leaves its history behind.
type Transaction struct {
	ID                uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	FromWalletID      *uuid.UUID `gorm:"type:uuid;index" json:"from_wallet_id,omitempty"`
	ToWalletID        *uuid.UUID `gorm:"type:uuid;index" json:"to_wallet_id,omitempty"`
	ToAddress         string     `gorm:"not null" json:"to_address"`
	Asset             string     `gorm:"not null" json:"asset"`
	Amount            int64      `gorm:"not null" json:"amount"`
	FeeAmount         int64      `gorm:"not null;default:0" json:"fee_amount"`
	Status            Status     `gorm:"not null" json:"status"`
	PendingRef        string     `gorm:"uniqueIndex;not null" json:"pending_ref"`
	ExternalReference string     `json:"external_reference,omitempty"`
	FailureReason     string     `json:"failure_reason,omitempty"`
	// DebitDay records which spend-ledger day took the provisional debit,
	// so a reversal after UTC midnight still credits the right row.
	DebitDay    string     `gorm:"not null" json:"-"`
	RequestedAt time.Time  `gorm:"autoCreateTime" json:"requested_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	FailedAt    *time.Time `json:"failed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
