package recovery

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNoPendingRequest = errors.New("no pending recovery request for this wallet")
	ErrExpired          = errors.New("recovery request has expired")
	ErrInvalidProof     = errors.New("invalid secondary proof")
)

// Request is the single pending credential-replacement request for a
// wallet. A new initiate overwrites an unexpired one; an expired request
// is inert and can only be rejected, never completed.
type Request struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	WalletID     uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"wallet_id"`
	NewPublicKey string    `gorm:"not null" json:"-"`
	RequestedAt  time.Time `gorm:"autoCreateTime" json:"requested_at"`
	ExpiresAt    time.Time `gorm:"not null" json:"expires_at"`
}

func (r *Request) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
