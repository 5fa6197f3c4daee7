package wallet

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrNotFound             = errors.New("wallet not found")
	ErrInvalidConfiguration = errors.New("custom wallets require a non-empty allowed asset list")
	ErrNotOwner             = errors.New("wallet does not belong to this owner")
)

type Type string

const (
	TypeStandard        Type = "STANDARD"
	TypeSavingsOnly     Type = "SAVINGS_ONLY"
	TypeStableCoinsOnly Type = "STABLECOINS_ONLY"
	TypeCustom          Type = "CUSTOM"
)

var AllowedTypes = []Type{
	TypeStandard,
	TypeSavingsOnly,
	TypeStableCoinsOnly,
	TypeCustom,
}

// Wallet is the account entity. DailyLimit is in the smallest unit of each
// asset; nil means unlimited. AllowedAssets only matters for CUSTOM wallets.
type Wallet struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	OwnerID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	Address          string         `gorm:"uniqueIndex;not null" json:"address"`
	Type             Type           `gorm:"not null" json:"type"`
	AllowedAssets    pq.StringArray `gorm:"type:text[]" json:"allowed_assets,omitempty"`
	DailyLimit       *int64         `json:"daily_limit,omitempty"`
	IsPrimary        bool           `gorm:"not null;default:false" json:"is_primary"`
	RecoveryCodeHash string         `gorm:"not null" json:"-"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func ValidType(t Type) bool {
	for _, allowed := range AllowedTypes {
		if t == allowed {
			return true
		}
	}
	return false
}
