package credential

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrConflict         = errors.New("wallet already has an active credential")
	ErrNotFound         = errors.New("credential not found")
	ErrInvalidProof     = errors.New("invalid credential proof")
	ErrChallengeExpired = errors.New("challenge expired or already used")
	ErrBadPublicKey     = errors.New("malformed public key")
)

// Credential holds the passkey verification material for one wallet.
// PublicKey is base64-encoded PKIX DER of a P-256 public key. Replacement
// through the recovery flow is the only mutation path.
type Credential struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	WalletID  uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"wallet_id"`
	PublicKey string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Proof is a signed challenge: the client fetched ChallengeID earlier and
// signed the challenge bytes with the passkey's private key.
type Proof struct {
	ChallengeID string `json:"challenge_id"`
	Signature   string `json:"signature"` // base64 ASN.1 DER ECDSA signature over SHA-256(challenge)
}
