package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the typed session payload. Only named fields ride the
// token; handlers never reach into ad hoc claim maps.
type SessionClaims struct {
	OwnerID         string `json:"owner_id"`
	PrimaryWalletID string `json:"primary_wallet_id,omitempty"`
	jwt.RegisteredClaims
}

func NewSessionClaims(ownerID, primaryWalletID string, ttl time.Duration) SessionClaims {
	now := time.Now().UTC()
	return SessionClaims{
		OwnerID:         ownerID,
		PrimaryWalletID: primaryWalletID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

func SignClaims(claims SessionClaims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
