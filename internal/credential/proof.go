package credential

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
)

// VerifySignature checks an ASN.1 DER ECDSA signature over
// SHA-256(challenge) against a base64 PKIX-encoded P-256 public key.
func VerifySignature(publicKey string, challenge []byte, signature string) error {
	pub, err := ParsePublicKey(publicKey)
	if err != nil {
		return err
	}

	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return ErrInvalidProof
	}

	digest := sha256.Sum256(challenge)
	if !ecdsa.VerifyASN1(pub, digest[:], sig) {
		return ErrInvalidProof
	}
	return nil
}

func ParsePublicKey(encoded string) (*ecdsa.PublicKey, error) {
	der, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrBadPublicKey
	}

	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, ErrBadPublicKey
	}

	pub, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, ErrBadPublicKey
	}
	return pub, nil
}
