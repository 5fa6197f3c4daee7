package credential

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKeyPair(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	return priv, base64.StdEncoding.EncodeToString(der)
}

func signChallenge(t *testing.T, priv *ecdsa.PrivateKey, challenge []byte) string {
	t.Helper()
	digest := sha256.Sum256(challenge)
	sig, err := ecdsa.SignASN1(rand.Reader, priv, digest[:])
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(sig)
}

func TestVerifySignature(t *testing.T) {
	priv, pub := generateKeyPair(t)
	challenge := []byte("random-challenge-bytes-0123456789")

	sig := signChallenge(t, priv, challenge)
	assert.NoError(t, VerifySignature(pub, challenge, sig))
}

func TestVerifySignatureWrongKey(t *testing.T) {
	priv, _ := generateKeyPair(t)
	_, otherPub := generateKeyPair(t)
	challenge := []byte("random-challenge-bytes-0123456789")

	sig := signChallenge(t, priv, challenge)
	assert.ErrorIs(t, VerifySignature(otherPub, challenge, sig), ErrInvalidProof)
}

func TestVerifySignatureTamperedChallenge(t *testing.T) {
	priv, pub := generateKeyPair(t)
	challenge := []byte("random-challenge-bytes-0123456789")

	sig := signChallenge(t, priv, challenge)
	assert.ErrorIs(t, VerifySignature(pub, []byte("different challenge"), sig), ErrInvalidProof)
}

func TestVerifySignatureGarbageInputs(t *testing.T) {
	_, pub := generateKeyPair(t)
	challenge := []byte("challenge")

	assert.ErrorIs(t, VerifySignature(pub, challenge, "!!not-base64!!"), ErrInvalidProof)
	assert.ErrorIs(t, VerifySignature("!!not-base64!!", challenge, ""), ErrBadPublicKey)
	assert.ErrorIs(t, VerifySignature(base64.StdEncoding.EncodeToString([]byte("junk")), challenge, ""), ErrBadPublicKey)
}

func TestParsePublicKeyRejectsNonECDSA(t *testing.T) {
	// an Ed25519 PKIX key parses as x509 but is not an ECDSA key
	_, err := ParsePublicKey("MCowBQYDK2VwAyEAGb9ECWmEzf6FQbrBZ9w7lshQhqowtrbLDFw4rXAxZuE=")
	assert.ErrorIs(t, err, ErrBadPublicKey)
}
