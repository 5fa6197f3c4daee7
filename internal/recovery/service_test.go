package recovery

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/veltapay/velta-wallet/internal/credential"
	"github.com/veltapay/velta-wallet/internal/wallet"
)

type stubWallets struct {
	wallets map[string]*wallet.Wallet
}

func (s *stubWallets) CreateWallet(w *wallet.Wallet) error { return nil }

func (s *stubWallets) GetByID(id string) (*wallet.Wallet, error) {
	w, ok := s.wallets[id]
	if !ok {
		return nil, wallet.ErrNotFound
	}
	return w, nil
}

func (s *stubWallets) GetByAddress(string) (*wallet.Wallet, error) {
	return nil, wallet.ErrNotFound
}

func (s *stubWallets) GetByOwnerID(string) ([]wallet.Wallet, error) { return nil, nil }

func (s *stubWallets) GetPrimaryByOwnerID(string) (*wallet.Wallet, error) {
	return nil, wallet.ErrNotFound
}

func (s *stubWallets) SetPrimary(string, string) error                   { return nil }
func (s *stubWallets) UpdatePolicy(string, *int64, bool, []string) error { return nil }
func (s *stubWallets) DeleteWallet(string) error                         { return nil }

type memRequests struct {
	reqs map[string]*Request
}

func newMemRequests() *memRequests {
	return &memRequests{reqs: make(map[string]*Request)}
}

func (m *memRequests) Upsert(req *Request) error {
	m.reqs[req.WalletID.String()] = req
	return nil
}

func (m *memRequests) GetByWalletID(walletID string) (*Request, error) {
	req, ok := m.reqs[walletID]
	if !ok {
		return nil, ErrNoPendingRequest
	}
	return req, nil
}

func (m *memRequests) DeleteByWalletID(walletID string) error {
	delete(m.reqs, walletID)
	return nil
}

type stubReplacer struct {
	replaced  []string
	publicKey string
}

func (s *stubReplacer) Replace(ctx context.Context, walletID string, newPublicKey string) (*credential.Credential, error) {
	s.replaced = append(s.replaced, walletID)
	s.publicKey = newPublicKey
	return &credential.Credential{ID: uuid.New(), WalletID: uuid.MustParse(walletID), PublicKey: newPublicKey}, nil
}

const recoveryCode = "correct horse battery"

func newServiceFixture(t *testing.T) (*Service, *memRequests, *stubReplacer, string, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(recoveryCode), bcrypt.MinCost)
	require.NoError(t, err)

	ownerID := uuid.New()
	w := &wallet.Wallet{
		ID:               uuid.New(),
		OwnerID:          ownerID,
		Type:             wallet.TypeStandard,
		RecoveryCodeHash: string(hash),
	}

	requests := newMemRequests()
	replacer := &stubReplacer{}
	svc := NewService(&stubWallets{wallets: map[string]*wallet.Wallet{w.ID.String(): w}}, requests, replacer, 24*time.Hour)

	return svc, requests, replacer, ownerID.String(), w.ID.String()
}

func testPublicKey(t *testing.T) string {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(der)
}

func TestInitiateAndComplete(t *testing.T) {
	svc, _, replacer, ownerID, walletID := newServiceFixture(t)
	ctx := context.Background()
	pub := testPublicKey(t)

	expiresAt, err := svc.Initiate(ctx, ownerID, walletID, pub, recoveryCode)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(24*time.Hour), expiresAt, time.Minute)

	cred, err := svc.Complete(ctx, ownerID, walletID)
	require.NoError(t, err)
	assert.Equal(t, pub, cred.PublicKey)
	assert.Equal(t, []string{walletID}, replacer.replaced)

	// the request is cleared, a second complete finds nothing
	_, err = svc.Complete(ctx, ownerID, walletID)
	assert.ErrorIs(t, err, ErrNoPendingRequest)
}

func TestInitiateRejectsBadProof(t *testing.T) {
	svc, requests, _, ownerID, walletID := newServiceFixture(t)

	_, err := svc.Initiate(context.Background(), ownerID, walletID, testPublicKey(t), "wrong code")
	assert.ErrorIs(t, err, ErrInvalidProof)
	assert.Empty(t, requests.reqs)
}

func TestInitiateRejectsWrongOwner(t *testing.T) {
	svc, _, _, _, walletID := newServiceFixture(t)

	_, err := svc.Initiate(context.Background(), uuid.NewString(), walletID, testPublicKey(t), recoveryCode)
	assert.ErrorIs(t, err, wallet.ErrNotOwner)
}

func TestInitiateRejectsBadPublicKey(t *testing.T) {
	svc, _, _, ownerID, walletID := newServiceFixture(t)

	_, err := svc.Initiate(context.Background(), ownerID, walletID, "bm90IGEga2V5", recoveryCode)
	assert.ErrorIs(t, err, credential.ErrBadPublicKey)
}

func TestCompleteExpiredRequest(t *testing.T) {
	svc, _, replacer, ownerID, walletID := newServiceFixture(t)
	ctx := context.Background()

	_, err := svc.Initiate(ctx, ownerID, walletID, testPublicKey(t), recoveryCode)
	require.NoError(t, err)

	// jump 25 hours past initiation
	svc.now = func() time.Time { return time.Now().Add(25 * time.Hour) }

	_, err = svc.Complete(ctx, ownerID, walletID)
	assert.ErrorIs(t, err, ErrExpired)
	assert.Empty(t, replacer.replaced, "an expired request must never replace the credential")
}

func TestInitiateOverwritesPendingRequest(t *testing.T) {
	svc, requests, replacer, ownerID, walletID := newServiceFixture(t)
	ctx := context.Background()

	first := testPublicKey(t)
	second := testPublicKey(t)
	require.NotEqual(t, first, second)

	_, err := svc.Initiate(ctx, ownerID, walletID, first, recoveryCode)
	require.NoError(t, err)
	_, err = svc.Initiate(ctx, ownerID, walletID, second, recoveryCode)
	require.NoError(t, err)

	assert.Len(t, requests.reqs, 1, "at most one pending request per wallet")

	_, err = svc.Complete(ctx, ownerID, walletID)
	require.NoError(t, err)
	assert.Equal(t, second, replacer.publicKey, "completion must install the latest requested key")
}

func TestCompleteWithoutInitiate(t *testing.T) {
	svc, _, _, ownerID, walletID := newServiceFixture(t)

	_, err := svc.Complete(context.Background(), ownerID, walletID)
	assert.ErrorIs(t, err, ErrNoPendingRequest)
}
