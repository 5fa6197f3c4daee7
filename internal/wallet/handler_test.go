package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veltapay/velta-wallet/internal/owner"
	"github.com/veltapay/velta-wallet/pkg/config"
	"github.com/veltapay/velta-wallet/pkg/utils"
)

type memWallets struct {
	wallets map[string]*Wallet
}

func newMemWallets() *memWallets {
	return &memWallets{wallets: make(map[string]*Wallet)}
}

func (m *memWallets) CreateWallet(w *Wallet) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	hasWallet := false
	for _, existing := range m.wallets {
		if existing.OwnerID == w.OwnerID {
			hasWallet = true
			break
		}
	}
	w.IsPrimary = !hasWallet
	m.wallets[w.ID.String()] = w
	return nil
}

func (m *memWallets) GetByID(id string) (*Wallet, error) {
	w, ok := m.wallets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return w, nil
}

func (m *memWallets) GetByAddress(string) (*Wallet, error)        { return nil, ErrNotFound }
func (m *memWallets) GetByOwnerID(string) ([]Wallet, error)       { return nil, nil }
func (m *memWallets) GetPrimaryByOwnerID(string) (*Wallet, error) { return nil, ErrNotFound }

func (m *memWallets) SetPrimary(ownerID, walletID string) error {
	target, ok := m.wallets[walletID]
	if !ok || target.OwnerID.String() != ownerID {
		return ErrNotFound
	}
	for _, w := range m.wallets {
		if w.OwnerID.String() == ownerID {
			w.IsPrimary = false
		}
	}
	target.IsPrimary = true
	return nil
}

func (m *memWallets) UpdatePolicy(walletID string, dailyLimit *int64, clearDailyLimit bool, allowedAssets []string) error {
	w, ok := m.wallets[walletID]
	if !ok {
		return ErrNotFound
	}
	if clearDailyLimit {
		w.DailyLimit = nil
	} else if dailyLimit != nil {
		w.DailyLimit = dailyLimit
	}
	if allowedAssets != nil {
		w.AllowedAssets = allowedAssets
	}
	return nil
}

func (m *memWallets) DeleteWallet(walletID string) error {
	delete(m.wallets, walletID)
	return nil
}

func newHandlerFixture() (*Handler, *memWallets, owner.Owner) {
	repo := newMemWallets()
	h := NewHandler(config.Config{}, repo, nil, nil)
	return h, repo, owner.Owner{ID: uuid.New(), Name: "Ada"}
}

func doCreate(h *Handler, ownr *owner.Owner, body interface{}) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", "/api/wallets", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if ownr != nil {
		req = req.WithContext(context.WithValue(req.Context(), utils.OwnerKey, *ownr))
	}
	rr := httptest.NewRecorder()
	h.CreateWallet(rr, req)
	return rr
}

func TestCreateWallet(t *testing.T) {
	h, repo, ownr := newHandlerFixture()

	rr := doCreate(h, &ownr, CreateWalletRequest{
		Type:         TypeStandard,
		RecoveryCode: "a-long-recovery-code",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Len(t, repo.wallets, 1)

	for _, w := range repo.wallets {
		assert.True(t, w.IsPrimary, "first wallet becomes primary")
		assert.NotEmpty(t, w.RecoveryCodeHash)
		assert.NotEqual(t, "a-long-recovery-code", w.RecoveryCodeHash)
		assert.Regexp(t, `^0x[0-9a-f]{40}$`, w.Address)
	}

	// second wallet is not primary
	rr = doCreate(h, &ownr, CreateWalletRequest{
		Type:         TypeStableCoinsOnly,
		RecoveryCode: "another-recovery-code",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	primaries := 0
	for _, w := range repo.wallets {
		if w.IsPrimary {
			primaries++
		}
	}
	assert.Equal(t, 1, primaries)
}

func TestCreateWalletValidation(t *testing.T) {
	h, repo, ownr := newHandlerFixture()

	tests := []struct {
		name string
		req  CreateWalletRequest
		code int
	}{
		{"unknown type", CreateWalletRequest{Type: Type("CHECKING"), RecoveryCode: "long-enough-code"}, http.StatusBadRequest},
		{"custom without assets", CreateWalletRequest{Type: TypeCustom, RecoveryCode: "long-enough-code"}, http.StatusBadRequest},
		{"unrecognized allowed asset", CreateWalletRequest{Type: TypeCustom, AllowedAssets: []string{"DOGE"}, RecoveryCode: "long-enough-code"}, http.StatusBadRequest},
		{"non-positive limit", CreateWalletRequest{Type: TypeStandard, DailyLimit: limitOf(0), RecoveryCode: "long-enough-code"}, http.StatusBadRequest},
		{"short recovery code", CreateWalletRequest{Type: TypeStandard, RecoveryCode: "short"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doCreate(h, &ownr, tt.req)
			assert.Equal(t, tt.code, rr.Code)
		})
	}

	assert.Empty(t, repo.wallets)
}

func TestCreateWalletRequiresSession(t *testing.T) {
	h, _, _ := newHandlerFixture()
	rr := doCreate(h, nil, CreateWalletRequest{Type: TypeStandard, RecoveryCode: "long-enough-code"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSetPrimaryHandler(t *testing.T) {
	h, repo, ownr := newHandlerFixture()

	first := &Wallet{ID: uuid.New(), OwnerID: ownr.ID, Address: "0x1", Type: TypeStandard}
	second := &Wallet{ID: uuid.New(), OwnerID: ownr.ID, Address: "0x2", Type: TypeStandard}
	require.NoError(t, repo.CreateWallet(first))
	require.NoError(t, repo.CreateWallet(second))
	require.True(t, first.IsPrimary)

	req := httptest.NewRequest("POST", "/api/wallets/"+second.ID.String()+"/primary", nil)
	req = req.WithContext(context.WithValue(req.Context(), utils.OwnerKey, ownr))
	req = mux.SetURLVars(req, map[string]string{"id": second.ID.String()})
	rr := httptest.NewRecorder()
	h.SetPrimary(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, first.IsPrimary)
	assert.True(t, second.IsPrimary)
}

func doPatch(h *Handler, ownr owner.Owner, walletID string, body interface{}) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest("PATCH", "/api/wallets/"+walletID+"/policy", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(context.WithValue(req.Context(), utils.OwnerKey, ownr))
	req = mux.SetURLVars(req, map[string]string{"id": walletID})
	rr := httptest.NewRecorder()
	h.UpdatePolicy(rr, req)
	return rr
}

func TestUpdatePolicyKeepsOmittedLimit(t *testing.T) {
	h, repo, ownr := newHandlerFixture()
	w := &Wallet{
		ID:            uuid.New(),
		OwnerID:       ownr.ID,
		Address:       "0x1",
		Type:          TypeCustom,
		AllowedAssets: []string{"USDC"},
		DailyLimit:    limitOf(5000),
	}
	require.NoError(t, repo.CreateWallet(w))

	rr := doPatch(h, ownr, w.ID.String(), UpdatePolicyRequest{AllowedAssets: []string{"USDC", "USDT"}})
	require.Equal(t, http.StatusOK, rr.Code)

	require.NotNil(t, w.DailyLimit, "an omitted daily_limit must not clear the cap")
	assert.EqualValues(t, 5000, *w.DailyLimit)
	assert.EqualValues(t, []string{"USDC", "USDT"}, []string(w.AllowedAssets))
}

func TestUpdatePolicyClearsLimitExplicitly(t *testing.T) {
	h, repo, ownr := newHandlerFixture()
	w := &Wallet{ID: uuid.New(), OwnerID: ownr.ID, Address: "0x1", Type: TypeStandard, DailyLimit: limitOf(5000)}
	require.NoError(t, repo.CreateWallet(w))

	rr := doPatch(h, ownr, w.ID.String(), UpdatePolicyRequest{ClearDailyLimit: true})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, w.DailyLimit)
}

func TestUpdatePolicyRejectsLimitWithClear(t *testing.T) {
	h, repo, ownr := newHandlerFixture()
	w := &Wallet{ID: uuid.New(), OwnerID: ownr.ID, Address: "0x1", Type: TypeStandard, DailyLimit: limitOf(5000)}
	require.NoError(t, repo.CreateWallet(w))

	rr := doPatch(h, ownr, w.ID.String(), UpdatePolicyRequest{DailyLimit: limitOf(100), ClearDailyLimit: true})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.EqualValues(t, 5000, *w.DailyLimit)
}

func TestDeleteWalletHandler(t *testing.T) {
	h, repo, ownr := newHandlerFixture()
	w := &Wallet{ID: uuid.New(), OwnerID: ownr.ID, Address: "0x1", Type: TypeStandard}
	require.NoError(t, repo.CreateWallet(w))

	req := httptest.NewRequest("DELETE", "/api/wallets/"+w.ID.String(), nil)
	req = req.WithContext(context.WithValue(req.Context(), utils.OwnerKey, ownr))
	req = mux.SetURLVars(req, map[string]string{"id": w.ID.String()})
	rr := httptest.NewRecorder()
	h.DeleteWallet(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, repo.wallets)
}

func limitOf(v int64) *int64 { return &v }
