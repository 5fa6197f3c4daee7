package wallet

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/veltapay/velta-wallet/internal/asset"
	"github.com/veltapay/velta-wallet/internal/credential"
	"github.com/veltapay/velta-wallet/internal/owner"
	"github.com/veltapay/velta-wallet/internal/settlement"
	"github.com/veltapay/velta-wallet/pkg/config"
	"github.com/veltapay/velta-wallet/pkg/utils"
)

type Handler struct {
	Config      config.Config
	Repo        Repository
	Credentials *credential.Registry
	Settlement  settlement.Client
}

func NewHandler(cfg config.Config, repo Repository, credentials *credential.Registry, settlementClient settlement.Client) *Handler {
	return &Handler{Config: cfg, Repo: repo, Credentials: credentials, Settlement: settlementClient}
}

type CreateWalletRequest struct {
	Type          Type     `json:"type"`
	DailyLimit    *int64   `json:"daily_limit,omitempty"`
	AllowedAssets []string `json:"allowed_assets,omitempty"`
	RecoveryCode  string   `json:"recovery_code"`
}

func (h *Handler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	ownr, ok := r.Context().Value(utils.OwnerKey).(owner.Owner)
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var req CreateWalletRequest
	if status, err := utils.DecodeJSONBody(w, r, &req); err != nil {
		utils.BuildErrorResponse(w, status, "Invalid request", map[string]string{"error": err.Error()})
		return
	}

	if !ValidType(req.Type) {
		utils.BuildErrorResponse(w, http.StatusBadRequest, "Unknown wallet type", nil)
		return
	}
	if req.Type == TypeCustom && len(req.AllowedAssets) == 0 {
		utils.BuildErrorResponse(w, http.StatusBadRequest, ErrInvalidConfiguration.Error(), nil)
		return
	}
	for _, symbol := range req.AllowedAssets {
		if !asset.IsRecognized(symbol) {
			utils.BuildErrorResponse(w, http.StatusBadRequest, "Unrecognized asset: "+symbol, nil)
			return
		}
	}
	if req.DailyLimit != nil && *req.DailyLimit <= 0 {
		utils.BuildErrorResponse(w, http.StatusBadRequest, "Daily limit must be positive", nil)
		return
	}
	if len(req.RecoveryCode) < 8 {
		utils.BuildErrorResponse(w, http.StatusBadRequest, "Recovery code must be at least 8 characters", nil)
		return
	}

	hashedCode, err := bcrypt.GenerateFromPassword([]byte(req.RecoveryCode), bcrypt.DefaultCost)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to secure recovery code", nil)
		return
	}

	wlt := Wallet{
		OwnerID:          ownr.ID,
		Address:          generateWalletAddress(),
		Type:             req.Type,
		AllowedAssets:    req.AllowedAssets,
		DailyLimit:       req.DailyLimit,
		RecoveryCodeHash: string(hashedCode),
	}

	if err := h.Repo.CreateWallet(&wlt); err != nil {
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to create wallet", nil)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusCreated, "Wallet created successfully", map[string]interface{}{
		"wallet_id":  wlt.ID,
		"address":    wlt.Address,
		"type":       wlt.Type,
		"is_primary": wlt.IsPrimary,
	})
}

func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	wlt, ok := h.ownedWallet(w, r)
	if !ok {
		return
	}
	utils.BuildSuccessResponse(w, http.StatusOK, "Wallet Details", wlt)
}

// GetWalletBalance proxies per-asset balances from the settlement network,
// filtered down to the wallet's allowed assets.
func (h *Handler) GetWalletBalance(w http.ResponseWriter, r *http.Request) {
	wlt, ok := h.ownedWallet(w, r)
	if !ok {
		return
	}

	balances, err := h.Settlement.Balances(r.Context(), wlt.Address)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusBadGateway, "Failed to fetch balances", nil)
		return
	}

	type balanceEntry struct {
		Asset         string `json:"asset"`
		Amount        string `json:"amount"`
		SmallestUnits int64  `json:"smallest_units"`
	}

	entries := make([]balanceEntry, 0, len(balances))
	for _, b := range balances {
		if !IsAssetAllowed(wlt, b.Asset) {
			continue
		}
		units, err := asset.ToSmallestUnit(b.Asset, b.Amount)
		if err != nil {
			continue
		}
		entries = append(entries, balanceEntry{Asset: b.Asset, Amount: b.Amount.String(), SmallestUnits: units})
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Wallet Balance", map[string]interface{}{
		"address":  wlt.Address,
		"balances": entries,
	})
}

func (h *Handler) SetPrimary(w http.ResponseWriter, r *http.Request) {
	ownr, _ := r.Context().Value(utils.OwnerKey).(owner.Owner)
	walletID := mux.Vars(r)["id"]

	if err := h.Repo.SetPrimary(ownr.ID.String(), walletID); err != nil {
		if errors.Is(err, ErrNotFound) {
			utils.BuildErrorResponse(w, http.StatusNotFound, "Wallet not found", nil)
		} else {
			utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to set primary wallet", nil)
		}
		return
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Primary wallet updated", nil)
}

type UpdatePolicyRequest struct {
	DailyLimit      *int64   `json:"daily_limit,omitempty"`
	ClearDailyLimit bool     `json:"clear_daily_limit,omitempty"`
	AllowedAssets   []string `json:"allowed_assets,omitempty"`
}

func (h *Handler) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	wlt, ok := h.ownedWallet(w, r)
	if !ok {
		return
	}

	var req UpdatePolicyRequest
	if status, err := utils.DecodeJSONBody(w, r, &req); err != nil {
		utils.BuildErrorResponse(w, status, "Invalid request", map[string]string{"error": err.Error()})
		return
	}

	if req.DailyLimit != nil && *req.DailyLimit <= 0 {
		utils.BuildErrorResponse(w, http.StatusBadRequest, "Daily limit must be positive", nil)
		return
	}
	if req.DailyLimit != nil && req.ClearDailyLimit {
		utils.BuildErrorResponse(w, http.StatusBadRequest, "Provide daily_limit or clear_daily_limit, not both", nil)
		return
	}
	if wlt.Type == TypeCustom && req.AllowedAssets != nil && len(req.AllowedAssets) == 0 {
		utils.BuildErrorResponse(w, http.StatusBadRequest, ErrInvalidConfiguration.Error(), nil)
		return
	}
	for _, symbol := range req.AllowedAssets {
		if !asset.IsRecognized(symbol) {
			utils.BuildErrorResponse(w, http.StatusBadRequest, "Unrecognized asset: "+symbol, nil)
			return
		}
	}

	if err := h.Repo.UpdatePolicy(wlt.ID.String(), req.DailyLimit, req.ClearDailyLimit, req.AllowedAssets); err != nil {
		if errors.Is(err, ErrNotFound) {
			utils.BuildErrorResponse(w, http.StatusNotFound, "Wallet not found", nil)
		} else {
			utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to update policy", nil)
		}
		return
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Wallet policy updated", nil)
}

// DeleteWallet removes the wallet with its credential and spend-ledger
// rows. Transaction history survives.
func (h *Handler) DeleteWallet(w http.ResponseWriter, r *http.Request) {
	wlt, ok := h.ownedWallet(w, r)
	if !ok {
		return
	}

	if err := h.Repo.DeleteWallet(wlt.ID.String()); err != nil {
		if errors.Is(err, ErrNotFound) {
			utils.BuildErrorResponse(w, http.StatusNotFound, "Wallet not found", nil)
		} else {
			utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to delete wallet", nil)
		}
		return
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Wallet deleted", nil)
}

type RegisterCredentialRequest struct {
	PublicKey string `json:"public_key"`
}

func (h *Handler) RegisterCredential(w http.ResponseWriter, r *http.Request) {
	wlt, ok := h.ownedWallet(w, r)
	if !ok {
		return
	}

	var req RegisterCredentialRequest
	if status, err := utils.DecodeJSONBody(w, r, &req); err != nil {
		utils.BuildErrorResponse(w, status, "Invalid request", map[string]string{"error": err.Error()})
		return
	}

	cred, err := h.Credentials.Register(r.Context(), wlt.ID.String(), req.PublicKey)
	if err != nil {
		switch {
		case errors.Is(err, credential.ErrConflict):
			utils.BuildErrorResponse(w, http.StatusConflict, "Wallet already has a credential, use recovery to replace it", nil)
		case errors.Is(err, credential.ErrBadPublicKey):
			utils.BuildErrorResponse(w, http.StatusBadRequest, "Malformed public key", nil)
		default:
			utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to register credential", nil)
		}
		return
	}

	utils.BuildSuccessResponse(w, http.StatusCreated, "Credential registered", map[string]interface{}{
		"credential_id": cred.ID,
	})
}

// ownedWallet resolves the {id} wallet and enforces ownership before any
// read or mutation.
func (h *Handler) ownedWallet(w http.ResponseWriter, r *http.Request) (*Wallet, bool) {
	ownr, ok := r.Context().Value(utils.OwnerKey).(owner.Owner)
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return nil, false
	}

	wlt, err := h.Repo.GetByID(mux.Vars(r)["id"])
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusNotFound, "Wallet not found", nil)
		return nil, false
	}
	if wlt.OwnerID != ownr.ID {
		utils.BuildErrorResponse(w, http.StatusForbidden, "Wallet does not belong to you", nil)
		return nil, false
	}
	return wlt, true
}

func generateWalletAddress() string {
	raw := make([]byte, 20)
	rand.Read(raw)
	return "0x" + hex.EncodeToString(raw)
}
