package recovery

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/veltapay/velta-wallet/internal/credential"
	"github.com/veltapay/velta-wallet/internal/owner"
	"github.com/veltapay/velta-wallet/internal/wallet"
	"github.com/veltapay/velta-wallet/pkg/config"
	"github.com/veltapay/velta-wallet/pkg/utils"
)

type Handler struct {
	Config  config.Config
	Service *Service
}

func NewHandler(cfg config.Config, service *Service) *Handler {
	return &Handler{Config: cfg, Service: service}
}

type InitiateRequest struct {
	NewPublicKey   string `json:"new_public_key"`
	SecondaryProof string `json:"secondary_proof"`
}

func (h *Handler) Initiate(w http.ResponseWriter, r *http.Request) {
	ownr, ok := r.Context().Value(utils.OwnerKey).(owner.Owner)
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}
	walletID := mux.Vars(r)["id"]

	var req InitiateRequest
	if status, err := utils.DecodeJSONBody(w, r, &req); err != nil {
		utils.BuildErrorResponse(w, status, "Invalid request", map[string]string{"error": err.Error()})
		return
	}

	expiresAt, err := h.Service.Initiate(r.Context(), ownr.ID.String(), walletID, req.NewPublicKey, req.SecondaryProof)
	if err != nil {
		respondRecoveryError(w, err)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusAccepted, "Recovery initiated", map[string]interface{}{
		"expires_at": expiresAt,
	})
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	ownr, ok := r.Context().Value(utils.OwnerKey).(owner.Owner)
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}
	walletID := mux.Vars(r)["id"]

	cred, err := h.Service.Complete(r.Context(), ownr.ID.String(), walletID)
	if err != nil {
		respondRecoveryError(w, err)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Credential replaced", map[string]interface{}{
		"credential_id": cred.ID,
	})
}

func respondRecoveryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, wallet.ErrNotFound), errors.Is(err, ErrNoPendingRequest):
		utils.BuildErrorResponse(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, wallet.ErrNotOwner):
		utils.BuildErrorResponse(w, http.StatusForbidden, "Wallet does not belong to you", nil)
	case errors.Is(err, ErrInvalidProof):
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Invalid secondary proof", nil)
	case errors.Is(err, ErrExpired):
		utils.BuildErrorResponse(w, http.StatusGone, "Recovery request has expired", nil)
	case errors.Is(err, credential.ErrBadPublicKey):
		utils.BuildErrorResponse(w, http.StatusBadRequest, "Malformed public key", nil)
	default:
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Recovery failed", nil)
	}
}
