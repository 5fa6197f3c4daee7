package transfer

import (
	"errors"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/veltapay/velta-wallet/internal/credential"
	"github.com/veltapay/velta-wallet/internal/ledger"
	"github.com/veltapay/velta-wallet/internal/owner"
	"github.com/veltapay/velta-wallet/internal/settlement"
	"github.com/veltapay/velta-wallet/internal/wallet"
	"github.com/veltapay/velta-wallet/pkg/config"
	"github.com/veltapay/velta-wallet/pkg/events"
	"github.com/veltapay/velta-wallet/pkg/logger"
	"github.com/veltapay/velta-wallet/pkg/utils"
)

type Handler struct {
	Config      config.Config
	Engine      *Engine
	Wallets     wallet.Repository
	RedisClient *events.RedisClient
}

func NewHandler(cfg config.Config, engine *Engine, wallets wallet.Repository, redisClient *events.RedisClient) *Handler {
	return &Handler{Config: cfg, Engine: engine, Wallets: wallets, RedisClient: redisClient}
}

type TransferRequest struct {
	Destination string           `json:"destination"`
	Asset       string           `json:"asset"`
	Amount      int64            `json:"amount"`
	AuthProof   credential.Proof `json:"auth_proof"`
}

func (h *Handler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	ownr, ok := r.Context().Value(utils.OwnerKey).(owner.Owner)
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}
	walletID := mux.Vars(r)["id"]

	var req TransferRequest
	if status, err := utils.DecodeJSONBody(w, r, &req); err != nil {
		utils.BuildErrorResponse(w, status, "Invalid request", map[string]string{"error": err.Error()})
		return
	}

	tx, err := h.Engine.Transfer(r.Context(), ownr.ID.String(), walletID, req.Destination, req.Asset, req.Amount, req.AuthProof)
	if err != nil {
		respondTransferError(w, err)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusAccepted, "Transfer submitted", map[string]interface{}{
		"transaction_id": tx.ID,
		"pending_ref":    tx.PendingRef,
		"status":         tx.Status,
	})
}

func (h *Handler) GetTransfers(w http.ResponseWriter, r *http.Request) {
	ownr, _ := r.Context().Value(utils.OwnerKey).(owner.Owner)
	walletID := mux.Vars(r)["id"]

	wlt, err := h.Wallets.GetByID(walletID)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusNotFound, "Wallet not found", nil)
		return
	}
	if wlt.OwnerID != ownr.ID {
		utils.BuildErrorResponse(w, http.StatusForbidden, "Wallet does not belong to you", nil)
		return
	}

	limit, offset, page := utils.GetPaginationDetails(r)

	txs, count, err := h.Engine.History(walletID, limit, offset)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to fetch transactions", nil)
		return
	}

	totalPages := int(math.Ceil(float64(count) / float64(limit)))
	utils.BuildSuccessResponse(w, http.StatusOK, "Transaction History", map[string]interface{}{
		"transactions": txs,
		"meta": map[string]interface{}{
			"total_items":  count,
			"total_pages":  totalPages,
			"current_page": page,
			"limit":        limit,
		},
	})
}

func (h *Handler) GetTransferStatus(w http.ResponseWriter, r *http.Request) {
	ownr, _ := r.Context().Value(utils.OwnerKey).(owner.Owner)
	vars := mux.Vars(r)
	pendingRef := vars["ref"]
	if pendingRef == "" || !strings.HasPrefix(pendingRef, "trf-") {
		utils.BuildErrorResponse(w, http.StatusBadRequest, "Invalid reference format", nil)
		return
	}

	wlt, err := h.Wallets.GetByID(vars["id"])
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusNotFound, "Wallet not found", nil)
		return
	}
	if wlt.OwnerID != ownr.ID {
		utils.BuildErrorResponse(w, http.StatusForbidden, "Wallet does not belong to you", nil)
		return
	}

	tx, err := h.Engine.GetTransaction(pendingRef)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusNotFound, "Transaction not found", nil)
		return
	}

	// the transaction must involve the wallet from the path
	involved := (tx.FromWalletID != nil && *tx.FromWalletID == wlt.ID) ||
		(tx.ToWalletID != nil && *tx.ToWalletID == wlt.ID)
	if !involved {
		utils.BuildErrorResponse(w, http.StatusNotFound, "Transaction not found", nil)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Transaction status", map[string]interface{}{
		"pending_ref":        tx.PendingRef,
		"status":             tx.Status,
		"amount":             tx.Amount,
		"asset":              tx.Asset,
		"external_reference": tx.ExternalReference,
		"failure_reason":     tx.FailureReason,
	})
}

// SettlementWebhook authenticates the delivery and enqueues it; the worker
// applies it. Duplicate deliveries are safe end to end.
func (h *Handler) SettlementWebhook(w http.ResponseWriter, r *http.Request) {
	signature := r.Header.Get("x-settlement-signature")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("Webhook: Failed to read body", logger.Fields{"error": err.Error()})
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if !settlement.VerifyWebhookSignature(h.Config.SettlementSecret, body, signature) {
		logger.Error("Webhook: Signature mismatch", logger.Fields{"remote_addr": r.RemoteAddr})
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	event, err := parseWebhookBody(body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := h.RedisClient.PublishEvent(r.Context(), event); err != nil {
		logger.Error("Webhook: Failed to enqueue event", logger.Fields{"pending_ref": event.PendingRef, "error": err.Error()})
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func respondTransferError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSelfTransfer), errors.Is(err, ErrInvalidRequest):
		utils.BuildErrorResponse(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, wallet.ErrNotFound):
		utils.BuildErrorResponse(w, http.StatusNotFound, "Wallet not found", nil)
	case errors.Is(err, wallet.ErrNotOwner):
		utils.BuildErrorResponse(w, http.StatusForbidden, "Wallet does not belong to you", nil)
	case errors.Is(err, credential.ErrInvalidProof), errors.Is(err, credential.ErrChallengeExpired):
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Invalid credential proof", nil)
	case errors.Is(err, ErrAssetNotAllowed):
		utils.BuildErrorResponse(w, http.StatusUnprocessableEntity, "Asset not allowed for this wallet", nil)
	case errors.Is(err, ledger.ErrDailyLimitExceeded):
		utils.BuildErrorResponse(w, http.StatusUnprocessableEntity, "Daily spending limit exceeded", nil)
	case errors.Is(err, ErrSettlementFailure):
		utils.BuildErrorResponse(w, http.StatusBadGateway, "Settlement network error", nil)
	default:
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Transfer failed", map[string]string{"error": err.Error()})
	}
}
