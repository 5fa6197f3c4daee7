package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"

	"github.com/veltapay/velta-wallet/internal/credential"
	"github.com/veltapay/velta-wallet/internal/owner"
	"github.com/veltapay/velta-wallet/internal/wallet"
	"github.com/veltapay/velta-wallet/pkg/config"
	"github.com/veltapay/velta-wallet/pkg/utils"
)

var phonePattern = regexp.MustCompile(`^\+[0-9]{8,15}$`)

type Handler struct {
	Config       config.Config
	Owners       owner.Repository
	Wallets      wallet.Repository
	Credentials  *credential.Registry
	OAuth2Config *oauth2.Config
}

func NewHandler(cfg config.Config, owners owner.Repository, wallets wallet.Repository, credentials *credential.Registry) *Handler {
	redirectURL := fmt.Sprintf("%s/api/auth/google/callback", cfg.Host)
	oauth2Config := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
	return &Handler{Config: cfg, Owners: owners, Wallets: wallets, Credentials: credentials, OAuth2Config: oauth2Config}
}

func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	url := h.OAuth2Config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// GoogleCallback is the onboarding identity path: it establishes who the
// owner is and hands back a session for wallet provisioning. Transfers
// additionally require a passkey proof per request.
func (h *Handler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		utils.BuildErrorResponse(w, http.StatusBadRequest, "Code not found", nil)
		return
	}

	token, err := h.OAuth2Config.Exchange(context.Background(), code)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to exchange token", nil)
		return
	}

	idToken, ok := token.Extra("id_token").(string)
	if !ok {
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "No id_token field in oauth2 token", nil)
		return
	}

	payload, err := idtoken.Validate(context.Background(), idToken, h.Config.GoogleClientID)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to validate ID token", nil)
		return
	}

	googleID := payload.Subject
	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)

	ownr, err := h.Owners.FindByGoogleID(googleID)
	if err != nil {
		ownr = &owner.Owner{
			Name:     name,
			Email:    email,
			GoogleID: googleID,
		}
		if err := h.Owners.CreateOwner(ownr); err != nil {
			utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to create owner", nil)
			return
		}
	}

	tokenString, claims, err := h.issueSession(ownr)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to generate token", nil)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Login successful", map[string]interface{}{
		"token":      tokenString,
		"expires_at": claims.ExpiresAt.Time,
		"owner":      ownr,
	})
}

// PasskeyChallenge hands out a single-use challenge for the client to sign.
func (h *Handler) PasskeyChallenge(w http.ResponseWriter, r *http.Request) {
	challengeID, challenge, err := h.Credentials.IssueChallenge(r.Context())
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to issue challenge", nil)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Challenge issued", map[string]interface{}{
		"challenge_id": challengeID,
		"challenge":    base64.StdEncoding.EncodeToString(challenge),
	})
}

type AssertRequest struct {
	WalletID string           `json:"wallet_id"`
	Proof    credential.Proof `json:"proof"`
}

// PasskeyAssert turns a signed challenge into a short-lived session.
func (h *Handler) PasskeyAssert(w http.ResponseWriter, r *http.Request) {
	var req AssertRequest
	if status, err := utils.DecodeJSONBody(w, r, &req); err != nil {
		utils.BuildErrorResponse(w, status, "Invalid request", map[string]string{"error": err.Error()})
		return
	}

	wlt, err := h.Wallets.GetByID(req.WalletID)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusNotFound, "Wallet not found", nil)
		return
	}

	if err := h.Credentials.Verify(r.Context(), req.WalletID, req.Proof); err != nil {
		if errors.Is(err, credential.ErrChallengeExpired) {
			utils.BuildErrorResponse(w, http.StatusUnauthorized, "Challenge expired or already used", nil)
		} else {
			utils.BuildErrorResponse(w, http.StatusUnauthorized, "Invalid credential proof", nil)
		}
		return
	}

	ownr, err := h.Owners.FindByID(wlt.OwnerID.String())
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Owner not found", nil)
		return
	}

	tokenString, claims, err := h.issueSession(ownr)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to generate token", nil)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Session issued", map[string]interface{}{
		"token":      tokenString,
		"expires_at": claims.ExpiresAt.Time,
	})
}

type SetPhoneRequest struct {
	Phone string `json:"phone"`
}

// SetPhone binds a phone number to the owner so others can address
// transfers to it.
func (h *Handler) SetPhone(w http.ResponseWriter, r *http.Request) {
	ownr, ok := r.Context().Value(utils.OwnerKey).(owner.Owner)
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var req SetPhoneRequest
	if status, err := utils.DecodeJSONBody(w, r, &req); err != nil {
		utils.BuildErrorResponse(w, status, "Invalid request", map[string]string{"error": err.Error()})
		return
	}

	if !phonePattern.MatchString(req.Phone) {
		utils.BuildErrorResponse(w, http.StatusBadRequest, "Phone must be E.164 formatted", nil)
		return
	}

	if err := h.Owners.SetPhone(ownr.ID.String(), req.Phone); err != nil {
		utils.BuildErrorResponse(w, http.StatusConflict, "Phone number already in use", nil)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Phone number updated", nil)
}

func (h *Handler) issueSession(ownr *owner.Owner) (string, SessionClaims, error) {
	primaryWalletID := ""
	if primary, err := h.Wallets.GetPrimaryByOwnerID(ownr.ID.String()); err == nil {
		primaryWalletID = primary.ID.String()
	}

	ttl := time.Duration(h.Config.SessionTTLMinutes) * time.Minute
	claims := NewSessionClaims(ownr.ID.String(), primaryWalletID, ttl)
	tokenString, err := SignClaims(claims, h.Config.JWTSecret)
	return tokenString, claims, err
}
