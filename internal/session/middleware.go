package session

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/veltapay/velta-wallet/internal/owner"
	"github.com/veltapay/velta-wallet/pkg/config"
	"github.com/veltapay/velta-wallet/pkg/utils"
)

func Middleware(cfg config.Config, ownerRepo owner.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.BuildErrorResponse(w, http.StatusUnauthorized, "Authorization required", nil)
				return
			}

			tokenString := strings.Replace(authHeader, "Bearer ", "", 1)
			claims := &SessionClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method")
				}
				return []byte(cfg.JWTSecret), nil
			})

			if err != nil || !token.Valid {
				utils.BuildErrorResponse(w, http.StatusUnauthorized, "Invalid token", nil)
				return
			}

			ownr, err := ownerRepo.FindByID(claims.OwnerID)
			if err != nil {
				utils.BuildErrorResponse(w, http.StatusUnauthorized, "Owner not found", nil)
				return
			}

			ctx := context.WithValue(r.Context(), utils.OwnerKey, *ownr)
			ctx = context.WithValue(ctx, utils.ClaimsKey, *claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
