package routes

import (
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/veltapay/velta-wallet/internal/credential"
	"github.com/veltapay/velta-wallet/internal/ledger"
	"github.com/veltapay/velta-wallet/internal/middleware"
	"github.com/veltapay/velta-wallet/internal/owner"
	"github.com/veltapay/velta-wallet/internal/recovery"
	"github.com/veltapay/velta-wallet/internal/session"
	"github.com/veltapay/velta-wallet/internal/settlement"
	"github.com/veltapay/velta-wallet/internal/transfer"
	"github.com/veltapay/velta-wallet/internal/wallet"
	"github.com/veltapay/velta-wallet/pkg/config"
	"github.com/veltapay/velta-wallet/pkg/events"
	"github.com/veltapay/velta-wallet/pkg/logger"
)

// Deps carries the wired components so route registration and the server
// bootstrap share one construction path.
type Deps struct {
	Config      config.Config
	Owners      owner.Repository
	Wallets     wallet.Repository
	Credentials *credential.Registry
	Spend       ledger.Repository
	Engine      *transfer.Engine
	Transfers   transfer.Repository
	Recovery    *recovery.Service
	Settlement  settlement.Client
	RedisClient *events.RedisClient
}

func BuildDeps(cfg config.Config, db *gorm.DB, redisClient *events.RedisClient, settlementClient settlement.Client, challenges *credential.ChallengeStore) Deps {
	owners := owner.NewRepository(db)
	wallets := wallet.NewRepository(db)
	credentials := credential.NewRegistry(credential.NewRepository(db), challenges)
	spend := ledger.NewRepository(db)
	transfers := transfer.NewRepository(db)
	engine := transfer.NewEngine(wallets, owners, credentials, spend, transfers, settlementClient)

	recoveryWindow := recovery.WindowFromHours(cfg.RecoveryWindow)
	recoverySvc := recovery.NewService(wallets, recovery.NewRepository(db), credentials, recoveryWindow)

	return Deps{
		Config:      cfg,
		Owners:      owners,
		Wallets:     wallets,
		Credentials: credentials,
		Spend:       spend,
		Engine:      engine,
		Transfers:   transfers,
		Recovery:    recoverySvc,
		Settlement:  settlementClient,
		RedisClient: redisClient,
	}
}

func RegisterRoutes(r *mux.Router, deps Deps) http.Handler {
	cfg := deps.Config

	sessionHandler := session.NewHandler(cfg, deps.Owners, deps.Wallets, deps.Credentials)
	walletHandler := wallet.NewHandler(cfg, deps.Wallets, deps.Credentials, deps.Settlement)
	transferHandler := transfer.NewHandler(cfg, deps.Engine, deps.Wallets, deps.RedisClient)
	recoveryHandler := recovery.NewHandler(cfg, deps.Recovery)

	r.Use(middleware.LoggingMiddleware)

	limiter := middleware.NewRateLimiter(rate.Limit(10), 20)

	authR := r.PathPrefix("/api/auth").Subrouter()
	authR.Use(limiter.Limit)
	authR.HandleFunc("/google", sessionHandler.GoogleLogin).Methods("GET")
	authR.HandleFunc("/google/callback", sessionHandler.GoogleCallback).Methods("GET")
	authR.HandleFunc("/passkey/challenge", sessionHandler.PasskeyChallenge).Methods("POST")
	authR.HandleFunc("/passkey/assert", sessionHandler.PasskeyAssert).Methods("POST")

	profileR := r.PathPrefix("/api/profile").Subrouter()
	profileR.Use(session.Middleware(cfg, deps.Owners))
	profileR.HandleFunc("/phone", sessionHandler.SetPhone).Methods("POST")

	walletR := r.PathPrefix("/api/wallets").Subrouter()
	walletR.Use(session.Middleware(cfg, deps.Owners))
	walletR.HandleFunc("", walletHandler.CreateWallet).Methods("POST")
	walletR.HandleFunc("/{id}", walletHandler.GetWallet).Methods("GET")
	walletR.HandleFunc("/{id}", walletHandler.DeleteWallet).Methods("DELETE")
	walletR.HandleFunc("/{id}/balance", walletHandler.GetWalletBalance).Methods("GET")
	walletR.HandleFunc("/{id}/credential", walletHandler.RegisterCredential).Methods("POST")
	walletR.HandleFunc("/{id}/primary", walletHandler.SetPrimary).Methods("POST")
	walletR.HandleFunc("/{id}/policy", walletHandler.UpdatePolicy).Methods("PATCH")
	walletR.HandleFunc("/{id}/transfers", transferHandler.CreateTransfer).Methods("POST")
	walletR.HandleFunc("/{id}/transfers", transferHandler.GetTransfers).Methods("GET")
	walletR.HandleFunc("/{id}/transfers/{ref}", transferHandler.GetTransferStatus).Methods("GET")
	walletR.HandleFunc("/{id}/recovery", recoveryHandler.Initiate).Methods("POST")
	walletR.HandleFunc("/{id}/recovery/complete", recoveryHandler.Complete).Methods("POST")

	// settlement network callbacks, authenticated by signature not session
	r.HandleFunc("/internal/settlement-events", transferHandler.SettlementWebhook).Methods("POST")

	if cfg.Env != "production" {
		r.HandleFunc("/swagger.yaml", func(w http.ResponseWriter, r *http.Request) {
			content, err := os.ReadFile("docs/swagger.yaml")
			if err != nil {
				logger.Error("Failed to read swagger.yaml", logger.Fields{"error": err.Error()})
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			baseURL := "/"
			modifiedContent := strings.Replace(string(content), "{{BASE_URL}}", baseURL, -1)

			w.Header().Set("Content-Type", "application/yaml")
			w.Write([]byte(modifiedContent))
		})

		r.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
			httpSwagger.URL("/swagger.yaml"),
		))
		logger.Info("Swagger documentation enabled at /swagger/index.html")
	}

	corsObj := handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	return corsObj(r)
}
