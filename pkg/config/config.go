package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBUrl              string
	RedisURL           string
	RedisPassword      string
	GoogleClientID     string
	GoogleClientSecret string
	JWTSecret          string
	SettlementBaseURL  string
	SettlementSecret   string
	SessionTTLMinutes  int
	RecoveryWindow     int // hours
	ReconcileInterval  int // seconds between sweeps
	ReconcileWindow    int // minutes a transfer may stay pending before reconciliation
	Port               string
	Host               string
	Env                string
	AllowedOrigins     []string
}

func LoadConfig() Config {
	godotenv.Load()

	return Config{
		DBUrl:              getEnv("DATABASE_URL"),
		RedisURL:           getEnv("REDIS_URL"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET"),
		JWTSecret:          getEnv("JWT_SECRET"),
		SettlementBaseURL:  getEnv("SETTLEMENT_BASE_URL"),
		SettlementSecret:   getEnv("SETTLEMENT_SECRET"),
		SessionTTLMinutes:  getEnvInt("SESSION_TTL_MINUTES", 15),
		RecoveryWindow:     getEnvInt("RECOVERY_WINDOW_HOURS", 24),
		ReconcileInterval:  getEnvInt("RECONCILE_INTERVAL_SECONDS", 60),
		ReconcileWindow:    getEnvInt("RECONCILE_WINDOW_MINUTES", 5),
		Port:               getEnv("PORT"),
		Host:               getEnv("HOST"),
		Env:                getEnv("ENV"),
		AllowedOrigins:     strings.Split(getEnv("ALLOWED_ORIGINS"), ","),
	}
}

func getEnv(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	panic(fmt.Sprintf("%s is required", key))
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		panic(fmt.Sprintf("%s must be a valid integer", key))
	}
	return parsed
}
