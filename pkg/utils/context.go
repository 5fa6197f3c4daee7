package utils

type ContextKey string

const (
	OwnerKey  ContextKey = "owner"
	ClaimsKey ContextKey = "claims"
)
