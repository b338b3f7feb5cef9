package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// workerClaims identifies a worker agent calling back into the controller's
// internal API for a specific execution.
type workerClaims struct {
	ExecutionID string `json:"execution_id"`
	jwt.RegisteredClaims
}

// MintWorkerToken signs a short-lived token scoped to one execution, which a
// worker attaches to its heartbeat and result callbacks.
func MintWorkerToken(secret, executionID string, ttl time.Duration) (string, error) {
	claims := workerClaims{
		ExecutionID: executionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			Subject:   "jobplane-worker",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyWorkerToken validates a worker token and returns the execution ID it
// was scoped to.
func VerifyWorkerToken(secret, raw string) (string, error) {
	claims := &workerClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid worker token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid worker token")
	}
	return claims.ExecutionID, nil
}
