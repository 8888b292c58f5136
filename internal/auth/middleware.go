// Package auth extracts the already-authenticated caller identity from the
// bearer token the gateway forwards. Signature verification happened
// upstream; the booking core only reads the claims it needs.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const identityKey contextKey = "identity"

const RoleAdmin = "admin"

type Identity struct {
	UserID string
	Name   string
	Role   string
}

// Middleware parses the Authorization header and stores the caller identity
// in the request context. Requests without a usable identity are rejected.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := extractToken(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			identity, err := identityFromJWT(token)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext returns the caller identity stored by Middleware.
func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityKey).(Identity); ok {
		return id
	}
	return Identity{}
}

func extractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header is missing")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("authorization header format must be 'Bearer {token}'")
	}
	return parts[1], nil
}

// identityFromJWT reads the identity claims. The gateway already verified
// the signature, so the token is parsed without re-verification here.
func identityFromJWT(tokenString string) (Identity, error) {
	token, _, err := new(jwt.Parser).ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return Identity{}, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, errors.New("invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return Identity{}, errors.New("subject claim not found in token")
	}

	identity := Identity{UserID: sub}
	if name, ok := claims["name"].(string); ok {
		identity.Name = name
	}
	if role, ok := claims["role"].(string); ok {
		identity.Role = role
	}
	return identity, nil
}
