package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	errMissingToken = errors.New("Token not provided")
	errInvalidToken = errors.New("Token invalid")
)

// Verifier turns a raw bearer token into the authenticated user id.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (int64, error)
}

// Claims accepts the user id either as the numeric "id" claim issued by the
// session service or as a numeric "sub".
type Claims struct {
	ID *int64 `json:"id,omitempty"`
	jwt.RegisteredClaims
}

func (c Claims) UserID() (int64, error) {
	if c.ID != nil && *c.ID > 0 {
		return *c.ID, nil
	}
	return parseSubject(c.Subject)
}

// ExtractTokenFromRequest extracts a JWT token from an HTTP request's Authorization header
func ExtractTokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errMissingToken
	}

	// Bearer token format: "Bearer {token}"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errInvalidToken
	}

	return parts[1], nil
}

// HMACVerifier checks tokens signed with a shared HS256 secret.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) (*HMACVerifier, error) {
	if secret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	return &HMACVerifier{secret: []byte(secret)}, nil
}

func (v *HMACVerifier) Verify(_ context.Context, rawToken string) (int64, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(rawToken, &claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, fmt.Errorf("parse token: %w", err)
	}
	return claims.UserID()
}

func parseSubject(sub string) (int64, error) {
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("subject %q is not a user id", sub)
	}
	return id, nil
}
