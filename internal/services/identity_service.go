package services

import (
	"fmt"
	"log"
	"time"

	"koleksi/internal/models"

	"github.com/dgrijalva/jwt-go"
)

// DefaultTokenTTL is how long issued tokens stay valid when no TTL is configured.
const DefaultTokenTTL = 24 * time.Hour

// IdentityService resolves bearer tokens issued by the identity provider into principals.
// Tokens are HS256 JWTs carrying the principal id in "sub".
type IdentityService struct {
	jwtSecret []byte
	issuer    string
	tokenTTL  time.Duration
}

// NewIdentityService creates a new IdentityService. An empty issuer disables the iss check.
func NewIdentityService(jwtSecret, issuer string, tokenTTL time.Duration) *IdentityService {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &IdentityService{
		jwtSecret: []byte(jwtSecret),
		issuer:    issuer,
		tokenTTL:  tokenTTL,
	}
}

// IssueToken signs a token for principal, the same shape the identity provider issues.
func (s *IdentityService) IssueToken(principal models.Principal) (string, error) {
	if principal.ID == "" {
		return "", fmt.Errorf("principal id is required")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": principal.ID,
		"exp": now.Add(s.tokenTTL).Unix(),
		"iat": now.Unix(),
	}
	if principal.Email != "" {
		claims["email"] = principal.Email
	}
	if s.issuer != "" {
		claims["iss"] = s.issuer
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// Authenticate validates tokenString and returns the principal it names.
// Every failure is reported as ErrUnauthenticated.
func (s *IdentityService) Authenticate(tokenString string) (models.Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		log.Printf("Token validation error: %v", err)
		return models.Principal{}, fmt.Errorf("invalid token: %w", ErrUnauthenticated)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return models.Principal{}, fmt.Errorf("invalid token: %w", ErrUnauthenticated)
	}
	if s.issuer != "" && !claims.VerifyIssuer(s.issuer, true) {
		return models.Principal{}, fmt.Errorf("unexpected token issuer: %w", ErrUnauthenticated)
	}
	if _, hasExp := claims["exp"]; !hasExp {
		return models.Principal{}, fmt.Errorf("token has no expiry: %w", ErrUnauthenticated)
	}

	subject, _ := claims["sub"].(string)
	if subject == "" {
		return models.Principal{}, fmt.Errorf("token has no subject: %w", ErrUnauthenticated)
	}
	email, _ := claims["email"].(string)
	return models.Principal{ID: subject, Email: email}, nil
}
