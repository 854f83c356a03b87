// Package auth issues and validates operator tokens for the billing API.
package auth

import (
	"errors"
	"slices"
	"time"

	"github.com/erp/billing/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Scope grants access to a group of billing operations
type Scope string

const (
	// ScopeRead allows listing rules, jobs and exporting invoicers
	ScopeRead Scope = "billing:read"
	// ScopeStatements allows importing and completing bank statements
	ScopeStatements Scope = "billing:statements"
	// ScopeGenerate allows generating, cleaning and validating invoices
	ScopeGenerate Scope = "billing:generate"
)

// AllScopes lists every scope
func AllScopes() []Scope {
	return []Scope{ScopeRead, ScopeStatements, ScopeGenerate}
}

// ParseScopes converts names, rejecting unknown ones. No names means all scopes.
func ParseScopes(names []string) ([]Scope, error) {
	if len(names) == 0 {
		return AllScopes(), nil
	}
	scopes := make([]Scope, 0, len(names))
	for _, n := range names {
		s := Scope(n)
		if !slices.Contains(AllScopes(), s) {
			return nil, ErrUnknownScope
		}
		scopes = append(scopes, s)
	}
	return scopes, nil
}

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingOperator  = errors.New("missing operator in claims")
	ErrUnknownScope     = errors.New("unknown scope")
	ErrMissingSecret    = errors.New("jwt secret is not configured")
)

// Claims are the operator token claims
type Claims struct {
	jwt.RegisteredClaims
	Operator string  `json:"operator"`
	Scopes   []Scope `json:"scopes"`
}

// HasScope reports whether the token grants the scope
func (c *Claims) HasScope(scope Scope) bool {
	return slices.Contains(c.Scopes, scope)
}

// Token is a signed operator token
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenType   string    `json:"token_type"` // Bearer
}

// JWTService signs and validates operator tokens with HS256
type JWTService struct {
	secret     []byte
	expiration time.Duration
	issuer     string
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:     []byte(cfg.Secret),
		expiration: cfg.TokenExpiration,
		issuer:     cfg.Issuer,
	}
}

// GenerateToken signs a token for the operator. A zero ttl uses the
// configured expiration.
func (s *JWTService) GenerateToken(operator string, scopes []Scope, ttl time.Duration) (*Token, error) {
	if len(s.secret) == 0 {
		return nil, ErrMissingSecret
	}
	if operator == "" {
		return nil, ErrMissingOperator
	}
	if ttl <= 0 {
		ttl = s.expiration
	}

	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   operator,
			Audience:  jwt.ClaimStrings{s.issuer},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Operator: operator,
		Scopes:   scopes,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &Token{
		AccessToken: signed,
		ExpiresAt:   now.Add(ttl),
		TokenType:   "Bearer",
	}, nil
}

// ValidateToken validates a token and returns its claims
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithAudience(s.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.Operator == "" {
		return nil, ErrMissingOperator
	}
	return claims, nil
}

// Expiration returns the default token lifetime
func (s *JWTService) Expiration() time.Duration {
	return s.expiration
}
