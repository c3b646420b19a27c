// Package jwttoken validates the HS256 session tokens issued by the login
// front end. The subject is the individual's profile id.
package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "yksilo/pkg/domain"
	dErrors "yksilo/pkg/domain-errors"
)

// Claims are the registered claims of a session token.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTService signs and validates session tokens.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewJWTService(signingKey string, issuer string, audience string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// IssueSessionToken signs a token for yksiloID. Production tokens come from
// the login front end; this is used by local tooling and tests.
func (s *JWTService) IssueSessionToken(yksiloID id.YksiloID, now time.Time, expiresIn time.Duration) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   yksiloID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	}
	if s.audience != "" {
		claims.Audience = jwt.ClaimStrings{s.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

// ValidateToken checks signature, expiry, issuer and audience and returns the
// profile id in the subject. All failures are CodeUnauthorized.
func (s *JWTService) ValidateToken(tokenString string) (id.YksiloID, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return s.signingKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return id.YksiloID{}, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return id.YksiloID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return id.YksiloID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	yksiloID, err := id.ParseYksiloID(claims.Subject)
	if err != nil {
		return id.YksiloID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}
	return yksiloID, nil
}
