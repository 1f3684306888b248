package tokens

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid is returned when the token is malformed, badly signed,
	// or was issued for a different audience
	ErrTokenInvalid = errors.New("invalid token")

	// ErrUnknownAudience is returned when issuing for an audience that is not configured
	ErrUnknownAudience = errors.New("unknown audience")
)

// Audience tags which actor type a token was issued to. It is carried
// explicitly through issuance and verification and is never inferred.
type Audience string

const (
	AudienceCustomer Audience = "customer"
	AudienceAdmin    Audience = "admin"
)

// Valid reports whether a is one of the known audiences
func (a Audience) Valid() bool {
	return a == AudienceCustomer || a == AudienceAdmin
}

// Claims represents the claims carried by a bearer token
type Claims struct {
	jwt.RegisteredClaims
	Kind Audience `json:"kind"`
}

// IssuedAtTime returns the issue instant, or the zero time when absent
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// ExpiresAtTime returns the expiry instant, or the zero time when absent
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Config holds configuration for Service
type Config struct {
	Issuer         string
	CustomerSecret []byte
	AdminSecret    []byte
	CustomerTTL    time.Duration
	AdminTTL       time.Duration
}

type audienceKey struct {
	secret []byte
	ttl    time.Duration
}

// Service signs and verifies bearer tokens for the customer and admin audiences.
// Each audience has its own signing secret.
type Service struct {
	issuer string
	keys   map[Audience]audienceKey
	now    func() time.Time
}

// NewService creates a new token service
func NewService(config Config) *Service {
	if config.CustomerTTL == 0 {
		config.CustomerTTL = 7 * 24 * time.Hour
	}
	if config.AdminTTL == 0 {
		config.AdminTTL = 8 * time.Hour
	}

	return &Service{
		issuer: config.Issuer,
		keys: map[Audience]audienceKey{
			AudienceCustomer: {secret: config.CustomerSecret, ttl: config.CustomerTTL},
			AudienceAdmin:    {secret: config.AdminSecret, ttl: config.AdminTTL},
		},
		now: time.Now,
	}
}

// Issue signs a token for subjectID in the given audience
func (s *Service) Issue(audience Audience, subjectID string) (string, error) {
	key, ok := s.keys[audience]
	if !ok || len(key.secret) == 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownAudience, audience)
	}

	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   subjectID,
			Audience:  jwt.ClaimStrings{string(audience)},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(key.ttl)),
		},
		Kind: audience,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify validates a token against one audience and returns its claims.
// Expired tokens yield ErrTokenExpired; tokens that are malformed, badly signed
// or belong to another audience yield ErrTokenInvalid.
func (s *Service) Verify(tokenString string, audience Audience) (*Claims, error) {
	key, ok := s.keys[audience]
	if !ok || len(key.secret) == 0 {
		return nil, fmt.Errorf("%w: %v %q", ErrTokenInvalid, ErrUnknownAudience, audience)
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key.secret, nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		if isStructuralError(err) {
			return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
		}
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrTokenInvalid, claims.Issuer)
	}
	if claims.Kind != audience || !containsAudience(claims.Audience, string(audience)) {
		return nil, fmt.Errorf("%w: token not issued for %s audience", ErrTokenInvalid, audience)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}

	return claims, nil
}

// Extract returns the token carried by an Authorization header value
// ("Bearer <token>"), or an empty string when missing or malformed.
func (s *Service) Extract(headerValue string) string {
	parts := strings.SplitN(strings.TrimSpace(headerValue), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func isStructuralError(err error) bool {
	for _, target := range []error{
		jwt.ErrTokenMalformed,
		jwt.ErrTokenUnverifiable,
		jwt.ErrTokenSignatureInvalid,
		jwt.ErrTokenInvalidAudience,
		jwt.ErrTokenInvalidIssuer,
		jwt.ErrTokenInvalidClaims,
		jwt.ErrTokenNotValidYet,
		jwt.ErrTokenUsedBeforeIssued,
		jwt.ErrTokenRequiredClaimMissing,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func containsAudience(audiences jwt.ClaimStrings, expected string) bool {
	for _, aud := range audiences {
		if aud == expected {
			return true
		}
	}
	return false
}
