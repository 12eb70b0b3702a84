package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/wealthplan/backend/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind distinguishes the two structurally identical token flavours. The
// kind is carried in the "type" claim so one codec covers both.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"

	// KindAny skips the kind check on Verify.
	KindAny TokenKind = ""
)

var (
	ErrTokenMalformed   = errors.New("token is malformed")
	ErrTokenExpired     = errors.New("token is expired")
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrWrongTokenKind   = errors.New("unexpected token kind")
)

// Claims is the wire claim set: sub, jti, iat, exp plus the custom "type".
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenKind `json:"type"`
}

// IssuedToken is the result of a single issuance. JTI is the handle callers
// persist; the codec itself never writes anywhere.
type IssuedToken struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
	TTL       time.Duration
}

// TokenManager issues and verifies signed, time-bounded bearer tokens.
type TokenManager interface {
	Issue(userID uuid.UUID, kind TokenKind) (*IssuedToken, error)
	Verify(token string, kind TokenKind) (*Claims, error)
	DecodeUnverified(token string) (*Claims, error)
}

// Manager signs with the configured private key and verifies with the public
// key only, so verification never needs the signing secret.
type Manager struct {
	signingMethod   jwt.SigningMethod
	privateKey      any
	publicKey       any
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

func NewManager(cfg config.JWTConfig) (*Manager, error) {
	if cfg.AccessTokenTTL == 0 {
		return nil, errors.New("empty access token ttl")
	}

	if cfg.RefreshTokenTTL == 0 {
		return nil, errors.New("empty refresh token ttl")
	}

	privateKey, err := ParsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key failed: %w", err)
	}

	publicKey, err := ParsePublicKey(cfg.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("parse public key failed: %w", err)
	}

	method, err := SigningMethodFor(publicKey)
	if err != nil {
		return nil, err
	}

	return &Manager{
		signingMethod:   method,
		privateKey:      privateKey,
		publicKey:       publicKey,
		accessTokenTTL:  cfg.AccessTokenTTL,
		refreshTokenTTL: cfg.RefreshTokenTTL,
	}, nil
}

func (m *Manager) lifetime(kind TokenKind) (time.Duration, error) {
	switch kind {
	case KindAccess:
		return m.accessTokenTTL, nil
	case KindRefresh:
		return m.refreshTokenTTL, nil
	}
	return 0, fmt.Errorf("issue token: %w: %q", ErrWrongTokenKind, kind)
}

// Issue builds claims with a fresh jti and signs them. Pure computation: the
// caller persists the jti if it needs to track the token.
func (m *Manager) Issue(userID uuid.UUID, kind TokenKind) (*IssuedToken, error) {
	ttl, err := m.lifetime(kind)
	if err != nil {
		return nil, err
	}

	jti, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate jti failed: %w", err)
	}

	now := time.Now()
	expiresAt := now.Add(ttl)

	token := jwt.NewWithClaims(m.signingMethod, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti.String(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		TokenType: kind,
	})

	signed, err := token.SignedString(m.privateKey)
	if err != nil {
		return nil, fmt.Errorf("sign %s token failed: %w", kind, err)
	}

	return &IssuedToken{
		Token:     signed,
		JTI:       jti.String(),
		ExpiresAt: expiresAt,
		TTL:       ttl,
	}, nil
}

// Verify checks signature and expiry and, unless kind is KindAny, the "type"
// claim. It never mutates anything; claims are returned as encoded.
func (m *Manager) Verify(tokenString string, kind TokenKind) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != m.signingMethod.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return m.publicKey, nil
	})

	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return nil, ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case err != nil:
		return nil, ErrTokenMalformed
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}

	if kind != KindAny && claims.TokenType != kind {
		return nil, ErrWrongTokenKind
	}

	return claims, nil
}

// DecodeUnverified extracts claims without signature or expiry checks. Used
// only where the caller already trusts the token contextually, e.g. to find
// the session of an expired refresh token on logout.
func (m *Manager) DecodeUnverified(tokenString string) (*Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, &claims); err != nil {
		return nil, ErrTokenMalformed
	}

	return &claims, nil
}
