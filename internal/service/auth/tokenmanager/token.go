package tokenmanager

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/paysms/internal/apperrors"
)

const (
	defaultSigningMethod = "HS256"
	issuer               = "paysms"

	SecretKeyBytesLen = 32
)

// Claims of a token given to an SMS forwarder device or an operator tool
type ForwarderClaims struct {
	jwt.RegisteredClaims
	Device string `json:"dev"`
}

type Config struct {
	// Secret key to sign tokens
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string
}

type TokenManager struct {
	key []byte
	alg jwt.SigningMethod
}

func New(cfg Config) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg := jwt.GetSigningMethod(cfg.Alg)
	if alg == nil {
		return nil, fmt.Errorf("unknown signing method %q", cfg.Alg)
	}

	return &TokenManager{key: []byte(cfg.SecretKey), alg: alg}, nil
}

// Issue signs a token for the device
// Forwarders run unattended, so ttl 0 means the token never expires
func (m *TokenManager) Issue(device string, ttl time.Duration) (string, error) {
	if device == "" {
		return "", errors.New("device must not be empty")
	}

	now := time.Now().Truncate(time.Second)
	claims := ForwarderClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			Issuer:   issuer,
			Subject:  device,
			IssuedAt: jwt.NewNumericDate(now),
		},
		Device: device,
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token, err := jwt.NewWithClaims(m.alg, claims).SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("error while signing token. Err: %w", err)
	}
	return token, nil
}

// Parse validates the token and returns the device it was issued for
func (m *TokenManager) Parse(token string) (string, error) {
	claims := &ForwarderClaims{}

	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (any, error) {
			return m.key, nil
		},
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrTokenInvalid, err)
	}
	if claims.Device == "" {
		return "", fmt.Errorf("%w: no device", apperrors.ErrTokenInvalid)
	}

	return claims.Device, nil
}

// GenerateSecret returns a random hex encoded key suitable for SecretKey
func GenerateSecret() (string, error) {
	b := make([]byte, SecretKeyBytesLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("error while generating secret key: %w", err)
	}
	return hex.EncodeToString(b), nil
}
