package jwt

import (
	"errors"
	"sync"
	"time"

	"medhead-reservation/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenType string

const (
	AccessToken TokenType = "access"
)

// refreshMargin renews a cached token this long before it expires
const refreshMargin = 30 * time.Second

var ErrMissingSecret = errors.New("jwt secret is not configured")

type Claims struct {
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// JWTService mints the bearer tokens this service presents to the MedHead backend
type JWTService struct {
	config config.JWTConfig
	now    func() time.Time

	mu        sync.Mutex
	cached    string
	expiresAt time.Time
}

func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{config: cfg, now: time.Now}
}

func (s *JWTService) GenerateAccessToken() (string, time.Time, error) {
	if s.config.Secret == "" {
		return "", time.Time{}, ErrMissingSecret
	}

	now := s.now()
	expiresAt := now.Add(s.config.AccessExpiry)
	claims := Claims{
		TokenType: AccessToken,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   s.config.Subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}

	return signedToken, expiresAt, nil
}

// Token returns a cached access token, minting a new one when it is close to expiry
func (s *JWTService) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != "" && s.now().Add(refreshMargin).Before(s.expiresAt) {
		return s.cached, nil
	}

	token, expiresAt, err := s.GenerateAccessToken()
	if err != nil {
		return "", err
	}
	s.cached = token
	s.expiresAt = expiresAt
	return token, nil
}
