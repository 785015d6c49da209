package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by every token the API issues. Subject is the staff or
// doctor id for backoffice tokens and the public case ref for portal tokens.
type Claims struct {
	Role    string `json:"role"`
	CaseRef string `json:"case_ref,omitempty"`
	jwt.RegisteredClaims
}

type Config struct {
	Secret       string
	Expiry       time.Duration
	PortalExpiry time.Duration
}

type Service struct {
	cfg Config
}

func NewService(cfg Config) *Service {
	if cfg.Expiry <= 0 {
		cfg.Expiry = 12 * time.Hour
	}
	if cfg.PortalExpiry <= 0 {
		cfg.PortalExpiry = 30 * 24 * time.Hour
	}
	return &Service{cfg: cfg}
}

// GenerateToken issues a backoffice token for a staff member or doctor.
func (s *Service) GenerateToken(subject, role string) (string, error) {
	return s.sign(Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.cfg.Expiry)),
		},
	})
}

// GeneratePortalToken issues the long-lived patient token handed back on
// intake. It references the case only by its public ref.
func (s *Service) GeneratePortalToken(caseRef string) (string, error) {
	return s.sign(Claims{
		Role:    "patient",
		CaseRef: caseRef,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caseRef,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.cfg.PortalExpiry)),
		},
	})
}

func (s *Service) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
