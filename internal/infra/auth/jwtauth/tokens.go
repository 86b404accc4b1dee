package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"docrequest/internal/domain"
	"docrequest/internal/usecase"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeSession = "session"

	DefaultStaffTTL = 8 * time.Hour
)

type portalClaims struct {
	Email string `json:"email"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

type staffClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Service signs portal and staff tokens with separate HS256 secrets.
type Service struct {
	portalSecret []byte
	staffSecret  []byte
	staffTTL     time.Duration
}

func New(portalSecret, staffSecret string, staffTTL time.Duration) (*Service, error) {
	if portalSecret == "" || staffSecret == "" {
		return nil, errors.New("jwt secrets are required")
	}
	if staffTTL <= 0 {
		staffTTL = DefaultStaffTTL
	}
	return &Service{
		portalSecret: []byte(portalSecret),
		staffSecret:  []byte(staffSecret),
		staffTTL:     staffTTL,
	}, nil
}

func (s *Service) SignAccess(c usecase.AccessClaims) (string, error) {
	return s.signPortal(portalClaims{
		Email: c.Email,
		Type:  tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.RequestID,
			ID:        c.JTI,
			IssuedAt:  jwt.NewNumericDate(c.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
		},
	})
}

// ParseAccess returns the claims alongside domain.ErrTokenExpired for expired tokens.
func (s *Service) ParseAccess(token string) (usecase.AccessClaims, error) {
	claims, err := s.parsePortal(token, tokenTypeAccess)
	if claims == nil {
		return usecase.AccessClaims{}, err
	}
	return usecase.AccessClaims{
		RequestID: claims.Subject,
		Email:     claims.Email,
		JTI:       claims.ID,
		IssuedAt:  numericTime(claims.IssuedAt),
		ExpiresAt: numericTime(claims.ExpiresAt),
	}, err
}

func (s *Service) SignSession(c usecase.SessionClaims) (string, error) {
	return s.signPortal(portalClaims{
		Email: c.Email,
		Type:  tokenTypeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.RequestID,
			IssuedAt:  jwt.NewNumericDate(c.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
		},
	})
}

func (s *Service) ParseSession(token string) (usecase.SessionClaims, error) {
	claims, err := s.parsePortal(token, tokenTypeSession)
	if claims == nil {
		return usecase.SessionClaims{}, err
	}
	return usecase.SessionClaims{
		RequestID: claims.Subject,
		Email:     claims.Email,
		IssuedAt:  numericTime(claims.IssuedAt),
		ExpiresAt: numericTime(claims.ExpiresAt),
	}, err
}

func (s *Service) IssueStaffToken(principal domain.Principal, issuedAt time.Time) (string, time.Time, error) {
	role := ""
	if len(principal.Roles) > 0 {
		role = principal.Roles[0]
	}
	expiresAt := issuedAt.Add(s.staffTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, staffClaims{
		Email: principal.Email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.Subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString(s.staffSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Authenticate validates a staff bearer token.
func (s *Service) Authenticate(_ context.Context, bearerToken string) (domain.Principal, error) {
	raw := strings.TrimSpace(bearerToken)
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw == "" {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	token, err := jwt.ParseWithClaims(raw, &staffClaims{}, func(t *jwt.Token) (any, error) {
		return s.staffSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	claims, ok := token.Claims.(*staffClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	principal := domain.Principal{Subject: claims.Subject, Email: claims.Email}
	if claims.Role != "" {
		principal.Roles = []string{claims.Role}
	}
	return principal, nil
}

func (s *Service) signPortal(claims portalClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.portalSecret)
}

func (s *Service) parsePortal(raw, typ string) (*portalClaims, error) {
	token, err := jwt.ParseWithClaims(raw, &portalClaims{}, func(t *jwt.Token) (any, error) {
		return s.portalSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && token != nil {
			if claims, ok := token.Claims.(*portalClaims); ok && claims.Type == typ {
				return claims, domain.ErrTokenExpired
			}
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*portalClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	if claims.Type != typ || claims.Subject == "" {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

func numericTime(d *jwt.NumericDate) time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time.UTC()
}

var (
	_ usecase.TokenCodec       = (*Service)(nil)
	_ usecase.StaffTokenIssuer = (*Service)(nil)
	_ domain.Authenticator     = (*Service)(nil)
)
