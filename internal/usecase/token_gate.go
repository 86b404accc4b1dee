package usecase

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"time"

	"docrequest/internal/domain"

	"github.com/google/uuid"
)

const (
	DefaultAccessTokenTTL  = 7 * 24 * time.Hour
	DefaultSessionTokenTTL = 30 * time.Minute
)

type IssuedToken struct {
	Token     string
	Hash      string
	ExpiresAt time.Time
}

type TokenGate struct {
	Codec      TokenCodec
	Requests   RequestLookup
	Audit      AuditSink
	Clock      Clock
	AccessTTL  time.Duration
	SessionTTL time.Duration
	NewID      func() string
}

func NewTokenGate(codec TokenCodec, requests RequestLookup, audit AuditSink, accessTTL, sessionTTL time.Duration) *TokenGate {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTokenTTL
	}
	return &TokenGate{
		Codec:      codec,
		Requests:   requests,
		Audit:      audit,
		Clock:      time.Now,
		AccessTTL:  accessTTL,
		SessionTTL: sessionTTL,
		NewID:      uuid.NewString,
	}
}

// IssueAccessToken signs a portal credential. Only the returned hash may be persisted.
func (g *TokenGate) IssueAccessToken(ctx context.Context, requestID, email string) (IssuedToken, error) {
	if requestID == "" || email == "" {
		return IssuedToken{}, domain.Validation("request id and email are required", nil)
	}
	now := g.Clock().UTC()
	claims := AccessClaims{
		RequestID: requestID,
		Email:     email,
		JTI:       g.NewID(),
		IssuedAt:  now,
		ExpiresAt: now.Add(g.AccessTTL),
	}
	token, err := g.Codec.SignAccess(claims)
	if err != nil {
		return IssuedToken{}, err
	}
	return IssuedToken{Token: token, Hash: HashToken(token), ExpiresAt: claims.ExpiresAt}, nil
}

func (g *TokenGate) VerifyAccessToken(ctx context.Context, token string) (AccessClaims, error) {
	claims, err := g.Codec.ParseAccess(token)
	if err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			recordAudit(ctx, g.Audit, domain.AuditEntry{
				EntityType: domain.AuditEntityToken,
				EntityID:   claims.RequestID,
				Action:     domain.AuditTokenExpired,
				Actor:      claims.Email,
			})
		}
		return AccessClaims{}, domain.ErrInvalidToken
	}
	req, err := g.Requests.Get(ctx, claims.RequestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return AccessClaims{}, domain.ErrInvalidToken
		}
		return AccessClaims{}, err
	}
	if !hashesEqual(req.TokenHash, HashToken(token)) {
		return AccessClaims{}, domain.ErrTokenMismatch
	}
	if req.Status == domain.RequestClosed {
		return AccessClaims{}, domain.ErrRequestClosed
	}
	return claims, nil
}

func (g *TokenGate) IssueSessionToken(ctx context.Context, requestID, email string) (string, time.Time, error) {
	now := g.Clock().UTC()
	claims := SessionClaims{
		RequestID: requestID,
		Email:     email,
		IssuedAt:  now,
		ExpiresAt: now.Add(g.SessionTTL),
	}
	token, err := g.Codec.SignSession(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, claims.ExpiresAt, nil
}

// VerifySessionToken checks a session credential against the request it must be scoped to.
func (g *TokenGate) VerifySessionToken(ctx context.Context, token string, requestID string) (SessionClaims, error) {
	claims, err := g.Codec.ParseSession(token)
	if err != nil {
		return SessionClaims{}, domain.ErrInvalidToken
	}
	if claims.RequestID != requestID {
		return SessionClaims{}, domain.ErrTokenMismatch
	}
	req, err := g.Requests.Get(ctx, claims.RequestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return SessionClaims{}, domain.ErrInvalidToken
		}
		return SessionClaims{}, err
	}
	if req.Status == domain.RequestClosed {
		return SessionClaims{}, domain.ErrRequestClosed
	}
	return claims, nil
}

// HashToken returns the hex sha256 of a token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func hashesEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
