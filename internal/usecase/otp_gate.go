package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log"
	"math/big"
	"time"

	"docrequest/internal/domain"
)

const (
	DefaultOTPTTL         = 10 * time.Minute
	DefaultOTPMaxAttempts = 3
	otpDigits             = 6
)

type OTPGate struct {
	Store       OTPStore
	Notifier    NotificationGateway
	Audit       AuditSink
	Clock       Clock
	Enabled     bool
	TTL         time.Duration
	MaxAttempts int
	NewCode     func() (string, error)
}

func NewOTPGate(store OTPStore, notifier NotificationGateway, audit AuditSink, enabled bool, ttl time.Duration, maxAttempts int) *OTPGate {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultOTPMaxAttempts
	}
	return &OTPGate{
		Store:       store,
		Notifier:    notifier,
		Audit:       audit,
		Clock:       time.Now,
		Enabled:     enabled,
		TTL:         ttl,
		MaxAttempts: maxAttempts,
		NewCode:     randomOTPCode,
	}
}

func (g *OTPGate) IsEnabled() bool {
	return g != nil && g.Enabled
}

// Issue stores a fresh code for (requestID, email) and sends it to email.
func (g *OTPGate) Issue(ctx context.Context, requestID, email string) error {
	if !g.IsEnabled() {
		return nil
	}
	code, err := g.NewCode()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	entry := domain.OTPEntry{
		CodeHash:  hashOTP(code),
		ExpiresAt: g.Clock().Add(g.TTL),
	}
	if err := g.Store.Set(ctx, otpKey(requestID, email), entry, g.TTL); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	if g.Notifier != nil {
		if err := g.Notifier.SendEmail(ctx, domain.EmailMessage{
			Kind:       domain.EmailOTP,
			To:         email,
			Subject:    "Your verification code",
			BodyHTML:   fmt.Sprintf("<p>Your verification code is <strong>%s</strong>. It expires in %d minutes.</p>", code, int(g.TTL.Minutes())),
			Importance: domain.ImportanceHigh,
			RequestID:  requestID,
			OTPCode:    code,
		}); err != nil {
			log.Printf("otp delivery failed: request=%s: %v", requestID, err)
		}
	}
	recordAudit(ctx, g.Audit, domain.AuditEntry{
		EntityType: domain.AuditEntityOTP,
		EntityID:   requestID,
		Action:     domain.AuditOTPSent,
		Actor:      email,
	})
	return nil
}

// Verify consumes a matching code. It reports false for every failure mode.
// Each call reserves an attempt in the store before comparing, so the limit
// holds across concurrent callers sharing the store.
func (g *OTPGate) Verify(ctx context.Context, requestID, email, code string) bool {
	if !g.IsEnabled() {
		return true
	}
	key := otpKey(requestID, email)

	entry, ok, err := g.Store.Get(ctx, key)
	if err != nil {
		log.Printf("otp lookup failed: request=%s: %v", requestID, err)
		return false
	}
	if !ok {
		return false
	}
	if entry.Expired(g.Clock()) {
		g.purge(ctx, key)
		return false
	}
	attempts, ok, err := g.Store.ReserveAttempt(ctx, key)
	if err != nil {
		log.Printf("otp attempt reservation failed: request=%s: %v", requestID, err)
		return false
	}
	if !ok {
		return false
	}
	// The caller that reserved the last allowed attempt purges or consumes.
	if attempts > g.MaxAttempts {
		g.recordFailure(ctx, requestID, email, "max_attempts")
		return false
	}
	if subtle.ConstantTimeCompare([]byte(entry.CodeHash), []byte(hashOTP(code))) != 1 {
		if attempts >= g.MaxAttempts {
			g.purge(ctx, key)
		}
		g.recordFailure(ctx, requestID, email, "mismatch")
		return false
	}
	consumed, err := g.Store.Consume(ctx, key)
	if err != nil {
		log.Printf("otp consume failed: request=%s: %v", requestID, err)
		return false
	}
	if !consumed {
		return false
	}
	recordAudit(ctx, g.Audit, domain.AuditEntry{
		EntityType: domain.AuditEntityOTP,
		EntityID:   requestID,
		Action:     domain.AuditOTPValidated,
		Actor:      email,
	})
	return true
}

func (g *OTPGate) purge(ctx context.Context, key string) {
	if err := g.Store.Delete(ctx, key); err != nil {
		log.Printf("otp purge failed: key=%s: %v", key, err)
	}
}

func (g *OTPGate) recordFailure(ctx context.Context, requestID, email, reason string) {
	recordAudit(ctx, g.Audit, domain.AuditEntry{
		EntityType: domain.AuditEntityOTP,
		EntityID:   requestID,
		Action:     domain.AuditOTPFailed,
		Actor:      email,
		Details:    map[string]any{"reason": reason},
	})
}

func otpKey(requestID, email string) string {
	return requestID + ":" + email
}

func hashOTP(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func randomOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}
