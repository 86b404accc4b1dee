package usecase_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"docrequest/internal/domain"
	"docrequest/internal/infra/otpstore"
	"docrequest/internal/usecase"
)

func lastCode(t *testing.T, f *fixture) string {
	t.Helper()
	otps := f.notifier.byKind(domain.EmailOTP)
	if len(otps) == 0 {
		t.Fatal("expected an otp email")
	}
	return otps[len(otps)-1].OTPCode
}

func TestOTPIsSingleUse(t *testing.T) {
	f := newFixture(t)
	if err := f.otp.Issue(f.ctx, "req-1", "r@example.com"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	code := lastCode(t, f)
	if len(code) != 6 {
		t.Fatalf("expected 6 digit code, got %q", code)
	}
	if !f.otp.Verify(f.ctx, "req-1", "r@example.com", code) {
		t.Fatal("expected first verification to pass")
	}
	if f.otp.Verify(f.ctx, "req-1", "r@example.com", code) {
		t.Fatal("code must not verify twice")
	}
	if !hasAction(f.auditActions(), domain.AuditOTPSent) || !hasAction(f.auditActions(), domain.AuditOTPValidated) {
		t.Fatalf("expected otp audit entries, got %v", f.auditActions())
	}
}

func TestOTPScopedToRequestAndEmail(t *testing.T) {
	f := newFixture(t)
	if err := f.otp.Issue(f.ctx, "req-1", "r@example.com"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	code := lastCode(t, f)
	if f.otp.Verify(f.ctx, "req-2", "r@example.com", code) {
		t.Fatal("code must not verify for another request")
	}
	if f.otp.Verify(f.ctx, "req-1", "other@example.com", code) {
		t.Fatal("code must not verify for another email")
	}
}

func TestOTPInvalidatedAfterMaxAttempts(t *testing.T) {
	f := newFixture(t)
	if err := f.otp.Issue(f.ctx, "req-1", "r@example.com"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	code := lastCode(t, f)
	wrong := "000000"
	if wrong == code {
		wrong = "111111"
	}
	for i := 0; i < 3; i++ {
		if f.otp.Verify(f.ctx, "req-1", "r@example.com", wrong) {
			t.Fatal("wrong code verified")
		}
	}
	if f.otp.Verify(f.ctx, "req-1", "r@example.com", code) {
		t.Fatal("correct code must fail once attempts are exhausted")
	}
	if !hasAction(f.auditActions(), domain.AuditOTPFailed) {
		t.Fatal("expected OTP_FAILED audit")
	}
}

func TestOTPExpires(t *testing.T) {
	f := newFixture(t)
	if err := f.otp.Issue(f.ctx, "req-1", "r@example.com"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	code := lastCode(t, f)
	f.advance(11 * time.Minute)
	if f.otp.Verify(f.ctx, "req-1", "r@example.com", code) {
		t.Fatal("expired code verified")
	}
}

func TestOTPReissueReplacesCode(t *testing.T) {
	f := newFixture(t)
	codes := []string{"123456", "654321"}
	f.otp.NewCode = func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}
	_ = f.otp.Issue(f.ctx, "req-1", "r@example.com")
	_ = f.otp.Issue(f.ctx, "req-1", "r@example.com")
	if f.otp.Verify(f.ctx, "req-1", "r@example.com", "123456") {
		t.Fatal("superseded code verified")
	}
	if !f.otp.Verify(f.ctx, "req-1", "r@example.com", "654321") {
		t.Fatal("latest code should verify")
	}
}

func TestOTPDisabledAlwaysPasses(t *testing.T) {
	f := newFixture(t)
	f.otp.Enabled = false
	if err := f.otp.Issue(f.ctx, "req-1", "r@example.com"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(f.notifier.byKind(domain.EmailOTP)) != 0 {
		t.Fatal("no code should be sent when disabled")
	}
	if !f.otp.Verify(f.ctx, "req-1", "r@example.com", "") {
		t.Fatal("disabled gate should pass")
	}
}

// sharedGates returns two gates over one store, as two replicas would run.
func sharedGates(f *fixture) (*usecase.OTPGate, *usecase.OTPGate) {
	store := otpstore.NewMemory(nil)
	a := usecase.NewOTPGate(store, f.notifier, f.audit, true, 10*time.Minute, 3)
	b := usecase.NewOTPGate(store, f.notifier, f.audit, true, 10*time.Minute, 3)
	a.NewCode = func() (string, error) { return "424242", nil }
	return a, b
}

func TestOTPAttemptLimitHoldsAcrossGates(t *testing.T) {
	f := newFixture(t)
	a, b := sharedGates(f)
	if err := a.Issue(f.ctx, "req-1", "r@example.com"); err != nil {
		t.Fatalf("issue: %v", err)
	}

	var wg sync.WaitGroup
	var passed atomic.Int32
	for i := 0; i < 8; i++ {
		gate := a
		if i%2 == 1 {
			gate = b
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if gate.Verify(f.ctx, "req-1", "r@example.com", "000000") {
				passed.Add(1)
			}
		}()
	}
	wg.Wait()
	if passed.Load() != 0 {
		t.Fatalf("wrong code verified %d times", passed.Load())
	}
	if b.Verify(f.ctx, "req-1", "r@example.com", "424242") {
		t.Fatal("correct code must fail once concurrent guesses exhausted the attempts")
	}
}

func TestOTPConcurrentCorrectCodeVerifiesOnce(t *testing.T) {
	f := newFixture(t)
	a, b := sharedGates(f)
	if err := a.Issue(f.ctx, "req-1", "r@example.com"); err != nil {
		t.Fatalf("issue: %v", err)
	}

	var wg sync.WaitGroup
	var passed atomic.Int32
	for i := 0; i < 3; i++ {
		for _, gate := range []*usecase.OTPGate{a, b} {
			wg.Add(1)
			go func(g *usecase.OTPGate) {
				defer wg.Done()
				if g.Verify(f.ctx, "req-1", "r@example.com", "424242") {
					passed.Add(1)
				}
			}(gate)
		}
	}
	wg.Wait()
	if passed.Load() != 1 {
		t.Fatalf("expected exactly one successful verification, got %d", passed.Load())
	}
}
