package domain

import (
	"errors"
	"testing"
	"time"
)

func items(statuses ...EvidenceStatus) []EvidenceItem {
	out := make([]EvidenceItem, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, EvidenceItem{IsMandatory: true, Status: s})
	}
	return out
}

func TestSubmissionStatus(t *testing.T) {
	optional := EvidenceItem{IsMandatory: false, Status: EvidenceSubmitted}
	cases := []struct {
		name  string
		items []EvidenceItem
		want  RequestStatus
	}{
		{"nothing delivered", items(EvidencePending, EvidencePending), RequestInProgress},
		{"only optional delivered", append(items(EvidencePending), optional), RequestInProgress},
		{"some delivered", items(EvidenceSubmitted, EvidencePending), RequestPartial},
		{"rejected counts as missing", items(EvidenceValidated, EvidenceRejected), RequestPartial},
		{"all delivered", items(EvidenceSubmitted, EvidenceValidated), RequestSubmitted},
		{"no mandatory items", []EvidenceItem{optional}, RequestInProgress},
	}
	for _, tc := range cases {
		if got := SubmissionStatus(tc.items); got != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestReadyToClose(t *testing.T) {
	if ReadyToClose(nil) {
		t.Fatal("no mandatory items must never be ready")
	}
	if ReadyToClose(items(EvidenceValidated, EvidenceSubmitted)) {
		t.Fatal("submitted item is not validated")
	}
	withOptional := append(items(EvidenceValidated), EvidenceItem{Status: EvidencePending})
	if !ReadyToClose(withOptional) {
		t.Fatal("optional items must not block closing")
	}
	total, unvalidated := UnvalidatedMandatory(items(EvidenceValidated, EvidenceRejected, EvidencePending))
	if total != 3 || unvalidated != 2 {
		t.Fatalf("got total=%d unvalidated=%d", total, unvalidated)
	}
}

func TestEscalationLevelFor(t *testing.T) {
	policy := EscalationPolicy{Levels: []EscalationLevel{
		{Level: 3, AfterReminders: 4},
		{Level: 1, AfterReminders: 0},
		{Level: 2, AfterReminders: 2},
	}}
	for count, want := range map[int]int{0: 1, 1: 1, 2: 2, 3: 2, 4: 3, 9: 3} {
		if got := policy.LevelFor(count).Level; got != want {
			t.Fatalf("LevelFor(%d) = %d, want %d", count, got, want)
		}
	}
	if got := (EscalationPolicy{}).LevelFor(5).Level; got != 1 {
		t.Fatalf("empty policy must default to level 1, got %d", got)
	}
}

func TestPolicyValidation(t *testing.T) {
	if err := DefaultReminderPolicy().Validate(); err != nil {
		t.Fatalf("default reminder policy: %v", err)
	}
	if err := DefaultEscalationPolicy().Validate(); err != nil {
		t.Fatalf("default escalation policy: %v", err)
	}
	bad := []EscalationPolicy{
		{Levels: []EscalationLevel{{Level: 0}}},
		{Levels: []EscalationLevel{{Level: 1, AfterReminders: -1}}},
		{Levels: []EscalationLevel{{Level: 2, CCSuperior: true}}},
		{Levels: []EscalationLevel{{Level: 1}, {Level: 1, AfterReminders: 2}}},
	}
	for i, p := range bad {
		if err := p.Validate(); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
	if err := (ReminderPolicy{FrequencyDays: 1, MaxReminders: -1}).Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestErrorChains(t *testing.T) {
	if !errors.Is(ErrTokenExpired, ErrInvalidToken) || !errors.Is(ErrTokenExpired, ErrUnauthorized) {
		t.Fatal("expired tokens must read as invalid and unauthorized")
	}
	if !errors.Is(ErrRequestClosed, ErrForbidden) {
		t.Fatal("closed request must read as forbidden")
	}
	err := Validation("bad", map[string]any{"field": "x"})
	derr, ok := AsError(err)
	if !ok || derr.Details["field"] != "x" || err.Error() != "validation failed: bad" {
		t.Fatalf("unexpected error %v", err)
	}
	authz := &AuthzError{Code: AuthzMissingPermission, Err: ErrForbidden}
	if got, ok := IsAuthzError(authz); !ok || got.Code != AuthzMissingPermission || !errors.Is(authz, ErrForbidden) {
		t.Fatal("authz error must unwrap to forbidden")
	}
}

func TestOwnershipAndRoles(t *testing.T) {
	c := Campaign{OwnerUserID: "u-1", BackupUserID: "u-2"}
	if !c.OwnedBy("u-1") || !c.OwnedBy("u-2") || c.OwnedBy("u-3") || c.OwnedBy("") {
		t.Fatal("unexpected ownership result")
	}
	p := Principal{Roles: []string{"OWNER"}}
	if !p.HasRole(RoleOwner) || p.HasRole(RoleAdmin) {
		t.Fatal("unexpected role check")
	}
	if Role("ROOT").Valid() || !RoleViewer.Valid() {
		t.Fatal("unexpected role validity")
	}
}

func TestOTPEntryExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	e := OTPEntry{ExpiresAt: now}
	if !e.Expired(now) || e.Expired(now.Add(-time.Second)) {
		t.Fatal("entry expires at ExpiresAt")
	}
}

func TestEvidenceMarkSubmitted(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	validatedAt := at.Add(-time.Hour)
	item := EvidenceItem{ID: "ev-1", Status: EvidenceRejected, RejectionReason: "ilegible", ValidatedBy: "u-1", ValidatedAt: &validatedAt}
	if err := item.MarkSubmitted(1024, "application/pdf", at); err != nil {
		t.Fatalf("mark submitted: %v", err)
	}
	if item.Status != EvidenceSubmitted || item.RejectionReason != "" || item.ValidatedBy != "" || item.ValidatedAt != nil {
		t.Fatalf("expected rejection cleared, got %+v", item)
	}
	if item.FileSize == nil || *item.FileSize != 1024 || item.MimeType != "application/pdf" || !item.UpdatedAt.Equal(at) {
		t.Fatalf("expected file metadata recorded, got %+v", item)
	}

	validated := EvidenceItem{ID: "ev-2", Status: EvidenceValidated}
	if err := validated.MarkSubmitted(1, "text/plain", at); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict for validated item, got %v", err)
	}
	if validated.Status != EvidenceValidated || validated.FileSize != nil {
		t.Fatalf("validated item must be left untouched, got %+v", validated)
	}
}
