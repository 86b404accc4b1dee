package policyopa

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"docrequest/internal/domain"
)

func mustEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(context.Background())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngineMatchesRolePermissions(t *testing.T) {
	engine := mustEngine(t)
	tests := []struct {
		name       string
		roles      []string
		permission string
		allow      bool
		denyCode   string
	}{
		{name: "admin audit", roles: []string{"ADMIN"}, permission: domain.PermAuditRead, allow: true},
		{name: "owner review", roles: []string{"OWNER"}, permission: domain.PermEvidenceReview, allow: true},
		{name: "owner audit", roles: []string{"OWNER"}, permission: domain.PermAuditRead, denyCode: "MISSING_PERMISSION"},
		{name: "viewer read", roles: []string{"VIEWER"}, permission: domain.PermCampaignRead, allow: true},
		{name: "viewer write", roles: []string{"VIEWER"}, permission: domain.PermCampaignWrite, denyCode: "MISSING_PERMISSION"},
		{name: "unknown role", roles: []string{"GUEST"}, permission: domain.PermCampaignRead, denyCode: "MISSING_ROLE"},
		{name: "no roles", roles: nil, permission: domain.PermCampaignRead, denyCode: "MISSING_ROLE"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := engine.Evaluate(context.Background(), domain.PolicyInput{
				Principal: domain.PolicyPrincipal{Subject: "u1", Roles: tc.roles},
				Action:    tc.permission,
			})
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if result.Allow != tc.allow {
				t.Fatalf("expected allow=%v, got %v", tc.allow, result.Allow)
			}
			if tc.allow {
				if len(result.Deny) != 0 {
					t.Fatalf("expected no deny reasons, got %v", result.Deny)
				}
				return
			}
			if len(result.Deny) != 1 || result.Deny[0].Code != tc.denyCode {
				t.Fatalf("expected deny %s, got %v", tc.denyCode, result.Deny)
			}
		})
	}
}

func TestEngineRequireReturnsAuthzError(t *testing.T) {
	engine := mustEngine(t)
	err := engine.Require(context.Background(), domain.Principal{Subject: "u1", Roles: []string{"VIEWER"}}, domain.PermRequestWrite)
	authzErr, ok := domain.IsAuthzError(err)
	if !ok {
		t.Fatalf("expected authz error, got %v", err)
	}
	if authzErr.Code != domain.AuthzMissingPermission {
		t.Fatalf("expected MISSING_PERMISSION, got %s", authzErr.Code)
	}
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden")
	}
	if err := engine.Require(context.Background(), domain.Principal{Subject: "u1", Roles: []string{"ADMIN"}}, domain.PermUserRead); err != nil {
		t.Fatalf("expected admin allowed, got %v", err)
	}
}

func TestEngineRejectsForbiddenBuiltins(t *testing.T) {
	dir := t.TempDir()
	policy := `package docrequest.authz

result := {"allow": count(http.send({"method": "GET", "url": "http://example.com"})) > 0, "deny": []}
`
	path := filepath.Join(dir, "policy.rego")
	if err := os.WriteFile(path, []byte(policy), 0o600); err != nil {
		t.Fatalf("write policy: %v", err)
	}
	if _, err := NewEngineFromPath(context.Background(), path); err == nil {
		t.Fatalf("expected forbidden builtin error")
	}
}

func TestEngineFromPathUsesCustomPolicy(t *testing.T) {
	dir := t.TempDir()
	policy := `package docrequest.authz

result := {"allow": true, "deny": []}
`
	path := filepath.Join(dir, "policy.rego")
	if err := os.WriteFile(path, []byte(policy), 0o600); err != nil {
		t.Fatalf("write policy: %v", err)
	}
	engine, err := NewEngineFromPath(context.Background(), path)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if engine.PolicyHash() == mustEngine(t).PolicyHash() {
		t.Fatalf("expected different policy hash")
	}
	if err := engine.Require(context.Background(), domain.Principal{Subject: "u1"}, domain.PermAuditRead); err != nil {
		t.Fatalf("expected custom policy allow, got %v", err)
	}
}
