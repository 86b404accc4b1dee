package rbac

import (
	"context"
	"errors"
	"testing"

	"docrequest/internal/domain"
)

func TestAuthorizer_RolePermissions(t *testing.T) {
	authz := NewAuthorizer()
	cases := []struct {
		role       domain.Role
		permission string
		allowed    bool
	}{
		{domain.RoleViewer, domain.PermCampaignRead, true},
		{domain.RoleViewer, domain.PermReportRead, true},
		{domain.RoleViewer, domain.PermCampaignWrite, false},
		{domain.RoleViewer, domain.PermEvidenceReview, false},
		{domain.RoleOwner, domain.PermEvidenceReview, true},
		{domain.RoleOwner, domain.PermReminderWrite, true},
		{domain.RoleOwner, domain.PermAuditRead, false},
		{domain.RoleOwner, domain.PermUserRead, false},
		{domain.RoleAdmin, domain.PermAuditRead, true},
		{domain.RoleAdmin, domain.PermUserRead, true},
	}
	for _, tc := range cases {
		principal := domain.Principal{Subject: "u1", Roles: []string{string(tc.role)}}
		err := authz.Require(context.Background(), principal, tc.permission)
		if tc.allowed && err != nil {
			t.Fatalf("%s %s: expected allow, got %v", tc.role, tc.permission, err)
		}
		if !tc.allowed {
			authzErr, ok := domain.IsAuthzError(err)
			if !ok {
				t.Fatalf("%s %s: expected authz error, got %v", tc.role, tc.permission, err)
			}
			if authzErr.Code != domain.AuthzMissingPermission {
				t.Fatalf("expected MISSING_PERMISSION, got %s", authzErr.Code)
			}
			if !errors.Is(err, domain.ErrForbidden) {
				t.Fatalf("expected forbidden, got %v", err)
			}
		}
	}
}

func TestAuthorizer_UnknownRole(t *testing.T) {
	authz := NewAuthorizer()
	err := authz.Require(context.Background(), domain.Principal{Subject: "u1", Roles: []string{"GUEST"}}, domain.PermCampaignRead)
	authzErr, ok := domain.IsAuthzError(err)
	if !ok {
		t.Fatalf("expected authz error, got %v", err)
	}
	if authzErr.Code != domain.AuthzMissingRole {
		t.Fatalf("expected MISSING_ROLE, got %s", authzErr.Code)
	}
}

func TestAuthorizer_Unauthenticated(t *testing.T) {
	authz := NewAuthorizer()
	err := authz.Require(context.Background(), domain.Principal{}, domain.PermCampaignRead)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
