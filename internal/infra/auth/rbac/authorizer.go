package rbac

import (
	"context"

	"docrequest/internal/domain"
)

var ownerPermissions = []string{
	domain.PermCampaignRead,
	domain.PermCampaignWrite,
	domain.PermRequestRead,
	domain.PermRequestWrite,
	domain.PermEvidenceReview,
	domain.PermReminderWrite,
	domain.PermReportRead,
}

var viewerPermissions = []string{
	domain.PermCampaignRead,
	domain.PermRequestRead,
	domain.PermReportRead,
}

// DefaultPermissions maps each staff role to what it may do. ADMIN is handled separately.
func DefaultPermissions() map[domain.Role][]string {
	return map[domain.Role][]string{
		domain.RoleOwner:  ownerPermissions,
		domain.RoleViewer: viewerPermissions,
	}
}

type Authorizer struct {
	adminRole   domain.Role
	permissions map[domain.Role]map[string]struct{}
}

func NewAuthorizer() *Authorizer {
	return NewAuthorizerWithPermissions(DefaultPermissions())
}

func NewAuthorizerWithPermissions(perms map[domain.Role][]string) *Authorizer {
	table := make(map[domain.Role]map[string]struct{}, len(perms))
	for role, list := range perms {
		set := make(map[string]struct{}, len(list))
		for _, p := range list {
			set[p] = struct{}{}
		}
		table[role] = set
	}
	return &Authorizer{adminRole: domain.RoleAdmin, permissions: table}
}

func (a *Authorizer) Require(_ context.Context, principal domain.Principal, permission string) error {
	if principal.Subject == "" {
		return domain.ErrUnauthorized
	}
	if permission == "" {
		return nil
	}
	if principal.HasRole(a.adminRole) {
		return nil
	}
	known := false
	for _, r := range principal.Roles {
		set, ok := a.permissions[domain.Role(r)]
		if !ok {
			continue
		}
		known = true
		if _, ok := set[permission]; ok {
			return nil
		}
	}
	if !known {
		return &domain.AuthzError{Code: domain.AuthzMissingRole, Err: domain.ErrForbidden}
	}
	return &domain.AuthzError{Code: domain.AuthzMissingPermission, Err: domain.ErrForbidden}
}

var _ domain.Authorizer = (*Authorizer)(nil)
