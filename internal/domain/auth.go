package domain

import (
	"context"
	"time"
)

type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleViewer Role = "VIEWER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleViewer:
		return true
	}
	return false
}

const (
	PermCampaignRead   = "campaign:read"
	PermCampaignWrite  = "campaign:write"
	PermRequestRead    = "request:read"
	PermRequestWrite   = "request:write"
	PermEvidenceReview = "evidence:review"
	PermReminderWrite  = "reminder:write"
	PermReportRead     = "report:read"
	PermAuditRead      = "audit:read"
	PermUserRead       = "user:read"
	PermUserWrite      = "user:write"
)

// Principal is an authenticated staff member.
type Principal struct {
	Subject string
	Email   string
	Roles   []string
}

func (p Principal) HasRole(role Role) bool {
	for _, r := range p.Roles {
		if r == string(role) {
			return true
		}
	}
	return false
}

type Authenticator interface {
	Authenticate(ctx context.Context, bearerToken string) (Principal, error)
}

type Authorizer interface {
	Require(ctx context.Context, principal Principal, permission string) error
}

type User struct {
	ID           string
	Email        string
	DisplayName  string
	Department   string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}
