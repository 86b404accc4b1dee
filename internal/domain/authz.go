package domain

import "errors"

const (
	AuthzMissingRole       = "MISSING_ROLE"
	AuthzMissingPermission = "MISSING_PERMISSION"
	AuthzNotCampaignOwner  = "NOT_CAMPAIGN_OWNER"
)

type AuthzError struct {
	Code string
	Err  error
}

func (e *AuthzError) Error() string {
	if e == nil {
		return ""
	}
	return e.Code
}

func (e *AuthzError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func IsAuthzError(err error) (*AuthzError, bool) {
	var authz *AuthzError
	if errors.As(err, &authz) {
		return authz, true
	}
	return nil, false
}
