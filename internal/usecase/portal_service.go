package usecase

import (
	"context"
	"time"

	"docrequest/internal/domain"
)

type PortalTokens interface {
	VerifyAccessToken(ctx context.Context, token string) (AccessClaims, error)
	IssueSessionToken(ctx context.Context, requestID, email string) (string, time.Time, error)
	VerifySessionToken(ctx context.Context, token string, requestID string) (SessionClaims, error)
}

type PortalOTP interface {
	IsEnabled() bool
	Issue(ctx context.Context, requestID, email string) error
	Verify(ctx context.Context, requestID, email, code string) bool
}

type Submitter interface {
	Submit(ctx context.Context, input SubmitInput) (SubmitResult, error)
}

// PortalView is what an external recipient sees after opening their link.
type PortalView struct {
	Request     domain.Request
	Campaign    domain.Campaign
	RequiresOTP bool
}

type PortalUpload struct {
	AccessToken  string
	SessionToken string
	Notes        string
	IPAddress    string
	UserAgent    string
	Files        []UploadFile
}

type PortalService struct {
	Tokens    PortalTokens
	OTP       PortalOTP
	Requests  RequestLookup
	Campaigns CampaignReader
	Submitter Submitter
	Audit     AuditSink
}

var errInvalidCode = &domain.Error{Err: domain.ErrUnauthorized, Message: "invalid or expired code"}

func NewPortalService(tokens PortalTokens, otp PortalOTP, requests RequestLookup, campaigns CampaignReader, submitter Submitter, audit AuditSink) *PortalService {
	return &PortalService{
		Tokens:    tokens,
		OTP:       otp,
		Requests:  requests,
		Campaigns: campaigns,
		Submitter: submitter,
		Audit:     audit,
	}
}

// Open verifies an access link and starts the second factor when it is enabled.
func (s *PortalService) Open(ctx context.Context, accessToken, ip string) (PortalView, error) {
	claims, err := s.Tokens.VerifyAccessToken(ctx, accessToken)
	if err != nil {
		return PortalView{}, err
	}
	view, err := s.view(ctx, claims.RequestID)
	if err != nil {
		return PortalView{}, err
	}
	recordAudit(ctx, s.Audit, domain.AuditEntry{
		EntityType: domain.AuditEntityToken,
		EntityID:   claims.RequestID,
		Action:     domain.AuditTokenValidated,
		Actor:      claims.Email,
		ActorIP:    ip,
		CampaignID: view.Request.CampaignID,
		Details:    map[string]any{"jti": claims.JTI},
	})
	if view.RequiresOTP {
		if err := s.OTP.Issue(ctx, claims.RequestID, claims.Email); err != nil {
			return PortalView{}, err
		}
	}
	return view, nil
}

// VerifyOTP exchanges a valid code for a session token.
func (s *PortalService) VerifyOTP(ctx context.Context, accessToken, code string) (string, time.Time, error) {
	claims, err := s.Tokens.VerifyAccessToken(ctx, accessToken)
	if err != nil {
		return "", time.Time{}, err
	}
	if s.otpEnabled() && !s.OTP.Verify(ctx, claims.RequestID, claims.Email, code) {
		return "", time.Time{}, errInvalidCode
	}
	return s.Tokens.IssueSessionToken(ctx, claims.RequestID, claims.Email)
}

// Authorize checks the access link and, when the second factor is enabled,
// the session bound to the same request.
func (s *PortalService) Authorize(ctx context.Context, accessToken, sessionToken string) (AccessClaims, error) {
	claims, err := s.Tokens.VerifyAccessToken(ctx, accessToken)
	if err != nil {
		return AccessClaims{}, err
	}
	if s.otpEnabled() {
		if sessionToken == "" {
			return AccessClaims{}, &domain.Error{Err: domain.ErrUnauthorized, Message: "verification code required"}
		}
		if _, err := s.Tokens.VerifySessionToken(ctx, sessionToken, claims.RequestID); err != nil {
			return AccessClaims{}, err
		}
	}
	return claims, nil
}

func (s *PortalService) Upload(ctx context.Context, in PortalUpload) (SubmitResult, error) {
	claims, err := s.Authorize(ctx, in.AccessToken, in.SessionToken)
	if err != nil {
		return SubmitResult{}, err
	}
	return s.SubmitFor(ctx, claims, in)
}

// SubmitFor runs the submission for claims already checked by Authorize.
func (s *PortalService) SubmitFor(ctx context.Context, claims AccessClaims, in PortalUpload) (SubmitResult, error) {
	return s.Submitter.Submit(ctx, SubmitInput{
		RequestID:      claims.RequestID,
		SubmitterEmail: claims.Email,
		Notes:          in.Notes,
		IPAddress:      in.IPAddress,
		UserAgent:      in.UserAgent,
		Files:          in.Files,
	})
}

func (s *PortalService) Status(ctx context.Context, accessToken string) (PortalView, error) {
	claims, err := s.Tokens.VerifyAccessToken(ctx, accessToken)
	if err != nil {
		return PortalView{}, err
	}
	return s.view(ctx, claims.RequestID)
}

func (s *PortalService) view(ctx context.Context, requestID string) (PortalView, error) {
	req, err := s.Requests.Get(ctx, requestID)
	if err != nil {
		return PortalView{}, err
	}
	campaign, err := s.Campaigns.Get(ctx, req.CampaignID)
	if err != nil {
		return PortalView{}, err
	}
	return PortalView{Request: req, Campaign: campaign, RequiresOTP: s.otpEnabled()}, nil
}

func (s *PortalService) otpEnabled() bool {
	return s.OTP != nil && s.OTP.IsEnabled()
}
