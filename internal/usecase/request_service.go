package usecase

import (
	"context"
	"log"
	"strings"
	"time"

	"docrequest/internal/domain"
)

// recomputable lists the statuses a submission event may overwrite.
var recomputable = []domain.RequestStatus{
	domain.RequestSent,
	domain.RequestInProgress,
	domain.RequestPartial,
	domain.RequestSubmitted,
	domain.RequestReadyToClose,
	domain.RequestOverdue,
}

type RequestService struct {
	Requests   RequestRepository
	Campaigns  CampaignReader
	Tokens     AccessTokenIssuer
	Notifier   NotificationGateway
	Completion CampaignCompletionSink
	Audit      AuditSink
	Clock      Clock
	BaseURL    string
}

type UpdateRecipientInput struct {
	RequestID      string
	RecipientEmail *string
	RecipientName  *string
	CCEmails       []string
	DelegateEmail  *string
	Deadline       *time.Time
	Actor          Actor
}

type SendResult struct {
	Request   domain.Request
	AccessURL string
}

func NewRequestService(requests RequestRepository, campaigns CampaignReader, tokens AccessTokenIssuer, notifier NotificationGateway, completion CampaignCompletionSink, audit AuditSink, baseURL string) *RequestService {
	return &RequestService{
		Requests:   requests,
		Campaigns:  campaigns,
		Tokens:     tokens,
		Notifier:   notifier,
		Completion: completion,
		Audit:      audit,
		Clock:      time.Now,
		BaseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (s *RequestService) Get(ctx context.Context, requestID string) (domain.Request, error) {
	return s.Requests.Get(ctx, requestID)
}

func (s *RequestService) ListByCampaign(ctx context.Context, campaignID string, status domain.RequestStatus) ([]domain.Request, error) {
	filter := RequestFilter{CampaignID: campaignID}
	if status != "" {
		if !status.Valid() {
			return nil, domain.Validation("unknown request status", map[string]any{"status": string(status)})
		}
		filter.Statuses = []domain.RequestStatus{status}
	}
	return s.Requests.List(ctx, filter)
}

// UpdateRecipient edits recipient fields of a DRAFT request.
func (s *RequestService) UpdateRecipient(ctx context.Context, input UpdateRecipientInput) (domain.Request, error) {
	req, err := s.Requests.Get(ctx, input.RequestID)
	if err != nil {
		return domain.Request{}, err
	}
	if req.Status != domain.RequestDraft {
		return domain.Request{}, domain.Conflict("only draft requests can be edited")
	}
	if input.RecipientEmail != nil {
		req.RecipientEmail = strings.TrimSpace(*input.RecipientEmail)
	}
	if input.RecipientName != nil {
		req.RecipientName = strings.TrimSpace(*input.RecipientName)
	}
	if input.CCEmails != nil {
		req.CCEmails = input.CCEmails
	}
	if input.DelegateEmail != nil {
		req.DelegateEmail = strings.TrimSpace(*input.DelegateEmail)
	}
	if input.Deadline != nil {
		req.Deadline = input.Deadline.UTC()
	}
	if err := validateRecipient(req.RecipientEmail, req.RecipientName, req.Deadline); err != nil {
		return domain.Request{}, err
	}
	req.UpdatedAt = s.Clock().UTC()
	ok, err := s.Requests.UpdateRecipient(ctx, req)
	if err != nil {
		return domain.Request{}, err
	}
	if !ok {
		return domain.Request{}, domain.Conflict("only draft requests can be edited")
	}
	return req, nil
}

// Send issues the access token and dispatches the initial email. Only DRAFT requests can be sent.
func (s *RequestService) Send(ctx context.Context, requestID string, actor Actor) (SendResult, error) {
	req, err := s.Requests.Get(ctx, requestID)
	if err != nil {
		return SendResult{}, err
	}
	if req.Status != domain.RequestDraft {
		return SendResult{}, domain.Conflict("only draft requests can be sent")
	}
	campaign, err := s.Campaigns.Get(ctx, req.CampaignID)
	if err != nil {
		return SendResult{}, err
	}
	issued, err := s.Tokens.IssueAccessToken(ctx, req.ID, req.RecipientEmail)
	if err != nil {
		return SendResult{}, err
	}
	now := s.Clock().UTC()
	ok, err := s.Requests.MarkSent(ctx, req.ID, issued.Hash, issued.ExpiresAt, now)
	if err != nil {
		return SendResult{}, err
	}
	if !ok {
		return SendResult{}, domain.Conflict("only draft requests can be sent")
	}
	req.Status = domain.RequestSent
	req.TokenHash = issued.Hash
	expires := issued.ExpiresAt
	req.TokenExpiresAt = &expires
	req.UpdatedAt = now

	accessURL := s.BaseURL + "/submit/" + issued.Token
	body := RenderTemplate(campaign.EmailTemplate, TemplateVars{
		RecipientName: req.RecipientName,
		ControlCode:   campaign.ControlCode,
		AccessURL:     accessURL,
		Deadline:      req.Deadline,
		Evidence:      req.Evidence,
	})
	msg := domain.EmailMessage{
		Kind:        domain.EmailRequest,
		To:          req.RecipientEmail,
		Subject:     "[" + campaign.ControlCode + "] Document request " + shortID(req.ID),
		BodyHTML:    body,
		Importance:  domain.ImportanceHigh,
		RequestID:   req.ID,
		ControlCode: campaign.ControlCode,
	}
	if req.DelegateEmail != "" {
		msg.CC = []string{req.DelegateEmail}
	}
	s.dispatch(ctx, msg)

	recordAudit(ctx, s.Audit, domain.AuditEntry{
		EntityType: domain.AuditEntityToken,
		EntityID:   req.ID,
		Action:     domain.AuditTokenGenerated,
		Actor:      actor.Label(),
		ActorIP:    actor.IP,
		CampaignID: req.CampaignID,
		Details:    map[string]any{"expires_at": issued.ExpiresAt.Format(time.RFC3339)},
	})
	recordAudit(ctx, s.Audit, domain.AuditEntry{
		EntityType: domain.AuditEntityRequest,
		EntityID:   req.ID,
		Action:     domain.AuditRequestSent,
		Actor:      actor.Label(),
		ActorIP:    actor.IP,
		CampaignID: req.CampaignID,
		Details:    map[string]any{"recipient": req.RecipientEmail},
	})
	return SendResult{Request: req, AccessURL: accessURL}, nil
}

// RecomputeAfterSubmission derives the status from mandatory evidence. CLOSED and
// DRAFT requests are left alone, and READY_TO_CLOSE holds while every mandatory item stays validated.
func (s *RequestService) RecomputeAfterSubmission(ctx context.Context, requestID string) (domain.RequestStatus, error) {
	req, err := s.Requests.Get(ctx, requestID)
	if err != nil {
		return "", err
	}
	if req.Status == domain.RequestClosed || req.Status == domain.RequestDraft {
		return req.Status, nil
	}
	next := domain.SubmissionStatus(req.Evidence)
	if req.Status == domain.RequestReadyToClose && domain.ReadyToClose(req.Evidence) {
		next = domain.RequestReadyToClose
	}
	if next == req.Status {
		return next, nil
	}
	ok, err := s.Requests.TransitionStatus(ctx, req.ID, recomputable, next, s.Clock().UTC())
	if err != nil {
		return "", err
	}
	if !ok {
		return req.Status, nil
	}
	return next, nil
}

func (s *RequestService) OnEvidenceValidated(ctx context.Context, requestID string) error {
	req, err := s.Requests.Get(ctx, requestID)
	if err != nil {
		return err
	}
	if req.Status == domain.RequestClosed || req.Status == domain.RequestReadyToClose {
		return nil
	}
	if !domain.ReadyToClose(req.Evidence) {
		return nil
	}
	_, err = s.Requests.TransitionStatus(ctx, req.ID, recomputable, domain.RequestReadyToClose, s.Clock().UTC())
	return err
}

// OnEvidenceRejected forces the request back to IN_PROGRESS unless it is CLOSED.
func (s *RequestService) OnEvidenceRejected(ctx context.Context, requestID string) error {
	_, err := s.Requests.TransitionStatus(ctx, requestID, recomputable, domain.RequestInProgress, s.Clock().UTC())
	return err
}

// Close requires every mandatory item to be VALIDATED, whatever the current label says.
func (s *RequestService) Close(ctx context.Context, requestID string, actor Actor) (domain.Request, error) {
	req, err := s.Requests.Get(ctx, requestID)
	if err != nil {
		return domain.Request{}, err
	}
	if req.Status == domain.RequestClosed {
		return domain.Request{}, domain.Conflict("request is already closed")
	}
	total, unvalidated := domain.UnvalidatedMandatory(req.Evidence)
	if total == 0 || unvalidated > 0 {
		return domain.Request{}, domain.Validation("all mandatory evidence must be validated before closing", map[string]any{
			"unvalidated": unvalidated,
			"mandatory":   total,
		})
	}
	now := s.Clock().UTC()
	ok, err := s.Requests.MarkClosed(ctx, req.ID, now)
	if err != nil {
		return domain.Request{}, err
	}
	if !ok {
		return domain.Request{}, domain.Conflict("request is already closed")
	}
	req.Status = domain.RequestClosed
	req.ClosedAt = &now
	req.UpdatedAt = now

	campaign, err := s.Campaigns.Get(ctx, req.CampaignID)
	if err != nil {
		log.Printf("close notification skipped: campaign %s: %v", req.CampaignID, err)
	} else {
		s.dispatch(ctx, domain.EmailMessage{
			Kind:        domain.EmailClosed,
			To:          req.RecipientEmail,
			Subject:     "[" + campaign.ControlCode + "] Request closed",
			BodyHTML:    renderPlaceholders(closedTemplate, TemplateVars{RecipientName: req.RecipientName, ControlCode: campaign.ControlCode}),
			Importance:  domain.ImportanceNormal,
			RequestID:   req.ID,
			ControlCode: campaign.ControlCode,
		})
	}
	recordAudit(ctx, s.Audit, domain.AuditEntry{
		EntityType: domain.AuditEntityRequest,
		EntityID:   req.ID,
		Action:     domain.AuditRequestClosed,
		Actor:      actor.Label(),
		ActorIP:    actor.IP,
		CampaignID: req.CampaignID,
	})
	if s.Completion != nil {
		if _, err := s.Completion.CheckCompletion(ctx, req.CampaignID); err != nil {
			log.Printf("campaign completion check failed: campaign=%s: %v", req.CampaignID, err)
		}
	}
	return req, nil
}

// MarkOverdue moves past-deadline open requests to OVERDUE and returns how many moved.
func (s *RequestService) MarkOverdue(ctx context.Context) (int64, error) {
	count, err := s.Requests.MarkOverdue(ctx, s.Clock().UTC())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		log.Printf("marked %d requests as overdue", count)
	}
	return count, nil
}

func (s *RequestService) dispatch(ctx context.Context, msg domain.EmailMessage) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendEmail(ctx, msg); err != nil {
		log.Printf("notification %s for request %s failed: %v", msg.Kind, msg.RequestID, err)
	}
}

func validateRecipient(email, name string, deadline time.Time) error {
	if !strings.Contains(email, "@") {
		return domain.Validation("recipient_email is invalid", map[string]any{"recipient_email": email})
	}
	if name == "" {
		return domain.Validation("recipient_name is required", nil)
	}
	if deadline.IsZero() {
		return domain.Validation("deadline is required", nil)
	}
	return nil
}
