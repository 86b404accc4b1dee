package usecase

import (
	"context"
	"strings"
	"time"

	"docrequest/internal/domain"

	"github.com/google/uuid"
)

type CampaignService struct {
	Campaigns CampaignRepository
	Requests  RequestRepository
	Audit     AuditSink
	Clock     Clock
	NewID     func() string
}

type CampaignInput struct {
	Name             string
	ControlCode      string
	Description      string
	OwnerUserID      string
	BackupUserID     string
	StartDate        time.Time
	EndDate          time.Time
	ReminderPolicy   *domain.ReminderPolicy
	EscalationPolicy *domain.EscalationPolicy
	EmailTemplate    string
	Actor            Actor
}

type CampaignUpdate struct {
	CampaignID       string
	Name             *string
	Description      *string
	BackupUserID     *string
	StartDate        *time.Time
	EndDate          *time.Time
	ReminderPolicy   *domain.ReminderPolicy
	EscalationPolicy *domain.EscalationPolicy
	EmailTemplate    *string
	Actor            Actor
}

type NewEvidence struct {
	Name         string
	Type         domain.EvidenceType
	IsMandatory  bool
	Instructions string
}

type NewRequest struct {
	RecipientEmail string
	RecipientName  string
	CCEmails       []string
	DelegateEmail  string
	Deadline       time.Time
	Evidence       []NewEvidence
}

func NewCampaignService(campaigns CampaignRepository, requests RequestRepository, audit AuditSink) *CampaignService {
	return &CampaignService{
		Campaigns: campaigns,
		Requests:  requests,
		Audit:     audit,
		Clock:     time.Now,
		NewID:     func() string { return uuid.NewString() },
	}
}

func (s *CampaignService) Create(ctx context.Context, input CampaignInput) (domain.Campaign, error) {
	now := s.Clock().UTC()
	campaign := domain.Campaign{
		ID:               s.NewID(),
		Name:             strings.TrimSpace(input.Name),
		ControlCode:      strings.TrimSpace(input.ControlCode),
		Description:      input.Description,
		OwnerUserID:      input.OwnerUserID,
		BackupUserID:     input.BackupUserID,
		StartDate:        input.StartDate.UTC(),
		EndDate:          input.EndDate.UTC(),
		ReminderPolicy:   domain.DefaultReminderPolicy(),
		EscalationPolicy: domain.DefaultEscalationPolicy(),
		EmailTemplate:    input.EmailTemplate,
		Status:           domain.CampaignDraft,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if campaign.OwnerUserID == "" {
		campaign.OwnerUserID = input.Actor.ID
	}
	if input.ReminderPolicy != nil {
		campaign.ReminderPolicy = *input.ReminderPolicy
	}
	if input.EscalationPolicy != nil {
		campaign.EscalationPolicy = *input.EscalationPolicy
	}
	if err := validateCampaign(campaign); err != nil {
		return domain.Campaign{}, err
	}
	if err := s.Campaigns.Create(ctx, campaign); err != nil {
		return domain.Campaign{}, err
	}
	recordAudit(ctx, s.Audit, domain.AuditEntry{
		EntityType: domain.AuditEntityCampaign,
		EntityID:   campaign.ID,
		Action:     domain.AuditCampaignCreated,
		Actor:      input.Actor.Label(),
		ActorIP:    input.Actor.IP,
		CampaignID: campaign.ID,
		Details:    map[string]any{"control_code": campaign.ControlCode},
	})
	return campaign, nil
}

func (s *CampaignService) Get(ctx context.Context, campaignID string) (domain.Campaign, error) {
	return s.Campaigns.Get(ctx, campaignID)
}

// List returns every campaign for admins and viewers and only owned or backed up ones for owners.
func (s *CampaignService) List(ctx context.Context, principal domain.Principal, status domain.CampaignStatus) ([]domain.Campaign, error) {
	filter := CampaignFilter{Status: status}
	if restrictedToOwn(principal) {
		filter.AccessibleBy = principal.Subject
	}
	return s.Campaigns.List(ctx, filter)
}

// Update edits a DRAFT campaign.
func (s *CampaignService) Update(ctx context.Context, input CampaignUpdate) (domain.Campaign, error) {
	campaign, err := s.Campaigns.Get(ctx, input.CampaignID)
	if err != nil {
		return domain.Campaign{}, err
	}
	if campaign.Status != domain.CampaignDraft {
		return domain.Campaign{}, domain.Conflict("only draft campaigns can be edited")
	}
	if input.Name != nil {
		campaign.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		campaign.Description = *input.Description
	}
	if input.BackupUserID != nil {
		campaign.BackupUserID = *input.BackupUserID
	}
	if input.StartDate != nil {
		campaign.StartDate = input.StartDate.UTC()
	}
	if input.EndDate != nil {
		campaign.EndDate = input.EndDate.UTC()
	}
	if input.ReminderPolicy != nil {
		campaign.ReminderPolicy = *input.ReminderPolicy
	}
	if input.EscalationPolicy != nil {
		campaign.EscalationPolicy = *input.EscalationPolicy
	}
	if input.EmailTemplate != nil {
		campaign.EmailTemplate = *input.EmailTemplate
	}
	if err := validateCampaign(campaign); err != nil {
		return domain.Campaign{}, err
	}
	campaign.UpdatedAt = s.Clock().UTC()
	ok, err := s.Campaigns.UpdateDraft(ctx, campaign)
	if err != nil {
		return domain.Campaign{}, err
	}
	if !ok {
		return domain.Campaign{}, domain.Conflict("only draft campaigns can be edited")
	}
	recordAudit(ctx, s.Audit, domain.AuditEntry{
		EntityType: domain.AuditEntityCampaign,
		EntityID:   campaign.ID,
		Action:     domain.AuditCampaignUpdated,
		Actor:      input.Actor.Label(),
		ActorIP:    input.Actor.IP,
		CampaignID: campaign.ID,
	})
	return campaign, nil
}

func (s *CampaignService) Activate(ctx context.Context, campaignID string, actor Actor) (domain.Campaign, error) {
	campaign, err := s.Campaigns.Get(ctx, campaignID)
	if err != nil {
		return domain.Campaign{}, err
	}
	if campaign.Status != domain.CampaignDraft {
		return domain.Campaign{}, domain.Conflict("only draft campaigns can be activated")
	}
	count, err := s.Requests.CountByCampaign(ctx, campaignID)
	if err != nil {
		return domain.Campaign{}, err
	}
	if count == 0 {
		return domain.Campaign{}, domain.Validation("campaign has no requests", nil)
	}
	now := s.Clock().UTC()
	ok, err := s.Campaigns.TransitionStatus(ctx, campaignID, []domain.CampaignStatus{domain.CampaignDraft}, domain.CampaignActive, now)
	if err != nil {
		return domain.Campaign{}, err
	}
	if !ok {
		return domain.Campaign{}, domain.Conflict("only draft campaigns can be activated")
	}
	campaign.Status = domain.CampaignActive
	campaign.UpdatedAt = now
	recordAudit(ctx, s.Audit, domain.AuditEntry{
		EntityType: domain.AuditEntityCampaign,
		EntityID:   campaign.ID,
		Action:     domain.AuditCampaignActivated,
		Actor:      actor.Label(),
		ActorIP:    actor.IP,
		CampaignID: campaign.ID,
		Details:    map[string]any{"requests": count},
	})
	return campaign, nil
}

// CreateRequests adds DRAFT requests with their evidence items in one batch.
func (s *CampaignService) CreateRequests(ctx context.Context, campaignID string, inputs []NewRequest, actor Actor) ([]domain.Request, error) {
	campaign, err := s.Campaigns.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != domain.CampaignDraft && campaign.Status != domain.CampaignActive {
		return nil, domain.Conflict("requests can only be added to draft or active campaigns")
	}
	if len(inputs) == 0 {
		return nil, domain.Validation("at least one request is required", nil)
	}
	now := s.Clock().UTC()
	requests := make([]domain.Request, 0, len(inputs))
	for i, in := range inputs {
		req := domain.Request{
			ID:              s.NewID(),
			CampaignID:      campaignID,
			RecipientEmail:  strings.TrimSpace(in.RecipientEmail),
			RecipientName:   strings.TrimSpace(in.RecipientName),
			CCEmails:        in.CCEmails,
			DelegateEmail:   strings.TrimSpace(in.DelegateEmail),
			Deadline:        in.Deadline.UTC(),
			Status:          domain.RequestDraft,
			EscalationLevel: 1,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := validateRecipient(req.RecipientEmail, req.RecipientName, req.Deadline); err != nil {
			return nil, withIndex(err, i)
		}
		if len(in.Evidence) == 0 {
			return nil, domain.Validation("each request needs at least one evidence item", map[string]any{"index": i})
		}
		for _, ev := range in.Evidence {
			name := strings.TrimSpace(ev.Name)
			if name == "" {
				return nil, domain.Validation("evidence name is required", map[string]any{"index": i})
			}
			typ := ev.Type
			if typ == "" {
				typ = domain.EvidenceOther
			}
			if !typ.Valid() {
				return nil, domain.Validation("unknown evidence type", map[string]any{"index": i, "type": string(typ)})
			}
			req.Evidence = append(req.Evidence, domain.EvidenceItem{
				ID:           s.NewID(),
				RequestID:    req.ID,
				Name:         name,
				Type:         typ,
				IsMandatory:  ev.IsMandatory,
				Instructions: ev.Instructions,
				Status:       domain.EvidencePending,
				CreatedAt:    now,
				UpdatedAt:    now,
			})
		}
		requests = append(requests, req)
	}
	if err := s.Requests.CreateWithEvidence(ctx, requests); err != nil {
		return nil, err
	}
	for _, req := range requests {
		recordAudit(ctx, s.Audit, domain.AuditEntry{
			EntityType: domain.AuditEntityRequest,
			EntityID:   req.ID,
			Action:     domain.AuditRequestCreated,
			Actor:      actor.Label(),
			ActorIP:    actor.IP,
			CampaignID: campaignID,
			Details: map[string]any{
				"recipient_email": req.RecipientEmail,
				"evidence_count":  len(req.Evidence),
			},
		})
	}
	return requests, nil
}

// CheckCompletion completes an ACTIVE campaign with no open requests left.
func (s *CampaignService) CheckCompletion(ctx context.Context, campaignID string) (bool, error) {
	open, err := s.Requests.CountOpenByCampaign(ctx, campaignID)
	if err != nil {
		return false, err
	}
	if open > 0 {
		return false, nil
	}
	ok, err := s.Campaigns.TransitionStatus(ctx, campaignID, []domain.CampaignStatus{domain.CampaignActive}, domain.CampaignCompleted, s.Clock().UTC())
	if err != nil || !ok {
		return false, err
	}
	recordAudit(ctx, s.Audit, domain.AuditEntry{
		EntityType: domain.AuditEntityCampaign,
		EntityID:   campaignID,
		Action:     domain.AuditCampaignCompleted,
		Actor:      domain.AuditSystemActor,
		CampaignID: campaignID,
	})
	return true, nil
}

// CheckAccess enforces campaign ownership for principals whose only role is OWNER.
func (s *CampaignService) CheckAccess(ctx context.Context, principal domain.Principal, campaignID string) error {
	campaign, err := s.Campaigns.Get(ctx, campaignID)
	if err != nil {
		return err
	}
	return CanAccessCampaign(principal, campaign)
}

func CanAccessCampaign(principal domain.Principal, campaign domain.Campaign) error {
	if !restrictedToOwn(principal) || campaign.OwnedBy(principal.Subject) {
		return nil
	}
	return &domain.AuthzError{Code: domain.AuthzNotCampaignOwner, Err: domain.ErrForbidden}
}

func restrictedToOwn(principal domain.Principal) bool {
	return principal.HasRole(domain.RoleOwner) && !principal.HasRole(domain.RoleAdmin) && !principal.HasRole(domain.RoleViewer)
}

func validateCampaign(c domain.Campaign) error {
	if c.Name == "" {
		return domain.Validation("name is required", nil)
	}
	if c.ControlCode == "" {
		return domain.Validation("control_code is required", nil)
	}
	if c.OwnerUserID == "" {
		return domain.Validation("owner_user_id is required", nil)
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return domain.Validation("start_date and end_date are required", nil)
	}
	if c.EndDate.Before(c.StartDate) {
		return domain.Validation("end_date must not be before start_date", nil)
	}
	if err := c.ReminderPolicy.Validate(); err != nil {
		return err
	}
	return c.EscalationPolicy.Validate()
}

func withIndex(err error, index int) error {
	derr, ok := domain.AsError(err)
	if !ok {
		return err
	}
	details := map[string]any{"index": index}
	for k, v := range derr.Details {
		details[k] = v
	}
	return &domain.Error{Err: derr.Err, Message: derr.Message, Details: details}
}
