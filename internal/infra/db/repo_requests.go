package db

import (
	"context"
	"encoding/json"
	"time"

	"docrequest/internal/domain"
	"docrequest/internal/usecase"

	"gorm.io/gorm"
)

type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) CreateWithEvidence(ctx context.Context, requests []domain.Request) error {
	if r.db == nil {
		return errDBUnavailable
	}
	models := make([]RequestModel, 0, len(requests))
	for _, req := range requests {
		model, err := requestModelFromDomain(req)
		if err != nil {
			return err
		}
		models = append(models, model)
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range models {
			evidence := models[i].Evidence
			models[i].Evidence = nil
			if err := tx.Omit("Campaign", "Evidence").Create(&models[i]).Error; err != nil {
				return err
			}
			if len(evidence) > 0 {
				if err := tx.Create(&evidence).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	return translateError(err, "request")
}

func (r *RequestRepository) Get(ctx context.Context, id string) (domain.Request, error) {
	if r.db == nil {
		return domain.Request{}, errDBUnavailable
	}
	var model RequestModel
	if err := r.withEvidence(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return domain.Request{}, translateError(err, "request")
	}
	return requestFromModel(model)
}

func (r *RequestRepository) List(ctx context.Context, filter usecase.RequestFilter) ([]domain.Request, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	q := r.withEvidence(ctx)
	if filter.CampaignID != "" {
		q = q.Where("campaign_id = ?", filter.CampaignID)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", stringsOf(filter.Statuses))
	}
	var models []RequestModel
	if err := q.Order("created_at ASC, id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Request, 0, len(models))
	for _, model := range models {
		req, err := requestFromModel(model)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, nil
}

func (r *RequestRepository) CountByCampaign(ctx context.Context, campaignID string) (int64, error) {
	if r.db == nil {
		return 0, errDBUnavailable
	}
	var n int64
	err := r.db.WithContext(ctx).Model(&RequestModel{}).Where("campaign_id = ?", campaignID).Count(&n).Error
	return n, err
}

func (r *RequestRepository) CountOpenByCampaign(ctx context.Context, campaignID string) (int64, error) {
	if r.db == nil {
		return 0, errDBUnavailable
	}
	var n int64
	err := r.db.WithContext(ctx).Model(&RequestModel{}).
		Where("campaign_id = ? AND status <> ?", campaignID, string(domain.RequestClosed)).
		Count(&n).Error
	return n, err
}

func (r *RequestRepository) UpdateRecipient(ctx context.Context, req domain.Request) (bool, error) {
	cc, err := marshalJSON(nonNilStrings(req.CCEmails))
	if err != nil {
		return false, err
	}
	return r.guardedUpdate(ctx, req.ID, []domain.RequestStatus{domain.RequestDraft}, map[string]any{
		"recipient_email": req.RecipientEmail,
		"recipient_name":  req.RecipientName,
		"cc_emails":       cc,
		"delegate_email":  stringPtrIfNotEmpty(req.DelegateEmail),
		"deadline":        req.Deadline.UTC(),
		"updated_at":      req.UpdatedAt.UTC(),
	})
}

func (r *RequestRepository) MarkSent(ctx context.Context, id string, tokenHash string, expiresAt time.Time, at time.Time) (bool, error) {
	return r.guardedUpdate(ctx, id, []domain.RequestStatus{domain.RequestDraft}, map[string]any{
		"status":           string(domain.RequestSent),
		"token_hash":       tokenHash,
		"token_expires_at": expiresAt.UTC(),
		"updated_at":       at.UTC(),
	})
}

func (r *RequestRepository) TransitionStatus(ctx context.Context, id string, from []domain.RequestStatus, to domain.RequestStatus, at time.Time) (bool, error) {
	return r.guardedUpdate(ctx, id, from, map[string]any{
		"status":     string(to),
		"updated_at": at.UTC(),
	})
}

func (r *RequestRepository) MarkClosed(ctx context.Context, id string, at time.Time) (bool, error) {
	if r.db == nil {
		return false, errDBUnavailable
	}
	res := r.db.WithContext(ctx).Model(&RequestModel{}).
		Where("id = ? AND status IN ?", id, stringsOf(closableStatuses)).
		Updates(map[string]any{
			"status":     string(domain.RequestClosed),
			"closed_at":  at.UTC(),
			"updated_at": at.UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkOverdue is one UPDATE; rerunning it with the same now changes nothing.
func (r *RequestRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	if r.db == nil {
		return 0, errDBUnavailable
	}
	res := r.db.WithContext(ctx).Model(&RequestModel{}).
		Where("deadline < ? AND status IN ?", now.UTC(), stringsOf(domain.OverdueEligible)).
		Updates(map[string]any{
			"status":     string(domain.RequestOverdue),
			"updated_at": now.UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *RequestRepository) RecordReminder(ctx context.Context, id string, level int, at time.Time) error {
	if r.db == nil {
		return errDBUnavailable
	}
	res := r.db.WithContext(ctx).Model(&RequestModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"reminder_count":   gorm.Expr("reminder_count + 1"),
			"last_reminder_at": at.UTC(),
			"escalation_level": level,
			"updated_at":       at.UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("request")
	}
	return nil
}

func (r *RequestRepository) guardedUpdate(ctx context.Context, id string, from []domain.RequestStatus, values map[string]any) (bool, error) {
	if r.db == nil {
		return false, errDBUnavailable
	}
	res := r.db.WithContext(ctx).Model(&RequestModel{}).
		Where("id = ? AND status IN ?", id, stringsOf(from)).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *RequestRepository) withEvidence(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Evidence", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, id ASC")
	})
}

func requestModelFromDomain(req domain.Request) (RequestModel, error) {
	cc, err := marshalJSON(nonNilStrings(req.CCEmails))
	if err != nil {
		return RequestModel{}, err
	}
	level := req.EscalationLevel
	if level < 1 {
		level = 1
	}
	model := RequestModel{
		ID:              req.ID,
		CampaignID:      req.CampaignID,
		RecipientEmail:  req.RecipientEmail,
		RecipientName:   req.RecipientName,
		CCEmailsJSON:    cc,
		DelegateEmail:   stringPtrIfNotEmpty(req.DelegateEmail),
		Deadline:        req.Deadline.UTC(),
		Status:          string(req.Status),
		ReminderCount:   req.ReminderCount,
		EscalationLevel: level,
		LastReminderAt:  utcPtr(req.LastReminderAt),
		TokenHash:       stringPtrIfNotEmpty(req.TokenHash),
		TokenExpiresAt:  utcPtr(req.TokenExpiresAt),
		CreatedAt:       req.CreatedAt.UTC(),
		UpdatedAt:       req.UpdatedAt.UTC(),
		ClosedAt:        utcPtr(req.ClosedAt),
	}
	for _, item := range req.Evidence {
		model.Evidence = append(model.Evidence, evidenceModelFromDomain(item))
	}
	return model, nil
}

func requestFromModel(m RequestModel) (domain.Request, error) {
	var cc []string
	if len(m.CCEmailsJSON) > 0 {
		if err := json.Unmarshal(m.CCEmailsJSON, &cc); err != nil {
			return domain.Request{}, err
		}
	}
	req := domain.Request{
		ID:              m.ID,
		CampaignID:      m.CampaignID,
		RecipientEmail:  m.RecipientEmail,
		RecipientName:   m.RecipientName,
		CCEmails:        cc,
		DelegateEmail:   derefString(m.DelegateEmail),
		Deadline:        m.Deadline.UTC(),
		Status:          domain.RequestStatus(m.Status),
		ReminderCount:   m.ReminderCount,
		EscalationLevel: m.EscalationLevel,
		LastReminderAt:  utcPtr(m.LastReminderAt),
		TokenHash:       derefString(m.TokenHash),
		TokenExpiresAt:  utcPtr(m.TokenExpiresAt),
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
		ClosedAt:        utcPtr(m.ClosedAt),
		Evidence:        make([]domain.EvidenceItem, 0, len(m.Evidence)),
	}
	for _, item := range m.Evidence {
		req.Evidence = append(req.Evidence, evidenceFromModel(item))
	}
	return req, nil
}

var closableStatuses = []domain.RequestStatus{
	domain.RequestSent, domain.RequestInProgress, domain.RequestPartial,
	domain.RequestSubmitted, domain.RequestReadyToClose, domain.RequestOverdue,
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

var _ usecase.RequestRepository = (*RequestRepository)(nil)
