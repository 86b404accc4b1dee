package db

import (
	"context"
	"encoding/json"
	"time"

	"docrequest/internal/domain"
	"docrequest/internal/usecase"

	"gorm.io/gorm"
)

type CampaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

func (r *CampaignRepository) Create(ctx context.Context, campaign domain.Campaign) error {
	if r.db == nil {
		return errDBUnavailable
	}
	model, err := campaignModelFromDomain(campaign)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Omit("Owner", "Backup").Create(&model).Error; err != nil {
		return translateError(err, "campaign")
	}
	return nil
}

func (r *CampaignRepository) Get(ctx context.Context, id string) (domain.Campaign, error) {
	if r.db == nil {
		return domain.Campaign{}, errDBUnavailable
	}
	var model CampaignModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return domain.Campaign{}, translateError(err, "campaign")
	}
	return campaignFromModel(model)
}

func (r *CampaignRepository) List(ctx context.Context, filter usecase.CampaignFilter) ([]domain.Campaign, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	q := r.db.WithContext(ctx).Model(&CampaignModel{})
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.AccessibleBy != "" {
		q = q.Where("owner_user_id = ? OR backup_user_id = ?", filter.AccessibleBy, filter.AccessibleBy)
	}
	var models []CampaignModel
	if err := q.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Campaign, 0, len(models))
	for _, model := range models {
		c, err := campaignFromModel(model)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *CampaignRepository) UpdateDraft(ctx context.Context, campaign domain.Campaign) (bool, error) {
	if r.db == nil {
		return false, errDBUnavailable
	}
	escalation, err := json.Marshal(campaign.EscalationPolicy)
	if err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).Model(&CampaignModel{}).
		Where("id = ? AND status = ?", campaign.ID, string(domain.CampaignDraft)).
		Updates(map[string]any{
			"name":                      campaign.Name,
			"description":               campaign.Description,
			"backup_user_id":            stringPtrIfNotEmpty(campaign.BackupUserID),
			"start_date":                campaign.StartDate.UTC(),
			"end_date":                  campaign.EndDate.UTC(),
			"reminder_frequency_days":   campaign.ReminderPolicy.FrequencyDays,
			"reminder_max":              campaign.ReminderPolicy.MaxReminders,
			"reminder_start_after_days": campaign.ReminderPolicy.StartAfterDays,
			"escalation_policy":         escalation,
			"email_template":            campaign.EmailTemplate,
			"updated_at":                campaign.UpdatedAt.UTC(),
		})
	if res.Error != nil {
		return false, translateError(res.Error, "campaign")
	}
	return res.RowsAffected == 1, nil
}

func (r *CampaignRepository) TransitionStatus(ctx context.Context, id string, from []domain.CampaignStatus, to domain.CampaignStatus, at time.Time) (bool, error) {
	if r.db == nil {
		return false, errDBUnavailable
	}
	res := r.db.WithContext(ctx).Model(&CampaignModel{}).
		Where("id = ? AND status IN ?", id, stringsOf(from)).
		Updates(map[string]any{"status": string(to), "updated_at": at.UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func campaignModelFromDomain(c domain.Campaign) (CampaignModel, error) {
	escalation, err := json.Marshal(c.EscalationPolicy)
	if err != nil {
		return CampaignModel{}, err
	}
	return CampaignModel{
		ID:                     c.ID,
		Name:                   c.Name,
		ControlCode:            c.ControlCode,
		Description:            c.Description,
		OwnerUserID:            c.OwnerUserID,
		BackupUserID:           stringPtrIfNotEmpty(c.BackupUserID),
		StartDate:              c.StartDate.UTC(),
		EndDate:                c.EndDate.UTC(),
		ReminderFrequencyDays:  c.ReminderPolicy.FrequencyDays,
		ReminderMax:            c.ReminderPolicy.MaxReminders,
		ReminderStartAfterDays: c.ReminderPolicy.StartAfterDays,
		EscalationPolicyJSON:   escalation,
		EmailTemplate:          c.EmailTemplate,
		Status:                 string(c.Status),
		CreatedAt:              c.CreatedAt.UTC(),
		UpdatedAt:              c.UpdatedAt.UTC(),
	}, nil
}

func campaignFromModel(m CampaignModel) (domain.Campaign, error) {
	var escalation domain.EscalationPolicy
	if len(m.EscalationPolicyJSON) > 0 {
		if err := json.Unmarshal(m.EscalationPolicyJSON, &escalation); err != nil {
			return domain.Campaign{}, err
		}
	}
	return domain.Campaign{
		ID:           m.ID,
		Name:         m.Name,
		ControlCode:  m.ControlCode,
		Description:  m.Description,
		OwnerUserID:  m.OwnerUserID,
		BackupUserID: derefString(m.BackupUserID),
		StartDate:    m.StartDate.UTC(),
		EndDate:      m.EndDate.UTC(),
		ReminderPolicy: domain.ReminderPolicy{
			FrequencyDays:  m.ReminderFrequencyDays,
			MaxReminders:   m.ReminderMax,
			StartAfterDays: m.ReminderStartAfterDays,
		},
		EscalationPolicy: escalation,
		EmailTemplate:    m.EmailTemplate,
		Status:           domain.CampaignStatus(m.Status),
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
	}, nil
}

var _ usecase.CampaignRepository = (*CampaignRepository)(nil)
