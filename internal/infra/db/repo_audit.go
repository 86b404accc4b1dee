package db

import (
	"context"
	"encoding/json"

	"docrequest/internal/domain"
	"docrequest/internal/usecase"

	"gorm.io/gorm"
)

// AuditRepository is append-only; there is no update or delete path.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, entry domain.AuditEntry) error {
	if r.db == nil {
		return errDBUnavailable
	}
	var details []byte
	if len(entry.Details) > 0 {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			return err
		}
		details = raw
	}
	model := AuditLogModel{
		ID:          entry.ID,
		EntityType:  string(entry.EntityType),
		EntityID:    entry.EntityID,
		Action:      string(entry.Action),
		Actor:       entry.Actor,
		ActorIP:     stringPtrIfNotEmpty(entry.ActorIP),
		DetailsJSON: details,
		CampaignID:  stringPtrIfNotEmpty(entry.CampaignID),
		CreatedAt:   entry.CreatedAt.UTC(),
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *AuditRepository) List(ctx context.Context, filter usecase.AuditFilter) ([]domain.AuditEntry, int64, error) {
	if r.db == nil {
		return nil, 0, errDBUnavailable
	}
	q := r.db.WithContext(ctx).Model(&AuditLogModel{})
	if filter.EntityType != "" {
		q = q.Where("entity_type = ?", string(filter.EntityType))
	}
	if filter.EntityID != "" {
		q = q.Where("entity_id = ?", filter.EntityID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", string(filter.Action))
	}
	if filter.CampaignID != "" {
		q = q.Where("campaign_id = ?", filter.CampaignID)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		q = q.Where("created_at <= ?", filter.To.UTC())
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q = q.Order("created_at DESC, id DESC")
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		q = q.Offset((page - 1) * filter.Limit).Limit(filter.Limit)
	}
	var models []AuditLogModel
	if err := q.Find(&models).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.AuditEntry, 0, len(models))
	for _, m := range models {
		entry := domain.AuditEntry{
			ID:         m.ID,
			EntityType: domain.AuditEntityType(m.EntityType),
			EntityID:   m.EntityID,
			Action:     domain.AuditAction(m.Action),
			Actor:      m.Actor,
			ActorIP:    derefString(m.ActorIP),
			CampaignID: derefString(m.CampaignID),
			CreatedAt:  m.CreatedAt.UTC(),
		}
		if len(m.DetailsJSON) > 0 {
			if err := json.Unmarshal(m.DetailsJSON, &entry.Details); err != nil {
				return nil, 0, err
			}
		}
		out = append(out, entry)
	}
	return out, total, nil
}

var _ usecase.AuditRepository = (*AuditRepository)(nil)
