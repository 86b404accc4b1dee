package memstore

import (
	"context"

	"docrequest/internal/domain"
	"docrequest/internal/usecase"
)

type AuditRepository struct {
	s *Store
}

func (r *AuditRepository) Append(_ context.Context, entry domain.AuditEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audit = append(r.s.audit, entry)
	return nil
}

// List returns matching entries newest first, paged.
func (r *AuditRepository) List(_ context.Context, filter usecase.AuditFilter) ([]domain.AuditEntry, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	matched := make([]domain.AuditEntry, 0)
	for i := len(r.s.audit) - 1; i >= 0; i-- {
		e := r.s.audit[i]
		if filter.EntityType != "" && e.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != "" && e.EntityID != filter.EntityID {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if filter.CampaignID != "" && e.CampaignID != filter.CampaignID {
			continue
		}
		if filter.From != nil && e.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.CreatedAt.After(*filter.To) {
			continue
		}
		matched = append(matched, e)
	}
	total := int64(len(matched))
	if filter.Limit <= 0 {
		return matched, total, nil
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * filter.Limit
	if start >= len(matched) {
		return []domain.AuditEntry{}, total, nil
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// Entries returns a copy of every entry in append order.
func (r *AuditRepository) Entries() []domain.AuditEntry {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]domain.AuditEntry(nil), r.s.audit...)
}

var _ usecase.AuditRepository = (*AuditRepository)(nil)
