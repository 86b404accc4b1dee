package memstore

import (
	"context"
	"sort"
	"time"

	"docrequest/internal/domain"
	"docrequest/internal/usecase"
)

type CampaignRepository struct {
	s *Store
}

func (r *CampaignRepository) Create(_ context.Context, campaign domain.Campaign) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.campaigns {
		if existing.ControlCode == campaign.ControlCode {
			return domain.Conflict("control_code already exists")
		}
	}
	r.s.campaigns[campaign.ID] = campaign
	return nil
}

func (r *CampaignRepository) Get(_ context.Context, id string) (domain.Campaign, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.campaigns[id]
	if !ok {
		return domain.Campaign{}, domain.NotFound("campaign")
	}
	return c, nil
}

func (r *CampaignRepository) List(_ context.Context, filter usecase.CampaignFilter) ([]domain.Campaign, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.Campaign, 0, len(r.s.campaigns))
	for _, c := range r.s.campaigns {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.AccessibleBy != "" && !c.OwnedBy(filter.AccessibleBy) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *CampaignRepository) UpdateDraft(_ context.Context, campaign domain.Campaign) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.campaigns[campaign.ID]
	if !ok {
		return false, domain.NotFound("campaign")
	}
	if current.Status != domain.CampaignDraft {
		return false, nil
	}
	campaign.Status = current.Status
	campaign.ControlCode = current.ControlCode
	campaign.CreatedAt = current.CreatedAt
	r.s.campaigns[campaign.ID] = campaign
	return true, nil
}

func (r *CampaignRepository) TransitionStatus(_ context.Context, id string, from []domain.CampaignStatus, to domain.CampaignStatus, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.campaigns[id]
	if !ok || !containsStatus(from, c.Status) {
		return false, nil
	}
	c.Status = to
	c.UpdatedAt = at
	r.s.campaigns[id] = c
	return true, nil
}

var _ usecase.CampaignRepository = (*CampaignRepository)(nil)
