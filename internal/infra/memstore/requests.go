package memstore

import (
	"context"
	"time"

	"docrequest/internal/domain"
	"docrequest/internal/usecase"
)

type RequestRepository struct {
	s *Store
}

func (r *RequestRepository) CreateWithEvidence(_ context.Context, requests []domain.Request) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, req := range requests {
		if _, ok := r.s.campaigns[req.CampaignID]; !ok {
			return domain.NotFound("campaign")
		}
	}
	for _, req := range requests {
		items := req.Evidence
		req.Evidence = nil
		req.CCEmails = append([]string(nil), req.CCEmails...)
		r.s.requests[req.ID] = req
		r.s.requestOrder = append(r.s.requestOrder, req.ID)
		for _, item := range items {
			r.s.evidence[item.ID] = item
			r.s.evidenceOrder[req.ID] = append(r.s.evidenceOrder[req.ID], item.ID)
		}
	}
	return nil
}

func (r *RequestRepository) Get(_ context.Context, id string) (domain.Request, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	req, ok := r.s.requests[id]
	if !ok {
		return domain.Request{}, domain.NotFound("request")
	}
	return r.withEvidence(req), nil
}

func (r *RequestRepository) List(_ context.Context, filter usecase.RequestFilter) ([]domain.Request, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.Request, 0)
	for _, id := range r.s.requestOrder {
		req := r.s.requests[id]
		if filter.CampaignID != "" && req.CampaignID != filter.CampaignID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, req.Status) {
			continue
		}
		out = append(out, r.withEvidence(req))
	}
	return out, nil
}

func (r *RequestRepository) CountByCampaign(_ context.Context, campaignID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, req := range r.s.requests {
		if req.CampaignID == campaignID {
			n++
		}
	}
	return n, nil
}

func (r *RequestRepository) CountOpenByCampaign(_ context.Context, campaignID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, req := range r.s.requests {
		if req.CampaignID == campaignID && req.Status != domain.RequestClosed {
			n++
		}
	}
	return n, nil
}

func (r *RequestRepository) UpdateRecipient(_ context.Context, req domain.Request) (bool, error) {
	return r.update(req.ID, []domain.RequestStatus{domain.RequestDraft}, func(cur *domain.Request) {
		cur.RecipientEmail = req.RecipientEmail
		cur.RecipientName = req.RecipientName
		cur.CCEmails = append([]string(nil), req.CCEmails...)
		cur.DelegateEmail = req.DelegateEmail
		cur.Deadline = req.Deadline
		cur.UpdatedAt = req.UpdatedAt
	})
}

func (r *RequestRepository) MarkSent(_ context.Context, id string, tokenHash string, expiresAt time.Time, at time.Time) (bool, error) {
	return r.update(id, []domain.RequestStatus{domain.RequestDraft}, func(cur *domain.Request) {
		cur.Status = domain.RequestSent
		cur.TokenHash = tokenHash
		exp := expiresAt
		cur.TokenExpiresAt = &exp
		cur.UpdatedAt = at
	})
}

func (r *RequestRepository) TransitionStatus(_ context.Context, id string, from []domain.RequestStatus, to domain.RequestStatus, at time.Time) (bool, error) {
	return r.update(id, from, func(cur *domain.Request) {
		cur.Status = to
		cur.UpdatedAt = at
	})
}

func (r *RequestRepository) MarkClosed(_ context.Context, id string, at time.Time) (bool, error) {
	open := []domain.RequestStatus{
		domain.RequestSent, domain.RequestInProgress, domain.RequestPartial,
		domain.RequestSubmitted, domain.RequestReadyToClose, domain.RequestOverdue,
	}
	return r.update(id, open, func(cur *domain.Request) {
		closedAt := at
		cur.Status = domain.RequestClosed
		cur.ClosedAt = &closedAt
		cur.UpdatedAt = at
	})
}

func (r *RequestRepository) MarkOverdue(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, req := range r.s.requests {
		if req.Deadline.Before(now) && containsStatus(domain.OverdueEligible, req.Status) {
			req.Status = domain.RequestOverdue
			req.UpdatedAt = now
			r.s.requests[id] = req
			n++
		}
	}
	return n, nil
}

func (r *RequestRepository) RecordReminder(_ context.Context, id string, level int, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return domain.NotFound("request")
	}
	sent := at
	req.ReminderCount++
	req.LastReminderAt = &sent
	req.EscalationLevel = level
	req.UpdatedAt = at
	r.s.requests[id] = req
	return nil
}

func (r *RequestRepository) update(id string, from []domain.RequestStatus, apply func(*domain.Request)) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return false, domain.NotFound("request")
	}
	if !containsStatus(from, req.Status) {
		return false, nil
	}
	apply(&req)
	r.s.requests[id] = req
	return true, nil
}

// withEvidence must be called with the lock held.
func (r *RequestRepository) withEvidence(req domain.Request) domain.Request {
	ids := r.s.evidenceOrder[req.ID]
	req.Evidence = make([]domain.EvidenceItem, 0, len(ids))
	for _, id := range ids {
		req.Evidence = append(req.Evidence, r.s.evidence[id])
	}
	req.CCEmails = append([]string(nil), req.CCEmails...)
	return req
}

var _ usecase.RequestRepository = (*RequestRepository)(nil)
