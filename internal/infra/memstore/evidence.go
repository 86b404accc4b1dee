package memstore

import (
	"context"
	"time"

	"docrequest/internal/domain"
	"docrequest/internal/usecase"
)

type EvidenceRepository struct {
	s *Store
}

func (r *EvidenceRepository) Get(_ context.Context, id string) (domain.EvidenceItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	item, ok := r.s.evidence[id]
	if !ok {
		return domain.EvidenceItem{}, domain.NotFound("evidence")
	}
	return item, nil
}

func (r *EvidenceRepository) ListByRequest(_ context.Context, requestID string) ([]domain.EvidenceItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if _, ok := r.s.requests[requestID]; !ok {
		return nil, domain.NotFound("request")
	}
	ids := r.s.evidenceOrder[requestID]
	out := make([]domain.EvidenceItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.s.evidence[id])
	}
	return out, nil
}

func (r *EvidenceRepository) UpdateIfStatus(_ context.Context, item domain.EvidenceItem, from []domain.EvidenceStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.evidence[item.ID]
	if !ok {
		return false, domain.NotFound("evidence")
	}
	if !containsStatus(from, current.Status) {
		return false, nil
	}
	item.RequestID = current.RequestID
	item.CreatedAt = current.CreatedAt
	r.s.evidence[item.ID] = item
	return true, nil
}

func (r *EvidenceRepository) SetArchive(_ context.Context, id string, path string, url string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.evidence[id]
	if !ok {
		return domain.NotFound("evidence")
	}
	item.ArchivePath = path
	item.ArchiveURL = url
	item.UpdatedAt = at
	r.s.evidence[id] = item
	return nil
}

var _ usecase.EvidenceRepository = (*EvidenceRepository)(nil)
