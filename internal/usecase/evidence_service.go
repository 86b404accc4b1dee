package usecase

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"docrequest/internal/domain"
)

type EvidenceService struct {
	Evidence EvidenceRepository
	Requests RequestStatusSink
	Audit    AuditSink
	Clock    Clock
}

type RejectInput struct {
	EvidenceID string
	Reason     string
	Actor      Actor
}

func NewEvidenceService(evidence EvidenceRepository, requests RequestStatusSink, audit AuditSink) *EvidenceService {
	return &EvidenceService{
		Evidence: evidence,
		Requests: requests,
		Audit:    audit,
		Clock:    time.Now,
	}
}

func (s *EvidenceService) Get(ctx context.Context, evidenceID string) (domain.EvidenceItem, error) {
	return s.Evidence.Get(ctx, evidenceID)
}

// ListByRequest returns mandatory items first, then by name.
func (s *EvidenceService) ListByRequest(ctx context.Context, requestID string) ([]domain.EvidenceItem, error) {
	items, err := s.Evidence.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].IsMandatory != items[j].IsMandatory {
			return items[i].IsMandatory
		}
		return items[i].Name < items[j].Name
	})
	return items, nil
}

func (s *EvidenceService) Validate(ctx context.Context, evidenceID string, actor Actor) (domain.EvidenceItem, error) {
	item, err := s.Evidence.Get(ctx, evidenceID)
	if err != nil {
		return domain.EvidenceItem{}, err
	}
	if item.Status != domain.EvidenceSubmitted {
		return domain.EvidenceItem{}, domain.Conflict("only submitted evidence can be validated")
	}
	now := s.Clock().UTC()
	item.Status = domain.EvidenceValidated
	item.RejectionReason = ""
	item.ValidatedBy = actor.Label()
	item.ValidatedAt = &now
	item.UpdatedAt = now
	ok, err := s.Evidence.UpdateIfStatus(ctx, item, []domain.EvidenceStatus{domain.EvidenceSubmitted})
	if err != nil {
		return domain.EvidenceItem{}, err
	}
	if !ok {
		return domain.EvidenceItem{}, domain.Conflict("only submitted evidence can be validated")
	}
	recordAudit(ctx, s.Audit, domain.AuditEntry{
		EntityType: domain.AuditEntityEvidence,
		EntityID:   item.ID,
		Action:     domain.AuditEvidenceValidated,
		Actor:      actor.Label(),
		ActorIP:    actor.IP,
		Details:    map[string]any{"request_id": item.RequestID},
	})
	if s.Requests != nil {
		if err := s.Requests.OnEvidenceValidated(ctx, item.RequestID); err != nil {
			return item, err
		}
	}
	return item, nil
}

func (s *EvidenceService) Reject(ctx context.Context, input RejectInput) (domain.EvidenceItem, error) {
	reason := strings.TrimSpace(input.Reason)
	if len([]rune(reason)) < domain.MinRejectionReasonLen {
		return domain.EvidenceItem{}, domain.Validation("rejection reason must be at least 5 characters", nil)
	}
	item, err := s.Evidence.Get(ctx, input.EvidenceID)
	if err != nil {
		return domain.EvidenceItem{}, err
	}
	if item.Status != domain.EvidenceSubmitted {
		return domain.EvidenceItem{}, domain.Conflict("only submitted evidence can be rejected")
	}
	now := s.Clock().UTC()
	item.Status = domain.EvidenceRejected
	item.RejectionReason = reason
	item.ValidatedBy = input.Actor.Label()
	item.ValidatedAt = &now
	item.UpdatedAt = now
	ok, err := s.Evidence.UpdateIfStatus(ctx, item, []domain.EvidenceStatus{domain.EvidenceSubmitted})
	if err != nil {
		return domain.EvidenceItem{}, err
	}
	if !ok {
		return domain.EvidenceItem{}, domain.Conflict("only submitted evidence can be rejected")
	}
	recordAudit(ctx, s.Audit, domain.AuditEntry{
		EntityType: domain.AuditEntityEvidence,
		EntityID:   item.ID,
		Action:     domain.AuditEvidenceRejected,
		Actor:      input.Actor.Label(),
		ActorIP:    input.Actor.IP,
		Details:    map[string]any{"request_id": item.RequestID, "reason": reason},
	})
	if s.Requests != nil {
		if err := s.Requests.OnEvidenceRejected(ctx, item.RequestID); err != nil {
			return item, err
		}
	}
	return item, nil
}

// Subsanation reopens a rejected item for resubmission.
func (s *EvidenceService) Subsanation(ctx context.Context, evidenceID string, actor Actor) (domain.EvidenceItem, error) {
	item, err := s.Evidence.Get(ctx, evidenceID)
	if err != nil {
		return domain.EvidenceItem{}, err
	}
	if item.Status != domain.EvidenceRejected {
		return domain.EvidenceItem{}, domain.Conflict("only rejected evidence can be reopened")
	}
	item.Status = domain.EvidencePending
	item.RejectionReason = ""
	item.ValidatedBy = ""
	item.ValidatedAt = nil
	item.UpdatedAt = s.Clock().UTC()
	ok, err := s.Evidence.UpdateIfStatus(ctx, item, []domain.EvidenceStatus{domain.EvidenceRejected})
	if err != nil {
		return domain.EvidenceItem{}, err
	}
	if !ok {
		return domain.EvidenceItem{}, domain.Conflict("only rejected evidence can be reopened")
	}
	recordAudit(ctx, s.Audit, domain.AuditEntry{
		EntityType: domain.AuditEntityEvidence,
		EntityID:   item.ID,
		Action:     domain.AuditEvidenceSubsanation,
		Actor:      actor.Label(),
		ActorIP:    actor.IP,
		Details:    map[string]any{"request_id": item.RequestID},
	})
	return item, nil
}

func (s *EvidenceService) RecordArchive(ctx context.Context, evidenceID, path, url string) error {
	if err := s.Evidence.SetArchive(ctx, evidenceID, path, url, s.Clock().UTC()); err != nil {
		log.Printf("record archive on evidence %s failed: %v", evidenceID, err)
		return err
	}
	return nil
}
