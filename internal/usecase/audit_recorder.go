package usecase

import (
	"context"
	"log"
	"math"
	"time"

	"docrequest/internal/domain"

	"github.com/google/uuid"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 200
)

type AuditRecorder struct {
	Repo  AuditRepository
	Clock Clock
}

type AuditPage struct {
	Items      []domain.AuditEntry
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

func NewAuditRecorder(repo AuditRepository, clock Clock) *AuditRecorder {
	if clock == nil {
		clock = time.Now
	}
	return &AuditRecorder{Repo: repo, Clock: clock}
}

// Record appends entry. Failures are logged and never reach the caller.
func (r *AuditRecorder) Record(ctx context.Context, entry domain.AuditEntry) {
	if r == nil || r.Repo == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()
	if entry.Actor == "" {
		entry.Actor = domain.AuditSystemActor
	}
	if err := r.Repo.Append(ctx, entry); err != nil {
		log.Printf("audit append failed: entity=%s id=%s action=%s: %v", entry.EntityType, entry.EntityID, entry.Action, err)
	}
}

func (r *AuditRecorder) List(ctx context.Context, filter AuditFilter) (AuditPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultAuditPageSize
	}
	if filter.Limit > maxAuditPageSize {
		filter.Limit = maxAuditPageSize
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return AuditPage{}, domain.Validation("date_to must not be before date_from", nil)
	}
	items, total, err := r.Repo.List(ctx, filter)
	if err != nil {
		return AuditPage{}, err
	}
	return AuditPage{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

func (r *AuditRecorder) now() time.Time {
	if r != nil && r.Clock != nil {
		return r.Clock()
	}
	return time.Now()
}

func recordAudit(ctx context.Context, sink AuditSink, entry domain.AuditEntry) {
	if sink == nil {
		return
	}
	sink.Record(ctx, entry)
}
