package usecase_test

import (
	"testing"
	"time"

	"docrequest/internal/domain"
	"docrequest/internal/usecase"
)

func TestRecordFillsDefaults(t *testing.T) {
	f := newFixture(t)
	f.audit.Record(f.ctx, domain.AuditEntry{EntityType: domain.AuditEntityRequest, EntityID: "r-1", Action: domain.AuditRequestCreated})
	entries := f.store.Audit().Entries()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	e := entries[0]
	if e.ID == "" || !e.CreatedAt.Equal(f.now) || e.Actor != domain.AuditSystemActor {
		t.Fatalf("unexpected entry %+v", e)
	}
}

func TestRecordOnNilRecorderIsNoop(t *testing.T) {
	var rec *usecase.AuditRecorder
	rec.Record(t.Context(), domain.AuditEntry{Action: domain.AuditRequestCreated})
}

func TestListPagesNewestFirst(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.audit.Record(f.ctx, domain.AuditEntry{
			EntityType: domain.AuditEntityRequest,
			EntityID:   "r-1",
			Action:     domain.AuditRequestReminderSent,
			Details:    map[string]any{"n": i},
		})
		f.advance(time.Minute)
	}
	f.audit.Record(f.ctx, domain.AuditEntry{EntityType: domain.AuditEntityCampaign, EntityID: "c-1", Action: domain.AuditCampaignCreated})

	page, err := f.audit.List(f.ctx, usecase.AuditFilter{Action: domain.AuditRequestReminderSent, Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 5 || page.TotalPages != 3 || len(page.Items) != 2 {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.Items[0].Details["n"] != 2 {
		t.Fatalf("expected newest first ordering, got %+v", page.Items[0].Details)
	}

	page, err = f.audit.List(f.ctx, usecase.AuditFilter{Limit: 1000})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Limit != 200 || page.Page != 1 {
		t.Fatalf("expected clamped paging, got page=%d limit=%d", page.Page, page.Limit)
	}
}

func TestListRejectsInvertedRange(t *testing.T) {
	f := newFixture(t)
	from := f.now
	to := f.now.Add(-time.Hour)
	_, err := f.audit.List(f.ctx, usecase.AuditFilter{From: &from, To: &to})
	expectKind(t, err, domain.ErrValidation)
}
