package usecase

import (
	"context"
	"math"
	"time"

	"docrequest/internal/domain"
)

const day = 24 * time.Hour

type PendingReminder struct {
	RequestID       string
	CampaignID      string
	ControlCode     string
	RecipientEmail  string
	RecipientName   string
	CCEmails        []string
	DelegateEmail   string
	Deadline        time.Time
	ReminderCount   int
	EscalationLevel domain.EscalationLevel
	Evidence        []domain.EvidenceItem
}

type ReminderScheduler struct {
	Requests  RequestRepository
	Campaigns CampaignReader
	Audit     AuditSink
	Clock     Clock
}

func NewReminderScheduler(requests RequestRepository, campaigns CampaignReader, audit AuditSink) *ReminderScheduler {
	return &ReminderScheduler{
		Requests:  requests,
		Campaigns: campaigns,
		Audit:     audit,
		Clock:     time.Now,
	}
}

// PendingReminders lists the requests due for a reminder now. It has no side effects.
func (s *ReminderScheduler) PendingReminders(ctx context.Context) ([]PendingReminder, error) {
	requests, err := s.Requests.List(ctx, RequestFilter{Statuses: domain.ReminderEligible})
	if err != nil {
		return nil, err
	}
	now := s.Clock()
	campaigns := make(map[string]domain.Campaign)
	out := make([]PendingReminder, 0)
	for _, req := range requests {
		campaign, ok := campaigns[req.CampaignID]
		if !ok {
			campaign, err = s.Campaigns.Get(ctx, req.CampaignID)
			if err != nil {
				return nil, err
			}
			campaigns[req.CampaignID] = campaign
		}
		if reminder, due := EvaluateReminder(req, campaign, now); due {
			out = append(out, reminder)
		}
	}
	return out, nil
}

// EvaluateReminder applies the reminder policy of campaign to req at now.
func EvaluateReminder(req domain.Request, campaign domain.Campaign, now time.Time) (PendingReminder, bool) {
	if !reminderEligible(req.Status) {
		return PendingReminder{}, false
	}
	policy := campaign.ReminderPolicy
	if policy.FrequencyDays <= 0 {
		policy = domain.DefaultReminderPolicy()
	}
	if req.ReminderCount >= policy.MaxReminders {
		return PendingReminder{}, false
	}
	reference := req.CreatedAt
	if req.LastReminderAt != nil {
		reference = *req.LastReminderAt
	}
	// Whole days, floored so a reference in the future never counts as elapsed.
	elapsedDays := int(math.Floor(float64(now.Sub(reference)) / float64(day)))
	if req.ReminderCount == 0 && elapsedDays < policy.StartAfterDays {
		return PendingReminder{}, false
	}
	if req.ReminderCount > 0 && elapsedDays < policy.FrequencyDays {
		return PendingReminder{}, false
	}
	return PendingReminder{
		RequestID:       req.ID,
		CampaignID:      req.CampaignID,
		ControlCode:     campaign.ControlCode,
		RecipientEmail:  req.RecipientEmail,
		RecipientName:   req.RecipientName,
		CCEmails:        req.CCEmails,
		DelegateEmail:   req.DelegateEmail,
		Deadline:        req.Deadline,
		ReminderCount:   req.ReminderCount,
		EscalationLevel: campaign.EscalationPolicy.LevelFor(req.ReminderCount),
		Evidence:        req.Evidence,
	}, true
}

// RecordReminderSent advances the reminder checkpoint. Call it exactly once per delivered reminder.
func (s *ReminderScheduler) RecordReminderSent(ctx context.Context, requestID string, level int, actor Actor) error {
	if level < 1 {
		level = 1
	}
	req, err := s.Requests.Get(ctx, requestID)
	if err != nil {
		return err
	}
	now := s.Clock().UTC()
	if err := s.Requests.RecordReminder(ctx, requestID, level, now); err != nil {
		return err
	}
	recordAudit(ctx, s.Audit, domain.AuditEntry{
		EntityType: domain.AuditEntityRequest,
		EntityID:   requestID,
		Action:     domain.AuditRequestReminderSent,
		Actor:      actor.Label(),
		ActorIP:    actor.IP,
		CampaignID: req.CampaignID,
		Details: map[string]any{
			"reminder_count": req.ReminderCount + 1,
			"level":          level,
		},
	})
	if level > req.EscalationLevel {
		recordAudit(ctx, s.Audit, domain.AuditEntry{
			EntityType: domain.AuditEntityRequest,
			EntityID:   requestID,
			Action:     domain.AuditRequestEscalated,
			Actor:      actor.Label(),
			CampaignID: req.CampaignID,
			Details: map[string]any{
				"from_level": req.EscalationLevel,
				"to_level":   level,
			},
		})
	}
	return nil
}

func reminderEligible(status domain.RequestStatus) bool {
	for _, s := range domain.ReminderEligible {
		if s == status {
			return true
		}
	}
	return false
}
