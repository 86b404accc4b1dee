package usecase

import (
	"context"
	"log"

	"docrequest/internal/domain"
)

type ReminderSource interface {
	PendingReminders(ctx context.Context) ([]PendingReminder, error)
	RecordReminderSent(ctx context.Context, requestID string, level int, actor Actor) error
}

type ReminderDispatcher struct {
	Overdue   OverdueMarker
	Reminders ReminderSource
	Notifier  NotificationGateway
}

type SweepResult struct {
	Overdue int64
	Due     int
	Sent    int
	Failed  int
}

func NewReminderDispatcher(overdue OverdueMarker, reminders ReminderSource, notifier NotificationGateway) *ReminderDispatcher {
	return &ReminderDispatcher{Overdue: overdue, Reminders: reminders, Notifier: notifier}
}

// Sweep marks overdue requests, then sends every due reminder. A reminder whose
// delivery fails is not recorded, so the next sweep picks it up again.
func (d *ReminderDispatcher) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	overdue, err := d.Overdue.MarkOverdue(ctx)
	if err != nil {
		return result, err
	}
	result.Overdue = overdue
	due, err := d.Reminders.PendingReminders(ctx)
	if err != nil {
		return result, err
	}
	result.Due = len(due)
	for _, reminder := range due {
		if err := d.Send(ctx, reminder); err != nil {
			log.Printf("reminder for request %s failed: %v", reminder.RequestID, err)
			result.Failed++
			continue
		}
		result.Sent++
	}
	return result, nil
}

// Send delivers one reminder and records it.
func (d *ReminderDispatcher) Send(ctx context.Context, reminder PendingReminder) error {
	if err := d.Deliver(ctx, reminder); err != nil {
		return err
	}
	return d.Record(ctx, reminder)
}

// Deliver hands the reminder email to the gateway without recording it.
func (d *ReminderDispatcher) Deliver(ctx context.Context, reminder PendingReminder) error {
	if d.Notifier == nil {
		return nil
	}
	return d.Notifier.SendEmail(ctx, ReminderEmail(reminder))
}

// Record bumps the reminder count and escalation level of a delivered reminder.
func (d *ReminderDispatcher) Record(ctx context.Context, reminder PendingReminder) error {
	return d.Reminders.RecordReminderSent(ctx, reminder.RequestID, reminder.EscalationLevel.Level, SystemActor)
}

func ReminderEmail(reminder PendingReminder) domain.EmailMessage {
	level := reminder.EscalationLevel
	cc := append([]string(nil), reminder.CCEmails...)
	if level.CCDelegate && reminder.DelegateEmail != "" {
		cc = appendUnique(cc, reminder.DelegateEmail)
	}
	if level.CCSuperior && level.SuperiorEmail != "" {
		cc = appendUnique(cc, level.SuperiorEmail)
	}
	importance := domain.ImportanceNormal
	if level.Level >= 2 {
		importance = domain.ImportanceHigh
	}
	body := renderPlaceholders(defaultReminderTemplate, TemplateVars{
		RecipientName: reminder.RecipientName,
		ControlCode:   reminder.ControlCode,
		Deadline:      reminder.Deadline,
		Evidence:      pendingEvidence(reminder.Evidence),
		ReminderCount: reminder.ReminderCount + 1,
	})
	return domain.EmailMessage{
		Kind:        domain.EmailReminder,
		To:          reminder.RecipientEmail,
		CC:          cc,
		Subject:     "[" + reminder.ControlCode + "] Reminder: document request " + shortID(reminder.RequestID),
		BodyHTML:    body,
		Importance:  importance,
		RequestID:   reminder.RequestID,
		ControlCode: reminder.ControlCode,
		Level:       level.Level,
	}
}

func pendingEvidence(items []domain.EvidenceItem) []domain.EvidenceItem {
	out := make([]domain.EvidenceItem, 0, len(items))
	for _, item := range items {
		if item.Status == domain.EvidencePending || item.Status == domain.EvidenceRejected {
			out = append(out, item)
		}
	}
	return out
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
