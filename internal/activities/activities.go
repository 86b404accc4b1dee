package activities

import (
	"context"
	"fmt"

	"docrequest/internal/usecase"

	"go.temporal.io/sdk/activity"
)

const (
	MarkOverdueActivityName      = "MarkOverdue"
	PendingRemindersActivityName = "PendingReminders"
	SendReminderActivityName     = "SendReminder"
	RecordReminderActivityName   = "RecordReminder"
)

type Activities struct {
	Requests   *usecase.RequestService
	Reminders  *usecase.ReminderScheduler
	Dispatcher *usecase.ReminderDispatcher
}

func New(requests *usecase.RequestService, reminders *usecase.ReminderScheduler, dispatcher *usecase.ReminderDispatcher) *Activities {
	return &Activities{Requests: requests, Reminders: reminders, Dispatcher: dispatcher}
}

func (a *Activities) MarkOverdue(ctx context.Context) (int64, error) {
	if a == nil || a.Requests == nil {
		return 0, fmt.Errorf("request service not configured")
	}
	n, err := a.Requests.MarkOverdue(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		activity.GetLogger(ctx).Info("requests marked overdue", "count", n)
	}
	return n, nil
}

func (a *Activities) PendingReminders(ctx context.Context) ([]usecase.PendingReminder, error) {
	if a == nil || a.Reminders == nil {
		return nil, fmt.Errorf("reminder scheduler not configured")
	}
	return a.Reminders.PendingReminders(ctx)
}

// SendReminder delivers one reminder email. It does not record the reminder;
// the workflow runs RecordReminder once delivery succeeded.
func (a *Activities) SendReminder(ctx context.Context, reminder usecase.PendingReminder) error {
	if a == nil || a.Dispatcher == nil {
		return fmt.Errorf("reminder dispatcher not configured")
	}
	logger := activity.GetLogger(ctx)
	if err := a.Dispatcher.Deliver(ctx, reminder); err != nil {
		logger.Warn("reminder delivery failed", "request_id", reminder.RequestID, "level", reminder.EscalationLevel.Level, "error", err)
		return err
	}
	logger.Info("reminder sent", "request_id", reminder.RequestID, "level", reminder.EscalationLevel.Level)
	return nil
}

func (a *Activities) RecordReminder(ctx context.Context, reminder usecase.PendingReminder) error {
	if a == nil || a.Dispatcher == nil {
		return fmt.Errorf("reminder dispatcher not configured")
	}
	return a.Dispatcher.Record(ctx, reminder)
}
