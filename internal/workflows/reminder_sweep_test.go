package workflows

import (
	"context"
	"errors"
	"testing"
	"time"

	"docrequest/internal/activities"
	"docrequest/internal/domain"
	"docrequest/internal/usecase"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"
)

func registerSweepActivities(env *testsuite.TestWorkflowEnvironment, due []usecase.PendingReminder, send func(usecase.PendingReminder) error) *int {
	return registerSweepActivitiesWithRecord(env, due, send, func(usecase.PendingReminder) error { return nil })
}

func registerSweepActivitiesWithRecord(env *testsuite.TestWorkflowEnvironment, due []usecase.PendingReminder, send, record func(usecase.PendingReminder) error) *int {
	overdueCalls := 0
	env.RegisterActivityWithOptions(func(context.Context) (int64, error) {
		overdueCalls++
		return 1, nil
	}, activity.RegisterOptions{Name: activities.MarkOverdueActivityName})
	env.RegisterActivityWithOptions(func(context.Context) ([]usecase.PendingReminder, error) {
		return due, nil
	}, activity.RegisterOptions{Name: activities.PendingRemindersActivityName})
	env.RegisterActivityWithOptions(func(_ context.Context, r usecase.PendingReminder) error {
		return send(r)
	}, activity.RegisterOptions{Name: activities.SendReminderActivityName})
	env.RegisterActivityWithOptions(func(_ context.Context, r usecase.PendingReminder) error {
		return record(r)
	}, activity.RegisterOptions{Name: activities.RecordReminderActivityName})
	return &overdueCalls
}

func TestReminderSweepWorkflowSendsDueReminders(t *testing.T) {
	suite := &testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()

	due := []usecase.PendingReminder{
		{RequestID: "req-1", EscalationLevel: domain.EscalationLevel{Level: 1}},
		{RequestID: "req-2", EscalationLevel: domain.EscalationLevel{Level: 2}},
	}
	sent := make(map[string]int)
	overdueCalls := registerSweepActivities(env, due, func(r usecase.PendingReminder) error {
		sent[r.RequestID]++
		return nil
	})

	env.ExecuteWorkflow(ReminderSweepWorkflow, SweepInput{Interval: time.Hour, MaxSweeps: 2})
	if !env.IsWorkflowCompleted() {
		t.Fatalf("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("workflow error: %v", err)
	}
	if *overdueCalls != 2 {
		t.Fatalf("expected 2 overdue sweeps, got %d", *overdueCalls)
	}
	if sent["req-1"] != 2 || sent["req-2"] != 2 {
		t.Fatalf("expected each reminder sent once per sweep, got %v", sent)
	}

	res, err := env.QueryWorkflow(QuerySweepState)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	var state SweepState
	if err := res.Get(&state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Sweeps != 2 || state.TotalSent != 4 || state.LastOverdue != 1 {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestReminderSweepWorkflowCountsFailures(t *testing.T) {
	suite := &testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()

	due := []usecase.PendingReminder{{RequestID: "req-ok"}, {RequestID: "req-bad"}}
	registerSweepActivities(env, due, func(r usecase.PendingReminder) error {
		if r.RequestID == "req-bad" {
			return temporal.NewNonRetryableApplicationError("smtp down", "delivery", errors.New("smtp down"))
		}
		return nil
	})

	env.ExecuteWorkflow(ReminderSweepWorkflow, SweepInput{Interval: time.Minute, MaxSweeps: 1})
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("a failed reminder must not fail the workflow: %v", err)
	}
	res, err := env.QueryWorkflow(QuerySweepState)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	var state SweepState
	if err := res.Get(&state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.LastSent != 1 || state.LastFailed != 1 {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestReminderSweepWorkflowRetriesRecordWithoutResending(t *testing.T) {
	suite := &testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()

	due := []usecase.PendingReminder{{RequestID: "req-1", EscalationLevel: domain.EscalationLevel{Level: 1}}}
	sends, records := 0, 0
	registerSweepActivitiesWithRecord(env, due, func(usecase.PendingReminder) error {
		sends++
		return nil
	}, func(usecase.PendingReminder) error {
		records++
		if records == 1 {
			return errors.New("database unavailable")
		}
		return nil
	})

	env.ExecuteWorkflow(ReminderSweepWorkflow, SweepInput{Interval: time.Minute, MaxSweeps: 1})
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("workflow error: %v", err)
	}
	if sends != 1 {
		t.Fatalf("one due reminder must produce one email, got %d", sends)
	}
	if records != 2 {
		t.Fatalf("expected the record step to be retried once, got %d calls", records)
	}
}

func TestReminderSweepWorkflowDoesNotRetryDelivery(t *testing.T) {
	suite := &testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()

	due := []usecase.PendingReminder{{RequestID: "req-1"}}
	sends, records := 0, 0
	registerSweepActivitiesWithRecord(env, due, func(usecase.PendingReminder) error {
		sends++
		return errors.New("gateway timeout")
	}, func(usecase.PendingReminder) error {
		records++
		return nil
	})

	env.ExecuteWorkflow(ReminderSweepWorkflow, SweepInput{Interval: time.Minute, MaxSweeps: 1})
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("workflow error: %v", err)
	}
	if sends != 1 || records != 0 {
		t.Fatalf("failed delivery must run once and stay unrecorded: sends=%d records=%d", sends, records)
	}
}

func TestNormalizeSweep(t *testing.T) {
	got := normalizeSweep(SweepInput{Interval: -1, MaxSweeps: -3})
	if got.Interval != time.Hour || got.MaxSweeps != 0 {
		t.Fatalf("unexpected normalized input %+v", got)
	}
}
