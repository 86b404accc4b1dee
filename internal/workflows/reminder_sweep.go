package workflows

import (
	"time"

	"docrequest/internal/activities"
	"docrequest/internal/usecase"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const sweepsPerRun = 200

// ReminderSweepWorkflow periodically marks overdue requests and sends every
// due reminder. Delivery is attempted once per sweep; a failed reminder is left
// unrecorded and picked up by the next sweep. Recording a delivered reminder
// retries on its own so the email is never sent twice.
func ReminderSweepWorkflow(ctx workflow.Context, input SweepInput) error {
	logger := workflow.GetLogger(ctx)
	input = normalizeSweep(input)

	activityOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    1 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    5,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOpts)

	state := &SweepState{}
	if err := workflow.SetQueryHandler(ctx, QuerySweepState, func() (SweepState, error) {
		return *state, nil
	}); err != nil {
		return err
	}

	for run := 0; ; run++ {
		sweep(ctx, state)

		if input.MaxSweeps > 0 && state.Sweeps >= input.MaxSweeps {
			return nil
		}
		if input.MaxSweeps == 0 && run+1 >= sweepsPerRun {
			logger.Info("continuing reminder sweep as new", "sweeps", state.Sweeps)
			return workflow.NewContinueAsNewError(ctx, ReminderSweepWorkflow, input)
		}
		if err := workflow.Sleep(ctx, input.Interval); err != nil {
			return err
		}
	}
}

func sweep(ctx workflow.Context, state *SweepState) {
	logger := workflow.GetLogger(ctx)
	state.Sweeps++
	state.LastSweepAt = workflow.Now(ctx)
	state.LastOverdue, state.LastDue, state.LastSent, state.LastFailed = 0, 0, 0, 0

	var overdue int64
	if err := workflow.ExecuteActivity(ctx, activities.MarkOverdueActivityName).Get(ctx, &overdue); err != nil {
		logger.Error("mark overdue activity failed", "error", err)
	}
	state.LastOverdue = overdue

	var due []usecase.PendingReminder
	if err := workflow.ExecuteActivity(ctx, activities.PendingRemindersActivityName).Get(ctx, &due); err != nil {
		logger.Error("pending reminders activity failed", "error", err)
		return
	}
	state.LastDue = len(due)

	sendCtx := workflow.WithRetryPolicy(ctx, temporal.RetryPolicy{MaximumAttempts: 1})
	futures := make([]workflow.Future, 0, len(due))
	for _, reminder := range due {
		futures = append(futures, workflow.ExecuteActivity(sendCtx, activities.SendReminderActivityName, reminder))
	}
	for i, f := range futures {
		if err := f.Get(ctx, nil); err != nil {
			logger.Error("send reminder activity failed", "request_id", due[i].RequestID, "error", err)
			state.LastFailed++
			state.TotalFailures++
			continue
		}
		state.LastSent++
		state.TotalSent++
		if err := workflow.ExecuteActivity(ctx, activities.RecordReminderActivityName, due[i]).Get(ctx, nil); err != nil {
			logger.Error("record reminder activity failed", "request_id", due[i].RequestID, "error", err)
			state.TotalUnrecorded++
		}
	}
}

func normalizeSweep(input SweepInput) SweepInput {
	if input.Interval <= 0 {
		input.Interval = time.Hour
	}
	if input.MaxSweeps < 0 {
		input.MaxSweeps = 0
	}
	return input
}
