package workflows

import "time"

const (
	ReminderSweepWorkflowID = "docrequest-reminder-sweep"

	QuerySweepState = "state"
)

type SweepInput struct {
	// Interval between sweeps. Defaults to one hour.
	Interval time.Duration
	// MaxSweeps stops the workflow after that many sweeps. Zero runs forever,
	// continuing as new every sweepsPerRun sweeps.
	MaxSweeps int
}

type SweepState struct {
	Sweeps        int
	LastSweepAt   time.Time
	LastOverdue   int64
	LastDue       int
	LastSent      int
	LastFailed    int
	TotalSent     int
	TotalFailures int
	// TotalUnrecorded counts reminders delivered but not recorded after retries.
	TotalUnrecorded int
}
