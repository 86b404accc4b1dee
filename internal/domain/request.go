package domain

import "time"

type RequestStatus string

const (
	RequestDraft        RequestStatus = "DRAFT"
	RequestSent         RequestStatus = "SENT"
	RequestInProgress   RequestStatus = "IN_PROGRESS"
	RequestPartial      RequestStatus = "PARTIAL"
	RequestSubmitted    RequestStatus = "SUBMITTED"
	RequestReadyToClose RequestStatus = "READY_TO_CLOSE"
	RequestClosed       RequestStatus = "CLOSED"
	RequestOverdue      RequestStatus = "OVERDUE"
)

// OverdueEligible lists the statuses the overdue sweep may move to OVERDUE.
var OverdueEligible = []RequestStatus{RequestSent, RequestInProgress, RequestPartial}

// ReminderEligible lists the statuses that can receive reminders.
var ReminderEligible = []RequestStatus{RequestSent, RequestInProgress, RequestPartial, RequestOverdue}

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestDraft, RequestSent, RequestInProgress, RequestPartial, RequestSubmitted,
		RequestReadyToClose, RequestClosed, RequestOverdue:
		return true
	}
	return false
}

type Request struct {
	ID              string
	CampaignID      string
	RecipientEmail  string
	RecipientName   string
	CCEmails        []string
	DelegateEmail   string
	Deadline        time.Time
	Status          RequestStatus
	ReminderCount   int
	EscalationLevel int
	LastReminderAt  *time.Time
	TokenHash       string
	TokenExpiresAt  *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ClosedAt        *time.Time
	Evidence        []EvidenceItem
}

// Mandatory returns the mandatory evidence items of the request.
func (r Request) Mandatory() []EvidenceItem {
	out := make([]EvidenceItem, 0, len(r.Evidence))
	for _, item := range r.Evidence {
		if item.IsMandatory {
			out = append(out, item)
		}
	}
	return out
}

// EvidenceByID finds an evidence item of this request.
func (r Request) EvidenceByID(id string) (EvidenceItem, bool) {
	for _, item := range r.Evidence {
		if item.ID == id {
			return item, true
		}
	}
	return EvidenceItem{}, false
}

// SubmissionStatus derives the aggregate status from mandatory items only.
func SubmissionStatus(items []EvidenceItem) RequestStatus {
	mandatory, delivered := 0, 0
	for _, item := range items {
		if !item.IsMandatory {
			continue
		}
		mandatory++
		if item.Status == EvidenceSubmitted || item.Status == EvidenceValidated {
			delivered++
		}
	}
	switch {
	case mandatory > 0 && delivered == mandatory:
		return RequestSubmitted
	case delivered > 0:
		return RequestPartial
	default:
		return RequestInProgress
	}
}

// UnvalidatedMandatory counts mandatory items that are not VALIDATED.
func UnvalidatedMandatory(items []EvidenceItem) (total int, unvalidated int) {
	for _, item := range items {
		if !item.IsMandatory {
			continue
		}
		total++
		if item.Status != EvidenceValidated {
			unvalidated++
		}
	}
	return total, unvalidated
}

// ReadyToClose reports whether at least one mandatory item exists and all are VALIDATED.
func ReadyToClose(items []EvidenceItem) bool {
	total, unvalidated := UnvalidatedMandatory(items)
	return total > 0 && unvalidated == 0
}
