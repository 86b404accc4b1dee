package domain

import "time"

type EvidenceStatus string

const (
	EvidencePending   EvidenceStatus = "PENDING"
	EvidenceSubmitted EvidenceStatus = "SUBMITTED"
	EvidenceValidated EvidenceStatus = "VALIDATED"
	EvidenceRejected  EvidenceStatus = "REJECTED"
)

type EvidenceType string

const (
	EvidencePDF            EvidenceType = "PDF"
	EvidenceExcel          EvidenceType = "EXCEL"
	EvidenceWord           EvidenceType = "WORD"
	EvidenceImage          EvidenceType = "IMAGE"
	EvidenceEmail          EvidenceType = "EMAIL"
	EvidenceScreenshot     EvidenceType = "SCREENSHOT"
	EvidenceAccess         EvidenceType = "ACCESS"
	EvidenceMeetingMinutes EvidenceType = "MEETING_MINUTES"
	EvidenceOther          EvidenceType = "OTHER"
)

func (t EvidenceType) Valid() bool {
	switch t {
	case EvidencePDF, EvidenceExcel, EvidenceWord, EvidenceImage, EvidenceEmail,
		EvidenceScreenshot, EvidenceAccess, EvidenceMeetingMinutes, EvidenceOther:
		return true
	}
	return false
}

const MinRejectionReasonLen = 5

// SubmittableFrom lists statuses a new upload may overwrite.
var SubmittableFrom = []EvidenceStatus{EvidencePending, EvidenceSubmitted, EvidenceRejected}

type EvidenceItem struct {
	ID              string
	RequestID       string
	Name            string
	Type            EvidenceType
	IsMandatory     bool
	Instructions    string
	Status          EvidenceStatus
	RejectionReason string
	ValidatedBy     string
	ValidatedAt     *time.Time
	FileSize        *int64
	MimeType        string
	ArchivePath     string
	ArchiveURL      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Submittable reports whether a new upload may overwrite the item.
func (e EvidenceItem) Submittable() bool {
	for _, s := range SubmittableFrom {
		if e.Status == s {
			return true
		}
	}
	return false
}

// MarkSubmitted records a delivered file on the item. Validated items are final.
func (e *EvidenceItem) MarkSubmitted(size int64, mimeType string, at time.Time) error {
	if !e.Submittable() {
		return Conflict("evidence " + e.ID + " is already validated")
	}
	e.Status = EvidenceSubmitted
	e.RejectionReason = ""
	e.ValidatedBy = ""
	e.ValidatedAt = nil
	e.FileSize = &size
	e.MimeType = mimeType
	e.UpdatedAt = at
	return nil
}
