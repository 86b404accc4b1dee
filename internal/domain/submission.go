package domain

import "time"

type Submission struct {
	ID             string
	RequestID      string
	SubmitterEmail string
	Notes          string
	IPAddress      string
	UserAgent      string
	SubmittedAt    time.Time
	Files          []SubmissionFile
}

type SubmissionFile struct {
	ID           string
	SubmissionID string
	EvidenceID   string
	OriginalName string
	StoredName   string
	StoragePath  string
	MimeType     string
	Size         int64
	ArchivePath  string
	ArchiveURL   string
	CreatedAt    time.Time
}
