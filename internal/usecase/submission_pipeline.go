package usecase

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"log"
	"path"
	"strings"
	"time"

	"docrequest/internal/domain"

	"github.com/google/uuid"
)

const MaxFilesPerSubmission = 20

type UploadFile struct {
	EvidenceID string
	FileName   string
	MimeType   string
	Content    io.Reader
}

type SubmitInput struct {
	RequestID      string
	SubmitterEmail string
	Notes          string
	IPAddress      string
	UserAgent      string
	Files          []UploadFile
}

type SubmitResult struct {
	Submission    domain.Submission
	RequestStatus domain.RequestStatus
}

type SubmissionPipeline struct {
	Requests    RequestLookup
	Campaigns   CampaignReader
	Submissions SubmissionRepository
	Evidence    EvidenceArchiveSink
	Status      SubmissionStatusSink
	Files       FileStore
	Archiver    NotificationGateway
	Audit       AuditSink
	Clock       Clock
	NewID       func() string
}

func NewSubmissionPipeline(requests RequestLookup, campaigns CampaignReader, submissions SubmissionRepository, evidence EvidenceArchiveSink, status SubmissionStatusSink, files FileStore, archiver NotificationGateway, audit AuditSink) *SubmissionPipeline {
	return &SubmissionPipeline{
		Requests:    requests,
		Campaigns:   campaigns,
		Submissions: submissions,
		Evidence:    evidence,
		Status:      status,
		Files:       files,
		Archiver:    archiver,
		Audit:       audit,
		Clock:       time.Now,
		NewID:       func() string { return uuid.NewString() },
	}
}

func (p *SubmissionPipeline) ListByRequest(ctx context.Context, requestID string) ([]domain.Submission, error) {
	if _, err := p.Requests.Get(ctx, requestID); err != nil {
		return nil, err
	}
	return p.Submissions.ListByRequest(ctx, requestID)
}

// Submit stores a batch of files against the request's evidence items. The whole
// batch is checked before anything is written, and the records are committed in
// one unit. When the commit fails the stored bytes are removed again.
func (p *SubmissionPipeline) Submit(ctx context.Context, input SubmitInput) (SubmitResult, error) {
	req, err := p.Requests.Get(ctx, input.RequestID)
	if err != nil {
		return SubmitResult{}, err
	}
	if req.Status == domain.RequestClosed {
		return SubmitResult{}, domain.ErrRequestClosed
	}
	if err := validateBatch(req, input.Files); err != nil {
		return SubmitResult{}, err
	}
	var campaign domain.Campaign
	if p.Campaigns != nil {
		campaign, err = p.Campaigns.Get(ctx, req.CampaignID)
		if err != nil {
			return SubmitResult{}, err
		}
	}

	now := p.Clock().UTC()
	submission := domain.Submission{
		ID:             p.NewID(),
		RequestID:      req.ID,
		SubmitterEmail: input.SubmitterEmail,
		Notes:          strings.TrimSpace(input.Notes),
		IPAddress:      input.IPAddress,
		UserAgent:      input.UserAgent,
		SubmittedAt:    now,
	}
	actor := Actor{Email: input.SubmitterEmail, IP: input.IPAddress}

	staged := make([]stagedFile, 0, len(input.Files))
	for _, upload := range input.Files {
		sf, err := p.storeFile(ctx, req, submission, upload)
		if err != nil {
			p.discard(ctx, staged)
			return SubmitResult{}, err
		}
		staged = append(staged, sf)
		submission.Files = append(submission.Files, sf.file)
	}
	if err := p.Submissions.Commit(ctx, submission); err != nil {
		p.discard(ctx, staged)
		return SubmitResult{}, err
	}

	for i := range staged {
		file := &submission.Files[i]
		p.archive(ctx, req, campaign, file, staged[i].content, actor)
		p.auditFile(ctx, req, submission, *file, actor)
	}
	recordAudit(ctx, p.Audit, domain.AuditEntry{
		EntityType: domain.AuditEntitySubmission,
		EntityID:   submission.ID,
		Action:     domain.AuditSubmissionCreated,
		Actor:      actor.Label(),
		ActorIP:    actor.IP,
		CampaignID: req.CampaignID,
		Details: map[string]any{
			"request_id": req.ID,
			"file_count": len(submission.Files),
		},
	})

	status, err := p.Status.RecomputeAfterSubmission(ctx, req.ID)
	if err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{Submission: submission, RequestStatus: status}, nil
}

type stagedFile struct {
	key     string
	content []byte
	file    domain.SubmissionFile
}

func (p *SubmissionPipeline) storeFile(ctx context.Context, req domain.Request, submission domain.Submission, upload UploadFile) (stagedFile, error) {
	content, err := io.ReadAll(upload.Content)
	if err != nil {
		return stagedFile{}, err
	}
	fileID := p.NewID()
	storedName := fileID + "_" + SanitizeFileName(upload.FileName)
	key := path.Join(req.ID, upload.EvidenceID, storedName)
	storagePath, size, err := p.Files.Save(ctx, key, bytes.NewReader(content))
	if err != nil {
		return stagedFile{}, err
	}
	return stagedFile{
		key:     key,
		content: content,
		file: domain.SubmissionFile{
			ID:           fileID,
			SubmissionID: submission.ID,
			EvidenceID:   upload.EvidenceID,
			OriginalName: upload.FileName,
			StoredName:   storedName,
			StoragePath:  storagePath,
			MimeType:     upload.MimeType,
			Size:         size,
			CreatedAt:    submission.SubmittedAt,
		},
	}, nil
}

func (p *SubmissionPipeline) discard(ctx context.Context, staged []stagedFile) {
	for _, sf := range staged {
		if err := p.Files.Delete(ctx, sf.key); err != nil {
			log.Printf("discard stored file %s failed: %v", sf.key, err)
		}
	}
}

func (p *SubmissionPipeline) auditFile(ctx context.Context, req domain.Request, submission domain.Submission, file domain.SubmissionFile, actor Actor) {
	recordAudit(ctx, p.Audit, domain.AuditEntry{
		EntityType: domain.AuditEntityFile,
		EntityID:   file.ID,
		Action:     domain.AuditFileUploaded,
		Actor:      actor.Label(),
		ActorIP:    actor.IP,
		CampaignID: req.CampaignID,
		Details: map[string]any{
			"evidence_id": file.EvidenceID,
			"file_name":   file.OriginalName,
			"size":        file.Size,
			"mime_type":   file.MimeType,
		},
	})
	recordAudit(ctx, p.Audit, domain.AuditEntry{
		EntityType: domain.AuditEntityEvidence,
		EntityID:   file.EvidenceID,
		Action:     domain.AuditEvidenceSubmitted,
		Actor:      actor.Label(),
		ActorIP:    actor.IP,
		CampaignID: req.CampaignID,
		Details: map[string]any{
			"submission_id": submission.ID,
			"file_id":       file.ID,
		},
	})
}

// archive is best effort; failures never fail the submission.
func (p *SubmissionPipeline) archive(ctx context.Context, req domain.Request, campaign domain.Campaign, file *domain.SubmissionFile, content []byte, actor Actor) {
	if p.Archiver == nil {
		return
	}
	result, err := p.Archiver.ArchiveFile(ctx, domain.ArchiveRequest{
		FileContentBase64: base64.StdEncoding.EncodeToString(content),
		FileName:          file.StoredName,
		FolderPath:        path.Join(campaign.ControlCode, req.CampaignID, req.ID),
		Metadata: domain.ArchiveMetadata{
			RequestID:  req.ID,
			EvidenceID: file.EvidenceID,
			UploadedBy: actor.Label(),
			UploadedAt: file.CreatedAt.Format(time.RFC3339),
		},
	})
	if err != nil {
		log.Printf("archive file %s failed: %v", file.ID, err)
		return
	}
	if err := p.Submissions.SetFileArchive(ctx, file.ID, result.Path, result.URL); err != nil {
		log.Printf("record archive on file %s failed: %v", file.ID, err)
	}
	if err := p.Evidence.RecordArchive(ctx, file.EvidenceID, result.Path, result.URL); err != nil {
		return
	}
	file.ArchivePath = result.Path
	file.ArchiveURL = result.URL
	recordAudit(ctx, p.Audit, domain.AuditEntry{
		EntityType: domain.AuditEntityFile,
		EntityID:   file.ID,
		Action:     domain.AuditFileArchived,
		Actor:      actor.Label(),
		CampaignID: req.CampaignID,
		Details: map[string]any{
			"archive_path": result.Path,
			"archive_url":  result.URL,
		},
	})
}

func validateBatch(req domain.Request, files []UploadFile) error {
	if len(files) == 0 {
		return domain.Validation("at least one file is required", nil)
	}
	if len(files) > MaxFilesPerSubmission {
		return domain.Validation("too many files", map[string]any{"max": MaxFilesPerSubmission})
	}
	for _, f := range files {
		item, ok := req.EvidenceByID(f.EvidenceID)
		if !ok {
			return domain.Validation("evidence "+f.EvidenceID+" does not belong to this request", map[string]any{"evidence_id": f.EvidenceID})
		}
		if !item.Submittable() {
			return domain.Conflict("evidence " + f.EvidenceID + " is already validated")
		}
		if f.Content == nil {
			return domain.Validation("file content is required", map[string]any{"evidence_id": f.EvidenceID})
		}
	}
	return nil
}

// SanitizeFileName keeps the base name and replaces anything outside [A-Za-z0-9._-].
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "file"
	}
	return out
}
