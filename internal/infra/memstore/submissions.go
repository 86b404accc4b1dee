package memstore

import (
	"context"

	"docrequest/internal/domain"
	"docrequest/internal/usecase"
)

type SubmissionRepository struct {
	s *Store
}

// Commit applies the submission under one lock so a failed evidence check
// leaves every map untouched.
func (r *SubmissionRepository) Commit(_ context.Context, submission domain.Submission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.requests[submission.RequestID]; !ok {
		return domain.NotFound("request")
	}
	updated := make(map[string]domain.EvidenceItem, len(submission.Files))
	for _, file := range submission.Files {
		item, ok := updated[file.EvidenceID]
		if !ok {
			if item, ok = r.s.evidence[file.EvidenceID]; !ok {
				return domain.NotFound("evidence")
			}
		}
		if err := item.MarkSubmitted(file.Size, file.MimeType, submission.SubmittedAt); err != nil {
			return err
		}
		updated[file.EvidenceID] = item
	}

	files := submission.Files
	submission.Files = nil
	r.s.submissions[submission.ID] = submission
	r.s.subOrder = append(r.s.subOrder, submission.ID)
	for _, file := range files {
		r.s.files[file.ID] = file
		r.s.fileOrder[submission.ID] = append(r.s.fileOrder[submission.ID], file.ID)
	}
	for id, item := range updated {
		r.s.evidence[id] = item
	}
	return nil
}

func (r *SubmissionRepository) SetFileArchive(_ context.Context, fileID string, path string, url string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	file, ok := r.s.files[fileID]
	if !ok {
		return domain.NotFound("submission file")
	}
	file.ArchivePath = path
	file.ArchiveURL = url
	r.s.files[fileID] = file
	return nil
}

// ListByRequest returns submissions newest first.
func (r *SubmissionRepository) ListByRequest(_ context.Context, requestID string) ([]domain.Submission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.Submission, 0)
	for i := len(r.s.subOrder) - 1; i >= 0; i-- {
		sub := r.s.submissions[r.s.subOrder[i]]
		if sub.RequestID != requestID {
			continue
		}
		for _, id := range r.s.fileOrder[sub.ID] {
			sub.Files = append(sub.Files, r.s.files[id])
		}
		out = append(out, sub)
	}
	return out, nil
}

var _ usecase.SubmissionRepository = (*SubmissionRepository)(nil)
