package db

import (
	"context"

	"docrequest/internal/domain"
	"docrequest/internal/usecase"

	"gorm.io/gorm"
)

type SubmissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Commit writes the submission, its files and the evidence transitions in one
// transaction. An evidence row that is no longer submittable rolls it back.
func (r *SubmissionRepository) Commit(ctx context.Context, submission domain.Submission) error {
	if r.db == nil {
		return errDBUnavailable
	}
	model := SubmissionModel{
		ID:             submission.ID,
		RequestID:      submission.RequestID,
		SubmitterEmail: submission.SubmitterEmail,
		Notes:          stringPtrIfNotEmpty(submission.Notes),
		IPAddress:      stringPtrIfNotEmpty(submission.IPAddress),
		UserAgent:      stringPtrIfNotEmpty(submission.UserAgent),
		SubmittedAt:    submission.SubmittedAt.UTC(),
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Request", "Files").Create(&model).Error; err != nil {
			return translateError(err, "submission")
		}
		for _, file := range submission.Files {
			fileModel := submissionFileModelFromDomain(file)
			if err := tx.Omit("Evidence").Create(&fileModel).Error; err != nil {
				return translateError(err, "submission file")
			}
			size := file.Size
			res := tx.Model(&EvidenceItemModel{}).
				Where("id = ? AND status IN ?", file.EvidenceID, stringsOf(domain.SubmittableFrom)).
				Updates(map[string]any{
					"status":           string(domain.EvidenceSubmitted),
					"rejection_reason": nil,
					"validated_by":     nil,
					"validated_at":     nil,
					"file_size":        &size,
					"mime_type":        stringPtrIfNotEmpty(file.MimeType),
					"updated_at":       submission.SubmittedAt.UTC(),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != 1 {
				return domain.Conflict("evidence " + file.EvidenceID + " is already validated")
			}
		}
		return nil
	})
}

func submissionFileModelFromDomain(file domain.SubmissionFile) SubmissionFileModel {
	return SubmissionFileModel{
		ID:           file.ID,
		SubmissionID: file.SubmissionID,
		EvidenceID:   file.EvidenceID,
		OriginalName: file.OriginalName,
		StoredName:   file.StoredName,
		StoragePath:  file.StoragePath,
		MimeType:     file.MimeType,
		Size:         file.Size,
		ArchivePath:  stringPtrIfNotEmpty(file.ArchivePath),
		ArchiveURL:   stringPtrIfNotEmpty(file.ArchiveURL),
		CreatedAt:    file.CreatedAt.UTC(),
	}
}

func (r *SubmissionRepository) SetFileArchive(ctx context.Context, fileID string, path string, url string) error {
	if r.db == nil {
		return errDBUnavailable
	}
	res := r.db.WithContext(ctx).Model(&SubmissionFileModel{}).
		Where("id = ?", fileID).
		Updates(map[string]any{
			"archive_path": stringPtrIfNotEmpty(path),
			"archive_url":  stringPtrIfNotEmpty(url),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainNotFound("submission file")
	}
	return nil
}

// ListByRequest returns submissions newest first with their files in upload order.
func (r *SubmissionRepository) ListByRequest(ctx context.Context, requestID string) ([]domain.Submission, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []SubmissionModel
	err := r.db.WithContext(ctx).
		Preload("Files", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Where("request_id = ?", requestID).
		Order("submitted_at DESC, id DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Submission, 0, len(models))
	for _, m := range models {
		sub := domain.Submission{
			ID:             m.ID,
			RequestID:      m.RequestID,
			SubmitterEmail: m.SubmitterEmail,
			Notes:          derefString(m.Notes),
			IPAddress:      derefString(m.IPAddress),
			UserAgent:      derefString(m.UserAgent),
			SubmittedAt:    m.SubmittedAt.UTC(),
			Files:          make([]domain.SubmissionFile, 0, len(m.Files)),
		}
		for _, f := range m.Files {
			sub.Files = append(sub.Files, domain.SubmissionFile{
				ID:           f.ID,
				SubmissionID: f.SubmissionID,
				EvidenceID:   f.EvidenceID,
				OriginalName: f.OriginalName,
				StoredName:   f.StoredName,
				StoragePath:  f.StoragePath,
				MimeType:     f.MimeType,
				Size:         f.Size,
				ArchivePath:  derefString(f.ArchivePath),
				ArchiveURL:   derefString(f.ArchiveURL),
				CreatedAt:    f.CreatedAt.UTC(),
			})
		}
		out = append(out, sub)
	}
	return out, nil
}

var _ usecase.SubmissionRepository = (*SubmissionRepository)(nil)
