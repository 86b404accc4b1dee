package db

import (
	"context"
	"time"

	"docrequest/internal/domain"
	"docrequest/internal/usecase"

	"gorm.io/gorm"
)

type EvidenceRepository struct {
	db *gorm.DB
}

func NewEvidenceRepository(db *gorm.DB) *EvidenceRepository {
	return &EvidenceRepository{db: db}
}

func (r *EvidenceRepository) Get(ctx context.Context, id string) (domain.EvidenceItem, error) {
	if r.db == nil {
		return domain.EvidenceItem{}, errDBUnavailable
	}
	var model EvidenceItemModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return domain.EvidenceItem{}, translateError(err, "evidence")
	}
	return evidenceFromModel(model), nil
}

func (r *EvidenceRepository) ListByRequest(ctx context.Context, requestID string) ([]domain.EvidenceItem, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&RequestModel{}).Where("id = ?", requestID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, domain.NotFound("request")
	}
	var models []EvidenceItemModel
	if err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC, id ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.EvidenceItem, 0, len(models))
	for _, model := range models {
		out = append(out, evidenceFromModel(model))
	}
	return out, nil
}

// UpdateIfStatus writes the review and submission fields of item only while the
// stored status is one of from.
func (r *EvidenceRepository) UpdateIfStatus(ctx context.Context, item domain.EvidenceItem, from []domain.EvidenceStatus) (bool, error) {
	if r.db == nil {
		return false, errDBUnavailable
	}
	res := r.db.WithContext(ctx).Model(&EvidenceItemModel{}).
		Where("id = ? AND status IN ?", item.ID, stringsOf(from)).
		Updates(map[string]any{
			"status":           string(item.Status),
			"rejection_reason": stringPtrIfNotEmpty(item.RejectionReason),
			"validated_by":     stringPtrIfNotEmpty(item.ValidatedBy),
			"validated_at":     utcPtr(item.ValidatedAt),
			"file_size":        item.FileSize,
			"mime_type":        stringPtrIfNotEmpty(item.MimeType),
			"updated_at":       item.UpdatedAt.UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *EvidenceRepository) SetArchive(ctx context.Context, id string, path string, url string, at time.Time) error {
	if r.db == nil {
		return errDBUnavailable
	}
	res := r.db.WithContext(ctx).Model(&EvidenceItemModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"archive_path": stringPtrIfNotEmpty(path),
			"archive_url":  stringPtrIfNotEmpty(url),
			"updated_at":   at.UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("evidence")
	}
	return nil
}

func evidenceModelFromDomain(item domain.EvidenceItem) EvidenceItemModel {
	return EvidenceItemModel{
		ID:              item.ID,
		RequestID:       item.RequestID,
		Name:            item.Name,
		Type:            string(item.Type),
		IsMandatory:     item.IsMandatory,
		Instructions:    item.Instructions,
		Status:          string(item.Status),
		RejectionReason: stringPtrIfNotEmpty(item.RejectionReason),
		ValidatedBy:     stringPtrIfNotEmpty(item.ValidatedBy),
		ValidatedAt:     utcPtr(item.ValidatedAt),
		FileSize:        item.FileSize,
		MimeType:        stringPtrIfNotEmpty(item.MimeType),
		ArchivePath:     stringPtrIfNotEmpty(item.ArchivePath),
		ArchiveURL:      stringPtrIfNotEmpty(item.ArchiveURL),
		CreatedAt:       item.CreatedAt.UTC(),
		UpdatedAt:       item.UpdatedAt.UTC(),
	}
}

func evidenceFromModel(m EvidenceItemModel) domain.EvidenceItem {
	return domain.EvidenceItem{
		ID:              m.ID,
		RequestID:       m.RequestID,
		Name:            m.Name,
		Type:            domain.EvidenceType(m.Type),
		IsMandatory:     m.IsMandatory,
		Instructions:    m.Instructions,
		Status:          domain.EvidenceStatus(m.Status),
		RejectionReason: derefString(m.RejectionReason),
		ValidatedBy:     derefString(m.ValidatedBy),
		ValidatedAt:     utcPtr(m.ValidatedAt),
		FileSize:        m.FileSize,
		MimeType:        derefString(m.MimeType),
		ArchivePath:     derefString(m.ArchivePath),
		ArchiveURL:      derefString(m.ArchiveURL),
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

var _ usecase.EvidenceRepository = (*EvidenceRepository)(nil)
