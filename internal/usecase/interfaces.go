package usecase

import (
	"context"
	"io"
	"time"

	"docrequest/internal/domain"
)

type Clock func() time.Time

type CampaignFilter struct {
	// AccessibleBy restricts results to campaigns owned or backed up by this user.
	AccessibleBy string
	Status       domain.CampaignStatus
}

type CampaignRepository interface {
	Create(ctx context.Context, campaign domain.Campaign) error
	Get(ctx context.Context, id string) (domain.Campaign, error)
	List(ctx context.Context, filter CampaignFilter) ([]domain.Campaign, error)
	UpdateDraft(ctx context.Context, campaign domain.Campaign) (bool, error)
	TransitionStatus(ctx context.Context, id string, from []domain.CampaignStatus, to domain.CampaignStatus, at time.Time) (bool, error)
}

type CampaignReader interface {
	Get(ctx context.Context, id string) (domain.Campaign, error)
}

type RequestFilter struct {
	CampaignID string
	Statuses   []domain.RequestStatus
}

type RequestRepository interface {
	CreateWithEvidence(ctx context.Context, requests []domain.Request) error
	Get(ctx context.Context, id string) (domain.Request, error)
	List(ctx context.Context, filter RequestFilter) ([]domain.Request, error)
	CountByCampaign(ctx context.Context, campaignID string) (int64, error)
	CountOpenByCampaign(ctx context.Context, campaignID string) (int64, error)
	UpdateRecipient(ctx context.Context, req domain.Request) (bool, error)
	MarkSent(ctx context.Context, id string, tokenHash string, expiresAt time.Time, at time.Time) (bool, error)
	TransitionStatus(ctx context.Context, id string, from []domain.RequestStatus, to domain.RequestStatus, at time.Time) (bool, error)
	MarkClosed(ctx context.Context, id string, at time.Time) (bool, error)
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
	RecordReminder(ctx context.Context, id string, level int, at time.Time) error
}

type RequestLookup interface {
	Get(ctx context.Context, id string) (domain.Request, error)
}

type EvidenceRepository interface {
	Get(ctx context.Context, id string) (domain.EvidenceItem, error)
	ListByRequest(ctx context.Context, requestID string) ([]domain.EvidenceItem, error)
	UpdateIfStatus(ctx context.Context, item domain.EvidenceItem, from []domain.EvidenceStatus) (bool, error)
	SetArchive(ctx context.Context, id string, path string, url string, at time.Time) error
}

type SubmissionRepository interface {
	// Commit stores the submission with its files and moves every referenced
	// evidence item to SUBMITTED in one unit. Nothing is written when an item
	// is no longer submittable; that case returns a conflict.
	Commit(ctx context.Context, submission domain.Submission) error
	SetFileArchive(ctx context.Context, fileID string, path string, url string) error
	ListByRequest(ctx context.Context, requestID string) ([]domain.Submission, error)
}

type AuditFilter struct {
	EntityType domain.AuditEntityType
	EntityID   string
	Action     domain.AuditAction
	CampaignID string
	From       *time.Time
	To         *time.Time
	Page       int
	Limit      int
}

type AuditRepository interface {
	Append(ctx context.Context, entry domain.AuditEntry) error
	List(ctx context.Context, filter AuditFilter) ([]domain.AuditEntry, int64, error)
}

type AuditSink interface {
	Record(ctx context.Context, entry domain.AuditEntry)
}

type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	Get(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

// NotificationGateway delivers emails and archives files outside this service.
type NotificationGateway interface {
	SendEmail(ctx context.Context, msg domain.EmailMessage) error
	ArchiveFile(ctx context.Context, req domain.ArchiveRequest) (domain.ArchiveResult, error)
}

// FileStore persists bytes under a slash separated key and returns the stored path.
type FileStore interface {
	Save(ctx context.Context, key string, r io.Reader) (string, int64, error)
	// Delete removes a saved key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
}

// OTPStore is a key-value store with per-entry expiry. ReserveAttempt and
// Consume must be atomic in the backing store so that concurrent verifiers
// on different processes cannot exceed the attempt limit or share a code.
type OTPStore interface {
	Get(ctx context.Context, key string) (domain.OTPEntry, bool, error)
	Set(ctx context.Context, key string, entry domain.OTPEntry, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// ReserveAttempt increments the attempt counter of a live entry and
	// returns the new count. ok is false when the entry does not exist.
	ReserveAttempt(ctx context.Context, key string) (attempts int, ok bool, err error)
	// Consume deletes the entry and reports whether this call removed it.
	Consume(ctx context.Context, key string) (bool, error)
}

type AccessClaims struct {
	RequestID string
	Email     string
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type SessionClaims struct {
	RequestID string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenCodec signs and parses portal credentials. Parse errors wrap
// domain.ErrInvalidToken, or domain.ErrTokenExpired for expired tokens.
type TokenCodec interface {
	SignAccess(claims AccessClaims) (string, error)
	ParseAccess(token string) (AccessClaims, error)
	SignSession(claims SessionClaims) (string, error)
	ParseSession(token string) (SessionClaims, error)
}

type StaffTokenIssuer interface {
	IssueStaffToken(principal domain.Principal, issuedAt time.Time) (string, time.Time, error)
}

type AccessTokenIssuer interface {
	IssueAccessToken(ctx context.Context, requestID, email string) (IssuedToken, error)
}

// RequestStatusSink receives evidence review outcomes that affect the parent request.
type RequestStatusSink interface {
	OnEvidenceValidated(ctx context.Context, requestID string) error
	OnEvidenceRejected(ctx context.Context, requestID string) error
}

type SubmissionStatusSink interface {
	RecomputeAfterSubmission(ctx context.Context, requestID string) (domain.RequestStatus, error)
}

type CampaignCompletionSink interface {
	CheckCompletion(ctx context.Context, campaignID string) (bool, error)
}

type EvidenceArchiveSink interface {
	RecordArchive(ctx context.Context, evidenceID, path, url string) error
}

type OverdueMarker interface {
	MarkOverdue(ctx context.Context) (int64, error)
}

type Actor struct {
	ID    string
	Email string
	IP    string
}

// Label is the identity written to the audit log.
func (a Actor) Label() string {
	switch {
	case a.Email != "":
		return a.Email
	case a.ID != "":
		return a.ID
	default:
		return domain.AuditSystemActor
	}
}

// SystemActor is used for time-driven operations.
var SystemActor = Actor{ID: domain.AuditSystemActor}
