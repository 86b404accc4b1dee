package db

import "time"

type UserModel struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	DisplayName  string `gorm:"not null"`
	Department   *string
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"index;not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (UserModel) TableName() string {
	return "users"
}

type CampaignModel struct {
	ID                     string `gorm:"type:uuid;primaryKey"`
	Name                   string `gorm:"not null"`
	ControlCode            string `gorm:"uniqueIndex;not null"`
	Description            string
	OwnerUserID            string    `gorm:"type:uuid;index;not null"`
	BackupUserID           *string   `gorm:"type:uuid;index"`
	StartDate              time.Time `gorm:"not null"`
	EndDate                time.Time `gorm:"not null"`
	ReminderFrequencyDays  int       `gorm:"not null"`
	ReminderMax            int       `gorm:"not null"`
	ReminderStartAfterDays int       `gorm:"not null"`
	EscalationPolicyJSON   []byte    `gorm:"column:escalation_policy;type:jsonb;not null"`
	EmailTemplate          string
	Status                 string    `gorm:"index;not null"`
	CreatedAt              time.Time `gorm:"not null"`
	UpdatedAt              time.Time `gorm:"not null"`

	Owner  UserModel  `gorm:"foreignKey:OwnerUserID"`
	Backup *UserModel `gorm:"foreignKey:BackupUserID"`
}

func (CampaignModel) TableName() string {
	return "campaigns"
}

type RequestModel struct {
	ID              string `gorm:"type:uuid;primaryKey"`
	CampaignID      string `gorm:"type:uuid;index;not null"`
	RecipientEmail  string `gorm:"index;not null"`
	RecipientName   string `gorm:"not null"`
	CCEmailsJSON    []byte `gorm:"column:cc_emails;type:jsonb;not null"`
	DelegateEmail   *string
	Deadline        time.Time `gorm:"index;not null"`
	Status          string    `gorm:"index;not null"`
	ReminderCount   int       `gorm:"not null;default:0"`
	EscalationLevel int       `gorm:"not null;default:1"`
	LastReminderAt  *time.Time
	TokenHash       *string `gorm:"index"`
	TokenExpiresAt  *time.Time
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
	ClosedAt        *time.Time

	Campaign CampaignModel       `gorm:"foreignKey:CampaignID"`
	Evidence []EvidenceItemModel `gorm:"foreignKey:RequestID"`
}

func (RequestModel) TableName() string {
	return "requests"
}

type EvidenceItemModel struct {
	ID              string `gorm:"type:uuid;primaryKey"`
	RequestID       string `gorm:"type:uuid;index;not null"`
	Name            string `gorm:"not null"`
	Type            string `gorm:"not null"`
	IsMandatory     bool   `gorm:"not null"`
	Instructions    string
	Status          string `gorm:"index;not null"`
	RejectionReason *string
	ValidatedBy     *string
	ValidatedAt     *time.Time
	FileSize        *int64
	MimeType        *string
	ArchivePath     *string
	ArchiveURL      *string
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

func (EvidenceItemModel) TableName() string {
	return "evidence_items"
}

type SubmissionModel struct {
	ID             string `gorm:"type:uuid;primaryKey"`
	RequestID      string `gorm:"type:uuid;index;not null"`
	SubmitterEmail string `gorm:"not null"`
	Notes          *string
	IPAddress      *string
	UserAgent      *string
	SubmittedAt    time.Time `gorm:"index;not null"`

	Request RequestModel          `gorm:"foreignKey:RequestID"`
	Files   []SubmissionFileModel `gorm:"foreignKey:SubmissionID"`
}

func (SubmissionModel) TableName() string {
	return "submissions"
}

type SubmissionFileModel struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	SubmissionID string `gorm:"type:uuid;index;not null"`
	EvidenceID   string `gorm:"type:uuid;index;not null"`
	OriginalName string `gorm:"not null"`
	StoredName   string `gorm:"not null"`
	StoragePath  string `gorm:"not null"`
	MimeType     string `gorm:"not null"`
	Size         int64  `gorm:"not null"`
	ArchivePath  *string
	ArchiveURL   *string
	CreatedAt    time.Time `gorm:"not null"`

	Evidence EvidenceItemModel `gorm:"foreignKey:EvidenceID"`
}

func (SubmissionFileModel) TableName() string {
	return "submission_files"
}

type AuditLogModel struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	EntityType  string `gorm:"index:idx_audit_entity;not null"`
	EntityID    string `gorm:"index:idx_audit_entity;not null"`
	Action      string `gorm:"index;not null"`
	Actor       string `gorm:"not null"`
	ActorIP     *string
	DetailsJSON []byte    `gorm:"column:details;type:jsonb"`
	CampaignID  *string   `gorm:"type:uuid;index"`
	CreatedAt   time.Time `gorm:"index;not null"`
}

func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// Models lists every table in dependency order.
func Models() []any {
	return []any{
		&UserModel{},
		&CampaignModel{},
		&RequestModel{},
		&EvidenceItemModel{},
		&SubmissionModel{},
		&SubmissionFileModel{},
		&AuditLogModel{},
	}
}
