package domain

import "time"

type AuditEntityType string

const (
	AuditEntityCampaign   AuditEntityType = "CAMPAIGN"
	AuditEntityRequest    AuditEntityType = "REQUEST"
	AuditEntityEvidence   AuditEntityType = "EVIDENCE"
	AuditEntitySubmission AuditEntityType = "SUBMISSION"
	AuditEntityToken      AuditEntityType = "TOKEN"
	AuditEntityOTP        AuditEntityType = "OTP"
	AuditEntityFile       AuditEntityType = "FILE"
	AuditEntityUser       AuditEntityType = "USER"
)

type AuditAction string

const (
	AuditCampaignCreated   AuditAction = "CAMPAIGN_CREATED"
	AuditCampaignUpdated   AuditAction = "CAMPAIGN_UPDATED"
	AuditCampaignActivated AuditAction = "CAMPAIGN_ACTIVATED"
	AuditCampaignCompleted AuditAction = "CAMPAIGN_COMPLETED"
	AuditCampaignArchived  AuditAction = "CAMPAIGN_ARCHIVED"

	AuditRequestCreated      AuditAction = "REQUEST_CREATED"
	AuditRequestSent         AuditAction = "REQUEST_SENT"
	AuditRequestReminderSent AuditAction = "REQUEST_REMINDER_SENT"
	AuditRequestEscalated    AuditAction = "REQUEST_ESCALATED"
	AuditRequestClosed       AuditAction = "REQUEST_CLOSED"

	AuditEvidenceSubmitted   AuditAction = "EVIDENCE_SUBMITTED"
	AuditEvidenceValidated   AuditAction = "EVIDENCE_VALIDATED"
	AuditEvidenceRejected    AuditAction = "EVIDENCE_REJECTED"
	AuditEvidenceSubsanation AuditAction = "EVIDENCE_SUBSANATION"

	AuditSubmissionCreated AuditAction = "SUBMISSION_CREATED"

	AuditTokenGenerated AuditAction = "TOKEN_GENERATED"
	AuditTokenValidated AuditAction = "TOKEN_VALIDATED"
	AuditTokenExpired   AuditAction = "TOKEN_EXPIRED"

	AuditOTPSent      AuditAction = "OTP_SENT"
	AuditOTPValidated AuditAction = "OTP_VALIDATED"
	AuditOTPFailed    AuditAction = "OTP_FAILED"

	AuditFileUploaded AuditAction = "FILE_UPLOADED"
	AuditFileArchived AuditAction = "FILE_ARCHIVED"

	AuditUserLogin  AuditAction = "USER_LOGIN"
	AuditUserLogout AuditAction = "USER_LOGOUT"
)

// AuditSystemActor is recorded when no person triggered the event.
const AuditSystemActor = "system"

type AuditEntry struct {
	ID         string
	EntityType AuditEntityType
	EntityID   string
	Action     AuditAction
	Actor      string
	ActorIP    string
	Details    map[string]any
	CampaignID string
	CreatedAt  time.Time
}
