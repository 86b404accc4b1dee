package common

import (
	"time"

	"docrequest/internal/domain"
	"docrequest/internal/usecase"
)

type CampaignResponse struct {
	ID               string                  `json:"id"`
	Name             string                  `json:"name"`
	ControlCode      string                  `json:"control_code"`
	Description      string                  `json:"description,omitempty"`
	OwnerUserID      string                  `json:"owner_user_id"`
	BackupUserID     string                  `json:"backup_user_id,omitempty"`
	StartDate        string                  `json:"start_date"`
	EndDate          string                  `json:"end_date"`
	ReminderPolicy   domain.ReminderPolicy   `json:"reminder_policy"`
	EscalationPolicy domain.EscalationPolicy `json:"escalation_policy"`
	EmailTemplate    string                  `json:"email_template,omitempty"`
	Status           string                  `json:"status"`
	CreatedAt        string                  `json:"created_at"`
	UpdatedAt        string                  `json:"updated_at"`
}

type RequestResponse struct {
	ID              string             `json:"id"`
	CampaignID      string             `json:"campaign_id"`
	RecipientEmail  string             `json:"recipient_email"`
	RecipientName   string             `json:"recipient_name"`
	CCEmails        []string           `json:"cc_emails"`
	DelegateEmail   string             `json:"delegate_email,omitempty"`
	Deadline        string             `json:"deadline"`
	Status          string             `json:"status"`
	ReminderCount   int                `json:"reminder_count"`
	EscalationLevel int                `json:"escalation_level"`
	LastReminderAt  *string            `json:"last_reminder_at,omitempty"`
	TokenExpiresAt  *string            `json:"token_expires_at,omitempty"`
	CreatedAt       string             `json:"created_at"`
	UpdatedAt       string             `json:"updated_at"`
	ClosedAt        *string            `json:"closed_at,omitempty"`
	Evidence        []EvidenceResponse `json:"evidence"`
}

type EvidenceResponse struct {
	ID              string  `json:"id"`
	RequestID       string  `json:"request_id"`
	Name            string  `json:"name"`
	Type            string  `json:"type"`
	IsMandatory     bool    `json:"is_mandatory"`
	Instructions    string  `json:"instructions,omitempty"`
	Status          string  `json:"status"`
	RejectionReason string  `json:"rejection_reason,omitempty"`
	ValidatedBy     string  `json:"validated_by,omitempty"`
	ValidatedAt     *string `json:"validated_at,omitempty"`
	FileSize        *int64  `json:"file_size,omitempty"`
	MimeType        string  `json:"mime_type,omitempty"`
	ArchivePath     string  `json:"archive_path,omitempty"`
	ArchiveURL      string  `json:"archive_url,omitempty"`
}

type SubmissionResponse struct {
	ID             string         `json:"id"`
	RequestID      string         `json:"request_id"`
	SubmitterEmail string         `json:"submitter_email"`
	Notes          string         `json:"notes,omitempty"`
	IPAddress      string         `json:"ip_address,omitempty"`
	UserAgent      string         `json:"user_agent,omitempty"`
	SubmittedAt    string         `json:"submitted_at"`
	Files          []FileResponse `json:"files"`
}

type FileResponse struct {
	ID           string `json:"id"`
	EvidenceID   string `json:"evidence_id"`
	OriginalName string `json:"original_name"`
	StoredName   string `json:"stored_name"`
	MimeType     string `json:"mime_type"`
	Size         int64  `json:"size"`
	ArchivePath  string `json:"archive_path,omitempty"`
	ArchiveURL   string `json:"archive_url,omitempty"`
	CreatedAt    string `json:"created_at"`
}

type AuditEntryResponse struct {
	ID         string         `json:"id"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Action     string         `json:"action"`
	Actor      string         `json:"actor"`
	ActorIP    string         `json:"actor_ip,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CampaignID string         `json:"campaign_id,omitempty"`
	CreatedAt  string         `json:"created_at"`
}

type UserResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Department  string `json:"department,omitempty"`
	Role        string `json:"role"`
	CreatedAt   string `json:"created_at"`
}

type ReminderResponse struct {
	RequestID       string   `json:"request_id"`
	CampaignID      string   `json:"campaign_id"`
	ControlCode     string   `json:"control_code"`
	RecipientEmail  string   `json:"recipient_email"`
	RecipientName   string   `json:"recipient_name"`
	CCEmails        []string `json:"cc_emails"`
	DelegateEmail   string   `json:"delegate_email,omitempty"`
	Deadline        string   `json:"deadline"`
	ReminderCount   int      `json:"reminder_count"`
	EscalationLevel int      `json:"escalation_level"`
	CCDelegate      bool     `json:"cc_delegate"`
	CCSuperior      bool     `json:"cc_superior"`
	SuperiorEmail   string   `json:"superior_email,omitempty"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := formatTime(*t)
	return &formatted
}

func ToCampaignResponse(c domain.Campaign) CampaignResponse {
	return CampaignResponse{
		ID:               c.ID,
		Name:             c.Name,
		ControlCode:      c.ControlCode,
		Description:      c.Description,
		OwnerUserID:      c.OwnerUserID,
		BackupUserID:     c.BackupUserID,
		StartDate:        formatTime(c.StartDate),
		EndDate:          formatTime(c.EndDate),
		ReminderPolicy:   c.ReminderPolicy,
		EscalationPolicy: c.EscalationPolicy,
		EmailTemplate:    c.EmailTemplate,
		Status:           string(c.Status),
		CreatedAt:        formatTime(c.CreatedAt),
		UpdatedAt:        formatTime(c.UpdatedAt),
	}
}

func ToRequestResponse(r domain.Request) RequestResponse {
	resp := RequestResponse{
		ID:              r.ID,
		CampaignID:      r.CampaignID,
		RecipientEmail:  r.RecipientEmail,
		RecipientName:   r.RecipientName,
		CCEmails:        r.CCEmails,
		DelegateEmail:   r.DelegateEmail,
		Deadline:        formatTime(r.Deadline),
		Status:          string(r.Status),
		ReminderCount:   r.ReminderCount,
		EscalationLevel: r.EscalationLevel,
		LastReminderAt:  formatTimePtr(r.LastReminderAt),
		TokenExpiresAt:  formatTimePtr(r.TokenExpiresAt),
		CreatedAt:       formatTime(r.CreatedAt),
		UpdatedAt:       formatTime(r.UpdatedAt),
		ClosedAt:        formatTimePtr(r.ClosedAt),
		Evidence:        ToEvidenceList(r.Evidence),
	}
	if resp.CCEmails == nil {
		resp.CCEmails = []string{}
	}
	return resp
}

func ToEvidenceResponse(e domain.EvidenceItem) EvidenceResponse {
	return EvidenceResponse{
		ID:              e.ID,
		RequestID:       e.RequestID,
		Name:            e.Name,
		Type:            string(e.Type),
		IsMandatory:     e.IsMandatory,
		Instructions:    e.Instructions,
		Status:          string(e.Status),
		RejectionReason: e.RejectionReason,
		ValidatedBy:     e.ValidatedBy,
		ValidatedAt:     formatTimePtr(e.ValidatedAt),
		FileSize:        e.FileSize,
		MimeType:        e.MimeType,
		ArchivePath:     e.ArchivePath,
		ArchiveURL:      e.ArchiveURL,
	}
}

func ToEvidenceList(items []domain.EvidenceItem) []EvidenceResponse {
	out := make([]EvidenceResponse, 0, len(items))
	for _, item := range items {
		out = append(out, ToEvidenceResponse(item))
	}
	return out
}

func ToSubmissionResponse(s domain.Submission) SubmissionResponse {
	resp := SubmissionResponse{
		ID:             s.ID,
		RequestID:      s.RequestID,
		SubmitterEmail: s.SubmitterEmail,
		Notes:          s.Notes,
		IPAddress:      s.IPAddress,
		UserAgent:      s.UserAgent,
		SubmittedAt:    formatTime(s.SubmittedAt),
		Files:          make([]FileResponse, 0, len(s.Files)),
	}
	for _, f := range s.Files {
		resp.Files = append(resp.Files, FileResponse{
			ID:           f.ID,
			EvidenceID:   f.EvidenceID,
			OriginalName: f.OriginalName,
			StoredName:   f.StoredName,
			MimeType:     f.MimeType,
			Size:         f.Size,
			ArchivePath:  f.ArchivePath,
			ArchiveURL:   f.ArchiveURL,
			CreatedAt:    formatTime(f.CreatedAt),
		})
	}
	return resp
}

func ToAuditEntryResponse(e domain.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:         e.ID,
		EntityType: string(e.EntityType),
		EntityID:   e.EntityID,
		Action:     string(e.Action),
		Actor:      e.Actor,
		ActorIP:    e.ActorIP,
		Details:    e.Details,
		CampaignID: e.CampaignID,
		CreatedAt:  formatTime(e.CreatedAt),
	}
}

func ToUserResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Department:  u.Department,
		Role:        string(u.Role),
		CreatedAt:   formatTime(u.CreatedAt),
	}
}

func ToReminderResponse(r usecase.PendingReminder) ReminderResponse {
	resp := ReminderResponse{
		RequestID:       r.RequestID,
		CampaignID:      r.CampaignID,
		ControlCode:     r.ControlCode,
		RecipientEmail:  r.RecipientEmail,
		RecipientName:   r.RecipientName,
		CCEmails:        r.CCEmails,
		DelegateEmail:   r.DelegateEmail,
		Deadline:        formatTime(r.Deadline),
		ReminderCount:   r.ReminderCount,
		EscalationLevel: r.EscalationLevel.Level,
		CCDelegate:      r.EscalationLevel.CCDelegate,
		CCSuperior:      r.EscalationLevel.CCSuperior,
		SuperiorEmail:   r.EscalationLevel.SuperiorEmail,
	}
	if resp.CCEmails == nil {
		resp.CCEmails = []string{}
	}
	return resp
}
