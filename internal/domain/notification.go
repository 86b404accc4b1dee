package domain

type EmailKind string

const (
	EmailRequest  EmailKind = "request"
	EmailReminder EmailKind = "reminder"
	EmailOTP      EmailKind = "otp"
	EmailClosed   EmailKind = "closed"
)

const (
	ImportanceHigh   = "High"
	ImportanceNormal = "Normal"
)

type EmailMessage struct {
	Kind        EmailKind `json:"kind"`
	To          string    `json:"to"`
	CC          []string  `json:"cc,omitempty"`
	Subject     string    `json:"subject"`
	BodyHTML    string    `json:"body_html"`
	Importance  string    `json:"importance,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
	ControlCode string    `json:"control_code,omitempty"`
	Level       int       `json:"level,omitempty"`
	OTPCode     string    `json:"otp_code,omitempty"`
}

type ArchiveMetadata struct {
	RequestID  string `json:"request_id"`
	EvidenceID string `json:"evidence_id"`
	UploadedBy string `json:"uploaded_by"`
	UploadedAt string `json:"uploaded_at"`
}

type ArchiveRequest struct {
	FileContentBase64 string          `json:"file_content_base64"`
	FileName          string          `json:"file_name"`
	FolderPath        string          `json:"folder_path"`
	Metadata          ArchiveMetadata `json:"metadata"`
}

type ArchiveResult struct {
	Status string `json:"status"`
	Path   string `json:"sp_path"`
	URL    string `json:"sp_url"`
}
