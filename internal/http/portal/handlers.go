package portal

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"docrequest/internal/http/common"
	"docrequest/internal/usecase"

	"github.com/gin-gonic/gin"
)

const (
	SessionCookie = "portal_session"
	SessionHeader = "X-Portal-Session"

	// multipartOverhead covers boundaries, part headers and text fields.
	multipartOverhead = 1 << 20
)

type Handler struct {
	Service     *usecase.PortalService
	MaxFileSize int64
	// MaxBodySize caps the whole upload body. Zero disables the cap.
	MaxBodySize int64
}

func NewHandler(service *usecase.PortalService, maxFileSize int64) *Handler {
	return &Handler{Service: service, MaxFileSize: maxFileSize, MaxBodySize: UploadBodyLimit(maxFileSize)}
}

// UploadBodyLimit is the largest body a full batch of maximum size files can need.
func UploadBodyLimit(maxFileSize int64) int64 {
	if maxFileSize <= 0 {
		return 0
	}
	return int64(usecase.MaxFilesPerSubmission)*maxFileSize + multipartOverhead
}

type viewResponse struct {
	RequestID      string                    `json:"request_id"`
	CampaignName   string                    `json:"campaign_name"`
	ControlCode    string                    `json:"control_code"`
	RecipientName  string                    `json:"recipient_name"`
	RecipientEmail string                    `json:"recipient_email"`
	Deadline       string                    `json:"deadline"`
	Status         string                    `json:"status"`
	Evidence       []common.EvidenceResponse `json:"evidence"`
	RequiresOTP    bool                      `json:"requires_otp"`
}

func toViewResponse(view usecase.PortalView) viewResponse {
	return viewResponse{
		RequestID:      view.Request.ID,
		CampaignName:   view.Campaign.Name,
		ControlCode:    view.Campaign.ControlCode,
		RecipientName:  view.Request.RecipientName,
		RecipientEmail: view.Request.RecipientEmail,
		Deadline:       view.Request.Deadline.UTC().Format(time.DateOnly),
		Status:         string(view.Request.Status),
		Evidence:       common.ToEvidenceList(view.Request.Evidence),
		RequiresOTP:    view.RequiresOTP,
	}
}

func (h *Handler) HandleOpen(c *gin.Context) {
	view, err := h.Service.Open(c.Request.Context(), c.Param("token"), c.ClientIP())
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, toViewResponse(view))
}

func (h *Handler) HandleVerifyOTP(c *gin.Context) {
	var body struct {
		Code string `json:"code"`
	}
	if !common.BindJSON(c, &body) {
		return
	}
	session, expiresAt, err := h.Service.VerifyOTP(c.Request.Context(), c.Param("token"), strings.TrimSpace(body.Code))
	if err != nil {
		common.WriteError(c, err)
		return
	}
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookie, session, maxAge, "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, gin.H{
		"session_token": session,
		"expires_at":    expiresAt.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) HandleUpload(c *gin.Context) {
	claims, err := h.Service.Authorize(c.Request.Context(), c.Param("token"), sessionToken(c))
	if err != nil {
		common.WriteError(c, err)
		return
	}
	if h.MaxBodySize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxBodySize)
	}
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, common.ErrorResponse{
				Code:    "PAYLOAD_TOO_LARGE",
				Message: "upload exceeds the maximum request size",
				Details: map[string]any{"max_bytes": h.MaxBodySize},
			})
			return
		}
		common.WriteErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "multipart form required")
		return
	}
	headers := formFiles(form)
	if len(headers) == 0 {
		common.WriteErrorCode(c, http.StatusBadRequest, "VALIDATION_ERROR", "at least one file is required")
		return
	}
	if len(headers) > usecase.MaxFilesPerSubmission {
		common.WriteErrorCode(c, http.StatusBadRequest, "VALIDATION_ERROR", "too many files")
		return
	}
	evidenceIDs, err := ParseEvidenceIDs(formValues(form, "evidence_ids"))
	if err != nil {
		common.WriteErrorCode(c, http.StatusBadRequest, "VALIDATION_ERROR", "evidence_ids must be a JSON array or repeated field")
		return
	}
	if len(evidenceIDs) != len(headers) {
		common.WriteErrorCode(c, http.StatusBadRequest, "VALIDATION_ERROR", "evidence_ids must match files one to one")
		return
	}

	uploads := make([]usecase.UploadFile, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	for i, fh := range headers {
		if h.MaxFileSize > 0 && fh.Size > h.MaxFileSize {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, common.ErrorResponse{
				Code:    "FILE_TOO_LARGE",
				Message: "file exceeds the maximum size",
				Details: map[string]any{"file_name": fh.Filename, "max_bytes": h.MaxFileSize},
			})
			return
		}
		f, err := fh.Open()
		if err != nil {
			common.WriteErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "unreadable file")
			return
		}
		opened = append(opened, f)
		mimeType := fh.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		uploads = append(uploads, usecase.UploadFile{
			EvidenceID: evidenceIDs[i],
			FileName:   fh.Filename,
			MimeType:   mimeType,
			Content:    f,
		})
	}

	result, err := h.Service.SubmitFor(c.Request.Context(), claims, usecase.PortalUpload{
		Notes:     strings.TrimSpace(firstValue(form, "notes")),
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Files:     uploads,
	})
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"submission":     common.ToSubmissionResponse(result.Submission),
		"request_status": string(result.RequestStatus),
	})
}

func (h *Handler) HandleStatus(c *gin.Context) {
	view, err := h.Service.Status(c.Request.Context(), c.Param("token"))
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, toViewResponse(view))
}

// ParseEvidenceIDs accepts either one JSON array string or the ids as
// repeated form values.
func ParseEvidenceIDs(values []string) ([]string, error) {
	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		var ids []string
		if err := json.Unmarshal([]byte(values[0]), &ids); err != nil {
			return nil, err
		}
		values = ids
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out, nil
}

func sessionToken(c *gin.Context) string {
	if v := strings.TrimSpace(c.GetHeader(SessionHeader)); v != "" {
		return v
	}
	if v, err := c.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(v)
	}
	return ""
}

func formFiles(form *multipart.Form) []*multipart.FileHeader {
	if files := form.File["files[]"]; len(files) > 0 {
		return files
	}
	return form.File["files"]
}

func formValues(form *multipart.Form, name string) []string {
	if values := form.Value[name+"[]"]; len(values) > 0 {
		return values
	}
	return form.Value[name]
}

func firstValue(form *multipart.Form, name string) string {
	if values := form.Value[name]; len(values) > 0 {
		return values[0]
	}
	return ""
}
