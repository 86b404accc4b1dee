package campaigns

import (
	"net/http"
	"strings"
	"time"

	"docrequest/internal/domain"
	"docrequest/internal/http/common"
	"docrequest/internal/usecase"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Service   *usecase.CampaignService
	Requests  *usecase.RequestService
	Dashboard *usecase.DashboardService
}

func NewHandler(service *usecase.CampaignService, requests *usecase.RequestService, dashboard *usecase.DashboardService) *Handler {
	return &Handler{Service: service, Requests: requests, Dashboard: dashboard}
}

type campaignBody struct {
	Name             *string                  `json:"name"`
	ControlCode      string                   `json:"control_code"`
	Description      *string                  `json:"description"`
	OwnerUserID      string                   `json:"owner_user_id"`
	BackupUserID     *string                  `json:"backup_user_id"`
	StartDate        *string                  `json:"start_date"`
	EndDate          *string                  `json:"end_date"`
	ReminderPolicy   *domain.ReminderPolicy   `json:"reminder_policy"`
	EscalationPolicy *domain.EscalationPolicy `json:"escalation_policy"`
	EmailTemplate    *string                  `json:"email_template"`
}

type requestBody struct {
	RecipientEmail string         `json:"recipient_email"`
	RecipientName  string         `json:"recipient_name"`
	CCEmails       []string       `json:"cc_emails"`
	DelegateEmail  string         `json:"delegate_email"`
	Deadline       string         `json:"deadline"`
	Evidence       []evidenceBody `json:"evidence"`
}

type evidenceBody struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	IsMandatory  *bool  `json:"is_mandatory"`
	Instructions string `json:"instructions"`
}

func (h *Handler) HandleCreate(c *gin.Context) {
	principal, ok := common.PrincipalFromContext(c)
	if !ok {
		return
	}
	var body campaignBody
	if !common.BindJSON(c, &body) {
		return
	}
	start, end, ok := parseDates(c, body.StartDate, body.EndDate)
	if !ok {
		return
	}
	input := usecase.CampaignInput{
		Name:             strings.TrimSpace(deref(body.Name)),
		ControlCode:      strings.TrimSpace(body.ControlCode),
		Description:      deref(body.Description),
		OwnerUserID:      body.OwnerUserID,
		BackupUserID:     deref(body.BackupUserID),
		ReminderPolicy:   body.ReminderPolicy,
		EscalationPolicy: body.EscalationPolicy,
		EmailTemplate:    deref(body.EmailTemplate),
		Actor:            common.ActorFor(c, principal),
	}
	if start != nil {
		input.StartDate = *start
	}
	if end != nil {
		input.EndDate = *end
	}
	campaign, err := h.Service.Create(c.Request.Context(), input)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"campaign": common.ToCampaignResponse(campaign)})
}

func (h *Handler) HandleList(c *gin.Context) {
	principal, ok := common.PrincipalFromContext(c)
	if !ok {
		return
	}
	status := domain.CampaignStatus(strings.ToUpper(strings.TrimSpace(c.Query("status"))))
	items, err := h.Service.List(c.Request.Context(), principal, status)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	resp := make([]common.CampaignResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, common.ToCampaignResponse(item))
	}
	c.JSON(http.StatusOK, gin.H{"items": resp})
}

func (h *Handler) HandleGet(c *gin.Context) {
	campaign, ok := h.loadScoped(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaign": common.ToCampaignResponse(campaign)})
}

func (h *Handler) HandleUpdate(c *gin.Context) {
	principal, ok := common.PrincipalFromContext(c)
	if !ok {
		return
	}
	campaign, ok := h.loadScoped(c)
	if !ok {
		return
	}
	var body campaignBody
	if !common.BindJSON(c, &body) {
		return
	}
	start, end, ok := parseDates(c, body.StartDate, body.EndDate)
	if !ok {
		return
	}
	updated, err := h.Service.Update(c.Request.Context(), usecase.CampaignUpdate{
		CampaignID:       campaign.ID,
		Name:             body.Name,
		Description:      body.Description,
		BackupUserID:     body.BackupUserID,
		StartDate:        start,
		EndDate:          end,
		ReminderPolicy:   body.ReminderPolicy,
		EscalationPolicy: body.EscalationPolicy,
		EmailTemplate:    body.EmailTemplate,
		Actor:            common.ActorFor(c, principal),
	})
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaign": common.ToCampaignResponse(updated)})
}

func (h *Handler) HandleActivate(c *gin.Context) {
	principal, ok := common.PrincipalFromContext(c)
	if !ok {
		return
	}
	campaign, ok := h.loadScoped(c)
	if !ok {
		return
	}
	activated, err := h.Service.Activate(c.Request.Context(), campaign.ID, common.ActorFor(c, principal))
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaign": common.ToCampaignResponse(activated)})
}

func (h *Handler) HandleCreateRequests(c *gin.Context) {
	principal, ok := common.PrincipalFromContext(c)
	if !ok {
		return
	}
	campaign, ok := h.loadScoped(c)
	if !ok {
		return
	}
	var body struct {
		Requests []requestBody `json:"requests"`
	}
	if !common.BindJSON(c, &body) {
		return
	}
	inputs := make([]usecase.NewRequest, 0, len(body.Requests))
	for i, r := range body.Requests {
		deadline, err := common.ParseTime(r.Deadline)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, common.ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "deadline must be RFC3339 or YYYY-MM-DD",
				Details: map[string]any{"index": i},
			})
			return
		}
		in := usecase.NewRequest{
			RecipientEmail: strings.TrimSpace(r.RecipientEmail),
			RecipientName:  strings.TrimSpace(r.RecipientName),
			CCEmails:       r.CCEmails,
			DelegateEmail:  strings.TrimSpace(r.DelegateEmail),
			Deadline:       deadline,
		}
		for _, e := range r.Evidence {
			mandatory := true
			if e.IsMandatory != nil {
				mandatory = *e.IsMandatory
			}
			in.Evidence = append(in.Evidence, usecase.NewEvidence{
				Name:         strings.TrimSpace(e.Name),
				Type:         domain.EvidenceType(strings.ToUpper(strings.TrimSpace(e.Type))),
				IsMandatory:  mandatory,
				Instructions: e.Instructions,
			})
		}
		inputs = append(inputs, in)
	}
	created, err := h.Service.CreateRequests(c.Request.Context(), campaign.ID, inputs, common.ActorFor(c, principal))
	if err != nil {
		common.WriteError(c, err)
		return
	}
	items := make([]common.RequestResponse, 0, len(created))
	for _, r := range created {
		items = append(items, common.ToRequestResponse(r))
	}
	c.JSON(http.StatusCreated, gin.H{"items": items})
}

func (h *Handler) HandleListRequests(c *gin.Context) {
	campaign, ok := h.loadScoped(c)
	if !ok {
		return
	}
	status := domain.RequestStatus(strings.ToUpper(strings.TrimSpace(c.Query("status"))))
	if status != "" && !status.Valid() {
		common.WriteErrorCode(c, http.StatusBadRequest, "VALIDATION_ERROR", "unknown status")
		return
	}
	items, err := h.Requests.ListByCampaign(c.Request.Context(), campaign.ID, status)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	resp := make([]common.RequestResponse, 0, len(items))
	for _, r := range items {
		resp = append(resp, common.ToRequestResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"items": resp})
}

func (h *Handler) HandleDashboard(c *gin.Context) {
	campaign, ok := h.loadScoped(c)
	if !ok {
		return
	}
	dashboard, err := h.Dashboard.Campaign(c.Request.Context(), campaign.ID)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

func (h *Handler) loadScoped(c *gin.Context) (domain.Campaign, bool) {
	principal, ok := common.PrincipalFromContext(c)
	if !ok {
		return domain.Campaign{}, false
	}
	id, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return domain.Campaign{}, false
	}
	campaign, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		common.WriteError(c, err)
		return domain.Campaign{}, false
	}
	if err := usecase.CanAccessCampaign(principal, campaign); err != nil {
		common.WriteError(c, err)
		return domain.Campaign{}, false
	}
	return campaign, true
}

func parseDates(c *gin.Context, rawStart, rawEnd *string) (*time.Time, *time.Time, bool) {
	var start, end *time.Time
	if rawStart != nil {
		t, err := common.ParseTime(*rawStart)
		if err != nil {
			common.WriteErrorCode(c, http.StatusBadRequest, "VALIDATION_ERROR", "start_date must be RFC3339 or YYYY-MM-DD")
			return nil, nil, false
		}
		start = &t
	}
	if rawEnd != nil {
		t, err := common.ParseTime(*rawEnd)
		if err != nil {
			common.WriteErrorCode(c, http.StatusBadRequest, "VALIDATION_ERROR", "end_date must be RFC3339 or YYYY-MM-DD")
			return nil, nil, false
		}
		end = &t
	}
	return start, end, true
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
