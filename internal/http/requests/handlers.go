package requests

import (
	"net/http"
	"strings"

	"docrequest/internal/domain"
	"docrequest/internal/http/common"
	"docrequest/internal/usecase"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Service     *usecase.RequestService
	Reminders   *usecase.ReminderScheduler
	Submissions *usecase.SubmissionPipeline
	Scope       common.ScopeChecker
}

func NewHandler(service *usecase.RequestService, reminders *usecase.ReminderScheduler, submissions *usecase.SubmissionPipeline, scope common.ScopeChecker) *Handler {
	return &Handler{Service: service, Reminders: reminders, Submissions: submissions, Scope: scope}
}

func (h *Handler) HandleGet(c *gin.Context) {
	req, ok := h.loadScoped(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": common.ToRequestResponse(req)})
}

func (h *Handler) HandleUpdate(c *gin.Context) {
	principal, ok := common.PrincipalFromContext(c)
	if !ok {
		return
	}
	req, ok := h.loadScoped(c)
	if !ok {
		return
	}
	var body struct {
		RecipientEmail *string  `json:"recipient_email"`
		RecipientName  *string  `json:"recipient_name"`
		CCEmails       []string `json:"cc_emails"`
		DelegateEmail  *string  `json:"delegate_email"`
		Deadline       *string  `json:"deadline"`
	}
	if !common.BindJSON(c, &body) {
		return
	}
	input := usecase.UpdateRecipientInput{
		RequestID:      req.ID,
		RecipientEmail: body.RecipientEmail,
		RecipientName:  body.RecipientName,
		CCEmails:       body.CCEmails,
		DelegateEmail:  body.DelegateEmail,
		Actor:          common.ActorFor(c, principal),
	}
	if body.Deadline != nil {
		deadline, err := common.ParseTime(*body.Deadline)
		if err != nil {
			common.WriteErrorCode(c, http.StatusBadRequest, "VALIDATION_ERROR", "deadline must be RFC3339 or YYYY-MM-DD")
			return
		}
		input.Deadline = &deadline
	}
	updated, err := h.Service.UpdateRecipient(c.Request.Context(), input)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": common.ToRequestResponse(updated)})
}

func (h *Handler) HandleSend(c *gin.Context) {
	principal, ok := common.PrincipalFromContext(c)
	if !ok {
		return
	}
	req, ok := h.loadScoped(c)
	if !ok {
		return
	}
	result, err := h.Service.Send(c.Request.Context(), req.ID, common.ActorFor(c, principal))
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"request":    common.ToRequestResponse(result.Request),
		"access_url": result.AccessURL,
	})
}

func (h *Handler) HandleClose(c *gin.Context) {
	principal, ok := common.PrincipalFromContext(c)
	if !ok {
		return
	}
	req, ok := h.loadScoped(c)
	if !ok {
		return
	}
	closed, err := h.Service.Close(c.Request.Context(), req.ID, common.ActorFor(c, principal))
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": common.ToRequestResponse(closed)})
}

// HandlePendingReminders marks overdue requests first so statuses are current.
func (h *Handler) HandlePendingReminders(c *gin.Context) {
	principal, ok := common.PrincipalFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.Service.MarkOverdue(ctx); err != nil {
		common.WriteError(c, err)
		return
	}
	pending, err := h.Reminders.PendingReminders(ctx)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	allowed := make(map[string]bool)
	items := make([]common.ReminderResponse, 0, len(pending))
	for _, p := range pending {
		ok, seen := allowed[p.CampaignID]
		if !seen {
			ok = h.Scope == nil || h.Scope.CheckAccess(ctx, principal, p.CampaignID) == nil
			allowed[p.CampaignID] = ok
		}
		if ok {
			items = append(items, common.ToReminderResponse(p))
		}
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *Handler) HandleReminderSent(c *gin.Context) {
	principal, ok := common.PrincipalFromContext(c)
	if !ok {
		return
	}
	req, ok := h.loadScoped(c)
	if !ok {
		return
	}
	var body struct {
		Level int `json:"level"`
	}
	if !common.BindJSON(c, &body) {
		return
	}
	if err := h.Reminders.RecordReminderSent(c.Request.Context(), req.ID, body.Level, common.ActorFor(c, principal)); err != nil {
		common.WriteError(c, err)
		return
	}
	updated, err := h.Service.Get(c.Request.Context(), req.ID)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": common.ToRequestResponse(updated)})
}

func (h *Handler) HandleListSubmissions(c *gin.Context) {
	req, ok := h.loadScoped(c)
	if !ok {
		return
	}
	subs, err := h.Submissions.ListByRequest(c.Request.Context(), req.ID)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	items := make([]common.SubmissionResponse, 0, len(subs))
	for _, s := range subs {
		items = append(items, common.ToSubmissionResponse(s))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) loadScoped(c *gin.Context) (domain.Request, bool) {
	principal, ok := common.PrincipalFromContext(c)
	if !ok {
		return domain.Request{}, false
	}
	id, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return domain.Request{}, false
	}
	req, err := h.Service.Get(c.Request.Context(), strings.TrimSpace(id))
	if err != nil {
		common.WriteError(c, err)
		return domain.Request{}, false
	}
	if h.Scope != nil {
		if err := h.Scope.CheckAccess(c.Request.Context(), principal, req.CampaignID); err != nil {
			common.WriteError(c, err)
			return domain.Request{}, false
		}
	}
	return req, true
}
