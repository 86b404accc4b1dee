package evidence

import (
	"net/http"

	"docrequest/internal/domain"
	"docrequest/internal/http/common"
	"docrequest/internal/usecase"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Service  *usecase.EvidenceService
	Requests usecase.RequestLookup
	Scope    common.ScopeChecker
}

func NewHandler(service *usecase.EvidenceService, requests usecase.RequestLookup, scope common.ScopeChecker) *Handler {
	return &Handler{Service: service, Requests: requests, Scope: scope}
}

func (h *Handler) HandleListByRequest(c *gin.Context) {
	requestID, ok := common.ParseUUIDParam(c, "request_id")
	if !ok {
		return
	}
	if !h.checkRequest(c, requestID) {
		return
	}
	items, err := h.Service.ListByRequest(c.Request.Context(), requestID)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": common.ToEvidenceList(items)})
}

func (h *Handler) HandleValidate(c *gin.Context) {
	principal, item, ok := h.loadScoped(c)
	if !ok {
		return
	}
	updated, err := h.Service.Validate(c.Request.Context(), item.ID, common.ActorFor(c, principal))
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"evidence": common.ToEvidenceResponse(updated)})
}

func (h *Handler) HandleReject(c *gin.Context) {
	principal, item, ok := h.loadScoped(c)
	if !ok {
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if !common.BindJSON(c, &body) {
		return
	}
	updated, err := h.Service.Reject(c.Request.Context(), usecase.RejectInput{
		EvidenceID: item.ID,
		Reason:     body.Reason,
		Actor:      common.ActorFor(c, principal),
	})
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"evidence": common.ToEvidenceResponse(updated)})
}

func (h *Handler) HandleSubsanation(c *gin.Context) {
	principal, item, ok := h.loadScoped(c)
	if !ok {
		return
	}
	updated, err := h.Service.Subsanation(c.Request.Context(), item.ID, common.ActorFor(c, principal))
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"evidence": common.ToEvidenceResponse(updated)})
}

func (h *Handler) loadScoped(c *gin.Context) (domain.Principal, domain.EvidenceItem, bool) {
	principal, ok := common.PrincipalFromContext(c)
	if !ok {
		return domain.Principal{}, domain.EvidenceItem{}, false
	}
	id, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return domain.Principal{}, domain.EvidenceItem{}, false
	}
	item, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		common.WriteError(c, err)
		return domain.Principal{}, domain.EvidenceItem{}, false
	}
	if !h.checkRequest(c, item.RequestID) {
		return domain.Principal{}, domain.EvidenceItem{}, false
	}
	return principal, item, true
}

func (h *Handler) checkRequest(c *gin.Context, requestID string) bool {
	if h.Scope == nil || h.Requests == nil {
		return true
	}
	principal, ok := common.PrincipalFromContext(c)
	if !ok {
		return false
	}
	req, err := h.Requests.Get(c.Request.Context(), requestID)
	if err != nil {
		common.WriteError(c, err)
		return false
	}
	if err := h.Scope.CheckAccess(c.Request.Context(), principal, req.CampaignID); err != nil {
		common.WriteError(c, err)
		return false
	}
	return true
}
