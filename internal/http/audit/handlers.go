package audit

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
	Recorder *usecase.AuditRecorder
}

func NewHandler(recorder *usecase.AuditRecorder) *Handler {
	return &Handler{Recorder: recorder}
}

func (h *Handler) HandleList(c *gin.Context) {
	filter := usecase.AuditFilter{
		EntityType: domain.AuditEntityType(strings.ToUpper(strings.TrimSpace(c.Query("entity_type")))),
		EntityID:   strings.TrimSpace(c.Query("entity_id")),
		Action:     domain.AuditAction(strings.ToUpper(strings.TrimSpace(c.Query("action")))),
		CampaignID: strings.TrimSpace(c.Query("campaign_id")),
		Page:       common.QueryInt(c, "page", 1),
		Limit:      common.QueryInt(c, "limit", 0),
	}
	var ok bool
	if filter.From, ok = queryTime(c, "from"); !ok {
		return
	}
	if filter.To, ok = queryTime(c, "to"); !ok {
		return
	}
	page, err := h.Recorder.List(c.Request.Context(), filter)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	items := make([]common.AuditEntryResponse, 0, len(page.Items))
	for _, e := range page.Items {
		items = append(items, common.ToAuditEntryResponse(e))
	}
	c.JSON(http.StatusOK, gin.H{
		"items":       items,
		"total":       page.Total,
		"page":        page.Page,
		"limit":       page.Limit,
		"total_pages": page.TotalPages,
	})
}

func queryTime(c *gin.Context, name string) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	t, err := common.ParseTime(raw)
	if err != nil {
		common.WriteErrorCode(c, http.StatusBadRequest, "VALIDATION_ERROR", name+" must be RFC3339 or YYYY-MM-DD")
		return nil, false
	}
	return &t, true
}
