package staff

import (
	"net/http"
	"time"

	"docrequest/internal/domain"
	"docrequest/internal/http/common"
	"docrequest/internal/usecase"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Service *usecase.AuthService
}

func NewHandler(service *usecase.AuthService) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) HandleLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !common.BindJSON(c, &req) {
		return
	}
	result, err := h.Service.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      result.Token,
		"expires_at": result.ExpiresAt.UTC().Format(time.RFC3339),
		"user":       common.ToUserResponse(result.User),
	})
}

func (h *Handler) HandleLogout(c *gin.Context) {
	principal, ok := common.PrincipalFromContext(c)
	if !ok {
		return
	}
	h.Service.Logout(c.Request.Context(), principal, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

func (h *Handler) HandleMe(c *gin.Context) {
	principal, ok := common.PrincipalFromContext(c)
	if !ok {
		return
	}
	user, err := h.Service.Me(c.Request.Context(), principal)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": common.ToUserResponse(user)})
}

func (h *Handler) HandleListUsers(c *gin.Context) {
	users, err := h.Service.ListUsers(c.Request.Context())
	if err != nil {
		common.WriteError(c, err)
		return
	}
	items := make([]common.UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, common.ToUserResponse(u))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) HandleCreateUser(c *gin.Context) {
	var req struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
		Department  string `json:"department"`
		Password    string `json:"password"`
		Role        string `json:"role"`
	}
	if !common.BindJSON(c, &req) {
		return
	}
	user, err := h.Service.CreateUser(c.Request.Context(), usecase.NewUser{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Department:  req.Department,
		Password:    req.Password,
		Role:        domain.Role(req.Role),
	})
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": common.ToUserResponse(user)})
}
