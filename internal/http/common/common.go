package common

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"docrequest/internal/domain"
	"docrequest/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const principalKey = "principal"

type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// AuthMiddleware authenticates the bearer token and requires permission. An
// empty permission only authenticates.
func AuthMiddleware(authenticator domain.Authenticator, authorizer domain.Authorizer, permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authenticator == nil || authorizer == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Code: "INTERNAL", Message: "auth misconfigured"})
			return
		}
		token := extractBearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Code: "UNAUTHORIZED", Message: "missing bearer token"})
			return
		}
		principal, err := authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Code: "UNAUTHORIZED", Message: "authentication failed"})
			return
		}
		if permission != "" {
			if err := authorizer.Require(c.Request.Context(), principal, permission); err != nil {
				WriteError(c, err)
				return
			}
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

func PrincipalFromContext(c *gin.Context) (domain.Principal, bool) {
	value, ok := c.Get(principalKey)
	if !ok {
		WriteErrorCode(c, http.StatusInternalServerError, "INTERNAL", "principal missing")
		return domain.Principal{}, false
	}
	principal, ok := value.(domain.Principal)
	if !ok {
		WriteErrorCode(c, http.StatusInternalServerError, "INTERNAL", "principal invalid")
		return domain.Principal{}, false
	}
	return principal, true
}

func ActorFor(c *gin.Context, principal domain.Principal) usecase.Actor {
	return usecase.Actor{ID: principal.Subject, Email: principal.Email, IP: c.ClientIP()}
}

// ScopeChecker rejects principals that may not touch campaignID.
type ScopeChecker interface {
	CheckAccess(ctx context.Context, principal domain.Principal, campaignID string) error
}

func ParseUUIDParam(c *gin.Context, name string) (string, bool) {
	value := strings.TrimSpace(c.Param(name))
	if value == "" {
		WriteErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", name+" is required")
		return "", false
	}
	if _, err := uuid.Parse(value); err != nil {
		WriteErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", name+" must be a UUID")
		return "", false
	}
	return value, true
}

func BindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		WriteErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return false
	}
	return true
}

// ParseTime accepts RFC3339 timestamps and plain YYYY-MM-DD dates.
func ParseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func QueryInt(c *gin.Context, name string, def int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func WriteError(c *gin.Context, err error) {
	if authz, ok := domain.IsAuthzError(err); ok {
		WriteErrorCode(c, http.StatusForbidden, authz.Code, "forbidden")
		return
	}
	status, code, message := classify(err)
	resp := ErrorResponse{Code: code, Message: message}
	if derr, ok := domain.AsError(err); ok && status != http.StatusInternalServerError {
		if derr.Message != "" {
			resp.Message = derr.Message
		}
		resp.Details = derr.Details
	}
	if status == http.StatusInternalServerError {
		log.Printf("request %s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, resp)
}

func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrRequestClosed):
		return http.StatusForbidden, "REQUEST_CLOSED", "request is closed"
	case errors.Is(err, domain.ErrTokenMismatch):
		return http.StatusUnauthorized, "TOKEN_MISMATCH", "token does not match"
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, "INVALID_TOKEN", "invalid or expired token"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "not found"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "CONFLICT", "conflict"
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR", "validation failed"
	default:
		return http.StatusInternalServerError, "INTERNAL", "internal error"
	}
}

func WriteErrorCode(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Code: code, Message: message})
}

func extractBearerToken(value string) string {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(strings.ToLower(value), "bearer ") {
		return ""
	}
	return strings.TrimSpace(value[len("bearer "):])
}
