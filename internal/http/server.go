package http

import (
	"log"
	"net/http"

	"docrequest/internal/config"
	"docrequest/internal/domain"
	audithttp "docrequest/internal/http/audit"
	campaignhttp "docrequest/internal/http/campaigns"
	"docrequest/internal/http/common"
	evidencehttp "docrequest/internal/http/evidence"
	portalhttp "docrequest/internal/http/portal"
	requesthttp "docrequest/internal/http/requests"
	"docrequest/internal/http/staff"
	"docrequest/internal/usecase"

	"github.com/gin-gonic/gin"
)

type Server struct {
	cfg  config.Config
	r    *gin.Engine
	deps ServerDeps
}

type ServerDeps struct {
	Auth        *usecase.AuthService
	Campaigns   *usecase.CampaignService
	Requests    *usecase.RequestService
	Evidence    *usecase.EvidenceService
	Submissions *usecase.SubmissionPipeline
	Reminders   *usecase.ReminderScheduler
	Dashboard   *usecase.DashboardService
	Audit       *usecase.AuditRecorder
	Portal      *usecase.PortalService

	Authenticator domain.Authenticator
	Authorizer    domain.Authorizer
	RateLimiter   domain.RateLimiter

	// StorageMode is reported by /healthz: "db" or "no-db".
	StorageMode string
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{cfg: cfg, r: r, deps: deps}
	if s.deps.StorageMode == "" {
		s.deps.StorageMode = "no-db"
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.r
}

func (s *Server) Run() error {
	addr := s.cfg.HTTPAddr
	if addr == "" {
		addr = ":8080"
	}
	log.Printf("docrequest api listening on %s", addr)
	return s.r.Run(addr)
}

func (s *Server) routes() {
	s.r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "mode": s.deps.StorageMode})
	})

	window := s.cfg.RateLimitWindow()
	limit := func(name string, n int) gin.HandlerFunc {
		return common.RateLimit(s.deps.RateLimiter, domain.RateLimitPolicy{Name: name, Limit: n, Window: window}, s.cfg.RateLimitFailClosed)
	}
	limitRoute := func(name string, n int) gin.HandlerFunc {
		return common.RateLimit(s.deps.RateLimiter, domain.RateLimitPolicy{Name: name, Limit: n, Window: window, PerRoute: true}, s.cfg.RateLimitFailClosed)
	}
	auth := func(permission string) gin.HandlerFunc {
		return common.AuthMiddleware(s.deps.Authenticator, s.deps.Authorizer, permission)
	}

	staffHandler := staff.NewHandler(s.deps.Auth)
	campaignHandler := campaignhttp.NewHandler(s.deps.Campaigns, s.deps.Requests, s.deps.Dashboard)
	requestHandler := requesthttp.NewHandler(s.deps.Requests, s.deps.Reminders, s.deps.Submissions, s.deps.Campaigns)
	evidenceHandler := evidencehttp.NewHandler(s.deps.Evidence, s.deps.Requests, s.deps.Campaigns)
	auditHandler := audithttp.NewHandler(s.deps.Audit)
	portalHandler := portalhttp.NewHandler(s.deps.Portal, s.cfg.MaxFileSize())

	v1 := s.r.Group("/v1")

	authGroup := v1.Group("/auth", limit("api", s.cfg.RateLimitAPI))
	{
		authGroup.POST("/login", limitRoute("auth", s.cfg.RateLimitAuth), staffHandler.HandleLogin)
		authGroup.POST("/logout", auth(""), staffHandler.HandleLogout)
		authGroup.GET("/me", auth(""), staffHandler.HandleMe)
		authGroup.GET("/users", auth(domain.PermUserRead), staffHandler.HandleListUsers)
		authGroup.POST("/users", auth(domain.PermUserWrite), staffHandler.HandleCreateUser)
	}

	campaigns := v1.Group("/campaigns", limit("api", s.cfg.RateLimitAPI))
	{
		campaigns.POST("", auth(domain.PermCampaignWrite), campaignHandler.HandleCreate)
		campaigns.GET("", auth(domain.PermCampaignRead), campaignHandler.HandleList)
		campaigns.GET("/:id", auth(domain.PermCampaignRead), campaignHandler.HandleGet)
		campaigns.PUT("/:id", auth(domain.PermCampaignWrite), campaignHandler.HandleUpdate)
		campaigns.POST("/:id/activate", auth(domain.PermCampaignWrite), campaignHandler.HandleActivate)
		campaigns.POST("/:id/requests", auth(domain.PermRequestWrite), campaignHandler.HandleCreateRequests)
		campaigns.GET("/:id/requests", auth(domain.PermRequestRead), campaignHandler.HandleListRequests)
		campaigns.GET("/:id/dashboard", auth(domain.PermReportRead), campaignHandler.HandleDashboard)
	}

	requests := v1.Group("/requests", limit("api", s.cfg.RateLimitAPI))
	{
		requests.GET("/pending-reminders", auth(domain.PermReminderWrite), requestHandler.HandlePendingReminders)
		requests.GET("/:id", auth(domain.PermRequestRead), requestHandler.HandleGet)
		requests.PUT("/:id", auth(domain.PermRequestWrite), requestHandler.HandleUpdate)
		requests.POST("/:id/send", auth(domain.PermRequestWrite), requestHandler.HandleSend)
		requests.POST("/:id/close", auth(domain.PermRequestWrite), requestHandler.HandleClose)
		requests.POST("/:id/reminder-sent", auth(domain.PermReminderWrite), requestHandler.HandleReminderSent)
		requests.GET("/:id/submissions", auth(domain.PermRequestRead), requestHandler.HandleListSubmissions)
	}

	evidence := v1.Group("/evidence", limit("api", s.cfg.RateLimitAPI))
	{
		evidence.GET("/request/:request_id", auth(domain.PermRequestRead), evidenceHandler.HandleListByRequest)
		evidence.POST("/:id/validate", auth(domain.PermEvidenceReview), evidenceHandler.HandleValidate)
		evidence.POST("/:id/reject", auth(domain.PermEvidenceReview), evidenceHandler.HandleReject)
		evidence.POST("/:id/subsanation", auth(domain.PermEvidenceReview), evidenceHandler.HandleSubsanation)
	}

	v1.GET("/audit", limit("api", s.cfg.RateLimitAPI), auth(domain.PermAuditRead), auditHandler.HandleList)

	submit := v1.Group("/submit/:token", limit("portal", s.cfg.RateLimitPortal))
	{
		submit.GET("", portalHandler.HandleOpen)
		submit.POST("/verify-otp", limitRoute("otp", s.cfg.RateLimitAuth), portalHandler.HandleVerifyOTP)
		submit.POST("/upload", portalHandler.HandleUpload)
		submit.GET("/status", portalHandler.HandleStatus)
	}

	s.r.NoRoute(func(c *gin.Context) {
		common.WriteErrorCode(c, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
}
