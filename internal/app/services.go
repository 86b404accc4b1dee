package app

import (
	"docrequest/internal/config"
	"docrequest/internal/infra/db"
	"docrequest/internal/infra/memstore"
	"docrequest/internal/usecase"
)

type Repositories struct {
	Campaigns   usecase.CampaignRepository
	Requests    usecase.RequestRepository
	Evidence    usecase.EvidenceRepository
	Submissions usecase.SubmissionRepository
	Audit       usecase.AuditRepository
	Users       usecase.UserRepository
	// Mode is "db" for postgres and "no-db" for the in-memory fallback.
	Mode string
}

func DBRepositories(store *db.Store) Repositories {
	return Repositories{
		Campaigns:   store.Campaigns,
		Requests:    store.Requests,
		Evidence:    store.Evidence,
		Submissions: store.Submissions,
		Audit:       store.Audit,
		Users:       store.Users,
		Mode:        "db",
	}
}

func MemoryRepositories(store *memstore.Store) Repositories {
	return Repositories{
		Campaigns:   store.Campaigns(),
		Requests:    store.Requests(),
		Evidence:    store.Evidence(),
		Submissions: store.Submissions(),
		Audit:       store.Audit(),
		Users:       store.Users(),
		Mode:        "no-db",
	}
}

// Infra holds the adapters chosen at startup.
type Infra struct {
	Codec    usecase.TokenCodec
	Staff    usecase.StaffTokenIssuer
	OTPStore usecase.OTPStore
	Notifier usecase.NotificationGateway
	Files    usecase.FileStore
}

type Services struct {
	Audit       *usecase.AuditRecorder
	Tokens      *usecase.TokenGate
	OTP         *usecase.OTPGate
	Campaigns   *usecase.CampaignService
	Requests    *usecase.RequestService
	Evidence    *usecase.EvidenceService
	Submissions *usecase.SubmissionPipeline
	Reminders   *usecase.ReminderScheduler
	Dispatcher  *usecase.ReminderDispatcher
	Dashboard   *usecase.DashboardService
	Auth        *usecase.AuthService
	Portal      *usecase.PortalService
}

func NewServices(cfg config.Config, repos Repositories, infra Infra) *Services {
	audit := usecase.NewAuditRecorder(repos.Audit, nil)
	tokens := usecase.NewTokenGate(infra.Codec, repos.Requests, audit, cfg.TokenExpiry(), cfg.SessionTTL())
	otp := usecase.NewOTPGate(infra.OTPStore, infra.Notifier, audit, cfg.OTPEnabled, cfg.OTPExpiry(), cfg.OTPMaxAttempts)

	campaigns := usecase.NewCampaignService(repos.Campaigns, repos.Requests, audit)
	requests := usecase.NewRequestService(repos.Requests, repos.Campaigns, tokens, infra.Notifier, campaigns, audit, cfg.AppBaseURL)
	evidence := usecase.NewEvidenceService(repos.Evidence, requests, audit)
	submissions := usecase.NewSubmissionPipeline(repos.Requests, repos.Campaigns, repos.Submissions, evidence, requests, infra.Files, infra.Notifier, audit)
	reminders := usecase.NewReminderScheduler(repos.Requests, repos.Campaigns, audit)

	return &Services{
		Audit:       audit,
		Tokens:      tokens,
		OTP:         otp,
		Campaigns:   campaigns,
		Requests:    requests,
		Evidence:    evidence,
		Submissions: submissions,
		Reminders:   reminders,
		Dispatcher:  usecase.NewReminderDispatcher(requests, reminders, infra.Notifier),
		Dashboard:   usecase.NewDashboardService(repos.Campaigns, repos.Requests),
		Auth:        usecase.NewAuthService(repos.Users, infra.Staff, audit),
		Portal:      usecase.NewPortalService(tokens, otp, repos.Requests, repos.Campaigns, submissions, audit),
	}
}
