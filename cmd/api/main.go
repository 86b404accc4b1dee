package main

import (
	"context"
	"log"

	"docrequest/internal/app"
	"docrequest/internal/config"
	httpapi "docrequest/internal/http"
)

func main() {
	app.LoadEnv()
	cfg := config.FromEnv()
	closeLogs := app.SetupLogging(cfg, "docrequest-api")
	defer closeLogs()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repos, closeRepos, err := app.OpenRepositories(cfg)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}
	defer func() {
		_ = closeRepos()
	}()

	redisClient := app.NewRedisClient(ctx, cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	tokens, err := app.NewTokens(cfg)
	if err != nil {
		log.Fatalf("failed to init tokens: %v", err)
	}
	notifier, closeNotifier, err := app.NewNotifier(cfg)
	if err != nil {
		log.Fatalf("failed to init notifier: %v", err)
	}
	defer func() {
		_ = closeNotifier()
	}()
	files, err := app.NewFileStore(cfg)
	if err != nil {
		log.Fatalf("failed to init file store: %v", err)
	}
	authorizer, err := app.NewAuthorizer(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to init authorizer: %v", err)
	}

	services := app.NewServices(cfg, repos, app.Infra{
		Codec:    tokens,
		Staff:    tokens,
		OTPStore: app.NewOTPStore(ctx, cfg, redisClient),
		Notifier: notifier,
		Files:    files,
	})
	if err := services.Auth.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("failed to ensure admin user: %v", err)
	}

	srv := httpapi.NewServerWithDeps(cfg, httpapi.ServerDeps{
		Auth:          services.Auth,
		Campaigns:     services.Campaigns,
		Requests:      services.Requests,
		Evidence:      services.Evidence,
		Submissions:   services.Submissions,
		Reminders:     services.Reminders,
		Dashboard:     services.Dashboard,
		Audit:         services.Audit,
		Portal:        services.Portal,
		Authenticator: tokens,
		Authorizer:    authorizer,
		RateLimiter:   app.NewRateLimiter(cfg, redisClient),
		StorageMode:   repos.Mode,
	})
	if err := srv.Run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
