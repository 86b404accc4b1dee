package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"docrequest/internal/config"
	"docrequest/internal/domain"
	"docrequest/internal/infra/auth/jwtauth"
	"docrequest/internal/infra/auth/rbac"
	"docrequest/internal/infra/db"
	"docrequest/internal/infra/memstore"
	"docrequest/internal/infra/notify"
	"docrequest/internal/infra/otpstore"
	"docrequest/internal/infra/policyopa"
	"docrequest/internal/infra/ratelimit"
	"docrequest/internal/infra/storage"
	"docrequest/internal/usecase"

	"github.com/redis/go-redis/v9"
)

// OpenRepositories uses postgres when DATABASE_URL is set and memory otherwise.
func OpenRepositories(cfg config.Config) (Repositories, func() error, error) {
	store, err := db.NewStore(cfg)
	if err != nil {
		return Repositories{}, nil, err
	}
	if store.DB == nil {
		return MemoryRepositories(memstore.New()), func() error { return nil }, nil
	}
	return DBRepositories(store), store.Close, nil
}

// NewRedisClient returns nil when REDIS_ADDR is unset or unreachable.
func NewRedisClient(ctx context.Context, cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("redis unavailable at %s, using memory stores: %v", cfg.RedisAddr, err)
		_ = client.Close()
		return nil
	}
	return client
}

func NewOTPStore(ctx context.Context, cfg config.Config, client *redis.Client) usecase.OTPStore {
	if client != nil {
		return otpstore.NewRedis(client)
	}
	mem := otpstore.NewMemory(nil)
	mem.StartSweeper(ctx, cfg.OTPSweepInterval())
	return mem
}

func NewRateLimiter(cfg config.Config, client *redis.Client) domain.RateLimiter {
	if client != nil {
		if limiter, err := ratelimit.NewRedisLimiter(client, nil); err == nil {
			return limiter
		}
	}
	return ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{MaxKeys: cfg.RateLimitMaxKeys})
}

func NewWebhook(cfg config.Config) *notify.WebhookGateway {
	return notify.NewWebhookGateway(notify.FlowURLs{
		SendRequests: cfg.FlowSendRequests,
		SendOTP:      cfg.FlowSendOTP,
		Reminders:    cfg.FlowReminders,
		ArchiveFiles: cfg.FlowArchiveFiles,
	}, notify.ArchiveSite{
		SiteURL:     cfg.SPSiteURL,
		LibraryName: cfg.SPLibraryName,
	}, nil)
}

// NewNotifier queues emails on AMQP when AMQP_URL is set. Archival always
// goes straight to the webhook.
func NewNotifier(cfg config.Config) (usecase.NotificationGateway, func() error, error) {
	webhook := NewWebhook(cfg)
	if cfg.AMQPURL == "" {
		return webhook, func() error { return nil }, nil
	}
	queue, err := notify.DialQueue(cfg.AMQPURL, cfg.NotifyQueue, webhook)
	if err != nil {
		return nil, nil, fmt.Errorf("dial amqp: %w", err)
	}
	return queue, queue.Close, nil
}

func NewAuthorizer(ctx context.Context, cfg config.Config) (domain.Authorizer, error) {
	switch cfg.AuthzEngine {
	case "", "rbac":
		return rbac.NewAuthorizer(), nil
	case "opa":
		if cfg.AuthzPolicyPath != "" {
			return policyopa.NewEngineFromPath(ctx, cfg.AuthzPolicyPath)
		}
		return policyopa.NewEngine(ctx)
	default:
		return nil, fmt.Errorf("unsupported AUTHZ_ENGINE %q", cfg.AuthzEngine)
	}
}

func NewTokens(cfg config.Config) (*jwtauth.Service, error) {
	if cfg.TokenSecret == "" || cfg.JWTSecret == "" {
		return nil, errors.New("TOKEN_SECRET and JWT_SECRET are required")
	}
	return jwtauth.New(cfg.TokenSecret, cfg.JWTSecret, cfg.JWTExpiresIn)
}

func NewFileStore(cfg config.Config) (*storage.Disk, error) {
	return storage.NewDisk(cfg.UploadDir)
}
