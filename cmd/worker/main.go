package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docrequest/internal/activities"
	"docrequest/internal/app"
	"docrequest/internal/config"
	"docrequest/internal/infra/notify"
	"docrequest/internal/usecase"
	"docrequest/internal/workflows"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

func main() {
	local := flag.Bool("local", false, "run the reminder sweep in process instead of on temporal")
	flag.Parse()

	app.LoadEnv()
	cfg := config.FromEnv()
	closeLogs := app.SetupLogging(cfg, "docrequest-worker")
	defer closeLogs()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	healthSrv := startHealthServer(cfg.HealthAddr)
	defer func() {
		_ = healthSrv.Shutdown(context.Background())
	}()

	repos, closeRepos, err := app.OpenRepositories(cfg)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}
	defer func() {
		_ = closeRepos()
	}()

	notifier, closeNotifier, err := app.NewNotifier(cfg)
	if err != nil {
		log.Fatalf("failed to init notifier: %v", err)
	}
	defer func() {
		_ = closeNotifier()
	}()
	if queue, ok := notifier.(*notify.Queue); ok {
		go consumeNotifications(ctx, queue, app.NewWebhook(cfg))
	}

	services := app.NewServices(cfg, repos, app.Infra{Notifier: notifier})

	if *local {
		runLocalSweeps(ctx, services.Dispatcher, cfg.SweepInterval())
		return
	}

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
	})
	if err != nil {
		log.Fatalf("failed to create temporal client: %v", err)
	}
	defer temporalClient.Close()

	acts := activities.New(services.Requests, services.Reminders, services.Dispatcher)
	w := worker.New(temporalClient, cfg.TemporalTaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.ReminderSweepWorkflow)
	w.RegisterActivityWithOptions(acts.MarkOverdue, activity.RegisterOptions{Name: activities.MarkOverdueActivityName})
	w.RegisterActivityWithOptions(acts.PendingReminders, activity.RegisterOptions{Name: activities.PendingRemindersActivityName})
	w.RegisterActivityWithOptions(acts.SendReminder, activity.RegisterOptions{Name: activities.SendReminderActivityName})
	w.RegisterActivityWithOptions(acts.RecordReminder, activity.RegisterOptions{Name: activities.RecordReminderActivityName})

	if err := w.Start(); err != nil {
		log.Fatalf("worker start failed: %v", err)
	}
	defer w.Stop()

	run, err := temporalClient.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        workflows.ReminderSweepWorkflowID,
		TaskQueue: cfg.TemporalTaskQueue,
	}, workflows.ReminderSweepWorkflow, workflows.SweepInput{Interval: cfg.SweepInterval()})
	if err != nil {
		log.Printf("reminder sweep not started: %v", err)
	} else {
		log.Printf("reminder sweep running: workflow=%s run=%s", run.GetID(), run.GetRunID())
	}

	log.Printf("docrequest worker listening on task queue %s", cfg.TemporalTaskQueue)
	<-ctx.Done()
}

// runLocalSweeps is the single-process fallback used without a temporal cluster.
func runLocalSweeps(ctx context.Context, dispatcher *usecase.ReminderDispatcher, interval time.Duration) {
	log.Printf("running local reminder sweeps every %s", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		result, err := dispatcher.Sweep(ctx)
		if err != nil {
			log.Printf("reminder sweep failed: %v", err)
		} else {
			log.Printf("reminder sweep: overdue=%d due=%d sent=%d failed=%d", result.Overdue, result.Due, result.Sent, result.Failed)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func consumeNotifications(ctx context.Context, queue *notify.Queue, sender usecase.NotificationGateway) {
	log.Printf("consuming queued notifications")
	if err := queue.Consume(ctx, sender); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("notification consumer stopped: %v", err)
	}
}

func startHealthServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("health server error: %v", err)
		}
	}()
	return srv
}
