package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/rs/cors"

	"github.com/mrmicaiah/bethany/pkg/agent"
	"github.com/mrmicaiah/bethany/pkg/agent/rhythms"
	"github.com/mrmicaiah/bethany/pkg/ai"
	"github.com/mrmicaiah/bethany/pkg/api"
	"github.com/mrmicaiah/bethany/pkg/bootstrap"
	"github.com/mrmicaiah/bethany/pkg/config"
	"github.com/mrmicaiah/bethany/pkg/db"
	"github.com/mrmicaiah/bethany/pkg/library"
	"github.com/mrmicaiah/bethany/pkg/memory"
	"github.com/mrmicaiah/bethany/pkg/messaging"
	"github.com/mrmicaiah/bethany/pkg/network"
	"github.com/mrmicaiah/bethany/pkg/session"
)

func main() {
	logger := log.NewWithOptions(os.Stdout, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Level:           log.DebugLevel,
		TimeFormat:      time.Kitchen,
	})

	envs, err := config.LoadConfig(true)
	if err != nil {
		panic(errors.Wrap(err, "Unable to load config"))
	}
	logger.Info("Using database path", "path", envs.DBPath)

	if err := os.MkdirAll(filepath.Dir(envs.DBPath), 0o755); err != nil {
		panic(errors.Wrap(err, "Unable to create database directory"))
	}

	natsServer, err := bootstrap.StartEmbeddedNATSServer(logger)
	if err != nil {
		panic(errors.Wrap(err, "Unable to start nats server"))
	}
	defer natsServer.Shutdown()

	nc, err := bootstrap.NewNatsClient(natsServer)
	if err != nil {
		panic(errors.Wrap(err, "Unable to create nats client"))
	}
	defer nc.Close()

	store, err := db.NewStore(context.Background(), envs.DBPath, logger)
	if err != nil {
		panic(errors.Wrap(err, "Unable to create or initialize database"))
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Error closing store", "error", err)
		}
	}()

	completions := ai.NewOpenAIService(logger, envs.CompletionsAPIKey, envs.CompletionsAPIURL, envs.CompletionsModel)
	titler := ai.NewOpenAIService(logger, envs.CompletionsAPIKey, envs.CompletionsAPIURL, envs.TitleModel)

	memoryStore := memory.NewStore(logger, store, envs.HistoryRetentionDays)
	if err := memoryStore.Initialize(context.Background()); err != nil {
		panic(errors.Wrap(err, "Unable to initialize memory records"))
	}

	sessions := session.NewManager(logger, store, store, titler,
		time.Duration(envs.SessionGapHours)*time.Hour)
	contacts := network.NewService(logger, store)
	books := library.NewService(logger, store)
	sender := messaging.NewProviderClient(logger, envs.ProviderAPIURL, envs.ProviderAPIKey)

	bethany, err := agent.New(logger, agent.Services{
		Memory:      memoryStore,
		Sessions:    sessions,
		Completions: completions,
		Sender:      sender,
		Contacts:    contacts,
		Library:     books,
	}, agent.Config{
		UserName:        envs.UserName,
		UserAddress:     envs.UserAddress,
		OperatorAddress: envs.OperatorAlert,
		Timezone:        envs.Timezone,
		RetentionDays:   envs.SessionRetentionDays,
	})
	if err != nil {
		panic(errors.Wrap(err, "Unable to create agent"))
	}

	sub, err := bethany.SubscribeInbound(nc)
	if err != nil {
		panic(errors.Wrap(err, "Unable to subscribe to inbound messages"))
	}
	defer func() { _ = sub.Unsubscribe() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go bethany.Run(ctx)

	location, err := time.LoadLocation(envs.Timezone)
	if err != nil {
		panic(errors.Wrap(err, "Invalid timezone"))
	}
	scheduler := rhythms.NewScheduler(logger, location, rhythms.DefaultSchedule(), func(name agent.RhythmName) {
		bethany.Enqueue(agent.Request{Kind: agent.KindRhythm, Rhythm: name})
	})
	go scheduler.Run(ctx)

	go runDailyCleanup(ctx, bethany)

	router := messaging.NewRouter(logger, nc)
	router.Mount("/api", api.NewRouter(logger, contacts, books))

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(router)

	httpServer := &http.Server{
		Addr:              ":" + envs.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "port", envs.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
}

// runDailyCleanup enqueues session retention sweeps through the agent queue
// so cleanup never races a live conversation.
func runDailyCleanup(ctx context.Context, bethany *agent.Agent) {
	bethany.Enqueue(agent.Request{Kind: agent.KindCleanup})

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bethany.Enqueue(agent.Request{Kind: agent.KindCleanup})
		}
	}
}

