package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"zapnode/config"
	_ "zapnode/docs" // Swagger docs
	"zapnode/internal/command"
	"zapnode/internal/conversation"
	"zapnode/internal/httpserver"
	"zapnode/internal/message"
	"zapnode/internal/model"
	sessionHTTP "zapnode/internal/session/delivery/http"
	"zapnode/internal/session/manager"
	"zapnode/internal/storage"
	storageHTTP "zapnode/internal/storage/delivery/http"
	"zapnode/internal/storage/sqlite"
	"zapnode/pkg/groq"
	"zapnode/pkg/log"
	"zapnode/pkg/wweb"
)

const welcomeMessage = "🤖 *Bot WhatsApp Online!*\n\n" +
	"✅ Connected successfully!\n" +
	"📱 Ready to receive messages\n\n" +
	"Send *!help* for available commands."

// @title       ZapNode API
// @description Multi-session WhatsApp bot orchestrator with AI auto-replies, command dispatch, and SQLite persistence.
// @version     1
// @host        localhost:8080
// @schemes     http
func main() {
	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Failed to load config: ", err)
		return
	}

	// 2. Logger
	logger := log.Init(log.ZapConfig{
		Level:        cfg.Logger.Level,
		Mode:         cfg.Logger.Mode,
		Encoding:     cfg.Logger.Encoding,
		ColorEnabled: cfg.Logger.ColorEnabled,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Starting ZapNode...")
	logger.Infof(ctx, "Environment: %s", cfg.Environment.Name)
	logger.Infof(ctx, "Gateway URL: %s", cfg.WhatsApp.GatewayURL)

	// 3. Storage. A missing data directory is an irrecoverable startup
	// failure; everything after this point degrades gracefully.
	if dir := filepath.Dir(cfg.Storage.Path); dir != "." && cfg.Storage.Path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatalf(ctx, "Failed to create data directory %s: %v", dir, err)
		}
	}
	store, err := sqlite.Open(sqlite.Config{Path: cfg.Storage.Path, Logger: logger})
	if err != nil {
		logger.Fatalf(ctx, "Failed to open storage at %s: %v", cfg.Storage.Path, err)
	}
	defer store.Close()

	// 4. Conversation memory
	memory := conversation.New(
		conversation.WithMaxConversations(cfg.Conversation.MaxConversations),
		conversation.WithTTL(cfg.Conversation.TTL),
	)

	// 5. Groq AI client (optional)
	var aiClient groq.IGroq
	aiEnabled := cfg.Features.AutoReply && cfg.Features.AIResponses
	if cfg.Groq.APIKey != "" {
		client, groqErr := groq.New(groq.Config{
			APIKey:      cfg.Groq.APIKey,
			Model:       cfg.Groq.Model,
			Temperature: cfg.Groq.Temperature,
			MaxTokens:   cfg.Groq.MaxTokens,
		})
		if groqErr != nil {
			logger.Warnf(ctx, "Groq client unavailable, AI replies disabled: %v", groqErr)
			aiEnabled = false
		} else {
			aiClient = client
			logger.Infof(ctx, "Groq initialized with model %s", client.Model())
		}
	} else {
		logger.Warn(ctx, "GROQ_API_KEY not set, AI replies disabled")
		aiEnabled = false
	}

	features := model.Features{
		AutoReply:         aiEnabled,
		WelcomeMessage:    cfg.Features.WelcomeMessage,
		IgnoreGroups:      cfg.Features.IgnoreGroups,
		IgnoreStatus:      cfg.Features.IgnoreStatus,
		IgnoreNewsletters: cfg.Features.IgnoreNewsletters,
	}

	// 6. Session manager
	welcome := ""
	if cfg.Features.WelcomeMessage && cfg.WhatsApp.WelcomeTo != "" {
		welcome = welcomeMessage
	}
	mgr := manager.New(manager.Config{
		Logger:              logger,
		Factory:             wweb.NewGateway(cfg.WhatsApp.GatewayURL),
		Store:               store,
		AutoCleanupOnLogout: cfg.Features.AutoCleanupOnLogout,
		WelcomeMessage:      welcome,
		WelcomeTo:           wweb.FormatNumber(cfg.WhatsApp.WelcomeTo),
		OnSessionRemoved:    memory.ClearSession,
	})
	defer mgr.Shutdown(context.Background())

	// 7. Commands
	modelName := cfg.Groq.Model
	if aiClient != nil {
		modelName = aiClient.Model()
	}
	registry := command.NewRegistry()
	registry.Register(command.NewPing())
	registry.Register(command.NewHelp(registry))
	registry.Register(command.NewInfo(features))
	registry.Register(command.NewStats(store))
	registry.Register(command.NewAI(memory, aiEnabled, modelName))

	// 8. Message pipeline
	pipeline := message.New(message.Config{
		Logger:       logger,
		Store:        store,
		Memory:       memory,
		Registry:     registry,
		AI:           aiClient,
		Sender:       mgr,
		Features:     features,
		SystemPrompt: cfg.Groq.SystemPrompt,
	})
	mgr.SetMessageSink(pipeline)

	// 9. Default session bootstrap
	if cfg.WhatsApp.StartDefaultSession {
		_, err := mgr.CreateSession(ctx, cfg.WhatsApp.DefaultSession, model.SessionOptions{
			Headless:   cfg.WhatsApp.Headless,
			ChromePath: cfg.WhatsApp.ChromePath,
			Reconnect:  true,
		})
		if err != nil {
			logger.Errorf(ctx, "Failed to create default session %q: %v", cfg.WhatsApp.DefaultSession, err)
		} else {
			logger.Infof(ctx, "Default session %q created", cfg.WhatsApp.DefaultSession)
		}
	}

	// 10. Retention sweeper
	if cfg.Storage.RetentionDays > 0 {
		go runRetentionSweeper(ctx, logger, store, cfg.Storage.RetentionDays)
	}

	// 11. HTTP server
	httpServer, err := httpserver.New(logger, httpserver.Config{
		Logger:          logger,
		Port:            cfg.HTTPServer.Port,
		Mode:            cfg.HTTPServer.Mode,
		Environment:     cfg.Environment.Name,
		Manager:         mgr,
		SessionHandler:  sessionHTTP.New(logger, mgr),
		DatabaseHandler: storageHTTP.New(logger, store),
	})
	if err != nil {
		logger.Error(ctx, "Failed to initialize HTTP server: ", err)
		return
	}

	// 12. Run
	if err := httpServer.Run(ctx); err != nil {
		logger.Error(ctx, "Failed to run server: ", err)
		return
	}

	logger.Info(ctx, "Server stopped gracefully")
}

// runRetentionSweeper prunes old messages and command logs once a day.
func runRetentionSweeper(ctx context.Context, logger log.Logger, store storage.Store, days int) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		messages, commands, err := store.DeleteOlderThan(ctx, days)
		if err != nil {
			logger.Warnf(ctx, "Retention sweep failed: %v", err)
		} else if messages+commands > 0 {
			logger.Infof(ctx, "Retention sweep removed %d message(s), %d command log(s)", messages, commands)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
