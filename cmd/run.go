package cmd

import (
	"context"
	"fmt"
	"time"

	"bumpbot/api"
	"bumpbot/application"
	"bumpbot/bot"
	"bumpbot/config"
	"bumpbot/database"
	"bumpbot/domain/interfaces"
	"bumpbot/domain/services"
	"bumpbot/events"
	"bumpbot/infrastructure"
	"bumpbot/infrastructure/nocodb"
	"bumpbot/infrastructure/observability"
	"bumpbot/repository"
	"bumpbot/workers"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting bump bot...")

	// Load configuration
	cfg := config.Get()

	// Initialize metrics
	if err := observability.InitializeGlobalMetrics(ctx, cfg.Metrics, cfg.Environment); err != nil {
		log.WithError(err).Warn("Failed to initialize metrics, continuing without them")
	}
	metrics := observability.GetMetrics()

	// Initialize database connection when configured
	var db *database.DB
	if cfg.DatabaseURL != "" {
		log.Info("Connecting to database...")
		url := database.ConstructDatabaseURL(cfg.DatabaseURL, cfg.DatabaseName)
		var err error
		db, err = database.NewConnection(ctx, url)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.RunMigrationsWithURL(url); err != nil {
			db.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("Database connection established successfully")
	}

	// Identity store
	var store interfaces.IdentityStore
	switch cfg.IdentityBackend {
	case config.IdentityBackendPostgres:
		store = repository.NewMemberRecordRepository(db)
	default:
		store = nocodb.NewClient(nocodb.Config{
			BaseURL:   cfg.NocoDBBaseURL,
			APIToken:  cfg.NocoDBAPIToken,
			TableID:   cfg.NocoDBTableID,
			RateLimit: cfg.NocoDBRateLimit,
		}, nocodb.WithObserver(metrics))
	}
	log.WithField("backend", cfg.IdentityBackend).Info("Identity store configured")

	// Bump ledger
	var ledger interfaces.BumpLedger
	if db != nil {
		ledger = repository.NewBumpLedgerRepository(db)
	} else {
		log.Warn("DATABASE_URL not set, bump ledger is in-memory and resets on restart")
		ledger = repository.NewMemoryLedger()
	}

	// Initialize event bus and its subscribers
	eventBus := events.NewBus()
	eventBus.SubscribeAll(metrics.HandleEvent)
	eventBus.Subscribe(events.EventTypeRewardDispatched, application.NewRewardRecorder(ledger).HandleEvent)

	var natsClient *infrastructure.NATSClient
	if cfg.NATSServers != "" {
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			log.WithError(err).Warn("Failed to connect to NATS, domain events will not be exported")
			natsClient = nil
		}
	}
	if natsClient != nil {
		mapper := infrastructure.NewEventSubjectMapper()
		if err := infrastructure.EnsureEventStream(natsClient, mapper); err != nil {
			log.WithError(err).Warn("Failed to ensure event stream")
		}
		eventBus.SubscribeAll(infrastructure.NewNATSEventPublisher(natsClient, mapper, metrics).HandleEvent)
	} else {
		eventBus.SubscribeAll(infrastructure.NewNoopEventPublisher().HandleEvent)
	}

	// Discord session; connected after the services are wired
	discordBot, err := bot.New(bot.Config{
		Token:            cfg.DiscordToken,
		GuildID:          cfg.GuildID,
		BumpChannelID:    cfg.BumpChannelID,
		ConsoleChannelID: cfg.ConsoleChannelID,
		BumpRoleID:       cfg.BumpRoleID,
		StoreBackend:     cfg.IdentityBackend,
		HiddenUsers:      len(cfg.Rules.HiddenUserIDs),
	})
	if err != nil {
		closeDatabase(db)
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}
	platform := discordBot.Platform()
	notifier := discordBot.Notifier()

	// Initialize services
	scheduler := services.NewWallClockScheduler()
	janitor := services.NewMessageJanitor(platform, scheduler)

	correlator, err := services.NewBumpCorrelator(platform, services.CorrelatorConfig{
		ChannelID:  cfg.BumpChannelID,
		ServiceIDs: cfg.Rules.BumpServiceIDs,
		Patterns:   cfg.Rules.ConfirmationPatterns,
		Window:     cfg.Rules.CorrelationWindow,
	})
	if err != nil {
		closeDatabase(db)
		return fmt.Errorf("failed to build bump correlator: %w", err)
	}

	rewards := services.NewRewardDispatcher(platform, notifier, eventBus, services.RewardConfig{
		AnnounceChannelID: cfg.BumpChannelID,
		ConsoleChannelID:  cfg.ConsoleChannelID,
		CommandTemplates:  cfg.Rules.ConsoleCommands,
		RewardLines:       cfg.Rules.RewardLines,
		HiddenMemberIDs:   cfg.Rules.HiddenUserIDs,
	})
	offers := services.NewRoleOfferService(
		services.NewOfferRegistry(scheduler),
		platform,
		notifier,
		rewards,
		janitor,
		eventBus,
		services.RoleOfferConfig{
			RoleID:       cfg.BumpRoleID,
			Timeout:      cfg.RoleOfferTimeout,
			CleanupDelay: cfg.PromptCleanupDelay,
		},
	)
	bumps := services.NewBumpService(store, rewards, notifier, janitor, eventBus, cfg.BumpChannelID, 0)
	registrations := services.NewRegistrationService(store, offers, notifier, janitor, eventBus)

	if err := metrics.ObservePendingOffers(offers.PendingCount); err != nil {
		log.WithError(err).Warn("Failed to register pending offer gauge")
	}

	router := application.NewRouter(
		correlator,
		bumps,
		registrations,
		offers,
		janitor,
		ledger,
		eventBus,
		application.NewCommandLimiter(),
		application.NewBumpCooldown(cfg.BumpCooldown),
		application.RouterConfig{BumpChannelID: cfg.BumpChannelID},
	)

	// Connect to Discord
	log.Info("Connecting to Discord...")
	if err := discordBot.Start(router); err != nil {
		offers.Close()
		closeDatabase(db)
		return fmt.Errorf("failed to start Discord bot: %w", err)
	}
	log.Info("Discord bot started successfully")

	// Health server
	gin.SetMode(gin.ReleaseMode)
	healthServer := api.NewServer(discordBot, api.Options{
		Port:             cfg.Port,
		NocoDBConfigured: cfg.NocoDBConfigured(),
		PendingOffers:    offers.PendingCount,
	})
	healthServer.Start()

	// Background workers
	retention := workers.NewLedgerRetention(ledger, cfg.LedgerRetention)
	if err := retention.Start(workers.DefaultRetentionSchedule); err != nil {
		log.WithError(err).Warn("Failed to start ledger retention worker")
	}

	// Wait for context cancellation
	log.Infof("Bot is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Info("Shutting down bot...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Error stopping health server")
	}

	// Close Discord bot connection
	if err := discordBot.Close(); err != nil {
		log.WithError(err).Error("Error closing Discord bot")
	}

	offers.Close()
	retention.Stop()

	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.WithError(err).Warn("Error draining NATS connection")
		}
	}

	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.WithError(err).Warn("Error flushing metrics")
	}

	closeDatabase(db)
	log.Info("Shutdown completed")
	return nil
}

func closeDatabase(db *database.DB) {
	if db == nil {
		return
	}
	log.Info("Closing database connection...")
	db.Close()
}
