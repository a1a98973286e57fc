package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"replygate/internal/config"
	"replygate/internal/domain/delay"
	"replygate/internal/domain/dispatch"
	"replygate/internal/domain/intent"
	"replygate/internal/domain/policy"
	"replygate/internal/domain/suggestion"
	"replygate/internal/infrastructure/auth"
	channelgw "replygate/internal/infrastructure/channel"
	"replygate/internal/infrastructure/database"
	"replygate/internal/infrastructure/events"
	"replygate/internal/infrastructure/jobstore"
	"replygate/internal/infrastructure/logger"
	"replygate/internal/infrastructure/notify"
	"replygate/internal/infrastructure/observability"
	"replygate/internal/infrastructure/readiness"
	messagerepo "replygate/internal/infrastructure/repository/message"
	policyrepo "replygate/internal/infrastructure/repository/policy"
	suggestionrepo "replygate/internal/infrastructure/repository/suggestion"
	"replygate/internal/interfaces/httpserver"
	"replygate/internal/worker"
)

// Application bundles the long-running service pieces.
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

// NewApplication constructs the application.
func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

// Start runs the HTTP server until the context is cancelled.
func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth validator")
	}

	vocab := intent.Default()
	if cfg.IntentVocabPath != "" {
		vocab, err = intent.LoadFile(cfg.IntentVocabPath)
		if err != nil {
			log.Fatal().Err(err).Msg("load intent vocabulary")
		}
	}

	suggestionRepository := suggestionrepo.NewPostgresRepository(db)
	actionRepository := suggestionrepo.NewActionRepository(db)
	messageStore := messagerepo.NewPostgresStore(db)
	policyRepository := policyrepo.NewPostgresRepository(db)
	jobStore := jobstore.NewPostgresStore(db, log)

	channelRegistry := channelgw.NewGatewayRegistry(cfg.ChannelGatewayURL, cfg.SendTimeout, log)
	readinessClient := readiness.NewClient(cfg.ReadinessURL, cfg.SendTimeout)

	producer := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaDecisionTopic, cfg.KafkaDispatchTopic, log)
	defer func() {
		if err := producer.Close(); err != nil {
			log.Error().Err(err).Msg("close event producer")
		}
	}()
	notifier := notify.NewSlackNotifier(cfg.SlackWebhookURL, log)

	policyService := policy.NewService(policyRepository, readinessClient, vocab, log)
	scheduler := dispatch.NewScheduler(jobStore, log)
	engine := delay.NewEngine()

	suggestionService := suggestion.NewService(
		suggestionRepository,
		actionRepository,
		policyService,
		engine,
		scheduler,
		messageStore,
		channelRegistry,
		producer,
		notifier,
		uuid.NewString,
		log,
	)

	// Dispatch worker pool releases due jobs.
	workerPool := worker.NewPool(
		jobStore,
		messageStore,
		channelRegistry,
		policyService,
		producer,
		notifier,
		worker.Config{
			WorkerCount:  cfg.DispatchWorkerCount,
			PollInterval: cfg.DispatchPollInterval,
			SendTimeout:  cfg.SendTimeout,
		},
		log,
	)
	workerPool.Start(ctx)
	defer workerPool.Stop()

	janitor := worker.NewJanitor(jobStore, cfg.DispatchClaimLease, log)
	if err := janitor.Start(ctx, cfg.JanitorInterval); err != nil {
		log.Fatal().Err(err).Msg("start dispatch janitor")
	}
	defer janitor.Stop()

	httpServer := httpserver.New(cfg, log, suggestionService, policyService, scheduler, vocab, authValidator)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
