//go:build wireinject

package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"replygate/internal/config"
	"replygate/internal/domain/delay"
	"replygate/internal/domain/dispatch"
	"replygate/internal/domain/intent"
	"replygate/internal/domain/policy"
	"replygate/internal/domain/suggestion"
	"replygate/internal/infrastructure/auth"
	channelgw "replygate/internal/infrastructure/channel"
	domainchannel "replygate/internal/domain/channel"
	"replygate/internal/infrastructure/database"
	"replygate/internal/infrastructure/events"
	"replygate/internal/infrastructure/jobstore"
	"replygate/internal/infrastructure/logger"
	"replygate/internal/infrastructure/notify"
	"replygate/internal/infrastructure/readiness"
	messagerepo "replygate/internal/infrastructure/repository/message"
	policyrepo "replygate/internal/infrastructure/repository/policy"
	suggestionrepo "replygate/internal/infrastructure/repository/suggestion"
	"replygate/internal/interfaces/httpserver"
)

var pipelineSet = wire.NewSet(
	suggestionrepo.NewPostgresRepository,
	wire.Bind(new(suggestion.Repository), new(*suggestionrepo.PostgresRepository)),
	suggestionrepo.NewActionRepository,
	wire.Bind(new(suggestion.ActionRepository), new(*suggestionrepo.ActionRepository)),
	messagerepo.NewPostgresStore,
	wire.Bind(new(dispatch.MessageStore), new(*messagerepo.PostgresStore)),
	policyrepo.NewPostgresRepository,
	wire.Bind(new(policy.Repository), new(*policyrepo.PostgresRepository)),
	jobstore.NewPostgresStore,
	wire.Bind(new(dispatch.Store), new(*jobstore.PostgresStore)),
	newChannelRegistry,
	wire.Bind(new(domainchannel.Registry), new(*channelgw.GatewayRegistry)),
	newReadinessClient,
	wire.Bind(new(policy.ReadinessScorer), new(*readiness.Client)),
	newProducer,
	wire.Bind(new(suggestion.AuditLog), new(*events.Producer)),
	newNotifier,
	wire.Bind(new(suggestion.Notifier), new(*notify.SlackNotifier)),
	newVocabulary,
	policy.NewService,
	wire.Bind(new(suggestion.PolicyProvider), new(*policy.Service)),
	newScheduler,
	wire.Bind(new(dispatch.Scheduler), new(*dispatch.StoreScheduler)),
	delay.NewEngine,
	newIDGenerator,
	suggestion.NewService,
	wire.Bind(new(suggestion.Service), new(*suggestion.DefaultService)),
)

// BuildApplication demonstrates how to assemble the service with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newDatabaseConfig,
		newGormDB,
		newAuthValidator,
		pipelineSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func newAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}

func newChannelRegistry(cfg *config.Config, log zerolog.Logger) *channelgw.GatewayRegistry {
	return channelgw.NewGatewayRegistry(cfg.ChannelGatewayURL, cfg.SendTimeout, log)
}

func newReadinessClient(cfg *config.Config) *readiness.Client {
	return readiness.NewClient(cfg.ReadinessURL, cfg.SendTimeout)
}

func newProducer(cfg *config.Config, log zerolog.Logger) *events.Producer {
	return events.NewProducer(cfg.KafkaBrokers, cfg.KafkaDecisionTopic, cfg.KafkaDispatchTopic, log)
}

func newNotifier(cfg *config.Config, log zerolog.Logger) *notify.SlackNotifier {
	return notify.NewSlackNotifier(cfg.SlackWebhookURL, log)
}

func newVocabulary(cfg *config.Config) (intent.Vocabulary, error) {
	if cfg.IntentVocabPath == "" {
		return intent.Default(), nil
	}
	return intent.LoadFile(cfg.IntentVocabPath)
}

func newScheduler(store dispatch.Store, log zerolog.Logger) *dispatch.StoreScheduler {
	return dispatch.NewScheduler(store, log)
}

func newIDGenerator() suggestion.IDGenerator {
	return uuid.NewString
}
