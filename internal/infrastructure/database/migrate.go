package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"replygate/internal/infrastructure/database/entities"
)

// AutoMigrate applies database schema changes for the trust pipeline.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&entities.Suggestion{},
		&entities.HumanAction{},
		&entities.DispatchJob{},
		&entities.OutboundMessage{},
		&entities.TenantPolicy{},
	); err != nil {
		return err
	}

	// One active dispatch job per message: uniqueness only while the job
	// occupies the slot.
	if err := db.WithContext(ctx).Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_dispatch_jobs_active_message
		 ON dispatch_jobs (message_id)
		 WHERE status IN ('scheduled', 'dispatching')`,
	).Error; err != nil {
		return err
	}

	log.Info().Msg("database schema up to date")
	return nil
}
