// Package message persists outbound messages and their delivery guard.
package message

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"replygate/internal/domain/dispatch"
	"replygate/internal/infrastructure/database/entities"
)

// ErrNotFound is returned when an outbound message does not exist.
var ErrNotFound = errors.New("outbound message not found")

// PostgresStore implements dispatch.MessageStore.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore constructs the store.
func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts a new outbound message record.
func (s *PostgresStore) Create(ctx context.Context, m *dispatch.OutboundMessage) error {
	entity := &entities.OutboundMessage{
		PublicID:       m.ID,
		TenantID:       m.TenantID,
		ConversationID: m.ConversationID,
		SuggestionID:   m.SuggestionID,
		Channel:        m.Channel,
		RecipientID:    m.RecipientID,
		Text:           m.Text,
		Status:         m.Status.String(),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if err := s.db.WithContext(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("create outbound message: %w", err)
	}
	return nil
}

// Get retrieves an outbound message by its public id.
func (s *PostgresStore) Get(ctx context.Context, id string) (*dispatch.OutboundMessage, error) {
	var entity entities.OutboundMessage
	err := s.db.WithContext(ctx).Where("public_id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find outbound message: %w", err)
	}
	return entityToMessage(&entity), nil
}

// FindPendingBySuggestion returns the suggestion's undelivered outbound
// message, or nil when there is none.
func (s *PostgresStore) FindPendingBySuggestion(ctx context.Context, suggestionID string) (*dispatch.OutboundMessage, error) {
	var entity entities.OutboundMessage
	err := s.db.WithContext(ctx).
		Where("suggestion_id = ? AND status = ?", suggestionID, dispatch.MessagePending.String()).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find pending outbound message: %w", err)
	}
	return entityToMessage(&entity), nil
}

// MarkSent flips pending to sent in one conditional update. False means
// another process already finalized the message.
func (s *PostgresStore) MarkSent(ctx context.Context, id string, externalMessageID string) (bool, error) {
	updates := map[string]interface{}{
		"status":     dispatch.MessageSent.String(),
		"updated_at": time.Now().UTC(),
	}
	if externalMessageID != "" {
		updates["external_message_id"] = externalMessageID
	}
	return s.guardedUpdate(ctx, id, updates)
}

// MarkFailed flips pending to failed in one conditional update.
func (s *PostgresStore) MarkFailed(ctx context.Context, id string, reason string) (bool, error) {
	return s.guardedUpdate(ctx, id, map[string]interface{}{
		"status":         dispatch.MessageFailed.String(),
		"failure_reason": reason,
		"updated_at":     time.Now().UTC(),
	})
}

func (s *PostgresStore) guardedUpdate(ctx context.Context, id string, updates map[string]interface{}) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&entities.OutboundMessage{}).
		Where("public_id = ? AND status = ?", id, dispatch.MessagePending.String()).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("update outbound message: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func entityToMessage(e *entities.OutboundMessage) *dispatch.OutboundMessage {
	return &dispatch.OutboundMessage{
		ID:                e.PublicID,
		TenantID:          e.TenantID,
		ConversationID:    e.ConversationID,
		SuggestionID:      e.SuggestionID,
		Channel:           e.Channel,
		RecipientID:       e.RecipientID,
		Text:              e.Text,
		Status:            dispatch.MessageStatus(e.Status),
		ExternalMessageID: e.ExternalMessageID,
		FailureReason:     e.FailureReason,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}
