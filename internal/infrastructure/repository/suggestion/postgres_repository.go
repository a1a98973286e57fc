package suggestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	domain "replygate/internal/domain/suggestion"
	"replygate/internal/infrastructure/database/entities"
)

// PostgresRepository provides persistence for suggestions and their
// resolution audit records.
type PostgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new suggestion record.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Suggestion) error {
	entity, err := suggestionToEntity(s)
	if err != nil {
		return fmt.Errorf("map suggestion: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("create suggestion: %w", err)
	}
	return nil
}

// FindByID retrieves a suggestion by its public id.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*domain.Suggestion, error) {
	var entity entities.Suggestion
	err := r.db.WithContext(ctx).Where("public_id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find suggestion: %w", err)
	}
	return entityToSuggestion(&entity)
}

// ListByConversation returns a conversation's suggestions, newest first.
func (r *PostgresRepository) ListByConversation(ctx context.Context, conversationID string) ([]*domain.Suggestion, error) {
	var rows []entities.Suggestion
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}

	out := make([]*domain.Suggestion, 0, len(rows))
	for i := range rows {
		s, err := entityToSuggestion(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Resolve flips status from pending to the target in one conditional update.
// Zero rows affected means the suggestion was already resolved (or does not
// exist); the caller distinguishes by re-reading.
func (r *PostgresRepository) Resolve(ctx context.Context, id string, target domain.Status, text string) (*domain.Suggestion, error) {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&entities.Suggestion{}).
		Where("public_id = ? AND status = ?", id, domain.StatusPending.String()).
		Updates(map[string]interface{}{
			"status":      target.String(),
			"text":        text,
			"resolved_at": now,
			"updated_at":  now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("resolve suggestion: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, domain.ErrAlreadyResolved
	}

	return r.FindByID(ctx, id)
}

func suggestionToEntity(s *domain.Suggestion) (*entities.Suggestion, error) {
	penalties, err := json.Marshal(s.Penalties)
	if err != nil {
		return nil, err
	}
	explanations, err := json.Marshal(s.Explanations)
	if err != nil {
		return nil, err
	}

	var blockReason *string
	if s.AutosendBlockReason != nil {
		v := string(*s.AutosendBlockReason)
		blockReason = &v
	}

	return &entities.Suggestion{
		PublicID:             s.ID,
		TenantID:             s.TenantID,
		ConversationID:       s.ConversationID,
		SourceMessageID:      s.SourceMessageID,
		Channel:              s.Channel,
		RecipientID:          s.RecipientID,
		Text:                 s.Text,
		Intent:               s.Intent,
		ConfidenceSimilarity: s.Confidence.Similarity,
		ConfidenceIntent:     s.Confidence.Intent,
		ConfidenceSelfCheck:  s.Confidence.SelfCheck,
		ConfidenceTotal:      s.Confidence.Total,
		Disposition:          s.Disposition.String(),
		AutosendEligible:     s.AutosendEligible,
		AutosendBlockReason:  blockReason,
		SelfCheckNeedHandoff: s.SelfCheckNeedHandoff,
		Penalties:            datatypes.JSON(penalties),
		Explanations:         datatypes.JSON(explanations),
		Status:               s.Status.String(),
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
		ResolvedAt:           s.ResolvedAt,
	}, nil
}

func entityToSuggestion(e *entities.Suggestion) (*domain.Suggestion, error) {
	s := &domain.Suggestion{
		ID:              e.PublicID,
		TenantID:        e.TenantID,
		ConversationID:  e.ConversationID,
		SourceMessageID: e.SourceMessageID,
		Channel:         e.Channel,
		RecipientID:     e.RecipientID,
		Text:            e.Text,
		Intent:          e.Intent,
		Confidence: domain.Confidence{
			Similarity: e.ConfidenceSimilarity,
			Intent:     e.ConfidenceIntent,
			SelfCheck:  e.ConfidenceSelfCheck,
			Total:      e.ConfidenceTotal,
		},
		Disposition:          decisionDisposition(e.Disposition),
		AutosendEligible:     e.AutosendEligible,
		SelfCheckNeedHandoff: e.SelfCheckNeedHandoff,
		Status:               domain.Status(e.Status),
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
		ResolvedAt:           e.ResolvedAt,
	}

	if e.AutosendBlockReason != nil {
		reason := blockReasonFromString(*e.AutosendBlockReason)
		s.AutosendBlockReason = &reason
	}

	if len(e.Penalties) > 0 {
		if err := json.Unmarshal(e.Penalties, &s.Penalties); err != nil {
			return nil, fmt.Errorf("unmarshal penalties: %w", err)
		}
	}
	if len(e.Explanations) > 0 {
		if err := json.Unmarshal(e.Explanations, &s.Explanations); err != nil {
			return nil, fmt.Errorf("unmarshal explanations: %w", err)
		}
	}

	return s, nil
}
