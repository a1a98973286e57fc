package suggestion

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"replygate/internal/domain/decision"
	domain "replygate/internal/domain/suggestion"
	"replygate/internal/infrastructure/database/entities"
)

// ActionRepository persists the immutable human action records.
type ActionRepository struct {
	db *gorm.DB
}

// NewActionRepository constructs the repository.
func NewActionRepository(db *gorm.DB) *ActionRepository {
	return &ActionRepository{db: db}
}

// Create inserts a new action record. Records are never updated or deleted.
func (r *ActionRepository) Create(ctx context.Context, rec *domain.ActionRecord) error {
	entity := &entities.HumanAction{
		PublicID:     rec.ID,
		SuggestionID: rec.SuggestionID,
		Action:       string(rec.Action),
		ActorID:      rec.ActorID,
		OriginalText: rec.OriginalText,
		EditedText:   rec.EditedText,
		Reason:       rec.Reason,
		CreatedAt:    rec.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("create action record: %w", err)
	}
	return nil
}

// ListBySuggestion returns a suggestion's audit trail, oldest first.
func (r *ActionRepository) ListBySuggestion(ctx context.Context, suggestionID string) ([]*domain.ActionRecord, error) {
	var rows []entities.HumanAction
	err := r.db.WithContext(ctx).
		Where("suggestion_id = ?", suggestionID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list action records: %w", err)
	}

	out := make([]*domain.ActionRecord, 0, len(rows))
	for i := range rows {
		e := rows[i]
		out = append(out, &domain.ActionRecord{
			ID:           e.PublicID,
			SuggestionID: e.SuggestionID,
			Action:       domain.HumanAction(e.Action),
			ActorID:      e.ActorID,
			OriginalText: e.OriginalText,
			EditedText:   e.EditedText,
			Reason:       e.Reason,
			CreatedAt:    e.CreatedAt,
		})
	}
	return out, nil
}

func decisionDisposition(raw string) decision.Disposition {
	switch decision.Disposition(raw) {
	case decision.DispositionAutoSend, decision.DispositionNeedApproval, decision.DispositionEscalate:
		return decision.Disposition(raw)
	default:
		// Unknown persisted value degrades toward the safe disposition.
		return decision.DispositionEscalate
	}
}

func blockReasonFromString(raw string) decision.AutosendBlockReason {
	return decision.AutosendBlockReason(raw)
}
