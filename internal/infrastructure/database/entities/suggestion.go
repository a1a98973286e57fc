package entities

import (
	"time"

	"gorm.io/datatypes"
)

// TableName specifies the table name for Suggestion.
func (Suggestion) TableName() string {
	return "suggestions"
}

// Suggestion represents the persisted reply candidate with its decision
// fields, kept stable for analytics queries.
type Suggestion struct {
	ID                   uint   `gorm:"primaryKey"`
	PublicID             string `gorm:"uniqueIndex;size:64"`
	TenantID             string `gorm:"size:64;index:idx_suggestion_tenant"`
	ConversationID       string `gorm:"size:64;index:idx_suggestion_conversation"`
	SourceMessageID      string `gorm:"size:64;index"`
	Channel              string `gorm:"size:32"`
	RecipientID          string `gorm:"size:64"`
	Text                 string `gorm:"type:text"`
	Intent               string `gorm:"size:64;index:idx_suggestion_intent"`
	ConfidenceSimilarity float64
	ConfidenceIntent     float64
	ConfidenceSelfCheck  float64
	ConfidenceTotal      float64        `gorm:"index:idx_suggestion_confidence"`
	Disposition          string         `gorm:"size:32;index:idx_suggestion_disposition"`
	AutosendEligible     bool           `gorm:"default:false"`
	AutosendBlockReason  *string        `gorm:"size:32"`
	SelfCheckNeedHandoff bool           `gorm:"default:false"`
	Penalties            datatypes.JSON `gorm:"type:jsonb"`
	Explanations         datatypes.JSON `gorm:"type:jsonb"`
	Status               string         `gorm:"size:32;index:idx_suggestion_status"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
	ResolvedAt           *time.Time
}

// TableName specifies the table name for HumanAction.
func (HumanAction) TableName() string {
	return "human_actions"
}

// HumanAction represents the persisted, immutable resolution audit record.
type HumanAction struct {
	ID           uint   `gorm:"primaryKey"`
	PublicID     string `gorm:"uniqueIndex;size:64"`
	SuggestionID string `gorm:"size:64;index:idx_action_suggestion"`
	Action       string `gorm:"size:32"`
	ActorID      string `gorm:"size:64"`
	OriginalText string `gorm:"type:text"`
	EditedText   *string `gorm:"type:text"`
	Reason       *string `gorm:"type:text"`
	CreatedAt    time.Time
}
