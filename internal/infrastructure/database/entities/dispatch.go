package entities

import "time"

// TableName specifies the table name for DispatchJob.
func (DispatchJob) TableName() string {
	return "dispatch_jobs"
}

// DispatchJob represents the persisted delayed-send job. The partial unique
// index on message_id enforces at most one active job per message.
type DispatchJob struct {
	ID             uint   `gorm:"primaryKey"`
	PublicID       string `gorm:"uniqueIndex;size:64"`
	MessageID      string `gorm:"size:64;index:idx_job_message"`
	ConversationID string `gorm:"size:64;index"`
	SuggestionID   string `gorm:"size:64;index"`
	TenantID       string `gorm:"size:64;index:idx_job_tenant"`
	Channel        string `gorm:"size:32"`
	RecipientID    string `gorm:"size:64"`
	PayloadText    string `gorm:"type:text"`
	TypingHint     bool   `gorm:"default:false"`
	DelayMs        int
	ScheduledAt    time.Time `gorm:"index:idx_job_due"`
	Status         string    `gorm:"size:32;index:idx_job_status"`
	ClaimedAt      *time.Time
	CancelReason   *string `gorm:"type:text"`
	FailureReason  *string `gorm:"type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName specifies the table name for OutboundMessage.
func (OutboundMessage) TableName() string {
	return "outbound_messages"
}

// OutboundMessage represents the persisted outbound message whose
// pending->sent transition guards against double sends.
type OutboundMessage struct {
	ID                uint   `gorm:"primaryKey"`
	PublicID          string `gorm:"uniqueIndex;size:64"`
	TenantID          string `gorm:"size:64;index"`
	ConversationID    string `gorm:"size:64;index"`
	SuggestionID      string `gorm:"size:64;index:idx_outbound_suggestion"`
	Channel           string `gorm:"size:32"`
	RecipientID       string `gorm:"size:64"`
	Text              string `gorm:"type:text"`
	Status            string `gorm:"size:32;index:idx_outbound_status"`
	ExternalMessageID *string `gorm:"size:128"`
	FailureReason     *string `gorm:"type:text"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
