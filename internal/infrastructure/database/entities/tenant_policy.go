package entities

import (
	"time"

	"gorm.io/datatypes"
)

// TableName specifies the table name for TenantPolicy.
func (TenantPolicy) TableName() string {
	return "tenant_policies"
}

// TenantPolicy represents the persisted per-tenant configuration. Decision
// policy, delay policy and working hours are stored as jsonb documents keyed
// by tenant; absent rows read as system defaults.
type TenantPolicy struct {
	ID             uint           `gorm:"primaryKey"`
	TenantID       string         `gorm:"uniqueIndex;size:64"`
	DecisionPolicy datatypes.JSON `gorm:"type:jsonb"`
	DelayPolicy    datatypes.JSON `gorm:"type:jsonb"`
	WorkingHours   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
