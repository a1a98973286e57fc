// Package policy persists tenant policies as jsonb documents.
package policy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"replygate/internal/domain/decision"
	"replygate/internal/domain/delay"
	"replygate/internal/infrastructure/database/entities"
)

// PostgresRepository implements policy.Repository. Absent tenant rows read
// as system defaults so a fresh tenant needs no provisioning step.
type PostgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetDecisionPolicy returns the tenant's decision policy or defaults.
func (r *PostgresRepository) GetDecisionPolicy(ctx context.Context, tenantID string) (decision.Policy, error) {
	row, err := r.row(ctx, tenantID)
	if err != nil {
		return decision.Policy{}, err
	}
	if row == nil || len(row.DecisionPolicy) == 0 {
		return decision.DefaultPolicy(tenantID), nil
	}

	var p decision.Policy
	if err := json.Unmarshal(row.DecisionPolicy, &p); err != nil {
		return decision.Policy{}, fmt.Errorf("unmarshal decision policy: %w", err)
	}
	return p, nil
}

// SaveDecisionPolicy upserts the tenant's decision policy.
func (r *PostgresRepository) SaveDecisionPolicy(ctx context.Context, p decision.Policy) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal decision policy: %w", err)
	}
	return r.upsert(ctx, p.TenantID, "decision_policy", doc)
}

// GetDelayPolicy returns the tenant's delay policy or defaults.
func (r *PostgresRepository) GetDelayPolicy(ctx context.Context, tenantID string) (delay.Policy, error) {
	row, err := r.row(ctx, tenantID)
	if err != nil {
		return delay.Policy{}, err
	}
	if row == nil || len(row.DelayPolicy) == 0 {
		return delay.DefaultPolicy(tenantID), nil
	}

	var p delay.Policy
	if err := json.Unmarshal(row.DelayPolicy, &p); err != nil {
		return delay.Policy{}, fmt.Errorf("unmarshal delay policy: %w", err)
	}
	return p, nil
}

// SaveDelayPolicy upserts the tenant's delay policy.
func (r *PostgresRepository) SaveDelayPolicy(ctx context.Context, p delay.Policy) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal delay policy: %w", err)
	}
	return r.upsert(ctx, p.TenantID, "delay_policy", doc)
}

// GetWorkingHours returns the tenant's working hours or defaults.
func (r *PostgresRepository) GetWorkingHours(ctx context.Context, tenantID string) (delay.WorkingHours, error) {
	row, err := r.row(ctx, tenantID)
	if err != nil {
		return delay.WorkingHours{}, err
	}
	if row == nil || len(row.WorkingHours) == 0 {
		return delay.DefaultWorkingHours(), nil
	}

	var h delay.WorkingHours
	if err := json.Unmarshal(row.WorkingHours, &h); err != nil {
		return delay.WorkingHours{}, fmt.Errorf("unmarshal working hours: %w", err)
	}
	return h, nil
}

// SaveWorkingHours upserts the tenant's working hours.
func (r *PostgresRepository) SaveWorkingHours(ctx context.Context, tenantID string, h delay.WorkingHours) error {
	doc, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("marshal working hours: %w", err)
	}
	return r.upsert(ctx, tenantID, "working_hours", doc)
}

func (r *PostgresRepository) row(ctx context.Context, tenantID string) (*entities.TenantPolicy, error) {
	var row entities.TenantPolicy
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find tenant policy: %w", err)
	}
	return &row, nil
}

func (r *PostgresRepository) upsert(ctx context.Context, tenantID, column string, doc []byte) error {
	row := entities.TenantPolicy{TenantID: tenantID}
	switch column {
	case "decision_policy":
		row.DecisionPolicy = datatypes.JSON(doc)
	case "delay_policy":
		row.DelayPolicy = datatypes.JSON(doc)
	case "working_hours":
		row.WorkingHours = datatypes.JSON(doc)
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{column, "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert tenant policy: %w", err)
	}
	return nil
}
