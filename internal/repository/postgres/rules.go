// Package postgres persists optimization rule sets and the decision log.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignite/campaign-optimizer/internal/engine"
)

// RuleRepo loads and saves optimization rules against PostgreSQL.
type RuleRepo struct{ db *sql.DB }

// NewRuleRepo creates a Postgres-backed rule repository.
func NewRuleRepo(db *sql.DB) *RuleRepo { return &RuleRepo{db: db} }

// ListEnabled returns the enabled rule set in configuration order. The
// returned set is validated so a bad row surfaces at load time, not during a
// batch.
func (r *RuleRepo) ListEnabled(ctx context.Context) ([]*engine.OptimizationRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, metric, operator, threshold, action, priority, frequency, last_executed
		FROM optimization_rules
		WHERE enabled = true
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var out []*engine.OptimizationRule
	for rows.Next() {
		rule := &engine.OptimizationRule{Enabled: true}
		var lastExecuted sql.NullTime
		if err := rows.Scan(
			&rule.ID, &rule.Name, &rule.Metric, &rule.Operator, &rule.Threshold,
			&rule.Action, &rule.Priority, &rule.Frequency, &lastExecuted,
		); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		if lastExecuted.Valid {
			ts := lastExecuted.Time
			rule.LastExecuted = &ts
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}

	if err := engine.ValidateRules(out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveExecutionTimes writes back the rule timestamps mutated during a batch
// so frequency gates survive a restart.
func (r *RuleRepo) SaveExecutionTimes(ctx context.Context, rules []*engine.OptimizationRule) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rule update: %w", err)
	}
	defer tx.Rollback()

	for _, rule := range rules {
		if rule.LastExecuted == nil {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE optimization_rules SET last_executed = $1 WHERE id = $2
		`, *rule.LastExecuted, rule.ID); err != nil {
			return fmt.Errorf("update rule %s: %w", rule.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rule update: %w", err)
	}
	return nil
}

// DecisionLogRepo appends batch outputs to the decision log.
type DecisionLogRepo struct{ db *sql.DB }

// NewDecisionLogRepo creates a Postgres-backed decision log.
func NewDecisionLogRepo(db *sql.DB) *DecisionLogRepo { return &DecisionLogRepo{db: db} }

// RecordBatch appends every fired action and reallocation proposal from one
// batch in a single transaction.
func (r *DecisionLogRepo) RecordBatch(ctx context.Context, result *engine.BatchResult) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin decision log: %w", err)
	}
	defer tx.Rollback()

	for _, a := range result.FiredActions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO decision_log
				(id, batch_id, campaign_id, kind, rule_id, action, metric, observed, threshold, created_at)
			VALUES ($1, $2, $3, 'rule_action', $4, $5, $6, $7, $8, $9)
		`, a.ID, result.BatchID, a.CampaignID, a.RuleID, a.Action, a.Metric, a.Observed, a.Threshold, a.FiredAt); err != nil {
			return fmt.Errorf("log action %s: %w", a.ID, err)
		}
	}
	for _, p := range result.ReallocationProposals {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO decision_log
				(id, batch_id, campaign_id, kind, action, observed, threshold, created_at)
			VALUES ($1, $2, $3, 'reallocation', $4, $5, $6, $7)
		`, uuid.New().String(), result.BatchID, p.CampaignID, p.Direction, p.CampaignROAS, p.CohortROAS, result.CompletedAt); err != nil {
			return fmt.Errorf("log proposal for %s: %w", p.CampaignID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit decision log: %w", err)
	}
	return nil
}
