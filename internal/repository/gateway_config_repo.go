package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/gtd_payments/internal/models"
)

const gatewayConfigColumns = `
	id, gateway_type, name, status, is_primary, is_backup, priority, credentials,
	supports_tokenization, supports_3ds, supports_refunds, supports_partial_refunds,
	supports_subscriptions, supported_currencies, supported_countries,
	min_amount, max_amount, created_at, updated_at`

// GatewayConfigRepository reads and maintains payment_gateway_configs.
type GatewayConfigRepository struct {
	db *sqlx.DB
}

// NewGatewayConfigRepository creates a new GatewayConfigRepository.
func NewGatewayConfigRepository(db *sqlx.DB) *GatewayConfigRepository {
	return &GatewayConfigRepository{db: db}
}

// GetActive returns usable configs (active or testing) ordered by priority.
func (r *GatewayConfigRepository) GetActive(ctx context.Context) ([]*models.PaymentGatewayConfig, error) {
	q := `SELECT ` + gatewayConfigColumns + `
		FROM payment_gateway_configs
		WHERE status IN ('active', 'testing')
		ORDER BY priority ASC, id ASC`

	var configs []*models.PaymentGatewayConfig
	if err := r.db.SelectContext(ctx, &configs, q); err != nil {
		return nil, fmt.Errorf("select active gateway configs: %w", err)
	}
	return configs, nil
}

// GetPrimary returns the primary config or nil when none is flagged.
func (r *GatewayConfigRepository) GetPrimary(ctx context.Context) (*models.PaymentGatewayConfig, error) {
	return r.getOne(ctx, `WHERE is_primary = true ORDER BY priority ASC LIMIT 1`)
}

// GetBackup returns the flagged backup with the lowest priority, or nil when
// none is flagged.
func (r *GatewayConfigRepository) GetBackup(ctx context.Context) (*models.PaymentGatewayConfig, error) {
	return r.getOne(ctx, `WHERE is_backup = true ORDER BY priority ASC LIMIT 1`)
}

// GetByType returns the config for gatewayType or nil.
func (r *GatewayConfigRepository) GetByType(ctx context.Context, gatewayType models.GatewayType) (*models.PaymentGatewayConfig, error) {
	return r.getOne(ctx, `WHERE gateway_type = $1 LIMIT 1`, gatewayType)
}

// List returns every config regardless of status.
func (r *GatewayConfigRepository) List(ctx context.Context) ([]*models.PaymentGatewayConfig, error) {
	q := `SELECT ` + gatewayConfigColumns + ` FROM payment_gateway_configs ORDER BY priority ASC, id ASC`

	var configs []*models.PaymentGatewayConfig
	if err := r.db.SelectContext(ctx, &configs, q); err != nil {
		return nil, fmt.Errorf("select gateway configs: %w", err)
	}
	return configs, nil
}

// UpdateStatus sets the status of one gateway. It returns sql.ErrNoRows when
// no config exists for gatewayType.
func (r *GatewayConfigRepository) UpdateStatus(ctx context.Context, gatewayType models.GatewayType, status models.GatewayStatus) error {
	const q = `UPDATE payment_gateway_configs SET status = $2, updated_at = NOW() WHERE gateway_type = $1`
	res, err := r.db.ExecContext(ctx, q, gatewayType, status)
	if err != nil {
		return fmt.Errorf("update gateway status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetRouting flags gatewayType as the primary or as a backup in one
// transaction. Primary moves: the previous primary is cleared. Backups
// accumulate; GetBackup returns the one with the lowest priority.
func (r *GatewayConfigRepository) SetRouting(ctx context.Context, gatewayType models.GatewayType, primary bool) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := routingStatements(primary)
	for i, q := range stmts {
		var args []any
		if strings.Contains(q, "$1") {
			args = []any{gatewayType}
		}
		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return fmt.Errorf("set routing for %s: %w", gatewayType, err)
		}
		if i == len(stmts)-1 {
			if n, _ := res.RowsAffected(); n == 0 {
				return sql.ErrNoRows
			}
		}
	}
	return tx.Commit()
}

// routingStatements returns the updates SetRouting runs in order. The last
// statement targets gatewayType ($1); a gateway is never both primary and
// backup.
func routingStatements(primary bool) []string {
	if primary {
		return []string{
			`UPDATE payment_gateway_configs SET is_primary = false, updated_at = NOW() WHERE is_primary AND gateway_type <> $1`,
			`UPDATE payment_gateway_configs SET is_primary = true, is_backup = false, updated_at = NOW() WHERE gateway_type = $1`,
		}
	}
	return []string{
		`UPDATE payment_gateway_configs SET is_primary = false, is_backup = true, updated_at = NOW() WHERE gateway_type = $1`,
	}
}

func (r *GatewayConfigRepository) getOne(ctx context.Context, where string, args ...any) (*models.PaymentGatewayConfig, error) {
	q := `SELECT ` + gatewayConfigColumns + ` FROM payment_gateway_configs ` + where

	var cfg models.PaymentGatewayConfig
	if err := r.db.GetContext(ctx, &cfg, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get gateway config: %w", err)
	}
	return &cfg, nil
}
