package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/gtd_payments/internal/models"
)

// GatewayTransactionRepository is the append-only store for gateway attempt records.
type GatewayTransactionRepository struct {
	db *sqlx.DB
}

// NewGatewayTransactionRepository creates a new GatewayTransactionRepository.
func NewGatewayTransactionRepository(db *sqlx.DB) *GatewayTransactionRepository {
	return &GatewayTransactionRepository{db: db}
}

// TransactionFilter narrows List results.
type TransactionFilter struct {
	Gateway models.GatewayType
	Status  models.TransactionStatus
	Limit   int
	Offset  int
}

// Append inserts rec and returns its id. Records are never updated.
func (r *GatewayTransactionRepository) Append(ctx context.Context, rec *models.PaymentGatewayTransaction) (int64, error) {
	const q = `
		INSERT INTO payment_gateway_transactions (
			transaction_id, gateway_transaction_id, gateway, operation, transaction_type,
			amount, currency, status, success, card_brand, card_last4, customer_email,
			error_code, error_message, raw_request, raw_response, ip_address, user_agent, created_at
		) VALUES (
			$1,$2,$3,$4,$5,
			$6,$7,$8,$9,$10,$11,$12,
			$13,$14,$15,$16,$17,$18,COALESCE($19, NOW())
		) RETURNING id`

	var createdAt any
	if !rec.CreatedAt.IsZero() {
		createdAt = rec.CreatedAt
	}

	var id int64
	err := r.db.QueryRowContext(ctx, q,
		rec.TransactionID, rec.GatewayTransactionID, rec.Gateway, rec.Operation, rec.TransactionType,
		rec.Amount, rec.Currency, rec.Status, rec.Success, rec.CardBrand, rec.CardLast4, rec.CustomerEmail,
		rec.ErrorCode, rec.ErrorMessage, rec.RawRequest, rec.RawResponse,
		rec.IPAddress, rec.UserAgent, createdAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert gateway transaction: %w", err)
	}
	return id, nil
}

// ListByTransactionID returns every record for an orchestrator or gateway id,
// oldest first.
func (r *GatewayTransactionRepository) ListByTransactionID(ctx context.Context, transactionID string) ([]models.PaymentGatewayTransaction, error) {
	const q = `
		SELECT * FROM payment_gateway_transactions
		WHERE transaction_id = $1 OR gateway_transaction_id = $1
		ORDER BY created_at ASC, id ASC`

	var records []models.PaymentGatewayTransaction
	if err := r.db.SelectContext(ctx, &records, q, transactionID); err != nil {
		return nil, fmt.Errorf("select gateway transactions: %w", err)
	}
	return records, nil
}

// List returns recent records, newest first.
func (r *GatewayTransactionRepository) List(ctx context.Context, f TransactionFilter) ([]models.PaymentGatewayTransaction, error) {
	q, args := buildListQuery(f)

	var records []models.PaymentGatewayTransaction
	if err := r.db.SelectContext(ctx, &records, q, args...); err != nil {
		return nil, fmt.Errorf("list gateway transactions: %w", err)
	}
	return records, nil
}

func buildListQuery(f TransactionFilter) (string, []any) {
	q := `SELECT * FROM payment_gateway_transactions WHERE 1=1`
	var args []any
	if f.Gateway != "" {
		args = append(args, f.Gateway)
		q += fmt.Sprintf(` AND gateway = $%d`, len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		q += fmt.Sprintf(` AND status = $%d`, len(args))
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	q += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	return q, args
}
