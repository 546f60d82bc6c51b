package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/novelreads-coin-ledger/internal/domain/payment"
	"github.com/novelreads-coin-ledger/internal/platform/persistence"
)

// PaymentRepository implements the payment.Repository interface for PostgreSQL
type PaymentRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewPaymentRepository creates a new PostgreSQL payment repository
func NewPaymentRepository(logger *slog.Logger, db *persistence.PostgresDB) payment.Repository {
	return &PaymentRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so the status transition
// commits atomically with the coin credit it triggers.
func (r *PaymentRepository) WithTx(tx pgx.Tx) payment.Repository {
	return &PaymentRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new pending payment
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	query := `
		INSERT INTO payments (user_id, transaction_ref, amount, coins, method, status, package_id, pay_url, gateway_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		p.UserID,
		p.TransactionRef,
		p.Amount,
		p.Coins,
		p.Method,
		p.Status,
		p.PackageID,
		p.PayURL,
		p.GatewayCode,
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&p.ID)

	if err != nil {
		r.logger.Error("Failed to create payment", "transaction_ref", p.TransactionRef, "error", err)
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// GetByTransactionRef retrieves a payment by its merchant reference
func (r *PaymentRepository) GetByTransactionRef(ctx context.Context, transactionRef string) (*payment.Payment, error) {
	query := paymentSelect + ` WHERE transaction_ref = $1`
	return r.getOne(ctx, query, transactionRef)
}

// GetByTransactionRefForUpdate obtains a pessimistic lock on the payment row
// and returns its current state. Reconciliation must use this within a
// transaction so the status re-read and the coin credit happen under one lock.
func (r *PaymentRepository) GetByTransactionRefForUpdate(ctx context.Context, transactionRef string) (*payment.Payment, error) {
	query := paymentSelect + ` WHERE transaction_ref = $1 FOR UPDATE`
	return r.getOne(ctx, query, transactionRef)
}

const paymentSelect = `
	SELECT id, user_id, transaction_ref, amount, coins, method, status, package_id, pay_url, gateway_code, callback_data, completed_at, created_at, updated_at
	FROM payments`

func (r *PaymentRepository) getOne(ctx context.Context, query, transactionRef string) (*payment.Payment, error) {
	var p payment.Payment
	err := r.querier.QueryRow(ctx, query, transactionRef).Scan(
		&p.ID,
		&p.UserID,
		&p.TransactionRef,
		&p.Amount,
		&p.Coins,
		&p.Method,
		&p.Status,
		&p.PackageID,
		&p.PayURL,
		&p.GatewayCode,
		&p.CallbackData,
		&p.CompletedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrPaymentNotFound{TransactionRef: transactionRef}
		}
		r.logger.Error("Failed to get payment", "transaction_ref", transactionRef, "error", err)
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return &p, nil
}

// UpdateStatus persists a status transition
func (r *PaymentRepository) UpdateStatus(ctx context.Context, p *payment.Payment) error {
	query := `
		UPDATE payments
		SET status = $1, gateway_code = $2, callback_data = $3, completed_at = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := r.querier.Exec(ctx, query, p.Status, p.GatewayCode, p.CallbackData, p.CompletedAt, p.UpdatedAt, p.ID)
	if err != nil {
		r.logger.Error("Failed to update payment status", "transaction_ref", p.TransactionRef, "error", err)
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return payment.ErrPaymentNotFound{TransactionRef: p.TransactionRef}
	}

	return nil
}

// ListByUserID retrieves a page of the user's payments, newest first
func (r *PaymentRepository) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*payment.Payment, error) {
	query := paymentSelect + `
	WHERE user_id = $1
	ORDER BY created_at DESC, id DESC
	LIMIT $2 OFFSET $3`

	rows, err := r.querier.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list payments", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*payment.Payment
	for rows.Next() {
		var p payment.Payment
		err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.TransactionRef,
			&p.Amount,
			&p.Coins,
			&p.Method,
			&p.Status,
			&p.PackageID,
			&p.PayURL,
			&p.GatewayCode,
			&p.CallbackData,
			&p.CompletedAt,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan payment", "error", err)
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, &p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over payments", "error", err)
		return nil, fmt.Errorf("error iterating over payments: %w", err)
	}

	return payments, nil
}

// CountByUserID returns the total number of payments for a user
func (r *PaymentRepository) CountByUserID(ctx context.Context, userID int64) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM payments
		WHERE user_id = $1
	`

	var count int64
	if err := r.querier.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		r.logger.Error("Failed to count payments", "user_id", userID, "error", err)
		return 0, fmt.Errorf("failed to count payments: %w", err)
	}

	return count, nil
}
