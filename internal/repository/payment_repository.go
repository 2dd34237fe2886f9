package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/groupgate/pixbot/internal/models"
)

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Upsert writes a payment record keyed by the gateway payment id. A repeated
// id overwrites the previous row; last write wins.
func (r *PaymentRepository) Upsert(ctx context.Context, payment *models.PaymentRecord) error {
	const query = `
INSERT INTO payments (payment_id, user_id, plan, amount, status, created_at)
VALUES (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
    user_id = VALUES(user_id),
    plan = VALUES(plan),
    amount = VALUES(amount),
    status = VALUES(status),
    created_at = VALUES(created_at)`
	if _, err := r.db.ExecContext(ctx, query, payment.PaymentID, payment.UserID, payment.Plan, payment.Amount, payment.Status, payment.CreatedAt); err != nil {
		return fmt.Errorf("upsert payment: %w", err)
	}
	return nil
}

// ListRecent returns the newest payment records for the ops surface.
func (r *PaymentRepository) ListRecent(ctx context.Context, limit int) ([]models.PaymentRecord, error) {
	const query = `
SELECT payment_id, user_id, plan, amount, status, created_at
FROM payments
ORDER BY created_at DESC
LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []models.PaymentRecord
	for rows.Next() {
		var p models.PaymentRecord
		if err := rows.Scan(&p.PaymentID, &p.UserID, &p.Plan, &p.Amount, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
