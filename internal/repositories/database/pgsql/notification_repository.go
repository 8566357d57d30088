package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/donation_payments_app/internal/core/domain"
	portsrepo "github.com/SscSPs/donation_payments_app/internal/core/ports/repositories"
	"github.com/SscSPs/donation_payments_app/internal/models"
	"github.com/SscSPs/donation_payments_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxNotificationRepository struct {
	BaseRepository
}

func newPgxNotificationRepository(pool *pgxpool.Pool) *PgxNotificationRepository {
	return &PgxNotificationRepository{BaseRepository{Pool: pool}}
}

var _ portsrepo.NotificationRepository = (*PgxNotificationRepository)(nil)

// SaveNotification appends a callback to the audit log.
func (r *PgxNotificationRepository) SaveNotification(ctx context.Context, n domain.PaymentNotification) error {
	m, err := mapping.ToModelPaymentNotification(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification payload: %w", err)
	}
	query := `
		INSERT INTO payment_notifications (notification_id, order_id, status_code, gateway_txn_ref, signature_valid, outcome, detail, payload, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err = r.Pool.Exec(ctx, query,
		m.NotificationID,
		m.OrderID,
		m.StatusCode,
		m.GatewayTxnRef,
		m.SignatureValid,
		m.Outcome,
		m.Detail,
		m.Payload,
		m.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save notification %s: %w", m.NotificationID, err)
	}
	return nil
}

// ListNotificationsByOrderID returns the callbacks received for an order, oldest first.
func (r *PgxNotificationRepository) ListNotificationsByOrderID(ctx context.Context, orderID string) ([]domain.PaymentNotification, error) {
	query := `
		SELECT notification_id, order_id, status_code, gateway_txn_ref, signature_valid, outcome, detail, payload, received_at
		FROM payment_notifications
		WHERE order_id = $1
		ORDER BY received_at ASC;
	`
	rows, err := r.Pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications for %s: %w", orderID, err)
	}
	modelNotifications, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.PaymentNotification, error) {
		var m models.PaymentNotification
		err := row.Scan(
			&m.NotificationID,
			&m.OrderID,
			&m.StatusCode,
			&m.GatewayTxnRef,
			&m.SignatureValid,
			&m.Outcome,
			&m.Detail,
			&m.Payload,
			&m.ReceivedAt,
		)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan notifications: %w", err)
	}

	result := make([]domain.PaymentNotification, 0, len(modelNotifications))
	for _, m := range modelNotifications {
		n, err := mapping.ToDomainPaymentNotification(m)
		if err != nil {
			return nil, fmt.Errorf("failed to decode notification %s: %w", m.NotificationID, err)
		}
		result = append(result, n)
	}
	return result, nil
}
