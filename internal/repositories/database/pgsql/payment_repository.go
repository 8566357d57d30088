package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/donation_payments_app/internal/apperrors"
	"github.com/SscSPs/donation_payments_app/internal/core/domain"
	portsrepo "github.com/SscSPs/donation_payments_app/internal/core/ports/repositories"
	"github.com/SscSPs/donation_payments_app/internal/models"
	"github.com/SscSPs/donation_payments_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultListLimit = 20
	maxListLimit     = 500
	intentColumns    = `order_id, account_id, amount, currency_code, status, gateway_txn_ref, created_at, updated_at`
)

type PgxPaymentRepository struct {
	BaseRepository
}

func newPgxPaymentRepository(pool *pgxpool.Pool) *PgxPaymentRepository {
	return &PgxPaymentRepository{BaseRepository{Pool: pool}}
}

var _ portsrepo.PaymentIntentRepositoryFacade = (*PgxPaymentRepository)(nil)

func scanIntent(row pgx.Row) (models.PaymentIntent, error) {
	var m models.PaymentIntent
	err := row.Scan(
		&m.OrderID,
		&m.AccountID,
		&m.Amount,
		&m.CurrencyCode,
		&m.Status,
		&m.GatewayTxnRef,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	return m, err
}

// SaveIntent inserts a new PENDING intent.
func (r *PgxPaymentRepository) SaveIntent(ctx context.Context, intent domain.PaymentIntent) error {
	m := mapping.ToModelPaymentIntent(intent)
	query := `INSERT INTO payment_intents (` + intentColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	_, err := r.Pool.Exec(ctx, query,
		m.OrderID,
		m.AccountID,
		m.Amount,
		m.CurrencyCode,
		m.Status,
		m.GatewayTxnRef,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: payment intent %s already exists", apperrors.ErrDuplicate, m.OrderID)
		}
		return fmt.Errorf("failed to save payment intent %s: %w", m.OrderID, err)
	}
	return nil
}

// FindIntentByOrderID retrieves an intent by its order id.
func (r *PgxPaymentRepository) FindIntentByOrderID(ctx context.Context, orderID string) (*domain.PaymentIntent, error) {
	return r.findIntent(ctx, r.Pool, orderID)
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *PgxPaymentRepository) findIntent(ctx context.Context, q queryRower, orderID string) (*domain.PaymentIntent, error) {
	query := `SELECT ` + intentColumns + ` FROM payment_intents WHERE order_id = $1;`
	m, err := scanIntent(q.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find payment intent %s: %w", orderID, err)
	}
	intent := mapping.ToDomainPaymentIntent(m)
	return &intent, nil
}

// ListIntents retrieves intents newest first using keyset pagination on (created_at, order_id).
func (r *PgxPaymentRepository) ListIntents(ctx context.Context, filter domain.IntentFilter) ([]domain.PaymentIntent, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	var (
		conds []string
		args  []any
	)
	if filter.AccountID != nil {
		args = append(args, *filter.AccountID)
		conds = append(conds, fmt.Sprintf("account_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.After != nil {
		args = append(args, filter.After.CreatedAt, filter.After.OrderID)
		conds = append(conds, fmt.Sprintf("(created_at, order_id) < ($%d, $%d)", len(args)-1, len(args)))
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + intentColumns + ` FROM payment_intents`)
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	args = append(args, limit)
	sb.WriteString(fmt.Sprintf(" ORDER BY created_at DESC, order_id DESC LIMIT $%d;", len(args)))

	rows, err := r.Pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment intents: %w", err)
	}
	modelIntents, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.PaymentIntent, error) {
		return scanIntent(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan payment intents: %w", err)
	}
	return mapping.ToDomainPaymentIntentSlice(modelIntents), nil
}

// TransitionIntent moves a PENDING intent to a terminal status with a single
// conditional UPDATE. Concurrent callers race on the row lock; only one matches.
func (r *PgxPaymentRepository) TransitionIntent(ctx context.Context, orderID string, to domain.PaymentStatus, gatewayTxnRef *string, at time.Time) (bool, *domain.PaymentIntent, error) {
	if !domain.CanTransition(domain.PaymentPending, to) {
		return false, nil, fmt.Errorf("%w: cannot transition to %s", apperrors.ErrValidation, to)
	}
	query := `
		UPDATE payment_intents
		SET status = $2, gateway_txn_ref = COALESCE($3, gateway_txn_ref), updated_at = $4
		WHERE order_id = $1 AND status = 'PENDING'
		RETURNING ` + intentColumns + `;`
	return r.conditionalUpdate(ctx, orderID, query, orderID, string(to), gatewayTxnRef, at)
}

// TouchPendingIntent bumps updated_at when the intent is still PENDING.
func (r *PgxPaymentRepository) TouchPendingIntent(ctx context.Context, orderID string, at time.Time) (bool, *domain.PaymentIntent, error) {
	query := `
		UPDATE payment_intents
		SET updated_at = $2
		WHERE order_id = $1 AND status = 'PENDING'
		RETURNING ` + intentColumns + `;`
	return r.conditionalUpdate(ctx, orderID, query, orderID, at)
}

func (r *PgxPaymentRepository) conditionalUpdate(ctx context.Context, orderID, query string, args ...any) (bool, *domain.PaymentIntent, error) {
	var (
		applied bool
		current *domain.PaymentIntent
	)
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		m, err := scanIntent(tx.QueryRow(ctx, query, args...))
		if err == nil {
			intent := mapping.ToDomainPaymentIntent(m)
			applied, current = true, &intent
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to update payment intent %s: %w", orderID, err)
		}
		// Nothing matched: the intent is missing or already terminal.
		current, err = r.findIntent(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return false, nil, err
	}
	return applied, current, nil
}
