package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/apperror"
)

const paymentColumns = `id, user_id, type, amount, currency, listing_id, status, checkout_url,
	promotion_type, promotion_days, failure_reason, created_at, paid_at`

type paymentRow struct {
	ID            uuid.UUID      `db:"id"`
	UserID        uuid.UUID      `db:"user_id"`
	Type          string         `db:"type"`
	Amount        float64        `db:"amount"`
	Currency      string         `db:"currency"`
	ListingID     uuid.UUID      `db:"listing_id"`
	Status        string         `db:"status"`
	CheckoutURL   sql.NullString `db:"checkout_url"`
	PromotionType sql.NullString `db:"promotion_type"`
	PromotionDays int            `db:"promotion_days"`
	FailureReason sql.NullString `db:"failure_reason"`
	CreatedAt     time.Time      `db:"created_at"`
	PaidAt        *time.Time     `db:"paid_at"`
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func (row *paymentRow) toEntity() *entity.Payment {
	p := &entity.Payment{
		ID:            row.ID,
		UserID:        row.UserID,
		Type:          valueobject.PaymentType(row.Type),
		Amount:        valueobject.Money{Amount: row.Amount, Currency: row.Currency},
		ListingID:     row.ListingID,
		Status:        valueobject.PaymentStatus(row.Status),
		CheckoutURL:   nullString(row.CheckoutURL),
		PromotionDays: row.PromotionDays,
		FailureReason: nullString(row.FailureReason),
		CreatedAt:     row.CreatedAt,
		PaidAt:        row.PaidAt,
	}
	if row.PromotionType.Valid {
		t := valueobject.PromotionType(row.PromotionType.String)
		p.PromotionType = &t
	}
	return p
}

type PaymentRepositoryAdapter struct {
	db *sqlx.DB
}

func NewPaymentRepositoryAdapter(db *sqlx.DB) *PaymentRepositoryAdapter {
	return &PaymentRepositoryAdapter{db: db}
}

// CreatePending опирается на частичный уникальный индекс uniq_payments_pending:
// при конфликте возвращается уже существующая ожидающая запись.
func (r *PaymentRepositoryAdapter) CreatePending(ctx context.Context, p *entity.Payment) (*entity.Payment, error) {
	var promotionType *string
	if p.PromotionType != nil {
		t := string(*p.PromotionType)
		promotionType = &t
	}

	query := `
		INSERT INTO payments (id, user_id, type, amount, currency, listing_id, status, promotion_type, promotion_days, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7, $8, $9)
		ON CONFLICT (user_id, listing_id, type) WHERE status = 'pending' DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query,
		p.ID, p.UserID, string(p.Type), p.Amount.Amount, p.Amount.Currency, p.ListingID,
		promotionType, p.PromotionDays, p.CreatedAt,
	)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать платёж")
	}

	inserted, err := rowsChanged(res)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать платёж")
	}
	if inserted {
		return r.FindByID(ctx, p.ID)
	}
	return r.FindPending(ctx, p.UserID, p.ListingID, p.Type)
}

func (r *PaymentRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	row, err := getByID[paymentRow](ctx, r.db, "payments", paymentColumns, id, apperror.ErrPaymentNotFound)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить платёж")
	}
	return row.toEntity(), nil
}

func (r *PaymentRepositoryAdapter) FindPending(ctx context.Context, userID, listingID uuid.UUID, paymentType valueobject.PaymentType) (*entity.Payment, error) {
	var row paymentRow
	query := `SELECT ` + paymentColumns + `
		FROM payments
		WHERE user_id = $1 AND listing_id = $2 AND type = $3 AND status = 'pending'
	`
	err := r.db.GetContext(ctx, &row, query, userID, listingID, string(paymentType))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrPaymentNotFound
	}
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить платёж")
	}
	return row.toEntity(), nil
}

func (r *PaymentRepositoryAdapter) SetCheckoutURL(ctx context.Context, id uuid.UUID, url string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE payments SET checkout_url = $2 WHERE id = $1`, id, url)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить ссылку на оплату")
	}
	changed, err := rowsChanged(res)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить ссылку на оплату")
	}
	if !changed {
		return apperror.ErrPaymentNotFound
	}
	return nil
}

func (r *PaymentRepositoryAdapter) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payments SET status = 'paid', paid_at = $2
		WHERE id = $1 AND status = 'pending'
	`, id, at)
	if err != nil {
		return false, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось подтвердить платёж")
	}
	return rowsChanged(res)
}

func (r *PaymentRepositoryAdapter) MarkFailed(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payments SET status = 'failed', failure_reason = NULLIF($2, '')
		WHERE id = $1 AND status = 'pending'
	`, id, reason)
	if err != nil {
		return false, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось отклонить платёж")
	}
	return rowsChanged(res)
}

func (r *PaymentRepositoryAdapter) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Payment, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM payments WHERE user_id = $1`, userID); err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось посчитать платежи")
	}

	if limit <= 0 {
		limit = 20
	}
	var rows []paymentRow
	query := `SELECT ` + paymentColumns + `
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить платежи")
	}

	payments := make([]*entity.Payment, 0, len(rows))
	for i := range rows {
		payments = append(payments, rows[i].toEntity())
	}
	return payments, total, nil
}
