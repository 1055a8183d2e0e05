package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/apperror"
)

const listingColumns = `id, owner_id, kind, lifecycle_status, is_active, is_paid, paid_at, payment_id,
	is_promoted, promotion_type, promotion_start_date, promotion_end_date, promotion_position, promotion_payment_id,
	title, description, sport, location, contact, player, offer, media, views, created_at, updated_at`

// promotedNow: условие действующего продвижения; $1 всегда текущее время.
const promotedNow = `(lifecycle_status = 'ACTIVE' AND is_promoted AND promotion_end_date > $1)`

type listingRow struct {
	ID                 uuid.UUID     `db:"id"`
	OwnerID            uuid.UUID     `db:"owner_id"`
	Kind               string        `db:"kind"`
	Status             string        `db:"lifecycle_status"`
	IsActive           bool          `db:"is_active"`
	IsPaid             bool          `db:"is_paid"`
	PaidAt             *time.Time    `db:"paid_at"`
	PaymentID          uuid.NullUUID `db:"payment_id"`
	IsPromoted         bool          `db:"is_promoted"`
	PromotionType      string        `db:"promotion_type"`
	PromotionStartDate *time.Time    `db:"promotion_start_date"`
	PromotionEndDate   *time.Time    `db:"promotion_end_date"`
	PromotionPosition  int           `db:"promotion_position"`
	PromotionPaymentID uuid.NullUUID `db:"promotion_payment_id"`
	Title              string        `db:"title"`
	Description        string        `db:"description"`
	Sport              string        `db:"sport"`
	Location           string        `db:"location"`
	Contact            []byte        `db:"contact"`
	Player             []byte        `db:"player"`
	Offer              []byte        `db:"offer"`
	Media              []byte        `db:"media"`
	Views              int64         `db:"views"`
	CreatedAt          time.Time     `db:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at"`
}

type unlockRow struct {
	ListingID  uuid.UUID     `db:"listing_id"`
	UserID     uuid.UUID     `db:"user_id"`
	UnlockedAt time.Time     `db:"unlocked_at"`
	PaymentID  uuid.NullUUID `db:"payment_id"`
}

func nullableUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func uuidPtr(id uuid.NullUUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	v := id.UUID
	return &v
}

// decodeJSONB разбирает JSONB колонку; пустое значение оставляет нулевую структуру.
func decodeJSONB(raw []byte, dst interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func (row *listingRow) toEntity(unlocks []entity.Unlock) (*entity.Listing, error) {
	l := &entity.Listing{
		ID:       row.ID,
		OwnerID:  row.OwnerID,
		Kind:     valueobject.ListingKind(row.Kind),
		Status:   valueobject.LifecycleStatus(row.Status),
		IsActive: row.IsActive,
		Payment: entity.PaymentState{
			IsPaid:    row.IsPaid,
			PaidAt:    row.PaidAt,
			PaymentID: uuidPtr(row.PaymentID),
		},
		Promotion: entity.Promotion{
			IsPromoted: row.IsPromoted,
			Type:       valueobject.PromotionType(row.PromotionType),
			StartDate:  row.PromotionStartDate,
			EndDate:    row.PromotionEndDate,
			Position:   row.PromotionPosition,
			PaymentID:  uuidPtr(row.PromotionPaymentID),
		},
		UnlockedBy:  unlocks,
		Statistics:  entity.Statistics{Views: row.Views},
		Title:       row.Title,
		Description: row.Description,
		Sport:       row.Sport,
		Location:    row.Location,
		Media:       []entity.MediaRef{},
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if l.UnlockedBy == nil {
		l.UnlockedBy = []entity.Unlock{}
	}

	if err := decodeJSONB(row.Contact, &l.Contact); err != nil {
		return nil, fmt.Errorf("decode contact: %w", err)
	}
	if err := decodeJSONB(row.Player, &l.Player); err != nil {
		return nil, fmt.Errorf("decode player: %w", err)
	}
	if err := decodeJSONB(row.Offer, &l.Offer); err != nil {
		return nil, fmt.Errorf("decode offer: %w", err)
	}
	if err := decodeJSONB(row.Media, &l.Media); err != nil {
		return nil, fmt.Errorf("decode media: %w", err)
	}
	return l, nil
}

type listingDocuments struct {
	contact, player, offer, media []byte
}

func encodeDocuments(l *entity.Listing) (listingDocuments, error) {
	var (
		docs listingDocuments
		err  error
	)
	if docs.contact, err = json.Marshal(l.Contact); err != nil {
		return docs, err
	}
	if docs.player, err = json.Marshal(l.Player); err != nil {
		return docs, err
	}
	if docs.offer, err = json.Marshal(l.Offer); err != nil {
		return docs, err
	}
	media := l.Media
	if media == nil {
		media = []entity.MediaRef{}
	}
	if docs.media, err = json.Marshal(media); err != nil {
		return docs, err
	}
	return docs, nil
}

type ListingRepositoryAdapter struct {
	db *sqlx.DB
}

func NewListingRepositoryAdapter(db *sqlx.DB) *ListingRepositoryAdapter {
	return &ListingRepositoryAdapter{db: db}
}

func (r *ListingRepositoryAdapter) Create(ctx context.Context, l *entity.Listing) error {
	docs, err := encodeDocuments(l)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать объявление")
	}

	query := `
		INSERT INTO listings (id, owner_id, kind, lifecycle_status, is_active, is_paid, paid_at, payment_id,
			title, description, sport, location, contact, player, offer, offer_expiry_date, media, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	_, err = r.db.ExecContext(ctx, query,
		l.ID, l.OwnerID, string(l.Kind), string(l.Status), l.IsActive,
		l.Payment.IsPaid, l.Payment.PaidAt, nullableUUID(l.Payment.PaymentID),
		l.Title, l.Description, l.Sport, l.Location,
		docs.contact, docs.player, docs.offer, l.Offer.ExpiryDate, docs.media,
		l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать объявление")
	}
	return nil
}

// Update сохраняет пользовательские поля ещё не удалённого объявления.
func (r *ListingRepositoryAdapter) Update(ctx context.Context, l *entity.Listing) error {
	docs, err := encodeDocuments(l)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать объявление")
	}

	query := `
		UPDATE listings
		SET title = $2, description = $3, sport = $4, location = $5,
		    contact = $6, player = $7, offer = $8, offer_expiry_date = $9, media = $10, updated_at = $11
		WHERE id = $1 AND is_active
	`
	res, err := r.db.ExecContext(ctx, query,
		l.ID, l.Title, l.Description, l.Sport, l.Location,
		docs.contact, docs.player, docs.offer, l.Offer.ExpiryDate, docs.media, l.UpdatedAt,
	)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить объявление")
	}
	changed, err := rowsChanged(res)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить результат обновления")
	}
	if !changed {
		return apperror.ErrListingInactive
	}
	return nil
}

func (r *ListingRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	row, err := getByID[listingRow](ctx, r.db, "listings", listingColumns, id, apperror.ErrListingNotFound)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить объявление")
	}

	unlocks, err := r.loadUnlocks(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}

	l, err := row.toEntity(unlocks[id])
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось прочитать объявление")
	}
	return l, nil
}

func (r *ListingRepositoryAdapter) loadUnlocks(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]entity.Unlock, error) {
	result := make(map[uuid.UUID][]entity.Unlock, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	var rows []unlockRow
	query := `
		SELECT listing_id, user_id, unlocked_at, payment_id
		FROM listing_unlocks
		WHERE listing_id = ANY($1::uuid[])
		ORDER BY unlocked_at
	`
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(keys)); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить журнал открытий контактов")
	}

	for _, u := range rows {
		result[u.ListingID] = append(result[u.ListingID], entity.Unlock{
			UserID:     u.UserID,
			UnlockedAt: u.UnlockedAt,
			PaymentID:  uuidPtr(u.PaymentID),
		})
	}
	return result, nil
}

func orderClause(sortBy string) string {
	switch sortBy {
	case repository.SortNewest:
		return "created_at DESC"
	case repository.SortViews:
		return "views DESC, created_at DESC"
	}
	return fmt.Sprintf(`%[1]s DESC,
		CASE WHEN %[1]s THEN promotion_position END ASC,
		CASE WHEN %[1]s THEN promotion_start_date END DESC,
		created_at DESC`, promotedNow)
}

// listQuery: запрос подсчёта и запрос страницы для одного фильтра.
type listQuery struct {
	count     string
	countArgs []interface{}
	page      string
	pageArgs  []interface{}
}

func buildListQuery(filter repository.ListingFilter, now time.Time) listQuery {
	// $1 зарезервирован под текущее время для сортировки по умолчанию.
	baseQuery := `FROM listings WHERE $1::timestamptz IS NOT NULL`
	args := []interface{}{now}
	argNum := 2

	if filter.PublicOnly {
		baseQuery += ` AND is_active AND is_paid AND lifecycle_status = 'ACTIVE'`
	}
	if filter.Kind != "" {
		baseQuery += fmt.Sprintf(" AND kind = $%d", argNum)
		args = append(args, string(filter.Kind))
		argNum++
	}
	if filter.Sport != "" {
		baseQuery += fmt.Sprintf(" AND sport = $%d", argNum)
		args = append(args, filter.Sport)
		argNum++
	}
	if filter.OwnerID != nil {
		baseQuery += fmt.Sprintf(" AND owner_id = $%d", argNum)
		args = append(args, *filter.OwnerID)
		argNum++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	return listQuery{
		count:     "SELECT COUNT(*) " + baseQuery,
		countArgs: args,
		page: fmt.Sprintf(`SELECT %s %s ORDER BY %s LIMIT $%d OFFSET $%d`,
			listingColumns, baseQuery, orderClause(filter.SortBy), argNum, argNum+1),
		pageArgs: append(args[:len(args):len(args)], limit, offset),
	}
}

func (r *ListingRepositoryAdapter) List(ctx context.Context, filter repository.ListingFilter) ([]*entity.Listing, int, error) {
	now := filter.Now
	if now.IsZero() {
		now = time.Now()
	}
	q := buildListQuery(filter, now)

	var total int
	if err := r.db.GetContext(ctx, &total, q.count, q.countArgs...); err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось посчитать объявления")
	}

	var rows []listingRow
	if err := r.db.SelectContext(ctx, &rows, q.page, q.pageArgs...); err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить объявления")
	}

	ids := make([]uuid.UUID, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	unlocks, err := r.loadUnlocks(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	listings := make([]*entity.Listing, 0, len(rows))
	for i := range rows {
		l, err := rows[i].toEntity(unlocks[rows[i].ID])
		if err != nil {
			return nil, 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось прочитать объявление")
		}
		listings = append(listings, l)
	}

	return listings, total, nil
}

func (r *ListingRepositoryAdapter) exec(ctx context.Context, message, query string, args ...interface{}) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, apperror.Wrap(err, apperror.ErrCodeDatabaseError, message)
	}
	changed, err := rowsChanged(res)
	if err != nil {
		return false, apperror.Wrap(err, apperror.ErrCodeDatabaseError, message)
	}
	return changed, nil
}

func (r *ListingRepositoryAdapter) Deactivate(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	return r.exec(ctx, "не удалось удалить объявление", `
		UPDATE listings
		SET is_active = FALSE, lifecycle_status = 'INACTIVE', updated_at = $2
		WHERE id = $1 AND is_active
	`, id, at)
}

func (r *ListingRepositoryAdapter) MarkPaid(ctx context.Context, id, paymentID uuid.UUID, at time.Time) (bool, error) {
	return r.exec(ctx, "не удалось отметить оплату объявления", `
		UPDATE listings
		SET is_paid = TRUE, paid_at = $3, payment_id = $2, lifecycle_status = 'ACTIVE', updated_at = $3
		WHERE id = $1 AND is_active AND NOT is_paid AND lifecycle_status = 'PENDING_PAYMENT'
	`, id, paymentID, at)
}

// ApplyPromotion повторно проверяет отсутствие действующего продвижения в момент записи.
func (r *ListingRepositoryAdapter) ApplyPromotion(ctx context.Context, id uuid.UUID, p entity.Promotion, now time.Time) (bool, error) {
	return r.exec(ctx, "не удалось включить продвижение", `
		UPDATE listings
		SET is_promoted = TRUE, promotion_type = $3, promotion_start_date = $4, promotion_end_date = $5,
		    promotion_position = $6, promotion_payment_id = $7, updated_at = $2
		WHERE id = $1 AND NOT (is_promoted AND promotion_end_date IS NOT NULL AND promotion_end_date > $2)
	`, id, now, string(p.Type), p.StartDate, p.EndDate, p.Position, nullableUUID(p.PaymentID))
}

// AddUnlock вставляет запись журнала только при её отсутствии.
func (r *ListingRepositoryAdapter) AddUnlock(ctx context.Context, id uuid.UUID, u entity.Unlock) (bool, error) {
	var inserted bool
	err := withTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO listing_unlocks (listing_id, user_id, unlocked_at, payment_id)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (listing_id, user_id) DO NOTHING
		`, id, u.UserID, u.UnlockedAt, nullableUUID(u.PaymentID))
		if err != nil {
			return err
		}
		if inserted, err = rowsChanged(res); err != nil || !inserted {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE listings SET updated_at = $2 WHERE id = $1`, id, u.UnlockedAt)
		return err
	})
	if err != nil {
		return false, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось открыть контакт")
	}
	return inserted, nil
}

func (r *ListingRepositoryAdapter) IncrementViews(ctx context.Context, id uuid.UUID) error {
	_, err := r.exec(ctx, "не удалось обновить счётчик просмотров",
		`UPDATE listings SET views = views + 1 WHERE id = $1`, id)
	return err
}

func (r *ListingRepositoryAdapter) ExpireListing(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	return r.exec(ctx, "не удалось обновить срок действия предложения", `
		UPDATE listings
		SET lifecycle_status = 'EXPIRED', updated_at = $2
		WHERE id = $1 AND kind = 'offer' AND lifecycle_status = 'ACTIVE' AND offer_expiry_date < $2
	`, id, now)
}

func (r *ListingRepositoryAdapter) ExpireOffers(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE listings
		SET lifecycle_status = 'EXPIRED', updated_at = $1
		WHERE kind = 'offer' AND lifecycle_status = 'ACTIVE' AND offer_expiry_date < $1
	`, now)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить просроченные предложения")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить просроченные предложения")
	}
	return n, nil
}

func (r *ListingRepositoryAdapter) ClearLapsedPromotion(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	return r.exec(ctx, "не удалось снять истёкшее продвижение", `
		UPDATE listings
		SET is_promoted = FALSE
		WHERE id = $1 AND is_promoted AND (promotion_end_date IS NULL OR promotion_end_date <= $2)
	`, id, now)
}
