package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/salon-offers/internal/model"
	"github.com/fairyhunter13/salon-offers/internal/service"
)

// PoolInterface defines the database operations needed by repositories.
// This allows for easier testing with mocks.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgreSQL SQLSTATE codes the schema can raise on writes.
const (
	pgCheckViolation    = "23514"
	pgNumericOutOfRange = "22003"
)

// offerColumns is the projection every read uses; numeric and uuid columns are
// read as text and parsed in Go.
const offerColumns = `id::text, salon_id, title, description, offer_type, product_id, service_id,
	discount_type, discount_value::text, starts_at, ends_at, is_active, image, created_at, updated_at`

// OfferRepository provides data access for offers using pgx.
type OfferRepository struct {
	pool PoolInterface
}

// NewOfferRepository creates a new OfferRepository with the given pool.
func NewOfferRepository(pool *pgxpool.Pool) *OfferRepository {
	return &OfferRepository{pool: pool}
}

// NewOfferRepositoryWithPool creates a new OfferRepository with a custom pool interface.
// This is primarily used for testing.
func NewOfferRepositoryWithPool(pool PoolInterface) *OfferRepository {
	return &OfferRepository{pool: pool}
}

// constraintError maps rows the schema refuses (check violations, numeric overflow)
// to service.ErrInvalidRequest. It returns nil for any other error.
func constraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	switch pgErr.Code {
	case pgCheckViolation, pgNumericOutOfRange:
		return fmt.Errorf("%w: %s", service.ErrInvalidRequest, pgErr.Message)
	}
	return nil
}

func scanOffer(row pgx.Row) (*model.Offer, error) {
	var (
		o             model.Offer
		offerType     string
		discountType  string
		discountValue string
	)
	err := row.Scan(
		&o.ID,
		&o.SalonID,
		&o.Title,
		&o.Description,
		&offerType,
		&o.ProductID,
		&o.ServiceID,
		&discountType,
		&discountValue,
		&o.StartsAt,
		&o.EndsAt,
		&o.IsActive,
		&o.Image,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.OfferType = model.OfferType(offerType)
	o.DiscountType = model.DiscountType(discountType)
	o.DiscountValue, err = decimal.NewFromString(discountValue)
	if err != nil {
		return nil, fmt.Errorf("parse discount_value %q: %w", discountValue, err)
	}
	return &o, nil
}

// Insert inserts a new offer and fills in the timestamps assigned by the database.
// Returns service.ErrOfferExists if an offer with the same id already exists.
func (r *OfferRepository) Insert(ctx context.Context, offer *model.Offer) error {
	query := `INSERT INTO offers (id, salon_id, title, description, offer_type, product_id, service_id,
		discount_type, discount_value, starts_at, ends_at, is_active, image)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9::numeric, $10, $11, $12, $13)
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		offer.ID,
		offer.SalonID,
		offer.Title,
		offer.Description,
		string(offer.OfferType),
		offer.ProductID,
		offer.ServiceID,
		string(offer.DiscountType),
		offer.DiscountValue.String(),
		offer.StartsAt,
		offer.EndsAt,
		offer.IsActive,
		offer.Image,
	).Scan(&offer.CreatedAt, &offer.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrOfferExists
		}
		if rejected := constraintError(err); rejected != nil {
			return rejected
		}
		return fmt.Errorf("insert offer: %w", err)
	}
	return nil
}

// GetByID retrieves an offer by its id.
// Returns nil, nil if the offer is not found (service layer handles this).
func (r *OfferRepository) GetByID(ctx context.Context, id string) (*model.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1::uuid`

	offer, err := scanOffer(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found - let service handle
		}
		return nil, fmt.Errorf("get offer %s: %w", id, err)
	}
	return offer, nil
}

// Update writes the mutable fields of an offer. Offer type and targets are never written.
// Returns service.ErrOfferNotFound if the offer no longer exists.
func (r *OfferRepository) Update(ctx context.Context, offer *model.Offer) error {
	query := `UPDATE offers
		SET title = $2, description = $3, discount_value = $4::numeric,
			starts_at = $5, ends_at = $6, image = $7, updated_at = NOW()
		WHERE id = $1::uuid
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		offer.ID,
		offer.Title,
		offer.Description,
		offer.DiscountValue.String(),
		offer.StartsAt,
		offer.EndsAt,
		offer.Image,
	).Scan(&offer.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return service.ErrOfferNotFound
		}
		if rejected := constraintError(err); rejected != nil {
			return rejected
		}
		return fmt.Errorf("update offer %s: %w", offer.ID, err)
	}
	return nil
}

// SetActive sets the active flag and returns the updated offer.
// Returns service.ErrOfferNotFound if the offer doesn't exist.
func (r *OfferRepository) SetActive(ctx context.Context, id string, active bool) (*model.Offer, error) {
	query := `UPDATE offers SET is_active = $2, updated_at = NOW() WHERE id = $1::uuid RETURNING ` + offerColumns

	offer, err := scanOffer(r.pool.QueryRow(ctx, query, id, active))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrOfferNotFound
		}
		return nil, fmt.Errorf("set active for %s: %w", id, err)
	}
	return offer, nil
}

// Delete removes an offer.
// Returns service.ErrOfferNotFound if nothing was deleted.
func (r *OfferRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM offers WHERE id = $1::uuid`, id)
	if err != nil {
		return fmt.Errorf("delete offer %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrOfferNotFound
	}
	return nil
}

// buildWhere renders the WHERE clause and its arguments for a listing query.
func buildWhere(q service.OfferQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	f := q.Filter
	if f.SalonID != "" {
		add("salon_id = $%d", f.SalonID)
	}
	if f.ProductID != "" {
		add("product_id = $%d", f.ProductID)
	}
	if f.ServiceID != "" {
		add("service_id = $%d", f.ServiceID)
	}
	if f.ActiveOnly || q.ActiveAt != nil {
		conds = append(conds, "is_active")
	}
	if q.ActiveAt != nil {
		at := q.ActiveAt.UTC().Truncate(time.Microsecond)
		add("starts_at <= $%d", at)
		add("ends_at >= $%d", at)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// NextStart returns the earliest starts_at after the given time among enabled offers
// that have not ended and match the filter's ids. Returns nil, nil when there is none.
func (r *OfferRepository) NextStart(ctx context.Context, filter model.OfferFilter, after time.Time) (*time.Time, error) {
	where, args := buildWhere(service.OfferQuery{Filter: model.OfferFilter{
		SalonID:    filter.SalonID,
		ProductID:  filter.ProductID,
		ServiceID:  filter.ServiceID,
		ActiveOnly: true,
	}})
	args = append(args, after.UTC().Truncate(time.Microsecond))
	query := fmt.Sprintf(`SELECT MIN(starts_at) FROM offers%s AND starts_at > $%d AND ends_at > $%d`,
		where, len(args), len(args))

	var next *time.Time
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&next); err != nil {
		return nil, fmt.Errorf("next offer start: %w", err)
	}
	return next, nil
}

// List returns one page of offers, newest first, and the total number of matches.
// On success, returns an empty slice (not nil) when nothing matches.
func (r *OfferRepository) List(ctx context.Context, q service.OfferQuery) ([]model.Offer, int, error) {
	where, args := buildWhere(q)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM offers`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count offers: %w", err)
	}

	f := q.Filter.Normalize()
	pageArgs := append(append([]any{}, args...), f.Limit, f.Offset())
	query := fmt.Sprintf(`SELECT %s FROM offers%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		offerColumns, where, len(args)+1, len(args)+2)

	rows, err := r.pool.Query(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	offers := []model.Offer{}
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan offer: %w", err)
		}
		offers = append(offers, *offer)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate offer rows: %w", err)
	}

	return offers, total, nil
}
