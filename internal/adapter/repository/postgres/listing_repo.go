package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loopmarket/treasury/internal/domain"
	"github.com/loopmarket/treasury/internal/usecase"
)

// ListingRepository implements usecase.ListingRepository.
type ListingRepository struct {
	pool *pgxpool.Pool
}

// NewListingRepository creates a new ListingRepository.
func NewListingRepository(pool *pgxpool.Pool) *ListingRepository {
	return &ListingRepository{pool: pool}
}

// CreateListing persists a listing.
func (r *ListingRepository) CreateListing(ctx context.Context, listing *domain.Listing) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO listings (id, seller_id, title, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		listing.ID, listing.SellerID, listing.Title, listing.Active,
		timeToPgTimestamptz(listing.CreatedAt), timeToPgTimestamptz(listing.UpdatedAt))

	return err
}

// CreateVariant persists a listing variant.
func (r *ListingRepository) CreateVariant(ctx context.Context, variant *domain.ListingVariant) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO listing_variants (id, listing_id, name, price, stock, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		variant.ID, variant.ListingID, variant.Name,
		decimalToNumeric(variant.Price), variant.Stock, timeToPgTimestamptz(variant.UpdatedAt))

	return err
}

// GetListing retrieves a listing by ID.
func (r *ListingRepository) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	var (
		listing   domain.Listing
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	err := r.pool.QueryRow(ctx, `
		SELECT id, seller_id, title, active, created_at, updated_at
		FROM listings WHERE id = $1`, id).Scan(
		&listing.ID, &listing.SellerID, &listing.Title, &listing.Active, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrListingNotFound
		}

		return nil, err
	}

	listing.CreatedAt = createdAt.Time
	listing.UpdatedAt = updatedAt.Time

	return &listing, nil
}

// GetVariant retrieves a variant by ID.
func (r *ListingRepository) GetVariant(ctx context.Context, id string) (*domain.ListingVariant, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, listing_id, name, price, stock, updated_at
		FROM listing_variants WHERE id = $1`, id)

	return scanVariant(row)
}

// GetVariantForUpdate retrieves a variant with a FOR UPDATE lock.
func (r *ListingRepository) GetVariantForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.ListingVariant, error) {
	pgxTx := tx.(*Tx).PgxTx()

	row := pgxTx.QueryRow(ctx, `
		SELECT id, listing_id, name, price, stock, updated_at
		FROM listing_variants WHERE id = $1 FOR UPDATE`, id)

	return scanVariant(row)
}

// UpdateVariantStock sets a variant's remaining stock.
func (r *ListingRepository) UpdateVariantStock(ctx context.Context, tx usecase.Transaction, id string, stock int, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		UPDATE listing_variants SET stock = $2, updated_at = $3 WHERE id = $1`,
		id, stock, timeToPgTimestamptz(updatedAt))

	return err
}

func scanVariant(row pgx.Row) (*domain.ListingVariant, error) {
	var (
		variant   domain.ListingVariant
		price     pgtype.Numeric
		updatedAt pgtype.Timestamptz
	)

	err := row.Scan(&variant.ID, &variant.ListingID, &variant.Name, &price, &variant.Stock, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrListingNotFound
		}

		return nil, err
	}

	variant.Price = numericToDecimal(price)
	variant.UpdatedAt = updatedAt.Time

	return &variant, nil
}
