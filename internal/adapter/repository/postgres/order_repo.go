package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/loopmarket/treasury/internal/domain"
	"github.com/loopmarket/treasury/internal/usecase"
)

// OrderRepository implements usecase.OrderRepository.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const orderColumns = `id, buyer_id, seller_id, courier_id, gross, fee_rate, fee, seller_net,
	delivery_fee, delivery_type, payment_method, status, delivery_status, dispute_reason,
	resolution, pickup_code, delivery_code, created_at, updated_at, confirmed_at, closed_at`

// Create persists an order and its items within a transaction.
func (r *OrderRepository) Create(ctx context.Context, tx usecase.Transaction, order *domain.Order) error {
	pgxTx := tx.(*Tx).PgxTx()

	var resolution *string
	if order.Resolution != nil {
		s := string(*order.Resolution)
		resolution = &s
	}

	_, err := pgxTx.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		order.ID,
		order.BuyerID,
		order.SellerID,
		stringPtrToText(order.CourierID),
		decimalToNumeric(order.Gross),
		decimalToNumeric(order.FeeRate),
		decimalToNumeric(order.Fee),
		decimalToNumeric(order.SellerNet),
		decimalToNumeric(order.DeliveryFee),
		string(order.DeliveryType),
		order.PaymentMethod,
		string(order.Status),
		string(order.DeliveryStatus),
		stringPtrToText(order.DisputeReason),
		stringPtrToText(resolution),
		order.PickupCode,
		order.DeliveryCode,
		timeToPgTimestamptz(order.CreatedAt),
		timeToPgTimestamptz(order.UpdatedAt),
		timePtrToPgTimestamptz(order.ConfirmedAt),
		timePtrToPgTimestamptz(order.ClosedAt),
	)
	if err != nil {
		return err
	}

	for _, item := range order.Items {
		_, err = pgxTx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, listing_id, variant_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			item.ID, order.ID, item.ListingID, item.VariantID, item.Quantity,
			decimalToNumeric(item.UnitPrice))
		if err != nil {
			return err
		}
	}

	return nil
}

// GetByID retrieves an order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)

	order, err := scanOrder(row)
	if err != nil {
		return nil, err
	}

	order.Items, err = r.loadItems(ctx, r.pool, id)

	return order, err
}

// GetByIDForUpdate retrieves an order with a FOR UPDATE lock.
func (r *OrderRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Order, error) {
	pgxTx := tx.(*Tx).PgxTx()

	row := pgxTx.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)

	order, err := scanOrder(row)
	if err != nil {
		return nil, err
	}

	order.Items, err = r.loadItems(ctx, pgxTx, id)

	return order, err
}

// Update persists the mutable order fields.
func (r *OrderRepository) Update(ctx context.Context, tx usecase.Transaction, order *domain.Order) error {
	pgxTx := tx.(*Tx).PgxTx()

	var resolution *string
	if order.Resolution != nil {
		s := string(*order.Resolution)
		resolution = &s
	}

	_, err := pgxTx.Exec(ctx, `
		UPDATE orders SET
			courier_id = $2,
			gross = $3,
			fee_rate = $4,
			fee = $5,
			seller_net = $6,
			delivery_fee = $7,
			status = $8,
			delivery_status = $9,
			dispute_reason = $10,
			resolution = $11,
			updated_at = $12,
			confirmed_at = $13,
			closed_at = $14
		WHERE id = $1`,
		order.ID,
		stringPtrToText(order.CourierID),
		decimalToNumeric(order.Gross),
		decimalToNumeric(order.FeeRate),
		decimalToNumeric(order.Fee),
		decimalToNumeric(order.SellerNet),
		decimalToNumeric(order.DeliveryFee),
		string(order.Status),
		string(order.DeliveryStatus),
		stringPtrToText(order.DisputeReason),
		stringPtrToText(resolution),
		timeToPgTimestamptz(order.UpdatedAt),
		timePtrToPgTimestamptz(order.ConfirmedAt),
		timePtrToPgTimestamptz(order.ClosedAt),
	)

	return err
}

// CountSellerOrdersSince counts the seller's non-cancelled orders created
// at or after the given moment.
func (r *OrderRepository) CountSellerOrdersSince(ctx context.Context, sellerID string, since time.Time) (int, error) {
	var count int

	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM orders
		WHERE seller_id = $1 AND created_at >= $2 AND status <> $3`,
		sellerID, timeToPgTimestamptz(since), string(domain.OrderStatusCancelled)).Scan(&count)

	return count, err
}

// SumCompletedFees sums the fees of all completed orders.
func (r *OrderRepository) SumCompletedFees(ctx context.Context) (decimal.Decimal, error) {
	var sum pgtype.Numeric

	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(fee), 0) FROM orders WHERE status = $1`,
		string(domain.OrderStatusCompleted)).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

// ListByAccount lists orders where the account is buyer or seller.
func (r *OrderRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE buyer_id = $1 OR seller_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, order := range orders {
		order.Items, err = r.loadItems(ctx, r.pool, order.ID)
		if err != nil {
			return nil, err
		}
	}

	return orders, nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *OrderRepository) loadItems(ctx context.Context, q queryer, orderID string) ([]domain.OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, listing_id, variant_id, quantity, unit_price
		FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var (
			item  domain.OrderItem
			price pgtype.Numeric
		)

		if err := rows.Scan(&item.ID, &item.OrderID, &item.ListingID, &item.VariantID, &item.Quantity, &price); err != nil {
			return nil, err
		}

		item.UnitPrice = numericToDecimal(price)
		items = append(items, item)
	}

	return items, rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		order        domain.Order
		courierID    pgtype.Text
		gross        pgtype.Numeric
		feeRate      pgtype.Numeric
		fee          pgtype.Numeric
		sellerNet    pgtype.Numeric
		deliveryFee  pgtype.Numeric
		deliveryType string
		status       string
		delivStatus  string
		reason       pgtype.Text
		resolution   pgtype.Text
		createdAt    pgtype.Timestamptz
		updatedAt    pgtype.Timestamptz
		confirmedAt  pgtype.Timestamptz
		closedAt     pgtype.Timestamptz
	)

	err := row.Scan(
		&order.ID,
		&order.BuyerID,
		&order.SellerID,
		&courierID,
		&gross,
		&feeRate,
		&fee,
		&sellerNet,
		&deliveryFee,
		&deliveryType,
		&order.PaymentMethod,
		&status,
		&delivStatus,
		&reason,
		&resolution,
		&order.PickupCode,
		&order.DeliveryCode,
		&createdAt,
		&updatedAt,
		&confirmedAt,
		&closedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}

		return nil, err
	}

	order.CourierID = textToStringPtr(courierID)
	order.Gross = numericToDecimal(gross)
	order.FeeRate = numericToDecimal(feeRate)
	order.Fee = numericToDecimal(fee)
	order.SellerNet = numericToDecimal(sellerNet)
	order.DeliveryFee = numericToDecimal(deliveryFee)
	order.DeliveryType = domain.DeliveryType(deliveryType)
	order.Status = domain.OrderStatus(status)
	order.DeliveryStatus = domain.DeliveryStatus(delivStatus)
	order.DisputeReason = textToStringPtr(reason)
	order.CreatedAt = createdAt.Time
	order.UpdatedAt = updatedAt.Time
	order.ConfirmedAt = pgTimestamptzToTimePtr(confirmedAt)
	order.ClosedAt = pgTimestamptzToTimePtr(closedAt)

	if resolution.Valid {
		res := domain.DisputeResolution(resolution.String)
		order.Resolution = &res
	}

	return &order, nil
}
