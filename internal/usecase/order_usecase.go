package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/loopmarket/treasury/internal/domain"
	"github.com/loopmarket/treasury/internal/infrastructure/metrics"
)

// metaOrderID is the metadata key linking a ledger entry to its order.
const metaOrderID = "order_id"

// OrderPolicy carries the preconditions evaluated before any money moves.
type OrderPolicy struct {
	BusinessHoursStart int // inclusive hour, platform time
	BusinessHoursEnd   int // exclusive hour
	MonthlySalesLimit  int
	Now                func() time.Time
}

func (p OrderPolicy) withDefaults() OrderPolicy {
	if p.BusinessHoursEnd == 0 {
		p.BusinessHoursStart = 8
		p.BusinessHoursEnd = 22
	}

	if p.MonthlySalesLimit == 0 {
		p.MonthlySalesLimit = DefaultMonthlySalesLimit
	}

	if p.Now == nil {
		p.Now = time.Now
	}

	return p
}

// OrderUseCase drives the escrow order state machine. Buyer funds are held
// on the main pool account until completion, cancellation or adjudication;
// the platform fee is split across the reserve pools exactly once, at the
// terminal release.
type OrderUseCase struct {
	txManager   TransactionManager
	ledger      *Ledger
	partition   *PartitionManager
	orderRepo   OrderRepository
	listingRepo ListingRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
	shipping    ShippingQuoteService
	metrics     *metrics.Metrics
	policy      OrderPolicy
}

// NewOrderUseCase creates an OrderUseCase.
func NewOrderUseCase(
	txManager TransactionManager,
	ledger *Ledger,
	partition *PartitionManager,
	orderRepo OrderRepository,
	listingRepo ListingRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	shipping ShippingQuoteService,
	metrics *metrics.Metrics,
	policy OrderPolicy,
) *OrderUseCase {
	return &OrderUseCase{
		txManager:   txManager,
		ledger:      ledger,
		partition:   partition,
		orderRepo:   orderRepo,
		listingRepo: listingRepo,
		outboxRepo:  outboxRepo,
		auditRepo:   auditRepo,
		idGen:       idGen,
		shipping:    shipping,
		metrics:     metrics,
		policy:      policy.withDefaults(),
	}
}

// OrderItemInput is one requested listing variant.
type OrderItemInput struct {
	VariantID string
	Quantity  int
}

// CreateOrderInput describes a new purchase.
type CreateOrderInput struct {
	BuyerID       string
	Items         []OrderItemInput
	DeliveryType  domain.DeliveryType
	PaymentMethod string
}

// CreateOrder prices the requested items and opens the order in
// WAITING_PAYMENT. No money moves yet.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	if len(input.Items) == 0 {
		return nil, fmt.Errorf("%w: order needs at least one item", domain.ErrValidationFailed)
	}

	var (
		sellerID string
		gross    = decimal.Zero
		items    []domain.OrderItem
	)

	orderID := uc.idGen.Generate()

	for _, item := range input.Items {
		variant, err := uc.listingRepo.GetVariant(ctx, item.VariantID)
		if err != nil {
			return nil, err
		}

		listing, err := uc.listingRepo.GetListing(ctx, variant.ListingID)
		if err != nil {
			return nil, err
		}

		if !listing.Active {
			return nil, fmt.Errorf("%w: listing %s is inactive", domain.ErrValidationFailed, listing.ID)
		}

		if sellerID == "" {
			sellerID = listing.SellerID
		} else if sellerID != listing.SellerID {
			return nil, fmt.Errorf("%w: all items must belong to one seller", domain.ErrValidationFailed)
		}

		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrValidationFailed)
		}

		orderItem := domain.OrderItem{
			ID:        uc.idGen.Generate(),
			OrderID:   orderID,
			ListingID: listing.ID,
			VariantID: variant.ID,
			Quantity:  item.Quantity,
			UnitPrice: variant.Price,
		}

		gross = gross.Add(orderItem.Subtotal())
		items = append(items, orderItem)
	}

	deliveryFee := decimal.Zero
	if input.DeliveryType == domain.DeliveryTypeCourier {
		fee, err := uc.shipping.Quote(ctx, sellerID, input.BuyerID)
		if err != nil {
			return nil, fmt.Errorf("shipping quote: %w", err)
		}

		deliveryFee = fee.Round(2)
	}

	now := uc.policy.Now().UTC()
	order := &domain.Order{
		ID:             orderID,
		BuyerID:        input.BuyerID,
		SellerID:       sellerID,
		Items:          items,
		Gross:          gross,
		DeliveryFee:    deliveryFee,
		DeliveryType:   input.DeliveryType,
		PaymentMethod:  input.PaymentMethod,
		Status:         domain.OrderStatusWaitingPayment,
		DeliveryStatus: domain.DeliveryStatusNone,
		PickupCode:     confirmationCode(uc.idGen.Generate()),
		DeliveryCode:   confirmationCode(uc.idGen.Generate()),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	err := runInTx(ctx, uc.txManager, func(txCtx context.Context, tx Transaction) error {
		return uc.orderRepo.Create(txCtx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// ConfirmPayment is the critical transition into PAYMENT_CONFIRMED: stock
// is reserved under row locks, the buyer is debited gross plus delivery
// fee, the seller is credited net of the platform fee, and the fee plus
// delivery fee are parked on the main pool until the order resolves.
func (uc *OrderUseCase) ConfirmPayment(ctx context.Context, orderID, buyerID string) (*domain.Order, error) {
	start := uc.policy.Now()

	// Preconditions reject the whole attempt before any money moves.
	if err := uc.checkBusinessHours(); err != nil {
		return nil, err
	}

	preflight, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := uc.checkMonthlySalesCap(ctx, preflight.SellerID); err != nil {
		return nil, err
	}

	var order *domain.Order

	err = runInTx(ctx, uc.txManager, func(txCtx context.Context, tx Transaction) error {
		order, err = uc.orderRepo.GetByIDForUpdate(txCtx, tx, orderID)
		if err != nil {
			return err
		}

		if order.BuyerID != buyerID {
			return fmt.Errorf("%w: only the buyer can confirm payment", domain.ErrValidationFailed)
		}

		if !order.Status.CanTransitionTo(domain.OrderStatusPaymentConfirmed) {
			return domain.ErrInvalidStateTransition
		}

		// Stock first, with row locks, before any balance is touched.
		if err := uc.reserveStock(txCtx, tx, order.Items); err != nil {
			return err
		}

		accounts, err := uc.ledger.LockAccounts(txCtx, tx,
			order.BuyerID, order.SellerID, domain.SystemAccountMain)
		if err != nil {
			return err
		}

		buyer := accounts[order.BuyerID]
		seller := accounts[order.SellerID]
		mainPool := accounts[domain.SystemAccountMain]

		now := uc.policy.Now().UTC()

		rate, usedWelcome := uc.effectiveRate(buyer, seller)
		order.FeeRate = rate
		order.Fee = order.Gross.Mul(rate).Round(2)
		order.SellerNet = order.Gross.Sub(order.Fee)

		total := order.TotalCharge()

		res, err := uc.ledger.Reserve(buyer, total)
		if err != nil {
			return err
		}

		meta := map[string]any{metaOrderID: order.ID}

		if _, err := uc.ledger.Debit(txCtx, tx, res, total, EntrySpec{
			Category:    domain.EntryCategoryPurchase,
			Description: fmt.Sprintf("purchase of order %s", order.ID),
			Status:      domain.EntryStatusPending,
			Metadata:    meta,
		}); err != nil {
			return err
		}

		if _, err := uc.ledger.Credit(txCtx, tx, seller, order.SellerNet, EntrySpec{
			Category:    domain.EntryCategorySale,
			Description: fmt.Sprintf("sale via order %s", order.ID),
			Status:      domain.EntryStatusPending,
			Metadata:    meta,
		}); err != nil {
			return err
		}

		held := order.Fee.Add(order.DeliveryFee)
		if held.IsPositive() {
			if _, err := uc.ledger.Credit(txCtx, tx, mainPool, held, EntrySpec{
				Category:    domain.EntryCategoryEscrow,
				Description: fmt.Sprintf("fee and delivery escrow for order %s", order.ID),
				Status:      domain.EntryStatusPending,
				Metadata:    meta,
			}); err != nil {
				return err
			}
		}

		if usedWelcome {
			buyer.WelcomeUsesLeft--
			if err := uc.ledger.accountRepo.UpdateWelcomeUses(txCtx, tx, buyer.ID, buyer.WelcomeUsesLeft, now); err != nil {
				return err
			}
		}

		order.Status = domain.OrderStatusPaymentConfirmed
		order.ConfirmedAt = &now
		order.UpdatedAt = now

		if err := uc.orderRepo.Update(txCtx, tx, order); err != nil {
			return err
		}

		if err := uc.emitOrderEvent(txCtx, tx, order, domain.EventTypeOrderConfirmed); err != nil {
			return err
		}

		return uc.audit(txCtx, tx, domain.AuditActionOrderConfirm, order.ID, order)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.OrdersConfirmed.Inc()
		uc.metrics.OrderDuration.Observe(time.Since(start).Seconds())
	}

	return order, nil
}

// MarkReadyForShipping moves a paid order into WAITING_SHIPPING. Courier
// orders become visible to couriers as AVAILABLE.
func (uc *OrderUseCase) MarkReadyForShipping(ctx context.Context, orderID, sellerID string) (*domain.Order, error) {
	var order *domain.Order

	err := runInTx(ctx, uc.txManager, func(txCtx context.Context, tx Transaction) error {
		var err error

		order, err = uc.orderRepo.GetByIDForUpdate(txCtx, tx, orderID)
		if err != nil {
			return err
		}

		if order.SellerID != sellerID {
			return fmt.Errorf("%w: only the seller can release for shipping", domain.ErrValidationFailed)
		}

		if !order.Status.CanTransitionTo(domain.OrderStatusWaitingShipping) {
			return domain.ErrInvalidStateTransition
		}

		order.Status = domain.OrderStatusWaitingShipping
		if order.DeliveryType == domain.DeliveryTypeCourier {
			order.DeliveryStatus = domain.DeliveryStatusAvailable
		}
		order.UpdatedAt = uc.policy.Now().UTC()

		return uc.orderRepo.Update(txCtx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// AdvanceDelivery moves the courier sub-state one step. Accepting assigns
// the courier; DELIVERED requires the order's delivery confirmation code.
func (uc *OrderUseCase) AdvanceDelivery(ctx context.Context, orderID, courierID string, next domain.DeliveryStatus, code string) (*domain.Order, error) {
	var order *domain.Order

	err := runInTx(ctx, uc.txManager, func(txCtx context.Context, tx Transaction) error {
		var err error

		order, err = uc.orderRepo.GetByIDForUpdate(txCtx, tx, orderID)
		if err != nil {
			return err
		}

		if order.Status != domain.OrderStatusWaitingShipping {
			return domain.ErrInvalidStateTransition
		}

		if !order.DeliveryStatus.CanTransitionTo(next) {
			return domain.ErrInvalidStateTransition
		}

		switch next {
		case domain.DeliveryStatusAccepted:
			order.CourierID = &courierID
		case domain.DeliveryStatusInTransit, domain.DeliveryStatusDelivered:
			if order.CourierID == nil || *order.CourierID != courierID {
				return fmt.Errorf("%w: delivery belongs to another courier", domain.ErrValidationFailed)
			}
		}

		if next == domain.DeliveryStatusDelivered && !strings.EqualFold(code, order.DeliveryCode) {
			return fmt.Errorf("%w: delivery confirmation code mismatch", domain.ErrValidationFailed)
		}

		order.DeliveryStatus = next
		order.UpdatedAt = uc.policy.Now().UTC()

		return uc.orderRepo.Update(txCtx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// Complete resolves the order: the held platform fee is split across the
// reserve pools, the courier is paid the delivery fee, and the pending
// order entries settle. Pickup orders need the pickup confirmation code;
// courier orders must already be DELIVERED.
func (uc *OrderUseCase) Complete(ctx context.Context, orderID, buyerID, code string) (*domain.Order, error) {
	var order *domain.Order

	err := runInTx(ctx, uc.txManager, func(txCtx context.Context, tx Transaction) error {
		var err error

		order, err = uc.orderRepo.GetByIDForUpdate(txCtx, tx, orderID)
		if err != nil {
			return err
		}

		if order.BuyerID != buyerID {
			return fmt.Errorf("%w: only the buyer can complete the order", domain.ErrValidationFailed)
		}

		if !order.Status.CanTransitionTo(domain.OrderStatusCompleted) || order.Status == domain.OrderStatusInDispute {
			return domain.ErrInvalidStateTransition
		}

		switch order.DeliveryType {
		case domain.DeliveryTypePickup:
			if !strings.EqualFold(code, order.PickupCode) {
				return fmt.Errorf("%w: pickup confirmation code mismatch", domain.ErrValidationFailed)
			}
		case domain.DeliveryTypeCourier:
			if order.DeliveryStatus != domain.DeliveryStatusDelivered {
				return domain.ErrInvalidStateTransition
			}
		}

		if err := uc.releaseHeldFunds(txCtx, tx, order); err != nil {
			return err
		}

		if err := uc.ledger.SettleEntries(txCtx, tx, metaOrderID, order.ID, domain.EntryStatusCompleted); err != nil {
			return err
		}

		now := uc.policy.Now().UTC()
		order.Status = domain.OrderStatusCompleted
		order.ClosedAt = &now
		order.UpdatedAt = now

		if err := uc.orderRepo.Update(txCtx, tx, order); err != nil {
			return err
		}

		if err := uc.emitOrderEvent(txCtx, tx, order, domain.EventTypeOrderCompleted); err != nil {
			return err
		}

		return uc.audit(txCtx, tx, domain.AuditActionOrderComplete, order.ID, order)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.OrdersCompleted.Inc()
	}

	return order, nil
}

// Cancel terminates an unfulfilled order. Before payment it is a pure
// status change; after payment every movement is reversed, stock
// restored, and the pending entries rejected.
func (uc *OrderUseCase) Cancel(ctx context.Context, orderID, callerID string) (*domain.Order, error) {
	var order *domain.Order

	err := runInTx(ctx, uc.txManager, func(txCtx context.Context, tx Transaction) error {
		var err error

		order, err = uc.orderRepo.GetByIDForUpdate(txCtx, tx, orderID)
		if err != nil {
			return err
		}

		if callerID != order.BuyerID && callerID != order.SellerID {
			return fmt.Errorf("%w: only a party to the order can cancel it", domain.ErrValidationFailed)
		}

		if !order.Status.CanTransitionTo(domain.OrderStatusCancelled) || order.Status == domain.OrderStatusInDispute {
			return domain.ErrInvalidStateTransition
		}

		if order.Status == domain.OrderStatusWaitingShipping {
			if err := uc.refundOrder(txCtx, tx, order, true); err != nil {
				return err
			}

			if err := uc.restoreStock(txCtx, tx, order.Items); err != nil {
				return err
			}

			if err := uc.ledger.SettleEntries(txCtx, tx, metaOrderID, order.ID, domain.EntryStatusRejected); err != nil {
				return err
			}
		}

		now := uc.policy.Now().UTC()
		order.Status = domain.OrderStatusCancelled
		order.ClosedAt = &now
		order.UpdatedAt = now

		if err := uc.orderRepo.Update(txCtx, tx, order); err != nil {
			return err
		}

		if err := uc.emitOrderEvent(txCtx, tx, order, domain.EventTypeOrderCancelled); err != nil {
			return err
		}

		return uc.audit(txCtx, tx, domain.AuditActionOrderCancel, order.ID, order)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.OrdersCancelled.Inc()
	}

	return order, nil
}

// OpenDispute freezes the order: the seller's net proceeds are clawed
// back onto the main pool so adjudication can resolve either way with a
// single transfer.
func (uc *OrderUseCase) OpenDispute(ctx context.Context, orderID, partyID, reason string) (*domain.Order, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: dispute reason required", domain.ErrValidationFailed)
	}

	var order *domain.Order

	err := runInTx(ctx, uc.txManager, func(txCtx context.Context, tx Transaction) error {
		var err error

		order, err = uc.orderRepo.GetByIDForUpdate(txCtx, tx, orderID)
		if err != nil {
			return err
		}

		if partyID != order.BuyerID && partyID != order.SellerID {
			return fmt.Errorf("%w: only a party to the order can dispute it", domain.ErrValidationFailed)
		}

		if !order.Status.CanTransitionTo(domain.OrderStatusInDispute) {
			return domain.ErrInvalidStateTransition
		}

		accounts, err := uc.ledger.LockAccounts(txCtx, tx, order.SellerID, domain.SystemAccountMain)
		if err != nil {
			return err
		}

		meta := map[string]any{metaOrderID: order.ID}

		if order.SellerNet.IsPositive() {
			res, err := uc.ledger.Reserve(accounts[order.SellerID], order.SellerNet)
			if err != nil {
				return err
			}

			if _, err := uc.ledger.Debit(txCtx, tx, res, order.SellerNet, EntrySpec{
				Category:    domain.EntryCategoryEscrow,
				Description: fmt.Sprintf("proceeds frozen for disputed order %s", order.ID),
				Metadata:    meta,
			}); err != nil {
				return err
			}

			if _, err := uc.ledger.Credit(txCtx, tx, accounts[domain.SystemAccountMain], order.SellerNet, EntrySpec{
				Category:    domain.EntryCategoryEscrow,
				Description: fmt.Sprintf("escrow hold for disputed order %s", order.ID),
				Metadata:    meta,
			}); err != nil {
				return err
			}
		}

		order.Status = domain.OrderStatusInDispute
		order.DisputeReason = &reason
		order.UpdatedAt = uc.policy.Now().UTC()

		if err := uc.orderRepo.Update(txCtx, tx, order); err != nil {
			return err
		}

		if err := uc.emitOrderEvent(txCtx, tx, order, domain.EventTypeOrderDisputed); err != nil {
			return err
		}

		return uc.audit(txCtx, tx, domain.AuditActionOrderDispute, order.ID, order)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.DisputesOpened.Inc()
	}

	return order, nil
}

// ResolveDisputeInput is the admin adjudication.
type ResolveDisputeInput struct {
	OrderID           string
	Resolution        domain.DisputeResolution
	PenalizeAccountID *string
	PenaltyPoints     int
}

// ResolveDispute adjudicates a disputed order: REFUND_BUYER returns the
// full charge and restores stock; RELEASE_TO_SELLER pays out the frozen
// proceeds and splits the platform fee. An optional score penalty applies
// to the party found at fault.
func (uc *OrderUseCase) ResolveDispute(ctx context.Context, input ResolveDisputeInput) (*domain.Order, error) {
	var order *domain.Order

	err := runInTx(ctx, uc.txManager, func(txCtx context.Context, tx Transaction) error {
		var err error

		order, err = uc.orderRepo.GetByIDForUpdate(txCtx, tx, input.OrderID)
		if err != nil {
			return err
		}

		if order.Status != domain.OrderStatusInDispute {
			return domain.ErrInvalidStateTransition
		}

		now := uc.policy.Now().UTC()

		switch input.Resolution {
		case domain.DisputeRefundBuyer:
			if err := uc.refundFromEscrow(txCtx, tx, order); err != nil {
				return err
			}

			if err := uc.restoreStock(txCtx, tx, order.Items); err != nil {
				return err
			}

			if err := uc.ledger.SettleEntries(txCtx, tx, metaOrderID, order.ID, domain.EntryStatusRejected); err != nil {
				return err
			}

			order.Status = domain.OrderStatusCancelled

		case domain.DisputeReleaseToSeller:
			if err := uc.releaseFromEscrow(txCtx, tx, order); err != nil {
				return err
			}

			if err := uc.ledger.SettleEntries(txCtx, tx, metaOrderID, order.ID, domain.EntryStatusCompleted); err != nil {
				return err
			}

			order.Status = domain.OrderStatusCompleted

		default:
			return fmt.Errorf("%w: unknown resolution %q", domain.ErrValidationFailed, input.Resolution)
		}

		if input.PenalizeAccountID != nil && input.PenaltyPoints > 0 {
			if err := uc.applyScorePenalty(txCtx, tx, *input.PenalizeAccountID, input.PenaltyPoints, now); err != nil {
				return err
			}
		}

		resolution := input.Resolution
		order.Resolution = &resolution
		order.ClosedAt = &now
		order.UpdatedAt = now

		if err := uc.orderRepo.Update(txCtx, tx, order); err != nil {
			return err
		}

		eventType := domain.EventTypeOrderCompleted
		if order.Status == domain.OrderStatusCancelled {
			eventType = domain.EventTypeOrderCancelled
		}

		if err := uc.emitOrderEvent(txCtx, tx, order, eventType); err != nil {
			return err
		}

		return uc.audit(txCtx, tx, domain.AuditActionOrderResolve, order.ID, order)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.DisputesResolved.WithLabelValues(string(input.Resolution)).Inc()
	}

	return order, nil
}

// GetOrder retrieves an order by ID.
func (uc *OrderUseCase) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return uc.orderRepo.GetByID(ctx, id)
}

// ListOrdersByAccount lists orders the account participates in.
func (uc *OrderUseCase) ListOrdersByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Order, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.orderRepo.ListByAccount(ctx, accountID, limit, offset)
}

// effectiveRate picks the platform fee rate: a remaining welcome benefit
// overrides the per-seller rate and consumes one use.
func (uc *OrderUseCase) effectiveRate(buyer, seller *domain.Account) (decimal.Decimal, bool) {
	if buyer.WelcomeUsesLeft > 0 {
		return WelcomeRate, true
	}

	if seller.SellerVerified {
		return EscrowRateVerified, false
	}

	return EscrowRateStandard, false
}

func (uc *OrderUseCase) checkBusinessHours() error {
	hour := uc.policy.Now().Hour()
	if hour < uc.policy.BusinessHoursStart || hour >= uc.policy.BusinessHoursEnd {
		return domain.ErrOutsideBusiness
	}

	return nil
}

func (uc *OrderUseCase) checkMonthlySalesCap(ctx context.Context, sellerID string) error {
	now := uc.policy.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	count, err := uc.orderRepo.CountSellerOrdersSince(ctx, sellerID, monthStart)
	if err != nil {
		return err
	}

	if count >= uc.policy.MonthlySalesLimit {
		return domain.ErrMonthlySalesCap
	}

	return nil
}

// reserveStock locks every variant in sorted order and decrements stock,
// failing the whole order on the first shortage.
func (uc *OrderUseCase) reserveStock(ctx context.Context, tx Transaction, items []domain.OrderItem) error {
	now := uc.policy.Now().UTC()

	for _, item := range sortedByVariant(items) {
		variant, err := uc.listingRepo.GetVariantForUpdate(ctx, tx, item.VariantID)
		if err != nil {
			return err
		}

		if err := variant.ValidateReserve(item.Quantity); err != nil {
			return err
		}

		if err := uc.listingRepo.UpdateVariantStock(ctx, tx, variant.ID, variant.Stock-item.Quantity, now); err != nil {
			return err
		}
	}

	return nil
}

func (uc *OrderUseCase) restoreStock(ctx context.Context, tx Transaction, items []domain.OrderItem) error {
	now := uc.policy.Now().UTC()

	for _, item := range sortedByVariant(items) {
		variant, err := uc.listingRepo.GetVariantForUpdate(ctx, tx, item.VariantID)
		if err != nil {
			return err
		}

		if err := uc.listingRepo.UpdateVariantStock(ctx, tx, variant.ID, variant.Stock+item.Quantity, now); err != nil {
			return err
		}
	}

	return nil
}

// releaseHeldFunds settles the escrowed fee and delivery fee on normal
// completion: the fee is split across the pools, the courier is paid.
func (uc *OrderUseCase) releaseHeldFunds(ctx context.Context, tx Transaction, order *domain.Order) error {
	lockIDs := append([]string{}, domain.SystemAccountIDs...)
	if order.CourierID != nil {
		lockIDs = append(lockIDs, *order.CourierID)
	}

	accounts, err := uc.ledger.LockAccounts(ctx, tx, lockIDs...)
	if err != nil {
		return err
	}

	mainPool := accounts[domain.SystemAccountMain]
	meta := map[string]any{metaOrderID: order.ID}

	if order.Fee.IsPositive() {
		res, err := uc.ledger.Reserve(mainPool, order.Fee)
		if err != nil {
			return err
		}

		if _, err := uc.ledger.Debit(ctx, tx, res, order.Fee, EntrySpec{
			Category:    domain.EntryCategoryFee,
			Description: fmt.Sprintf("platform fee captured for order %s", order.ID),
			Metadata:    meta,
		}); err != nil {
			return err
		}

		split, err := uc.partition.SplitFee(order.Fee)
		if err != nil {
			return err
		}

		if err := uc.partition.ApplySplit(ctx, tx, accounts, split, EntrySpec{
			Category:    domain.EntryCategoryFee,
			Description: fmt.Sprintf("fee share for order %s", order.ID),
			Metadata:    meta,
		}); err != nil {
			return err
		}
	}

	if order.DeliveryFee.IsPositive() && order.CourierID != nil {
		res, err := uc.ledger.Reserve(mainPool, order.DeliveryFee)
		if err != nil {
			return err
		}

		if _, err := uc.ledger.Debit(ctx, tx, res, order.DeliveryFee, EntrySpec{
			Category:    domain.EntryCategoryDeliveryFee,
			Description: fmt.Sprintf("delivery fee payout for order %s", order.ID),
			Metadata:    meta,
		}); err != nil {
			return err
		}

		if _, err := uc.ledger.Credit(ctx, tx, accounts[*order.CourierID], order.DeliveryFee, EntrySpec{
			Category:    domain.EntryCategoryDeliveryFee,
			Description: fmt.Sprintf("delivery fee for order %s", order.ID),
			Metadata:    meta,
		}); err != nil {
			return err
		}
	}

	return nil
}

// refundOrder reverses a confirmed order. When clawSeller is set the
// seller still holds the net proceeds (no dispute freeze happened).
func (uc *OrderUseCase) refundOrder(ctx context.Context, tx Transaction, order *domain.Order, clawSeller bool) error {
	accounts, err := uc.ledger.LockAccounts(ctx, tx,
		order.BuyerID, order.SellerID, domain.SystemAccountMain)
	if err != nil {
		return err
	}

	buyer := accounts[order.BuyerID]
	mainPool := accounts[domain.SystemAccountMain]
	meta := map[string]any{metaOrderID: order.ID}

	if clawSeller && order.SellerNet.IsPositive() {
		res, err := uc.ledger.Reserve(accounts[order.SellerID], order.SellerNet)
		if err != nil {
			return err
		}

		if _, err := uc.ledger.Debit(ctx, tx, res, order.SellerNet, EntrySpec{
			Category:    domain.EntryCategoryRefund,
			Description: fmt.Sprintf("sale reversed for cancelled order %s", order.ID),
			Metadata:    meta,
		}); err != nil {
			return err
		}

		if _, err := uc.ledger.Credit(ctx, tx, mainPool, order.SellerNet, EntrySpec{
			Category:    domain.EntryCategoryEscrow,
			Description: fmt.Sprintf("reversal hold for order %s", order.ID),
			Metadata:    meta,
		}); err != nil {
			return err
		}
	}

	total := order.TotalCharge()

	res, err := uc.ledger.Reserve(mainPool, total)
	if err != nil {
		return err
	}

	if _, err := uc.ledger.Debit(ctx, tx, res, total, EntrySpec{
		Category:    domain.EntryCategoryRefund,
		Description: fmt.Sprintf("escrow released for refund of order %s", order.ID),
		Metadata:    meta,
	}); err != nil {
		return err
	}

	if _, err := uc.ledger.Credit(ctx, tx, buyer, total, EntrySpec{
		Category:    domain.EntryCategoryRefund,
		Description: fmt.Sprintf("refund for order %s", order.ID),
		Metadata:    meta,
	}); err != nil {
		return err
	}

	return nil
}

// refundFromEscrow refunds the buyer after a dispute freeze: the main
// pool already holds the full charge.
func (uc *OrderUseCase) refundFromEscrow(ctx context.Context, tx Transaction, order *domain.Order) error {
	return uc.refundOrder(ctx, tx, order, false)
}

// releaseFromEscrow pays the frozen proceeds to the seller, splits the
// platform fee and routes the delivery fee to the courier, or back to the
// buyer when no courier ever took the job.
func (uc *OrderUseCase) releaseFromEscrow(ctx context.Context, tx Transaction, order *domain.Order) error {
	lockIDs := append([]string{order.BuyerID, order.SellerID}, domain.SystemAccountIDs...)
	if order.CourierID != nil {
		lockIDs = append(lockIDs, *order.CourierID)
	}

	accounts, err := uc.ledger.LockAccounts(ctx, tx, lockIDs...)
	if err != nil {
		return err
	}

	mainPool := accounts[domain.SystemAccountMain]
	meta := map[string]any{metaOrderID: order.ID}

	if order.SellerNet.IsPositive() {
		res, err := uc.ledger.Reserve(mainPool, order.SellerNet)
		if err != nil {
			return err
		}

		if _, err := uc.ledger.Debit(ctx, tx, res, order.SellerNet, EntrySpec{
			Category:    domain.EntryCategoryEscrow,
			Description: fmt.Sprintf("escrow released to seller for order %s", order.ID),
			Metadata:    meta,
		}); err != nil {
			return err
		}

		if _, err := uc.ledger.Credit(ctx, tx, accounts[order.SellerID], order.SellerNet, EntrySpec{
			Category:    domain.EntryCategorySale,
			Description: fmt.Sprintf("adjudicated sale proceeds for order %s", order.ID),
			Metadata:    meta,
		}); err != nil {
			return err
		}
	}

	if order.Fee.IsPositive() {
		res, err := uc.ledger.Reserve(mainPool, order.Fee)
		if err != nil {
			return err
		}

		if _, err := uc.ledger.Debit(ctx, tx, res, order.Fee, EntrySpec{
			Category:    domain.EntryCategoryFee,
			Description: fmt.Sprintf("platform fee captured for order %s", order.ID),
			Metadata:    meta,
		}); err != nil {
			return err
		}

		split, err := uc.partition.SplitFee(order.Fee)
		if err != nil {
			return err
		}

		if err := uc.partition.ApplySplit(ctx, tx, accounts, split, EntrySpec{
			Category:    domain.EntryCategoryFee,
			Description: fmt.Sprintf("fee share for order %s", order.ID),
			Metadata:    meta,
		}); err != nil {
			return err
		}
	}

	if order.DeliveryFee.IsPositive() {
		recipient := accounts[order.BuyerID]
		category := domain.EntryCategoryRefund
		if order.CourierID != nil {
			recipient = accounts[*order.CourierID]
			category = domain.EntryCategoryDeliveryFee
		}

		res, err := uc.ledger.Reserve(mainPool, order.DeliveryFee)
		if err != nil {
			return err
		}

		if _, err := uc.ledger.Debit(ctx, tx, res, order.DeliveryFee, EntrySpec{
			Category:    category,
			Description: fmt.Sprintf("delivery fee settled for order %s", order.ID),
			Metadata:    meta,
		}); err != nil {
			return err
		}

		if _, err := uc.ledger.Credit(ctx, tx, recipient, order.DeliveryFee, EntrySpec{
			Category:    category,
			Description: fmt.Sprintf("delivery fee settled for order %s", order.ID),
			Metadata:    meta,
		}); err != nil {
			return err
		}
	}

	return nil
}

func (uc *OrderUseCase) applyScorePenalty(ctx context.Context, tx Transaction, accountID string, points int, now time.Time) error {
	account, err := uc.ledger.accountRepo.GetByIDForUpdate(ctx, tx, accountID)
	if err != nil {
		return err
	}

	return uc.ledger.accountRepo.UpdateScore(ctx, tx, account.ID, account.Score-points, now)
}

func (uc *OrderUseCase) emitOrderEvent(ctx context.Context, tx Transaction, order *domain.Order, eventType string) error {
	if uc.outboxRepo == nil {
		return nil
	}

	return uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   order.ID,
		AggregateType: domain.AggregateTypeOrder,
		EventType:     eventType,
		Payload: map[string]any{
			"order_id":  order.ID,
			"buyer_id":  order.BuyerID,
			"seller_id": order.SellerID,
			"status":    string(order.Status),
			"gross":     order.Gross.String(),
			"fee":       order.Fee.String(),
		},
		CreatedAt: uc.policy.Now().UTC(),
	})
}

func (uc *OrderUseCase) audit(ctx context.Context, tx Transaction, action domain.AuditAction, resourceID string, after any) error {
	if uc.auditRepo == nil {
		return nil
	}

	userID := "system"
	if user, ok := domain.UserFromContext(ctx); ok {
		userID = user.ID
	}

	return uc.auditRepo.CreateTx(ctx, tx, &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		UserID:       userID,
		Action:       string(action),
		ResourceType: "order",
		ResourceID:   resourceID,
		AfterState:   domain.MarshalState(after),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    time.Now().UTC(),
	})
}

// sortedByVariant orders items by variant ID for deterministic lock order.
func sortedByVariant(items []domain.OrderItem) []domain.OrderItem {
	sorted := append([]domain.OrderItem(nil), items...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].VariantID < sorted[j].VariantID })

	return sorted
}

// confirmationCode derives a short human-readable code from an ID.
func confirmationCode(id string) string {
	if len(id) <= 6 {
		return strings.ToUpper(id)
	}

	return strings.ToUpper(id[len(id)-6:])
}
