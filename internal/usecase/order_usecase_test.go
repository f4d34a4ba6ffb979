package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/loopmarket/treasury/internal/domain"
	"github.com/loopmarket/treasury/internal/usecase"
	"github.com/loopmarket/treasury/internal/usecase/mocks"
)

// noonClock keeps order preconditions inside business hours.
func noonClock() time.Time {
	return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
}

type orderFixture struct {
	uc        *usecase.OrderUseCase
	accRepo   *mocks.MockAccountRepository
	entryRepo *mocks.MockEntryRepository
	orderRepo *mocks.MockOrderRepository
	listRepo  *mocks.MockListingRepository
}

// newOrderFixture wires an order use case around a verified seller with one
// listed variant (25.00, stock 10) and a buyer holding 100.00.
func newOrderFixture(t *testing.T, policy usecase.OrderPolicy) *orderFixture {
	t.Helper()

	accRepo := mocks.NewMockAccountRepository()
	entryRepo := mocks.NewMockEntryRepository()
	orderRepo := mocks.NewMockOrderRepository()
	listRepo := mocks.NewMockListingRepository()
	idGen := mocks.NewMockIDGenerator()
	ledger := usecase.NewLedger(accRepo, entryRepo, idGen)

	if policy.Now == nil {
		policy.Now = noonClock
	}

	accRepo.Seed(userAccount("buyer-1", "100.00"))

	seller := userAccount("seller-1", "0")
	seller.SellerVerified = true
	accRepo.Seed(seller)

	accRepo.Seed(userAccount("courier-1", "0"))
	seedPools(accRepo, "0")

	listRepo.SeedListing(&domain.Listing{ID: "lst-1", SellerID: "seller-1", Title: "gadget", Active: true})
	listRepo.SeedVariant(&domain.ListingVariant{
		ID:        "var-1",
		ListingID: "lst-1",
		Name:      "standard",
		Price:     decimal.RequireFromString("25.00"),
		Stock:     10,
	})

	uc := usecase.NewOrderUseCase(
		mocks.NewMockTransactionManager(),
		ledger,
		usecase.NewPartitionManager(ledger),
		orderRepo,
		listRepo,
		mocks.NewMockOutboxRepository(),
		mocks.NewMockAuditRepository(),
		idGen,
		mocks.NewMockShippingQuoteService(),
		nil,
		policy,
	)

	return &orderFixture{
		uc:        uc,
		accRepo:   accRepo,
		entryRepo: entryRepo,
		orderRepo: orderRepo,
		listRepo:  listRepo,
	}
}

func (f *orderFixture) balance(t *testing.T, id string) decimal.Decimal {
	t.Helper()

	account, err := f.accRepo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("account %s: %v", id, err)
	}

	return account.Balance
}

func (f *orderFixture) stock(t *testing.T, variantID string) int {
	t.Helper()

	variant, err := f.listRepo.GetVariant(context.Background(), variantID)
	if err != nil {
		t.Fatalf("variant %s: %v", variantID, err)
	}

	return variant.Stock
}

func (f *orderFixture) createOrder(t *testing.T, deliveryType domain.DeliveryType) *domain.Order {
	t.Helper()

	order, err := f.uc.CreateOrder(context.Background(), usecase.CreateOrderInput{
		BuyerID:       "buyer-1",
		Items:         []usecase.OrderItemInput{{VariantID: "var-1", Quantity: 2}},
		DeliveryType:  deliveryType,
		PaymentMethod: "balance",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	return order
}

func (f *orderFixture) confirmedOrder(t *testing.T, deliveryType domain.DeliveryType) *domain.Order {
	t.Helper()

	order := f.createOrder(t, deliveryType)

	order, err := f.uc.ConfirmPayment(context.Background(), order.ID, "buyer-1")
	if err != nil {
		t.Fatalf("confirm payment: %v", err)
	}

	return order
}

func (f *orderFixture) shippingOrder(t *testing.T, deliveryType domain.DeliveryType) *domain.Order {
	t.Helper()

	order := f.confirmedOrder(t, deliveryType)

	order, err := f.uc.MarkReadyForShipping(context.Background(), order.ID, "seller-1")
	if err != nil {
		t.Fatalf("mark ready: %v", err)
	}

	return order
}

func TestOrderUseCase_CreateOrder(t *testing.T) {
	f := newOrderFixture(t, usecase.OrderPolicy{})

	order := f.createOrder(t, domain.DeliveryTypePickup)

	if order.Status != domain.OrderStatusWaitingPayment {
		t.Errorf("expected waiting_payment, got %s", order.Status)
	}
	if !order.Gross.Equal(decimal.RequireFromString("50.00")) {
		t.Errorf("gross: expected 50.00, got %s", order.Gross)
	}
	if !order.DeliveryFee.IsZero() {
		t.Errorf("pickup order must carry no delivery fee, got %s", order.DeliveryFee)
	}
	if order.SellerID != "seller-1" {
		t.Errorf("seller: expected seller-1, got %s", order.SellerID)
	}
	if len(order.PickupCode) != 6 || len(order.DeliveryCode) != 6 {
		t.Error("confirmation codes must be six characters")
	}

	// Nothing moves before payment confirmation.
	if !f.balance(t, "buyer-1").Equal(decimal.RequireFromString("100.00")) {
		t.Error("creating an order must not touch the buyer balance")
	}
	if f.stock(t, "var-1") != 10 {
		t.Error("creating an order must not touch stock")
	}
}

func TestOrderUseCase_CreateOrder_CourierQuote(t *testing.T) {
	f := newOrderFixture(t, usecase.OrderPolicy{})

	order := f.createOrder(t, domain.DeliveryTypeCourier)

	if !order.DeliveryFee.Equal(decimal.RequireFromString("10")) {
		t.Errorf("delivery fee: expected 10, got %s", order.DeliveryFee)
	}
	if !order.TotalCharge().Equal(decimal.RequireFromString("60.00")) {
		t.Errorf("total charge: expected 60.00, got %s", order.TotalCharge())
	}
}

func TestOrderUseCase_CreateOrder_Validation(t *testing.T) {
	tests := []struct {
		name      string
		input     usecase.CreateOrderInput
		setup     func(*orderFixture)
		errorType error
	}{
		{
			name:      "no items",
			input:     usecase.CreateOrderInput{BuyerID: "buyer-1"},
			errorType: domain.ErrValidationFailed,
		},
		{
			name: "unknown variant",
			input: usecase.CreateOrderInput{
				BuyerID: "buyer-1",
				Items:   []usecase.OrderItemInput{{VariantID: "var-missing", Quantity: 1}},
			},
			errorType: domain.ErrListingNotFound,
		},
		{
			name: "inactive listing",
			input: usecase.CreateOrderInput{
				BuyerID: "buyer-1",
				Items:   []usecase.OrderItemInput{{VariantID: "var-1", Quantity: 1}},
			},
			setup: func(f *orderFixture) {
				f.listRepo.SeedListing(&domain.Listing{ID: "lst-1", SellerID: "seller-1", Active: false})
			},
			errorType: domain.ErrValidationFailed,
		},
		{
			name: "items from two sellers",
			input: usecase.CreateOrderInput{
				BuyerID: "buyer-1",
				Items: []usecase.OrderItemInput{
					{VariantID: "var-1", Quantity: 1},
					{VariantID: "var-other", Quantity: 1},
				},
			},
			setup: func(f *orderFixture) {
				f.listRepo.SeedListing(&domain.Listing{ID: "lst-2", SellerID: "seller-2", Active: true})
				f.listRepo.SeedVariant(&domain.ListingVariant{
					ID:        "var-other",
					ListingID: "lst-2",
					Price:     decimal.NewFromInt(5),
					Stock:     1,
				})
			},
			errorType: domain.ErrValidationFailed,
		},
		{
			name: "non-positive quantity",
			input: usecase.CreateOrderInput{
				BuyerID: "buyer-1",
				Items:   []usecase.OrderItemInput{{VariantID: "var-1", Quantity: 0}},
			},
			errorType: domain.ErrValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(t, usecase.OrderPolicy{})
			if tt.setup != nil {
				tt.setup(f)
			}

			_, err := f.uc.CreateOrder(context.Background(), tt.input)
			if !errors.Is(err, tt.errorType) {
				t.Errorf("expected error %v, got %v", tt.errorType, err)
			}
		})
	}
}

func TestOrderUseCase_ConfirmPayment_WelcomeRate(t *testing.T) {
	f := newOrderFixture(t, usecase.OrderPolicy{})

	buyer, _ := f.accRepo.GetByID(context.Background(), "buyer-1")
	buyer.WelcomeUsesLeft = 3

	order := f.confirmedOrder(t, domain.DeliveryTypePickup)

	if !order.FeeRate.Equal(usecase.WelcomeRate) {
		t.Errorf("fee rate: expected welcome %s, got %s", usecase.WelcomeRate, order.FeeRate)
	}
	if !order.Fee.Equal(decimal.RequireFromString("2.50")) {
		t.Errorf("fee: expected 2.50, got %s", order.Fee)
	}
	if !order.SellerNet.Equal(decimal.RequireFromString("47.50")) {
		t.Errorf("seller net: expected 47.50, got %s", order.SellerNet)
	}

	if !f.balance(t, "buyer-1").Equal(decimal.RequireFromString("50.00")) {
		t.Errorf("buyer balance: expected 50.00, got %s", f.balance(t, "buyer-1"))
	}
	if !f.balance(t, "seller-1").Equal(decimal.RequireFromString("47.50")) {
		t.Errorf("seller balance: expected 47.50, got %s", f.balance(t, "seller-1"))
	}
	if !f.balance(t, domain.SystemAccountMain).Equal(decimal.RequireFromString("2.50")) {
		t.Errorf("main pool: expected held fee 2.50, got %s", f.balance(t, domain.SystemAccountMain))
	}

	if buyer.WelcomeUsesLeft != 2 {
		t.Errorf("welcome uses: expected 2 left, got %d", buyer.WelcomeUsesLeft)
	}
	if f.stock(t, "var-1") != 8 {
		t.Errorf("stock: expected 8, got %d", f.stock(t, "var-1"))
	}

	// Order entries stay pending until the order resolves.
	for _, entry := range f.entryRepo.Entries() {
		if entry.Metadata["order_id"] == order.ID && entry.Status != domain.EntryStatusPending {
			t.Errorf("entry %s: expected pending, got %s", entry.ID, entry.Status)
		}
	}
}

func TestOrderUseCase_ConfirmPayment_RateSelection(t *testing.T) {
	tests := []struct {
		name     string
		verified bool
		rate     decimal.Decimal
	}{
		{"verified seller", true, usecase.EscrowRateVerified},
		{"standard seller", false, usecase.EscrowRateStandard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(t, usecase.OrderPolicy{})

			seller, _ := f.accRepo.GetByID(context.Background(), "seller-1")
			seller.SellerVerified = tt.verified

			order := f.confirmedOrder(t, domain.DeliveryTypePickup)

			if !order.FeeRate.Equal(tt.rate) {
				t.Errorf("fee rate: expected %s, got %s", tt.rate, order.FeeRate)
			}
		})
	}
}

func TestOrderUseCase_ConfirmPayment_Preconditions(t *testing.T) {
	t.Run("outside business hours", func(t *testing.T) {
		f := newOrderFixture(t, usecase.OrderPolicy{
			Now: func() time.Time { return time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC) },
		})
		order := f.createOrder(t, domain.DeliveryTypePickup)

		_, err := f.uc.ConfirmPayment(context.Background(), order.ID, "buyer-1")
		if !errors.Is(err, domain.ErrOutsideBusiness) {
			t.Errorf("expected ErrOutsideBusiness, got %v", err)
		}
	})

	t.Run("monthly sales cap reached", func(t *testing.T) {
		f := newOrderFixture(t, usecase.OrderPolicy{MonthlySalesLimit: 5})
		order := f.createOrder(t, domain.DeliveryTypePickup)

		f.orderRepo.CountSellerOrdersSinceFunc = func(ctx context.Context, sellerID string, since time.Time) (int, error) {
			return 5, nil
		}

		_, err := f.uc.ConfirmPayment(context.Background(), order.ID, "buyer-1")
		if !errors.Is(err, domain.ErrMonthlySalesCap) {
			t.Errorf("expected ErrMonthlySalesCap, got %v", err)
		}
	})

	t.Run("insufficient funds", func(t *testing.T) {
		f := newOrderFixture(t, usecase.OrderPolicy{})
		buyer, _ := f.accRepo.GetByID(context.Background(), "buyer-1")
		buyer.Balance = decimal.RequireFromString("49.99")

		order := f.createOrder(t, domain.DeliveryTypePickup)

		_, err := f.uc.ConfirmPayment(context.Background(), order.ID, "buyer-1")
		if !errors.Is(err, domain.ErrInsufficientFunds) {
			t.Errorf("expected ErrInsufficientFunds, got %v", err)
		}
	})

	t.Run("insufficient stock", func(t *testing.T) {
		f := newOrderFixture(t, usecase.OrderPolicy{})
		order := f.createOrder(t, domain.DeliveryTypePickup)

		variant, _ := f.listRepo.GetVariant(context.Background(), "var-1")
		variant.Stock = 1

		_, err := f.uc.ConfirmPayment(context.Background(), order.ID, "buyer-1")
		if !errors.Is(err, domain.ErrInsufficientStock) {
			t.Errorf("expected ErrInsufficientStock, got %v", err)
		}
	})

	t.Run("only the buyer confirms", func(t *testing.T) {
		f := newOrderFixture(t, usecase.OrderPolicy{})
		order := f.createOrder(t, domain.DeliveryTypePickup)

		_, err := f.uc.ConfirmPayment(context.Background(), order.ID, "seller-1")
		if !errors.Is(err, domain.ErrValidationFailed) {
			t.Errorf("expected ErrValidationFailed, got %v", err)
		}
	})

	t.Run("double confirmation rejected", func(t *testing.T) {
		f := newOrderFixture(t, usecase.OrderPolicy{})
		order := f.confirmedOrder(t, domain.DeliveryTypePickup)

		_, err := f.uc.ConfirmPayment(context.Background(), order.ID, "buyer-1")
		if !errors.Is(err, domain.ErrInvalidStateTransition) {
			t.Errorf("expected ErrInvalidStateTransition, got %v", err)
		}
	})
}

func TestOrderUseCase_MarkReadyForShipping(t *testing.T) {
	f := newOrderFixture(t, usecase.OrderPolicy{})
	order := f.confirmedOrder(t, domain.DeliveryTypeCourier)

	if _, err := f.uc.MarkReadyForShipping(context.Background(), order.ID, "buyer-1"); !errors.Is(err, domain.ErrValidationFailed) {
		t.Errorf("non-seller release: expected ErrValidationFailed, got %v", err)
	}

	order, err := f.uc.MarkReadyForShipping(context.Background(), order.ID, "seller-1")
	if err != nil {
		t.Fatalf("mark ready: %v", err)
	}

	if order.Status != domain.OrderStatusWaitingShipping {
		t.Errorf("expected waiting_shipping, got %s", order.Status)
	}
	if order.DeliveryStatus != domain.DeliveryStatusAvailable {
		t.Errorf("courier order must become available, got %s", order.DeliveryStatus)
	}
}

func TestOrderUseCase_AdvanceDelivery(t *testing.T) {
	f := newOrderFixture(t, usecase.OrderPolicy{})
	order := f.shippingOrder(t, domain.DeliveryTypeCourier)
	ctx := context.Background()

	// Skipping a step is refused.
	if _, err := f.uc.AdvanceDelivery(ctx, order.ID, "courier-1", domain.DeliveryStatusInTransit, ""); !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Errorf("skip to in_transit: expected ErrInvalidStateTransition, got %v", err)
	}

	order, err := f.uc.AdvanceDelivery(ctx, order.ID, "courier-1", domain.DeliveryStatusAccepted, "")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if order.CourierID == nil || *order.CourierID != "courier-1" {
		t.Fatal("accepting must assign the courier")
	}

	// Another courier cannot advance someone else's delivery.
	if _, err := f.uc.AdvanceDelivery(ctx, order.ID, "courier-2", domain.DeliveryStatusInTransit, ""); !errors.Is(err, domain.ErrValidationFailed) {
		t.Errorf("foreign courier: expected ErrValidationFailed, got %v", err)
	}

	if _, err := f.uc.AdvanceDelivery(ctx, order.ID, "courier-1", domain.DeliveryStatusInTransit, ""); err != nil {
		t.Fatalf("in transit: %v", err)
	}

	if _, err := f.uc.AdvanceDelivery(ctx, order.ID, "courier-1", domain.DeliveryStatusDelivered, "WRONG1"); !errors.Is(err, domain.ErrValidationFailed) {
		t.Errorf("wrong code: expected ErrValidationFailed, got %v", err)
	}

	order, err = f.uc.AdvanceDelivery(ctx, order.ID, "courier-1", domain.DeliveryStatusDelivered, order.DeliveryCode)
	if err != nil {
		t.Fatalf("delivered: %v", err)
	}
	if order.DeliveryStatus != domain.DeliveryStatusDelivered {
		t.Errorf("expected delivered, got %s", order.DeliveryStatus)
	}
}

func TestOrderUseCase_Complete_Pickup(t *testing.T) {
	f := newOrderFixture(t, usecase.OrderPolicy{})
	order := f.shippingOrder(t, domain.DeliveryTypePickup)
	ctx := context.Background()

	if _, err := f.uc.Complete(ctx, order.ID, "buyer-1", "WRONG1"); !errors.Is(err, domain.ErrValidationFailed) {
		t.Errorf("wrong pickup code: expected ErrValidationFailed, got %v", err)
	}

	// Codes match case-insensitively.
	order, err := f.uc.Complete(ctx, order.ID, "buyer-1", strings.ToLower(order.PickupCode))
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	if order.Status != domain.OrderStatusCompleted {
		t.Errorf("expected completed, got %s", order.Status)
	}
	if order.ClosedAt == nil {
		t.Error("completed order must record its close time")
	}

	// Fee 4.00 (verified 8% of 50.00) leaves the main pool and lands on
	// the reserve pools.
	expected := map[string]string{
		domain.SystemAccountMain:        "0",
		domain.SystemAccountProfit:      "3.20",
		domain.SystemAccountTax:         "0.20",
		domain.SystemAccountOperational: "0.20",
		domain.SystemAccountOwner:       "0.20",
		domain.SystemAccountInvestment:  "0.20",
	}
	for poolID, want := range expected {
		if got := f.balance(t, poolID); !got.Equal(decimal.RequireFromString(want)) {
			t.Errorf("pool %s: expected %s, got %s", poolID, want, got)
		}
	}

	for _, entry := range f.entryRepo.Entries() {
		if entry.Status == domain.EntryStatusPending {
			t.Errorf("entry %s still pending after completion", entry.ID)
		}
	}
}

func TestOrderUseCase_Complete_CourierFlow(t *testing.T) {
	f := newOrderFixture(t, usecase.OrderPolicy{})
	order := f.shippingOrder(t, domain.DeliveryTypeCourier)
	ctx := context.Background()

	// Completion is gated on delivery.
	if _, err := f.uc.Complete(ctx, order.ID, "buyer-1", ""); !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Errorf("undelivered completion: expected ErrInvalidStateTransition, got %v", err)
	}

	for _, step := range []domain.DeliveryStatus{domain.DeliveryStatusAccepted, domain.DeliveryStatusInTransit} {
		if _, err := f.uc.AdvanceDelivery(ctx, order.ID, "courier-1", step, ""); err != nil {
			t.Fatalf("advance to %s: %v", step, err)
		}
	}
	if _, err := f.uc.AdvanceDelivery(ctx, order.ID, "courier-1", domain.DeliveryStatusDelivered, order.DeliveryCode); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	order, err := f.uc.Complete(ctx, order.ID, "buyer-1", "")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	if order.Status != domain.OrderStatusCompleted {
		t.Errorf("expected completed, got %s", order.Status)
	}

	if !f.balance(t, "buyer-1").Equal(decimal.RequireFromString("40.00")) {
		t.Errorf("buyer: expected 40.00, got %s", f.balance(t, "buyer-1"))
	}
	if !f.balance(t, "seller-1").Equal(decimal.RequireFromString("46.00")) {
		t.Errorf("seller: expected 46.00, got %s", f.balance(t, "seller-1"))
	}
	if !f.balance(t, "courier-1").Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("courier: expected delivery fee 10.00, got %s", f.balance(t, "courier-1"))
	}
	if !f.balance(t, domain.SystemAccountMain).IsZero() {
		t.Errorf("main pool: expected 0, got %s", f.balance(t, domain.SystemAccountMain))
	}
}

func TestOrderUseCase_Cancel_BeforePayment(t *testing.T) {
	f := newOrderFixture(t, usecase.OrderPolicy{})
	order := f.createOrder(t, domain.DeliveryTypePickup)

	order, err := f.uc.Cancel(context.Background(), order.ID, "buyer-1")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if order.Status != domain.OrderStatusCancelled {
		t.Errorf("expected cancelled, got %s", order.Status)
	}
	if got := len(f.entryRepo.Entries()); got != 0 {
		t.Errorf("unpaid cancellation must write no entries, got %d", got)
	}
}

func TestOrderUseCase_Cancel_AfterPayment(t *testing.T) {
	f := newOrderFixture(t, usecase.OrderPolicy{})
	order := f.shippingOrder(t, domain.DeliveryTypePickup)

	order, err := f.uc.Cancel(context.Background(), order.ID, "seller-1")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if order.Status != domain.OrderStatusCancelled {
		t.Errorf("expected cancelled, got %s", order.Status)
	}

	// Every movement reverses.
	if !f.balance(t, "buyer-1").Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("buyer: expected full refund to 100.00, got %s", f.balance(t, "buyer-1"))
	}
	if !f.balance(t, "seller-1").IsZero() {
		t.Errorf("seller: expected 0, got %s", f.balance(t, "seller-1"))
	}
	if !f.balance(t, domain.SystemAccountMain).IsZero() {
		t.Errorf("main pool: expected 0, got %s", f.balance(t, domain.SystemAccountMain))
	}
	if f.stock(t, "var-1") != 10 {
		t.Errorf("stock: expected restored to 10, got %d", f.stock(t, "var-1"))
	}

	// Pending order entries are rejected, not completed.
	for _, entry := range f.entryRepo.Entries() {
		if entry.Metadata["order_id"] == order.ID && entry.Status == domain.EntryStatusPending {
			t.Errorf("entry %s still pending after cancellation", entry.ID)
		}
	}
}

func TestOrderUseCase_Cancel_Validation(t *testing.T) {
	f := newOrderFixture(t, usecase.OrderPolicy{})
	order := f.confirmedOrder(t, domain.DeliveryTypePickup)

	if _, err := f.uc.Cancel(context.Background(), order.ID, "stranger"); !errors.Is(err, domain.ErrValidationFailed) {
		t.Errorf("non-party cancel: expected ErrValidationFailed, got %v", err)
	}

	// A confirmed order is past the point of unilateral cancellation.
	if _, err := f.uc.Cancel(context.Background(), order.ID, "buyer-1"); !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Errorf("confirmed cancel: expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestOrderUseCase_OpenDispute(t *testing.T) {
	f := newOrderFixture(t, usecase.OrderPolicy{})
	order := f.shippingOrder(t, domain.DeliveryTypePickup)
	ctx := context.Background()

	if _, err := f.uc.OpenDispute(ctx, order.ID, "buyer-1", "  "); !errors.Is(err, domain.ErrValidationFailed) {
		t.Errorf("blank reason: expected ErrValidationFailed, got %v", err)
	}
	if _, err := f.uc.OpenDispute(ctx, order.ID, "stranger", "never arrived"); !errors.Is(err, domain.ErrValidationFailed) {
		t.Errorf("non-party: expected ErrValidationFailed, got %v", err)
	}

	order, err := f.uc.OpenDispute(ctx, order.ID, "buyer-1", "item never arrived")
	if err != nil {
		t.Fatalf("dispute: %v", err)
	}

	if order.Status != domain.OrderStatusInDispute {
		t.Errorf("expected in_dispute, got %s", order.Status)
	}
	if order.DisputeReason == nil || *order.DisputeReason != "item never arrived" {
		t.Error("dispute reason must be recorded")
	}

	// The seller's net proceeds are frozen back onto the main pool, which
	// then holds the full charge (46.00 net + 4.00 fee).
	if !f.balance(t, "seller-1").IsZero() {
		t.Errorf("seller: expected frozen to 0, got %s", f.balance(t, "seller-1"))
	}
	if !f.balance(t, domain.SystemAccountMain).Equal(decimal.RequireFromString("50.00")) {
		t.Errorf("main pool: expected 50.00 held, got %s", f.balance(t, domain.SystemAccountMain))
	}
}

func TestOrderUseCase_ResolveDispute_RefundBuyer(t *testing.T) {
	f := newOrderFixture(t, usecase.OrderPolicy{})
	order := f.shippingOrder(t, domain.DeliveryTypePickup)
	ctx := context.Background()

	if _, err := f.uc.OpenDispute(ctx, order.ID, "buyer-1", "item never arrived"); err != nil {
		t.Fatalf("dispute: %v", err)
	}

	penalized := "seller-1"
	order, err := f.uc.ResolveDispute(ctx, usecase.ResolveDisputeInput{
		OrderID:           order.ID,
		Resolution:        domain.DisputeRefundBuyer,
		PenalizeAccountID: &penalized,
		PenaltyPoints:     10,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if order.Status != domain.OrderStatusCancelled {
		t.Errorf("expected cancelled, got %s", order.Status)
	}
	if order.Resolution == nil || *order.Resolution != domain.DisputeRefundBuyer {
		t.Error("resolution must be recorded")
	}

	if !f.balance(t, "buyer-1").Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("buyer: expected full refund to 100.00, got %s", f.balance(t, "buyer-1"))
	}
	if !f.balance(t, domain.SystemAccountMain).IsZero() {
		t.Errorf("main pool: expected 0, got %s", f.balance(t, domain.SystemAccountMain))
	}
	if f.stock(t, "var-1") != 10 {
		t.Errorf("stock: expected restored to 10, got %d", f.stock(t, "var-1"))
	}

	seller, _ := f.accRepo.GetByID(ctx, "seller-1")
	if seller.Score != -10 {
		t.Errorf("seller score: expected -10, got %d", seller.Score)
	}
}

func TestOrderUseCase_ResolveDispute_ReleaseToSeller(t *testing.T) {
	f := newOrderFixture(t, usecase.OrderPolicy{})
	order := f.shippingOrder(t, domain.DeliveryTypePickup)
	ctx := context.Background()

	if _, err := f.uc.OpenDispute(ctx, order.ID, "buyer-1", "buyer changed their mind"); err != nil {
		t.Fatalf("dispute: %v", err)
	}

	order, err := f.uc.ResolveDispute(ctx, usecase.ResolveDisputeInput{
		OrderID:    order.ID,
		Resolution: domain.DisputeReleaseToSeller,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if order.Status != domain.OrderStatusCompleted {
		t.Errorf("expected completed, got %s", order.Status)
	}

	if !f.balance(t, "seller-1").Equal(decimal.RequireFromString("46.00")) {
		t.Errorf("seller: expected 46.00, got %s", f.balance(t, "seller-1"))
	}
	if !f.balance(t, domain.SystemAccountProfit).Equal(decimal.RequireFromString("3.20")) {
		t.Errorf("profit pool: expected 3.20, got %s", f.balance(t, domain.SystemAccountProfit))
	}
	if !f.balance(t, domain.SystemAccountMain).IsZero() {
		t.Errorf("main pool: expected 0, got %s", f.balance(t, domain.SystemAccountMain))
	}
}

func TestOrderUseCase_ResolveDispute_RequiresDispute(t *testing.T) {
	f := newOrderFixture(t, usecase.OrderPolicy{})
	order := f.confirmedOrder(t, domain.DeliveryTypePickup)

	_, err := f.uc.ResolveDispute(context.Background(), usecase.ResolveDisputeInput{
		OrderID:    order.ID,
		Resolution: domain.DisputeRefundBuyer,
	})
	if !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Errorf("expected ErrInvalidStateTransition, got %v", err)
	}
}
