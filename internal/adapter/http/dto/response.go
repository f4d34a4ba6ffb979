package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/loopmarket/treasury/internal/domain"
	"github.com/loopmarket/treasury/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID              string          `json:"id"`
	Kind            string          `json:"kind"`
	Name            string          `json:"name"`
	Balance         decimal.Decimal `json:"balance"`
	Points          int64           `json:"points"`
	WelcomeUsesLeft int             `json:"welcome_uses_left"`
	SellerVerified  bool            `json:"seller_verified"`
	Score           int             `json:"score"`
	Version         int64           `json:"version"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// AccountFromDomain converts a domain account to a response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:              a.ID,
		Kind:            string(a.Kind),
		Name:            a.Name,
		Balance:         a.Balance,
		Points:          a.Points,
		WelcomeUsesLeft: a.WelcomeUsesLeft,
		SellerVerified:  a.SellerVerified,
		Score:           a.Score,
		Version:         a.Version,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID              string          `json:"id"`
	AccountID       string          `json:"account_id"`
	Amount          decimal.Decimal `json:"amount"`
	Category        string          `json:"category"`
	Description     string          `json:"description,omitempty"`
	Status          string          `json:"status"`
	Metadata        map[string]any  `json:"metadata,omitempty"`
	PreviousBalance decimal.Decimal `json:"previous_balance"`
	CurrentBalance  decimal.Decimal `json:"current_balance"`
	CreatedAt       time.Time       `json:"created_at"`
}

// EntryFromDomain converts a domain ledger entry to a response.
func EntryFromDomain(e *domain.LedgerEntry) *EntryResponse {
	return &EntryResponse{
		ID:              e.ID,
		AccountID:       e.AccountID,
		Amount:          e.Amount,
		Category:        string(e.Category),
		Description:     e.Description,
		Status:          string(e.Status),
		Metadata:        e.Metadata,
		PreviousBalance: e.PreviousBalance,
		CurrentBalance:  e.CurrentBalance,
		CreatedAt:       e.CreatedAt,
	}
}

// EntriesFromDomain converts domain ledger entries to responses.
func EntriesFromDomain(entries []*domain.LedgerEntry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// OrderItemResponse represents one purchased variant.
type OrderItemResponse struct {
	ID        string          `json:"id"`
	ListingID string          `json:"listing_id"`
	VariantID string          `json:"variant_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// OrderResponse represents an order in API responses.
type OrderResponse struct {
	ID             string              `json:"id"`
	BuyerID        string              `json:"buyer_id"`
	SellerID       string              `json:"seller_id"`
	CourierID      *string             `json:"courier_id,omitempty"`
	Items          []OrderItemResponse `json:"items"`
	Gross          decimal.Decimal     `json:"gross"`
	FeeRate        decimal.Decimal     `json:"fee_rate"`
	Fee            decimal.Decimal     `json:"fee"`
	SellerNet      decimal.Decimal     `json:"seller_net"`
	DeliveryFee    decimal.Decimal     `json:"delivery_fee"`
	DeliveryType   string              `json:"delivery_type"`
	PaymentMethod  string              `json:"payment_method"`
	Status         string              `json:"status"`
	DeliveryStatus string              `json:"delivery_status,omitempty"`
	DisputeReason  *string             `json:"dispute_reason,omitempty"`
	Resolution     *string             `json:"resolution,omitempty"`
	PickupCode     string              `json:"pickup_code,omitempty"`
	DeliveryCode   string              `json:"delivery_code,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	ConfirmedAt    *time.Time          `json:"confirmed_at,omitempty"`
	ClosedAt       *time.Time          `json:"closed_at,omitempty"`
}

// OrderFromDomain converts a domain order to a response.
func OrderFromDomain(o *domain.Order) *OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			ID:        it.ID,
			ListingID: it.ListingID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		}
	}

	var resolution *string
	if o.Resolution != nil {
		s := string(*o.Resolution)
		resolution = &s
	}

	return &OrderResponse{
		ID:             o.ID,
		BuyerID:        o.BuyerID,
		SellerID:       o.SellerID,
		CourierID:      o.CourierID,
		Items:          items,
		Gross:          o.Gross,
		FeeRate:        o.FeeRate,
		Fee:            o.Fee,
		SellerNet:      o.SellerNet,
		DeliveryFee:    o.DeliveryFee,
		DeliveryType:   string(o.DeliveryType),
		PaymentMethod:  o.PaymentMethod,
		Status:         string(o.Status),
		DeliveryStatus: string(o.DeliveryStatus),
		DisputeReason:  o.DisputeReason,
		Resolution:     resolution,
		PickupCode:     o.PickupCode,
		DeliveryCode:   o.DeliveryCode,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
		ConfirmedAt:    o.ConfirmedAt,
		ClosedAt:       o.ClosedAt,
	}
}

// OrdersFromDomain converts domain orders to responses.
func OrdersFromDomain(orders []*domain.Order) []*OrderResponse {
	result := make([]*OrderResponse, len(orders))
	for i, o := range orders {
		result[i] = OrderFromDomain(o)
	}
	return result
}

// LoanResponse represents a loan in API responses.
type LoanResponse struct {
	ID               string          `json:"id"`
	BorrowerID       string          `json:"borrower_id"`
	Principal        decimal.Decimal `json:"principal"`
	Rate             decimal.Decimal `json:"rate"`
	TotalRepayment   decimal.Decimal `json:"total_repayment"`
	OriginationFee   decimal.Decimal `json:"origination_fee"`
	DisbursedAmount  decimal.Decimal `json:"disbursed_amount"`
	Outstanding      decimal.Decimal `json:"outstanding"`
	InstallmentCount int             `json:"installment_count"`
	Status           string          `json:"status"`
	DueDate          time.Time       `json:"due_date"`
	CreatedAt        time.Time       `json:"created_at"`
	ApprovedAt       *time.Time      `json:"approved_at,omitempty"`
}

// LoanFromDomain converts a domain loan to a response.
func LoanFromDomain(l *domain.Loan) *LoanResponse {
	return &LoanResponse{
		ID:               l.ID,
		BorrowerID:       l.BorrowerID,
		Principal:        l.Principal,
		Rate:             l.Rate,
		TotalRepayment:   l.TotalRepayment,
		OriginationFee:   l.OriginationFee,
		DisbursedAmount:  l.DisbursedAmount,
		Outstanding:      l.Outstanding,
		InstallmentCount: l.InstallmentCount,
		Status:           string(l.Status),
		DueDate:          l.DueDate,
		CreatedAt:        l.CreatedAt,
		ApprovedAt:       l.ApprovedAt,
	}
}

// LoansFromDomain converts domain loans to responses.
func LoansFromDomain(loans []*domain.Loan) []*LoanResponse {
	result := make([]*LoanResponse, len(loans))
	for i, l := range loans {
		result[i] = LoanFromDomain(l)
	}
	return result
}

// InstallmentResponse represents one scheduled repayment.
type InstallmentResponse struct {
	ID             string          `json:"id"`
	LoanID         string          `json:"loan_id"`
	Number         int             `json:"number"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	DueDate        time.Time       `json:"due_date"`
	Status         string          `json:"status"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
}

// InstallmentsFromDomain converts domain installments to responses.
func InstallmentsFromDomain(installments []*domain.Installment) []*InstallmentResponse {
	result := make([]*InstallmentResponse, len(installments))
	for i, in := range installments {
		result[i] = &InstallmentResponse{
			ID:             in.ID,
			LoanID:         in.LoanID,
			Number:         in.Number,
			ExpectedAmount: in.ExpectedAmount,
			PaidAmount:     in.PaidAmount,
			DueDate:        in.DueDate,
			Status:         string(in.Status),
			PaidAt:         in.PaidAt,
		}
	}
	return result
}

// ConversionResponse reports what a point conversion moved.
type ConversionResponse struct {
	Lots            int64           `json:"lots"`
	PointsConsumed  int64           `json:"points_consumed"`
	AmountCredited  decimal.Decimal `json:"amount_credited"`
	PointsRemaining int64           `json:"points_remaining"`
}

// ConversionFromResult converts a use case conversion result to a response.
func ConversionFromResult(r *usecase.ConversionResult) *ConversionResponse {
	return &ConversionResponse{
		Lots:            r.Lots,
		PointsConsumed:  r.PointsConsumed,
		AmountCredited:  r.AmountCredited,
		PointsRemaining: r.PointsRemaining,
	}
}
