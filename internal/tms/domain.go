package tms

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound      = errors.New("tms: record not found")
	ErrInvalidStatus = errors.New("tms: invalid status transition")
	ErrInvalidInput  = errors.New("tms: invalid input")
)

// TokenStatus is the lifecycle state of a token.
type TokenStatus string

const (
	StatusBooked    TokenStatus = "Booked"
	StatusLoaded    TokenStatus = "Loaded"
	StatusDelivered TokenStatus = "Delivered"
)

// CanTransition reports whether a token may move from s to next.
// Booked goes to Loaded or Delivered; Loaded goes to Delivered only.
func (s TokenStatus) CanTransition(next TokenStatus) bool {
	switch s {
	case StatusBooked:
		return next == StatusLoaded || next == StatusDelivered
	case StatusLoaded:
		return next == StatusDelivered
	default:
		return false
	}
}

// PaymentMethod enumerates accepted payment channels.
type PaymentMethod string

const (
	MethodCash   PaymentMethod = "Cash"
	MethodBank   PaymentMethod = "Bank"
	MethodUPI    PaymentMethod = "UPI"
	MethodCheque PaymentMethod = "Cheque"
)

// Sequence kinds used for document numbering.
const (
	SeqToken   = "token"
	SeqChallan = "challan"
)

// Party is a customer that books consignments.
type Party struct {
	ID          int64
	Name        string
	Address     string
	Mobile      string
	GST         string
	Marka       string
	DefaultRate decimal.Decimal
}

// Token is one booked consignment (bilty).
type Token struct {
	ID            int64
	TokenNo       string
	CreatedAt     time.Time
	PartyID       int64
	PartyName     string
	Marka         string
	Weight        decimal.Decimal
	RatePerKg     decimal.Decimal
	RatePerParcel decimal.Decimal
	TotalAmount   decimal.Decimal
	FromCity      string
	ToCity        string
	Status        TokenStatus
	DeliveryDate  *time.Time
	Receiver      string
	Remark        string
	ChallanID     *int64
}

// Challan is a truck loading sheet grouping tokens.
type Challan struct {
	ID           int64
	ChallanNo    string
	CreatedAt    time.Time
	TruckNo      string
	DriverName   string
	DriverMobile string
	Origin       string
	Destination  string
	Tokens       []Token
}

// Payment is money received from a party.
type Payment struct {
	ID      int64
	PartyID int64
	Amount  decimal.Decimal
	Method  PaymentMethod
	Date    time.Time
	Remark  string
}

// Consignment is one token as loaded on a challan.
type Consignment struct {
	ChallanNo   string
	TruckNo     string
	TokenNo     string
	PartyName   string
	Weight      decimal.Decimal
	TotalAmount decimal.Decimal
}

// ============================================================================
// INPUTS
// ============================================================================

// PartyInput creates or replaces a party by name.
type PartyInput struct {
	Name        string `validate:"required"`
	Address     string
	Mobile      string
	GST         string
	Marka       string
	DefaultRate decimal.Decimal `validate:"gte=0"`
}

// TokenInput books a consignment for a named party.
type TokenInput struct {
	Party         string `validate:"required"`
	Marka         string
	Weight        decimal.Decimal `validate:"gte=0"`
	RatePerKg     decimal.Decimal `validate:"gte=0"`
	RatePerParcel decimal.Decimal `validate:"gte=0"`
	FromCity      string
	ToCity        string
	Remark        string
}

// ChallanInput loads booked tokens onto a truck.
type ChallanInput struct {
	TruckNo      string `validate:"required"`
	DriverName   string
	DriverMobile string
	Origin       string
	Destination  string
	TokenNos     []string `validate:"required,min=1,dive,required"`
}

// PaymentInput records a party payment.
type PaymentInput struct {
	Party  string          `validate:"required"`
	Amount decimal.Decimal `validate:"gt=0"`
	Method PaymentMethod   `validate:"required,oneof=Cash Bank UPI Cheque"`
	Date   time.Time       `validate:"required"`
	Remark string
}

// DeliveryInput marks a token delivered.
type DeliveryInput struct {
	TokenNo  string    `validate:"required"`
	Date     time.Time `validate:"required"`
	Receiver string
}

// ============================================================================
// FILTERS AND VIEWS
// ============================================================================

// TokenFilter narrows token listings. Zero values do not filter.
type TokenFilter struct {
	OpenOnly bool
	PartyID  int64
	Status   TokenStatus

	// From and To bound the creation date, inclusive.
	From *time.Time
	To   *time.Time
}

// ChallanFilter narrows challan listings.
type ChallanFilter struct {
	// Day limits challans to those created on that date.
	Day *time.Time
}

// PartyLedger is a party's charges and payments with the running balance.
type PartyLedger struct {
	Party         Party
	Tokens        []Token
	Payments      []Payment
	TotalCharges  decimal.Decimal
	TotalPayments decimal.Decimal
	Balance       decimal.Decimal
}

// OutstandingRow is one party of the outstanding report.
type OutstandingRow struct {
	Party       string
	Outstanding decimal.Decimal
}

// Invoice lists a party's tokens booked within a date range.
type Invoice struct {
	Party  Party
	From   time.Time
	To     time.Time
	Tokens []Token
	Total  decimal.Decimal
}

// TokenAmount prices a token: rate per kg times weight when both are set,
// otherwise the rate per parcel, otherwise zero.
func TokenAmount(weight, ratePerKg, ratePerParcel decimal.Decimal) decimal.Decimal {
	if !ratePerKg.IsZero() && !weight.IsZero() {
		return ratePerKg.Mul(weight)
	}
	if !ratePerParcel.IsZero() {
		return ratePerParcel
	}
	return decimal.Zero
}
