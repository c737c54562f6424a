package cashpilot

import (
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// DefaultListLimit is the page size used when ListSessionsParams.Limit is zero.
const DefaultListLimit = 50

// OpenSessionRequest opens a cash session for a business.
type OpenSessionRequest struct {
	BusinessID  string          `validate:"required"`
	CashierName string          `validate:"required,max=255"`
	InitialCash decimal.Decimal `validate:"gt=0"`
	ShiftHours  string          `validate:"max=50"`
}

// CloseSessionRequest closes a cash session with the counted amounts.
type CloseSessionRequest struct {
	FinalCash         decimal.Decimal `validate:"gt=0"`
	EnvelopeAmount    decimal.Decimal `validate:"gte=0"`
	CreditCardTotal   decimal.Decimal `validate:"gte=0"`
	DebitCardTotal    decimal.Decimal `validate:"gte=0"`
	BankTransferTotal decimal.Decimal `validate:"gte=0"`
	ClosingTicket     string          `validate:"max=50"`
	Notes             string          `validate:"max=1000"`
}

// ListSessionsParams filters and paginates the session listing.
type ListSessionsParams struct {
	BusinessID string
	Skip       int `validate:"gte=0"`
	Limit      int `validate:"gte=0,lte=100"`
}

type openSessionPayload struct {
	BusinessID  string  `json:"business_id"`
	CashierName string  `json:"cashier_name"`
	InitialCash string  `json:"initial_cash"`
	ShiftHours  *string `json:"shift_hours"`
}

type closeSessionPayload struct {
	FinalCash         string  `json:"final_cash"`
	EnvelopeAmount    string  `json:"envelope_amount"`
	CreditCardTotal   string  `json:"credit_card_total"`
	DebitCardTotal    string  `json:"debit_card_total"`
	BankTransferTotal string  `json:"bank_transfer_total"`
	ClosingTicket     *string `json:"closing_ticket"`
	Notes             *string `json:"notes"`
}

func (r OpenSessionRequest) payload() openSessionPayload {
	return openSessionPayload{
		BusinessID:  r.BusinessID,
		CashierName: r.CashierName,
		InitialCash: r.InitialCash.String(),
		ShiftHours:  optional(r.ShiftHours),
	}
}

func (r CloseSessionRequest) payload() closeSessionPayload {
	return closeSessionPayload{
		FinalCash:         r.FinalCash.String(),
		EnvelopeAmount:    r.EnvelopeAmount.String(),
		CreditCardTotal:   r.CreditCardTotal.String(),
		DebitCardTotal:    r.DebitCardTotal.String(),
		BankTransferTotal: r.BankTransferTotal.String(),
		ClosingTicket:     optional(r.ClosingTicket),
		Notes:             optional(r.Notes),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var validate = newValidator()

// newValidator compares decimal fields numerically so the gt/gte tags apply.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}
