// Package models defines the domain entities for the CashPilot bot.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrencySuffix is appended to formatted Guaraní amounts.
const CurrencySuffix = "Gs"

// User represents a Telegram user and the pharmacy branch bound to them.
type User struct {
	ID            int64
	Username      string
	FirstName     string
	LastName      string
	BusinessID    string
	BusinessName  string
	OpenSessionID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasBusiness reports whether the user has a branch configured.
func (u *User) HasBusiness() bool {
	return u != nil && u.BusinessID != ""
}

// HasOpenSession reports whether the user has a cash session tracked as open.
func (u *User) HasOpenSession() bool {
	return u != nil && u.OpenSessionID != ""
}

// SessionStatus is the lifecycle state of a cash session.
type SessionStatus string

// Cash session statuses reported by the backend.
const (
	SessionStatusOpen   SessionStatus = "OPEN"
	SessionStatusClosed SessionStatus = "CLOSED"
)

// CashSession mirrors a CashPilot cash session.
type CashSession struct {
	ID                string              `json:"id"`
	BusinessID        string              `json:"business_id"`
	Status            SessionStatus       `json:"status"`
	CashierName       string              `json:"cashier_name"`
	ShiftHours        string              `json:"shift_hours"`
	InitialCash       decimal.Decimal     `json:"initial_cash"`
	FinalCash         decimal.NullDecimal `json:"final_cash"`
	EnvelopeAmount    decimal.Decimal     `json:"envelope_amount"`
	CreditCardTotal   decimal.Decimal     `json:"credit_card_total"`
	DebitCardTotal    decimal.Decimal     `json:"debit_card_total"`
	BankTransferTotal decimal.Decimal     `json:"bank_transfer_total"`
	CashSales         decimal.Decimal     `json:"cash_sales"`
	TotalSales        decimal.Decimal     `json:"total_sales"`
	Difference        decimal.NullDecimal `json:"difference"`
	ClosingTicket     string              `json:"closing_ticket"`
	Notes             string              `json:"notes"`
	OpenedAt          Timestamp           `json:"opened_at"`
	ClosedAt          Timestamp           `json:"closed_at"`
}

// IsOpen reports whether the session is still open.
func (s *CashSession) IsOpen() bool {
	return s.Status == SessionStatusOpen
}

// FinalCashOrZero returns the final cash, or zero when the backend sent none.
func (s *CashSession) FinalCashOrZero() decimal.Decimal {
	if s.FinalCash.Valid {
		return s.FinalCash.Decimal
	}
	return decimal.Zero
}

// DifferenceOrZero returns the reconciliation difference, or zero when absent.
func (s *CashSession) DifferenceOrZero() decimal.Decimal {
	if s.Difference.Valid {
		return s.Difference.Decimal
	}
	return decimal.Zero
}

// Business is a pharmacy branch registered in CashPilot.
type Business struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	IsActive bool   `json:"is_active"`
}

// Health is the payload of the backend health endpoint.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Outcome classifies a closed session's reconciliation difference.
type Outcome int

// Reconciliation outcomes.
const (
	OutcomeBalanced Outcome = iota
	OutcomeShortage
	OutcomeOverage
)

// ClassifyDifference maps a difference to an outcome. The backend reports
// expected minus counted, so a positive value means cash is missing.
func ClassifyDifference(difference decimal.Decimal) Outcome {
	switch difference.Sign() {
	case 0:
		return OutcomeBalanced
	case 1:
		return OutcomeShortage
	default:
		return OutcomeOverage
	}
}

// String returns a stable label used in metrics and logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeBalanced:
		return "balanced"
	case OutcomeShortage:
		return "shortage"
	case OutcomeOverage:
		return "overage"
	default:
		return "unknown"
	}
}
