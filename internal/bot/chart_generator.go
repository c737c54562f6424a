package bot

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-analyze/charts"
	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/cashpilot-bot/internal/models"
)

// PaymentTotal is the amount collected through one payment method.
type PaymentTotal struct {
	Method string
	Amount decimal.Decimal
}

// GeneratePaymentChart creates a pie chart of sales by payment method.
// Returns PNG image as bytes.
func GeneratePaymentChart(totals []PaymentTotal, business string) ([]byte, error) {
	if len(totals) == 0 {
		return nil, errors.New("no payment totals to chart")
	}

	values := make([]float64, 0, len(totals))
	names := make([]string, 0, len(totals))
	for _, t := range totals {
		values = append(values, t.Amount.InexactFloat64())
		names = append(names, t.Method)
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text: fmt.Sprintf("Ventas por medio de pago - %s", business),
		}),
		charts.LegendLabelsOptionFunc(names),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return buf, nil
}

// aggregatePaymentMethods sums the sessions per payment method, in a fixed
// order and skipping methods with no sales.
func aggregatePaymentMethods(sessions []models.CashSession) []PaymentTotal {
	totals := []PaymentTotal{
		{Method: "Efectivo"},
		{Method: "Tarjeta de crédito"},
		{Method: "Tarjeta de débito"},
		{Method: "Transferencias"},
	}

	for _, s := range sessions {
		totals[0].Amount = totals[0].Amount.Add(s.CashSales)
		totals[1].Amount = totals[1].Amount.Add(s.CreditCardTotal)
		totals[2].Amount = totals[2].Amount.Add(s.DebitCardTotal)
		totals[3].Amount = totals[3].Amount.Add(s.BankTransferTotal)
	}

	nonZero := totals[:0]
	for _, t := range totals {
		if t.Amount.IsPositive() {
			nonZero = append(nonZero, t)
		}
	}
	return nonZero
}

func sumPayments(totals []PaymentTotal) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range totals {
		sum = sum.Add(t.Amount)
	}
	return sum
}

// chartFilename creates a filename like "grafico_pagos_2026-01-31.png".
func chartFilename(now time.Time) string {
	return fmt.Sprintf("grafico_pagos_%s.png", now.Format("2006-01-02"))
}
