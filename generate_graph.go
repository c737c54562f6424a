//go:build ignore
// +build ignore

package main

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/cashpilot-bot/internal/bot"
)

func main() {
	totals := []bot.PaymentTotal{
		{Method: "Efectivo", Amount: decimal.NewFromInt(12_500_000)},
		{Method: "Tarjeta de crédito", Amount: decimal.NewFromInt(4_800_000)},
		{Method: "Tarjeta de débito", Amount: decimal.NewFromInt(3_200_000)},
		{Method: "Transferencias", Amount: decimal.NewFromInt(1_100_000)},
	}

	chartData, err := bot.GeneratePaymentChart(totals, "Farmacia Central")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile("graph.png", chartData, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Created graph.png - Example payment method chart")
}
