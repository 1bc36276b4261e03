// Package export renders portfolio and market data to spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/sharefolio/tracker/internal/portfolio"
)

const summarySheet = "Summary"

var holdingHeader = []any{
	"Symbol", "Quantity", "Buy Price", "Current Price",
	"Investment", "Current Value", "P/L", "P/L %",
}

// WritePortfolioWorkbook renders the dashboard as an XLSX workbook: one
// sheet per trading account plus a summary sheet, streamed to w.
func WritePortfolioWorkbook(w io.Writer, dashboard portfolio.Dashboard) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("renaming summary sheet: %w", err)
	}
	if err := writeSummary(f, dashboard); err != nil {
		return err
	}

	for _, account := range dashboard.Accounts {
		if err := writeAccountSheet(f, account); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, dashboard portfolio.Dashboard) error {
	rows := [][]any{
		{"Account", "Investment", "Current Value", "P/L", "P/L %"},
	}
	for _, account := range dashboard.Accounts {
		rows = append(rows, []any{
			account.Account.Name,
			toFloat(account.Summary.Investment),
			toFloat(account.Summary.CurrentValue),
			toFloat(account.Summary.ProfitLoss),
			toFloat(account.Summary.ProfitLossPct),
		})
	}
	rows = append(rows, []any{
		"Total",
		toFloat(dashboard.Total.Investment),
		toFloat(dashboard.Total.CurrentValue),
		toFloat(dashboard.Total.ProfitLoss),
		toFloat(dashboard.Total.ProfitLossPct),
	})

	return writeRows(f, summarySheet, rows)
}

func writeAccountSheet(f *excelize.File, account portfolio.AccountDashboard) error {
	name := sheetName(account.Account.Name)
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("creating sheet %q: %w", name, err)
	}

	rows := [][]any{holdingHeader}
	for _, hv := range account.Holdings {
		currentPrice := any(toFloat(hv.CurrentPrice))
		if !hv.PriceKnown {
			currentPrice = "n/a"
		}
		rows = append(rows, []any{
			hv.Holding.Symbol,
			hv.Holding.Quantity,
			toFloat(hv.Holding.BuyPrice),
			currentPrice,
			toFloat(hv.Investment),
			toFloat(hv.CurrentValue),
			toFloat(hv.ProfitLoss),
			toFloat(hv.ProfitLossPct),
		})
	}
	rows = append(rows, []any{
		"Total", nil, nil, nil,
		toFloat(account.Summary.Investment),
		toFloat(account.Summary.CurrentValue),
		toFloat(account.Summary.ProfitLoss),
		toFloat(account.Summary.ProfitLossPct),
	})

	return writeRows(f, name, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d of %q: %w", i+1, sheet, err)
		}
	}
	return nil
}

// sheetName clamps an account name to excelize's 31-character sheet limit.
func sheetName(name string) string {
	const maxSheetName = 31
	if len(name) > maxSheetName {
		return name[:maxSheetName]
	}
	if name == "" {
		return "Account"
	}
	return name
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
