package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/sharefolio/tracker/internal/domain"
)

const marketsSheet = "MARKETS"

// MarketReport is one run of the daily market summary.
type MarketReport struct {
	At      time.Time
	Nifty50 []domain.MarketEntry
	Sensex  []domain.MarketEntry
	Gainers []domain.MarketEntry
	Losers  []domain.MarketEntry
}

// SheetsWriter appends market reports to a Google Sheet.
type SheetsWriter struct {
	spreadsheetID string
	svc           *sheets.Service
}

// NewSheetsWriter creates a SheetsWriter authenticated with a service account JSON.
func NewSheetsWriter(ctx context.Context, spreadsheetID, credentialsJSON string) (*SheetsWriter, error) {
	creds, err := google.CredentialsFromJSON(
		ctx,
		[]byte(credentialsJSON),
		sheets.SpreadsheetsScope,
	)
	if err != nil {
		return nil, fmt.Errorf("parsing google credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &SheetsWriter{spreadsheetID: spreadsheetID, svc: svc}, nil
}

var marketsHeader = []any{
	"Date", "Nifty50 Constituents", "Sensex Constituents",
	"Top Gainers", "Top Losers",
}

// AppendMarketReport ensures the MARKETS sheet exists, writes the header row
// when the sheet is empty, then appends one row for this run.
func (w *SheetsWriter) AppendMarketReport(ctx context.Context, report MarketReport) error {
	if err := w.ensureSheet(ctx, marketsSheet); err != nil {
		return err
	}

	existing, err := w.svc.Spreadsheets.Values.Get(
		w.spreadsheetID, marketsSheet+"!A1:A1",
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("reading %s header: %w", marketsSheet, err)
	}

	if len(existing.Values) == 0 {
		_, err = w.svc.Spreadsheets.Values.Update(
			w.spreadsheetID,
			marketsSheet+"!A1",
			&sheets.ValueRange{Values: [][]any{marketsHeader}},
		).ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("writing %s header: %w", marketsSheet, err)
		}
	}

	_, err = w.svc.Spreadsheets.Values.Append(
		w.spreadsheetID,
		marketsSheet+"!A:E",
		&sheets.ValueRange{Values: [][]any{buildMarketRow(report)}},
	).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("appending %s row: %w", marketsSheet, err)
	}
	return nil
}

// buildMarketRow flattens a report into one sheet row. Entry lists become
// "SYMBOL 123.45 (+1.2%)" strings joined with "; ".
func buildMarketRow(report MarketReport) []any {
	return []any{
		report.At.UTC().Format("2006-01-02"),
		joinEntries(report.Nifty50),
		joinEntries(report.Sensex),
		joinEntries(report.Gainers),
		joinEntries(report.Losers),
	}
}

func joinEntries(entries []domain.MarketEntry) string {
	parts := lo.Map(entries, func(e domain.MarketEntry, _ int) string {
		return fmt.Sprintf("%s %s (%s%%)", e.Symbol, e.LastPrice, e.ChangePercent)
	})
	return strings.Join(parts, "; ")
}

// ensureSheet creates the named sheet when it does not already exist.
func (w *SheetsWriter) ensureSheet(ctx context.Context, name string) error {
	spreadsheet, err := w.svc.Spreadsheets.Get(w.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("getting spreadsheet metadata: %w", err)
	}

	for _, s := range spreadsheet.Sheets {
		if s.Properties.Title == name {
			return nil
		}
	}

	_, err = w.svc.Spreadsheets.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: name},
				},
			}},
		},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("creating sheet %q: %w", name, err)
	}
	return nil
}
