package gfinance

import (
	"context"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/sharefolio/tracker/internal/domain"
)

// Selectors for the constituent rows shared by index and markets pages.
const (
	entrySelector  = "div.SxcTic"
	symbolSelector = "div.ZvmM7"
	lastPxSelector = "div.YMlKec"
	changeSelector = "div.JwB6zf"
)

// Listing scrapes an ordered list of market entries from a constituents or
// ranking page, keeping at most limit rows. Rows that fail to parse are
// logged and skipped; they never abort the remaining rows.
func (c *Client) Listing(ctx context.Context, path string, limit int) ([]domain.MarketEntry, error) {
	doc, err := c.fetchDocument(ctx, path)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.MarketEntry, 0, limit)
	doc.Find(entrySelector).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		entry, ok := parseEntry(row)
		if !ok {
			slog.Warn("skipping unparseable listing row", "path", path)
			return true
		}
		entries = append(entries, entry)
		return len(entries) < limit
	})

	return entries, nil
}

// parseEntry extracts one symbol/price/change tuple from a constituent row.
// The change cell renders as "−12.30 (0.52%)"; the absolute change precedes
// the parenthesised percentage.
func parseEntry(row *goquery.Selection) (domain.MarketEntry, bool) {
	symbol := strings.TrimSpace(row.Find(symbolSelector).First().Text())
	if symbol == "" {
		return domain.MarketEntry{}, false
	}

	price := decimal.Zero
	if node := row.Find(lastPxSelector).First(); node.Length() > 0 {
		price = domain.CleanNumber(node.Text())
	}

	change, changePct := decimal.Zero, decimal.Zero
	if node := row.Find(changeSelector).First(); node.Length() > 0 {
		change, changePct = parseChange(node.Text())
	}

	return domain.MarketEntry{
		Symbol:        symbol,
		LastPrice:     price,
		Change:        change,
		ChangePercent: changePct,
	}, true
}

func parseChange(text string) (change, changePct decimal.Decimal) {
	abs, pct, found := strings.Cut(text, "(")
	change = domain.CleanNumber(abs)
	if found {
		pct, _, _ = strings.Cut(pct, ")")
		changePct = domain.CleanNumber(pct)
	}
	return change, changePct
}
