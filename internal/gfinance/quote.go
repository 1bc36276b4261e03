package gfinance

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sharefolio/tracker/internal/domain"
)

// ErrNoPrice indicates the page was fetched but carried no usable price.
var ErrNoPrice = errors.New("no usable price on page")

// priceSelector matches the headline price node on a quote page.
const priceSelector = "div.YMlKec.fxKbKc"

// Quote scrapes the current price for symbol on the given exchange
// (e.g. "RELIANCE" on "NSE"). A missing price node or a non-positive parsed
// value both yield ErrNoPrice so callers can fall through to another
// exchange.
func (c *Client) Quote(ctx context.Context, symbol, exchange string) (decimal.Decimal, error) {
	doc, err := c.fetchDocument(ctx, fmt.Sprintf("/quote/%s:%s", symbol, exchange))
	if err != nil {
		return decimal.Zero, err
	}

	node := doc.Find(priceSelector).First()
	if node.Length() == 0 {
		return decimal.Zero, fmt.Errorf("%s:%s: %w", symbol, exchange, ErrNoPrice)
	}

	price := domain.CleanNumber(node.Text())
	if price.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("%s:%s parsed %q: %w", symbol, exchange, node.Text(), ErrNoPrice)
	}

	return price, nil
}
