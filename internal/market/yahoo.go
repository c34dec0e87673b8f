package market

import (
	"context"
	"fmt"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"
)

// YahooValidator looks symbols up through the Yahoo Finance quote API.
type YahooValidator struct {
	get func(symbol string) (*finance.Quote, error)
}

// NewYahooValidator creates a Yahoo Finance validator.
func NewYahooValidator() *YahooValidator {
	return &YahooValidator{get: quote.Get}
}

func (y *YahooValidator) Name() string {
	return "yahoo"
}

// Validate succeeds when Yahoo returns a quote for symbol. The quote client
// takes no context, so cancellation is only checked before the call.
func (y *YahooValidator) Validate(ctx context.Context, symbol string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q, err := y.get(symbol)
	if err != nil {
		return fmt.Errorf("yahoo quote %s: %w", symbol, err)
	}
	if q == nil || q.Symbol == "" {
		return fmt.Errorf("yahoo quote %s: %w", symbol, ErrUnknownSymbol)
	}
	return nil
}
