package market

import (
	"context"
	"fmt"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
)

// AlpacaValidator looks symbols up in Alpaca's asset master.
type AlpacaValidator struct {
	client *alpaca.Client
}

// NewAlpacaValidator creates an Alpaca validator. An empty baseURL uses the
// client's default (live trading API).
func NewAlpacaValidator(apiKey, apiSecret, baseURL string) *AlpacaValidator {
	return &AlpacaValidator{
		client: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   baseURL,
		}),
	}
}

func (a *AlpacaValidator) Name() string {
	return "alpaca"
}

// Validate succeeds when Alpaca knows the asset. The client takes no
// context, so cancellation is only checked before the call.
func (a *AlpacaValidator) Validate(ctx context.Context, symbol string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	asset, err := a.client.GetAsset(symbol)
	if err != nil {
		return fmt.Errorf("alpaca asset %s: %w", symbol, err)
	}
	if asset == nil || asset.Symbol == "" {
		return fmt.Errorf("alpaca asset %s: %w", symbol, ErrUnknownSymbol)
	}
	return nil
}
