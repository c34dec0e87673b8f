package market

import (
	"context"
	"fmt"
	"net/http"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"
)

// FinnhubValidator looks symbols up through Finnhub's company profile
// endpoint.
type FinnhubValidator struct {
	client *finnhub.DefaultApiService
}

// NewFinnhubValidator creates a Finnhub validator.
func NewFinnhubValidator(apiKey string) *FinnhubValidator {
	return newFinnhubValidator(apiKey, nil)
}

func newFinnhubValidator(apiKey string, httpClient *http.Client) *FinnhubValidator {
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", apiKey)
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &FinnhubValidator{client: finnhub.NewAPIClient(cfg).DefaultApi}
}

func (f *FinnhubValidator) Name() string {
	return "finnhub"
}

// Validate succeeds when Finnhub returns a non-empty profile for symbol.
// Unknown symbols come back as an empty JSON object.
func (f *FinnhubValidator) Validate(ctx context.Context, symbol string) error {
	profile, _, err := f.client.CompanyProfile2(ctx).Symbol(symbol).Execute()
	if err != nil {
		return fmt.Errorf("finnhub profile %s: %w", symbol, err)
	}
	if profile.Ticker == nil || *profile.Ticker == "" {
		return fmt.Errorf("finnhub profile %s: %w", symbol, ErrUnknownSymbol)
	}
	return nil
}
