// Package market checks ticker symbols against live market-data providers.
//
// Every provider answers the same question, "does this symbol exist?". A
// lookup failure of any kind (network, rate limit, unknown symbol) is
// reported as an error, and callers treat errors as "not a valid ticker".
package market

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
)

// ErrUnknownSymbol is returned when the provider has no data for a symbol.
var ErrUnknownSymbol = errors.New("unknown symbol")

// Validator confirms that a symbol is a listed security.
type Validator interface {
	Validate(ctx context.Context, symbol string) error
	Name() string
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(ctx context.Context, symbol string) error

func (f ValidatorFunc) Validate(ctx context.Context, symbol string) error {
	return f(ctx, symbol)
}

func (f ValidatorFunc) Name() string {
	return "func"
}

// AcceptAll treats every symbol as valid. It is used when no market-data
// provider is configured; the gazetteer still filters candidates.
type AcceptAll struct{}

func (AcceptAll) Validate(context.Context, string) error { return nil }
func (AcceptAll) Name() string                            { return "none" }

// Options selects and configures a provider.
type Options struct {
	Provider     string
	APIKeyEnv    string
	APISecretEnv string
	BaseURL      string
}

// NewValidator creates a validator based on configuration.
func NewValidator(opts Options) (Validator, error) {
	switch strings.ToLower(opts.Provider) {
	case "", "yahoo":
		log.Println("Validating tickers against Yahoo Finance")
		return NewYahooValidator(), nil
	case "finnhub":
		key := os.Getenv(opts.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("finnhub API key not configured (set %s)", envName(opts.APIKeyEnv))
		}
		log.Println("Validating tickers against Finnhub")
		return NewFinnhubValidator(key), nil
	case "alpaca":
		key, secret := os.Getenv(opts.APIKeyEnv), os.Getenv(opts.APISecretEnv)
		if key == "" || secret == "" {
			return nil, fmt.Errorf("alpaca credentials not configured (set %s and %s)",
				envName(opts.APIKeyEnv), envName(opts.APISecretEnv))
		}
		log.Println("Validating tickers against Alpaca")
		return NewAlpacaValidator(key, secret, opts.BaseURL), nil
	case "none", "off":
		log.Println("Ticker validation disabled; relying on the gazetteer only")
		return AcceptAll{}, nil
	default:
		return nil, fmt.Errorf("unknown market provider %q", opts.Provider)
	}
}

func envName(s string) string {
	if s == "" {
		return "market.api_key_env"
	}
	return s
}
