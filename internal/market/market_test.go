package market

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
	finance "github.com/piquette/finance-go"
)

// rewriteTransport sends every request to a test server regardless of the
// host the client was configured with.
type rewriteTransport struct {
	base  string
	inner http.RoundTripper
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	target, _ := url.Parse(t.base)
	req = req.Clone(req.Context())
	req.URL.Scheme = target.Scheme
	req.URL.Host = target.Host
	return t.inner.RoundTrip(req)
}

func TestYahooValidator(t *testing.T) {
	y := &YahooValidator{get: func(symbol string) (*finance.Quote, error) {
		switch symbol {
		case "AAPL":
			return &finance.Quote{Symbol: "AAPL"}, nil
		case "DOWN":
			return nil, errors.New("rate limited")
		default:
			return nil, nil
		}
	}}

	ctx := context.Background()
	assert.Equal(t, nil, y.Validate(ctx, "AAPL"))
	assert.Equal(t, true, errors.Is(y.Validate(ctx, "ZZZZ"), ErrUnknownSymbol))
	assert.NotEqual(t, nil, y.Validate(ctx, "DOWN"))
	assert.Equal(t, "yahoo", y.Name())
}

func TestYahooValidatorCancelled(t *testing.T) {
	called := false
	y := &YahooValidator{get: func(string) (*finance.Quote, error) {
		called = true
		return &finance.Quote{Symbol: "AAPL"}, nil
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, true, errors.Is(y.Validate(ctx, "AAPL"), context.Canceled))
	assert.Equal(t, false, called)
}

func TestFinnhubValidator(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Finnhub-Token")
		w.Header().Set("Content-Type", "application/json")
		if !strings.HasSuffix(r.URL.Path, "/stock/profile2") {
			http.NotFound(w, r)
			return
		}
		switch r.URL.Query().Get("symbol") {
		case "AAPL":
			json.NewEncoder(w).Encode(map[string]any{"ticker": "AAPL", "name": "Apple Inc"})
		case "FAIL":
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"API limit reached"}`))
		default:
			w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	httpClient := &http.Client{Transport: &rewriteTransport{base: srv.URL, inner: http.DefaultTransport}}
	v := newFinnhubValidator("test-key", httpClient)
	ctx := context.Background()

	assert.Equal(t, nil, v.Validate(ctx, "AAPL"))
	assert.Equal(t, "test-key", gotToken)
	assert.Equal(t, true, errors.Is(v.Validate(ctx, "ZZZZ"), ErrUnknownSymbol))
	assert.NotEqual(t, nil, v.Validate(ctx, "FAIL"))
}

func TestAlpacaValidator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/v2/assets/AAPL" {
			w.Write([]byte(`{"id":"b0b6dd9d-8b9b-48a9-ba46-b9d54906e415","class":"us_equity","exchange":"NASDAQ","symbol":"AAPL","name":"Apple Inc.","status":"active","tradable":true}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code":40410000,"message":"asset not found"}`))
	}))
	defer srv.Close()

	v := NewAlpacaValidator("key", "secret", srv.URL)
	ctx := context.Background()

	assert.Equal(t, nil, v.Validate(ctx, "AAPL"))
	assert.NotEqual(t, nil, v.Validate(ctx, "ZZZZ"))
}

func TestNewValidator(t *testing.T) {
	v, err := NewValidator(Options{Provider: "none"})
	assert.Equal(t, nil, err)
	assert.Equal(t, "none", v.Name())
	assert.Equal(t, nil, v.Validate(context.Background(), "ANY"))

	v, err = NewValidator(Options{})
	assert.Equal(t, nil, err)
	assert.Equal(t, "yahoo", v.Name())

	t.Setenv("TEST_FINNHUB_KEY", "")
	_, err = NewValidator(Options{Provider: "finnhub", APIKeyEnv: "TEST_FINNHUB_KEY"})
	assert.NotEqual(t, nil, err)

	t.Setenv("TEST_FINNHUB_KEY", "abc")
	v, err = NewValidator(Options{Provider: "finnhub", APIKeyEnv: "TEST_FINNHUB_KEY"})
	assert.Equal(t, nil, err)
	assert.Equal(t, "finnhub", v.Name())

	_, err = NewValidator(Options{Provider: "bloomberg"})
	assert.NotEqual(t, nil, err)
}

func TestValidatorFunc(t *testing.T) {
	v := ValidatorFunc(func(_ context.Context, s string) error {
		if s == "OK" {
			return nil
		}
		return ErrUnknownSymbol
	})
	assert.Equal(t, nil, v.Validate(context.Background(), "OK"))
	assert.Equal(t, ErrUnknownSymbol, v.Validate(context.Background(), "NO"))
}
