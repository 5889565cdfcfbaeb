package collateral

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync"
)

// PriceFeed is the oracle boundary: the latest USD price scaled by the feed's
// own decimal precision, the precision itself, and a format-version tag
// checked once at registration.
type PriceFeed interface {
	LatestPrice() (*big.Int, error)
	Decimals() (uint8, error)
	Version() (uint64, error)
}

// ManualFeed is an in-memory feed used for tests and manual overrides during
// incident response.
type ManualFeed struct {
	mu       sync.RWMutex
	price    *big.Int
	decimals uint8
}

// NewManualFeed constructs a feed reporting the given price at the given
// decimal precision.
func NewManualFeed(price *big.Int, decimals uint8) *ManualFeed {
	feed := &ManualFeed{decimals: decimals}
	if price != nil {
		feed.price = new(big.Int).Set(price)
	}
	return feed
}

// SetPrice replaces the reported price.
func (f *ManualFeed) SetPrice(price *big.Int) {
	if f == nil || price == nil {
		return
	}
	f.mu.Lock()
	f.price = new(big.Int).Set(price)
	f.mu.Unlock()
}

func (f *ManualFeed) LatestPrice() (*big.Int, error) {
	if f == nil {
		return nil, fmt.Errorf("manual feed not configured")
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.price == nil {
		return nil, fmt.Errorf("manual feed: no price set")
	}
	return new(big.Int).Set(f.price), nil
}

func (f *ManualFeed) Decimals() (uint8, error) {
	if f == nil {
		return 0, fmt.Errorf("manual feed not configured")
	}
	return f.decimals, nil
}

func (f *ManualFeed) Version() (uint64, error) {
	if f == nil {
		return 0, fmt.Errorf("manual feed not configured")
	}
	return FeedFormatVersion, nil
}

// HTTPDoer abstracts http.Client for ease of testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPFeed reads prices from a JSON endpoint reporting
// {"price":"3000.12","decimals":8,"version":4}. The decimals and version
// fields are fetched alongside every price and the decimal price string is
// scaled into the feed's own integer representation.
type HTTPFeed struct {
	client   HTTPDoer
	endpoint string
}

// NewHTTPFeed constructs an HTTP feed adapter. When the client is nil
// http.DefaultClient is used.
func NewHTTPFeed(client HTTPDoer, endpoint string) *HTTPFeed {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFeed{client: client, endpoint: strings.TrimSpace(endpoint)}
}

type httpFeedPayload struct {
	Price    string `json:"price"`
	Decimals uint8  `json:"decimals"`
	Version  uint64 `json:"version"`
}

func (f *HTTPFeed) fetch() (httpFeedPayload, error) {
	var payload httpFeedPayload
	if f == nil || f.endpoint == "" {
		return payload, fmt.Errorf("http feed not configured")
	}
	req, err := http.NewRequest(http.MethodGet, f.endpoint, nil)
	if err != nil {
		return payload, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return payload, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return payload, fmt.Errorf("http feed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return payload, fmt.Errorf("http feed: decode: %w", err)
	}
	return payload, nil
}

func (f *HTTPFeed) LatestPrice() (*big.Int, error) {
	payload, err := f.fetch()
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(payload.Price)
	if trimmed == "" {
		return nil, fmt.Errorf("http feed: empty price")
	}
	rat, ok := new(big.Rat).SetString(trimmed)
	if !ok {
		return nil, fmt.Errorf("http feed: invalid price %q", payload.Price)
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(payload.Decimals)), nil)
	scaled := new(big.Rat).Mul(rat, new(big.Rat).SetInt(scale))
	return new(big.Int).Quo(scaled.Num(), scaled.Denom()), nil
}

func (f *HTTPFeed) Decimals() (uint8, error) {
	payload, err := f.fetch()
	if err != nil {
		return 0, err
	}
	return payload.Decimals, nil
}

func (f *HTTPFeed) Version() (uint64, error) {
	payload, err := f.fetch()
	if err != nil {
		return 0, err
	}
	return payload.Version, nil
}
