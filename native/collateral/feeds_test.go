package collateral

import (
	"bytes"
	"io"
	"math/big"
	"net/http"
	"testing"
)

func TestManualFeed(t *testing.T) {
	feed := NewManualFeed(big.NewInt(3000_0000_0000), 8)

	price, err := feed.LatestPrice()
	if err != nil {
		t.Fatalf("latest price: %v", err)
	}
	if price.Cmp(big.NewInt(3000_0000_0000)) != 0 {
		t.Fatalf("unexpected price: %s", price)
	}
	if decimals, err := feed.Decimals(); err != nil || decimals != 8 {
		t.Fatalf("unexpected decimals: %d err %v", decimals, err)
	}
	if version, err := feed.Version(); err != nil || version != FeedFormatVersion {
		t.Fatalf("unexpected version: %d err %v", version, err)
	}

	feed.SetPrice(big.NewInt(1500_0000_0000))
	price, err = feed.LatestPrice()
	if err != nil {
		t.Fatalf("latest price: %v", err)
	}
	if price.Cmp(big.NewInt(1500_0000_0000)) != 0 {
		t.Fatalf("expected updated price, got %s", price)
	}

	empty := NewManualFeed(nil, 8)
	if _, err := empty.LatestPrice(); err == nil {
		t.Fatalf("expected error for unset price")
	}
}

type stubDoer struct {
	status int
	body   string
	err    error
}

func (d stubDoer) Do(*http.Request) (*http.Response, error) {
	if d.err != nil {
		return nil, d.err
	}
	return &http.Response{
		StatusCode: d.status,
		Body:       io.NopCloser(bytes.NewReader([]byte(d.body))),
	}, nil
}

func TestHTTPFeedParsesPayload(t *testing.T) {
	feed := NewHTTPFeed(stubDoer{
		status: http.StatusOK,
		body:   `{"price":"3000.12345678","decimals":8,"version":4}`,
	}, "http://oracle.internal/price")

	price, err := feed.LatestPrice()
	if err != nil {
		t.Fatalf("latest price: %v", err)
	}
	if price.Cmp(big.NewInt(300012345678)) != 0 {
		t.Fatalf("unexpected price: %s", price)
	}
	if decimals, err := feed.Decimals(); err != nil || decimals != 8 {
		t.Fatalf("unexpected decimals: %d err %v", decimals, err)
	}
	if version, err := feed.Version(); err != nil || version != 4 {
		t.Fatalf("unexpected version: %d err %v", version, err)
	}
}

func TestHTTPFeedRejectsBadResponses(t *testing.T) {
	cases := map[string]stubDoer{
		"server error":  {status: http.StatusInternalServerError, body: "boom"},
		"invalid json":  {status: http.StatusOK, body: "{"},
		"empty price":   {status: http.StatusOK, body: `{"price":"","decimals":8,"version":4}`},
		"invalid price": {status: http.StatusOK, body: `{"price":"not-a-number","decimals":8,"version":4}`},
	}
	for name, doer := range cases {
		feed := NewHTTPFeed(doer, "http://oracle.internal/price")
		if _, err := feed.LatestPrice(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	unconfigured := NewHTTPFeed(nil, "  ")
	if _, err := unconfigured.LatestPrice(); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}
}
