package collateral

import (
	"fmt"

	"synthd/crypto"
)

// Registry is the immutable asset→feed map built once at engine
// construction. An asset is approved iff it has a registered feed; there is
// no runtime add or remove path.
type Registry struct {
	assets []crypto.Address
	feeds  map[string]PriceFeed
}

// NewRegistry validates and stores the parallel asset and feed lists. Each
// feed must answer the format-version probe with FeedFormatVersion; anything
// else fails construction with ErrNotAPriceFeed before any state exists.
func NewRegistry(assets []crypto.Address, feeds []PriceFeed) (*Registry, error) {
	if len(assets) != len(feeds) {
		return nil, ErrLengthMismatch
	}
	registry := &Registry{
		assets: make([]crypto.Address, 0, len(assets)),
		feeds:  make(map[string]PriceFeed, len(assets)),
	}
	for i, asset := range assets {
		key := asset.String()
		if _, exists := registry.feeds[key]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAsset, key)
		}
		feed := feeds[i]
		if feed == nil {
			return nil, fmt.Errorf("%w: nil feed for %s", ErrNotAPriceFeed, key)
		}
		version, err := feed.Version()
		if err != nil {
			return nil, fmt.Errorf("%w: version query for %s: %v", ErrNotAPriceFeed, key, err)
		}
		if version != FeedFormatVersion {
			return nil, fmt.Errorf("%w: %s reports format version %d", ErrNotAPriceFeed, key, version)
		}
		registry.assets = append(registry.assets, asset)
		registry.feeds[key] = feed
	}
	return registry, nil
}

// PriceFeedOf returns the feed registered for the asset, if any.
func (r *Registry) PriceFeedOf(asset crypto.Address) (PriceFeed, bool) {
	if r == nil {
		return nil, false
	}
	feed, ok := r.feeds[asset.String()]
	return feed, ok
}

// IsApproved reports whether the asset has a registered feed.
func (r *Registry) IsApproved(asset crypto.Address) bool {
	_, ok := r.PriceFeedOf(asset)
	return ok
}

// ApprovedAssets returns the approved assets in registration order.
func (r *Registry) ApprovedAssets() []crypto.Address {
	if r == nil {
		return nil
	}
	return append([]crypto.Address{}, r.assets...)
}
