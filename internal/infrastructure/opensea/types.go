package opensea

import "encoding/json"

// EventsResponse is the body of GET /api/v1/events
type EventsResponse struct {
	AssetEvents []json.RawMessage `json:"asset_events"`
}

// APIUser is the optional profile attached to an account
type APIUser struct {
	Username *string `json:"username"`
}

// APIAccount represents an account reference in an event
type APIAccount struct {
	Address string   `json:"address"`
	User    *APIUser `json:"user"`
}

// APIContract represents an asset contract
type APIContract struct {
	Address string `json:"address"`
}

// APICollectionStats carries collection market statistics
type APICollectionStats struct {
	FloorPrice *float64 `json:"floor_price"`
}

// APICollection represents a collection as embedded in an asset
type APICollection struct {
	Name             string              `json:"name"`
	Slug             string              `json:"slug"`
	Description      *string             `json:"description"`
	ImageURL         *string             `json:"image_url"`
	FeaturedImageURL *string             `json:"featured_image_url"`
	BannerImageURL   *string             `json:"banner_image_url"`
	ExternalURL      *string             `json:"external_url"`
	Stats            *APICollectionStats `json:"stats"`
}

// APIAsset represents a single NFT
type APIAsset struct {
	ID            json.Number   `json:"id"`
	TokenID       string        `json:"token_id"`
	Name          *string       `json:"name"`
	Description   *string       `json:"description"`
	ImageURL      *string       `json:"image_url"`
	AssetContract APIContract   `json:"asset_contract"`
	Collection    APICollection `json:"collection"`
}

// APIAssetBundle groups assets sold together
type APIAssetBundle struct {
	Assets []APIAsset `json:"assets"`
}

// APITransaction is the on-chain transaction an event belongs to
type APITransaction struct {
	TransactionHash string      `json:"transaction_hash"`
	Timestamp       string      `json:"timestamp"`
	FromAccount     *APIAccount `json:"from_account"`
	ToAccount       *APIAccount `json:"to_account"`
}

// APIEvent is one entry of asset_events. Sale fields are set for
// "successful" events and transfer fields for "transfer" events.
type APIEvent struct {
	EventType   string          `json:"event_type"`
	Asset       *APIAsset       `json:"asset"`
	AssetBundle *APIAssetBundle `json:"asset_bundle"`
	Transaction *APITransaction `json:"transaction"`

	Seller        *APIAccount `json:"seller"`
	WinnerAccount *APIAccount `json:"winner_account"`
	TotalPrice    *string     `json:"total_price"`

	FromAccount *APIAccount `json:"from_account"`
	ToAccount   *APIAccount `json:"to_account"`
}

// APIHeldCollection is one entry of GET /api/v1/collections?asset_owner=
type APIHeldCollection struct {
	Name                  string              `json:"name"`
	Slug                  string              `json:"slug"`
	ImageURL              *string             `json:"image_url"`
	PrimaryAssetContracts []APIContract       `json:"primary_asset_contracts"`
	OwnedAssetCount       json.Number         `json:"owned_asset_count"`
	Stats                 *APICollectionStats `json:"stats"`
}
