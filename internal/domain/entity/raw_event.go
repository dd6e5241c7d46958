package entity

import (
	"time"
)

// EventType is the marketplace's name for a raw event record
type EventType string

const (
	// EventTypeSale is a completed sale ("successful" in the marketplace API)
	EventTypeSale EventType = "successful"
	// EventTypeTransfer is a token transfer between two accounts
	EventTypeTransfer EventType = "transfer"
)

// Account is a party on a marketplace record
type Account struct {
	Address  string `json:"address"`
	Username string `json:"username,omitempty"`
}

// AssetCollection holds the collection metadata embedded in an asset
type AssetCollection struct {
	Name             string `json:"name"`
	Slug             string `json:"slug"`
	Description      string `json:"description"`
	ImageURL         string `json:"image_url"`
	FeaturedImageURL string `json:"featured_image_url"`
	BannerImageURL   string `json:"banner_image_url"`
	ExternalURL      string `json:"external_url"`
}

// Asset is the NFT a raw event refers to
type Asset struct {
	ID              string          `json:"id"`
	TokenID         string          `json:"token_id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	ImageURL        string          `json:"image_url"`
	ContractAddress string          `json:"contract_address"`
	Collection      AssetCollection `json:"collection"`
}

// Transaction is the on-chain transaction enclosing a raw event.
// From is the initiating account, To the receiving account (a contract for
// mints, the marketplace order matcher for sales). Either may be nil.
type Transaction struct {
	Hash      string    `json:"hash"`
	Timestamp time.Time `json:"timestamp"`
	From      *Account  `json:"from,omitempty"`
	To        *Account  `json:"to,omitempty"`
}

// Sale is the payload of a sale record
type Sale struct {
	Seller     Account `json:"seller"`
	Winner     Account `json:"winner"`
	TotalPrice string  `json:"total_price"`
}

// Transfer is the payload of a transfer record
type Transfer struct {
	From Account `json:"from"`
	To   Account `json:"to"`
}

// RawEvent is a marketplace record decoded at the API boundary.
// Exactly one of Sale or Transfer is set for the two supported kinds;
// records of any other kind carry neither. Bundle sales have no Asset and
// list their assets in Bundle instead.
type RawEvent struct {
	Kind        EventType    `json:"kind"`
	Asset       *Asset       `json:"asset,omitempty"`
	Bundle      []Asset      `json:"bundle,omitempty"`
	Transaction *Transaction `json:"transaction,omitempty"`
	Sale        *Sale        `json:"sale,omitempty"`
	Transfer    *Transfer    `json:"transfer,omitempty"`
}

// IsSale reports whether the record is a sale with its payload present
func (e *RawEvent) IsSale() bool {
	return e.Kind == EventTypeSale && e.Sale != nil
}

// PrimaryAsset returns the asset, falling back to the first bundled asset
func (e *RawEvent) PrimaryAsset() *Asset {
	if e.Asset != nil {
		return e.Asset
	}
	if len(e.Bundle) > 0 {
		return &e.Bundle[0]
	}
	return nil
}

// IsTransfer reports whether the record is a transfer with its payload present
func (e *RawEvent) IsTransfer() bool {
	return e.Kind == EventTypeTransfer && e.Transfer != nil
}
