package entity

import (
	"math/big"
	"time"
)

// Action is the semantic meaning of an event from the observer's point of view
type Action string

const (
	ActionMinted   Action = "Minted"
	ActionBought   Action = "Bought"
	ActionSold     Action = "Sold"
	ActionSent     Action = "Sent"
	ActionReceived Action = "Received"
)

// IsTrade reports whether the action carries a price
func (a Action) IsTrade() bool {
	return a == ActionBought || a == ActionSold
}

// weiPerEth is 10^18
var weiPerEth = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// NFTEvent is one canonical timeline entry.
// Several events may share a transaction hash (multi-mint transactions), so
// Key combines the hash with the asset id.
type NFTEvent struct {
	Key                   string    `json:"key"`
	Action                Action    `json:"action"`
	AssetName             string    `json:"asset_name"`
	AssetDescription      string    `json:"asset_description"`
	AssetImgURL           string    `json:"asset_img_url"`
	AssetURL              string    `json:"asset_url"`
	CollectionName        string    `json:"collection_name"`
	CollectionDescription string    `json:"collection_description"`
	CollectionImgURL      string    `json:"collection_img_url"`
	CollectionURL         string    `json:"collection_url"`
	Date                  string    `json:"date"`
	Timestamp             time.Time `json:"timestamp"`
	From                  string    `json:"from"`
	To                    string    `json:"to"`
	TransactionHash       string    `json:"transaction_hash"`
	Price                 *big.Int  `json:"price,omitempty"` // wei, set only for Bought/Sold
}

// PriceEth converts the price to whole ETH by integer division.
// Returns nil when the event has no price.
func (e *NFTEvent) PriceEth() *big.Int {
	if e.Price == nil {
		return nil
	}
	return new(big.Int).Quo(e.Price, weiPerEth)
}
