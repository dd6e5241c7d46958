package service

import (
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"nft-activity-timeline/internal/domain/entity"
)

// DefaultOrderMatcherUsername is the marketplace account that settles sales.
// A sale emits both a sale record and a transfer record addressed to it.
const DefaultOrderMatcherUsername = "OpenSea-Orders"

// DefaultMarketplaceURL is used to build asset and collection links
const DefaultMarketplaceURL = "https://opensea.io"

// DropReason explains why a raw record did not become an NFTEvent
type DropReason string

const (
	DropMissingReference DropReason = "missing_reference"
	DropSaleTransfer     DropReason = "sale_transfer"
	DropUnsupportedType  DropReason = "unsupported_type"
	DropMalformedPrice   DropReason = "malformed_price"
)

// DroppedRecord is a diagnostic for one skipped raw record
type DroppedRecord struct {
	Index  int
	Reason DropReason
	Err    error
}

// NormalizeResult holds the kept events, in input order, and the diagnostics
// for every dropped record
type NormalizeResult struct {
	Events  []entity.NFTEvent
	Dropped []DroppedRecord
}

// EventNormalizer turns raw marketplace records into canonical events
type EventNormalizer struct {
	marketplaceURL       string
	orderMatcherUsername string
}

// NewEventNormalizer creates a normalizer. Empty arguments fall back to the
// primary marketplace defaults.
func NewEventNormalizer(marketplaceURL, orderMatcherUsername string) *EventNormalizer {
	if marketplaceURL == "" {
		marketplaceURL = DefaultMarketplaceURL
	}
	if orderMatcherUsername == "" {
		orderMatcherUsername = DefaultOrderMatcherUsername
	}
	return &EventNormalizer{
		marketplaceURL:       strings.TrimRight(marketplaceURL, "/"),
		orderMatcherUsername: orderMatcherUsername,
	}
}

// Normalize filters, classifies and maps raw records for the observer.
// It never fails as a whole: records that cannot be rendered are reported
// in Dropped and the rest are kept in their original order.
func (n *EventNormalizer) Normalize(raw []entity.RawEvent, observer string) NormalizeResult {
	result := NormalizeResult{
		Events: make([]entity.NFTEvent, 0, len(raw)),
	}

	for i := range raw {
		record := &raw[i]

		if reason, drop := n.filter(record); drop {
			result.Dropped = append(result.Dropped, DroppedRecord{Index: i, Reason: reason})
			continue
		}

		event, err := n.toEvent(record, observer)
		if err != nil {
			reason := DropMalformedPrice
			if errors.Is(err, entity.ErrUnsupportedEventType) {
				reason = DropUnsupportedType
			}
			result.Dropped = append(result.Dropped, DroppedRecord{Index: i, Reason: reason, Err: err})
			continue
		}

		result.Events = append(result.Events, event)
	}

	return result
}

// filter decides whether a record is dropped before classification
func (n *EventNormalizer) filter(record *entity.RawEvent) (DropReason, bool) {
	if record.Transaction == nil || record.Asset == nil {
		return DropMissingReference, true
	}

	switch {
	case record.IsSale():
		return "", false
	case record.IsTransfer():
		if n.isSaleTransfer(record) {
			return DropSaleTransfer, true
		}
		return "", false
	default:
		return DropUnsupportedType, true
	}
}

// isSaleTransfer detects the transfer record that accompanies a sale
func (n *EventNormalizer) isSaleTransfer(record *entity.RawEvent) bool {
	to := record.Transaction.To
	return to != nil && to.Username == n.orderMatcherUsername
}

func (n *EventNormalizer) toEvent(record *entity.RawEvent, observer string) (entity.NFTEvent, error) {
	action, err := ClassifyAction(record, observer)
	if err != nil {
		return entity.NFTEvent{}, err
	}

	asset := record.Asset
	tx := record.Transaction
	collection := asset.Collection

	event := entity.NFTEvent{
		Key:                   tx.Hash + asset.ID,
		Action:                action,
		AssetName:             firstNonEmpty(asset.Name, asset.TokenID),
		AssetDescription:      asset.Description,
		AssetImgURL:           asset.ImageURL,
		AssetURL:              fmt.Sprintf("%s/assets/%s/%s", n.marketplaceURL, asset.ContractAddress, asset.TokenID),
		CollectionName:        collection.Name,
		CollectionDescription: collection.Description,
		CollectionImgURL:      firstNonEmpty(collection.FeaturedImageURL, collection.ImageURL, collection.BannerImageURL),
		CollectionURL:         n.collectionURL(collection),
		Date:                  tx.Timestamp.UTC().Format(http.TimeFormat),
		Timestamp:             tx.Timestamp.UTC(),
		TransactionHash:       tx.Hash,
	}

	if action.IsTrade() {
		price, ok := new(big.Int).SetString(strings.TrimSpace(record.Sale.TotalPrice), 10)
		if !ok {
			return entity.NFTEvent{}, &entity.MalformedPriceError{
				Key: event.Key,
				Raw: record.Sale.TotalPrice,
				Err: errors.New("not a base-10 integer"),
			}
		}
		event.Price = price
		event.From = normalizeAddress(record.Sale.Seller.Address)
		event.To = normalizeAddress(record.Sale.Winner.Address)
	} else {
		event.From = normalizeAddress(record.Transfer.From.Address)
		event.To = normalizeAddress(record.Transfer.To.Address)
	}

	return event, nil
}

func (n *EventNormalizer) collectionURL(c entity.AssetCollection) string {
	if c.ExternalURL != "" {
		return c.ExternalURL
	}
	return fmt.Sprintf("%s/collection/%s", n.marketplaceURL, c.Slug)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
