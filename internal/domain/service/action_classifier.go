package service

import (
	"fmt"
	"strings"

	"nft-activity-timeline/internal/domain/entity"
)

// ClassifyAction determines what a raw record means for the observer wallet.
//
// Sales are Bought when the observer won the auction and Sold otherwise.
// Transfers are Minted when the observer initiated a transaction addressed to
// a third party (the token contract) and received the token from neither that
// party nor itself; otherwise Sent or Received depending on the sender.
// The mint heuristic only holds for records from the primary marketplace;
// NFTs bought on other marketplaces can show up as Received.
func ClassifyAction(raw *entity.RawEvent, observer string) (entity.Action, error) {
	switch {
	case raw.IsSale():
		if sameAddress(raw.Sale.Winner.Address, observer) {
			return entity.ActionBought, nil
		}
		return entity.ActionSold, nil

	case raw.IsTransfer():
		if isSelfMint(raw, observer) {
			return entity.ActionMinted, nil
		}
		if sameAddress(raw.Transfer.From.Address, observer) {
			return entity.ActionSent, nil
		}
		return entity.ActionReceived, nil

	default:
		return "", fmt.Errorf("%w: %q", entity.ErrUnsupportedEventType, raw.Kind)
	}
}

// isSelfMint checks the self-mint predicate on a transfer record
func isSelfMint(raw *entity.RawEvent, observer string) bool {
	tx := raw.Transaction
	if tx == nil || tx.To == nil || tx.From == nil {
		return false
	}

	starter := tx.From.Address
	participant := tx.To.Address
	receiver := raw.Transfer.To.Address
	sender := raw.Transfer.From.Address

	return sameAddress(starter, receiver) &&
		sameAddress(starter, observer) &&
		!sameAddress(participant, receiver) &&
		!sameAddress(participant, sender)
}

// sameAddress compares two addresses ignoring case
func sameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}

// normalizeAddress returns the canonical upper-case form used in NFTEvent
func normalizeAddress(address string) string {
	return strings.ToUpper(address)
}
