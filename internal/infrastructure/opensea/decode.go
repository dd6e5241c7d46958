package opensea

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nft-activity-timeline/internal/domain/entity"
)

// timestamps come without a zone and are UTC
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
}

// DecodeError reports an asset_events entry that could not be turned into a RawEvent
type DecodeError struct {
	Index int
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("asset_events[%d]: %v", e.Index, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// DecodeEvents decodes every entry independently. Entries that fail are
// reported and left out; the rest keep their relative order.
func DecodeEvents(entries []json.RawMessage) ([]entity.RawEvent, []*DecodeError) {
	events := make([]entity.RawEvent, 0, len(entries))
	var failed []*DecodeError

	for i, entry := range entries {
		var dto APIEvent
		if err := json.Unmarshal(entry, &dto); err != nil {
			failed = append(failed, &DecodeError{Index: i, Err: err})
			continue
		}

		event, err := toRawEvent(&dto)
		if err != nil {
			failed = append(failed, &DecodeError{Index: i, Err: err})
			continue
		}
		events = append(events, event)
	}

	return events, failed
}

// toRawEvent validates the variant payload for the event type. Missing
// asset or transaction references are kept; the normalizer drops them.
func toRawEvent(dto *APIEvent) (entity.RawEvent, error) {
	event := entity.RawEvent{Kind: entity.EventType(dto.EventType)}

	if dto.EventType == "" {
		return event, errors.New("missing event_type")
	}

	if dto.Asset != nil {
		asset := toAsset(dto.Asset)
		event.Asset = &asset
	}
	if dto.AssetBundle != nil {
		for i := range dto.AssetBundle.Assets {
			event.Bundle = append(event.Bundle, toAsset(&dto.AssetBundle.Assets[i]))
		}
	}

	if dto.Transaction != nil {
		tx, err := toTransaction(dto.Transaction)
		if err != nil {
			return event, err
		}
		event.Transaction = tx
	}

	switch event.Kind {
	case entity.EventTypeSale:
		if dto.Seller == nil || dto.WinnerAccount == nil || dto.TotalPrice == nil {
			return event, errors.New("sale event without seller, winner_account or total_price")
		}
		event.Sale = &entity.Sale{
			Seller:     toAccount(dto.Seller),
			Winner:     toAccount(dto.WinnerAccount),
			TotalPrice: *dto.TotalPrice,
		}
	case entity.EventTypeTransfer:
		if dto.FromAccount == nil || dto.ToAccount == nil {
			return event, errors.New("transfer event without from_account or to_account")
		}
		event.Transfer = &entity.Transfer{
			From: toAccount(dto.FromAccount),
			To:   toAccount(dto.ToAccount),
		}
	}

	return event, nil
}

func toTransaction(dto *APITransaction) (*entity.Transaction, error) {
	ts, err := parseTimestamp(dto.Timestamp)
	if err != nil {
		return nil, err
	}

	tx := &entity.Transaction{
		Hash:      dto.TransactionHash,
		Timestamp: ts,
	}
	if dto.FromAccount != nil {
		from := toAccount(dto.FromAccount)
		tx.From = &from
	}
	if dto.ToAccount != nil {
		to := toAccount(dto.ToAccount)
		tx.To = &to
	}
	return tx, nil
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable transaction timestamp %q", value)
}

func toAccount(dto *APIAccount) entity.Account {
	account := entity.Account{Address: dto.Address}
	if dto.User != nil {
		account.Username = deref(dto.User.Username)
	}
	return account
}

func toAsset(dto *APIAsset) entity.Asset {
	return entity.Asset{
		ID:              dto.ID.String(),
		TokenID:         dto.TokenID,
		Name:            deref(dto.Name),
		Description:     deref(dto.Description),
		ImageURL:        deref(dto.ImageURL),
		ContractAddress: dto.AssetContract.Address,
		Collection: entity.AssetCollection{
			Name:             dto.Collection.Name,
			Slug:             dto.Collection.Slug,
			Description:      deref(dto.Collection.Description),
			ImageURL:         deref(dto.Collection.ImageURL),
			FeaturedImageURL: deref(dto.Collection.FeaturedImageURL),
			BannerImageURL:   deref(dto.Collection.BannerImageURL),
			ExternalURL:      deref(dto.Collection.ExternalURL),
		},
	}
}

func toHeldCollection(dto *APIHeldCollection) entity.CollectionInfo {
	info := entity.CollectionInfo{
		Name:    dto.Name,
		Slug:    dto.Slug,
		ImgURL:  deref(dto.ImageURL),
		Holding: dto.OwnedAssetCount.String(),
	}
	if len(dto.PrimaryAssetContracts) > 0 {
		info.ContractAddress = dto.PrimaryAssetContracts[0].Address
	}
	if info.Holding == "" {
		info.Holding = "0"
	}
	if dto.Stats != nil {
		info.Floor = dto.Stats.FloorPrice
	}
	return info
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
