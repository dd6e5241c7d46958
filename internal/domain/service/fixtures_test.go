package service

import (
	"time"

	"nft-activity-timeline/internal/domain/entity"
)

const (
	observer     = "0xAbCdEf0000000000000000000000000000000001"
	counterparty = "0x9999990000000000000000000000000000000002"
	nftContract  = "0xc0c0c00000000000000000000000000000000003"
	zeroAddress  = "0x0000000000000000000000000000000000000000"
)

var testNow = time.Date(2021, time.October, 20, 12, 0, 0, 0, time.UTC)

func testAsset(id, collection string) *entity.Asset {
	return &entity.Asset{
		ID:              id,
		TokenID:         "token-" + id,
		Name:            collection + " #" + id,
		ImageURL:        "https://img.example/" + id + ".png",
		ContractAddress: nftContract,
		Collection: entity.AssetCollection{
			Name:     collection,
			Slug:     "slug-" + collection,
			ImageURL: "https://img.example/" + collection + ".png",
		},
	}
}

func saleRecord(hash, assetID, collection, seller, winner string, ts time.Time) entity.RawEvent {
	return entity.RawEvent{
		Kind:  entity.EventTypeSale,
		Asset: testAsset(assetID, collection),
		Transaction: &entity.Transaction{
			Hash:      hash,
			Timestamp: ts,
			From:      &entity.Account{Address: winner},
			To:        &entity.Account{Address: "0x7be8076f4ea4a4ad08075c2508e481d6c946d12b", Username: DefaultOrderMatcherUsername},
		},
		Sale: &entity.Sale{
			Seller:     entity.Account{Address: seller},
			Winner:     entity.Account{Address: winner},
			TotalPrice: "1500000000000000000",
		},
	}
}

func transferRecord(hash, assetID, collection, from, to string, ts time.Time) entity.RawEvent {
	return entity.RawEvent{
		Kind:  entity.EventTypeTransfer,
		Asset: testAsset(assetID, collection),
		Transaction: &entity.Transaction{
			Hash:      hash,
			Timestamp: ts,
			From:      &entity.Account{Address: from},
			To:        &entity.Account{Address: to},
		},
		Transfer: &entity.Transfer{
			From: entity.Account{Address: from},
			To:   entity.Account{Address: to},
		},
	}
}

// mintRecord is a transfer from the zero address to the observer, inside a
// transaction the observer sent to the token contract
func mintRecord(hash, assetID, collection string, ts time.Time) entity.RawEvent {
	return entity.RawEvent{
		Kind:  entity.EventTypeTransfer,
		Asset: testAsset(assetID, collection),
		Transaction: &entity.Transaction{
			Hash:      hash,
			Timestamp: ts,
			From:      &entity.Account{Address: observer},
			To:        &entity.Account{Address: nftContract},
		},
		Transfer: &entity.Transfer{
			From: entity.Account{Address: zeroAddress},
			To:   entity.Account{Address: observer},
		},
	}
}

func daysAgo(days float64) time.Time {
	return testNow.Add(-time.Duration(days * float64(24*time.Hour)))
}
