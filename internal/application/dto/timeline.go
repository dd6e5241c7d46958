package dto

import (
	"time"

	"nft-activity-timeline/internal/domain/entity"
	"nft-activity-timeline/internal/domain/service"
)

// WalletResponse is a resolved wallet as returned to clients
type WalletResponse struct {
	Address     string `json:"address"`
	ENS         string `json:"ens,omitempty"`
	DisplayName string `json:"display_name"`
}

// EventResponse is one timeline entry. Prices are decimal strings since wei
// amounts overflow JSON numbers.
type EventResponse struct {
	Key                   string    `json:"key"`
	Action                string    `json:"action"`
	AssetName             string    `json:"asset_name"`
	AssetDescription      string    `json:"asset_description,omitempty"`
	AssetImgURL           string    `json:"asset_img_url,omitempty"`
	AssetURL              string    `json:"asset_url"`
	CollectionName        string    `json:"collection_name"`
	CollectionDescription string    `json:"collection_description,omitempty"`
	CollectionImgURL      string    `json:"collection_img_url,omitempty"`
	CollectionURL         string    `json:"collection_url"`
	Date                  string    `json:"date"`
	Timestamp             time.Time `json:"timestamp"`
	From                  string    `json:"from"`
	To                    string    `json:"to"`
	TransactionHash       string    `json:"transaction_hash"`
	PriceWei              *string   `json:"price_wei,omitempty"`
	PriceEth              *string   `json:"price_eth,omitempty"`
}

// GroupResponse is a run of events sharing collection and action.
// Bought and Sold runs carry the summed price of their events.
type GroupResponse struct {
	CollectionName string          `json:"collection_name"`
	Action         string          `json:"action"`
	Count          int             `json:"count"`
	TotalPriceWei  *string         `json:"total_price_wei,omitempty"`
	TotalPriceEth  *string         `json:"total_price_eth,omitempty"`
	Collapsed      bool            `json:"collapsed"`
	Events         []EventResponse `json:"events"`
}

// BucketResponse is one weekly window
type BucketResponse struct {
	Index      int             `json:"index"`
	Label      string          `json:"label"`
	Start      time.Time       `json:"start"`
	End        time.Time       `json:"end"`
	EventCount int             `json:"event_count"`
	Groups     []GroupResponse `json:"groups"`
}

// TimelineResponse is the body returned for a timeline query
type TimelineResponse struct {
	QueryID      string           `json:"query_id"`
	Wallet       WalletResponse   `json:"wallet"`
	Page         int              `json:"page"`
	HasMore      bool             `json:"has_more"`
	EventCount   int              `json:"event_count"`
	DroppedCount int              `json:"dropped_count"`
	GroupingMin  int              `json:"grouping_min"`
	GeneratedAt  time.Time        `json:"generated_at"`
	Buckets      []BucketResponse `json:"buckets"`
}

// ErrorResponse is returned for every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewWalletResponse converts a wallet
func NewWalletResponse(w *entity.Wallet) WalletResponse {
	return WalletResponse{
		Address:     w.Address,
		ENS:         w.ENS,
		DisplayName: w.DisplayName(),
	}
}

// NewTimelineResponse converts a query result. Groups longer than
// groupingMin are flagged collapsed.
func NewTimelineResponse(result *service.TimelineResult, groupingMin int) TimelineResponse {
	resp := TimelineResponse{
		QueryID:      result.QueryID,
		Wallet:       NewWalletResponse(&result.Wallet),
		Page:         result.Page,
		HasMore:      result.HasMore,
		EventCount:   result.EventCount,
		DroppedCount: result.DroppedCount,
		GroupingMin:  groupingMin,
		GeneratedAt:  result.Timeline.GeneratedAt,
		Buckets:      make([]BucketResponse, 0, len(result.Timeline.Buckets)),
	}

	for i := range result.Timeline.Buckets {
		bucket := &result.Timeline.Buckets[i]
		br := BucketResponse{
			Index:      bucket.Index,
			Label:      bucket.Label,
			Start:      bucket.Start,
			End:        bucket.End,
			EventCount: bucket.EventCount(),
			Groups:     make([]GroupResponse, 0, len(bucket.Groups)),
		}
		for j := range bucket.Groups {
			group := &bucket.Groups[j]
			gr := GroupResponse{
				CollectionName: group.CollectionName,
				Action:         string(group.Action),
				Count:          group.Len(),
				Collapsed:      group.Collapsed(groupingMin),
				Events:         make([]EventResponse, 0, group.Len()),
			}
			if total := group.TotalPrice(); total != nil {
				wei := total.String()
				eth := group.TotalPriceEth().String()
				gr.TotalPriceWei = &wei
				gr.TotalPriceEth = &eth
			}
			for k := range group.Events {
				gr.Events = append(gr.Events, NewEventResponse(&group.Events[k]))
			}
			br.Groups = append(br.Groups, gr)
		}
		resp.Buckets = append(resp.Buckets, br)
	}

	return resp
}

// NewEventResponse converts a canonical event
func NewEventResponse(e *entity.NFTEvent) EventResponse {
	resp := EventResponse{
		Key:                   e.Key,
		Action:                string(e.Action),
		AssetName:             e.AssetName,
		AssetDescription:      e.AssetDescription,
		AssetImgURL:           e.AssetImgURL,
		AssetURL:              e.AssetURL,
		CollectionName:        e.CollectionName,
		CollectionDescription: e.CollectionDescription,
		CollectionImgURL:      e.CollectionImgURL,
		CollectionURL:         e.CollectionURL,
		Date:                  e.Date,
		Timestamp:             e.Timestamp,
		From:                  e.From,
		To:                    e.To,
		TransactionHash:       e.TransactionHash,
	}
	if e.Price != nil {
		wei := e.Price.String()
		eth := e.PriceEth().String()
		resp.PriceWei = &wei
		resp.PriceEth = &eth
	}
	return resp
}
