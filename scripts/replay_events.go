package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"nft-activity-timeline/internal/domain/service"
	"nft-activity-timeline/internal/infrastructure/config"
	"nft-activity-timeline/internal/infrastructure/logger"
	"nft-activity-timeline/internal/infrastructure/opensea"

	"go.uber.org/zap"
)

// Replays a saved /api/v1/events response through the timeline pipeline and
// prints the resulting buckets and runs.
func main() {
	path := flag.String("file", "internal/infrastructure/opensea/testdata/events.json", "saved events response")
	observer := flag.String("wallet", "", "observer wallet address")
	nowFlag := flag.String("now", "", "reference time (RFC3339), defaults to the current time")
	groupingMin := flag.Int("grouping-min", 3, "runs longer than this are collapsed")
	flag.Parse()

	logger, err := logger.NewLogger("debug", "development")
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}

	if *observer == "" {
		logger.Fatal("--wallet is required")
	}

	now := time.Now()
	if *nowFlag != "" {
		now, err = time.Parse(time.RFC3339, *nowFlag)
		if err != nil {
			logger.Fatal("Invalid --now", zap.Error(err))
		}
	}

	data, err := os.ReadFile(*path)
	if err != nil {
		logger.Fatal("Failed to read events file", zap.Error(err))
	}

	var resp opensea.EventsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		logger.Fatal("Failed to parse events file", zap.Error(err))
	}

	raw, decodeErrs := opensea.DecodeEvents(resp.AssetEvents)
	for _, decodeErr := range decodeErrs {
		logger.Warn("Skipping undecodable entry", zap.Error(decodeErr))
	}

	cfg := config.OpenSeaConfig{}
	normalizer := service.NewEventNormalizer(cfg.WebBaseURL, cfg.OrderMatcherUsername)
	result := normalizer.Normalize(raw, *observer)
	for _, dropped := range result.Dropped {
		logger.Info("Dropped record",
			zap.Int("index", dropped.Index),
			zap.String("reason", string(dropped.Reason)),
			zap.Error(dropped.Err))
	}

	timeline := service.BucketAndGroup(result.Events, now)

	fmt.Printf("Wallet %s: %d entries, %d events, %d dropped\n",
		*observer, len(resp.AssetEvents), len(result.Events), len(result.Dropped))
	fmt.Println(strings.Repeat("=", 60))

	for _, bucket := range timeline.Buckets {
		fmt.Printf("\n%s\n", bucket.Label)
		for _, group := range bucket.Groups {
			marker := ""
			if group.Collapsed(*groupingMin) {
				marker = " [collapsed]"
			}
			fmt.Printf("  %s %d item(s) from %s%s\n", group.Action, group.Len(), group.CollectionName, marker)
			for _, event := range group.Events {
				price := ""
				if event.Price != nil {
					price = fmt.Sprintf(" for %s ETH", event.PriceEth().String())
				}
				fmt.Printf("    - %s (%s)%s\n", event.AssetName, event.Date, price)
			}
		}
	}
}
