package redisx

import "time"

const (
	// Cache single-order reads: order:{order_id} -> order JSON
	KeyOrder = "order:%s"

	// Report caches, refreshed by the reporting worker:
	// report:top_clients / report:top_sellers -> JSON array
	KeyTopClients = "report:top_clients"
	KeyTopSellers = "report:top_sellers"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLOrderCache  = 5 * time.Minute
	TTLReportCache = 30 * time.Minute
	TTLDedup       = 48 * time.Hour
)
