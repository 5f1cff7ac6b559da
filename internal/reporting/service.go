package reporting

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"

	kafkax "github.com/ariefcatur/go-sales-crm.git/internal/kafka"
	"github.com/ariefcatur/go-sales-crm.git/internal/orders"
	"github.com/ariefcatur/go-sales-crm.git/internal/redisx"
)

const (
	topClientsLimit = 5
	topSellersLimit = 3
)

// Service keeps the top-clients/top-sellers caches warm. It consumes
// order lifecycle events and recomputes both rankings whenever an order
// reaches DONE or a DONE order is deleted; everything else leaves the
// rankings untouched.
type Service struct {
	Reports     *orders.ReportRepo
	Redis       *redis.Client
	ServiceName string
}

// HandleOrderEvent is installed as the consumer handler for the amended
// and cancelled topics.
func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	relevant, err := s.affectsRankings(env)
	if err != nil {
		return err
	}
	if !relevant {
		return nil
	}

	// dedup by event_id so a redelivered event doesn't refresh twice; a
	// failed check counts as "not seen" (re-refreshing is safe) but the
	// outage must not be invisible
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	exists, err := redisx.Exists(ctx, s.Redis, dkey)
	if err != nil {
		log.Printf("dedup check %s: %v", dkey, err)
	}
	if exists {
		return nil
	}
	if err := s.Refresh(ctx); err != nil {
		return err
	}
	if err := s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err(); err != nil {
		log.Printf("dedup mark %s: %v", dkey, err)
	}
	return nil
}

func (s *Service) affectsRankings(env orders.Envelope) (bool, error) {
	switch env.EventType {
	case orders.EventOrderAmended:
		p, err := kafkax.UnwrapPayload[orders.OrderAmendedPayload](env.Payload)
		if err != nil {
			return false, err
		}
		return p.Status == orders.StatusDone, nil
	case orders.EventOrderCancelled:
		p, err := kafkax.UnwrapPayload[orders.OrderCancelledPayload](env.Payload)
		if err != nil {
			return false, err
		}
		return p.Status == orders.StatusDone, nil
	default:
		return false, nil
	}
}

// Refresh recomputes both rankings and writes them to Redis. The two
// queries are independent, so they run concurrently.
func (s *Service) Refresh(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		tc, err := s.Reports.TopClients(gctx, topClientsLimit)
		if err != nil {
			return fmt.Errorf("top clients: %w", err)
		}
		return s.cache(gctx, redisx.KeyTopClients, tc)
	})
	g.Go(func() error {
		ts, err := s.Reports.TopSellers(gctx, topSellersLimit)
		if err != nil {
			return fmt.Errorf("top sellers: %w", err)
		}
		return s.cache(gctx, redisx.KeyTopSellers, ts)
	})
	return g.Wait()
}

func (s *Service) cache(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Redis.Set(ctx, key, b, redisx.TTLReportCache).Err()
}

// RefreshLoop re-warms the caches on a fixed interval as a backstop for
// missed events; the worker runs it next to the consumers.
func (s *Service) RefreshLoop(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.Refresh(ctx); err != nil {
				log.Printf("report refresh: %v", err)
			}
		}
	}
}
