package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-sales-crm.git/internal/config"
	kafkax "github.com/ariefcatur/go-sales-crm.git/internal/kafka"
	"github.com/ariefcatur/go-sales-crm.git/internal/orders"
	"github.com/ariefcatur/go-sales-crm.git/internal/postgres"
	"github.com/ariefcatur/go-sales-crm.git/internal/redisx"
	"github.com/ariefcatur/go-sales-crm.git/internal/reporting"
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &reporting.Service{
		Reports:     &orders.ReportRepo{DB: db},
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-reporting",
	}

	// warm the caches on boot so the API never starts cold
	if err := svc.Refresh(ctx); err != nil {
		log.Printf("initial refresh: %v", err)
	}

	group := getenv("REPORTING_GROUP", "reporting-svc")
	workers := mustAtoi(os.Getenv("REPORTING_WORKERS"), "4")

	// rankings change when orders reach DONE (amend) or a DONE order is
	// deleted (cancel); one consumer per topic, same handler
	for _, topic := range []string{orders.TopicOrderAmended, orders.TopicOrderCancelled} {
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, topic, workers)
		go func(topic string) {
			log.Printf("reporting consumer started: group=%s topic=%s workers=%d", group, topic, workers)
			if err := cons.Start(ctx, svc.HandleOrderEvent); err != nil {
				log.Printf("consumer %s exit: %v", topic, err)
				cancel()
			}
		}(topic)
	}

	// interval backstop for events the consumers miss
	go svc.RefreshLoop(ctx, 10*time.Minute)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Println("shutting down reporting worker...")
	case <-ctx.Done():
	}
	cancel()
	time.Sleep(500 * time.Millisecond)
}
