package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-sales-crm.git/internal/auth"
	"github.com/ariefcatur/go-sales-crm.git/internal/config"
	"github.com/ariefcatur/go-sales-crm.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-sales-crm.git/internal/kafka"
	"github.com/ariefcatur/go-sales-crm.git/internal/orders"
	"github.com/ariefcatur/go-sales-crm.git/internal/postgres"
	"github.com/ariefcatur/go-sales-crm.git/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per lifecycle topic
	pPlaced := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024)
	pPlaced.Start(ctx)
	pAmended := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderAmended, 1024)
	pAmended.Start(ctx)
	pCancelled := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCancelled, 1024)
	pCancelled.Start(ctx)

	// Repos
	products := &orders.ProductRepo{DB: db}
	clients := &orders.ClientRepo{DB: db}
	users := &orders.UserRepo{DB: db}
	orderRepo := &orders.OrderRepo{DB: db}
	reports := &orders.ReportRepo{DB: db}

	manager := &orders.Manager{
		Clients: clients,
		Orders:  orderRepo,
		Engine:  &orders.ReservationEngine{Inv: products},
	}

	tokens := &auth.TokenManager{
		Secret: []byte(cfg.JWTSecret),
		TTL:    cfg.TokenTTL,
		Issuer: cfg.ServiceName,
	}

	// Router: open routes first, then the token-gated group
	router := httpx.NewRouter()
	uh := &httpx.UsersHandler{Users: users, Tokens: tokens}
	uh.Register(router)

	router.Group(func(r chi.Router) {
		r.Use(httpx.Auth(tokens))
		uh.RegisterProtected(r)
		(&httpx.ProductsHandler{Products: products}).Register(r)
		(&httpx.ClientsHandler{Clients: clients}).Register(r)
		(&httpx.OrdersHandler{
			Manager:           manager,
			Repo:              orderRepo,
			Redis:             rdb,
			PlacedProducer:    pPlaced,
			AmendedProducer:   pAmended,
			CancelledProducer: pCancelled,
			Service:           cfg.ServiceName,
		}).Register(r)
		(&httpx.ReportsHandler{Reports: reports, Redis: rdb}).Register(r)
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	// close inboxes -> flush & close writers
	pPlaced.Close()
	pAmended.Close()
	pCancelled.Close()
	pPlaced.WaitClosed()
	pAmended.WaitClosed()
	pCancelled.WaitClosed()
}
