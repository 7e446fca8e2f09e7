package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/francoabl/HuertoHogar/internal/cart"
	"github.com/francoabl/HuertoHogar/internal/checkout"
	"github.com/francoabl/HuertoHogar/internal/config"
	"github.com/francoabl/HuertoHogar/internal/gateway"
	"github.com/francoabl/HuertoHogar/internal/gateway/webpay"
	h "github.com/francoabl/HuertoHogar/internal/http"
	"github.com/francoabl/HuertoHogar/internal/publisher"
	"github.com/francoabl/HuertoHogar/internal/store"
)

func main() {
	cfg := config.Load()

	st, err := newStore(cfg)
	if err != nil {
		log.Fatalf("failed to open local store: %v", err)
	}

	cartClient := gateway.NewCartClient(cfg.CartAPIURL, cfg.UpstreamTimeout)
	ordersClient := gateway.NewOrdersClient(cfg.OrdersAPIURL, cfg.UpstreamTimeout)
	webpayClient := webpay.New(cfg.WebpayAPIURL, cfg.UpstreamTimeout)

	carts := cart.NewManager(cartClient, st)

	var events checkout.Events
	if len(cfg.KafkaBrokers) > 0 {
		orderEvents := publisher.NewOrderEvents(cfg.KafkaBrokers...)
		defer orderEvents.Close()
		events = orderEvents
		log.Printf("publishing order events to %v", cfg.KafkaBrokers)
	}

	bridge := checkout.NewBridge(ordersClient, carts, st, events)
	coord := checkout.NewCoordinator(carts, ordersClient, webpayClient, st, bridge, cfg.ReturnURL)

	router := h.NewRouter(
		h.NewCartHandler(carts, cfg.RequestTimeout),
		h.NewCheckoutHandler(coord, cfg.RequestTimeout),
		cfg.RequestTimeout,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("storefront starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
}

// newStore picks the durable session store: Redis when configured, a local
// file tree otherwise.
func newStore(cfg *config.Config) (store.Store, error) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		log.Printf("using redis session store at %s", cfg.RedisAddr)
		return store.NewRedisStore(client), nil
	}
	log.Printf("using file session store at %s", cfg.DataDir)
	return store.NewFileStore(cfg.DataDir)
}
