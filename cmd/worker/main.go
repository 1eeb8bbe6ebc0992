package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campusgate/internal/config"
	"campusgate/internal/queue"
	"campusgate/internal/store"
)

var eventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "campusgate_worker_events_total",
	Help: "Scan events consumed by kind.",
}, []string{"kind"})

// The worker consumes accepted scan events and keeps the daily tallies in
// Redis that the dashboard reads.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "campus:scans")
	}

	// Worker-side metrics on a fixed side port.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":9091", mux); err != nil {
			log.Printf("metrics server stopped: %v", err)
		}
	}()

	events, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for scan events...")
	for evt := range events {
		if evt.Kind == "" {
			continue
		}
		if err := redisClient.IncrScanTally(ctx, evt.Kind, evt.At); err != nil {
			log.Printf("tally %s failed: %v", evt.Kind, err)
			continue
		}
		eventsProcessed.WithLabelValues(evt.Kind).Inc()
	}

	log.Println("worker stopped")
}
