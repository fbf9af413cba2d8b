package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"

	"github.com/example/carpool-matching/internal/config"
	"github.com/example/carpool-matching/internal/events"
	"github.com/example/carpool-matching/internal/logging"
	"github.com/example/carpool-matching/internal/models"
	"github.com/example/carpool-matching/internal/storage"
)

var (
	msgsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_messages_consumed_total",
		Help: "Total pool events consumed",
	})
	msgsInvalid = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_messages_invalid_total",
		Help: "Total undecodable or invalid pool events",
	})
	storeApplied = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_store_applied_total",
		Help: "Total events applied to the pool store",
	})
	storeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_store_errors_total",
		Help: "Total events that could not be applied after retries",
	})
)

func init() {
	prometheus.MustRegister(msgsConsumed, msgsInvalid, storeApplied, storeErrors)
}

func main() {
	cfg, err := config.LoadConsumerConfig()
	if err != nil {
		logging.NewLogger("carpool-consumer", "info").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.NewLogger("carpool-consumer", cfg.LogLevel)

	store := storage.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.KeyPrefix)

	go serveHealth(cfg.MetricsAddr, store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaTopic,
		GroupID:  cfg.KafkaGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer func() {
		_ = r.Close()
		_ = store.Close()
	}()

	logger.Info("consumer listening", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers, "group", cfg.KafkaGroup)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("shutting down consumer")
				return
			}
			logger.Warn("kafka read failed", "error", err, "backoff", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second
		msgsConsumed.Inc()

		ev, err := events.Decode(m.Value)
		if err != nil {
			msgsInvalid.Inc()
			logger.Warn("invalid event", "offset", m.Offset, "error", err)
			continue
		}
		if err := applyWithRetry(ctx, store, ev, cfg.ApplyAttempts, cfg.RetryDelay); err != nil {
			storeErrors.Inc()
			logger.Error("apply failed", "type", ev.Type, "key", ev.Key(), "error", err)
			continue
		}
		storeApplied.Inc()
	}
}

func serveHealth(addr string, store storage.PoolStore, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			http.Error(w, "store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
		w.Write([]byte("ready"))
	})
	logger.Info("metrics/health listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server stopped", "error", err)
	}
}

// PoolWriter is the subset of the pool store the consumer mirrors events into.
type PoolWriter interface {
	PutParticipant(ctx context.Context, p models.Participant) error
	DeleteParticipant(ctx context.Context, name string) error
	AddDisruption(ctx context.Context, z models.DisruptionZone) error
}

// apply writes one event. Replays are harmless: puts overwrite, deleting a
// missing participant succeeds and zones are deduplicated by id.
func apply(ctx context.Context, w PoolWriter, ev events.Event) error {
	switch ev.Type {
	case events.ParticipantCreated, events.ParticipantUpdated:
		return w.PutParticipant(ctx, *ev.Participant)
	case events.ParticipantDeleted:
		if err := w.DeleteParticipant(ctx, ev.Name); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return nil
	case events.DisruptionCreated:
		return w.AddDisruption(ctx, *ev.Disruption)
	}
	return ev.Validate()
}

// applyWithRetry retries apply with doubling delay between attempts.
func applyWithRetry(ctx context.Context, w PoolWriter, ev events.Event, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = apply(ctx, w, ev); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return err
}
