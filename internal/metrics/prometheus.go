// Package metrics exposes the bot's Prometheus metrics. Collector backs both
// the interaction pipeline's MetricsCollector and the Pokémon sheet's
// outcome counters.
package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/discord/v2/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace       = "pokesheet"
	shutdownTimeout = 5 * time.Second
)

var interactionLabels = []string{"interaction_type", "action"}

// Collector records interaction and sheet metrics on its own registry
type Collector struct {
	registry *prometheus.Registry

	interactions        *prometheus.CounterVec
	interactionErrors   *prometheus.CounterVec
	interactionDuration *prometheus.HistogramVec

	saves *prometheus.CounterVec
	rolls *prometheus.CounterVec
}

// NewCollector creates a collector with a fresh registry
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	auto := promauto.With(registry)

	return &Collector{
		registry: registry,
		interactions: auto.NewCounterVec(prometheus.CounterOpts{
			Name: middleware.MetricInteractions,
			Help: "Discord interactions handled",
		}, interactionLabels),
		interactionErrors: auto.NewCounterVec(prometheus.CounterOpts{
			Name: middleware.MetricInteractionErrors,
			Help: "Discord interactions whose handler returned an error",
		}, append(interactionLabels, "error_code")),
		interactionDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    middleware.MetricInteractionDuration,
			Help:    "Time spent handling Discord interactions",
			Buckets: prometheus.DefBuckets,
		}, interactionLabels),
		saves: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saves_total",
			Help:      "Sheet saves by outcome",
		}, []string{"outcome"}),
		rolls: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rolls_total",
			Help:      "Move attack rolls by outcome",
		}, []string{"outcome"}),
	}
}

// IncrementCounter implements middleware.MetricsCollector. Unknown names
// are dropped.
func (c *Collector) IncrementCounter(name string, labels map[string]string) {
	switch name {
	case middleware.MetricInteractions:
		c.interactions.With(pick(labels, interactionLabels...)).Inc()
	case middleware.MetricInteractionErrors:
		c.interactionErrors.With(pick(labels, append(interactionLabels, "error_code")...)).Inc()
	default:
		log.Printf("[Metrics] unknown counter %s", name)
	}
}

// ObserveHistogram implements middleware.MetricsCollector
func (c *Collector) ObserveHistogram(name string, value float64, labels map[string]string) {
	if name != middleware.MetricInteractionDuration {
		log.Printf("[Metrics] unknown histogram %s", name)
		return
	}
	c.interactionDuration.With(pick(labels, interactionLabels...)).Observe(value)
}

// RecordSave counts a sheet save outcome
func (c *Collector) RecordSave(outcome string) {
	c.saves.WithLabelValues(outcome).Inc()
}

// RecordRoll counts a move roll outcome
func (c *Collector) RecordRoll(outcome string) {
	c.rolls.WithLabelValues(outcome).Inc()
}

// Registry returns the collector's registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[Metrics] shutdown: %v", err)
		}
	}()

	log.Printf("[Metrics] serving on %s/metrics", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// pick returns exactly keys from labels so every series has the same label
// set; missing keys are empty
func pick(labels map[string]string, keys ...string) prometheus.Labels {
	out := make(prometheus.Labels, len(keys))
	for _, k := range keys {
		out[k] = labels[k]
	}
	return out
}
