package prom

import (
	"fmt"
	"sync"

	xhttp "github.com/nimasrn/hire-gateway/pkg/http"
	"github.com/nimasrn/hire-gateway/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	SystemReconciliation = "reconciliation"
	SystemHire           = "hire"
	SystemUnmatched      = "unmatched"
	SystemQueue          = "queue"
)

const (
	MetricReconciliationOutcomes = "outcomes_total"
	MetricReconciliationDuration = "duration_seconds"
	MetricHireTransitions        = "transitions_total"
	MetricHireOverdueSwept       = "overdue_swept_total"
	MetricUnmatchedStored        = "stored_total"
	MetricQueuePending           = "pending_messages"
	MetricQueueDeadLettered      = "dead_lettered_total"
)

const (
	TypeCounter    = "counter"
	TypeCounterVec = "counterVec"
	TypeHistogram  = "histogram"
	TypeGaugeVec   = "gaugeVec"
)

type definition struct {
	kind      string
	subsystem string
	name      string
	help      string
	labels    []string
}

var definitions = []definition{
	{TypeCounterVec, SystemReconciliation, MetricReconciliationOutcomes, "C2B notifications by reconciliation outcome.", []string{"outcome"}},
	{TypeHistogram, SystemReconciliation, MetricReconciliationDuration, "Time spent reconciling one C2B notification.", nil},
	{TypeCounterVec, SystemHire, MetricHireTransitions, "Hire status transitions by target status.", []string{"status"}},
	{TypeCounter, SystemHire, MetricHireOverdueSwept, "Hires moved to overdue by the sweep.", nil},
	{TypeCounter, SystemUnmatched, MetricUnmatchedStored, "Unmatched notifications recorded for manual reconciliation.", nil},
	{TypeGaugeVec, SystemQueue, MetricQueuePending, "Delivered but unacknowledged stream entries.", []string{"queue"}},
	{TypeCounterVec, SystemQueue, MetricQueueDeadLettered, "Messages moved to the dead-letter stream.", []string{"queue"}},
}

var (
	mu                  sync.RWMutex
	namespace           = "none"
	registry            *prometheus.Registry
	MetricSystemEnabled = false

	counters     = make(map[string]prometheus.Counter)
	counterVecs  = make(map[string]*prometheus.CounterVec)
	histograms   = make(map[string]prometheus.Histogram)
	gaugeVecs    = make(map[string]*prometheus.GaugeVec)
	defaultLabel prometheus.Labels
)

// Create registers every metric the gateway reports on a fresh registry.
// It must run before any Add/Inc call has an effect; calling it again
// discards the previous series.
func Create(host string, env string, nameSpace string) error {
	mu.Lock()
	defer mu.Unlock()

	defaultLabel = prometheus.Labels{"env": env, "instance": host}
	namespace = nameSpace
	registry = prometheus.NewRegistry()
	counters = make(map[string]prometheus.Counter)
	counterVecs = make(map[string]*prometheus.CounterVec)
	histograms = make(map[string]prometheus.Histogram)
	gaugeVecs = make(map[string]*prometheus.GaugeVec)

	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return err
	}
	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return err
	}

	for _, d := range definitions {
		c, err := newCollector(d)
		if err != nil {
			return err
		}
		if err := registry.Register(c); err != nil {
			return fmt.Errorf("register %s_%s: %w", d.subsystem, d.name, err)
		}
	}
	MetricSystemEnabled = true
	return nil
}

func newCollector(d definition) (prometheus.Collector, error) {
	key := d.subsystem + d.name
	switch d.kind {
	case TypeCounter:
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: d.subsystem, Name: d.name, Help: d.help, ConstLabels: defaultLabel,
		})
		counters[key] = c
		return c, nil
	case TypeCounterVec:
		c := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: d.subsystem, Name: d.name, Help: d.help, ConstLabels: defaultLabel,
		}, d.labels)
		counterVecs[key] = c
		return c, nil
	case TypeHistogram:
		c := prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: d.subsystem, Name: d.name, Help: d.help, ConstLabels: defaultLabel,
			Buckets: prometheus.DefBuckets,
		})
		histograms[key] = c
		return c, nil
	case TypeGaugeVec:
		c := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: d.subsystem, Name: d.name, Help: d.help, ConstLabels: defaultLabel,
		}, d.labels)
		gaugeVecs[key] = c
		return c, nil
	}
	return nil, fmt.Errorf("metric type %s is not defined", d.kind)
}

// Gatherer exposes the current registry, nil before Create.
func Gatherer() prometheus.Gatherer {
	mu.RLock()
	defer mu.RUnlock()
	if registry == nil {
		return nil
	}
	return registry
}

func ListenAndServer(addr string, url string) {
	hh := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(Gatherer(), promhttp.HandlerOpts{}))
	s := xhttp.CreateServer()
	s.GET(url, hh)
	logger.Info("[metrics-server] listening...", "addr", addr, "url", url)
	if err := s.ListenAndServe(addr); err != nil {
		logger.Panic("[metrics-server] http listen error", "error", err)
	}
}

func AddCounter(subsystem, name string, number float64) {
	mu.RLock()
	defer mu.RUnlock()
	if !MetricSystemEnabled {
		return
	}
	if v, ok := counters[subsystem+name]; ok {
		v.Add(number)
		return
	}
	logger.Warn("[metrics-server] counter not found", "subsystem", subsystem, "name", name)
}

func IncCounter(subsystem, name string) {
	AddCounter(subsystem, name, 1)
}

func IncCounterVec(subsystem, name string, labelValues ...string) {
	mu.RLock()
	defer mu.RUnlock()
	if !MetricSystemEnabled {
		return
	}
	if v, ok := counterVecs[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Inc()
		return
	}
	logger.Warn("[metrics-server] counter vec not found", "subsystem", subsystem, "name", name)
}

func AddHistogram(subsystem, name string, number float64) {
	mu.RLock()
	defer mu.RUnlock()
	if !MetricSystemEnabled {
		return
	}
	if v, ok := histograms[subsystem+name]; ok {
		v.Observe(number)
		return
	}
	logger.Warn("[metrics-server] histogram not found", "subsystem", subsystem, "name", name)
}

func SetGaugeVec(subsystem, name string, value float64, labelValues ...string) {
	mu.RLock()
	defer mu.RUnlock()
	if !MetricSystemEnabled {
		return
	}
	if v, ok := gaugeVecs[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Set(value)
		return
	}
	logger.Warn("[metrics-server] gauge vec not found", "subsystem", subsystem, "name", name)
}

func RecordReconciliation(outcome string, seconds float64) {
	IncCounterVec(SystemReconciliation, MetricReconciliationOutcomes, outcome)
	AddHistogram(SystemReconciliation, MetricReconciliationDuration, seconds)
}

func RecordHireTransition(status string) {
	IncCounterVec(SystemHire, MetricHireTransitions, status)
}

func AddOverdueSwept(n int) {
	AddCounter(SystemHire, MetricHireOverdueSwept, float64(n))
}

func IncUnmatchedStored() {
	IncCounter(SystemUnmatched, MetricUnmatchedStored)
}

func SetQueuePending(queue string, pending int64) {
	SetGaugeVec(SystemQueue, MetricQueuePending, float64(pending), queue)
}

func IncQueueDeadLettered(queue string) {
	IncCounterVec(SystemQueue, MetricQueueDeadLettered, queue)
}
