// Package metrics reports store activity to Prometheus.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aretw0/itt/pkg/core"
)

// Observer implements core.Observer with Prometheus collectors.
type Observer struct {
	Operations    *prometheus.CounterVec
	Errors        *prometheus.CounterVec
	Duration      *prometheus.HistogramVec
	CorruptReads  *prometheus.CounterVec
	ConflictCount *prometheus.CounterVec
}

// NewObserver registers the store collectors on reg.
func NewObserver(namespace string, reg prometheus.Registerer) *Observer {
	factory := promauto.With(reg)
	return &Observer{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "The total number of store operations",
		}, []string{"operation"}),
		Errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "The total number of failed store operations",
		}, []string{"operation", "reason"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Time taken by store operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		CorruptReads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_corrupt_reads_total",
			Help:      "The total number of slot reads that could not be decoded",
		}, []string{"slot"}),
		ConflictCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_write_conflicts_total",
			Help:      "The total number of compare-and-set conflicts",
		}, []string{"slot"}),
	}
}

func (o *Observer) OperationDone(op string, err error, elapsed time.Duration) {
	o.Operations.WithLabelValues(op).Inc()
	o.Duration.WithLabelValues(op).Observe(elapsed.Seconds())
	if err != nil {
		o.Errors.WithLabelValues(op, Reason(err)).Inc()
	}
}

func (o *Observer) SlotCorrupted(key string) {
	o.CorruptReads.WithLabelValues(key).Inc()
}

func (o *Observer) WriteConflict(key string) {
	o.ConflictCount.WithLabelValues(key).Inc()
}

// Reason classifies err into a low-cardinality label value.
func Reason(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidRecord):
		return "invalid"
	case errors.Is(err, core.ErrDuplicateKey):
		return "duplicate"
	case errors.Is(err, core.ErrConflict):
		return "conflict"
	case errors.Is(err, core.ErrReadOnly):
		return "read_only"
	default:
		return "io"
	}
}

// WriteTextfile writes every metric of g to path in the text exposition format,
// for the node exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

var _ core.Observer = (*Observer)(nil)
