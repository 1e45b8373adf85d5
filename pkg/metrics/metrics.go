// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Namespace is the namespace component of the fully qualified metric name
const Namespace = "landscapes"

// Result label values.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultCached  = "cached"
)

// DefaultRegistry is the default [prometheus.Registry] for metrics.
var DefaultRegistry = prometheus.NewPedanticRegistry()

var (
	// ClientResolutionsTotal is a metric, which gets incremented each time
	// a storage client has been requested.
	ClientResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "client_resolutions_total",
			Help:      "Total number of storage client resolutions",
		},
		[]string{"kind", "result"},
	)

	// ClientResolutionDuration tracks how long it takes to authenticate and
	// ensure a storage resource.
	ClientResolutionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "client_resolution_duration_seconds",
			Help:      "Duration of storage client resolutions",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// StoreOperationsTotal is a metric, which gets incremented for each
	// landscape store operation.
	StoreOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "store_operations_total",
			Help:      "Total number of landscape store operations",
		},
		[]string{"operation", "result"},
	)
)

// Result returns the result label value for the given error.
func Result(err error) string {
	if err != nil {
		return ResultError
	}

	return ResultSuccess
}

// WriteTextFile writes the metrics from [DefaultRegistry] to the given path
// in the Prometheus text format, e.g. for the node-exporter textfile
// collector.
func WriteTextFile(path string) error {
	return prometheus.WriteToTextfile(path, DefaultRegistry)
}

// init registers collectors with the [DefaultRegistry].
func init() {
	DefaultRegistry.MustRegister(
		ClientResolutionsTotal,
		ClientResolutionDuration,
		StoreOperationsTotal,
		DefaultCollector,

		// Standard Go metrics
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}
