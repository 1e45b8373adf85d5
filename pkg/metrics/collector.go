// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gardener/sdaf-landscapes/pkg/core/registry"
)

// LandscapesDesc describes the number of landscapes per environment, as seen
// by the most recent listing of the environment.
var LandscapesDesc = prometheus.NewDesc(
	prometheus.BuildFQName(Namespace, "", "landscapes"),
	"Number of landscapes per environment",
	[]string{"environment"},
	nil,
)

// DefaultCollector is the default [Collector] for gauges observed by the
// landscape store.
var DefaultCollector = NewCollector(LandscapesDesc)

// Collector is an implementation of the [prometheus.Collector] interface,
// which reports the latest observed value of gauges.
//
// A [prometheus.GaugeVec] keeps reporting the last known value of a series
// forever. The landscapes of an environment, which has been removed, would
// thus still be reported. The [Collector] forgets a series once it has been
// collected, so only observations made since the previous collection are
// exposed.
type Collector struct {
	mu          sync.Mutex
	descriptors []*prometheus.Desc
	reg         *registry.Registry[string, prometheus.Metric]
}

var _ prometheus.Collector = &Collector{}

// NewCollector creates a new [Collector] for metrics with the given
// descriptors.
func NewCollector(descs ...*prometheus.Desc) *Collector {
	c := &Collector{
		descriptors: descs,
		reg:         registry.New[string, prometheus.Metric](),
	}

	return c
}

// Observe records the value of the gauge with the given label values. A
// later observation of the same series replaces the earlier one.
func (c *Collector) Observe(desc *prometheus.Desc, value float64, labelValues ...string) error {
	metric, err := prometheus.NewConstMetric(desc, prometheus.GaugeValue, value, labelValues...)
	if err != nil {
		return err
	}

	c.reg.Overwrite(Key(desc.String(), labelValues...), metric)

	return nil
}

// Describe implements the [prometheus.Collector] interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, desc := range c.descriptors {
		ch <- desc
	}
}

// Collect implements the [prometheus.Collector] interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	collected := make([]prometheus.Metric, 0)
	c.reg.DeleteFunc(func(_ string, metric prometheus.Metric) bool {
		collected = append(collected, metric)
		return true
	})

	for _, metric := range collected {
		ch <- metric
	}
}

// Key derives the registry key of a series from the given items.
func Key(item string, rest ...string) string {
	items := []string{item}
	items = append(items, rest...)

	return strings.Join(items, "/")
}
