package metric

import "github.com/prometheus/client_golang/prometheus"

// SizeFunc reports the current size of each in-memory collection.
type SizeFunc func() (records, instructors, hosts int)

// StateCollector reports live collection sizes at scrape time.
type StateCollector struct {
	sizes SizeFunc
	desc  *prometheus.Desc
}

// NewStateCollector creates a collector backed by sizes.
func NewStateCollector(sizes SizeFunc) *StateCollector {
	return &StateCollector{
		sizes: sizes,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "state", "items"),
			"Items currently held in memory by collection",
			[]string{"collection"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *StateCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *StateCollector) Collect(ch chan<- prometheus.Metric) {
	records, instructors, hosts := c.sizes()
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(records), "records")
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(instructors), "instructors")
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(hosts), "hosts")
}
