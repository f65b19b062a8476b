// Package metrics exports cset statistics as Prometheus metrics.
//
// A SetCollector reads a fresh cset.SetStats snapshot on every scrape, so
// registering it costs nothing until the registry is gathered:
//
//	s := cset.New[string]()
//	reg := prom.NewRegistry()
//	reg.MustRegister(metrics.NewSetCollector("sessions", s.Stats))
package metrics

import (
	"io"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/llxisdsh/cset"
)

const namespace = "cset"

// SetCollector implements prom.Collector over a stats source.
type SetCollector struct {
	stats func() cset.SetStats

	size         *prom.Desc
	primary      *prom.Desc
	cellar       *prom.Desc
	cellarUsed   *prom.Desc
	chains       *prom.Desc
	longestChain *prom.Desc
	loadFactor   *prom.Desc
	growths      *prom.Desc
	relocations  *prom.Desc
	resplices    *prom.Desc
}

// NewSetCollector returns a collector that labels every metric with
// set=name and reads stats on each scrape. stats is typically the Stats
// method value of a cset.Set; it is called from the scraping goroutine, so
// the caller must not mutate the set concurrently with a scrape.
func NewSetCollector(name string, stats func() cset.SetStats) *SetCollector {
	labels := prom.Labels{"set": name}
	desc := func(metric, help string) *prom.Desc {
		return prom.NewDesc(prom.BuildFQName(namespace, "", metric), help, nil, labels)
	}
	return &SetCollector{
		stats:        stats,
		size:         desc("size", "Number of keys in the set"),
		primary:      desc("primary_slots", "Size of the hash-addressed region"),
		cellar:       desc("cellar_slots", "Size of the overflow region"),
		cellarUsed:   desc("cellar_used", "Occupied overflow slots"),
		chains:       desc("chains", "Number of collision chains"),
		longestChain: desc("longest_chain", "Length of the longest collision chain"),
		loadFactor:   desc("load_factor", "Keys per primary slot"),
		growths:      desc("growths_total", "Number of times the set grew"),
		relocations:  desc("relocations_total", "Keys moved back home while repairing chains after erase"),
		resplices:    desc("resplices_total", "Keys relinked to another chain while repairing chains after erase"),
	}
}

// Describe implements prom.Collector.
func (c *SetCollector) Describe(ch chan<- *prom.Desc) {
	for _, d := range []*prom.Desc{
		c.size, c.primary, c.cellar, c.cellarUsed, c.chains,
		c.longestChain, c.loadFactor, c.growths, c.relocations, c.resplices,
	} {
		ch <- d
	}
}

// Collect implements prom.Collector.
func (c *SetCollector) Collect(ch chan<- prom.Metric) {
	st := c.stats()
	gauge := func(d *prom.Desc, v float64) {
		ch <- prom.MustNewConstMetric(d, prom.GaugeValue, v)
	}
	counter := func(d *prom.Desc, v float64) {
		ch <- prom.MustNewConstMetric(d, prom.CounterValue, v)
	}
	gauge(c.size, float64(st.Size))
	gauge(c.primary, float64(st.PrimarySlots))
	gauge(c.cellar, float64(st.CellarSlots))
	gauge(c.cellarUsed, float64(st.UsedCellar))
	gauge(c.chains, float64(st.Chains))
	gauge(c.longestChain, float64(st.LongestChain))
	gauge(c.loadFactor, st.LoadFactor)
	counter(c.growths, float64(st.TotalGrowths))
	counter(c.relocations, float64(st.Relocations))
	counter(c.resplices, float64(st.Resplices))
}

// WriteText gathers g and writes it in the Prometheus text exposition
// format.
func WriteText(w io.Writer, g prom.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
