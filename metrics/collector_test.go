package metrics

import (
	"strings"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llxisdsh/cset"
)

func gatherByName(t *testing.T, reg *prom.Registry) map[string]*dto.Metric {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.Metric, len(mfs))
	for _, mf := range mfs {
		require.Len(t, mf.GetMetric(), 1, mf.GetName())
		out[mf.GetName()] = mf.GetMetric()[0]
	}
	return out
}

func TestSetCollector(t *testing.T) {
	s := cset.New[int]()
	for i := range 40 {
		s.Insert(i)
	}
	s.Erase(3)

	reg := prom.NewRegistry()
	require.NoError(t, reg.Register(NewSetCollector("ids", s.Stats)))

	got := gatherByName(t, reg)
	require.Len(t, got, 10)

	size := got["cset_size"]
	require.NotNil(t, size)
	assert.InDelta(t, 39, size.GetGauge().GetValue(), 0)
	require.Len(t, size.GetLabel(), 1)
	assert.Equal(t, "set", size.GetLabel()[0].GetName())
	assert.Equal(t, "ids", size.GetLabel()[0].GetValue())

	st := s.Stats()
	assert.InDelta(t, float64(st.PrimarySlots), got["cset_primary_slots"].GetGauge().GetValue(), 0)
	assert.InDelta(t, st.LoadFactor, got["cset_load_factor"].GetGauge().GetValue(), 1e-9)
	assert.InDelta(t, float64(st.TotalGrowths), got["cset_growths_total"].GetCounter().GetValue(), 0)
	assert.Positive(t, got["cset_growths_total"].GetCounter().GetValue())
}

func TestSetCollector_ReadsOnScrape(t *testing.T) {
	s := cset.New[string]()
	reg := prom.NewRegistry()
	reg.MustRegister(NewSetCollector("names", s.Stats))

	assert.InDelta(t, 0, gatherByName(t, reg)["cset_size"].GetGauge().GetValue(), 0)
	s.InsertAll("a", "b")
	assert.InDelta(t, 2, gatherByName(t, reg)["cset_size"].GetGauge().GetValue(), 0)
}

func TestSetCollector_TwoSets(t *testing.T) {
	a, b := cset.Of(1), cset.Of(1, 2)
	reg := prom.NewRegistry()
	require.NoError(t, reg.Register(NewSetCollector("a", a.Stats)))
	require.NoError(t, reg.Register(NewSetCollector("b", b.Stats)))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		assert.Len(t, mf.GetMetric(), 2, mf.GetName())
	}
}

func TestWriteText(t *testing.T) {
	s := cset.Of("x")
	reg := prom.NewRegistry()
	reg.MustRegister(NewSetCollector("snap", s.Stats))

	var sb strings.Builder
	require.NoError(t, WriteText(&sb, reg))
	out := sb.String()
	assert.Contains(t, out, "# TYPE cset_size gauge")
	assert.Contains(t, out, `cset_size{set="snap"} 1`)
	assert.Contains(t, out, "# TYPE cset_relocations_total counter")
}
