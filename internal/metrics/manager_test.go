package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerRegistersCollectors(t *testing.T) {
	m, reg := NewTestManagerAndRegistry()

	m.CounterRequests.WithLabelValues("GET", "200").Inc()
	m.CounterWorkoutsLogged.WithLabelValues("Bench", "Pass").Add(2)
	m.CounterImportRows.WithLabelValues("imported").Add(5)
	m.CounterChartCache.WithLabelValues("hit").Inc()
	m.HistRequestDuration.Observe(0.02)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterWorkoutsLogged.WithLabelValues("Bench", "Pass")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.CounterImportRows.WithLabelValues("imported")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["teamlift_test_server_request"])
	assert.True(t, names["teamlift_test_server_request_duration_seconds"])
	assert.True(t, names["teamlift_test_server_chart_cache"])
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
