package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRecordWorkflow(t *testing.T) {
	reader := metric.NewManualReader()
	obs := NewWithReader(reader, "menza-admin-test")
	defer obs.Shutdown()

	ctx := context.Background()
	obs.RecordWorkflow(ctx, "menu_save", "saved", 120*time.Millisecond)
	obs.RecordWorkflow(ctx, "menu_save", "failed", 30*time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := map[string]metricdata.Metrics{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		byName[m.Name] = m
	}

	runs, ok := byName["workflows.runs"]
	require.True(t, ok)
	sum, ok := runs.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, sum.DataPoints, 2)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(2), total)

	_, ok = byName["workflows.duration"]
	assert.True(t, ok)
}

func TestRecordWorkflow_NilReceiver(t *testing.T) {
	var obs *Observability
	assert.NotPanics(t, func() {
		obs.RecordWorkflow(context.Background(), "menu_save", "saved", time.Second)
		obs.Shutdown()
	})
}
