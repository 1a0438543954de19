package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestObserverRingBufferEvictsOldest(t *testing.T) {
	o := NewObserver(2)
	o.Record(Metrics{Seq: 1, Success: true})
	o.Record(Metrics{Seq: 2, Success: true})
	o.Record(Metrics{Seq: 3, Success: true})

	recent := o.Recent()
	require.Len(t, recent, 2)
	require.Equal(t, uint64(2), recent[0].Seq)
	require.Equal(t, uint64(3), recent[1].Seq)
}

func TestObserverHealthCheckOKWhenEmpty(t *testing.T) {
	o := NewObserver(4)
	status, reasons := o.HealthCheck()
	require.Equal(t, HealthOK, status)
	require.Empty(t, reasons)
}

func TestObserverHealthCheckWarnsOnHighFailureRate(t *testing.T) {
	o := NewObserver(4)
	o.Record(Metrics{Success: false})
	o.Record(Metrics{Success: false})
	o.Record(Metrics{Success: false})
	o.Record(Metrics{Success: true, CompressionRatio: 5})

	status, reasons := o.HealthCheck()
	require.Equal(t, HealthWarning, status)
	require.NotEmpty(t, reasons)
}

func TestObserverHealthCheckWarnsOnLowCompressionRatio(t *testing.T) {
	o := NewObserver(4)
	o.Record(Metrics{Success: true, CompressionRatio: 0.05})
	status, reasons := o.HealthCheck()
	require.Equal(t, HealthWarning, status)
	require.Contains(t, reasons[0], "compression ratio")
}

func TestObserverHealthCheckWarnsOnSlowDuration(t *testing.T) {
	o := NewObserver(4)
	o.Record(Metrics{Success: true, CompressionRatio: 5, Duration: 6 * time.Second})
	status, reasons := o.HealthCheck()
	require.Equal(t, HealthWarning, status)
	found := false
	for _, r := range reasons {
		if r == "a compaction exceeded 5s" {
			found = true
		}
	}
	require.True(t, found)
}

func TestObserverAggregateComputesAverages(t *testing.T) {
	o := NewObserver(4)
	o.Record(Metrics{Success: true, CompressionRatio: 2, Duration: time.Second})
	o.Record(Metrics{Success: true, CompressionRatio: 4, Duration: 3 * time.Second})

	agg := o.Aggregate()
	require.Equal(t, 2, agg.Count)
	require.InDelta(t, 3.0, agg.AvgCompressionRatio, 0.001)
	require.Equal(t, 2*time.Second, agg.AvgDuration)
	require.Equal(t, 3*time.Second, agg.MaxDuration)
	require.Equal(t, 0.0, agg.FailureRate)
}
