package metric_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalnine/trackbench/internal/config"
	"github.com/signalnine/trackbench/internal/metric"
)

func TestMsPerEvent(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  float64
		ok    bool
	}{
		{
			name:  "single summary line",
			lines: []string{"Event processing time: 3.21 ms/event, throughput: 311.5 events/s"},
			want:  3.21,
			ok:    true,
		},
		{
			name: "last matching line wins",
			lines: []string{
				"Event processing time: 9.99 ms/event, throughput: 100 events/s",
				"Reconstructed 500 tracks",
				"Event processing time: 4.5 ms/event, throughput: 222 events/s",
				"done",
			},
			want: 4.5,
			ok:   true,
		},
		{
			name:  "no marker line",
			lines: []string{"Reconstructed 500 tracks", "3.21 ms/event,"},
			ok:    false,
		},
		{
			name:  "marker without unit token",
			lines: []string{"Event processing time: 3.21 ms/event throughput"},
			ok:    false,
		},
		{
			name:  "unit token is first",
			lines: []string{"ms/event, Event processing"},
			ok:    false,
		},
		{
			name:  "preceding token not a number",
			lines: []string{"Event processing time: fast ms/event,"},
			ok:    false,
		},
		{
			name:  "later malformed line overrides earlier good one",
			lines: []string{"Event processing time: 3.0 ms/event,", "Event processing failed"},
			ok:    false,
		},
		{
			name:  "nan is rejected",
			lines: []string{"Event processing time: NaN ms/event,"},
			ok:    false,
		},
		{
			name:  "scientific notation",
			lines: []string{"Event processing time: 1.5e+01 ms/event,"},
			want:  15,
			ok:    true,
		},
		{
			name: "empty output",
			ok:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := metric.MsPerEvent.Extract(tt.lines)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestPatternExtractor(t *testing.T) {
	e, err := metric.NewPatternExtractor(`throughput: ([0-9.]+) events/s`)
	require.NoError(t, err)

	v, ok := e.Extract([]string{
		"throughput: 10 events/s",
		"throughput: 311.5 events/s",
		"bye",
	})
	require.True(t, ok)
	assert.InDelta(t, 311.5, v, 1e-9)

	_, ok = e.Extract([]string{"nothing here"})
	assert.False(t, ok)
}

func TestPatternExtractorInvalid(t *testing.T) {
	_, err := metric.NewPatternExtractor(`(unclosed`)
	assert.Error(t, err)

	_, err = metric.NewPatternExtractor(`no group`)
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	e, err := metric.New(config.Metric{})
	require.NoError(t, err)
	assert.Equal(t, metric.MsPerEvent, e)

	e, err = metric.New(config.Metric{Marker: "Throughput", Unit: "events/s"})
	require.NoError(t, err)
	v, ok := e.Extract([]string{"Throughput: 42 events/s"})
	require.True(t, ok)
	assert.InDelta(t, 42.0, v, 1e-9)

	e, err = metric.New(config.Metric{Pattern: `took (\d+)ms`})
	require.NoError(t, err)
	_, isPattern := e.(*metric.PatternExtractor)
	assert.True(t, isPattern)
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, metric.SplitLines(nil))
	assert.Nil(t, metric.SplitLines([]byte("\n")))
	assert.Equal(t, []string{"a", "b"}, metric.SplitLines([]byte("a\r\nb\n")))
	assert.Equal(t, []string{"a", "", "b"}, metric.SplitLines([]byte("a\n\nb")))
}
