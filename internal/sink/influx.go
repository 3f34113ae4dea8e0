package sink

import (
	"context"
	"fmt"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/signalnine/trackbench/internal/config"
	"github.com/signalnine/trackbench/internal/result"
	"github.com/signalnine/trackbench/internal/stats"
)

const (
	iterationMeasurement = "ms_per_event"
	summaryMeasurement   = "ms_per_event_summary"
)

type Influx struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	now      func() time.Time
}

func NewInflux(cfg config.InfluxDB) *Influx {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Influx{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		now:      time.Now,
	}
}

// Points renders one point per iteration value and one summary point per
// group that has data.
func Points(runID string, ts time.Time, groups []*result.RunGroup, summaries []stats.Summary) []*write.Point {
	var points []*write.Point
	for _, g := range groups {
		for _, r := range g.Results {
			v, ok := r.Metric()
			if !ok {
				continue
			}
			points = append(points, influxdb2.NewPointWithMeasurement(iterationMeasurement).
				AddTag("run_id", runID).
				AddTag("label", g.Label).
				AddTag("iteration", strconv.Itoa(r.Iteration)).
				AddField("value", v).
				AddField("duration_ms", r.DurationMS).
				SetTime(ts))
		}
	}
	for _, s := range summaries {
		if !s.HasData() {
			continue
		}
		points = append(points, influxdb2.NewPointWithMeasurement(summaryMeasurement).
			AddTag("run_id", runID).
			AddTag("label", s.Label).
			AddField("mean", s.Mean).
			AddField("variance", s.Variance).
			AddField("stddev", s.StdDev).
			AddField("runs", s.Runs).
			AddField("count", s.Count).
			SetTime(ts))
	}
	return points
}

func (i *Influx) WriteGroups(ctx context.Context, runID string, groups []*result.RunGroup, summaries []stats.Summary) error {
	points := Points(runID, i.now(), groups, summaries)
	if len(points) == 0 {
		return nil
	}
	if err := i.writeAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("writing to influxdb: %w", err)
	}
	return nil
}

func (i *Influx) Close() {
	i.client.Close()
}
