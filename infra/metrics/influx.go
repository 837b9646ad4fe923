package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/voltonic/campusgrid/core/metrics"
	"github.com/voltonic/campusgrid/core/model"
	"github.com/voltonic/campusgrid/infra/logger"
)

// InfluxSink writes room telemetry and autonomous actions to an InfluxDB
// instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordTelemetry writes per-room readings as line protocol points.
func (s *InfluxSink) RecordTelemetry(readings []coremetrics.RoomTelemetry) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range readings {
		p := write.NewPointWithMeasurement("room_telemetry").
			AddTag("room_id", r.RoomID).
			AddTag("building_id", r.BuildingID).
			AddTag("source", r.Source.String()).
			AddTag("component", "energy_engine").
			AddField("load_kw", round3(r.LoadKW)).
			AddField("occupied", r.Occupied).
			AddField("optimized", r.Optimized).
			SetTime(r.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordAction writes one autonomous decision.
func (s *InfluxSink) RecordAction(e model.ActionEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("autonomous_action").
		AddTag("action_type", e.Action.String()).
		AddTag("component", "energy_engine").
		AddTag("config_anomaly", strconv.FormatBool(e.ConfigAnomaly))
	if e.RoomID != "" {
		p.AddTag("room_id", e.RoomID)
	}
	if e.BuildingID != "" {
		p.AddTag("building_id", e.BuildingID)
	}
	p = p.AddField("energy_saved_kwh", round3(e.EnergySavedKWh)).
		AddField("cost_saved", round3(e.CostSaved)).
		SetTime(e.Timestamp)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
