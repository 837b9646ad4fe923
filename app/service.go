package app

import (
	"context"
	"fmt"
	"time"

	"github.com/voltonic/campusgrid/config"
	"github.com/voltonic/campusgrid/core/actionlog"
	"github.com/voltonic/campusgrid/core/analytics"
	"github.com/voltonic/campusgrid/core/campus"
	"github.com/voltonic/campusgrid/core/engine"
	"github.com/voltonic/campusgrid/core/forecast"
	coremetrics "github.com/voltonic/campusgrid/core/metrics"
	"github.com/voltonic/campusgrid/core/occupancy"
	"github.com/voltonic/campusgrid/core/sim"
	"github.com/voltonic/campusgrid/infra/logger"
	"github.com/voltonic/campusgrid/infra/metrics"
	"github.com/voltonic/campusgrid/infra/mqtt"
	"github.com/voltonic/campusgrid/internal/eventbus"
)

// Service owns the engine and its infrastructure collaborators.
type Service struct {
	Engine     *engine.Engine
	Aggregator *analytics.Aggregator
	Bus        *eventbus.Bus[engine.Event]

	store          actionlog.Store
	trigger        *mqtt.TriggerSource
	log            logger.Logger
	promEnabled    bool
	promPort       string
	retrainEvery   time.Duration
	influxCloser   func()
	mqttCfg        mqtt.Config
	mqttEnabled    bool
	retrainHistory int
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	dir, err := campus.Generate(cfg.Campus)
	if err != nil {
		return nil, fmt.Errorf("campus: %w", err)
	}

	simulator := sim.New(cfg.Simulator.Seed)
	if cfg.Simulator.NoiseKW > 0 {
		simulator.NoiseKW = cfg.Simulator.NoiseKW
	}

	store, err := newStore(cfg.ActionLog)
	if err != nil {
		return nil, fmt.Errorf("action log: %w", err)
	}
	store = actionlog.NewRetryStore(store, cfg.ActionLog.Retries, 50*time.Millisecond, logger.New("actionlog"))

	var sinks []coremetrics.Sink
	var influxCloser func()
	if cfg.Metrics.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken,
			cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket)
		if is, ok := sink.(*metrics.InfluxSink); ok {
			influxCloser = is.Close
		}
		sinks = append(sinks, sink)
	}
	var sink coremetrics.Sink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = coremetrics.NewMultiSink(sinks...)
	}

	risk := occupancy.NewModel(cfg.Occupancy)
	bus := eventbus.New[engine.Event]()

	eng, err := engine.New(cfg.Engine, dir, simulator, risk, nil, store,
		analytics.NewTracker(), sink, bus, logger.New("engine"))
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	// The adapter trains off the engine's own hourly history.
	adapter := forecast.NewAdapter(cfg.Forecast.Adapter(), eng.History(), logger.New("forecast"))
	eng.SetForecaster(adapter)

	svc := &Service{
		Engine:       eng,
		Aggregator:   analytics.NewAggregator(store, eng.Tracker()),
		Bus:          bus,
		store:        store,
		log:          logg,
		promEnabled:  cfg.Metrics.PrometheusEnabled,
		promPort:     cfg.Metrics.PrometheusPort,
		influxCloser: influxCloser,
		mqttCfg:      cfg.MQTT,
		mqttEnabled:  cfg.MQTT.Enabled,
	}
	if cfg.Forecast.RetrainMinutes > 0 {
		svc.retrainEvery = time.Duration(cfg.Forecast.RetrainMinutes) * time.Minute
	}
	svc.retrainHistory = 24 * 7
	return svc, nil
}

func newStore(cfg config.ActionLogConfig) (actionlog.Store, error) {
	switch cfg.Backend {
	case "memory":
		return actionlog.NewMemoryStore(cfg.MaxEntries), nil
	case "sqlite":
		return actionlog.NewSQLiteStore(cfg.Path)
	default:
		return actionlog.NewJSONLStore(cfg.Path)
	}
}

// Run starts the tick loop and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.mqttEnabled {
		trigger, err := mqtt.NewTriggerSource(s.mqttCfg, s.Engine)
		if err != nil {
			return fmt.Errorf("mqtt trigger: %w", err)
		}
		s.trigger = trigger
	}
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.retrainEvery > 0 {
		go s.retrainLoop(ctx)
	}
	s.Engine.Run(ctx)
	return nil
}

// retrainLoop refits the forecast model in the background. Early cycles fail
// until enough hourly history accumulates; that is expected.
func (s *Service) retrainLoop(ctx context.Context) {
	ticker := time.NewTicker(s.retrainEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Engine.TrainForecaster(ctx, s.retrainHistory); err != nil {
				s.log.Debugf("retrain skipped: %v", err)
			} else {
				s.log.Infof("forecast model retrained")
			}
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.trigger != nil {
		s.trigger.Disconnect()
	}
	if s.influxCloser != nil {
		s.influxCloser()
	}
	if s.Bus != nil {
		s.Bus.Close()
	}
	return s.store.Close()
}
