// Package engine runs the autonomous energy-orchestration loop: each tick
// it simulates telemetry, consults the risk model and the forecaster,
// re-evaluates the source selection policy, applies cutoffs and records
// every decision in the action log.
package engine

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/voltonic/campusgrid/core/actionlog"
	"github.com/voltonic/campusgrid/core/analytics"
	"github.com/voltonic/campusgrid/core/campus"
	"github.com/voltonic/campusgrid/core/forecast"
	"github.com/voltonic/campusgrid/core/logger"
	"github.com/voltonic/campusgrid/core/metrics"
	"github.com/voltonic/campusgrid/core/model"
	"github.com/voltonic/campusgrid/core/occupancy"
	"github.com/voltonic/campusgrid/core/policy"
	"github.com/voltonic/campusgrid/core/sim"
	"github.com/voltonic/campusgrid/internal/eventbus"
)

// Event is published on the bus after each tick for observers.
type Event struct {
	Tick    time.Time
	Actions []model.ActionEntry
}

// Engine owns all runtime room state. It is the single writer: external
// triggers go through the command queue and apply at tick boundaries.
type Engine struct {
	cfg     Config
	dir     campus.Directory
	sim     *sim.Simulator
	risk    *occupancy.Model
	fc      *forecast.Adapter
	store   actionlog.Store
	tracker *analytics.Tracker
	sink    metrics.Sink
	bus     *eventbus.Bus[Event]
	log     logger.Logger
	clock   func() time.Time

	snapshot atomic.Pointer[Snapshot]
	commands chan command
	history  *HourlyHistory

	prevBuildingLoads map[string]float64
	lastSlotResolved  map[string]slotStamp
}

type slotStamp struct {
	day  time.Weekday
	hour int
}

// New assembles an Engine. The forecaster may be nil at construction when it
// trains off the engine's own history; install it with SetForecaster before
// Run. Sink and bus default to no-ops.
func New(cfg Config, dir campus.Directory, simulator *sim.Simulator, risk *occupancy.Model,
	fc *forecast.Adapter, store actionlog.Store, tracker *analytics.Tracker,
	sink metrics.Sink, bus *eventbus.Bus[Event], log logger.Logger) (*Engine, error) {
	if dir == nil || simulator == nil || risk == nil || store == nil || tracker == nil || log == nil {
		return nil, fmt.Errorf("engine: nil collaborator provided to New")
	}
	cfg.SetDefaults()
	if sink == nil {
		sink = metrics.NopSink{}
	}
	e := &Engine{
		cfg:               cfg,
		dir:               dir,
		sim:               simulator,
		risk:              risk,
		fc:                fc,
		store:             store,
		tracker:           tracker,
		sink:              sink,
		bus:               bus,
		log:               log,
		clock:             time.Now,
		commands:          make(chan command, cfg.CommandQueue),
		history:           NewHourlyHistory(24 * 14),
		prevBuildingLoads: map[string]float64{},
		lastSlotResolved:  map[string]slotStamp{},
	}
	initial := &Snapshot{TakenAt: time.Time{}, Grid: model.GridState{Available: true}}
	e.snapshot.Store(initial)
	return e, nil
}

// SetClock overrides the time source, for tests.
func (e *Engine) SetClock(clock func() time.Time) { e.clock = clock }

// SetForecaster installs the load forecaster. Call before Run.
func (e *Engine) SetForecaster(fc *forecast.Adapter) { e.fc = fc }

// Tracker exposes the prediction tracker for the analytics layer.
func (e *Engine) Tracker() *analytics.Tracker { return e.tracker }

// Snapshot returns the latest published snapshot.
func (e *Engine) Snapshot() *Snapshot { return e.snapshot.Load() }

// GridStatus returns the grid state as of the last tick.
func (e *Engine) GridStatus() model.GridState { return e.snapshot.Load().Grid }

// RiskySchedules exposes the risk model's high-cancellation slots.
func (e *Engine) RiskySchedules(minRate float64) []occupancy.RoomRisk {
	return e.risk.RiskySchedules(minRate)
}

// AutonomousLogs queries the action log over the trailing number of hours.
func (e *Engine) AutonomousLogs(ctx context.Context, hours int, action *model.ActionType, roomID, buildingID string) ([]model.ActionEntry, error) {
	now := e.clock()
	return e.store.Entries(ctx, actionlog.Query{
		Start:      now.Add(-time.Duration(hours) * time.Hour),
		End:        now,
		Action:     action,
		RoomID:     roomID,
		BuildingID: buildingID,
	})
}

// TrainForecaster retrains the load model off the tick path.
func (e *Engine) TrainForecaster(ctx context.Context, hoursBack int) error {
	if e.fc == nil {
		return forecast.ErrModelNotReady
	}
	return e.fc.Train(ctx, hoursBack)
}

// ModelInfo returns metadata for the installed forecast model.
func (e *Engine) ModelInfo() (forecast.ModelInfo, error) {
	if e.fc == nil {
		return forecast.ModelInfo{}, forecast.ErrModelNotReady
	}
	return e.fc.ModelInfo()
}

// Run executes the tick loop until the context is cancelled. If a tick
// overruns the interval the next tick is skipped rather than queued.
func (e *Engine) Run(ctx context.Context) {
	interval := e.cfg.TickInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	e.loop(ctx, ticker.C, interval)
}

func (e *Engine) loop(ctx context.Context, ticks <-chan time.Time, interval time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			start := e.clock()
			e.RunTick(start)
			if e.clock().Sub(start) > interval {
				// Drop the tick that accumulated while we were busy.
				select {
				case <-ticks:
					ticksSkipped.Inc()
					e.log.Warnf("tick overran %v, skipping next cycle", interval)
				default:
				}
			}
		}
	}
}

// RunTick executes one full evaluation cycle at the given time. Sub-steps
// are isolated: a failing step degrades its own output and the cycle
// continues.
func (e *Engine) RunTick(now time.Time) *Snapshot {
	started := time.Now()
	prev := e.snapshot.Load()
	next := &Snapshot{TakenAt: now, Grid: prev.Grid}

	// External events apply only at the tick boundary.
	grid, overrides := e.drainCommands()
	if grid != nil && grid.available != next.Grid.Available {
		next.Grid = model.GridState{Available: grid.available, Reason: grid.reason, ChangedAt: now}
		e.log.Infof("grid availability changed to %t: %s", grid.available, grid.reason)
	}
	next.SolarFactor = policy.SolarFactor(now)
	next.Buildings = e.dir.Buildings()

	var actions []model.ActionEntry
	e.step("simulate", func() {
		next.Rooms = e.simulate(prev, now, overrides)
	})
	e.step("risk", func() {
		e.resolveSlots(next.Rooms, now)
	})
	e.step("policy", func() {
		actions = append(actions, e.applyPolicy(prev, next, now)...)
	})
	e.step("cutoff", func() {
		actions = append(actions, e.applyCutoffs(next, now)...)
	})
	e.step("spike", func() {
		actions = append(actions, e.detectSpikes(next, now)...)
	})

	total := 0.0
	optimized := 0
	for _, r := range next.Rooms {
		total += r.CurrentLoadKW
		if r.Optimized {
			optimized++
		}
	}
	next.CampusLoadKW = math.Round(total*1000) / 1000
	next.OptimizedRooms = optimized

	e.step("forecast", func() {
		actions = append(actions, e.applyForecast(next, now)...)
	})

	e.step("log", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		for _, a := range actions {
			// Decisions stand even when the append ultimately fails.
			_ = e.store.Append(ctx, a)
			actionsEmitted.WithLabelValues(a.Action.String()).Inc()
			if err := e.sink.RecordAction(a); err != nil {
				e.log.Errorf("action sink error: %v", err)
			}
		}
	})

	e.history.Add(forecast.SamplePoint{
		Time:          now,
		CampusLoadKW:  next.CampusLoadKW,
		OccupancyRate: occupancyRate(next.Rooms),
	})
	e.recordTelemetry(next, now)

	e.snapshot.Store(next)
	ticksProcessed.Inc()
	campusLoad.Set(next.CampusLoadKW)
	tickDuration.Observe(time.Since(started).Seconds())
	if e.bus != nil {
		e.bus.Publish(Event{Tick: now, Actions: actions})
	}
	return next
}

// simulate refreshes occupancy and load for every room while carrying over
// runtime state from the previous snapshot.
func (e *Engine) simulate(prev *Snapshot, now time.Time, overrides map[string]manualOverride) []model.Room {
	structural := e.dir.Rooms()
	prevByID := make(map[string]model.Room, len(prev.Rooms))
	for _, r := range prev.Rooms {
		prevByID[r.ID] = r
	}
	rooms := make([]model.Room, len(structural))
	for i, r := range structural {
		if old, ok := prevByID[r.ID]; ok {
			r.CurrentSource = old.CurrentSource
		} else {
			r.CurrentSource = model.SourceGrid
		}
		reading := e.sim.Sample(r, now)
		r.Occupied = reading.Occupied
		r.CurrentLoadKW = reading.LoadKW
		r.Optimized = false
		if o, ok := overrides[r.ID]; ok {
			r.CurrentLoadKW = applyOverride(r.CurrentLoadKW, o)
		}
		rooms[i] = r
	}
	return rooms
}

// resolveSlots feeds the risk model once per room per scheduled hour.
func (e *Engine) resolveSlots(rooms []model.Room, now time.Time) {
	stamp := slotStamp{day: now.Weekday(), hour: now.Hour()}
	for _, r := range rooms {
		if e.lastSlotResolved[r.ID] == stamp {
			continue
		}
		if sim.OccupancyProbability(r.Type, now) < 0.5 {
			continue // slot not scheduled for this room type
		}
		e.lastSlotResolved[r.ID] = stamp
		e.risk.Observe(r.ID, stamp.day, stamp.hour, !r.Occupied)
	}
}

// applyPolicy re-evaluates source selection and logs only actual changes.
func (e *Engine) applyPolicy(prev, next *Snapshot, now time.Time) []model.ActionEntry {
	res := policy.Select(policy.Input{
		Rooms:       next.Rooms,
		Buildings:   next.Buildings,
		Grid:        next.Grid,
		SolarFactor: next.SolarFactor,
	})
	tickHours := e.cfg.TickInterval().Hours()
	var actions []model.ActionEntry
	for i := range next.Rooms {
		r := &next.Rooms[i]
		newSource, ok := res.Assignments[r.ID]
		if !ok || newSource == r.CurrentSource {
			continue
		}
		// Tariff delta times the load over one tick. Negative when the
		// switch increased cost; logged all the same.
		cost := (r.CurrentSource.CostPerKWh() - newSource.CostPerKWh()) * r.CurrentLoadKW * tickHours
		energy := cost
		at := model.ActionHybridMode
		msg := fmt.Sprintf("room %s switched %s -> %s", r.ID, r.CurrentSource, newSource)
		if newSource == model.SourceDiesel {
			at = model.ActionDemandSpike
			msg = fmt.Sprintf("room %s moved to diesel: %s", r.ID, next.Grid.Reason)
		}
		actions = append(actions, e.newEntry(at, r.ID, r.BuildingID, msg, energy, cost, now, false))
		r.CurrentSource = newSource
	}
	for _, bid := range res.Anomalies {
		msg := fmt.Sprintf("building %s: hybrid enabled with zero solar capacity, defaulting to diesel", bid)
		actions = append(actions, e.newEntry(model.ActionDemandSpike, "", bid, msg, 0, 0, now, true))
	}
	return actions
}

// applyCutoffs powers down unoccupied rooms whose weekly slot has auto
// cutoff armed.
func (e *Engine) applyCutoffs(next *Snapshot, now time.Time) []model.ActionEntry {
	tickHours := e.cfg.TickInterval().Hours()
	var actions []model.ActionEntry
	for i := range next.Rooms {
		r := &next.Rooms[i]
		armed, rate := e.risk.ShouldCutoff(r.ID, now)
		if !armed || r.Occupied {
			continue
		}
		standby := r.BaseLoadKW * e.cfg.StandbyFraction
		if standby < e.cfg.StandbyFloorKW {
			standby = e.cfg.StandbyFloorKW
		}
		if r.CurrentLoadKW <= standby {
			continue
		}
		savedKWh := (r.CurrentLoadKW - standby) * tickHours
		cost := savedKWh * r.CurrentSource.CostPerKWh()
		msg := fmt.Sprintf("room %s cut to standby, learned cancellation rate %.0f%%", r.ID, rate*100)
		actions = append(actions, e.newEntry(model.ActionPowerCutoff, r.ID, r.BuildingID, msg, savedKWh, cost, now, false))
		r.CurrentLoadKW = standby
		r.Optimized = true
	}
	return actions
}

// detectSpikes flags building-level load jumps between consecutive ticks.
func (e *Engine) detectSpikes(next *Snapshot, now time.Time) []model.ActionEntry {
	loads := next.buildingLoads()
	var actions []model.ActionEntry
	for _, b := range next.Buildings {
		cur := loads[b.ID]
		prev, seen := e.prevBuildingLoads[b.ID]
		e.prevBuildingLoads[b.ID] = cur
		if !seen {
			continue
		}
		if inc := cur - prev; inc > e.cfg.DemandSpikeKW {
			msg := fmt.Sprintf("building %s demand spike: +%.2f kW (threshold %.1f kW)", b.ID, inc, e.cfg.DemandSpikeKW)
			actions = append(actions, e.newEntry(model.ActionDemandSpike, "", b.ID, msg, 0, 0, now, false))
		}
	}
	return actions
}

// applyForecast records the prediction, resolves elapsed ones and emits the
// advisory PREDICTIVE_SWITCH when the forecast crosses the high-water mark.
// A missing model skips this step without failing the tick.
func (e *Engine) applyForecast(next *Snapshot, now time.Time) []model.ActionEntry {
	if e.fc == nil {
		return nil
	}
	e.tracker.Resolve(now, next.CampusLoadKW)
	f := forecast.Features{
		Hour:          now.Hour(),
		DayOfWeek:     now.Weekday(),
		IsWeekend:     now.Weekday() == time.Saturday || now.Weekday() == time.Sunday,
		OccupancyRate: occupancyRate(next.Rooms),
		LastLoadKW:    next.CampusLoadKW,
	}
	hf, err := e.fc.PredictNextHour(now, f)
	if err != nil {
		e.log.Debugf("forecast unavailable: %v", err)
		return nil
	}
	e.tracker.Record(model.PredictionRecord{Timestamp: now, Horizon: time.Hour, PredictedLoad: hf.ValueKW})

	capacity := campusCapacity(next.Rooms)
	if capacity <= 0 || hf.ValueKW <= e.cfg.ForecastHighWaterPct*capacity {
		return nil
	}
	msg := fmt.Sprintf("predicted load %.1f kW will exceed %.0f%% of campus capacity (%.1f kW) within the hour",
		hf.ValueKW, e.cfg.ForecastHighWaterPct*100, capacity)
	// Advisory only: the entry does not change any room's source.
	return []model.ActionEntry{e.newEntry(model.ActionPredictiveSwitch, "", "", msg, 0, 0, now, false)}
}

func (e *Engine) recordTelemetry(next *Snapshot, now time.Time) {
	readings := make([]metrics.RoomTelemetry, len(next.Rooms))
	for i, r := range next.Rooms {
		readings[i] = metrics.RoomTelemetry{
			RoomID:     r.ID,
			BuildingID: r.BuildingID,
			Source:     r.CurrentSource,
			LoadKW:     r.CurrentLoadKW,
			Occupied:   r.Occupied,
			Optimized:  r.Optimized,
			Time:       now,
		}
	}
	if err := e.sink.RecordTelemetry(readings); err != nil {
		e.log.Errorf("telemetry sink error: %v", err)
	}
}

func (e *Engine) newEntry(at model.ActionType, roomID, buildingID, msg string, energy, cost float64, now time.Time, anomaly bool) model.ActionEntry {
	return model.ActionEntry{
		ID:             uuid.NewString(),
		Timestamp:      now,
		Action:         at,
		RoomID:         roomID,
		BuildingID:     buildingID,
		Message:        msg,
		EnergySavedKWh: energy,
		CostSaved:      cost,
		ConfigAnomaly:  anomaly,
	}
}

// step isolates one tick sub-step; a panic degrades that step's output
// instead of aborting the cycle.
func (e *Engine) step(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorf("tick step %s failed: %v", name, r)
		}
	}()
	fn()
}

func occupancyRate(rooms []model.Room) float64 {
	if len(rooms) == 0 {
		return 0
	}
	occ := 0
	for _, r := range rooms {
		if r.Occupied {
			occ++
		}
	}
	return float64(occ) / float64(len(rooms))
}

// campusCapacity is the aggregate draw if every room ran flat out.
func campusCapacity(rooms []model.Room) float64 {
	total := 0.0
	for _, r := range rooms {
		total += r.BaseLoadKW + r.EquipmentLoadKW
	}
	return total
}

// History exposes the hourly aggregates used to train the forecaster.
func (e *Engine) History() *HourlyHistory { return e.history }
