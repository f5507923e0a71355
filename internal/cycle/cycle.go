package cycle

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/snowsensor/snownode/internal/identity"
	"github.com/snowsensor/snownode/internal/logging"
	"github.com/snowsensor/snownode/internal/metrics"
	"github.com/snowsensor/snownode/internal/ota"
	"github.com/snowsensor/snownode/internal/sensor"
	"github.com/snowsensor/snownode/internal/wireless"
)

// Joiner brings the network up.
type Joiner interface {
	Join(ctx context.Context, ssid, passphrase string) (wireless.NetworkInfo, error)
}

// Updater checks for and applies firmware updates.
type Updater interface {
	CheckAndApply(ctx context.Context, m ota.Manifest) (ota.Outcome, error)
}

// Sensor acquires readings.
type Sensor interface {
	WarmUp(ctx context.Context)
	Read(ctx context.Context) (sensor.Reading, error)
}

// Reporter delivers a reading.
type Reporter interface {
	Report(ctx context.Context, id identity.ID, r sensor.Reading) error
}

// Indicator signals a terminal fault. It cannot fail.
type Indicator interface {
	SignalFault()
}

// TimeSource supplies Unix seconds for stamping readings.
type TimeSource interface {
	Now(ctx context.Context) (int64, error)
}

// Activity is lit while the node is joining and sensing.
type Activity interface {
	On()
	Off()
}

// Deps are the collaborators of a Cycle. TimeSource, Activity and Metrics
// are optional.
type Deps struct {
	Joiner     Joiner
	Updater    Updater
	Sensor     Sensor
	Reporter   Reporter
	Indicator  Indicator
	TimeSource TimeSource
	Activity   Activity
	Metrics    *metrics.Recorder
}

// Config is the immutable context of a Cycle, built once at process start.
type Config struct {
	Identity   identity.ID
	SSID       string
	Passphrase string

	// Manifest enables the update stage when non-nil.
	Manifest *ota.Manifest

	// Deployed enables sleeping between cycles. Otherwise Run performs
	// exactly one cycle.
	Deployed bool
	Sleep    SleepPolicy
	Fault    FaultPolicy

	// FirstCycleSkipsUpdate skips the update stage on the first cycle, for
	// when the boot stage has already checked.
	FirstCycleSkipsUpdate bool
}

// Cycle is the device operating cycle.
type Cycle struct {
	cfg    Config
	deps   Deps
	logger *zap.Logger

	// Sleep is the in-process wait between loop-mode cycles.
	Sleep func(time.Duration)
	// Now is the wall clock used for metrics.
	Now func() time.Time

	completed int
}

// New validates cfg and deps and returns a Cycle.
func New(cfg Config, deps Deps, logger *zap.Logger) (*Cycle, error) {
	switch {
	case deps.Joiner == nil:
		return nil, errors.New("cycle: joiner is required")
	case deps.Sensor == nil:
		return nil, errors.New("cycle: sensor is required")
	case deps.Reporter == nil:
		return nil, errors.New("cycle: reporter is required")
	case deps.Indicator == nil:
		return nil, errors.New("cycle: indicator is required")
	case cfg.Manifest != nil && deps.Updater == nil:
		return nil, errors.New("cycle: updater is required when a manifest is set")
	case cfg.Deployed && cfg.Sleep.Interval <= 0:
		return nil, errors.New("cycle: sleep interval must be positive")
	}

	return &Cycle{
		cfg:    cfg,
		deps:   deps,
		logger: logging.OrNop(logger),
		Sleep:  time.Sleep,
		Now:    time.Now,
	}, nil
}

// Run performs cycles until a terminal action is reached. The context is
// checked between cycles only; a cycle in progress runs to completion.
func (c *Cycle) Run(ctx context.Context) Action {
	var last Outcome
	for {
		if err := ctx.Err(); err != nil {
			c.logger.Info("stopping", zap.Error(err))
			return Action{Kind: ActionStop, Last: last}
		}

		last = c.RunOnce(ctx)

		if last.Restart {
			return Action{Kind: ActionReset, Last: last}
		}
		if !c.cfg.Deployed {
			return Action{Kind: ActionStop, Last: last}
		}
		if last.Err != nil && c.cfg.Fault == HaltOnFault {
			c.logger.Warn("halting after fault", zap.Stringer("stage", last.Stage))
			return Action{Kind: ActionStop, Last: last}
		}

		if c.cfg.Sleep.Mode == DeepSleepReboot {
			return Action{Kind: ActionDeepSleep, Interval: c.cfg.Sleep.Interval, Last: last}
		}

		c.logger.Info("sleeping until next cycle", zap.Duration("interval", c.cfg.Sleep.Interval))
		c.Sleep(c.cfg.Sleep.Interval)
	}
}

// RunOnce performs a single cycle: join, update (unless skipped), warm-up,
// read, report. The first failing stage ends the cycle, is logged once and
// signalled once on the indicator.
func (c *Cycle) RunOnce(ctx context.Context) (out Outcome) {
	out = Outcome{ID: uuid.NewString()}
	log := c.logger.With(zap.String("cycle_id", out.ID))
	start := c.Now()
	first := c.completed == 0

	defer func() {
		c.completed++
		c.record(out, c.Now().Sub(start), log)
	}()

	log.Debug("cycle started", zap.Int("cycle", c.completed+1))

	c.activityOn()
	info, err := c.deps.Joiner.Join(ctx, c.cfg.SSID, c.cfg.Passphrase)
	c.activityOff()
	if err != nil {
		return c.fault(out, StageJoin, err, log)
	}
	out.Network = info

	if c.cfg.Manifest != nil {
		if first && c.cfg.FirstCycleSkipsUpdate {
			log.Debug("update check skipped on first cycle")
		} else {
			result, err := c.deps.Updater.CheckAndApply(ctx, *c.cfg.Manifest)
			if err != nil {
				return c.fault(out, StageUpdate, err, log)
			}
			if result == ota.OutcomeRestartRequired {
				log.Info("update applied, reset required")
				out.Restart = true
				return out
			}
		}
	}

	c.activityOn()
	c.deps.Sensor.WarmUp(ctx)
	reading, err := c.deps.Sensor.Read(ctx)
	c.activityOff()
	if err != nil {
		return c.fault(out, StageSense, err, log)
	}

	if c.deps.TimeSource != nil {
		ts, err := c.deps.TimeSource.Now(ctx)
		if err != nil {
			return c.fault(out, StageSense, err, log)
		}
		reading.Timestamp = ts
	}
	out.Reading = reading

	if err := c.deps.Reporter.Report(ctx, c.cfg.Identity, reading); err != nil {
		return c.fault(out, StageReport, err, log)
	}

	log.Info("cycle complete",
		zap.Float64("temperature", reading.Temperature),
		zap.String("unit", string(reading.Unit)),
		zap.Float64("humidity", reading.Humidity),
	)
	return out
}

func (c *Cycle) fault(out Outcome, stage Stage, err error, log *zap.Logger) Outcome {
	out.Stage = stage
	out.Err = err
	log.Error("cycle failed", zap.Stringer("stage", stage), zap.Error(err))
	c.deps.Indicator.SignalFault()
	return out
}

func (c *Cycle) record(out Outcome, took time.Duration, log *zap.Logger) {
	m := c.deps.Metrics
	if m == nil {
		return
	}

	result := metrics.ResultSuccess
	switch {
	case out.Restart:
		result = metrics.ResultRestart
	case out.Err != nil:
		result = metrics.ResultFault
	}
	m.ObserveCycle(result, out.Stage.String(), took, c.Now())

	if out.Success() {
		m.ObserveReading(out.Reading.Celsius, out.Reading.Humidity)
	}
	var jErr *wireless.JoinError
	if errors.As(out.Err, &jErr) {
		m.ObserveJoinPolls(jErr.Polls)
	}

	if err := m.Flush(); err != nil {
		log.Warn("metrics not written", zap.Error(err))
	}
}

func (c *Cycle) activityOn() {
	if c.deps.Activity != nil {
		c.deps.Activity.On()
	}
}

func (c *Cycle) activityOff() {
	if c.deps.Activity != nil {
		c.deps.Activity.Off()
	}
}
