package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/snowsensor/snownode/internal/board"
	"github.com/snowsensor/snownode/internal/config"
	"github.com/snowsensor/snownode/internal/cycle"
	"github.com/snowsensor/snownode/internal/discovery"
	"github.com/snowsensor/snownode/internal/identity"
	"github.com/snowsensor/snownode/internal/indicator"
	"github.com/snowsensor/snownode/internal/logging"
	"github.com/snowsensor/snownode/internal/metrics"
	"github.com/snowsensor/snownode/internal/ota"
	"github.com/snowsensor/snownode/internal/power"
	"github.com/snowsensor/snownode/internal/report"
	"github.com/snowsensor/snownode/internal/sensor"
	"github.com/snowsensor/snownode/internal/timesource"
	"github.com/snowsensor/snownode/internal/ui"
	"github.com/snowsensor/snownode/internal/wireless"
)

// node holds every component built from the configuration. Optional
// collaborators are interface-typed and left nil when disabled.
type node struct {
	id       identity.ID
	manifest *ota.Manifest

	joiner   *wireless.Joiner
	reader   *sensor.Reader
	reporter cycle.Reporter
	blinker  *indicator.Blinker
	updater  cycle.Updater
	clock    cycle.TimeSource
	activity cycle.Activity
	metrics  *metrics.Recorder
	power    *power.Controller

	closers []io.Closer
	logger  *zap.Logger
}

func buildNode(cfg *config.Config, logger *zap.Logger) (*node, error) {
	if err := board.Init(logger); err != nil {
		return nil, err
	}

	id, err := identity.DefaultSource().Derive(cfg.Device.IdentityInterface, cfg.Device.MachineIDPath)
	if err != nil {
		return nil, err
	}

	n := &node{
		id:       id,
		manifest: manifestFor(cfg),
		metrics:  metrics.New(cfg.Metrics.Textfile),
		power:    power.NewController(cfg.Cycle.RTCDevice, logger),
		logger:   logger,
	}

	n.joiner = newJoiner(cfg, logger)

	reader, bus, err := openSensor(cfg, logger)
	if err != nil {
		return nil, err
	}
	n.reader = reader
	n.closers = append(n.closers, bus)

	outs, err := faultOutputs(cfg)
	if err != nil {
		n.Close()
		return nil, err
	}
	n.blinker = indicator.NewBlinker(outs, logger)
	n.blinker.Count = cfg.Indicator.BlinkCount
	n.blinker.OnFor = cfg.Indicator.BlinkOn
	n.blinker.OffFor = cfg.Indicator.BlinkOff

	act, err := activityOutput(cfg)
	if err != nil {
		n.Close()
		return nil, err
	}
	if act != nil {
		n.activity = indicator.NewActivity(act, logger)
	}

	n.reporter = newReporter(cfg, logger)

	if cfg.TimeSource.Enabled {
		clock := timesource.New(cfg.TimeSource.URL, cfg.TimeSource.Timeout)
		clock.Field = cfg.TimeSource.Field
		n.clock = clock
	}

	if n.manifest != nil {
		n.updater = ota.NewChecker(ota.NewRepoSync(cfg.OTA.BaseURL, cfg.OTA.Timeout, logger), logger)
	}

	return n, nil
}

func (n *node) deps() cycle.Deps {
	return cycle.Deps{
		Joiner:     n.joiner,
		Updater:    n.updater,
		Sensor:     n.reader,
		Reporter:   n.reporter,
		Indicator:  n.blinker,
		TimeSource: n.clock,
		Activity:   n.activity,
		Metrics:    n.metrics,
	}
}

// Close releases the buses. Errors are logged only.
func (n *node) Close() {
	for _, c := range n.closers {
		if err := c.Close(); err != nil {
			logging.OrNop(n.logger).Debug("close failed", zap.Error(err))
		}
	}
	n.closers = nil
}

type bootStage interface {
	Run(ctx context.Context) (restart bool, err error)
}

// runBoot runs the boot stage. A failed stage is logged and left for the
// first cycle to retry. An applied update resets the node.
func (n *node) runBoot(ctx context.Context, stage bootStage) (ran, restarted bool, err error) {
	restart, err := stage.Run(ctx)
	switch {
	case err != nil:
		n.logger.Warn("boot stage failed, first cycle will retry", zap.Error(err))
		return false, false, nil
	case restart:
		return false, true, n.execute(cycle.Action{Kind: cycle.ActionReset})
	}
	return true, false, nil
}

// execute performs the terminal action. Deep sleep and reset do not return
// on success.
func (n *node) execute(a cycle.Action) error {
	switch a.Kind {
	case cycle.ActionReset:
		n.Close()
		return n.power.Reset()
	case cycle.ActionDeepSleep:
		n.Close()
		return n.power.DeepSleep(a.Interval)
	}

	if a.Last.Err != nil {
		return fmt.Errorf("cycle %s failed at %s: %w", a.Last.ID, a.Last.Stage, a.Last.Err)
	}
	return nil
}

func cycleConfig(cfg *config.Config, n *node, once, bootRan bool) cycle.Config {
	c := cycle.Config{
		Identity:              n.id,
		SSID:                  cfg.WiFi.SSID,
		Passphrase:            cfg.WiFi.Password,
		Manifest:              n.manifest,
		Deployed:              cfg.Cycle.Deployed && !once,
		Sleep:                 cycle.SleepPolicy{Mode: cycle.Loop, Interval: cfg.Cycle.Interval()},
		Fault:                 cycle.HaltOnFault,
		FirstCycleSkipsUpdate: bootRan,
	}
	if cfg.Cycle.DeepSleep {
		c.Sleep.Mode = cycle.DeepSleepReboot
	}
	if cfg.Cycle.FaultPolicy == config.FaultSleepThenRetry {
		c.Fault = cycle.SleepThenRetryOnFault
	}
	return c
}

func manifestFor(cfg *config.Config) *ota.Manifest {
	if !cfg.OTA.Enabled {
		return nil
	}
	return &ota.Manifest{
		Repository: ota.Repository{
			Owner:  cfg.OTA.Owner,
			Name:   cfg.OTA.Repo,
			Branch: cfg.OTA.Branch,
		},
		WorkingDir:    cfg.OTA.WorkingDir,
		Files:         cfg.OTA.Files,
		InstallDir:    cfg.OTA.InstallDir,
		ChecksumsFile: cfg.OTA.ChecksumsFile,
	}
}

func newJoiner(cfg *config.Config, logger *zap.Logger) *wireless.Joiner {
	j := wireless.NewJoiner(wireless.NewSupplicant(cfg.WiFi.Interface, cfg.WiFi.ControlSocket), logger)
	j.Attempts = cfg.WiFi.JoinAttempts
	j.PollInterval = cfg.WiFi.PollInterval
	return j
}

func openSensor(cfg *config.Config, logger *zap.Logger) (*sensor.Reader, io.Closer, error) {
	bus, err := board.OpenI2C(cfg.Sensor.Bus)
	if err != nil {
		return nil, nil, err
	}

	var driver sensor.Driver
	switch cfg.Sensor.Model {
	case config.ModelSHTC3:
		driver = sensor.NewSHTC3(bus)
	default:
		driver = sensor.NewAHT20(bus, cfg.Sensor.Address)
	}

	r := sensor.NewReader(driver, cfg.Sensor.Fahrenheit, logger)
	r.WarmUpDelay = cfg.Sensor.WarmUp
	return r, bus, nil
}

func faultOutputs(cfg *config.Config) ([]indicator.Output, error) {
	var outs []indicator.Output
	for _, name := range cfg.Indicator.FaultPins {
		pin, err := board.Pin(name)
		if err != nil {
			return nil, err
		}
		outs = append(outs, indicator.NewGPIOOutput(pin))
	}
	for _, led := range cfg.Indicator.FaultLEDs {
		outs = append(outs, indicator.NewSysfsLED(cfg.Indicator.LEDSysfsRoot, led))
	}
	return outs, nil
}

// activityOutput returns nil when no activity output is configured.
func activityOutput(cfg *config.Config) (indicator.Output, error) {
	switch {
	case cfg.Indicator.ActivityPin != "":
		pin, err := board.Pin(cfg.Indicator.ActivityPin)
		if err != nil {
			return nil, err
		}
		return indicator.NewGPIOOutput(pin), nil
	case cfg.Indicator.ActivityLED != "":
		return indicator.NewSysfsLED(cfg.Indicator.LEDSysfsRoot, cfg.Indicator.ActivityLED), nil
	}
	return nil, nil
}

func newReporter(cfg *config.Config, logger *zap.Logger) cycle.Reporter {
	r := report.NewReporter(cfg.Webhook.URL, logger)
	r.DeviceHeader = cfg.Webhook.DeviceHeader
	r.Shape = report.Shape(cfg.Webhook.Payload)
	r.SetTimeout(cfg.Webhook.Timeout)

	if cfg.Webhook.URL != "" {
		return r
	}
	return &collectorReporter{reporter: r, scanner: newScanner(cfg, logger), logger: logging.OrNop(logger)}
}

func newScanner(cfg *config.Config, logger *zap.Logger) *discovery.Scanner {
	s := discovery.NewScanner(logger)
	s.Service = cfg.Webhook.DiscoverService
	s.Timeout = cfg.Webhook.DiscoverTimeout
	return s
}

// collectorReporter resolves the webhook URL over mDNS on first use, and
// again after a transport failure.
type collectorReporter struct {
	reporter *report.Reporter
	scanner  *discovery.Scanner
	logger   *zap.Logger
}

func (c *collectorReporter) Report(ctx context.Context, id identity.ID, r sensor.Reading) error {
	if c.reporter.URL == "" {
		collector, err := c.scanner.FindCollector(ctx)
		if err != nil {
			return fmt.Errorf("collector discovery: %w", err)
		}
		c.reporter.URL = collector.WebhookURL()
		c.logger.Info("using discovered collector", zap.String("url", c.reporter.URL))
	}

	err := c.reporter.Report(ctx, id, r)
	if report.IsTransport(err) {
		c.reporter.URL = ""
	}
	return err
}

// checkTasks lists the checks run by `snownode check`, in display order.
func checkTasks(cfg *config.Config, logger *zap.Logger) []ui.Task {
	boardReady := false

	return []ui.Task{
		{Name: "Device ID", Run: func(context.Context) ui.Check {
			id, err := identity.DefaultSource().Derive(cfg.Device.IdentityInterface, cfg.Device.MachineIDPath)
			return checkResult(id.String(), err)
		}},
		{Name: "Board", Run: func(context.Context) ui.Check {
			if err := board.Init(logger); err != nil {
				return checkResult("", err)
			}
			boardReady = true
			return checkResult("periph host ready", nil)
		}},
		{Name: "Sensor", Run: func(ctx context.Context) ui.Check {
			if !boardReady {
				return ui.Check{Status: ui.CheckSkipped, Detail: "board not initialized"}
			}
			return checkResult(checkSensor(ctx, cfg, logger))
		}},
		{Name: "wpa_supplicant", Run: func(context.Context) ui.Check {
			station := wireless.NewSupplicant(cfg.WiFi.Interface, cfg.WiFi.ControlSocket)
			if err := station.Activate(); err != nil {
				return checkResult("", err)
			}
			if !station.IsConnected() {
				return checkResult("reachable, not associated", nil)
			}
			info, err := station.Info()
			return checkResult(fmt.Sprintf("%s on %s", info.IP, info.SSID), err)
		}},
		{Name: "Time source", Run: func(ctx context.Context) ui.Check {
			if !cfg.TimeSource.Enabled {
				return ui.Check{Status: ui.CheckSkipped, Detail: "disabled"}
			}
			clock := timesource.New(cfg.TimeSource.URL, cfg.TimeSource.Timeout)
			clock.Field = cfg.TimeSource.Field
			ts, err := clock.Now(ctx)
			return checkResult(fmt.Sprintf("%d", ts), err)
		}},
		{Name: "Collector", Run: func(ctx context.Context) ui.Check {
			switch {
			case cfg.Webhook.URL != "":
				return checkResult(cfg.Webhook.URL, nil)
			case cfg.Webhook.Discover:
				collector, err := newScanner(cfg, logger).FindCollector(ctx)
				if err != nil {
					return checkResult("", err)
				}
				return checkResult(collector.WebhookURL(), nil)
			default:
				return checkResult("", errors.New("no webhook URL configured"))
			}
		}},
		{Name: "OTA", Run: func(context.Context) ui.Check {
			m := manifestFor(cfg)
			if m == nil {
				return ui.Check{Status: ui.CheckSkipped, Detail: "disabled"}
			}
			return checkResult(m.Repository.String(), nil)
		}},
	}
}

func checkResult(detail string, err error) ui.Check {
	if err != nil {
		return ui.Check{Status: ui.CheckFailed, Detail: err.Error()}
	}
	return ui.Check{Status: ui.CheckPassed, Detail: detail}
}

func checkSensor(ctx context.Context, cfg *config.Config, logger *zap.Logger) (string, error) {
	reader, bus, err := openSensor(cfg, logger)
	if err != nil {
		return "", err
	}
	defer bus.Close()

	reading, err := reader.Read(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%.1f°%s, %.0f%% RH", reading.Temperature, reading.Unit, reading.Humidity), nil
}
