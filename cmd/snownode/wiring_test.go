package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap/zaptest"

	"github.com/snowsensor/snownode/internal/config"
	"github.com/snowsensor/snownode/internal/cycle"
	"github.com/snowsensor/snownode/internal/power"
	"github.com/snowsensor/snownode/internal/report"
	"github.com/snowsensor/snownode/internal/sensor"
	"github.com/snowsensor/snownode/internal/ui"
)

func TestCycleConfig(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(*config.Config)
		once         bool
		bootRan      bool
		wantDeployed bool
		wantMode     cycle.SleepMode
		wantFault    cycle.FaultPolicy
	}{
		{
			name:      "bench defaults",
			wantMode:  cycle.Loop,
			wantFault: cycle.HaltOnFault,
		},
		{
			name: "deployed deep sleep retry",
			mutate: func(c *config.Config) {
				c.Cycle.Deployed = true
				c.Cycle.DeepSleep = true
				c.Cycle.FaultPolicy = config.FaultSleepThenRetry
			},
			bootRan:      true,
			wantDeployed: true,
			wantMode:     cycle.DeepSleepReboot,
			wantFault:    cycle.SleepThenRetryOnFault,
		},
		{
			name:      "once overrides deployed",
			mutate:    func(c *config.Config) { c.Cycle.Deployed = true },
			once:      true,
			wantMode:  cycle.Loop,
			wantFault: cycle.HaltOnFault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Template()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			n := &node{id: "aabbccddeeff", manifest: manifestFor(cfg)}

			got := cycleConfig(cfg, n, tt.once, tt.bootRan)

			if got.Deployed != tt.wantDeployed {
				t.Errorf("Deployed = %v, want %v", got.Deployed, tt.wantDeployed)
			}
			if got.Sleep.Mode != tt.wantMode {
				t.Errorf("Sleep.Mode = %v, want %v", got.Sleep.Mode, tt.wantMode)
			}
			if got.Sleep.Interval != 300*time.Second {
				t.Errorf("Sleep.Interval = %v, want 5m0s", got.Sleep.Interval)
			}
			if got.Fault != tt.wantFault {
				t.Errorf("Fault = %v, want %v", got.Fault, tt.wantFault)
			}
			if got.FirstCycleSkipsUpdate != tt.bootRan {
				t.Errorf("FirstCycleSkipsUpdate = %v, want %v", got.FirstCycleSkipsUpdate, tt.bootRan)
			}
			if got.Identity != "aabbccddeeff" || got.SSID != cfg.WiFi.SSID {
				t.Errorf("identity/ssid = %q/%q", got.Identity, got.SSID)
			}
		})
	}
}

func TestManifestFor(t *testing.T) {
	cfg := config.Template()
	if m := manifestFor(cfg); m != nil {
		t.Fatalf("manifestFor() = %+v with OTA disabled, want nil", m)
	}

	cfg.OTA.Enabled = true
	cfg.OTA.Owner = "snowsensor"
	cfg.OTA.Repo = "firmware"
	m := manifestFor(cfg)
	if m == nil {
		t.Fatal("manifestFor() = nil with OTA enabled")
	}
	if m.Repository.String() != "snowsensor/firmware@main" {
		t.Errorf("repository = %s", m.Repository)
	}
	if m.InstallDir != "/opt/snownode" || len(m.Files) != 1 || m.Files[0] != "snownode" {
		t.Errorf("manifest = %+v", m)
	}
}

func TestActivityOutput(t *testing.T) {
	cfg := config.Template()

	out, err := activityOutput(cfg)
	if err != nil || out != nil {
		t.Fatalf("activityOutput() = %v, %v, want nil, nil", out, err)
	}

	cfg.Indicator.ActivityLED = "ACT"
	out, err = activityOutput(cfg)
	if err != nil {
		t.Fatalf("activityOutput() error = %v", err)
	}
	if out.Name() != "led:ACT" {
		t.Errorf("Name() = %q, want led:ACT", out.Name())
	}
}

func TestFaultOutputsLEDs(t *testing.T) {
	cfg := config.Template()
	cfg.Indicator.FaultPins = nil
	cfg.Indicator.FaultLEDs = []string{"PWR", "ACT"}

	outs, err := faultOutputs(cfg)
	if err != nil {
		t.Fatalf("faultOutputs() error = %v", err)
	}
	if len(outs) != 2 || outs[0].Name() != "led:PWR" || outs[1].Name() != "led:ACT" {
		t.Errorf("outputs = %v", outs)
	}
}

func TestNewReporterFixedURL(t *testing.T) {
	cfg := config.Template()
	cfg.Webhook.Payload = config.PayloadScalar

	r, ok := newReporter(cfg, zaptest.NewLogger(t)).(*report.Reporter)
	if !ok {
		t.Fatal("newReporter() with a URL did not return *report.Reporter")
	}
	if r.URL != cfg.Webhook.URL || r.Shape != report.ShapeScalar || r.DeviceHeader != cfg.Webhook.DeviceHeader {
		t.Errorf("reporter = %+v", r)
	}
}

func TestCollectorReporterDiscovers(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/hooks/snow" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	host, portStr, _ := net.SplitHostPort(u.Host)
	port, _ := strconv.Atoi(portStr)

	cfg := config.Template()
	cfg.Webhook.URL = ""
	cfg.Webhook.Discover = true

	rep, ok := newReporter(cfg, zaptest.NewLogger(t)).(*collectorReporter)
	if !ok {
		t.Fatal("newReporter() without a URL did not return *collectorReporter")
	}

	browses := 0
	rep.scanner.Browse = func(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
		browses++
		if service != "_snownode._tcp" {
			t.Errorf("service = %q", service)
		}
		entries <- &zeroconf.ServiceEntry{
			ServiceRecord: zeroconf.ServiceRecord{Instance: "collector"},
			Port:          port,
			AddrIPv4:      []net.IP{net.ParseIP(host)},
			Text:          []string{"path=/hooks/snow"},
		}
		return nil
	}

	reading := sensor.Reading{Celsius: -3.5, Temperature: -3.5, Unit: sensor.Celsius, Humidity: 91}
	for i := 0; i < 2; i++ {
		if err := rep.Report(context.Background(), "aabbccddeeff", reading); err != nil {
			t.Fatalf("Report() #%d error = %v", i+1, err)
		}
	}

	if browses != 1 {
		t.Errorf("browses = %d, want 1 (URL cached)", browses)
	}
	if got["device_id"] != "aabbccddeeff" {
		t.Errorf("body = %v", got)
	}
}

func TestCollectorReporterNotFound(t *testing.T) {
	cfg := config.Template()
	cfg.Webhook.URL = ""
	cfg.Webhook.Discover = true
	cfg.Webhook.DiscoverTimeout = 10 * time.Millisecond

	rep := newReporter(cfg, zaptest.NewLogger(t)).(*collectorReporter)
	rep.scanner.Browse = func(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
		return nil
	}

	err := rep.Report(context.Background(), "aabbccddeeff", sensor.Reading{})
	if err == nil {
		t.Fatal("Report() error = nil, want discovery error")
	}
}

func TestExecute(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name       string
		action     cycle.Action
		wantReboot []power.Kind
		wantErr    bool
	}{
		{name: "stop after success", action: cycle.Action{Kind: cycle.ActionStop}},
		{
			name:    "stop after fault",
			action:  cycle.Action{Kind: cycle.ActionStop, Last: cycle.Outcome{Stage: cycle.StageReport, Err: boom}},
			wantErr: true,
		},
		{name: "reset", action: cycle.Action{Kind: cycle.ActionReset}, wantReboot: []power.Kind{power.Restart}},
		{
			name:       "deep sleep",
			action:     cycle.Action{Kind: cycle.ActionDeepSleep, Interval: time.Minute},
			wantReboot: []power.Kind{power.PowerOff},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rtc := t.TempDir()
			if err := os.WriteFile(filepath.Join(rtc, "wakealarm"), nil, 0o644); err != nil {
				t.Fatal(err)
			}

			var reboots []power.Kind
			pc := power.NewController(rtc, zaptest.NewLogger(t))
			pc.Reboot = func(k power.Kind) error {
				reboots = append(reboots, k)
				return nil
			}
			n := &node{power: pc, logger: zaptest.NewLogger(t)}

			err := n.execute(tt.action)

			if (err != nil) != tt.wantErr {
				t.Errorf("execute() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(reboots) != len(tt.wantReboot) {
				t.Fatalf("reboots = %v, want %v", reboots, tt.wantReboot)
			}
			for i := range reboots {
				if reboots[i] != tt.wantReboot[i] {
					t.Errorf("reboots = %v, want %v", reboots, tt.wantReboot)
				}
			}
		})
	}
}

type fakeBootStage struct {
	restart bool
	err     error
}

func (f fakeBootStage) Run(context.Context) (bool, error) { return f.restart, f.err }

type closeCounter struct{ closed int }

func (c *closeCounter) Close() error {
	c.closed++
	return nil
}

func TestRunBoot(t *testing.T) {
	tests := []struct {
		name          string
		stage         fakeBootStage
		wantRan       bool
		wantRestarted bool
		wantClosed    int
		wantReboot    []power.Kind
	}{
		{name: "no update", stage: fakeBootStage{}, wantRan: true},
		{name: "join failed", stage: fakeBootStage{err: errors.New("join timeout")}},
		{
			name:          "update applied",
			stage:         fakeBootStage{restart: true},
			wantRestarted: true,
			wantClosed:    1,
			wantReboot:    []power.Kind{power.Restart},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reboots []power.Kind
			pc := power.NewController(t.TempDir(), zaptest.NewLogger(t))
			pc.Reboot = func(k power.Kind) error {
				reboots = append(reboots, k)
				return nil
			}
			bus := &closeCounter{}
			n := &node{power: pc, closers: []io.Closer{bus}, logger: zaptest.NewLogger(t)}

			ran, restarted, err := n.runBoot(context.Background(), tt.stage)
			if err != nil {
				t.Fatalf("runBoot() error = %v", err)
			}
			if ran != tt.wantRan || restarted != tt.wantRestarted {
				t.Errorf("runBoot() = (%v, %v), want (%v, %v)", ran, restarted, tt.wantRan, tt.wantRestarted)
			}
			if bus.closed != tt.wantClosed {
				t.Errorf("bus closed %d times, want %d", bus.closed, tt.wantClosed)
			}
			if len(reboots) != len(tt.wantReboot) {
				t.Fatalf("reboots = %v, want %v", reboots, tt.wantReboot)
			}
		})
	}
}

func TestCheckTasksSkipWithoutHardware(t *testing.T) {
	cfg := config.Default()
	cfg.OTA.Enabled = false
	cfg.TimeSource.Enabled = false

	tasks := checkTasks(cfg, zaptest.NewLogger(t))
	byName := map[string]ui.Task{}
	for _, task := range tasks {
		byName[task.Name] = task
	}

	for _, name := range []string{"Sensor", "Time source", "OTA"} {
		task, ok := byName[name]
		if !ok {
			t.Fatalf("no %q task", name)
		}
		if got := task.Run(context.Background()); got.Status != ui.CheckSkipped {
			t.Errorf("%s status = %v, want skipped (%q)", name, got.Status, got.Detail)
		}
	}
}

func TestCheckResult(t *testing.T) {
	if got := checkResult("ok", nil); got.Status != ui.CheckPassed || got.Detail != "ok" {
		t.Errorf("checkResult(nil) = %+v", got)
	}
	if got := checkResult("", errors.New("bus dead")); got.Status != ui.CheckFailed || got.Detail != "bus dead" {
		t.Errorf("checkResult(err) = %+v", got)
	}
}
