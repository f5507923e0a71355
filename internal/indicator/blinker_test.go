package indicator

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// recorder logs every Set call.
type recorder struct {
	name   string
	states []bool
	err    error
	panics bool
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) Set(on bool) error {
	if r.panics {
		panic("driver fault")
	}
	r.states = append(r.states, on)
	return r.err
}

func newTestBlinker(t *testing.T, outs ...Output) (*Blinker, *[]time.Duration) {
	t.Helper()
	var sleeps []time.Duration
	b := NewBlinker(outs, zaptest.NewLogger(t))
	b.Sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return b, &sleeps
}

func TestSignalFaultSequence(t *testing.T) {
	a := &recorder{name: "a"}
	c := &recorder{name: "c"}
	b, sleeps := newTestBlinker(t, a, c)
	b.Count = 3

	b.SignalFault()

	want := []bool{false, true, false, true, false, true, false}
	for _, r := range []*recorder{a, c} {
		if len(r.states) != len(want) {
			t.Fatalf("%s states = %v, want %v", r.name, r.states, want)
		}
		for i := range want {
			if r.states[i] != want[i] {
				t.Errorf("%s states = %v, want %v", r.name, r.states, want)
				break
			}
		}
	}

	wantSleeps := []time.Duration{
		DefaultOffFor, DefaultOnFor,
		DefaultOffFor, DefaultOnFor,
		DefaultOffFor, DefaultOnFor,
	}
	if len(*sleeps) != len(wantSleeps) {
		t.Fatalf("sleeps = %v, want %v", *sleeps, wantSleeps)
	}
	for i := range wantSleeps {
		if (*sleeps)[i] != wantSleeps[i] {
			t.Errorf("sleeps = %v, want %v", *sleeps, wantSleeps)
			break
		}
	}
}

func TestSignalFaultDefaultCount(t *testing.T) {
	r := &recorder{name: "r"}
	b, _ := newTestBlinker(t, r)

	b.SignalFault()

	ons := 0
	for _, s := range r.states {
		if s {
			ons++
		}
	}
	if ons != DefaultBlinkCount {
		t.Errorf("blinks = %d, want %d", ons, DefaultBlinkCount)
	}
}

func TestSignalFaultToleratesBrokenOutputs(t *testing.T) {
	good := &recorder{name: "good"}
	failing := &recorder{name: "failing", err: errors.New("EIO")}
	panicking := &recorder{name: "panicking", panics: true}

	b, _ := newTestBlinker(t, failing, panicking, good)
	b.Count = 2

	b.SignalFault() // must not panic

	if len(good.states) != 5 {
		t.Errorf("good output states = %v, want 5 edges", good.states)
	}
	if good.states[len(good.states)-1] {
		t.Error("good output left on")
	}
}

func TestSignalFaultNoOutputs(t *testing.T) {
	b, sleeps := newTestBlinker(t)
	b.Count = 2
	b.SignalFault()
	if len(*sleeps) != 4 {
		t.Errorf("sleeps = %d, want cadence kept without outputs", len(*sleeps))
	}
}

func TestGPIOOutput(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO17", L: gpio.High}
	o := NewGPIOOutput(pin)

	if o.Name() != "GPIO17" {
		t.Errorf("Name() = %q", o.Name())
	}

	b, _ := newTestBlinker(t, o)
	b.Count = 1
	b.SignalFault()

	if pin.Read() != gpio.Low {
		t.Error("pin left high after fault sequence")
	}

	if err := o.Set(true); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if pin.Read() != gpio.High {
		t.Error("Set(true) did not drive the pin high")
	}
}

func TestSysfsLED(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "ACT")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "trigger"), []byte("mmc0"), 0o644); err != nil {
		t.Fatal(err)
	}

	led := NewSysfsLED(root, "ACT")
	if err := led.Set(true); err != nil {
		t.Fatalf("Set(true) error = %v", err)
	}

	read := func(name string) string {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		return strings.TrimSpace(string(data))
	}

	if got := read("brightness"); got != "1" {
		t.Errorf("brightness = %q, want 1", got)
	}
	if got := read("trigger"); got != "none" {
		t.Errorf("trigger = %q, want none", got)
	}

	if err := led.Set(false); err != nil {
		t.Fatalf("Set(false) error = %v", err)
	}
	if got := read("brightness"); got != "0" {
		t.Errorf("brightness = %q, want 0", got)
	}
}

func TestSysfsLEDMissing(t *testing.T) {
	led := NewSysfsLED(t.TempDir(), "nope")
	if err := led.Set(true); err == nil {
		t.Error("Set() error = nil for missing LED")
	}
}

func TestActivity(t *testing.T) {
	r := &recorder{name: "act"}
	a := NewActivity(r, zaptest.NewLogger(t))
	a.On()
	a.Off()
	if len(r.states) != 2 || !r.states[0] || r.states[1] {
		t.Errorf("states = %v, want [true false]", r.states)
	}

	// nil activity is a no-op
	var none *Activity
	none.On()
	none.Off()
	if NewActivity(nil, nil) != nil {
		t.Error("NewActivity(nil) should be nil")
	}

	p := &recorder{name: "bad", panics: true}
	NewActivity(p, nil).On()
}
