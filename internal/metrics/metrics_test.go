package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveCycle(t *testing.T) {
	r := New("")
	now := time.Unix(1700000000, 0)

	r.ObserveCycle(ResultSuccess, "", 2*time.Second, now)
	r.ObserveCycle(ResultFault, "join", time.Second, now.Add(time.Minute))
	r.ObserveCycle(ResultFault, "join", time.Second, now.Add(time.Minute))

	if got := testutil.ToFloat64(r.cycles.WithLabelValues(ResultSuccess, "")); got != 1 {
		t.Errorf("success cycles = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.cycles.WithLabelValues(ResultFault, "join")); got != 2 {
		t.Errorf("join faults = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.lastSuccess); got != 1700000000 {
		t.Errorf("last success = %v, want only the successful cycle", got)
	}
	if n := testutil.CollectAndCount(r.cycleDuration); n != 1 {
		t.Errorf("duration histogram series = %d, want 1", n)
	}
}

func TestObserveReading(t *testing.T) {
	r := New("")
	r.ObserveReading(22.5, 47)
	r.ObserveJoinPolls(30)

	if got := testutil.ToFloat64(r.temperature); got != 22.5 {
		t.Errorf("temperature = %v", got)
	}
	if got := testutil.ToFloat64(r.humidity); got != 47 {
		t.Errorf("humidity = %v", got)
	}
	if got := testutil.ToFloat64(r.joinPolls); got != 30 {
		t.Errorf("join polls = %v", got)
	}
}

func TestFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snownode.prom")
	r := New(path)
	r.ObserveReading(20, 50)

	if err := r.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "snownode_temperature_celsius 20") {
		t.Errorf("textfile missing temperature:\n%s", data)
	}
}

func TestFlushDisabled(t *testing.T) {
	if err := New("").Flush(); err != nil {
		t.Errorf("Flush() error = %v", err)
	}
}
