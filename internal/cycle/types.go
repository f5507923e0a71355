package cycle

import (
	"fmt"
	"time"

	"github.com/snowsensor/snownode/internal/sensor"
	"github.com/snowsensor/snownode/internal/wireless"
)

// Stage names the step of a cycle that failed.
type Stage int

const (
	StageNone Stage = iota
	StageJoin
	StageUpdate
	StageSense
	StageReport
)

// String returns a human-readable name for the stage
func (s Stage) String() string {
	switch s {
	case StageNone:
		return ""
	case StageJoin:
		return "join"
	case StageUpdate:
		return "update"
	case StageSense:
		return "sense"
	case StageReport:
		return "report"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Outcome is the result of one cycle. Err == nil and !Restart is success.
type Outcome struct {
	ID    string // correlation id
	Stage Stage  // failing stage, StageNone on success
	Err   error

	// Restart is set when an update was applied; sense and report did not run.
	Restart bool

	Network wireless.NetworkInfo
	Reading sensor.Reading
}

// Success reports whether the cycle reported a reading.
func (o Outcome) Success() bool {
	return o.Err == nil && !o.Restart
}

// SleepMode selects how the node waits for the next cycle.
type SleepMode int

const (
	// Loop sleeps in-process and starts the next cycle at Joining.
	Loop SleepMode = iota
	// DeepSleepReboot arms a wake timer and halts; the next cycle starts
	// from power-on.
	DeepSleepReboot
)

// String returns a human-readable name for the mode
func (m SleepMode) String() string {
	switch m {
	case Loop:
		return "loop"
	case DeepSleepReboot:
		return "deep_sleep"
	default:
		return fmt.Sprintf("SleepMode(%d)", int(m))
	}
}

// SleepPolicy is how long and how deeply to sleep between cycles.
type SleepPolicy struct {
	Mode     SleepMode
	Interval time.Duration
}

// FaultPolicy decides what a deployed node does after a faulted cycle.
type FaultPolicy int

const (
	// HaltOnFault stops after signalling; recovery needs a person or watchdog.
	HaltOnFault FaultPolicy = iota
	// SleepThenRetryOnFault applies the SleepPolicy as if the cycle succeeded.
	SleepThenRetryOnFault
)

// String returns a human-readable name for the policy
func (p FaultPolicy) String() string {
	switch p {
	case HaltOnFault:
		return "halt"
	case SleepThenRetryOnFault:
		return "sleep_then_retry"
	default:
		return fmt.Sprintf("FaultPolicy(%d)", int(p))
	}
}

// ActionKind is the terminal action of Run.
type ActionKind int

const (
	// ActionStop ends the process.
	ActionStop ActionKind = iota
	// ActionDeepSleep arms the wake timer for Interval and powers off.
	ActionDeepSleep
	// ActionReset restarts the device so updated files are loaded.
	ActionReset
)

// String returns a human-readable name for the kind
func (k ActionKind) String() string {
	switch k {
	case ActionStop:
		return "stop"
	case ActionDeepSleep:
		return "deep_sleep"
	case ActionReset:
		return "reset"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(k))
	}
}

// Action is what the process must do after Run returns. It is executed by
// the caller, never by the cycle itself, so no in-memory state is carried
// across a deep sleep or reset.
type Action struct {
	Kind     ActionKind
	Interval time.Duration // ActionDeepSleep only

	// Last is the outcome of the final cycle that ran, if any.
	Last Outcome
}
