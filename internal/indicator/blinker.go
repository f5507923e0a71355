package indicator

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/snowsensor/snownode/internal/logging"
)

// Fault blink defaults.
const (
	DefaultBlinkCount = 10
	DefaultOnFor      = 500 * time.Millisecond
	DefaultOffFor     = 250 * time.Millisecond
)

// Blinker signals a terminal fault.
type Blinker struct {
	outputs []Output
	logger  *zap.Logger

	Count  int
	OnFor  time.Duration
	OffFor time.Duration

	// Sleep is the blocking wait between edges.
	Sleep func(time.Duration)
}

// NewBlinker creates a Blinker over outputs with the default cadence.
func NewBlinker(outputs []Output, logger *zap.Logger) *Blinker {
	return &Blinker{
		outputs: outputs,
		logger:  logging.OrNop(logger),
		Count:   DefaultBlinkCount,
		OnFor:   DefaultOnFor,
		OffFor:  DefaultOffFor,
		Sleep:   time.Sleep,
	}
}

// SignalFault drives every output off, then blinks Count times, leaving all
// outputs off.
func (b *Blinker) SignalFault() {
	b.logger.Debug("signalling fault",
		zap.Int("outputs", len(b.outputs)),
		zap.Int("count", b.Count),
	)

	b.setAll(false)
	for i := 0; i < b.Count; i++ {
		b.Sleep(b.OffFor)
		b.setAll(true)
		b.Sleep(b.OnFor)
		b.setAll(false)
	}
}

func (b *Blinker) setAll(on bool) {
	for _, o := range b.outputs {
		if err := set(o, on); err != nil {
			b.logger.Debug("indicator output failed", zap.String("output", o.Name()), zap.Error(err))
		}
	}
}

// set calls o.Set, turning a panic into an error.
func set(o Output, on bool) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return o.Set(on)
}

// Activity is an optional output lit while the node is busy.
// A nil *Activity is valid and does nothing.
type Activity struct {
	out    Output
	logger *zap.Logger
}

// NewActivity wraps out. It returns nil when out is nil.
func NewActivity(out Output, logger *zap.Logger) *Activity {
	if out == nil {
		return nil
	}
	return &Activity{out: out, logger: logging.OrNop(logger)}
}

// On lights the output.
func (a *Activity) On() { a.set(true) }

// Off clears the output.
func (a *Activity) Off() { a.set(false) }

func (a *Activity) set(on bool) {
	if a == nil {
		return
	}
	if err := set(a.out, on); err != nil {
		a.logger.Debug("activity output failed", zap.String("output", a.out.Name()), zap.Error(err))
	}
}
