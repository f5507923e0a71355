package wireless

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/snowsensor/snownode/internal/logging"
)

const (
	// DefaultAttempts is the join retry budget: status polls before giving up.
	DefaultAttempts = 30

	// DefaultPollInterval is the delay before each status poll.
	DefaultPollInterval = time.Second
)

// Joiner brings the station up and waits, within a bounded number of
// polls, for it to obtain an address.
type Joiner struct {
	station Station
	logger  *zap.Logger

	// Attempts bounds the number of status polls.
	Attempts int

	// PollInterval is slept before every status poll.
	PollInterval time.Duration

	// Sleep is the blocking wait used between polls.
	Sleep func(time.Duration)
}

// NewJoiner creates a joiner with the default retry budget.
func NewJoiner(station Station, logger *zap.Logger) *Joiner {
	return &Joiner{
		station:      station,
		logger:       logging.OrNop(logger),
		Attempts:     DefaultAttempts,
		PollInterval: DefaultPollInterval,
		Sleep:        time.Sleep,
	}
}

// Join associates with ssid and blocks until the station has an address,
// the station reports a non-transient status, or the retry budget is spent.
// An already associated station is returned as-is without touching the radio.
// The context is only checked before association starts; the poll loop
// itself always runs to completion.
func (j *Joiner) Join(ctx context.Context, ssid, passphrase string) (NetworkInfo, error) {
	if j.station.IsConnected() {
		info, err := j.station.Info()
		if err != nil {
			return NetworkInfo{}, &JoinError{Kind: JoinRejected, SSID: ssid, Code: StatusUnknown, Err: err}
		}
		j.logger.Debug("already associated", zap.String("ssid", info.SSID), zap.String("ip", info.IP))
		return info, nil
	}

	if err := ctx.Err(); err != nil {
		return NetworkInfo{}, &JoinError{Kind: JoinRejected, SSID: ssid, Code: StatusUnknown, Err: err}
	}

	attempts := j.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}

	j.logger.Info("connecting to network",
		zap.String("ssid", ssid),
		zap.Int("attempts", attempts),
		zap.Duration("poll_interval", j.PollInterval),
	)

	if err := j.station.Activate(); err != nil {
		return NetworkInfo{}, &JoinError{Kind: JoinRejected, SSID: ssid, Code: StatusUnknown, Err: fmt.Errorf("activate: %w", err)}
	}
	if err := j.station.Connect(ssid, passphrase); err != nil {
		return NetworkInfo{}, &JoinError{Kind: JoinRejected, SSID: ssid, Code: StatusUnknown, Err: fmt.Errorf("connect: %w", err)}
	}

	last := StatusConnecting
	for poll := 1; poll <= attempts; poll++ {
		j.Sleep(j.PollInterval)

		status, err := j.station.Status()
		if err != nil {
			return NetworkInfo{}, &JoinError{Kind: JoinRejected, SSID: ssid, Code: StatusUnknown, Polls: poll, Err: err}
		}
		last = status

		j.logger.Debug("station status", zap.Int("poll", poll), zap.Stringer("status", status))

		if status == StatusGotIP {
			info, err := j.station.Info()
			if err != nil {
				return NetworkInfo{}, &JoinError{Kind: JoinRejected, SSID: ssid, Code: status, Polls: poll, Err: err}
			}
			j.logger.Info("network joined",
				zap.String("ssid", info.SSID),
				zap.String("ip", info.IP),
				zap.Int("polls", poll),
			)
			return info, nil
		}
		if status.Transient() {
			continue
		}

		j.logger.Warn("association rejected", zap.Stringer("status", status), zap.Int("poll", poll))
		return NetworkInfo{}, &JoinError{Kind: JoinRejected, SSID: ssid, Code: status, Polls: poll}
	}

	return NetworkInfo{}, &JoinError{Kind: JoinTimeout, SSID: ssid, Code: last, Polls: attempts}
}
