// Package boot runs the pre-cycle stage: bring the network up and apply any
// pending firmware update before the operating cycle starts.
package boot

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/snowsensor/snownode/internal/cycle"
	"github.com/snowsensor/snownode/internal/logging"
	"github.com/snowsensor/snownode/internal/ota"
)

// Stage is the boot-time join and update check. It never drives the
// fault indicator; failures are left for the first cycle to retry.
type Stage struct {
	Joiner     cycle.Joiner
	Updater    cycle.Updater
	SSID       string
	Passphrase string

	// Manifest is nil when OTA is disabled.
	Manifest *ota.Manifest

	logger *zap.Logger
}

// New creates a boot Stage.
func New(joiner cycle.Joiner, updater cycle.Updater, manifest *ota.Manifest, ssid, passphrase string, logger *zap.Logger) *Stage {
	return &Stage{
		Joiner:     joiner,
		Updater:    updater,
		SSID:       ssid,
		Passphrase: passphrase,
		Manifest:   manifest,
		logger:     logging.OrNop(logger),
	}
}

// Run joins the network and, when OTA is enabled, checks for an update.
// restart is true when files were replaced and the device must reset.
func (s *Stage) Run(ctx context.Context) (restart bool, err error) {
	info, err := s.Joiner.Join(ctx, s.SSID, s.Passphrase)
	if err != nil {
		return false, fmt.Errorf("boot join: %w", err)
	}
	s.logger.Debug("boot join complete", zap.String("ip", info.IP))

	if s.Manifest == nil || s.Updater == nil {
		return false, nil
	}

	outcome, err := s.Updater.CheckAndApply(ctx, *s.Manifest)
	if err != nil {
		return false, fmt.Errorf("boot update check: %w", err)
	}
	if outcome == ota.OutcomeRestartRequired {
		s.logger.Info("update applied during boot, reset required")
		return true, nil
	}

	s.logger.Info("firmware is up to date")
	return false, nil
}
