package ota

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/snowsensor/snownode/internal/logging"
)

// Outcome is the result of a successful update check.
type Outcome int

const (
	// OutcomeNoUpdate means the installed files are current.
	OutcomeNoUpdate Outcome = iota
	// OutcomeRestartRequired means files were replaced on disk and the
	// running process no longer matches them.
	OutcomeRestartRequired
)

// String returns a human-readable name for the outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeNoUpdate:
		return "no_update"
	case OutcomeRestartRequired:
		return "restart_required"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Collaborator fetches and replaces firmware files.
type Collaborator interface {
	// Sync makes the installed files match the repository and reports
	// whether anything changed. It is all-or-nothing.
	Sync(ctx context.Context, m Manifest) (changed bool, err error)
}

// Checker is the update step of the operating cycle.
type Checker struct {
	collaborator Collaborator
	logger       *zap.Logger
}

// NewChecker creates a Checker around c.
func NewChecker(c Collaborator, logger *zap.Logger) *Checker {
	return &Checker{collaborator: c, logger: logging.OrNop(logger)}
}

// CheckAndApply runs one update check. Collaborator errors that are not
// already an *UpdateError are reported as transport failures.
func (c *Checker) CheckAndApply(ctx context.Context, m Manifest) (Outcome, error) {
	c.logger.Info("checking firmware for updates",
		zap.Stringer("repository", m.Repository),
		zap.Strings("files", m.Files),
	)

	changed, err := c.collaborator.Sync(ctx, m)
	if err != nil {
		var uErr *UpdateError
		if !errors.As(err, &uErr) {
			err = &UpdateError{Kind: UpdateTransport, Err: err}
		}
		return OutcomeNoUpdate, err
	}

	if changed {
		c.logger.Info("firmware updated, restart required")
		return OutcomeRestartRequired, nil
	}
	c.logger.Debug("firmware up to date")
	return OutcomeNoUpdate, nil
}
