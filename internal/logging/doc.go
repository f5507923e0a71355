// Package logging builds the zap logger used throughout snownode.
//
// There is no package-level logger. The command layer builds one with New
// and hands a *zap.Logger to every component it wires, so each cycle's
// collaborators log with the same fields:
//
//	logger, err := logging.New(cfg.Logging.Level)
//	if err != nil {
//	    return err
//	}
//	defer logging.Sync(logger)
//
//	joiner := wireless.NewJoiner(station, logger.Named("wireless"))
//
// # Log Levels
//
//   - Debug: poll-by-poll join status, swallowed warm-up and indicator errors
//   - Info: cycle progress (joined, reading, reported, sleeping)
//   - Warn: non-fatal issues (boot-stage failures, metrics textfile writes)
//   - Error: the single fault line of a failed cycle
//
// # Output Format
//
// Logs go to stdout in console format, which journald captures when the
// node runs under systemd:
//
//	2025-11-25T10:30:45.123Z  INFO  cycle/cycle.go:141  reading acquired
//	  {"cycle_id": "...", "temperature": 22.5, "unit": "C", "humidity": 47}
package logging
