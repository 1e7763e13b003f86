// Package logging provides structured logging for the myconode agent and tools.
//
// This package wraps a package-global zap logger with convenience functions
// so every component logs with the same encoder and level without passing a
// logger through each constructor.
//
// # Log Levels
//
//   - Debug: Sync round-trips, radio polls, raw register reads
//   - Info: Link transitions, cycle summaries, actuator changes
//   - Warn: Failed syncs, sensor fallbacks, reconnect attempts
//   - Error: Startup failures, feed server errors
//
// # Structured Logging
//
//	logging.Info("Cycle complete",
//	    zap.Int("put_status", 200),
//	    zap.Float64("temperature", 23.9),
//	)
//
// Domain helpers:
//
//	logging.LogLinkEvent("greenhouse-ap", "connected", zap.String("address", "10.0.0.12"))
//	logging.LogSync("PUT", "http://store.local/sensors/current.json?auth=REDACTED", 200, elapsed)
//
// # Configuration
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// When no level is given and MYCONODE_LOG_LEVEL is unset the logger is a
// no-op, which keeps the CLI output clean.
package logging
