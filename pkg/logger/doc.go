// Package logger provides the structured logging interface used across the archiver.
//
// It wraps zerolog with a small interface so packages can take a Logger and
// tests can substitute NewNopLogger or NewTestLogger:
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	log := logger.GetLogger().WithField("username", "someone")
//	log.InfoWithFields("Page merged", map[string]interface{}{"appended": 12})
//
// Console output goes to stderr; when LoggingConfig.File is set the same
// events are also appended to that file.
package logger
