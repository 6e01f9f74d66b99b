package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// LogProfile logs the outcome of building a profile from its document
func LogProfile(l Logger, username, profileID string, posts, total int) {
	l.InfoWithFields("Profile extracted", map[string]interface{}{
		"username":    username,
		"profile_id":  profileID,
		"first_page":  posts,
		"total_posts": total,
	})
}

// LogPage logs one pagination step
func LogPage(l Logger, username string, page, appended int, hasNext bool) {
	l.DebugWithFields("Page merged", map[string]interface{}{
		"username": username,
		"page":     page,
		"appended": appended,
		"has_next": hasNext,
	})
}

// LogAsset logs a single asset download outcome
func LogAsset(l Logger, username, filename string, size int, err error) {
	fields := map[string]interface{}{
		"username": username,
		"file":     filename,
		"size":     size,
	}
	if err != nil {
		l.WithError(err).ErrorWithFields("Asset download failed", fields)
		return
	}
	l.DebugWithFields("Asset saved", fields)
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
