// Package logger wraps logrus with the fields this gateway attaches to
// every log line.
package logger

import (
	"github.com/ccbridge/gateway/internal/config"
	"github.com/sirupsen/logrus"
)

// Logger wraps logrus.Logger with gateway-specific helpers.
type Logger struct {
	*logrus.Logger
}

// New builds a Logger from the logging section of Config.
func New(cfg config.LoggingConfig) *Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		l.Warnf("invalid log level %q, using info", cfg.Level)
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	switch cfg.Format {
	case "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	default:
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	}

	return &Logger{Logger: l}
}

// WithRequestID tags log entries with the gateway's per-request id.
func (l *Logger) WithRequestID(requestID string) *logrus.Entry {
	return l.WithField("request_id", requestID)
}

// WithError tags log entries with an error value.
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}

// HTTPLog records one completed HTTP request.
func (l *Logger) HTTPLog(method, path string, statusCode int, durationMS int64, requestID string) {
	l.WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"status":      statusCode,
		"duration_ms": durationMS,
		"request_id":  requestID,
		"type":        "http_request",
	}).Info("http request completed")
}

// APILog records one gateway-internal action, e.g. a conversion step.
func (l *Logger) APILog(action string, details map[string]interface{}, requestID string) {
	fields := logrus.Fields{
		"action":     action,
		"request_id": requestID,
		"type":       "api_action",
	}
	for k, v := range details {
		fields[k] = v
	}
	l.WithFields(fields).Info("api action")
}
