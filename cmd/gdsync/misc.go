package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/sgaunet/gdsync/pkg/config"
	"github.com/sgaunet/gdsync/pkg/constants"
)

func initTrace(debugLevel string, noLogTime bool) *slog.Logger {
	handlerOptions := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	if noLogTime {
		handlerOptions.ReplaceAttr = func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{} // Remove the time attribute
			}
			return a
		}
	}

	switch debugLevel {
	case "debug":
		handlerOptions.Level = slog.LevelDebug
		handlerOptions.AddSource = true
	case "info":
		handlerOptions.Level = slog.LevelInfo
	case "warn":
		handlerOptions.Level = slog.LevelWarn
	case "error":
		handlerOptions.Level = slog.LevelError
	default:
		handlerOptions.Level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stdout, handlerOptions)
	logger := slog.New(handler)
	return logger
}

// redactError masks configured secrets in the error message. The returned
// error still matches err with errors.Is.
func redactError(err error, cfg *config.Config) error {
	if err == nil || cfg == nil {
		return err
	}
	msg := err.Error()
	redacted := msg
	for _, secret := range []string{cfg.Remote.S3.SecretKey, cfg.Remote.S3.AccessKey} {
		if secret != "" {
			redacted = strings.ReplaceAll(redacted, secret, constants.RedactedValue)
		}
	}
	if redacted == msg {
		return err
	}
	return &redactedError{msg: redacted, err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }

func (e *redactedError) Unwrap() error { return e.err }

// isInterrupted reports whether err comes from a cancelled context.
func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled)
}
