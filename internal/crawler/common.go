package crawler

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger. format "json" switches to the JSON
// formatter; anything else keeps the text formatter with full timestamps.
// An unknown level falls back to info.
func NewLogger(level, format string) *logrus.Logger {
	logger := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	return logger
}

// WithGracefulShutdown returns a context that is cancelled on SIGINT or SIGTERM.
func WithGracefulShutdown(parent context.Context, logger *logrus.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			logger.Info("Received shutdown signal, gracefully shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
