// Package logging holds the process-wide zap logger.
package logging

import (
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the global logger. It is a no-op until Initialize is called,
// so packages may log before main has configured output.
var Logger = zap.NewNop().Sugar()

// Options configures Initialize.
type Options struct {
	JSON  bool
	Level string // debug, info, warn or error; empty means warn
}

// Initialize replaces Logger. JSON output uses zap's production encoder;
// otherwise a console encoder writes to stderr so command output on stdout
// stays clean.
func Initialize(opts Options) error {
	level := zapcore.WarnLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return errors.WithHint(errors.Wrapf(err, "invalid log level %q", opts.Level),
				"use one of debug, info, warn, error")
		}
	}

	var (
		zapLogger *zap.Logger
		err       error
	)
	if opts.JSON {
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(level)
		config.OutputPaths = []string{"stderr"}
		zapLogger, err = config.Build()
		if err != nil {
			return errors.Wrap(err, "failed to build json logger")
		}
	} else {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.TimeKey = ""
		zapLogger = zap.New(zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.Lock(os.Stderr),
			level,
		))
	}

	Logger = zapLogger.Sugar()
	return nil
}

// Named returns a child of Logger scoped to a component.
func Named(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Logger.Sync()
}
