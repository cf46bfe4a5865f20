package build

import (
	"io"

	"github.com/btcsuite/btclog/v2"
)

const (
	callSiteOff   = "off"
	callSiteShort = "short"
	callSiteLong  = "long"
)

// LoggerConfig holds the formatting options applied to subsystem log output.
type LoggerConfig struct {
	// NoTimestamps omits timestamps from log lines.
	NoTimestamps bool

	// Style styles the log output with colors and alignment.
	Style bool

	// CallSite includes the call-site of each log line. Valid values are
	// "off", "short" and "long".
	CallSite string
}

// DefaultLoggerConfig returns the default logger formatting options.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		CallSite: callSiteOff,
	}
}

// HandlerOptions returns the set of btclog.HandlerOptions that the state of
// the config struct translates to.
func (cfg *LoggerConfig) HandlerOptions() []btclog.HandlerOption {
	var opts []btclog.HandlerOption

	if cfg.NoTimestamps {
		opts = append(opts, btclog.WithNoTimestamp())
	}
	if cfg.Style {
		opts = append(opts, btclog.WithStyledOutput())
	}

	switch cfg.CallSite {
	case callSiteShort:
		opts = append(opts, btclog.WithCallerFlags(btclog.Lshortfile))
	case callSiteLong:
		opts = append(opts, btclog.WithCallerFlags(btclog.Llongfile))
	}

	return opts
}

// NewDefaultLogHandler returns a handler that writes formatted log lines to w
// with the config's options applied.
func NewDefaultLogHandler(cfg *LoggerConfig, w io.Writer) btclog.Handler {
	return btclog.NewDefaultHandler(w, cfg.HandlerOptions()...)
}
