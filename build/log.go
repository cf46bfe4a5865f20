// Package build provides the logging infrastructure shared by all florind
// subsystems. Every package exposes a UseLogger function and initializes its
// package logger through NewSubLogger, which keeps logging disabled until the
// host application installs a real backend.
package build

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/btcsuite/btclog/v2"
)

// NewSubLogger constructs a subsystem logger from the given constructor. If
// no constructor is supplied, logging for the subsystem is disabled. This is
// what package init functions call, since a backend usually does not exist
// yet at init time.
func NewSubLogger(subsystem string,
	genSubLogger func(string) btclog.Logger) btclog.Logger {

	if genSubLogger != nil {
		return genSubLogger(subsystem)
	}

	return btclog.Disabled
}

// SubLoggers holds a map of subsystem loggers keyed by their subsystem name.
type SubLoggers map[string]btclog.Logger

// LeveledSubLogger provides the ability to retrieve the subsystem loggers of
// a logger and set their log levels individually or all at once.
type LeveledSubLogger interface {
	// SubLoggers returns the map of all registered subsystem loggers.
	SubLoggers() SubLoggers

	// SupportedSubsystems returns a sorted slice of the names of the
	// registered subsystems.
	SupportedSubsystems() []string

	// SetLogLevel assigns an individual subsystem logger a new log level.
	SetLogLevel(subsystemID string, logLevel string)

	// SetLogLevels assigns all subsystem loggers the same new log level.
	SetLogLevels(logLevel string)
}

// SubLoggerManager hands out subsystem loggers backed by a shared handler and
// tracks them so that log level changes can be applied across the board. It
// implements the LeveledSubLogger interface.
type SubLoggerManager struct {
	handler btclog.Handler

	mtx     sync.Mutex
	loggers SubLoggers
}

// A compile time check to ensure SubLoggerManager implements the
// LeveledSubLogger interface.
var _ LeveledSubLogger = (*SubLoggerManager)(nil)

// NewSubLoggerManager constructs a manager that derives subsystem loggers
// from the given handler.
func NewSubLoggerManager(handler btclog.Handler) *SubLoggerManager {
	return &SubLoggerManager{
		handler: handler,
		loggers: make(SubLoggers),
	}
}

// GenSubLogger returns the logger registered for the given subsystem,
// creating and registering it on first use. The returned logger carries its
// own level so subsystems can be tuned individually.
func (m *SubLoggerManager) GenSubLogger(subsystem string) btclog.Logger {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if logger, ok := m.loggers[subsystem]; ok {
		return logger
	}

	logger := btclog.NewSLogger(m.handler.SubSystem(subsystem))
	m.loggers[subsystem] = logger

	return logger
}

// SubLoggers returns all currently registered subsystem loggers.
//
// NOTE: this is part of the LeveledSubLogger interface.
func (m *SubLoggerManager) SubLoggers() SubLoggers {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	loggers := make(SubLoggers, len(m.loggers))
	for subsystem, logger := range m.loggers {
		loggers[subsystem] = logger
	}

	return loggers
}

// SupportedSubsystems returns a sorted slice of the registered subsystem
// names.
//
// NOTE: this is part of the LeveledSubLogger interface.
func (m *SubLoggerManager) SupportedSubsystems() []string {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	subsystems := make([]string, 0, len(m.loggers))
	for subsystem := range m.loggers {
		subsystems = append(subsystems, subsystem)
	}
	sort.Strings(subsystems)

	return subsystems
}

// SetLogLevel assigns the given subsystem logger a new log level. Unknown
// subsystems and unparsable levels are ignored.
//
// NOTE: this is part of the LeveledSubLogger interface.
func (m *SubLoggerManager) SetLogLevel(subsystemID string, logLevel string) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	level, ok := btclog.LevelFromString(logLevel)
	if !ok {
		return
	}

	if logger, ok := m.loggers[subsystemID]; ok {
		logger.SetLevel(level)
	}
}

// SetLogLevels assigns all registered subsystem loggers the same log level.
//
// NOTE: this is part of the LeveledSubLogger interface.
func (m *SubLoggerManager) SetLogLevels(logLevel string) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	level, ok := btclog.LevelFromString(logLevel)
	if !ok {
		return
	}

	for _, logger := range m.loggers {
		logger.SetLevel(level)
	}
}

// ParseAndSetDebugLevels attempts to parse the specified debug level and set
// the levels accordingly on the given logger. The level spec is either a
// bare level applied to all subsystems, or a comma separated list of
// subsystem=level pairs, optionally preceded by a bare global level.
func ParseAndSetDebugLevels(level string, logger LeveledSubLogger) error {
	levels := strings.Split(level, ",")

	// A bare first entry is the log level for all subsystems.
	if !strings.Contains(levels[0], "=") {
		globalLevel := levels[0]
		if _, ok := btclog.LevelFromString(globalLevel); !ok {
			return fmt.Errorf("the specified debug level [%v] "+
				"is invalid", globalLevel)
		}

		logger.SetLogLevels(globalLevel)

		// The rest must target specific subsystems.
		levels = levels[1:]
	}

	for _, pair := range levels {
		fields := strings.Split(pair, "=")
		if len(fields) != 2 {
			return fmt.Errorf("the specified debug level has an "+
				"invalid format [%v] -- use "+
				"subsystem1=level1,subsystem2=level2", pair)
		}
		subsystemID, logLevel := fields[0], fields[1]

		if _, exists := logger.SubLoggers()[subsystemID]; !exists {
			return fmt.Errorf("the specified subsystem [%v] is "+
				"invalid -- supported subsystems are %v",
				subsystemID, logger.SupportedSubsystems())
		}

		if _, ok := btclog.LevelFromString(logLevel); !ok {
			return fmt.Errorf("the specified debug level [%v] "+
				"is invalid", logLevel)
		}

		logger.SetLogLevel(subsystemID, logLevel)
	}

	return nil
}
