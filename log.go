package florind

import (
	"github.com/btcsuite/btclog/v2"
	"github.com/florinchain/florind/acctdb"
	"github.com/florinchain/florind/authindex"
	"github.com/florinchain/florind/build"
	"github.com/florinchain/florind/referral"
)

// Subsystem defines the logging code for the ledger itself.
const Subsystem = "FLRN"

// log is a logger that is initialized with the btclog.Disabled logger.
var log btclog.Logger

// The default amount of logging is none.
func init() {
	UseLogger(build.NewSubLogger(Subsystem, nil))
}

// DisableLog disables all logging output.
func DisableLog() {
	UseLogger(btclog.Disabled)
}

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger btclog.Logger) {
	log = logger
}

// SetupLoggers initializes the package loggers of every florind subsystem,
// creating each one through genLogger. Passing a manager's GenSubLogger
// method routes all subsystems into one backend with individually tunable
// levels.
func SetupLoggers(genLogger func(string) btclog.Logger) {
	UseLogger(build.NewSubLogger(Subsystem, genLogger))

	acctdb.UseLogger(build.NewSubLogger(acctdb.Subsystem, genLogger))
	authindex.UseLogger(build.NewSubLogger(authindex.Subsystem, genLogger))
	referral.UseLogger(build.NewSubLogger(referral.Subsystem, genLogger))
}
