package lnscan

import (
	"fmt"
	"io"

	"github.com/btcsuite/btclog"
	"github.com/ellemouton/lnscan/amount"
	"github.com/ellemouton/lnscan/chanbackup"
	"github.com/ellemouton/lnscan/classify"
	"github.com/ellemouton/lnscan/events"
	"github.com/ellemouton/lnscan/lnurl"
	"github.com/ellemouton/lnscan/node"
	"github.com/ellemouton/lnscan/state"
	"github.com/lightningnetwork/lnd/build"
)

// Subsystem defines the logging code for this subsystem.
const Subsystem = "LNSC"

// log is a logger that is initialized with no output filters. This means the
// package will not perform any logging by default until the caller requests
// it.
var log btclog.Logger

// The default amount of logging is none.
func init() {
	UseLogger(build.NewSubLogger(Subsystem, nil))
}

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger btclog.Logger) {
	log = logger
}

// subLoggers maps every subsystem onto the function installing its logger.
var subLoggers = map[string]func(btclog.Logger){
	Subsystem:            UseLogger,
	amount.Subsystem:     amount.UseLogger,
	chanbackup.Subsystem: chanbackup.UseLogger,
	classify.Subsystem:   classify.UseLogger,
	events.Subsystem:     events.UseLogger,
	lnurl.Subsystem:      lnurl.UseLogger,
	node.Subsystem:       node.UseLogger,
	state.Subsystem:      state.UseLogger,
}

// SetupLoggers sends the output of every subsystem to w at the given level,
// one of trace, debug, info, warn, error, critical or off.
func SetupLoggers(w io.Writer, level string) error {
	lvl, ok := btclog.LevelFromString(level)
	if !ok {
		return fmt.Errorf("unknown log level: %v", level)
	}

	backend := btclog.NewBackend(w)
	for subsystem, useLogger := range subLoggers {
		logger := backend.Logger(subsystem)
		logger.SetLevel(lvl)
		useLogger(logger)
	}

	return nil
}
