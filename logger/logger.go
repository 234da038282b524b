// Package logger is Botho's subsystem logger registry, grounded directly
// on the teacher's logger/logger.go: one backend, one named btclog.Logger
// per subsystem, dynamically adjustable levels via --debuglevel-style
// subsystem=level pairs.
package logger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/botho-project/botho/internal/logs"
	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"
)

var (
	writer  = &logs.GatedWriter{}
	backend = btclog.NewBackend(writer)

	// LogRotator is the rotator backing file output, nil until
	// InitLogRotator is called.
	LogRotator *rotator.Rotator

	nodeLog = backend.Logger("NODE")
	ldgrLog = backend.Logger("LDGR")
	valdLog = backend.Logger("VALD")
	mntyLog = backend.Logger("MNTY")
	lottLog = backend.Logger("LOTT")
	txbdLog = backend.Logger("TXBD")
	waltLog = backend.Logger("WALT")
	rpcsLog = backend.Logger("RPCS")
	gsipLog = backend.Logger("GSIP")
	pexLog  = backend.Logger("PEX")
	cnfgLog = backend.Logger("CNFG")
	utilLog = backend.Logger("UTIL")
	minrLog = backend.Logger("MINR")
)

// SubsystemTags is an enum of every Botho subsystem tag.
var SubsystemTags = struct {
	NODE, LDGR, VALD, MNTY, LOTT, TXBD, WALT, RPCS, GSIP, PEX, CNFG, UTIL, MINR string
}{
	NODE: "NODE", LDGR: "LDGR", VALD: "VALD", MNTY: "MNTY",
	LOTT: "LOTT", TXBD: "TXBD", WALT: "WALT", RPCS: "RPCS",
	GSIP: "GSIP", PEX: "PEX", CNFG: "CNFG", UTIL: "UTIL",
	MINR: "MINR",
}

var subsystemLoggers = map[string]btclog.Logger{
	SubsystemTags.NODE: nodeLog,
	SubsystemTags.LDGR: ldgrLog,
	SubsystemTags.VALD: valdLog,
	SubsystemTags.MNTY: mntyLog,
	SubsystemTags.LOTT: lottLog,
	SubsystemTags.TXBD: txbdLog,
	SubsystemTags.WALT: waltLog,
	SubsystemTags.RPCS: rpcsLog,
	SubsystemTags.GSIP: gsipLog,
	SubsystemTags.PEX:  pexLog,
	SubsystemTags.CNFG: cnfgLog,
	SubsystemTags.UTIL: utilLog,
	SubsystemTags.MINR: minrLog,
}

// InitLogRotator attaches file-backed rotation to every subsystem logger's
// output. It must be called once during startup before log output is
// expected to reach disk; until then, loggers are usable but silent.
func InitLogRotator(logFile string) error {
	r, err := writer.Attach(logFile)
	if err != nil {
		return err
	}
	LogRotator = r
	return nil
}

// Get returns the logger registered for tag, if any.
func Get(tag string) (btclog.Logger, bool) {
	l, ok := subsystemLoggers[tag]
	return l, ok
}

// SetLogLevel sets the level of a single subsystem. Unknown subsystems are
// ignored.
func SetLogLevel(subsystemID string, level string) {
	l, ok := subsystemLoggers[subsystemID]
	if !ok {
		return
	}
	parsed, _ := btclog.LevelFromString(level)
	l.SetLevel(parsed)
}

// SetLogLevels sets every subsystem logger to level.
func SetLogLevels(level string) {
	for id := range subsystemLoggers {
		SetLogLevel(id, level)
	}
}

// SupportedSubsystems returns every registered subsystem tag, sorted.
func SupportedSubsystems() []string {
	tags := make([]string, 0, len(subsystemLoggers))
	for id := range subsystemLoggers {
		tags = append(tags, id)
	}
	sort.Strings(tags)
	return tags
}

// ParseAndSetDebugLevels parses a --debuglevel flag value: either a single
// level applied to every subsystem, or a comma-separated list of
// SUBSYS=level pairs.
func ParseAndSetDebugLevels(debugLevel string) error {
	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		if !validLogLevel(debugLevel) {
			return fmt.Errorf("the specified debug level [%s] is invalid", debugLevel)
		}
		SetLogLevels(debugLevel)
		return nil
	}

	for _, pair := range strings.Split(debugLevel, ",") {
		fields := strings.Split(pair, "=")
		if len(fields) != 2 {
			return fmt.Errorf("the specified debug level contains an invalid subsystem/level pair [%s]", pair)
		}
		subsysID, level := fields[0], fields[1]
		if _, ok := Get(subsysID); !ok {
			return fmt.Errorf("the specified subsystem [%s] is invalid -- supported subsystems %s",
				subsysID, strings.Join(SupportedSubsystems(), ", "))
		}
		if !validLogLevel(level) {
			return fmt.Errorf("the specified debug level [%s] is invalid", level)
		}
		SetLogLevel(subsysID, level)
	}
	return nil
}

func validLogLevel(level string) bool {
	_, ok := btclog.LevelFromString(level)
	return ok
}
