package main

import (
	"github.com/botho-project/botho/internal/logs"
	"github.com/botho-project/botho/logger"
)

var nodeLog, _ = logger.Get(logger.SubsystemTags.NODE)
var minrLog, _ = logger.Get(logger.SubsystemTags.MINR)
var rpcsLog, _ = logger.Get(logger.SubsystemTags.RPCS)

// newSpawner returns a launcher that starts goroutines which recover their
// own panics instead of crashing the daemon silently. It is built here (not as a package-level
// var, unlike the teacher's own log.go) because logger.LogRotator is nil
// until initLogging runs in main; constructing the wrapper after that
// call avoids permanently capturing a nil rotator.
func newSpawner() func(func()) {
	return logs.GoroutineWrapperFunc(nodeLog, logger.LogRotator)
}
