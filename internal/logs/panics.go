package logs

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"
)

const panicHandlerTimeout = 5 * time.Second

// HandlePanic recovers a panic, logs it at Critical along with the
// supplied goroutine stack trace, flushes r, and exits the process.
// Grounded on the teacher's util/panics.HandlePanic, adapted to accept
// the rotator directly since btclog.Logger (unlike the teacher's own fork
// logger type) exposes no Backend() accessor.
func HandlePanic(log btclog.Logger, r *rotator.Rotator, goroutineStackTrace []byte) {
	err := recover()
	if err == nil {
		return
	}

	done := make(chan struct{})
	go func() {
		log.Criticalf("Fatal error: %+v", err)
		if goroutineStackTrace != nil {
			log.Criticalf("Goroutine stack trace: %s", goroutineStackTrace)
		}
		log.Criticalf("Stack trace: %s", debug.Stack())
		if r != nil {
			r.Close()
		}
		close(done)
	}()

	select {
	case <-time.After(panicHandlerTimeout):
		fmt.Fprintln(os.Stderr, "couldn't handle a fatal error, exiting")
	case <-done:
	}
	os.Exit(1)
}

// GoroutineWrapperFunc returns a goroutine launcher that recovers panics
// via HandlePanic instead of crashing the whole process silently.
func GoroutineWrapperFunc(log btclog.Logger, r *rotator.Rotator) func(func()) {
	return func(f func()) {
		stackTrace := debug.Stack()
		go func() {
			defer HandlePanic(log, r, stackTrace)
			f()
		}()
	}
}
