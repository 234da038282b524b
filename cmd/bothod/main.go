// Command bothod is Botho's node daemon: it opens the ledger, serves the
// JSON-RPC/WebSocket surface, and, when --mine is set, produces blocks
// against its own mempool. Wiring is grounded on the teacher's kaspad.go
// (a service-wrapper struct with start/stop/newKaspad methods, a
// WaitForShutdown loop) and log.go (subsystem logger + goroutine-recover
// wrapper); the teacher's own util/panics-backed signal package was not
// retrieved into this pack, so graceful shutdown here uses os/signal
// directly.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/botho-project/botho/chaincfg"
	"github.com/botho-project/botho/config"
	"github.com/botho-project/botho/ledger"
	"github.com/botho-project/botho/logger"
	"github.com/botho-project/botho/mempool"
	"github.com/botho-project/botho/monetary"
	"github.com/botho-project/botho/rpc"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "bothod:", err)
		os.Exit(1)
	}
}

func run() error {
	flags, err := config.Parse(os.Args[1:], "")
	if err != nil {
		return err
	}
	params, ok := chaincfg.ByName(flags.Network)
	if !ok {
		return fmt.Errorf("bothod: unknown network %q", flags.Network)
	}
	if err := os.MkdirAll(flags.DataDir, 0o700); err != nil {
		return err
	}
	if err := initLogging(flags); err != nil {
		return err
	}
	defer func() {
		if logger.LogRotator != nil {
			logger.LogRotator.Close()
		}
	}()
	spawn := newSpawner()

	nodeLog.Infof("starting bothod on %s", params.Name)

	l, err := ledger.Open(config.LedgerDir(flags.DataDir))
	if err != nil {
		return err
	}
	defer l.Close()

	ctrl, err := reconstructController(l, params)
	if err != nil {
		return err
	}

	mp := mempool.New(mempool.DefaultConfig())
	server := rpc.NewServer(l, mp, ctrl, params, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	httpServer := &http.Server{Addr: flags.RPCListen, Handler: server.Router()}
	spawn(func() {
		rpcsLog.Infof("rpc listening on %s", flags.RPCListen)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			rpcsLog.Errorf("rpc server stopped: %v", err)
		}
	})

	if flags.Mine {
		minerAddr, err := loadOrCreateMinerKey(config.MinerKeyFilePath(flags.DataDir))
		if err != nil {
			return err
		}
		spawn(func() { mineLoop(ctx, l, mp, ctrl, params, minerAddr, flags.MineWorkers) })
	}

	waitForShutdown(cancel)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)

	nodeLog.Info("bothod shut down cleanly")
	return nil
}

// waitForShutdown blocks until SIGINT/SIGTERM and cancels ctx, the
// teacher kaspad.go's WaitForShutdown convention, built on stdlib
// os/signal since the teacher's own signal package was not retrieved
// into this pack.
func waitForShutdown(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	nodeLog.Info("shutdown signal received")
	cancel()
}

// reconstructController rebuilds a monetary.Controller from the ledger's
// persisted ChainState at startup. Height, TotalSupply and Difficulty
// round-trip exactly; the controller's in-epoch counters (Epoch) and,
// once phase 2 has begun, TailReward do not have a persisted column of
// their own, so they restart with a
// fresh in-epoch tally -- at worst this delays one difficulty adjustment
// by up to a full epoch, it never misapplies an already-accepted block.
func reconstructController(l *ledger.Ledger, params chaincfg.Params) (*monetary.Controller, error) {
	ctrl := monetary.NewController(params.Monetary, params.GenesisDifficulty)
	cs, ok, err := l.ChainState()
	if err != nil {
		return nil, err
	}
	if !ok {
		return ctrl, nil
	}
	ctrl.Height = cs.Height
	ctrl.TotalSupply = cs.TotalMined
	ctrl.Difficulty = cs.Difficulty
	if ctrl.InPhase2(cs.Height) {
		_ = ctrl.BlockReward(cs.Height) // forces TailReward calibration from the restored TotalSupply
	}
	return ctrl, nil
}
