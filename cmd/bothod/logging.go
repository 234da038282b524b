package main

import (
	"path/filepath"

	"github.com/botho-project/botho/config"
	"github.com/botho-project/botho/logger"
)

// initLogging attaches file-backed rotation and applies the requested
// debug level, following the teacher's pattern of doing both during
// early startup before any subsystem logs anything meaningful.
func initLogging(flags *config.Flags) error {
	if err := logger.InitLogRotator(filepath.Join(flags.DataDir, "bothod.log")); err != nil {
		return err
	}
	return logger.ParseAndSetDebugLevels(flags.DebugLevel)
}
