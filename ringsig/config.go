package ringsig

import "github.com/pkg/errors"

// Config names the ring-size policy a node or wallet enforces (spec §4.3:
// "Ring size is configurable; default 11 ... with structural support for
// 5-31"), following the Design Notes §9 convention of a named config
// struct per component instead of bare constants scattered at call sites.
type Config struct {
	RingSize int
}

// DefaultConfig returns Botho's reference ring-signature parameters.
func DefaultConfig() Config {
	return Config{RingSize: DefaultRingSize}
}

// Validate checks RingSize falls within [MinRingSize, MaxRingSize].
func (c Config) Validate() error {
	if c.RingSize < MinRingSize || c.RingSize > MaxRingSize {
		return errors.Errorf("ringsig: configured ring size %d out of bounds [%d,%d]", c.RingSize, MinRingSize, MaxRingSize)
	}
	return nil
}
