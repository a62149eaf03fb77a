// Package snowflake allocates 64-bit time-ordered IDs without central
// coordination. Layout (MSB to LSB): 1 sign bit (0), 41 bits of
// milliseconds since the service epoch, 10 bits machine id, 12 bits
// per-millisecond sequence.
package snowflake

import (
	"errors"
	"fmt"
	"sync"

	"relay-chat/backend/internal/clock"
)

// Epoch is the service epoch: 2025-10-01T00:00:00Z in Unix milliseconds.
const Epoch = int64(1759276800000)

const (
	machineIDBits = 10
	sequenceBits  = 12

	// MaxMachineID is the largest machine id that fits in 10 bits.
	MaxMachineID = int64(1)<<machineIDBits - 1

	maxSequence = int64(1)<<sequenceBits - 1

	machineIDShift = sequenceBits
	timestampShift = sequenceBits + machineIDBits
)

var (
	// ErrInvalidMachineID is returned by New when the machine id is outside [0, MaxMachineID].
	ErrInvalidMachineID = errors.New("snowflake: machine id out of range")
	// ErrClockMovedBackwards is returned by NextID when the clock regresses.
	// The generator refuses to issue rather than risk duplicate IDs; callers
	// should alert the operator, not retry.
	ErrClockMovedBackwards = errors.New("snowflake: clock moved backwards, refusing to generate id")
)

// Generator issues unique, non-decreasing IDs. A single Generator is safe
// for concurrent use; distinct machine ids never collide by construction.
type Generator struct {
	machineID int64
	clk       clock.Clock

	mu            sync.Mutex
	lastTimestamp int64
	sequence      int64
}

// New returns a Generator for the given machine id.
func New(machineID int64, clk clock.Clock) (*Generator, error) {
	if machineID < 0 || machineID > MaxMachineID {
		return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidMachineID, machineID, MaxMachineID)
	}
	return &Generator{
		machineID:     machineID,
		clk:           clk,
		lastTimestamp: -1,
	}, nil
}

// NextID returns the next ID. IDs from one instance are non-decreasing as
// long as the clock does not move backward; a regression fails with
// ErrClockMovedBackwards and is fatal for this instance.
func (g *Generator) NextID() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	timestamp := g.clk.Now().UnixMilli()
	if timestamp < g.lastTimestamp {
		return 0, ErrClockMovedBackwards
	}

	if timestamp == g.lastTimestamp {
		g.sequence = (g.sequence + 1) & maxSequence
		if g.sequence == 0 {
			// Sequence exhausted for this millisecond. Deliberate CPU spin
			// re-sampling the clock; bounded by clock granularity (sub-ms).
			timestamp = g.waitNextMillis(g.lastTimestamp)
		}
	} else {
		g.sequence = 0
	}

	g.lastTimestamp = timestamp

	id := (timestamp-Epoch)<<timestampShift |
		g.machineID<<machineIDShift |
		g.sequence
	return id, nil
}

func (g *Generator) waitNextMillis(last int64) int64 {
	timestamp := g.clk.Now().UnixMilli()
	for timestamp <= last {
		timestamp = g.clk.Now().UnixMilli()
	}
	return timestamp
}
