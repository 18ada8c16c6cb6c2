// Package core provides the cycle-accurate CPU core model. It wraps the
// pipeline as an event-driven component so a sim.Engine can clock it, and
// also offers plain Run wrappers for drivers that do not want the engine.
package core

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/r5sim/emu"
	"github.com/sarchlab/r5sim/timing/pipeline"
)

// Core represents a single-hart cycle-accurate RV32I core.
type Core struct {
	*sim.TickingComponent

	pipeline *pipeline.Pipeline
}

// NewCore creates a core clocked by the given engine at the given frequency.
func NewCore(
	name string,
	engine sim.Engine,
	freq sim.Freq,
	pipe *pipeline.Pipeline,
) *Core {
	c := &Core{pipeline: pipe}
	c.TickingComponent = sim.NewTickingComponent(name, engine, freq, c)
	return c
}

// Start schedules the core's first cycle on the event engine. The driver
// then calls engine.Run() to simulate until the core halts.
func (c *Core) Start() {
	c.TickLater()
}

// Tick advances the pipeline one cycle. Returning false stops the ticking
// once the program has exited or faulted.
func (c *Core) Tick() bool {
	return c.pipeline.Tick()
}

// Pipeline returns the underlying 5-stage pipeline.
func (c *Core) Pipeline() *pipeline.Pipeline {
	return c.pipeline
}

// SetPC sets the program counter.
func (c *Core) SetPC(pc uint32) {
	c.pipeline.SetPC(pc)
}

// Halted returns true if the core has halted.
func (c *Core) Halted() bool {
	return c.pipeline.Halted()
}

// ExitCode returns the exit code once the core has halted.
func (c *Core) ExitCode() int32 {
	return c.pipeline.ExitCode()
}

// Err returns the fatal simulation fault, if any.
func (c *Core) Err() error {
	return c.pipeline.Err()
}

// Stats returns performance counters for the core.
func (c *Core) Stats() pipeline.Statistics {
	return c.pipeline.Stats()
}

// RegFile returns the core's architectural register file.
func (c *Core) RegFile() *emu.RegFile {
	return c.pipeline.RegFile()
}

// Memory returns the core's memory.
func (c *Core) Memory() *emu.Memory {
	return c.pipeline.Memory()
}

// Run executes the core until it halts, without the event engine.
func (c *Core) Run() (int32, error) {
	return c.pipeline.Run()
}

// RunCycles executes at most the given number of cycles. It returns true if
// the core is still running.
func (c *Core) RunCycles(cycles uint64) bool {
	return c.pipeline.RunCycles(cycles)
}
