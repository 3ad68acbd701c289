// Package clock implements the fixed rate clock which drives the processor.
package clock

import (
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hexaflex/cvm/devices"
)

// DefaultRate is the reference clock rate in Hz.
const DefaultRate = 1024000

// TickFunc is called once per clock tick. It receives the time since the
// previous tick and the total number of ticks so far.
type TickFunc func(delta time.Duration, ticks uint64)

// Clock calls a TickFunc at a fixed rate.
//
// The driving loop polls the time instead of sleeping, since sleep
// granularity is far coarser than a tick period.
type Clock struct {
	tick     TickFunc      // Tick handler.
	period   time.Duration // Time budget per tick.
	ticks    atomic.Uint64 // Number of ticks so far.
	freq     atomic.Uint64 // Measured ticks per second.
	halted   atomic.Bool   // Skip ticks?
	detached bool          // Run the loop in its own goroutine?
	stop     chan struct{} // Closed to end the loop.
	done     chan struct{} // Closed when the loop has ended.
	stopOnce sync.Once
}

// New creates a clock running at the given rate in Hz.
// A rate <= 0 selects DefaultRate.
func New(rate int, tick TickFunc) *Clock {
	if rate <= 0 {
		rate = DefaultRate
	}

	return &Clock{
		tick:   tick,
		period: time.Second / time.Duration(rate),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// ID returns the clock's device Id.
func (c *Clock) ID() devices.ID {
	return devices.NewID(devices.Builtin, devices.SerialClock)
}

// Period returns the time budget of a single tick.
func (c *Clock) Period() time.Duration {
	return c.period
}

// Detach makes Start run the clock loop in a separate goroutine.
// It must be called before Start.
func (c *Clock) Detach() {
	c.detached = true
}

// Start runs the clock. It blocks until Stop is called, unless the clock
// was detached.
func (c *Clock) Start() {
	log.Println(c.ID(), "start", c.period)

	if c.detached {
		go c.run()
		return
	}

	c.run()
}

// Halt suspends ticking. Time keeps being measured.
func (c *Clock) Halt() {
	c.halted.Store(true)
}

// Resume continues ticking after Halt.
func (c *Clock) Resume() {
	c.halted.Store(false)
}

// Halted returns true if the clock is halted.
func (c *Clock) Halted() bool {
	return c.halted.Load()
}

// Stop signals the clock loop to exit. The loop ends within one tick
// period. It is safe to call Stop from within the tick handler and to
// call it more than once.
func (c *Clock) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Wait blocks until the clock loop has ended.
func (c *Clock) Wait() {
	<-c.done
}

// Done returns a channel which is closed when the clock loop has ended.
func (c *Clock) Done() <-chan struct{} {
	return c.done
}

// Ticks returns the number of ticks so far.
func (c *Clock) Ticks() uint64 {
	return c.ticks.Load()
}

// Frequency returns the tick rate measured over the last full second.
func (c *Clock) Frequency() uint64 {
	return c.freq.Load()
}

func (c *Clock) run() {
	defer close(c.done)
	defer log.Println(c.ID(), "stop")

	base := time.Now()
	window, windowTicks := base, c.Ticks()

	for {
		select {
		case <-c.stop:
			return
		default:
		}

		now := time.Now()

		if elapsed := now.Sub(window); elapsed >= time.Second {
			n := c.Ticks()
			c.freq.Store(uint64(float64(n-windowTicks) / elapsed.Seconds()))
			window, windowTicks = now, n
		}

		delta := now.Sub(base)
		if delta < c.period {
			runtime.Gosched()
			continue
		}

		base = now

		if c.halted.Load() {
			continue
		}

		c.tick(delta, c.ticks.Add(1))
	}
}
