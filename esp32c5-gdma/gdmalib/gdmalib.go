// Package gdmalib builds blocking transfers on top of the GDMA channel
// control surface: descriptor lists, memory to memory copies and a DMA
// backed framebuffer.
package gdmalib

import (
	"errors"
	"math"
	"runtime"
	"time"

	"periph.io/x/periph/conn"
)

const timeoutRetries = math.MaxUint16 * 8

var (
	errTimeout    = errors.New("gdmalib:timeout")
	errBusy       = errors.New("gdmalib:busy")
	errNoPeriphID = errors.New("gdmalib:no free M2M peripheral ID")
	errTooLong    = errors.New("gdmalib:transfer exceeds descriptor space")
	errDescriptor = errors.New("gdmalib:descriptor error")
	errClosed     = errors.New("gdmalib:closed")
)

func gosched() {
	runtime.Gosched()
}

type deadline struct {
	t time.Time
}

func (dl deadline) expired() bool {
	if dl.t.IsZero() {
		return false
	}
	return time.Since(dl.t) > 0
}

type deadliner struct {
	// timeout is a bitshift value for the timeout.
	timeout uint8
}

func (ch deadliner) newDeadline() deadline {
	var t time.Time
	if ch.timeout != 0 {
		calc := time.Duration(1 << ch.timeout)
		t = time.Now().Add(calc)
	}
	return deadline{t: t}
}

func (ch *deadliner) setTimeout(timeout time.Duration) {
	if timeout <= 0 {
		ch.timeout = 0
		return // No timeout.
	}
	for i := uint8(0); i < 63; i++ {
		calc := time.Duration(1 << i)
		if calc > timeout {
			ch.timeout = i
			return
		}
	}
}

// halt halts every resource in order and returns the first error.
func halt(rs ...conn.Resource) error {
	var err error
	for _, r := range rs {
		if e := r.Halt(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

// Idler is a channel that can report whether its descriptor FSM is parked.
// Both gdma.RXChannel and gdma.TXChannel implement it.
type Idler interface {
	IsIdle() bool
}

// WaitIdle polls ch until it parks. A timeout of zero or less waits for a
// fixed number of polls instead of a duration.
func WaitIdle(ch Idler, timeout time.Duration) error {
	var d deadliner
	d.setTimeout(timeout)
	dl := d.newDeadline()
	retries := timeoutRetries
	for !ch.IsIdle() {
		if dl.expired() || retries == 0 {
			return errTimeout
		}
		retries--
		gosched()
	}
	return nil
}
