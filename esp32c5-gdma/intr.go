package gdma

import (
	"strconv"
	"strings"
)

// RXEvent is a set of RX channel interrupt events.
type RXEvent uint32

// RX interrupt event bits.
const (
	RXDone      RXEvent = 1 << 0 // all data of a descriptor received
	RXSucEOF    RXEvent = 1 << 1 // frame received without error
	RXErrEOF    RXEvent = 1 << 2 // frame received with a data error
	RXDescError RXEvent = 1 << 3 // descriptor error, e.g. owner mismatch
	RXDescEmpty RXEvent = 1 << 4 // ran out of descriptors while receiving
	RXFIFOOvf   RXEvent = 1 << 5
	RXFIFOUdf   RXEvent = 1 << 6

	RXEventMask RXEvent = 0x7F
)

// TXEvent is a set of TX channel interrupt events.
type TXEvent uint32

// TX interrupt event bits.
const (
	TXDone      TXEvent = 1 << 0 // all data of a descriptor sent
	TXEOF       TXEvent = 1 << 1 // descriptor with the EOF flag processed
	TXDescError TXEvent = 1 << 2
	TXTotalEOF  TXEvent = 1 << 3 // last descriptor of the list processed
	TXFIFOOvf   TXEvent = 1 << 4
	TXFIFOUdf   TXEvent = 1 << 5

	TXEventMask TXEvent = 0x3F
)

var rxEventNames = [...]string{"Done", "SucEOF", "ErrEOF", "DescError", "DescEmpty", "FIFOOvf", "FIFOUdf"}

var txEventNames = [...]string{"Done", "EOF", "DescError", "TotalEOF", "FIFOOvf", "FIFOUdf"}

func (e RXEvent) String() string { return eventString(uint32(e), rxEventNames[:]) }

func (e TXEvent) String() string { return eventString(uint32(e), txEventNames[:]) }

func eventString(bits uint32, names []string) string {
	if bits == 0 {
		return "0"
	}
	var parts []string
	for i, n := range names {
		if bits&(1<<i) != 0 {
			parts = append(parts, n)
			bits &^= 1 << i
		}
	}
	if bits != 0 {
		parts = append(parts, "0x"+strconv.FormatUint(uint64(bits), 16))
	}
	return strings.Join(parts, "|")
}

// RawInterrupts returns the asserted RX events, enabled or not.
func (ch RXChannel) RawInterrupts() RXEvent { return RXEvent(ch.hw().INT.RAW.Get()) }

// Interrupts returns the asserted RX events that are also enabled.
func (ch RXChannel) Interrupts() RXEvent { return RXEvent(ch.hw().INT.ST.Get()) }

// EnableInterrupts enables (or disables) the events in mask, leaving the
// others as they are.
func (ch RXChannel) EnableInterrupts(mask RXEvent, enable bool) {
	if enable {
		ch.hw().INT.ENA.SetBits(uint32(mask))
	} else {
		ch.hw().INT.ENA.ClearBits(uint32(mask))
	}
}

// EnabledInterrupts returns the enabled RX events.
func (ch RXChannel) EnabledInterrupts() RXEvent { return RXEvent(ch.hw().INT.ENA.Get()) }

// ClearInterrupts clears the latched events in mask. Events not in mask are
// left untouched.
//
// An event of the same kind arriving between reading the status and this call
// is cleared too. Clear exactly the bits that were read; see AckInterrupts.
func (ch RXChannel) ClearInterrupts(mask RXEvent) { ch.hw().INT.CLR.Set(uint32(mask)) }

// AckInterrupts reads the enabled, asserted events once, clears exactly those
// and returns them. A new event of a kind not yet observed stays latched and
// is reported by the next call, so every event is seen at least once.
func (ch RXChannel) AckInterrupts() RXEvent {
	ev := ch.Interrupts()
	if ev != 0 {
		ch.ClearInterrupts(ev)
	}
	return ev
}

// InterruptStatusAddr returns the address of the masked interrupt status
// register, for callers that poll it directly.
func (ch RXChannel) InterruptStatusAddr() uintptr { return ch.hw().INT.ST.Addr() }

// RawInterrupts returns the asserted TX events, enabled or not.
func (ch TXChannel) RawInterrupts() TXEvent { return TXEvent(ch.hw().INT.RAW.Get()) }

// Interrupts returns the asserted TX events that are also enabled.
func (ch TXChannel) Interrupts() TXEvent { return TXEvent(ch.hw().INT.ST.Get()) }

// EnableInterrupts enables (or disables) the events in mask, leaving the
// others as they are.
func (ch TXChannel) EnableInterrupts(mask TXEvent, enable bool) {
	if enable {
		ch.hw().INT.ENA.SetBits(uint32(mask))
	} else {
		ch.hw().INT.ENA.ClearBits(uint32(mask))
	}
}

// EnabledInterrupts returns the enabled TX events.
func (ch TXChannel) EnabledInterrupts() TXEvent { return TXEvent(ch.hw().INT.ENA.Get()) }

// ClearInterrupts clears the latched events in mask.
func (ch TXChannel) ClearInterrupts(mask TXEvent) { ch.hw().INT.CLR.Set(uint32(mask)) }

// AckInterrupts reads the enabled, asserted events once, clears exactly those
// and returns them.
func (ch TXChannel) AckInterrupts() TXEvent {
	ev := ch.Interrupts()
	if ev != 0 {
		ch.ClearInterrupts(ev)
	}
	return ev
}

// InterruptStatusAddr returns the address of the masked interrupt status register.
func (ch TXChannel) InterruptStatusAddr() uintptr { return ch.hw().INT.ST.Addr() }
