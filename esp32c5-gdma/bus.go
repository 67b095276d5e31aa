package gdma

// Bus performs 32-bit accesses on the address space a GDMA group lives in.
//
// On hardware this is MMIO. Tests substitute a simulated register file
// (see package gdmatest).
type Bus interface {
	Load32(addr uintptr) uint32
	Store32(addr uintptr, value uint32)
}

// MMIO is the Bus that accesses physical addresses directly.
var MMIO Bus = mmio{}

// Register is a single 32-bit hardware register reached through a Bus.
// Its method set mirrors volatile.Register32.
type Register struct {
	bus  Bus
	addr uintptr
}

// Get returns the value in the register.
func (r Register) Get() uint32 { return r.bus.Load32(r.addr) }

// Set writes value to the register.
func (r Register) Set(value uint32) { r.bus.Store32(r.addr, value) }

// SetBits reads the register, sets the given bits, and writes it back.
func (r Register) SetBits(value uint32) { r.Set(r.Get() | value) }

// ClearBits reads the register, clears the given bits, and writes it back.
func (r Register) ClearBits(value uint32) { r.Set(r.Get() &^ value) }

// HasBits reads the register and returns true if any of the given bits are set.
func (r Register) HasBits(value uint32) bool { return r.Get()&value != 0 }

// ReplaceBits replaces the bits selected by mask at position pos with value.
//
//	r = (r &^ (mask << pos)) | (value&mask) << pos
func (r Register) ReplaceBits(value, mask uint32, pos uint8) {
	r.Set(r.Get()&^(mask<<pos) | (value&mask)<<pos)
}

// Addr returns the address of the register.
func (r Register) Addr() uintptr { return r.addr }

func boolToBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
