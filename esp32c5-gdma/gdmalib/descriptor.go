package gdmalib

import (
	gdma "github.com/tinygo-org/gdma/esp32c5-gdma"
)

// Descriptor word 0 fields.
const (
	dwSizeMsk   = 0xFFF
	dwLengthPos = 12
	dwLengthMsk = 0xFFF << dwLengthPos
	dwErrEOF    = 1 << 28
	dwSucEOF    = 1 << 30
	dwOwnerDMA  = 1 << 31
)

const (
	// DescriptorSize is the size in bytes of one descriptor in memory.
	DescriptorSize = 12
	// MaxChunk is the largest buffer a single descriptor can describe.
	MaxChunk = dwSizeMsk
)

// Descriptor is one node of a linked list walked by a GDMA channel.
type Descriptor struct {
	// Size is the capacity of the buffer. Used by RX.
	Size uint16
	// Length is the number of valid bytes in the buffer. Set by software
	// for TX and written back by hardware for RX.
	Length uint16
	// SucEOF marks the last descriptor of a frame.
	SucEOF bool
	// ErrEOF is set by hardware when the received frame had errors.
	ErrEOF bool
	// OwnerDMA hands the descriptor to the hardware.
	OwnerDMA bool
	Buffer   uint32
	Next     uint32
}

func (d Descriptor) word0() uint32 {
	w := uint32(d.Size)&dwSizeMsk | uint32(d.Length)<<dwLengthPos&dwLengthMsk
	if d.ErrEOF {
		w |= dwErrEOF
	}
	if d.SucEOF {
		w |= dwSucEOF
	}
	if d.OwnerDMA {
		w |= dwOwnerDMA
	}
	return w
}

// WriteDescriptor stores d at addr.
func WriteDescriptor(bus gdma.Bus, addr uintptr, d Descriptor) {
	bus.Store32(addr, d.word0())
	bus.Store32(addr+4, d.Buffer)
	bus.Store32(addr+8, d.Next)
}

// ReadDescriptor loads the descriptor at addr.
func ReadDescriptor(bus gdma.Bus, addr uintptr) Descriptor {
	w0 := bus.Load32(addr)
	return Descriptor{
		Size:     uint16(w0 & dwSizeMsk),
		Length:   uint16(w0 & dwLengthMsk >> dwLengthPos),
		ErrEOF:   w0&dwErrEOF != 0,
		SucEOF:   w0&dwSucEOF != 0,
		OwnerDMA: w0&dwOwnerDMA != 0,
		Buffer:   bus.Load32(addr + 4),
		Next:     bus.Load32(addr + 8),
	}
}

// WriteList stores descs back to back starting at addr and links them in
// order. The Next field of each element is overwritten. If circular is set
// the last descriptor links back to the first, else it terminates the list.
// The returned value is the head address to hand to SetDescriptorAddr.
func WriteList(bus gdma.Bus, addr uintptr, descs []Descriptor, circular bool) uint32 {
	head := uint32(addr)
	for i, d := range descs {
		here := addr + uintptr(i)*DescriptorSize
		switch {
		case i < len(descs)-1:
			d.Next = uint32(here + DescriptorSize)
		case circular:
			d.Next = head
		default:
			d.Next = 0
		}
		WriteDescriptor(bus, here, d)
	}
	return head
}

// Chunks splits n bytes starting at buf into descriptors of at most MaxChunk
// bytes each, owned by the DMA. With tx set, Length is filled in and the last
// descriptor is marked SucEOF.
func Chunks(buf uint32, n int, tx bool) []Descriptor {
	var descs []Descriptor
	for off := 0; off < n; off += MaxChunk {
		size := n - off
		if size > MaxChunk {
			size = MaxChunk
		}
		d := Descriptor{
			Size:     uint16(size),
			OwnerDMA: true,
			Buffer:   buf + uint32(off),
		}
		if tx {
			d.Length = uint16(size)
			d.SucEOF = off+size == n
		}
		descs = append(descs, d)
	}
	return descs
}

// chunkCount returns how many descriptors Chunks produces for n bytes.
func chunkCount(n int) int {
	return (n + MaxChunk - 1) / MaxChunk
}
