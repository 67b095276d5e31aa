// Package gdma controls the channels of the ESP32-C5 General DMA controller.
//
// A GDMA group holds a fixed number of channel pairs. Each pair has an RX
// channel, which moves data from a peripheral into memory, and a TX channel,
// which moves data from memory to a peripheral. Both walk a linked list of
// descriptors on their own once started. This package exposes the per-channel
// control surface: configuration, descriptor list head, start/stop/restart,
// reset, interrupt status, FIFO status, peripheral routing and priority.
//
// Nothing here blocks. Waiting for a channel to park after Stop, or for an
// interrupt event, is up to the caller (see package gdmalib).
package gdma

import (
	"errors"
	"strconv"
)

const (
	// NumGroups is the number of AHB GDMA groups on the chip.
	NumGroups = 1
	// PairsPerGroup is the number of RX/TX channel pairs in each group.
	PairsPerGroup = 3
	// MaxPriority is the highest arbitration priority a channel accepts.
	MaxPriority = 5
)

// GDMA errors.
var (
	ErrChannelRunning = errors.New("gdma: channel is not idle")
	ErrPriority       = errors.New("gdma: priority out of range")
	ErrFIFOLevel      = errors.New("gdma: unsupported FIFO level")
	ErrPeriphID       = errors.New("gdma: invalid peripheral ID")
	ErrETMIndex       = errors.New("gdma: ETM lookup index out of range")
	errPairClaimed    = errors.New("gdma: all channel pairs claimed")
)

const (
	badChannelIndex = "gdma: invalid channel index"
)

// Group is one GDMA controller instance.
type Group struct {
	bus  Bus
	base uintptr
	id   uint8

	// Register blocks, computed once when the group is resolved.
	rx [PairsPerGroup]rxHW
	tx [PairsPerGroup]txHW

	misc Register
	date Register
	pcr  Register

	// Bitmask of claimed pairs.
	claimedMask uint8
	nc          noCopy
}

var groups [NumGroups]*Group

// Get returns the hardware GDMA group with the given ID, or nil if there is
// no such group. The same *Group is returned on every call.
func Get(id int) *Group {
	if id < 0 || id >= NumGroups {
		return nil
	}
	if groups[id] == nil {
		groups[id] = Open(MMIO, id)
	}
	return groups[id]
}

// Open resolves GDMA group id over bus. It returns nil if id is out of range.
//
// Use Get for the real hardware. Open exists so that the register logic can
// be pointed at something else, such as a simulated register file.
func Open(bus Bus, id int) *Group {
	if id < 0 || id >= NumGroups {
		return nil
	}
	base := uintptr(GDMA_BASE)
	g := &Group{
		bus:  bus,
		base: base,
		id:   uint8(id),
		misc: Register{bus, base + MISC_CONF},
		date: Register{bus, base + DATE},
		pcr:  Register{bus, PCR_GDMA_CONF},
	}
	for i := uint8(0); i < PairsPerGroup; i++ {
		g.rx[i] = newRxHW(bus, base, i)
		g.tx[i] = newTxHW(bus, base, i)
	}
	return g
}

// ID returns the group identifier.
func (g *Group) ID() uint8 { return g.id }

// Pair returns the channel pair at index. It panics if index is out of range.
func (g *Group) Pair(index uint8) Pair {
	if index >= PairsPerGroup {
		panic(badChannelIndex)
	}
	return Pair{group: g, index: index}
}

// ClaimPair returns an unclaimed channel pair, marking it claimed,
// or an error if every pair in the group is claimed.
func (g *Group) ClaimPair() (p Pair, err error) {
	for i := uint8(0); i < PairsPerGroup; i++ {
		p = g.Pair(i)
		if p.TryClaim() {
			return p, nil
		}
	}
	return Pair{}, errPairClaimed
}

// EnableBusClock gates the bus clock of the whole GDMA module.
//
// This affects every channel of every group. The caller must make sure no
// channel operation runs concurrently.
func (g *Group) EnableBusClock(enable bool) {
	g.pcr.ReplaceBits(boolToBit(enable), 0x1, PCR_GDMA_CONF_GDMA_CLK_EN_Pos)
}

// ResetRegisters pulses the module reset. Every channel loses its
// configuration and any transfer in flight.
func (g *Group) ResetRegisters() {
	g.pcr.SetBits(1 << PCR_GDMA_CONF_GDMA_RST_EN_Pos)
	g.pcr.ClearBits(1 << PCR_GDMA_CONF_GDMA_RST_EN_Pos)
}

// ForceRegisterClock forces the register clock on. When off, the clock is
// only running while registers are being accessed.
func (g *Group) ForceRegisterClock(enable bool) {
	if enable {
		g.misc.SetBits(MISC_CONF_CLK_EN)
	} else {
		g.misc.ClearBits(MISC_CONF_CLK_EN)
	}
}

// Version returns the contents of the DATE register, which identifies the
// hardware revision.
func (g *Group) Version() uint32 { return g.date.Get() }

// Pair is an RX and a TX channel sharing an index within a group.
type Pair struct {
	group *Group
	index uint8
}

// Group returns the group the pair belongs to.
func (p Pair) Group() *Group { return p.group }

// Index returns the index of the pair within its group.
func (p Pair) Index() uint8 { return p.index }

// IsValid returns true if p refers to a channel pair of a resolved group.
func (p Pair) IsValid() bool { return p.group != nil && p.index < PairsPerGroup }

// IsClaimed returns true if the pair is claimed by other code and should not be used.
// An invalid pair always reads as claimed.
func (p Pair) IsClaimed() bool {
	if !p.IsValid() {
		return true
	}
	return p.group.claimedMask&(1<<p.index) != 0
}

// Unclaim releases the pair for use by other code. It does nothing on an
// invalid pair.
func (p Pair) Unclaim() {
	if p.IsValid() {
		p.group.claimedMask &^= 1 << p.index
	}
}

// TryClaim attempts to claim the pair for the caller and returns true if
// successful, or false if it was already claimed or p is invalid. Regardless
// of result a valid pair is claimed after the call.
func (p Pair) TryClaim() bool {
	if p.IsClaimed() {
		return false
	}
	p.group.claimedMask |= 1 << p.index
	return true
}

// RX returns the receive channel of the pair.
func (p Pair) RX() RXChannel { return RXChannel{group: p.group, index: p.index} }

// TX returns the transmit channel of the pair.
func (p Pair) TX() TXChannel { return TXChannel{group: p.group, index: p.index} }

func (g *Group) name() string {
	return "GDMA" + strconv.Itoa(int(g.id))
}

// noCopy may be embedded into structs which must not be copied
// after the first use.
//
// See https://golang.org/issues/8005#issuecomment-190753527
// for details.
type noCopy struct{}

// Lock is a no-op used by -copylocks checker from `go vet`.
func (*noCopy) Lock()   {}
func (*noCopy) UnLock() {}
