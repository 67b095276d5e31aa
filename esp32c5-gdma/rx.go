package gdma

import (
	"strconv"

	"periph.io/x/periph/conn"
)

var _ conn.Resource = RXChannel{}

// RXChannel is the receive half of a channel pair. It moves data from a
// peripheral (or from the paired TX channel in M2M mode) into the buffers of
// a descriptor list.
//
// Control calls on one channel must not run concurrently; the strobes
// written by Start, Stop, Restart and Reset are not safe to interleave.
type RXChannel struct {
	group *Group
	index uint8
}

func (ch RXChannel) hw() *rxHW { return &ch.group.rx[ch.index] }

// Index returns the index of the channel within its group.
func (ch RXChannel) Index() uint8 { return ch.index }

// Pair returns the pair this channel belongs to.
func (ch RXChannel) Pair() Pair { return Pair{group: ch.group, index: ch.index} }

// String implements conn.Resource.
func (ch RXChannel) String() string {
	return ch.group.name() + ".RX" + strconv.Itoa(int(ch.index))
}

// Halt implements conn.Resource. It stops the channel and resets it, which
// discards anything in flight.
func (ch RXChannel) Halt() error {
	ch.Stop()
	ch.Reset()
	return nil
}

// Configure applies cfg. The channel must be idle; ErrChannelRunning is
// returned and nothing is written otherwise.
func (ch RXChannel) Configure(cfg RXConfig) error {
	if !ch.IsIdle() {
		return ErrChannelRunning
	}
	hw := ch.hw()
	hw.CONF0.ReplaceBits(cfg.Conf0, rxConf0Msk, 0)
	hw.CONF1.ReplaceBits(cfg.Conf1, rxConf1Msk, 0)
	ch.EnableAutoReturn(cfg.AutoReturn)
	return nil
}

// EnableOwnerCheck makes the channel check the owner bit of each descriptor.
func (ch RXChannel) EnableOwnerCheck(enable bool) {
	ch.hw().CONF1.ReplaceBits(boolToBit(enable), 0x1, IN_CONF1_IN_CHECK_OWNER_Pos)
}

// EnableDataBurst enables burst writes of received data.
func (ch RXChannel) EnableDataBurst(enable bool) {
	ch.hw().CONF0.ReplaceBits(boolToBit(enable), 0x1, IN_CONF0_IN_DATA_BURST_EN_Pos)
}

// EnableDescriptorBurst enables burst reads of descriptors.
func (ch RXChannel) EnableDescriptorBurst(enable bool) {
	ch.hw().CONF0.ReplaceBits(boolToBit(enable), 0x1, IN_CONF0_INDSCR_BURST_EN_Pos)
}

// EnableAutoReturn makes the channel report the address of the current
// descriptor when it receives an error, instead of moving on. It does not
// stop the channel.
func (ch RXChannel) EnableAutoReturn(enable bool) {
	ch.hw().LINK.ReplaceBits(boolToBit(enable), 0x1, IN_LINK_INLINK_AUTO_RET_Pos)
}

// Reset resets the descriptor FSM and the FIFO pointers. The channel is idle
// afterwards and whatever was in flight is lost. Safe to call in any state.
func (ch RXChannel) Reset() {
	hw := ch.hw()
	hw.CONF0.SetBits(1 << IN_CONF0_IN_RST_Pos)
	hw.CONF0.ClearBits(1 << IN_CONF0_IN_RST_Pos)
}

// SetDescriptorAddr sets the address of the first descriptor of the list.
// It must be called before Start.
func (ch RXChannel) SetDescriptorAddr(addr uint32) {
	ch.hw().LINK_ADDR.Set(addr)
}

// DescriptorAddr returns the address written by SetDescriptorAddr.
func (ch RXChannel) DescriptorAddr() uint32 {
	return ch.hw().LINK_ADDR.Get()
}

// Start makes the channel walk the descriptor list set by SetDescriptorAddr.
// It returns ErrChannelRunning if the channel is not idle.
//
// While ETM task mode is enabled the hardware only starts on an ETM task and
// ignores this call.
func (ch RXChannel) Start() error {
	if !ch.IsIdle() {
		return ErrChannelRunning
	}
	ch.hw().LINK.SetBits(1 << IN_LINK_INLINK_START_Pos)
	return nil
}

// Stop asks the channel to stop once the descriptor in flight completes.
// Poll IsIdle to know when it has.
func (ch RXChannel) Stop() {
	ch.hw().LINK.SetBits(1 << IN_LINK_INLINK_STOP_Pos)
}

// Restart makes a running channel continue with descriptors appended after
// the last one it completed, without a reset.
func (ch RXChannel) Restart() {
	ch.hw().LINK.SetBits(1 << IN_LINK_INLINK_RESTART_Pos)
}

// IsIdle returns true if the descriptor FSM is parked.
func (ch RXChannel) IsIdle() bool {
	return ch.hw().LINK.HasBits(1 << IN_LINK_INLINK_PARK_Pos)
}

// SuccessEOFAddr returns the address of the descriptor that completed the
// last frame received without error. Only meaningful after RXSucEOF.
func (ch RXChannel) SuccessEOFAddr() uint32 {
	return ch.hw().SUC_EOF_DES_ADDR.Get()
}

// ErrorEOFAddr returns the address of the descriptor at which an error was
// detected. Only meaningful after RXDescError or RXErrEOF.
func (ch RXChannel) ErrorEOFAddr() uint32 {
	return ch.hw().ERR_EOF_DES_ADDR.Get()
}

// PrefetchedDescAddr returns the address of the descriptor the channel has
// fetched ahead. For diagnostics only.
func (ch RXChannel) PrefetchedDescAddr() uint32 {
	return ch.hw().DSCR.Get()
}

// State returns the raw IN_STATE register, which holds the descriptor FSM
// state and the address of the descriptor being processed.
func (ch RXChannel) State() uint32 {
	return ch.hw().STATE.Get()
}

// SetPriority sets the arbitration priority, 0 to MaxPriority. Channels with
// a higher priority win the bus. ErrPriority is returned for any other value
// and nothing is written.
func (ch RXChannel) SetPriority(prio uint8) error {
	if prio > MaxPriority {
		return ErrPriority
	}
	ch.hw().PRI.ReplaceBits(uint32(prio), PRI_Msk, 0)
	return nil
}

// Priority returns the arbitration priority.
func (ch RXChannel) Priority() uint8 {
	return uint8(ch.hw().PRI.Get() & PRI_Msk)
}

// Connect routes the hardware trigger of peripheral id to the channel. For
// PeriphM2M the memory transfer mode is turned on as well and id must be one
// of the free IDs in M2MFreePeriphIDMask.
func (ch RXChannel) Connect(periph Peripheral, id int) error {
	if err := checkPeriphID(periph, id); err != nil {
		return err
	}
	hw := ch.hw()
	hw.PERI_SEL.ReplaceBits(uint32(id), PERI_SEL_Msk, 0)
	hw.CONF0.ReplaceBits(boolToBit(periph == PeriphM2M), 0x1, IN_CONF0_MEM_TRANS_EN_Pos)
	return nil
}

// Disconnect detaches the channel from any peripheral and turns off memory
// transfer mode.
func (ch RXChannel) Disconnect() {
	hw := ch.hw()
	hw.PERI_SEL.ReplaceBits(InvalidPeriphID, PERI_SEL_Msk, 0)
	hw.CONF0.ClearBits(1 << IN_CONF0_MEM_TRANS_EN_Pos)
}

// PeripheralID returns the peripheral ID the channel is connected to, or
// InvalidPeriphID.
func (ch RXChannel) PeripheralID() int {
	return int(ch.hw().PERI_SEL.Get() & PERI_SEL_Msk)
}

// IsMemTransferEnabled returns true if the channel is in M2M mode.
func (ch RXChannel) IsMemTransferEnabled() bool {
	return ch.hw().CONF0.HasBits(1 << IN_CONF0_MEM_TRANS_EN_Pos)
}

// EnableETMTask hands control of the channel to the event task matrix. While
// enabled only ETM tasks start the channel.
func (ch RXChannel) EnableETMTask(enable bool) {
	ch.hw().CONF0.ReplaceBits(boolToBit(enable), 0x1, IN_CONF0_IN_ETM_EN_Pos)
}

// IsETMEnabled returns true if ETM task mode is enabled.
func (ch RXChannel) IsETMEnabled() bool {
	return ch.hw().CONF0.HasBits(1 << IN_CONF0_IN_ETM_EN_Pos)
}
