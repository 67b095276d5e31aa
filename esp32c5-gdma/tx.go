package gdma

import (
	"strconv"

	"periph.io/x/periph/conn"
)

var _ conn.Resource = TXChannel{}

// TXChannel is the transmit half of a channel pair. It moves data from the
// buffers of a descriptor list to a peripheral (or to the paired RX channel
// in M2M mode).
type TXChannel struct {
	group *Group
	index uint8
}

func (ch TXChannel) hw() *txHW { return &ch.group.tx[ch.index] }

// Index returns the index of the channel within its group.
func (ch TXChannel) Index() uint8 { return ch.index }

// Pair returns the pair this channel belongs to.
func (ch TXChannel) Pair() Pair { return Pair{group: ch.group, index: ch.index} }

// String implements conn.Resource.
func (ch TXChannel) String() string {
	return ch.group.name() + ".TX" + strconv.Itoa(int(ch.index))
}

// Halt implements conn.Resource. It stops the channel and resets it.
func (ch TXChannel) Halt() error {
	ch.Stop()
	ch.Reset()
	return nil
}

// Configure applies cfg. The channel must be idle; ErrChannelRunning is
// returned and nothing is written otherwise.
func (ch TXChannel) Configure(cfg TXConfig) error {
	if !ch.IsIdle() {
		return ErrChannelRunning
	}
	hw := ch.hw()
	hw.CONF0.ReplaceBits(cfg.Conf0, txConf0Msk, 0)
	hw.CONF1.ReplaceBits(cfg.Conf1, txConf1Msk, 0)
	return nil
}

// EnableOwnerCheck makes the channel check the owner bit of each descriptor.
func (ch TXChannel) EnableOwnerCheck(enable bool) {
	ch.hw().CONF1.ReplaceBits(boolToBit(enable), 0x1, OUT_CONF1_OUT_CHECK_OWNER_Pos)
}

// EnableDataBurst enables burst reads of data to send.
func (ch TXChannel) EnableDataBurst(enable bool) {
	ch.hw().CONF0.ReplaceBits(boolToBit(enable), 0x1, OUT_CONF0_OUT_DATA_BURST_EN_Pos)
}

// EnableDescriptorBurst enables burst reads of descriptors.
func (ch TXChannel) EnableDescriptorBurst(enable bool) {
	ch.hw().CONF0.ReplaceBits(boolToBit(enable), 0x1, OUT_CONF0_OUTDSCR_BURST_EN_Pos)
}

// SetEOFMode selects when the channel raises TXEOF.
func (ch TXChannel) SetEOFMode(mode EOFMode) {
	ch.hw().CONF0.ReplaceBits(uint32(mode), 0x1, OUT_CONF0_OUT_EOF_MODE_Pos)
}

// EnableAutoWriteBack makes the channel write results back to each
// descriptor once its data has been sent.
func (ch TXChannel) EnableAutoWriteBack(enable bool) {
	ch.hw().CONF0.ReplaceBits(boolToBit(enable), 0x1, OUT_CONF0_OUT_AUTO_WRBACK_Pos)
}

// Reset resets the descriptor FSM and the FIFO pointers.
func (ch TXChannel) Reset() {
	hw := ch.hw()
	hw.CONF0.SetBits(1 << OUT_CONF0_OUT_RST_Pos)
	hw.CONF0.ClearBits(1 << OUT_CONF0_OUT_RST_Pos)
}

// SetDescriptorAddr sets the address of the first descriptor of the list.
func (ch TXChannel) SetDescriptorAddr(addr uint32) {
	ch.hw().LINK_ADDR.Set(addr)
}

// DescriptorAddr returns the address written by SetDescriptorAddr.
func (ch TXChannel) DescriptorAddr() uint32 {
	return ch.hw().LINK_ADDR.Get()
}

// Start makes the channel walk the descriptor list. It returns
// ErrChannelRunning if the channel is not idle.
func (ch TXChannel) Start() error {
	if !ch.IsIdle() {
		return ErrChannelRunning
	}
	ch.hw().LINK.SetBits(1 << OUT_LINK_OUTLINK_START_Pos)
	return nil
}

// Stop asks the channel to stop once the descriptor in flight completes.
func (ch TXChannel) Stop() {
	ch.hw().LINK.SetBits(1 << OUT_LINK_OUTLINK_STOP_Pos)
}

// Restart makes a running channel continue with descriptors appended after
// the last one it completed.
func (ch TXChannel) Restart() {
	ch.hw().LINK.SetBits(1 << OUT_LINK_OUTLINK_RESTART_Pos)
}

// IsIdle returns true if the descriptor FSM is parked.
func (ch TXChannel) IsIdle() bool {
	return ch.hw().LINK.HasBits(1 << OUT_LINK_OUTLINK_PARK_Pos)
}

// EOFAddr returns the address of the descriptor that raised the last TXEOF.
func (ch TXChannel) EOFAddr() uint32 {
	return ch.hw().EOF_DES_ADDR.Get()
}

// EOFBeforeAddr returns the address of the descriptor preceding the one
// that raised the last TXEOF.
func (ch TXChannel) EOFBeforeAddr() uint32 {
	return ch.hw().EOF_BFR_DES_ADDR.Get()
}

// PrefetchedDescAddr returns the address of the descriptor the channel has
// fetched ahead.
func (ch TXChannel) PrefetchedDescAddr() uint32 {
	return ch.hw().DSCR.Get()
}

// State returns the raw OUT_STATE register.
func (ch TXChannel) State() uint32 {
	return ch.hw().STATE.Get()
}

// SetPriority sets the arbitration priority, 0 to MaxPriority.
func (ch TXChannel) SetPriority(prio uint8) error {
	if prio > MaxPriority {
		return ErrPriority
	}
	ch.hw().PRI.ReplaceBits(uint32(prio), PRI_Msk, 0)
	return nil
}

// Priority returns the arbitration priority.
func (ch TXChannel) Priority() uint8 {
	return uint8(ch.hw().PRI.Get() & PRI_Msk)
}

// Connect routes the hardware trigger of peripheral id to the channel. The
// TX side has no memory transfer flag; for PeriphM2M only the ID is checked
// and written.
func (ch TXChannel) Connect(periph Peripheral, id int) error {
	if err := checkPeriphID(periph, id); err != nil {
		return err
	}
	ch.hw().PERI_SEL.ReplaceBits(uint32(id), PERI_SEL_Msk, 0)
	return nil
}

// Disconnect detaches the channel from any peripheral.
func (ch TXChannel) Disconnect() {
	ch.hw().PERI_SEL.ReplaceBits(InvalidPeriphID, PERI_SEL_Msk, 0)
}

// PeripheralID returns the peripheral ID the channel is connected to.
func (ch TXChannel) PeripheralID() int {
	return int(ch.hw().PERI_SEL.Get() & PERI_SEL_Msk)
}

// EnableETMTask hands control of the channel to the event task matrix.
func (ch TXChannel) EnableETMTask(enable bool) {
	ch.hw().CONF0.ReplaceBits(boolToBit(enable), 0x1, OUT_CONF0_OUT_ETM_EN_Pos)
}

// IsETMEnabled returns true if ETM task mode is enabled.
func (ch TXChannel) IsETMEnabled() bool {
	return ch.hw().CONF0.HasBits(1 << OUT_CONF0_OUT_ETM_EN_Pos)
}
