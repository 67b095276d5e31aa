package gdma

// RXConfig holds the configuration of an RX channel as register images.
// The zero value, also returned by DefaultRXConfig, has every feature
// disabled.
type RXConfig struct {
	// Conf0 holds the IN_CONF0 bits owned by configuration.
	Conf0 uint32
	// Conf1 holds the IN_CONF1 bits owned by configuration.
	Conf1 uint32
	// AutoReturn is applied to the INLINK_AUTO_RET bit of IN_LINK.
	AutoReturn bool
}

// TXConfig holds the configuration of a TX channel as register images.
// The zero value, also returned by DefaultTXConfig, has every feature
// disabled and EOFModeData selected.
type TXConfig struct {
	// Conf0 holds the OUT_CONF0 bits owned by configuration.
	Conf0 uint32
	// Conf1 holds the OUT_CONF1 bits owned by configuration.
	Conf1 uint32
}

// EOFMode selects when a TX channel raises its EOF event.
type EOFMode uint8

const (
	// EOFModeData raises EOF once the last data of a frame has been
	// popped from memory into the FIFO.
	EOFModeData EOFMode = iota
	// EOFModeDescriptor raises EOF once the descriptor with the EOF bit set
	// has been fully sent to the peripheral.
	EOFModeDescriptor
)

// Bits of CONF0/CONF1 that Configure writes. The rest belong to Reset,
// Connect and EnableETMTask.
const (
	rxConf0Msk = 1<<IN_CONF0_INDSCR_BURST_EN_Pos | 1<<IN_CONF0_IN_DATA_BURST_EN_Pos
	rxConf1Msk = 1 << IN_CONF1_IN_CHECK_OWNER_Pos
	txConf0Msk = 1<<OUT_CONF0_OUT_AUTO_WRBACK_Pos | 1<<OUT_CONF0_OUT_EOF_MODE_Pos |
		1<<OUT_CONF0_OUTDSCR_BURST_EN_Pos | 1<<OUT_CONF0_OUT_DATA_BURST_EN_Pos
	txConf1Msk = 1 << OUT_CONF1_OUT_CHECK_OWNER_Pos
)

// DefaultRXConfig returns an RX configuration with everything disabled.
func DefaultRXConfig() RXConfig { return RXConfig{} }

// DefaultTXConfig returns a TX configuration with everything disabled.
func DefaultTXConfig() TXConfig { return TXConfig{} }

// SetDataBurst enables burst mode when writing received data to memory.
func (cfg *RXConfig) SetDataBurst(enable bool) {
	setBitPos(&cfg.Conf0, IN_CONF0_IN_DATA_BURST_EN_Pos, enable)
}

// SetDescriptorBurst enables burst mode when reading descriptors.
func (cfg *RXConfig) SetDescriptorBurst(enable bool) {
	setBitPos(&cfg.Conf0, IN_CONF0_INDSCR_BURST_EN_Pos, enable)
}

// SetOwnerCheck makes the channel check the owner bit of each descriptor.
// A descriptor not owned by the DMA raises a descriptor error.
func (cfg *RXConfig) SetOwnerCheck(enable bool) {
	setBitPos(&cfg.Conf1, IN_CONF1_IN_CHECK_OWNER_Pos, enable)
}

// SetAutoReturn makes the channel report the address of the current
// descriptor when it receives an error. See RXChannel.EnableAutoReturn.
func (cfg *RXConfig) SetAutoReturn(enable bool) {
	cfg.AutoReturn = enable
}

// SetDataBurst enables burst mode when reading data to send from memory.
func (cfg *TXConfig) SetDataBurst(enable bool) {
	setBitPos(&cfg.Conf0, OUT_CONF0_OUT_DATA_BURST_EN_Pos, enable)
}

// SetDescriptorBurst enables burst mode when reading descriptors.
func (cfg *TXConfig) SetDescriptorBurst(enable bool) {
	setBitPos(&cfg.Conf0, OUT_CONF0_OUTDSCR_BURST_EN_Pos, enable)
}

// SetOwnerCheck makes the channel check the owner bit of each descriptor.
func (cfg *TXConfig) SetOwnerCheck(enable bool) {
	setBitPos(&cfg.Conf1, OUT_CONF1_OUT_CHECK_OWNER_Pos, enable)
}

// SetAutoWriteBack makes the channel write the length and owner fields back
// to each descriptor once its data has been sent.
func (cfg *TXConfig) SetAutoWriteBack(enable bool) {
	setBitPos(&cfg.Conf0, OUT_CONF0_OUT_AUTO_WRBACK_Pos, enable)
}

// SetEOFMode selects when the channel raises EOF.
func (cfg *TXConfig) SetEOFMode(mode EOFMode) {
	setBitPos(&cfg.Conf0, OUT_CONF0_OUT_EOF_MODE_Pos, mode == EOFModeDescriptor)
}

// EOFMode returns the configured EOF mode.
func (cfg TXConfig) EOFMode() EOFMode {
	return EOFMode((cfg.Conf0 >> OUT_CONF0_OUT_EOF_MODE_Pos) & 1)
}

func setBitPos(reg *uint32, pos uint32, bit bool) {
	if bit {
		*reg = *reg | (1 << pos)
	} else {
		*reg = *reg & ^(1 << pos) // unset bit.
	}
}
