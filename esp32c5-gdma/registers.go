package gdma

// Register map of the ESP32-C5 AHB GDMA. Offsets are relative to the group
// base address unless stated otherwise. Names follow the SVD naming used by
// TinyGo's device packages.
const (
	GDMA_BASE     = 0x60080000
	PCR_GDMA_CONF = 0x600960BC // absolute

	PCR_GDMA_CONF_GDMA_CLK_EN_Pos = 0x0
	PCR_GDMA_CONF_GDMA_RST_EN_Pos = 0x1

	// Interrupt registers. Four per channel and direction.
	IN_INT_CH0       = 0x00
	OUT_INT_CH0      = 0x30
	INT_STRIDE       = 0x10
	INT_RAW          = 0x0
	INT_ST           = 0x4
	INT_ENA          = 0x8
	INT_CLR          = 0xC
	MISC_CONF        = 0x64
	DATE             = 0x68
	CH0              = 0x70
	CH_STRIDE        = 0xC0
	MISC_CONF_CLK_EN = 1 << 3

	// RX sub-registers, relative to the channel block.
	IN_CONF0            = 0x00
	IN_CONF1            = 0x04
	INFIFO_STATUS       = 0x08
	IN_POP              = 0x0C
	IN_LINK             = 0x10
	IN_LINK_ADDR        = 0x14
	IN_STATE            = 0x18
	IN_SUC_EOF_DES_ADDR = 0x1C
	IN_ERR_EOF_DES_ADDR = 0x20
	IN_DSCR             = 0x24
	IN_DSCR_BF0         = 0x28
	IN_DSCR_BF1         = 0x2C
	IN_PRI              = 0x30
	IN_PERI_SEL         = 0x34

	// TX sub-registers, relative to the channel block.
	OUT_CONF0            = 0x60
	OUT_CONF1            = 0x64
	OUTFIFO_STATUS       = 0x68
	OUT_PUSH             = 0x6C
	OUT_LINK             = 0x70
	OUT_LINK_ADDR        = 0x74
	OUT_STATE            = 0x78
	OUT_EOF_DES_ADDR     = 0x7C
	OUT_EOF_BFR_DES_ADDR = 0x80
	OUT_DSCR             = 0x84
	OUT_DSCR_BF0         = 0x88
	OUT_DSCR_BF1         = 0x8C
	OUT_PRI              = 0x90
	OUT_PERI_SEL         = 0x94
)

// Field positions and masks.
const (
	IN_CONF0_IN_RST_Pos           = 0x0
	IN_CONF0_IN_LOOP_TEST_Pos     = 0x1
	IN_CONF0_INDSCR_BURST_EN_Pos  = 0x2
	IN_CONF0_IN_DATA_BURST_EN_Pos = 0x3
	IN_CONF0_MEM_TRANS_EN_Pos     = 0x4
	IN_CONF0_IN_ETM_EN_Pos        = 0x5
	IN_CONF1_IN_CHECK_OWNER_Pos   = 0xC

	OUT_CONF0_OUT_RST_Pos           = 0x0
	OUT_CONF0_OUT_LOOP_TEST_Pos     = 0x1
	OUT_CONF0_OUT_AUTO_WRBACK_Pos   = 0x2
	OUT_CONF0_OUT_EOF_MODE_Pos      = 0x3
	OUT_CONF0_OUTDSCR_BURST_EN_Pos  = 0x4
	OUT_CONF0_OUT_DATA_BURST_EN_Pos = 0x5
	OUT_CONF0_OUT_ETM_EN_Pos        = 0x6
	OUT_CONF1_OUT_CHECK_OWNER_Pos   = 0xC

	FIFO_STATUS_FULL_Pos  = 0x0
	FIFO_STATUS_EMPTY_Pos = 0x1
	FIFO_STATUS_CNT_Pos   = 0x2
	FIFO_STATUS_CNT_Msk   = 0x3F << FIFO_STATUS_CNT_Pos

	IN_POP_INFIFO_RDATA_Msk    = 0xFFF
	IN_POP_INFIFO_POP_Pos      = 0xC
	OUT_PUSH_OUTFIFO_WDATA_Msk = 0x1FF
	OUT_PUSH_OUTFIFO_PUSH_Pos  = 0x9

	IN_LINK_INLINK_AUTO_RET_Pos = 0x0
	IN_LINK_INLINK_STOP_Pos     = 0x1
	IN_LINK_INLINK_START_Pos    = 0x2
	IN_LINK_INLINK_RESTART_Pos  = 0x3
	IN_LINK_INLINK_PARK_Pos     = 0x4

	OUT_LINK_OUTLINK_STOP_Pos    = 0x0
	OUT_LINK_OUTLINK_START_Pos   = 0x1
	OUT_LINK_OUTLINK_RESTART_Pos = 0x2
	OUT_LINK_OUTLINK_PARK_Pos    = 0x3

	PRI_Msk      = 0xF
	PERI_SEL_Msk = 0x3F
)

// rxHW is the RX half of a channel register block together with the
// channel's RX interrupt registers.
type rxHW struct {
	CONF0            Register
	CONF1            Register
	FIFO_STATUS      Register
	POP              Register
	LINK             Register
	LINK_ADDR        Register
	STATE            Register
	SUC_EOF_DES_ADDR Register
	ERR_EOF_DES_ADDR Register
	DSCR             Register
	DSCR_BF0         Register
	DSCR_BF1         Register
	PRI              Register
	PERI_SEL         Register
	INT              intHW
}

// txHW is the TX half of a channel register block together with the
// channel's TX interrupt registers.
type txHW struct {
	CONF0            Register
	CONF1            Register
	FIFO_STATUS      Register
	PUSH             Register
	LINK             Register
	LINK_ADDR        Register
	STATE            Register
	EOF_DES_ADDR     Register
	EOF_BFR_DES_ADDR Register
	DSCR             Register
	DSCR_BF0         Register
	DSCR_BF1         Register
	PRI              Register
	PERI_SEL         Register
	INT              intHW
}

type intHW struct {
	RAW Register
	ST  Register
	ENA Register
	CLR Register
}

func newIntHW(bus Bus, base uintptr) intHW {
	return intHW{
		RAW: Register{bus, base + INT_RAW},
		ST:  Register{bus, base + INT_ST},
		ENA: Register{bus, base + INT_ENA},
		CLR: Register{bus, base + INT_CLR},
	}
}

// channelBase is the only place a channel index turns into an address.
func channelBase(groupBase uintptr, index uint8) uintptr {
	if index >= PairsPerGroup {
		panic(badChannelIndex)
	}
	return groupBase + CH0 + uintptr(index)*CH_STRIDE
}

func newRxHW(bus Bus, groupBase uintptr, index uint8) rxHW {
	ch := channelBase(groupBase, index)
	reg := func(off uintptr) Register { return Register{bus, ch + off} }
	return rxHW{
		CONF0:            reg(IN_CONF0),
		CONF1:            reg(IN_CONF1),
		FIFO_STATUS:      reg(INFIFO_STATUS),
		POP:              reg(IN_POP),
		LINK:             reg(IN_LINK),
		LINK_ADDR:        reg(IN_LINK_ADDR),
		STATE:            reg(IN_STATE),
		SUC_EOF_DES_ADDR: reg(IN_SUC_EOF_DES_ADDR),
		ERR_EOF_DES_ADDR: reg(IN_ERR_EOF_DES_ADDR),
		DSCR:             reg(IN_DSCR),
		DSCR_BF0:         reg(IN_DSCR_BF0),
		DSCR_BF1:         reg(IN_DSCR_BF1),
		PRI:              reg(IN_PRI),
		PERI_SEL:         reg(IN_PERI_SEL),
		INT:              newIntHW(bus, groupBase+IN_INT_CH0+uintptr(index)*INT_STRIDE),
	}
}

func newTxHW(bus Bus, groupBase uintptr, index uint8) txHW {
	ch := channelBase(groupBase, index)
	reg := func(off uintptr) Register { return Register{bus, ch + off} }
	return txHW{
		CONF0:            reg(OUT_CONF0),
		CONF1:            reg(OUT_CONF1),
		FIFO_STATUS:      reg(OUTFIFO_STATUS),
		PUSH:             reg(OUT_PUSH),
		LINK:             reg(OUT_LINK),
		LINK_ADDR:        reg(OUT_LINK_ADDR),
		STATE:            reg(OUT_STATE),
		EOF_DES_ADDR:     reg(OUT_EOF_DES_ADDR),
		EOF_BFR_DES_ADDR: reg(OUT_EOF_BFR_DES_ADDR),
		DSCR:             reg(OUT_DSCR),
		DSCR_BF0:         reg(OUT_DSCR_BF0),
		DSCR_BF1:         reg(OUT_DSCR_BF1),
		PRI:              reg(OUT_PRI),
		PERI_SEL:         reg(OUT_PERI_SEL),
		INT:              newIntHW(bus, groupBase+OUT_INT_CH0+uintptr(index)*INT_STRIDE),
	}
}
