package gdma

// RXFIFO is a view of an RX channel's FIFO at one level. The bulk data path
// does not go through here; it is for status and manual draining.
type RXFIFO struct{ hw *rxHW }

// TXFIFO is a view of a TX channel's FIFO at one level.
type TXFIFO struct{ hw *txHW }

// FIFO returns the channel's FIFO at level. This hardware has a single FIFO
// level, 1; any other level returns ErrFIFOLevel.
func (ch RXChannel) FIFO(level int) (RXFIFO, error) {
	if level != 1 {
		return RXFIFO{}, ErrFIFOLevel
	}
	return RXFIFO{hw: ch.hw()}, nil
}

// FIFO returns the channel's FIFO at level. Only level 1 exists.
func (ch TXChannel) FIFO(level int) (TXFIFO, error) {
	if level != 1 {
		return TXFIFO{}, ErrFIFOLevel
	}
	return TXFIFO{hw: ch.hw()}, nil
}

// IsFull returns true if the FIFO is full.
func (f RXFIFO) IsFull() bool { return f.hw.FIFO_STATUS.HasBits(1 << FIFO_STATUS_FULL_Pos) }

// IsEmpty returns true if the FIFO is empty.
func (f RXFIFO) IsEmpty() bool { return f.hw.FIFO_STATUS.HasBits(1 << FIFO_STATUS_EMPTY_Pos) }

// Bytes returns the number of bytes in the FIFO.
func (f RXFIFO) Bytes() uint32 {
	return (f.hw.FIFO_STATUS.Get() & FIFO_STATUS_CNT_Msk) >> FIFO_STATUS_CNT_Pos
}

// Pop pops one word from the FIFO.
//
// This function does not check for emptiness. Popping an empty FIFO raises
// RXFIFOUdf and the returned data is undefined.
func (f RXFIFO) Pop() uint32 {
	f.hw.POP.Set(1 << IN_POP_INFIFO_POP_Pos)
	return f.hw.POP.Get() & IN_POP_INFIFO_RDATA_Msk
}

// IsFull returns true if the FIFO is full.
func (f TXFIFO) IsFull() bool { return f.hw.FIFO_STATUS.HasBits(1 << FIFO_STATUS_FULL_Pos) }

// IsEmpty returns true if the FIFO is empty.
func (f TXFIFO) IsEmpty() bool { return f.hw.FIFO_STATUS.HasBits(1 << FIFO_STATUS_EMPTY_Pos) }

// Bytes returns the number of bytes in the FIFO.
func (f TXFIFO) Bytes() uint32 {
	return (f.hw.FIFO_STATUS.Get() & FIFO_STATUS_CNT_Msk) >> FIFO_STATUS_CNT_Pos
}

// Push pushes one word into the FIFO.
//
// This function does not check for fullness. Pushing into a full FIFO raises
// TXFIFOOvf and the data is dropped.
func (f TXFIFO) Push(data uint32) {
	f.hw.PUSH.Set(data & OUT_PUSH_OUTFIFO_WDATA_Msk)
	f.hw.PUSH.Set(data&OUT_PUSH_OUTFIFO_WDATA_Msk | 1<<OUT_PUSH_OUTFIFO_PUSH_Pos)
}
