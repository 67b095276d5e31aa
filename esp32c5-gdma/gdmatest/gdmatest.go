// Package gdmatest is meant to be used to test code using package gdma
// against a simulated GDMA register file.
//
// Bus implements gdma.Bus. Addresses inside the GDMA and PCR register
// windows behave like the hardware registers; every other address is plain
// byte-addressed RAM where tests place descriptors and buffers.
//
// The simulated engine runs in lock step with software: every Load32 lets
// each running channel process at most one descriptor. Polling a status
// register is therefore enough to make progress.
package gdmatest

import (
	"encoding/binary"
	"sync"

	gdma "github.com/tinygo-org/gdma/esp32c5-gdma"
)

// Descriptor word 0 layout.
const (
	DescSizeMsk   = 0xFFF
	DescLengthPos = 12
	DescLengthMsk = 0xFFF << DescLengthPos
	DescErrEOF    = 1 << 28
	DescSucEOF    = 1 << 30
	DescOwnerDMA  = 1 << 31
)

// FIFODepth is the number of bytes the simulated FIFOs hold.
const FIFODepth = 32

// DateValue is what the simulated DATE register reads.
const DateValue = 0x2403_0710

type segment struct {
	data []byte
	eof  bool
}

type channel struct {
	conf0, conf1 uint32
	link         uint32 // non-strobe bits only
	linkAddr     uint32
	pri, periSel uint32
	raw, ena     uint32
	dscr         uint32
	bf0, bf1     uint32
	sucEOF       uint32 // RX SUC_EOF / TX EOF descriptor address
	errEOF       uint32
	eofBefore    uint32
	rdata        uint32
	wdata        uint32

	running  bool
	stopping bool
	cur      uint32 // descriptor being processed, 0 if none
	last     uint32 // last completed descriptor
	filled   uint32 // RX bytes already written into cur's buffer
	fifo     []byte
}

func newChannel() channel {
	return channel{periSel: gdma.InvalidPeriphID}
}

// Bus is a simulated GDMA group plus memory. The zero value is not usable;
// use NewBus.
type Bus struct {
	mu  sync.Mutex
	mem map[uintptr]byte
	rx  [gdma.PairsPerGroup]channel
	tx  [gdma.PairsPerGroup]channel
	pcr uint32

	misc uint32
	// input holds data fed to RX channels that are not in M2M mode.
	input [gdma.PairsPerGroup][]segment
	// pipe holds data sent by a TX channel to its M2M RX peer.
	pipe [gdma.PairsPerGroup][]segment
	// output collects data sent by TX channels that are not in M2M mode.
	output [gdma.PairsPerGroup][]byte
}

// NewBus returns a simulated GDMA group in its reset state, with the bus
// clock enabled.
func NewBus() *Bus {
	b := &Bus{
		mem: map[uintptr]byte{},
		pcr: 1 << gdma.PCR_GDMA_CONF_GDMA_CLK_EN_Pos,
	}
	b.resetAll()
	return b
}

func (b *Bus) resetAll() {
	for i := range b.rx {
		b.rx[i] = newChannel()
		b.tx[i] = newChannel()
		b.input[i] = nil
		b.pipe[i] = nil
	}
	b.misc = 0
}

func (b *Bus) clocked() bool {
	return b.pcr&(1<<gdma.PCR_GDMA_CONF_GDMA_CLK_EN_Pos) != 0
}

// Load32 implements gdma.Bus.
func (b *Bus) Load32(addr uintptr) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.step()
	if addr == gdma.PCR_GDMA_CONF {
		return b.pcr
	}
	if !inGDMA(addr) {
		return b.load32(addr)
	}
	if !b.clocked() {
		return 0
	}
	off := addr - gdma.GDMA_BASE
	switch {
	case off < gdma.OUT_INT_CH0:
		return b.loadInt(&b.rx[off/gdma.INT_STRIDE], off%gdma.INT_STRIDE)
	case off < outIntEnd:
		off -= gdma.OUT_INT_CH0
		return b.loadInt(&b.tx[off/gdma.INT_STRIDE], off%gdma.INT_STRIDE)
	case off == gdma.MISC_CONF:
		return b.misc
	case off == gdma.DATE:
		return DateValue
	case off >= gdma.CH0:
		off -= gdma.CH0
		idx, sub := off/gdma.CH_STRIDE, off%gdma.CH_STRIDE
		if sub < gdma.OUT_CONF0 {
			return b.loadRX(&b.rx[idx], sub)
		}
		return b.loadTX(&b.tx[idx], sub)
	}
	return 0
}

// Store32 implements gdma.Bus.
func (b *Bus) Store32(addr uintptr, value uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if addr == gdma.PCR_GDMA_CONF {
		b.pcr = value
		if value&(1<<gdma.PCR_GDMA_CONF_GDMA_RST_EN_Pos) != 0 {
			b.resetAll()
		}
		return
	}
	if !inGDMA(addr) {
		b.store32(addr, value)
		return
	}
	if !b.clocked() {
		return
	}
	off := addr - gdma.GDMA_BASE
	switch {
	case off < gdma.OUT_INT_CH0:
		storeInt(&b.rx[off/gdma.INT_STRIDE], off%gdma.INT_STRIDE, value, uint32(gdma.RXEventMask))
	case off < outIntEnd:
		off -= gdma.OUT_INT_CH0
		storeInt(&b.tx[off/gdma.INT_STRIDE], off%gdma.INT_STRIDE, value, uint32(gdma.TXEventMask))
	case off == gdma.MISC_CONF:
		b.misc = value
	case off >= gdma.CH0:
		off -= gdma.CH0
		idx, sub := off/gdma.CH_STRIDE, off%gdma.CH_STRIDE
		if sub < gdma.OUT_CONF0 {
			b.storeRX(&b.rx[idx], sub, value)
		} else {
			b.storeTX(&b.tx[idx], sub, value)
		}
	}
}

const outIntEnd = gdma.OUT_INT_CH0 + gdma.PairsPerGroup*gdma.INT_STRIDE

func inGDMA(addr uintptr) bool {
	return addr >= gdma.GDMA_BASE && addr < gdma.GDMA_BASE+gdma.CH0+gdma.PairsPerGroup*gdma.CH_STRIDE
}

func (b *Bus) loadInt(c *channel, reg uintptr) uint32 {
	switch reg {
	case gdma.INT_RAW:
		return c.raw
	case gdma.INT_ST:
		return c.raw & c.ena
	case gdma.INT_ENA:
		return c.ena
	}
	return 0
}

func storeInt(c *channel, reg uintptr, value, mask uint32) {
	switch reg {
	case gdma.INT_ENA:
		c.ena = value & mask
	case gdma.INT_CLR:
		c.raw &^= value
	}
}

func fifoStatus(c *channel) uint32 {
	n := uint32(len(c.fifo))
	v := n << gdma.FIFO_STATUS_CNT_Pos & gdma.FIFO_STATUS_CNT_Msk
	if n >= FIFODepth {
		v |= 1 << gdma.FIFO_STATUS_FULL_Pos
	}
	if n == 0 {
		v |= 1 << gdma.FIFO_STATUS_EMPTY_Pos
	}
	return v
}

func (b *Bus) loadRX(c *channel, sub uintptr) uint32 {
	switch sub {
	case gdma.IN_CONF0:
		return c.conf0
	case gdma.IN_CONF1:
		return c.conf1
	case gdma.INFIFO_STATUS:
		return fifoStatus(c)
	case gdma.IN_POP:
		return c.rdata
	case gdma.IN_LINK:
		v := c.link
		if !c.running {
			v |= 1 << gdma.IN_LINK_INLINK_PARK_Pos
		}
		return v
	case gdma.IN_LINK_ADDR:
		return c.linkAddr
	case gdma.IN_STATE:
		return c.cur & 0x3FFFF
	case gdma.IN_SUC_EOF_DES_ADDR:
		return c.sucEOF
	case gdma.IN_ERR_EOF_DES_ADDR:
		return c.errEOF
	case gdma.IN_DSCR:
		return c.dscr
	case gdma.IN_DSCR_BF0:
		return c.bf0
	case gdma.IN_DSCR_BF1:
		return c.bf1
	case gdma.IN_PRI:
		return c.pri
	case gdma.IN_PERI_SEL:
		return c.periSel
	}
	return 0
}

func (b *Bus) loadTX(c *channel, sub uintptr) uint32 {
	switch sub {
	case gdma.OUT_CONF0:
		return c.conf0
	case gdma.OUT_CONF1:
		return c.conf1
	case gdma.OUTFIFO_STATUS:
		return fifoStatus(c)
	case gdma.OUT_PUSH:
		return c.wdata
	case gdma.OUT_LINK:
		v := c.link
		if !c.running {
			v |= 1 << gdma.OUT_LINK_OUTLINK_PARK_Pos
		}
		return v
	case gdma.OUT_LINK_ADDR:
		return c.linkAddr
	case gdma.OUT_STATE:
		return c.cur & 0x3FFFF
	case gdma.OUT_EOF_DES_ADDR:
		return c.sucEOF
	case gdma.OUT_EOF_BFR_DES_ADDR:
		return c.eofBefore
	case gdma.OUT_DSCR:
		return c.dscr
	case gdma.OUT_DSCR_BF0:
		return c.bf0
	case gdma.OUT_DSCR_BF1:
		return c.bf1
	case gdma.OUT_PRI:
		return c.pri
	case gdma.OUT_PERI_SEL:
		return c.periSel
	}
	return 0
}

func resetChannel(c *channel) {
	c.running = false
	c.stopping = false
	c.cur = 0
	c.last = 0
	c.filled = 0
	c.dscr = 0
	c.fifo = nil
}

func (b *Bus) storeRX(c *channel, sub uintptr, value uint32) {
	switch sub {
	case gdma.IN_CONF0:
		c.conf0 = value
		if value&(1<<gdma.IN_CONF0_IN_RST_Pos) != 0 {
			resetChannel(c)
		}
	case gdma.IN_CONF1:
		c.conf1 = value
	case gdma.IN_POP:
		if value&(1<<gdma.IN_POP_INFIFO_POP_Pos) == 0 {
			return
		}
		if len(c.fifo) == 0 {
			c.raw |= uint32(gdma.RXFIFOUdf)
			return
		}
		c.rdata = uint32(c.fifo[0])
		c.fifo = c.fifo[1:]
	case gdma.IN_LINK:
		c.link = value & (1 << gdma.IN_LINK_INLINK_AUTO_RET_Pos)
		etm := c.conf0&(1<<gdma.IN_CONF0_IN_ETM_EN_Pos) != 0
		b.strobe(c, etm,
			value&(1<<gdma.IN_LINK_INLINK_START_Pos) != 0,
			value&(1<<gdma.IN_LINK_INLINK_STOP_Pos) != 0,
			value&(1<<gdma.IN_LINK_INLINK_RESTART_Pos) != 0)
	case gdma.IN_LINK_ADDR:
		c.linkAddr = value
	case gdma.IN_PRI:
		c.pri = value & gdma.PRI_Msk
	case gdma.IN_PERI_SEL:
		c.periSel = value & gdma.PERI_SEL_Msk
	}
}

func (b *Bus) storeTX(c *channel, sub uintptr, value uint32) {
	switch sub {
	case gdma.OUT_CONF0:
		c.conf0 = value
		if value&(1<<gdma.OUT_CONF0_OUT_RST_Pos) != 0 {
			resetChannel(c)
		}
	case gdma.OUT_CONF1:
		c.conf1 = value
	case gdma.OUT_PUSH:
		c.wdata = value & gdma.OUT_PUSH_OUTFIFO_WDATA_Msk
		if value&(1<<gdma.OUT_PUSH_OUTFIFO_PUSH_Pos) == 0 {
			return
		}
		if len(c.fifo) >= FIFODepth {
			c.raw |= uint32(gdma.TXFIFOOvf)
			return
		}
		c.fifo = append(c.fifo, byte(c.wdata))
	case gdma.OUT_LINK:
		etm := c.conf0&(1<<gdma.OUT_CONF0_OUT_ETM_EN_Pos) != 0
		b.strobe(c, etm,
			value&(1<<gdma.OUT_LINK_OUTLINK_START_Pos) != 0,
			value&(1<<gdma.OUT_LINK_OUTLINK_STOP_Pos) != 0,
			value&(1<<gdma.OUT_LINK_OUTLINK_RESTART_Pos) != 0)
	case gdma.OUT_LINK_ADDR:
		c.linkAddr = value
	case gdma.OUT_PRI:
		c.pri = value & gdma.PRI_Msk
	case gdma.OUT_PERI_SEL:
		c.periSel = value & gdma.PERI_SEL_Msk
	}
}

// strobe applies the self-clearing bits of a LINK register. Under ETM
// control the hardware ignores start and restart from software.
func (b *Bus) strobe(c *channel, etm, start, stop, restart bool) {
	if stop && c.running {
		c.stopping = true
	}
	if etm {
		return
	}
	if start {
		c.running = true
		c.stopping = false
		c.cur = c.linkAddr
		c.dscr = c.cur
		c.filled = 0
	}
	// A channel still working on a descriptor just carries on; restart only
	// picks up descriptors appended after the list ran out.
	if restart && c.last != 0 && (!c.running || c.cur == 0) {
		if next := b.load32(uintptr(c.last) + 8); next != 0 {
			c.running = true
			c.stopping = false
			c.cur = next
			c.dscr = next
			c.filled = 0
		}
	}
}

// step lets every running channel process at most one descriptor.
func (b *Bus) step() {
	if !b.clocked() {
		return
	}
	for i := range b.tx {
		b.stepTX(i)
	}
	for i := range b.rx {
		b.stepRX(i)
	}
}

// halt parks c if a stop was requested. It reports whether c is parked.
func halt(c *channel) bool {
	if c.running && c.stopping {
		c.running = false
		c.stopping = false
	}
	return !c.running
}

func (b *Bus) stepTX(i int) {
	c := &b.tx[i]
	if halt(c) {
		return
	}
	d := c.cur
	if d == 0 {
		c.running = false
		return
	}
	w0 := b.load32(uintptr(d))
	if c.conf1&(1<<gdma.OUT_CONF1_OUT_CHECK_OWNER_Pos) != 0 && w0&DescOwnerDMA == 0 {
		c.raw |= uint32(gdma.TXDescError)
		c.running = false
		return
	}
	length := (w0 & DescLengthMsk) >> DescLengthPos
	data := b.readMem(uintptr(b.load32(uintptr(d)+4)), int(length))
	eof := w0&DescSucEOF != 0
	if k := b.m2mPeer(c.periSel); k >= 0 {
		b.pipe[k] = append(b.pipe[k], segment{data: data, eof: eof})
	} else {
		b.output[i] = append(b.output[i], data...)
	}
	if c.conf0&(1<<gdma.OUT_CONF0_OUT_AUTO_WRBACK_Pos) != 0 {
		b.store32(uintptr(d), w0&^DescOwnerDMA)
	}
	c.raw |= uint32(gdma.TXDone)
	if eof {
		c.raw |= uint32(gdma.TXEOF)
		c.eofBefore = c.last
		c.sucEOF = d
	}
	if b.load32(uintptr(d)+8) == 0 {
		c.raw |= uint32(gdma.TXTotalEOF)
	}
	b.advance(c, true)
}

func (b *Bus) stepRX(i int) {
	c := &b.rx[i]
	if halt(c) {
		return
	}
	src := &b.input[i]
	if c.conf0&(1<<gdma.IN_CONF0_MEM_TRANS_EN_Pos) != 0 {
		src = &b.pipe[i]
	}
	if len(*src) == 0 {
		return
	}
	d := c.cur
	if d == 0 {
		c.raw |= uint32(gdma.RXDescEmpty)
		c.running = false
		return
	}
	w0 := b.load32(uintptr(d))
	if c.conf1&(1<<gdma.IN_CONF1_IN_CHECK_OWNER_Pos) != 0 && w0&DescOwnerDMA == 0 {
		c.raw |= uint32(gdma.RXDescError)
		c.errEOF = d
		c.running = false
		return
	}
	size := w0 & DescSizeMsk
	buf := uintptr(b.load32(uintptr(d) + 4))
	seg := &(*src)[0]
	n := size - c.filled
	if int(n) > len(seg.data) {
		n = uint32(len(seg.data))
	}
	b.writeMem(buf+uintptr(c.filled), seg.data[:n])
	c.filled += n
	seg.data = seg.data[n:]
	eof := false
	if len(seg.data) == 0 {
		eof = seg.eof
		*src = (*src)[1:]
	}
	if !eof && c.filled < size {
		return
	}
	w0 = w0&^(DescLengthMsk|DescOwnerDMA|DescSucEOF) | c.filled<<DescLengthPos
	if eof {
		w0 |= DescSucEOF
	}
	b.store32(uintptr(d), w0)
	c.raw |= uint32(gdma.RXDone)
	if eof {
		c.raw |= uint32(gdma.RXSucEOF)
		c.sucEOF = d
	}
	b.advance(c, eof)
}

// advance moves c past its current descriptor. The channel parks at the end
// of the list if end is set, or if a stop was requested.
func (b *Bus) advance(c *channel, end bool) {
	d := c.cur
	next := b.load32(uintptr(d) + 8)
	c.bf1, c.bf0 = c.bf0, d
	c.last = d
	c.filled = 0
	c.cur = next
	c.dscr = next
	if next == 0 && end {
		c.running = false
	}
	halt(c)
}

// m2mPeer returns the index of the RX channel in memory transfer mode routed
// to id, or -1.
func (b *Bus) m2mPeer(id uint32) int {
	if id == gdma.InvalidPeriphID {
		return -1
	}
	for k := range b.rx {
		rx := &b.rx[k]
		if rx.conf0&(1<<gdma.IN_CONF0_MEM_TRANS_EN_Pos) != 0 && rx.periSel == id {
			return k
		}
	}
	return -1
}

func (b *Bus) load32(addr uintptr) uint32 {
	var w [4]byte
	for i := range w {
		w[i] = b.mem[addr+uintptr(i)]
	}
	return binary.LittleEndian.Uint32(w[:])
}

func (b *Bus) store32(addr uintptr, value uint32) {
	var w [4]byte
	binary.LittleEndian.PutUint32(w[:], value)
	b.writeMem(addr, w[:])
}

func (b *Bus) readMem(addr uintptr, n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = b.mem[addr+uintptr(i)]
	}
	return p
}

func (b *Bus) writeMem(addr uintptr, p []byte) {
	for i, v := range p {
		b.mem[addr+uintptr(i)] = v
	}
}

// WriteMem copies p to simulated memory at addr.
func (b *Bus) WriteMem(addr uintptr, p []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writeMem(addr, p)
}

// ReadMem returns n bytes of simulated memory at addr.
func (b *Bus) ReadMem(addr uintptr, n int) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.readMem(addr, n)
}

// Feed queues data as if the peripheral routed to RX channel ch produced it.
// If eof is set the data ends a frame, and the descriptor receiving its last
// byte is marked with SucEOF.
func (b *Bus) Feed(ch int, data []byte, eof bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.input[ch] = append(b.input[ch], segment{data: append([]byte(nil), data...), eof: eof})
}

// Output returns the data TX channel ch has sent to its peripheral so far and
// forgets it.
func (b *Bus) Output(ch int) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.output[ch]
	b.output[ch] = nil
	return out
}

// FillFIFO pushes data into the FIFO of RX channel ch, as the peripheral side
// would. Bytes beyond FIFODepth raise RXFIFOOvf and are dropped.
func (b *Bus) FillFIFO(ch int, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := &b.rx[ch]
	for _, v := range data {
		if len(c.fifo) >= FIFODepth {
			c.raw |= uint32(gdma.RXFIFOOvf)
			return
		}
		c.fifo = append(c.fifo, v)
	}
}

// RaiseRX sets raw interrupt bits of RX channel ch.
func (b *Bus) RaiseRX(ch int, ev gdma.RXEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rx[ch].raw |= uint32(ev & gdma.RXEventMask)
}

// RaiseTX sets raw interrupt bits of TX channel ch.
func (b *Bus) RaiseTX(ch int, ev gdma.TXEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tx[ch].raw |= uint32(ev & gdma.TXEventMask)
}
