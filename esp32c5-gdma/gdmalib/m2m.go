package gdmalib

import (
	"strconv"
	"time"

	gdma "github.com/tinygo-org/gdma/esp32c5-gdma"
	"periph.io/x/periph/conn"
)

var _ conn.Resource = (*M2M)(nil)

// m2mIDs has a bit set for each peripheral ID in use by an M2M instance.
var m2mIDs uint32

// M2M copies memory to memory using a channel pair. TX reads the source and
// feeds the RX channel of the same pair, which writes the destination.
type M2M struct {
	pair     gdma.Pair
	bus      gdma.Bus
	scratch  uintptr
	maxDescs int
	id       int
	dl       deadliner
}

// NewM2M claims pair and routes it to a free M2M peripheral ID. scratch is
// the address of memory reserved for descriptors; it must hold
// 2*maxDescs*DescriptorSize bytes, and a single copy may span at most
// maxDescs*MaxChunk bytes.
func NewM2M(pair gdma.Pair, bus gdma.Bus, scratch uintptr, maxDescs int) (*M2M, error) {
	if !pair.TryClaim() {
		return nil, errBusy
	}
	id, ok := gdma.FreeM2MPeriphID(m2mIDs)
	if !ok {
		pair.Unclaim()
		return nil, errNoPeriphID
	}
	rx, tx := pair.RX(), pair.TX()
	rx.Reset()
	tx.Reset()

	rxcfg := gdma.DefaultRXConfig()
	rxcfg.SetOwnerCheck(true)
	rxcfg.SetDescriptorBurst(true)
	txcfg := gdma.DefaultTXConfig()
	txcfg.SetOwnerCheck(true)
	txcfg.SetDescriptorBurst(true)
	txcfg.SetEOFMode(gdma.EOFModeData)
	if err := rx.Configure(rxcfg); err != nil {
		pair.Unclaim()
		return nil, err
	}
	if err := tx.Configure(txcfg); err != nil {
		pair.Unclaim()
		return nil, err
	}
	if err := rx.Connect(gdma.PeriphM2M, id); err != nil {
		pair.Unclaim()
		return nil, err
	}
	if err := tx.Connect(gdma.PeriphM2M, id); err != nil {
		rx.Disconnect()
		pair.Unclaim()
		return nil, err
	}
	m2mIDs |= 1 << id
	return &M2M{
		pair:     pair,
		bus:      bus,
		scratch:  scratch,
		maxDescs: maxDescs,
		id:       id,
	}, nil
}

// PeripheralID returns the M2M peripheral ID both channels are routed to,
// or gdma.InvalidPeriphID once closed.
func (m *M2M) PeripheralID() int { return m.id }

// String implements conn.Resource.
func (m *M2M) String() string {
	return "M2M(" + m.pair.RX().String() + "," + m.pair.TX().String() + ")#" + strconv.Itoa(m.id)
}

// Halt implements conn.Resource. It aborts any copy in flight; the pair
// stays claimed and routed.
func (m *M2M) Halt() error {
	if m.id == gdma.InvalidPeriphID {
		return errClosed
	}
	return m.abort()
}

// SetTimeout sets the time Copy waits for a transfer to complete. Zero
// disables the timeout.
func (m *M2M) SetTimeout(timeout time.Duration) { m.dl.setTimeout(timeout) }

// Copy moves n bytes from src to dst and blocks until the destination has
// been written.
func (m *M2M) Copy(dst, src uint32, n int) error {
	if m.id == gdma.InvalidPeriphID {
		return errClosed
	}
	if n <= 0 {
		return nil
	}
	if chunkCount(n) > m.maxDescs {
		return errTooLong
	}
	rx, tx := m.pair.RX(), m.pair.TX()
	if !rx.IsIdle() || !tx.IsIdle() {
		return gdma.ErrChannelRunning
	}
	txHead := WriteList(m.bus, m.scratch, Chunks(src, n, true), false)
	rxHead := WriteList(m.bus, m.scratch+uintptr(m.maxDescs)*DescriptorSize, Chunks(dst, n, false), false)
	rx.SetDescriptorAddr(rxHead)
	tx.SetDescriptorAddr(txHead)
	rx.ClearInterrupts(gdma.RXEventMask)
	tx.ClearInterrupts(gdma.TXEventMask)

	// RX must be ready before TX starts pushing data.
	if err := rx.Start(); err != nil {
		return err
	}
	if err := tx.Start(); err != nil {
		rx.Stop()
		return err
	}

	const fail = gdma.RXDescError | gdma.RXDescEmpty
	dl := m.dl.newDeadline()
	retries := timeoutRetries
	for {
		ev := rx.RawInterrupts()
		if ev&gdma.RXSucEOF != 0 {
			break
		}
		if ev&fail != 0 || tx.RawInterrupts()&gdma.TXDescError != 0 {
			m.abort()
			return errDescriptor
		}
		if dl.expired() || retries == 0 {
			m.abort()
			return errTimeout
		}
		retries--
		gosched()
	}
	rx.ClearInterrupts(gdma.RXEventMask)
	tx.ClearInterrupts(gdma.TXEventMask)
	return nil
}

// abort stops TX first so that nothing is pushed into a halted RX.
func (m *M2M) abort() error {
	return halt(m.pair.TX(), m.pair.RX())
}

// Close stops both channels, disconnects them and releases the pair. Calls
// after the first do nothing.
func (m *M2M) Close() error {
	if m.id == gdma.InvalidPeriphID {
		return nil
	}
	err := m.abort()
	m.pair.RX().Disconnect()
	m.pair.TX().Disconnect()
	m2mIDs &^= 1 << m.id
	m.id = gdma.InvalidPeriphID
	m.pair.Unclaim()
	return err
}
