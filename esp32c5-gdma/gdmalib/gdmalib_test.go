package gdmalib

import (
	"bytes"
	"image/color"
	"testing"
	"time"

	gdma "github.com/tinygo-org/gdma/esp32c5-gdma"
	"github.com/tinygo-org/gdma/esp32c5-gdma/gdmatest"
	"tinygo.org/x/drivers"
)

func TestDeadliner(t *testing.T) {
	var d deadliner
	if !d.newDeadline().t.IsZero() {
		t.Error("zero deadliner produced a deadline")
	}
	d.setTimeout(time.Millisecond)
	if got := time.Duration(1 << d.timeout); got <= time.Millisecond || got > 2*time.Millisecond {
		t.Errorf("timeout rounded to %v", got)
	}
	d.setTimeout(0)
	if d.timeout != 0 {
		t.Errorf("timeout %d after disabling", d.timeout)
	}
	if !(deadline{t: time.Now().Add(-time.Second)}).expired() {
		t.Error("past deadline not expired")
	}
}

func TestDescriptorList(t *testing.T) {
	bus := gdmatest.NewBus()
	descs := Chunks(0x3FC9_0000, 2*MaxChunk+10, true)
	if len(descs) != 3 {
		t.Fatalf("got %d chunks", len(descs))
	}
	head := WriteList(bus, 0x3FC8_0000, descs, true)
	for i := range descs {
		got := ReadDescriptor(bus, 0x3FC8_0000+uintptr(i)*DescriptorSize)
		want := descs[i]
		want.Next = head + uint32(i+1)*DescriptorSize
		if i == len(descs)-1 {
			want.Next = head
		}
		if got != want {
			t.Errorf("descriptor %d: %+v != %+v", i, got, want)
		}
	}
	if last := descs[2]; last.Length != 10 || !last.SucEOF || descs[1].SucEOF {
		t.Errorf("bad EOF placement: %+v", descs)
	}
	if rx := Chunks(0, 5, false); rx[0].Length != 0 || rx[0].SucEOF || rx[0].Size != 5 {
		t.Errorf("RX chunk %+v", rx[0])
	}
}

func TestWaitIdle(t *testing.T) {
	bus := gdmatest.NewBus()
	rx := gdma.Open(bus, 0).Pair(0).RX()
	if err := WaitIdle(rx, 0); err != nil {
		t.Fatal(err)
	}
	WriteDescriptor(bus, 0x3FC8_0000, Descriptor{Size: 4, OwnerDMA: true, Buffer: 0x3FC9_0000})
	rx.SetDescriptorAddr(0x3FC8_0000)
	if err := rx.Start(); err != nil {
		t.Fatal(err)
	}
	if err := WaitIdle(rx, time.Millisecond); err != errTimeout {
		t.Errorf("WaitIdle on a stalled channel = %v", err)
	}
	rx.Stop()
	if err := WaitIdle(rx, time.Second); err != nil {
		t.Errorf("WaitIdle after Stop = %v", err)
	}
}

func TestM2MCopy(t *testing.T) {
	bus := gdmatest.NewBus()
	g := gdma.Open(bus, 0)
	m, err := NewM2M(g.Pair(1), bus, 0x3FC8_0000, 4)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()
	if !g.Pair(1).IsClaimed() {
		t.Error("pair not claimed")
	}
	if _, err := NewM2M(g.Pair(1), bus, 0x3FC8_1000, 4); err != errBusy {
		t.Errorf("second NewM2M on the same pair = %v", err)
	}
	rx, tx := g.Pair(1).RX(), g.Pair(1).TX()
	if !rx.IsMemTransferEnabled() || rx.PeripheralID() != m.PeripheralID() || tx.PeripheralID() != m.PeripheralID() {
		t.Errorf("pair not routed: rx=%d tx=%d id=%d", rx.PeripheralID(), tx.PeripheralID(), m.PeripheralID())
	}

	src := make([]byte, MaxChunk+100)
	for i := range src {
		src[i] = byte(i * 7)
	}
	bus.WriteMem(0x3FCA_0000, src)
	m.SetTimeout(time.Second)
	if err := m.Copy(0x3FCC_0000, 0x3FCA_0000, len(src)); err != nil {
		t.Fatal(err)
	}
	if got := bus.ReadMem(0x3FCC_0000, len(src)); !bytes.Equal(got, src) {
		t.Error("destination does not match source")
	}
	if err := m.Copy(0x3FCC_0000, 0x3FCA_0000, 4*MaxChunk+1); err != errTooLong {
		t.Errorf("oversized Copy = %v", err)
	}
	if err := m.Copy(0, 0, 0); err != nil {
		t.Errorf("empty Copy = %v", err)
	}

	// A second instance gets its own ID.
	m2, err := NewM2M(g.Pair(2), bus, 0x3FC8_2000, 1)
	if err != nil {
		t.Fatal(err)
	}
	if m2.PeripheralID() == m.PeripheralID() {
		t.Errorf("both instances use ID %d", m.PeripheralID())
	}
	m2.Close()
	if g.Pair(2).IsClaimed() || g.Pair(2).RX().PeripheralID() != gdma.InvalidPeriphID {
		t.Error("Close did not release the pair")
	}
}

func TestFramebuffer(t *testing.T) {
	bus := gdmatest.NewBus()
	tx := gdma.Open(bus, 0).Pair(0).TX()
	if err := tx.Connect(gdma.PeriphSPI, gdma.PeriphIDSPI2); err != nil {
		t.Fatal(err)
	}
	const w, h = 40, 60
	var d drivers.Displayer = NewFramebuffer(tx, bus, 0x3FC8_0000, w, h)
	fb := d.(*Framebuffer)
	if x, y := fb.Size(); x != w || y != h {
		t.Errorf("size %dx%d", x, y)
	}
	red := color.RGBA{R: 0xFF, A: 0xFF}
	fb.SetPixel(0, 0, red)
	fb.SetPixel(w-1, h-1, color.RGBA{B: 0xFF, A: 0xFF})
	fb.SetPixel(w, 0, red) // outside, ignored
	if err := fb.Display(); err != nil {
		t.Fatal(err)
	}
	out := bus.Output(0)
	if len(out) != w*h*2 {
		t.Fatalf("sent %d bytes", len(out))
	}
	if out[0] != 0xF8 || out[1] != 0x00 {
		t.Errorf("first pixel %#x %#x", out[0], out[1])
	}
	if out[len(out)-2] != 0x00 || out[len(out)-1] != 0x1F {
		t.Errorf("last pixel %#x %#x", out[len(out)-2], out[len(out)-1])
	}
	if !tx.IsIdle() {
		t.Error("channel still running after Display")
	}

	if err := fb.SetRotation(drivers.Rotation90); err != nil {
		t.Fatal(err)
	}
	if x, y := fb.Size(); x != h || y != w {
		t.Errorf("rotated size %dx%d", x, y)
	}
	fb.SetPixel(0, 0, color.RGBA{G: 0xFF, A: 0xFF})
	if got := fb.Pixel(0, h-1); got != 0x07E0 {
		t.Errorf("rotated pixel %#x", got)
	}
	if err := fb.SetRotation(drivers.Rotation(4)); err != errRotation {
		t.Errorf("mirror rotation = %v", err)
	}
}

func TestFramebufferMemSize(t *testing.T) {
	if n := FramebufferMemSize(10, 10); n != DescriptorSize+200 {
		t.Errorf("10x10 needs %d", n)
	}
	if n := FramebufferMemSize(320, 240); n != 38*DescriptorSize+320*240*2 {
		t.Errorf("320x240 needs %d", n)
	}
	if n := FramebufferMemSize(3, 1); n != DescriptorSize+8 {
		t.Errorf("3x1 needs %d", n)
	}
}

func TestFramebufferStaysInBounds(t *testing.T) {
	bus := gdmatest.NewBus()
	tx := gdma.Open(bus, 0).Pair(0).TX()
	const base = 0x3FC8_0000
	for _, size := range [][2]int16{{3, 1}, {5, 3}, {2, 2}} {
		end := base + uintptr(FramebufferMemSize(size[0], size[1]))
		bus.WriteMem(end, []byte{0xAA, 0xBB})
		fb := NewFramebuffer(tx, bus, base, size[0], size[1])
		fb.SetPixel(size[0]-1, size[1]-1, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})
		if err := fb.Display(); err != nil {
			t.Fatal(err)
		}
		if got := bus.ReadMem(end, 2); !bytes.Equal(got, []byte{0xAA, 0xBB}) {
			t.Errorf("%dx%d: wrote past the end: % x", size[0], size[1], got)
		}
		if out := bus.Output(0); len(out) != int(size[0])*int(size[1])*2 || out[len(out)-1] != 0xFF {
			t.Errorf("%dx%d: sent % x", size[0], size[1], out)
		}
	}
}

// stripBus clears bits in the word 0 stores of descriptors in [lo, hi).
type stripBus struct {
	*gdmatest.Bus
	lo, hi uintptr
	bits   uint32
}

func (b stripBus) Store32(addr uintptr, value uint32) {
	if addr >= b.lo && addr < b.hi && (addr-b.lo)%DescriptorSize == 0 {
		value &^= b.bits
	}
	b.Bus.Store32(addr, value)
}

func TestM2MCopyFailure(t *testing.T) {
	const scratch, maxDescs = 0x3FC8_0000, 2
	txArea := [2]uintptr{scratch, scratch + maxDescs*DescriptorSize}
	rxArea := [2]uintptr{txArea[1], txArea[1] + maxDescs*DescriptorSize}
	tests := []struct {
		name string
		area [2]uintptr
		bits uint32
		want error
	}{
		{"RX descriptor owned by CPU", rxArea, gdmatest.DescOwnerDMA, errDescriptor},
		{"TX descriptor owned by CPU", txArea, gdmatest.DescOwnerDMA, errDescriptor},
		{"frame never ends", txArea, gdmatest.DescSucEOF, errTimeout},
	}
	for _, tc := range tests {
		bus := gdmatest.NewBus()
		p := gdma.Open(bus, 0).Pair(0)
		m, err := NewM2M(p, stripBus{bus, tc.area[0], tc.area[1], tc.bits}, scratch, maxDescs)
		if err != nil {
			t.Fatal(err)
		}
		m.SetTimeout(time.Millisecond)
		bus.WriteMem(0x3FCA_0000, []byte("0123456789"))
		if err := m.Copy(0x3FCC_0000, 0x3FCA_0000, 10); err != tc.want {
			t.Errorf("%s: Copy = %v, want %v", tc.name, err, tc.want)
		}
		if !p.RX().IsIdle() || !p.TX().IsIdle() {
			t.Errorf("%s: channels not halted", tc.name)
		}
		if !p.IsClaimed() || p.RX().PeripheralID() != m.PeripheralID() {
			t.Errorf("%s: failed copy released the pair", tc.name)
		}
		m.Close()
	}
}

func TestM2MClose(t *testing.T) {
	bus := gdmatest.NewBus()
	p := gdma.Open(bus, 0).Pair(0)
	m, err := NewM2M(p, bus, 0x3FC8_0000, 1)
	if err != nil {
		t.Fatal(err)
	}
	if s := m.String(); s != "M2M(GDMA0.RX0,GDMA0.TX0)#1" {
		t.Errorf("String() = %q", s)
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if p.IsClaimed() || m.PeripheralID() != gdma.InvalidPeriphID {
		t.Fatal("Close did not release the pair")
	}

	// Someone else takes the pair; a second Close must leave it alone.
	other, err := NewM2M(p, bus, 0x3FC8_1000, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer other.Close()
	if err := m.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	if !p.IsClaimed() || m2mIDs&(1<<other.PeripheralID()) == 0 {
		t.Error("second Close released the new owner's pair")
	}
	if err := m.Copy(0x3FCC_0000, 0x3FCA_0000, 4); err != errClosed {
		t.Errorf("Copy after Close = %v", err)
	}
	if err := m.Halt(); err != errClosed {
		t.Errorf("Halt after Close = %v", err)
	}
}

func TestFramebufferDescError(t *testing.T) {
	bus := gdmatest.NewBus()
	tx := gdma.Open(bus, 0).Pair(1).TX()
	tx.EnableOwnerCheck(true)
	const base = 0x3FC8_0000
	fbBus := stripBus{bus, base, base + DescriptorSize, gdmatest.DescOwnerDMA}
	fb := NewFramebuffer(tx, fbBus, base, 4, 4)
	fb.SetTimeout(time.Second)
	if s := fb.String(); s != "Framebuffer(GDMA0.TX1)" {
		t.Errorf("String() = %q", s)
	}
	if err := fb.Display(); err != errDescriptor {
		t.Errorf("Display = %v", err)
	}
	if !tx.IsIdle() {
		t.Error("channel not halted after descriptor error")
	}
	if out := bus.Output(1); len(out) != 0 {
		t.Errorf("sent %d bytes", len(out))
	}
}

func TestRGB565(t *testing.T) {
	tests := []struct {
		c    color.RGBA
		want uint16
	}{
		{color.RGBA{}, 0},
		{color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF}, 0xFFFF},
		{color.RGBA{R: 0xFF}, 0xF800},
		{color.RGBA{G: 0xFF}, 0x07E0},
		{color.RGBA{B: 0xFF}, 0x001F},
	}
	for _, tc := range tests {
		if got := RGB565(tc.c); got != tc.want {
			t.Errorf("RGB565(%v) = %#x != %#x", tc.c, got, tc.want)
		}
	}
}
