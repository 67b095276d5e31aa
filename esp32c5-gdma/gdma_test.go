package gdma_test

import (
	"testing"

	gdma "github.com/tinygo-org/gdma/esp32c5-gdma"
	"github.com/tinygo-org/gdma/esp32c5-gdma/gdmatest"
)

func newGroup(t *testing.T) (*gdma.Group, *gdmatest.Bus) {
	t.Helper()
	bus := gdmatest.NewBus()
	g := gdma.Open(bus, 0)
	if g == nil {
		t.Fatal("Open(0) returned nil")
	}
	return g, bus
}

func TestOpenRange(t *testing.T) {
	bus := gdmatest.NewBus()
	for _, id := range []int{-1, gdma.NumGroups, 7} {
		if g := gdma.Open(bus, id); g != nil {
			t.Errorf("Open(%d) = %v, want nil", id, g)
		}
		if g := gdma.Get(id); g != nil {
			t.Errorf("Get(%d) = %v, want nil", id, g)
		}
	}
}

func TestPairPanics(t *testing.T) {
	g, _ := newGroup(t)
	defer func() {
		if recover() == nil {
			t.Error("Pair(PairsPerGroup) did not panic")
		}
	}()
	g.Pair(gdma.PairsPerGroup)
}

func TestClaimPair(t *testing.T) {
	g, _ := newGroup(t)
	var got []uint8
	for i := 0; i < gdma.PairsPerGroup; i++ {
		p, err := g.ClaimPair()
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, p.Index())
	}
	for i, idx := range got {
		if idx != uint8(i) {
			t.Errorf("claim %d returned pair %d", i, idx)
		}
	}
	if _, err := g.ClaimPair(); err == nil {
		t.Error("expected error with every pair claimed")
	}
	g.Pair(1).Unclaim()
	p, err := g.ClaimPair()
	if err != nil || p.Index() != 1 {
		t.Errorf("ClaimPair after Unclaim = %d, %v", p.Index(), err)
	}
}

func TestZeroPair(t *testing.T) {
	var p gdma.Pair
	if p.IsValid() {
		t.Fatal("zero Pair is valid")
	}
	if !p.IsClaimed() {
		t.Error("zero Pair reads as unclaimed")
	}
	if p.TryClaim() {
		t.Error("claimed a zero Pair")
	}
	p.Unclaim()
}

func TestChannelString(t *testing.T) {
	g, _ := newGroup(t)
	p := g.Pair(2)
	if s := p.RX().String(); s != "GDMA0.RX2" {
		t.Errorf("RX String = %q", s)
	}
	if s := p.TX().String(); s != "GDMA0.TX2" {
		t.Errorf("TX String = %q", s)
	}
}

func TestVersionAndClock(t *testing.T) {
	g, _ := newGroup(t)
	if v := g.Version(); v != gdmatest.DateValue {
		t.Errorf("Version = %#x != %#x", v, gdmatest.DateValue)
	}
	g.EnableBusClock(false)
	if v := g.Version(); v != 0 {
		t.Errorf("Version with clock gated = %#x", v)
	}
	g.EnableBusClock(true)
	if v := g.Version(); v != gdmatest.DateValue {
		t.Errorf("Version after ungating = %#x", v)
	}
}

func TestResetRegisters(t *testing.T) {
	g, _ := newGroup(t)
	rx := g.Pair(0).RX()
	if err := rx.SetPriority(3); err != nil {
		t.Fatal(err)
	}
	if err := rx.Connect(gdma.PeriphSPI, gdma.PeriphIDSPI2); err != nil {
		t.Fatal(err)
	}
	g.ResetRegisters()
	if p := rx.Priority(); p != 0 {
		t.Errorf("priority after module reset = %d", p)
	}
	if id := rx.PeripheralID(); id != gdma.InvalidPeriphID {
		t.Errorf("peripheral after module reset = %#x", id)
	}
}

func TestPriority(t *testing.T) {
	g, _ := newGroup(t)
	for i := uint8(0); i < gdma.PairsPerGroup; i++ {
		rx, tx := g.Pair(i).RX(), g.Pair(i).TX()
		for p := uint8(0); p <= gdma.MaxPriority; p++ {
			if err := rx.SetPriority(p); err != nil {
				t.Fatalf("RX%d SetPriority(%d): %v", i, p, err)
			}
			if got := rx.Priority(); got != p {
				t.Errorf("RX%d priority %d != %d", i, got, p)
			}
			if err := tx.SetPriority(p); err != nil {
				t.Fatalf("TX%d SetPriority(%d): %v", i, p, err)
			}
			if got := tx.Priority(); got != p {
				t.Errorf("TX%d priority %d != %d", i, got, p)
			}
		}
		rx.SetPriority(2)
		for _, p := range []uint8{6, 15, 255} {
			if err := rx.SetPriority(p); err != gdma.ErrPriority {
				t.Errorf("SetPriority(%d) = %v", p, err)
			}
		}
		if got := rx.Priority(); got != 2 {
			t.Errorf("rejected priority changed the register to %d", got)
		}
	}
}

func TestConnect(t *testing.T) {
	g, _ := newGroup(t)
	rx, tx := g.Pair(1).RX(), g.Pair(1).TX()

	if err := rx.Connect(gdma.PeriphM2M, 4); err != nil {
		t.Fatal(err)
	}
	if !rx.IsMemTransferEnabled() || rx.PeripheralID() != 4 {
		t.Errorf("M2M connect: mem=%v id=%d", rx.IsMemTransferEnabled(), rx.PeripheralID())
	}
	if err := rx.Connect(gdma.PeriphI2S, gdma.PeriphIDI2S0); err != nil {
		t.Fatal(err)
	}
	if rx.IsMemTransferEnabled() || rx.PeripheralID() != gdma.PeriphIDI2S0 {
		t.Errorf("I2S connect: mem=%v id=%d", rx.IsMemTransferEnabled(), rx.PeripheralID())
	}
	rx.Disconnect()
	if rx.PeripheralID() != gdma.InvalidPeriphID {
		t.Errorf("RX disconnect left id %#x", rx.PeripheralID())
	}

	if err := tx.Connect(gdma.PeriphParlIO, gdma.PeriphIDParlIO); err != nil {
		t.Fatal(err)
	}
	if tx.PeripheralID() != gdma.PeriphIDParlIO {
		t.Errorf("TX id = %d", tx.PeripheralID())
	}
	tx.Disconnect()
	if tx.PeripheralID() != gdma.InvalidPeriphID {
		t.Errorf("TX disconnect left id %#x", tx.PeripheralID())
	}

	// ID 0 is SPI2, not free for M2M.
	for _, id := range []int{0, 2, 16, 64, -1} {
		if err := rx.Connect(gdma.PeriphM2M, id); err != gdma.ErrPeriphID {
			t.Errorf("M2M Connect(%d) = %v", id, err)
		}
	}
}

func TestFreeM2MPeriphID(t *testing.T) {
	tests := []struct {
		inUse uint32
		id    int
		ok    bool
	}{
		{0, 1, true},
		{1 << 1, 4, true},
		{1<<1 | 1<<4 | 1<<5, 10, true},
		{gdma.M2MFreePeriphIDMask, gdma.InvalidPeriphID, false},
	}
	for _, tc := range tests {
		id, ok := gdma.FreeM2MPeriphID(tc.inUse)
		if id != tc.id || ok != tc.ok {
			t.Errorf("FreeM2MPeriphID(%#x) = %d, %v; want %d, %v", tc.inUse, id, ok, tc.id, tc.ok)
		}
	}
}

func TestETMLookup(t *testing.T) {
	seen := map[uint32]bool{}
	for ch := 0; ch < gdma.PairsPerGroup; ch++ {
		for _, f := range []func(int, int) (uint32, error){
			func(g, c int) (uint32, error) { return gdma.RXETMEventID(g, c, gdma.ETMEventEOF) },
			func(g, c int) (uint32, error) { return gdma.TXETMEventID(g, c, gdma.ETMEventEOF) },
			func(g, c int) (uint32, error) { return gdma.RXETMTaskID(g, c, gdma.ETMTaskStart) },
			func(g, c int) (uint32, error) { return gdma.TXETMTaskID(g, c, gdma.ETMTaskStart) },
		} {
			id, err := f(0, ch)
			if err != nil {
				t.Fatal(err)
			}
			if id == 0 || seen[id] {
				t.Errorf("ETM id %d for channel %d is zero or duplicated", id, ch)
			}
			seen[id] = true
			if _, err := f(gdma.NumGroups, ch); err != gdma.ErrETMIndex {
				t.Errorf("bad group: %v", err)
			}
			if _, err := f(0, gdma.PairsPerGroup); err != gdma.ErrETMIndex {
				t.Errorf("bad channel: %v", err)
			}
		}
	}
	if _, err := gdma.RXETMEventID(0, 0, gdma.ETMEvent(1)); err != gdma.ErrETMIndex {
		t.Errorf("bad event: %v", err)
	}
	if _, err := gdma.TXETMTaskID(0, 0, gdma.ETMTask(1)); err != gdma.ErrETMIndex {
		t.Errorf("bad task: %v", err)
	}
}
