package gdmalib

import (
	"errors"
	"image/color"
	"time"

	gdma "github.com/tinygo-org/gdma/esp32c5-gdma"
	"periph.io/x/periph/conn"
	"tinygo.org/x/drivers"
)

var (
	_ drivers.Displayer = (*Framebuffer)(nil)
	_ conn.Resource     = (*Framebuffer)(nil)
)

var errRotation = errors.New("gdmalib:unsupported rotation")

// Framebuffer is an RGB565 frame held in RAM and streamed to a display
// peripheral by a TX channel. Pixels are sent big endian, as SPI and
// parallel LCD controllers expect them.
type Framebuffer struct {
	tx       gdma.TXChannel
	bus      gdma.Bus
	addr     uintptr
	width    int16
	height   int16
	rotation drivers.Rotation
	pix      []byte
	dl       deadliner
}

// FramebufferMemSize returns the number of bytes of DMA capable memory a
// width by height framebuffer needs. The pixel area is rounded up to whole
// words since Display fills it with 32 bit stores.
func FramebufferMemSize(width, height int16) int {
	n := int(width) * int(height) * 2
	return chunkCount(n)*DescriptorSize + (n+3)&^3
}

// NewFramebuffer returns a framebuffer streamed by tx. The channel must
// already be routed to the display peripheral. addr is the start of
// FramebufferMemSize bytes of DMA capable memory.
func NewFramebuffer(tx gdma.TXChannel, bus gdma.Bus, addr uintptr, width, height int16) *Framebuffer {
	return &Framebuffer{
		tx:     tx,
		bus:    bus,
		addr:   addr,
		width:  width,
		height: height,
		pix:    make([]byte, int(width)*int(height)*2),
	}
}

// String implements conn.Resource.
func (fb *Framebuffer) String() string { return "Framebuffer(" + fb.tx.String() + ")" }

// Halt implements conn.Resource. It aborts a frame in flight.
func (fb *Framebuffer) Halt() error { return halt(fb.tx) }

// Size implements drivers.Displayer.
func (fb *Framebuffer) Size() (x, y int16) {
	switch fb.rotation {
	case drivers.Rotation90, drivers.Rotation270:
		return fb.height, fb.width
	}
	return fb.width, fb.height
}

// SetRotation sets the orientation used by SetPixel and Size.
func (fb *Framebuffer) SetRotation(rotation drivers.Rotation) error {
	switch rotation {
	case drivers.Rotation0, drivers.Rotation90, drivers.Rotation180, drivers.Rotation270:
		fb.rotation = rotation
		return nil
	}
	return errRotation
}

// Rotation returns the current orientation.
func (fb *Framebuffer) Rotation() drivers.Rotation { return fb.rotation }

// SetTimeout sets the time Display waits for the frame to be sent. Zero
// disables the timeout.
func (fb *Framebuffer) SetTimeout(timeout time.Duration) { fb.dl.setTimeout(timeout) }

// SetPixel implements drivers.Displayer. Pixels outside the frame are
// ignored.
func (fb *Framebuffer) SetPixel(x, y int16, c color.RGBA) {
	w, h := fb.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	switch fb.rotation {
	case drivers.Rotation90:
		x, y = y, fb.height-1-x
	case drivers.Rotation180:
		x, y = fb.width-1-x, fb.height-1-y
	case drivers.Rotation270:
		x, y = fb.width-1-y, x
	}
	v := RGB565(c)
	i := (int(y)*int(fb.width) + int(x)) * 2
	fb.pix[i] = byte(v >> 8)
	fb.pix[i+1] = byte(v)
}

// Pixel returns the RGB565 value stored at physical position x, y.
func (fb *Framebuffer) Pixel(x, y int16) uint16 {
	i := (int(y)*int(fb.width) + int(x)) * 2
	return uint16(fb.pix[i])<<8 | uint16(fb.pix[i+1])
}

// Display implements drivers.Displayer. It copies the frame to DMA memory,
// sends it and blocks until the last descriptor has been consumed.
func (fb *Framebuffer) Display() error {
	n := len(fb.pix)
	if n == 0 {
		return nil
	}
	if !fb.tx.IsIdle() {
		return gdma.ErrChannelRunning
	}
	data := fb.addr + uintptr(chunkCount(n)*DescriptorSize)
	for i := 0; i < n; i += 4 {
		var w uint32
		for j := 0; j < 4 && i+j < n; j++ {
			w |= uint32(fb.pix[i+j]) << (8 * j)
		}
		fb.bus.Store32(data+uintptr(i), w)
	}
	head := WriteList(fb.bus, fb.addr, Chunks(uint32(data), n, true), false)
	fb.tx.SetDescriptorAddr(head)
	fb.tx.ClearInterrupts(gdma.TXEventMask)
	if err := fb.tx.Start(); err != nil {
		return err
	}
	dl := fb.dl.newDeadline()
	retries := timeoutRetries
	for {
		ev := fb.tx.RawInterrupts()
		if ev&gdma.TXDescError != 0 {
			fb.Halt()
			return errDescriptor
		}
		if ev&gdma.TXTotalEOF != 0 {
			break
		}
		if dl.expired() || retries == 0 {
			fb.Halt()
			return errTimeout
		}
		retries--
		gosched()
	}
	fb.tx.ClearInterrupts(gdma.TXEventMask)
	return nil
}

// RGB565 converts c to a 16 bit 5-6-5 value.
func RGB565(c color.RGBA) uint16 {
	return uint16(c.R&0xF8)<<8 | uint16(c.G&0xFC)<<3 | uint16(c.B)>>3
}
