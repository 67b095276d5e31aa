//go:build tinygo

package main

import (
	"image/color"
	"time"
	"unsafe"

	gdma "github.com/tinygo-org/gdma/esp32c5-gdma"
	"github.com/tinygo-org/gdma/esp32c5-gdma/gdmalib"
	"tinygo.org/x/drivers"
)

const width, height = 64, 48

// DMA memory for the descriptors and the frame. Word aligned.
var fbmem [(width*height*2 + 2*gdmalib.DescriptorSize) / 4]uint32

func main() {
	time.Sleep(2 * time.Second)
	g := gdma.Get(0)
	g.EnableBusClock(true)

	pair, err := g.ClaimPair()
	if err != nil {
		panic(err.Error())
	}
	tx := pair.TX()
	tx.Reset()
	cfg := gdma.DefaultTXConfig()
	cfg.SetDescriptorBurst(true)
	cfg.SetDataBurst(true)
	if err := tx.Configure(cfg); err != nil {
		panic(err.Error())
	}
	// The SPI2 master must already be set up for the panel.
	if err := tx.Connect(gdma.PeriphSPI, gdma.PeriphIDSPI2); err != nil {
		panic(err.Error())
	}
	if err := tx.SetPriority(gdma.MaxPriority); err != nil {
		panic(err.Error())
	}

	fb := gdmalib.NewFramebuffer(tx, gdma.MMIO, uintptr(unsafe.Pointer(&fbmem)), width, height)
	fb.SetTimeout(50 * time.Millisecond)
	var display drivers.Displayer = fb

	var x int16
	for {
		w, h := display.Size()
		for y := int16(0); y < h; y++ {
			display.SetPixel(x, y, color.RGBA{})
			display.SetPixel((x+1)%w, y, color.RGBA{R: 0xFF, G: 0x80, A: 0xFF})
		}
		x = (x + 1) % w
		if err := display.Display(); err != nil {
			println("display:", err.Error())
		}
		time.Sleep(20 * time.Millisecond)
	}
}
