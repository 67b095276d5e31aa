//go:build tinygo

package main

import (
	"fmt"
	"time"
	"unsafe"

	gdma "github.com/tinygo-org/gdma/esp32c5-gdma"
	"github.com/tinygo-org/gdma/esp32c5-gdma/gdmalib"
)

const maxDescs = 4

var (
	scratch [2 * maxDescs * gdmalib.DescriptorSize / 4]uint32
	src     [4096]byte
	dst     [4096]byte
)

func addr[T any](p *T) uint32 { return uint32(uintptr(unsafe.Pointer(p))) }

func main() {
	time.Sleep(2 * time.Second)
	g := gdma.Get(0)
	g.EnableBusClock(true)
	g.ResetRegisters()
	println("GDMA version", g.Version())

	m, err := gdmalib.NewM2M(g.Pair(0), gdma.MMIO, uintptr(addr(&scratch)), maxDescs)
	if err != nil {
		panic(err.Error())
	}
	m.SetTimeout(100 * time.Millisecond)

	for i := range src {
		src[i] = byte(i)
	}
	for round := 0; ; round++ {
		start := time.Now()
		err = m.Copy(addr(&dst), addr(&src), len(src))
		elapsed := time.Since(start)
		if err != nil {
			println("copy failed:", err.Error())
		} else if dst != src {
			println("copy mismatch")
		} else {
			fmt.Printf("round %d: copied %d bytes in %s\r\n", round, len(src), elapsed)
		}
		src[0]++
		time.Sleep(time.Second)
	}
}
