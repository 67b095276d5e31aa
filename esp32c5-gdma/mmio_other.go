//go:build !tinygo

package gdma

import (
	"sync/atomic"
	"unsafe"
)

// Outside TinyGo there is no volatile intrinsic. Atomic accesses are never
// elided or merged, which is what register accesses need.
type mmio struct{}

func (mmio) Load32(addr uintptr) uint32 {
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(addr)))
}

func (mmio) Store32(addr uintptr, value uint32) {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(addr)), value)
}
