package gdma

import (
	"math/bits"
	"strconv"
)

// Peripheral is the kind of hardware a channel is triggered by.
type Peripheral uint8

// Trigger peripherals.
const (
	PeriphM2M Peripheral = iota // memory to memory: the pair feeds itself
	PeriphUHCI
	PeriphSPI
	PeriphI2S
	PeriphAES
	PeriphSHA
	PeriphADC
	PeriphParlIO
)

var periphNames = [...]string{"M2M", "UHCI", "SPI", "I2S", "AES", "SHA", "ADC", "ParlIO"}

func (p Peripheral) String() string {
	if int(p) < len(periphNames) {
		return periphNames[p]
	}
	return "Peripheral(" + strconv.Itoa(int(p)) + ")"
}

// Peripheral IDs of this chip. Channels route to a trigger by ID.
const (
	PeriphIDSPI2   = 0
	PeriphIDUHCI0  = 2
	PeriphIDI2S0   = 3
	PeriphIDAES    = 6
	PeriphIDSHA    = 7
	PeriphIDADC    = 8
	PeriphIDParlIO = 9

	// InvalidPeriphID marks a channel as not connected to anything.
	InvalidPeriphID = 0x3F

	// M2MFreePeriphIDMask has a bit set for every ID not wired to a real
	// peripheral. Any of those may be used to pair RX and TX in M2M mode.
	M2MFreePeriphIDMask = 0xFC32
)

func checkPeriphID(periph Peripheral, id int) error {
	if id < 0 || id > PERI_SEL_Msk {
		return ErrPeriphID
	}
	if periph == PeriphM2M && (id >= 16 || M2MFreePeriphIDMask&(1<<id) == 0) {
		return ErrPeriphID
	}
	return nil
}

// FreeM2MPeriphID returns the lowest ID usable for M2M mode whose bit is not
// set in inUse. ok is false when every free ID is taken.
func FreeM2MPeriphID(inUse uint32) (id int, ok bool) {
	avail := uint32(M2MFreePeriphIDMask) &^ inUse
	if avail == 0 {
		return InvalidPeriphID, false
	}
	return bits.TrailingZeros32(avail), true
}
