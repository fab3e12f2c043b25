// Package platform provides the native pin delegate and the I2C/SPI buses of
// the target: the RP2 family on hardware, an in-memory simulation on host.
package platform

import "tinygo.org/x/drivers"

// NativePins is the size of the native pin range (GP0..GP29 on the RP2
// family). The host simulation mirrors it.
const NativePins = 30

// I2CBuses looks up configured I2C buses by id ("i2c0", "i2c1").
type I2CBuses map[string]drivers.I2C

func (b I2CBuses) ByID(id string) (drivers.I2C, bool) {
	bus, ok := b[id]
	return bus, ok
}

// SPIBuses looks up configured SPI buses by id ("spi0", "spi1").
type SPIBuses map[string]drivers.SPI

func (b SPIBuses) ByID(id string) (drivers.SPI, bool) {
	bus, ok := b[id]
	return bus, ok
}
