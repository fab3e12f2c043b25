package extio

// Process-wide instance used by the package-level helpers.
var std *IO

// Setup installs the process-wide IO with a fresh registry starting at
// nativePins. Call it once from the target's bootstrap before any element is
// constructed against Default().Registry().
func Setup(native Native, nativePins Pin) *IO {
	std = NewIO(native, NewRegistry(nativePins))
	return std
}

// Default returns the process-wide IO or panics if Setup was not called.
func Default() *IO {
	if std == nil {
		panic("extio not set up")
	}
	return std
}

func PinMode(pin Pin, mode Mode)        { Default().PinMode(pin, mode) }
func DigitalWrite(pin Pin, level bool)  { Default().DigitalWrite(pin, level) }
func DigitalRead(pin Pin) bool          { return Default().DigitalRead(pin) }
func AnalogRead(pin Pin) Analog         { return Default().AnalogRead(pin) }
func AnalogWrite(pin Pin, level Analog) { Default().AnalogWrite(pin, level) }
func BeginAll() error                   { return Default().reg.BeginAll() }
func UpdateAll() error                  { return Default().reg.UpdateAll() }
