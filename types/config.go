package types

// Pins service configuration supplied on topic "config/pins".

type PinsConfig struct {
	NativePins    int       `json:"native_pins"`
	UpdateEveryMs int       `json:"update_every_ms,omitempty"`
	Elements      []Element `json:"elements"`
}

// Element describes one expander to build. Elements are registered in list
// order, which fixes their pin ranges.
type Element struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Params any    `json:"params,omitempty"`
	BusRef BusRef `json:"bus_ref,omitempty"`
}

type BusRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// StripConfig describes the status LED strip ("config/strip").
type StripConfig struct {
	Pin        int   `json:"pin"`
	LEDs       int   `json:"leds"`
	Brightness uint8 `json:"brightness"`
}

// HeartbeatConfig is the "config/heartbeat" section.
type HeartbeatConfig struct {
	Interval float64 `json:"interval"` // seconds
}
