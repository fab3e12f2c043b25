package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

// Pico with an MCP23017 and a PCA9685 on i2c0, two 74HC595s on spi0 latched
// by GP17, and an 8-channel mux on GP26 addressed by GP2..GP4.
//
// Extended pins: gpio0 30..45, pwm0 46..61, sr0 62..77, mux0 78..85.
const cfgPico = `{
  "pins": {
    "native_pins": 30,
    "update_every_ms": 10,
    "elements": [
      {"id": "gpio0", "type": "mcp23017", "bus_ref": {"type": "i2c", "id": "i2c0"}, "params": {"address": 32}},
      {"id": "pwm0", "type": "pca9685", "bus_ref": {"type": "i2c", "id": "i2c0"}, "params": {"address": 64, "freq_hz": 1000}},
      {"id": "sr0", "type": "shift595", "bus_ref": {"type": "spi", "id": "spi0"}, "params": {"latch": 17, "chips": 2}},
      {"id": "mux0", "type": "mux", "params": {"common": 26, "selects": [2, 3, 4], "enable": 5}}
    ]
  },
  "strip": {
    "pin": 16,
    "leds": 8,
    "brightness": 96
  },
  "heartbeat": {"interval": 5}
}`

// Host simulator: same expanders, with the shift register bit-banged on
// GP6..GP8.
const cfgSim = `{
  "pins": {
    "native_pins": 30,
    "update_every_ms": 20,
    "elements": [
      {"id": "gpio0", "type": "mcp23017", "bus_ref": {"type": "i2c", "id": "i2c0"}, "params": {"address": 32}},
      {"id": "pwm0", "type": "pca9685", "bus_ref": {"type": "i2c", "id": "i2c0"}, "params": {"address": 64, "freq_hz": 1000}},
      {"id": "sr0", "type": "shift595_bitbang", "params": {"data": 6, "clock": 7, "latch": 8, "chips": 1}},
      {"id": "mux0", "type": "mux", "params": {"common": 26, "selects": [2, 3, 4]}}
    ]
  },
  "heartbeat": {"interval": 1}
}`

var embeddedConfigs = map[string][]byte{
	"pico": []byte(cfgPico),
	"sim":  []byte(cfgSim),
}
