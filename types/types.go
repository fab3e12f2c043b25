package types

// ---- Service state (retained) ----

type ServiceState struct {
	Level  string `json:"level"`  // "idle", "ready", "stopped"
	Status string `json:"status"` // freeform short code
	TS     int64  `json:"ts_ms"`
}

// ElementInfo is published retained under pins/element/<id>/info once the
// element is registered.
type ElementInfo struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Begun  bool   `json:"begun"`
	Detail any    `json:"detail,omitempty"`
}

// ---- Pin control payloads ----

type PinModeSet struct {
	Mode string `json:"mode"` // "input", "output", "input_pullup", "input_pulldown"
}

type DigitalSet struct {
	Level bool `json:"level"`
}

type AnalogSet struct {
	Level uint16 `json:"level"` // 0..255
}

// ---- Pin values ----

type DigitalValue struct {
	Pin   int   `json:"pin"`
	Level bool  `json:"level"`
	TS    int64 `json:"ts_ms"`
}

type AnalogValue struct {
	Pin   int    `json:"pin"`
	Value uint16 `json:"value"` // 0..1023
	TS    int64  `json:"ts_ms"`
}

// ---- Replies ----

type OKReply struct {
	OK bool `json:"ok"`
}

type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// ---- Heartbeat ----

type Heartbeat struct {
	Seq      uint32 `json:"seq"`
	UptimeMs int64  `json:"uptime_ms"`
	TS       int64  `json:"ts_ms"`
}
