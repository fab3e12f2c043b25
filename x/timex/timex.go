// Package timex holds the few time conversions shared by services and
// drivers.
package timex

import "time"

// NowMs is the timestamp carried in bus payloads.
func NowMs() int64 { return time.Now().UnixMilli() }

// PeriodNs converts a PWM frequency to the nanosecond period the tinygo
// drivers take. Zero is treated as 1 Hz.
func PeriodNs(hz uint32) uint64 {
	return uint64(time.Second) / uint64(max(hz, 1))
}

// Every returns ms as a duration, or def when ms is not positive.
func Every(ms int, def time.Duration) time.Duration {
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}
