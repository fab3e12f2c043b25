package config

import (
	"context"
	"encoding/json"
	"errors"

	"extio-go/bus"
	"extio-go/types"

	"github.com/andreyvit/tinyjson"
)

const (
	serviceName  = "config"
	configPrefix = "config"
)

type ctxKey string

// CtxDeviceKey is the context key holding the device ID.
const CtxDeviceKey ctxKey = "device"

// WithDevice returns ctx carrying the device ID.
func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, CtxDeviceKey, device)
}

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// Sections with a typed payload. Anything else is published as parsed
// (map[string]any, []any, string, number, bool).
var decoders = map[string]func(any) (any, error){
	"pins":      decodeAs[types.PinsConfig],
	"strip":     decodeAs[types.StripConfig],
	"heartbeat": decodeAs[types.HeartbeatConfig],
}

// decodeAs maps a parsed section onto T through a JSON round trip.
func decodeAs[T any](v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// parse reads the whole document. tinyjson panics on malformed input.
func parse(raw []byte) (val any, err error) {
	defer func() {
		switch r := recover().(type) {
		case nil:
		case error:
			err = errors.New("invalid JSON: " + r.Error())
		case string:
			err = errors.New("invalid JSON: " + r)
		default:
			err = errors.New("invalid JSON")
		}
	}()
	r := tinyjson.Raw(raw)
	val = r.Value()
	r.EnsureEOF()
	return val, nil
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// publishConfig publishes every top-level section of the device config as a
// retained message on config/<section>. A section that fails to decode is
// skipped and reported; the others are still published.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return errors.New("missing device ID in context")
	}

	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return errors.New("no embedded config for device: " + device)
	}

	doc, err := parse(raw)
	if err != nil {
		return err
	}
	sections, ok := doc.(map[string]any)
	if !ok {
		return errors.New("embedded config is not a JSON object")
	}

	var errs []error
	for k, v := range sections {
		val := v
		if dec, ok := decoders[k]; ok {
			if val, err = dec(v); err != nil {
				errs = append(errs, errors.New("section "+k+": "+err.Error()))
				continue
			}
		}
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), val, true))
	}
	return errors.Join(errs...)
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			println("[config] publish failed:", err.Error())
		}
	}()
}
