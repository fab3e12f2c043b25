package pins

import (
	"encoding/json"

	"extio-go/errcode"
)

// As[T] asserts a payload to the concrete value type T.
// Pointers are not accepted. A nil payload is treated as the zero value of T.
func As[T any](v any) (T, errcode.Code) {
	var zero T
	if v == nil {
		return zero, ""
	}
	t, ok := v.(T)
	if !ok {
		return zero, errcode.InvalidPayload
	}
	return t, ""
}

// decodeParams fills dst from element params. Params built in Go arrive as
// T or *T; params from a JSON config arrive as map[string]any and are
// re-decoded through encoding/json.
func decodeParams[T any](raw any, dst *T) error {
	switch v := raw.(type) {
	case nil:
		return nil
	case T:
		*dst = v
		return nil
	case *T:
		if v != nil {
			*dst = *v
		}
		return nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return &errcode.E{C: errcode.InvalidParams, Op: "pins.decodeParams", Err: err}
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return &errcode.E{C: errcode.InvalidParams, Op: "pins.decodeParams", Err: err}
	}
	return nil
}
