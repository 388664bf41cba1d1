package dialog

import (
	"fmt"
	"strconv"
	"strings"

	"orderbot/internal/model"
)

// Params are intent parameters as sent by the dialog platform. A value may be
// a scalar, a list, a number or an entity object such as {"name": "..."}.
type Params map[string]any

// Get returns the first non-empty value of key as trimmed text.
func (p Params) Get(key string) string {
	for _, s := range p.List(key) {
		if s != "" {
			return s
		}
	}
	return ""
}

// List returns every value of key as text. Empty list entries are kept
// so positions still line up with parallel lists.
func (p Params) List(key string) []string {
	v, ok := p[key]
	if !ok || v == nil {
		return nil
	}
	if list, ok := v.([]any); ok {
		out := make([]string, len(list))
		for i, item := range list {
			out[i] = scalar(item)
		}
		return out
	}
	if s := scalar(v); s != "" {
		return []string{s}
	}
	return nil
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case map[string]any:
		for _, key := range []string{"name", "amount", "value", "original"} {
			if inner, ok := t[key]; ok {
				return scalar(inner)
			}
		}
		return ""
	case []any:
		if len(t) > 0 {
			return scalar(t[0])
		}
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// Address collects shipping address fields.
func (p Params) Address() model.Address {
	return model.Address{
		ReceiverName:  p.Get("receiver_name"),
		ReceiverPhone: p.Get("receiver_phone"),
		Country:       p.Get("country"),
		City:          p.Get("city"),
		ProvinceState: p.Get("province_state"),
		PostalCode:    p.Get("postal_code"),
	}
}
