package pgmap

import (
	"log/slog"
)

// Args is an already ordered argument list. It is passed to the driver as is,
// so the caller owns the ordering.
type Args []any

// Named maps parameter names to values; it is reordered by the declared
// parameter order.
type Named map[string]any

// MapParameters converts input into the positional list the driver expects.
//
// A nil order or nil input yields no arguments. Named and map[string]any are
// laid out by order, a missing name becomes nil. Args and []any pass through.
// Everything else, including []byte and typed slices, is a single value.
func MapParameters(input any, order []string) []any {
	return mapParameters(discardLogger, input, order)
}

func mapParameters(log *slog.Logger, input any, order []string) []any {
	log = log.With(slog.String("component", "pg[mapper]"))

	if order == nil || input == nil {
		log.Debug("no dictionary or map provided, using no values")
		return []any{}
	}

	switch v := input.(type) {
	case Named:
		return mapNamed(log, v, order)
	case map[string]any:
		return mapNamed(log, v, order)
	case Args:
		log.Debug("using direct map (not recommended)")
		return v
	case []any:
		log.Debug("using direct map (not recommended)")
		return v
	default:
		log.Debug("using singular value", slog.Any("value", v))
		return []any{v}
	}
}

func mapNamed(log *slog.Logger, dict map[string]any, order []string) []any {
	log.Debug("running linear map")

	out := make([]any, len(order))
	for i, name := range order {
		out[i] = dict[name]
		log.Debug("mapping", slog.String("name", name), slog.Int("pos", i), slog.Any("value", out[i]))
	}
	return out
}
