package server

import "strconv"

// EventName identifies a wire event in either direction.
type EventName string

// Client-originated events.
const (
	EventReady    EventName = "ready"
	EventRendered EventName = "rendered"
	EventMove     EventName = "move"
	EventSelect   EventName = "select"
	EventAddHP    EventName = "add_hp"
	EventDamage   EventName = "damage"
)

// Server-originated events. Client event names reappear here when the
// handler rebroadcasts an accepted action.
const (
	EventConnect     EventName = "connect"
	EventMapInit     EventName = "mapinit"
	EventGameStarted EventName = "game_started"
	EventGameOver    EventName = "gameover"
)

// InboundEvent is a client action tagged with its sender, waiting for the
// handler. Immutable once constructed.
type InboundEvent struct {
	Name    EventName
	Player  *Player
	Payload map[string]any
}

// OutboundEvent is a server notification destined for every connected
// client. A terminal event tells the sender to close the session's
// connections once the broadcast has been written.
type OutboundEvent struct {
	Name     EventName
	Payload  map[string]any
	terminal bool
}

// payloadInt coerces a JSON payload value into an integer. Clients send ids
// and counts as numbers or numeric strings.
func payloadInt(v any) (int64, bool) {
	switch value := v.(type) {
	case float64:
		return int64(value), true
	case int64:
		return value, true
	case int:
		return int64(value), true
	case string:
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// payloadFloat coerces a JSON payload value into a float.
func payloadFloat(v any) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case int64:
		return float64(value), true
	case int:
		return float64(value), true
	case string:
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// payloadBool coerces a JSON payload value into a bool.
func payloadBool(v any) (bool, bool) {
	switch value := v.(type) {
	case bool:
		return value, true
	case string:
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return false, false
		}
		return parsed, true
	default:
		return false, false
	}
}

// payloadIntSlice coerces a JSON array payload value into integers,
// skipping entries that fail coercion.
func payloadIntSlice(v any) []int64 {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	values := make([]int64, 0, len(raw))
	for _, entry := range raw {
		if value, ok := payloadInt(entry); ok {
			values = append(values, value)
		}
	}
	return values
}
