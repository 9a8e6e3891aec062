// Package proto defines the wire protocol: a 4-byte little-endian length
// prefix followed by a UTF-8 JSON envelope of the form
// {"name": <event>, ...fields}.
package proto

import (
	"encoding/json"
	"fmt"
)

// Envelope field carrying the event name.
const nameField = "name"

// EncodeEnvelope flattens an event name and payload into wire JSON.
func EncodeEnvelope(name string, payload map[string]any) ([]byte, error) {
	envelope := make(map[string]any, len(payload)+1)
	for key, value := range payload {
		envelope[key] = value
	}
	envelope[nameField] = name
	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", name, err)
	}
	return data, nil
}

// DecodeEnvelope splits wire JSON into the event name and remaining fields.
func DecodeEnvelope(data []byte) (string, map[string]any, error) {
	var envelope map[string]any
	if err := json.Unmarshal(data, &envelope); err != nil {
		return "", nil, fmt.Errorf("decode envelope: %w", err)
	}
	raw, ok := envelope[nameField]
	if !ok {
		return "", nil, fmt.Errorf("decode envelope: missing %q field", nameField)
	}
	name, ok := raw.(string)
	if !ok || name == "" {
		return "", nil, fmt.Errorf("decode envelope: %q is not a string", nameField)
	}
	delete(envelope, nameField)
	return name, envelope, nil
}

// PlayerInfo mirrors the public player projection in connect messages.
type PlayerInfo struct {
	ID      int64  `json:"id"`
	Address string `json:"address"`
}

// Planet mirrors a planet entry in mapinit messages.
type Planet struct {
	ID         int64   `json:"id"`
	Owner      int64   `json:"owner"`
	UnitsCount int64   `json:"units_count"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

// PlanetChange carries the post-combat state of a planet.
type PlanetChange struct {
	ID         int64 `json:"id"`
	UnitsCount int64 `json:"units_count"`
	Owner      int64 `json:"owner"`
}

// ConnectMessage announces a newly accepted player to every client.
type ConnectMessage struct {
	Name   string     `json:"name"`
	Player PlayerInfo `json:"player"`
}

// ReadyMessage rebroadcasts a player's readiness change.
type ReadyMessage struct {
	Name   string `json:"name"`
	Player int64  `json:"player"`
	Ready  bool   `json:"ready"`
}

// MapInitMessage carries the full generated planet list.
type MapInitMessage struct {
	Name string   `json:"name"`
	Map  []Planet `json:"map"`
}

// GameStartedMessage marks the moment every player has rendered the map.
type GameStartedMessage struct {
	Name string `json:"name"`
}

// SelectMessage maps source planet ids to the unit ids minted from them.
// JSON object keys are strings, so planet ids appear in decimal form.
type SelectMessage struct {
	Name     string             `json:"name"`
	Selected map[string][]int64 `json:"selected"`
}

// DamageMessage reports a resolved damage event: the planet's new state and
// the unit consumed to deal it.
type DamageMessage struct {
	Name         string       `json:"name"`
	PlanetChange PlanetChange `json:"planet_change"`
	UnitID       int64        `json:"unit_id"`
}

// GameOverMessage ends the session. Winner is omitted when the final
// exchange eliminated every remaining player.
type GameOverMessage struct {
	Name   string `json:"name"`
	Winner *int64 `json:"winner,omitempty"`
}

// ReadyRequest is the client readiness toggle.
type ReadyRequest struct {
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
}

// RenderedRequest acknowledges that the client has rendered the map.
type RenderedRequest struct {
	Name string `json:"name"`
}

// MoveRequest relocates a unit the sender owns; the server rebroadcasts it
// without validating the destination.
type MoveRequest struct {
	Name   string  `json:"name"`
	UnitID int64   `json:"unit_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// SelectRequest launches ships from the listed source planets.
type SelectRequest struct {
	Name       string  `json:"name"`
	From       []int64 `json:"from"`
	Percentage float64 `json:"percentage"`
}

// AddHPRequest reinforces a planet the sender owns.
type AddHPRequest struct {
	Name     string `json:"name"`
	PlanetID int64  `json:"planet_id"`
	HPCount  int64  `json:"hp_count"`
}

// DamageRequest spends a unit against a planet.
type DamageRequest struct {
	Name     string `json:"name"`
	PlanetID int64  `json:"planet_id"`
	UnitID   int64  `json:"unit_id"`
	HPCount  int64  `json:"hp_count"`
}
