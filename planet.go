package server

import "sort"

// OwnerNone marks an unowned planet.
const OwnerNone int64 = 0

// Planet is a capturable world resource. UnitsCount stays non-negative
// between events; during combat resolution it may dip negative before the
// ownership flip restores it.
type Planet struct {
	ID         int64   `json:"id"`
	Owner      int64   `json:"owner"`
	UnitsCount int64   `json:"units_count"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

// PlanetRegistry is the globally addressable planet cache, keyed by id and
// repopulated once per match by map generation. The handler is its only
// writer.
type PlanetRegistry struct {
	planets map[int64]*Planet
}

// NewPlanetRegistry constructs an empty registry.
func NewPlanetRegistry() *PlanetRegistry {
	return &PlanetRegistry{planets: make(map[int64]*Planet)}
}

// Populate replaces the registry contents with a freshly generated map.
func (r *PlanetRegistry) Populate(planets []*Planet) {
	r.planets = make(map[int64]*Planet, len(planets))
	for _, planet := range planets {
		r.planets[planet.ID] = planet
	}
}

// Get returns the planet with the given id, if present.
func (r *PlanetRegistry) Get(id int64) (*Planet, bool) {
	planet, ok := r.planets[id]
	return planet, ok
}

// All returns every planet ordered by id.
func (r *PlanetRegistry) All() []*Planet {
	planets := make([]*Planet, 0, len(r.planets))
	for _, planet := range r.planets {
		planets = append(planets, planet)
	}
	sort.Slice(planets, func(i, j int) bool { return planets[i].ID < planets[j].ID })
	return planets
}

// OwnedBy reports whether the player owns at least one planet.
func (r *PlanetRegistry) OwnedBy(playerID int64) bool {
	for _, planet := range r.planets {
		if planet.Owner == playerID {
			return true
		}
	}
	return false
}

// Len reports the number of planets.
func (r *PlanetRegistry) Len() int {
	return len(r.planets)
}

// Reset drops every planet; the next match regenerates the map.
func (r *PlanetRegistry) Reset() {
	r.planets = make(map[int64]*Planet)
}
