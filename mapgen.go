package server

import "math/rand"

// MapConfig tunes match map generation.
type MapConfig struct {
	Seed            int64
	Width           float64
	Height          float64
	NeutralPlanets  int
	HomeUnits       int64
	NeutralMinUnits int64
	NeutralMaxUnits int64
}

// DefaultMapConfig returns the standard match layout.
func DefaultMapConfig() MapConfig {
	return MapConfig{
		Width:           1600,
		Height:          900,
		NeutralPlanets:  6,
		HomeUnits:       100,
		NeutralMinUnits: 10,
		NeutralMaxUnits: 60,
	}
}

// MapGenerator produces the planet set for one match: a garrisoned home
// planet per player plus a band of neutral planets. A zero seed derives the
// layout from the default source; tests pin the seed for determinism.
type MapGenerator struct {
	cfg MapConfig
	rng *rand.Rand
}

// NewMapGenerator constructs a generator from the given config.
func NewMapGenerator(cfg MapConfig) *MapGenerator {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	return &MapGenerator{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

// Generate builds the match map. Planet ids restart at 1 each match; unit
// ids are the only identifiers that survive across sessions.
func (g *MapGenerator) Generate(playerIDs []int64) []*Planet {
	planets := make([]*Planet, 0, len(playerIDs)+g.cfg.NeutralPlanets)
	nextID := int64(1)

	for _, playerID := range playerIDs {
		planets = append(planets, &Planet{
			ID:         nextID,
			Owner:      playerID,
			UnitsCount: g.cfg.HomeUnits,
			X:          g.rng.Float64() * g.cfg.Width,
			Y:          g.rng.Float64() * g.cfg.Height,
		})
		nextID++
	}

	for i := 0; i < g.cfg.NeutralPlanets; i++ {
		span := g.cfg.NeutralMaxUnits - g.cfg.NeutralMinUnits
		units := g.cfg.NeutralMinUnits
		if span > 0 {
			units += g.rng.Int63n(span + 1)
		}
		planets = append(planets, &Planet{
			ID:         nextID,
			Owner:      OwnerNone,
			UnitsCount: units,
			X:          g.rng.Float64() * g.cfg.Width,
			Y:          g.rng.Float64() * g.cfg.Height,
		})
		nextID++
	}

	return planets
}
