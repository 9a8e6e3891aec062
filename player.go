package server

// Player is a connected participant. The handler is the only writer of a
// player's flags and unit set after the receiver hands the player off.
type Player struct {
	ID       int64
	Addr     string
	Ready    bool
	Rendered bool

	units map[int64]struct{}
}

// PlayerInfo is the public projection broadcast in connect events.
type PlayerInfo struct {
	ID      int64  `json:"id"`
	Address string `json:"address"`
}

// NewPlayer constructs a player for a freshly accepted connection.
func NewPlayer(addr string, id int64) *Player {
	return &Player{
		ID:    id,
		Addr:  addr,
		units: make(map[int64]struct{}),
	}
}

// Info returns the projection shared with every client on connect.
func (p *Player) Info() PlayerInfo {
	return PlayerInfo{ID: p.ID, Address: p.Addr}
}

// AddUnits records freshly minted unit ids as owned by the player.
func (p *Player) AddUnits(ids []int64) {
	for _, id := range ids {
		p.units[id] = struct{}{}
	}
}

// OwnsUnit reports whether the player currently holds the unit.
func (p *Player) OwnsUnit(id int64) bool {
	_, ok := p.units[id]
	return ok
}

// RemoveUnit consumes a unit id; it can never be referenced again.
func (p *Player) RemoveUnit(id int64) {
	delete(p.units, id)
}

// UnitCount reports how many units the player holds.
func (p *Player) UnitCount() int {
	return len(p.units)
}
