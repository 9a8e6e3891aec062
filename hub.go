package server

import (
	"context"
	"log"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"planetfall/server/internal/net/proto"
)

// Conn is one client transport endpoint. Send writes a single encoded
// event; implementations own their write locking and deadlines.
type Conn interface {
	Send(data []byte) error
	Close() error
	RemoteAddr() string
}

type connEntry struct {
	conn   Conn
	player *Player
}

type connTarget struct {
	id     uuid.UUID
	conn   Conn
	player *Player
}

// HubConfig tunes the hub.
type HubConfig struct {
	MaxClients int
	Map        MapConfig
	Logger     *log.Logger
	// Generate overrides map generation; nil builds a MapGenerator from
	// Map. Tests pin this for deterministic layouts.
	Generate func(playerIDs []int64) []*Planet
}

// DefaultHubConfig returns the stock session limits.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		MaxClients: DefaultMaxClients,
		Map:        DefaultMapConfig(),
	}
}

// Hub owns the game session: connected players, the planet registry, the
// session phase flags, and the two queues joining the receiver, handler,
// and sender workers. The handler loop is the sole writer of game state;
// the mutex guards only connection membership and the phase flags shared
// with the acceptor.
type Hub struct {
	mu           sync.Mutex
	conns        map[uuid.UUID]connEntry
	nextPlayerID int64
	readiness    bool
	gameStarted  bool
	draining     bool

	logger   *log.Logger
	maxSlots int
	generate func(playerIDs []int64) []*Planet

	planets *PlanetRegistry
	unitIDs UnitIDSource

	inbound  *EventQueue[InboundEvent]
	outbound *EventQueue[OutboundEvent]
}

// NewHub constructs a hub with an empty session.
func NewHub(cfg HubConfig) *Hub {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	maxSlots := cfg.MaxClients
	if maxSlots <= 0 {
		maxSlots = DefaultMaxClients
	}
	generate := cfg.Generate
	if generate == nil {
		generate = NewMapGenerator(cfg.Map).Generate
	}

	return &Hub{
		conns:    make(map[uuid.UUID]connEntry),
		logger:   logger,
		maxSlots: maxSlots,
		generate: generate,
		planets:  NewPlanetRegistry(),
		inbound:  NewEventQueue[InboundEvent](),
		outbound: NewEventQueue[OutboundEvent](),
	}
}

// CanAccept reports whether a new connection may join: only before map
// generation, before game start, and below capacity.
func (h *Hub) CanAccept() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.canAcceptLocked()
}

func (h *Hub) canAcceptLocked() bool {
	return !h.gameStarted && !h.readiness && !h.draining && len(h.conns) < h.maxSlots
}

// Register admits a connection, assigns the next player id, and broadcasts
// the connect event. It returns false when the accept gate is closed.
func (h *Hub) Register(conn Conn) (*Player, uuid.UUID, bool) {
	h.mu.Lock()
	if !h.canAcceptLocked() {
		h.mu.Unlock()
		return nil, uuid.Nil, false
	}
	h.nextPlayerID++
	player := NewPlayer(conn.RemoteAddr(), h.nextPlayerID)
	id := uuid.New()
	h.conns[id] = connEntry{conn: conn, player: player}
	h.mu.Unlock()

	h.logger.Printf("player %d connected from %s", player.ID, player.Addr)
	h.notify(EventConnect, map[string]any{"player": player.Info()})
	return player, id, true
}

// Deregister drops a connection after a transport disconnect. Other
// clients are not notified.
func (h *Hub) Deregister(id uuid.UUID) {
	h.mu.Lock()
	entry, ok := h.conns[id]
	if ok {
		delete(h.conns, id)
	}
	h.mu.Unlock()

	if ok {
		entry.conn.Close()
		h.logger.Printf("player %d disconnected", entry.player.ID)
	}
}

// EnqueueInbound hands a decoded client event to the handler worker.
func (h *Hub) EnqueueInbound(player *Player, name string, payload map[string]any) {
	h.inbound.Push(InboundEvent{Name: EventName(name), Player: player, Payload: payload})
}

// PlayerCount reports the number of registered players.
func (h *Hub) PlayerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) notify(name EventName, payload map[string]any) {
	h.outbound.Push(OutboundEvent{Name: name, Payload: payload})
}

// playersSnapshot returns the registered players ordered by id.
func (h *Hub) playersSnapshot() []*Player {
	h.mu.Lock()
	players := make([]*Player, 0, len(h.conns))
	for _, entry := range h.conns {
		players = append(players, entry.player)
	}
	h.mu.Unlock()

	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return players
}

// connSnapshot returns the current connections in player-id order so
// broadcasts have a stable delivery order.
func (h *Hub) connSnapshot() []connTarget {
	h.mu.Lock()
	targets := make([]connTarget, 0, len(h.conns))
	for id, entry := range h.conns {
		targets = append(targets, connTarget{id: id, conn: entry.conn, player: entry.player})
	}
	h.mu.Unlock()

	sort.Slice(targets, func(i, j int) bool { return targets[i].player.ID < targets[j].player.ID })
	return targets
}

// RunHandler is the handler worker: the single consumer of the inbound
// queue and the sole serialization point for game-state mutation.
func (h *Hub) RunHandler(ctx context.Context) {
	for {
		event, err := h.inbound.Take(ctx)
		if err != nil {
			return
		}
		h.dispatch(event)
	}
}

// RunSender is the sender worker: the single consumer of the outbound
// queue.
func (h *Hub) RunSender(ctx context.Context) {
	for {
		event, err := h.outbound.Take(ctx)
		if err != nil {
			return
		}
		h.broadcast(event)
	}
}

func (h *Hub) dispatch(event InboundEvent) {
	h.mu.Lock()
	draining := h.draining
	started := h.gameStarted
	h.mu.Unlock()

	if draining {
		return
	}

	switch event.Name {
	case EventReady:
		h.handleReady(event)
	case EventRendered:
		h.handleRendered(event)
	case EventMove, EventSelect, EventAddHP, EventDamage:
		// Turn actions are accepted only once the game has started.
		if !started {
			return
		}
		switch event.Name {
		case EventMove:
			h.handleMove(event)
		case EventSelect:
			h.handleSelect(event)
		case EventAddHP:
			h.handleAddHP(event)
		case EventDamage:
			h.handleDamage(event)
		}
	default:
		h.logger.Printf("dropping unknown event %q from player %d", event.Name, event.Player.ID)
	}
}

func (h *Hub) handleReady(event InboundEvent) {
	ready, ok := payloadBool(event.Payload["ready"])
	if !ok {
		return
	}
	event.Player.Ready = ready
	h.notify(EventReady, map[string]any{"player": event.Player.ID, "ready": ready})

	h.mu.Lock()
	generated := h.readiness
	h.mu.Unlock()
	if generated {
		// The map exists; late readiness toggles must not regenerate it.
		return
	}

	players := h.playersSnapshot()
	if len(players) < 2 {
		return
	}
	for _, player := range players {
		if !player.Ready {
			return
		}
	}

	playerIDs := make([]int64, 0, len(players))
	for _, player := range players {
		playerIDs = append(playerIDs, player.ID)
	}
	planets := h.generate(playerIDs)
	h.planets.Populate(planets)

	h.mu.Lock()
	h.readiness = true
	h.mu.Unlock()

	// The payload gets value copies; the sender marshals events after the
	// handler has moved on to mutating the registry planets.
	layout := make([]Planet, len(planets))
	for i, planet := range planets {
		layout[i] = *planet
	}

	h.logger.Printf("map generated: %d planets for %d players", len(planets), len(players))
	h.notify(EventMapInit, map[string]any{"map": layout})
}

func (h *Hub) handleRendered(event InboundEvent) {
	event.Player.Rendered = true

	h.mu.Lock()
	ready := h.readiness
	h.mu.Unlock()
	if !ready {
		return
	}

	for _, player := range h.playersSnapshot() {
		if !player.Rendered {
			return
		}
	}

	h.notify(EventGameStarted, map[string]any{})
	h.mu.Lock()
	h.gameStarted = true
	h.mu.Unlock()
	h.logger.Printf("game started")
}

func (h *Hub) handleMove(event InboundEvent) {
	unitID, ok := payloadInt(event.Payload["unit_id"])
	if !ok || !event.Player.OwnsUnit(unitID) {
		return
	}
	h.notify(EventMove, event.Payload)
}

func (h *Hub) handleSelect(event InboundEvent) {
	percentage, ok := payloadFloat(event.Payload["percentage"])
	if !ok {
		return
	}

	selected := make(map[string][]int64)
	for _, planetID := range payloadIntSlice(event.Payload["from"]) {
		planet, found := h.planets.Get(planetID)
		if !found || planet.Owner != event.Player.ID {
			continue
		}
		// The percentage is truncated and the quotient rounds half to even.
		ships := int64(math.RoundToEven(float64(planet.UnitsCount*int64(percentage)) / 100))
		planet.UnitsCount -= ships
		unitIDs := h.unitIDs.Mint(ships)
		event.Player.AddUnits(unitIDs)
		selected[strconv.FormatInt(planetID, 10)] = unitIDs
	}

	h.notify(EventSelect, map[string]any{"selected": selected})
}

func (h *Hub) handleAddHP(event InboundEvent) {
	planetID, ok := payloadInt(event.Payload["planet_id"])
	if !ok {
		return
	}
	hpCount, ok := payloadInt(event.Payload["hp_count"])
	if !ok {
		return
	}
	planet, found := h.planets.Get(planetID)
	if !found || planet.Owner != event.Player.ID {
		return
	}

	planet.UnitsCount += hpCount
	h.notify(EventAddHP, event.Payload)
}

func (h *Hub) handleDamage(event InboundEvent) {
	planetID, planetOK := payloadInt(event.Payload["planet_id"])
	unitID, unitOK := payloadInt(event.Payload["unit_id"])
	hpCount := int64(1)
	if raw, present := event.Payload["hp_count"]; present {
		if value, ok := payloadInt(raw); ok {
			hpCount = value
		}
	}

	if planetOK && unitOK {
		if planet, found := h.planets.Get(planetID); found && event.Player.OwnsUnit(unitID) {
			if planet.Owner == event.Player.ID {
				// Hitting your own planet reinforces it.
				planet.UnitsCount += hpCount
			} else {
				planet.UnitsCount -= hpCount
				if planet.UnitsCount < 0 {
					planet.Owner = event.Player.ID
					planet.UnitsCount = -planet.UnitsCount
				}
			}
			event.Player.RemoveUnit(unitID)

			h.notify(EventDamage, map[string]any{
				"planet_change": map[string]any{
					"id":          planet.ID,
					"units_count": planet.UnitsCount,
					"owner":       planet.Owner,
				},
				"unit_id": unitID,
			})
		}
	}

	// The win scan runs after every damage event, even rejected ones.
	h.checkGameOver()
}

// checkGameOver scans for players holding at least one unit and one owned
// planet. Fewer than two such players ends the session.
func (h *Hub) checkGameOver() {
	qualifiers := make([]int64, 0, 2)
	for _, player := range h.playersSnapshot() {
		if player.UnitCount() > 0 && h.planets.OwnedBy(player.ID) {
			qualifiers = append(qualifiers, player.ID)
			if len(qualifiers) >= 2 {
				return
			}
		}
	}

	payload := map[string]any{}
	if len(qualifiers) == 1 {
		payload["winner"] = qualifiers[0]
		h.logger.Printf("game over: player %d wins", qualifiers[0])
	} else {
		// Simultaneous elimination; nobody is left standing.
		h.logger.Printf("game over: draw")
	}
	h.outbound.Push(OutboundEvent{Name: EventGameOver, Payload: payload, terminal: true})
	h.reset()
}

// reset clears the session the instant game over is declared. Connections
// stay registered, with the accept gate held closed, until the sender has
// flushed the gameover broadcast; finishReset then closes them.
func (h *Hub) reset() {
	h.mu.Lock()
	h.readiness = false
	h.gameStarted = false
	h.draining = true
	h.mu.Unlock()
	h.planets.Reset()
}

func (h *Hub) finishReset() {
	h.mu.Lock()
	entries := make([]connEntry, 0, len(h.conns))
	for _, entry := range h.conns {
		entries = append(entries, entry)
	}
	h.conns = make(map[uuid.UUID]connEntry)
	h.draining = false
	h.mu.Unlock()

	for _, entry := range entries {
		entry.conn.Close()
	}
	h.logger.Printf("session reset: %d connections closed", len(entries))
}

// broadcast serializes one outbound event and writes it to every client.
// Write failures are isolated per connection; the failing client is
// dropped and delivery continues.
func (h *Hub) broadcast(event OutboundEvent) {
	data, err := proto.EncodeEnvelope(string(event.Name), event.Payload)
	if err != nil {
		h.logger.Printf("failed to encode %s event: %v", event.Name, err)
		return
	}

	for _, target := range h.connSnapshot() {
		if err := target.conn.Send(data); err != nil {
			h.logger.Printf("failed to send %s to player %d: %v", event.Name, target.player.ID, err)
			h.Deregister(target.id)
		}
	}

	if event.terminal {
		h.finishReset()
	}
}

// Shutdown closes every connection; read loops observe the close and exit.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	entries := make([]connEntry, 0, len(h.conns))
	for _, entry := range h.conns {
		entries = append(entries, entry)
	}
	h.conns = make(map[uuid.UUID]connEntry)
	h.mu.Unlock()

	for _, entry := range entries {
		entry.conn.Close()
	}
}
