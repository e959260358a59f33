package game

import (
	"context"

	"github.com/pkg/errors"

	"doudizhu-game/rules"
)

// Manager wires the rule engine, the strategy and the registry together and
// is the single entry point transports talk to.
type Manager struct {
	engine   *rules.Engine
	strategy rules.Strategy
	registry *Registry
	store    RoundStore
}

func NewManager(store RoundStore) (*Manager, error) {
	table, err := rules.NewRuleTable()
	if err != nil {
		return nil, errors.Wrap(err, "building rule table")
	}
	engine := rules.NewEngine(table)
	strategy := rules.NewGreedyStrategy(engine)
	return &Manager{
		engine:   engine,
		strategy: strategy,
		registry: NewRegistry(engine, strategy, store),
		store:    store,
	}, nil
}

func (m *Manager) Engine() *rules.Engine { return m.engine }

func (m *Manager) Registry() *Registry { return m.registry }

// RegisterPlayer attaches a player session coming in over any transport.
func (m *Manager) RegisterPlayer(uid uint64, name string, allowRobot bool, sink MessageSink) *Player {
	return m.registry.RegisterPlayer(uid, name, allowRobot, sink)
}

// Dispatch routes a decoded client request.
func (m *Manager) Dispatch(msg *Message) {
	m.registry.Dispatch(msg)
}

// Disconnect reports a dropped session.
func (m *Manager) Disconnect(uid uint64) {
	m.registry.Disconnect(uid)
}

// RoomList summarizes running tables for the lobby.
func (m *Manager) RoomList() []RoomCount {
	return m.registry.RoomList()
}

// LoadRounds returns the persisted round history of a room.
func (m *Manager) LoadRounds(ctx context.Context, roomID uint32) ([]*RoundRecord, error) {
	if m.store == nil {
		return nil, nil
	}
	return m.store.LoadRounds(ctx, roomID)
}
