package game

import (
	"context"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

// MemoryRoundStore keeps round records in process memory. Used by tests and
// single-node deployments without Redis.
type MemoryRoundStore struct {
	mu     sync.Mutex
	rounds map[uint32][][]byte
}

func NewMemoryRoundStore() *MemoryRoundStore {
	return &MemoryRoundStore{rounds: make(map[uint32][][]byte)}
}

func (m *MemoryRoundStore) SaveRound(ctx context.Context, rec *RoundRecord) error {
	data, err := jsoniter.Marshal(rec)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.rounds[rec.RoomID] = append(m.rounds[rec.RoomID], data)
	m.mu.Unlock()
	return nil
}

func (m *MemoryRoundStore) LoadRounds(ctx context.Context, roomID uint32) ([]*RoundRecord, error) {
	m.mu.Lock()
	stored := m.rounds[roomID]
	m.mu.Unlock()
	out := make([]*RoundRecord, 0, len(stored))
	for _, data := range stored {
		rec := &RoundRecord{}
		if err := jsoniter.Unmarshal(data, rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (m *MemoryRoundStore) RemoveRounds(ctx context.Context, roomID uint32) error {
	m.mu.Lock()
	delete(m.rounds, roomID)
	m.mu.Unlock()
	return nil
}
