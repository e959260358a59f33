package game

import (
	"sync"
	"testing"
	"time"

	"doudizhu-game/poker"
	"doudizhu-game/rules"
)

// recordingSink captures every push for later inspection.
type recordingSink struct {
	mu   sync.Mutex
	msgs []*OutMessage
}

func (s *recordingSink) HandlePlayerMessage(playerID uint64, msg *OutMessage) {
	s.mu.Lock()
	s.msgs = append(s.msgs, msg)
	s.mu.Unlock()
}

func (s *recordingSink) snapshot() []*OutMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*OutMessage, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// splitSink forwards every push to both sinks.
type splitSink struct {
	a, b MessageSink
}

func (s *splitSink) HandlePlayerMessage(playerID uint64, msg *OutMessage) {
	s.a.HandlePlayerMessage(playerID, msg)
	s.b.HandlePlayerMessage(playerID, msg)
}

func (s *recordingSink) lastOfType(msgType string) *OutMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.msgs) - 1; i >= 0; i-- {
		if s.msgs[i].Type == msgType {
			return s.msgs[i]
		}
	}
	return nil
}

func newTestRegistry(t *testing.T, store RoundStore) *Registry {
	t.Helper()
	table, err := rules.NewRuleTable()
	if err != nil {
		t.Fatalf("NewRuleTable: %v", err)
	}
	engine := rules.NewEngine(table)
	return NewRegistry(engine, rules.NewGreedyStrategy(engine), store)
}

// newTestRoom builds an unstarted room driven synchronously by the test.
// Timer channels are widened so state transitions never block without the
// timer goroutine draining them.
func newTestRoom(t *testing.T, reg *Registry) *Room {
	t.Helper()
	r := NewRoom(1, 1, false, reg)
	r.chResetTimer = make(chan timerMsg, 256)
	r.chPauseTimer = make(chan bool, 256)
	return r
}

// seatTestPlayers fills all three seats with recording players.
func seatTestPlayers(r *Room, state State) ([]*Player, []*recordingSink) {
	players := make([]*Player, 3)
	sinks := make([]*recordingSink, 3)
	for i := 0; i < 3; i++ {
		sinks[i] = &recordingSink{}
		p := NewPlayer(uint64(i+1), "tester", sinks[i])
		p.seat = i
		p.room = r
		p.state = state
		r.players[i] = p
		players[i] = p
	}
	return players, sinks
}

// testCards builds concrete cards covering the rank string.
func testCards(t *testing.T, ranks string) []poker.Card {
	t.Helper()
	used := make(map[poker.Card]bool)
	out := make([]poker.Card, 0, len(ranks))
	for i := 0; i < len(ranks); i++ {
		picked := false
		for _, c := range poker.CardsOfRank(ranks[i]) {
			if !used[c] {
				used[c] = true
				out = append(out, c)
				picked = true
				break
			}
		}
		if !picked {
			t.Fatalf("cannot build cards for %q", ranks)
		}
	}
	return out
}

// plainKitty is three cards with no joker, no shared suit and no run, so
// the multiplier stays untouched.
func plainKitty(t *testing.T) []poker.Card {
	t.Helper()
	kitty := []poker.Card{3, 17, 34}
	if poker.CountJokers(kitty) != 0 || poker.IsSameSuit(kitty) || poker.IsShortSeq(kitty) {
		t.Fatal("kitty fixture would change the multiplier")
	}
	return kitty
}

func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
