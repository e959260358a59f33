package game

import (
	"testing"

	"doudizhu-game/poker"
)

func TestBiddingResolution(t *testing.T) {
	cases := []struct {
		name         string
		answers      []int
		landlordSeat int
	}{
		{"all decline, opener takes it", []int{0, 0, 0}, 0},
		{"only opener robs", []int{1, 0, 0}, 0},
		{"middle seat robs", []int{0, 1, 0}, 1},
		{"last seat robs", []int{0, 0, 1}, 2},
		{"opener waives the extra chance", []int{1, 0, 1, 0}, 2},
		{"opener uses the extra chance", []int{1, 0, 1, 1}, 0},
		{"rob behind opener wins the walk", []int{1, 1, 0, 0}, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			reg := newTestRegistry(t, nil)
			r := newTestRoom(t, reg)
			players, _ := seatTestPlayers(r, StateCallScore)
			r.kitty = plainKitty(t)
			r.landlordSeat = 0
			r.whoseTurn = 0

			for _, answer := range c.answers {
				if players[r.whoseTurn].state != StateCallScore {
					t.Fatalf("bidding resolved before all answers were used")
				}
				players[r.whoseTurn].applyCallScore(answer)
			}

			landlord := r.landlord()
			if landlord == nil {
				t.Fatal("no landlord after bidding")
			}
			if landlord.seat != c.landlordSeat {
				t.Fatalf("landlord seat = %d, want %d", landlord.seat, c.landlordSeat)
			}
			if players[0].state != StatePlaying {
				t.Fatalf("state = %s, want PLAYING", players[0].state)
			}
			if r.whoseTurn != c.landlordSeat {
				t.Fatalf("turn = %d, the landlord leads", r.whoseTurn)
			}
			if len(landlord.hand) != 3 {
				t.Fatalf("landlord holds %d cards, kitty not granted", len(landlord.hand))
			}
			if r.lastShotSeat != c.landlordSeat {
				t.Fatalf("lastShotSeat = %d, want %d", r.lastShotSeat, c.landlordSeat)
			}
		})
	}
}

func TestKittyBonuses(t *testing.T) {
	cases := []struct {
		name         string
		kitty        []poker.Card
		multiple     int
		bombMultiple int
	}{
		{"one joker doubles", []poker.Card{poker.SmallJoker, 3, 17}, 2, 2},
		{"both jokers quadruple", []poker.Card{poker.SmallJoker, poker.BigJoker, 3}, 4, 2},
		{"same suit doubles and arms bombs", []poker.Card{3, 5, 9}, 2, 4},
		{"short run doubles", []poker.Card{6, 20, 34}, 2, 2},
		{"plain kitty leaves it alone", []poker.Card{3, 17, 34}, 1, 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			reg := newTestRegistry(t, nil)
			r := newTestRoom(t, reg)
			r.kitty = c.kitty
			r.reMultiple()
			if r.multiple != c.multiple {
				t.Errorf("multiple = %d, want %d", r.multiple, c.multiple)
			}
			if r.bombMultiple != c.bombMultiple {
				t.Errorf("bombMultiple = %d, want %d", r.bombMultiple, c.bombMultiple)
			}
		})
	}
}

func TestOnShotValidation(t *testing.T) {
	reg := newTestRegistry(t, nil)
	r := newTestRoom(t, reg)
	seatTestPlayers(r, StatePlaying)
	r.lastShotSeat = 0
	r.whoseTurn = 0

	if reason := r.onShot(0, testCards(t, "34")); reason != "Poker does not comply with the rules" {
		t.Errorf("illegal shape: %q", reason)
	}
	if reason := r.onShot(0, nil); reason != "Last shot player does not allow pass" {
		t.Errorf("lead pass: %q", reason)
	}
	if reason := r.onShot(0, testCards(t, "5")); reason != "" {
		t.Fatalf("lead rejected: %q", reason)
	}
	if reason := r.onShot(1, testCards(t, "4")); reason != "Poker small than last shot" {
		t.Errorf("weak follow: %q", reason)
	}
	if reason := r.onShot(1, testCards(t, "33")); reason != "Poker small than last shot" {
		t.Errorf("cross-type follow: %q", reason)
	}
	if reason := r.onShot(1, nil); reason != "" {
		t.Fatalf("pass rejected: %q", reason)
	}
	if r.multiple != 1 {
		t.Fatalf("multiple = %d before any bomb", r.multiple)
	}
	if reason := r.onShot(2, testCards(t, "4444")); reason != "" {
		t.Fatalf("bomb rejected: %q", reason)
	}
	if r.multiple != 2 {
		t.Errorf("multiple = %d, bombs double it", r.multiple)
	}
	if reason := r.onShot(0, testCards(t, "wW")); reason != "" {
		t.Fatalf("rocket rejected: %q", reason)
	}
	if r.multiple != 4 {
		t.Errorf("multiple = %d, rocket doubles again", r.multiple)
	}
	if r.lastShotSeat != 0 {
		t.Errorf("lastShotSeat = %d", r.lastShotSeat)
	}
	if len(r.shotRound) != 4 {
		t.Errorf("shotRound length = %d, want 4", len(r.shotRound))
	}
}

func TestDealPoker(t *testing.T) {
	reg := newTestRegistry(t, nil)
	r := newTestRoom(t, reg)
	players, sinks := seatTestPlayers(r, StateCallScore)
	r.newDeck = func() *poker.Deck { return poker.NewSeededDeck(7) }
	r.landlordSeat = 1

	r.dealPoker()

	seen := map[poker.Card]bool{}
	for i, p := range players {
		if len(p.hand) != 17 {
			t.Fatalf("seat %d holds %d cards", i, len(p.hand))
		}
		for _, c := range p.hand {
			if seen[c] {
				t.Fatalf("card %d dealt twice", c)
			}
			seen[c] = true
		}
		msg := sinks[i].lastOfType(MsgRspDealPoker)
		if msg == nil {
			t.Fatalf("seat %d got no deal message", i)
		}
		data := msg.Data.(DealPokerData)
		if data.UID != players[1].UID {
			t.Errorf("deal message names %d as first to act, want the landlord seat", data.UID)
		}
		if len(data.Pokers) != 17 {
			t.Errorf("seat %d deal payload has %d cards", i, len(data.Pokers))
		}
	}
	for _, c := range r.kitty {
		if seen[c] {
			t.Fatalf("kitty card %d also dealt", c)
		}
		seen[c] = true
	}
	if len(seen) != 54 {
		t.Fatalf("dealt %d distinct cards", len(seen))
	}
	if r.whoseTurn != 1 {
		t.Errorf("whoseTurn = %d, want the landlord seat", r.whoseTurn)
	}
}

func TestSpringSettlement(t *testing.T) {
	reg := newTestRegistry(t, nil)
	r := newTestRoom(t, reg)
	players, sinks := seatTestPlayers(r, StateGameOver)
	players[0].landlord = 1

	// the landlord shed everything, the farmers never played a card
	r.shotRound = [][]poker.Card{
		testCards(t, "34567"), nil, nil,
		testCards(t, "99"), nil, nil,
	}
	r.multiple = 2

	r.onGameOver(players[0])

	msg := sinks[1].lastOfType(MsgRspGameOver)
	if msg == nil {
		t.Fatal("no game over broadcast")
	}
	data := msg.Data.(GameOverData)
	if data.Spring != 1 || data.AntiSpring != 0 {
		t.Fatalf("spring = %d antispring = %d", data.Spring, data.AntiSpring)
	}
	// multiple 2, tripled by the spring, base 10
	if data.Multiple != 6 {
		t.Fatalf("multiple = %d, want 6", data.Multiple)
	}
	wantPoints := map[uint64]int{1: 120, 2: -60, 3: -60}
	total := 0
	for _, gp := range data.Players {
		if gp.Point != wantPoints[gp.UID] {
			t.Errorf("player %d point = %d, want %d", gp.UID, gp.Point, wantPoints[gp.UID])
		}
		total += gp.Point
	}
	if total != 0 {
		t.Errorf("points sum to %d, settlement must be zero-sum", total)
	}

	// the room rotated into the next round
	if r.multiple != 1 {
		t.Errorf("multiple = %d after restart", r.multiple)
	}
	if r.landlordSeat != 1 {
		t.Errorf("landlordSeat = %d, want rotation to 1", r.landlordSeat)
	}
	if players[0].state != StateWaiting || players[0].landlord != 0 {
		t.Error("players not reset for the next round")
	}
}

func TestRestartDismissesRobotsWithLastHuman(t *testing.T) {
	reg := newTestRegistry(t, nil)
	r := NewRoom(1, 1, true, reg)
	r.chResetTimer = make(chan timerMsg, 256)
	r.chPauseTimer = make(chan bool, 256)
	reg.playing[r.ID()] = r

	human := NewPlayer(1, "tester", &recordingSink{})
	human.seat = 0
	human.room = r
	human.state = StateGameOver
	human.leave = 1
	r.players[0] = human
	reg.players[human.UID] = human
	reg.playerRoom[human.UID] = r

	for i := 1; i <= 2; i++ {
		uid := uint64(robotUIDBase + i)
		robot := NewPlayer(uid, robotName(i), &recordingSink{})
		robot.Robot = true
		robot.seat = i
		robot.room = r
		robot.state = StateGameOver
		r.players[i] = robot
		reg.players[uid] = robot
		reg.playerRoom[uid] = r
	}

	r.restart()

	if !r.isEmpty() {
		t.Fatal("robots stayed seated after the last human left")
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if len(reg.waiting) != 0 || len(reg.playing) != 0 {
		t.Errorf("room not closed: waiting=%d playing=%d", len(reg.waiting), len(reg.playing))
	}
	if len(reg.playerRoom) != 0 {
		t.Errorf("%d players still routed to the room", len(reg.playerRoom))
	}
	if len(reg.players) != 1 {
		t.Errorf("registry holds %d players, only the human returns to the lobby", len(reg.players))
	}
	if _, ok := reg.players[human.UID]; !ok {
		t.Error("human dropped from the registry with the robots")
	}
}

func TestAntiSpringDetection(t *testing.T) {
	reg := newTestRegistry(t, nil)
	r := newTestRoom(t, reg)
	players, _ := seatTestPlayers(r, StatePlaying)
	players[2].landlord = 1

	// seat order in shotRound follows turn order from the landlord's lead
	r.shotRound = [][]poker.Card{
		testCards(t, "3"), testCards(t, "4"), testCards(t, "5"),
		nil, testCards(t, "6"), testCards(t, "7"),
	}
	if !r.isAntiSpring(players[0]) {
		t.Error("landlord played only the opening trick, farmers win an anti-spring")
	}
	if r.isSpring(players[0]) {
		t.Error("a farmer winner is never a spring")
	}

	r.shotRound[3] = testCards(t, "8")
	if r.isAntiSpring(players[0]) {
		t.Error("a second landlord play voids the anti-spring")
	}
}
