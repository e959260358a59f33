package game

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"doudizhu-game/logging"
	"doudizhu-game/poker"
)

var robotLogger = log.With().Str("logger_name", "game::robot").Logger()

// reaction delays keep robot play legible to the humans at the table
var (
	robotReadyDelay = 200 * time.Millisecond
	robotCallDelay  = 1500 * time.Millisecond
	robotShotDelay  = 2 * time.Second
)

func robotName(nth int) string {
	return fmt.Sprintf("ROBOT-%d", nth)
}

// robot is the MessageSink of a server-driven seat. It reconstructs what it
// needs to know purely from the pushes every client gets, then answers
// through the normal dispatch path like any other player.
type robot struct {
	uid      uint64
	registry *Registry

	mu          sync.Mutex
	hand        []poker.Card
	landlordUID int64
	lastShotUID uint64
	lastShot    []poker.Card
}

func newRobot(uid uint64, registry *Registry) *robot {
	return &robot{uid: uid, registry: registry, landlordUID: -1}
}

func (r *robot) HandlePlayerMessage(playerID uint64, msg *OutMessage) {
	switch msg.Type {
	case MsgRspJoinRoom:
		r.autoReady()
	case MsgRspDealPoker:
		r.onDealPoker(msg.Data.(DealPokerData))
	case MsgRspCallScore:
		r.onCallScore(msg.Data.(CallScoreData))
	case MsgRspShotPoker:
		r.onShotPoker(msg.Data.(ShotPokerData))
	case MsgRspGameOver:
		r.onGameOver()
	}
}

func (r *robot) onDealPoker(data DealPokerData) {
	r.mu.Lock()
	r.hand = append([]poker.Card(nil), data.Pokers...)
	r.landlordUID = -1
	r.lastShotUID = 0
	r.lastShot = nil
	r.mu.Unlock()
	if data.UID == r.uid {
		r.autoCallScore()
	}
}

func (r *robot) onCallScore(data CallScoreData) {
	r.mu.Lock()
	if data.Landlord != -1 {
		r.landlordUID = data.Landlord
		if data.Landlord == int64(r.uid) {
			r.hand = append(r.hand, data.Pokers...)
			poker.SortHand(r.hand)
		}
	}
	myTurn := data.WhoseTurn == int64(r.uid)
	resolved := data.Landlord != -1
	r.mu.Unlock()

	if !myTurn {
		return
	}
	if resolved {
		r.autoShotPoker()
	} else {
		r.autoCallScore()
	}
}

func (r *robot) onShotPoker(data ShotPokerData) {
	r.mu.Lock()
	if len(data.Pokers) > 0 {
		if data.UID == r.uid {
			r.hand, _ = poker.RemoveCards(r.hand, data.Pokers)
		}
		r.lastShotUID = data.UID
		r.lastShot = data.Pokers
	}
	myTurn := data.WhoseTurn == int64(r.uid) && len(r.hand) > 0
	r.mu.Unlock()
	if myTurn {
		r.autoShotPoker()
	}
}

func (r *robot) onGameOver() {
	r.mu.Lock()
	r.hand = nil
	r.landlordUID = -1
	r.lastShotUID = 0
	r.lastShot = nil
	r.mu.Unlock()
	r.autoReady()
}

func (r *robot) autoReady() {
	r.submit(robotReadyDelay, &Message{Type: MsgReqReady, Ready: 1})
}

func (r *robot) autoCallScore() {
	r.mu.Lock()
	rob := r.registry.strategy.CallScore(r.hand)
	r.mu.Unlock()
	r.submit(robotCallDelay, &Message{Type: MsgReqCallScore, Rob: rob})
}

func (r *robot) autoShotPoker() {
	r.mu.Lock()
	var cards []poker.Card
	if len(r.lastShot) == 0 || r.lastShotUID == r.uid {
		cards = r.registry.strategy.FindBestShot(r.hand)
	} else {
		ally := (r.lastShotUID != uint64(r.landlordUID)) == (r.uid != uint64(r.landlordUID))
		cards = r.registry.strategy.FindBestFollow(r.hand, r.lastShot, ally)
	}
	r.mu.Unlock()

	robotLogger.Debug().
		Uint64(logging.PlayerIDKey, r.uid).
		Str(logging.CardsKey, poker.ToRanks(cards)).
		Msg("robot shot")
	r.submit(robotShotDelay, &Message{Type: MsgReqShotPoker, Pokers: cards})
}

func (r *robot) submit(delay time.Duration, msg *Message) {
	msg.PlayerID = r.uid
	time.AfterFunc(delay, func() {
		r.registry.Dispatch(msg)
	})
}
