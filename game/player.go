package game

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"doudizhu-game/logging"
	"doudizhu-game/poker"
)

var playerLogger = log.With().Str("logger_name", "game::player").Logger()

// State is the lifecycle stage of a seat. All three seats of a room move
// through CALL_SCORE, PLAYING and GAME_OVER together.
type State int

const (
	StateInit State = iota
	StateWaiting
	StateCallScore
	StatePlaying
	StateGameOver
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateWaiting:
		return "WAITING"
	case StateCallScore:
		return "CALL_SCORE"
	case StatePlaying:
		return "PLAYING"
	case StateGameOver:
		return "GAME_OVER"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// chat flood control, per player
const (
	chatPerSecond = 1
	chatBurst     = 3
)

// Player is one seat occupant. Everything here is owned by the room
// goroutine once the player is seated; the registry touches a player only
// while it is unseated.
type Player struct {
	UID        uint64
	Name       string
	Robot      bool
	AllowRobot bool

	seat     int
	state    State
	ready    int
	leave    int
	rob      int
	landlord int
	hand     []poker.Card

	sinkMu sync.Mutex
	sink   MessageSink
	chat   *rate.Limiter
	room   *Room
}

func NewPlayer(uid uint64, name string, sink MessageSink) *Player {
	return &Player{
		UID:  uid,
		Name: name,
		seat: -1,
		rob:  -1,
		sink: sink,
		chat: rate.NewLimiter(chatPerSecond, chatBurst),
	}
}

func (p *Player) Seat() int      { return p.seat }
func (p *Player) State() State   { return p.state }
func (p *Player) Landlord() bool { return p.landlord == 1 }

func (p *Player) Hand() []poker.Card {
	out := make([]poker.Card, len(p.hand))
	copy(out, p.hand)
	return out
}

func (p *Player) restart() {
	p.ready = 0
	p.hand = nil
	p.rob = -1
	p.landlord = 0
	p.state = StateWaiting
}

func (p *Player) syncData(real bool) PlayerData {
	pokers := p.hand
	if !real {
		pokers = make([]poker.Card, len(p.hand))
	}
	return PlayerData{
		UID:      p.UID,
		Name:     p.Name,
		Ready:    p.ready,
		Rob:      p.rob,
		Leave:    p.leave,
		Landlord: p.landlord,
		Pokers:   pokers,
	}
}

// pushPokers merges new cards into the hand, keeping display order.
func (p *Player) pushPokers(cards []poker.Card) {
	p.hand = append(p.hand, cards...)
	poker.SortHand(p.hand)
}

// SetSink swaps the transport, e.g. on websocket reconnect.
func (p *Player) SetSink(sink MessageSink) {
	p.sinkMu.Lock()
	p.sink = sink
	p.sinkMu.Unlock()
}

func (p *Player) send(msg *OutMessage) {
	p.sinkMu.Lock()
	sink := p.sink
	p.sinkMu.Unlock()
	if sink != nil {
		sink.HandlePlayerMessage(p.UID, msg)
	}
}

func (p *Player) sendError(reason string) {
	p.send(ErrorMessage(reason))
	playerLogger.Warn().
		Uint64(logging.PlayerIDKey, p.UID).
		Msg(reason)
}

// handleMessage is the per-state dispatch, run on the room goroutine.
func (p *Player) handleMessage(msg *Message) {
	if p.leave == 1 && p.handleLeft(msg) {
		return
	}
	switch p.state {
	case StateWaiting:
		p.handleWaiting(msg)
	case StateCallScore:
		p.handleCallScore(msg)
	case StatePlaying:
		p.handlePlaying(msg)
	default:
		p.sendError(fmt.Sprintf("STATE[%s]", p.state))
	}
}

// handleLeft filters messages from a player marked as gone. A rejoin of the
// same room clears the flag; everything else is dropped.
func (p *Player) handleLeft(msg *Message) bool {
	if msg.Type != MsgReqJoinRoom {
		return true
	}
	if msg.RoomID != int(p.room.ID()) {
		p.sendError(fmt.Sprintf("Room[%d] Not Found", msg.RoomID))
		return true
	}
	p.setLeave(0)
	p.room.syncRoom()
	playerLogger.Info().
		Uint64(logging.PlayerIDKey, p.UID).
		Uint32(logging.RoomIDKey, p.room.ID()).
		Msg("player rejoined")
	return true
}

func (p *Player) handleWaiting(msg *Message) {
	switch msg.Type {
	case MsgReqReady:
		p.setReady(msg.Ready)
		if p.room.isReady() {
			p.changeState(StateCallScore)
			p.room.dealPoker()
		}
	case MsgReqLeaveRoom:
		p.room.onLeave(p)
	case MsgReqChat:
		p.handleChat(msg)
	default:
		p.sendError(fmt.Sprintf("STATE[%s]", p.state))
	}
}

func (p *Player) handleCallScore(msg *Message) {
	switch msg.Type {
	case MsgReqCallScore:
		if !p.room.isTurn(p) {
			p.sendError("NOT YOUR TURN")
			return
		}
		p.applyCallScore(msg.Rob)
	case MsgReqLeaveRoom:
		p.setLeave(1)
	case MsgReqChat:
		p.handleChat(msg)
	default:
		p.sendError(fmt.Sprintf("STATE[%s]", p.state))
	}
}

func (p *Player) applyCallScore(rob int) {
	if rob != 0 {
		rob = 1
	}
	p.rob = rob

	robEnd := p.room.isRobEnd()
	if robEnd {
		p.changeState(StatePlaying)
		playerLogger.Info().
			Uint32(logging.RoomIDKey, p.room.ID()).
			Uint64(logging.PlayerIDKey, p.room.landlord().UID).
			Msg("rob ended")
	}
	p.room.broadcastCallScore(p, robEnd)
	p.room.armTurnTimer()
}

func (p *Player) handlePlaying(msg *Message) {
	switch msg.Type {
	case MsgReqShotPoker:
		if !p.room.isTurn(p) {
			p.sendError("NOT YOUR TURN")
			return
		}
		p.applyShotPoker(msg.Pokers)
	case MsgReqLeaveRoom:
		p.setLeave(1)
	case MsgReqChat:
		p.handleChat(msg)
	default:
		p.sendError(fmt.Sprintf("STATE[%s]", p.state))
	}
}

func (p *Player) applyShotPoker(pokers []poker.Card) {
	remaining, ok := poker.RemoveCards(p.hand, pokers)
	if len(pokers) > 0 && !ok {
		p.sendError("Poker does not exist")
		return
	}

	if reason := p.room.onShot(p.seat, pokers); reason != "" {
		p.sendError(reason)
		return
	}
	p.hand = remaining

	if len(p.hand) > 0 {
		p.room.goNextTurn()
	}
	p.room.broadcastShotPoker(p, pokers)
	playerLogger.Info().
		Uint64(logging.PlayerIDKey, p.UID).
		Str(logging.CardsKey, poker.ToRanks(pokers)).
		Msg("player shot")

	if len(p.hand) == 0 {
		p.changeState(StateGameOver)
		p.room.onGameOver(p)
	} else {
		p.room.armTurnTimer()
	}
}

func (p *Player) handleChat(msg *Message) {
	if msg.Text == "" {
		return
	}
	if !p.chat.Allow() {
		p.sendError("Too many messages")
		return
	}
	p.room.broadcast(&OutMessage{Type: MsgRspChat, Data: ChatData{UID: p.UID, Text: msg.Text}})
}

// onDisconnect marks an in-round player as gone and removes an idle one.
func (p *Player) onDisconnect() {
	switch p.state {
	case StateCallScore, StatePlaying:
		p.setLeave(1)
	default:
		p.room.onLeave(p)
	}
}

func (p *Player) changeState(state State) {
	for _, other := range p.room.seatedPlayers() {
		other.state = state
	}
}

func (p *Player) setReady(ready int) {
	if ready != 0 {
		ready = 1
	}
	p.ready = ready
	p.room.broadcast(&OutMessage{Type: MsgRspReady, Data: ReadyData{UID: p.UID, Ready: ready}})
}

func (p *Player) setLeave(leave int) {
	p.leave = leave
	if leave == 1 {
		p.room.broadcast(&OutMessage{Type: MsgRspLeaveRoom, Data: LeaveRoomData{UID: p.UID}})
	}
	p.room.armTurnTimer()
}
