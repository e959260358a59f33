package game

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"doudizhu-game/logging"
	"doudizhu-game/rules"
)

var registryLogger = log.With().Str("logger_name", "game::registry").Logger()

const maxRoomID = 999999

// robot identities live far above any human account range
const robotUIDBase = 1_000_000_000

// Registry tracks players and rooms. It owns only the lookup maps; once a
// player is routed to a room every game mutation happens on that room's
// goroutine. Safe for concurrent use by all transports.
type Registry struct {
	engine   *rules.Engine
	strategy rules.Strategy
	store    RoundStore

	mu         sync.Mutex
	players    map[uint64]*Player
	playerRoom map[uint64]*Room
	waiting    map[uint32]*Room
	playing    map[uint32]*Room
	totalRooms uint32
	robotSeq   uint64
}

func NewRegistry(engine *rules.Engine, strategy rules.Strategy, store RoundStore) *Registry {
	return &Registry{
		engine:     engine,
		strategy:   strategy,
		store:      store,
		players:    make(map[uint64]*Player),
		playerRoom: make(map[uint64]*Room),
		waiting:    make(map[uint32]*Room),
		playing:    make(map[uint32]*Room),
	}
}

// RegisterPlayer finds or creates the player and attaches the transport.
// Reconnecting players keep their seat; the new sink replaces the old one.
func (reg *Registry) RegisterPlayer(uid uint64, name string, allowRobot bool, sink MessageSink) *Player {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	p, ok := reg.players[uid]
	if !ok {
		p = NewPlayer(uid, name, sink)
		p.AllowRobot = allowRobot
		reg.players[uid] = p
		return p
	}
	p.SetSink(sink)
	return p
}

// Dispatch routes one client request. Seated players go to their room
// goroutine; everything else is a lobby concern handled here.
func (reg *Registry) Dispatch(msg *Message) {
	reg.mu.Lock()
	p := reg.players[msg.PlayerID]
	room := reg.playerRoom[msg.PlayerID]
	reg.mu.Unlock()
	if p == nil {
		registryLogger.Warn().
			Uint64(logging.PlayerIDKey, msg.PlayerID).
			Str(logging.MsgTypeKey, msg.Type).
			Msg("message from unknown player")
		return
	}
	if room != nil {
		room.SubmitMessage(msg.PlayerID, msg)
		return
	}

	switch msg.Type {
	case MsgReqRoomList:
		p.send(&OutMessage{Type: MsgRspRoomList, Data: RoomListData{Rooms: reg.RoomList()}})
	case MsgReqJoinRoom:
		reg.joinRoom(p, msg.RoomID, msg.Level)
	default:
		p.sendError("STATE[INIT]")
	}
}

// Disconnect reports a dropped transport.
func (reg *Registry) Disconnect(uid uint64) {
	reg.mu.Lock()
	room := reg.playerRoom[uid]
	if room == nil {
		delete(reg.players, uid)
	}
	reg.mu.Unlock()
	if room != nil {
		room.SubmitDisconnect(uid)
	}
}

func (reg *Registry) joinRoom(p *Player, roomID, level int) {
	if level <= 0 {
		level = 1
	}
	reg.mu.Lock()
	room := reg.findRoomLocked(roomID, level, p.AllowRobot)
	if room == nil {
		reg.mu.Unlock()
		p.sendError("Room Not Found")
		return
	}
	reg.playerRoom[p.UID] = room
	reg.mu.Unlock()
	room.SubmitJoin(p)
}

func (reg *Registry) findRoomLocked(roomID, level int, allowRobot bool) *Room {
	if roomID >= 0 {
		if room, ok := reg.waiting[uint32(roomID)]; ok {
			return room
		}
		if room, ok := reg.playing[uint32(roomID)]; ok {
			return room
		}
		if roomID > 0 {
			return nil
		}
	}
	// robot-backed rooms fill themselves; never pool strangers into one
	for _, room := range reg.waiting {
		if room.Level() != level || room.allowRobot {
			continue
		}
		return room
	}
	return reg.newRoomLocked(level, allowRobot)
}

func (reg *Registry) newRoomLocked(level int, allowRobot bool) *Room {
	reg.totalRooms++
	if reg.totalRooms > maxRoomID {
		reg.totalRooms = 1
	}
	room := NewRoom(reg.totalRooms, level, allowRobot, reg)
	reg.waiting[room.ID()] = room
	room.Start()
	registryLogger.Info().Uint32(logging.RoomIDKey, room.ID()).Msg("room created")
	return room
}

// onRoomChanged moves the room between the waiting and playing sets after
// occupancy changed. Empty rooms are closed. Called from room goroutines.
func (reg *Registry) onRoomChanged(room *Room) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	switch {
	case room.isFull():
		delete(reg.waiting, room.ID())
		reg.playing[room.ID()] = room
		registryLogger.Info().Uint32(logging.RoomIDKey, room.ID()).Msg("room full")
	case room.isEmpty():
		delete(reg.waiting, room.ID())
		delete(reg.playing, room.ID())
		room.stop()
		registryLogger.Info().Uint32(logging.RoomIDKey, room.ID()).Msg("room closed")
	default:
		delete(reg.playing, room.ID())
		reg.waiting[room.ID()] = room
	}
}

// releasePlayer fully detaches a player from room play. Robots cease to
// exist; humans fall back to the lobby.
func (reg *Registry) releasePlayer(p *Player) {
	reg.mu.Lock()
	delete(reg.playerRoom, p.UID)
	if p.Robot {
		delete(reg.players, p.UID)
	}
	reg.mu.Unlock()

	p.seat = -1
	p.state = StateInit
	p.room = nil
	p.ready = 0
	p.rob = -1
	p.landlord = 0
	p.hand = nil
}

// RoomList summarizes player counts per level for the lobby. A playing room
// always holds three seated players; waiting rooms are still filling and do
// not count toward the published numbers.
func (reg *Registry) RoomList() []RoomCount {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	counts := map[int]int{1: 0, 2: 0, 3: 0}
	for _, room := range reg.playing {
		counts[room.Level()] += 3
	}
	out := make([]RoomCount, 0, len(counts))
	for _, level := range []int{1, 2, 3} {
		out = append(out, RoomCount{Level: level, Number: counts[level]})
	}
	return out
}

// spawnRobot seats one robot in the room. Called from the room goroutine.
func (reg *Registry) spawnRobot(room *Room, nth int) {
	reg.mu.Lock()
	reg.robotSeq++
	uid := robotUIDBase + reg.robotSeq
	robot := newRobot(uid, reg)
	p := NewPlayer(uid, robotName(nth), robot)
	p.Robot = true
	reg.players[uid] = p
	reg.playerRoom[uid] = room
	reg.mu.Unlock()

	registryLogger.Info().
		Uint32(logging.RoomIDKey, room.ID()).
		Uint64(logging.PlayerIDKey, uid).
		Msg("robot spawned")
	room.SubmitJoin(p)
}

// recordRound persists the settled round off the room goroutine.
func (reg *Registry) recordRound(rec *RoundRecord) {
	if reg.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := reg.store.SaveRound(ctx, rec); err != nil {
			registryLogger.Error().
				Err(err).
				Uint32(logging.RoomIDKey, rec.RoomID).
				Msg("could not persist round")
		}
	}()
}
