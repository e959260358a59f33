package game

import (
	"doudizhu-game/poker"
)

// Request message types accepted from clients.
const (
	MsgReqRoomList  = "REQ_ROOM_LIST"
	MsgReqJoinRoom  = "REQ_JOIN_ROOM"
	MsgReqLeaveRoom = "REQ_LEAVE_ROOM"
	MsgReqReady     = "REQ_READY"
	MsgReqCallScore = "REQ_CALL_SCORE"
	MsgReqShotPoker = "REQ_SHOT_POKER"
	MsgReqChat      = "REQ_CHAT"
)

// Response message types pushed to clients.
const (
	MsgRspRoomList  = "RSP_ROOM_LIST"
	MsgRspJoinRoom  = "RSP_JOIN_ROOM"
	MsgRspLeaveRoom = "RSP_LEAVE_ROOM"
	MsgRspReady     = "RSP_READY"
	MsgRspDealPoker = "RSP_DEAL_POKER"
	MsgRspCallScore = "RSP_CALL_SCORE"
	MsgRspShotPoker = "RSP_SHOT_POKER"
	MsgRspGameOver  = "RSP_GAME_OVER"
	MsgRspChat      = "RSP_CHAT"
	MsgError        = "ERROR"
)

// Message is a client request after transport decoding. The transport fills
// PlayerID from the authenticated session; clients never choose it.
type Message struct {
	Type     string       `json:"type"`
	PlayerID uint64       `json:"-"`
	Name     string       `json:"name"`
	RoomID   int          `json:"room"`
	Level    int          `json:"level"`
	Ready    int          `json:"ready"`
	Rob      int          `json:"rob"`
	Pokers   []poker.Card `json:"pokers"`
	Text     string       `json:"text"`
}

// OutMessage is a server push. Data is one of the payload structs below.
type OutMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// MessageSink delivers pushes to one player. Implementations are the
// websocket session, the NATS publisher and the robot loopback. Calls happen
// on the room goroutine and must not block.
type MessageSink interface {
	HandlePlayerMessage(playerID uint64, msg *OutMessage)
}

type ErrorData struct {
	Reason string `json:"reason"`
}

type RoomCount struct {
	Level  int `json:"level"`
	Number int `json:"number"`
}

type RoomListData struct {
	Rooms []RoomCount `json:"rooms"`
}

// PlayerData mirrors one seat in a room sync. Pokers are zeroed for
// everyone but the receiving player.
type PlayerData struct {
	UID      uint64       `json:"uid"`
	Name     string       `json:"name"`
	Icon     string       `json:"icon"`
	Ready    int          `json:"ready"`
	Rob      int          `json:"rob"`
	Leave    int          `json:"leave"`
	Landlord int          `json:"landlord"`
	Pokers   []poker.Card `json:"pokers"`
}

type RoomData struct {
	ID            uint32       `json:"id"`
	Base          int          `json:"base"`
	Multiple      int          `json:"multiple"`
	State         int          `json:"state"`
	LandlordUID   int64        `json:"landlord_uid"`
	WhoseTurn     int64        `json:"whose_turn"`
	Timer         int          `json:"timer"`
	LastShotUID   int64        `json:"last_shot_uid"`
	LastShotPoker []poker.Card `json:"last_shot_poker"`
}

type JoinRoomData struct {
	Room    RoomData     `json:"room"`
	Players []PlayerData `json:"players"`
}

type LeaveRoomData struct {
	UID uint64 `json:"uid"`
}

type ReadyData struct {
	UID   uint64 `json:"uid"`
	Ready int    `json:"ready"`
}

type DealPokerData struct {
	UID    uint64       `json:"uid"`
	Timer  int          `json:"timer"`
	Pokers []poker.Card `json:"pokers"`
}

// CallScoreData is broadcast after each rob answer. Landlord is -1 until
// bidding resolves; once it does, Pokers carries the exposed kitty.
type CallScoreData struct {
	UID       uint64       `json:"uid"`
	Rob       int          `json:"rob"`
	Landlord  int64        `json:"landlord"`
	WhoseTurn int64        `json:"whose_turn"`
	Multiple  int          `json:"multiple"`
	Pokers    []poker.Card `json:"pokers"`
}

type ShotPokerData struct {
	UID       uint64       `json:"uid"`
	WhoseTurn int64        `json:"whose_turn"`
	Pokers    []poker.Card `json:"pokers"`
	Multiple  int          `json:"multiple"`
}

type GameOverPlayer struct {
	UID    uint64       `json:"uid"`
	Point  int          `json:"point"`
	Pokers []poker.Card `json:"pokers"`
}

type GameOverData struct {
	Winner     uint64           `json:"winner"`
	Spring     int              `json:"spring"`
	AntiSpring int              `json:"antispring"`
	Multiple   int              `json:"multiple"`
	Players    []GameOverPlayer `json:"players"`
}

type ChatData struct {
	UID  uint64 `json:"uid"`
	Text string `json:"text"`
}

// ErrorMessage wraps a rejection reason for delivery to the offender only.
func ErrorMessage(reason string) *OutMessage {
	return &OutMessage{Type: MsgError, Data: ErrorData{Reason: reason}}
}
