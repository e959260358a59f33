package game

import (
	"time"

	"github.com/rs/zerolog/log"

	"doudizhu-game/logging"
	"doudizhu-game/poker"
	"doudizhu-game/rules"
)

var roomLogger = log.With().Str("logger_name", "game::room").Logger()

const (
	turnTimeout = 20 * time.Second
	// players flagged as gone get a short clock so the round keeps moving
	leftTimeout = 5 * time.Second

	timerTick = 200 * time.Millisecond
)

type roomEvent struct {
	playerID uint64
	msg      *Message
}

type timerMsg struct {
	seq      uint64
	seat     int
	expireAt time.Time
}

// Room runs one table. All game state below the channel block is owned by
// the runRoom goroutine; nothing else reads or writes it. Transports talk to
// the room only through Submit* methods.
type Room struct {
	roomID     uint32
	level      int
	base       int
	allowRobot bool

	registry *Registry
	engine   *rules.Engine
	strategy rules.Strategy
	newDeck  func() *poker.Deck

	players       [3]*Player
	kitty         []poker.Card
	multiple      int
	bombMultiple  int
	timer         int
	whoseTurn     int
	landlordSeat  int
	lastShotSeat  int
	lastShotPoker []poker.Card
	shotRound     [][]poker.Card
	roundNum      int
	timerSeq      uint64

	chRoom         chan roomEvent
	chJoin         chan *Player
	chDisconnect   chan uint64
	chAddRobot     chan int
	chResetTimer   chan timerMsg
	chPauseTimer   chan bool
	chPlayTimedOut chan timerMsg
	end            chan bool
}

func NewRoom(roomID uint32, level int, allowRobot bool, registry *Registry) *Room {
	r := &Room{
		roomID:       roomID,
		level:        level,
		base:         level * 10,
		allowRobot:   allowRobot,
		registry:     registry,
		engine:       registry.engine,
		strategy:     registry.strategy,
		newDeck:      poker.NewDeck,
		multiple:     1,
		bombMultiple: 2,
		timer:        int(turnTimeout / time.Second),

		chRoom:         make(chan roomEvent, 16),
		chJoin:         make(chan *Player, 3),
		chDisconnect:   make(chan uint64, 3),
		chAddRobot:     make(chan int, 2),
		chResetTimer:   make(chan timerMsg, 4),
		chPauseTimer:   make(chan bool, 4),
		chPlayTimedOut: make(chan timerMsg, 1),
		end:            make(chan bool),
	}
	return r
}

func (r *Room) ID() uint32 { return r.roomID }
func (r *Room) Level() int { return r.level }

// Start launches the room goroutines. Stop is idempotent through the
// registry closing the room exactly once.
func (r *Room) Start() {
	go r.runRoom()
	go r.timerLoop()
}

func (r *Room) stop() {
	close(r.end)
}

// SubmitMessage hands a client request to the room goroutine.
func (r *Room) SubmitMessage(playerID uint64, msg *Message) {
	select {
	case r.chRoom <- roomEvent{playerID: playerID, msg: msg}:
	case <-r.end:
	}
}

// SubmitJoin asks the room to seat the player.
func (r *Room) SubmitJoin(p *Player) {
	select {
	case r.chJoin <- p:
	case <-r.end:
		p.send(ErrorMessage("Room closed"))
	}
}

// SubmitDisconnect reports a dropped transport for the player.
func (r *Room) SubmitDisconnect(playerID uint64) {
	select {
	case r.chDisconnect <- playerID:
	case <-r.end:
	}
}

func (r *Room) submitAddRobot(nth int) {
	select {
	case r.chAddRobot <- nth:
	case <-r.end:
	}
}

func (r *Room) runRoom() {
	roomLogger.Info().Uint32(logging.RoomIDKey, r.roomID).Msg("room started")
	for {
		select {
		case <-r.end:
			roomLogger.Info().Uint32(logging.RoomIDKey, r.roomID).Msg("room stopped")
			return
		case p := <-r.chJoin:
			r.handleJoin(p)
		case uid := <-r.chDisconnect:
			r.handleDisconnect(uid)
		case nth := <-r.chAddRobot:
			r.handleAddRobot(nth)
		case ev := <-r.chRoom:
			r.handleEvent(ev)
		case t := <-r.chPlayTimedOut:
			r.handlePlayTimedOut(t)
		}
	}
}

// timerLoop drives the turn clock. It only ever reports expiry back into the
// room goroutine; all consequences happen there.
func (r *Room) timerLoop() {
	var current timerMsg
	paused := true
	for {
		select {
		case <-r.end:
			return
		case <-r.chPauseTimer:
			paused = true
		case msg := <-r.chResetTimer:
			current = msg
			paused = false
		default:
			if !paused && time.Now().After(current.expireAt) {
				paused = true
				select {
				case r.chPlayTimedOut <- current:
				case <-r.end:
					return
				}
			}
			time.Sleep(timerTick)
		}
	}
}

// armTurnTimer (re)starts the clock for the current turn player.
func (r *Room) armTurnTimer() {
	p := r.players[r.whoseTurn]
	if p == nil || (p.state != StateCallScore && p.state != StatePlaying) {
		r.pauseTimer()
		return
	}
	d := turnTimeout
	if p.leave == 1 {
		d = leftTimeout
	}
	r.timer = int(d / time.Second)
	r.timerSeq++
	select {
	case r.chResetTimer <- timerMsg{seq: r.timerSeq, seat: r.whoseTurn, expireAt: time.Now().Add(d)}:
	case <-r.end:
	}
}

func (r *Room) pauseTimer() {
	r.timerSeq++
	select {
	case r.chPauseTimer <- true:
	case <-r.end:
	}
}

func (r *Room) handleEvent(ev roomEvent) {
	p := r.findPlayer(ev.playerID)
	if p == nil {
		roomLogger.Warn().
			Uint32(logging.RoomIDKey, r.roomID).
			Uint64(logging.PlayerIDKey, ev.playerID).
			Str(logging.MsgTypeKey, ev.msg.Type).
			Msg("message from unseated player")
		return
	}
	p.handleMessage(ev.msg)
}

// handlePlayTimedOut forces an action for the stalled turn player: a decline
// during bidding, a strategy play during the trick phase.
func (r *Room) handlePlayTimedOut(t timerMsg) {
	if t.seq != r.timerSeq || t.seat != r.whoseTurn {
		return
	}
	p := r.players[r.whoseTurn]
	if p == nil {
		return
	}
	roomLogger.Info().
		Uint32(logging.RoomIDKey, r.roomID).
		Uint64(logging.PlayerIDKey, p.UID).
		Int(logging.SeatNumKey, p.seat).
		Msg("turn timed out, acting for player")

	switch p.state {
	case StateCallScore:
		p.applyCallScore(0)
	case StatePlaying:
		var cards []poker.Card
		if len(r.lastShotPoker) == 0 || r.lastShotSeat == p.seat {
			cards = r.strategy.FindBestShot(p.hand)
		} else {
			cards = r.strategy.FindBestFollow(p.hand, r.lastShotPoker, r.sameSide(r.lastShotSeat, p.seat))
		}
		p.applyShotPoker(cards)
	}
}

func (r *Room) handleJoin(p *Player) {
	seat := -1
	for i, seated := range r.players {
		if seated == nil {
			seat = i
			break
		}
	}
	if seat == -1 {
		p.send(ErrorMessage("Room FULL"))
		r.registry.releasePlayer(p)
		return
	}

	p.seat = seat
	p.room = r
	p.state = StateWaiting
	p.leave = 0
	r.players[seat] = p
	roomLogger.Info().
		Uint32(logging.RoomIDKey, r.roomID).
		Uint64(logging.PlayerIDKey, p.UID).
		Int(logging.SeatNumKey, seat).
		Msg("player joined")

	r.syncRoom()
	if r.isFull() {
		r.registry.onRoomChanged(r)
	} else if r.allowRobot && !p.Robot {
		time.AfterFunc(100*time.Millisecond, func() { r.submitAddRobot(1) })
	}
}

func (r *Room) handleAddRobot(nth int) {
	size := r.size()
	if size == 0 || size == 3 {
		return
	}
	// never two humans plus one robot
	if size == 2 && nth == 1 {
		return
	}
	r.registry.spawnRobot(r, nth)
	if nth == 1 {
		time.AfterFunc(time.Second, func() { r.submitAddRobot(2) })
	}
}

func (r *Room) handleDisconnect(playerID uint64) {
	if p := r.findPlayer(playerID); p != nil {
		p.onDisconnect()
	}
}

// onLeave unseats the player. Robots are dismissed together with the human
// who kept them company.
func (r *Room) onLeave(target *Player) {
	for i, p := range r.players {
		if p == nil {
			continue
		}
		if p == target || p.Robot {
			r.players[i] = nil
			r.registry.releasePlayer(p)
		}
	}
	r.broadcast(&OutMessage{Type: MsgRspLeaveRoom, Data: LeaveRoomData{UID: target.UID}})
	r.registry.onRoomChanged(r)
}

func (r *Room) dealPoker() {
	hands, kitty := r.newDeck().Shuffle().Deal()
	for i := 0; i < 3; i++ {
		r.players[i].pushPokers(hands[i])
	}
	r.kitty = kitty

	r.whoseTurn = r.landlordSeat
	for _, p := range r.seatedPlayers() {
		p.send(&OutMessage{Type: MsgRspDealPoker, Data: DealPokerData{
			UID:    r.turnPlayer().UID,
			Timer:  r.timer,
			Pokers: p.Hand(),
		}})
	}
	roomLogger.Info().
		Uint32(logging.RoomIDKey, r.roomID).
		Int(logging.RoundNumKey, r.roundNum).
		Int(logging.SeatNumKey, r.landlordSeat).
		Msg("cards dealt")
	r.armTurnTimer()
}

// onShot validates and applies one play. An empty reason means the play
// stood; anything else is reported to the player and nothing changed.
func (r *Room) onShot(seat int, pokers []poker.Card) string {
	if len(pokers) > 0 {
		name, _ := r.engine.ClassifyCards(pokers)
		if name == "" {
			return "Poker does not comply with the rules"
		}
		if seat != r.lastShotSeat && r.engine.Compare(poker.ToRanks(pokers), poker.ToRanks(r.lastShotPoker)) <= 0 {
			return "Poker small than last shot"
		}
		if name == rules.TypeBomb || name == rules.TypeRocket {
			r.multiple *= r.bombMultiple
		}
		r.lastShotSeat = seat
		r.lastShotPoker = pokers
	} else {
		if seat == r.lastShotSeat {
			return "Last shot player does not allow pass"
		}
	}
	r.shotRound = append(r.shotRound, pokers)
	return ""
}

func (r *Room) onGameOver(winner *Player) {
	r.pauseTimer()
	spring := r.isSpring(winner)
	antiSpring := r.isAntiSpring(winner)
	if spring || antiSpring {
		r.multiple *= 3
	}

	point := r.base * r.multiple
	data := GameOverData{
		Winner:     winner.UID,
		Spring:     boolToInt(spring),
		AntiSpring: boolToInt(antiSpring),
		Multiple:   r.multiple,
	}
	landlordWon := winner.Landlord()
	for _, p := range r.seatedPlayers() {
		score := point
		if p.Landlord() {
			score = 2 * point
		}
		if p.Landlord() != landlordWon {
			score = -score
		}
		data.Players = append(data.Players, GameOverPlayer{
			UID:    p.UID,
			Point:  score,
			Pokers: p.Hand(),
		})
	}
	r.broadcast(&OutMessage{Type: MsgRspGameOver, Data: data})
	roomLogger.Info().
		Uint32(logging.RoomIDKey, r.roomID).
		Int(logging.RoundNumKey, r.roundNum).
		Uint64(logging.PlayerIDKey, winner.UID).
		Int("multiple", r.multiple).
		Msg("game over")

	r.registry.recordRound(r.roundRecord(winner, &data))
	r.restart()
}

func (r *Room) roundRecord(winner *Player, data *GameOverData) *RoundRecord {
	rec := &RoundRecord{
		RoomID:     r.roomID,
		RoundNum:   r.roundNum,
		WinnerUID:  winner.UID,
		Multiple:   r.multiple,
		Spring:     data.Spring == 1,
		AntiSpring: data.AntiSpring == 1,
		EndedAt:    time.Now(),
	}
	if landlord := r.landlord(); landlord != nil {
		rec.LandlordUID = landlord.UID
	}
	for _, p := range data.Players {
		rec.Points = append(rec.Points, PlayerPoint{UID: p.UID, Point: p.Point})
	}
	return rec
}

func (r *Room) restart() {
	r.roundNum++
	r.multiple = 1
	r.bombMultiple = 2
	r.kitty = nil
	r.timer = int(turnTimeout / time.Second)
	r.whoseTurn = 0
	r.landlordSeat = (r.landlordSeat + 1) % 3
	r.lastShotSeat = 0
	r.lastShotPoker = nil
	r.shotRound = nil

	for i, p := range r.players {
		if p == nil {
			continue
		}
		if p.leave == 0 {
			p.restart()
		} else {
			r.players[i] = nil
			r.registry.releasePlayer(p)
		}
	}
	// robots have no table without a human; dismiss them so the room closes
	if !r.hasHuman() {
		for i, p := range r.players {
			if p != nil {
				r.players[i] = nil
				r.registry.releasePlayer(p)
			}
		}
	}
	r.registry.onRoomChanged(r)
}

// isSpring reports a landlord win where neither farmer ever shed a card.
func (r *Room) isSpring(winner *Player) bool {
	if !winner.Landlord() {
		return false
	}
	for i, shot := range r.shotRound {
		if i%3 == 0 {
			continue
		}
		if len(shot) > 0 {
			return false
		}
	}
	return true
}

// isAntiSpring reports a farmer win where the landlord only got the opening
// play out.
func (r *Room) isAntiSpring(winner *Player) bool {
	if winner.Landlord() {
		return false
	}
	for i, shot := range r.shotRound {
		if i == 0 {
			continue
		}
		if i%3 == 0 && len(shot) > 0 {
			return false
		}
	}
	return true
}

// isRobEnd advances the bidding and reports whether it resolved. On
// resolution the landlord is seated at the current turn and takes the kitty.
func (r *Room) isRobEnd() bool {
	if !r.robFinished() {
		r.goNextTurn()
		return false
	}

	for i := 0; i < 3; i++ {
		if r.turnPlayer().rob == 1 || i == 2 {
			p := r.turnPlayer()
			p.landlord = 1
			p.pushPokers(r.kitty)
			r.lastShotSeat = r.whoseTurn
			r.reMultiple()
			return true
		}
		r.goPrevTurn()
	}
	return true
}

// robFinished decides whether another answer is still owed. Everyone gets
// one answer; the opening bidder gets a second if somebody robbed after
// declining was still possible.
func (r *Room) robFinished() bool {
	if r.nextPlayer().rob == -1 {
		return false
	}
	if r.nextPlayer().seat == r.landlordSeat {
		if r.nextPlayer().rob == 0 {
			return true
		}
		if r.turnPlayer().rob == 0 {
			return r.prevPlayer().rob == 0
		}
		return false
	}
	return true
}

// reMultiple applies kitty bonuses once the landlord picks it up.
func (r *Room) reMultiple() {
	if n := poker.CountJokers(r.kitty); n > 0 {
		r.multiple = r.multiple * 2 * n
		return
	}
	if poker.IsSameSuit(r.kitty) {
		r.multiple *= 2
		r.bombMultiple = 4
		return
	}
	if poker.IsShortSeq(r.kitty) {
		r.multiple *= 2
	}
}

func (r *Room) broadcastCallScore(p *Player, robEnd bool) {
	data := CallScoreData{
		UID:       p.UID,
		Rob:       p.rob,
		Landlord:  -1,
		WhoseTurn: r.seatToUID(r.whoseTurn),
		Multiple:  r.multiple,
	}
	if robEnd {
		data.Landlord = r.seatToUID(r.whoseTurn)
		data.Pokers = r.kitty
	}
	r.broadcast(&OutMessage{Type: MsgRspCallScore, Data: data})
}

func (r *Room) broadcastShotPoker(p *Player, pokers []poker.Card) {
	r.broadcast(&OutMessage{Type: MsgRspShotPoker, Data: ShotPokerData{
		UID:       p.UID,
		WhoseTurn: r.seatToUID(r.whoseTurn),
		Pokers:    pokers,
		Multiple:  r.multiple,
	}})
}

func (r *Room) broadcast(msg *OutMessage) {
	for _, p := range r.players {
		if p != nil && p.leave == 0 {
			p.send(msg)
		}
	}
}

func (r *Room) syncRoom() {
	for _, p := range r.players {
		if p == nil || p.leave == 1 {
			continue
		}
		players := make([]PlayerData, 0, 3)
		for _, other := range r.players {
			if other == nil {
				players = append(players, PlayerData{})
				continue
			}
			players = append(players, other.syncData(other == p))
		}
		p.send(&OutMessage{Type: MsgRspJoinRoom, Data: JoinRoomData{
			Room:    r.syncData(),
			Players: players,
		}})
	}
}

func (r *Room) syncData() RoomData {
	state := StateInit
	if r.players[0] != nil {
		state = r.players[0].state
	}
	return RoomData{
		ID:            r.roomID,
		Base:          r.base,
		Multiple:      r.multiple,
		State:         int(state),
		LandlordUID:   r.landlordUID(),
		WhoseTurn:     r.seatToUID(r.whoseTurn),
		Timer:         r.timer,
		LastShotUID:   r.seatToUID(r.lastShotSeat),
		LastShotPoker: r.lastShotPoker,
	}
}

func (r *Room) goNextTurn() {
	r.whoseTurn = (r.whoseTurn + 1) % 3
}

func (r *Room) goPrevTurn() {
	r.whoseTurn = (r.whoseTurn + 2) % 3
}

func (r *Room) turnPlayer() *Player { return r.players[r.whoseTurn] }
func (r *Room) nextPlayer() *Player { return r.players[(r.whoseTurn+1)%3] }
func (r *Room) prevPlayer() *Player { return r.players[(r.whoseTurn+2)%3] }

func (r *Room) isTurn(p *Player) bool {
	return r.whoseTurn == p.seat
}

func (r *Room) sameSide(seatA, seatB int) bool {
	a, b := r.players[seatA], r.players[seatB]
	return a != nil && b != nil && a.Landlord() == b.Landlord()
}

func (r *Room) landlord() *Player {
	for _, p := range r.players {
		if p != nil && p.Landlord() {
			return p
		}
	}
	return nil
}

func (r *Room) landlordUID() int64 {
	if p := r.landlord(); p != nil {
		return int64(p.UID)
	}
	return -1
}

func (r *Room) seatToUID(seat int) int64 {
	if p := r.players[seat]; p != nil {
		return int64(p.UID)
	}
	return -1
}

func (r *Room) findPlayer(playerID uint64) *Player {
	for _, p := range r.players {
		if p != nil && p.UID == playerID {
			return p
		}
	}
	return nil
}

func (r *Room) seatedPlayers() []*Player {
	out := make([]*Player, 0, 3)
	for _, p := range r.players {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (r *Room) isReady() bool {
	if !r.isFull() {
		return false
	}
	for _, p := range r.players {
		if p.ready == 0 {
			return false
		}
	}
	return true
}

func (r *Room) isFull() bool  { return r.size() == 3 }
func (r *Room) isEmpty() bool { return r.size() == 0 }

func (r *Room) hasHuman() bool {
	for _, p := range r.players {
		if p != nil && !p.Robot {
			return true
		}
	}
	return false
}

func (r *Room) size() int {
	n := 0
	for _, p := range r.players {
		if p != nil {
			n++
		}
	}
	return n
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
