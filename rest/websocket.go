package rest

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"

	"doudizhu-game/game"
	"doudizhu-game/logging"
)

var wsLogger = log.With().Str("logger_name", "rest::websocket").Logger()

// anonymous sessions get identities from here, below the robot range
const guestUIDBase = 500_000_000

var guestSeq uint64

const sessionSendBuffer = 32

// session is one websocket client. It implements game.MessageSink; pushes
// are queued to a writer goroutine so the room goroutine never blocks on a
// slow client.
type session struct {
	id     string
	uid    uint64
	conn   *websocket.Conn
	chSend chan []byte
	done   chan struct{}
}

func serveWS(c *gin.Context) {
	uid, _ := strconv.ParseUint(c.Query("uid"), 10, 64)
	if uid == 0 {
		uid = guestUIDBase + atomic.AddUint64(&guestSeq, 1)
	}
	name := c.Query("name")
	if name == "" {
		name = fmt.Sprintf("player-%d", uid)
	}
	allowRobot := c.Query("robot") != "0"

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		wsLogger.Error().Msgf("Websocket accept failed: %v", err)
		return
	}

	s := &session{
		id:     uuid.New().String(),
		uid:    uid,
		conn:   conn,
		chSend: make(chan []byte, sessionSendBuffer),
		done:   make(chan struct{}),
	}
	wsLogger.Info().
		Str("session", s.id).
		Uint64(logging.PlayerIDKey, uid).
		Str(logging.PlayerNameKey, name).
		Msg("session opened")

	gameManager.RegisterPlayer(uid, name, allowRobot, s)
	go s.writeLoop()
	s.readLoop()
}

func (s *session) HandlePlayerMessage(playerID uint64, msg *game.OutMessage) {
	data, err := jsoniter.Marshal(msg)
	if err != nil {
		wsLogger.Error().
			Str("session", s.id).
			Str(logging.MsgTypeKey, msg.Type).
			Msgf("Could not encode message: %v", err)
		return
	}
	select {
	case s.chSend <- data:
	case <-s.done:
	default:
		wsLogger.Warn().
			Str("session", s.id).
			Str(logging.MsgTypeKey, msg.Type).
			Msg("send buffer full, dropping message")
	}
}

func (s *session) readLoop() {
	ctx := context.Background()
	defer s.close()
	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			wsLogger.Info().
				Str("session", s.id).
				Uint64(logging.PlayerIDKey, s.uid).
				Msgf("session closed: %v", err)
			return
		}
		s.handleFrame(data)
	}
}

// handleFrame decodes one inbound frame and dispatches it. Malformed frames
// are answered with an error push to this session only.
func (s *session) handleFrame(data []byte) {
	var msg game.Message
	if err := jsoniter.Unmarshal(data, &msg); err != nil {
		wsLogger.Warn().
			Str("session", s.id).
			Msgf("Could not decode request: %v", err)
		s.HandlePlayerMessage(s.uid, game.ErrorMessage("Protocol cannot be resolved."))
		return
	}
	msg.PlayerID = s.uid
	gameManager.Dispatch(&msg)
}

func (s *session) writeLoop() {
	ctx := context.Background()
	for {
		select {
		case data := <-s.chSend:
			if err := s.conn.Write(ctx, websocket.MessageText, data); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *session) close() {
	close(s.done)
	_ = s.conn.Close(websocket.StatusNormalClosure, "")
	gameManager.Disconnect(s.uid)
}
