package nats

import (
	"fmt"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"doudizhu-game/game"
	"doudizhu-game/logging"
)

var natsLogger = log.With().Str("logger_name", "nats::player").Logger()

const (
	reqSubjectWildcard = "doudizhu.player.*.req"
	msgSubjectFormat   = "doudizhu.player.%d.msg"
)

// PlayerGateway bridges NATS-connected clients to the game manager.
//
// Subjects:
//   doudizhu.player.<uid>.req  requests from the player
//   doudizhu.player.<uid>.msg  pushes to the player
type PlayerGateway struct {
	nc      *natsgo.Conn
	manager *game.Manager
	sub     *natsgo.Subscription
}

func NewPlayerGateway(url string, manager *game.Manager) (*PlayerGateway, error) {
	nc, err := natsgo.Connect(url)
	if err != nil {
		natsLogger.Error().Msgf("Failed to connect to nats server: %v", err)
		return nil, err
	}
	g := &PlayerGateway{
		nc:      nc,
		manager: manager,
	}
	g.sub, err = nc.Subscribe(reqSubjectWildcard, g.onRequest)
	if err != nil {
		natsLogger.Error().Msgf("Failed to subscribe to %s", reqSubjectWildcard)
		nc.Close()
		return nil, err
	}
	natsLogger.Info().Msgf("Listening on %s", reqSubjectWildcard)
	return g, nil
}

func (g *PlayerGateway) Close() {
	if g.sub != nil {
		_ = g.sub.Unsubscribe()
	}
	g.nc.Close()
}

func (g *PlayerGateway) onRequest(natsMsg *natsgo.Msg) {
	uid, err := uidFromSubject(natsMsg.Subject)
	if err != nil {
		natsLogger.Error().Msgf("Bad subject %s: %v", natsMsg.Subject, err)
		return
	}
	g.handleRequest(uid, natsMsg.Data, g.sinkFor())
}

// handleRequest decodes one request and dispatches it. Malformed payloads
// are answered with an error push on the player's subject.
func (g *PlayerGateway) handleRequest(uid uint64, data []byte, sink game.MessageSink) {
	var msg game.Message
	if err := jsoniter.Unmarshal(data, &msg); err != nil {
		natsLogger.Error().
			Uint64(logging.PlayerIDKey, uid).
			Msgf("Could not decode request: %v", err)
		sink.HandlePlayerMessage(uid, game.ErrorMessage("Protocol cannot be resolved."))
		return
	}
	msg.PlayerID = uid

	name := msg.Name
	if name == "" {
		name = fmt.Sprintf("player-%d", uid)
	}
	g.manager.RegisterPlayer(uid, name, false, sink)
	g.manager.Dispatch(&msg)
}

func (g *PlayerGateway) sinkFor() game.MessageSink {
	return &natsSink{nc: g.nc}
}

// natsSink publishes pushes to the player's subject.
type natsSink struct {
	nc *natsgo.Conn
}

func (s *natsSink) HandlePlayerMessage(playerID uint64, msg *game.OutMessage) {
	data, err := jsoniter.Marshal(msg)
	if err != nil {
		natsLogger.Error().
			Uint64(logging.PlayerIDKey, playerID).
			Str(logging.MsgTypeKey, msg.Type).
			Msgf("Could not encode message: %v", err)
		return
	}
	subject := fmt.Sprintf(msgSubjectFormat, playerID)
	if err := s.nc.Publish(subject, data); err != nil {
		natsLogger.Error().
			Uint64(logging.PlayerIDKey, playerID).
			Msgf("Could not publish to %s: %v", subject, err)
	}
}

func uidFromSubject(subject string) (uint64, error) {
	parts := strings.Split(subject, ".")
	if len(parts) != 4 {
		return 0, fmt.Errorf("expected 4 tokens, got %d", len(parts))
	}
	return strconv.ParseUint(parts[2], 10, 64)
}
