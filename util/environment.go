package util

import (
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

var environmentLogger = log.With().Str("logger_name", "util::environment").Logger()

type gameServerEnvironment struct {
	RedisHost     string
	RedisPort     string
	RedisPW       string
	RedisDB       string
	NatsURL       string
	ListenAddr    string
	PersistMethod string
}

// GameServerEnvironment is a helper object for accessing environment variables.
var GameServerEnvironment = &gameServerEnvironment{
	RedisHost:     "REDIS_HOST",
	RedisPort:     "REDIS_PORT",
	RedisPW:       "REDIS_PW",
	RedisDB:       "REDIS_DB",
	NatsURL:       "NATS_URL",
	ListenAddr:    "LISTEN_ADDR",
	PersistMethod: "PERSIST_METHOD",
}

func (g *gameServerEnvironment) GetRedisHost() string {
	return os.Getenv(g.RedisHost)
}

func (g *gameServerEnvironment) GetRedisPort() int {
	portStr := os.Getenv(g.RedisPort)
	if portStr == "" {
		return 0
	}
	portNum, err := strconv.Atoi(portStr)
	if err != nil {
		environmentLogger.Error().Msgf("Invalid Redis port %s", portStr)
		return 0
	}
	return portNum
}

func (g *gameServerEnvironment) GetRedisPW() string {
	return os.Getenv(g.RedisPW)
}

func (g *gameServerEnvironment) GetRedisDB() int {
	dbStr := os.Getenv(g.RedisDB)
	if dbStr == "" {
		return 0
	}
	dbNum, err := strconv.Atoi(dbStr)
	if err != nil {
		environmentLogger.Error().Msgf("Invalid Redis db %s", dbStr)
		return 0
	}
	return dbNum
}

func (g *gameServerEnvironment) GetNatsURL() string {
	return os.Getenv(g.NatsURL)
}

func (g *gameServerEnvironment) GetListenAddr() string {
	return os.Getenv(g.ListenAddr)
}

func (g *gameServerEnvironment) GetPersistMethod() string {
	return os.Getenv(g.PersistMethod)
}
