package main

import (
	"flag"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"doudizhu-game/game"
	gamenats "doudizhu-game/nats"
	"doudizhu-game/rest"
	"doudizhu-game/util"
)

func main() {
	var configFile = flag.String("config", "", "path to a YAML config file")
	var logLevel = flag.String("log-level", "info", "log level")
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	cfg, err := util.LoadConfig(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("could not load configuration")
	}

	var store game.RoundStore
	switch cfg.Persist {
	case util.PersistRedis:
		store = game.NewRedisRoundStore(cfg.RedisAddr(), cfg.Redis.PW, cfg.Redis.DB)
	default:
		store = game.NewMemoryRoundStore()
	}

	manager, err := game.NewManager(store)
	if err != nil {
		log.Fatal().Err(err).Msg("could not build rule catalogue")
	}

	if cfg.Nats.Enabled {
		gateway, err := gamenats.NewPlayerGateway(cfg.Nats.URL, manager)
		if err != nil {
			log.Fatal().Err(err).Msg("could not start nats gateway")
		}
		defer gateway.Close()
	}

	if err := rest.RunRestServer(cfg.ListenAddr, manager); err != nil {
		log.Fatal().Err(err).Msg("rest server exited")
	}
}
