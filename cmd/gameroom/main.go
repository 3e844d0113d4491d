package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/anchal00/gameroom/internal/config"
	"github.com/anchal00/gameroom/internal/db"
	"github.com/anchal00/gameroom/internal/dictionary"
	"github.com/anchal00/gameroom/internal/game"
	"github.com/anchal00/gameroom/internal/game/aim"
	"github.com/anchal00/gameroom/internal/game/liar"
	"github.com/anchal00/gameroom/internal/game/omok"
	"github.com/anchal00/gameroom/internal/game/reaction"
	"github.com/anchal00/gameroom/internal/game/twentyq"
	"github.com/anchal00/gameroom/internal/game/wordchain"
	"github.com/anchal00/gameroom/internal/hub"
	"github.com/anchal00/gameroom/internal/logger"
	"github.com/anchal00/gameroom/internal/orchestrator"
	"github.com/anchal00/gameroom/internal/room"
	"github.com/anchal00/gameroom/internal/scheduler"
	"github.com/anchal00/gameroom/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return err
	}
	log := logger.New("gameroom")

	store, err := db.SetupDB(cfg.Database, logger.New("db"))
	if err != nil {
		return err
	}
	defer store.CloseConnection()

	sched := scheduler.New(cfg.TimerWorkers, 256, logger.New("scheduler"))
	defer sched.Close()

	h := hub.New(logger.New("hub"))
	rooms := room.NewRegistry(h, cfg.MaxRoomPlayers, logger.New("rooms"))
	env := game.NewEnv(rooms, h, sched, logger.New("game"))

	// Without a key only the curated list is consulted.
	var remote dictionary.Lookup
	if cfg.DictionaryKey != "" {
		remote = dictionary.NewHTTPLookup(cfg.DictionaryURL, cfg.DictionaryKey, &http.Client{Timeout: cfg.DictionaryTimeout})
	} else {
		log.Warn("GAMEROOM_DICT_KEY not set, word chain accepts curated words only")
	}
	static := dictionary.DefaultStaticList()
	dict := dictionary.NewValidator(static, remote, dictionary.Options{
		CacheSize: cfg.DictionaryCache,
		CacheTTL:  cfg.DictionaryCacheTTL,
		Timeout:   cfg.DictionaryTimeout,
	}, logger.New("dictionary"))

	games := orchestrator.Games{
		Aim:       aim.New(env, aim.DefaultConfig()),
		Omok:      omok.New(env, omok.DefaultConfig()),
		WordChain: wordchain.New(env, wordchain.DefaultConfig(), dict, static.Words()),
		TwentyQ:   twentyq.New(env),
		Liar:      liar.New(env, liar.DefaultConfig(), liar.DefaultBank()),
		Reaction:  reaction.New(env, reaction.DefaultConfig()),
	}
	orch := orchestrator.New(env, store, games, orchestrator.DefaultConfig(), logger.New("orchestrator"))

	gs := server.NewGameServer(server.Options{
		Port:              cfg.Port,
		CommandsPerSecond: cfg.CommandsPerSecond,
	}, store, orch, h, logger.New("server"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return gs.Run(ctx)
}
