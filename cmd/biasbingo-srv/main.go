package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	_ "net/http/pprof"
	"os"
	"time"

	"github.com/bloops-games/biasbingo/internal/bingo"
	"github.com/bloops-games/biasbingo/internal/bingo/resource"
	"github.com/bloops-games/biasbingo/internal/buildinfo"
	"github.com/bloops-games/biasbingo/internal/database"
	stateDb "github.com/bloops-games/biasbingo/internal/database/gamestate/database"
	scoreDb "github.com/bloops-games/biasbingo/internal/database/score/database"
	"github.com/bloops-games/biasbingo/internal/leaderboard"
	"github.com/bloops-games/biasbingo/internal/logging"
	"github.com/bloops-games/biasbingo/internal/server"
	"github.com/bloops-games/biasbingo/internal/shutdown"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

func main() {
	_, _ = fmt.Fprint(os.Stdout, buildinfo.Graffiti)
	_, _ = fmt.Fprintf(os.Stdout, buildinfo.GreetingCLI, buildinfo.ProjectName, version, buildinfo.GithubURL)

	ctx, done := shutdown.New()
	defer done()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.DefaultLogger().Fatalf("loading .env: %v", err)
	}

	config := bingo.Config{}
	if err := envconfig.Process("", &config); err != nil {
		logging.DefaultLogger().Fatalf("processing the config: %v", err)
	}

	logger := logging.NewLogger(config.Debug)
	ctx = logging.WithLogger(ctx, logger)

	if err := realMain(ctx, config); err != nil {
		logger.Fatalf("main.realMain: %v", err)
	}
}

func realMain(ctx context.Context, config bingo.Config) error {
	logger := logging.FromContext(ctx).Named("main.realMain")

	catalog, err := resource.LoadCatalog(config.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	db, err := database.NewFromEnv(ctx, &config.DB)
	if err != nil {
		return fmt.Errorf("new database from env: %w", err)
	}

	defer db.Close(ctx)

	board := leaderboard.New(scoreDb.New(db), leaderboard.Config{PollInterval: config.LeaderboardPoll})
	manager, err := bingo.NewManager(stateDb.New(db), board, bingo.ManagerConfig{
		CacheSize: config.CacheSize,
		Duration:  config.GameDuration,
		Catalog:   catalog,
	})
	if err != nil {
		return fmt.Errorf("bingo.NewManager: %w", err)
	}

	api, err := server.NewAPI(manager, board, server.Config{
		MaxUploadBytes: config.MaxUploadBytes,
		AllowedOrigins: config.AllowedOrigins,
	})
	if err != nil {
		return fmt.Errorf("server.NewAPI: %w", err)
	}

	srv, err := server.New(config.Port)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return manager.Run(ctx)
	})

	g.Go(func() error {
		return srv.ServeHTTP(ctx, &http.Server{
			Handler:           api.Routes(ctx),
			ReadHeaderTimeout: 10 * time.Second,
		})
	})

	if config.ProfPort != "" {
		prof, err := server.New(config.ProfPort)
		if err != nil {
			return fmt.Errorf("pprof server.New: %w", err)
		}

		g.Go(func() error {
			return prof.ServeHTTP(ctx, &http.Server{Handler: http.DefaultServeMux})
		})
	}

	logger.Infof("serving %s on port %s, game duration %s", resource.ProjectName, srv.Port(), config.GameDuration)

	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	return nil
}
