package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/bloops-games/biasbingo/internal/bingo/board"
	"github.com/bloops-games/biasbingo/internal/bingo/resource"
	"github.com/bloops-games/biasbingo/internal/buildinfo"
	"github.com/bloops-games/biasbingo/internal/database"
	stateDb "github.com/bloops-games/biasbingo/internal/database/gamestate/database"
	scoreDb "github.com/bloops-games/biasbingo/internal/database/score/database"
	scoreModel "github.com/bloops-games/biasbingo/internal/database/score/model"
	"github.com/bloops-games/biasbingo/internal/leaderboard"
	"github.com/bloops-games/biasbingo/internal/logging"
	"github.com/bloops-games/biasbingo/internal/util"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"
)

var version = "dev"

type rootFlags struct {
	dbPath string
	debug  bool
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Error: loading .env:", err)
		os.Exit(1)
	}

	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var flags rootFlags
	root := &cobra.Command{
		Use:     buildinfo.ProjectName + "-cli",
		Short:   "Inspect and maintain the bias bingo store",
		Version: version,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&flags.dbPath, "db", "", "bbolt file, overrides BINGO_DB_FILE_PATH")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "debug logging")

	root.AddCommand(newLeaderboardCmd(&flags), newSessionCmd(&flags))
	return root
}

// withDB opens the store for the duration of fn.
func withDB(cmd *cobra.Command, flags *rootFlags, fn func(ctx context.Context, db *database.DB) error) error {
	config := database.Config{}
	if err := envconfig.Process("", &config); err != nil {
		return fmt.Errorf("processing the config: %w", err)
	}
	if flags.dbPath != "" {
		config.FilePath = flags.dbPath
	}

	ctx := logging.WithLogger(cmd.Context(), logging.NewLogger(flags.debug))
	db, err := database.NewFromEnv(ctx, &config)
	if err != nil {
		return fmt.Errorf("open %s: %w", config.FilePath, err)
	}

	defer db.Close(ctx)

	return fn(ctx, db)
}

func newLeaderboardCmd(flags *rootFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the ranked leaderboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, flags, func(ctx context.Context, db *database.DB) error {
				list, err := scoreDb.New(db).FetchAll(ctx)
				if err != nil {
					return fmt.Errorf("fetch leaderboard: %w", err)
				}
				return printLeaderboard(cmd.OutOrStdout(), leaderboard.Rank(list), limit)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "show only the first N entries")

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Remove every leaderboard entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, flags, func(ctx context.Context, db *database.DB) error {
				if err := scoreDb.New(db).Clean(); err != nil {
					return fmt.Errorf("clean leaderboard: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "leaderboard cleared")
				return nil
			})
		},
	})

	return cmd
}

func newSessionCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect stored game sessions",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List stored session ids",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(cmd, flags, func(ctx context.Context, db *database.DB) error {
					ids, err := stateDb.New(db).FetchIDs()
					if err != nil {
						return fmt.Errorf("fetch session ids: %w", err)
					}
					for _, id := range ids {
						fmt.Fprintln(cmd.OutOrStdout(), id)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Print a stored session",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(cmd, flags, func(ctx context.Context, db *database.DB) error {
					return showSession(ctx, cmd.OutOrStdout(), stateDb.New(db), args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "reset <id>",
			Short: "Delete a stored session, the player starts over on the next visit",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(cmd, flags, func(ctx context.Context, db *database.DB) error {
					if err := stateDb.New(db).Delete(args[0]); err != nil {
						return fmt.Errorf("delete session: %w", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "session %s reset\n", args[0])
					return nil
				})
			},
		},
	)

	return cmd
}

func showSession(ctx context.Context, out io.Writer, db *stateDb.DB, id string) error {
	state, found, err := db.Fetch(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch session: %w", err)
	}
	if !found {
		return fmt.Errorf("session %s not found", id)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "status\t%s\n", state.Status)
	fmt.Fprintf(w, "player\t%s\n", state.PlayerName)
	fmt.Fprintf(w, "startup\t%s\n", state.StartupName)
	if started, ok := state.StartedAt(); ok {
		fmt.Fprintf(w, "started\t%s\n", started.UTC().Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(w, "found\t%d %s\n", len(state.FoundEvidence), util.Noun(len(state.FoundEvidence), "bias", "biases"))
	if state.Bingo != nil && *state.Bingo >= 0 && *state.Bingo < len(board.Lines) {
		line := board.Lines[*state.Bingo]
		fmt.Fprintf(w, "bingo\t%s %v\n", line.Kind, line.Cells)
	}

	ids := make([]int, 0, len(state.FoundEvidence))
	for id := range state.FoundEvidence {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		ev := state.FoundEvidence[id]
		fmt.Fprintf(w, "  #%d\t%s\t%s\n", id, ev.Brand, ev.Notes)
	}

	return w.Flush()
}

func printLeaderboard(out io.Writer, list []scoreModel.Score, limit int) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(out, resource.TextNoScores)
		return err
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tSTARTUP\tFOUND\tTIME")
	for i, s := range list {
		fmt.Fprintf(w, "%d %s\t%s\t%s\t%d\t%s\n", i+1, resource.RankMark(i+1), s.Name, s.Startup, s.Score, util.Elapsed(s.Time))
	}

	return w.Flush()
}
