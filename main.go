// Command rovers simulates rovers on a rectangular board.
//
// It supports four commands:
//  1. "run" – parses mission scripts and prints every rover's final pose
//  2. "validate" – parses mission scripts without running them
//  3. "missions" – lists and imports scripts in the mission library
//  4. "mcp" – serves the board as MCP tools on stdio
//
// Flags control the mission library directory and debug logging. Values can
// also come from the environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/mcp-training/roverboard/game/config"
	"github.com/wricardo/mcp-training/roverboard/game/mission"
	"github.com/wricardo/mcp-training/roverboard/game/render"
	"github.com/wricardo/mcp-training/roverboard/game/rover"
	"github.com/wricardo/mcp-training/roverboard/game/service"
	"github.com/wricardo/mcp-training/roverboard/transport/mcp"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "rovers"
)

// maxParallelRuns bounds how many mission files run at once
const maxParallelRuns = 8

var errFailed = errors.New("one or more missions failed")

// main loads the environment, builds the command tree and runs it.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout, os.Stderr).Run(ctx, os.Args); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// newApp builds the root command. Output goes to stdout; diagnostics and logs
// go to stderr.
func newApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      AppName,
		Usage:     "drive rovers around a rectangular board",
		Version:   Version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "missions-dir",
				Usage:   "directory containing *.mission scripts",
				Value:   "missions",
				Sources: cli.EnvVars("ROVERS_MISSIONS_DIR"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				Sources: cli.EnvVars("ROVERS_DEBUG"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			setupLogging(stderr, cmd.Bool("debug"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			runCommand(),
			validateCommand(),
			missionsCommand(),
			mcpCommand(),
		},
	}
}

// setupLogging installs a text handler on w as the default logger
func setupLogging(w io.Writer, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "run mission scripts and print every rover's final pose",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "mission",
				Usage: "run a mission from the library by name (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "grid",
				Usage: "draw the final board",
			},
			&cli.BoolFlag{
				Name:  "steps",
				Usage: "list every command each rover issued",
			},
			&cli.BoolFlag{
				Name:  "halt-on-blocked",
				Usage: "stop a rover at its first blocked command",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print reports as JSON",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			sources, err := missionSources(cmd)
			if err != nil {
				return err
			}
			if len(sources) == 0 {
				return fmt.Errorf("no missions given: pass FILE arguments or --mission")
			}

			opts := mission.RunOptions{HaltOnBlocked: cmd.Bool("halt-on-blocked"), Logger: slog.Default()}
			results := runMissions(ctx, sources, opts)
			if err := ctx.Err(); err != nil {
				return err
			}

			return printResults(cmd.Root().Writer, cmd.Root().ErrWriter, results, printOptions{
				json:  cmd.Bool("json"),
				grid:  cmd.Bool("grid"),
				steps: cmd.Bool("steps"),
			})
		},
	}
}

// missionSource is one mission to run: a file on disk or a library entry
type missionSource struct {
	label string
	load  func() (*mission.Mission, error)
}

func missionSources(cmd *cli.Command) ([]missionSource, error) {
	var sources []missionSource

	for _, path := range cmd.Args().Slice() {
		sources = append(sources, missionSource{
			label: path,
			load:  func() (*mission.Mission, error) { return parseFile(path) },
		})
	}

	names := cmd.StringSlice("mission")
	if len(names) > 0 {
		library, err := config.NewManager(cmd.String("missions-dir"))
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			sources = append(sources, missionSource{
				label: name,
				load:  func() (*mission.Mission, error) { return library.LoadMission(name) },
			})
		}
	}

	return sources, nil
}

func parseFile(path string) (*mission.Mission, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return mission.Parse(filepath.Base(path), f)
}

// runResult pairs a mission source with its outcome
type runResult struct {
	Source string          `json:"source"`
	Report *mission.Report `json:"report,omitempty"`
	Error  string          `json:"error,omitempty"`
	err    error
}

// runMissions runs every source on its own board. Results keep argument
// order; a failing mission does not stop the others.
func runMissions(ctx context.Context, sources []missionSource, opts mission.RunOptions) []runResult {
	results := make([]runResult, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelRuns)

	for i, src := range sources {
		g.Go(func() error {
			results[i].Source = src.label

			m, err := src.load()
			if err == nil {
				results[i].Report, err = mission.Run(ctx, m, opts)
			}
			if err != nil {
				results[i].err = err
				results[i].Error = err.Error()
				slog.Debug("mission failed", "source", src.label, "error", err)
			}

			// Only cancellation stops the group
			if errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	_ = g.Wait()
	return results
}

type printOptions struct {
	json  bool
	grid  bool
	steps bool
}

func printResults(stdout, stderr io.Writer, results []runResult, opts printOptions) error {
	failed := false
	for _, r := range results {
		if r.err != nil {
			failed = true
		}
	}

	if opts.json {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		for i, r := range results {
			if len(results) > 1 {
				if i > 0 {
					fmt.Fprintln(stdout)
				}
				fmt.Fprintf(stdout, "== %s\n", r.Source)
			}
			if r.err != nil {
				fmt.Fprintf(stderr, "%s: %v\n", r.Source, r.err)
				continue
			}

			fmt.Fprint(stdout, render.Report(r.Report))
			if opts.steps {
				for _, rr := range r.Report.Rovers {
					if !rr.Placed {
						continue
					}
					fmt.Fprintf(stdout, "\nrover %d (start %s)\n", rr.ID, render.Pose(rr.Start))
					fmt.Fprint(stdout, render.Steps(rr))
				}
			}
			if opts.grid {
				fmt.Fprintln(stdout)
				fmt.Fprint(stdout, render.Grid(r.Report.Grid))
			}
		}
	}

	if failed {
		return errFailed
	}
	return nil
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "parse mission scripts without running them",
		ArgsUsage: "FILE...",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			paths := cmd.Args().Slice()
			if len(paths) == 0 {
				return fmt.Errorf("no files given")
			}

			out := cmd.Root().Writer
			failed := false
			for _, path := range paths {
				m, err := parseFile(path)
				if err != nil {
					failed = true
					fmt.Fprintf(out, "%s: FAIL %v\n", path, err)
					continue
				}
				fmt.Fprintf(out, "%s: ok (%s)\n", path, summarize(m))
				for _, issue := range mission.Lint(m) {
					fmt.Fprintf(out, "  warning: %s\n", issue)
				}
			}

			if failed {
				return errFailed
			}
			return nil
		},
	}
}

func summarize(m *mission.Mission) string {
	commands := 0
	for _, d := range m.Deployments {
		commands += len(d.Commands)
	}
	return fmt.Sprintf("%dx%d board, %d rovers, %d commands",
		m.GridSize.X+1, m.GridSize.Y+1, len(m.Deployments), commands)
}

func missionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "missions",
		Usage: "list the mission library",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			library, err := config.NewManager(cmd.String("missions-dir"))
			if err != nil {
				return err
			}

			missions, err := library.ListMissions()
			if err != nil {
				return err
			}

			out := cmd.Root().Writer
			if len(missions) == 0 {
				fmt.Fprintf(out, "No missions in %s\n", library.Dir())
				return nil
			}
			for _, m := range missions {
				fmt.Fprintf(out, "%-20s %dx%d board, %d rovers, %d commands\n",
					m.MissionID, m.GridSize.X+1, m.GridSize.Y+1, m.Rovers, m.Commands)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "validate scripts and copy them into the library",
				ArgsUsage: "FILE...",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					library, err := config.NewManager(cmd.String("missions-dir"))
					if err != nil {
						return err
					}

					out := cmd.Root().Writer
					for _, path := range cmd.Args().Slice() {
						m, err := parseFile(path)
						if err != nil {
							return err
						}
						name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
						if err := library.SaveMission(name, m); err != nil {
							return err
						}
						fmt.Fprintf(out, "imported %s as %s\n", path, name)
					}
					return nil
				},
			},
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "serve the board as MCP tools on stdio",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "width",
				Usage: "largest X coordinate of the initial board",
				Value: 5,
			},
			&cli.IntFlag{
				Name:  "height",
				Usage: "largest Y coordinate of the initial board",
				Value: 5,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			svc, err := initializeService(cmd.String("missions-dir"), rover.Position{
				X: int(cmd.Int("width")),
				Y: int(cmd.Int("height")),
			})
			if err != nil {
				return fmt.Errorf("failed to initialize service: %w", err)
			}

			slog.Info("starting", "app", AppName, "version", Version, "mode", "mcp")
			return mcp.NewServer(svc, Version, slog.Default()).ServeStdio()
		},
	}
}

// initializeService builds the board service. A missing mission directory
// leaves the service without a library instead of failing.
func initializeService(missionsDir string, gridSize rover.Position) (service.BoardService, error) {
	board, err := rover.NewBoard(gridSize)
	if err != nil {
		return nil, err
	}

	var library service.MissionLibrary
	if manager, err := config.NewManager(missionsDir); err != nil {
		slog.Warn("mission library unavailable", "dir", missionsDir, "error", err)
	} else {
		library = manager
	}

	return service.NewBoardService(board, library, slog.Default()), nil
}
