package mission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wricardo/mcp-training/roverboard/game/rover"
)

// Reason codes attached to rejected steps and placements
const (
	ReasonBlockedBoundary = "blocked_boundary"
	ReasonBlockedRover    = "blocked_rover"
	ReasonInvalidCommand  = "invalid_command"
	ReasonInvalidHeading  = "invalid_heading"
	ReasonUnknownRover    = "unknown_rover"
)

// RunOptions controls how a mission executes
type RunOptions struct {
	// HaltOnBlocked stops a rover at its first rejected command instead of
	// skipping the command and carrying on.
	HaltOnBlocked bool

	Logger *slog.Logger
}

// Step records one command issued to a rover
type Step struct {
	Idx     int             `json:"idx"`
	Command rover.Movement  `json:"command"`
	From    rover.Direction `json:"from"`
	To      rover.Direction `json:"to"`
	Success bool            `json:"success"`
	Reason  string          `json:"reason,omitempty"`
}

// RoverReport is the outcome of one deployment
type RoverReport struct {
	Index          int             `json:"index"`
	ID             rover.RoverID   `json:"id"`
	Start          rover.Direction `json:"start"`
	Final          rover.Direction `json:"final"`
	Placed         bool            `json:"placed"`
	PlacementError string          `json:"placement_error,omitempty"`
	Executed       int             `json:"executed"`
	Rejected       int             `json:"rejected"`
	Halted         bool            `json:"halted,omitempty"`
	Steps          []Step          `json:"steps,omitempty"`
}

// Report is the outcome of a whole mission
type Report struct {
	Name     string         `json:"name"`
	GridSize rover.Position `json:"grid_size"`
	Rovers   []RoverReport  `json:"rovers"`
	Grid     [][]rover.Cell `json:"grid"`
}

// ReasonCode maps a board rejection to its reason code
func ReasonCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, rover.ErrOutOfBounds):
		return ReasonBlockedBoundary
	case errors.Is(err, rover.ErrOccupied):
		return ReasonBlockedRover
	case errors.Is(err, rover.ErrInvalidMovement):
		return ReasonInvalidCommand
	case errors.Is(err, rover.ErrInvalidHeading):
		return ReasonInvalidHeading
	case errors.Is(err, rover.ErrUnknownRover):
		return ReasonUnknownRover
	}
	return "rejected"
}

// Run executes m on a fresh board
func Run(ctx context.Context, m *Mission, opts RunOptions) (*Report, error) {
	board, err := rover.NewBoard(m.GridSize)
	if err != nil {
		return nil, fmt.Errorf("mission %s: %w", m.Name, err)
	}
	return Execute(ctx, board, m, opts)
}

// Execute deploys the mission's rovers on board one at a time. Each rover
// runs all of its commands before the next one is placed.
func Execute(ctx context.Context, board *rover.Board, m *Mission, opts RunOptions) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("mission", m.Name)

	report := &Report{
		Name:     m.Name,
		GridSize: board.GridSize(),
		Rovers:   make([]RoverReport, 0, len(m.Deployments)),
	}

	for i, d := range m.Deployments {
		rr := RoverReport{Index: i, Start: d.Start, Final: d.Start}

		r, err := board.PlaceRover(d.Start)
		if err != nil {
			rr.PlacementError = ReasonCode(err)
			logger.Debug("placement rejected", "line", d.Line, "pose", d.Start, "error", err)
			report.Rovers = append(report.Rovers, rr)
			continue
		}
		rr.Placed = true
		rr.ID = r.ID()

		for idx, cmd := range d.Commands {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("mission %s interrupted: %w", m.Name, err)
			}

			from := r.Direction()
			to, err := board.Apply(r.ID(), cmd)
			step := Step{Idx: idx + 1, Command: cmd, From: from, To: to, Success: err == nil}

			if err != nil {
				step.Reason = ReasonCode(err)
				rr.Rejected++
				logger.Debug("command rejected", "rover", r.ID(), "step", idx+1, "command", cmd, "reason", step.Reason)
			} else {
				rr.Executed++
			}
			rr.Steps = append(rr.Steps, step)

			if err != nil && opts.HaltOnBlocked {
				rr.Halted = true
				break
			}
		}

		rr.Final = r.Direction()
		report.Rovers = append(report.Rovers, rr)
	}

	report.Grid = board.Grid()
	logger.Debug("mission complete", "rovers", board.Len())
	return report, nil
}
