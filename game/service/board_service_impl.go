package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/roverboard/game/mission"
	"github.com/wricardo/mcp-training/roverboard/game/render"
	"github.com/wricardo/mcp-training/roverboard/game/rover"
)

var (
	ErrInvalidCommand = errors.New("invalid command")
	ErrPlacement      = errors.New("rover placement rejected")
	ErrNoMissions     = errors.New("no mission library configured")
	ErrGridTooLarge   = errors.New("grid size too large")
)

// boardServiceImpl implements the BoardService interface. It owns one board
// and serializes every access to it.
type boardServiceImpl struct {
	board     *rover.Board
	missions  MissionLibrary
	logger    *slog.Logger
	history   []ActEntry
	mission   string
	createdAt time.Time
	mu        sync.RWMutex
}

// NewBoardService creates a service around board. missions may be nil when
// no mission library is available; logger defaults to slog.Default().
func NewBoardService(board *rover.Board, missions MissionLibrary, logger *slog.Logger) BoardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &boardServiceImpl{
		board:     board,
		missions:  missions,
		logger:    logger,
		history:   []ActEntry{},
		createdAt: time.Now(),
	}
}

// NewBoard replaces the live board with an empty one and clears the history
func (s *boardServiceImpl) NewBoard(ctx context.Context, gridSize rover.Position) (*BoardState, error) {
	board, err := newBoard(gridSize)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset(board, "")
	s.logger.Info("board created", "grid_x", gridSize.X, "grid_y", gridSize.Y)
	return s.snapshot(), nil
}

// State returns a snapshot of the live board
func (s *boardServiceImpl) State(ctx context.Context) (*BoardState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshot(), nil
}

// CreateRover places a rover on the live board
func (s *boardServiceImpl) CreateRover(ctx context.Context, pose rover.Direction) (*RoverInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.board.PlaceRover(pose)
	if err != nil {
		s.logger.Debug("placement rejected", "pose", render.Pose(pose), "error", err)
		return nil, fmt.Errorf("%w: %w", ErrPlacement, err)
	}

	s.logger.Debug("rover created", "rover", r.ID(), "pose", render.Pose(r.Direction()))
	return &RoverInfo{ID: r.ID(), Direction: r.Direction()}, nil
}

// Act issues one command to a rover. A rejected command is not an error: the
// result reports Success false and the rover keeps its pose.
func (s *boardServiceImpl) Act(ctx context.Context, id rover.RoverID, command string) (*ActResult, error) {
	cmd, err := rover.ParseMovement(command)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.board.Rover(id); !ok {
		return nil, fmt.Errorf("%w: %d", rover.ErrUnknownRover, id)
	}

	entry, attempt := s.apply(id, cmd)
	result := &ActResult{
		Success:     entry.Success,
		Rover:       RoverInfo{ID: id, Direction: entry.To},
		Entry:       entry,
		AttemptedTo: attempt,
		Message:     describe(entry, attempt),
	}

	return result, nil
}

// BulkAct issues a command string to a rover, stopping at the first
// rejection
func (s *boardServiceImpl) BulkAct(ctx context.Context, id rover.RoverID, commands string) (*BulkActResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.board.Rover(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", rover.ErrUnknownRover, id)
	}

	result := &BulkActResult{
		Rover:     id,
		Success:   true,
		StartPose: r.Direction(),
		EndPose:   r.Direction(),
	}

	moves, err := rover.ParseCommands(commands)
	if err != nil {
		result.Success = false
		result.StopReasonCode = mission.ReasonInvalidCommand
		result.Message = err.Error()
		return result, nil
	}
	result.RequestedActs = len(moves)

	// Limit commands to keep one call bounded
	if len(moves) > MaxBulkActs {
		result.Truncated = true
		result.Limit = MaxBulkActs
		moves = moves[:MaxBulkActs]
	}

	for i, cmd := range moves {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry, attempt := s.apply(id, cmd)
		result.Steps = append(result.Steps, entry)

		if !entry.Success {
			result.Success = false
			result.StopReasonCode = entry.Reason
			result.StoppedOnAct = i + 1
			result.AttemptedTo = attempt
			result.Message = fmt.Sprintf("command %d blocked: %s", i+1, describe(entry, attempt))
			break
		}
		result.ActsExecuted++
	}

	result.EndPose = r.Direction()
	if result.Success {
		result.Message = fmt.Sprintf("Rover %d at %s after %d commands", id, render.Pose(result.EndPose), result.ActsExecuted)
	}

	return result, nil
}

// GetCell describes one cell of the live board
func (s *boardServiceImpl) GetCell(ctx context.Context, pos rover.Position) (*CellInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := &CellInfo{Position: pos, InBounds: s.board.InBounds(pos)}
	if d, ok := s.board.GetCell(pos); ok {
		info.Occupied = true
		grid := s.board.Grid()
		info.Rover = &RoverInfo{ID: grid[pos.Y][pos.X].Rover, Direction: d}
	}

	return info, nil
}

// History returns paginated act history
func (s *boardServiceImpl) History(ctx context.Context, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultHistoryLimit
	}
	if opts.Limit > MaxHistoryLimit {
		opts.Limit = MaxHistoryLimit
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := min(start+opts.Limit, total)

	acts := []ActEntry{}
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			acts = append(acts, s.history[i])
		}
	} else if start < total {
		acts = append(acts, s.history[start:end]...)
	}

	return &HistoryResponse{
		Acts:        acts,
		TotalActs:   total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListMissions returns the missions available in the library
func (s *boardServiceImpl) ListMissions(ctx context.Context) ([]*MissionInfo, error) {
	if s.missions == nil {
		return nil, ErrNoMissions
	}
	return s.missions.ListMissions()
}

// ReloadMissions drops cached missions so edited scripts are picked up
func (s *boardServiceImpl) ReloadMissions(ctx context.Context) error {
	if s.missions == nil {
		return ErrNoMissions
	}
	s.missions.RefreshCache()
	s.logger.Debug("mission cache cleared")
	return nil
}

// RunMission loads a mission, runs it on a fresh board and makes that board
// the live one. The mission's commands become the new history.
func (s *boardServiceImpl) RunMission(ctx context.Context, name string, opts mission.RunOptions) (*mission.Report, error) {
	if s.missions == nil {
		return nil, ErrNoMissions
	}

	m, err := s.missions.LoadMission(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load mission %s: %w", name, err)
	}

	board, err := newBoard(m.GridSize)
	if err != nil {
		return nil, fmt.Errorf("mission %s: %w", name, err)
	}

	if opts.Logger == nil {
		opts.Logger = s.logger
	}
	report, err := mission.Execute(ctx, board, m, opts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset(board, name)
	now := time.Now().Unix()
	for _, rr := range report.Rovers {
		for _, step := range rr.Steps {
			s.record(ActEntry{
				Rover:     rr.ID,
				Command:   step.Command,
				From:      step.From,
				To:        step.To,
				Success:   step.Success,
				Reason:    step.Reason,
				Timestamp: now,
			})
		}
	}

	s.logger.Info("mission loaded", "mission", name, "rovers", board.Len(), "acts", len(s.history))
	return report, nil
}

// newBoard builds a board no larger than MaxGridSize on either axis
func newBoard(gridSize rover.Position) (*rover.Board, error) {
	if gridSize.X > MaxGridSize || gridSize.Y > MaxGridSize {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d", ErrGridTooLarge, gridSize.X, gridSize.Y, MaxGridSize)
	}
	return rover.NewBoard(gridSize)
}

// apply runs one command and records it. Callers hold the write lock.
func (s *boardServiceImpl) apply(id rover.RoverID, cmd rover.Movement) (ActEntry, *AttemptInfo) {
	r, _ := s.board.Rover(id)
	from := r.Direction()

	var attempt *AttemptInfo
	to, err := s.board.Apply(id, cmd)
	if err != nil && cmd == rover.Move {
		next, _ := s.board.NextCell(id)
		attempt = &AttemptInfo{X: next.X, Y: next.Y, InBounds: s.board.InBounds(next)}
		if attempt.InBounds {
			grid := s.board.Grid()
			if cell := grid[next.Y][next.X]; cell.Occupied {
				occupant := cell.Rover
				attempt.OccupiedBy = &occupant
			}
		}
	}

	entry := s.record(ActEntry{
		Rover:     id,
		Command:   cmd,
		From:      from,
		To:        to,
		Success:   err == nil,
		Reason:    mission.ReasonCode(err),
		Timestamp: time.Now().Unix(),
	})

	if err != nil {
		s.logger.Debug("command rejected", "rover", id, "command", cmd, "reason", entry.Reason)
	}
	return entry, attempt
}

func (s *boardServiceImpl) record(entry ActEntry) ActEntry {
	entry.ActNumber = len(s.history) + 1
	s.history = append(s.history, entry)
	return entry
}

func (s *boardServiceImpl) reset(board *rover.Board, missionName string) {
	s.board = board
	s.mission = missionName
	s.history = []ActEntry{}
	s.createdAt = time.Now()
}

func (s *boardServiceImpl) snapshot() *BoardState {
	rovers := s.board.Rovers()
	infos := make([]RoverInfo, 0, len(rovers))
	for _, r := range rovers {
		infos = append(infos, RoverInfo{ID: r.ID(), Direction: r.Direction()})
	}

	return &BoardState{
		GridSize:  s.board.GridSize(),
		Rovers:    infos,
		Grid:      s.board.Grid(),
		TotalActs: len(s.history),
		Mission:   s.mission,
		CreatedAt: s.createdAt,
	}
}

// describe builds the human-readable message for an act
func describe(entry ActEntry, attempt *AttemptInfo) string {
	if entry.Success {
		switch entry.Command {
		case rover.Move:
			return fmt.Sprintf("Rover %d moved to %s", entry.Rover, render.Pose(entry.To))
		default:
			return fmt.Sprintf("Rover %d turned to face %s", entry.Rover, entry.To.Z)
		}
	}

	if attempt == nil {
		return fmt.Sprintf("Rover %d rejected %s: %s", entry.Rover, entry.Command, entry.Reason)
	}
	if attempt.OccupiedBy != nil {
		return fmt.Sprintf("Rover %d can't move: (%d,%d) is occupied by rover %d", entry.Rover, attempt.X, attempt.Y, *attempt.OccupiedBy)
	}
	return fmt.Sprintf("Rover %d can't move: (%d,%d) is outside the board", entry.Rover, attempt.X, attempt.Y)
}
