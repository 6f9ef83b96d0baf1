package service_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/roverboard/game/mission"
	"github.com/wricardo/mcp-training/roverboard/game/rover"
	"github.com/wricardo/mcp-training/roverboard/game/service"
)

const classicMission = `5 5
1 2 N
LMLMLMLMM
3 3 E
MMRMMRMRRM
`

// MockMissionLibrary implements service.MissionLibrary for testing
type MockMissionLibrary struct {
	scripts map[string]string
}

func NewMockMissionLibrary() *MockMissionLibrary {
	return &MockMissionLibrary{
		scripts: map[string]string{
			"classic": classicMission,
			"broken":  "5 5\n1 2 N\nLMX\n",
			"huge":    "5000 5\n1 2 N\nM\n",
		},
	}
}

func (m *MockMissionLibrary) LoadMission(name string) (*mission.Mission, error) {
	src, exists := m.scripts[name]
	if !exists {
		return nil, errors.New("mission not found")
	}
	return mission.ParseString(name, src)
}

func (m *MockMissionLibrary) ListMissions() ([]*service.MissionInfo, error) {
	result := make([]*service.MissionInfo, 0, len(m.scripts))
	for name := range m.scripts {
		result = append(result, &service.MissionInfo{Filename: name + ".mission", MissionID: name})
	}
	return result, nil
}

func (m *MockMissionLibrary) RefreshCache() {}

func newTestService(t *testing.T, x, y int) service.BoardService {
	t.Helper()
	board, err := rover.NewBoard(rover.Position{X: x, Y: y})
	if err != nil {
		t.Fatalf("Failed to create board: %v", err)
	}
	return service.NewBoardService(board, NewMockMissionLibrary(), nil)
}

func TestBoardService_NewBoard(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, 5, 5)

	tests := []struct {
		name     string
		gridSize rover.Position
		wantErr  bool
	}{
		{name: "square board", gridSize: rover.Position{X: 3, Y: 3}},
		{name: "single cell", gridSize: rover.Position{X: 0, Y: 0}},
		{name: "negative width", gridSize: rover.Position{X: -1, Y: 3}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := svc.NewBoard(ctx, tt.gridSize)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewBoard() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if state.GridSize != tt.gridSize {
				t.Errorf("Expected grid size %v, got %v", tt.gridSize, state.GridSize)
			}
			if len(state.Rovers) != 0 || state.TotalActs != 0 {
				t.Errorf("Expected empty board, got %d rovers and %d acts", len(state.Rovers), state.TotalActs)
			}
		})
	}
}

func TestBoardService_NewBoardTooLarge(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, 5, 5)

	tests := []struct {
		name     string
		gridSize rover.Position
		wantErr  error
	}{
		{name: "past the cap", gridSize: rover.Position{X: service.MaxGridSize + 1, Y: 3}, wantErr: service.ErrGridTooLarge},
		{name: "max int", gridSize: rover.Position{X: math.MaxInt, Y: 0}, wantErr: service.ErrGridTooLarge},
		{name: "huge y", gridSize: rover.Position{X: 0, Y: 10_000_000_000}, wantErr: service.ErrGridTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.NewBoard(ctx, tt.gridSize)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// The live board is untouched
	state, err := svc.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, rover.Position{X: 5, Y: 5}, state.GridSize)

	state, err = svc.NewBoard(ctx, rover.Position{X: service.MaxGridSize, Y: 1})
	require.NoError(t, err)
	assert.Len(t, state.Grid, 2)
}

func TestBoardService_NewBoardClearsHistory(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, 5, 5)

	info, err := svc.CreateRover(ctx, rover.Direction{X: 0, Y: 0, Z: rover.North})
	require.NoError(t, err)
	_, err = svc.Act(ctx, info.ID, "M")
	require.NoError(t, err)

	_, err = svc.NewBoard(ctx, rover.Position{X: 2, Y: 2})
	require.NoError(t, err)

	state, err := svc.State(ctx)
	require.NoError(t, err)
	assert.Empty(t, state.Rovers)
	assert.Zero(t, state.TotalActs)
	assert.Len(t, state.Grid, 3)
}

func TestBoardService_CreateRover(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, 5, 5)

	first, err := svc.CreateRover(ctx, rover.Direction{X: 1, Y: 2, Z: rover.North})
	require.NoError(t, err)
	assert.Equal(t, rover.RoverID(0), first.ID)

	tests := []struct {
		name    string
		pose    rover.Direction
		wantErr error
	}{
		{name: "outside board", pose: rover.Direction{X: 6, Y: 0, Z: rover.North}, wantErr: rover.ErrOutOfBounds},
		{name: "occupied cell", pose: rover.Direction{X: 1, Y: 2, Z: rover.South}, wantErr: rover.ErrOccupied},
		{name: "bad heading", pose: rover.Direction{X: 0, Y: 0, Z: "Q"}, wantErr: rover.ErrInvalidHeading},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateRover(ctx, tt.pose)
			assert.ErrorIs(t, err, service.ErrPlacement)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	second, err := svc.CreateRover(ctx, rover.Direction{X: 3, Y: 3, Z: rover.East})
	require.NoError(t, err)
	assert.Equal(t, rover.RoverID(1), second.ID, "rejected placements must not consume ids")
}

func TestBoardService_Act(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, 5, 5)

	info, err := svc.CreateRover(ctx, rover.Direction{X: 0, Y: 4, Z: rover.North})
	if err != nil {
		t.Fatalf("Failed to create rover: %v", err)
	}

	tests := []struct {
		name        string
		id          rover.RoverID
		command     string
		wantErr     bool
		wantSuccess bool
		wantPose    rover.Direction
	}{
		{name: "move north", id: info.ID, command: "M", wantSuccess: true, wantPose: rover.Direction{X: 0, Y: 5, Z: rover.North}},
		{name: "blocked at north edge", id: info.ID, command: "M", wantSuccess: false, wantPose: rover.Direction{X: 0, Y: 5, Z: rover.North}},
		{name: "turn right", id: info.ID, command: "r", wantSuccess: true, wantPose: rover.Direction{X: 0, Y: 5, Z: rover.East}},
		{name: "unknown rover", id: 7, command: "M", wantErr: true},
		{name: "invalid command", id: info.ID, command: "X", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Act(ctx, tt.id, tt.command)
			if (err != nil) != tt.wantErr {
				t.Errorf("Act() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if result.Success != tt.wantSuccess {
				t.Errorf("Expected success %v, got %v (%s)", tt.wantSuccess, result.Success, result.Message)
			}
			if result.Rover.Direction != tt.wantPose {
				t.Errorf("Expected pose %v, got %v", tt.wantPose, result.Rover.Direction)
			}
		})
	}
}

func TestBoardService_ActAttemptInfo(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, 5, 5)

	blocker, err := svc.CreateRover(ctx, rover.Direction{X: 2, Y: 3, Z: rover.South})
	require.NoError(t, err)
	mover, err := svc.CreateRover(ctx, rover.Direction{X: 2, Y: 2, Z: rover.North})
	require.NoError(t, err)

	result, err := svc.Act(ctx, mover.ID, "M")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, mission.ReasonBlockedRover, result.Entry.Reason)
	require.NotNil(t, result.AttemptedTo)
	assert.Equal(t, 2, result.AttemptedTo.X)
	assert.Equal(t, 3, result.AttemptedTo.Y)
	assert.True(t, result.AttemptedTo.InBounds)
	require.NotNil(t, result.AttemptedTo.OccupiedBy)
	assert.Equal(t, blocker.ID, *result.AttemptedTo.OccupiedBy)
	assert.Contains(t, result.Message, "occupied by rover 0")

	// Turning is never blocked and carries no attempt info
	result, err = svc.Act(ctx, mover.ID, "L")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Nil(t, result.AttemptedTo)
}

func TestBoardService_BulkAct(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		commands      string
		wantSuccess   bool
		wantExecuted  int
		wantStoppedOn int
		wantReason    string
		wantEnd       rover.Direction
	}{
		{
			name:         "classic path",
			commands:     "LMLMLMLMM",
			wantSuccess:  true,
			wantExecuted: 9,
			wantEnd:      rover.Direction{X: 1, Y: 3, Z: rover.North},
		},
		{
			name:          "stops at boundary",
			commands:      "MMMMMR",
			wantSuccess:   false,
			wantExecuted:  3,
			wantStoppedOn: 4,
			wantReason:    mission.ReasonBlockedBoundary,
			wantEnd:       rover.Direction{X: 1, Y: 5, Z: rover.North},
		},
		{
			name:        "invalid command string",
			commands:    "MMX",
			wantSuccess: false,
			wantReason:  mission.ReasonInvalidCommand,
			wantEnd:     rover.Direction{X: 1, Y: 2, Z: rover.North},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, 5, 5)
			info, err := svc.CreateRover(ctx, rover.Direction{X: 1, Y: 2, Z: rover.North})
			require.NoError(t, err)

			result, err := svc.BulkAct(ctx, info.ID, tt.commands)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSuccess, result.Success, result.Message)
			assert.Equal(t, tt.wantExecuted, result.ActsExecuted)
			assert.Equal(t, tt.wantStoppedOn, result.StoppedOnAct)
			assert.Equal(t, tt.wantReason, result.StopReasonCode)
			assert.Equal(t, tt.wantEnd, result.EndPose)
		})
	}
}

func TestBoardService_BulkActTruncates(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, 5, 5)

	info, err := svc.CreateRover(ctx, rover.Direction{X: 0, Y: 0, Z: rover.North})
	require.NoError(t, err)

	result, err := svc.BulkAct(ctx, info.ID, strings.Repeat("R", service.MaxBulkActs+10))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.Truncated)
	assert.Equal(t, service.MaxBulkActs+10, result.RequestedActs)
	assert.Equal(t, service.MaxBulkActs, result.ActsExecuted)
	assert.Equal(t, service.MaxBulkActs, result.Limit)
	// 50 right turns is 12 full turns plus two
	assert.Equal(t, rover.South, result.EndPose.Z)
}

func TestBoardService_BulkActUnknownRover(t *testing.T) {
	svc := newTestService(t, 5, 5)

	_, err := svc.BulkAct(context.Background(), 3, "M")
	assert.ErrorIs(t, err, rover.ErrUnknownRover)
}

func TestBoardService_GetCell(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, 5, 5)

	_, err := svc.CreateRover(ctx, rover.Direction{X: 0, Y: 0, Z: rover.North})
	require.NoError(t, err)
	info, err := svc.CreateRover(ctx, rover.Direction{X: 4, Y: 1, Z: rover.West})
	require.NoError(t, err)

	cell, err := svc.GetCell(ctx, rover.Position{X: 4, Y: 1})
	require.NoError(t, err)
	assert.True(t, cell.InBounds)
	assert.True(t, cell.Occupied)
	require.NotNil(t, cell.Rover)
	assert.Equal(t, info.ID, cell.Rover.ID)
	assert.Equal(t, rover.West, cell.Rover.Direction.Z)

	cell, err = svc.GetCell(ctx, rover.Position{X: 3, Y: 3})
	require.NoError(t, err)
	assert.True(t, cell.InBounds)
	assert.False(t, cell.Occupied)
	assert.Nil(t, cell.Rover)

	cell, err = svc.GetCell(ctx, rover.Position{X: 9, Y: 9})
	require.NoError(t, err)
	assert.False(t, cell.InBounds)
	assert.False(t, cell.Occupied)
}

func TestBoardService_History(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, 5, 5)

	info, err := svc.CreateRover(ctx, rover.Direction{X: 0, Y: 0, Z: rover.North})
	require.NoError(t, err)
	for i := 0; i < 25; i++ {
		_, err := svc.Act(ctx, info.ID, "R")
		require.NoError(t, err)
	}

	tests := []struct {
		name      string
		opts      service.HistoryOptions
		wantLen   int
		wantFirst int
		wantNext  bool
		wantPrev  bool
	}{
		{name: "defaults are newest first", opts: service.HistoryOptions{}, wantLen: 20, wantFirst: 25, wantNext: true},
		{name: "second page desc", opts: service.HistoryOptions{Page: 2}, wantLen: 5, wantFirst: 5, wantPrev: true},
		{name: "ascending", opts: service.HistoryOptions{Limit: 10, Order: "asc"}, wantLen: 10, wantFirst: 1, wantNext: true},
		{name: "ascending last page", opts: service.HistoryOptions{Page: 3, Limit: 10, Order: "asc"}, wantLen: 5, wantFirst: 21, wantPrev: true},
		{name: "limit is capped", opts: service.HistoryOptions{Limit: 500}, wantLen: 25, wantFirst: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.History(ctx, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, 25, resp.TotalActs)
			require.Len(t, resp.Acts, tt.wantLen)
			assert.Equal(t, tt.wantFirst, resp.Acts[0].ActNumber)
			assert.Equal(t, tt.wantNext, resp.HasNext)
			assert.Equal(t, tt.wantPrev, resp.HasPrevious)
		})
	}

	resp, err := svc.History(ctx, service.HistoryOptions{Page: 9})
	require.NoError(t, err)
	assert.Empty(t, resp.Acts)
}

func TestBoardService_RunMission(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, 1, 1)

	report, err := svc.RunMission(ctx, "classic", mission.RunOptions{})
	require.NoError(t, err)
	require.Len(t, report.Rovers, 2)
	assert.Equal(t, rover.Direction{X: 1, Y: 3, Z: rover.North}, report.Rovers[0].Final)
	assert.Equal(t, rover.Direction{X: 5, Y: 1, Z: rover.East}, report.Rovers[1].Final)

	// The mission board becomes the live board
	state, err := svc.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, "classic", state.Mission)
	assert.Equal(t, rover.Position{X: 5, Y: 5}, state.GridSize)
	assert.Len(t, state.Rovers, 2)
	assert.Equal(t, 19, state.TotalActs)

	// Rovers from the mission keep taking commands
	result, err := svc.Act(ctx, report.Rovers[0].ID, "M")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, rover.Direction{X: 1, Y: 4, Z: rover.North}, result.Rover.Direction)
}

func TestBoardService_RunMissionErrors(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, 5, 5)

	_, err := svc.RunMission(ctx, "missing", mission.RunOptions{})
	assert.Error(t, err)

	_, err = svc.RunMission(ctx, "broken", mission.RunOptions{})
	assert.ErrorIs(t, err, mission.ErrInvalidScript)

	_, err = svc.RunMission(ctx, "huge", mission.RunOptions{})
	assert.ErrorIs(t, err, service.ErrGridTooLarge)

	board, err := rover.NewBoard(rover.Position{X: 1, Y: 1})
	require.NoError(t, err)
	bare := service.NewBoardService(board, nil, nil)
	_, err = bare.RunMission(ctx, "classic", mission.RunOptions{})
	assert.ErrorIs(t, err, service.ErrNoMissions)
	_, err = bare.ListMissions(ctx)
	assert.ErrorIs(t, err, service.ErrNoMissions)
	assert.ErrorIs(t, bare.ReloadMissions(ctx), service.ErrNoMissions)
}

func TestBoardService_ListMissions(t *testing.T) {
	svc := newTestService(t, 5, 5)

	missions, err := svc.ListMissions(context.Background())
	require.NoError(t, err)
	assert.Len(t, missions, 3)
	assert.NoError(t, svc.ReloadMissions(context.Background()))
}
