package service

import (
	"context"

	"github.com/wricardo/mcp-training/roverboard/game/mission"
	"github.com/wricardo/mcp-training/roverboard/game/rover"
)

// BoardService defines all operations on the live board
type BoardService interface {
	// Board lifecycle
	NewBoard(ctx context.Context, gridSize rover.Position) (*BoardState, error)
	State(ctx context.Context) (*BoardState, error)

	// Rovers
	CreateRover(ctx context.Context, pose rover.Direction) (*RoverInfo, error)
	Act(ctx context.Context, id rover.RoverID, command string) (*ActResult, error)
	BulkAct(ctx context.Context, id rover.RoverID, commands string) (*BulkActResult, error)
	GetCell(ctx context.Context, pos rover.Position) (*CellInfo, error)

	// History
	History(ctx context.Context, opts HistoryOptions) (*HistoryResponse, error)

	// Missions
	ListMissions(ctx context.Context) ([]*MissionInfo, error)
	ReloadMissions(ctx context.Context) error
	RunMission(ctx context.Context, name string, opts mission.RunOptions) (*mission.Report, error)
}

// MissionLibrary loads mission scripts by name
type MissionLibrary interface {
	LoadMission(name string) (*mission.Mission, error)
	ListMissions() ([]*MissionInfo, error)
	RefreshCache()
}
