package service

import (
	"time"

	"github.com/wricardo/mcp-training/roverboard/game/rover"
)

const (
	// MaxBulkActs caps the commands accepted by one BulkAct call
	MaxBulkActs = 50

	// MaxGridSize caps each coordinate of a board the service will build, so
	// one request cannot allocate an unbounded grid
	MaxGridSize = 1000

	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// RoverInfo describes one rover on the board
type RoverInfo struct {
	ID        rover.RoverID   `json:"id"`
	Direction rover.Direction `json:"direction"`
}

// BoardState is a snapshot of the live board
type BoardState struct {
	GridSize  rover.Position `json:"grid_size"`
	Rovers    []RoverInfo    `json:"rovers"`
	Grid      [][]rover.Cell `json:"grid"`
	TotalActs int            `json:"total_acts"`
	Mission   string         `json:"mission,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// ActEntry records a single command issued to a rover
type ActEntry struct {
	ActNumber int             `json:"act_number"`
	Rover     rover.RoverID   `json:"rover"`
	Command   rover.Movement  `json:"command"`
	From      rover.Direction `json:"from"`
	To        rover.Direction `json:"to"`
	Success   bool            `json:"success"`
	Reason    string          `json:"reason,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// AttemptInfo details the target cell of a rejected forward move
type AttemptInfo struct {
	X          int            `json:"x"`
	Y          int            `json:"y"`
	InBounds   bool           `json:"in_bounds"`
	OccupiedBy *rover.RoverID `json:"occupied_by,omitempty"`
}

// ActResult contains the result of a single command
type ActResult struct {
	Success     bool         `json:"success"`
	Rover       RoverInfo    `json:"rover"`
	Entry       ActEntry     `json:"entry"`
	AttemptedTo *AttemptInfo `json:"attempted_to,omitempty"`
	Message     string       `json:"message"`
}

// BulkActResult contains the result of a command string. Execution stops at
// the first rejected command.
type BulkActResult struct {
	Rover          rover.RoverID `json:"rover"`
	RequestedActs  int           `json:"requested_acts"`
	ActsExecuted   int           `json:"acts_executed"`
	Success        bool          `json:"success"`
	StopReasonCode string        `json:"stop_reason_code,omitempty"` // blocked_boundary|blocked_rover|invalid_command
	StoppedOnAct   int           `json:"stopped_on_act,omitempty"`   // 1-based
	Truncated      bool          `json:"truncated,omitempty"`
	Limit          int           `json:"limit,omitempty"`

	StartPose rover.Direction `json:"start_pose"`
	EndPose   rover.Direction `json:"end_pose"`
	Steps     []ActEntry      `json:"steps,omitempty"`

	AttemptedTo *AttemptInfo `json:"attempted_to,omitempty"`
	Message     string       `json:"message,omitempty"`
}

// CellInfo describes one cell of the board
type CellInfo struct {
	Position rover.Position `json:"position"`
	InBounds bool           `json:"in_bounds"`
	Occupied bool           `json:"occupied"`
	Rover    *RoverInfo     `json:"rover,omitempty"`
}

// HistoryOptions configures act history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated act history
type HistoryResponse struct {
	Acts        []ActEntry `json:"acts"`
	TotalActs   int        `json:"total_acts"`
	Page        int        `json:"page"`
	PageSize    int        `json:"page_size"`
	TotalPages  int        `json:"total_pages"`
	HasNext     bool       `json:"has_next"`
	HasPrevious bool       `json:"has_previous"`
}

// MissionInfo provides information about a mission script in the library
type MissionInfo struct {
	Filename  string         `json:"filename"`
	MissionID string         `json:"mission_id"` // The identifier to pass to RunMission
	GridSize  rover.Position `json:"grid_size"`
	Rovers    int            `json:"rovers"`
	Commands  int            `json:"commands"`
}
