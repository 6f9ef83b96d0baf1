package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mcp-training/roverboard/game/mission"
	"github.com/wricardo/mcp-training/roverboard/game/render"
	"github.com/wricardo/mcp-training/roverboard/game/rover"
	"github.com/wricardo/mcp-training/roverboard/game/service"
)

var errMissingArgument = errors.New("missing argument")

// Server exposes a BoardService as MCP tools
type Server struct {
	svc       service.BoardService
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates an MCP server backed by svc
func NewServer(svc service.BoardService, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		svc:    svc,
		logger: logger,
	}

	s.initMCPServer(version)
	return s
}

// initMCPServer initializes the MCP server with all tools
func (s *Server) initMCPServer(version string) {
	s.mcpServer = server.NewMCPServer(
		"Rover Board",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(`Rover Board - MCP Interface

Rovers live on a rectangular grid of cells from (0,0) to the upper-right corner.
Neither coordinate of the corner may exceed ` + fmt.Sprint(service.MaxGridSize) + `.
Each rover has a pose: X Y and a heading N, E, S or W. North is +Y, east is +X.

AVAILABLE TOOLS:
- board_state: Current board with a grid drawing and every rover's pose
- new_board: Replace the board with an empty one of the given size
- create_rover: Place a rover at a pose
- act: Issue one command (M, L or R) to a rover
- bulk_act: Issue a command string such as "LMLMRM" to a rover
- get_cell: Inspect one cell
- act_history: Past commands with pagination
- list_missions: Mission scripts in the library
- run_mission: Run a mission on a fresh board
- board_instructions: Full rules

A blocked move never changes the rover. Check the reason code in the result.`),
	)

	s.registerTools()
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "board_state",
		Description: "Get the current board with every rover's pose",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleBoardState)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "new_board",
		Description: "Replace the board with an empty one. x and y are the upper-right corner.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"x": map[string]interface{}{
					"type":        "integer",
					"description": fmt.Sprintf("Largest X coordinate (at most %d)", service.MaxGridSize),
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": fmt.Sprintf("Largest Y coordinate (at most %d)", service.MaxGridSize),
				},
			},
			Required: []string{"x", "y"},
		},
	}, s.handleNewBoard)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "create_rover",
		Description: "Place a rover on the board",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "X coordinate",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Y coordinate",
				},
				"heading": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"N", "E", "S", "W"},
					"description": "Direction the rover faces",
				},
			},
			Required: []string{"x", "y", "heading"},
		},
	}, s.handleCreateRover)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "act",
		Description: "Issue one command to a rover",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"rover": map[string]interface{}{
					"type":        "integer",
					"description": "Rover id returned by create_rover",
				},
				"command": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"M", "L", "R"},
					"description": "M moves forward one cell, L and R turn in place",
				},
			},
			Required: []string{"rover", "command"},
		},
	}, s.handleAct)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_act",
		Description: fmt.Sprintf("Issue a command string to a rover. Stops at the first blocked command. At most %d commands per call.", service.MaxBulkActs),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"rover": map[string]interface{}{
					"type":        "integer",
					"description": "Rover id returned by create_rover",
				},
				"commands": map[string]interface{}{
					"type":        "string",
					"description": "Commands such as LMLMRM",
				},
			},
			Required: []string{"rover", "commands"},
		},
	}, s.handleBulkAct)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_cell",
		Description: "Get detailed info about a specific grid cell",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "X coordinate",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Y coordinate",
				},
			},
			Required: []string{"x", "y"},
		},
	}, s.handleGetCell)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "act_history",
		Description: "Get the command history",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number (1-based)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": fmt.Sprintf("Entries per page (default %d, max %d)", service.DefaultHistoryLimit, service.MaxHistoryLimit),
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "desc shows the most recent first",
				},
			},
		},
	}, s.handleActHistory)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_missions",
		Description: "List mission scripts in the library",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"refresh": map[string]interface{}{
					"type":        "boolean",
					"description": "Re-read scripts from disk",
				},
			},
		},
	}, s.handleListMissions)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "run_mission",
		Description: "Run a mission on a fresh board. The result becomes the current board.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Mission id from list_missions",
				},
				"halt_on_blocked": map[string]interface{}{
					"type":        "boolean",
					"description": "Stop a rover at its first blocked command instead of skipping it",
				},
			},
			Required: []string{"name"},
		},
	}, s.handleRunMission)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "board_instructions",
		Description: "Get the rules of the rover board",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleBoardInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves the tools on stdin and stdout until the client disconnects
func (s *Server) ServeStdio() error {
	s.logger.Info("serving MCP on stdio")
	return server.ServeStdio(s.mcpServer)
}

// Argument helpers

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArg reads a whole-number argument. JSON numbers arrive as float64.
func intArg(args map[string]interface{}, key string) (int, error) {
	switch v := args[key].(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("argument %s must be a whole number, got %v", key, v)
		}
		if v < math.MinInt || v >= math.MaxInt {
			return 0, fmt.Errorf("argument %s is out of range", key)
		}
		return int(v), nil
	case int:
		return v, nil
	case nil:
		return 0, fmt.Errorf("%w: %s", errMissingArgument, key)
	default:
		return 0, fmt.Errorf("argument %s must be a number", key)
	}
}

func stringArg(args map[string]interface{}, key string) (string, error) {
	v, _ := args[key].(string)
	if v == "" {
		return "", fmt.Errorf("%w: %s", errMissingArgument, key)
	}
	return v, nil
}

func positionArgs(args map[string]interface{}) (rover.Position, error) {
	x, err := intArg(args, "x")
	if err != nil {
		return rover.Position{}, err
	}
	y, err := intArg(args, "y")
	if err != nil {
		return rover.Position{}, err
	}
	return rover.Position{X: x, Y: y}, nil
}

// Tool handlers

func (s *Server) handleBoardState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := s.svc.State(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatBoardState(state)), nil
}

func (s *Server) handleNewBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	size, err := positionArgs(arguments(request))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	state, err := s.svc.NewBoard(ctx, size)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created %dx%d board\n\n%s", size.X+1, size.Y+1, formatBoardState(state))
	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleCreateRover(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	pos, err := positionArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := stringArg(args, "heading")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	heading, err := rover.ParseHeading(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	info, err := s.svc.CreateRover(ctx, rover.Direction{X: pos.X, Y: pos.Y, Z: heading})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created rover %d at %s", info.ID, render.Pose(info.Direction))
	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleAct(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	id, err := intArg(args, "rover")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	command, err := stringArg(args, "command")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.svc.Act(ctx, rover.RoverID(id), command)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActResult(result)), nil
}

func (s *Server) handleBulkAct(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	id, err := intArg(args, "rover")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	commands, err := stringArg(args, "commands")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.svc.BulkAct(ctx, rover.RoverID(id), commands)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkActResult(result)), nil
}

func (s *Server) handleGetCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pos, err := positionArgs(arguments(request))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	cell, err := s.svc.GetCell(ctx, pos)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatCell(cell)), nil
}

func (s *Server) handleActHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	opts := service.HistoryOptions{}
	if page, err := intArg(args, "page"); err == nil {
		opts.Page = page
	}
	if limit, err := intArg(args, "limit"); err == nil {
		opts.Limit = limit
	}
	opts.Order, _ = args["order"].(string)

	history, err := s.svc.History(ctx, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(history)), nil
}

func (s *Server) handleListMissions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if refresh, _ := arguments(request)["refresh"].(bool); refresh {
		if err := s.svc.ReloadMissions(ctx); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	missions, err := s.svc.ListMissions(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(missions) == 0 {
		return mcp.NewToolResultText("No missions available"), nil
	}

	var result strings.Builder
	result.WriteString("Available Missions:\n\n")
	for _, m := range missions {
		fmt.Fprintf(&result, "• %s (%s)\n  Grid: %dx%d, Rovers: %d, Commands: %d\n\n",
			m.MissionID, m.Filename, m.GridSize.X+1, m.GridSize.Y+1, m.Rovers, m.Commands)
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (s *Server) handleRunMission(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	name, err := stringArg(args, "name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	halt, _ := args["halt_on_blocked"].(bool)

	report, err := s.svc.RunMission(ctx, name, mission.RunOptions{HaltOnBlocked: halt, Logger: s.logger})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatReport(report)), nil
}

func (s *Server) handleBoardInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Rover Board - Complete Instructions

THE BOARD:
• Cells run from (0,0) in the lower-left to (X,Y) in the upper-right, inclusive
• A 5 5 board therefore has 6x6 cells
• North is +Y, East is +X, South is -Y, West is -X
• At most one rover occupies a cell

ROVERS:
• A rover's pose is X Y H, for example "1 2 N"
• Rovers are identified by the id create_rover returns, starting at 0
• A placement outside the board or on an occupied cell is rejected and uses no id

COMMANDS:
• M - move forward one cell in the current heading
• L - turn 90 degrees left in place
• R - turn 90 degrees right in place
• Turns always succeed

BLOCKED MOVES:
• blocked_boundary - the next cell is outside the board
• blocked_rover - the next cell holds another rover
• A blocked move leaves the rover exactly where it was
• bulk_act stops at the first blocked command

MISSIONS:
• A mission script is the board's upper-right corner followed by one pose
  line and one command line per rover
• Rovers are deployed one at a time; each finishes its commands before the
  next is placed
• Blocked commands are skipped unless halt_on_blocked is set

GRID LEGEND:
• ^ > v < - a rover facing N, E, S, W
• . - empty cell
• Rows are drawn north-up with Y labels on the left and X labels underneath`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatBoardState(state *service.BoardState) string {
	var result strings.Builder

	fmt.Fprintf(&result, "Board: %dx%d | Rovers: %d | Acts: %d\n",
		state.GridSize.X+1, state.GridSize.Y+1, len(state.Rovers), state.TotalActs)
	if state.Mission != "" {
		fmt.Fprintf(&result, "Mission: %s\n", state.Mission)
	}
	result.WriteString("\n")
	result.WriteString(render.Grid(state.Grid))

	if len(state.Rovers) > 0 {
		result.WriteString("\nRovers:\n")
		for _, r := range state.Rovers {
			fmt.Fprintf(&result, "  %d: %s\n", r.ID, render.Pose(r.Direction))
		}
	}

	return result.String()
}

func formatActResult(result *service.ActResult) string {
	status := "✓ Command executed"
	if !result.Success {
		status = fmt.Sprintf("✗ Command blocked (%s)", result.Entry.Reason)
	}
	return fmt.Sprintf("%s\n%s\nRover %d: %s",
		status, result.Message, result.Rover.ID, render.Pose(result.Rover.Direction))
}

func formatBulkActResult(result *service.BulkActResult) string {
	var out strings.Builder

	if result.Success {
		fmt.Fprintf(&out, "✓ Executed %d/%d commands\n", result.ActsExecuted, result.RequestedActs)
	} else {
		fmt.Fprintf(&out, "✗ Stopped after %d/%d commands (%s)\n", result.ActsExecuted, result.RequestedActs, result.StopReasonCode)
	}
	if result.Truncated {
		fmt.Fprintf(&out, "Only the first %d commands were run\n", result.Limit)
	}
	if result.Message != "" {
		out.WriteString(result.Message)
		out.WriteString("\n")
	}
	fmt.Fprintf(&out, "Start: %s\nEnd:   %s\n", render.Pose(result.StartPose), render.Pose(result.EndPose))

	if len(result.Steps) > 0 {
		out.WriteString("\nSteps:\n")
		for i, step := range result.Steps {
			out.WriteString(formatStepLine(i+1, step))
		}
	}

	return out.String()
}

func formatStepLine(idx int, entry service.ActEntry) string {
	status := "ok"
	if !entry.Success {
		status = entry.Reason
	}
	return fmt.Sprintf("%3d %s  %s -> %s  %s\n", idx, entry.Command, render.Pose(entry.From), render.Pose(entry.To), status)
}

func formatCell(cell *service.CellInfo) string {
	var result strings.Builder
	fmt.Fprintf(&result, "Cell at position (%d, %d):\n", cell.Position.X, cell.Position.Y)

	switch {
	case !cell.InBounds:
		result.WriteString("Outside the board")
	case cell.Occupied && cell.Rover != nil:
		fmt.Fprintf(&result, "Occupied by rover %d facing %s (%s)",
			cell.Rover.ID, cell.Rover.Direction.Z, render.Glyph(cell.Rover.Direction.Z))
	default:
		result.WriteString("Empty")
	}

	return result.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var result strings.Builder
	fmt.Fprintf(&result, "History: page %d/%d (%d acts total)\n\n",
		history.Page, history.TotalPages, history.TotalActs)

	if len(history.Acts) == 0 {
		result.WriteString("No acts recorded\n")
		return result.String()
	}

	for _, act := range history.Acts {
		status := "ok"
		if !act.Success {
			status = act.Reason
		}
		fmt.Fprintf(&result, "#%d rover %d %s  %s -> %s  %s\n",
			act.ActNumber, act.Rover, act.Command, render.Pose(act.From), render.Pose(act.To), status)
	}

	return result.String()
}

func formatReport(report *mission.Report) string {
	var result strings.Builder
	fmt.Fprintf(&result, "Mission %s on a %dx%d board\n\n", report.Name, report.GridSize.X+1, report.GridSize.Y+1)

	result.WriteString("Final poses:\n")
	result.WriteString(render.Report(report))

	for _, rr := range report.Rovers {
		if rr.Rejected > 0 {
			fmt.Fprintf(&result, "Deployment %d: %d commands blocked", rr.Index, rr.Rejected)
			if rr.Halted {
				result.WriteString(", halted")
			}
			result.WriteString("\n")
		}
	}

	result.WriteString("\n")
	result.WriteString(render.Grid(report.Grid))
	return result.String()
}
