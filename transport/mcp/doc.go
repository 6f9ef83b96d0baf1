// Package mcp provides the Model Context Protocol server for the rover board.
//
// The mcp package implements:
//   - MCP server for AI agent integration
//   - Tool definitions for board operations
//   - Text formatting of boards, results and history
//   - Stdio transport
//
// MCP Tools:
//
// The package exposes the following tools for AI agents:
//   - board_state: Get the board with a grid drawing and every rover's pose
//   - new_board: Replace the board with an empty one
//   - create_rover: Place a rover
//   - act: Issue a single command (M, L, R)
//   - bulk_act: Issue a command string, stopping at the first blocked command
//   - get_cell: Inspect one cell
//   - act_history: Retrieve command history with pagination
//   - list_missions: List mission scripts in the library
//   - run_mission: Run a mission on a fresh board
//   - board_instructions: Get the full rules
//
// Tool failures are returned as tool results with IsError set, never as
// protocol errors, so agents can read the message and retry.
//
// Usage:
//
//	svc := service.NewBoardService(board, missions, logger)
//	server := mcp.NewServer(svc, version, logger)
//	if err := server.ServeStdio(); err != nil {
//		log.Fatal(err)
//	}
//
// The server calls the BoardService in process. There is one board per
// server; run_mission and new_board replace it.
package mcp
