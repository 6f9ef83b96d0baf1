// Package service provides the business logic layer for the rover board.
//
// The service package implements:
//   - Ownership of the live board and serialized access to it
//   - Single and bulk rover commands with per-command results
//   - Act history with pagination
//   - Running missions from a mission library
//
// Core Interfaces:
//
// BoardService is the main service interface providing high-level board
// operations. MissionLibrary loads mission scripts by name and lists what is
// available; game/config provides the file-backed implementation.
//
// Architecture:
//
// The service layer sits between the transport layer (CLI and MCP) and the
// rover board, adding history, reason codes and human-readable messages on
// top of the board's bool results. A rejected command is never an error at
// this layer: the result reports Success false, the rover keeps its pose and
// the reason is one of blocked_boundary, blocked_rover or invalid_command.
// Errors are reserved for requests that cannot be attempted at all, such as
// an unknown rover id or an unparseable command. Boards larger than
// MaxGridSize on either axis are refused with ErrGridTooLarge, whether they
// come from NewBoard or from a mission script.
//
// Usage:
//
//	board, _ := rover.NewBoard(rover.Position{X: 5, Y: 5})
//	missions, err := config.NewManager("missions")
//	if err != nil {
//		log.Fatal(err)
//	}
//	svc := service.NewBoardService(board, missions, logger)
//
//	info, err := svc.CreateRover(ctx, rover.Direction{X: 1, Y: 2, Z: rover.North})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := svc.BulkAct(ctx, info.ID, "LMLMLMLMM")
//
// Bulk Commands:
//
// BulkAct accepts at most MaxBulkActs commands per call and stops at the
// first rejected command. Commands past the limit are dropped and the result
// is marked Truncated.
//
// Missions:
//
// RunMission runs a mission on a fresh board sized by the script, then makes
// that board the live one. Every command the mission issued is recorded in
// the history, so the outcome can be inspected and continued interactively.
package service
