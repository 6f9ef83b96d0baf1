// Package rover provides the board simulation for directional rovers on a
// bounded grid.
//
// The rover package implements:
//   - Grid bounds and coordinate validation
//   - Rover placement with collision avoidance
//   - Rotation (L, R) and forward movement (M) along a heading
//   - A derived occupancy grid recomputed from the live rovers
//
// Core Types:
//
// Board owns the grid size and every rover on it and is the only type that
// mutates rover poses. Rover is a handle to one rover, identified by a
// RoverID assigned at creation. Direction is a rover's full pose: X, Y and
// the heading Z.
//
// Coordinates:
//
// A board created with grid size {X: 5, Y: 5} spans 0..5 on both axes, so it
// has 6x6 cells. North increases Y, East increases X. Grid() is indexed
// [y][x].
//
// Usage:
//
//	board, err := rover.NewBoard(rover.Position{X: 5, Y: 5})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	r, ok := board.CreateRover(rover.Direction{X: 1, Y: 2, Z: rover.North})
//	if !ok {
//		log.Fatal("cell taken or out of bounds")
//	}
//
//	pose, ok := board.ActRover(r.ID(), rover.Move)
//
// Rejections:
//
// Placements and moves that would leave the board or enter an occupied cell
// are rejected and leave every pose untouched. The boolean forms report the
// rejection as false; PlaceRover and Apply return the reason as one of the
// package's sentinel errors.
//
// A Board has no internal locking. Callers sharing one across goroutines
// must serialize access.
package rover
