// Package mission parses rover mission scripts and runs them on a board.
//
// A script starts with the board's grid size and is followed by one block per
// rover: its starting pose and an optional command string.
//
//	5 5
//	1 2 N
//	LMLMLMLMM
//	3 3 E
//	MMRMMRMRRM
//
// Rovers are deployed in order and each finishes its commands before the next
// is placed, so a later rover sees earlier rovers at their final cells.
package mission
