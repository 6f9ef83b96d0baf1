// Package config provides the mission library for the rover board.
//
// The config package handles:
//   - Loading mission scripts from a directory of *.mission files
//   - Caching parsed missions
//   - Mission discovery and listing
//   - Writing missions back to the library
//
// Mission Format:
//
// A mission script is plain text. The first line is the upper-right corner
// of the board; each rover then takes a pose line and an optional command
// line:
//
//	5 5
//	1 2 N
//	LMLMLMLMM
//	3 3 E
//	MMRMMRMRRM
//
// See package mission for the grammar and the run semantics.
//
// Usage:
//
//	manager, err := config.NewManager("missions")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Load a specific mission
//	m, err := manager.LoadMission("classic")
//
//	// List available missions
//	missions, err := manager.ListMissions()
//
// Manager satisfies service.MissionLibrary. Scripts that fail to parse are
// reported by LoadMission with ErrInvalidMission and skipped by ListMissions.
package config
