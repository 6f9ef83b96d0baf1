package mission

import (
	"fmt"

	"github.com/wricardo/mcp-training/roverboard/game/rover"
)

// Issue is a problem found in a parsed mission without running it
type Issue struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("line %d: %s", i.Line, i.Message)
}

// Lint checks a mission for deployments that are certain to misbehave:
// starts outside the board, starts on a cell an earlier rover already
// claimed, and rovers with nothing to do. A start cell counts as claimed
// only when the earlier rover never issues a forward move.
func Lint(m *Mission) []Issue {
	var issues []Issue

	if m.GridSize.X < 0 || m.GridSize.Y < 0 {
		issues = append(issues, Issue{Line: 1, Message: fmt.Sprintf("grid size %d %d is negative", m.GridSize.X, m.GridSize.Y)})
		return issues
	}

	parked := make(map[rover.Position]int)
	for _, d := range m.Deployments {
		start := d.Start.Position()

		if start.X < 0 || start.Y < 0 || start.X > m.GridSize.X || start.Y > m.GridSize.Y {
			issues = append(issues, Issue{Line: d.Line, Message: fmt.Sprintf("start %d %d is outside the board", start.X, start.Y)})
			continue
		}

		if line, ok := parked[start]; ok {
			issues = append(issues, Issue{Line: d.Line, Message: fmt.Sprintf("start %d %d is held by the rover from line %d", start.X, start.Y, line)})
			continue
		}

		if len(d.Commands) == 0 {
			issues = append(issues, Issue{Line: d.Line, Message: "rover has no commands"})
		}

		if !moves(d.Commands) {
			parked[start] = d.Line
		}
	}

	return issues
}

func moves(commands []rover.Movement) bool {
	for _, c := range commands {
		if c == rover.Move {
			return true
		}
	}
	return false
}
