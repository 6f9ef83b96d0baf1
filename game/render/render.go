// Package render draws boards and mission results as plain text.
package render

import (
	"fmt"
	"strings"

	"github.com/wricardo/mcp-training/roverboard/game/mission"
	"github.com/wricardo/mcp-training/roverboard/game/rover"
)

// Glyph returns the character used for a rover facing h
func Glyph(h rover.Heading) string {
	switch h {
	case rover.North:
		return "^"
	case rover.East:
		return ">"
	case rover.South:
		return "v"
	case rover.West:
		return "<"
	}
	return "?"
}

// Pose formats a pose the way mission output expects it: "X Y H"
func Pose(d rover.Direction) string {
	return fmt.Sprintf("%d %d %s", d.X, d.Y, d.Z)
}

// Grid draws a grid view with north at the top. Row labels are Y values,
// column labels are X values.
func Grid(grid [][]rover.Cell) string {
	if len(grid) == 0 {
		return ""
	}

	width := len(grid[0])
	label := len(fmt.Sprint(max(len(grid), width) - 1))

	var b strings.Builder
	for y := len(grid) - 1; y >= 0; y-- {
		fmt.Fprintf(&b, "%*d ", label, y)
		for x, cell := range grid[y] {
			if x > 0 {
				b.WriteByte(' ')
			}
			glyph := "."
			if cell.Occupied {
				glyph = Glyph(cell.Direction.Z)
			}
			fmt.Fprintf(&b, "%*s", label, glyph)
		}
		b.WriteByte('\n')
	}

	b.WriteString(strings.Repeat(" ", label+1))
	for x := 0; x < width; x++ {
		if x > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%*d", label, x)
	}
	b.WriteByte('\n')

	return b.String()
}

// Report lists the final pose of every deployment, one per line, in mission
// order. Deployments the board refused are shown as REJECTED with the reason.
func Report(r *mission.Report) string {
	var b strings.Builder
	for _, rr := range r.Rovers {
		if !rr.Placed {
			fmt.Fprintf(&b, "REJECTED (%s)\n", rr.PlacementError)
			continue
		}
		b.WriteString(Pose(rr.Final))
		b.WriteByte('\n')
	}
	return b.String()
}

// Steps lists every command a deployment issued
func Steps(rr mission.RoverReport) string {
	var b strings.Builder
	for _, s := range rr.Steps {
		status := "ok"
		if !s.Success {
			status = s.Reason
		}
		fmt.Fprintf(&b, "%3d %s  %s -> %s  %s\n", s.Idx, s.Command, Pose(s.From), Pose(s.To), status)
	}
	return b.String()
}
