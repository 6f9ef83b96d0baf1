package mission

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/wricardo/mcp-training/roverboard/game/rover"
)

var ErrInvalidScript = errors.New("invalid mission script")

// Mission is a parsed mission script: a board size and the rovers to deploy
// on it, in order.
type Mission struct {
	Name        string         `json:"name"`
	GridSize    rover.Position `json:"grid_size"`
	Deployments []Deployment   `json:"deployments"`
}

// Deployment is one rover's starting pose and the commands it executes
type Deployment struct {
	Start    rover.Direction  `json:"start"`
	Commands []rover.Movement `json:"commands"`
	Line     int              `json:"line"`
}

type script struct {
	Size   *sizeLine     `parser:"@@"`
	Rovers []*roverBlock `parser:"@@*"`
}

type sizeLine struct {
	Pos lexer.Position
	X   *number `parser:"@@"`
	Y   *number `parser:"@@"`
}

type roverBlock struct {
	Pos      lexer.Position
	X        *number  `parser:"@@"`
	Y        *number  `parser:"@@"`
	Heading  string   `parser:"@Ident"`
	Commands []string `parser:"@Ident*"`
}

type number struct {
	Neg   bool `parser:"@'-'?"`
	Value int  `parser:"@Int"`
}

func (n *number) int() int {
	if n.Neg {
		return -n.Value
	}
	return n.Value
}

var parser = participle.MustBuild[script]()

// ParseString parses a mission script held in memory
func ParseString(name, src string) (*Mission, error) {
	s, err := parser.ParseString(name, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	return build(name, s)
}

// Parse reads and parses a mission script
func Parse(name string, r io.Reader) (*Mission, error) {
	s, err := parser.Parse(name, r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	return build(name, s)
}

func build(name string, s *script) (*Mission, error) {
	m := &Mission{
		Name:        name,
		GridSize:    rover.Position{X: s.Size.X.int(), Y: s.Size.Y.int()},
		Deployments: make([]Deployment, 0, len(s.Rovers)),
	}

	for _, block := range s.Rovers {
		heading, err := rover.ParseHeading(block.Heading)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidScript, block.Pos, err)
		}

		commands, err := rover.ParseCommands(strings.Join(block.Commands, ""))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidScript, block.Pos, err)
		}

		m.Deployments = append(m.Deployments, Deployment{
			Start:    rover.Direction{X: block.X.int(), Y: block.Y.int(), Z: heading},
			Commands: commands,
			Line:     block.Pos.Line,
		})
	}

	return m, nil
}

// Format writes m back as a mission script
func Format(m *Mission) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %d\n", m.GridSize.X, m.GridSize.Y)
	for _, d := range m.Deployments {
		fmt.Fprintf(&b, "%d %d %s\n", d.Start.X, d.Start.Y, d.Start.Z)
		if len(d.Commands) > 0 {
			for _, c := range d.Commands {
				b.WriteString(string(c))
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}
