package rover

import (
	"errors"
	"fmt"
	"strings"
)

// Heading is the compass orientation a rover faces
type Heading string

const (
	North Heading = "N"
	East  Heading = "E"
	South Heading = "S"
	West  Heading = "W"
)

// Movement is a single rover command
type Movement string

const (
	Move      Movement = "M" // one cell forward along the heading
	TurnLeft  Movement = "L" // 90 degrees counter-clockwise
	TurnRight Movement = "R" // 90 degrees clockwise
)

var (
	ErrInvalidHeading  = errors.New("invalid heading")
	ErrInvalidMovement = errors.New("invalid movement")
)

// Position is a cell address, and also the grid size descriptor of a Board
// (the largest valid X and Y, both inclusive).
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Direction is the full pose of a rover
type Direction struct {
	X int     `json:"x"`
	Y int     `json:"y"`
	Z Heading `json:"z"`
}

// Position returns the cell the pose occupies
func (d Direction) Position() Position {
	return Position{X: d.X, Y: d.Y}
}

// RoverID is the stable handle a Board assigns to a rover at creation
type RoverID int

// Rover is a handle to one rover living on a Board. Its pose can only be
// changed by the Board that created it.
type Rover struct {
	id  RoverID
	dir Direction
}

// ID returns the rover's handle
func (r *Rover) ID() RoverID {
	return r.id
}

// Direction returns the rover's current pose
func (r *Rover) Direction() Direction {
	return r.dir
}

// Cell is one entry of the grid view
type Cell struct {
	Occupied  bool      `json:"occupied"`
	Rover     RoverID   `json:"rover,omitzero"`
	Direction Direction `json:"direction,omitzero"`
}

// compass is the clockwise cycle used for rotation
var compass = []Heading{North, East, South, West}

func (h Heading) index() int {
	for i, c := range compass {
		if c == h {
			return i
		}
	}
	return -1
}

// Valid reports whether h is one of N, E, S, W
func (h Heading) Valid() bool {
	return h.index() >= 0
}

// Right returns the heading one quarter turn clockwise
func (h Heading) Right() Heading {
	i := h.index()
	if i < 0 {
		return h
	}
	return compass[(i+1)%len(compass)]
}

// Left returns the heading one quarter turn counter-clockwise
func (h Heading) Left() Heading {
	i := h.index()
	if i < 0 {
		return h
	}
	return compass[(i+len(compass)-1)%len(compass)]
}

// Delta returns the unit step for a forward move. North increases Y.
func (h Heading) Delta() (dx, dy int) {
	switch h {
	case North:
		return 0, 1
	case South:
		return 0, -1
	case East:
		return 1, 0
	case West:
		return -1, 0
	}
	return 0, 0
}

// ParseHeading converts a heading letter, in either case, to a Heading
func ParseHeading(s string) (Heading, error) {
	h := Heading(strings.ToUpper(strings.TrimSpace(s)))
	if !h.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidHeading, s)
	}
	return h, nil
}

// Valid reports whether m is one of M, L, R
func (m Movement) Valid() bool {
	switch m {
	case Move, TurnLeft, TurnRight:
		return true
	}
	return false
}

// ParseMovement converts a command letter, in either case, to a Movement
func ParseMovement(s string) (Movement, error) {
	m := Movement(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMovement, s)
	}
	return m, nil
}

// ParseCommands splits a command string such as "LMLMRM" into movements.
// Blanks are ignored.
func ParseCommands(s string) ([]Movement, error) {
	moves := make([]Movement, 0, len(s))
	for i, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		m, err := ParseMovement(string(r))
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i+1, err)
		}
		moves = append(moves, m)
	}
	return moves, nil
}
