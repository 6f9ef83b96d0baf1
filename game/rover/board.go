package rover

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidGridSize = errors.New("invalid grid size")
	ErrOutOfBounds     = errors.New("position out of bounds")
	ErrOccupied        = errors.New("cell occupied")
	ErrUnknownRover    = errors.New("unknown rover")
)

// Board owns the grid bounds and every rover placed on it. It is the only
// place where rover poses change.
//
// A Board is not safe for concurrent use; hosts that share one must
// serialize access themselves.
type Board struct {
	gridSize Position
	rovers   []*Rover
}

// NewBoard creates an empty board spanning (gridSize.X+1) x (gridSize.Y+1) cells.
// Sizes whose cell count does not fit in an int are rejected.
func NewBoard(gridSize Position) (*Board, error) {
	if gridSize.X < 0 || gridSize.Y < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidGridSize, gridSize.X, gridSize.Y)
	}
	if gridSize.X == math.MaxInt || gridSize.Y == math.MaxInt || gridSize.X+1 > math.MaxInt/(gridSize.Y+1) {
		return nil, fmt.Errorf("%w: %dx%d overflows", ErrInvalidGridSize, gridSize.X, gridSize.Y)
	}
	return &Board{gridSize: gridSize}, nil
}

// GridSize returns the largest valid X and Y of the board
func (b *Board) GridSize() Position {
	return b.gridSize
}

// Len returns the number of rovers on the board
func (b *Board) Len() int {
	return len(b.rovers)
}

// Rovers returns the rovers in creation order
func (b *Board) Rovers() []*Rover {
	out := make([]*Rover, len(b.rovers))
	copy(out, b.rovers)
	return out
}

// Rover looks up a rover by handle
func (b *Board) Rover(id RoverID) (*Rover, bool) {
	if id < 0 || int(id) >= len(b.rovers) {
		return nil, false
	}
	return b.rovers[id], true
}

// InBounds reports whether p addresses a cell of the board
func (b *Board) InBounds(p Position) bool {
	return p.X >= 0 && p.X <= b.gridSize.X && p.Y >= 0 && p.Y <= b.gridSize.Y
}

// CreateRover places a new rover at d. It returns false, and changes nothing,
// when the pose is outside the board, the heading is invalid or the cell is
// already taken.
func (b *Board) CreateRover(d Direction) (*Rover, bool) {
	r, err := b.PlaceRover(d)
	if err != nil {
		return nil, false
	}
	return r, true
}

// PlaceRover is CreateRover with the rejection reason
func (b *Board) PlaceRover(d Direction) (*Rover, error) {
	if !b.InBounds(d.Position()) {
		return nil, fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, d.X, d.Y)
	}
	if !d.Z.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHeading, d.Z)
	}
	if occupant := b.occupant(d.Position()); occupant != nil {
		return nil, fmt.Errorf("%w: (%d,%d) by rover %d", ErrOccupied, d.X, d.Y, occupant.id)
	}

	r := &Rover{id: RoverID(len(b.rovers)), dir: d}
	b.rovers = append(b.rovers, r)
	return r, nil
}

// GetCell returns the pose of the rover at p, if any
func (b *Board) GetCell(p Position) (Direction, bool) {
	if !b.InBounds(p) {
		return Direction{}, false
	}
	if r := b.occupant(p); r != nil {
		return r.dir, true
	}
	return Direction{}, false
}

// Act applies m to the rover whose current pose is exactly pose. A pose that
// no rover currently holds is rejected without touching any rover. On
// failure the returned Direction is the unchanged pose of the matched rover
// (or pose itself when nothing matched) and the bool is false.
func (b *Board) Act(pose Direction, m Movement) (Direction, bool) {
	r := b.occupant(pose.Position())
	if r == nil || r.dir != pose {
		return pose, false
	}
	return b.ActRover(r.id, m)
}

// ActRover applies m to the rover with the given handle. On failure it
// returns the rover's unchanged pose and false.
func (b *Board) ActRover(id RoverID, m Movement) (Direction, bool) {
	d, err := b.Apply(id, m)
	return d, err == nil
}

// Apply performs a single pose transition for rover id. Rotations always
// succeed; a forward move is rejected when the next cell is off the board or
// held by another rover. Nothing changes on rejection.
func (b *Board) Apply(id RoverID, m Movement) (Direction, error) {
	r, ok := b.Rover(id)
	if !ok {
		return Direction{}, fmt.Errorf("%w: %d", ErrUnknownRover, id)
	}

	switch m {
	case TurnLeft:
		r.dir.Z = r.dir.Z.Left()
	case TurnRight:
		r.dir.Z = r.dir.Z.Right()
	case Move:
		next, err := b.nextCell(r)
		if err != nil {
			return r.dir, err
		}
		r.dir.X, r.dir.Y = next.X, next.Y
	default:
		return r.dir, fmt.Errorf("%w: %q", ErrInvalidMovement, m)
	}

	return r.dir, nil
}

// Grid builds the occupancy view, indexed [y][x]. It is recomputed from the
// rovers on every call.
func (b *Board) Grid() [][]Cell {
	grid := make([][]Cell, b.gridSize.Y+1)
	for y := range grid {
		grid[y] = make([]Cell, b.gridSize.X+1)
	}
	for _, r := range b.rovers {
		grid[r.dir.Y][r.dir.X] = Cell{Occupied: true, Rover: r.id, Direction: r.dir}
	}
	return grid
}

// NextCell returns the cell rover id would enter with a forward move, and why
// that move would be rejected, without moving it.
func (b *Board) NextCell(id RoverID) (Position, error) {
	r, ok := b.Rover(id)
	if !ok {
		return Position{}, fmt.Errorf("%w: %d", ErrUnknownRover, id)
	}
	return b.nextCell(r)
}

func (b *Board) nextCell(r *Rover) (Position, error) {
	dx, dy := r.dir.Z.Delta()
	next := Position{X: r.dir.X + dx, Y: r.dir.Y + dy}

	if !b.InBounds(next) {
		return next, fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, next.X, next.Y)
	}
	if other := b.occupant(next); other != nil && other != r {
		return next, fmt.Errorf("%w: (%d,%d) by rover %d", ErrOccupied, next.X, next.Y, other.id)
	}
	return next, nil
}

// occupant returns the rover at p or nil
func (b *Board) occupant(p Position) *Rover {
	for _, r := range b.rovers {
		if r.dir.X == p.X && r.dir.Y == p.Y {
			return r
		}
	}
	return nil
}
