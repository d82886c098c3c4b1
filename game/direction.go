package game

// Point is an integer grid position in cell coordinates.
type Point struct {
	X, Y int
}

// Direction is one of the four cardinal headings of the snake.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Action is a heading-relative move: turn left, keep straight, or turn right.
type Action int

const (
	ActionLeft Action = iota
	ActionStraight
	ActionRight
)

// Offset returns the one-cell displacement for the direction.
func (d Direction) Offset() Point {
	switch d {
	case Up:
		return Point{X: 0, Y: -1}
	case Down:
		return Point{X: 0, Y: 1}
	case Left:
		return Point{X: -1, Y: 0}
	case Right:
		return Point{X: 1, Y: 0}
	default:
		return Point{}
	}
}

// Opposite returns the 180-degree reversal of the direction.
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	default:
		return Left
	}
}

// TurnLeft rotates the direction 90 degrees counter-clockwise.
func (d Direction) TurnLeft() Direction {
	switch d {
	case Up:
		return Left
	case Left:
		return Down
	case Down:
		return Right
	default:
		return Up
	}
}

// TurnRight rotates the direction 90 degrees clockwise.
func (d Direction) TurnRight() Direction {
	switch d {
	case Up:
		return Right
	case Right:
		return Down
	case Down:
		return Left
	default:
		return Up
	}
}

// Apply resolves a relative action against the current heading.
func (d Direction) Apply(a Action) Direction {
	switch a {
	case ActionLeft:
		return d.TurnLeft()
	case ActionRight:
		return d.TurnRight()
	default:
		return d
	}
}
