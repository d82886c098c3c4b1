package ai

import (
	"snake-evo/game"
)

// visionOffsets are the 8 cells sampled around the head, in the snake's own
// frame: the three ahead first, then left/right, then the three behind.
var visionOffsets = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

const (
	cellEmpty  = 0
	cellDanger = 1
	cellApple  = 2
)

// WorldView is the read-only slice of a game state the encoder needs.
// *game.Game satisfies it.
type WorldView interface {
	Head() game.Point
	Apple() game.Point
	Dir() game.Direction
	Contains(p game.Point) bool
	InBounds(p game.Point) bool
}

// EncodeState packs a game snapshot into a 20-bit state key: 16 bits of local
// vision (2 bits per sampled cell), 2 bits of apple bearing relative to the
// heading, and 2 bits of Manhattan-distance bucket. The vision offsets are
// rotated into world space by the current heading, so the key is invariant
// under rotation of the whole world.
func EncodeState(g WorldView) uint32 {
	head := g.Head()
	apple := g.Apple()
	dir := g.Dir()

	var k uint32
	bitPos := 0
	for _, off := range visionOffsets {
		dx, dy := off[0], off[1]
		var wx, wy int
		switch dir {
		case game.Right:
			wx, wy = dy, dx
		case game.Left:
			wx, wy = -dy, -dx
		case game.Up:
			wx, wy = dx, -dy
		case game.Down:
			wx, wy = -dx, dy
		}
		p := game.Point{X: head.X + wx, Y: head.Y + wy}

		var cell uint32
		switch {
		case !g.InBounds(p) || g.Contains(p):
			cell = cellDanger
		case p == apple:
			cell = cellApple
		default:
			cell = cellEmpty
		}
		k |= cell << bitPos
		bitPos += 2
	}

	k |= appleBearing(dir, apple.X-head.X, apple.Y-head.Y) << 16
	k |= distanceBucket(abs(apple.X-head.X)+abs(apple.Y-head.Y)) << 18
	return k
}

// appleBearing classifies the apple as left (0), straight-ish (1), or right
// (2) of the heading, with a one-cell dead zone around straight.
func appleBearing(dir game.Direction, dx, dy int) uint32 {
	switch dir {
	case game.Right:
		if dy < -1 {
			return 0
		} else if dy > 1 {
			return 2
		}
	case game.Left:
		if dy > 1 {
			return 0
		} else if dy < -1 {
			return 2
		}
	case game.Up:
		if dx < -1 {
			return 0
		} else if dx > 1 {
			return 2
		}
	case game.Down:
		if dx > 1 {
			return 0
		} else if dx < -1 {
			return 2
		}
	}
	return 1
}

func distanceBucket(dist int) uint32 {
	switch {
	case dist <= 3:
		return 0
	case dist <= 8:
		return 1
	case dist <= 16:
		return 2
	default:
		return 3
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
