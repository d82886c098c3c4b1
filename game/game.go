package game

import (
	"golang.org/x/exp/rand"
)

// DeathCause records why a snake died, for reward shaping.
type DeathCause int

const (
	DeathNone DeathCause = iota
	DeathSelfCollision
	DeathWall
)

// InitialLength is the snake length at the start of every episode.
const InitialLength = 3

// Config holds the per-game simulation parameters.
type Config struct {
	Width  int
	Height int
	// WrapWorld makes the grid toroidal; when false walls are solid and fatal.
	WrapWorld bool
	// AspectCorrection slows horizontal movement to every other tick, for
	// hosts whose cells are twice as tall as wide (terminal fonts).
	AspectCorrection bool
}

// Game is a single-episode snake simulation. The body slice holds the snake
// head-first; bodySet mirrors it for O(1) membership checks.
type Game struct {
	cfg     Config
	body    []Point
	bodySet map[Point]struct{}
	dir     Direction
	apple   Point
	alive   bool
	score   int
	paused  bool
	death   DeathCause

	horizontalTick int
	rng            *rand.Rand
}

// New creates a game with a length-3 snake centered on the grid, heading
// right, and a randomly placed apple.
func New(cfg Config, rng *rand.Rand) *Game {
	g := &Game{
		cfg:     cfg,
		bodySet: make(map[Point]struct{}, InitialLength),
		rng:     rng,
	}
	startX := cfg.Width / 2
	startY := cfg.Height / 2
	for i := 0; i < InitialLength; i++ {
		p := Point{X: startX - i, Y: startY}
		g.body = append(g.body, p)
		g.bodySet[p] = struct{}{}
	}
	g.dir = Right
	g.alive = true
	g.placeApple()
	return g
}

// placeApple rejection-samples a free cell for the apple. Callers must not
// invoke it on a full grid; sampling would never terminate there.
func (g *Game) placeApple() {
	for {
		p := Point{X: g.rng.Intn(g.cfg.Width), Y: g.rng.Intn(g.cfg.Height)}
		if _, occupied := g.bodySet[p]; !occupied {
			g.apple = p
			return
		}
	}
}

// Step advances the game by one tick: move the head, resolve wall/self/apple
// collisions, grow or shift the body. No-op when dead or paused.
func (g *Game) Step() {
	if !g.alive || g.paused {
		return
	}

	if g.cfg.AspectCorrection && (g.dir == Left || g.dir == Right) {
		g.horizontalTick++
		if g.horizontalTick < 2 {
			return
		}
		g.horizontalTick = 0
	}

	head := g.Head()
	off := g.dir.Offset()
	newX := head.X + off.X
	newY := head.Y + off.Y

	if g.cfg.WrapWorld {
		if newX < 0 {
			newX = g.cfg.Width - 1
		} else if newX >= g.cfg.Width {
			newX = 0
		}
		if newY < 0 {
			newY = g.cfg.Height - 1
		} else if newY >= g.cfg.Height {
			newY = 0
		}
	} else if newX < 0 || newX >= g.cfg.Width || newY < 0 || newY >= g.cfg.Height {
		g.death = DeathWall
		g.alive = false
		return
	}
	newHead := Point{X: newX, Y: newY}

	// Self collision is checked before the apple: a body cell under the
	// apple kills, it does not feed.
	if _, hit := g.bodySet[newHead]; hit {
		g.death = DeathSelfCollision
		g.alive = false
		return
	}

	g.body = append([]Point{newHead}, g.body...)
	g.bodySet[newHead] = struct{}{}

	if newHead == g.apple {
		g.score++
		if len(g.body) >= g.cfg.Width*g.cfg.Height {
			// Snake fills the grid: solved, nowhere left for an apple.
			return
		}
		g.placeApple()
	} else {
		tail := g.body[len(g.body)-1]
		g.body = g.body[:len(g.body)-1]
		delete(g.bodySet, tail)
	}
}

// ChangeDir updates the heading, silently rejecting 180-degree reversals.
func (g *Game) ChangeDir(d Direction) {
	if d == g.dir.Opposite() {
		return
	}
	g.dir = d
}

// Head returns the snake's head position.
func (g *Game) Head() Point {
	if len(g.body) == 0 {
		panic("game: empty snake body")
	}
	return g.body[0]
}

// Contains reports whether the point is occupied by the snake.
func (g *Game) Contains(p Point) bool {
	_, ok := g.bodySet[p]
	return ok
}

// AppleDistance returns the Manhattan distance from the head to the apple.
func (g *Game) AppleDistance() int {
	head := g.Head()
	return abs(g.apple.X-head.X) + abs(g.apple.Y-head.Y)
}

// InBounds reports whether the point lies on the grid.
func (g *Game) InBounds(p Point) bool {
	return p.X >= 0 && p.X < g.cfg.Width && p.Y >= 0 && p.Y < g.cfg.Height
}

// Body returns the snake body, head first. The slice is shared; callers that
// retain it across Step must copy.
func (g *Game) Body() []Point { return g.body }

// Length returns the current snake length.
func (g *Game) Length() int { return len(g.body) }

func (g *Game) Apple() Point      { return g.apple }
func (g *Game) Dir() Direction    { return g.dir }
func (g *Game) Alive() bool       { return g.alive }
func (g *Game) Score() int        { return g.score }
func (g *Game) Death() DeathCause { return g.death }
func (g *Game) Paused() bool      { return g.paused }
func (g *Game) SetPaused(p bool)  { g.paused = p }
func (g *Game) Width() int        { return g.cfg.Width }
func (g *Game) Height() int       { return g.cfg.Height }
func (g *Game) WrapWorld() bool   { return g.cfg.WrapWorld }

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
