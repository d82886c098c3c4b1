package game

import (
	"testing"

	"golang.org/x/exp/rand"
)

func newTestGame(t *testing.T, cfg Config, seed uint64) *Game {
	t.Helper()
	return New(cfg, rand.New(rand.NewSource(seed)))
}

func TestDirectionRotationClosure(t *testing.T) {
	for _, d := range []Direction{Up, Down, Left, Right} {
		if got := d.TurnLeft().TurnRight(); got != d {
			t.Errorf("TurnLeft then TurnRight of %v = %v", d, got)
		}
		if got := d.TurnLeft().TurnLeft(); got != d.Opposite() {
			t.Errorf("double TurnLeft of %v = %v, want %v", d, got, d.Opposite())
		}
		if got := d.Apply(ActionStraight); got != d {
			t.Errorf("Apply straight changed %v to %v", d, got)
		}
	}
}

func TestChangeDirRejectsReversal(t *testing.T) {
	g := newTestGame(t, Config{Width: 10, Height: 10}, 1)
	if g.Dir() != Right {
		t.Fatalf("initial dir = %v, want Right", g.Dir())
	}
	g.ChangeDir(Left)
	if g.Dir() != Right {
		t.Errorf("reversal accepted: dir = %v", g.Dir())
	}
	g.ChangeDir(Up)
	if g.Dir() != Up {
		t.Errorf("turn rejected: dir = %v", g.Dir())
	}
	g.ChangeDir(Down)
	if g.Dir() != Up {
		t.Errorf("reversal after turn accepted: dir = %v", g.Dir())
	}
}

func TestWrapWorld(t *testing.T) {
	g := newTestGame(t, Config{Width: 6, Height: 6, WrapWorld: true}, 2)
	// Walk right until the head wraps back to column 0.
	for i := 0; i < 6; i++ {
		g.Step()
		if !g.Alive() {
			t.Fatalf("snake died at step %d in wrapped world", i)
		}
	}
	if g.Head().X >= 6 || g.Head().X < 0 {
		t.Errorf("head x = %d after wrapping", g.Head().X)
	}
}

func TestSolidWallKills(t *testing.T) {
	g := newTestGame(t, Config{Width: 6, Height: 6}, 3)
	for i := 0; i < 10 && g.Alive(); i++ {
		g.Step()
	}
	if g.Alive() {
		t.Fatal("snake survived walking into a solid wall")
	}
	if g.Death() != DeathWall {
		t.Errorf("death cause = %v, want DeathWall", g.Death())
	}
	// A dead game must be inert.
	head := g.Head()
	g.Step()
	if g.Head() != head {
		t.Error("Step moved a dead snake")
	}
}

func TestSelfCollision(t *testing.T) {
	g := newTestGame(t, Config{Width: 20, Height: 20, WrapWorld: true}, 4)
	// A snake of length 3 cannot self-collide in three turns; grow it first
	// by planting the apple directly ahead.
	g.apple = Point{X: g.Head().X + 1, Y: g.Head().Y}
	g.Step()
	g.apple = Point{X: g.Head().X + 1, Y: g.Head().Y}
	g.Step()
	if g.Length() != 5 {
		t.Fatalf("length = %d after two apples, want 5", g.Length())
	}
	// Turn a tight box: up, left, down runs the head into the body.
	g.ChangeDir(Up)
	g.Step()
	g.ChangeDir(Left)
	g.Step()
	g.ChangeDir(Down)
	g.Step()
	if g.Alive() {
		t.Fatal("snake survived a tight box turn")
	}
	if g.Death() != DeathSelfCollision {
		t.Errorf("death cause = %v, want DeathSelfCollision", g.Death())
	}
}

func TestAppleGrowsSnakeAndScores(t *testing.T) {
	g := newTestGame(t, Config{Width: 12, Height: 12, WrapWorld: true}, 5)
	startLen := g.Length()
	g.apple = Point{X: g.Head().X + 1, Y: g.Head().Y}
	g.Step()
	if g.Score() != 1 {
		t.Errorf("score = %d, want 1", g.Score())
	}
	if g.Length() != startLen+1 {
		t.Errorf("length = %d, want %d", g.Length(), startLen+1)
	}
	if g.Contains(g.Apple()) {
		t.Error("new apple placed on the snake body")
	}
}

func TestAppleNeverOnBody(t *testing.T) {
	g := newTestGame(t, Config{Width: 5, Height: 5, WrapWorld: true}, 6)
	for i := 0; i < 200; i++ {
		g.placeApple()
		if g.Contains(g.apple) {
			t.Fatalf("apple on body at iteration %d", i)
		}
	}
}

func TestAspectCorrectionHalvesHorizontalSpeed(t *testing.T) {
	g := newTestGame(t, Config{Width: 30, Height: 30, WrapWorld: true, AspectCorrection: true}, 7)
	start := g.Head()
	g.Step()
	if g.Head() != start {
		t.Error("horizontal move happened on the first tick")
	}
	g.Step()
	if g.Head() == start {
		t.Error("horizontal move missing on the second tick")
	}
	// Vertical movement is never slowed.
	g.ChangeDir(Up)
	before := g.Head()
	g.Step()
	if g.Head() == before {
		t.Error("vertical move was slowed")
	}
}

func TestLongRunStaysConsistent(t *testing.T) {
	g := newTestGame(t, Config{Width: 40, Height: 30, WrapWorld: true}, 8)
	rng := rand.New(rand.NewSource(99))
	for i := 0; i < 4000 && g.Alive(); i++ {
		switch rng.Intn(4) {
		case 0:
			g.ChangeDir(g.Dir().TurnLeft())
		case 1:
			g.ChangeDir(g.Dir().TurnRight())
		}
		g.Step()
		if g.Length() != g.Score()+InitialLength {
			t.Fatalf("length %d != score %d + %d at step %d", g.Length(), g.Score(), InitialLength, i)
		}
		if len(g.bodySet) != len(g.body) {
			t.Fatalf("body set out of sync at step %d", i)
		}
	}
}
