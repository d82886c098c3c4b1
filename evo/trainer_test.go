package evo

import (
	"testing"

	"snake-evo/config"
)

func newTestTrainer(pop int) *Trainer {
	cfg := config.Default()
	cfg.Seed = 7
	cfg.Grid.Width = 10
	cfg.Grid.Height = 10
	cfg.Evo.Population = pop
	cfg.Evo.StepLimit = 200
	cfg.Evo.Workers = 4
	cfg.Evo.MaxStepsPerTick = 500
	cfg.Evo.AutosaveChampion = false
	return NewTrainer(cfg)
}

func checkInvariant(t *testing.T, tr *Trainer) {
	t.Helper()
	p := tr.Population()
	if len(p.Agents) != len(p.Games) || len(p.Games) != len(p.Scores) || len(p.Scores) != len(p.Colors) {
		t.Fatalf("population slices diverged: agents=%d games=%d scores=%d colors=%d",
			len(p.Agents), len(p.Games), len(p.Scores), len(p.Colors))
	}
	for i, a := range p.Agents {
		if a == nil {
			t.Fatalf("nil agent in slot %d", i)
		}
		if p.Games[i] == nil {
			t.Fatalf("nil game in slot %d", i)
		}
	}
}

func TestTickAdvancesAndKeepsInvariants(t *testing.T) {
	tr := newTestTrainer(6)
	tr.SetTraining(true)
	for i := 0; i < 50; i++ {
		tr.Tick()
		checkInvariant(t, tr)
	}
	if tr.StepsTaken() == 0 && tr.Epoch() == 0 {
		t.Fatal("no simulation progress after 50 ticks")
	}
}

func TestEpochTerminatesAtStepLimit(t *testing.T) {
	tr := newTestTrainer(6)
	tr.SetTraining(true)
	// Raise the per-frame request well past the step limit so a handful of
	// ticks exhausts the epoch even when every agent stays alive.
	for i := 0; i < 10; i++ {
		tr.SpeedUp()
	}
	for i := 0; i < 100; i++ {
		tr.Tick()
		if tr.Epoch() > 0 {
			break
		}
	}
	if tr.Epoch() == 0 {
		t.Fatal("epoch never ended despite the step limit")
	}
	if got := len(tr.EpochBest()); got != tr.Epoch() {
		t.Errorf("best-score history has %d entries for %d epochs", got, tr.Epoch())
	}
}

func TestTickRespectsBudget(t *testing.T) {
	tr := newTestTrainer(4)
	tr.SetTraining(true)
	for i := 0; i < 12; i++ {
		tr.SpeedUp()
	}
	ran := tr.Tick()
	if ran > tr.cfg.MaxStepsPerTick {
		t.Errorf("tick ran %d steps, budget is %d", ran, tr.cfg.MaxStepsPerTick)
	}
}

func TestSpeedControlsClamp(t *testing.T) {
	tr := newTestTrainer(2)
	for i := 0; i < 40; i++ {
		tr.SpeedUp()
	}
	if tr.StepsPerFrame() > 100000 {
		t.Errorf("steps per frame %d above cap", tr.StepsPerFrame())
	}
	for i := 0; i < 60; i++ {
		tr.SlowDown()
	}
	if tr.StepsPerFrame() < 1 {
		t.Errorf("steps per frame %d below 1", tr.StepsPerFrame())
	}
}

func TestSolvedHaltsTraining(t *testing.T) {
	tr := newTestTrainer(4)
	// One apple suffices to reach the lowered target.
	tr.targetScore = 1
	tr.SetTraining(true)
	for i := 0; i < 5000 && !tr.Solved(); i++ {
		tr.Tick()
	}
	if !tr.Solved() {
		t.Fatal("no agent reached a target score of one apple")
	}
	if tr.Training() {
		t.Error("training still on after solve")
	}
	tr.SetTraining(true)
	if tr.Training() {
		t.Error("solved trainer restarted training")
	}
}

func TestResetClearsSolvedSession(t *testing.T) {
	tr := newTestTrainer(4)
	tr.targetScore = 1
	tr.SetTraining(true)
	for i := 0; i < 5000 && !tr.Solved(); i++ {
		tr.Tick()
	}
	if !tr.Solved() {
		t.Fatal("no agent reached a target score of one apple")
	}

	kept := tr.Population().Agents[0]
	tr.Reset()

	if tr.Solved() {
		t.Error("solved flag survived reset")
	}
	if tr.Epoch() != 0 || tr.StepsTaken() != 0 {
		t.Errorf("epoch counters not cleared: epoch=%d steps=%d", tr.Epoch(), tr.StepsTaken())
	}
	if len(tr.EpochBest()) != 0 {
		t.Errorf("best-score history kept %d entries", len(tr.EpochBest()))
	}
	if tr.BestScore() != 0 {
		t.Errorf("best score %d survived reset", tr.BestScore())
	}
	if tr.Population().Agents[0] != kept {
		t.Error("reset replaced the agents")
	}
	for _, sc := range tr.Population().Scores {
		if sc != 0 {
			t.Error("scores not reset")
		}
	}

	// The cleared session accepts training again.
	tr.SetTraining(true)
	if !tr.Training() {
		t.Error("training refused after reset")
	}
	checkInvariant(t, tr)
}

func TestLeaderProtected(t *testing.T) {
	tr := newTestTrainer(4)
	p := tr.Population()

	// All zeros: nobody leads.
	if tr.LeaderProtected() {
		t.Error("protection with no scores")
	}

	p.Scores[2] = 5
	if !tr.LeaderProtected() {
		t.Error("unique live leader not protected")
	}

	// A tie removes protection.
	p.Scores[0] = 5
	if tr.LeaderProtected() {
		t.Error("tied leaders protected")
	}
}

func TestWrapToggleResetsEpoch(t *testing.T) {
	tr := newTestTrainer(3)
	tr.SetTraining(true)
	tr.Tick()
	tr.SetWrapWorld(false)
	if tr.WrapWorld() {
		t.Error("wrap still on")
	}
	if tr.StepsTaken() != 0 {
		t.Error("epoch counters not reset on wrap toggle")
	}
	for _, sc := range tr.Population().Scores {
		if sc != 0 {
			t.Error("scores not reset on wrap toggle")
		}
	}
	checkInvariant(t, tr)
}
