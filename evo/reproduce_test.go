package evo

import (
	"testing"

	"snake-evo/ai"
)

func TestReproduceKeepsPopulationSize(t *testing.T) {
	for _, size := range []int{3, 7, 10, 16} {
		tr := newTestTrainer(size)
		tr.Population().Scores[1] = 4
		tr.Reproduce()
		checkInvariant(t, tr)
		if tr.Population().Size() != size {
			t.Errorf("size %d changed to %d after champion branch", size, tr.Population().Size())
		}

		// Steady branch: no improvement over the recorded champion.
		tr.Reproduce()
		checkInvariant(t, tr)
		if tr.Population().Size() != size {
			t.Errorf("size %d changed to %d after steady branch", size, tr.Population().Size())
		}
	}
}

func TestChampionIsMonotonic(t *testing.T) {
	tr := newTestTrainer(5)
	tr.Population().Scores[3] = 9
	tr.Reproduce()
	if tr.ChampionScore() != 9 {
		t.Fatalf("champion score = %d, want 9", tr.ChampionScore())
	}

	// Worse epochs never demote the champion.
	tr.Population().Scores[0] = 2
	tr.Reproduce()
	if tr.ChampionScore() != 9 {
		t.Errorf("champion score dropped to %d", tr.ChampionScore())
	}
	if tr.EpochsWithoutImprove() != 1 {
		t.Errorf("stagnation counter = %d, want 1", tr.EpochsWithoutImprove())
	}

	// Equal scores do not count as improvement either.
	tr.Population().Scores[0] = 9
	tr.Reproduce()
	if tr.EpochsWithoutImprove() != 2 {
		t.Errorf("stagnation counter = %d, want 2", tr.EpochsWithoutImprove())
	}
}

func TestChampionBranchSeedsWholePopulation(t *testing.T) {
	tr := newTestTrainer(6)
	champ := tr.Population().Agents[2]
	champ.Q[100] = [ai.NumActions]float32{5, 0, 0}
	tr.Population().Scores[2] = 7
	tr.Reproduce()

	// Every new agent descends from the champion, so all carry state 100.
	for i, a := range tr.Population().Agents {
		if _, ok := a.Q[100]; !ok {
			t.Errorf("slot %d does not descend from the champion", i)
		}
	}
	// The elite copy itself is unmutated.
	if got := tr.Population().Agents[0].Q[100]; got != champ.Q[100] {
		t.Errorf("elite slot mutated: %v", got)
	}
}

func TestStagnationTiersEscalateAndCycle(t *testing.T) {
	tr := newTestTrainer(10)
	tr.cfg.StagnationBase = 2
	tr.cfg.StagnationGrowth = 0

	// Record a champion first.
	tr.Population().Scores[0] = 3
	tr.Reproduce()

	wantTiers := []int{1, 2, 3, 4, 5, 1, 2}
	for _, want := range wantTiers {
		// Two stagnant epochs reach the threshold; the restart fires inside
		// the second call.
		tr.Reproduce()
		tr.Reproduce()
		if tr.RestartCount() != want {
			t.Fatalf("restart tier = %d, want %d", tr.RestartCount(), want)
		}
		checkInvariant(t, tr)
		if tr.EpochsWithoutImprove() != 0 {
			t.Fatalf("stagnation counter not reset after restart #%d", want)
		}
	}
}

func TestRestartPreservesChampionLineage(t *testing.T) {
	tr := newTestTrainer(10)
	tr.cfg.StagnationBase = 1
	tr.Population().Agents[4].Q[55] = [ai.NumActions]float32{1, 2, 3}
	tr.Population().Scores[4] = 5
	tr.Reproduce()

	// Force a restart.
	tr.Reproduce()
	tr.Reproduce()
	if tr.RestartCount() != 1 {
		t.Fatalf("restart tier = %d, want 1", tr.RestartCount())
	}
	// Slot zero is always the pristine champion.
	if got := tr.Population().Agents[0].Q[55]; got != [ai.NumActions]float32{1, 2, 3} {
		t.Errorf("champion slot lost its table: %v", got)
	}
	if tr.ChampionScore() != 5 {
		t.Errorf("champion score = %d", tr.ChampionScore())
	}
}

func TestSeedFromChampion(t *testing.T) {
	tr := newTestTrainer(5)
	agent := ai.NewQAgent(ai.DefaultHyperparams())
	agent.Q[9] = [ai.NumActions]float32{4, 4, 4}
	tr.SeedFromChampion(ai.ChampionRecord{Agent: agent, Score: 11, Epoch: 30})

	checkInvariant(t, tr)
	if tr.ChampionScore() != 11 || tr.BestScore() != 11 {
		t.Errorf("champion=%d best=%d, want 11/11", tr.ChampionScore(), tr.BestScore())
	}
	for i, a := range tr.Population().Agents {
		if _, ok := a.Q[9]; !ok {
			t.Errorf("slot %d not seeded from the record", i)
		}
	}
}

func TestGenerateColorsDistinct(t *testing.T) {
	colors := GenerateColors(12)
	if len(colors) != 12 {
		t.Fatalf("got %d colors", len(colors))
	}
	seen := map[Color]bool{}
	for _, c := range colors {
		seen[c] = true
	}
	if len(seen) < 10 {
		t.Errorf("only %d distinct colors out of 12", len(seen))
	}
}

func TestBlendColorsBounds(t *testing.T) {
	a := Color{R: 0, G: 100, B: 255}
	b := Color{R: 255, G: 100, B: 0}
	mid := BlendColors(a, b, 0.5)
	if mid.G != 100 {
		t.Errorf("blend changed an equal channel: %v", mid)
	}
	if BlendColors(a, b, 0) != a {
		t.Error("ratio 0 should yield the first parent")
	}
}
