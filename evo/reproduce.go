package evo

import (
	"fmt"
	"sort"

	"snake-evo/ai"
)

// Reproduce builds the next generation from current scores and restarts the
// epoch. Three regimes: champion exploitation when a new record was set,
// tiered restarts under long stagnation, and a steady blend of elites,
// children, and fresh agents otherwise.
func (t *Trainer) Reproduce() {
	idxs := make([]int, t.pop.Size())
	for i := range idxs {
		idxs[i] = i
	}
	sort.Slice(idxs, func(a, b int) bool {
		return t.pop.Scores[idxs[a]] > t.pop.Scores[idxs[b]]
	})
	bestIdx := idxs[0]
	bestScore := t.pop.Scores[bestIdx]
	t.epochBest = append(t.epochBest, bestScore)
	if bestScore > t.bestScore {
		t.bestScore = bestScore
	}

	newChampion := false
	if bestScore > t.championScore {
		t.championScore = bestScore
		t.championEpoch = t.epoch
		t.champion = t.pop.Agents[bestIdx].Clone()
		t.epochsWithoutImprovement = 0
		newChampion = true
		fmt.Printf("NEW CHAMPION! Score: %d (Epoch %d)\n", bestScore, t.epoch)
		if t.cfg.AutosaveChampion && t.cfg.ChampionPath != "" {
			rec := ai.ChampionRecord{Agent: t.champion, Score: t.championScore, Epoch: t.championEpoch}
			if err := ai.SaveChampion(t.cfg.ChampionPath, rec); err != nil {
				fmt.Printf("champion autosave failed: %v\n", err)
			}
		}
	} else {
		t.epochsWithoutImprovement++
	}

	var agents []*ai.QAgent
	var colors []Color

	// The threshold grows with each prior restart so later lineages get
	// more time before being torn down.
	stagnationThreshold := t.cfg.StagnationBase + t.restartCount*t.cfg.StagnationGrowth

	switch {
	case t.epochsWithoutImprovement >= stagnationThreshold && t.champion != nil:
		agents, colors = t.restartGeneration()
	case newChampion && t.champion != nil:
		t.restartCount = 0
		agents, colors = t.championGeneration()
	default:
		agents, colors = t.steadyGeneration(idxs)
	}

	t.pop.Replace(agents, colors, t.hp)
	t.epoch++
	t.resetEpoch()
}

// championGeneration rebuilds the population around a freshly crowned
// champion: the champion itself plus moderately mutated children.
func (t *Trainer) championGeneration() ([]*ai.QAgent, []Color) {
	size := t.pop.Size()
	base := t.pop.Colors[0]
	agents := make([]*ai.QAgent, 0, size)
	colors := make([]Color, 0, size)

	agents = append(agents, t.champion.Clone())
	colors = append(colors, base)
	for len(agents) < size {
		child := t.champion.Clone()
		child.Mutate(t.rng, 0.15)
		agents = append(agents, child)
		colors = append(colors, MutateColor(base, 25, t.rng))
	}
	return agents, colors
}

// restartGeneration responds to stagnation with an escalating ladder of
// strategies: each tier keeps a smaller champion share, mutates harder, and
// mixes in more fresh agents; the last also boosts exploration on the fresh
// ones. After the final tier the ladder cycles back to the first.
func (t *Trainer) restartGeneration() ([]*ai.QAgent, []Color) {
	if t.restartCount >= t.cfg.MaxRestartTiers {
		t.restartCount = 0
		fmt.Println("Max restarts reached. Cycling back with aggressive exploration...")
	}
	t.restartCount++
	fmt.Printf("Stagnation detected (%d epochs without improvement). Restart #%d with exploration...\n",
		t.epochsWithoutImprovement, t.restartCount)
	t.epochsWithoutImprovement = 0

	size := t.pop.Size()
	base := t.pop.Colors[0]
	agents := make([]*ai.QAgent, 0, size)
	colors := make([]Color, 0, size)

	addChampionChildren := func(n int, sigma float32, colorSpan int) {
		agents = append(agents, t.champion.Clone())
		colors = append(colors, base)
		for len(agents) < n {
			child := t.champion.Clone()
			child.BoostExploration()
			child.Mutate(t.rng, sigma)
			agents = append(agents, child)
			colors = append(colors, MutateColor(base, colorSpan, t.rng))
		}
	}
	addFresh := func(boost bool) {
		fresh := GenerateColors(size - len(agents))
		for _, c := range fresh {
			agent := ai.NewQAgent(t.hp)
			if boost {
				agent.BoostExploration()
			}
			agents = append(agents, agent)
			colors = append(colors, c)
		}
	}

	switch t.restartCount {
	case 1:
		// Whole population descends from the champion, moderate noise.
		addChampionChildren(size, 0.25, 20)
	case 2:
		addChampionChildren(size/2, 0.4, 30)
		addFresh(false)
	case 3:
		addChampionChildren(size*3/10, 0.35, 40)
		addFresh(false)
	case 4:
		addChampionChildren(size/5, 0.6, 50)
		addFresh(false)
	default:
		addChampionChildren(size/10, 0.8, 60)
		addFresh(true)
	}
	return agents, colors
}

// steadyGeneration is the default blend: a small unchanged elite, children
// bred from elite pairs with blended colors, and fresh random agents.
func (t *Trainer) steadyGeneration(ranked []int) ([]*ai.QAgent, []Color) {
	size := t.pop.Size()
	agents := make([]*ai.QAgent, 0, size)
	colors := make([]Color, 0, size)

	topK := 3
	if topK > size {
		topK = size
	}
	for _, idx := range ranked[:topK] {
		agents = append(agents, t.pop.Agents[idx].Clone())
		colors = append(colors, t.pop.Colors[idx])
	}

	numChildren := 4
	for c := 0; c < numChildren && len(agents) < size; c++ {
		p1 := ranked[t.rng.Intn(topK)]
		p2 := ranked[t.rng.Intn(topK)]

		child := t.pop.Agents[p1].Clone()
		child.Mutate(t.rng, 0.15)

		ratio := 0.3 + t.rng.Float64()*0.4
		blended := BlendColors(t.pop.Colors[p1], t.pop.Colors[p2], ratio)

		agents = append(agents, child)
		colors = append(colors, MutateColor(blended, 15, t.rng))
	}

	numFresh := 3
	if room := size - len(agents); numFresh > room {
		numFresh = room
	}
	fresh := GenerateColors(numFresh)
	for _, c := range fresh {
		agents = append(agents, ai.NewQAgent(t.hp))
		colors = append(colors, c)
	}
	return agents, colors
}
