package evo

import (
	"golang.org/x/exp/rand"

	"snake-evo/ai"
	"snake-evo/game"
)

// Population is a fixed-size set of (agent, game, score) slots plus per-slot
// display colors and RNGs. The four parallel slices always have equal length;
// reproduction must re-establish that before returning.
type Population struct {
	Agents []*ai.QAgent
	Games  []*game.Game
	Scores []int
	Colors []Color

	rngs []*rand.Rand
}

// NewPopulation builds size fresh agents with distinct colors and one game
// each. Per-slot RNGs are seeded from the master seed plus the slot index so
// runs are reproducible.
func NewPopulation(size int, hp ai.Hyperparams, gameCfg game.Config, masterSeed uint64) *Population {
	p := &Population{
		Agents: make([]*ai.QAgent, size),
		Games:  make([]*game.Game, size),
		Scores: make([]int, size),
		Colors: GenerateColors(size),
		rngs:   make([]*rand.Rand, size),
	}
	for i := 0; i < size; i++ {
		p.Agents[i] = ai.NewQAgent(hp)
		p.rngs[i] = rand.New(rand.NewSource(masterSeed + uint64(i)))
		p.Games[i] = game.New(gameCfg, p.rngs[i])
	}
	return p
}

// Size returns the population size.
func (p *Population) Size() int { return len(p.Agents) }

// ResetGames recreates every game and zeroes all scores for a new epoch.
func (p *Population) ResetGames(gameCfg game.Config) {
	for i := range p.Games {
		p.Games[i] = game.New(gameCfg, p.rngs[i])
		p.Scores[i] = 0
	}
}

// Replace installs a new generation. Agents and colors shorter than the
// population size are padded with fresh agents, longer ones truncated, so the
// slice-length invariant survives every reproduction path.
func (p *Population) Replace(agents []*ai.QAgent, colors []Color, hp ai.Hyperparams) {
	size := p.Size()
	for len(agents) < size {
		agents = append(agents, ai.NewQAgent(hp))
	}
	for len(colors) < size {
		colors = append(colors, GenerateColors(size-len(colors))...)
	}
	p.Agents = agents[:size]
	p.Colors = colors[:size]
}

// RNG returns the slot's private RNG. Only the goroutine stepping that slot
// may use it during the parallel phase.
func (p *Population) RNG(i int) *rand.Rand { return p.rngs[i] }
