package evo

import (
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/exp/rand"

	"snake-evo/ai"
	"snake-evo/config"
	"snake-evo/game"
)

// Trainer owns the population and drives the epoch state machine: step every
// live agent each tick, detect epoch termination, reproduce, repeat until the
// target score is reached. Stepping is parallel across agents; reproduction
// and all other bookkeeping run sequentially between ticks.
type Trainer struct {
	cfg     config.EvoConfig
	gameCfg game.Config
	hp      ai.Hyperparams
	rewards ai.RewardModel

	pop      *Population
	training bool
	solved   bool

	epoch      int
	epochBest  []int
	stepLimit  int
	stepsTaken int

	targetScore int
	bestScore   int

	champion      *ai.QAgent
	championScore int
	championEpoch int

	epochsWithoutImprovement int
	restartCount             int

	backend PolicyBackend

	// Step-budget spreading: the frame loop requests work in stepsPerFrame
	// chunks; pendingSteps carries unfinished work into later ticks so a
	// huge request cannot stall a frame.
	stepsPerFrame int
	pendingSteps  int

	rng        *rand.Rand
	masterSeed uint64
}

// NewTrainer builds a trainer with a fresh population.
func NewTrainer(cfg *config.Config) *Trainer {
	gameCfg := cfg.Grid.GameConfig()
	t := &Trainer{
		cfg:           cfg.Evo,
		gameCfg:       gameCfg,
		hp:            cfg.Agent,
		rewards:       cfg.Reward,
		stepLimit:     cfg.Evo.StepLimit,
		targetScore:   gameCfg.Width*gameCfg.Height - game.InitialLength,
		stepsPerFrame: 1,
		rng:           rand.New(rand.NewSource(cfg.Seed)),
		masterSeed:    cfg.Seed,
	}
	t.pop = NewPopulation(cfg.Evo.Population, cfg.Agent, gameCfg, cfg.Seed)
	return t
}

// SetBackend installs an alternate policy backend, or restores the per-agent
// tabular policy when nil.
func (t *Trainer) SetBackend(b PolicyBackend) { t.backend = b }

// Backend returns the active alternate backend, nil for tabular.
func (t *Trainer) Backend() PolicyBackend { return t.backend }

// SetTraining toggles the training loop. Safe between ticks; the population
// invariants hold at every tick boundary.
func (t *Trainer) SetTraining(on bool) {
	if on && t.solved {
		return
	}
	t.training = on
	if !on {
		t.pendingSteps = 0
	}
}

func (t *Trainer) Training() bool { return t.training }
func (t *Trainer) Solved() bool   { return t.solved }

// Reset clears the solved flag and all session history so training can start
// over. The current agents and the champion survive; only counters, the
// best-score history, and the in-flight epoch are discarded.
func (t *Trainer) Reset() {
	t.solved = false
	t.training = false
	t.epoch = 0
	t.epochBest = nil
	t.bestScore = 0
	t.epochsWithoutImprovement = 0
	t.pendingSteps = 0
	t.resetEpoch()
}

// SetWrapWorld switches wall behavior and restarts the current epoch.
func (t *Trainer) SetWrapWorld(wrap bool) {
	t.gameCfg.WrapWorld = wrap
	t.resetEpoch()
}

func (t *Trainer) WrapWorld() bool { return t.gameCfg.WrapWorld }

// SpeedUp doubles the per-frame step request, capped.
func (t *Trainer) SpeedUp() {
	t.stepsPerFrame *= 2
	if t.stepsPerFrame > 100000 {
		t.stepsPerFrame = 100000
	}
}

// SlowDown halves the per-frame step request, floored at one.
func (t *Trainer) SlowDown() {
	t.stepsPerFrame /= 2
	if t.stepsPerFrame < 1 {
		t.stepsPerFrame = 1
	}
}

func (t *Trainer) StepsPerFrame() int { return t.stepsPerFrame }

// SetMaxStepsPerTick adjusts the per-tick budget, for ultra-fast mode.
func (t *Trainer) SetMaxStepsPerTick(n int) {
	if n > 0 {
		t.cfg.MaxStepsPerTick = n
	}
}

// Tick runs up to the per-tick step budget of simulation steps. Unfinished
// requested work is carried into the next tick. Returns the number of steps
// actually executed.
func (t *Trainer) Tick() int {
	if !t.training {
		return 0
	}
	t.pendingSteps += t.stepsPerFrame
	budget := t.pendingSteps
	if budget > t.cfg.MaxStepsPerTick {
		budget = t.cfg.MaxStepsPerTick
	}
	ran := 0
	for i := 0; i < budget; i++ {
		epochEnded := t.stepOnce()
		ran++
		if epochEnded {
			t.pendingSteps = 0
			return ran
		}
		if !t.training {
			break
		}
	}
	t.pendingSteps -= ran
	return ran
}

// stepOnce advances every live, unsolved agent by one step and evaluates the
// epoch-termination condition. Returns true when reproduction happened.
func (t *Trainer) stepOnce() bool {
	var allDone bool
	if t.backend == nil {
		allDone = t.stepTabular()
	} else {
		allDone = t.stepBackend()
	}
	if t.solved {
		t.training = false
		return false
	}

	t.stepsTaken++
	if allDone || (t.stepsTaken >= t.stepLimit && !t.LeaderProtected()) {
		t.Reproduce()
		return true
	}
	return false
}

// stepTabular runs the per-agent Q-learning path in parallel. Each slot's
// agent, game, score cell, and RNG are exclusively owned by one goroutine
// for the duration of the phase; the solved flag is the only shared write.
func (t *Trainer) stepTabular() bool {
	var wg sync.WaitGroup
	sem := make(chan struct{}, t.workers())
	var solved atomic.Bool

	for i := range t.pop.Agents {
		if !t.pop.Games[i].Alive() || t.pop.Scores[i] >= t.targetScore {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			t.stepSlot(i, &solved)
		}(i)
	}
	wg.Wait()

	if solved.Load() {
		t.solved = true
	}
	return t.noneActive()
}

// stepSlot advances one slot: encode, select, move, reward, learn.
func (t *Trainer) stepSlot(i int, solved *atomic.Bool) {
	g := t.pop.Games[i]
	agent := t.pop.Agents[i]

	s := ai.EncodeState(g)
	action := agent.SelectAction(s, t.pop.RNG(i))
	t.applyTransition(i, s, action, true)

	if g.Score() >= t.targetScore {
		solved.Store(true)
	}
}

// applyTransition applies the chosen action to the slot's game, computes the
// reward, and optionally performs the tabular learning update.
func (t *Trainer) applyTransition(i int, s uint32, action int, learn bool) (reward float32, next uint32, done bool) {
	g := t.pop.Games[i]
	agent := t.pop.Agents[i]

	g.ChangeDir(g.Dir().Apply(game.Action(action)))
	beforeScore := g.Score()
	wasAlive := g.Alive()
	distBefore := g.AppleDistance()
	g.Step()
	ate := g.Score() > beforeScore
	died := wasAlive && !g.Alive()

	reward = t.rewards.Reward(ai.Transition{
		Died:       died,
		Death:      g.Death(),
		Ate:        ate,
		Length:     g.Length(),
		DistBefore: distBefore,
		DistAfter:  g.AppleDistance(),
	})
	next = ai.EncodeState(g)
	done = died || !g.Alive()

	if learn {
		agent.Learn(s, action, reward, next, done)
	}
	agent.Steps++
	if died {
		agent.EndEpisode()
	}
	if g.Alive() {
		t.pop.Scores[i] = g.Score()
	}
	return reward, next, done
}

// stepBackend routes action selection through the alternate backend,
// sequentially so learning backends can accumulate transitions in order.
// Batch-capable backends get one inference call for all active agents. On
// backend failure the slot falls back to its own tabular policy for the tick.
func (t *Trainer) stepBackend() bool {
	active := make([]int, 0, t.pop.Size())
	states := make([]uint32, 0, t.pop.Size())
	for i := range t.pop.Agents {
		if t.pop.Games[i].Alive() && t.pop.Scores[i] < t.targetScore {
			active = append(active, i)
			states = append(states, ai.EncodeState(t.pop.Games[i]))
		}
	}
	if len(active) == 0 {
		return true
	}

	var actions []int
	if batch, ok := t.backend.(BatchSelector); ok {
		var err error
		actions, err = batch.SelectActions(states)
		if err != nil || len(actions) != len(active) {
			fmt.Printf("[%s] batch inference failed (%v), falling back to tabular\n", t.backend.Name(), err)
			actions = nil
		}
	}

	learner, learns := t.backend.(Learner)

	for k, i := range active {
		s := states[k]
		var action int
		if actions != nil {
			action = actions[k]
		} else {
			var err error
			action, err = t.backend.SelectAction(s)
			if err != nil {
				action = t.pop.Agents[i].SelectAction(s, t.pop.RNG(i))
			}
		}
		if action < 0 || action >= ai.NumActions {
			action = 1
		}

		reward, next, done := t.applyTransition(i, s, action, false)
		if learns {
			learner.Observe(s, action, reward, next, done)
		}
		if t.pop.Games[i].Score() >= t.targetScore {
			t.solved = true
		}
	}

	if learns {
		if err := learner.TrainStep(); err != nil {
			fmt.Printf("[%s] train step failed: %v\n", t.backend.Name(), err)
		}
	}
	return t.noneActive()
}

// noneActive reports whether no agent is both alive and below the target.
func (t *Trainer) noneActive() bool {
	for i := range t.pop.Games {
		if t.pop.Games[i].Alive() && t.pop.Scores[i] < t.targetScore {
			return false
		}
	}
	return true
}

// LeaderProtected reports whether a single agent strictly leads all others
// and is still alive; such a leader is allowed to run past the step limit.
func (t *Trainer) LeaderProtected() bool {
	top1, top2, idx := 0, 0, -1
	for i, sc := range t.pop.Scores {
		if sc > top1 {
			top2 = top1
			top1 = sc
			idx = i
		} else if sc > top2 {
			top2 = sc
		}
	}
	return idx >= 0 && top1 > top2 && t.pop.Games[idx].Alive()
}

// resetEpoch restarts every game and per-epoch counter.
func (t *Trainer) resetEpoch() {
	t.stepsTaken = 0
	t.pop.ResetGames(t.gameCfg)
}

// SeedFromChampion replaces the population with a saved champion lineage:
// the champion itself plus mutated children.
func (t *Trainer) SeedFromChampion(rec ai.ChampionRecord) {
	if rec.Agent == nil {
		return
	}
	t.champion = rec.Agent.Clone()
	t.championScore = rec.Score
	t.championEpoch = rec.Epoch
	if rec.Score > t.bestScore {
		t.bestScore = rec.Score
	}

	agents := make([]*ai.QAgent, 0, t.pop.Size())
	colors := make([]Color, 0, t.pop.Size())
	base := GenerateColors(1)[0]
	agents = append(agents, t.champion.Clone())
	colors = append(colors, base)
	for len(agents) < t.pop.Size() {
		child := t.champion.Clone()
		child.Mutate(t.rng, 0.15)
		agents = append(agents, child)
		colors = append(colors, MutateColor(base, 25, t.rng))
	}
	t.pop.Replace(agents, colors, t.hp)
	t.resetEpoch()
	fmt.Printf("Seeded population from saved champion (score %d, epoch %d)\n", rec.Score, rec.Epoch)
}

// ChampionRecord snapshots the current champion for persistence. The second
// return is false when no champion exists yet.
func (t *Trainer) ChampionRecord() (ai.ChampionRecord, bool) {
	if t.champion == nil {
		return ai.ChampionRecord{}, false
	}
	return ai.ChampionRecord{
		Agent: t.champion.Clone(),
		Score: t.championScore,
		Epoch: t.championEpoch,
	}, true
}

func (t *Trainer) workers() int {
	if t.cfg.Workers > 0 {
		return t.cfg.Workers
	}
	return 1
}

// Read-only views for the renderer and stats. Valid between ticks only.

func (t *Trainer) Population() *Population   { return t.pop }
func (t *Trainer) Epoch() int                { return t.epoch }
func (t *Trainer) EpochBest() []int          { return t.epochBest }
func (t *Trainer) StepsTaken() int           { return t.stepsTaken }
func (t *Trainer) StepLimit() int            { return t.stepLimit }
func (t *Trainer) TargetScore() int          { return t.targetScore }
func (t *Trainer) BestScore() int            { return t.bestScore }
func (t *Trainer) ChampionScore() int        { return t.championScore }
func (t *Trainer) ChampionEpoch() int        { return t.championEpoch }
func (t *Trainer) RestartCount() int         { return t.restartCount }
func (t *Trainer) EpochsWithoutImprove() int { return t.epochsWithoutImprovement }
