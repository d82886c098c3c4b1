package ai

import (
	"golang.org/x/exp/rand"
)

// NumActions is the size of the action space: turn left, go straight, turn right.
const NumActions = 3

// Hyperparams holds the tunable learning constants of a tabular agent.
type Hyperparams struct {
	Epsilon    float32 `yaml:"epsilon"`
	MinEpsilon float32 `yaml:"min_epsilon"`
	Decay      float32 `yaml:"decay"`
	Alpha      float32 `yaml:"alpha"`
	Gamma      float32 `yaml:"gamma"`
}

// DefaultHyperparams returns parameters balanced for the 20-bit vision state.
func DefaultHyperparams() Hyperparams {
	return Hyperparams{
		Epsilon:    0.25,
		MinEpsilon: 0.05,
		Decay:      0.9992,
		Alpha:      0.3,
		Gamma:      0.95,
	}
}

// QAgent is a tabular Q-learning agent with an epsilon-greedy policy. The
// table is sparse: unseen state keys read as a zero value vector.
type QAgent struct {
	Q          map[uint32][NumActions]float32 `json:"q"`
	Epsilon    float32                        `json:"epsilon"`
	MinEpsilon float32                        `json:"min_epsilon"`
	Decay      float32                        `json:"decay"`
	Alpha      float32                        `json:"alpha"`
	Gamma      float32                        `json:"gamma"`
	Steps      uint64                         `json:"steps"`
	Episodes   uint64                         `json:"episodes"`
}

// NewQAgent creates an agent with the given hyperparameters and an empty table.
func NewQAgent(hp Hyperparams) *QAgent {
	return &QAgent{
		Q:          make(map[uint32][NumActions]float32),
		Epsilon:    hp.Epsilon,
		MinEpsilon: hp.MinEpsilon,
		Decay:      hp.Decay,
		Alpha:      hp.Alpha,
		Gamma:      hp.Gamma,
	}
}

// Values returns the action-value vector for a state, zero if unseen.
func (a *QAgent) Values(s uint32) [NumActions]float32 {
	return a.Q[s]
}

// SelectAction picks an action with an epsilon-greedy policy. Ties between
// equal action values break toward the lowest index.
func (a *QAgent) SelectAction(s uint32, rng *rand.Rand) int {
	if rng.Float32() < a.Epsilon {
		return rng.Intn(NumActions)
	}
	qs := a.Q[s]
	if qs[0] >= qs[1] && qs[0] >= qs[2] {
		return 0
	}
	if qs[1] >= qs[2] {
		return 1
	}
	return 2
}

// Learn applies the TD(0) update for one transition. When done, the
// bootstrapped next-state term is zero.
func (a *QAgent) Learn(s uint32, action int, reward float32, next uint32, done bool) {
	var nextMax float32
	if !done {
		nqs := a.Q[next]
		nextMax = nqs[0]
		if nqs[1] > nextMax {
			nextMax = nqs[1]
		}
		if nqs[2] > nextMax {
			nextMax = nqs[2]
		}
	}
	qs := a.Q[s]
	qs[action] += a.Alpha * (reward + a.Gamma*nextMax - qs[action])
	a.Q[s] = qs
}

// EndEpisode records a finished episode and decays exploration once,
// multiplicatively toward the floor.
func (a *QAgent) EndEpisode() {
	a.Episodes++
	a.Epsilon *= a.Decay
	if a.Epsilon < a.MinEpsilon {
		a.Epsilon = a.MinEpsilon
	}
}

// BoostExploration raises epsilon and the learning rate to re-inject
// exploratory behavior into a converged policy. Used by restart lineages.
func (a *QAgent) BoostExploration() {
	a.Epsilon = 0.35
	a.Alpha = 0.45
}

// Clone deep-copies the agent, including the full Q-table. For large tables
// this copy dominates reproduction cost.
func (a *QAgent) Clone() *QAgent {
	c := *a
	c.Q = make(map[uint32][NumActions]float32, len(a.Q))
	for k, v := range a.Q {
		c.Q[k] = v
	}
	return &c
}

// Mutate adds independent uniform noise in [-sigma, sigma] to every stored
// action value and decays epsilon once by the per-episode rule.
func (a *QAgent) Mutate(rng *rand.Rand, sigma float32) {
	for k, v := range a.Q {
		for i := range v {
			v[i] += (rng.Float32()*2 - 1) * sigma
		}
		a.Q[k] = v
	}
	a.Epsilon *= a.Decay
	if a.Epsilon < a.MinEpsilon {
		a.Epsilon = a.MinEpsilon
	}
}
