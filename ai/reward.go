package ai

import (
	"snake-evo/game"
)

// Transition is the outcome of a single simulation step, as seen by the
// reward model.
type Transition struct {
	Died       bool
	Death      game.DeathCause
	Ate        bool
	Length     int
	DistBefore int
	DistAfter  int
}

// RewardModel converts a transition into a scalar reward. All constants are
// tunable; the defaults keep self-collision the worst outcome, wall deaths
// in the middle, and eating much larger than any per-step shaping term.
type RewardModel struct {
	SelfCollision float32 `yaml:"self_collision"`
	Wall          float32 `yaml:"wall"`
	GenericDeath  float32 `yaml:"generic_death"`
	Eat           float32 `yaml:"eat"`
	EatPerLength  float32 `yaml:"eat_per_length"`
	StepCost      float32 `yaml:"step_cost"`
	CloserBonus   float32 `yaml:"closer_bonus"`
	FartherMalus  float32 `yaml:"farther_malus"`
	NearBonus     float32 `yaml:"near_bonus"`
}

// DefaultRewardModel returns the reward constants used by training.
func DefaultRewardModel() RewardModel {
	return RewardModel{
		SelfCollision: -30.0,
		Wall:          -20.0,
		GenericDeath:  -12.0,
		Eat:           10.0,
		EatPerLength:  0.1,
		StepCost:      -0.005,
		CloserBonus:   0.05,
		FartherMalus:  -0.03,
		NearBonus:     0.02,
	}
}

// Reward computes the scalar reward for one transition.
func (m RewardModel) Reward(t Transition) float32 {
	if t.Died {
		switch t.Death {
		case game.DeathSelfCollision:
			return m.SelfCollision
		case game.DeathWall:
			return m.Wall
		default:
			return m.GenericDeath
		}
	}
	if t.Ate {
		return m.Eat + float32(t.Length)*m.EatPerLength
	}
	r := m.StepCost
	if t.DistAfter < t.DistBefore {
		r += m.CloserBonus
	} else if t.DistAfter > t.DistBefore {
		r += m.FartherMalus
	}
	if t.DistAfter <= 3 {
		r += m.NearBonus
	}
	return r
}
