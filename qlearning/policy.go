package qlearning

import (
	"math"
)

// PolicyNet is a forward-only batched policy network. It carries no replay
// buffer and never trains inside the loop; it exists to exercise large
// populations with one inference call per tick, either from random weights
// or from a loaded checkpoint.
type PolicyNet struct {
	net *network
}

// NewPolicyNet creates a policy network with random weights.
func NewPolicyNet() *PolicyNet {
	return &PolicyNet{net: newNetwork()}
}

// Name implements the policy backend contract.
func (p *PolicyNet) Name() string { return "NN" }

// SelectAction runs a single-state forward pass and picks the argmax.
func (p *PolicyNet) SelectAction(state uint32) (int, error) {
	qValues, err := p.net.Forward(StateFeatures(state))
	if err != nil {
		return 0, err
	}
	return argmax(qValues[:OutputActions]), nil
}

// SelectActions amortizes one forward pass over every active agent.
func (p *PolicyNet) SelectActions(states []uint32) ([]int, error) {
	if len(states) == 0 {
		return nil, nil
	}
	features := make([]float64, 0, len(states)*InputFeatures)
	for _, s := range states {
		features = AppendStateFeatures(features, s)
	}
	qValues, err := p.net.Forward(features)
	if err != nil {
		return nil, err
	}
	actions := make([]int, len(states))
	for i := range states {
		actions[i] = argmax(qValues[i*OutputActions : (i+1)*OutputActions])
	}
	return actions, nil
}

func argmax(values []float64) int {
	best, maxQ := 0, math.Inf(-1)
	for i, v := range values {
		if v > maxQ {
			maxQ = v
			best = i
		}
	}
	return best
}
