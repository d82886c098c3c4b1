package evo

// PolicyBackend selects an action index {0: turn left, 1: straight, 2: turn
// right} for an encoded state key. The tabular per-agent policy is the
// default; alternate backends (batched network inference, DQN, ONNX models)
// plug in through this contract without any simulator changes.
type PolicyBackend interface {
	Name() string
	SelectAction(state uint32) (int, error)
}

// BatchSelector is implemented by backends that amortize inference across all
// alive agents in one call per tick. They must return exactly one action per
// input state.
type BatchSelector interface {
	SelectActions(states []uint32) ([]int, error)
}

// Learner is implemented by backends that train online from observed
// transitions, such as a DQN with a replay buffer.
type Learner interface {
	Observe(state uint32, action int, reward float32, next uint32, done bool)
	TrainStep() error
}
