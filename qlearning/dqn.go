package qlearning

import (
	"encoding/gob"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/exp/rand"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func init() {
	gob.Register(&tensor.Dense{})
	gob.Register(map[string]*tensor.Dense{})
}

const (
	Gamma          = 0.95
	InitialEpsilon = 1.0
	EpsilonDecay   = 0.99
	MinEpsilon     = 0.01

	BatchSize        = 32
	ReplayBufferSize = 5000
	HiddenLayerSize  = 24
	GradientClip     = 0.5
	TargetTau        = 0.001
)

// Transition is a single environment step stored for replay.
type Transition struct {
	State     []float64
	Action    int
	Reward    float64
	NextState []float64
	Done      bool
}

// ReplayBuffer is a fixed-size ring of transitions sampled uniformly.
type ReplayBuffer struct {
	buffer   []Transition
	maxSize  int
	position int
	size     int
	rng      *rand.Rand
}

// NewReplayBuffer creates a buffer holding up to maxSize transitions.
func NewReplayBuffer(maxSize int, rng *rand.Rand) *ReplayBuffer {
	return &ReplayBuffer{
		buffer:  make([]Transition, maxSize),
		maxSize: maxSize,
		rng:     rng,
	}
}

// Add appends a transition, overwriting the oldest once full.
func (b *ReplayBuffer) Add(t Transition) {
	b.buffer[b.position] = t
	b.position = (b.position + 1) % b.maxSize
	if b.size < b.maxSize {
		b.size++
	}
}

// Len returns the number of stored transitions.
func (b *ReplayBuffer) Len() int { return b.size }

// Sample returns a uniform random batch of transitions.
func (b *ReplayBuffer) Sample(batchSize int) []Transition {
	if batchSize > b.size {
		batchSize = b.size
	}
	batch := make([]Transition, batchSize)
	for i := 0; i < batchSize; i++ {
		batch[i] = b.buffer[b.rng.Intn(b.size)]
	}
	return batch
}

// network is a two-layer value network over the decoded state features.
type network struct {
	g      *gorgonia.ExprGraph
	w1, w2 *gorgonia.Node
	b1, b2 *gorgonia.Node
	vm     gorgonia.VM
	solver gorgonia.Solver
}

func newNetwork() *network {
	g := gorgonia.NewGraph()

	w1 := gorgonia.NewMatrix(g,
		tensor.Float64,
		gorgonia.WithShape(InputFeatures, HiddenLayerSize),
		gorgonia.WithInit(gorgonia.GlorotU(1.0)))

	b1 := gorgonia.NewMatrix(g,
		tensor.Float64,
		gorgonia.WithShape(1, HiddenLayerSize),
		gorgonia.WithInit(gorgonia.Zeroes()))

	w2 := gorgonia.NewMatrix(g,
		tensor.Float64,
		gorgonia.WithShape(HiddenLayerSize, OutputActions),
		gorgonia.WithInit(gorgonia.GlorotU(1.0)))

	b2 := gorgonia.NewMatrix(g,
		tensor.Float64,
		gorgonia.WithShape(1, OutputActions),
		gorgonia.WithInit(gorgonia.Zeroes()))

	n := &network{
		g:      g,
		w1:     w1,
		w2:     w2,
		b1:     b1,
		b2:     b2,
		solver: gorgonia.NewAdamSolver(gorgonia.WithL2Reg(1e-6)),
	}
	n.vm = gorgonia.NewTapeMachine(g)
	return n
}

// Forward runs a batched forward pass; states holds batchSize*InputFeatures
// values and the result holds batchSize*OutputActions action values.
func (n *network) Forward(states []float64) ([]float64, error) {
	batchSize := len(states) / InputFeatures
	if batchSize == 0 {
		batchSize = 1
	}

	g := n.g
	statesTensor := tensor.New(tensor.WithBacking(states), tensor.WithShape(batchSize, InputFeatures))
	statesNode := gorgonia.NodeFromAny(g, statesTensor)

	expandBias := func(bias *gorgonia.Node, size int) (*gorgonia.Node, error) {
		backing := make([]float64, size)
		for i := range backing {
			backing[i] = 1.0
		}
		ones := tensor.New(tensor.WithShape(size, 1), tensor.WithBacking(backing))
		onesNode := gorgonia.NodeFromAny(g, ones)
		return gorgonia.Mul(onesNode, bias)
	}

	h1 := gorgonia.Must(gorgonia.Mul(statesNode, n.w1))
	bias1 := gorgonia.Must(expandBias(n.b1, batchSize))
	h1 = gorgonia.Must(gorgonia.Add(h1, bias1))
	h1 = gorgonia.Must(gorgonia.Rectify(h1))

	output := gorgonia.Must(gorgonia.Mul(h1, n.w2))
	bias2 := gorgonia.Must(expandBias(n.b2, batchSize))
	pred := gorgonia.Must(gorgonia.Add(output, bias2))

	if err := n.vm.RunAll(); err != nil {
		return nil, fmt.Errorf("forward pass error: %v", err)
	}
	n.vm.Reset()

	predValue := pred.Value()
	if predValue == nil {
		return nil, fmt.Errorf("nil prediction value")
	}
	predTensor, ok := predValue.(*tensor.Dense)
	if !ok {
		return nil, fmt.Errorf("invalid prediction tensor type")
	}

	predictions := make([]float64, batchSize*OutputActions)
	copy(predictions, predTensor.Data().([]float64))
	return predictions, nil
}

// DQNBackend is a deep Q-network policy with experience replay and a soft
// updated target network. One shared network serves the whole population.
type DQNBackend struct {
	net       *network
	targetNet *network
	replay    *ReplayBuffer

	Epsilon        float32
	InitialEpsilon float32
	MinEpsilon     float32
	EpsilonDecay   float32
	Discount       float64
	Episodes       int

	rng         *rand.Rand
	weightsPath string
}

// NewDQNBackend creates a backend with fresh weights, loading a checkpoint
// from weightsPath when one exists.
func NewDQNBackend(weightsPath string, seed uint64) *DQNBackend {
	rng := rand.New(rand.NewSource(seed))
	b := &DQNBackend{
		net:            newNetwork(),
		targetNet:      newNetwork(),
		replay:         NewReplayBuffer(ReplayBufferSize, rng),
		Epsilon:        InitialEpsilon,
		InitialEpsilon: InitialEpsilon,
		MinEpsilon:     MinEpsilon,
		EpsilonDecay:   EpsilonDecay,
		Discount:       Gamma,
		rng:            rng,
		weightsPath:    weightsPath,
	}
	if weightsPath != "" {
		if err := b.LoadWeights(weightsPath); err != nil {
			log.Printf("[DQN] no usable checkpoint at %s: %v", weightsPath, err)
		}
	}
	return b
}

// Name implements the policy backend contract.
func (b *DQNBackend) Name() string { return "DQN" }

// SelectAction picks epsilon-greedily from the network's action values.
func (b *DQNBackend) SelectAction(state uint32) (int, error) {
	if b.rng.Float32() < b.Epsilon {
		return b.rng.Intn(OutputActions), nil
	}
	qValues, err := b.net.Forward(StateFeatures(state))
	if err != nil {
		return 0, err
	}
	best, maxQ := 0, math.Inf(-1)
	for action, q := range qValues {
		if q > maxQ {
			maxQ = q
			best = action
		}
	}
	return best, nil
}

// SelectActions batches inference for all active agents into one forward
// pass. Exploration is still decided per agent.
func (b *DQNBackend) SelectActions(states []uint32) ([]int, error) {
	if len(states) == 0 {
		return nil, nil
	}
	features := make([]float64, 0, len(states)*InputFeatures)
	for _, s := range states {
		features = AppendStateFeatures(features, s)
	}
	qValues, err := b.net.Forward(features)
	if err != nil {
		return nil, err
	}
	actions := make([]int, len(states))
	for i := range states {
		if b.rng.Float32() < b.Epsilon {
			actions[i] = b.rng.Intn(OutputActions)
			continue
		}
		best, maxQ := 0, math.Inf(-1)
		for j := 0; j < OutputActions; j++ {
			if q := qValues[i*OutputActions+j]; q > maxQ {
				maxQ = q
				best = j
			}
		}
		actions[i] = best
	}
	return actions, nil
}

// Observe stores a transition for replay and decays exploration on episode
// ends.
func (b *DQNBackend) Observe(state uint32, action int, reward float32, next uint32, done bool) {
	b.replay.Add(Transition{
		State:     StateFeatures(state),
		Action:    action,
		Reward:    float64(reward),
		NextState: StateFeatures(next),
		Done:      done,
	})
	if done {
		b.Episodes++
		b.Epsilon *= b.EpsilonDecay
		if b.Epsilon < b.MinEpsilon {
			b.Epsilon = b.MinEpsilon
		}
	}
}

// TrainStep samples a replay batch and fits the network toward the
// target-network bootstrapped values.
func (b *DQNBackend) TrainStep() error {
	if b.replay.Len() < BatchSize {
		return nil
	}
	return b.trainOnBatch(b.replay.Sample(BatchSize))
}

func (b *DQNBackend) trainOnBatch(batch []Transition) error {
	g := b.net.g
	states := make([]float64, 0, len(batch)*InputFeatures)
	nextStates := make([]float64, 0, len(batch)*InputFeatures)
	for _, tr := range batch {
		states = append(states, tr.State...)
		nextStates = append(nextStates, tr.NextState...)
	}

	currentQ, err := b.net.Forward(states)
	if err != nil {
		return err
	}
	nextQ, err := b.targetNet.Forward(nextStates)
	if err != nil {
		return err
	}

	targetQ := make([]float64, len(batch)*OutputActions)
	copy(targetQ, currentQ)
	for i, tr := range batch {
		var bootstrap float64
		if !tr.Done {
			maxQ := math.Inf(-1)
			for j := 0; j < OutputActions; j++ {
				if q := nextQ[i*OutputActions+j]; q > maxQ {
					maxQ = q
				}
			}
			bootstrap = b.Discount * maxQ
		}
		targetQ[i*OutputActions+tr.Action] = tr.Reward + bootstrap
	}

	targetTensor := tensor.New(tensor.WithBacking(targetQ), tensor.WithShape(len(batch), OutputActions))
	targetNode := gorgonia.NodeFromAny(g, targetTensor)
	currentTensor := tensor.New(tensor.WithBacking(currentQ), tensor.WithShape(len(batch), OutputActions))
	currentNode := gorgonia.NodeFromAny(g, currentTensor)

	diff := gorgonia.Must(gorgonia.Sub(currentNode, targetNode))
	loss := gorgonia.Must(gorgonia.Mean(gorgonia.Must(gorgonia.Square(diff))))

	nodes := gorgonia.Nodes{b.net.w1, b.net.w2, b.net.b1, b.net.b2}
	gorgonia.Grad(loss, nodes...)

	if err := b.net.vm.RunAll(); err != nil {
		return fmt.Errorf("backprop error: %v", err)
	}

	grads := gorgonia.NodesToValueGrads(nodes)
	for _, grad := range grads {
		if grad == nil {
			continue
		}
		if t, ok := grad.(tensor.Tensor); ok {
			data := t.Data().([]float64)
			for i := range data {
				if math.Abs(data[i]) > GradientClip {
					data[i] *= GradientClip / math.Abs(data[i])
				}
			}
		}
	}

	if err := b.net.solver.Step(grads); err != nil {
		return fmt.Errorf("solver step error: %v", err)
	}
	b.net.vm.Reset()

	softUpdate(b.targetNet, b.net, TargetTau)
	return nil
}

// softUpdate nudges the target network toward the online network.
func softUpdate(target, source *network, tau float64) {
	copyTensor(target.w1.Value().(*tensor.Dense), source.w1.Value().(*tensor.Dense), tau)
	copyTensor(target.w2.Value().(*tensor.Dense), source.w2.Value().(*tensor.Dense), tau)
	copyTensor(target.b1.Value().(*tensor.Dense), source.b1.Value().(*tensor.Dense), tau)
	copyTensor(target.b2.Value().(*tensor.Dense), source.b2.Value().(*tensor.Dense), tau)
}

func copyTensor(target, source *tensor.Dense, tau float64) {
	targetData := target.Data().([]float64)
	sourceData := source.Data().([]float64)
	for i := range targetData {
		targetData[i] = tau*sourceData[i] + (1-tau)*targetData[i]
	}
}

// SaveWeights checkpoints the online network to the given file.
func (b *DQNBackend) SaveWeights(filename string) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create weights directory: %v", err)
		}
	}
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create weights file: %v", err)
	}
	defer f.Close()

	weights := map[string]*tensor.Dense{
		"w1": b.net.w1.Value().(*tensor.Dense),
		"w2": b.net.w2.Value().(*tensor.Dense),
		"b1": b.net.b1.Value().(*tensor.Dense),
		"b2": b.net.b2.Value().(*tensor.Dense),
	}
	if err := gob.NewEncoder(f).Encode(weights); err != nil {
		return fmt.Errorf("failed to encode weights: %v", err)
	}
	return nil
}

// Checkpoint saves to the path the backend was created with.
func (b *DQNBackend) Checkpoint() error {
	if b.weightsPath == "" {
		return nil
	}
	return b.SaveWeights(b.weightsPath)
}

// LoadWeights restores both networks from a checkpoint file.
func (b *DQNBackend) LoadWeights(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	var weights map[string]*tensor.Dense
	if err := gob.NewDecoder(f).Decode(&weights); err != nil {
		return fmt.Errorf("failed to decode weights: %v", err)
	}
	for name, nets := range map[string][2]*gorgonia.Node{
		"w1": {b.net.w1, b.targetNet.w1},
		"w2": {b.net.w2, b.targetNet.w2},
		"b1": {b.net.b1, b.targetNet.b1},
		"b2": {b.net.b2, b.targetNet.b2},
	} {
		if w, ok := weights[name]; ok {
			tensor.Copy(nets[0].Value().(*tensor.Dense), w)
			tensor.Copy(nets[1].Value().(*tensor.Dense), w)
		}
	}
	return nil
}
