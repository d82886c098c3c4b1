package qlearning

import (
	"testing"

	"golang.org/x/exp/rand"
)

func TestReplayBufferRing(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	b := NewReplayBuffer(4, rng)
	for i := 0; i < 6; i++ {
		b.Add(Transition{Action: i})
	}
	if b.Len() != 4 {
		t.Fatalf("len = %d, want 4", b.Len())
	}
	// The two oldest entries were overwritten.
	for _, tr := range b.buffer {
		if tr.Action < 2 {
			t.Errorf("stale transition %d survived the ring wrap", tr.Action)
		}
	}
}

func TestReplayBufferSample(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	b := NewReplayBuffer(10, rng)
	for i := 0; i < 3; i++ {
		b.Add(Transition{Action: i})
	}
	batch := b.Sample(8)
	if len(batch) != 3 {
		t.Errorf("sample of underfull buffer returned %d, want 3", len(batch))
	}
	for _, tr := range batch {
		if tr.Action < 0 || tr.Action > 2 {
			t.Errorf("sampled transition outside stored range: %d", tr.Action)
		}
	}
}

func TestStateFeaturesShapeAndRange(t *testing.T) {
	// A key with apple ahead, danger left, bearing straight, nearest bucket.
	var key uint32
	key |= 2 << 2  // apple in the ahead cell
	key |= 1 << 6  // danger in the left cell
	key |= 1 << 16 // bearing straight-ish
	// distance bucket 0

	f := StateFeatures(key)
	if len(f) != InputFeatures {
		t.Fatalf("feature length = %d, want %d", len(f), InputFeatures)
	}
	if f[1] != 1.0 {
		t.Errorf("apple cell feature = %v, want 1.0", f[1])
	}
	if f[3] != 0.5 {
		t.Errorf("danger cell feature = %v, want 0.5", f[3])
	}
	if f[VisionCells+1] != 1.0 {
		t.Errorf("bearing one-hot = %v", f[VisionCells:VisionCells+BearingClasses])
	}
	if f[VisionCells+BearingClasses] != 1.0 {
		t.Errorf("distance one-hot = %v", f[VisionCells+BearingClasses:])
	}
	for i, v := range f {
		if v < 0 || v > 1 {
			t.Errorf("feature %d = %v outside [0,1]", i, v)
		}
	}
}

func TestDQNObserveDecaysEpsilonOnDone(t *testing.T) {
	b := NewDQNBackend("", 3)
	eps := b.Epsilon
	b.Observe(0, 1, -0.005, 1, false)
	if b.Epsilon != eps {
		t.Error("epsilon decayed on a non-terminal step")
	}
	b.Observe(1, 1, -30, 2, true)
	if b.Epsilon >= eps {
		t.Errorf("epsilon %v did not decay on episode end", b.Epsilon)
	}
	if b.Episodes != 1 {
		t.Errorf("episodes = %d", b.Episodes)
	}

	for i := 0; i < 2000; i++ {
		b.Observe(0, 0, 0, 0, true)
	}
	if b.Epsilon != b.MinEpsilon {
		t.Errorf("epsilon %v never reached the floor %v", b.Epsilon, b.MinEpsilon)
	}
}

func TestDQNTrainStepBelowBatchIsNoop(t *testing.T) {
	b := NewDQNBackend("", 4)
	for i := 0; i < BatchSize-1; i++ {
		b.Observe(uint32(i), i%OutputActions, 0.1, uint32(i+1), false)
	}
	if err := b.TrainStep(); err != nil {
		t.Fatalf("train step on underfull buffer: %v", err)
	}
}
