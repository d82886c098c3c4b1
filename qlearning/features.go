package qlearning

// Feature layout decoded from a 20-bit state key: 8 vision cells scaled to
// [0,1], a 3-way one-hot apple bearing, and a 4-way one-hot distance bucket.
const (
	VisionCells    = 8
	BearingClasses = 3
	DistClasses    = 4
	InputFeatures  = VisionCells + BearingClasses + DistClasses
	OutputActions  = 3
)

// StateFeatures expands a packed state key into the network input vector.
func StateFeatures(state uint32) []float64 {
	f := make([]float64, InputFeatures)
	for i := 0; i < VisionCells; i++ {
		cell := (state >> (2 * i)) & 3
		f[i] = float64(cell) / 2.0
	}
	bearing := (state >> 16) & 3
	if bearing < BearingClasses {
		f[VisionCells+bearing] = 1.0
	}
	dist := (state >> 18) & 3
	f[VisionCells+BearingClasses+dist] = 1.0
	return f
}

// AppendStateFeatures writes the feature vector for state into dst, which
// batched callers reuse across agents.
func AppendStateFeatures(dst []float64, state uint32) []float64 {
	return append(dst, StateFeatures(state)...)
}
