package qlearning

import (
	"fmt"
	"os"

	"github.com/owulveryck/onnx-go"
	"github.com/owulveryck/onnx-go/backend/x/gorgonnx"
	"gorgonia.org/tensor"
)

// ONNXBackend runs action selection through an exported ONNX model, the
// swap-in path for externally trained or accelerator-targeted policies. The
// model must take a (1, InputFeatures) float32 input and produce at least
// OutputActions values.
type ONNXBackend struct {
	model   *onnx.Model
	backend *gorgonnx.Graph
}

// NewONNXBackend loads an ONNX model from disk.
func NewONNXBackend(path string) (*ONNXBackend, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read onnx model: %v", err)
	}
	backend := gorgonnx.NewGraph()
	model := onnx.NewModel(backend)
	if err := model.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("failed to decode onnx model: %v", err)
	}
	return &ONNXBackend{model: model, backend: backend}, nil
}

// Name implements the policy backend contract.
func (o *ONNXBackend) Name() string { return "ONNX" }

// SelectAction feeds the decoded state features through the model and picks
// the argmax of its output.
func (o *ONNXBackend) SelectAction(state uint32) (int, error) {
	features := StateFeatures(state)
	input := make([]float32, len(features))
	for i, v := range features {
		input[i] = float32(v)
	}
	t := tensor.New(tensor.WithShape(1, InputFeatures), tensor.WithBacking(input))
	if err := o.model.SetInput(0, t); err != nil {
		return 0, fmt.Errorf("onnx input error: %v", err)
	}
	if err := o.backend.Run(); err != nil {
		return 0, fmt.Errorf("onnx inference error: %v", err)
	}
	outputs, err := o.model.GetOutputTensors()
	if err != nil {
		return 0, fmt.Errorf("onnx output error: %v", err)
	}
	if len(outputs) == 0 {
		return 0, fmt.Errorf("onnx model produced no outputs")
	}
	data, ok := outputs[0].Data().([]float32)
	if !ok || len(data) < OutputActions {
		return 0, fmt.Errorf("onnx output has unexpected shape")
	}
	best, maxQ := 0, data[0]
	for i := 1; i < OutputActions; i++ {
		if data[i] > maxQ {
			maxQ = data[i]
			best = i
		}
	}
	return best, nil
}
