package training

import (
	"fmt"
	"math"
	"math/rand"

	"grid-harness/core/models"
)

// DeepLearningEngine trains a seeded feed-forward binary classifier.
// Hyperparameters: hidden (comma-separated layer sizes), seed, epochs, rate.
type DeepLearningEngine struct{}

// DeepLearningModel is a trained feed-forward network
type DeepLearningModel struct {
	layers     []layer
	predictors []string
}

type layer struct {
	weights [][]float64 // [out][in]
	bias    []float64
}

// Train fits the network with plain SGD on log loss. The same seed always
// produces the same weights, so reproducible runs compare equal.
func (e *DeepLearningEngine) Train(def models.JobDefinition, train, valid *Frame) (Model, error) {
	hidden := hpIntList(def.Hyperparameters, "hidden", []int{20, 20})
	seed := hpInt64(def.Hyperparameters, "seed", 0xdecaf)
	epochs := hpInt(def.Hyperparameters, "epochs", 20)
	rate := hpFloat(def.Hyperparameters, "rate", 0.05)

	target, err := train.Column(def.TargetColumn)
	if err != nil {
		return nil, err
	}
	for _, y := range target {
		if y != 0 && y != 1 {
			return nil, fmt.Errorf("target column %q is not binary", def.TargetColumn)
		}
	}
	names, cols := train.Predictors(def.TargetColumn)
	if len(cols) == 0 {
		return nil, fmt.Errorf("no predictor columns besides target %q", def.TargetColumn)
	}

	rng := rand.New(rand.NewSource(seed))
	model := &DeepLearningModel{predictors: names}

	sizes := append([]int{len(cols)}, hidden...)
	sizes = append(sizes, 1)
	for l := 1; l < len(sizes); l++ {
		ly := layer{
			weights: make([][]float64, sizes[l]),
			bias:    make([]float64, sizes[l]),
		}
		scale := 1.0 / math.Sqrt(float64(sizes[l-1]))
		for o := range ly.weights {
			ly.weights[o] = make([]float64, sizes[l-1])
			for i := range ly.weights[o] {
				ly.weights[o][i] = rng.NormFloat64() * scale
			}
		}
		model.layers = append(model.layers, ly)
	}

	rows := train.NumRows()
	order := make([]int, rows)
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < epochs; epoch++ {
		rng.Shuffle(rows, func(i, j int) { order[i], order[j] = order[j], order[i] })
		for _, r := range order {
			input := rowVector(cols, r)
			model.backprop(input, target[r], rate)
		}
	}

	return model, nil
}

// Score appends probability and class columns for each row
func (m *DeepLearningModel) Score(frame *Frame) (*Frame, error) {
	cols := make([][]float64, len(m.predictors))
	for i, name := range m.predictors {
		col, err := frame.Column(name)
		if err != nil {
			return nil, fmt.Errorf("scoring frame is missing predictor: %w", err)
		}
		cols[i] = col
	}

	rows := frame.NumRows()
	prob := make([]float64, rows)
	class := make([]float64, rows)
	for r := 0; r < rows; r++ {
		p := m.forward(rowVector(cols, r))
		prob[r] = p
		if p >= 0.5 {
			class[r] = 1
		}
	}
	return &Frame{Names: []string{"predict", "p1"}, Cols: [][]float64{class, prob}}, nil
}

// forward runs one input through the network to the output probability
func (m *DeepLearningModel) forward(input []float64) float64 {
	activations := m.activations(input)
	return activations[len(activations)-1][0]
}

// activations returns per-layer outputs, tanh on hidden layers and a
// sigmoid on the single output unit
func (m *DeepLearningModel) activations(input []float64) [][]float64 {
	out := make([][]float64, len(m.layers))
	current := input
	for l, ly := range m.layers {
		next := make([]float64, len(ly.weights))
		for o := range ly.weights {
			sum := ly.bias[o]
			for i, w := range ly.weights[o] {
				sum += w * current[i]
			}
			if l == len(m.layers)-1 {
				next[o] = sigmoid(sum)
			} else {
				next[o] = math.Tanh(sum)
			}
		}
		out[l] = next
		current = next
	}
	return out
}

// backprop applies one SGD step for a single labelled row
func (m *DeepLearningModel) backprop(input []float64, label, rate float64) {
	activations := m.activations(input)

	// output delta for sigmoid + log loss
	deltas := make([][]float64, len(m.layers))
	last := len(m.layers) - 1
	deltas[last] = []float64{activations[last][0] - label}

	for l := last - 1; l >= 0; l-- {
		deltas[l] = make([]float64, len(m.layers[l].weights))
		for i := range deltas[l] {
			sum := 0.0
			for o := range m.layers[l+1].weights {
				sum += m.layers[l+1].weights[o][i] * deltas[l+1][o]
			}
			a := activations[l][i]
			deltas[l][i] = sum * (1 - a*a) // tanh'
		}
	}

	for l := range m.layers {
		in := input
		if l > 0 {
			in = activations[l-1]
		}
		for o := range m.layers[l].weights {
			for i := range m.layers[l].weights[o] {
				m.layers[l].weights[o][i] -= rate * deltas[l][o] * in[i]
			}
			m.layers[l].bias[o] -= rate * deltas[l][o]
		}
	}
}

func rowVector(cols [][]float64, row int) []float64 {
	v := make([]float64, len(cols))
	for i, col := range cols {
		v[i] = col[row]
	}
	return v
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
