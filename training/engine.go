package training

import (
	"fmt"
	"strconv"
	"strings"

	"grid-harness/core/models"
)

// Model is a trained artifact that can score a frame
type Model interface {
	// Score produces a prediction frame with one row per input row
	Score(frame *Frame) (*Frame, error)
}

// Engine trains one algorithm family. The harness core treats engines as
// opaque collaborators: it only sees terminal status and handles.
type Engine interface {
	Train(def models.JobDefinition, train, valid *Frame) (Model, error)
}

// ForAlgorithm returns the engine for the requested algorithm kind
func ForAlgorithm(kind models.AlgorithmKind) (Engine, error) {
	switch kind {
	case models.AlgorithmGBM:
		return &GBMEngine{}, nil
	case models.AlgorithmDeepLearning:
		return &DeepLearningEngine{}, nil
	default:
		return nil, fmt.Errorf("unsupported algorithm: %s", kind)
	}
}

// hyperparameter lookup helpers; missing or malformed values fall back to
// the algorithm default

func hpInt(hp map[string]string, key string, def int) int {
	if v, ok := hp[key]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func hpFloat(hp map[string]string, key string, def float64) float64 {
	if v, ok := hp[key]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func hpInt64(hp map[string]string, key string, def int64) int64 {
	if v, ok := hp[key]; ok {
		if n, err := strconv.ParseInt(v, 0, 64); err == nil {
			return n
		}
	}
	return def
}

func hpIntList(hp map[string]string, key string, def []int) []int {
	v, ok := hp[key]
	if !ok {
		return def
	}
	var out []int
	for _, part := range strings.Split(v, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return def
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return def
	}
	return out
}
