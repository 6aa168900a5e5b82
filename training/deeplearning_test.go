package training

import (
	"testing"

	"grid-harness/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// thresholdFrame has a binary target that flips where the predictor crosses zero
func thresholdFrame() *Frame {
	const rows = 40
	survived := make([]float64, rows)
	x := make([]float64, rows)
	for i := 0; i < rows; i++ {
		x[i] = float64(i-rows/2) / 4
		if x[i] > 0 {
			survived[i] = 1
		}
	}
	return &Frame{Names: []string{"survived", "x"}, Cols: [][]float64{survived, x}}
}

func TestDeepLearningLearnsSeparableData(t *testing.T) {
	frame := thresholdFrame()
	def := models.JobDefinition{
		Algorithm:    models.AlgorithmDeepLearning,
		TargetColumn: "survived",
		Hyperparameters: map[string]string{
			"hidden": "4",
			"seed":   "0xdecaf",
			"epochs": "300",
			"rate":   "0.1",
		},
	}

	model, err := (&DeepLearningEngine{}).Train(def, frame, nil)
	require.NoError(t, err)

	scored, err := model.Score(frame)
	require.NoError(t, err)
	require.Equal(t, []string{"predict", "p1"}, scored.Names)

	correct := 0
	for i, class := range scored.Cols[0] {
		if class == frame.Cols[0][i] {
			correct++
		}
	}
	accuracy := float64(correct) / float64(frame.NumRows())
	assert.GreaterOrEqual(t, accuracy, 0.9, "classifier should separate the threshold data")
}

func TestDeepLearningSeedIsReproducible(t *testing.T) {
	frame := thresholdFrame()
	def := models.JobDefinition{
		Algorithm:    models.AlgorithmDeepLearning,
		TargetColumn: "survived",
		Hyperparameters: map[string]string{
			"hidden": "20,20",
			"seed":   "0xdecaf",
			"epochs": "5",
		},
	}

	engine := &DeepLearningEngine{}
	first, err := engine.Train(def, frame, nil)
	require.NoError(t, err)
	second, err := engine.Train(def, frame, nil)
	require.NoError(t, err)

	scoredFirst, err := first.Score(frame)
	require.NoError(t, err)
	scoredSecond, err := second.Score(frame)
	require.NoError(t, err)

	assert.Equal(t, scoredFirst.Cols, scoredSecond.Cols)
}

func TestDeepLearningRejectsNonBinaryTarget(t *testing.T) {
	frame := &Frame{
		Names: []string{"survived", "x"},
		Cols:  [][]float64{{0, 1, 2}, {1, 2, 3}},
	}
	def := models.JobDefinition{TargetColumn: "survived"}

	_, err := (&DeepLearningEngine{}).Train(def, frame, nil)
	assert.Error(t, err)
}

func TestForAlgorithm(t *testing.T) {
	tests := []struct {
		name    string
		kind    models.AlgorithmKind
		wantErr bool
	}{
		{name: "gradient boosted trees", kind: models.AlgorithmGBM},
		{name: "neural network", kind: models.AlgorithmDeepLearning},
		{name: "unknown", kind: models.AlgorithmKind("random_forest"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := ForAlgorithm(tt.kind)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, engine)
		})
	}
}
