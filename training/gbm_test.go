package training

import (
	"testing"

	"grid-harness/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoGroupFrame has a target split cleanly into two levels by the predictor
func twoGroupFrame() *Frame {
	return &Frame{
		Names: []string{"response", "predictor"},
		Cols: [][]float64{
			{10, 10, 10, 10, 10, 20, 20, 20, 20, 20},
			{1, 2, 3, 4, 5, 11, 12, 13, 14, 15},
		},
	}
}

func TestGBMSingleStumpRecoversGroupMeans(t *testing.T) {
	def := models.JobDefinition{
		Algorithm:    models.AlgorithmGBM,
		TargetColumn: "response",
		Hyperparameters: map[string]string{
			"ntrees":     "1",
			"max_depth":  "1",
			"min_rows":   "1",
			"nbins":      "20",
			"learn_rate": "1.0",
		},
	}

	engine := &GBMEngine{}
	frame := twoGroupFrame()
	model, err := engine.Train(def, frame, nil)
	require.NoError(t, err)

	scored, err := model.Score(frame)
	require.NoError(t, err)
	require.Equal(t, []string{"predict"}, scored.Names)
	require.Equal(t, frame.NumRows(), scored.NumRows())

	predict := scored.Cols[0]
	for i := 0; i < 5; i++ {
		assert.InDelta(t, 10, predict[i], 1e-9)
	}
	for i := 5; i < 10; i++ {
		assert.InDelta(t, 20, predict[i], 1e-9)
	}
}

func TestGBMEnsembleFitsLinearTrend(t *testing.T) {
	const rows = 40
	response := make([]float64, rows)
	predictor := make([]float64, rows)
	for i := 0; i < rows; i++ {
		predictor[i] = float64(i + 1)
		response[i] = 2 * predictor[i]
	}
	frame := &Frame{Names: []string{"response", "predictor"}, Cols: [][]float64{response, predictor}}

	def := models.JobDefinition{
		Algorithm:    models.AlgorithmGBM,
		TargetColumn: "response",
		Hyperparameters: map[string]string{
			"ntrees":     "30",
			"max_depth":  "3",
			"min_rows":   "2",
			"learn_rate": "0.3",
		},
	}

	model, err := (&GBMEngine{}).Train(def, frame, nil)
	require.NoError(t, err)

	scored, err := model.Score(frame)
	require.NoError(t, err)

	mse := 0.0
	for i, p := range scored.Cols[0] {
		d := p - response[i]
		mse += d * d
	}
	mse /= rows
	assert.Less(t, mse, 5.0, "ensemble should fit the training trend closely")
}

func TestGBMTrainErrors(t *testing.T) {
	engine := &GBMEngine{}
	frame := twoGroupFrame()

	t.Run("unknown target column", func(t *testing.T) {
		_, err := engine.Train(models.JobDefinition{TargetColumn: "missing"}, frame, nil)
		assert.Error(t, err)
	})

	t.Run("no predictors besides target", func(t *testing.T) {
		single := &Frame{Names: []string{"response"}, Cols: [][]float64{{1, 2}}}
		_, err := engine.Train(models.JobDefinition{TargetColumn: "response"}, single, nil)
		assert.Error(t, err)
	})

	t.Run("ntrees below one", func(t *testing.T) {
		def := models.JobDefinition{
			TargetColumn:    "response",
			Hyperparameters: map[string]string{"ntrees": "0"},
		}
		_, err := engine.Train(def, frame, nil)
		assert.Error(t, err)
	})
}

func TestGBMScoreMissingPredictor(t *testing.T) {
	frame := twoGroupFrame()
	def := models.JobDefinition{
		TargetColumn:    "response",
		Hyperparameters: map[string]string{"ntrees": "1", "max_depth": "1", "min_rows": "1"},
	}
	model, err := (&GBMEngine{}).Train(def, frame, nil)
	require.NoError(t, err)

	_, err = model.Score(&Frame{Names: []string{"other"}, Cols: [][]float64{{1}}})
	assert.Error(t, err)
}
