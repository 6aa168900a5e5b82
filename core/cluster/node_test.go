package cluster

import (
	"context"
	"testing"
	"time"

	"grid-harness/core/models"
	"grid-harness/core/transport"
	"grid-harness/training"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startNode(t *testing.T) *Node {
	t.Helper()
	tr, err := transport.New(models.TransportPlaintext, "")
	require.NoError(t, err)

	node := NewNode(tr, zap.NewNop())
	require.NoError(t, node.Listen("127.0.0.1:0"))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		node.Stop(ctx)
	})
	return node
}

func TestNodeListenFixesAddress(t *testing.T) {
	node := startNode(t)

	info := node.Info()
	assert.NotEmpty(t, info.ID)
	assert.Contains(t, info.Addr, "http://127.0.0.1:")

	// a node always sees at least itself
	assert.Equal(t, 1, node.Status().Peers)
	assert.False(t, node.Status().TLSActive)
}

func TestAddPeersMergesAndReturnsMembership(t *testing.T) {
	node := startNode(t)

	peers := node.AddPeers(
		models.NodeInfo{ID: "peer-a", Addr: "http://127.0.0.1:9001"},
		models.NodeInfo{ID: "peer-b", Addr: "http://127.0.0.1:9002"},
	)
	assert.Len(t, peers, 3)

	// re-announcing is idempotent
	peers = node.AddPeers(models.NodeInfo{ID: "peer-a", Addr: "http://127.0.0.1:9001"})
	assert.Len(t, peers, 3)
	assert.Equal(t, 3, node.Status().Peers)

	// blank announcements are ignored
	peers = node.AddPeers(models.NodeInfo{})
	assert.Len(t, peers, 3)
}

func TestRunJobReachesTerminalState(t *testing.T) {
	node := startNode(t)

	frame := &training.Frame{
		Names: []string{"response", "predictor"},
		Cols:  [][]float64{{10, 10, 20, 20}, {1, 2, 11, 12}},
	}
	h := node.Store().Put(models.HandleFrame, frame)

	jobID := node.SubmitJob(models.JobDefinition{
		Algorithm:       models.AlgorithmGBM,
		TrainingHandle:  h,
		TargetColumn:    "response",
		Hyperparameters: map[string]string{"ntrees": "1", "max_depth": "1", "min_rows": "1"},
	})

	require.Eventually(t, func() bool {
		result, ok := node.JobResult(jobID)
		return ok && result.Status.Terminal()
	}, 10*time.Second, 20*time.Millisecond)

	result, ok := node.JobResult(jobID)
	require.True(t, ok)
	assert.Equal(t, models.JobStatusSucceeded, result.Status)
	require.NotNil(t, result.Artifact)
	assert.Equal(t, models.HandleModel, result.Artifact.Kind)
}

func TestRunJobWithValidationFrame(t *testing.T) {
	node := startNode(t)

	frame := &training.Frame{
		Names: []string{"survived", "x"},
		Cols:  [][]float64{{0, 0, 1, 1}, {-2, -1, 1, 2}},
	}
	h := node.Store().Put(models.HandleFrame, frame)

	jobID := node.SubmitJob(models.JobDefinition{
		Algorithm:        models.AlgorithmDeepLearning,
		TrainingHandle:   h,
		ValidationHandle: &h,
		TargetColumn:     "survived",
		Hyperparameters:  map[string]string{"hidden": "4", "seed": "1", "epochs": "2"},
	})

	require.Eventually(t, func() bool {
		result, ok := node.JobResult(jobID)
		return ok && result.Status.Terminal()
	}, 10*time.Second, 20*time.Millisecond)

	result, _ := node.JobResult(jobID)
	assert.Equal(t, models.JobStatusSucceeded, result.Status)
}

func TestRunJobRejectsForeignValidationHandle(t *testing.T) {
	node := startNode(t)

	frame := &training.Frame{
		Names: []string{"survived", "x"},
		Cols:  [][]float64{{0, 1}, {-1, 1}},
	}
	h := node.Store().Put(models.HandleFrame, frame)
	foreign := models.Handle{ID: "elsewhere", Kind: models.HandleFrame, NodeAddr: "http://10.0.0.1:7070"}

	jobID := node.SubmitJob(models.JobDefinition{
		Algorithm:        models.AlgorithmDeepLearning,
		TrainingHandle:   h,
		ValidationHandle: &foreign,
		TargetColumn:     "survived",
	})

	require.Eventually(t, func() bool {
		result, ok := node.JobResult(jobID)
		return ok && result.Status.Terminal()
	}, 10*time.Second, 20*time.Millisecond)

	result, _ := node.JobResult(jobID)
	assert.Equal(t, models.JobStatusFailed, result.Status)
	assert.Contains(t, result.Error, "validation frame")
}

func TestRunJobRejectsForeignHandle(t *testing.T) {
	node := startNode(t)

	foreign := models.Handle{ID: "elsewhere", Kind: models.HandleFrame, NodeAddr: "http://10.0.0.1:7070"}
	jobID := node.SubmitJob(models.JobDefinition{
		Algorithm:      models.AlgorithmGBM,
		TrainingHandle: foreign,
		TargetColumn:   "response",
	})

	require.Eventually(t, func() bool {
		result, ok := node.JobResult(jobID)
		return ok && result.Status.Terminal()
	}, 10*time.Second, 20*time.Millisecond)

	result, _ := node.JobResult(jobID)
	assert.Equal(t, models.JobStatusFailed, result.Status)
	assert.Contains(t, result.Error, "resident on")
}

func TestJobResultUnknownID(t *testing.T) {
	node := startNode(t)
	_, ok := node.JobResult("missing")
	assert.False(t, ok)
}

func TestScoreTypeChecksHandles(t *testing.T) {
	node := startNode(t)

	frame := &training.Frame{Names: []string{"x"}, Cols: [][]float64{{1, 2}}}
	frameHandle := node.Store().Put(models.HandleFrame, frame)

	t.Run("unknown model", func(t *testing.T) {
		_, err := node.Score("missing", frameHandle.ID)
		assert.Error(t, err)
	})

	t.Run("frame handle is not a model", func(t *testing.T) {
		_, err := node.Score(frameHandle.ID, frameHandle.ID)
		assert.Error(t, err)
	})
}
