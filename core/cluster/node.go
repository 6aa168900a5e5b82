package cluster

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"grid-harness/core/models"
	"grid-harness/core/transport"
	"grid-harness/storage"
	"grid-harness/training"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Node is one member of the compute cluster. It serves the node API over the
// configured transport, tracks the peers it can see, holds the remote-resident
// objects of this node, and executes training jobs submitted to it.
type Node struct {
	info      models.NodeInfo
	transport *transport.Transport
	logger    *zap.Logger

	listener net.Listener
	server   *http.Server
	cancel   context.CancelFunc

	store *storage.HandleStore

	mu    sync.RWMutex
	peers map[string]string             // node id -> addr
	jobs  map[string]*models.JobResult
}

// NewNode creates an unstarted node bound to the given transport
func NewNode(tr *transport.Transport, logger *zap.Logger) *Node {
	return &Node{
		info:      models.NodeInfo{ID: uuid.New().String()},
		transport: tr,
		logger:    logger,
		peers:     make(map[string]string),
		jobs:      make(map[string]*models.JobResult),
	}
}

// Info returns this node's identity. Addr is set once Listen has run.
func (n *Node) Info() models.NodeInfo {
	return n.info
}

// Store returns the node's handle store
func (n *Node) Store() *storage.HandleStore {
	return n.store
}

// Transport returns the node's transport
func (n *Node) Transport() *transport.Transport {
	return n.transport
}

// Listen binds the node to addr (use host:0 for an ephemeral port) and fixes
// its advertised address. Must be called before Serve.
func (n *Node) Listen(addr string) error {
	ln, err := n.transport.Listen(addr)
	if err != nil {
		return err
	}
	n.listener = ln
	n.info.Addr = fmt.Sprintf("%s://%s", n.transport.Scheme(), ln.Addr().String())
	n.store = storage.NewHandleStore(n.info.Addr)

	n.mu.Lock()
	n.peers[n.info.ID] = n.info.Addr
	n.mu.Unlock()
	return nil
}

// Serve starts the node API in a background goroutine
func (n *Node) Serve(handler http.Handler) {
	n.server = &http.Server{Handler: handler}
	go func() {
		if err := n.server.Serve(n.listener); err != nil && err != http.ErrServerClosed {
			n.logger.Error("node server stopped", zap.String("node", n.info.ID), zap.Error(err))
		}
	}()
}

// Join starts announcing this node to the seed until ctx ends. The seed
// responds with its full peer list, which this node adopts, so membership
// converges regardless of join order.
func (n *Node) Join(ctx context.Context, seedAddr string, interval time.Duration) {
	ctx, n.cancel = context.WithCancel(ctx)
	client := n.transport.Client(5 * time.Second)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			n.announce(ctx, client, seedAddr)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func (n *Node) announce(ctx context.Context, client *http.Client, seedAddr string) {
	var peers []models.NodeInfo
	err := PostJSON(ctx, client, seedAddr+"/v1/peers", n.info, &peers)
	if err != nil {
		n.logger.Debug("announce failed", zap.String("node", n.info.ID), zap.Error(err))
		return
	}
	n.AddPeers(peers...)
}

// AddPeers merges peer announcements into this node's view and returns the
// full membership as currently visible
func (n *Node) AddPeers(infos ...models.NodeInfo) []models.NodeInfo {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, info := range infos {
		if info.ID == "" || info.Addr == "" {
			continue
		}
		n.peers[info.ID] = info.Addr
	}

	out := make([]models.NodeInfo, 0, len(n.peers))
	for id, addr := range n.peers {
		out = append(out, models.NodeInfo{ID: id, Addr: addr})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Status reports this node's view of the cluster
func (n *Node) Status() models.NodeStatus {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return models.NodeStatus{
		NodeID:    n.info.ID,
		Peers:     len(n.peers),
		TLSActive: n.transport.TLSActive(),
	}
}

// SubmitJob accepts a job definition and starts training asynchronously,
// returning the job ID to poll
func (n *Node) SubmitJob(def models.JobDefinition) string {
	jobID := uuid.New().String()

	n.mu.Lock()
	n.jobs[jobID] = &models.JobResult{Status: models.JobStatusRunning}
	n.mu.Unlock()

	go n.runJob(jobID, def)
	return jobID
}

// JobResult returns the current result for a job ID
func (n *Node) JobResult(jobID string) (models.JobResult, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	result, ok := n.jobs[jobID]
	if !ok {
		return models.JobResult{}, false
	}
	return *result, ok
}

// runJob trains the model and moves the job to a terminal state exactly once
func (n *Node) runJob(jobID string, def models.JobDefinition) {
	result := models.JobResult{Status: models.JobStatusFailed}
	start := time.Now()

	model, err := n.train(def)
	result.TrainingElapsed = time.Since(start)
	if err != nil {
		result.Error = err.Error()
		n.logger.Warn("training failed",
			zap.String("node", n.info.ID),
			zap.String("job", jobID),
			zap.Error(err))
	} else {
		artifact := n.store.Put(models.HandleModel, model)
		result.Status = models.JobStatusSucceeded
		result.Artifact = &artifact
	}

	n.mu.Lock()
	n.jobs[jobID] = &result
	n.mu.Unlock()
}

func (n *Node) train(def models.JobDefinition) (training.Model, error) {
	engine, err := training.ForAlgorithm(def.Algorithm)
	if err != nil {
		return nil, err
	}

	frame, err := n.localFrame(def.TrainingHandle)
	if err != nil {
		return nil, fmt.Errorf("training frame: %w", err)
	}
	var valid *training.Frame
	if def.ValidationHandle != nil {
		valid, err = n.localFrame(*def.ValidationHandle)
		if err != nil {
			return nil, fmt.Errorf("validation frame: %w", err)
		}
	}

	return engine.Train(def, frame, valid)
}

// Score runs a model resident on this node over a frame resident on this
// node and stores the predictions as a new scored frame
func (n *Node) Score(modelID, frameID string) (models.Handle, error) {
	obj, err := n.store.Get(modelID)
	if err != nil {
		return models.Handle{}, err
	}
	model, ok := obj.(training.Model)
	if !ok {
		return models.Handle{}, fmt.Errorf("handle %s is not a model", modelID)
	}

	obj, err = n.store.Get(frameID)
	if err != nil {
		return models.Handle{}, err
	}
	frame, ok := obj.(*training.Frame)
	if !ok {
		return models.Handle{}, fmt.Errorf("handle %s is not a frame", frameID)
	}

	scored, err := model.Score(frame)
	if err != nil {
		return models.Handle{}, fmt.Errorf("scoring failed: %w", err)
	}
	return n.store.Put(models.HandleScoredFrame, scored), nil
}

func (n *Node) localFrame(h models.Handle) (*training.Frame, error) {
	if h.NodeAddr != n.info.Addr {
		return nil, fmt.Errorf("handle %s is resident on %s, not this node", h.ID, h.NodeAddr)
	}
	obj, err := n.store.Get(h.ID)
	if err != nil {
		return nil, err
	}
	frame, ok := obj.(*training.Frame)
	if !ok {
		return nil, fmt.Errorf("handle %s is not a frame", h.ID)
	}
	return frame, nil
}

// Stop shuts the node down: the announce loop first, then the API server
func (n *Node) Stop(ctx context.Context) error {
	if n.cancel != nil {
		n.cancel()
	}
	if n.server == nil {
		return nil
	}
	if err := n.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop node %s: %w", n.info.ID, err)
	}
	return nil
}
