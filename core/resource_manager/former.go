package resource_manager

import (
	"context"
	"fmt"
	"time"

	"grid-harness/api/rest/routes"
	"grid-harness/core/cluster"
	"grid-harness/core/models"
	"grid-harness/core/transport"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// FormationError reports that the desired node count was not reached before
// the formation deadline. Observed carries the best membership seen.
type FormationError struct {
	Desired  int
	Observed int
}

func (e *FormationError) Error() string {
	return fmt.Sprintf("cluster formation timed out: %d of %d nodes visible", e.Observed, e.Desired)
}

// HostProvider provisions remote hosts running the node agent. The returned
// addresses must already be seeded with each other.
type HostProvider interface {
	Provision(ctx context.Context, count int, tlsActive bool) ([]string, error)
	Terminate(ctx context.Context) error
}

// Former forms clusters: it starts (or attaches to) the desired number of
// node agents and blocks until they are mutually visible
type Former struct {
	provider     HostProvider // nil runs nodes in-process
	logger       *zap.Logger
	timeout      time.Duration
	pollInterval time.Duration
	cache        *ClusterCache
}

// NewFormer creates a new cluster former. A nil provider runs nodes
// in-process, which is what local verification runs use.
func NewFormer(provider HostProvider, logger *zap.Logger, timeout, pollInterval time.Duration) *Former {
	return &Former{
		provider:     provider,
		logger:       logger,
		timeout:      timeout,
		pollInterval: pollInterval,
		cache:        NewClusterCache(),
	}
}

// Form starts node discovery for the spec and blocks until exactly
// spec.Nodes nodes are mutually visible, or the formation deadline passes.
// Calling Form again with an identical spec while the first cluster is alive
// returns the existing cluster.
func (f *Former) Form(ctx context.Context, spec models.ClusterSpec) (*cluster.Cluster, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	if existing := f.cache.Get(spec.Key()); existing != nil {
		f.logger.Info("reusing live cluster", zap.String("spec", spec.Key()))
		return existing, nil
	}

	tr, err := transport.New(spec.Transport, spec.TLSConfigRef)
	if err != nil {
		return nil, err
	}

	f.logger.Info("forming cluster",
		zap.Int("nodes", spec.Nodes),
		zap.String("transport", string(spec.Transport)))

	var c *cluster.Cluster
	if f.provider != nil {
		c, err = f.attachRemote(ctx, spec, tr)
	} else {
		c, err = f.startLocal(ctx, spec, tr)
	}
	if err != nil {
		return nil, err
	}

	if err := f.awaitQuorum(ctx, spec, tr, c.Members()); err != nil {
		// the partial cluster is useless; reclaim whatever started
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if stopErr := c.Shutdown(shutdownCtx); stopErr != nil {
			f.logger.Warn("partial cluster teardown failed", zap.Error(stopErr))
		}
		return nil, err
	}

	key := spec.Key()
	c.OnShutdown(func(context.Context) error {
		f.cache.Evict(key)
		return nil
	})
	f.cache.Put(key, c)

	f.logger.Info("cluster formed", zap.Int("nodes", spec.Nodes))
	return c, nil
}

// startLocal launches spec.Nodes in-process node agents. The first node is
// the seed; the rest announce themselves to it.
func (f *Former) startLocal(ctx context.Context, spec models.ClusterSpec, tr *transport.Transport) (*cluster.Cluster, error) {
	var nodes []*cluster.Node
	var members []models.NodeInfo

	stopAll := func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, n := range nodes {
			n.Stop(stopCtx)
		}
	}

	for i := 0; i < spec.Nodes; i++ {
		node := cluster.NewNode(tr, f.logger)
		if err := node.Listen("127.0.0.1:0"); err != nil {
			stopAll()
			return nil, fmt.Errorf("failed to start node %d: %w", i, err)
		}

		r := mux.NewRouter()
		routes.SetupRoutes(r, node)
		node.Serve(r)

		nodes = append(nodes, node)
		members = append(members, node.Info())
	}

	seed := members[0].Addr
	for _, node := range nodes[1:] {
		node.Join(ctx, seed, f.pollInterval)
	}

	return cluster.NewCluster(spec, tr, f.logger, members, nodes), nil
}

// attachRemote provisions remote hosts for the node agents and attaches to
// them; membership identity is learned from their status endpoints.
func (f *Former) attachRemote(ctx context.Context, spec models.ClusterSpec, tr *transport.Transport) (*cluster.Cluster, error) {
	addrs, err := f.provider.Provision(ctx, spec.Nodes, tr.TLSActive())
	if err != nil {
		return nil, fmt.Errorf("failed to provision node hosts: %w", err)
	}

	members := make([]models.NodeInfo, len(addrs))
	client := tr.Client(5 * time.Second)
	for i, addr := range addrs {
		members[i] = models.NodeInfo{Addr: addr}
		var status models.NodeStatus
		if err := cluster.GetJSON(ctx, client, addr+"/v1/status", &status); err == nil {
			members[i].ID = status.NodeID
		}
	}

	c := cluster.NewCluster(spec, tr, f.logger, members, nil)
	provider := f.provider
	c.OnShutdown(func(ctx context.Context) error {
		return provider.Terminate(ctx)
	})
	return c, nil
}

// awaitQuorum blocks until every member reports exactly spec.Nodes visible
// peers. A transient majority never counts as formed: all members must agree
// on the full count at the same poll.
func (f *Former) awaitQuorum(ctx context.Context, spec models.ClusterSpec, tr *transport.Transport, members []models.NodeInfo) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	client := tr.Client(5 * time.Second)
	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	observed := 0
	for {
		formed := true
		for _, m := range members {
			var status models.NodeStatus
			if err := cluster.GetJSON(ctx, client, m.Addr+"/v1/status", &status); err != nil {
				formed = false
				continue
			}
			if status.Peers > observed {
				observed = status.Peers
			}
			if status.Peers != spec.Nodes {
				formed = false
			}
		}
		if formed {
			return nil
		}

		select {
		case <-ctx.Done():
			return &FormationError{Desired: spec.Nodes, Observed: observed}
		case <-ticker.C:
		}
	}
}
