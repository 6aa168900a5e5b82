package cluster

import (
	"context"
	"net/http"
	"sync"
	"time"

	"grid-harness/core/models"
	"grid-harness/core/transport"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// Cluster is a formed cluster: the explicit handle every operation takes.
// There is no process-wide implicit cluster; callers pass this around.
type Cluster struct {
	spec      models.ClusterSpec
	members   []models.NodeInfo
	nodes     []*Node // in-process nodes; empty when attached to remote hosts
	transport *transport.Transport
	logger    *zap.Logger

	mu         sync.Mutex
	closed     bool
	onShutdown []func(ctx context.Context) error
}

// NewCluster assembles a cluster handle over its formed members. The first
// member is the seed, which receives job submissions.
func NewCluster(
	spec models.ClusterSpec,
	tr *transport.Transport,
	logger *zap.Logger,
	members []models.NodeInfo,
	nodes []*Node,
) *Cluster {
	return &Cluster{
		spec:      spec,
		members:   members,
		nodes:     nodes,
		transport: tr,
		logger:    logger,
	}
}

// Spec returns the spec this cluster was formed from
func (c *Cluster) Spec() models.ClusterSpec {
	return c.spec
}

// Members returns the formed membership
func (c *Cluster) Members() []models.NodeInfo {
	return c.members
}

// Seed returns the node that accepts job submissions and dataset staging
func (c *Cluster) Seed() models.NodeInfo {
	return c.members[0]
}

// Client returns an HTTP client over the cluster's transport
func (c *Cluster) Client(timeout time.Duration) *http.Client {
	return c.transport.Client(timeout)
}

// Transport returns the cluster transport
func (c *Cluster) Transport() *transport.Transport {
	return c.transport
}

// OnShutdown registers a hook that runs when the cluster shuts down, after
// the nodes have stopped. Used for cache eviction and cloud host teardown.
func (c *Cluster) OnShutdown(hook func(ctx context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onShutdown = append(c.onShutdown, hook)
}

// Alive reports whether the cluster has not been shut down
func (c *Cluster) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Shutdown stops every node and runs the shutdown hooks. Safe to call more
// than once; later calls are no-ops.
func (c *Cluster) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	hooks := c.onShutdown
	c.mu.Unlock()

	var errs *multierror.Error
	for _, node := range c.nodes {
		if err := node.Stop(ctx); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	for _, hook := range hooks {
		if err := hook(ctx); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		c.logger.Warn("cluster shutdown finished with errors", zap.Error(err))
		return err
	}
	return nil
}
