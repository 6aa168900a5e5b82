package resource_manager

import (
	"sync"

	"grid-harness/core/cluster"
)

// ClusterCache tracks live clusters by spec key so repeated formation with an
// identical spec reuses the existing cluster instead of forming a second one
type ClusterCache struct {
	clusters map[string]*cluster.Cluster
	mu       sync.Mutex
}

// NewClusterCache creates an empty cluster cache
func NewClusterCache() *ClusterCache {
	return &ClusterCache{
		clusters: make(map[string]*cluster.Cluster),
	}
}

// Get returns the live cluster formed from the spec with this key, if any.
// A cluster that has shut down no longer counts.
func (cc *ClusterCache) Get(key string) *cluster.Cluster {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	c, ok := cc.clusters[key]
	if !ok {
		return nil
	}
	if !c.Alive() {
		delete(cc.clusters, key)
		return nil
	}
	return c
}

// Put records a freshly formed cluster under its spec key
func (cc *ClusterCache) Put(key string, c *cluster.Cluster) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.clusters[key] = c
}

// Evict removes a cluster from the cache, typically at shutdown
func (cc *ClusterCache) Evict(key string) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	delete(cc.clusters, key)
}
