package registry

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"grid-harness/core/cluster"
	"grid-harness/core/models"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// ReleaseError reports that a registered handle could not be released on its
// owning node
type ReleaseError struct {
	HandleID string
	Err      error
}

func (e *ReleaseError) Error() string {
	return fmt.Sprintf("failed to release handle %s: %v", e.HandleID, e.Err)
}

func (e *ReleaseError) Unwrap() error {
	return e.Err
}

// Registry tracks every distributed handle created during a run so teardown
// can reclaim them deterministically. One registry serves exactly one cluster
// instance; registries are never shared across clusters.
type Registry struct {
	client *http.Client
	logger *zap.Logger

	mu      sync.Mutex
	handles []models.Handle // registration order; released most-recent-first
}

// NewRegistry creates a registry bound to the cluster's transport
func NewRegistry(c *cluster.Cluster, logger *zap.Logger) *Registry {
	return &Registry{
		client: c.Client(30 * time.Second),
		logger: logger,
	}
}

// Register records a handle for teardown
func (r *Registry) Register(h models.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles = append(r.handles, h)
}

// Len returns the number of handles still registered
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Release destroys one handle on its owning node. Releasing a handle that is
// unknown or already released is a warning no-op: cleanup paths legitimately
// retry handles that an earlier path already reclaimed.
func (r *Registry) Release(ctx context.Context, h models.Handle) error {
	r.mu.Lock()
	found := false
	for i, reg := range r.handles {
		if reg.ID == h.ID {
			r.handles = append(r.handles[:i], r.handles[i+1:]...)
			found = true
			break
		}
	}
	r.mu.Unlock()

	if !found {
		r.logger.Warn("release of unregistered handle ignored", zap.String("handle", h.ID))
		return nil
	}
	return r.remoteRelease(ctx, h)
}

// ReleaseAll reclaims every registered handle, most recently created first,
// so derived objects go before the objects they reference. Best-effort and
// exhaustive: every failure is collected, none stops the rest.
func (r *Registry) ReleaseAll(ctx context.Context) error {
	r.mu.Lock()
	handles := r.handles
	r.handles = nil
	r.mu.Unlock()

	var errs *multierror.Error
	for i := len(handles) - 1; i >= 0; i-- {
		if err := r.remoteRelease(ctx, handles[i]); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

func (r *Registry) remoteRelease(ctx context.Context, h models.Handle) error {
	url := fmt.Sprintf("%s/v1/handles/%s", h.NodeAddr, h.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return &ReleaseError{HandleID: h.ID, Err: err}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return &ReleaseError{HandleID: h.ID, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// the node already dropped it; not fatal during cleanup
		r.logger.Warn("handle already released", zap.String("handle", h.ID))
		return nil
	case resp.StatusCode >= 300:
		return &ReleaseError{HandleID: h.ID, Err: fmt.Errorf("http %d", resp.StatusCode)}
	}

	r.logger.Debug("released handle",
		zap.String("handle", h.ID),
		zap.String("kind", string(h.Kind)))
	return nil
}
