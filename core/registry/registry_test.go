package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"grid-harness/core/cluster"
	"grid-harness/core/models"
	"grid-harness/core/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// releaseRecorder plays the node side of handle release and records the
// order handles were deleted in
type releaseRecorder struct {
	mu       sync.Mutex
	released []string
	fail     map[string]bool // handle id -> respond 500
	missing  map[string]bool // handle id -> respond 404
}

func (rec *releaseRecorder) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/v1/handles/")

		rec.mu.Lock()
		defer rec.mu.Unlock()
		switch {
		case rec.fail[id]:
			w.WriteHeader(http.StatusInternalServerError)
		case rec.missing[id]:
			w.WriteHeader(http.StatusNotFound)
		default:
			rec.released = append(rec.released, id)
			w.WriteHeader(http.StatusNoContent)
		}
	})
}

func (rec *releaseRecorder) order() []string {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]string(nil), rec.released...)
}

func newTestRegistry(t *testing.T, rec *releaseRecorder) (*Registry, string) {
	t.Helper()
	ts := httptest.NewServer(rec.handler())
	t.Cleanup(ts.Close)

	tr, err := transport.New(models.TransportPlaintext, "")
	require.NoError(t, err)
	c := cluster.NewCluster(
		models.ClusterSpec{Nodes: 1, Transport: models.TransportPlaintext},
		tr, zap.NewNop(),
		[]models.NodeInfo{{ID: "seed", Addr: ts.URL}}, nil)

	return NewRegistry(c, zap.NewNop()), ts.URL
}

func handle(id, addr string) models.Handle {
	return models.Handle{ID: id, Kind: models.HandleFrame, NodeAddr: addr}
}

func TestReleaseDestroysRegisteredHandle(t *testing.T) {
	rec := &releaseRecorder{}
	reg, addr := newTestRegistry(t, rec)

	h := handle("frame-1", addr)
	reg.Register(h)
	require.Equal(t, 1, reg.Len())

	require.NoError(t, reg.Release(context.Background(), h))
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, []string{"frame-1"}, rec.order())
}

func TestReleaseUnregisteredHandleIsNoOp(t *testing.T) {
	rec := &releaseRecorder{}
	reg, addr := newTestRegistry(t, rec)

	err := reg.Release(context.Background(), handle("never-registered", addr))
	assert.NoError(t, err)
	assert.Empty(t, rec.order(), "no release call should reach the node")
}

func TestReleaseTwiceIsNoOp(t *testing.T) {
	rec := &releaseRecorder{}
	reg, addr := newTestRegistry(t, rec)

	h := handle("frame-1", addr)
	reg.Register(h)
	require.NoError(t, reg.Release(context.Background(), h))
	require.NoError(t, reg.Release(context.Background(), h))
	assert.Equal(t, []string{"frame-1"}, rec.order())
}

func TestReleaseAllRunsMostRecentFirst(t *testing.T) {
	rec := &releaseRecorder{}
	reg, addr := newTestRegistry(t, rec)

	reg.Register(handle("frame", addr))
	reg.Register(handle("model", addr))
	reg.Register(handle("scored", addr))

	require.NoError(t, reg.ReleaseAll(context.Background()))
	assert.Equal(t, []string{"scored", "model", "frame"}, rec.order())
	assert.Equal(t, 0, reg.Len())
}

func TestReleaseAllCollectsFailuresAndKeepsGoing(t *testing.T) {
	rec := &releaseRecorder{fail: map[string]bool{"model": true}}
	reg, addr := newTestRegistry(t, rec)

	reg.Register(handle("frame", addr))
	reg.Register(handle("model", addr))
	reg.Register(handle("scored", addr))

	err := reg.ReleaseAll(context.Background())
	require.Error(t, err)

	var releaseErr *ReleaseError
	require.ErrorAs(t, err, &releaseErr)
	assert.Equal(t, "model", releaseErr.HandleID)

	// the failure must not stop the remaining handles from being reclaimed
	assert.Equal(t, []string{"scored", "frame"}, rec.order())
}

func TestReleaseAllTreatsNotFoundAsAlreadyReleased(t *testing.T) {
	rec := &releaseRecorder{missing: map[string]bool{"frame": true}}
	reg, addr := newTestRegistry(t, rec)

	reg.Register(handle("frame", addr))
	assert.NoError(t, reg.ReleaseAll(context.Background()))
}
