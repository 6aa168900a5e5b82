package registry

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Guard runs fn and then releases everything in the registry, exactly once,
// on every exit path: normal return, error, or panic inside fn. The original
// failure is returned first with teardown errors appended, so a failed run
// still reports its own error after full reclamation was attempted.
func Guard(ctx context.Context, reg *Registry, fn func() error) error {
	fnErr := runGuarded(fn)
	releaseErr := reg.ReleaseAll(ctx)

	if fnErr == nil {
		return releaseErr
	}
	if releaseErr == nil {
		return fnErr
	}
	return multierror.Append(fnErr, releaseErr)
}

func runGuarded(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during guarded run: %v", r)
		}
	}()
	return fn()
}
