package teardown

import (
	"fmt"
	"sync"
)

// ErrRunInProgress is returned when a teardown for the same namespace is
// already running in this process.
type ErrRunInProgress struct {
	Namespace string
}

func (e *ErrRunInProgress) Error() string {
	return fmt.Sprintf("teardown already in progress for namespace %q", e.Namespace)
}

// runGuard serializes runs per namespace within one process.
type runGuard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

var guard = &runGuard{active: make(map[string]struct{})}

// acquire claims the namespace, returning a release func, or an
// ErrRunInProgress when another run holds it.
func (g *runGuard) acquire(namespace string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, held := g.active[namespace]; held {
		return nil, &ErrRunInProgress{Namespace: namespace}
	}
	g.active[namespace] = struct{}{}

	var once sync.Once
	release := func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, namespace)
			g.mu.Unlock()
		})
	}
	return release, nil
}
