// Package plugin runs the registered release-lifecycle hooks. Hooks are
// invoked in registration order and their failures are reported but never
// abort the run.
package plugin

import (
	berrors "github.com/berthrelease/berth/internal/errors"
	"github.com/berthrelease/berth/internal/logger"
	"github.com/berthrelease/berth/internal/record"
)

// ReleaseAvailableHook is notified once a run's releases have been
// recorded (committed, tagged, and pushed if configured).
type ReleaseAvailableHook func(releases []record.Release) error

// Registry holds the hooks configured for a run, keyed by name for
// logging, invoked in the order they were registered.
type Registry struct {
	hooks []namedHook
}

type namedHook struct {
	name string
	hook ReleaseAvailableHook
}

// NewRegistry returns an empty hook registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a named hook to the registry.
func (r *Registry) Register(name string, hook ReleaseAvailableHook) {
	r.hooks = append(r.hooks, namedHook{name: name, hook: hook})
}

// Len reports how many hooks are registered.
func (r *Registry) Len() int {
	return len(r.hooks)
}

// NotifyReleaseAvailable runs every registered hook in order, passing the
// full release list to each. A hook's failure is logged and collected but
// does not stop subsequent hooks from running; the caller decides whether
// any failure should surface as a pipeline-level error.
func NotifyReleaseAvailable(r *Registry, log *logger.Logger, releases []record.Release) []error {
	var errs []error
	for _, nh := range r.hooks {
		if err := nh.hook(releases); err != nil {
			wrapped := berrors.NewPluginError(nh.name, "onReleaseAvailable hook failed", err)
			if log != nil {
				log.Warn("plugin hook failed", "hook", nh.name, "error", wrapped)
			}
			errs = append(errs, wrapped)
			continue
		}
		if log != nil {
			log.Debug("plugin hook succeeded", "hook", nh.name)
		}
	}
	return errs
}
