// Package operate converts caller data into data groups and removes them again. It is the
// operation layer between the chart's public mutation API and the scene graph.
package operate

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/chartscene/logging"
	"go.viam.com/chartscene/scene"
	"go.viam.com/chartscene/store"
	"go.viam.com/chartscene/tween"
)

// ErrUnknownDataType is returned for a data type label with no registered handler.
var ErrUnknownDataType = errors.New("unknown data type")

// BuildError reports that data for a type could not be turned into scene nodes. Nothing from the
// failed call was added to the scene.
type BuildError struct {
	Type string
	Err  error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("building %q data: %v", e.Type, e.Err)
}

// Unwrap returns the underlying cause.
func (e *BuildError) Unwrap() error {
	return e.Err
}

// Container is the node data groups are inserted into and removed from.
type Container interface {
	Swap(remove func(scene.Node) bool, add []scene.Node) []scene.Node
}

// Env is what a handler can use while building.
type Env struct {
	Config store.Config

	pending map[string][]*tween.Tween
}

// Animate attaches tweens to a node being built. They start only if the whole build succeeds and
// stop when the node is removed.
func (env *Env) Animate(owner scene.Node, tweens ...*tween.Tween) {
	env.pending[owner.ID()] = append(env.pending[owner.ID()], tweens...)
}

// Handler builds the data groups of one data type.
type Handler interface {
	Build(ctx context.Context, env *Env, data any) ([]scene.Node, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, env *Env, data any) ([]scene.Node, error)

// Build calls f.
func (f HandlerFunc) Build(ctx context.Context, env *Env, data any) ([]scene.Node, error) {
	return f(ctx, env, data)
}

// View builds and removes data groups.
type View struct {
	store  *store.Store
	tweens *tween.Group
	logger logging.Logger

	mu         sync.RWMutex
	handlers   map[string]Handler
	animations map[string][]*tween.Tween
}

// NewView returns a view with the built-in handlers registered.
func NewView(st *store.Store, tweens *tween.Group, logger logging.Logger) *View {
	v := &View{
		store:      st,
		tweens:     tweens,
		logger:     logger,
		handlers:   map[string]Handler{},
		animations: map[string][]*tween.Tween{},
	}
	v.Register(Points, HandlerFunc(buildPoints))
	v.Register(Markers, HandlerFunc(buildMarkers))
	v.Register(Labels, HandlerFunc(buildLabels))
	v.Register(FlyLines, HandlerFunc(buildFlyLines))
	return v
}

// Register installs or replaces the handler for a data type.
func (v *View) Register(dataType string, handler Handler) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.handlers[dataType] = handler
}

// Types returns the registered data types, sorted.
func (v *View) Types() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	types := lo.Keys(v.handlers)
	sort.Strings(types)
	return types
}

// SetData builds the data groups for `data`. Every returned node is tagged with `dataType`. On
// error no node is returned and no animation was started; the error is a *BuildError.
func (v *View) SetData(ctx context.Context, dataType string, data any) (nodes []scene.Node, err error) {
	v.mu.RLock()
	handler, ok := v.handlers[dataType]
	v.mu.RUnlock()
	if !ok {
		return nil, &BuildError{Type: dataType, Err: ErrUnknownDataType}
	}

	env := &Env{Config: v.store.Config(), pending: map[string][]*tween.Tween{}}
	defer func() {
		if rec := recover(); rec != nil {
			nodes, err = nil, &BuildError{Type: dataType, Err: errors.Errorf("handler panicked: %v", rec)}
		}
	}()
	nodes, err = handler.Build(ctx, env, data)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, &BuildError{Type: dataType, Err: err}
	}

	for _, n := range nodes {
		ud := n.UserData()
		ud.Type = dataType
		n.SetUserData(ud)
	}
	v.mu.Lock()
	for owner, tweens := range env.pending {
		v.animations[owner] = append(v.animations[owner], tweens...)
		v.tweens.Add(tweens...)
	}
	v.mu.Unlock()
	v.logger.Debugw("built data groups", "type", dataType, "count", len(nodes))
	return nodes, nil
}

// Remove detaches the data groups of `dataType` chosen by `sel` from the container and returns
// them.
func (v *View) Remove(container Container, dataType string, sel Selector) []scene.Node {
	removed := container.Swap(sel.matcher(dataType), nil)
	v.release(removed)
	return removed
}

// Replace removes every data group of `dataType` and inserts `nodes` in a single swap, so no
// reader sees the container without either set.
func (v *View) Replace(container Container, dataType string, nodes []scene.Node) []scene.Node {
	removed := container.Swap(RemoveAll.matcher(dataType), nodes)
	v.release(removed)
	return removed
}

// Insert appends data groups to the container.
func (v *View) Insert(container Container, nodes []scene.Node) {
	container.Swap(nil, nodes)
}

// Animations returns how many tweens are attached to live data groups.
func (v *View) Animations() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	count := 0
	for _, tweens := range v.animations {
		count += len(tweens)
	}
	return count
}

// release stops the tweens of removed nodes and their descendants.
func (v *View) release(removed []scene.Node) {
	if len(removed) == 0 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, root := range removed {
		scene.Walk(root, func(n scene.Node) bool {
			for _, tw := range v.animations[n.ID()] {
				v.tweens.Remove(tw)
			}
			delete(v.animations, n.ID())
			return true
		})
	}
}
