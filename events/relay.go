// Package events lets callers subscribe to named scene interaction events.
package events

import (
	"fmt"
	"sync"

	"github.com/golang/geo/r3"

	"go.viam.com/chartscene/logging"
	"go.viam.com/chartscene/scene"
)

// Names of events emitted by the interaction layer.
const (
	Click  = "click"
	Hover  = "hover"
	Rotate = "rotate"
	Zoom   = "zoom"
)

// Event describes one interaction.
type Event struct {
	Name string
	// Node is the data group that was hit, nil for events not tied to content.
	Node scene.Node
	// Type and ID are the data type label and caller id of Node.
	Type string
	ID   string
	// Screen is the pointer position in surface pixels.
	Screen r3.Vector
	// Delta carries the rotation (radians) or zoom factor change for rotate and zoom events.
	Delta float64
}

// Callback receives events.
type Callback func(Event)

type listener struct {
	id int
	cb Callback
}

// Relay is a registry of named listeners. Every listener registered under a name receives each
// event of that name, in registration order.
type Relay struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[string][]listener
	logger    logging.Logger
}

// NewRelay returns an empty relay.
func NewRelay(logger logging.Logger) *Relay {
	return &Relay{listeners: map[string][]listener{}, logger: logger}
}

// On registers `cb` under `name` and returns a function that unregisters it.
func (r *Relay) On(name string, cb Callback) func() {
	if cb == nil {
		return func() {}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	r.listeners[name] = append(r.listeners[name], listener{id: id, cb: cb})

	var once sync.Once
	return func() {
		once.Do(func() { r.off(name, id) })
	}
}

func (r *Relay) off(name string, id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current := r.listeners[name]
	for i, l := range current {
		if l.id == id {
			next := make([]listener, 0, len(current)-1)
			next = append(next, current[:i]...)
			r.listeners[name] = append(next, current[i+1:]...)
			break
		}
	}
	if len(r.listeners[name]) == 0 {
		delete(r.listeners, name)
	}
}

// Listeners returns how many callbacks are registered under `name`.
func (r *Relay) Listeners(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners[name])
}

// Emit calls every listener registered for the event's name synchronously. A panicking listener
// is logged and the remaining listeners still run.
func (r *Relay) Emit(event Event) {
	r.mu.RLock()
	current := r.listeners[event.Name]
	r.mu.RUnlock()

	for _, l := range current {
		r.dispatch(l, event)
	}
}

func (r *Relay) dispatch(l listener, event Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Errorw("event listener panicked", "event", event.Name, "panic", fmt.Sprint(rec))
		}
	}()
	l.cb(event)
}
