// Package animation runs the per-frame loop: gate, tweens, auto rotation and render.
package animation

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"go.viam.com/chartscene/framegate"
	"go.viam.com/chartscene/logging"
	"go.viam.com/chartscene/render"
	"go.viam.com/chartscene/scene"
	"go.viam.com/chartscene/tween"
	"go.viam.com/chartscene/utils"
)

// ErrAlreadyRunning is returned by Start on a running loop.
var ErrAlreadyRunning = errors.New("animation loop already running")

// LoopConfig holds what a loop ticks over.
type LoopConfig struct {
	Clock    clock.Clock
	Gate     *framegate.Gate
	Tweens   *tween.Group
	Renderer render.Renderer
	Scene    *scene.Scene
	Camera   scene.Camera

	// Container is rotated about +Y by RotateSpeed radians per rendered frame when AutoRotate is
	// set.
	Container   scene.Node
	AutoRotate  bool
	RotateSpeed float64

	Logger logging.Logger
}

// Loop is a cancellable animation loop.
type Loop struct {
	cfg     LoopConfig
	logger  logging.Logger
	renders atomic.Int64
	ticks   atomic.Int64

	mu      sync.Mutex
	workers utils.StoppableWorkers
	frames  FrameSource
}

// NewLoop returns a stopped loop.
func NewLoop(cfg LoopConfig) *Loop {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Gate == nil {
		cfg.Gate = framegate.New(cfg.Clock, false)
	}
	if cfg.Tweens == nil {
		cfg.Tweens = tween.Default
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewBlankLogger("animation")
	}
	return &Loop{cfg: cfg, logger: logger}
}

// Tick runs one loop step and reports whether it rendered. A panic or render error is logged and
// never escapes, so the next frame always runs.
func (l *Loop) Tick() (rendered bool) {
	l.ticks.Add(1)
	defer func() {
		if r := recover(); r != nil {
			l.logger.Errorw("animation frame panicked", "error", r)
			rendered = false
		}
	}()

	if !l.cfg.Gate.ShouldRender() {
		return false
	}
	l.cfg.Tweens.Update(l.cfg.Clock.Now())
	if l.cfg.AutoRotate && l.cfg.Container != nil {
		l.cfg.Container.RotateY(l.cfg.RotateSpeed)
	}
	if l.cfg.Renderer == nil {
		return false
	}
	if err := l.cfg.Renderer.Render(l.cfg.Scene, l.cfg.Camera); err != nil {
		l.logger.Warnw("render failed", "error", err)
		return false
	}
	l.renders.Add(1)
	return true
}

// Start ticks once per frame from `frames` on a background worker until Stop.
func (l *Loop) Start(frames FrameSource) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.workers != nil {
		return ErrAlreadyRunning
	}
	l.frames = frames
	l.workers = utils.NewStoppableWorkers(func(ctx context.Context) {
		for {
			if err := frames.Wait(ctx); err != nil {
				return
			}
			l.Tick()
		}
	})
	l.logger.Debug("animation loop started")
	return nil
}

// Stop cancels the loop before its next frame and waits for the current tick to finish. The loop
// can be started again.
func (l *Loop) Stop() {
	l.mu.Lock()
	workers, frames := l.workers, l.frames
	l.workers, l.frames = nil, nil
	l.mu.Unlock()
	if workers == nil {
		return
	}
	workers.Stop()
	if closer, ok := frames.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			l.logger.Warnw("closing frame source", "error", err)
		}
	}
	l.logger.Debugw("animation loop stopped", "ticks", l.ticks.Load(), "renders", l.renders.Load())
}

// Running reports whether the loop was started and not stopped.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.workers != nil
}

// Renders returns how many renders the loop issued.
func (l *Loop) Renders() int64 {
	return l.renders.Load()
}

// Ticks returns how many frames the loop ran, rendered or not.
func (l *Loop) Ticks() int64 {
	return l.ticks.Load()
}
