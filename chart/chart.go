// Package chart is a real time 3D globe scene: it builds the scene once, keeps it animated and
// lets callers replace, extend and remove the data drawn on the earth.
package chart

import (
	"context"
	"io"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/chartscene/animation"
	"go.viam.com/chartscene/config"
	"go.viam.com/chartscene/events"
	"go.viam.com/chartscene/framegate"
	"go.viam.com/chartscene/interaction"
	"go.viam.com/chartscene/logging"
	"go.viam.com/chartscene/operate"
	"go.viam.com/chartscene/render"
	"go.viam.com/chartscene/scene"
	"go.viam.com/chartscene/store"
	"go.viam.com/chartscene/tween"
	"go.viam.com/chartscene/utils"
)

// ErrClosed is returned by calls on a closed chart.
var ErrClosed = errors.New("chart is closed")

type chartOptions struct {
	renderer render.Renderer
	clock    clock.Clock
	frames   animation.FrameSource
}

// Option customizes New.
type Option func(*chartOptions)

// WithRenderer draws through `r` instead of a new antialiased ImageRenderer.
func WithRenderer(r render.Renderer) Option {
	return func(o *chartOptions) { o.renderer = r }
}

// WithClock drives the frame gate, tweens and default frame source from `clk`.
func WithClock(clk clock.Clock) Option {
	return func(o *chartOptions) { o.clock = clk }
}

// WithFrameSource paces the animation loop with `frames` instead of a 60Hz display ticker.
func WithFrameSource(frames animation.FrameSource) Option {
	return func(o *chartOptions) { o.frames = frames }
}

// Chart owns a scene graph, its animation loop and the mutation worker that changes it.
type Chart struct {
	opts     config.Options
	logger   logging.Logger
	store    *store.Store
	renderer render.Renderer
	comps    *Components

	tweens *tween.Group
	view   *operate.View
	relay  *events.Relay
	loop   *animation.Loop

	transform *interaction.TransformControls
	orbit     *interaction.OrbitControls
	picker    *interaction.Picker

	mutationLogger logging.Logger
	mutations      chan mutation
	workers        utils.StoppableWorkers
	closeOnce      sync.Once
}

// New builds the scene described by `opts`, wires the interaction rig and starts the animation
// loop.
func New(ctx context.Context, opts config.Options, logger logging.Logger, options ...Option) (*Chart, error) {
	var co chartOptions
	for _, opt := range options {
		opt(&co)
	}
	if co.clock == nil {
		co.clock = clock.New()
	}
	if co.renderer == nil {
		co.renderer = render.NewImageRenderer(true)
	}
	if logger == nil {
		logger = logging.NewLogger("chart")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := opts.Validate("options"); err != nil {
		return nil, err
	}
	opts = opts.WithDefaults()

	st := store.New()
	if opts.Config != nil {
		if err := st.SetConfig(opts.Config); err != nil {
			return nil, errors.Wrap(err, "invalid visualization config")
		}
	}
	comps, err := Build(opts, st.Config(), co.renderer)
	if err != nil {
		return nil, err
	}

	c := &Chart{
		opts:           opts,
		logger:         logger,
		store:          st,
		renderer:       co.renderer,
		comps:          comps,
		tweens:         tween.NewGroup(),
		relay:          events.NewRelay(logger.Sublogger("events")),
		mutationLogger: logger.Sublogger("mutation"),
		mutations:      make(chan mutation),
	}
	c.view = operate.NewView(st, c.tweens, c.mutationLogger)

	c.transform = interaction.NewTransformControls(c.relay)
	c.transform.Attach(comps.Container)
	comps.Scene.Add(c.transform)
	c.orbit = interaction.NewOrbitControls(comps.Camera, c.relay)
	c.picker = interaction.NewPicker(comps.Camera, comps.Container, co.renderer, c.relay)

	c.loop = animation.NewLoop(animation.LoopConfig{
		Clock:       co.clock,
		Gate:        framegate.NewWithRate(co.clock, !opts.LimitFPS, opts.FPS),
		Tweens:      c.tweens,
		Renderer:    co.renderer,
		Scene:       comps.Scene,
		Camera:      comps.Camera,
		Container:   comps.Container,
		AutoRotate:  opts.AutoRotateEnabled(),
		RotateSpeed: opts.Speed(),
		Logger:      logger.Sublogger("loop"),
	})

	c.workers = utils.NewStoppableWorkers(c.runMutations)
	frames := co.frames
	if frames == nil {
		frames = animation.NewDisplayFrames(co.clock, animation.DefaultDisplayHz)
	}
	if err := c.loop.Start(frames); err != nil {
		c.workers.Stop()
		return nil, err
	}
	logger.CInfow(ctx, "chart scene ready",
		"camera", opts.CameraType,
		"light", opts.Light,
		"width", opts.Surface.Width,
		"height", opts.Surface.Height,
		"limitFPS", opts.LimitFPS,
	)
	return c, nil
}

// On registers `cb` for interaction events named `name` and returns a function that removes it.
// Every callback registered for a name is called, in registration order.
func (c *Chart) On(name string, cb events.Callback) func() {
	return c.relay.On(name, cb)
}

// HandlePointer feeds pointer input to the picker, which emits click and hover events.
func (c *Chart) HandlePointer(ev interaction.PointerEvent) {
	c.picker.HandlePointer(ev)
}

// Drag rotates the earth container through the transform widget.
func (c *Chart) Drag(dx, dy float64) float64 {
	return c.transform.Drag(dx, dy)
}

// Zoom applies wheel steps to the camera through the orbit controls.
func (c *Chart) Zoom(steps float64) float64 {
	return c.orbit.Zoom(steps)
}

// Options returns the options with defaults applied.
func (c *Chart) Options() config.Options {
	return c.opts
}

// Config returns the visualization config.
func (c *Chart) Config() store.Config {
	return c.store.Config()
}

// Scene returns the scene graph root.
func (c *Chart) Scene() *scene.Scene {
	return c.comps.Scene
}

// Camera returns the scene camera.
func (c *Chart) Camera() scene.Camera {
	return c.comps.Camera
}

// Container returns the earth container holding the earth, the halo and every data group.
func (c *Chart) Container() *scene.Group {
	return c.comps.Container
}

// Components returns the built scene parts.
func (c *Chart) Components() *Components {
	return c.comps
}

// Renderer returns the renderer.
func (c *Chart) Renderer() render.Renderer {
	return c.renderer
}

// Loop returns the animation loop.
func (c *Chart) Loop() *animation.Loop {
	return c.loop
}

// Register adds or replaces the handler that builds groups for `dataType`. Mutations queued after
// it returns use the new handler.
func (c *Chart) Register(dataType string, handler operate.Handler) {
	c.view.Register(dataType, handler)
}

// DataTypes lists the registered data types in order.
func (c *Chart) DataTypes() []string {
	return c.view.Types()
}

// DataGroups returns the data groups of `dataType` currently in the container.
func (c *Chart) DataGroups(dataType string) []scene.Node {
	return scene.DataNodes(c.comps.Container, dataType)
}

// Close stops the animation loop and the mutation worker. Pending mutations fail with ErrClosed.
func (c *Chart) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.loop.Stop()
		c.workers.Stop()
		if closer, ok := c.renderer.(io.Closer); ok {
			err = multierr.Combine(err, closer.Close())
		}
		c.logger.Debugw("chart closed", "renders", c.loop.Renders())
	})
	return err
}
