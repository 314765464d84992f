package animation

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultDisplayHz is the refresh rate of NewDisplayFrames when none is given.
const DefaultDisplayHz = 60

// FrameSource paces the loop. Wait blocks until the next display refresh or until ctx is done.
type FrameSource interface {
	Wait(ctx context.Context) error
}

// DisplayFrames is a FrameSource ticking at a fixed refresh rate.
type DisplayFrames struct {
	ticker    *clock.Ticker
	closeOnce sync.Once
}

// NewDisplayFrames returns frames ticking `hz` times per second on `clk`. A nil clock uses the
// wall clock and a non-positive rate uses DefaultDisplayHz.
func NewDisplayFrames(clk clock.Clock, hz float64) *DisplayFrames {
	if clk == nil {
		clk = clock.New()
	}
	if hz <= 0 {
		hz = DefaultDisplayHz
	}
	return &DisplayFrames{ticker: clk.Ticker(time.Duration(float64(time.Second) / hz))}
}

// Wait implements FrameSource.
func (f *DisplayFrames) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-f.ticker.C:
		return nil
	}
}

// Close stops the ticker.
func (f *DisplayFrames) Close() error {
	f.closeOnce.Do(f.ticker.Stop)
	return nil
}
