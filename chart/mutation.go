package chart

import (
	"context"

	"go.viam.com/chartscene/operate"
)

// mutation is one queued change to the earth container.
type mutation struct {
	ctx   context.Context
	apply func(ctx context.Context) error
	done  chan error
}

// runMutations applies queued mutations one at a time, so every change to the container is
// linearized. Every mutation it receives is answered on its done channel.
func (c *Chart) runMutations(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-c.mutations:
			if err := m.ctx.Err(); err != nil {
				m.done <- err
				continue
			}
			m.done <- m.apply(m.ctx)
		}
	}
}

// submit hands `apply` to the mutation worker and waits for its result. The context `apply` sees
// is cancelled by the caller's ctx and by Close, and the result returned is always the one
// `apply` produced, so a nil error means the change landed.
func (c *Chart) submit(ctx context.Context, apply func(ctx context.Context) error) error {
	closed := c.workers.Context()
	if closed.Err() != nil {
		return ErrClosed
	}
	mctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(closed, cancel)
	defer stop()

	m := mutation{ctx: mctx, apply: apply, done: make(chan error, 1)}
	select {
	case <-closed.Done():
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	case c.mutations <- m:
	}
	err := <-m.done
	if err != nil && ctx.Err() == nil && closed.Err() != nil {
		return ErrClosed
	}
	return err
}

// SetData replaces every data group of `dataType` with groups built from `data`. The old groups
// are swapped for the new ones in one step, so no frame shows neither. If the build fails the
// old groups stay and the returned error is an *operate.BuildError.
func (c *Chart) SetData(ctx context.Context, dataType string, data any) error {
	return c.submit(ctx, func(ctx context.Context) error {
		nodes, err := c.view.SetData(ctx, dataType, data)
		if err != nil {
			c.mutationLogger.CWarnw(ctx, "setData failed", "type", dataType, "error", err)
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		removed := c.view.Replace(c.comps.Container, dataType, nodes)
		c.mutationLogger.CDebugw(ctx, "setData", "type", dataType, "added", len(nodes), "removed", len(removed))
		return nil
	})
}

// AddData builds groups from `data` and appends them next to the existing groups of `dataType`.
func (c *Chart) AddData(ctx context.Context, dataType string, data any) error {
	return c.submit(ctx, func(ctx context.Context) error {
		nodes, err := c.view.SetData(ctx, dataType, data)
		if err != nil {
			c.mutationLogger.CWarnw(ctx, "addData failed", "type", dataType, "error", err)
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		c.view.Insert(c.comps.Container, nodes)
		c.mutationLogger.CDebugw(ctx, "addData", "type", dataType, "added", len(nodes))
		return nil
	})
}

// Remove deletes the data groups of `dataType` with the given ids. With no ids, or with
// operate.RemoveAllWildcard or operate.AllWildcard among them, every group of the type is removed.
func (c *Chart) Remove(ctx context.Context, dataType string, ids ...string) error {
	sel := operate.ParseSelector(ids)
	return c.submit(ctx, func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		removed := c.view.Remove(c.comps.Container, dataType, sel)
		c.mutationLogger.CDebugw(ctx, "remove", "type", dataType, "all", sel.All(), "removed", len(removed))
		return nil
	})
}
