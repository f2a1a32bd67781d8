package flipbook

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"
)

// maxSettleIterations bounds how many times Settle re-runs its recompute
// callback while new operations keep appearing.
const maxSettleIterations = 10

// pendingPromise is the type-erased view of a PromiseHandle kept in the
// graph's registry.
type pendingPromise interface {
	wait(ctx context.Context) error
	ready() bool
	apply()
}

// PromiseHandle tracks an external operation started from reactive code. The
// operation runs on its own goroutine; its result is applied on the tick
// goroutine by ConsumePromises, Flush or Settle, which then marks the owning
// cell stale.
type PromiseHandle[T any] struct {
	g     *Graph
	owner CellID
	value T
	stack string

	done   chan struct{}
	result T
	err    error
	taken  bool
}

// CollectPromise starts op and registers it with g. Until it settles, Value
// returns initial. The cell evaluating when CollectPromise is called becomes
// the owner and is invalidated once the result is applied.
func CollectPromise[T any](ctx context.Context, g *Graph, initial T, op func(ctx context.Context) (T, error)) *PromiseHandle[T] {
	return collectPromise(ctx, g, g.observer(), initial, op)
}

func collectPromise[T any](ctx context.Context, g *Graph, owner CellID, initial T, op func(ctx context.Context) (T, error)) *PromiseHandle[T] {
	h := &PromiseHandle[T]{
		g:     g,
		owner: owner,
		value: initial,
		stack: string(debug.Stack()),
		done:  make(chan struct{}),
	}
	go func() {
		defer close(h.done)
		defer func() {
			if r := recover(); r != nil {
				h.err = fmt.Errorf("flipbook: async operation panicked: %v", r)
			}
		}()
		h.result, h.err = op(ctx)
	}()
	g.pending = append(g.pending, h)
	return h
}

// Value returns the settled value, or the initial value while pending.
func (h *PromiseHandle[T]) Value() T { return h.value }

// Settled reports whether the result has been applied.
func (h *PromiseHandle[T]) Settled() bool { return h.taken }

// Err returns the operation's error once applied.
func (h *PromiseHandle[T]) Err() error {
	if !h.taken {
		return nil
	}
	return h.err
}

// Wait blocks until the operation finishes, so a task can Await a handle.
func (h *PromiseHandle[T]) Wait(ctx context.Context) (any, error) {
	if err := h.wait(ctx); err != nil {
		return nil, err
	}
	h.apply()
	if h.err != nil {
		return nil, h.err
	}
	return h.value, nil
}

func (h *PromiseHandle[T]) wait(ctx context.Context) error {
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *PromiseHandle[T]) ready() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func (h *PromiseHandle[T]) apply() {
	if h.taken {
		return
	}
	h.taken = true
	if h.err != nil {
		h.g.logger.Warn(LogPayload{
			Message: fmt.Sprintf("async operation failed: %v", h.err),
			Stack:   h.stack,
			Inspect: h.g.name(h.owner),
		})
		return
	}
	h.value = h.result
	if h.owner.Valid() {
		h.g.invalidate(h.owner)
	}
}

// Pending returns the number of registered operations not yet consumed.
func (g *Graph) Pending() int { return len(g.pending) }

// ConsumePromises empties the registry and returns the operations it held.
// Waiting on one applies its result.
func (g *Graph) ConsumePromises() []Awaitable {
	out := make([]Awaitable, 0, len(g.pending))
	for _, p := range g.pending {
		if a, ok := p.(Awaitable); ok {
			out = append(out, a)
		}
	}
	g.pending = nil
	return out
}

// Flush applies every operation that has already finished, without
// blocking, and keeps the rest registered.
func (g *Graph) Flush() int {
	applied := 0
	rest := g.pending[:0]
	for _, p := range g.pending {
		if p.ready() {
			p.apply()
			applied++
			continue
		}
		rest = append(rest, p)
	}
	clear(g.pending[len(rest):])
	g.pending = rest
	return applied
}

// Settle waits for every registered operation, applies the results and calls
// recompute, repeating while recompute registers new operations, at most ten
// times. recompute runs at least once. It returns the number of iterations.
func (g *Graph) Settle(ctx context.Context, recompute func()) (int, error) {
	iterations := 0
	pending := g.pending
	g.pending = nil
	for {
		iterations++
		if len(pending) > 0 {
			eg, ectx := errgroup.WithContext(ctx)
			for _, p := range pending {
				eg.Go(func() error { return p.wait(ectx) })
			}
			if err := eg.Wait(); err != nil {
				g.pending = append(pending, g.pending...)
				return iterations, err
			}
			for _, p := range pending {
				p.apply()
			}
		}
		if recompute != nil {
			recompute()
		}
		pending = g.pending
		g.pending = nil
		if len(pending) == 0 || iterations >= maxSettleIterations {
			g.pending = pending
			return iterations, nil
		}
	}
}

// ComputedAsync is a computed value backed by an external operation. Each
// time the cells read by the factory change, a new operation starts; until it
// settles, Get returns the previous result.
type ComputedAsync[T any] struct {
	inner *Computed[*PromiseHandle[T]]
	last  T
}

// NewComputedAsync returns an async computed value. factory runs under
// dependency tracking and returns the operation to start.
func NewComputedAsync[T any](ctx context.Context, g *Graph, initial T, factory func() func(ctx context.Context) (T, error)) *ComputedAsync[T] {
	c := &ComputedAsync[T]{last: initial}
	c.inner = NewComputed(g, func() *PromiseHandle[T] {
		op := factory()
		// The reader of this value, one level down the stack, owns the
		// operation: it must re-read once the result is in.
		owner := CellID{}
		if n := len(g.stack); n >= 2 {
			owner = g.stack[n-2]
		}
		return collectPromise(ctx, g, owner, c.last, op)
	})
	return c
}

// Get returns the latest settled value.
func (c *ComputedAsync[T]) Get() T {
	h := c.inner.Get()
	if h.Settled() && h.err == nil {
		c.last = h.value
	}
	return h.Value()
}

// Dispose removes the underlying cell.
func (c *ComputedAsync[T]) Dispose() { c.inner.Dispose() }
