package flipbook

// Computed is a read-only memoized derivation. It recomputes lazily, on the
// first Get after one of the cells it read has changed.
type Computed[T any] struct {
	g    *Graph
	id   CellID
	fn   func() T
	last T
}

// NewComputed returns a computed value derived from fn. fn does not run
// until the first Get.
func NewComputed[T any](g *Graph, fn func() T) *Computed[T] {
	return &Computed[T]{g: g, id: g.newCell(""), fn: fn}
}

// ID returns the cell handle.
func (c *Computed[T]) ID() CellID { return c.id }

// Get returns the memoized value, recomputing it first if it is stale.
func (c *Computed[T]) Get() T {
	cl := c.g.lookup(c.id)
	if cl == nil {
		return c.last
	}
	if cl.dirty {
		c.g.unsubscribeSources(c.id)
		c.g.evaluate(c.id, func() { c.last = c.fn() })
		c.g.markClean(c.id)
	}
	c.g.collect(c.id)
	return c.last
}

// Subscribe calls fn whenever the value becomes stale.
func (c *Computed[T]) Subscribe(fn func()) func() {
	return c.g.subscribe(c.id, fn)
}

// Dispose removes the cell from its graph.
func (c *Computed[T]) Dispose() { c.g.Dispose(c.id) }

// NewEffect runs fn now and again, synchronously, every time a cell it read
// changes. The returned function stops the effect.
func NewEffect(g *Graph, fn func()) (stop func()) {
	id := g.newCell("effect")
	run := func() {
		g.unsubscribeSources(id)
		g.evaluate(id, fn)
		g.markClean(id)
	}
	g.lookup(id).onDirty = run
	run()
	return func() { g.Dispose(id) }
}

// NewDeferredEffect runs fn at the end of the tick in which it was created
// and then at the end of every tick in which a cell it read changed, at most
// once per tick. The effect is bound to t and stops when t finishes.
func NewDeferredEffect(g *Graph, t *Task, fn func()) (stop func()) {
	id := g.newCell("deferred effect")
	unsub := func() {}
	var run func(*Task)
	schedule := func() {
		unsub()
		unsub = t.OnDeferred(run)
	}
	run = func(*Task) {
		unsub()
		unsub = func() {}
		g.unsubscribeSources(id)
		g.evaluate(id, fn)
		g.markClean(id)
	}
	g.lookup(id).onDirty = schedule
	schedule()
	var unbind func()
	stop = func() {
		unsub()
		unbind()
		g.Dispose(id)
	}
	unbind = t.onEnd(stop)
	return stop
}
