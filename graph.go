package flipbook

import (
	"fmt"
	"runtime/debug"
	"slices"
)

// CellID is a handle to a cell in a Graph. Handles go stale when the cell is
// disposed; a stale handle never aliases a newer cell.
type CellID struct {
	index uint32
	gen   uint32
}

// Valid reports whether id was ever issued. It does not check liveness.
func (id CellID) Valid() bool { return id.gen != 0 }

// cell is the graph-side state of a signal, computed value or effect.
type cell struct {
	gen   uint32
	alive bool
	dirty bool
	name  string

	// observers are the cells that read this one during their last
	// evaluation; sources are the cells this one read. Both are relations
	// only: the arena owns every cell.
	observers []CellID
	sources   []CellID

	onDirty func()
	subs    EventDispatcher[struct{}]
}

// Graph is an arena of reactive cells plus the evaluation stack used to
// discover dependencies. A Graph is not safe for concurrent use: every read
// and write happens on the tick goroutine.
type Graph struct {
	logger Logger
	cells  []*cell
	free   []uint32
	stack  []CellID
	scope  *Scope

	pending []pendingPromise
}

// NewGraph returns an empty graph. A nil logger means DefaultLogger.
func NewGraph(logger Logger) *Graph {
	if logger == nil {
		logger = DefaultLogger()
	}
	return &Graph{logger: logger}
}

// Logger returns the graph's logger.
func (g *Graph) Logger() Logger { return g.logger }

// Len returns the number of live cells.
func (g *Graph) Len() int {
	return len(g.cells) - len(g.free)
}

func (g *Graph) newCell(name string) CellID {
	var idx uint32
	if n := len(g.free); n > 0 {
		idx = g.free[n-1]
		g.free = g.free[:n-1]
	} else {
		idx = uint32(len(g.cells))
		g.cells = append(g.cells, &cell{})
	}
	c := g.cells[idx]
	c.gen++
	c.alive = true
	c.dirty = true
	c.name = name
	if c.name == "" {
		c.name = fmt.Sprintf("cell#%d", idx)
	}
	id := CellID{index: idx, gen: c.gen}
	if g.scope != nil {
		g.scope.cells = append(g.scope.cells, id)
	}
	return id
}

func (g *Graph) lookup(id CellID) *cell {
	if int(id.index) >= len(g.cells) {
		return nil
	}
	c := g.cells[id.index]
	if !c.alive || c.gen != id.gen {
		return nil
	}
	return c
}

func (g *Graph) name(id CellID) string {
	if c := g.lookup(id); c != nil {
		return c.name
	}
	return "<disposed>"
}

// Alive reports whether id refers to a live cell.
func (g *Graph) Alive(id CellID) bool { return g.lookup(id) != nil }

// Dirty reports whether the cell's cached value is stale.
func (g *Graph) Dirty(id CellID) bool {
	c := g.lookup(id)
	return c != nil && c.dirty
}

// enter pushes id onto the evaluation stack and returns the guard that pops
// it. A cell that is already on the stack closes a cycle.
func (g *Graph) enter(id CellID) func() {
	if i := slices.Index(g.stack, id); i >= 0 {
		names := make([]string, 0, len(g.stack)-i+1)
		for _, s := range g.stack[i:] {
			names = append(names, g.name(s))
		}
		names = append(names, g.name(id))
		panic(&CircularDependencyError{Cells: names, Stack: debug.Stack()})
	}
	g.stack = append(g.stack, id)
	depth := len(g.stack)
	return func() {
		if len(g.stack) != depth || g.stack[depth-1] != id {
			panic("flipbook: evaluation stack released out of order")
		}
		g.stack = g.stack[:depth-1]
	}
}

// observer returns the cell currently evaluating, if any.
func (g *Graph) observer() CellID {
	if len(g.stack) == 0 {
		return CellID{}
	}
	return g.stack[len(g.stack)-1]
}

// Untracked runs fn without recording any dependency for the cell currently
// evaluating.
func (g *Graph) Untracked(fn func()) {
	g.stack = append(g.stack, CellID{})
	depth := len(g.stack)
	defer func() { g.stack = g.stack[:depth-1] }()
	fn()
}

// collect subscribes the evaluating cell, if any, to id.
func (g *Graph) collect(id CellID) {
	obs := g.observer()
	if !obs.Valid() || obs == id {
		return
	}
	c, o := g.lookup(id), g.lookup(obs)
	if c == nil || o == nil {
		return
	}
	if !slices.Contains(c.observers, obs) {
		c.observers = append(c.observers, obs)
	}
	if !slices.Contains(o.sources, id) {
		o.sources = append(o.sources, id)
	}
}

// unsubscribeSources drops every inbound subscription of id.
func (g *Graph) unsubscribeSources(id CellID) {
	c := g.lookup(id)
	if c == nil {
		return
	}
	for _, src := range c.sources {
		if s := g.lookup(src); s != nil {
			s.observers = slices.DeleteFunc(s.observers, func(o CellID) bool { return o == id })
		}
	}
	c.sources = c.sources[:0]
}

// invalidate raises id's dirty flag. The flag coalesces: while it is raised,
// further invalidations do nothing, so each observer is notified at most once
// until it reads again.
func (g *Graph) invalidate(id CellID) {
	c := g.lookup(id)
	if c == nil || c.dirty {
		return
	}
	c.dirty = true
	for _, obs := range slices.Clone(c.observers) {
		g.invalidate(obs)
	}
	c.subs.Dispatch(struct{}{})
	if c.onDirty != nil {
		c.onDirty()
	}
}

// markClean lowers id's dirty flag.
func (g *Graph) markClean(id CellID) {
	if c := g.lookup(id); c != nil {
		c.dirty = false
	}
}

// evaluate runs fn with id on the evaluation stack. A panic in fn is logged
// as a warning and reported by returning false, except for circular
// dependencies and task failures, which propagate.
func (g *Graph) evaluate(id CellID, fn func()) (ok bool) {
	release := g.enter(id)
	defer release()
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		switch r.(type) {
		case *CircularDependencyError, *TaskPanic:
			panic(r)
		}
		if r == errTaskStopped {
			panic(r)
		}
		g.logger.Warn(LogPayload{
			Message: fmt.Sprintf("derivation failed, keeping the last value: %v", r),
			Stack:   string(debug.Stack()),
			Inspect: g.name(id),
		})
		ok = false
	}()
	fn()
	return true
}

func (g *Graph) subscribe(id CellID, fn func()) func() {
	c := g.lookup(id)
	if c == nil {
		return func() {}
	}
	return c.subs.Subscribe(func(struct{}) { fn() })
}

// Dispose removes a cell from the graph. Observers keep their cached values
// and simply stop being notified.
func (g *Graph) Dispose(id CellID) {
	c := g.lookup(id)
	if c == nil {
		return
	}
	g.unsubscribeSources(id)
	for _, obs := range c.observers {
		if o := g.lookup(obs); o != nil {
			o.sources = slices.DeleteFunc(o.sources, func(s CellID) bool { return s == id })
		}
	}
	c.alive = false
	c.dirty = false
	c.observers = nil
	c.sources = nil
	c.onDirty = nil
	c.subs.Clear()
	g.free = append(g.free, id.index)
}

// Scope collects the cells created while it is active so they can be
// disposed together.
type Scope struct {
	g      *Graph
	parent *Scope
	cells  []CellID
}

// NewScope returns an inactive scope.
func (g *Graph) NewScope() *Scope {
	return &Scope{g: g}
}

// BeginScope returns a new scope that receives every cell created until End.
func (g *Graph) BeginScope() *Scope {
	s := &Scope{g: g, parent: g.scope}
	g.scope = s
	return s
}

// End deactivates the scope if it is the active one.
func (s *Scope) End() {
	if s.g.scope == s {
		s.g.scope = s.parent
	}
}

// Dispose ends the scope and disposes every cell created in it.
func (s *Scope) Dispose() {
	s.End()
	for _, id := range s.cells {
		s.g.Dispose(id)
	}
	s.cells = nil
}

// Len returns the number of cells registered in the scope.
func (s *Scope) Len() int { return len(s.cells) }

// useScope activates s until the returned function is called.
func (g *Graph) useScope(s *Scope) func() {
	prev := g.scope
	g.scope = s
	return func() { g.scope = prev }
}
