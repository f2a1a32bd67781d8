package flipbook

// handler is one subscription. The id makes unsubscribe independent of
// function identity, which Go cannot compare.
type handler[T any] struct {
	id uint64
	fn func(T)
}

// EventDispatcher is a synchronous, ordered list of handlers.
type EventDispatcher[T any] struct {
	handlers []handler[T]
	nextID   uint64
}

// Subscribe adds fn and returns a function that removes it. Calling the
// returned function more than once is harmless.
func (d *EventDispatcher[T]) Subscribe(fn func(T)) func() {
	d.nextID++
	id := d.nextID
	d.handlers = append(d.handlers, handler[T]{id: id, fn: fn})
	return func() { d.unsubscribe(id) }
}

func (d *EventDispatcher[T]) unsubscribe(id uint64) {
	for i, h := range d.handlers {
		if h.id == id {
			d.handlers = append(d.handlers[:i], d.handlers[i+1:]...)
			return
		}
	}
}

// Dispatch calls every handler with v. Handlers added or removed during the
// dispatch take effect on the next one.
func (d *EventDispatcher[T]) Dispatch(v T) {
	if len(d.handlers) == 0 {
		return
	}
	hs := make([]handler[T], len(d.handlers))
	copy(hs, d.handlers)
	for _, h := range hs {
		h.fn(v)
	}
}

// Len returns the number of subscribed handlers.
func (d *EventDispatcher[T]) Len() int { return len(d.handlers) }

// Clear removes all handlers.
func (d *EventDispatcher[T]) Clear() {
	d.handlers = nil
}

// ValueDispatcher holds a current value and notifies subscribers when it is
// replaced.
type ValueDispatcher[T any] struct {
	EventDispatcher[T]
	current T
}

// NewValueDispatcher returns a dispatcher holding v.
func NewValueDispatcher[T any](v T) *ValueDispatcher[T] {
	return &ValueDispatcher[T]{current: v}
}

// Current returns the held value.
func (d *ValueDispatcher[T]) Current() T { return d.current }

// SetCurrent replaces the held value and dispatches it.
func (d *ValueDispatcher[T]) SetCurrent(v T) {
	d.current = v
	d.Dispatch(v)
}

// Watch subscribes fn and immediately calls it with the current value.
func (d *ValueDispatcher[T]) Watch(fn func(T)) func() {
	unsub := d.Subscribe(fn)
	fn(d.current)
	return unsub
}
