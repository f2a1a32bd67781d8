package flipbook

import (
	"context"
	"errors"
	"testing"
)

func TestSettleComputedAsync(t *testing.T) {
	g := NewGraph(&MemoryLogger{})
	ctx := context.Background()
	c := NewComputedAsync(ctx, g, "loading", func() func(context.Context) (string, error) {
		return func(context.Context) (string, error) { return "ready", nil }
	})

	var got string
	n, err := g.Settle(ctx, func() { got = c.Get() })
	if err != nil {
		t.Fatal(err)
	}
	if got != "ready" {
		t.Errorf("Get() = %q, want ready", got)
	}
	if n != 2 {
		t.Errorf("iterations = %d, want 2", n)
	}
	if g.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", g.Pending())
	}
}

func TestComputedAsyncRestartsOnChange(t *testing.T) {
	g := NewGraph(&MemoryLogger{})
	ctx := context.Background()
	id := NewSignal(g, 1)
	c := NewComputedAsync(ctx, g, 0, func() func(context.Context) (int, error) {
		v := id.Get()
		return func(context.Context) (int, error) { return v * 100, nil }
	})
	if _, err := g.Settle(ctx, func() { c.Get() }); err != nil {
		t.Fatal(err)
	}
	id.Set(2)
	if got := c.Get(); got != 100 {
		t.Errorf("Get() while pending = %d, want the previous result 100", got)
	}
	if _, err := g.Settle(ctx, func() { c.Get() }); err != nil {
		t.Fatal(err)
	}
	if got := c.Get(); got != 200 {
		t.Errorf("Get() = %d, want 200", got)
	}
}

func TestPromiseInvalidatesOwner(t *testing.T) {
	g := NewGraph(&MemoryLogger{})
	ctx := context.Background()
	var h *PromiseHandle[int]
	runs := 0
	c := NewComputed(g, func() int {
		runs++
		if h == nil {
			h = CollectPromise(ctx, g, -1, func(context.Context) (int, error) { return 7, nil })
		}
		return h.Value()
	})
	if got := c.Get(); got != -1 {
		t.Fatalf("Get() = %d, want placeholder -1", got)
	}
	if _, err := g.Settle(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if !g.Dirty(c.ID()) {
		t.Error("owner should be stale once the result is applied")
	}
	if got := c.Get(); got != 7 {
		t.Errorf("Get() = %d, want 7", got)
	}
	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
}

func TestPromiseFailureIsLogged(t *testing.T) {
	log := &MemoryLogger{}
	g := NewGraph(log)
	ctx := context.Background()
	h := CollectPromise(ctx, g, "fallback", func(context.Context) (string, error) {
		return "", errors.New("offline")
	})
	if _, err := g.Settle(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if got := h.Value(); got != "fallback" {
		t.Errorf("Value() = %q, want fallback", got)
	}
	if h.Err() == nil {
		t.Error("Err() should report the failure")
	}
	if len(log.Warnings()) != 1 {
		t.Errorf("warnings = %v, want one", log.Warnings())
	}
}

func TestSettleCanceled(t *testing.T) {
	g := NewGraph(&MemoryLogger{})
	block := make(chan struct{})
	defer close(block)
	CollectPromise(context.Background(), g, 0, func(context.Context) (int, error) {
		<-block
		return 1, nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Settle(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if g.Pending() != 1 {
		t.Errorf("Pending() = %d, want the operation kept", g.Pending())
	}
}

func TestAwaitPromise(t *testing.T) {
	g := NewGraph(&MemoryLogger{})
	var got any
	d := quietSchedule(60, func(t *Task) {
		h := CollectPromise(context.Background(), g, 0, func(context.Context) (int, error) { return 9, nil })
		got, _ = t.Await(h)
	})
	runToEnd(t, d)
	if got != 9 {
		t.Errorf("Await = %v, want 9", got)
	}
}

func TestConsumePromises(t *testing.T) {
	g := NewGraph(&MemoryLogger{})
	ctx := context.Background()
	h := CollectPromise(ctx, g, 0, func(context.Context) (int, error) { return 3, nil })
	ops := g.ConsumePromises()
	if len(ops) != 1 || g.Pending() != 0 {
		t.Fatalf("ConsumePromises() = %d ops, Pending() = %d", len(ops), g.Pending())
	}
	if _, err := ops[0].Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if !h.Settled() || h.Value() != 3 {
		t.Errorf("handle = (%v, %d), want settled with 3", h.Settled(), h.Value())
	}
}
