package flipbook

import (
	"fmt"
	"io"
	"time"
)

// tickStats holds per-tick scheduler metrics.
// Only populated when the driver has a debug writer.
type tickStats struct {
	resumed int
	spawned int
	alive   int
	elapsed time.Duration
}

// debugLog prints the last tick's stats to the debug writer.
func (d *Driver) debugLog() {
	_, _ = fmt.Fprintf(d.debug,
		"[flipbook] tick %q: resumed: %d | spawned: %d | alive: %d | time: %v\n",
		d.root.Name, d.stats.resumed, d.stats.spawned, d.stats.alive, d.stats.elapsed)
}

// debugMaxTaskDepth is the tree depth past which a warning is printed.
const debugMaxTaskDepth = 32

func debugCheckTaskDepth(w io.Writer, t *Task) {
	depth := 0
	for p := t; p != nil; p = p.parent {
		depth++
	}
	if depth > debugMaxTaskDepth {
		_, _ = fmt.Fprintf(w, "[flipbook] warning: task depth %d exceeds %d (task %q)\n",
			depth, debugMaxTaskDepth, t.Name)
	}
}

// debugCheckChildCount warns if a task has more than 1000 live children.
const debugMaxChildCount = 1000

func debugCheckChildCount(w io.Writer, t *Task) {
	if len(t.children) > debugMaxChildCount {
		_, _ = fmt.Fprintf(w, "[flipbook] warning: task %q has %d children (threshold %d)\n",
			t.Name, len(t.children), debugMaxChildCount)
	}
}
