package flipbook

// Join suspends t until every listed task has finished or been canceled, then
// advances t's time to the latest of theirs.
func (t *Task) Join(tasks ...*Task) {
	t.join(true, tasks)
}

// JoinAny suspends t until at least one listed task has finished or been
// canceled. t's time advances to the earliest time among the tasks found
// finished at that point; when several finish on the same tick the earliest
// of them wins.
func (t *Task) JoinAny(tasks ...*Task) {
	t.join(false, tasks)
}

func (t *Task) join(all bool, tasks []*Task) {
	t.mustRun("Join")
	joined := tasks[:0:0]
	for _, task := range tasks {
		if task == nil {
			continue
		}
		if task.d != t.d {
			panic("flipbook: Join on a task from another scheduler")
		}
		joined = append(joined, task)
	}
	if len(joined) == 0 {
		return
	}

	start := t.time
	var childTime float64
	if all {
		for anyAlive(joined) {
			t.Frame()
		}
		childTime = joined[0].time
		for _, task := range joined[1:] {
			childTime = max(childTime, task.time)
		}
	} else {
		for !anyCanceled(joined) {
			t.Frame()
		}
		first := true
		for _, task := range joined {
			if !task.Canceled() {
				continue
			}
			if first || task.time < childTime {
				childTime = task.time
				first = false
			}
		}
	}
	t.time = max(start, childTime)
}

func anyAlive(tasks []*Task) bool {
	for _, task := range tasks {
		if !task.Canceled() {
			return true
		}
	}
	return false
}

func anyCanceled(tasks []*Task) bool {
	for _, task := range tasks {
		if task.Canceled() {
			return true
		}
	}
	return false
}
