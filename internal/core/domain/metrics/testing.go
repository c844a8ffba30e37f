package metrics

import "sync"

type FakeRecorder struct {
	Observed map[string]map[Outcome]int
	lock     sync.Mutex
}

func NewFakeRecorder() *FakeRecorder {
	return &FakeRecorder{Observed: make(map[string]map[Outcome]int)}
}

func (r *FakeRecorder) Observe(operation string, outcome Outcome) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.Observed[operation]; !ok {
		r.Observed[operation] = make(map[Outcome]int)
	}
	r.Observed[operation][outcome]++
}

func (r *FakeRecorder) Count(operation string, outcome Outcome) int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.Observed[operation][outcome]
}
