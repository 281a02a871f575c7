package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/d1nch8g/chime/engine"
)

// Run tracks the progress of one asynchronous play request.
type Run struct {
	ID        string    `json:"id"`
	Items     int       `json:"items"`
	Completed int       `json:"completed"`
	Done      bool      `json:"done"`
	Errors    []string  `json:"errors,omitempty"`
	StartedAt time.Time `json:"started_at"`

	finishedAt time.Time
}

// DefaultRunRetention is how long a finished run stays queryable.
const DefaultRunRetention = 10 * time.Minute

// RunRegistry keeps runs started through the API. Finished runs are
// dropped once they are older than the retention period; runs still in
// progress are always kept.
type RunRegistry struct {
	mu        sync.Mutex
	runs      map[string]*Run
	retention time.Duration
	now       func() time.Time
}

func NewRunRegistry(retention time.Duration) *RunRegistry {
	if retention <= 0 {
		retention = DefaultRunRetention
	}
	return &RunRegistry{
		runs:      make(map[string]*Run),
		retention: retention,
		now:       time.Now,
	}
}

// Begin registers a new run and returns its id.
func (r *RunRegistry) Begin(items int) string {
	id := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prune()
	r.runs[id] = &Run{ID: id, Items: items, StartedAt: r.now()}
	return id
}

// prune must be called with r.mu held.
func (r *RunRegistry) prune() {
	now := r.now()
	for id, run := range r.runs {
		if run.Done && now.Sub(run.finishedAt) > r.retention {
			delete(r.runs, id)
		}
	}
}

// Step returns a step callback that records progress for run id.
func (r *RunRegistry) Step(id string) engine.StepFunc {
	return func(final bool, err error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		run, ok := r.runs[id]
		if !ok {
			return
		}
		run.Completed++
		if err != nil {
			run.Errors = append(run.Errors, err.Error())
		}
		if final {
			run.Done = true
			run.finishedAt = r.now()
		}
	}
}

// Done returns a single-clip callback that records the outcome for run id.
func (r *RunRegistry) Done(id string) func(error) {
	step := r.Step(id)
	return func(err error) { step(true, err) }
}

// Get returns a snapshot of run id.
func (r *RunRegistry) Get(id string) (Run, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prune()
	run, ok := r.runs[id]
	if !ok {
		return Run{}, false
	}
	snapshot := *run
	snapshot.Errors = append([]string(nil), run.Errors...)
	return snapshot, true
}
