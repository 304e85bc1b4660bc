package service

import (
	"encoding/json"
	"errors"
	"sync"
)

// Outcome is the result of one independent sub-operation of a fan-out.
type Outcome struct {
	Target string `json:"target"`
	Err    error  `json:"-"`
}

// Report collects the outcomes of a fan-out. It is safe for concurrent use.
type Report struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func NewReport() *Report { return &Report{} }

// Add records one outcome.
func (r *Report) Add(target string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, Outcome{Target: target, Err: err})
}

// Merge appends the outcomes of other.
func (r *Report) Merge(other *Report) {
	if other == nil || other == r {
		return
	}
	outs := other.Outcomes()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outs...)
}

// Outcomes returns a copy of every recorded outcome.
func (r *Report) Outcomes() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Outcome(nil), r.outcomes...)
}

func (r *Report) Succeeded() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, o := range r.outcomes {
		if o.Err == nil {
			n++
		}
	}
	return n
}

func (r *Report) Failed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, o := range r.outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Failures lists the targets that failed.
func (r *Report) Failures() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, o := range r.outcomes {
		if o.Err != nil {
			out = append(out, o.Target)
		}
	}
	return out
}

// Err joins every failure, or returns nil.
func (r *Report) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for _, o := range r.outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}

// MarshalJSON renders counts and failed targets.
func (r *Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Succeeded int      `json:"succeeded"`
		Failed    []string `json:"failed,omitempty"`
	}{r.Succeeded(), r.Failures()})
}
