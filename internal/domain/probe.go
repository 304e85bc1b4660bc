package domain

import (
	"sort"
	"time"

	"campus-backend/internal/paths"
)

// ProbeGrid is the declared candidate set for every enumeration over
// hierarchical partitions. Nothing outside the grid is ever probed.
type ProbeGrid struct {
	batchYears     []string
	semesters      []string
	divisions      []string
	subjects       []string
	maxConcurrency int
	maxProbeDays   int
	maxPartitions  int
}

// ProbeGridConfig carries the raw grid values.
type ProbeGridConfig struct {
	BatchYears     []string
	Semesters      []string
	Divisions      []string
	Subjects       []string
	MaxConcurrency int
	MaxProbeDays   int
	MaxPartitions  int
}

// NewProbeGrid copies cfg into an immutable grid.
func NewProbeGrid(cfg ProbeGridConfig) *ProbeGrid {
	g := &ProbeGrid{
		batchYears:     append([]string(nil), cfg.BatchYears...),
		semesters:      append([]string(nil), cfg.Semesters...),
		divisions:      append([]string(nil), cfg.Divisions...),
		subjects:       append([]string(nil), cfg.Subjects...),
		maxConcurrency: cfg.MaxConcurrency,
		maxProbeDays:   cfg.MaxProbeDays,
		maxPartitions:  cfg.MaxPartitions,
	}
	if g.maxConcurrency < 1 {
		g.maxConcurrency = 1
	}
	if g.maxProbeDays < 1 {
		g.maxProbeDays = 1
	}
	if g.maxPartitions < 1 {
		g.maxPartitions = 1
	}
	if len(g.subjects) == 0 {
		g.subjects = []string{DefaultSubject}
	}
	return g
}

// MaxConcurrency bounds in-flight store calls of one fan-out.
func (g *ProbeGrid) MaxConcurrency() int { return g.maxConcurrency }

// Subjects returns the subject names probed under a placement.
func (g *ProbeGrid) Subjects() []string { return append([]string(nil), g.subjects...) }

// Placements enumerates batch × semester × division for a department, at
// most MaxPartitions entries, in declaration order.
func (g *ProbeGrid) Placements(department string) []paths.Placement {
	out := make([]paths.Placement, 0, g.maxPartitions)
	for _, by := range g.batchYears {
		for _, sem := range g.semesters {
			for _, div := range g.divisions {
				if len(out) == g.maxPartitions {
					return out
				}
				out = append(out, paths.Placement{
					BatchYear:  by,
					Department: department,
					Year:       paths.YearForSemester(sem),
					Semester:   sem,
					Division:   div,
				})
			}
		}
	}
	return out
}

// ProbeDates merges the known dates with the optional inclusive range,
// dedupes them by day and keeps the earliest MaxProbeDays.
func (g *ProbeGrid) ProbeDates(known []time.Time, from, to time.Time) []time.Time {
	seen := make(map[string]time.Time)
	add := func(t time.Time) {
		if t.IsZero() {
			return
		}
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		seen[paths.FormatDate(day)] = day
	}
	for _, t := range known {
		add(t)
	}
	if !from.IsZero() && !to.IsZero() && !to.Before(from) {
		d := from
		for i := 0; i < g.maxProbeDays && !d.After(to); i++ {
			add(d)
			d = d.AddDate(0, 0, 1)
		}
	}

	out := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	if len(out) > g.maxProbeDays {
		out = out[:g.maxProbeDays]
	}
	return out
}
