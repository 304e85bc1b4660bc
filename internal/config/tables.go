package config

import (
	"campus-backend/internal/domain"
)

// ApprovalPolicy converts the workflow section into the immutable policy
// handed to the workflow engine.
func (c *Config) ApprovalPolicy() (*domain.ApprovalPolicy, error) {
	roles := make(map[domain.Role]domain.Stage, len(c.Workflow.RoleStages))
	for role, stage := range c.Workflow.RoleStages {
		roles[domain.ParseRole(role)] = domain.Stage(stage)
	}
	heads := make([]domain.Stage, 0, len(c.Workflow.HeadStages))
	for _, s := range c.Workflow.HeadStages {
		heads = append(heads, domain.Stage(s))
	}
	return domain.NewApprovalPolicy(
		domain.ChainFromStrings(c.Workflow.DefaultFlow),
		domain.ChainFromStrings(c.Workflow.StaffFlow),
		roles,
		heads,
	)
}

// ProbeGrid converts the probe section into the bounded enumeration grid.
func (c *Config) ProbeGrid() *domain.ProbeGrid {
	return domain.NewProbeGrid(domain.ProbeGridConfig{
		BatchYears:     c.Probe.BatchYears,
		Semesters:      c.Probe.Semesters,
		Divisions:      c.Probe.Divisions,
		Subjects:       c.Probe.Subjects,
		MaxConcurrency: c.Probe.MaxConcurrency,
		MaxProbeDays:   c.Probe.MaxProbeDays,
		MaxPartitions:  c.Probe.MaxPartitions,
	})
}
