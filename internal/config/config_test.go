package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-backend/internal/domain"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("server:\n  host: localhost\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost:8080", cfg.GetServerAddress())
	assert.Equal(t, []string{"Teacher", "HOD"}, cfg.Workflow.DefaultFlow)
	assert.Equal(t, "CS", cfg.Departments.Default)
	assert.Equal(t, 31, cfg.Probe.MaxProbeDays)
	assert.Equal(t, "0 0 8 * * *", cfg.Scheduler.PendingLeaveReminders)
	assert.Equal(t, "IT", cfg.Departments.Aliases["information technology"])
}

func TestParseEnvironmentOverrides(t *testing.T) {
	t.Setenv("FIRESTORE_PROJECT_ID", "campus-prod")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Parse([]byte("log:\n  level: info\n"))
	require.NoError(t, err)

	assert.Equal(t, "campus-prod", cfg.Firestore.ProjectID)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"too many departments":    "departments:\n  codes: [A, B, C, D, E, F]\n  default: A\n",
		"unknown default":         "departments:\n  codes: [CS, IT]\n  default: MECH\n",
		"sendgrid without key":    "sendgrid:\n  enabled: true\n  from_email: a@b\n",
		"credentials, no project": "firestore:\n  credentials_file: /tmp/key.json\n",
		"repeated stage":          "workflow:\n  default_flow: [HOD, HOD]\n",
		"negative stale hours":    "scheduler:\n  stale_after_hours: -1\n",
	}
	for name, yaml := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7000\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestTables(t *testing.T) {
	cfg, err := Parse([]byte("workflow:\n  role_stages:\n    Teacher: Teacher\n    HOD: HOD\n"))
	require.NoError(t, err)

	policy, err := cfg.ApprovalPolicy()
	require.NoError(t, err)
	stage, ok := policy.StageFor(domain.RoleHOD)
	assert.True(t, ok)
	assert.Equal(t, domain.StageHOD, stage)
	_, ok = policy.StageFor(domain.RolePrincipal)
	assert.False(t, ok)

	grid := cfg.ProbeGrid()
	assert.Equal(t, 8, grid.MaxConcurrency())
	assert.Len(t, grid.Placements("CS"), 64)
}
