package department

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"campus-backend/internal/domain"
	"campus-backend/internal/paths"
	"campus-backend/internal/repository/memory"
)

func testTable() *Table {
	return NewTable([]string{"CS", "IT", "ENTC", "MECH", "CIVIL"}, "CS", map[string]string{
		"computer science":                  "CS",
		"information technology":            "IT",
		"electronics and telecommunication": "ENTC",
		"e&tc":                              "ENTC",
		"mechanical":                        "MECH",
	})
}

func testGrid() *domain.ProbeGrid {
	return domain.NewProbeGrid(domain.ProbeGridConfig{
		BatchYears:     []string{"2021", "2022"},
		Semesters:      []string{"1", "2"},
		Divisions:      []string{"A"},
		MaxConcurrency: 2,
		MaxPartitions:  16,
	})
}

func TestNormalize(t *testing.T) {
	table := testTable()

	cases := map[string]string{
		"CS":                     "CS",
		"  it ":                  "IT",
		"Information-Technology": "IT",
		"COMPUTER   SCIENCE":     "CS",
		"E&TC":                   "ENTC",
		"mechanical":             "MECH",
		"civil":                  "CIVIL",
		"astrology":              "CS",
		"":                       "CS",
	}
	for in, want := range cases {
		assert.Equal(t, want, table.Normalize(in), "input %q", in)
	}

	assert.True(t, table.Known("information technology"))
	assert.False(t, table.Known("astrology"))
}

func TestAutoDetect(t *testing.T) {
	ctx := context.Background()

	t.Run("profile department wins", func(t *testing.T) {
		store := memory.New()
		store.Set(ctx, paths.Users, "u1", map[string]any{"department": "Information Technology"}, false)
		r := NewResolver(store, testTable(), testGrid())

		assert.Equal(t, "IT", r.AutoDetect(ctx, "u1", domain.RoleStudent))
	})

	t.Run("first roster hit in priority order", func(t *testing.T) {
		store := memory.New()
		store.Set(ctx, paths.Users, "u2", map[string]any{"name": "No Dept"}, false)
		p := paths.Placement{BatchYear: "2022", Department: "MECH", Year: "1", Semester: "2", Division: "A"}
		store.Set(ctx, paths.StudentRoster(p), "u2", map[string]any{"name": "No Dept"}, false)
		r := NewResolver(store, testTable(), testGrid())

		assert.Equal(t, "MECH", r.AutoDetect(ctx, "u2", domain.RoleStudent))
	})

	t.Run("teachers are probed in teacher rosters", func(t *testing.T) {
		store := memory.New()
		p := paths.Placement{BatchYear: "2021", Department: "ENTC", Year: "1", Semester: "1", Division: "A"}
		store.Set(ctx, paths.TeacherRoster(p), "t1", map[string]any{"role": "teacher"}, false)
		r := NewResolver(store, testTable(), testGrid())

		assert.Equal(t, "ENTC", r.AutoDetect(ctx, "t1", domain.RoleTeacher))
		assert.Equal(t, "CS", r.AutoDetect(ctx, "t1", domain.RoleStudent))
	})

	t.Run("no hit returns default", func(t *testing.T) {
		r := NewResolver(memory.New(), testTable(), testGrid())
		assert.Equal(t, "CS", r.AutoDetect(ctx, "ghost", domain.RoleStudent))
	})

	t.Run("read failures fall back to default", func(t *testing.T) {
		store := memory.New()
		store.FailWith(func(op, path string) error { return memory.ErrInjected })
		r := NewResolver(store, testTable(), testGrid())

		assert.Equal(t, "CS", r.AutoDetect(ctx, "u1", domain.RoleStudent))
	})
}
