// Package department maps free-text department names to canonical codes and
// detects a user's department when the profile does not carry one.
package department

import (
	"context"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"campus-backend/internal/domain"
	"campus-backend/internal/logger"
	"campus-backend/internal/paths"
	"campus-backend/internal/repository"
)

// Table is the closed set of canonical codes with their aliases. Codes are
// kept in probe priority order.
type Table struct {
	codes    []string
	aliases  map[string]string
	fallback string
}

// NewTable builds an immutable table. Alias keys are matched after the same
// normalization Normalize applies to its input.
func NewTable(codes []string, fallback string, aliases map[string]string) *Table {
	t := &Table{
		codes:    make([]string, 0, len(codes)),
		aliases:  make(map[string]string, len(aliases)+len(codes)),
		fallback: strings.ToUpper(strings.TrimSpace(fallback)),
	}
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		t.codes = append(t.codes, c)
		t.aliases[canonical(c)] = c
	}
	for k, v := range aliases {
		t.aliases[canonical(k)] = strings.ToUpper(strings.TrimSpace(v))
	}
	if t.fallback == "" && len(t.codes) > 0 {
		t.fallback = t.codes[0]
	}
	return t
}

// Codes returns the known codes in priority order.
func (t *Table) Codes() []string { return append([]string(nil), t.codes...) }

// Default is the baseline code.
func (t *Table) Default() string { return t.fallback }

// Normalize maps a human spelling to a canonical code, or the default.
func (t *Table) Normalize(freeText string) string {
	key := canonical(freeText)
	if key == "" {
		return t.fallback
	}
	if code, ok := t.aliases[key]; ok {
		return code
	}
	return t.fallback
}

// Known reports whether freeText resolves to a code without falling back.
func (t *Table) Known(freeText string) bool {
	_, ok := t.aliases[canonical(freeText)]
	return ok
}

// canonical lower-cases and collapses separators to single spaces.
func canonical(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("_", " ", "-", " ", ".", " ", "/", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// Resolver detects departments from stored data.
type Resolver struct {
	store repository.DocumentStore
	table *Table
	grid  *domain.ProbeGrid
}

func NewResolver(store repository.DocumentStore, table *Table, grid *domain.ProbeGrid) *Resolver {
	return &Resolver{store: store, table: table, grid: grid}
}

// Table returns the code table the resolver works with.
func (r *Resolver) Table() *Table { return r.table }

// AutoDetect returns the department of a user. The profile wins; otherwise
// the roster partitions of each known code are probed in priority order
// for a document keyed by the user id. Read errors are logged and skipped,
// and the default code is returned when nothing matches.
func (r *Resolver) AutoDetect(ctx context.Context, userID string, role domain.Role) string {
	logger.EnterMethod("Resolver.AutoDetect", "userID", userID, "role", role)

	doc, err := r.store.Get(ctx, paths.Users, userID)
	if err != nil {
		logger.Warn("Profile lookup failed during department detection", "userID", userID, "error", err)
	} else if doc != nil {
		profile := domain.UserProfileFromDocument(doc.ID, doc.Data)
		if profile.Department != "" {
			code := r.table.Normalize(profile.Department)
			logger.ExitMethod("Resolver.AutoDetect", "department", code, "source", "profile")
			return code
		}
	}

	for _, code := range r.table.codes {
		if r.probe(ctx, code, userID, role) {
			logger.ExitMethod("Resolver.AutoDetect", "department", code, "source", "roster")
			return code
		}
	}

	logger.ExitMethod("Resolver.AutoDetect", "department", r.table.fallback, "source", "default")
	return r.table.fallback
}

func (r *Resolver) probe(ctx context.Context, code, userID string, role domain.Role) bool {
	roster := paths.StudentRoster
	if role == domain.RoleTeacher || role == domain.RoleHOD {
		roster = paths.TeacherRoster
	}

	var found atomic.Bool
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.grid.MaxConcurrency())
	for _, p := range r.grid.Placements(code) {
		collection := roster(p)
		g.Go(func() error {
			if found.Load() {
				return nil
			}
			doc, err := r.store.Get(gctx, collection, userID)
			if err != nil {
				logger.Warn("Roster probe failed", "collection", collection, "error", err)
				return nil
			}
			if doc != nil {
				found.Store(true)
			}
			return nil
		})
	}
	_ = g.Wait()
	return found.Load()
}
