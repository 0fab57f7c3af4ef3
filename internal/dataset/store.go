// Package dataset holds the three normalized club datasets in memory.
// A Store never changes after Load and needs no locking.
package dataset

import (
	"context"
	"fmt"

	"clubstats/internal/clubname"
	"clubstats/internal/core"
	"clubstats/internal/sheets"

	"golang.org/x/sync/errgroup"
)

// Store is the immutable, normalized view of the roster, yearly membership
// and session datasets.
type Store struct {
	universe   []string
	roster     []core.ClubRecord
	membership []core.YearlyMembership
	sessions   []core.YearlySession

	rosterIdx     map[string][]int
	membershipIdx map[string][]int
	sessionsIdx   map[string][]int

	warnings []core.DataQualityWarning
}

// LoadFrom reads the three datasets from r concurrently and builds a Store.
func LoadFrom(ctx context.Context, r sheets.TableReader, n *clubname.Normalizer) (*Store, error) {
	tables := make([]sheets.Table, len(core.AllDatasets))
	g, gctx := errgroup.WithContext(ctx)
	for i, tag := range core.AllDatasets {
		g.Go(func() error {
			t, err := r.ReadTable(gctx, tag)
			if err != nil {
				return fmt.Errorf("read %s dataset: %w", tag, err)
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Load(n, tables[0], tables[1], tables[2])
}

// Load normalizes every club name and builds a Store. It fails only with a
// *core.LoadError naming every required column missing across the inputs.
// Per-row problems are recorded as warnings.
func Load(n *clubname.Normalizer, roster, membership, sessions sheets.Table) (*Store, error) {
	cols := map[core.DatasetTag][]int{}
	loadErr := &core.LoadError{}
	for tag, t := range map[core.DatasetTag]sheets.Table{
		core.DatasetRoster:     roster,
		core.DatasetMembership: membership,
		core.DatasetSessions:   sessions,
	} {
		idx := make([]int, 0, len(RequiredColumns[tag]))
		for _, name := range RequiredColumns[tag] {
			i := t.Column(name)
			if i < 0 {
				loadErr.Add(tag, name)
			}
			idx = append(idx, i)
		}
		cols[tag] = idx
	}
	if !loadErr.Empty() {
		return nil, loadErr
	}

	s := &Store{
		rosterIdx:     make(map[string][]int),
		membershipIdx: make(map[string][]int),
		sessionsIdx:   make(map[string][]int),
	}
	b := builder{store: s, normalizer: n}
	b.roster(roster, cols[core.DatasetRoster])
	b.membership(membership, cols[core.DatasetMembership])
	b.sessions(sessions, cols[core.DatasetSessions])
	b.unmatched()
	return s, nil
}

// Universe returns the distinct canonical roster club names in first-seen
// order.
func (s *Store) Universe() []string {
	return append([]string(nil), s.universe...)
}

// Contains reports whether club is part of the roster universe.
func (s *Store) Contains(club string) bool {
	_, ok := s.rosterIdx[club]
	return ok
}

// Roster returns the roster records in source order.
func (s *Store) Roster() []core.ClubRecord {
	return append([]core.ClubRecord(nil), s.roster...)
}

// Membership returns the yearly membership rows in source order.
func (s *Store) Membership() []core.YearlyMembership {
	return append([]core.YearlyMembership(nil), s.membership...)
}

// Sessions returns the yearly session rows in source order.
func (s *Store) Sessions() []core.YearlySession {
	return append([]core.YearlySession(nil), s.sessions...)
}

// RosterFor returns the roster records for club.
func (s *Store) RosterFor(club string) []core.ClubRecord {
	out := make([]core.ClubRecord, 0, len(s.rosterIdx[club]))
	for _, i := range s.rosterIdx[club] {
		out = append(out, s.roster[i])
	}
	return out
}

// MembershipFor returns every membership row for club, duplicates included.
func (s *Store) MembershipFor(club string) []core.YearlyMembership {
	out := make([]core.YearlyMembership, 0, len(s.membershipIdx[club]))
	for _, i := range s.membershipIdx[club] {
		out = append(out, s.membership[i])
	}
	return out
}

// SessionsFor returns every session row for club, duplicates included.
func (s *Store) SessionsFor(club string) []core.YearlySession {
	out := make([]core.YearlySession, 0, len(s.sessionsIdx[club]))
	for _, i := range s.sessionsIdx[club] {
		out = append(out, s.sessions[i])
	}
	return out
}

// Warnings returns the data quality conditions found during Load.
func (s *Store) Warnings() []core.DataQualityWarning {
	return append([]core.DataQualityWarning(nil), s.warnings...)
}
