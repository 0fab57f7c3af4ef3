// Package selection holds the set of clubs the dashboard is filtered by.
package selection

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// AllValue is the sentinel option that selects every club.
const AllValue = "all"

// ErrUnknownClub is returned when a mutation names a club outside the universe.
var ErrUnknownClub = errors.New("unknown club")

// Universe is the source of selectable clubs. *dataset.Store satisfies it.
type Universe interface {
	Universe() []string
	Contains(club string) bool
}

// Selection is a resolved selection. Clubs is in universe order; when All is
// set it holds the whole universe at resolution time.
type Selection struct {
	All   bool
	Clubs []string
}

// Has reports whether club is selected.
func (s Selection) Has(club string) bool {
	for _, c := range s.Clubs {
		if c == club {
			return true
		}
	}
	return false
}

// Set returns the selected clubs as a lookup set.
func (s Selection) Set() map[string]struct{} {
	m := make(map[string]struct{}, len(s.Clubs))
	for _, c := range s.Clubs {
		m[c] = struct{}{}
	}
	return m
}

// Key identifies the resolved club set. ALL and an explicit set holding the
// whole universe share a key.
func (s Selection) Key() string {
	return strings.Join(s.Clubs, "\x1f")
}

func (s Selection) String() string {
	if s.All {
		return "all"
	}
	return fmt.Sprintf("%d clubs", len(s.Clubs))
}

// Listener receives every successful mutation. It is called with the state
// lock held and must not block or call back into the State.
type Listener func(version uint64, sel Selection)

// State is the mutable selection. The zero value is not usable; call New.
type State struct {
	mu       sync.Mutex
	universe Universe
	all      bool
	clubs    map[string]struct{}
	version  uint64
	listener Listener
}

// New returns a State selecting every club in u.
func New(u Universe) *State {
	return &State{universe: u, all: true, clubs: map[string]struct{}{}}
}

// OnChange registers l, replacing any previous listener, and returns the
// snapshot l will see changes from. Every mutation after that snapshot
// reaches l.
func (s *State) OnChange(l Listener) (uint64, Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = l
	return s.version, s.resolve()
}

// SetAll selects every club.
func (s *State) SetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = true
	s.clubs = map[string]struct{}{}
	s.changed()
}

// SetSelection replaces the selection with clubs. A set containing AllValue
// is the same as SetAll. An empty set selects nothing.
func (s *State) SetSelection(clubs []string) error {
	for _, c := range clubs {
		if c == AllValue {
			s.SetAll()
			return nil
		}
	}
	next := make(map[string]struct{}, len(clubs))
	for _, c := range clubs {
		if !s.universe.Contains(c) {
			return fmt.Errorf("%w: %q", ErrUnknownClub, c)
		}
		next[c] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = false
	s.clubs = next
	s.changed()
	return nil
}

// Toggle flips club in or out of the selection. Toggling while everything
// is selected leaves every other club selected.
func (s *State) Toggle(club string) error {
	if club == AllValue {
		s.SetAll()
		return nil
	}
	if !s.universe.Contains(club) {
		return fmt.Errorf("%w: %q", ErrUnknownClub, club)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.all {
		s.all = false
		s.clubs = make(map[string]struct{})
		for _, c := range s.universe.Universe() {
			s.clubs[c] = struct{}{}
		}
	}
	if _, ok := s.clubs[club]; ok {
		delete(s.clubs, club)
	} else {
		s.clubs[club] = struct{}{}
	}
	s.changed()
	return nil
}

// Current resolves the selection against the live universe.
func (s *State) Current() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolve()
}

// Snapshot returns the current version together with the resolved selection.
func (s *State) Snapshot() (uint64, Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version, s.resolve()
}

// Universe returns every selectable club in roster order.
func (s *State) Universe() []string {
	return append([]string(nil), s.universe.Universe()...)
}

// Version returns the number of successful mutations so far.
func (s *State) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *State) resolve() Selection {
	universe := s.universe.Universe()
	if s.all {
		return Selection{All: true, Clubs: universe}
	}
	clubs := make([]string, 0, len(s.clubs))
	for _, c := range universe {
		if _, ok := s.clubs[c]; ok {
			clubs = append(clubs, c)
		}
	}
	return Selection{Clubs: clubs}
}

// changed must be called with mu held.
func (s *State) changed() {
	s.version++
	if s.listener != nil {
		s.listener(s.version, s.resolve())
	}
}
