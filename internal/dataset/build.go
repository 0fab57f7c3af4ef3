package dataset

import (
	"fmt"
	"strings"

	"clubstats/internal/clubname"
	"clubstats/internal/core"
	"clubstats/internal/sheets"
)

type builder struct {
	store      *Store
	normalizer *clubname.Normalizer

	// first source row and first-seen order of each non-roster club
	firstRow map[core.DatasetTag]map[string]int
	order    map[core.DatasetTag][]string
}

func (b *builder) warn(kind core.WarningKind, tag core.DatasetTag, club string, row int, format string, args ...any) {
	b.store.warnings = append(b.store.warnings, core.DataQualityWarning{
		Kind:    kind,
		Dataset: tag,
		Club:    club,
		Row:     row,
		Detail:  fmt.Sprintf(format, args...),
	})
}

// name returns the canonical club name of row, or false when the row should
// be skipped.
func (b *builder) name(tag core.DatasetTag, row []string, col, rowNo int) (string, bool) {
	if sheets.IsBlank(row) {
		return "", false
	}
	raw := sheets.Cell(row, col)
	if strings.TrimSpace(raw) == "" {
		b.warn(core.WarnEmptyClubName, tag, "", rowNo, "row has values but no club name")
		return "", false
	}
	club := b.normalizer.Normalize(raw, tag)
	if tag != core.DatasetRoster {
		if b.firstRow == nil {
			b.firstRow = make(map[core.DatasetTag]map[string]int)
			b.order = make(map[core.DatasetTag][]string)
		}
		if b.firstRow[tag] == nil {
			b.firstRow[tag] = make(map[string]int)
		}
		if _, seen := b.firstRow[tag][club]; !seen {
			b.firstRow[tag][club] = rowNo
			b.order[tag] = append(b.order[tag], club)
		}
	}
	return club, true
}

func (b *builder) count(tag core.DatasetTag, club string, rowNo int, column, cell string) int64 {
	v, ok := core.ParseCount(cell)
	if !ok {
		return 0
	}
	if v < 0 {
		b.warn(core.WarnNegativeValue, tag, club, rowNo, "%s is %d, counted as 0", column, v)
		return 0
	}
	return v
}

func (b *builder) average(tag core.DatasetTag, club string, rowNo int, column, cell string) float64 {
	v, ok := core.ParseAverage(cell)
	if !ok {
		return 0
	}
	if v < 0 {
		b.warn(core.WarnNegativeValue, tag, club, rowNo, "%s is %g, counted as 0", column, v)
		return 0
	}
	return v
}

func (b *builder) duplicate(idx map[string][]int, tag core.DatasetTag, club string, rowNo int) {
	if n := len(idx[club]); n > 1 {
		b.warn(core.WarnDuplicateClub, tag, club, rowNo, "club appears %d times, rows are kept separately", n)
	}
}

func (b *builder) roster(t sheets.Table, cols []int) {
	s := b.store
	for i, row := range t.Rows {
		rowNo := i + 1
		club, ok := b.name(core.DatasetRoster, row, cols[0], rowNo)
		if !ok {
			continue
		}
		rec := core.ClubRecord{
			Club:    club,
			Males:   b.count(core.DatasetRoster, club, rowNo, ColRosterMales, sheets.Cell(row, cols[1])),
			Females: b.count(core.DatasetRoster, club, rowNo, ColRosterFemale, sheets.Cell(row, cols[2])),
			Total:   b.count(core.DatasetRoster, club, rowNo, ColRosterTotal, sheets.Cell(row, cols[3])),
		}
		if !rec.Consistent() {
			b.warn(core.WarnTotalMismatch, core.DatasetRoster, club, rowNo,
				"total %d != males %d + females %d", rec.Total, rec.Males, rec.Females)
		}
		if _, seen := s.rosterIdx[club]; !seen {
			s.universe = append(s.universe, club)
		}
		s.rosterIdx[club] = append(s.rosterIdx[club], len(s.roster))
		s.roster = append(s.roster, rec)
		b.duplicate(s.rosterIdx, core.DatasetRoster, club, rowNo)
	}
}

func (b *builder) membership(t sheets.Table, cols []int) {
	s := b.store
	for i, row := range t.Rows {
		rowNo := i + 1
		club, ok := b.name(core.DatasetMembership, row, cols[0], rowNo)
		if !ok {
			continue
		}
		rec := core.YearlyMembership{
			Club:      club,
			Total2023: b.count(core.DatasetMembership, club, rowNo, ColMembership2023, sheets.Cell(row, cols[1])),
			Total2024: b.count(core.DatasetMembership, club, rowNo, ColMembership2024, sheets.Cell(row, cols[2])),
		}
		s.membershipIdx[club] = append(s.membershipIdx[club], len(s.membership))
		s.membership = append(s.membership, rec)
		b.duplicate(s.membershipIdx, core.DatasetMembership, club, rowNo)
	}
}

func (b *builder) sessions(t sheets.Table, cols []int) {
	s := b.store
	for i, row := range t.Rows {
		rowNo := i + 1
		club, ok := b.name(core.DatasetSessions, row, cols[0], rowNo)
		if !ok {
			continue
		}
		rec := core.YearlySession{
			Club:        club,
			Average2023: b.average(core.DatasetSessions, club, rowNo, ColSessions2023, sheets.Cell(row, cols[1])),
			Average2024: b.average(core.DatasetSessions, club, rowNo, ColSessions2024, sheets.Cell(row, cols[2])),
		}
		s.sessionsIdx[club] = append(s.sessionsIdx[club], len(s.sessions))
		s.sessions = append(s.sessions, rec)
		b.duplicate(s.sessionsIdx, core.DatasetSessions, club, rowNo)
	}
}

// unmatched warns once per membership or session club with no roster row.
// Such rows never pass a selection filter.
func (b *builder) unmatched() {
	for _, tag := range []core.DatasetTag{core.DatasetMembership, core.DatasetSessions} {
		for _, club := range b.order[tag] {
			if b.store.Contains(club) {
				continue
			}
			b.warn(core.WarnUnmatchedClub, tag, club, b.firstRow[tag][club], "no roster club with this name")
		}
	}
}
