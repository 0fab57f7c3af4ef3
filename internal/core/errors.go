package core

import (
	"fmt"
	"sort"
	"strings"
)

// LoadError reports required columns missing from one or more datasets.
// Nothing is loaded when it is returned.
type LoadError struct {
	Missing map[DatasetTag][]string
}

func (e *LoadError) Error() string {
	tags := make([]string, 0, len(e.Missing))
	for tag := range e.Missing {
		tags = append(tags, string(tag))
	}
	sort.Strings(tags)
	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		cols := e.Missing[DatasetTag(tag)]
		parts = append(parts, fmt.Sprintf("%s: missing %s", tag, strings.Join(cols, ", ")))
	}
	return "load datasets: " + strings.Join(parts, "; ")
}

// Add records a missing column for the given dataset.
func (e *LoadError) Add(tag DatasetTag, column string) {
	if e.Missing == nil {
		e.Missing = make(map[DatasetTag][]string)
	}
	e.Missing[tag] = append(e.Missing[tag], column)
}

// Empty reports whether no missing column was recorded.
func (e *LoadError) Empty() bool {
	return e == nil || len(e.Missing) == 0
}

// WarningKind classifies a data quality condition.
type WarningKind string

const (
	WarnTotalMismatch WarningKind = "total_mismatch"
	WarnDuplicateClub WarningKind = "duplicate_club"
	WarnNegativeValue WarningKind = "negative_value"
	WarnUnmatchedClub WarningKind = "unmatched_club"
	WarnEmptyClubName WarningKind = "empty_club_name"
)

// DataQualityWarning describes a non-fatal problem found while loading.
// Aggregation proceeds regardless.
type DataQualityWarning struct {
	Kind    WarningKind
	Dataset DatasetTag
	Club    string
	Row     int // 1-based data row, header excluded
	Detail  string
}

func (w DataQualityWarning) String() string {
	return fmt.Sprintf("%s %s row %d (%q): %s", w.Dataset, w.Kind, w.Row, w.Club, w.Detail)
}
